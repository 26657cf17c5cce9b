package listing

import (
	"regexp"

	"github.com/kashf-sd/kashf/pkg/fn"
)

var listName = fn.Chain(
	submatch(regexp.MustCompile(`(?i)كشف\s*[:\s]*\(?([A-Z0-9]+)\)?`), nil),
	submatch(regexp.MustCompile(`قائمة\s*[:\s]*([^\n]+)`), nil),
	submatch(regexp.MustCompile(`(?i)الكشف\s*رقم\s*([A-Z0-9]+)`), nil),
)

// ExtractListName finds the listing identifier or title in text.
func ExtractListName(text string) (string, bool) {
	return listName(text).Get()
}
