package listing

import (
	"regexp"

	"github.com/kashf-sd/kashf/pkg/fn"
)

const minContactDigits = 10

var contactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:` + contactKeywordAlt + `)[:\s]*([+0-9]{10,14})`),
	regexp.MustCompile(`\b(0[0-9]{9})\b`),
	regexp.MustCompile(`\b(249[0-9]{9})\b`),
	regexp.MustCompile(`(\+249[0-9]{9})\b`),
}

var contactNumber = fn.Chain(fn.Map(contactPatterns, func(re *regexp.Regexp) fn.Matcher[string, string] {
	return submatch(re, func(v string) bool { return len(NormalizeDigits(v)) >= minContactDigits })
})...)

// ExtractContactNumber finds the operator phone number anywhere in text.
func ExtractContactNumber(text string) (string, bool) {
	return contactNumber(text).Get()
}
