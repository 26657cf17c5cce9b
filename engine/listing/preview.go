package listing

import (
	"fmt"
	"strings"

	"github.com/kashf-sd/kashf/pkg/fn"
)

// DefaultPreviewLimit is the number of vehicles Preview lists in full.
const DefaultPreviewLimit = 5

// Preview renders a short Arabic summary of parsed vehicles for operator
// confirmation. A non-positive limit means DefaultPreviewLimit.
func Preview(vehicles []ParsedVehicle, limit int) string {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	var b strings.Builder
	fmt.Fprintf(&b, "تم معالجة %d عربية:\n\n", len(vehicles))
	for i, v := range fn.Take(vehicles, limit) {
		fmt.Fprintf(&b, "%d. %s\n", i+1, v.CarName)
		fmt.Fprintf(&b, "   شاسي: %s\n", v.ChassisDigits)
		if v.PlateFull != "" {
			fmt.Fprintf(&b, "   لوحة: %s\n", v.PlateFull)
		}
		if v.Color != "" {
			fmt.Fprintf(&b, "   اللون: %s\n", v.Color)
		}
		b.WriteString("\n")
	}
	if rest := len(vehicles) - limit; rest > 0 {
		fmt.Fprintf(&b, "... و %d عربية أخرى", rest)
	}
	return b.String()
}
