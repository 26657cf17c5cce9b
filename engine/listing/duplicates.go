package listing

import (
	"fmt"

	"github.com/kashf-sd/kashf/pkg/fn"
)

// CheckDuplicates reports every vehicle whose chassis digits already
// appeared earlier in the list. The first occurrence is never reported.
func CheckDuplicates(vehicles []ParsedVehicle) []string {
	repeats := fn.Repeats(vehicles, func(v ParsedVehicle) string { return v.ChassisDigits })
	return fn.Map(repeats, func(v ParsedVehicle) string {
		return fmt.Sprintf("السطر %d: شاسي مكرر %s", v.LineNumber, v.ChassisDigits)
	})
}
