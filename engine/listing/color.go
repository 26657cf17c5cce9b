package listing

import "strings"

// ExtractColor returns the first vocabulary color occurring anywhere in line.
func ExtractColor(line string) (string, bool) {
	for _, c := range colorWords {
		if strings.Contains(line, c) {
			return c, true
		}
	}
	return "", false
}
