package listing

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// LineKind is what a single input line was judged to be.
type LineKind int

const (
	LineVehicle LineKind = iota
	LineBlank
	LineTooShort
	LineHeading
	LineContact
	LineNote
	LineSeparator
)

var lineKindNames = [...]string{
	LineVehicle:   "vehicle",
	LineBlank:     "blank",
	LineTooShort:  "too_short",
	LineHeading:   "heading",
	LineContact:   "contact",
	LineNote:      "note",
	LineSeparator: "separator",
}

func (k LineKind) String() string {
	if k < 0 || int(k) >= len(lineKindNames) {
		return "unknown"
	}
	return lineKindNames[k]
}

// IsNoise reports whether lines of this kind are skipped by Parse.
func (k LineKind) IsNoise() bool { return k != LineVehicle }

const minLineRunes = 5

var (
	separatorLineRe = regexp.MustCompile(`^[-=_#*]+$`)
	phoneOnlyRe     = regexp.MustCompile(`^\+?(?:0\d{9}|249\d{9})$`)
	phoneFillerRe   = regexp.MustCompile(`[\s\-]+`)
)

// ClassifyLine decides whether a trimmed line can describe a vehicle.
func ClassifyLine(line string) LineKind {
	s := strings.TrimSpace(line)
	switch {
	case s == "":
		return LineBlank
	case utf8.RuneCountInString(s) < minLineRunes:
		return LineTooShort
	case hasAnyPrefix(s, headingPrefixes[:]):
		return LineHeading
	case containsAny(s, contactKeywords[:]):
		return LineContact
	case hasAnyPrefix(s, notePrefixes[:]):
		return LineNote
	case separatorLineRe.MatchString(s):
		return LineSeparator
	case phoneOnlyRe.MatchString(phoneFillerRe.ReplaceAllString(s, "")):
		return LineContact
	}
	return LineVehicle
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
