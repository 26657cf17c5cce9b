package listing

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kashf-sd/kashf/pkg/fn"
)

const (
	maxNameTokens = 4
	minNameRunes  = 2
)

var (
	lineNumberPrefixRe = regexp.MustCompile(`^\d+\s*[/\-).]\s*`)
	chassisClaimRe     = regexp.MustCompile(`شاسي[:\s]*[0-9A-Za-z]*`)
	plateNumberFirstRe = regexp.MustCompile(`(\d{3,}\s*/?\s*` + plateLetter + `(?:\s+` + plateLetter + `){0,2}(?:\s*\d+)?)` + wordEnd)
	plateLetterFirstRe = regexp.MustCompile(`(?:^|[^أ-ي])(` + plateLetter + `(?:\s+` + plateLetter + `){0,2}\s*/?\s*\d{3,})`)
	parenRe            = regexp.MustCompile(`\([^)]*\)`)
	markerWordRe       = regexp.MustCompile(`شاسي|لوحة`)
)

const nameEdgeCutset = " \t-–|:,./"

// ExtractCarName reads the free-form vehicle description of a line by
// removing everything the other extractors claim.
func ExtractCarName(line string) string {
	s := lineNumberPrefixRe.ReplaceAllString(strings.TrimSpace(line), "")
	s = chassisClaimRe.ReplaceAllString(s, " ")
	s = plateWordRe.ReplaceAllString(s, " ")
	s = removeGroup(plateNumberFirstRe, s, nil)
	s = removeGroup(plateLetterFirstRe, s, func(g string) bool { return isModelYear(NormalizeDigits(g)) })
	s = parenRe.ReplaceAllString(s, " ")
	s = longDigitRunRe.ReplaceAllString(s, " ")

	words := fn.Take(fn.Filter(strings.Fields(s), hasLetterOrDigit), maxNameTokens)
	if name := strings.Join(words, " "); utf8.RuneCountInString(name) >= minNameRunes {
		return name
	}

	if name := nameBeforeNumber(line); utf8.RuneCountInString(name) >= minNameRunes {
		return name
	}
	return UnknownCarName
}

// nameBeforeNumber is the text ahead of the first four digit run.
func nameBeforeNumber(line string) string {
	s := strings.TrimSpace(line)
	if loc := anyDigitRunRe.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	s = lineNumberPrefixRe.ReplaceAllString(s, "")
	s = parenRe.ReplaceAllString(s, " ")
	s = markerWordRe.ReplaceAllString(s, " ")
	return strings.Trim(strings.Join(strings.Fields(s), " "), nameEdgeCutset)
}

func hasLetterOrDigit(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}
