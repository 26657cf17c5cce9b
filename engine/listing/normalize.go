package listing

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeDigits keeps only the ASCII decimal digits of s, in order.
func NormalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// prepareText composes s, drops harakat and tatweel, and maps Arabic-Indic
// digits to ASCII. A fresh chain is built per call because transform chains
// carry buffers and are not safe for concurrent use.
func prepareText(s string) string {
	t := transform.Chain(norm.NFC, runes.Remove(runes.Predicate(isArabicMark)), runes.Map(asciiDigit))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isArabicMark(r rune) bool {
	return (r >= 0x064B && r <= 0x0652) || r == 0x0670 || r == 0x0640
}

func asciiDigit(r rune) rune {
	switch {
	case r >= 0x0660 && r <= 0x0669:
		return '0' + (r - 0x0660)
	case r >= 0x06F0 && r <= 0x06F9:
		return '0' + (r - 0x06F0)
	}
	return r
}
