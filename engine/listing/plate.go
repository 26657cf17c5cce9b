package listing

import (
	"regexp"
	"strings"
)

// Plate is a license plate claim: the normalized text and its numeric part.
type Plate struct {
	Full   string
	Digits string
}

var (
	plateWordRe  = regexp.MustCompile(`لوحة[:\s]*`)
	plateSlashRe = regexp.MustCompile(`\s*/\s*`)
	spaceRunRe   = regexp.MustCompile(`\s+`)
)

type plateLayout struct {
	re    *regexp.Regexp
	build func(m []string) Plate
	// reject skips a match so a later one on the line can be tried.
	reject func(Plate) bool
	// letterFirst layouts put the number after the letters.
	letterFirst bool
}

func numberFirst(m []string) Plate {
	return Plate{Full: strings.Join(m[1:], " "), Digits: m[1]}
}

// plateLayouts are tried in order; the first layout with a match wins.
var plateLayouts = []plateLayout{
	// 7072 خ أ ب
	{re: regexp.MustCompile(`(\d{3,})\s+(` + plateLetter + `)\s+(` + plateLetter + `)\s+(` + plateLetter + `)` + wordEnd), build: numberFirst},
	// 11111 ب ح 8
	{re: regexp.MustCompile(`(\d{3,})\s+(` + plateLetter + `)\s+(` + plateLetter + `)\s+(\d+)`), build: numberFirst},
	// 12345 خ ع
	{re: regexp.MustCompile(`(\d{3,})\s+(` + plateLetter + `)\s+(` + plateLetter + `)` + wordEnd), build: numberFirst},
	// 63566 خ3
	{re: regexp.MustCompile(`(\d{3,})\s*(` + plateLetter + `)(\d+)`), build: func(m []string) Plate {
		return Plate{Full: m[1] + " " + m[2] + m[3], Digits: m[1]}
	}},
	// 69803 خ
	{re: regexp.MustCompile(`(\d{3,})\s+(` + plateLetter + `)` + wordEnd), build: numberFirst},
	// خ 12345, but not a model such as "لف 2010"
	{
		re: regexp.MustCompile(`(?:^|[^أ-ي])(` + plateLetter + `(?:\s+` + plateLetter + `){0,2})\s*(\d{3,})`),
		build: func(m []string) Plate {
			return Plate{Full: spaceRunRe.ReplaceAllString(m[1], " ") + " " + m[2], Digits: m[2]}
		},
		reject:      func(p Plate) bool { return isModelYear(p.Digits) },
		letterFirst: true,
	},
}

// isModelYear reports whether digits look like a 19xx or 20xx model year.
func isModelYear(digits string) bool {
	return len(digits) == 4 && (digits[:2] == "19" || digits[:2] == "20")
}

// ExtractPlate finds a license plate in a single line. The word "لوحة" and
// slashes are dropped first, then the layouts are tried in order.
func ExtractPlate(line string) (Plate, bool) {
	p, _, ok := findPlate(line)
	return p, ok
}

func findPlate(line string) (Plate, plateLayout, bool) {
	s := plateWordRe.ReplaceAllString(line, "")
	s = plateSlashRe.ReplaceAllString(s, " ")
	for _, l := range plateLayouts {
		for _, m := range l.re.FindAllStringSubmatch(s, -1) {
			if p := l.build(m); l.reject == nil || !l.reject(p) {
				return p, l, true
			}
		}
	}
	return Plate{}, plateLayout{}, false
}

// plateBeside looks for a plate outside the chassis claim first, so a
// chassis number is not read back as a plate number. A line whose only
// number is the chassis may still share it with the plate. When the chassis
// is a bare digit run that opens a number-first plate ("12345 ب ح 8"), the
// letters left behind are not a plate of their own.
func plateBeside(line string, c Chassis) (Plate, bool) {
	p, l, ok := findPlate(c.without(line))
	if !ok {
		return ExtractPlate(line)
	}
	if l.letterFirst && !c.keyword {
		if whole, wl, ok := findPlate(line); ok && !wl.letterFirst && whole.Digits == c.Digits {
			return whole, true
		}
	}
	return p, true
}
