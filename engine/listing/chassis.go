package listing

import (
	"regexp"

	"github.com/kashf-sd/kashf/pkg/fn"
)

// Chassis is a chassis (VIN) claim: the matched token and its ASCII digits.
type Chassis struct {
	Full   string
	Digits string

	// byte span of the claim within the line it came from
	start, end int
	// keyword is set when the number followed "شاسي"
	keyword bool
}

const (
	minKeywordChassisDigits = 4
	minLongRunDigits        = 6
	minAnyRunDigits         = 4
)

var (
	chassisKeywordRe = regexp.MustCompile(`شاسي[:\s]*([0-9A-Za-z]+)`)
	longDigitRunRe   = regexp.MustCompile(`\b\d{6,}\b`)
	anyDigitRunRe    = regexp.MustCompile(`\d{4,}`)
)

var chassisChain = fn.Chain[string, Chassis](
	chassisByKeyword,
	longestRun(longDigitRunRe, minLongRunDigits),
	longestRun(anyDigitRunRe, minAnyRunDigits),
)

// ExtractChassis picks the chassis number of a single line. An explicit
// "شاسي" token wins, then the longest standalone run of six or more digits,
// then the longest run of four or more.
func ExtractChassis(line string) (Chassis, bool) {
	return chassisChain(line).Get()
}

func chassisByKeyword(line string) fn.Option[Chassis] {
	loc := chassisKeywordRe.FindStringSubmatchIndex(line)
	if loc == nil {
		return fn.None[Chassis]()
	}
	token := line[loc[2]:loc[3]]
	digits := NormalizeDigits(token)
	if len(digits) < minKeywordChassisDigits {
		return fn.None[Chassis]()
	}
	return fn.Some(Chassis{Full: token, Digits: digits, start: loc[0], end: loc[1], keyword: true})
}

// longestRun keeps the first of the longest matches of re. Ties go to the
// earliest run.
func longestRun(re *regexp.Regexp, minDigits int) fn.Matcher[string, Chassis] {
	return func(line string) fn.Option[Chassis] {
		var best []int
		for _, loc := range re.FindAllStringIndex(line, -1) {
			if best == nil || loc[1]-loc[0] > best[1]-best[0] {
				best = loc
			}
		}
		if best == nil || best[1]-best[0] < minDigits {
			return fn.None[Chassis]()
		}
		run := line[best[0]:best[1]]
		return fn.Some(Chassis{Full: run, Digits: run, start: best[0], end: best[1]})
	}
}

// without returns line with the chassis claim blanked out.
func (c Chassis) without(line string) string {
	if c.end <= c.start || c.end > len(line) {
		return line
	}
	return line[:c.start] + " " + line[c.end:]
}
