package listing

import (
	"regexp"
	"strings"

	"github.com/kashf-sd/kashf/pkg/fn"
)

// submatch yields the trimmed first capture group of re, if accept allows it.
func submatch(re *regexp.Regexp, accept func(string) bool) fn.Matcher[string, string] {
	return func(s string) fn.Option[string] {
		m := re.FindStringSubmatch(s)
		if m == nil {
			return fn.None[string]()
		}
		v := strings.TrimSpace(m[1])
		if v == "" || (accept != nil && !accept(v)) {
			return fn.None[string]()
		}
		return fn.Some(v)
	}
}

// removeGroup blanks the first capture group of every match of re, except
// groups that keep reports as not claimed.
func removeGroup(re *regexp.Regexp, s string, keep func(string) bool) string {
	locs := re.FindAllStringSubmatchIndex(s, -1)
	if locs == nil {
		return s
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		start, end := loc[2], loc[3]
		if start < last || (keep != nil && keep(s[start:end])) {
			continue
		}
		b.WriteString(s[last:start])
		b.WriteByte(' ')
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}
