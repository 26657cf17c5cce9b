package listing

import "strings"

// UnknownCarName is returned when no usable name text remains on a line.
const UnknownCarName = "غير محدد"

// Diagnostics surfaced verbatim to operators.
const (
	MsgEmptyText  = "النص فارغ"
	MsgNoVehicles = "لم يتم معالجة أي عربية"
)

// colorWords is ordered; earlier entries win.
var colorWords = [...]string{
	"ابيض", "أبيض", "اسود", "أسود", "احمر", "أحمر",
	"ازرق", "أزرق", "اخضر", "أخضر", "سلفر", "بني",
	"رمادي", "بيج", "سحلية", "قبة", "ذهبي", "فضي",
}

var contactKeywords = [...]string{
	"تواصل", "واتساب", "اتصال", "رقم", "للتواصل", "موبايل", "جوال",
}

var headingPrefixes = [...]string{"كشف", "الكشف", "قائمة"}

var notePrefixes = [...]string{"ملاحظة", "ملاحظه", "ملحوظة"}

// contactKeywordAlt is the regex alternation of contactKeywords.
var contactKeywordAlt = strings.Join(contactKeywords[:], "|")

// Arabic letter range used by plate and name patterns (U+0623..U+064A).
const (
	arabicLetter = `[أ-ي]`
	// plateLetter is a one or two letter plate token.
	plateLetter = arabicLetter + `{1,2}`
	// wordEnd closes a plate token so it cannot run into a longer word.
	wordEnd = `(?:[^أ-ي]|$)`
)
