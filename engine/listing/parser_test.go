package listing

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func parseOne(t *testing.T, text string) ParsedVehicle {
	t.Helper()
	res := Parse(text)
	if !res.Success || len(res.Vehicles) != 1 {
		t.Fatalf("Parse(%q): success=%v vehicles=%d errors=%v", text, res.Success, len(res.Vehicles), res.Errors)
	}
	return res.Vehicles[0]
}

func TestParse_PlateLettersAfterChassis(t *testing.T) {
	v := parseOne(t, "دبدوب - 123456789 - خ 12345")
	if !strings.Contains(v.CarName, "دبدوب") {
		t.Errorf("CarName = %q", v.CarName)
	}
	if v.ChassisDigits != "123456789" {
		t.Errorf("ChassisDigits = %q", v.ChassisDigits)
	}
	if v.PlateDigits != "12345" {
		t.Errorf("PlateDigits = %q", v.PlateDigits)
	}
}

func TestParse_NumberedLineWithColor(t *testing.T) {
	v := parseOne(t, "1/ هايس تايوتا (ابيض) شاسي 200046160")
	if !strings.Contains(v.CarName, "هايس تايوتا") {
		t.Errorf("CarName = %q", v.CarName)
	}
	if v.Color != "ابيض" {
		t.Errorf("Color = %q", v.Color)
	}
	if v.ChassisDigits != "200046160" {
		t.Errorf("ChassisDigits = %q", v.ChassisDigits)
	}
	if v.PlateFull != "" || v.PlateDigits != "" {
		t.Errorf("unexpected plate %q / %q", v.PlateFull, v.PlateDigits)
	}
	if v.LineNumber != 1 || v.RawLine != "1/ هايس تايوتا (ابيض) شاسي 200046160" {
		t.Errorf("LineNumber=%d RawLine=%q", v.LineNumber, v.RawLine)
	}
}

func TestParse_ContactNumber(t *testing.T) {
	res := Parse("كشف 5\nكورولا شاسي 123456\nتواصل واتساب 0999773431")
	if res.ContactNumber != "0999773431" {
		t.Errorf("ContactNumber = %q", res.ContactNumber)
	}
	if res.ListName != "5" {
		t.Errorf("ListName = %q", res.ListName)
	}
	if len(res.Vehicles) != 1 {
		t.Fatalf("vehicles = %d", len(res.Vehicles))
	}
}

func TestParse_GluedPlate(t *testing.T) {
	v := parseOne(t, "بوكس 63566 خ3")
	if v.PlateFull != "63566 خ3" || v.PlateDigits != "63566" {
		t.Errorf("plate = %q / %q", v.PlateFull, v.PlateDigits)
	}
	if v.ChassisDigits != "63566" {
		t.Errorf("ChassisDigits = %q", v.ChassisDigits)
	}
}

func TestParse_BlankInput(t *testing.T) {
	tests := []struct {
		text      string
		wantLines int
	}{
		{"", 1},
		{"   ", 1},
		{" \n\t\n", 3},
	}
	for _, tt := range tests {
		res := Parse(tt.text)
		if res.Success {
			t.Errorf("Parse(%q).Success = true", tt.text)
		}
		if res.Vehicles == nil || len(res.Vehicles) != 0 {
			t.Errorf("Parse(%q).Vehicles = %v", tt.text, res.Vehicles)
		}
		if len(res.Errors) == 0 || res.Errors[0] != MsgEmptyText {
			t.Errorf("Parse(%q).Errors = %v", tt.text, res.Errors)
		}
		want := Stats{TotalLines: tt.wantLines, Skipped: tt.wantLines}
		if diff := cmp.Diff(want, res.Stats); diff != "" {
			t.Errorf("Parse(%q) stats mismatch (-want +got):\n%s", tt.text, diff)
		}
	}
}

func TestParse_Stats(t *testing.T) {
	text := strings.Join([]string{
		"كشف (A12)",
		"1/ هايس تايوتا (ابيض) شاسي 200046160",
		"2/ كورولا سوداء",
		"",
		"-----",
		"تواصل واتساب 0999773431",
	}, "\n")
	res := Parse(text)

	want := Stats{TotalLines: 6, Parsed: 1, Skipped: 4, Failed: 1}
	if diff := cmp.Diff(want, res.Stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"السطر 3: لم يتم العثور على رقم شاسي صحيح"}, res.Errors); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
	if !res.Success || res.ListName != "A12" || res.ContactNumber != "0999773431" {
		t.Errorf("success=%v list=%q contact=%q", res.Success, res.ListName, res.ContactNumber)
	}
	if res.Vehicles[0].LineNumber != 2 {
		t.Errorf("LineNumber = %d, want 2", res.Vehicles[0].LineNumber)
	}
}

func TestParse_NoVehicles(t *testing.T) {
	res := Parse("كورولا سوداء\nملاحظة: لا يوجد")
	if res.Success {
		t.Fatal("expected failure")
	}
	if diff := cmp.Diff([]string{noChassisError(1)}, res.Errors); diff != "" {
		t.Errorf("line errors should stand alone (-want +got):\n%s", diff)
	}
	if res.Stats.Failed != 1 || res.Stats.Skipped != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}

	noise := Parse("كشف (B7)\nملاحظة: لا يوجد")
	if noise.Success {
		t.Fatal("expected failure")
	}
	if diff := cmp.Diff([]string{MsgNoVehicles}, noise.Errors); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_PreparedDigits(t *testing.T) {
	raw := "كورولا شـاسي ٢٠٠٠٤٦١٦٠"
	v := parseOne(t, raw)
	if v.ChassisDigits != "200046160" {
		t.Errorf("ChassisDigits = %q", v.ChassisDigits)
	}
	if v.RawLine != raw {
		t.Errorf("RawLine = %q, want untouched input", v.RawLine)
	}
}

func TestParse_LongRunIsChassis(t *testing.T) {
	for _, line := range []string{"كورولا 1234567", "هايس 2010 9988776655 ابيض", "x 000000 y"} {
		v := parseOne(t, line)
		if !strings.Contains(line, v.ChassisDigits) || len(v.ChassisDigits) < 6 {
			t.Errorf("%q: ChassisDigits = %q", line, v.ChassisDigits)
		}
	}
}

var sampleListing = strings.Join([]string{
	"كشف (B3)",
	"1/ هايس تايوتا (ابيض) شاسي 200046160",
	"2/ كورولا 7072 خ أ ب شاسي 55443322",
	"3/ دبدوب - 123456789 - خ 12345",
	"4/ بوكس 63566 خ3",
	"5/ اكسنت بدون شاسي",
	"------",
	"للتواصل 0912345678",
}, "\n")

func TestParse_Invariants(t *testing.T) {
	res := Parse(sampleListing)
	s := res.Stats
	if s.Parsed != len(res.Vehicles) {
		t.Errorf("Parsed=%d vehicles=%d", s.Parsed, len(res.Vehicles))
	}
	if s.Parsed+s.Skipped+s.Failed != s.TotalLines {
		t.Errorf("stats do not add up: %+v", s)
	}
	prev := 0
	for _, v := range res.Vehicles {
		if len(v.ChassisDigits) < 4 || NormalizeDigits(v.ChassisDigits) != v.ChassisDigits {
			t.Errorf("line %d: bad chassis digits %q", v.LineNumber, v.ChassisDigits)
		}
		if v.LineNumber <= prev {
			t.Errorf("line numbers not increasing: %d after %d", v.LineNumber, prev)
		}
		if v.CarName == "" {
			t.Errorf("line %d: empty car name", v.LineNumber)
		}
		prev = v.LineNumber
	}
}

func TestParse_Idempotent(t *testing.T) {
	first := Parse(sampleListing)
	second := Parse(sampleListing)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Parse not idempotent (-first +second):\n%s", diff)
	}
}

func TestCheckDuplicates(t *testing.T) {
	res := Parse("كورولا 000111\nبوكس 222333\nهايس 000111\nاكسنت 000111")
	got := CheckDuplicates(res.Vehicles)
	want := []string{
		"السطر 3: شاسي مكرر 000111",
		"السطر 4: شاسي مكرر 000111",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("duplicates mismatch (-want +got):\n%s", diff)
	}

	two := Parse("كورولا 000111\nهايس 000111")
	if got := CheckDuplicates(two.Vehicles); len(got) != 1 || !strings.Contains(got[0], "السطر 2") {
		t.Errorf("got %v, want one diagnostic for line 2", got)
	}
	if got := CheckDuplicates(nil); got == nil || len(got) != 0 {
		t.Errorf("CheckDuplicates(nil) = %#v, want empty", got)
	}
}

func TestPreview(t *testing.T) {
	vehicles := make([]ParsedVehicle, 7)
	for i := range vehicles {
		vehicles[i] = ParsedVehicle{CarName: "كورولا", ChassisDigits: "123456", LineNumber: i + 1}
	}
	vehicles[0].PlateFull = "خ 12345"
	vehicles[0].Color = "ابيض"

	out := Preview(vehicles, 0)
	for _, want := range []string{"تم معالجة 7 عربية:", "5. كورولا", "لوحة: خ 12345", "اللون: ابيض", "... و 2 عربية أخرى"} {
		if !strings.Contains(out, want) {
			t.Errorf("preview missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "6. ") {
		t.Errorf("preview lists more than the limit:\n%s", out)
	}
	if short := Preview(vehicles[:2], 5); strings.Contains(short, "عربية أخرى") {
		t.Errorf("unexpected tail:\n%s", short)
	}
}

func BenchmarkParse(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Parse(sampleListing)
	}
}
