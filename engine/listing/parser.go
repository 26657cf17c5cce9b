// Package listing turns a pasted Arabic vehicle list ("كشف") into structured
// vehicle records. Parse prepares the text (Unicode composition, harakat and
// tatweel removal, Arabic-Indic digits to ASCII) before running the
// extractors; the exported Extract* functions expect text that is already in
// that form.
package listing

import (
	"fmt"
	"strings"
)

// ParsedVehicle is one vehicle line read from a listing.
type ParsedVehicle struct {
	CarName       string `json:"car_name"`
	ChassisFull   string `json:"chassis_full,omitempty"`
	ChassisDigits string `json:"chassis_digits"`
	PlateFull     string `json:"plate_full,omitempty"`
	PlateDigits   string `json:"plate_digits,omitempty"`
	Color         string `json:"color,omitempty"`
	RawLine       string `json:"raw_line"`
	LineNumber    int    `json:"line_number"`
}

// Stats counts input lines by outcome. Parsed+Skipped+Failed == TotalLines.
type Stats struct {
	TotalLines int `json:"total_lines"`
	Parsed     int `json:"parsed"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// ParseResult is the outcome of reading a whole listing.
type ParseResult struct {
	Success       bool            `json:"success"`
	Vehicles      []ParsedVehicle `json:"vehicles"`
	Errors        []string        `json:"errors"`
	ListName      string          `json:"list_name,omitempty"`
	ContactNumber string          `json:"contact_number,omitempty"`
	Stats         Stats           `json:"stats"`
}

// Parse reads every line of text. It never fails: problems are reported as
// human readable entries in Errors, one per rejected line.
func Parse(text string) ParseResult {
	lines := strings.Split(text, "\n")
	res := ParseResult{
		Vehicles: []ParsedVehicle{},
		Errors:   []string{},
		Stats:    Stats{TotalLines: len(lines)},
	}
	if strings.TrimSpace(text) == "" {
		res.Errors = append(res.Errors, MsgEmptyText)
		res.Stats.Skipped = len(lines)
		return res
	}

	prepared := prepareText(text)
	res.ListName, _ = ExtractListName(prepared)
	res.ContactNumber, _ = ExtractContactNumber(prepared)

	for i, line := range lines {
		raw := strings.TrimSpace(line)
		s := prepareText(raw)
		if ClassifyLine(s).IsNoise() {
			res.Stats.Skipped++
			continue
		}
		v, ok := parseLine(s)
		if !ok {
			res.Stats.Failed++
			res.Errors = append(res.Errors, noChassisError(i+1))
			continue
		}
		v.RawLine = raw
		v.LineNumber = i + 1
		res.Vehicles = append(res.Vehicles, v)
		res.Stats.Parsed++
	}

	if len(res.Vehicles) == 0 && len(res.Errors) == 0 {
		res.Errors = append(res.Errors, MsgNoVehicles)
	}
	res.Success = len(res.Vehicles) > 0
	return res
}

func parseLine(line string) (ParsedVehicle, bool) {
	c, ok := ExtractChassis(line)
	if !ok {
		return ParsedVehicle{}, false
	}
	v := ParsedVehicle{
		CarName:       ExtractCarName(line),
		ChassisFull:   c.Full,
		ChassisDigits: c.Digits,
	}
	if p, ok := plateBeside(line, c); ok {
		v.PlateFull, v.PlateDigits = p.Full, p.Digits
	}
	v.Color, _ = ExtractColor(line)
	return v, true
}

func noChassisError(line int) string {
	return fmt.Sprintf("السطر %d: لم يتم العثور على رقم شاسي صحيح", line)
}
