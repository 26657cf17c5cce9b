// Package domain defines the found-vehicle registry types and the validation
// gate applied before anything is persisted or searched.
package domain

import "time"

// FoundVehicle is a recovered vehicle as stored in the registry.
type FoundVehicle struct {
	ID            string    `json:"id"`
	CarName       string    `json:"car_name"`
	ChassisFull   string    `json:"chassis_full,omitempty"`
	ChassisDigits string    `json:"chassis_digits,omitempty"`
	PlateFull     string    `json:"plate_full,omitempty"`
	PlateDigits   string    `json:"plate_digits,omitempty"`
	Color         string    `json:"color,omitempty"`
	ExtraDetails  string    `json:"extra_details,omitempty"`
	Source        string    `json:"source,omitempty"`
	ContactNumber string    `json:"contact_number,omitempty"`
	UploadedBy    string    `json:"uploaded_by,omitempty"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// SearchQuery looks a vehicle up by chassis (substring) and/or plate (exact).
type SearchQuery struct {
	Chassis string `json:"chassis,omitempty"`
	Plate   string `json:"plate,omitempty"`
}

// Normalized returns the query with both fields reduced to ASCII digits.
func (q SearchQuery) Normalized() SearchQuery {
	return SearchQuery{Chassis: digitsOnly(q.Chassis), Plate: digitsOnly(q.Plate)}
}

// VehicleKey identifies a vehicle for deduplication: its chassis digits, or
// its plate digits when the chassis is unknown.
func VehicleKey(v FoundVehicle) string {
	if v.ChassisDigits != "" {
		return "chassis:" + v.ChassisDigits
	}
	return "plate:" + v.PlateDigits
}

// digitsOnly keeps the decimal digits of s as ASCII. Arabic-Indic digits
// typed on phone keyboards are folded to their ASCII values.
func digitsOnly(s string) string {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b = append(b, byte(r))
		case r >= '٠' && r <= '٩':
			b = append(b, byte('0'+r-'٠'))
		case r >= '۰' && r <= '۹':
			b = append(b, byte('0'+r-'۰'))
		}
	}
	return string(b)
}
