package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minCarNameRunes = 2
	minChassisLen   = 4
)

// Sudanese numbers: local 0XXXXXXXXX or international 249XXXXXXXXX.
var (
	localPhoneRe = regexp.MustCompile(`^0\d{9}$`)
	intlPhoneRe  = regexp.MustCompile(`^249\d{9}$`)
)

// ValidateFoundVehicle checks a vehicle before it is stored. A vehicle needs
// a readable name and either a chassis number or, failing that, a plate.
func ValidateFoundVehicle(v FoundVehicle) error {
	name := strings.TrimSpace(v.CarName)
	if utf8.RuneCountInString(name) < minCarNameRunes {
		return NewValidationError("car_name", name, ErrCarNameTooShort)
	}

	switch {
	case v.ChassisDigits != "":
		if digitsOnly(v.ChassisDigits) != v.ChassisDigits || len(v.ChassisDigits) < minChassisLen {
			return NewValidationError("chassis_digits", v.ChassisDigits, ErrInvalidChassis)
		}
	case v.PlateDigits == "":
		return NewValidationError("chassis_digits", "", ErrInvalidVehicle)
	}

	if v.ContactNumber != "" {
		if err := ValidateWhatsApp(v.ContactNumber); err != nil {
			return err
		}
	}
	return nil
}

// ValidateWhatsApp accepts Sudanese numbers in local or international form.
// Separators and a leading plus are ignored.
func ValidateWhatsApp(phone string) error {
	d := digitsOnly(phone)
	if localPhoneRe.MatchString(d) || intlPhoneRe.MatchString(d) {
		return nil
	}
	return NewValidationError("whatsapp", phone, ErrInvalidWhatsApp)
}

// FormatWhatsApp renders a number in +249 international form. Numbers it
// does not recognise are returned unchanged.
func FormatWhatsApp(phone string) string {
	d := digitsOnly(phone)
	switch {
	case strings.HasPrefix(d, "249"):
		return "+" + d
	case strings.HasPrefix(d, "0") && len(d) == 10:
		return "+249" + d[1:]
	case len(d) == 9:
		return "+249" + d
	}
	return phone
}

// ValidateSearchQuery requires at least one of chassis or plate digits.
func ValidateSearchQuery(q SearchQuery) error {
	n := q.Normalized()
	if n.Chassis == "" && n.Plate == "" {
		return NewValidationError("query", q.Chassis+q.Plate, ErrEmptyQuery)
	}
	return nil
}
