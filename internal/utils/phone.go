package utils

import (
	"errors"
	"regexp"
	"strings"
)

// kenyanMobile matches Safaricom-reachable subscriber numbers: an
// optional +254/254/0 prefix followed by nine digits starting 1 or 7.
var kenyanMobile = regexp.MustCompile(`^(?:\+254|254|0)?([17]\d{8})$`)

// ErrInvalidPhone is returned for numbers that are not Kenyan mobiles.
var ErrInvalidPhone = errors.New("invalid Kenyan phone number format")

// NormalizePhone converts a Kenyan mobile number into the international
// form the payment provider expects (2547XXXXXXXX / 2541XXXXXXXX, no
// leading plus). Spaces and dashes are stripped before matching.
// Normalization is idempotent: an already-normalized number is returned
// unchanged.
func NormalizePhone(phone string) (string, error) {
	stripped := strings.ReplaceAll(phone, " ", "")
	stripped = strings.ReplaceAll(stripped, "-", "")

	match := kenyanMobile.FindStringSubmatch(stripped)
	if match == nil {
		return "", ErrInvalidPhone
	}
	return "254" + match[1], nil
}

// IsValidPhone reports whether the number would normalize successfully.
func IsValidPhone(phone string) bool {
	_, err := NormalizePhone(phone)
	return err == nil
}
