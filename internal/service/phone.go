package service

import (
	"regexp"
	"strings"
)

// Kenyan mobile-money subscriber numbers: Safaricom 07xx/01xx prefixes, with
// or without the country code.
var mpesaLocal = regexp.MustCompile(`^0[17]\d{8}$`)
var mpesaE164 = regexp.MustCompile(`^254[17]\d{8}$`)

// NormalizeMpesaPhone validates a mobile-money number and normalizes it to
// E.164 (+2547XXXXXXXX). Rejection happens before any network call; the caller
// surfaces it as a field-level error.
func NormalizeMpesaPhone(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.TrimPrefix(s, "+")

	switch {
	case mpesaLocal.MatchString(s):
		return "+254" + s[1:], nil
	case mpesaE164.MatchString(s):
		return "+" + s, nil
	default:
		return "", ErrInvalidPhone
	}
}
