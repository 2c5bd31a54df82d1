// Package phone normalizes Kenyan mobile-money numbers.
package phone

import (
	"errors"
	"regexp"
	"strings"
)

var ErrInvalid = errors.New("invalid phone number")

var nonDigit = regexp.MustCompile(`\D`)

// Normalize converts a Kenyan mobile number to the canonical +254XXXXXXXXX
// form. Accepted inputs (spacing and punctuation ignored): a local
// "0XXXXXXXXX", a bare 9-digit "7XXXXXXXX"/"1XXXXXXXX", or an already
// prefixed "254XXXXXXXXX" / "+254XXXXXXXXX". Normalizing an already
// canonical number is a no-op.
func Normalize(s string) (string, error) {
	digits := nonDigit.ReplaceAllString(s, "")
	if digits == "" {
		return "", ErrInvalid
	}
	switch {
	case strings.HasPrefix(digits, "254"):
		// already prefixed
	case strings.HasPrefix(digits, "0") && len(digits) == 10:
		digits = "254" + digits[1:]
	case len(digits) == 9 && (digits[0] == '7' || digits[0] == '1'):
		digits = "254" + digits
	default:
		return "", ErrInvalid
	}
	if len(digits) != 12 {
		return "", ErrInvalid
	}
	return "+" + digits, nil
}

// GatewayFormat strips the plus from a canonical number; the M-Pesa APIs
// want "254XXXXXXXXX".
func GatewayFormat(canonical string) string {
	return strings.TrimPrefix(canonical, "+")
}
