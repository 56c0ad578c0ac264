package auth

import (
	"errors"
	"strings"
)

// ErrInvalidPhone is returned when a phone number cannot be normalized.
var ErrInvalidPhone = errors.New("invalid phone number")

const (
	phoneMinDigits = 8
	phoneMaxDigits = 15
)

// NormalizePhone canonicalizes a phone number to "+<digits>" form: every
// non-digit character is stripped and a single leading + is re-applied.
// Numbers outside E.164 length bounds are rejected.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < phoneMinDigits || len(digits) > phoneMaxDigits {
		return "", ErrInvalidPhone
	}
	return "+" + digits, nil
}
