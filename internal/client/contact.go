package client

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^258[28]\d{8}$`)
)

// FormatPhone normalizes a Mozambican number to "+258 NN NNN NNNN".
// Partial input is formatted as far as it goes.
func FormatPhone(value string) string {
	digits := onlyDigits(value)
	digits = strings.TrimPrefix(digits, "258")
	if len(digits) > 9 {
		digits = digits[:9]
	}
	if digits == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString("+258 ")
	switch {
	case len(digits) <= 2:
		b.WriteString(digits)
	case len(digits) <= 5:
		b.WriteString(digits[:2] + " " + digits[2:])
	default:
		b.WriteString(digits[:2] + " " + digits[2:5] + " " + digits[5:])
	}
	return strings.TrimSpace(b.String())
}

// ValidPhone reports whether phone is a complete Mozambican mobile or
// landline number.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(onlyDigits(phone))
}

// ValidEmail reports whether email looks like an address.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
