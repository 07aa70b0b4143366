package validation

import (
	"regexp"
	"strings"
)

var (
	strictPhoneRegex = regexp.MustCompile(`^\+254\d{9}$`)
	emailRegex       = regexp.MustCompile(`^[^\s@]+@[^\s@.]+(\.[^\s@.]+)+$`)
)

// IsValidStrictPhone accepts Kenyan numbers written as +254 followed by exactly
// nine digits.
func IsValidStrictPhone(phone string) bool {
	return strictPhoneRegex.MatchString(phone)
}

// IsValidPhone ignores every non-digit and accepts 7 to 15 remaining digits.
func IsValidPhone(phone string) bool {
	digits := DigitsOnly(phone)
	return len(digits) >= 7 && len(digits) <= 15
}

func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// IsValidEmail is a shape check only: a single @ with a dotted domain after it.
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}
