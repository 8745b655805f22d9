package auth

import (
	"fmt"

	"github.com/lalith-99/seniorbuddy/internal/backend"
)

// DefaultCountryCode is prefixed to bare 10-digit national numbers.
const DefaultCountryCode = "91"

// NormalizePhone turns user input into E.164 ("+919812345678").
//
// Spaces, dashes, dots and parentheses are dropped. A leading "+" keeps
// the number as international; a bare 10-digit number gets
// DefaultCountryCode; a leading "00" is read as "+".
func NormalizePhone(input string) (string, error) {
	digits := make([]byte, 0, len(input))
	plus := false
	for i := 0; i < len(input); i++ {
		ch := input[i]
		switch {
		case ch >= '0' && ch <= '9':
			digits = append(digits, ch)
		case ch == '+' && len(digits) == 0 && !plus:
			plus = true
		case ch == ' ' || ch == '-' || ch == '.' || ch == '(' || ch == ')':
		default:
			return "", fmt.Errorf("%w: phone number has unexpected character %q", backend.ErrInvalidInput, ch)
		}
	}

	if !plus {
		switch {
		case len(digits) == 10:
			digits = append([]byte(DefaultCountryCode), digits...)
		case len(digits) > 2 && digits[0] == '0' && digits[1] == '0':
			digits = digits[2:]
		}
	}

	// E.164 allows at most 15 digits; anything under 8 is not a real subscriber number.
	if len(digits) < 8 || len(digits) > 15 || digits[0] == '0' {
		return "", fmt.Errorf("%w: phone number must be in international format", backend.ErrInvalidInput)
	}
	return "+" + string(digits), nil
}
