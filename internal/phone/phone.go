// Package phone validates and canonicalizes Saudi mobile numbers.
package phone

import "strings"

// CanonicalLength is the digit count of a canonical number ("966" + 9 digits).
const CanonicalLength = 12

// Digits strips every non-digit character from raw.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Normalize canonicalizes a Saudi mobile number into "9665XXXXXXXX" form.
// Accepted input shapes (after stripping non-digits):
//
//	966XXXXXXXXX  12 digits, 4th digit must be 5
//	05XXXXXXXX    10 digits
//	5XXXXXXXX     9 digits
//
// The second return value is false for anything else.
func Normalize(raw string) (string, bool) {
	cleaned := Digits(raw)

	switch {
	case strings.HasPrefix(cleaned, "966"):
		if len(cleaned) == 12 && cleaned[3] == '5' {
			return cleaned, true
		}
	case strings.HasPrefix(cleaned, "05"):
		if len(cleaned) == 10 {
			return "966" + cleaned[1:], true
		}
	case strings.HasPrefix(cleaned, "5"):
		if len(cleaned) == 9 {
			return "966" + cleaned, true
		}
	}
	return "", false
}

// Valid reports whether raw normalizes to the canonical form
// "966" followed by "5" and 8 more digits.
func Valid(raw string) bool {
	normalized, ok := Normalize(raw)
	if !ok {
		return false
	}
	return IsCanonical(normalized)
}

// IsCanonical reports whether s is already in canonical form: exactly
// 12 digits starting with "9665".
func IsCanonical(s string) bool {
	if len(s) != CanonicalLength {
		return false
	}
	if !strings.HasPrefix(s, "9665") {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// LooksSaudi reports whether a cell value resembles a Saudi mobile number
// closely enough for phone-column detection: digits starting with "966" or
// "05", or a 9-digit string starting with "5". Looser than Valid on purpose.
func LooksSaudi(raw string) bool {
	cleaned := Digits(strings.TrimSpace(raw))
	if cleaned == "" {
		return false
	}
	if strings.HasPrefix(cleaned, "966") || strings.HasPrefix(cleaned, "05") {
		return true
	}
	return strings.HasPrefix(cleaned, "5") && len(cleaned) == 9
}
