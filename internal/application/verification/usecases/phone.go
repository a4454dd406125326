package usecases

import "strings"

// NormalizePhone converts a North American number to E.164 ("+1NXXNXXXXXX").
// Anything that is not a ten digit NANP number, optionally prefixed by the
// country code 1, yields "".
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 11 && digits[0] == '1':
		digits = digits[1:]
	case len(digits) != 10:
		return ""
	}

	// Area code and exchange cannot start with 0 or 1.
	if digits[0] < '2' || digits[3] < '2' {
		return ""
	}
	return "+1" + digits
}
