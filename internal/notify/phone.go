package notify

import "strings"

const (
	minPhoneDigits      = 10
	maxPhoneDigits      = 15
	domesticPhoneDigits = 10
)

// NormalizePhone converts a free-form phone number into the digits-only international
// form expected by the WhatsApp API. A bare 10-digit number is treated as domestic and
// prefixed with countryCode; a leading trunk 0 is replaced by countryCode. Numbers that
// end up outside 10–15 digits are rejected with ok=false.
func NormalizePhone(raw, countryCode string) (phone string, ok bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == domesticPhoneDigits:
		digits = countryCode + digits
	case strings.HasPrefix(digits, "0"):
		digits = countryCode + strings.TrimPrefix(digits, "0")
	}

	if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
		return "", false
	}
	return digits, true
}
