package notify

import "strings"

// FormatPhoneNumber normalises a phone number to E.164, assuming North
// America when no country code is given.  Ten digits become +1XXXXXXXXXX,
// eleven digits starting with 1 gain a leading +, and input already
// starting with + is kept as is.
func FormatPhoneNumber(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case len(digits) == 10:
		return "+1" + digits
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits
	case strings.HasPrefix(phone, "+"):
		return phone
	}
	return "+1" + digits
}
