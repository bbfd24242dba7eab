package messages

import (
	"net/url"
	"strings"
)

const countryCode = "593"

// NormalizePhone turns a local Ecuadorian number (0991234567) into the
// international form WhatsApp expects (593991234567). Non-digits are dropped.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case strings.HasPrefix(digits, countryCode):
		return digits
	case strings.HasPrefix(digits, "0") && len(digits) == 10:
		return countryCode + digits[1:]
	case strings.HasPrefix(digits, "9") && len(digits) == 9:
		return countryCode + digits
	}
	return digits
}

// WhatsAppLink builds a click-to-chat link with text prefilled.
func WhatsAppLink(phone, text string) string {
	return "https://wa.me/" + NormalizePhone(phone) + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}
