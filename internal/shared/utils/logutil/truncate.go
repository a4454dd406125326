package logutil

import "strings"

// Excerpt collapses whitespace and truncates s to at most maxLen runes for logging.
// Email bodies and call transcripts are logged through this, never in full.
func Excerpt(s string, maxLen int) string {
	if maxLen <= 0 {
		return "..."
	}
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return Excerpt(email, 3)
	}
	return email[:1] + "***" + email[at:]
}
