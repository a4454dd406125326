package shared

import "time"

// IsExpired reports whether expiresAt has passed at now.
// A nil expiresAt never expires.
func IsExpired(expiresAt *time.Time, now time.Time) bool {
	if expiresAt == nil {
		return false
	}
	return now.After(*expiresAt)
}
