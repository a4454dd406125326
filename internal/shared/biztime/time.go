// Package biztime centralizes clock access and the date handling of vendor
// schedules. All storage and transport use UTC.
package biztime

import (
	"context"
	"regexp"
	"strings"
	"time"
)

var isoDatePattern = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// Layouts accepted for vendor-proposed dates, most specific first.
var scheduleLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateOnly,
	"2006/01/02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// ParseScheduledDate parses a date proposed in free text. Relative expressions
// such as "next week" are not interpreted; nil means "no date", which is common.
func ParseScheduledDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range scheduleLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	// ISO date embedded in a longer phrase ("on 2025-03-14 morning")
	if m := isoDatePattern.FindString(raw); m != "" {
		if t, err := time.Parse(time.DateOnly, m); err == nil {
			return &t
		}
	}
	return nil
}

// FormatDate renders t as YYYY-MM-DD, or "" for nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}

// HoursBetween returns the elapsed hours from start to end as a float.
func HoursBetween(start, end time.Time) float64 {
	return end.Sub(start).Hours()
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
