package utils

import "time"

// asOfLayout is the display layout for resolution timestamps.
const asOfLayout = "2006-01-02 15:04 MST"

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FormatAsOf renders a resolution timestamp in UTC, e.g. "2025-01-02 15:04 UTC".
func FormatAsOf(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	return t.UTC().Format(asOfLayout)
}
