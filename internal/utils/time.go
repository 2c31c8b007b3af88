package utils

import (
	"time"
)

// FormatTimestamp renders a timestamp in the ISO-8601 form used by every
// API response (stored times are normalized to UTC on the way out).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
