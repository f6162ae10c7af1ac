package util

import (
	"strconv"
	"time"
)

// DateLayout is the snapshot key format.
const DateLayout = "2006-01-02"

// DateKey returns the UTC calendar date of t, e.g. "2025-03-14".
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseTime tries a plain date, RFC3339, RFC3339Nano, and unix seconds.
// Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseDateKey normalises any ParseTime input to a date key. The second value
// is false when s is empty or unparseable.
func ParseDateKey(s string) (string, bool) {
	t, ok := ParseTime(s)
	if !ok {
		return "", false
	}
	return DateKey(t), true
}
