package utils

import "time"

// DateLayout is the ISO 8601 calendar date format used on the wire.
const DateLayout = "2006-01-02"

// IsDate reports whether s is a valid YYYY-MM-DD calendar date.
func IsDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Today returns the current UTC date formatted as YYYY-MM-DD.
func Today(now time.Time) string {
	return now.UTC().Format(DateLayout)
}
