package utils

import (
	"time"
)

// FormatTime formats time in ISO 8601 format
func FormatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

// ParseTime parses ISO 8601 formatted time string
func ParseTime(timeStr string) (time.Time, error) {
	return time.Parse(time.RFC3339, timeStr)
}

// FormatDate formats time as a date-only string
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseDate parses a date-only string
func ParseDate(dateStr string) (time.Time, error) {
	return time.Parse("2006-01-02", dateStr)
}

// DaysToDuration converts a day count to a duration
func DaysToDuration(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
