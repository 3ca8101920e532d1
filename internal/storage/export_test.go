package storage

import "time"

// SetClock replaces the store clock and returns a func restoring it
func SetClock(fn func() time.Time) (restore func()) {
	prev := now
	now = fn
	return func() { now = prev }
}

// ParseTimestamp exports parseTimestamp for testing
func ParseTimestamp(s string) (time.Time, error) {
	return parseTimestamp(s)
}
