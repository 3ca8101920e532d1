package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format shared by both datasets after normalization
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
}

// NormalizeDate parses s with any supported layout and returns the calendar
// date in the offset it was written with
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout), nil
		}
	}
	return "", fmt.Errorf("unparseable date %q", s)
}
