package event

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the stored form of event and submission dates.
const DateLayout = "2006-01-02"

var localLayouts = []string{
	DateLayout,
	"02/01/2006",
	"2/1/2006",
	"2006-01-02T15:04:05",
}

// ParseDate reads a calendar day written as yyyy-MM-dd, dd/MM/yyyy (optionally
// prefixed with the apostrophe spreadsheets use to force text) or RFC 3339.
// The result is midnight of that day in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "'")
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return startOfDay(t.In(loc)), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return startOfDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// NormalizeDate rewrites s in DateLayout.
func NormalizeDate(s string, loc *time.Location) (string, error) {
	t, err := ParseDate(s, loc)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
