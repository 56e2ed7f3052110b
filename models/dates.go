package models

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
	"02/01/2006",
	"02-01-2006",
}

// ParseDate accepts the ISO variants clients send (with or without a time
// part) plus day-first numeric dates.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// NormalizeDate rewrites any accepted date as YYYY-MM-DD so stored dates
// sort chronologically. Unparseable input is returned unchanged.
func NormalizeDate(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	return t.Format(DateLayout)
}

// Month returns the YYYY-MM part of a stored date, or "" if it can't be parsed.
func Month(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return ""
	}
	return t.Format("2006-01")
}
