package leadimport

// dates.go parses the date formats found in lead exports: ISO, US and EU
// numeric forms, RFC 3339 timestamps and spelled-out month names. Parsing is
// lenient: anything unrecognized is reported as not-ok and the caller leaves
// the field unset.

import (
	"strings"
	"time"
)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future are moved
// back a century.
var TwoDigitYearPivot = 20

// isoDateLayout is the stored form of a contact date.
const isoDateLayout = "2006-01-02"

var (
	timestampLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"1/2/2006 15:04",
		"1/2/2006 3:04 PM",
	}
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"Jan 2, 2006", "January 2, 2006", "2 Jan 2006", "2 January 2006",
		"Mon Jan 2 2006", "Mon, 02 Jan 2006",
		"20060102",
	}
)

// ParseContactDate parses s as a calendar date and returns it in
// YYYY-MM-DD form. ok is false when no layout matches.
func ParseContactDate(s string) (string, bool) {
	t, ok := parseDate(s)
	if !ok {
		return "", false
	}
	return t.Format(isoDateLayout), true
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	// 4-digit years first; they are unambiguous
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}
