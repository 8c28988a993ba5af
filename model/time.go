package model

import (
	"fmt"
	"time"
)

// STAC items are supposed to carry RFC 3339 datetimes, but catalogs differ on
// fractional seconds and some drop the offset entirely.

var stacTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseSTACTime is a drop-in replacement for time.Parse, matching against the datetime layouts seen in STAC catalogs
func ParseSTACTime(stacTime string) (time.Time, error) {
	for _, layout := range stacTimeLayouts {
		if output, err := time.Parse(layout, stacTime); err == nil {
			return output.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("Date could not be parsed by any expected time format: `%s`", stacTime)
}

// FormatSTACInterval renders a closed datetime interval; a zero bound is left open
func FormatSTACInterval(start, end time.Time) string {
	startStr, endStr := "..", ".."
	if !start.IsZero() {
		startStr = start.UTC().Format(time.RFC3339)
	}
	if !end.IsZero() {
		endStr = end.UTC().Format(time.RFC3339)
	}
	return startStr + "/" + endStr
}

// YearInterval returns the first and last instant of a calendar year in UTC
func YearInterval(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0).Add(-time.Second)
}
