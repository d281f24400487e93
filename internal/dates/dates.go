// Package dates parses and formats the calendar days used by festival
// listings. A Date carries no timezone or wall-clock time; it is compared and
// bucketed by year, month and day alone.
package dates

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel marks an instance whose date has not been announced.
const Sentinel = "TBD"

const (
	isoLayout     = "2006-01-02"
	displayLayout = "Jan 2, 2006"

	// RangeSeparator joins the two ends of a formatted date range.
	RangeSeparator = " – "
)

// ErrMalformed is returned by Validate for values that are neither empty, the
// sentinel, nor an ISO YYYY-MM-DD date.
var ErrMalformed = errors.New("dates: malformed date")

// Date is a timezone-naive calendar day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// FromTime takes the calendar day of t in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns midnight UTC of the day. UTC keeps day arithmetic free of
// DST gaps.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Key renders the day as YYYY-MM-DD.
func (d Date) Key() string {
	return d.Time().Format(isoLayout)
}

// String implements fmt.Stringer using the display form ("Mar 14, 2026").
func (d Date) String() string {
	return d.Time().Format(displayLayout)
}

// AddDays returns the day n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return FromTime(d.Time().AddDate(0, 0, n))
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after o.
func (d Date) Compare(o Date) int {
	return d.Time().Compare(o.Time())
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }
func (d Date) Equal(o Date) bool  { return d.Compare(o) == 0 }

// Parse interprets value as a calendar day. It reports false for empty input,
// the "TBD" sentinel and anything that is not a strict YYYY-MM-DD date.
func Parse(value string) (Date, bool) {
	if value == "" || value == Sentinel {
		return Date{}, false
	}
	t, err := time.Parse(isoLayout, value)
	if err != nil {
		return Date{}, false
	}
	return FromTime(t), true
}

// ParsePtr is Parse returning nil for an unresolvable value.
func ParsePtr(value string) *Date {
	d, ok := Parse(value)
	if !ok {
		return nil
	}
	return &d
}

// Validate reports whether value is acceptable in a dataset: empty, the
// sentinel, or an ISO date. Anything else wraps ErrMalformed.
func Validate(value string) error {
	if value == "" || value == Sentinel {
		return nil
	}
	if _, err := time.Parse(isoLayout, value); err != nil {
		return fmt.Errorf("%w: %q", ErrMalformed, value)
	}
	return nil
}

// FormatDate returns "TBD" for an unresolvable value, otherwise the short
// display form, e.g. "Mar 14, 2026".
func FormatDate(value string) string {
	d, ok := Parse(value)
	if !ok {
		return Sentinel
	}
	return d.String()
}

// FormatDateRange renders a start/end pair for display.
func FormatDateRange(startValue, endValue string) string {
	start, hasStart := Parse(startValue)
	end, hasEnd := Parse(endValue)

	switch {
	case !hasStart && !hasEnd:
		return "Dates TBD"
	case hasStart && !hasEnd:
		return "Starts " + start.String()
	case !hasStart && hasEnd:
		return "Ends " + end.String()
	case start.Equal(end):
		return start.String()
	default:
		return start.String() + RangeSeparator + end.String()
	}
}

// Today strips the wall-clock part of now, keeping the day as seen in now's
// location.
func Today(now time.Time) Date {
	return FromTime(now)
}

// IsUpcoming reports whether an occurrence has not yet started as of ref.
// The start day decides when known, otherwise the end day; an occurrence
// with neither is never upcoming.
func IsUpcoming(start, end *Date, ref time.Time) bool {
	today := Today(ref)
	if start != nil {
		return !start.Before(today)
	}
	if end != nil {
		return !end.Before(today)
	}
	return false
}
