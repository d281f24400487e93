// Package calendar buckets expanded instances by day and month for the
// calendar view.
package calendar

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/teambition/rrule-go"

	"festdir/internal/dates"
	appLog "festdir/internal/log"
	"festdir/internal/metrics"
	"festdir/internal/model"
)

// DefaultMaxDaysPerInstance caps how many days a single instance may occupy.
// Festival runs are days or weeks long; anything beyond this is a data error.
const DefaultMaxDaysPerInstance = 400

// Month is one entry of the month selector. MonthIndex is zero-based and Key
// is "YYYY-M" using that index.
type Month struct {
	Key        string `json:"key"`
	Year       int    `json:"year"`
	MonthIndex int    `json:"month_index"`
}

// MonthOf returns the Month containing d.
func MonthOf(d dates.Date) Month {
	idx := int(d.Month) - 1
	return Month{
		Key:        strconv.Itoa(d.Year) + "-" + strconv.Itoa(idx),
		Year:       d.Year,
		MonthIndex: idx,
	}
}

// First returns the first day of m.
func (m Month) First() dates.Date {
	return dates.Date{Year: m.Year, Month: time.Month(m.MonthIndex + 1), Day: 1}
}

// Label renders m as "March 2026".
func (m Month) Label() string {
	return m.First().Time().Format("January 2006")
}

// Index maps day keys (YYYY-MM-DD) to the instances active that day and lists
// the months touched, in chronological order.
type Index struct {
	Days   map[string][]model.ExpandedInstance
	Months []Month
	// Truncated lists instances whose span hit the per-instance day cap.
	Truncated []model.Key
}

// Options controls PrepareCalendarData.
type Options struct {
	// MaxDaysPerInstance caps each instance's span; zero means
	// DefaultMaxDaysPerInstance.
	MaxDaysPerInstance int
}

// PrepareCalendarData builds the day and month index for instances using the
// default options.
func PrepareCalendarData(instances []model.ExpandedInstance) Index {
	return Build(instances, Options{})
}

// Build walks every day of every instance with at least one known bound and
// registers it under that day. A missing bound mirrors the known one, so a
// start-only instance occupies its start day alone. An instance is listed at
// most once per day, keyed by (slug, year).
func Build(instances []model.ExpandedInstance, opts Options) Index {
	if opts.MaxDaysPerInstance <= 0 {
		opts.MaxDaysPerInstance = DefaultMaxDaysPerInstance
	}

	idx := Index{Days: make(map[string][]model.ExpandedInstance)}
	seen := make(map[string]map[model.Key]struct{})
	months := make(map[string]Month)

	for _, inst := range instances {
		start, end, ok := span(inst)
		if !ok {
			continue
		}

		days, truncated := walkDays(start, end, opts.MaxDaysPerInstance)
		if truncated {
			idx.Truncated = append(idx.Truncated, inst.Key())
			metrics.CalendarTruncated.Inc()
			appLog.Error("calendar: truncated instance span due to cap",
				errors.New("max days reached"),
				"slug", inst.Slug,
				"year", inst.Year,
				"cap", opts.MaxDaysPerInstance,
			)
		}

		for _, day := range days {
			key := day.Key()
			m := MonthOf(day)
			if _, ok := months[m.Key]; !ok {
				months[m.Key] = m
			}

			if seen[key] == nil {
				seen[key] = make(map[model.Key]struct{})
			}
			if _, dup := seen[key][inst.Key()]; dup {
				continue
			}
			seen[key][inst.Key()] = struct{}{}
			idx.Days[key] = append(idx.Days[key], inst)
		}
	}

	idx.Months = make([]Month, 0, len(months))
	for _, m := range months {
		idx.Months = append(idx.Months, m)
	}
	slices.SortFunc(idx.Months, func(a, b Month) int {
		if a.Year != b.Year {
			return a.Year - b.Year
		}
		return a.MonthIndex - b.MonthIndex
	})

	return idx
}

// span resolves the effective [start, end] of inst.
func span(inst model.ExpandedInstance) (dates.Date, dates.Date, bool) {
	switch {
	case inst.Start != nil && inst.End != nil:
		return *inst.Start, *inst.End, true
	case inst.Start != nil:
		return *inst.Start, *inst.Start, true
	case inst.End != nil:
		return *inst.End, *inst.End, true
	default:
		return dates.Date{}, dates.Date{}, false
	}
}

// walkDays lists every day in [start, end] via a daily recurrence rule. An
// end before start yields no days.
func walkDays(start, end dates.Date, limit int) ([]dates.Date, bool) {
	if end.Before(start) {
		return nil, false
	}

	truncated := false
	if last := start.AddDays(limit - 1); end.After(last) {
		end = last
		truncated = true
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: start.Time(),
		Until:   end.Time(),
	})
	if err != nil {
		appLog.Error("calendar: failed to build daily rule", err, "start", start.Key(), "end", end.Key())
		return []dates.Date{start}, truncated
	}

	occ := r.All()

	out := make([]dates.Date, 0, len(occ))
	for _, t := range occ {
		out = append(out, dates.FromTime(t))
	}
	return out, truncated
}

// Month looks up a month by key.
func (idx Index) Month(key string) (Month, bool) {
	for _, m := range idx.Months {
		if m.Key == key {
			return m, true
		}
	}
	return Month{}, false
}

// SelectMonth keeps key when it is still present, otherwise falls back to the
// first month. ok is false when there are no dated instances at all.
func (idx Index) SelectMonth(key string) (Month, bool) {
	if m, ok := idx.Month(key); ok {
		return m, true
	}
	if len(idx.Months) == 0 {
		return Month{}, false
	}
	return idx.Months[0], true
}

// On returns the instances active on the day with key dayKey.
func (idx Index) On(dayKey string) []model.ExpandedInstance {
	return idx.Days[dayKey]
}

// Cell is one square of a month grid. Blank cells pad the first week.
type Cell struct {
	Blank     bool                     `json:"blank"`
	Day       int                      `json:"day,omitempty"`
	Key       string                   `json:"key,omitempty"`
	Label     string                   `json:"label,omitempty"`
	Instances []model.ExpandedInstance `json:"-"`
	Pills     []string                 `json:"pills,omitempty"`
}

// HasEvents reports whether any instance is active on the cell's day.
func (c Cell) HasEvents() bool {
	return len(c.Instances) > 0
}

// BuildGrid lays out m as a week grid. weekStart is time.Sunday or
// time.Monday and decides how many blank cells precede the first day.
func BuildGrid(idx Index, m Month, weekStart time.Weekday) []Cell {
	first := m.First()
	offset := (int(first.Time().Weekday()) - int(weekStart) + 7) % 7
	daysInMonth := first.Time().AddDate(0, 1, -1).Day()

	cells := make([]Cell, 0, offset+daysInMonth)
	for i := 0; i < offset; i++ {
		cells = append(cells, Cell{Blank: true})
	}
	for day := 1; day <= daysInMonth; day++ {
		d := dates.Date{Year: first.Year, Month: first.Month, Day: day}
		instances := idx.On(d.Key())
		cells = append(cells, Cell{
			Day:       day,
			Key:       d.Key(),
			Label:     "Show events for " + d.String(),
			Instances: instances,
			Pills:     DayPills(instances),
		})
	}
	return cells
}

// maxPills is how many festival names a day cell shows before "+N more".
const maxPills = 3

// DayPills returns the names shown inside a day cell: the first three
// festival names and, if needed, a "+N more" suffix.
func DayPills(instances []model.ExpandedInstance) []string {
	if len(instances) == 0 {
		return nil
	}
	n := min(len(instances), maxPills)
	out := make([]string, 0, n+1)
	for _, inst := range instances[:n] {
		out = append(out, inst.FestivalName)
	}
	if more := len(instances) - n; more > 0 {
		out = append(out, fmt.Sprintf("+%d more", more))
	}
	return out
}

// ParseWeekStart maps a config value ("monday"/"sunday") to a weekday,
// defaulting to Sunday.
func ParseWeekStart(s string) time.Weekday {
	if s == "monday" {
		return time.Monday
	}
	return time.Sunday
}
