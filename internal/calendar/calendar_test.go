package calendar

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"festdir/internal/dates"
	"festdir/internal/model"
)

func inst(s string, year int, start, end string) model.ExpandedInstance {
	return model.ExpandedInstance{
		Slug:          s,
		FestivalName:  s,
		Year:          year,
		StartDate:     start,
		EndDate:       end,
		Start:         dates.ParsePtr(start),
		End:           dates.ParsePtr(end),
		HasExactDates: dates.ParsePtr(start) != nil && dates.ParsePtr(end) != nil,
	}
}

func dayKeys(idx Index) []string {
	keys := make([]string, 0, len(idx.Days))
	for k := range idx.Days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestPrepareCalendarDataSpan(t *testing.T) {
	a := inst("songwriters", 2026, "2026-03-13", "2026-03-15")

	idx := PrepareCalendarData([]model.ExpandedInstance{a, a, a})

	require.Equal(t, []string{"2026-03-13", "2026-03-14", "2026-03-15"}, dayKeys(idx))
	for _, k := range dayKeys(idx) {
		require.Len(t, idx.On(k), 1, k)
	}
	require.Equal(t, []Month{{Key: "2026-2", Year: 2026, MonthIndex: 2}}, idx.Months)
	require.Empty(t, idx.Truncated)
}

func TestPrepareCalendarDataSingleBound(t *testing.T) {
	idx := PrepareCalendarData([]model.ExpandedInstance{
		inst("start-only", 2026, "2026-04-01", "TBD"),
		inst("end-only", 2026, "TBD", "2026-04-03"),
		inst("dateless", 2026, "TBD", "TBD"),
	})

	require.Equal(t, []string{"2026-04-01", "2026-04-03"}, dayKeys(idx))
	require.Equal(t, "start-only", idx.On("2026-04-01")[0].Slug)
	require.Equal(t, "end-only", idx.On("2026-04-03")[0].Slug)
}

func TestPrepareCalendarDataSameSlugDifferentYears(t *testing.T) {
	// Distinct (slug, year) pairs may share a day.
	idx := PrepareCalendarData([]model.ExpandedInstance{
		inst("fest", 2025, "2026-01-01", "2026-01-01"),
		inst("fest", 2026, "2026-01-01", "2026-01-01"),
	})
	require.Len(t, idx.On("2026-01-01"), 2)
}

func TestPrepareCalendarDataMonthsSorted(t *testing.T) {
	idx := PrepareCalendarData([]model.ExpandedInstance{
		inst("b", 2027, "2027-01-30", "2027-02-02"),
		inst("a", 2026, "2026-12-31", "2026-12-31"),
		inst("c", 2026, "2026-02-28", "2026-03-01"),
	})

	var keys []string
	for _, m := range idx.Months {
		keys = append(keys, m.Key)
	}
	require.Equal(t, []string{"2026-1", "2026-2", "2026-11", "2027-0", "2027-1"}, keys)
}

func TestPrepareCalendarDataInvertedRange(t *testing.T) {
	idx := PrepareCalendarData([]model.ExpandedInstance{
		inst("inverted", 2026, "2026-05-10", "2026-05-01"),
	})
	require.Empty(t, idx.Days)
	require.Empty(t, idx.Months)
}

func TestBuildTruncatesLongSpans(t *testing.T) {
	idx := Build([]model.ExpandedInstance{
		inst("forever", 2026, "2026-01-01", "2030-01-01"),
	}, Options{MaxDaysPerInstance: 10})

	require.Len(t, idx.Days, 10)
	require.Contains(t, idx.Days, "2026-01-10")
	require.NotContains(t, idx.Days, "2026-01-11")
	require.Equal(t, []model.Key{{Slug: "forever", Year: 2026}}, idx.Truncated)
}

func TestSelectMonth(t *testing.T) {
	idx := PrepareCalendarData([]model.ExpandedInstance{
		inst("a", 2026, "2026-03-13", "2026-03-15"),
		inst("b", 2026, "2026-05-01", "2026-05-01"),
	})

	m, ok := idx.SelectMonth("2026-4")
	require.True(t, ok)
	require.Equal(t, "2026-4", m.Key)

	m, ok = idx.SelectMonth("2020-0")
	require.True(t, ok)
	require.Equal(t, "2026-2", m.Key)

	_, ok = PrepareCalendarData(nil).SelectMonth("")
	require.False(t, ok)
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "March 2026", Month{Key: "2026-2", Year: 2026, MonthIndex: 2}.Label())
	assert.Equal(t, "December 2025", MonthOf(dates.Date{Year: 2025, Month: time.December, Day: 9}).Label())
}

func TestBuildGrid(t *testing.T) {
	idx := PrepareCalendarData([]model.ExpandedInstance{
		inst("songwriters", 2026, "2026-03-13", "2026-03-15"),
	})
	march := Month{Key: "2026-2", Year: 2026, MonthIndex: 2}

	// March 1, 2026 is a Sunday.
	sunday := BuildGrid(idx, march, time.Sunday)
	require.Len(t, sunday, 31)
	require.False(t, sunday[0].Blank)
	require.Equal(t, 1, sunday[0].Day)

	monday := BuildGrid(idx, march, time.Monday)
	require.Len(t, monday, 37)
	for _, c := range monday[:6] {
		require.True(t, c.Blank)
	}

	cell := sunday[12]
	require.Equal(t, "2026-03-13", cell.Key)
	require.True(t, cell.HasEvents())
	require.Equal(t, []string{"songwriters"}, cell.Pills)
	require.Equal(t, "Show events for Mar 13, 2026", cell.Label)
	require.False(t, sunday[11].HasEvents())
}

func TestDayPills(t *testing.T) {
	var in []model.ExpandedInstance
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		in = append(in, inst(s, 2026, "2026-01-01", "2026-01-01"))
	}
	require.Equal(t, []string{"a", "b", "c", "+2 more"}, DayPills(in))
	require.Equal(t, []string{"a", "b"}, DayPills(in[:2]))
	require.Nil(t, DayPills(nil))
}

func TestParseWeekStart(t *testing.T) {
	require.Equal(t, time.Monday, ParseWeekStart("monday"))
	require.Equal(t, time.Sunday, ParseWeekStart("sunday"))
	require.Equal(t, time.Sunday, ParseWeekStart(""))
}
