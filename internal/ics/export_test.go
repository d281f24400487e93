package ics

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"festdir/internal/dates"
	"festdir/internal/model"
)

func fixedExporter() *Exporter {
	x := NewExporter("example.org")
	x.Now = func() time.Time { return time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC) }
	return x
}

func readyInput() Input {
	return Input{
		Name:        "Dripping Springs Songwriters Festival",
		Slug:        "dripping-springs-songwriters-festival",
		Year:        2025,
		StartDate:   "2025-11-06",
		EndDate:     "2025-11-09",
		Address:     "Dripping Springs, TX",
		WebsiteURL:  "https://www.destinationdrippingsprings.com/p/events/dripping-springs-songwriters-festival",
		Description: "Four days of songwriter rounds.",
	}
}

func TestInstanceToICSReady(t *testing.T) {
	res := fixedExporter().InstanceToICS(readyInput())

	require.Equal(t, StatusReady, res.Status)
	require.Empty(t, res.Reason)
	require.Equal(t, "dripping-springs-songwriters-festival-2025.ics", res.Filename)
	require.True(t, strings.HasPrefix(res.Href, "data:text/calendar;charset=utf-8,"))

	decoded, err := url.PathUnescape(strings.TrimPrefix(res.Href, "data:text/calendar;charset=utf-8,"))
	require.NoError(t, err)
	require.Equal(t, string(res.Payload), decoded)

	cal, err := ical.ParseCalendar(strings.NewReader(string(res.Payload)))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "Dripping Springs Songwriters Festival", ev.GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "20251106", ev.GetProperty(ical.ComponentPropertyDtStart).Value)
	// Exclusive end: the day after the last festival day.
	assert.Equal(t, "20251110", ev.GetProperty(ical.ComponentPropertyDtEnd).Value)
	assert.Equal(t, "Dripping Springs, TX", ev.GetProperty(ical.ComponentPropertyLocation).Value)
	assert.Equal(t, readyInput().WebsiteURL, ev.GetProperty(ical.ComponentPropertyUrl).Value)
	assert.True(t, strings.HasSuffix(ev.Id(), "@example.org"))
}

func TestInstanceToICSStableUID(t *testing.T) {
	x := fixedExporter()
	a := x.InstanceToICS(readyInput())
	b := x.InstanceToICS(readyInput())
	require.Equal(t, a.Payload, b.Payload)

	other := readyInput()
	other.Year = 2026
	other.StartDate, other.EndDate = "2026-11-05", "2026-11-08"
	c := x.InstanceToICS(other)
	require.NotEqual(t, x.uid(readyInput()), x.uid(other))
	require.Equal(t, StatusReady, c.Status)
}

func TestInstanceToICSSkipsPlaceholderURL(t *testing.T) {
	in := readyInput()
	in.WebsiteURL = "TBA"
	res := fixedExporter().InstanceToICS(in)
	require.Equal(t, StatusReady, res.Status)

	cal, err := ical.ParseCalendar(strings.NewReader(string(res.Payload)))
	require.NoError(t, err)
	require.Nil(t, cal.Events()[0].GetProperty(ical.ComponentPropertyUrl))
}

func TestInstanceToICSPending(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		reason     string
	}{
		{"both tbd", "TBD", "TBD", "Dates have not been announced yet."},
		{"start only", "2026-03-13", "TBD", "End date has not been announced yet."},
		{"end only", "", "2026-03-15", "Start date has not been announced yet."},
		{"inverted", "2026-03-15", "2026-03-13", "Listed end date falls before the start date."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := readyInput()
			in.StartDate, in.EndDate = tt.start, tt.end
			res := fixedExporter().InstanceToICS(in)
			assert.Equal(t, StatusPending, res.Status)
			assert.Equal(t, tt.reason, res.Reason)
			assert.Nil(t, res.Payload)
		})
	}
}

func TestInstanceToICSOmitted(t *testing.T) {
	in := readyInput()
	in.Name = ""
	require.Equal(t, StatusOmitted, fixedExporter().InstanceToICS(in).Status)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "festival.ics", Filename("", 0))
	assert.Equal(t, "festival-2026.ics", Filename("", 2026))
	assert.Equal(t, "gruene-hall.ics", Filename("gruene-hall", 0))
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	instances := []model.ExpandedInstance{
		{
			Slug: "a", FestivalName: "A", Year: 2025,
			StartDate: "2025-05-01", EndDate: "2025-05-02",
			Start: dates.ParsePtr("2025-05-01"), End: dates.ParsePtr("2025-05-02"),
		},
		{Slug: "a", FestivalName: "A", Year: 2026, StartDate: "TBD", EndDate: "TBD"},
	}

	n, err := fixedExporter().WriteAll(dir, instances)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = os.Stat(filepath.Join(dir, "a-2025.ics"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "a-2026.ics"))
	require.True(t, os.IsNotExist(err))

	_, err = fixedExporter().WriteAll("", instances)
	require.Error(t, err)
}
