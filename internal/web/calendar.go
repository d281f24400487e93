package web

import (
	"net/http"

	"festdir/internal/calendar"
	"festdir/internal/config"
	"festdir/internal/listing"
)

type monthDTO struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type dayDTO struct {
	Key       string        `json:"key"`
	Instances []instanceDTO `json:"instances"`
}

type calendarResponse struct {
	Months    []monthDTO      `json:"months"`
	Month     *monthDTO       `json:"month,omitempty"`
	WeekStart string          `json:"week_start"`
	Cells     []calendar.Cell `json:"cells"`
	Day       *dayDTO         `json:"day,omitempty"`
	Truncated []string        `json:"truncated,omitempty"`
}

func toMonthDTO(m calendar.Month) monthDTO {
	return monthDTO{Key: m.Key, Label: m.Label()}
}

// handleCalendar buckets the filtered instances by day and lays out the
// selected month (?month=YYYY-M, zero-based month). ?day=YYYY-MM-DD adds the
// instances of that day.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	data, ok := s.loadFestivals(w, r)
	if !ok {
		return
	}

	all := listing.SummarizeInstances(listing.ExpandInstances(data))
	filtered := filterFromQuery(r).Apply(all, s.now())
	idx := calendar.PrepareCalendarData(filtered)

	weekStart := config.DefaultWeekStart
	if s.cfg.WeekStart != "" {
		weekStart = s.cfg.WeekStart
	}

	resp := calendarResponse{
		Months:    make([]monthDTO, 0, len(idx.Months)),
		WeekStart: weekStart,
		Cells:     []calendar.Cell{},
	}
	for _, m := range idx.Months {
		resp.Months = append(resp.Months, toMonthDTO(m))
	}
	for _, k := range idx.Truncated {
		resp.Truncated = append(resp.Truncated, k.Slug)
	}

	if m, ok := idx.SelectMonth(r.URL.Query().Get("month")); ok {
		dto := toMonthDTO(m)
		resp.Month = &dto
		resp.Cells = calendar.BuildGrid(idx, m, calendar.ParseWeekStart(weekStart))
	}

	if day := r.URL.Query().Get("day"); day != "" {
		if !dayKeyValid(day) {
			writeError(w, http.StatusBadRequest, "invalid day")
			return
		}
		on := idx.On(day)
		d := &dayDTO{Key: day, Instances: make([]instanceDTO, 0, len(on))}
		for _, inst := range on {
			d.Instances = append(d.Instances, s.toInstanceDTO(inst))
		}
		resp.Day = d
	}

	writeJSON(w, http.StatusOK, resp)
}
