package web

import (
	"net/http"
	"strconv"
	"strings"

	"festdir/internal/dates"
	"festdir/internal/ics"
	"festdir/internal/listing"
	appLog "festdir/internal/log"
	"festdir/internal/model"
)

// instanceDTO is one row of the festival directory.
type instanceDTO struct {
	Slug          string `json:"slug"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Year          int    `json:"year"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
	DateRange     string `json:"date_range"`
	HasExactDates bool   `json:"has_exact_dates"`
	Upcoming      bool   `json:"upcoming"`
	City          string `json:"city"`
	VenueName     string `json:"venue_name,omitempty"`
	Href          string `json:"href"`
}

type festivalsResponse struct {
	Instances []instanceDTO `json:"instances"`
	Years     []int         `json:"years"`
	Total     int           `json:"total"`
}

type festivalResponse struct {
	Slug        string                `json:"slug"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Options     []listing.Option      `json:"options"`
	Selected    int                   `json:"selected"`
	Instance    *listing.InstanceView `json:"instance,omitempty"`
}

func (s *Server) toInstanceDTO(inst model.ExpandedInstance) instanceDTO {
	return instanceDTO{
		Slug:          inst.Slug,
		Name:          plainText(inst.FestivalName),
		Description:   plainText(inst.InstanceDescription),
		Year:          inst.Year,
		StartDate:     inst.StartDate,
		EndDate:       inst.EndDate,
		DateRange:     inst.DateRangeLabel,
		HasExactDates: inst.HasExactDates,
		Upcoming:      dates.IsUpcoming(inst.Start, inst.End, s.now()),
		City:          listing.FormatCity(inst.City),
		VenueName:     inst.VenueName,
		Href:          "/api/festivals/" + inst.Slug,
	}
}

// filterFromQuery reads the directory controls shared by the festival list
// and the calendar.
func filterFromQuery(r *http.Request) listing.Filter {
	q := r.URL.Query()
	return listing.Filter{
		Search:   q.Get("q"),
		Year:     q.Get("year"),
		ShowPast: parseBoolDefault(q.Get("past"), false),
	}
}

// handleFestivals lists summarized instances passing the directory filters.
func (s *Server) handleFestivals(w http.ResponseWriter, r *http.Request) {
	data, ok := s.loadFestivals(w, r)
	if !ok {
		return
	}

	all := listing.SummarizeInstances(listing.ExpandInstances(data))
	filtered := filterFromQuery(r).Apply(all, s.now())

	resp := festivalsResponse{
		Instances: make([]instanceDTO, 0, len(filtered)),
		Years:     listing.Years(all),
		Total:     len(all),
	}
	for _, inst := range filtered {
		resp.Instances = append(resp.Instances, s.toInstanceDTO(inst))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleFestival serves the detail view of /api/festivals/{slug}.
func (s *Server) handleFestival(w http.ResponseWriter, r *http.Request) {
	s.writeFestival(w, r, r.PathValue("slug"))
}

// handleFestivalBySlugParam resolves the slug from the URL fragment or the
// slug query parameter, for clients holding a page link.
func (s *Server) handleFestivalBySlugParam(w http.ResponseWriter, r *http.Request) {
	slug := listing.ResolveSlug(r.URL)
	if slug == "" {
		writeError(w, http.StatusBadRequest, "missing festival slug")
		return
	}
	s.writeFestival(w, r, slug)
}

func (s *Server) writeFestival(w http.ResponseWriter, r *http.Request, slug string) {
	data, ok := s.loadFestivals(w, r)
	if !ok {
		return
	}

	entry, found := listing.BuildFestivalMap(data)[slug]
	if !found {
		writeError(w, http.StatusNotFound, "We couldn't find that festival.")
		return
	}

	selected := parseIntDefault(r.URL.Query().Get("instance"), -1)
	detail := listing.BuildDetail(entry, s.now(), selected)

	resp := festivalResponse{
		Slug:        detail.Slug,
		Name:        plainText(detail.Name),
		Description: plainText(detail.Description),
		Options:     detail.Options(),
		Selected:    detail.SelectedIndex,
	}
	if view, ok := detail.Render(detail.SelectedIndex, s.exporter); ok {
		view.HeroDescription = plainText(view.HeroDescription)
		view.Overview = plainText(view.Overview)
		resp.Instance = &view
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleFestivalICS serves the calendar invite of one season. Seasons
// without final dates answer 409 with the pending reason.
func (s *Server) handleFestivalICS(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}

	data, ok := s.loadFestivals(w, r)
	if !ok {
		return
	}

	slug := r.PathValue("slug")
	entry, found := listing.BuildFestivalMap(data)[slug]
	if !found {
		writeError(w, http.StatusNotFound, "We couldn't find that festival.")
		return
	}

	var (
		inst    model.ExpandedInstance
		matched bool
	)
	for _, candidate := range entry.Instances {
		if candidate.Year == year {
			inst, matched = candidate, true
			break
		}
	}
	if !matched {
		writeError(w, http.StatusNotFound, "no season for that year")
		return
	}

	input := ics.InputFor(inst)
	input.Name = entry.Name
	res := s.exporter.InstanceToICS(input)

	switch res.Status {
	case ics.StatusReady:
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(res.Payload); err != nil {
			appLog.Error("failed to write calendar invite", err, "slug", slug, "year", year)
		}
	case ics.StatusPending:
		writeError(w, http.StatusConflict, res.Reason)
	default:
		writeError(w, http.StatusNotFound, "no calendar invite for this season")
	}
}

// dayKeyValid reports whether key is a YYYY-MM-DD calendar day.
func dayKeyValid(key string) bool {
	_, ok := dates.Parse(strings.TrimSpace(key))
	return ok
}
