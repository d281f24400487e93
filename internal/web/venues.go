package web

import (
	"net/http"

	"festdir/internal/listing"
	"festdir/internal/venues"
)

type venueDTO struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Tags        []string `json:"tags,omitempty"`
	City        string   `json:"city"`
	Description string   `json:"description,omitempty"`
	Href        string   `json:"href"`
}

type venuesResponse struct {
	Venues []venueDTO `json:"venues"`
	Cities []string   `json:"cities"`
	Types  []string   `json:"types"`
	Total  int        `json:"total"`
}

// handleVenues lists venues passing ?q=, ?city= and ?type=.
func (s *Server) handleVenues(w http.ResponseWriter, r *http.Request) {
	data, ok := s.loadVenues(w, r)
	if !ok {
		return
	}

	all := venues.Expand(data)
	q := r.URL.Query()
	filtered := venues.Filter{
		Search: q.Get("q"),
		City:   q.Get("city"),
		Type:   q.Get("type"),
	}.Apply(all)

	resp := venuesResponse{
		Venues: make([]venueDTO, 0, len(filtered)),
		Cities: venues.Cities(all),
		Types:  venues.Types(all),
		Total:  len(all),
	}
	for _, l := range filtered {
		resp.Venues = append(resp.Venues, venueDTO{
			Slug:        l.Slug,
			Name:        plainText(l.Name),
			Type:        l.Type,
			Tags:        l.Tags,
			City:        listing.FormatCity(l.Instance.City),
			Description: plainText(l.Instance.Description),
			Href:        "/api/venues/" + l.Slug,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleVenue serves the detail view of one venue.
func (s *Server) handleVenue(w http.ResponseWriter, r *http.Request) {
	data, ok := s.loadVenues(w, r)
	if !ok {
		return
	}

	l, found := venues.BuildMap(venues.Expand(data))[r.PathValue("slug")]
	if !found {
		writeError(w, http.StatusNotFound, "We couldn't find that venue.")
		return
	}

	d := venues.BuildDetail(l)
	d.Description = plainText(d.Description)
	d.Overview = plainText(d.Overview)
	writeJSON(w, http.StatusOK, d)
}
