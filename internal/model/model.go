package model

import "festdir/internal/dates"

// Dataset is the festival JSON document: { "events": [...] }.
type Dataset struct {
	Events []Festival `json:"events"`
}

// Festival is a named recurring gathering. Its identity is the slug of Name.
type Festival struct {
	Name        string     `json:"name"`
	Summary     string     `json:"summary,omitempty"`
	Description string     `json:"description,omitempty"`
	Instances   []Instance `json:"instances"`
}

// Instance is one year's running of a Festival (or the single implicit
// occurrence of a Venue). StartDate/EndDate hold an ISO day or "TBD".
type Instance struct {
	Year          int    `json:"year"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	City          string `json:"city"`
	VenueName     string `json:"venue_name"`
	Address       string `json:"address"`
	GoogleMapsURL string `json:"google_maps_url"`
	WebsiteURL    string `json:"website_url"`
	CostNotes     string `json:"cost_notes"`
	Description   string `json:"description"`
}

// VenueDataset is the venue JSON document: { "venues": [...] }.
type VenueDataset struct {
	Venues []Venue `json:"venues"`
}

// Venue is a music venue listing. Only the first instance is displayed.
type Venue struct {
	Name      string     `json:"name"`
	Tags      []string   `json:"tags,omitempty"`
	Instances []Instance `json:"instances"`
}

// ExpandedInstance is the per-occurrence view-model built from a Festival and
// one of its Instances. It is rebuilt from the source dataset on every pass
// and never mutated afterwards.
type ExpandedInstance struct {
	Slug                string
	FestivalName        string
	FestivalDescription string
	InstanceDescription string

	Year      int
	StartDate string
	EndDate   string

	City       string
	VenueName  string
	Address    string
	MapsURL    string
	WebsiteURL string
	CostNotes  string

	// Start / End are nil when the corresponding date is unresolvable.
	Start *dates.Date
	End   *dates.Date

	// HasExactDates is true only when both Start and End resolved.
	HasExactDates  bool
	DateRangeLabel string
}

// Key identifies an instance within a dataset: (festival slug, year).
type Key struct {
	Slug string
	Year int
}

func (e ExpandedInstance) Key() Key {
	return Key{Slug: e.Slug, Year: e.Year}
}

// HasAnyDate reports whether at least one bound resolved.
func (e ExpandedInstance) HasAnyDate() bool {
	return e.Start != nil || e.End != nil
}
