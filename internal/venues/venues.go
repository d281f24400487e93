// Package venues builds listings for the music venue dataset. Each venue has
// a single implicit instance and a type drawn from a fixed vocabulary.
package venues

import (
	"errors"
	"slices"
	"strings"

	"festdir/internal/links"
	appLog "festdir/internal/log"
	"festdir/internal/metrics"
	"festdir/internal/model"
	"festdir/internal/slug"
)

// DefaultType is used when no tag maps to a known venue type.
const DefaultType = "Music Venue"

// All is the filter value that disables a city or type filter.
const All = "all"

// typeTags maps dataset tags to display types.
var typeTags = []struct {
	tag   string
	label string
}{
	{"listening_room", "Listening Room"},
	{"dance_hall", "Dance Hall"},
	{"winery", "Winery"},
	{"wine_bar", "Wine Bar"},
	{"brewery", "Brewery"},
	{"bar", "Bar"},
	{"saloon", "Saloon"},
	{"coffee_shop", "Coffee Shop"},
	{"restaurant", "Restaurant"},
}

// TypeFor returns the display type of the first recognized tag.
func TypeFor(tags []string) string {
	for _, tag := range tags {
		for _, tt := range typeTags {
			if tt.tag == tag {
				return tt.label
			}
		}
	}
	return DefaultType
}

// Listing is a venue prepared for the directory.
type Listing struct {
	Slug     string
	Name     string
	Type     string
	Tags     []string
	Instance model.Instance
}

var errNoInstance = errors.New("venue record has no instances")

// Expand builds one Listing per venue, skipping (with a warning) venues
// without a name or without any instance.
func Expand(data *model.VenueDataset) []Listing {
	if data == nil {
		return nil
	}

	out := make([]Listing, 0, len(data.Venues))
	for i, v := range data.Venues {
		if v.Name == "" {
			metrics.SkippedRecords.WithLabelValues("venues").Inc()
			appLog.Warn("skipping venue without a name field", "index", i)
			continue
		}
		if len(v.Instances) == 0 {
			metrics.SkippedRecords.WithLabelValues("venues").Inc()
			appLog.Warn("skipping venue", "index", i, "name", v.Name, "err", errNoInstance)
			continue
		}
		out = append(out, Listing{
			Slug:     slug.Slugify(v.Name),
			Name:     v.Name,
			Type:     TypeFor(v.Tags),
			Tags:     v.Tags,
			Instance: v.Instances[0],
		})
	}
	return out
}

// BuildMap indexes listings by slug.
func BuildMap(listings []Listing) map[string]Listing {
	out := make(map[string]Listing, len(listings))
	for _, l := range listings {
		out[l.Slug] = l
	}
	return out
}

// Filter narrows venue listings by city, type and free-text search.
type Filter struct {
	Search string
	City   string
	Type   string
}

// Apply returns the listings passing f, preserving order.
func (f Filter) Apply(listings []Listing) []Listing {
	term := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if f.City != "" && f.City != All && l.Instance.City != f.City {
			continue
		}
		if f.Type != "" && f.Type != All && l.Type != f.Type {
			continue
		}
		if term != "" {
			text := strings.ToLower(strings.Join([]string{
				l.Name,
				l.Instance.City,
				l.Instance.VenueName,
				l.Instance.Description,
				l.Instance.Address,
			}, " "))
			if !strings.Contains(text, term) {
				continue
			}
		}
		out = append(out, l)
	}
	return out
}

// Cities lists the distinct cities, sorted.
func Cities(listings []Listing) []string {
	return distinct(listings, func(l Listing) string { return l.Instance.City })
}

// Types lists the distinct venue types, sorted.
func Types(listings []Listing) []string {
	return distinct(listings, func(l Listing) string { return l.Type })
}

func distinct(listings []Listing, key func(Listing) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, l := range listings {
		k := key(l)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Detail is the venue detail view.
type Detail struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Overview    string `json:"overview"`
	VenueName   string `json:"venue_name"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Cost        string `json:"cost"`
	WebsiteURL  string `json:"website_url,omitempty"`
	MapsURL     string `json:"maps_url,omitempty"`
}

// BuildDetail applies the display fallbacks for l.
func BuildDetail(l Listing) Detail {
	inst := l.Instance
	d := Detail{
		Name:        l.Name,
		Type:        l.Type,
		Description: orDefault(inst.Description, "A Texas music venue featuring live performances."),
		Location:    inst.City,
		Overview:    orDefault(inst.Description, "More details coming soon."),
		VenueName:   orDefault(inst.VenueName, l.Name),
		Address:     orDefault(inst.Address, "Address information pending"),
		City:        orDefault(inst.City, "—"),
		Cost:        orDefault(inst.CostNotes, "Check venue website for current pricing."),
	}
	if links.IsMeaningfulURL(inst.WebsiteURL) {
		d.WebsiteURL = inst.WebsiteURL
	}
	if links.IsMeaningfulURL(inst.GoogleMapsURL) {
		d.MapsURL = inst.GoogleMapsURL
	}
	return d
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
