package listing

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"festdir/internal/dates"
	"festdir/internal/model"
)

// AllYears is the Filter.Year value that disables year filtering.
const AllYears = "all"

// DefaultCity is shown when an instance has no city.
const DefaultCity = "Texas"

// Filter narrows a summarized instance list the way the directory controls
// do: free-text search, a single year, and whether to include past runs.
type Filter struct {
	// Search is matched case-insensitively against the festival name,
	// instance description, city and venue.
	Search string
	// Year is a year string or AllYears / "".
	Year string
	// ShowPast keeps dated instances that already started.
	ShowPast bool
}

// Apply returns the instances that pass f, preserving order. Dateless
// instances always pass the past/upcoming check.
func (f Filter) Apply(instances []model.ExpandedInstance, now time.Time) []model.ExpandedInstance {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	year := strings.TrimSpace(f.Year)

	out := make([]model.ExpandedInstance, 0, len(instances))
	for _, inst := range instances {
		if year != "" && year != AllYears && strconv.Itoa(inst.Year) != year {
			continue
		}
		if term != "" && !strings.Contains(searchText(inst), term) {
			continue
		}
		if !f.ShowPast && inst.HasAnyDate() && !dates.IsUpcoming(inst.Start, inst.End, now) {
			continue
		}
		out = append(out, inst)
	}
	return out
}

func searchText(inst model.ExpandedInstance) string {
	return strings.ToLower(strings.Join([]string{
		inst.FestivalName,
		inst.InstanceDescription,
		inst.City,
		inst.VenueName,
	}, " "))
}

// Years lists the distinct instance years, ascending.
func Years(instances []model.ExpandedInstance) []int {
	seen := make(map[int]struct{})
	out := make([]int, 0)
	for _, inst := range instances {
		if _, ok := seen[inst.Year]; ok {
			continue
		}
		seen[inst.Year] = struct{}{}
		out = append(out, inst.Year)
	}
	slices.Sort(out)
	return out
}

// FormatCity returns city, or DefaultCity when it is empty.
func FormatCity(city string) string {
	if city == "" {
		return DefaultCity
	}
	return city
}

// ResolveSlug picks the record a detail URL addresses. The fragment
// (#<slug>) takes precedence over the "slug" query parameter.
func ResolveSlug(u *url.URL) string {
	if u == nil {
		return ""
	}
	if frag := strings.TrimSpace(strings.TrimPrefix(u.Fragment, "#")); frag != "" {
		return frag
	}
	return strings.TrimSpace(u.Query().Get("slug"))
}
