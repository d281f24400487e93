// Package listing turns the festival dataset into the per-occurrence
// view-models used by list, detail and calendar views.
package listing

import (
	"errors"

	"festdir/internal/dates"
	appLog "festdir/internal/log"
	"festdir/internal/metrics"
	"festdir/internal/model"
	"festdir/internal/slug"
)

// FestivalEntry is a festival resolved for its detail page.
type FestivalEntry struct {
	Slug        string
	Name        string
	Summary     string
	Description string
	Instances   []model.ExpandedInstance
}

// ExpandInstances flattens festivals into one record per instance. Festivals
// without a name are skipped with a warning.
func ExpandInstances(data *model.Dataset) []model.ExpandedInstance {
	if data == nil {
		return nil
	}

	out := make([]model.ExpandedInstance, 0, len(data.Events))
	for i, festival := range data.Events {
		if festival.Name == "" {
			skipUnnamed(i, "expand")
			continue
		}

		s := slug.Slugify(festival.Name)
		base := baseDescription(festival)

		for _, inst := range festival.Instances {
			festivalDesc := firstNonEmpty(base, inst.Description)
			instanceDesc := firstNonEmpty(inst.Description, base)
			out = append(out, expandOne(s, festival.Name, festivalDesc, instanceDesc, inst))
		}
	}
	return out
}

// BuildFestivalMap indexes named festivals by slug. A festival's description
// falls back from summary to description to its richest instance
// description. Each entry's instances inherit that description when they have
// none of their own.
func BuildFestivalMap(data *model.Dataset) map[string]FestivalEntry {
	out := make(map[string]FestivalEntry)
	if data == nil {
		return out
	}

	for i, festival := range data.Events {
		if festival.Name == "" {
			skipUnnamed(i, "map")
			continue
		}

		s := slug.Slugify(festival.Name)
		desc := firstNonEmpty(baseDescription(festival), richestDescription(festival.Instances))

		entry := FestivalEntry{
			Slug:        s,
			Name:        festival.Name,
			Summary:     festival.Summary,
			Description: desc,
			Instances:   make([]model.ExpandedInstance, 0, len(festival.Instances)),
		}
		for _, inst := range festival.Instances {
			entry.Instances = append(entry.Instances,
				expandOne(s, festival.Name, desc, firstNonEmpty(inst.Description, desc), inst))
		}

		if prev, dup := out[s]; dup {
			appLog.Warn("festival slug collision; later record wins",
				"slug", s, "previous", prev.Name, "name", festival.Name)
		}
		out[s] = entry
	}
	return out
}

func expandOne(s, name, festivalDesc, instanceDesc string, inst model.Instance) model.ExpandedInstance {
	warnMalformed(s, inst.Year, "start_date", inst.StartDate)
	warnMalformed(s, inst.Year, "end_date", inst.EndDate)

	start := dates.ParsePtr(inst.StartDate)
	end := dates.ParsePtr(inst.EndDate)

	return model.ExpandedInstance{
		Slug:                s,
		FestivalName:        name,
		FestivalDescription: festivalDesc,
		InstanceDescription: instanceDesc,
		Year:                inst.Year,
		StartDate:           inst.StartDate,
		EndDate:             inst.EndDate,
		City:                inst.City,
		VenueName:           inst.VenueName,
		Address:             inst.Address,
		MapsURL:             inst.GoogleMapsURL,
		WebsiteURL:          inst.WebsiteURL,
		CostNotes:           inst.CostNotes,
		Start:               start,
		End:                 end,
		HasExactDates:       start != nil && end != nil,
		DateRangeLabel:      dates.FormatDateRange(inst.StartDate, inst.EndDate),
	}
}

func baseDescription(f model.Festival) string {
	return firstNonEmpty(f.Summary, f.Description)
}

// richestDescription picks the longest instance description, the first one
// on ties. Length stands in for "most detailed"; it is a heuristic.
func richestDescription(instances []model.Instance) string {
	best := ""
	for _, inst := range instances {
		if len(inst.Description) > len(best) {
			best = inst.Description
		}
	}
	return best
}

func warnMalformed(s string, year int, field, value string) {
	if err := dates.Validate(value); err != nil {
		appLog.Warn("unparseable date treated as pending",
			"slug", s, "year", year, "field", field, "err", err)
	}
}

var errUnnamed = errors.New("festival record has no name")

func skipUnnamed(index int, stage string) {
	metrics.SkippedRecords.WithLabelValues("festivals").Inc()
	appLog.Warn("skipping festival without a name field", "index", index, "stage", stage, "err", errUnnamed)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
