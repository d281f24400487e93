package listing

import (
	"fmt"
	"strconv"
	"time"

	"festdir/internal/dates"
	"festdir/internal/ics"
	"festdir/internal/links"
	"festdir/internal/model"
)

// Fallback copy for detail fields that have no data yet.
const (
	DefaultHeroDescription = "A Texas songwriter gathering with intimate performances and collaborative rounds."
	DefaultOverview        = "More details coming soon."
	DefaultVenue           = "Venue TBA"
	DefaultAddress         = "Address coming soon"
	DefaultCost            = "Pricing not announced yet."

	NoticeDatesPending = "Exact dates are still pending—keep an eye on the official site for updates."
	NoticeMapPending   = "Map links will appear once locations are finalized."
)

// Link is an action shown next to an instance.
type Link struct {
	Label string `json:"label"`
	Href  string `json:"href,omitempty"`
	// Download is the suggested file name for calendar links.
	Download string `json:"download,omitempty"`
	// Disabled links are rendered inert with Title as the tooltip.
	Disabled bool   `json:"disabled,omitempty"`
	Title    string `json:"title,omitempty"`
}

// Option is one entry in the season selector.
type Option struct {
	Index    int    `json:"index"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Detail is the view-model of a festival detail page.
type Detail struct {
	Slug          string
	Name          string
	Description   string
	Instances     []model.ExpandedInstance
	SelectedIndex int
}

// InstanceView is everything the detail page shows for one season.
type InstanceView struct {
	Year            string   `json:"year"`
	HeroDescription string   `json:"hero_description"`
	Dates           string   `json:"dates"`
	Location        string   `json:"location"`
	Overview        string   `json:"overview"`
	Venue           string   `json:"venue"`
	Address         string   `json:"address"`
	Range           string   `json:"range"`
	Cost            string   `json:"cost"`
	Notices         []string `json:"notices"`
	Links           []Link   `json:"links"`
}

// BuildDetail summarizes entry's instances and selects one. selected < 0
// picks the default (the first upcoming instance, else the first one); an
// out-of-range selection also falls back to the default.
func BuildDetail(entry FestivalEntry, now time.Time, selected int) Detail {
	instances := SummarizeInstances(entry.Instances)
	d := Detail{
		Slug:        entry.Slug,
		Name:        entry.Name,
		Description: entry.Description,
		Instances:   instances,
	}

	if selected >= 0 && selected < len(instances) {
		d.SelectedIndex = selected
	} else {
		d.SelectedIndex = DefaultInstanceIndex(instances, now)
	}
	return d
}

// DefaultInstanceIndex returns the index of the first upcoming instance, or
// 0 when none is upcoming.
func DefaultInstanceIndex(instances []model.ExpandedInstance, now time.Time) int {
	for i, inst := range instances {
		if dates.IsUpcoming(inst.Start, inst.End, now) {
			return i
		}
	}
	return 0
}

// Selected returns the selected instance; ok is false for a festival with no
// instances.
func (d Detail) Selected() (model.ExpandedInstance, bool) {
	if d.SelectedIndex < 0 || d.SelectedIndex >= len(d.Instances) {
		return model.ExpandedInstance{}, false
	}
	return d.Instances[d.SelectedIndex], true
}

// Options lists the season selector entries ("2025 · Nov 6, 2025 – ...").
func (d Detail) Options() []Option {
	out := make([]Option, 0, len(d.Instances))
	for i, inst := range d.Instances {
		out = append(out, Option{
			Index:    i,
			Label:    fmt.Sprintf("%d · %s", inst.Year, inst.DateRangeLabel),
			Selected: i == d.SelectedIndex,
		})
	}
	return out
}

// Render builds the view of instance i.
func (d Detail) Render(i int, x *ics.Exporter) (InstanceView, bool) {
	if i < 0 || i >= len(d.Instances) {
		return InstanceView{}, false
	}
	inst := d.Instances[i]

	v := InstanceView{
		Year:            strconv.Itoa(inst.Year),
		HeroDescription: firstNonEmpty(d.Description, inst.InstanceDescription, DefaultHeroDescription),
		Dates:           inst.DateRangeLabel,
		Location:        inst.City,
		Overview:        firstNonEmpty(inst.InstanceDescription, DefaultOverview),
		Venue:           firstNonEmpty(inst.VenueName, DefaultVenue),
		Address:         firstNonEmpty(inst.Address, DefaultAddress),
		Range:           dates.FormatDateRange(inst.StartDate, inst.EndDate),
		Cost:            firstNonEmpty(inst.CostNotes, DefaultCost),
		Notices:         Notices(inst),
	}

	input := ics.InputFor(inst)
	input.Name = firstNonEmpty(d.Name, inst.FestivalName)
	v.Links = InstanceLinks(inst, x.InstanceToICS(input), "Official website", "View on maps")
	return v, true
}

// Notices lists the pending-information notices for inst.
func Notices(inst model.ExpandedInstance) []string {
	notices := make([]string, 0, 2)
	if inst.StartDate == "" || inst.StartDate == dates.Sentinel {
		notices = append(notices, NoticeDatesPending)
	}
	if !links.IsMeaningfulURL(inst.MapsURL) {
		notices = append(notices, NoticeMapPending)
	}
	return notices
}

// InstanceLinks builds the website, map and calendar actions for inst.
func InstanceLinks(inst model.ExpandedInstance, invite ics.Result, websiteLabel, mapLabel string) []Link {
	out := make([]Link, 0, 3)
	if links.IsMeaningfulURL(inst.WebsiteURL) {
		out = append(out, Link{Label: websiteLabel, Href: inst.WebsiteURL})
	}
	if links.IsMeaningfulURL(inst.MapsURL) {
		out = append(out, Link{Label: mapLabel, Href: inst.MapsURL})
	}
	switch invite.Status {
	case ics.StatusReady:
		out = append(out, Link{Label: "Add to calendar", Href: invite.Href, Download: invite.Filename})
	case ics.StatusPending:
		out = append(out, Link{Label: "Add to calendar (TBD)", Disabled: true, Title: invite.Reason})
	}
	return out
}
