package ics

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"festdir/internal/dates"
	"festdir/internal/links"
	appLog "festdir/internal/log"
	"festdir/internal/model"
)

// DefaultDomain is appended to generated UIDs when none is configured.
const DefaultDomain = "festdir.local"

const productID = "-//festdir//Festival Directory//EN"

// Status is the outcome of converting an instance to a calendar invite.
type Status string

const (
	// StatusReady means both dates are known and Payload is set.
	StatusReady Status = "ready"
	// StatusPending means the dates are not final; Reason explains why.
	StatusPending Status = "pending"
	// StatusOmitted means the instance has no name and gets no invite at all.
	StatusOmitted Status = "omitted"
)

// Input carries the fields of an instance needed for an invite.
type Input struct {
	Name        string
	Slug        string
	Year        int
	StartDate   string
	EndDate     string
	Address     string
	WebsiteURL  string
	Description string
}

// Result is a converted invite. Only StatusReady results carry a payload.
type Result struct {
	Status   Status
	Reason   string
	Payload  []byte
	Href     string
	Filename string
}

// Exporter builds calendar invites. The domain qualifies generated UIDs.
type Exporter struct {
	Domain string
	// Now stamps DTSTAMP; time.Now when nil.
	Now func() time.Time
}

// NewExporter returns an Exporter for domain (DefaultDomain when empty).
func NewExporter(domain string) *Exporter {
	if domain == "" {
		domain = DefaultDomain
	}
	return &Exporter{Domain: domain, Now: time.Now}
}

// InputFor maps an expanded instance onto an invite Input.
func InputFor(inst model.ExpandedInstance) Input {
	return Input{
		Name:        inst.FestivalName,
		Slug:        inst.Slug,
		Year:        inst.Year,
		StartDate:   inst.StartDate,
		EndDate:     inst.EndDate,
		Address:     inst.Address,
		WebsiteURL:  inst.WebsiteURL,
		Description: inst.InstanceDescription,
	}
}

// InstanceToICS converts in into an all-day VEVENT when both dates are known.
func (x *Exporter) InstanceToICS(in Input) Result {
	if in.Name == "" {
		return Result{Status: StatusOmitted}
	}

	start, hasStart := dates.Parse(in.StartDate)
	end, hasEnd := dates.Parse(in.EndDate)

	switch {
	case !hasStart && !hasEnd:
		return Result{Status: StatusPending, Reason: "Dates have not been announced yet."}
	case !hasStart:
		return Result{Status: StatusPending, Reason: "Start date has not been announced yet."}
	case !hasEnd:
		return Result{Status: StatusPending, Reason: "End date has not been announced yet."}
	case end.Before(start):
		return Result{Status: StatusPending, Reason: "Listed end date falls before the start date."}
	}

	payload := x.build(in, start, end)
	return Result{
		Status:   StatusReady,
		Payload:  payload,
		Href:     "data:text/calendar;charset=utf-8," + url.PathEscape(string(payload)),
		Filename: Filename(in.Slug, in.Year),
	}
}

func (x *Exporter) build(in Input, start, end dates.Date) []byte {
	now := time.Now
	if x.Now != nil {
		now = x.Now
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	ev := cal.AddEvent(x.uid(in))
	ev.SetDtStampTime(now().UTC())
	ev.SetSummary(in.Name)
	// All-day DTEND is exclusive.
	ev.SetAllDayStartAt(start.Time())
	ev.SetAllDayEndAt(end.AddDays(1).Time())
	if in.Address != "" {
		ev.SetLocation(in.Address)
	}
	if links.IsMeaningfulURL(in.WebsiteURL) {
		ev.SetURL(in.WebsiteURL)
	}
	if in.Description != "" {
		ev.SetDescription(in.Description)
	}

	return []byte(cal.Serialize())
}

// uid is stable for a given (slug, year) so re-imports update the same event.
func (x *Exporter) uid(in Input) string {
	key := in.Slug
	if key == "" {
		key = in.Name
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(x.Domain+"/"+key+"/"+strconv.Itoa(in.Year)))
	return id.String() + "@" + x.Domain
}

// Filename is the download name for an instance's invite.
func Filename(s string, year int) string {
	if s == "" {
		s = "festival"
	}
	if year == 0 {
		return s + ".ics"
	}
	return fmt.Sprintf("%s-%d.ics", s, year)
}

// WriteAll writes one .ics file per ready instance into dir and returns the
// number written. Pending and omitted instances are skipped.
func (x *Exporter) WriteAll(dir string, instances []model.ExpandedInstance) (int, error) {
	if dir == "" {
		return 0, errors.New("ics: export dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	written := 0
	for _, inst := range instances {
		res := x.InstanceToICS(InputFor(inst))
		if res.Status != StatusReady {
			appLog.Debug("ics export skipped", "slug", inst.Slug, "year", inst.Year, "status", string(res.Status), "reason", res.Reason)
			continue
		}
		path := filepath.Join(dir, res.Filename)
		if err := os.WriteFile(path, res.Payload, 0o644); err != nil {
			return written, fmt.Errorf("ics: write %s: %w", path, err)
		}
		written++
	}

	appLog.Info("ics export completed", "dir", dir, "written", written, "instances", len(instances))
	return written, nil
}
