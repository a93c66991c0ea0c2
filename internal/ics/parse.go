package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "calview/internal/log"
)

// ParsedEvent is a VEVENT before recurrence expansion.
type ParsedEvent struct {
	Source Source

	UID      string
	Title    string
	Status   string
	Location string

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID, set on overrides of one instance
}

// IsOverride reports whether the event replaces a single recurrence.
func (ev ParsedEvent) IsOverride() bool {
	return ev.Recurrence != nil
}

// ParseICS parses an ICS payload into events. A VEVENT that cannot be read
// is logged and skipped; the rest of the calendar is still returned.
func ParseICS(src Source, body []byte, loc *time.Location) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("ics: empty body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ics: parse %s: %w", src.ID, err)
	}

	events := make([]ParsedEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(src, comp, loc)
		if perr != nil {
			appLog.Error("ics vevent skipped", perr, "id", src.ID, "url", redactURL(src.URL))
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "id", src.ID, "event_count", len(events))
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent, loc *time.Location) (ParsedEvent, error) {
	out := ParsedEvent{Source: src}

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil {
		out.Status = strings.ToUpper(strings.TrimSpace(p.Value))
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, errors.New("missing DTSTART")
	}
	start, err := propertyTime(dtStart, loc)
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	out.Start = start
	out.AllDay = isDateValue(dtStart)

	switch dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); {
	case dtEnd != nil:
		end, err := propertyTime(dtEnd, loc)
		if err != nil {
			return out, fmt.Errorf("DTEND: %w", err)
		}
		out.End = end
	case out.AllDay:
		out.End = out.Start.AddDate(0, 0, 1)
	default:
		out.End = out.Start
	}
	if out.End.Before(out.Start) {
		out.End = out.Start
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part, paramTZ(p, loc)); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if rid := ve.GetProperty("RECURRENCE-ID"); rid != nil {
		if t, err := propertyTime(rid, loc); err == nil {
			out.Recurrence = &t
		}
	}

	return out, nil
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// paramTZ resolves the TZID parameter of p, falling back to def.
func paramTZ(p *ical.IANAProperty, def *time.Location) *time.Location {
	tzs, ok := p.ICalParameters["TZID"]
	if !ok || len(tzs) == 0 {
		return def
	}
	loc, err := time.LoadLocation(tzs[0])
	if err != nil {
		return def
	}
	return loc
}

func propertyTime(p *ical.IANAProperty, def *time.Location) (time.Time, error) {
	return parseICSTime(p.Value, paramTZ(p, def))
}

// parseICSTime reads the three ICS forms: UTC date-time (trailing Z),
// floating or TZID date-time in loc, and DATE in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
