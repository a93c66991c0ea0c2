package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "calview/internal/log"
	"calview/internal/model"
)

const defaultMaxOccurrencesPerEvent = 5000

// ErrOccurrenceCap is logged when a recurring event yields more instances
// than MaxOccurrencesPerEvent within the range.
var ErrOccurrenceCap = errors.New("expand: max occurrences reached")

// ExpandConfig controls recurrence expansion.
type ExpandConfig struct {
	// DisplayLocation is the zone every occurrence is converted to; nil
	// means time.Local.
	DisplayLocation *time.Location

	// RangeStart and RangeEnd bound the occurrences returned.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps one recurring event; zero uses 5000.
	MaxOccurrencesPerEvent int
}

// ExpandResult holds the expanded events and the UIDs that hit the cap.
type ExpandResult struct {
	Events          []model.Event
	TruncatedEvents []string
}

// ExpandOccurrences turns parsed VEVENTs into concrete events within the
// configured range: single events, RRULE recurrences minus EXDATEs, and
// RECURRENCE-ID overrides replacing the instance they name.
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)
	var uids []string
	for _, ev := range events {
		ev = clampEnd(ev)
		if ev.IsOverride() {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
			continue
		}
		if _, seen := baseByUID[ev.UID]; !seen {
			uids = append(uids, ev.UID)
		}
		baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
	}

	out := make([]model.Event, 0, len(events))
	for _, uid := range uids {
		truncated := false
		for _, ev := range baseByUID[uid] {
			occ, hitCap := expandEvent(ev, overridesByUID[uid], cfg)
			truncated = truncated || hitCap
			out = append(out, occ...)
		}
		if truncated {
			result.TruncatedEvents = append(result.TruncatedEvents, uid)
			appLog.Error("expand: truncated occurrences for UID due to cap",
				ErrOccurrenceCap,
				"uid", uid,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
	}

	result.Events = out
	return result, nil
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Event, bool) {
	if ev.RawRRule == "" {
		if !inRange(ev.Start, ev.End, cfg) {
			return nil, false
		}
		return []model.Event{occurrence(ev, overrides, ev.Start, ev.End, cfg.DisplayLocation)}, false
	}
	return expandRecurring(ev, overrides, cfg)
}

func expandRecurring(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Event, bool) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Widen the lower bound by the event duration so an occurrence that
	// started before the range but is still running is kept.
	dur := ev.End.Sub(ev.Start)
	starts := set.Between(
		cfg.RangeStart.Add(-dur).In(ev.Start.Location()),
		cfg.RangeEnd.In(ev.Start.Location()),
		true,
	)

	hitCap := false
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		starts = starts[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	out := make([]model.Event, 0, len(starts))
	for _, s := range starts {
		var e time.Time
		if ev.AllDay {
			s = time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, s.Location())
			e = s.AddDate(0, 0, 1)
		} else {
			e = s.Add(dur)
		}
		out = append(out, occurrence(ev, overrides, s, e, cfg.DisplayLocation))
	}
	return out, hitCap
}

// occurrence builds the event for one instance, applying the override whose
// RECURRENCE-ID matches start.
func occurrence(ev ParsedEvent, overrides []ParsedEvent, start, end time.Time, loc *time.Location) model.Event {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			ev, start, end = ov, ov.Start, ov.End
			break
		}
	}

	s := start.In(loc)
	return model.Event{
		SourceID:    ev.Source.ID,
		UID:         ev.UID,
		InstanceKey: s.Format(time.RFC3339),
		Title:       ev.Title,
		Status:      ev.Status,
		Location:    ev.Location,
		AllDay:      ev.AllDay,
		Start:       s,
		End:         end.In(loc),
	}
}

// clampEnd turns an event ending before it starts into a zero-width event
// at its start, matching model.Event.Normalize.
func clampEnd(ev ParsedEvent) ParsedEvent {
	if ev.End.Before(ev.Start) {
		ev.End = ev.Start
	}
	return ev
}

func inRange(start, end time.Time, cfg ExpandConfig) bool {
	return !end.Before(cfg.RangeStart) && !cfg.RangeEnd.Before(start)
}
