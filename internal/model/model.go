package model

import (
	"sort"
	"time"
)

// Event is a single concrete calendar entry overlaid on a view: a plain
// event from a feed, or one occurrence of a recurring one after expansion.
type Event struct {
	SourceID string // calendar source ID (e.g., config ICS ID)
	UID      string // iCalendar UID

	// InstanceKey distinguishes occurrences of a recurring event; it is
	// derived from the occurrence start.
	InstanceKey string

	Title    string
	Status   string // palette key, e.g. "PUBLISHED" or an ICS STATUS
	Location string

	AllDay bool

	Start time.Time
	End   time.Time
}

// Normalize truncates Start and End to the minute and collapses an inverted
// range into a zero-width event at Start. Upstream feeds are not trusted to
// order their dates, so this never fails.
func (e Event) Normalize() Event {
	e.Start = e.Start.Truncate(time.Minute)
	e.End = e.End.Truncate(time.Minute)
	if e.End.Before(e.Start) {
		e.End = e.Start
	}
	return e
}

// ZeroWidth reports whether the event occupies a single instant.
func (e Event) ZeroWidth() bool {
	return e.End.Equal(e.Start)
}

// Overlaps reports whether e is visible in the half-open window
// [start, end). A zero-width event is visible when its instant lies in the
// window.
func (e Event) Overlaps(start, end time.Time) bool {
	if !e.End.After(e.Start) {
		return !e.Start.Before(start) && e.Start.Before(end)
	}
	return e.Start.Before(end) && e.End.After(start)
}

// SortForDisplay orders events in place: all-day events first, then
// ascending by start, then by end, then by title.
func SortForDisplay(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.AllDay != b.AllDay {
			return a.AllDay
		}
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if !a.End.Equal(b.End) {
			return a.End.Before(b.End)
		}
		return a.Title < b.Title
	})
}
