package view

import (
	"context"
	"time"

	"calview/internal/model"
)

// EventSource supplies the events overlaid on a view. A zero start and end
// ask for everything the source is willing to return (the All view).
type EventSource interface {
	Events(ctx context.Context, start, end time.Time) ([]model.Event, error)
}

// StaticSource is a fixed in-memory event list.
type StaticSource []model.Event

func (s StaticSource) Events(_ context.Context, start, end time.Time) ([]model.Event, error) {
	out := make([]model.Event, 0, len(s))
	for _, ev := range s {
		ev = ev.Normalize()
		if !start.IsZero() && !end.IsZero() && !ev.Overlaps(start, end) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}
