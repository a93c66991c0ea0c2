package view

import (
	"context"
	"fmt"
	"sync"
	"time"

	"calview/internal/calendar"
	appLog "calview/internal/log"
	"calview/internal/model"
)

// Marker is an event placed on the current window with its display color.
type Marker struct {
	Event model.Event
	Color string
}

// Controller owns the state of one mounted calendar view. Every transition
// replaces the state with the navigator's result; the lock serializes
// transitions coming from concurrent HTTP requests.
type Controller struct {
	nav     *calendar.Navigator
	source  EventSource
	palette *calendar.Palette

	mu    sync.Mutex
	state calendar.ViewState
}

// NewController mounts a view at the navigator's initial state. A nil
// source yields an empty overlay; a nil palette uses the defaults.
func NewController(nav *calendar.Navigator, source EventSource, palette *calendar.Palette) *Controller {
	if source == nil {
		source = StaticSource(nil)
	}
	if palette == nil {
		palette = calendar.NewPalette(nil)
	}
	return &Controller{
		nav:     nav,
		source:  source,
		palette: palette,
		state:   nav.Initial(),
	}
}

// State returns the current snapshot.
func (c *Controller) State() calendar.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Advance() (calendar.ViewState, error) {
	return c.apply(c.nav.Advance)
}

func (c *Controller) Retreat() (calendar.ViewState, error) {
	return c.apply(c.nav.Retreat)
}

func (c *Controller) Today() (calendar.ViewState, error) {
	return c.apply(c.nav.Today)
}

func (c *Controller) SetGranularity(g calendar.Granularity) (calendar.ViewState, error) {
	return c.apply(func(s calendar.ViewState) (calendar.ViewState, error) {
		return c.nav.SetGranularity(s, g)
	})
}

func (c *Controller) Jump(t time.Time) (calendar.ViewState, error) {
	return c.apply(func(s calendar.ViewState) (calendar.ViewState, error) {
		return c.nav.Jump(s, t)
	})
}

// apply runs a transition and stores its result; on error the current
// state is kept.
func (c *Controller) apply(fn func(calendar.ViewState) (calendar.ViewState, error)) (calendar.ViewState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fn(c.state)
	if err != nil {
		return c.state, err
	}
	appLog.Debug("view transition",
		"from", c.state.Title(),
		"to", next.Title(),
		"granularity", next.Granularity().String(),
	)
	c.state = next
	return next, nil
}

// Window returns the interval displayed by the current state.
func (c *Controller) Window() (start, end time.Time, bounded bool, err error) {
	return c.nav.Window(c.State())
}

// Overlay fetches the events visible in the current window, normalized,
// ordered for display and colored by status.
func (c *Controller) Overlay(ctx context.Context) ([]Marker, error) {
	start, end, bounded, err := c.Window()
	if err != nil {
		return nil, err
	}

	var events []model.Event
	if bounded {
		events, err = c.source.Events(ctx, start, end)
	} else {
		events, err = c.source.Events(ctx, time.Time{}, time.Time{})
	}
	if err != nil {
		return nil, fmt.Errorf("view: load events: %w", err)
	}

	visible := make([]model.Event, 0, len(events))
	for _, ev := range events {
		ev = ev.Normalize()
		if bounded && !ev.Overlaps(start, end) {
			continue
		}
		visible = append(visible, ev)
	}
	model.SortForDisplay(visible)

	markers := make([]Marker, 0, len(visible))
	for _, ev := range visible {
		markers = append(markers, Marker{Event: ev, Color: c.palette.ColorFor(ev.Status)})
	}
	return markers, nil
}

// Palette returns the palette used to color markers.
func (c *Controller) Palette() *calendar.Palette { return c.palette }
