package calendar

import (
	"time"
)

// Clock supplies the current time. Tests inject a fixed clock.
type Clock func() time.Time

// Navigator computes view-state transitions. It holds no view state of its
// own; every method takes a state and returns a new one.
type Navigator struct {
	reg       registry
	clock     Clock
	loc       *time.Location
	weekStart time.Weekday
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(n *Navigator) {
		if c != nil {
			n.clock = c
		}
	}
}

// WithWeekStart sets the first day of the week used by Weekly views.
func WithWeekStart(d time.Weekday) Option {
	return func(n *Navigator) { n.weekStart = d }
}

// WithLocation sets the display timezone reference dates are expressed in.
func WithLocation(loc *time.Location) Option {
	return func(n *Navigator) {
		if loc != nil {
			n.loc = loc
		}
	}
}

// NewNavigator returns a Navigator using the system clock, time.Local and a
// Monday week start unless overridden.
func NewNavigator(opts ...Option) *Navigator {
	n := &Navigator{
		clock:     time.Now,
		loc:       time.Local,
		weekStart: time.Monday,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.reg = newRegistry(n.weekStart)
	return n
}

// Now returns the clock's current time in the display location.
func (n *Navigator) Now() time.Time {
	return n.clock().In(n.loc)
}

func (n *Navigator) WeekStart() time.Weekday { return n.weekStart }

func (n *Navigator) Location() *time.Location { return n.loc }

// Initial is the startup state: Yearly, anchored at the current time.
func (n *Navigator) Initial() ViewState {
	now := n.Now()
	return ViewState{
		granularity:   Yearly,
		referenceDate: now,
		title:         n.reg[Yearly].formatTitle(now),
	}
}

// State builds a state for g at ref without re-anchoring.
func (n *Navigator) State(g Granularity, ref time.Time) (ViewState, error) {
	b, err := n.reg.lookup(g)
	if err != nil {
		return ViewState{}, err
	}
	ref = ref.In(n.loc)
	return ViewState{granularity: g, referenceDate: ref, title: b.formatTitle(ref)}, nil
}

// Title is the formatter registered for g applied to t.
func (n *Navigator) Title(g Granularity, t time.Time) (string, error) {
	b, err := n.reg.lookup(g)
	if err != nil {
		return "", err
	}
	return b.formatTitle(t.In(n.loc)), nil
}

// Step moves t by one unit of g.
func (n *Navigator) Step(g Granularity, t time.Time, d Direction) (time.Time, error) {
	b, err := n.reg.lookup(g)
	if err != nil {
		return time.Time{}, err
	}
	return b.step(t, d), nil
}

// Advance moves the window one unit forward.
func (n *Navigator) Advance(s ViewState) (ViewState, error) {
	return n.move(s, Forward)
}

// Retreat moves the window one unit backward.
func (n *Navigator) Retreat(s ViewState) (ViewState, error) {
	return n.move(s, Backward)
}

func (n *Navigator) move(s ViewState, d Direction) (ViewState, error) {
	b, err := n.reg.lookup(s.granularity)
	if err != nil {
		return ViewState{}, err
	}
	return n.State(s.granularity, b.step(s.referenceDate, d))
}

// SetGranularity switches s to g and re-anchors the reference date.
//
// Zooming in lands on the first unit of the window being shown, so a Yearly
// view of 2024 becomes January 2024. Zooming out, or switching to the same
// granularity, selects the unit enclosing the reference date. Switching to
// All keeps the reference date untouched so leaving All returns to the
// same place.
func (n *Navigator) SetGranularity(s ViewState, g Granularity) (ViewState, error) {
	from, err := n.reg.lookup(s.granularity)
	if err != nil {
		return ViewState{}, err
	}
	to, err := n.reg.lookup(g)
	if err != nil {
		return ViewState{}, err
	}

	ref := s.referenceDate
	switch {
	case g == All:
	case g.span() < s.granularity.span() && s.granularity != All:
		ref = to.anchor(from.anchor(ref))
	default:
		ref = to.anchor(ref)
	}
	return n.State(g, ref)
}

// Jump keeps the granularity and moves the reference date to t.
func (n *Navigator) Jump(s ViewState, t time.Time) (ViewState, error) {
	return n.State(s.granularity, t)
}

// Today jumps to the clock's current time.
func (n *Navigator) Today(s ViewState) (ViewState, error) {
	return n.Jump(s, n.Now())
}

// Window returns the half-open interval [start, end) displayed by s.
// bounded is false for All, whose window covers every event.
func (n *Navigator) Window(s ViewState) (start, end time.Time, bounded bool, err error) {
	b, err := n.reg.lookup(s.granularity)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if !b.bounded {
		return time.Time{}, time.Time{}, false, nil
	}
	start = b.anchor(s.referenceDate)
	return start, b.step(start, Forward), true, nil
}
