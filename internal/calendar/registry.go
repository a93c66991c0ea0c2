package calendar

import (
	"fmt"
	"time"
)

// behavior is the pair of pure functions registered for one granularity,
// plus the anchor used when switching granularities.
type behavior struct {
	formatTitle func(time.Time) string
	step        func(time.Time, Direction) time.Time
	// anchor returns the start of the unit containing t.
	anchor func(time.Time) time.Time
	// bounded is false only for All, which has no window.
	bounded bool
}

type registry map[Granularity]behavior

func newRegistry(weekStart time.Weekday) registry {
	return registry{
		Yearly: {
			formatTitle: func(t time.Time) string { return fmt.Sprintf("%04d", t.Year()) },
			step:        func(t time.Time, d Direction) time.Time { return addMonthsClamped(t, 12*d.sign()) },
			anchor:      startOfYear,
			bounded:     true,
		},
		Monthly: {
			formatTitle: func(t time.Time) string { return t.Format("January 2006") },
			step:        func(t time.Time, d Direction) time.Time { return addMonthsClamped(t, d.sign()) },
			anchor:      startOfMonth,
			bounded:     true,
		},
		Weekly: {
			formatTitle: func(t time.Time) string { return weekTitle(startOfWeek(t, weekStart)) },
			step:        func(t time.Time, d Direction) time.Time { return t.AddDate(0, 0, 7*d.sign()) },
			anchor:      func(t time.Time) time.Time { return startOfWeek(t, weekStart) },
			bounded:     true,
		},
		Daily: {
			formatTitle: func(t time.Time) string { return t.Format("Monday, January 2, 2006") },
			step:        func(t time.Time, d Direction) time.Time { return t.AddDate(0, 0, d.sign()) },
			anchor:      startOfDay,
			bounded:     true,
		},
		All: {
			formatTitle: func(time.Time) string { return "All" },
			step:        func(t time.Time, _ Direction) time.Time { return t },
			anchor:      func(t time.Time) time.Time { return t },
		},
	}
}

func (r registry) lookup(g Granularity) (behavior, error) {
	b, ok := r[g]
	if !ok {
		return behavior{}, fmt.Errorf("%w: %d", ErrInvalidGranularity, int(g))
	}
	return b, nil
}

// addMonthsClamped moves t by n calendar months, keeping the clock time and
// clamping the day to the length of the target month, so Jan 31 + 1 month
// is the last day of February rather than a day in March.
func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func startOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

func startOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	offset := (int(t.Weekday()) - int(weekStart) + 7) % 7
	return startOfDay(t).AddDate(0, 0, -offset)
}

func weekTitle(start time.Time) string {
	end := start.AddDate(0, 0, 6)
	if start.Year() == end.Year() {
		return start.Format("Jan 2") + " - " + end.Format("Jan 2, 2006")
	}
	return start.Format("Jan 2, 2006") + " - " + end.Format("Jan 2, 2006")
}
