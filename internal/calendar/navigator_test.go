package calendar

import (
	"errors"
	"math/rand"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func utcNavigator(now time.Time, opts ...Option) *Navigator {
	base := []Option{WithClock(fixedClock(now)), WithLocation(time.UTC)}
	return NewNavigator(append(base, opts...)...)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustState(t *testing.T, n *Navigator, g Granularity, ref time.Time) ViewState {
	t.Helper()
	s, err := n.State(g, ref)
	require.NoError(t, err)
	return s
}

func TestInitialUsesInjectedClock(t *testing.T) {
	now := time.Date(2024, time.June, 15, 9, 30, 0, 0, time.UTC)
	n := utcNavigator(now)

	s := n.Initial()

	assert.Equal(t, Yearly, s.Granularity())
	assert.True(t, s.ReferenceDate().Equal(now))
	assert.Equal(t, "2024", s.Title())
}

func TestTitles(t *testing.T) {
	n := utcNavigator(time.Now())
	ref := time.Date(2024, time.March, 4, 15, 0, 0, 0, time.UTC) // a Monday

	cases := []struct {
		g    Granularity
		want string
	}{
		{Yearly, "2024"},
		{Monthly, "March 2024"},
		{Weekly, "Mar 4 - Mar 10, 2024"},
		{Daily, "Monday, March 4, 2024"},
		{All, "All"},
	}
	for _, tc := range cases {
		t.Run(tc.g.String(), func(t *testing.T) {
			got, err := n.Title(tc.g, ref)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestWeeklyTitleAcrossYearsAndWeekStart(t *testing.T) {
	n := utcNavigator(time.Now())
	got, err := n.Title(Weekly, date(2025, time.January, 2))
	require.NoError(t, err)
	assert.Equal(t, "Dec 30, 2024 - Jan 5, 2025", got)

	sunday := utcNavigator(time.Now(), WithWeekStart(time.Sunday))
	got, err = sunday.Title(Weekly, date(2024, time.March, 4))
	require.NoError(t, err)
	assert.Equal(t, "Mar 3 - Mar 9, 2024", got)
}

func TestYearlyAdvanceThenRetreat(t *testing.T) {
	n := utcNavigator(date(2024, time.January, 1))
	s := n.Initial()

	next, err := n.Advance(s)
	require.NoError(t, err)
	assert.Equal(t, 2025, next.ReferenceDate().Year())
	assert.Equal(t, "2025", next.Title())

	back, err := n.Retreat(next)
	require.NoError(t, err)
	assert.Equal(t, 2024, back.ReferenceDate().Year())
	assert.Equal(t, "", cmp.Diff(s, back))
}

func TestMonthlyAdvanceIsMonthLengthAware(t *testing.T) {
	n := utcNavigator(time.Now())
	s := mustState(t, n, Monthly, date(2024, time.January, 31))

	next, err := n.Advance(s)
	require.NoError(t, err)

	assert.Equal(t, time.February, next.ReferenceDate().Month())
	assert.Equal(t, 29, next.ReferenceDate().Day())
	assert.Equal(t, "February 2024", next.Title())
}

func TestYearlyStepFromLeapDay(t *testing.T) {
	n := utcNavigator(time.Now())
	leap := date(2024, time.February, 29)

	fwd, err := n.Step(Yearly, leap, Forward)
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.February, 28), fwd)

	back, err := n.Step(Yearly, fwd, Backward)
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.February, 28), back, "leap day does not survive a round trip")

	fourYears := leap
	for i := 0; i < 4; i++ {
		fourYears, err = n.Step(Yearly, fourYears, Forward)
		require.NoError(t, err)
	}
	assert.Equal(t, date(2028, time.February, 28), fourYears)
}

// roundTripBreaks enumerates the calendar irregularities where stepping
// forward then backward does not return to the starting date in UTC.
func roundTripBreaks(g Granularity, d time.Time) bool {
	switch g {
	case Monthly:
		next := time.Date(d.Year(), d.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		return d.Day() > daysIn(next.Year(), next.Month())
	case Yearly:
		return d.Month() == time.February && d.Day() == 29
	default:
		return false
	}
}

func TestStepRoundTrip(t *testing.T) {
	n := utcNavigator(time.Now())
	start := time.Date(2023, time.January, 1, 10, 30, 0, 0, time.UTC)
	end := date(2025, time.January, 1)

	for _, g := range Granularities() {
		t.Run(g.String(), func(t *testing.T) {
			breaks := 0
			for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
				fwd, err := n.Step(g, d, Forward)
				require.NoError(t, err)
				back, err := n.Step(g, fwd, Backward)
				require.NoError(t, err)

				if roundTripBreaks(g, d) {
					breaks++
					assert.Falsef(t, back.Equal(d), "expected %s to break the round trip for %s", d, g)
					continue
				}
				assert.Truef(t, back.Equal(d), "%s: %s -> %s -> %s", g, d, fwd, back)
			}
			switch g {
			case Monthly:
				// Per year: Jan 29-31, Mar 31, May 31, Aug 31, Oct 31; 2024 keeps Jan 29.
				assert.Equal(t, 7+6, breaks)
			case Yearly:
				assert.Equal(t, 1, breaks)
			default:
				assert.Zero(t, breaks)
			}
		})
	}
}

func TestDailyStepAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	n := NewNavigator(WithLocation(ny))

	noon := time.Date(2024, time.March, 9, 12, 0, 0, 0, ny)
	fwd, err := n.Step(Daily, noon, Forward)
	require.NoError(t, err)
	assert.Equal(t, 12, fwd.Hour(), "wall clock is kept across spring forward")
	assert.Equal(t, 23*time.Hour, fwd.Sub(noon))
	back, err := n.Step(Daily, fwd, Backward)
	require.NoError(t, err)
	assert.True(t, back.Equal(noon))

	// 02:30 does not exist on 2024-03-10 in New York.
	gap := time.Date(2024, time.March, 9, 2, 30, 0, 0, ny)
	fwd, err = n.Step(Daily, gap, Forward)
	require.NoError(t, err)
	back, err = n.Step(Daily, fwd, Backward)
	require.NoError(t, err)
	assert.False(t, back.Equal(gap))
}

func TestSetGranularity(t *testing.T) {
	n := utcNavigator(time.Now())

	cases := []struct {
		name    string
		from    Granularity
		ref     time.Time
		to      Granularity
		wantRef time.Time
		title   string
	}{
		{"yearly to monthly starts in january", Yearly, time.Date(2024, time.June, 15, 9, 0, 0, 0, time.UTC), Monthly, date(2024, time.January, 1), "January 2024"},
		{"daily to monthly keeps month", Daily, time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC), Monthly, date(2024, time.March, 1), "March 2024"},
		{"daily to yearly keeps year", Daily, date(2024, time.March, 10), Yearly, date(2024, time.January, 1), "2024"},
		{"monthly to daily starts on the first", Monthly, date(2024, time.March, 20), Daily, date(2024, time.March, 1), "Friday, March 1, 2024"},
		{"monthly to weekly takes week of the first", Monthly, date(2024, time.March, 20), Weekly, date(2024, time.February, 26), "Feb 26 - Mar 3, 2024"},
		{"daily to weekly encloses day", Daily, date(2024, time.March, 20), Weekly, date(2024, time.March, 18), "Mar 18 - Mar 24, 2024"},
		{"same granularity re-anchors", Monthly, date(2024, time.March, 20), Monthly, date(2024, time.March, 1), "March 2024"},
		{"all to daily encloses day", All, time.Date(2024, time.March, 20, 17, 0, 0, 0, time.UTC), Daily, date(2024, time.March, 20), "Wednesday, March 20, 2024"},
		{"to all keeps reference", Daily, time.Date(2024, time.March, 20, 17, 0, 0, 0, time.UTC), All, time.Date(2024, time.March, 20, 17, 0, 0, 0, time.UTC), "All"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := mustState(t, n, tc.from, tc.ref)
			got, err := n.SetGranularity(s, tc.to)
			require.NoError(t, err)
			assert.Equal(t, tc.to, got.Granularity())
			assert.Truef(t, got.ReferenceDate().Equal(tc.wantRef), "got %s want %s", got.ReferenceDate(), tc.wantRef)
			assert.Equal(t, tc.title, got.Title())
		})
	}
}

func TestAllIsStationary(t *testing.T) {
	n := utcNavigator(time.Now())
	s := mustState(t, n, All, date(2024, time.May, 5))

	next, err := n.Advance(s)
	require.NoError(t, err)
	assert.True(t, next.Equal(s))

	_, _, bounded, err := n.Window(s)
	require.NoError(t, err)
	assert.False(t, bounded)
}

func TestTitleInvariantHoldsAfterEveryTransition(t *testing.T) {
	n := utcNavigator(date(2024, time.January, 1))
	rnd := rand.New(rand.NewSource(7))
	s := n.Initial()
	all := Granularities()

	for i := 0; i < 500; i++ {
		var err error
		switch rnd.Intn(4) {
		case 0:
			s, err = n.Advance(s)
		case 1:
			s, err = n.Retreat(s)
		case 2:
			s, err = n.SetGranularity(s, all[rnd.Intn(len(all))])
		case 3:
			s, err = n.Today(s)
		}
		require.NoError(t, err)

		want, err := n.Title(s.Granularity(), s.ReferenceDate())
		require.NoError(t, err)
		require.Equal(t, want, s.Title(), "step %d", i)
	}
}

func TestInvalidGranularity(t *testing.T) {
	n := utcNavigator(time.Now())
	bogus := Granularity(42)

	_, err := n.State(bogus, time.Now())
	assert.True(t, errors.Is(err, ErrInvalidGranularity))

	_, err = n.SetGranularity(n.Initial(), bogus)
	assert.ErrorIs(t, err, ErrInvalidGranularity)

	_, err = n.Step(bogus, time.Now(), Forward)
	assert.ErrorIs(t, err, ErrInvalidGranularity)

	_, err = ParseGranularity("Hourly")
	assert.ErrorIs(t, err, ErrInvalidGranularity)

	_, err = bogus.MarshalText()
	assert.ErrorIs(t, err, ErrInvalidGranularity)
}

func TestParseGranularity(t *testing.T) {
	for _, g := range Granularities() {
		got, err := ParseGranularity(" " + g.String() + " ")
		require.NoError(t, err)
		assert.Equal(t, g, got)
	}
	got, err := ParseGranularity("weekly")
	require.NoError(t, err)
	assert.Equal(t, Weekly, got)
}

func TestWindow(t *testing.T) {
	n := utcNavigator(time.Now())
	ref := time.Date(2024, time.March, 6, 14, 0, 0, 0, time.UTC)

	cases := []struct {
		g          Granularity
		start, end time.Time
	}{
		{Yearly, date(2024, time.January, 1), date(2025, time.January, 1)},
		{Monthly, date(2024, time.March, 1), date(2024, time.April, 1)},
		{Weekly, date(2024, time.March, 4), date(2024, time.March, 11)},
		{Daily, date(2024, time.March, 6), date(2024, time.March, 7)},
	}
	for _, tc := range cases {
		s := mustState(t, n, tc.g, ref)
		start, end, bounded, err := n.Window(s)
		require.NoError(t, err)
		assert.True(t, bounded)
		assert.Equal(t, tc.start, start, tc.g.String())
		assert.Equal(t, tc.end, end, tc.g.String())
	}
}

func TestJumpKeepsGranularity(t *testing.T) {
	now := date(2026, time.October, 15)
	n := utcNavigator(now)
	s := mustState(t, n, Monthly, date(2024, time.March, 6))

	got, err := n.Today(s)
	require.NoError(t, err)
	assert.Equal(t, Monthly, got.Granularity())
	assert.Equal(t, "October 2026", got.Title())
}

func TestViewStateJSON(t *testing.T) {
	n := utcNavigator(time.Now())
	s := mustState(t, n, Monthly, date(2024, time.March, 1))

	b, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"granularity":"Monthly","reference_date":"2024-03-01T00:00:00Z","title":"March 2024"}`, string(b))
}
