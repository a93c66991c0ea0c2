package calendar

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidGranularity is returned whenever a value outside the closed
// Granularity set reaches the registry. It signals a programming error.
var ErrInvalidGranularity = errors.New("calendar: invalid granularity")

// Granularity is the unit of time a calendar view displays.
type Granularity int

const (
	Yearly Granularity = iota
	Monthly
	Weekly
	Daily
	All
)

var granularityNames = map[Granularity]string{
	Yearly:  "Yearly",
	Monthly: "Monthly",
	Weekly:  "Weekly",
	Daily:   "Daily",
	All:     "All",
}

// Granularities lists every valid granularity in toolbar order.
func Granularities() []Granularity {
	return []Granularity{Yearly, Monthly, Weekly, Daily, All}
}

func (g Granularity) String() string {
	if name, ok := granularityNames[g]; ok {
		return name
	}
	return fmt.Sprintf("Granularity(%d)", int(g))
}

// Valid reports whether g belongs to the closed set.
func (g Granularity) Valid() bool {
	_, ok := granularityNames[g]
	return ok
}

// ParseGranularity accepts the names returned by String, case-insensitively.
func ParseGranularity(s string) (Granularity, error) {
	s = strings.TrimSpace(s)
	for g, name := range granularityNames {
		if strings.EqualFold(s, name) {
			return g, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
}

// MarshalText encodes g by name so JSON and YAML carry "Monthly" rather than
// an integer.
func (g Granularity) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGranularity, int(g))
	}
	return []byte(g.String()), nil
}

func (g *Granularity) UnmarshalText(b []byte) error {
	parsed, err := ParseGranularity(string(b))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// span orders granularities by the length of the window they display;
// a smaller span is finer.
func (g Granularity) span() int {
	switch g {
	case Daily:
		return 0
	case Weekly:
		return 1
	case Monthly:
		return 2
	case Yearly:
		return 3
	default:
		return 4
	}
}

// Direction selects which way a step moves.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// sign turns a direction into a multiplier for calendar arithmetic.
func (d Direction) sign() int {
	if d == Backward {
		return -1
	}
	return 1
}
