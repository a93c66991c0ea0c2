package calendar

import (
	"encoding/json"
	"time"
)

// ViewState is the snapshot a calendar view renders: which granularity is
// shown, the date anchoring the window, and the title derived from both.
//
// Fields are unexported so a title can only come from the registered
// formatter; build states through a Navigator.
type ViewState struct {
	granularity   Granularity
	referenceDate time.Time
	title         string
}

func (s ViewState) Granularity() Granularity { return s.granularity }
func (s ViewState) ReferenceDate() time.Time { return s.referenceDate }
func (s ViewState) Title() string            { return s.title }

// IsZero reports whether s was never produced by a Navigator.
func (s ViewState) IsZero() bool {
	return s.title == "" && s.referenceDate.IsZero()
}

// Equal compares states by instant rather than by time.Location pointer.
func (s ViewState) Equal(o ViewState) bool {
	return s.granularity == o.granularity &&
		s.referenceDate.Equal(o.referenceDate) &&
		s.title == o.title
}

type viewStateJSON struct {
	Granularity   Granularity `json:"granularity"`
	ReferenceDate time.Time   `json:"reference_date"`
	Title         string      `json:"title"`
}

func (s ViewState) MarshalJSON() ([]byte, error) {
	return json.Marshal(viewStateJSON{
		Granularity:   s.granularity,
		ReferenceDate: s.referenceDate,
		Title:         s.title,
	})
}
