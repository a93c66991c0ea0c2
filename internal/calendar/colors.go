package calendar

import (
	"sort"
	"strings"
)

// DefaultColor is used for event names missing from the palette.
const DefaultColor = "#3a87ad"

// Event status names with a fixed color.
const (
	StatusDraft           = "DRAFT"
	StatusPendingApproval = "PENDING_APPROVAL"
	StatusApproved        = "APPROVED"
	StatusPublished       = "PUBLISHED"
	StatusCancelled       = "CANCELLED"
	StatusRejected        = "REJECTED"
)

var defaultColors = map[string]string{
	StatusDraft:           "#bdbdaf",
	StatusPendingApproval: "#848478",
	StatusApproved:        "#75eb75",
	StatusPublished:       "#5cb85c",
	StatusCancelled:       "#ec971f",
	StatusRejected:        "#c23030",
}

// Palette maps event names to display colors. Keys are stored upper-case.
type Palette struct {
	colors   map[string]string
	fallback string
}

// NewPalette returns the default palette with overrides applied on top.
func NewPalette(overrides map[string]string) *Palette {
	p := &Palette{
		colors:   make(map[string]string, len(defaultColors)+len(overrides)),
		fallback: DefaultColor,
	}
	for k, v := range defaultColors {
		p.colors[k] = v
	}
	for k, v := range overrides {
		if strings.TrimSpace(v) == "" {
			continue
		}
		p.colors[normalizeName(k)] = v
	}
	return p
}

// ColorFor looks name up case-insensitively; spaces and dashes match
// underscores, so "Pending approval" finds PENDING_APPROVAL.
func (p *Palette) ColorFor(name string) string {
	if c, ok := p.colors[normalizeName(name)]; ok {
		return c
	}
	return p.fallback
}

// Entries returns a copy of the palette sorted by name.
func (p *Palette) Entries() []PaletteEntry {
	out := make([]PaletteEntry, 0, len(p.colors))
	for k, v := range p.colors {
		out = append(out, PaletteEntry{Name: k, Color: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PaletteEntry is one name/color pair.
type PaletteEntry struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func normalizeName(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
