package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaletteDefaults(t *testing.T) {
	p := NewPalette(nil)

	assert.Equal(t, "#5cb85c", p.ColorFor(StatusPublished))
	assert.Equal(t, "#848478", p.ColorFor("pending approval"))
	assert.Equal(t, "#c23030", p.ColorFor("Rejected"))
	assert.Equal(t, DefaultColor, p.ColorFor("holiday"))
	assert.Equal(t, DefaultColor, p.ColorFor(""))
}

func TestPaletteOverrides(t *testing.T) {
	p := NewPalette(map[string]string{
		"holiday":   "#ff0000",
		"published": "#000000",
		"ignored":   "  ",
	})

	assert.Equal(t, "#ff0000", p.ColorFor("Holiday"))
	assert.Equal(t, "#000000", p.ColorFor(StatusPublished))
	assert.Equal(t, DefaultColor, p.ColorFor("ignored"))

	entries := p.Entries()
	assert.Len(t, entries, 7)
	assert.Equal(t, "APPROVED", entries[0].Name)
}
