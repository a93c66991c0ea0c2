// Package tui is a terminal navigation toolbar over a calendar view: it shows
// the current title and the events of the window and maps keys to
// transitions.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"calview/internal/calendar"
	"calview/internal/view"
)

const overlayTimeout = 10 * time.Second

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).
			Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#3a87ad"))
	activeTabStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	tabStyle       = lipgloss.NewStyle().Faint(true)
	helpStyle      = lipgloss.NewStyle().Faint(true)
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#c23030"))
)

// granularityKeys binds toolbar keys to granularities.
var granularityKeys = map[string]calendar.Granularity{
	"y": calendar.Yearly,
	"m": calendar.Monthly,
	"w": calendar.Weekly,
	"d": calendar.Daily,
	"a": calendar.All,
}

// overlayMsg carries the events of the window that was current when request
// seq was issued.
type overlayMsg struct {
	seq     int
	markers []view.Marker
	err     error
}

// Model is the bubbletea model of the navigator.
type Model struct {
	ctrl    *view.Controller
	markers []view.Marker
	err     error
	loading bool
	width   int

	// seq numbers overlay requests; replies for older windows are dropped.
	seq int
}

// New wraps ctrl; the caller owns the controller's lifetime.
func New(ctrl *view.Controller) Model {
	return Model{ctrl: ctrl, loading: true}
}

// Run starts the program on the alternate screen and blocks until quit.
func Run(ctrl *view.Controller) error {
	_, err := tea.NewProgram(New(ctrl), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.loadOverlay()
}

func (m Model) loadOverlay() tea.Cmd {
	ctrl, seq := m.ctrl, m.seq
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), overlayTimeout)
		defer cancel()
		markers, err := ctrl.Overlay(ctx)
		return overlayMsg{seq: seq, markers: markers, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case overlayMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		m.markers, m.err = msg.markers, msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg.String())
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	var err error
	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "left", "h":
		_, err = m.ctrl.Retreat()
	case "right", "l":
		_, err = m.ctrl.Advance()
	case "t":
		_, err = m.ctrl.Today()
	default:
		g, ok := granularityKeys[key]
		if !ok {
			return m, nil
		}
		_, err = m.ctrl.SetGranularity(g)
	}
	if err != nil {
		m.err = err
		return m, nil
	}
	m.loading = true
	m.seq++
	return m, m.loadOverlay()
}

func (m Model) View() string {
	state := m.ctrl.State()

	var b strings.Builder
	b.WriteString(titleStyle.Render(state.Title()))
	b.WriteString("  ")
	b.WriteString(renderTabs(state.Granularity()))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	case m.loading:
		b.WriteString(helpStyle.Render("loading events..."))
		b.WriteString("\n")
	case len(m.markers) == 0:
		b.WriteString(helpStyle.Render("no events"))
		b.WriteString("\n")
	default:
		for _, mk := range m.markers {
			b.WriteString(renderMarker(mk))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("←/h prev  →/l next  t today  y/m/w/d/a granularity  q quit"))
	return b.String()
}

func renderTabs(current calendar.Granularity) string {
	tabs := make([]string, 0, len(calendar.Granularities()))
	for _, g := range calendar.Granularities() {
		if g == current {
			tabs = append(tabs, activeTabStyle.Render(g.String()))
			continue
		}
		tabs = append(tabs, tabStyle.Render(g.String()))
	}
	return strings.Join(tabs, " ")
}

func renderMarker(mk view.Marker) string {
	ev := mk.Event
	bullet := lipgloss.NewStyle().Foreground(lipgloss.Color(mk.Color)).Render("●")

	var when string
	switch {
	case ev.AllDay:
		when = ev.Start.Format("Mon Jan 2") + "  all day"
	case ev.ZeroWidth():
		when = ev.Start.Format("Mon Jan 2 15:04")
	default:
		when = fmt.Sprintf("%s-%s", ev.Start.Format("Mon Jan 2 15:04"), ev.End.Format("15:04"))
	}
	line := fmt.Sprintf("%s %-24s %s", bullet, when, ev.Title)
	if ev.Location != "" {
		line += helpStyle.Render(" @" + ev.Location)
	}
	return line
}
