// Package tui implements the interactive week view: a Sunday-to-Saturday
// completion grid with keyboard navigation, space-to-toggle marking, and a
// debounced city search overlay.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/salahtrack/salahtrack/internal/calendar"
	"github.com/salahtrack/salahtrack/internal/config"
	"github.com/salahtrack/salahtrack/internal/geo"
	"github.com/salahtrack/salahtrack/internal/prayer"
	"github.com/salahtrack/salahtrack/internal/records"
	"github.com/salahtrack/salahtrack/internal/search"
	"github.com/salahtrack/salahtrack/internal/store"
)

var (
	styleHeader   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	styleToday    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	styleCursor   = lipgloss.NewStyle().Reverse(true)
	styleDone     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleDim      = lipgloss.NewStyle().Faint(true)
	styleError    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleOverlay  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	styleSelected = lipgloss.NewStyle().Reverse(true)
)

// Messages delivered back into Update from async commands.
type (
	weekMsg struct {
		window calendar.Window
		err    error
	}
	toggleMsg struct {
		date string
		name prayer.Name
		err  error
	}
	searchMsg struct {
		snap search.Snapshot[geo.Place]
	}
)

// Model is the bubbletea model for the week grid.
type Model struct {
	store    *store.Store
	nav      *calendar.Navigator
	searcher *search.Debouncer[geo.Place]
	events   chan search.Snapshot[geo.Place]

	window    calendar.Window
	dayIdx    int // 0-6 column cursor
	prayerIdx int // 0-4 row cursor

	searching   bool
	input       textinput.Model
	results     []geo.Place
	resultIdx   int
	searchState search.State
	searchErr   error

	status string
	err    error
	now    func() time.Time
	width  int
}

// Option configures a Model.
type Option func(*Model)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// New creates the week-view model. The search events channel carries
// debouncer snapshots into the bubbletea loop.
func New(st *store.Store, nav *calendar.Navigator, searcher *search.Debouncer[geo.Place], events chan search.Snapshot[geo.Place], opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "city name"
	ti.CharLimit = 64

	m := Model{
		store:    st,
		nav:      nav,
		searcher: searcher,
		events:   events,
		input:    ti,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.window = nav.Window()
	m.dayIdx = dayIndex(m.window, m.now())
	return m
}

// Init loads the current week and starts listening for search events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.selectWeek(func(ctx context.Context) (calendar.Window, error) {
		return m.nav.Today(ctx)
	}), m.waitForSearch())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case weekMsg:
		m.window = msg.window
		m.err = msg.err
		if m.window.Contains(m.now()) {
			m.dayIdx = dayIndex(m.window, m.now())
		}
		return m, nil

	case toggleMsg:
		if msg.err != nil {
			m.status = ""
			m.err = msg.err
		} else {
			m.err = nil
		}
		return m, nil

	case searchMsg:
		m.searchState = msg.snap.State
		m.searchErr = msg.snap.Err
		// Superseded events carry stale results; the visible list only
		// tracks the latest query.
		if msg.snap.State != search.Superseded {
			m.results = msg.snap.Results
			if m.resultIdx >= len(m.results) {
				m.resultIdx = 0
			}
		}
		return m, m.waitForSearch()

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateGrid(msg)
	}

	return m, nil
}

// updateGrid handles keys in the main grid view.
func (m Model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "h", "pgup":
		return m, m.selectWeek(m.nav.PrevWeek)
	case "l", "pgdown":
		return m, m.selectWeek(m.nav.NextWeek)
	case "t":
		return m, m.selectWeek(m.nav.Today)

	case "left":
		if m.dayIdx > 0 {
			m.dayIdx--
		}
	case "right":
		if m.dayIdx < 6 {
			m.dayIdx++
		}
	case "up", "k":
		if m.prayerIdx > 0 {
			m.prayerIdx--
		}
	case "down", "j":
		if m.prayerIdx < len(prayer.Names)-1 {
			m.prayerIdx++
		}

	case " ", "enter":
		return m, m.toggleSelected()

	case "/":
		m.searching = true
		m.results = nil
		m.resultIdx = 0
		m.searchErr = nil
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

// updateSearch handles keys while the search overlay is open.
func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.searcher.Reset()
		return m, nil

	case "up":
		if m.resultIdx > 0 {
			m.resultIdx--
		}
		return m, nil
	case "down":
		if m.resultIdx < len(m.results)-1 {
			m.resultIdx++
		}
		return m, nil

	case "enter":
		if m.searchState == search.Resolved && len(m.results) > 0 {
			chosen := m.results[m.resultIdx]
			m.searching = false
			m.searcher.Reset()
			m.status = "Location set to " + chosen.Label()
			return m, saveLocation(chosen)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.searcher.SetQuery(m.input.Value())
	return m, cmd
}

// selectWeek wraps a navigator transition into a tea command.
func (m Model) selectWeek(transition func(context.Context) (calendar.Window, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		w, err := transition(ctx)
		return weekMsg{window: w, err: err}
	}
}

// toggleSelected flips the cursor cell. The store applies the change
// optimistically; errors surface on the returned message.
func (m Model) toggleSelected() tea.Cmd {
	date := prayer.DateOf(m.window.Days[m.dayIdx])
	name := prayer.Names[m.prayerIdx]
	completed := m.store.Completed(date, name)

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_, err := m.store.Toggle(ctx, date, name, completed, nil)
		return toggleMsg{date: date, name: name, err: err}
	}
}

// waitForSearch blocks on the debouncer's event channel.
func (m Model) waitForSearch() tea.Cmd {
	return func() tea.Msg {
		return searchMsg{snap: <-m.events}
	}
}

// saveLocation persists a chosen place to the config file.
func saveLocation(p geo.Place) tea.Cmd {
	return func() tea.Msg {
		cfg, err := config.Load()
		if err != nil {
			return toggleMsg{err: err}
		}
		cfg.City = p.City
		cfg.Country = p.Country
		cfg.Latitude = p.Lat
		cfg.Longitude = p.Lon
		if err := cfg.Save(); err != nil {
			return toggleMsg{err: err}
		}
		return nil
	}
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString("\n  ")
	sb.WriteString(styleHeader.Render("Week of " + m.window.Start()))
	sb.WriteString("\n\n")
	sb.WriteString(m.viewGrid())
	sb.WriteString("\n")

	if m.searching {
		sb.WriteString(m.viewSearch())
		sb.WriteString("\n")
	}

	switch {
	case m.err != nil:
		sb.WriteString("  " + styleError.Render(friendlyError(m.err)) + "\n")
	case m.status != "":
		sb.WriteString("  " + styleDim.Render(m.status) + "\n")
	}

	sb.WriteString("  " + styleDim.Render("h/l week · arrows move · space toggle · / search · t today · q quit") + "\n")
	return sb.String()
}

// viewGrid renders the prayer-by-day completion grid.
func (m Model) viewGrid() string {
	var sb strings.Builder
	now := m.now()
	today := prayer.DateOf(now)

	// Header row of day labels.
	sb.WriteString(fmt.Sprintf("  %-8s", ""))
	for _, d := range m.window.Days {
		label := d.Format("Mon 02")
		if prayer.DateOf(d) == today {
			label = styleToday.Render(label)
		}
		sb.WriteString(fmt.Sprintf(" %-7s", label))
	}
	sb.WriteString("\n")

	for pi, name := range prayer.Names {
		sb.WriteString(fmt.Sprintf("  %-8s", name))
		for di, d := range m.window.Days {
			date := prayer.DateOf(d)
			cell := "·"
			if m.store.Completed(date, name) {
				cell = styleDone.Render("✓")
			} else if d.After(now) {
				cell = " "
			}
			if pi == m.prayerIdx && di == m.dayIdx {
				cell = styleCursor.Render(cell)
			}
			sb.WriteString(fmt.Sprintf(" %-7s", cell))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// viewSearch renders the city search overlay.
func (m Model) viewSearch() string {
	var sb strings.Builder
	sb.WriteString("Search: " + m.input.View() + "\n")

	switch m.searchState {
	case search.Pending:
		sb.WriteString(styleDim.Render("searching...") + "\n")
	case search.Failed:
		sb.WriteString(styleError.Render(fmt.Sprintf("lookup failed: %v", m.searchErr)) + "\n")
	case search.Resolved:
		if len(m.results) == 0 {
			sb.WriteString(styleDim.Render("no matches") + "\n")
		}
		for i, p := range m.results {
			line := p.Label()
			if i == m.resultIdx {
				line = styleSelected.Render(line)
			}
			sb.WriteString(line + "\n")
		}
	}

	return styleOverlay.Render(sb.String())
}

// friendlyError maps service sentinels to short grid-footer messages.
func friendlyError(err error) string {
	switch {
	case errors.Is(err, records.ErrAuthRequired):
		return "sign in with `salahtrack login` to sync records"
	case errors.Is(err, store.ErrConcurrentMutation):
		return "update still in flight, try again"
	case errors.Is(err, store.ErrFutureDate):
		return "future dates cannot be logged"
	case errors.Is(err, records.ErrNetwork):
		return "records service unreachable"
	default:
		return err.Error()
	}
}

// dayIndex returns the column for the given time, or 0 when the window
// does not contain it.
func dayIndex(w calendar.Window, t time.Time) int {
	date := prayer.DateOf(t)
	for i, d := range w.Days {
		if prayer.DateOf(d) == date {
			return i
		}
	}
	return 0
}
