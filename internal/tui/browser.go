// Package tui is the interactive session browser.
package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"stacli/internal/storage"
	"stacli/internal/textutil"
	"stacli/internal/tui/components"
	"stacli/internal/tui/theme"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type FocusPanel int

const (
	FocusList FocusPanel = iota
	FocusDetails
)

// Source provides the stored sessions the browser displays.
// *storage.SessionStore satisfies it.
type Source interface {
	ListSessions(limit int) ([]storage.SessionRecord, error)
	ListIterations(sessionID string) ([]storage.IterationRecord, error)
}

const sessionLimit = 200

type sessionItem struct {
	storage.SessionRecord
}

func (i sessionItem) Title() string       { return i.Design }
func (i sessionItem) Description() string { return i.Status }
func (i sessionItem) FilterValue() string { return i.Design }

type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(sessionItem)
	if !ok {
		return
	}

	glyph := theme.ForStatus(i.Status).Render(theme.StatusGlyph(i.Status))

	maxWidth := m.Width() - 12
	if maxWidth < 10 {
		maxWidth = 10
	}
	name := textutil.TruncateWithEllipsis(i.Design, maxWidth)

	when := theme.Dim.Render(i.StartedAt.Format("Jan 02 15:04"))
	textStyle := lipgloss.NewStyle().Foreground(theme.Text)
	line := fmt.Sprintf(" %s %s %s", glyph, textStyle.Render(name), when)

	if index == m.Index() {
		line = theme.Selection.Width(m.Width()).Render(line)
	}

	fmt.Fprint(w, line)
}

// Model is the two-pane session browser.
type Model struct {
	width  int
	height int
	focus  FocusPanel

	list     list.Model
	viewport viewport.Model

	sessions   []storage.SessionRecord
	iterations map[string][]storage.IterationRecord

	source    Source
	statusBar components.StatusBar

	loadErr  error
	quitting bool
}

func NewBrowser(source Source) Model {
	l := list.New([]list.Item{}, itemDelegate{}, 0, 0)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.NoItems = theme.Dim.Padding(1)

	return Model{
		focus:      FocusList,
		list:       l,
		viewport:   viewport.New(0, 0),
		iterations: make(map[string][]storage.IterationRecord),
		source:     source,
		statusBar:  components.NewStatusBar(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.loadSessions
}

func (m Model) loadSessions() tea.Msg {
	sessions, err := m.source.ListSessions(sessionLimit)
	return sessionsLoadedMsg{sessions: sessions, err: err}
}

func (m Model) loadIterations(sessionID string) tea.Cmd {
	return func() tea.Msg {
		iters, err := m.source.ListIterations(sessionID)
		return iterationsLoadedMsg{sessionID: sessionID, iterations: iters, err: err}
	}
}

func (m Model) SetSize(w, h int) Model {
	m.width = w
	m.height = h

	sidebarWidth, detailsWidth, panelHeight := m.layout()

	m.list.SetWidth(sidebarWidth - 2)
	m.list.SetHeight(panelHeight - 2)
	m.viewport.Width = detailsWidth - 4
	m.viewport.Height = panelHeight - 2

	m.setDetailsContent()
	return m
}

func (m Model) layout() (sidebarWidth, detailsWidth, panelHeight int) {
	sidebarWidth = 44
	if m.width < 110 {
		sidebarWidth = m.width * 2 / 5
	}
	if sidebarWidth < 28 {
		sidebarWidth = 28
	}

	detailsWidth = m.width - sidebarWidth - 4
	if detailsWidth < 30 {
		detailsWidth = 30
	}

	panelHeight = m.height - 4
	if panelHeight < 10 {
		panelHeight = 10
	}
	return sidebarWidth, detailsWidth, panelHeight
}

func (m Model) selected() *storage.SessionRecord {
	if sel := m.list.SelectedItem(); sel != nil {
		if item, ok := sel.(sessionItem); ok {
			rec := item.SessionRecord
			return &rec
		}
	}
	return nil
}

// setDetailsContent fills the viewport from cached data. refreshDetails
// returns the load command when the selection has no cached iterations yet.
func (m *Model) setDetailsContent() {
	rec := m.selected()
	if rec == nil {
		m.viewport.SetContent(theme.Dim.Padding(2).Render("No sessions recorded yet.\nRun `stacli fix` to start one."))
		return
	}

	iters, ok := m.iterations[rec.ID]
	if !ok {
		m.viewport.SetContent(theme.Dim.Padding(1).Render("Loading..."))
		return
	}
	m.viewport.SetContent(m.formatDetails(*rec, iters))
	m.viewport.GotoTop()
}

func (m *Model) refreshDetails() tea.Cmd {
	m.setDetailsContent()
	if rec := m.selected(); rec != nil {
		if _, ok := m.iterations[rec.ID]; !ok {
			return m.loadIterations(rec.ID)
		}
	}
	return nil
}

func (m Model) formatDetails(rec storage.SessionRecord, iters []storage.IterationRecord) string {
	labelStyle := theme.Dim.Bold(true).Width(12)
	valueStyle := lipgloss.NewStyle().Foreground(theme.Text)

	var b strings.Builder

	b.WriteString(labelStyle.Render("Design"))
	b.WriteString(valueStyle.Render(rec.Design) + "\n")

	statusLine := theme.ForStatus(rec.Status).Render(theme.StatusGlyph(rec.Status) + " " + rec.Status)
	if rec.AbortReason != "" {
		statusLine += theme.Dim.Render(" (" + rec.AbortReason + ")")
	}
	b.WriteString(labelStyle.Render("Status"))
	b.WriteString(statusLine + "\n")

	b.WriteString(labelStyle.Render("Started"))
	b.WriteString(valueStyle.Render(rec.StartedAt.Format(time.RFC822)) + "\n")

	b.WriteString(labelStyle.Render("Duration"))
	b.WriteString(valueStyle.Render(formatDuration(rec)) + "\n")

	b.WriteString(labelStyle.Render("Iterations"))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d of %d", rec.Iterations, rec.Budget)) + "\n")

	b.WriteString(labelStyle.Render("Setup slack"))
	b.WriteString(theme.ForSlack(rec.SetupSlack).Render(formatSlack(rec.SetupSlack)) + "\n")

	b.WriteString(labelStyle.Render("Hold slack"))
	b.WriteString(theme.ForSlack(rec.HoldSlack).Render(formatSlack(rec.HoldSlack)) + "\n")

	if len(iters) > 0 {
		b.WriteString("\n")
		b.WriteString(theme.Header.Render("Iterations") + "\n")
		b.WriteString(m.formatIterationTable(iters))
	}

	if rec.BestChanges != "" {
		b.WriteString("\n")
		b.WriteString(theme.Header.Render("Best fix") + "\n")
		b.WriteString(valueStyle.Render(textutil.WrapText(rec.BestChanges, m.viewport.Width-2)))
	}

	return b.String()
}

func (m Model) formatIterationTable(iters []storage.IterationRecord) string {
	header := theme.Dim.Render(
		textutil.PadRight("  #", 5) + textutil.PadRight("SETUP", 11) + textutil.PadRight("HOLD", 11) + "FIX")

	rows := []string{header}
	for _, it := range iters {
		num := textutil.PadRight(fmt.Sprintf(" %2d", it.Iteration), 5)
		setup := textutil.PadRight(theme.ForSlack(it.SetupSlack).Render(formatSlack(it.SetupSlack)), 11)
		hold := textutil.PadRight(theme.ForSlack(it.HoldSlack).Render(formatSlack(it.HoldSlack)), 11)

		fixWidth := m.viewport.Width - 28
		if fixWidth < 8 {
			fixWidth = 8
		}
		fix := theme.Dim.Render(textutil.TruncateWithEllipsis(it.Changes, fixWidth))

		rows = append(rows, num+setup+hold+fix)
	}
	return strings.Join(rows, "\n") + "\n"
}

func formatSlack(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatDuration(rec storage.SessionRecord) string {
	if rec.CompletedAt.IsZero() {
		return "in progress"
	}
	d := rec.CompletedAt.Sub(rec.StartedAt).Round(time.Second)
	if d < 0 {
		d = 0
	}
	return d.String()
}

func (m Model) Focus() FocusPanel { return m.focus }

func (m Model) Sessions() []storage.SessionRecord { return m.sessions }

func (m Model) SessionCount() int { return len(m.sessions) }
