package tui

import (
	"strings"
	"testing"
	"time"

	"stacli/internal/storage"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeSource struct {
	sessions   []storage.SessionRecord
	iterations map[string][]storage.IterationRecord
	listErr    error
}

func (f *fakeSource) ListSessions(limit int) ([]storage.SessionRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit < len(f.sessions) {
		return f.sessions[:limit], nil
	}
	return f.sessions, nil
}

func (f *fakeSource) ListIterations(sessionID string) ([]storage.IterationRecord, error) {
	return f.iterations[sessionID], nil
}

func slackPtr(v float64) *float64 { return &v }

func testSource() *fakeSource {
	now := time.Now()
	return &fakeSource{
		sessions: []storage.SessionRecord{
			{
				ID: "s1", Design: "counter", Status: "converged",
				Budget: 3, Iterations: 2,
				SetupSlack: slackPtr(0.20),
				StartedAt:  now.Add(-time.Hour), CompletedAt: now.Add(-time.Hour + 2*time.Minute),
				BestChanges: "Changed u1 from AND2_X1 to AND2_X2",
			},
			{
				ID: "s2", Design: "alu", Status: "aborted", AbortReason: "sta_failed",
				Budget: 3, Iterations: 1,
				StartedAt: now.Add(-2 * time.Hour), CompletedAt: now.Add(-2*time.Hour + time.Minute),
			},
		},
		iterations: map[string][]storage.IterationRecord{
			"s1": {
				{SessionID: "s1", Iteration: 1, SetupSlack: slackPtr(-0.50), HasViolations: true, Changes: "Changed u1 from AND2_X1 to AND2_X2"},
				{SessionID: "s1", Iteration: 2, SetupSlack: slackPtr(0.20)},
			},
		},
	}
}

// drive pumps a model message through Update, keeping the concrete type.
func drive(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return model, cmd
}

func loadedBrowser(t *testing.T) Model {
	t.Helper()
	src := testSource()
	m := NewBrowser(src)
	m, _ = drive(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	msg := m.Init()()
	loaded, ok := msg.(sessionsLoadedMsg)
	if !ok {
		t.Fatalf("Init produced %T, want sessionsLoadedMsg", msg)
	}
	m, _ = drive(t, m, loaded)
	return m
}

func TestNewBrowserDefaults(t *testing.T) {
	m := NewBrowser(testSource())

	if m.focus != FocusList {
		t.Errorf("expected FocusList initially, got %v", m.focus)
	}
	if m.quitting {
		t.Error("quitting should be false initially")
	}
	if m.SessionCount() != 0 {
		t.Errorf("expected no sessions before load, got %d", m.SessionCount())
	}
}

func TestBrowserLoadsSessions(t *testing.T) {
	m := loadedBrowser(t)

	if m.SessionCount() != 2 {
		t.Fatalf("expected 2 sessions, got %d", m.SessionCount())
	}
	sel := m.selected()
	if sel == nil || sel.ID != "s1" {
		t.Errorf("expected first session selected, got %+v", sel)
	}
}

func TestBrowserFocusToggle(t *testing.T) {
	m := loadedBrowser(t)

	tabMsg := tea.KeyMsg{Type: tea.KeyTab}
	m, _ = drive(t, m, tabMsg)
	if m.focus != FocusDetails {
		t.Errorf("expected FocusDetails after tab, got %v", m.focus)
	}

	m, _ = drive(t, m, tabMsg)
	if m.focus != FocusList {
		t.Errorf("expected FocusList after second tab, got %v", m.focus)
	}
}

func TestBrowserQuit(t *testing.T) {
	m := loadedBrowser(t)

	m, cmd := drive(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !m.quitting {
		t.Error("quitting should be true after q")
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
	if m.View() != "" {
		t.Error("view should be empty while quitting")
	}
}

func TestBrowserWindowResize(t *testing.T) {
	m := NewBrowser(testSource())

	m, _ = drive(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	if m.width != 100 || m.height != 30 {
		t.Errorf("expected 100x30, got %dx%d", m.width, m.height)
	}
}

func TestBrowserSelectionRequestsIterations(t *testing.T) {
	m := loadedBrowser(t)

	cmd := m.refreshDetails()
	if cmd == nil {
		t.Fatal("expected a load command for uncached iterations")
	}

	msg := cmd()
	iterMsg, ok := msg.(iterationsLoadedMsg)
	if !ok {
		t.Fatalf("got %T, want iterationsLoadedMsg", msg)
	}
	if iterMsg.sessionID != "s1" || len(iterMsg.iterations) != 2 {
		t.Errorf("got sessionID=%q iterations=%d", iterMsg.sessionID, len(iterMsg.iterations))
	}

	m, _ = drive(t, m, iterMsg)
	if m.refreshDetails() != nil {
		t.Error("expected no load command once iterations are cached")
	}
}

func TestBrowserDetailsContent(t *testing.T) {
	m := loadedBrowser(t)
	m, _ = drive(t, m, iterationsLoadedMsg{
		sessionID:  "s1",
		iterations: testSource().iterations["s1"],
	})

	details := m.formatDetails(m.sessions[0], m.iterations["s1"])
	for _, want := range []string{"counter", "converged", "2 of 3", "0.20", "AND2_X2"} {
		if !strings.Contains(details, want) {
			t.Errorf("details missing %q", want)
		}
	}
}

func TestBrowserDetailsShowAbortReason(t *testing.T) {
	m := loadedBrowser(t)

	details := m.formatDetails(m.sessions[1], nil)
	if !strings.Contains(details, "sta_failed") {
		t.Error("details should name the abort reason")
	}
	if !strings.Contains(details, "n/a") {
		t.Error("missing slacks should render as n/a")
	}
}

func TestBrowserViewRenders(t *testing.T) {
	m := loadedBrowser(t)

	view := m.View()
	if view == "" {
		t.Fatal("view should not be empty")
	}
	if !strings.Contains(view, "stacli sessions") {
		t.Error("view should carry the title")
	}
	if !strings.Contains(view, "2 sessions") {
		t.Error("view should show the session count")
	}
}

func TestFormatSlack(t *testing.T) {
	if got := formatSlack(nil); got != "n/a" {
		t.Errorf("formatSlack(nil) = %q", got)
	}
	if got := formatSlack(slackPtr(-0.5)); got != "-0.50" {
		t.Errorf("formatSlack(-0.5) = %q", got)
	}
}

func TestPagerScroll(t *testing.T) {
	m := NewPager("report", "line one\nline two\nline three")

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	pm := next.(PagerModel)
	if !pm.ready {
		t.Fatal("pager should be ready after first resize")
	}

	view := pm.View()
	if !strings.Contains(view, "report") {
		t.Error("pager view should carry the title")
	}

	next, cmd := pm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	pm = next.(PagerModel)
	if cmd == nil {
		t.Error("expected quit command from q")
	}
}
