package tui

import (
	"fmt"

	"stacli/internal/tui/components"
	"stacli/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.loadErr != nil {
		return theme.Title.Render("stacli sessions") + "\n\n" +
			theme.Dim.Render("  could not load sessions: "+m.loadErr.Error()) + "\n"
	}

	sidebarWidth, detailsWidth, panelHeight := m.layout()

	title := theme.Title.Render("stacli sessions")

	sidebar := m.renderSidebar(sidebarWidth, panelHeight)
	details := m.renderDetails(detailsWidth, panelHeight)
	panes := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, details)

	focusLabel := "sessions"
	if m.focus == FocusDetails {
		focusLabel = "details"
	}
	info := fmt.Sprintf("%d sessions", len(m.sessions))
	statusBar := m.statusBar.RenderWithInfo(BrowserKeys, focusLabel, info)

	return lipgloss.JoinVertical(lipgloss.Left, title, panes, statusBar)
}

func (m Model) renderSidebar(width, height int) string {
	title := " ◈ Sessions"
	if len(m.sessions) > 0 {
		title += theme.Dim.Render(fmt.Sprintf(" [%d/%d]", m.list.Index()+1, len(m.sessions)))
	}

	panel := components.NewPanel(title).SetSize(width, height)
	if m.focus == FocusList {
		panel = panel.SetFocus(components.FocusFocused)
	}
	return panel.Render(m.list.View())
}

func (m Model) renderDetails(width, height int) string {
	panel := components.NewPanel(" ≡ Session").SetSize(width, height)
	if m.focus == FocusDetails {
		panel = panel.SetFocus(components.FocusFocused)
	}
	return panel.Render(m.viewport.View())
}
