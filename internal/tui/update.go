package tui

import (
	"stacli/internal/storage"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.SetSize(msg.Width, msg.Height)
		m.statusBar = m.statusBar.SetWidth(msg.Width)

	case sessionsLoadedMsg:
		m.loadErr = msg.err
		if msg.err == nil {
			m.sessions = msg.sessions
			items := make([]list.Item, len(msg.sessions))
			for i, rec := range msg.sessions {
				items[i] = sessionItem{rec}
			}
			m.list.SetItems(items)
			if cmd := m.refreshDetails(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}

	case iterationsLoadedMsg:
		if msg.err == nil {
			m.iterations[msg.sessionID] = msg.iterations
		} else {
			m.iterations[msg.sessionID] = nil
		}
		if rec := m.selected(); rec != nil && rec.ID == msg.sessionID {
			m.setDetailsContent()
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, BrowserKeys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, BrowserKeys.Tab):
			if m.focus == FocusList {
				m.focus = FocusDetails
			} else {
				m.focus = FocusList
			}

		case key.Matches(msg, BrowserKeys.Refresh):
			m.iterations = make(map[string][]storage.IterationRecord)
			return m, m.loadSessions

		case key.Matches(msg, BrowserKeys.Up), key.Matches(msg, BrowserKeys.Down):
			if m.focus == FocusList {
				var cmd tea.Cmd
				m.list, cmd = m.list.Update(msg)
				cmds = append(cmds, cmd)
				if detailCmd := m.refreshDetails(); detailCmd != nil {
					cmds = append(cmds, detailCmd)
				}
			} else {
				if key.Matches(msg, BrowserKeys.Up) {
					m.viewport.ScrollUp(1)
				} else {
					m.viewport.ScrollDown(1)
				}
			}

		case key.Matches(msg, BrowserKeys.PageUp):
			if m.focus == FocusList {
				m.list.Paginator.PrevPage()
				if detailCmd := m.refreshDetails(); detailCmd != nil {
					cmds = append(cmds, detailCmd)
				}
			} else {
				m.viewport.HalfPageUp()
			}

		case key.Matches(msg, BrowserKeys.PageDown):
			if m.focus == FocusList {
				m.list.Paginator.NextPage()
				if detailCmd := m.refreshDetails(); detailCmd != nil {
					cmds = append(cmds, detailCmd)
				}
			} else {
				m.viewport.HalfPageDown()
			}

		case key.Matches(msg, BrowserKeys.Open):
			if m.focus == FocusList {
				m.focus = FocusDetails
			}
		}
	}

	if m.focus == FocusDetails {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}
