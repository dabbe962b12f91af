package tui

import tea "github.com/charmbracelet/bubbletea"

// Browse opens the full-screen session browser over the given source.
func Browse(source Source) error {
	p := tea.NewProgram(NewBrowser(source), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
