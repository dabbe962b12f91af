package tui

import "stacli/internal/storage"

type sessionsLoadedMsg struct {
	sessions []storage.SessionRecord
	err      error
}

type iterationsLoadedMsg struct {
	sessionID  string
	iterations []storage.IterationRecord
	err        error
}
