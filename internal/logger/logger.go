package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const MaxDetailSize = 10 * 1024 // 10KB limit

// Entry - single workflow event record (fields ordered by priority)
type Entry struct {
	Event     string `json:"event"`
	Level     string `json:"level,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Design    string `json:"design,omitempty"`
	Iteration int    `json:"iteration,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Logger - appends JSONL entries to a per-install run log
type Logger struct {
	logPath string
}

// New creates a Logger writing to <dir>/runs.jsonl.
func New(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &Logger{
		logPath: filepath.Join(dir, "runs.jsonl"),
	}, nil
}

// Log appends one entry. Oversized detail keeps its tail; the end of an STA
// log or LLM response is where the interesting part lives.
func (l *Logger) Log(entry Entry) error {
	if l == nil {
		return nil
	}

	if len(entry.Detail) > MaxDetailSize {
		entry.Detail = entry.Detail[len(entry.Detail)-MaxDetailSize:]
	}
	entry.Timestamp = time.Now().UTC().Format(time.RFC3339)
	if entry.Level == "" {
		entry.Level = "info"
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}

	f, err := os.OpenFile(l.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write log entry: %w", err)
	}

	return nil
}

// Path returns the log file location.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.logPath
}
