package storage

import (
	"database/sql"
	"time"

	"stacli/internal/remediation"
)

// SessionRecord is one remediation session row. The slack columns hold the
// final snapshot's worst values; nil means that corner never violated.
type SessionRecord struct {
	ID          string
	Design      string
	Status      string
	AbortReason string
	Budget      int
	Iterations  int
	SetupSlack  *float64
	HoldSlack   *float64
	BestChanges string
	StartedAt   time.Time
	CompletedAt time.Time
}

// IterationRecord is one STA measurement within a session. Changes holds
// the fix applied in response to this measurement, empty when the session
// ended here.
type IterationRecord struct {
	SessionID     string
	Iteration     int
	SetupSlack    *float64
	HoldSlack     *float64
	HasViolations bool
	Changes       string
}

// SessionStore handles session persistence.
type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// InitSchema creates the session tables if they don't exist.
func (s *SessionStore) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		design TEXT NOT NULL,
		status TEXT NOT NULL,
		abort_reason TEXT,
		budget INTEGER NOT NULL DEFAULT 0,
		iterations INTEGER NOT NULL DEFAULT 0,
		setup_slack REAL,
		hold_slack REAL,
		best_changes TEXT,
		started_at DATETIME,
		completed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS iterations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		iteration INTEGER NOT NULL,
		setup_slack REAL,
		hold_slack REAL,
		has_violations INTEGER NOT NULL DEFAULT 0,
		changes TEXT,
		UNIQUE (session_id, iteration),
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
	CREATE INDEX IF NOT EXISTS idx_sessions_design ON sessions(design);
	CREATE INDEX IF NOT EXISTS idx_iterations_session ON iterations(session_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveSession inserts or updates a session row.
func (s *SessionStore) SaveSession(rec SessionRecord) error {
	query := `
	INSERT OR REPLACE INTO sessions
		(id, design, status, abort_reason, budget, iterations, setup_slack, hold_slack, best_changes, started_at, completed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var completedAt *time.Time
	if !rec.CompletedAt.IsZero() {
		completedAt = &rec.CompletedAt
	}

	_, err := s.db.Exec(query,
		rec.ID,
		rec.Design,
		rec.Status,
		rec.AbortReason,
		rec.Budget,
		rec.Iterations,
		nullFloat(rec.SetupSlack),
		nullFloat(rec.HoldSlack),
		rec.BestChanges,
		rec.StartedAt,
		completedAt,
	)
	return err
}

// SaveIteration inserts or updates one measurement row.
func (s *SessionStore) SaveIteration(rec IterationRecord) error {
	query := `
	INSERT OR REPLACE INTO iterations
		(session_id, iteration, setup_slack, hold_slack, has_violations, changes)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		rec.SessionID,
		rec.Iteration,
		nullFloat(rec.SetupSlack),
		nullFloat(rec.HoldSlack),
		rec.HasViolations,
		rec.Changes,
	)
	return err
}

// GetSession retrieves a session by ID, nil when absent.
func (s *SessionStore) GetSession(id string) (*SessionRecord, error) {
	query := `
	SELECT id, design, status, COALESCE(abort_reason, ''), budget, iterations,
	       setup_slack, hold_slack, COALESCE(best_changes, ''), started_at, completed_at
	FROM sessions WHERE id = ?
	`

	rec, err := scanSession(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListSessions returns recent sessions, newest first.
func (s *SessionStore) ListSessions(limit int) ([]SessionRecord, error) {
	query := `
	SELECT id, design, status, COALESCE(abort_reason, ''), budget, iterations,
	       setup_slack, hold_slack, COALESCE(best_changes, ''), started_at, completed_at
	FROM sessions ORDER BY started_at DESC LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

// ListIterations returns a session's measurements in order.
func (s *SessionStore) ListIterations(sessionID string) ([]IterationRecord, error) {
	query := `
	SELECT session_id, iteration, setup_slack, hold_slack, has_violations, COALESCE(changes, '')
	FROM iterations WHERE session_id = ? ORDER BY iteration
	`

	rows, err := s.db.Query(query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []IterationRecord
	for rows.Next() {
		var rec IterationRecord
		var setup, hold sql.NullFloat64
		if err := rows.Scan(&rec.SessionID, &rec.Iteration, &setup, &hold, &rec.HasViolations, &rec.Changes); err != nil {
			return nil, err
		}
		rec.SetupSlack = floatPtr(setup)
		rec.HoldSlack = floatPtr(hold)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// DeleteSession removes a session and its measurements.
func (s *SessionStore) DeleteSession(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM iterations WHERE session_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM sessions WHERE id = ?", id); err != nil {
		return err
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*SessionRecord, error) {
	var rec SessionRecord
	var setup, hold sql.NullFloat64
	var completedAt sql.NullTime

	err := row.Scan(
		&rec.ID,
		&rec.Design,
		&rec.Status,
		&rec.AbortReason,
		&rec.Budget,
		&rec.Iterations,
		&setup,
		&hold,
		&rec.BestChanges,
		&rec.StartedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.SetupSlack = floatPtr(setup)
	rec.HoldSlack = floatPtr(hold)
	if completedAt.Valid {
		rec.CompletedAt = completedAt.Time
	}
	return &rec, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// RecordFromSession flattens a finished session into its row form.
func RecordFromSession(sess *remediation.Session) SessionRecord {
	rec := SessionRecord{
		ID:          sess.ID,
		Design:      sess.DesignName,
		Status:      string(sess.Status),
		AbortReason: sess.AbortReason,
		Budget:      sess.Budget,
		Iterations:  sess.Iterations,
		StartedAt:   sess.StartedAt,
		CompletedAt: sess.CompletedAt,
	}
	if final, ok := sess.FinalSnapshot(); ok {
		rec.SetupSlack = final.WorstSetupSlack
		rec.HoldSlack = final.WorstHoldSlack
	}
	if idx, ok := remediation.BestAttempt(sess.Attempts); ok {
		rec.BestChanges = sess.Attempts[idx].Changes
	}
	return rec
}

// IterationRecordsFromSession pairs each snapshot with the fix it prompted.
func IterationRecordsFromSession(sess *remediation.Session) []IterationRecord {
	recs := make([]IterationRecord, 0, len(sess.Snapshots))
	for i, snap := range sess.Snapshots {
		rec := IterationRecord{
			SessionID:     sess.ID,
			Iteration:     i + 1,
			SetupSlack:    snap.WorstSetupSlack,
			HoldSlack:     snap.WorstHoldSlack,
			HasViolations: snap.HasViolations,
		}
		if i < len(sess.Attempts) {
			rec.Changes = sess.Attempts[i].Changes
		}
		recs = append(recs, rec)
	}
	return recs
}
