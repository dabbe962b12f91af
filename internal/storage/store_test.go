package storage

import (
	"path/filepath"
	"testing"
	"time"

	"stacli/internal/remediation"
	"stacli/internal/timing"
)

func newTestStore(t *testing.T) *SessionStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "data", "sessions.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := NewSessionStore(db)
	if err := store.InitSchema(); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}
	return store
}

func fptr(v float64) *float64 { return &v }

func TestSessionRoundTrip(t *testing.T) {
	store := newTestStore(t)

	started := time.Now().Add(-time.Minute)
	completed := time.Now()
	rec := SessionRecord{
		ID:          "sess-1",
		Design:      "counter",
		Status:      "converged",
		Budget:      3,
		Iterations:  2,
		SetupSlack:  fptr(0.12),
		HoldSlack:   fptr(0.05),
		BestChanges: "Changed u1 from AND2_X1 to AND2_X2",
		StartedAt:   started,
		CompletedAt: completed,
	}
	if err := store.SaveSession(rec); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	got, err := store.GetSession("sess-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected a session, got nil")
	}
	if got.Design != "counter" || got.Status != "converged" {
		t.Errorf("Got design=%q status=%q", got.Design, got.Status)
	}
	if got.Budget != 3 || got.Iterations != 2 {
		t.Errorf("Got budget=%d iterations=%d", got.Budget, got.Iterations)
	}
	if got.SetupSlack == nil || *got.SetupSlack != 0.12 {
		t.Errorf("Got setup slack %v, want 0.12", got.SetupSlack)
	}
	if got.HoldSlack == nil || *got.HoldSlack != 0.05 {
		t.Errorf("Got hold slack %v, want 0.05", got.HoldSlack)
	}
	if got.BestChanges != rec.BestChanges {
		t.Errorf("Got best changes %q", got.BestChanges)
	}
	if got.StartedAt.Unix() != started.Unix() {
		t.Errorf("StartedAt roundtrip: got %v, want %v", got.StartedAt, started)
	}
	if got.CompletedAt.Unix() != completed.Unix() {
		t.Errorf("CompletedAt roundtrip: got %v, want %v", got.CompletedAt, completed)
	}
}

func TestSessionNullColumns(t *testing.T) {
	store := newTestStore(t)

	rec := SessionRecord{
		ID:        "sess-open",
		Design:    "alu",
		Status:    "running",
		Budget:    3,
		StartedAt: time.Now(),
	}
	if err := store.SaveSession(rec); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	got, err := store.GetSession("sess-open")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.SetupSlack != nil || got.HoldSlack != nil {
		t.Errorf("Expected nil slacks, got setup=%v hold=%v", got.SetupSlack, got.HoldSlack)
	}
	if !got.CompletedAt.IsZero() {
		t.Errorf("Expected zero CompletedAt, got %v", got.CompletedAt)
	}
	if got.AbortReason != "" || got.BestChanges != "" {
		t.Errorf("Expected empty strings, got abort=%q changes=%q", got.AbortReason, got.BestChanges)
	}
}

func TestGetSessionMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetSession("no-such-id")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing session, got %+v", got)
	}
}

func TestSaveSessionReplaces(t *testing.T) {
	store := newTestStore(t)

	rec := SessionRecord{ID: "sess-2", Design: "fifo", Status: "running", Budget: 3, StartedAt: time.Now()}
	if err := store.SaveSession(rec); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	rec.Status = "exhausted"
	rec.Iterations = 3
	rec.CompletedAt = time.Now()
	if err := store.SaveSession(rec); err != nil {
		t.Fatalf("SaveSession update failed: %v", err)
	}

	sessions, err := store.ListSessions(10)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("Expected 1 session after replace, got %d", len(sessions))
	}
	if sessions[0].Status != "exhausted" || sessions[0].Iterations != 3 {
		t.Errorf("Got status=%q iterations=%d", sessions[0].Status, sessions[0].Iterations)
	}
}

func TestListSessionsNewestFirst(t *testing.T) {
	store := newTestStore(t)

	base := time.Now()
	for i, id := range []string{"old", "mid", "new"} {
		rec := SessionRecord{
			ID:        id,
			Design:    "counter",
			Status:    "converged",
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := store.SaveSession(rec); err != nil {
			t.Fatalf("SaveSession failed: %v", err)
		}
	}

	sessions, err := store.ListSessions(10)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("Expected 3 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != "new" || sessions[2].ID != "old" {
		t.Errorf("Wrong order: %s, %s, %s", sessions[0].ID, sessions[1].ID, sessions[2].ID)
	}

	limited, err := store.ListSessions(2)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Expected 2 sessions with limit, got %d", len(limited))
	}
}

func TestIterationRoundTrip(t *testing.T) {
	store := newTestStore(t)

	sess := SessionRecord{ID: "sess-3", Design: "uart", Status: "converged", StartedAt: time.Now()}
	if err := store.SaveSession(sess); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	// Insert out of order; ListIterations sorts.
	iters := []IterationRecord{
		{SessionID: "sess-3", Iteration: 2, SetupSlack: fptr(0.10), HasViolations: false},
		{SessionID: "sess-3", Iteration: 1, SetupSlack: fptr(-0.50), HoldSlack: fptr(-0.02), HasViolations: true, Changes: "Changed u1 drive strength"},
	}
	for _, it := range iters {
		if err := store.SaveIteration(it); err != nil {
			t.Fatalf("SaveIteration failed: %v", err)
		}
	}

	got, err := store.ListIterations("sess-3")
	if err != nil {
		t.Fatalf("ListIterations failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 iterations, got %d", len(got))
	}
	if got[0].Iteration != 1 || got[1].Iteration != 2 {
		t.Errorf("Wrong order: %d, %d", got[0].Iteration, got[1].Iteration)
	}
	if got[0].SetupSlack == nil || *got[0].SetupSlack != -0.50 {
		t.Errorf("Got setup slack %v, want -0.50", got[0].SetupSlack)
	}
	if !got[0].HasViolations || got[1].HasViolations {
		t.Errorf("Got violations %v, %v", got[0].HasViolations, got[1].HasViolations)
	}
	if got[1].HoldSlack != nil {
		t.Errorf("Expected nil hold slack on iteration 2, got %v", *got[1].HoldSlack)
	}
}

func TestSaveIterationReplaces(t *testing.T) {
	store := newTestStore(t)

	it := IterationRecord{SessionID: "sess-4", Iteration: 1, SetupSlack: fptr(-0.30), HasViolations: true}
	if err := store.SaveIteration(it); err != nil {
		t.Fatalf("SaveIteration failed: %v", err)
	}

	it.Changes = "Replaced buffer chain"
	if err := store.SaveIteration(it); err != nil {
		t.Fatalf("SaveIteration update failed: %v", err)
	}

	got, err := store.ListIterations("sess-4")
	if err != nil {
		t.Fatalf("ListIterations failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 iteration after replace, got %d", len(got))
	}
	if got[0].Changes != "Replaced buffer chain" {
		t.Errorf("Got changes %q", got[0].Changes)
	}
}

func TestDeleteSession(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveSession(SessionRecord{ID: "sess-5", Design: "mul", Status: "aborted", StartedAt: time.Now()}); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	if err := store.SaveIteration(IterationRecord{SessionID: "sess-5", Iteration: 1}); err != nil {
		t.Fatalf("SaveIteration failed: %v", err)
	}

	if err := store.DeleteSession("sess-5"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	got, err := store.GetSession("sess-5")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected session gone, got %+v", got)
	}

	iters, err := store.ListIterations("sess-5")
	if err != nil {
		t.Fatalf("ListIterations failed: %v", err)
	}
	if len(iters) != 0 {
		t.Errorf("Expected 0 iterations after delete, got %d", len(iters))
	}
}

func TestRecordFromSession(t *testing.T) {
	sess := &remediation.Session{
		ID:         "sess-6",
		DesignName: "counter",
		Budget:     3,
		Status:     remediation.StatusConverged,
		Iterations: 2,
		Snapshots: []timing.Snapshot{
			{WorstSetupSlack: fptr(-0.50), WorstHoldSlack: fptr(-0.10), HasViolations: true},
			{WorstSetupSlack: fptr(0.20)},
		},
		Attempts: []remediation.FixAttempt{
			{Design: "module counter; endmodule", Changes: "Upsized u1", SetupSlack: fptr(-0.50), HoldSlack: fptr(-0.10)},
		},
		StartedAt:   time.Now().Add(-time.Minute),
		CompletedAt: time.Now(),
	}

	rec := RecordFromSession(sess)
	if rec.ID != "sess-6" || rec.Design != "counter" || rec.Status != "converged" {
		t.Errorf("Got id=%q design=%q status=%q", rec.ID, rec.Design, rec.Status)
	}
	if rec.SetupSlack == nil || *rec.SetupSlack != 0.20 {
		t.Errorf("Expected final setup slack 0.20, got %v", rec.SetupSlack)
	}
	if rec.HoldSlack != nil {
		t.Errorf("Expected nil final hold slack, got %v", *rec.HoldSlack)
	}
	if rec.BestChanges != "Upsized u1" {
		t.Errorf("Got best changes %q", rec.BestChanges)
	}

	iters := IterationRecordsFromSession(sess)
	if len(iters) != 2 {
		t.Fatalf("Expected 2 iteration records, got %d", len(iters))
	}
	if iters[0].Iteration != 1 || iters[0].Changes != "Upsized u1" || !iters[0].HasViolations {
		t.Errorf("Got first record %+v", iters[0])
	}
	if iters[1].Iteration != 2 || iters[1].Changes != "" || iters[1].HasViolations {
		t.Errorf("Got second record %+v", iters[1])
	}
}

func TestSessionStorePersistsAcrossOpens(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sessions.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	store := NewSessionStore(db)
	if err := store.InitSchema(); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}
	if err := store.SaveSession(SessionRecord{ID: "persist", Design: "alu", Status: "converged", StartedAt: time.Now()}); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	db.Close()

	db2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer db2.Close()
	store2 := NewSessionStore(db2)
	if err := store2.InitSchema(); err != nil {
		t.Fatalf("InitSchema on reopen failed: %v", err)
	}

	got, err := store2.GetSession("persist")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got == nil || got.Design != "alu" {
		t.Errorf("Session did not survive reopen: %+v", got)
	}
}
