// Package remediation drives the iterative fix loop: run STA, parse the
// report, stop or ask the model for a repaired design, and keep going until
// the design converges or the iteration budget runs out.
package remediation

import (
	"time"

	"stacli/internal/timing"
)

// Status is the lifecycle state of a remediation session.
type Status string

const (
	StatusRunning   Status = "running"
	StatusConverged Status = "converged"
	StatusExhausted Status = "exhausted"
	StatusAborted   Status = "aborted"
)

// Abort reasons recorded on StatusAborted sessions.
const (
	AbortSTAFailed         = "sta_failed"
	AbortNoDesignExtracted = "no_design_extracted"
)

// DefaultBudget is the iteration cap when the caller does not choose one.
const DefaultBudget = 3

// FixAttempt is one accepted proposal. The recorded slacks are the
// measurements that prompted the fix, i.e. the state of the design the
// proposal replaced.
type FixAttempt struct {
	Design     string
	Changes    string
	SetupSlack *float64
	HoldSlack  *float64
}

// Session accumulates the append-only history of one remediation run.
// Entries are never retroactively mutated.
type Session struct {
	ID          string
	DesignName  string
	Budget      int
	Status      Status
	AbortReason string
	Iterations  int
	Snapshots   []timing.Snapshot
	Attempts    []FixAttempt
	StartedAt   time.Time
	CompletedAt time.Time
}

func (s *Session) finish(status Status) {
	s.Status = status
	s.CompletedAt = time.Now()
}

func (s *Session) abort(reason string) {
	s.Status = StatusAborted
	s.AbortReason = reason
	s.CompletedAt = time.Now()
}

// FinalSnapshot returns the last recorded snapshot, if any.
func (s *Session) FinalSnapshot() (timing.Snapshot, bool) {
	if len(s.Snapshots) == 0 {
		return timing.Snapshot{}, false
	}
	return s.Snapshots[len(s.Snapshots)-1], true
}

// BestAttempt picks the attempt to keep as the session's final artifact: the
// highest setup slack among attempts whose hold slack is absent or
// non-negative. When no attempt qualifies, it falls back to the highest setup
// slack outright, hold violations and all.
func BestAttempt(attempts []FixAttempt) (int, bool) {
	if len(attempts) == 0 {
		return 0, false
	}

	best := -1
	var bestSlack float64
	for i, a := range attempts {
		if a.HoldSlack != nil && *a.HoldSlack < 0 {
			continue
		}
		if a.SetupSlack == nil {
			continue
		}
		if best < 0 || *a.SetupSlack > bestSlack {
			best = i
			bestSlack = *a.SetupSlack
		}
	}
	if best >= 0 {
		return best, true
	}

	for i, a := range attempts {
		if a.SetupSlack == nil {
			continue
		}
		if best < 0 || *a.SetupSlack > bestSlack {
			best = i
			bestSlack = *a.SetupSlack
		}
	}
	if best >= 0 {
		return best, true
	}

	return 0, true
}

// bestForPrompt is the looser selection quoted back to the model in
// follow-up prompts: highest setup slack, ignoring hold entirely.
func bestForPrompt(attempts []FixAttempt) int {
	best := 0
	var bestSlack *float64
	for i, a := range attempts {
		if a.SetupSlack == nil {
			continue
		}
		if bestSlack == nil || *a.SetupSlack > *bestSlack {
			best = i
			bestSlack = a.SetupSlack
		}
	}
	return best
}

// Trend compares the last two snapshots per metric. A metric missing from
// either snapshot reads as improved: a clean report has no worst slack left
// to compare.
type Trend struct {
	PrevSetup *float64
	CurrSetup *float64
	PrevHold  *float64
	CurrHold  *float64
	Setup     string
	Hold      string
}

const (
	TrendImproved = "IMPROVED"
	TrendWorsened = "WORSENED"
)

// ComputeTrend derives the per-metric direction between two snapshots.
func ComputeTrend(prev, curr timing.Snapshot) Trend {
	return Trend{
		PrevSetup: prev.WorstSetupSlack,
		CurrSetup: curr.WorstSetupSlack,
		PrevHold:  prev.WorstHoldSlack,
		CurrHold:  curr.WorstHoldSlack,
		Setup:     direction(prev.WorstSetupSlack, curr.WorstSetupSlack),
		Hold:      direction(prev.WorstHoldSlack, curr.WorstHoldSlack),
	}
}

func direction(prev, curr *float64) string {
	if curr == nil || prev == nil {
		return TrendImproved
	}
	if *curr > *prev {
		return TrendImproved
	}
	return TrendWorsened
}
