package remediation

import (
	"testing"

	"stacli/internal/timing"
)

func fptr(v float64) *float64 { return &v }

func attempt(setup, hold *float64) FixAttempt {
	return FixAttempt{SetupSlack: setup, HoldSlack: hold}
}

func TestBestAttempt(t *testing.T) {
	tests := []struct {
		name     string
		attempts []FixAttempt
		wantIdx  int
		wantOK   bool
	}{
		{
			name:    "empty history",
			wantIdx: 0,
			wantOK:  false,
		},
		{
			name: "highest setup among hold-clean attempts",
			attempts: []FixAttempt{
				attempt(fptr(-0.50), nil),
				attempt(fptr(-0.10), fptr(0.05)),
				attempt(fptr(-0.30), fptr(0.20)),
			},
			wantIdx: 1,
			wantOK:  true,
		},
		{
			name: "hold violation disqualifies a better setup",
			attempts: []FixAttempt{
				attempt(fptr(-0.40), nil),
				attempt(fptr(-0.05), fptr(-0.02)),
			},
			wantIdx: 0,
			wantOK:  true,
		},
		{
			name: "absent hold counts as clean",
			attempts: []FixAttempt{
				attempt(fptr(-0.30), fptr(-0.10)),
				attempt(fptr(-0.60), nil),
			},
			wantIdx: 1,
			wantOK:  true,
		},
		{
			name: "all hold-violating falls back to best setup",
			attempts: []FixAttempt{
				attempt(fptr(-0.50), fptr(-0.10)),
				attempt(fptr(-0.20), fptr(-0.30)),
			},
			wantIdx: 1,
			wantOK:  true,
		},
		{
			name: "no slacks recorded defaults to first",
			attempts: []FixAttempt{
				attempt(nil, nil),
				attempt(nil, nil),
			},
			wantIdx: 0,
			wantOK:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, ok := BestAttempt(tt.attempts)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if idx != tt.wantIdx {
				t.Errorf("idx = %d, want %d", idx, tt.wantIdx)
			}
		})
	}
}

func TestBestForPromptIgnoresHold(t *testing.T) {
	attempts := []FixAttempt{
		attempt(fptr(-0.30), fptr(0.10)),
		attempt(fptr(-0.05), fptr(-0.50)),
	}
	if idx := bestForPrompt(attempts); idx != 1 {
		t.Errorf("prompt-side best should rank by setup only, got index %d", idx)
	}
}

func TestBestForPromptSkipsMissingSetup(t *testing.T) {
	attempts := []FixAttempt{
		attempt(nil, nil),
		attempt(fptr(-1.20), nil),
	}
	if idx := bestForPrompt(attempts); idx != 1 {
		t.Errorf("expected index 1, got %d", idx)
	}
}

func snap(setup, hold *float64) timing.Snapshot {
	return timing.Snapshot{WorstSetupSlack: setup, WorstHoldSlack: hold}
}

func TestComputeTrend(t *testing.T) {
	tests := []struct {
		name      string
		prev      timing.Snapshot
		curr      timing.Snapshot
		wantSetup string
		wantHold  string
	}{
		{
			name:      "both metrics improve",
			prev:      snap(fptr(-0.50), fptr(-0.20)),
			curr:      snap(fptr(-0.30), fptr(-0.10)),
			wantSetup: TrendImproved,
			wantHold:  TrendImproved,
		},
		{
			name:      "both metrics worsen",
			prev:      snap(fptr(-0.30), fptr(-0.10)),
			curr:      snap(fptr(-0.50), fptr(-0.20)),
			wantSetup: TrendWorsened,
			wantHold:  TrendWorsened,
		},
		{
			name:      "unchanged reads as worsened",
			prev:      snap(fptr(-0.30), fptr(-0.10)),
			curr:      snap(fptr(-0.30), fptr(-0.10)),
			wantSetup: TrendWorsened,
			wantHold:  TrendWorsened,
		},
		{
			name:      "hold absent now counts as improved",
			prev:      snap(fptr(-0.30), fptr(-0.10)),
			curr:      snap(fptr(-0.20), nil),
			wantSetup: TrendImproved,
			wantHold:  TrendImproved,
		},
		{
			name:      "hold absent before counts as improved",
			prev:      snap(fptr(-0.30), nil),
			curr:      snap(fptr(-0.20), fptr(-0.05)),
			wantSetup: TrendImproved,
			wantHold:  TrendImproved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTrend(tt.prev, tt.curr)
			if got.Setup != tt.wantSetup {
				t.Errorf("Setup = %s, want %s", got.Setup, tt.wantSetup)
			}
			if got.Hold != tt.wantHold {
				t.Errorf("Hold = %s, want %s", got.Hold, tt.wantHold)
			}
		})
	}
}

func TestSessionFinalSnapshot(t *testing.T) {
	var s Session
	if _, ok := s.FinalSnapshot(); ok {
		t.Error("empty session should have no final snapshot")
	}

	s.Snapshots = append(s.Snapshots, snap(fptr(-0.50), nil), snap(fptr(-0.10), nil))
	final, ok := s.FinalSnapshot()
	if !ok {
		t.Fatal("expected a final snapshot")
	}
	if final.WorstSetupSlack == nil || *final.WorstSetupSlack != -0.10 {
		t.Errorf("expected last snapshot, got %v", final.WorstSetupSlack)
	}
}
