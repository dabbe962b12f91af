package timing

import "testing"

func fptr(v float64) *float64 { return &v }

func eqSlack(got, want *float64) bool {
	if got == nil || want == nil {
		return got == want
	}
	return *got == *want
}

func TestParse(t *testing.T) {
	tests := []struct {
		name          string
		log           string
		wantSetup     *float64
		wantHold      *float64
		wantViolation bool
	}{
		{
			name:          "empty log",
			log:           "",
			wantSetup:     nil,
			wantHold:      nil,
			wantViolation: false,
		},
		{
			name:          "no path sections",
			log:           "Startpoint: in1\nEndpoint: out1\nnothing to see here\n",
			wantSetup:     nil,
			wantHold:      nil,
			wantViolation: false,
		},
		{
			name:          "setup violated hold met",
			log:           "Path Type: max\n-0.50 slack (VIOLATED)\nPath Type: min\n0.10 slack\n",
			wantSetup:     fptr(-0.50),
			wantHold:      fptr(0.10),
			wantViolation: true,
		},
		{
			name:          "both met",
			log:           "Path Type: max\n0.42 slack (MET)\nPath Type: min\n0.10 slack (MET)\n",
			wantSetup:     fptr(0.42),
			wantHold:      fptr(0.10),
			wantViolation: false,
		},
		{
			name:          "worst across multiple setup sections",
			log:           "Path Type: max\n-0.10 slack (VIOLATED)\nPath Type: max\n-1.25 slack (VIOLATED)\nPath Type: max\n0.30 slack\n",
			wantSetup:     fptr(-1.25),
			wantHold:      nil,
			wantViolation: true,
		},
		{
			name:          "violated marker outside any section",
			log:           "report preamble\n-0.77 slack (VIOLATED)\nno path type markers at all\n",
			wantSetup:     nil,
			wantHold:      nil,
			wantViolation: true,
		},
		{
			name:          "section without slack is skipped",
			log:           "Path Type: max\nno numbers here\nPath Type: min\n0.05 slack\n",
			wantSetup:     nil,
			wantHold:      fptr(0.05),
			wantViolation: false,
		},
		{
			name:          "positive slack but section marked violated",
			log:           "Path Type: min\n0.02 slack\nsomething VIOLATED downstream\n",
			wantSetup:     nil,
			wantHold:      fptr(0.02),
			wantViolation: true,
		},
		{
			name:          "hold only violation",
			log:           "Path Type: max\n1.00 slack\nPath Type: min\n-0.03 slack (VIOLATED)\n",
			wantSetup:     fptr(1.00),
			wantHold:      fptr(-0.03),
			wantViolation: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := Parse(tt.log)

			if !eqSlack(snap.WorstSetupSlack, tt.wantSetup) {
				t.Errorf("WorstSetupSlack = %v, want %v", deref(snap.WorstSetupSlack), deref(tt.wantSetup))
			}
			if !eqSlack(snap.WorstHoldSlack, tt.wantHold) {
				t.Errorf("WorstHoldSlack = %v, want %v", deref(snap.WorstHoldSlack), deref(tt.wantHold))
			}
			if snap.HasViolations != tt.wantViolation {
				t.Errorf("HasViolations = %v, want %v", snap.HasViolations, tt.wantViolation)
			}
		})
	}
}

func deref(p *float64) interface{} {
	if p == nil {
		return "absent"
	}
	return *p
}

func TestParseCollectsViolatingPaths(t *testing.T) {
	log := "Path Type: max\n-0.10 slack (VIOLATED)\n" +
		"Path Type: max\n0.50 slack\n" +
		"Path Type: max\n-0.90 slack (VIOLATED)\n" +
		"Path Type: min\n0.20 slack\n"

	snap := Parse(log)

	if len(snap.SetupPaths) != 2 {
		t.Fatalf("len(SetupPaths) = %d, want 2", len(snap.SetupPaths))
	}
	if snap.SetupPaths[0].Slack != -0.10 || snap.SetupPaths[1].Slack != -0.90 {
		t.Errorf("SetupPaths = %+v, want report order", snap.SetupPaths)
	}
	if len(snap.HoldPaths) != 0 {
		t.Errorf("len(HoldPaths) = %d, want 0 (met paths are not recorded)", len(snap.HoldPaths))
	}
}

func TestParseNeverDefaultsWorstSlackToZero(t *testing.T) {
	snap := Parse("Path Type: max\n0.00 slack is absent here\n")
	// The section has a parseable 0.00 slack, so it is recorded.
	if snap.WorstSetupSlack == nil || *snap.WorstSetupSlack != 0 {
		t.Errorf("parsed zero slack should be present, got %v", deref(snap.WorstSetupSlack))
	}

	snap = Parse("Path Type: min\nnothing parseable\n")
	if snap.WorstHoldSlack != nil {
		t.Errorf("missing hold slack must stay absent, got %v", *snap.WorstHoldSlack)
	}
}
