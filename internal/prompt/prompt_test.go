package prompt

import (
	"strings"
	"testing"

	"stacli/internal/remediation"
)

func fptr(v float64) *float64 { return &v }

func TestDesignAnalysisEmbedsDesign(t *testing.T) {
	p := DesignAnalysis("module top(); endmodule")
	if !strings.Contains(p, "```verilog\nmodule top(); endmodule\n```") {
		t.Error("design not embedded in a verilog fence")
	}
	if !strings.Contains(p, "potential critical paths") {
		t.Error("analysis checklist missing")
	}
}

func TestLibertyAnalysisTruncatesLibrary(t *testing.T) {
	liberty := strings.Repeat("a", libertyAnalysisCap) + "OVERFLOW"
	p := LibertyAnalysis("module top(); endmodule", liberty)
	if strings.Contains(p, "OVERFLOW") {
		t.Error("library content past the cap should be dropped")
	}
	if !strings.Contains(p, "```liberty") {
		t.Error("liberty fence missing")
	}
}

func TestSDCAndTCL(t *testing.T) {
	tests := []struct {
		name        string
		requirement string
		want        []string
	}{
		{
			name:        "extracts clock period",
			requirement: "Use a clock period 2.5 ns",
			want:        []string{"create_clock -name CLK -period 2.5 [get_ports CLK]"},
		},
		{
			name:        "extraction is case-insensitive",
			requirement: "The Clock Period 10 applies",
			want:        []string{"-period 10 [get_ports CLK]"},
		},
		{
			name:        "extracts uncertainty",
			requirement: "clock period 5 with uncertainty of 0.1",
			want: []string{
				"-period 5 [get_ports CLK]",
				"set_clock_uncertainty 0.1 [get_clocks CLK]",
			},
		},
		{
			name:        "unknown when requirement is silent",
			requirement: "just make it fast",
			want: []string{
				"-period UNKNOWN [get_ports CLK]",
				"set_clock_uncertainty UNKNOWN [get_clocks CLK]",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := SDCAndTCL("module top(); endmodule", tt.requirement, "nangate.lib")
			for _, want := range tt.want {
				if !strings.Contains(p, want) {
					t.Errorf("prompt missing %q", want)
				}
			}
		})
	}
}

func TestSDCAndTCLNamesLibertyFile(t *testing.T) {
	p := SDCAndTCL("module top(); endmodule", "clock period 2", "cells.lib")
	if !strings.Contains(p, "read_liberty cells.lib") {
		t.Error("TCL instructions should name the liberty file")
	}
	if !strings.Contains(p, "clock period 2") {
		t.Error("requirement text missing")
	}
	if !strings.Contains(p, "```sdc") || !strings.Contains(p, "```tcl") {
		t.Error("fence format instructions missing")
	}
}

func TestFixFirstAttempt(t *testing.T) {
	liberty := strings.Repeat("b", libertyFirstCap) + "OVERFLOW"
	req := remediation.ProposalRequest{
		OriginalDesign: "module top(); AND2_X1 u1(); endmodule",
		Report:         "-0.50 slack (VIOLATED)",
		Liberty:        liberty,
		Iteration:      1,
		Variant:        remediation.FirstAttempt{},
	}

	p := Fix(req)
	if !strings.Contains(p, req.OriginalDesign) {
		t.Error("design missing")
	}
	if !strings.Contains(p, req.Report) {
		t.Error("timing report missing")
	}
	if strings.Contains(p, "OVERFLOW") {
		t.Error("liberty content past the cap should be dropped")
	}
	if strings.Contains(p, "ITERATION") {
		t.Error("first request should not mention iterations")
	}
	if !strings.Contains(p, "```verilog and ``` tags") {
		t.Error("response format instruction missing")
	}
}

func TestFixFollowUp(t *testing.T) {
	trend := remediation.Trend{
		PrevSetup: fptr(-0.5),
		CurrSetup: fptr(-0.3),
		PrevHold:  nil,
		CurrHold:  nil,
		Setup:     remediation.TrendImproved,
		Hold:      remediation.TrendImproved,
	}
	req := remediation.ProposalRequest{
		OriginalDesign: "module top(); AND2_X1 u1(); endmodule",
		Report:         "-0.30 slack (VIOLATED)",
		Liberty:        "cell (AND2_X1) {}",
		Iteration:      3,
		Variant: remediation.SubsequentAttempt{
			History: []remediation.FixAttempt{
				{Design: "design one", Changes: "Changed u1 from AND2_X1 to AND2_X2", SetupSlack: fptr(-0.5)},
				{Design: "design two", Changes: "Added u9 (BUF_X4)", SetupSlack: fptr(-0.3), HoldSlack: fptr(0.1)},
			},
			Trend:         &trend,
			BestIteration: 2,
			BestDesign:    "design two",
			CurrentDesign: "design two",
		},
	}

	p := Fix(req)
	for _, want := range []string{
		"ITERATION 3:",
		"VIOLATION TREND ANALYSIS:",
		"Previous=-0.5 ps",
		"Current=-0.3 ps (IMPROVED)",
		"Previous=NO VIOLATION ps",
		"improved setup timing and improved hold timing",
		"**Most Successful Design (Iteration 2):**",
		"**Current Design (Iteration 2):**",
		"DESIGN MODIFICATION HISTORY:",
		"Iteration 1:\n- Changes: Changed u1 from AND2_X1 to AND2_X2",
		"- Results: Setup=-0.5 ps, Hold=NO VIOLATION ps",
		"- Results: Setup=-0.3 ps, Hold=0.1 ps",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestFixFollowUpWithoutTrend(t *testing.T) {
	req := remediation.ProposalRequest{
		OriginalDesign: "module top(); endmodule",
		Report:         "report",
		Iteration:      2,
		Variant: remediation.SubsequentAttempt{
			History:       []remediation.FixAttempt{{Design: "d", Changes: "Removed u3"}},
			BestIteration: 1,
			BestDesign:    "d",
			CurrentDesign: "d",
		},
	}

	p := Fix(req)
	if strings.Contains(p, "VIOLATION TREND") {
		t.Error("trend block should be absent with fewer than two snapshots")
	}
	if !strings.Contains(p, "Removed u3") {
		t.Error("history missing")
	}
}

func TestFixFollowUpTruncation(t *testing.T) {
	design := strings.Repeat("d", designCap) + "DESIGNOVERFLOW"
	report := strings.Repeat("r", reportCap) + "REPORTOVERFLOW"
	liberty := strings.Repeat("l", libertyFollowCap) + "LIBOVERFLOW"

	req := remediation.ProposalRequest{
		OriginalDesign: design,
		Report:         report,
		Liberty:        liberty,
		Iteration:      2,
		Variant: remediation.SubsequentAttempt{
			History:       []remediation.FixAttempt{{Design: "d", Changes: "Removed u3"}},
			BestIteration: 1,
			BestDesign:    "d",
			CurrentDesign: "d",
		},
	}

	p := Fix(req)
	for _, overflow := range []string{"DESIGNOVERFLOW", "REPORTOVERFLOW", "LIBOVERFLOW"} {
		if strings.Contains(p, overflow) {
			t.Errorf("content past the cap leaked: %s", overflow)
		}
	}
}
