package liberty

import (
	"strings"
	"testing"
)

const sampleLib = `library (sample) {
  delay_model : table_lookup;
  cell (AND2_X1) {
    area : 1.064;
    pin (A1) {
      direction : input;
      timing () {
        cell_rise (delay_template_5x5) {
          values ("0.01, 0.02, 0.03");
        }
      }
    }
  }
  cell ("BUF_X2") {
    area : 0.798;
    pin (Z) {
      direction : output;
      function : "A";
    }
  }
  cell (INV_X1) {
    area : 0.532;
    pin (ZN) {
      direction : output;
    }
  }
}`

func TestReduce(t *testing.T) {
	tests := []struct {
		name         string
		cells        []string
		wantContains []string
		wantAbsent   []string
	}{
		{
			name:         "single cell",
			cells:        []string{"AND2_X1"},
			wantContains: []string{"cell (AND2_X1)", "delay_template_5x5"},
			wantAbsent:   []string{"BUF_X2", "INV_X1"},
		},
		{
			name:         "quoted header matches bare name",
			cells:        []string{"BUF_X2"},
			wantContains: []string{`cell ("BUF_X2")`, `function : "A"`},
			wantAbsent:   []string{"AND2_X1", "INV_X1"},
		},
		{
			name:         "unknown cell silently omitted",
			cells:        []string{"AND2_X1", "NAND4_X8"},
			wantContains: []string{"cell (AND2_X1)"},
			wantAbsent:   []string{"NAND4_X8"},
		},
		{
			name:       "no cells",
			cells:      nil,
			wantAbsent: []string{"cell ("},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(sampleLib, tt.cells)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Errorf("output should not contain %q:\n%s", absent, got)
				}
			}
		})
	}
}

func TestReduceKeepsLibraryOrder(t *testing.T) {
	// Request order must not matter; output follows source order.
	got := Reduce(sampleLib, []string{"INV_X1", "AND2_X1"})

	andIdx := strings.Index(got, "cell (AND2_X1)")
	invIdx := strings.Index(got, "cell (INV_X1)")
	if andIdx < 0 || invIdx < 0 {
		t.Fatalf("expected both blocks, got:\n%s", got)
	}
	if andIdx > invIdx {
		t.Errorf("blocks out of library order: AND2_X1 at %d, INV_X1 at %d", andIdx, invIdx)
	}
	if !strings.Contains(got, "}\n\ncell") && !strings.Contains(got, "}\n\n  cell") {
		t.Errorf("blocks should be joined by a blank line:\n%s", got)
	}
}

func TestReduceCompleteBraceBalance(t *testing.T) {
	got := Reduce(sampleLib, []string{"AND2_X1", "BUF_X2", "INV_X1"})

	if strings.Count(got, "{") != strings.Count(got, "}") {
		t.Errorf("blocks are not brace-balanced:\n%s", got)
	}
}

func TestReduceIdempotent(t *testing.T) {
	cells := []string{"AND2_X1", "INV_X1"}
	once := Reduce(sampleLib, cells)
	twice := Reduce(once, cells)

	if once != twice {
		t.Errorf("re-reducing output changed it:\nfirst:\n%s\nsecond:\n%s", once, twice)
	}
}

func TestReduceDropsUnterminatedBlock(t *testing.T) {
	truncated := "cell (AND2_X1) {\n  area : 1.0;\n  pin (A) {\n    direction : input;\n"
	if got := Reduce(truncated, []string{"AND2_X1"}); got != "" {
		t.Errorf("unterminated block should yield nothing, got:\n%s", got)
	}
}

func TestMinimalForDesign(t *testing.T) {
	design := "module top(input a, b, output z);\n  AND2_X1 u1 (.A1(a), .A2(b), .ZN(z));\nendmodule"

	got := MinimalForDesign(design, sampleLib)
	if !strings.Contains(got, "cell (AND2_X1)") {
		t.Errorf("expected AND2_X1 block, got:\n%s", got)
	}
	if strings.Contains(got, "INV_X1") {
		t.Errorf("INV_X1 is not instantiated, got:\n%s", got)
	}
}
