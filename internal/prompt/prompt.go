// Package prompt builds every model-facing prompt. The wording is tuned
// against real OpenSTA runs; edit with care and keep the fence formats,
// because extraction downstream keys on them.
package prompt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"stacli/internal/remediation"
)

// Caps keep follow-up prompts inside the model's context window. The first
// fix request sends more of the library than later ones; later requests
// spend that room on history instead.
const (
	designCap          = 20000
	reportCap          = 10000
	libertyFirstCap    = 50000
	libertyFollowCap   = 30000
	libertyAnalysisCap = 100000
)

var (
	clockPeriodRe = regexp.MustCompile(`(?i)clock\s+period\s+(\d+\.?\d*)`)
	uncertaintyRe = regexp.MustCompile(`(?i)uncertainty\s+of\s+(\d+\.?\d*)`)
)

const fence = "```"

func codeBlock(lang, body string) string {
	return fence + lang + "\n" + body + "\n" + fence
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// DesignAnalysis asks for a structural review of a Verilog design.
func DesignAnalysis(design string) string {
	return fmt.Sprintf(`
You are an expert in ASIC design and Verilog HDL. I need a detailed analysis of the following Verilog design.
Please provide a comprehensive report that includes:

1. The module name and its purpose
2. Identification of all input and output ports with their bit widths
3. Analysis of sequential elements (flip-flops, registers)
4. Analysis of combinational logic (gates, assignments)
5. Identification of clock domains and reset signals
6. Detection of state machines if present
7. Analysis of timing paths between flip-flops
8. Identification of potential critical paths
9. Overall design architecture and functionality

Here is the Verilog design:

%s

Provide your analysis in a structured, detailed report format.
`, codeBlock("verilog", design))
}

// LibertyAnalysis asks for a per-cell review of the library cells the
// design actually instantiates.
func LibertyAnalysis(design, liberty string) string {
	return fmt.Sprintf(`
You are an expert in ASIC design, Liberty format (.lib files), and Verilog HDL.

I need you to perform a comprehensive analysis of the Liberty file cells that are used in the provided Verilog design.

Your task involves:
1. First, identify all standard cells that are instantiated or used in the Verilog design, identify their instances and count how many instances are used
2. For each identified cell, find its definition in the Liberty file
3. Analyze each cell's characteristics including:
   - Cell function and purpose
   - Input and output pins
   - Timing characteristics (delay arcs, setup/hold times)
   - Power information
   - Area and physical properties
   - Any other relevant attributes

Here is the Verilog design:
%s

Here is the Liberty file (note that it might be large, so analyze what you can with the provided content):
%s

Please provide a detailed analysis focusing specifically on the cells that appear in the Verilog design.
If the Liberty file is truncated and you cannot find a specific cell, please mention this in your analysis.
`, codeBlock("verilog", design), codeBlock("liberty", truncate(liberty, libertyAnalysisCap)))
}

// SDCAndTCL asks for an SDC file and an OpenSTA TCL script matching the
// user's timing requirement. The clock period and uncertainty are lifted
// out of the requirement text so the model can be pinned to exact values;
// either falls back to UNKNOWN when the requirement does not state it.
func SDCAndTCL(design, requirement, libertyFile string) string {
	clockPeriod := firstGroup(clockPeriodRe, requirement)
	uncertainty := firstGroup(uncertaintyRe, requirement)

	return fmt.Sprintf(`
As an expert in Static Timing Analysis (STA), I need to generate an SDC file and a TCL script for OpenSTA based on the following Verilog design and specific timing requirements.

## Verilog Design
%s

## SPECIFIC Timing Requirements - FOLLOW THESE EXACTLY
%s

## IMPORTANT INSTRUCTIONS FOR SDC FILE:
- ONLY include commands that are absolutely necessary based on the requirements.
- Use the EXACT time values and units specified in the requirements above.
- For clock period, use exactly this format if needed: create_clock -name CLK -period %s [get_ports CLK]
- For clock uncertainty, use exactly this format if needed: set_clock_uncertainty %s [get_clocks CLK]
- DO NOT include commented-out commands or extra comments except basic descriptions.
- DO NOT include any commands related to load or drive strength unless specifically requested.

## IMPORTANT INSTRUCTIONS FOR TCL SCRIPT:
- The TCL script must follow EXACTLY this structure:
  1. read_liberty %s
  2. read_verilog [design_file].v
  3. link_design [top_module]
  4. read_sdc [sdc_file]
  5. Only the specific timing reports asked for in the requirements
  6. exit

Please provide:
1. An SDC file inside %[6]ssdc and %[6]s tags that follows the specified format.
2. A TCL script inside %[6]stcl and %[6]s tags that follows the specified format.
`, codeBlock("verilog", design), requirement, clockPeriod, uncertainty, libertyFile, fence)
}

func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return "UNKNOWN"
}

// Fix builds the violation-repair prompt for the loop's proposal request.
func Fix(req remediation.ProposalRequest) string {
	if sub, ok := req.Variant.(remediation.SubsequentAttempt); ok {
		return followUpFix(req, sub)
	}
	return firstFix(req)
}

func firstFix(req remediation.ProposalRequest) string {
	return fmt.Sprintf(`
You are an expert in ASIC design, Verilog HDL, and static timing analysis. I need you to fix timing violations in a Verilog design based on OpenSTA timing analysis.

First, examine the current Verilog design:
%s

Now, examine the timing analysis report identifying violations:
%s

I also provide the Liberty file for reference (partial):
%s

Based on these, please:

1. Identify all timing violations (setup and hold) in the design
2. Determine the best approach to fix each violation
3. Implement the fixes directly in the Verilog code
4. Use techniques like:
   - Cell resizing (changing drive strength)
   - Inserting buffer cells
   - Adding delay cells
   - Restructuring critical paths

Provide the COMPLETE updated Verilog design with all fixes implemented.

Include detailed comments explaining:
1. What violations were identified
2. What fixes were applied and why
3. How each fix addresses the specific timing issue

Format your response with the modified Verilog code inside %[4]sverilog and %[4]s tags.
`, codeBlock("verilog", req.OriginalDesign),
		codeBlock("", req.Report),
		codeBlock("liberty", truncate(req.Liberty, libertyFirstCap)),
		fence)
}

func followUpFix(req remediation.ProposalRequest, sub remediation.SubsequentAttempt) string {
	return fmt.Sprintf(`
You are an expert in ASIC design, Verilog HDL, and static timing analysis.

ITERATION %d: Previous fixes have been applied but violations still exist.

%s

**Original Design:**
%s

**Most Successful Design (Iteration %d):**
%s

**Current Design (Iteration %d):**
%s

%s

**Current Timing Analysis Report:**
%s

**Liberty File Reference (partial):**
%s

Based on this:

1. Analyze what went wrong with previous fixes
2. Identify remaining timing violations
3. Consider using the most successful design version as your starting point
4. Make very targeted changes

CRITICALLY IMPORTANT:
1. If previous changes worsened setup time, DO NOT add more buffers
2. Focus on high-drive strength cells (e.g., X2, X4) for critical setup path
3. Make smaller, more focused changes
4. Explain why your changes should improve the situation

Provide the COMPLETE updated Verilog design inside %[11]sverilog and %[11]s tags.
`, req.Iteration,
		trendBlock(sub.Trend),
		codeBlock("verilog", truncate(req.OriginalDesign, designCap)),
		sub.BestIteration,
		codeBlock("verilog", sub.BestDesign),
		req.Iteration-1,
		codeBlock("verilog", sub.CurrentDesign),
		historyBlock(sub.History),
		codeBlock("", truncate(req.Report, reportCap)),
		codeBlock("liberty", truncate(req.Liberty, libertyFollowCap)),
		fence)
}

func trendBlock(t *remediation.Trend) string {
	if t == nil {
		return ""
	}
	return fmt.Sprintf(`VIOLATION TREND ANALYSIS:
- Setup slack: Previous=%s ps → Current=%s ps (%s)
- Hold slack: Previous=%s ps → Current=%s ps (%s)

Your previous changes have %s setup timing and %s hold timing.`,
		renderSlack(t.PrevSetup), renderSlack(t.CurrSetup), t.Setup,
		renderSlack(t.PrevHold), renderSlack(t.CurrHold), t.Hold,
		strings.ToLower(t.Setup), strings.ToLower(t.Hold))
}

func historyBlock(history []remediation.FixAttempt) string {
	var b strings.Builder
	b.WriteString("DESIGN MODIFICATION HISTORY:\n")
	for i, h := range history {
		fmt.Fprintf(&b, "Iteration %d:\n", i+1)
		fmt.Fprintf(&b, "- Changes: %s\n", h.Changes)
		fmt.Fprintf(&b, "- Results: Setup=%s ps, Hold=%s ps\n\n", renderSlack(h.SetupSlack), renderSlack(h.HoldSlack))
	}
	return b.String()
}

// renderSlack prints a slack value the way reports read: a number, or the
// explicit absence marker when that corner was never violated.
func renderSlack(v *float64) string {
	if v == nil {
		return "NO VIOLATION"
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
