package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stacli/internal/constraints"
	"stacli/internal/extract"
	"stacli/internal/llm"
	"stacli/internal/prompt"
	"stacli/internal/verilog"
	"stacli/internal/workspace"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate [verilog-file] [liberty-file] [requirements...]",
	Short: "Generate SDC constraints and an STA run script",
	Long: `Asks the model for SDC timing constraints matching the requirements,
plus a TCL script to run them through OpenSTA. The SDC is scrubbed of
template scaffolding; the TCL is only accepted when it references the
liberty file, otherwise a known-good default script is used.`,
	Example: `  stacli generate counter.v nangate_typical.lib "clock period 2ns"

  stacli generate alu.v nangate_typical.lib max delay 1.5ns on all paths`,
	Args: cobra.MinimumNArgs(3),
	Run:  runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	client := newGeminiClient(cfg)
	run := openRun(cfg, args[0])

	libName, err := run.ImportLiberty(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	requirements := strings.Join(args[2:], " ")

	usedDefault, err := generateConstraints(context.Background(), client, run, libName, requirements)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\033[32m✓\033[0m Wrote %s\n", run.SDCPath())
	if usedDefault {
		fmt.Printf("\033[32m✓\033[0m Wrote %s \033[90m(default run script)\033[0m\n", run.TCLPath())
	} else {
		fmt.Printf("\033[32m✓\033[0m Wrote %s\n", run.TCLPath())
	}
}

// generateConstraints runs the SDC/TCL stage for the design already
// imported into the run directory. The model's TCL is only trusted when it
// references the liberty file; everything else falls back to the default
// run script. Reports whether the fallback was taken.
func generateConstraints(ctx context.Context, client *llm.GeminiClient, run *workspace.Run, libName, requirements string) (bool, error) {
	design, err := os.ReadFile(run.DesignPath())
	if err != nil {
		return false, fmt.Errorf("reading design: %w", err)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = "Generating constraints..."
	client.OnRetry = func(wait time.Duration, cause string) {
		s.Suffix = fmt.Sprintf("Retrying in %s...", wait.Round(time.Second))
	}
	s.Start()
	resp := client.Query(ctx, prompt.SDCAndTCL(string(design), requirements, libName))
	s.Stop()

	if llm.IsErrorText(resp) {
		return false, fmt.Errorf("constraint generation failed: %s", resp)
	}
	if _, err := run.WriteGenerationTranscript(llm.RedactSecrets(resp)); err != nil {
		return false, err
	}

	sdc := constraints.PostProcessSDC(extract.SDC(resp), requirements)
	if err := run.WriteSDC(sdc); err != nil {
		return false, err
	}

	top := verilog.TopModule(string(design))
	sdcFile := filepath.Base(run.SDCPath())
	tclText, err := extract.TCL(resp)
	usedDefault := err != nil || !constraints.UsableTCL(tclText, libName)

	var tcl string
	if usedDefault {
		tcl = constraints.DefaultTCL(filepath.Base(run.DesignPath()), sdcFile, libName, top)
	} else {
		tcl = constraints.NormalizedTCL(filepath.Base(run.DesignPath()), sdcFile, libName, top)
	}
	if err := run.WriteTCL(tcl); err != nil {
		return false, err
	}
	return usedDefault, nil
}
