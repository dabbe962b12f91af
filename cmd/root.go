package cmd

import (
	"fmt"
	"os"

	"stacli/internal/config"
	"stacli/internal/llm"
	"stacli/internal/workspace"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stacli",
	Short: "LLM-assisted static timing analysis for Verilog designs",
	Long: `stacli automates OpenSTA timing workflows: it analyzes gate-level
Verilog and liberty libraries with Gemini, generates SDC constraints
and run scripts, and iteratively repairs setup/hold violations until
the design is clean or the iteration budget runs out.

Artifacts for each design live under a per-design run directory
(sta-runs/<design> by default); fix sessions are recorded in a local
history database for later inspection.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func newGeminiClient(cfg *config.Config) *llm.GeminiClient {
	if !cfg.HasAPIKey() {
		fmt.Fprintln(os.Stderr, "\033[31m✗\033[0m No API key configured")
		fmt.Fprintln(os.Stderr, "  Set GEMINI_API_KEY or api_key in stacli.yaml")
		os.Exit(1)
	}
	return llm.NewGeminiClient(cfg)
}

// openRun prepares the design's run directory. The design file is only
// copied in when the directory has none, so reruns keep iterating on the
// last live design instead of starting over.
func openRun(cfg *config.Config, designFile string) *workspace.Run {
	run, err := workspace.NewRun(cfg.RunsDir, designFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := run.ImportDesign(designFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return run
}

func slackText(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
