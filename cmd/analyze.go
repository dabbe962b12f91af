package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stacli/internal/liberty"
	"stacli/internal/llm"
	"stacli/internal/prompt"
	"stacli/internal/workspace"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "LLM analysis of designs and liberty libraries",
}

var analyzeDesignCmd = &cobra.Command{
	Use:   "design [verilog-file]",
	Short: "Explain a design's structure and timing paths",
	Long: `Sends the Verilog netlist to the model and prints its analysis of the
module hierarchy, sequential elements, and likely critical paths. The
analysis is also saved into the design's run directory.`,
	Example: `  # Analyze a gate-level netlist
  stacli analyze design counter.v`,
	Args: cobra.ExactArgs(1),
	Run:  runAnalyzeDesign,
}

var analyzeLibCmd = &cobra.Command{
	Use:   "lib [verilog-file] [liberty-file]",
	Short: "Analyze the liberty cells a design actually uses",
	Long: `Reduces the liberty library to the cells the design instantiates, saves
the reduced library next to the design, and asks the model how the cell
timing characteristics relate to the design's paths.`,
	Example: `  stacli analyze lib counter.v NangateOpenCellLibrary_typical.lib

  # Library defaults to default_lib from stacli.yaml
  stacli analyze lib counter.v`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runAnalyzeLib,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.AddCommand(analyzeDesignCmd)
	analyzeCmd.AddCommand(analyzeLibCmd)
}

func runAnalyzeDesign(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	client := newGeminiClient(cfg)
	run := openRun(cfg, args[0])

	analysis, path, err := analyzeDesign(context.Background(), client, run)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %v\n", err)
		os.Exit(1)
	}

	fmt.Println(analysis)
	fmt.Printf("\n\033[90mSaved to %s\033[0m\n", path)
}

func runAnalyzeLib(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	client := newGeminiClient(cfg)
	run := openRun(cfg, args[0])

	libFile := cfg.DefaultLib
	if len(args) > 1 {
		libFile = args[1]
	}
	libName, err := run.ImportLiberty(libFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	analysis, path, err := analyzeLiberty(context.Background(), client, run, libName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %v\n", err)
		os.Exit(1)
	}

	fmt.Println(analysis)
	fmt.Printf("\n\033[90mSaved to %s\033[0m\n", path)
}

// analyzeDesign runs the design analysis stage against the run directory's
// live design. Returns the model's analysis and the path it was saved to.
func analyzeDesign(ctx context.Context, client *llm.GeminiClient, run *workspace.Run) (string, string, error) {
	design, err := os.ReadFile(run.DesignPath())
	if err != nil {
		return "", "", fmt.Errorf("reading design: %w", err)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = "Analyzing design..."
	client.OnRetry = func(wait time.Duration, cause string) {
		s.Suffix = fmt.Sprintf("Retrying in %s...", wait.Round(time.Second))
	}
	s.Start()
	resp := client.Query(ctx, prompt.DesignAnalysis(string(design)))
	s.Stop()

	if llm.IsErrorText(resp) {
		return "", "", fmt.Errorf("design analysis failed: %s", resp)
	}

	path, err := run.WriteVerilogAnalysis(resp)
	if err != nil {
		return "", "", err
	}
	return resp, path, nil
}

// analyzeLiberty reduces the imported library to the design's cells, keeps
// the reduced copy in the run directory, and runs the liberty analysis
// stage over it.
func analyzeLiberty(ctx context.Context, client *llm.GeminiClient, run *workspace.Run, libName string) (string, string, error) {
	design, err := os.ReadFile(run.DesignPath())
	if err != nil {
		return "", "", fmt.Errorf("reading design: %w", err)
	}
	library, err := os.ReadFile(filepath.Join(run.Dir(), libName))
	if err != nil {
		return "", "", fmt.Errorf("reading liberty: %w", err)
	}

	reduced := liberty.MinimalForDesign(string(design), string(library))
	if _, err := run.WriteShortenedLiberty(reduced); err != nil {
		return "", "", err
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = "Analyzing liberty cells..."
	client.OnRetry = func(wait time.Duration, cause string) {
		s.Suffix = fmt.Sprintf("Retrying in %s...", wait.Round(time.Second))
	}
	s.Start()
	resp := client.Query(ctx, prompt.LibertyAnalysis(string(design), reduced))
	s.Stop()

	if llm.IsErrorText(resp) {
		return "", "", fmt.Errorf("liberty analysis failed: %s", resp)
	}

	path, err := run.WriteLibertyAnalysis(resp)
	if err != nil {
		return "", "", err
	}
	return resp, path, nil
}
