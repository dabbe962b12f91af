package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

var (
	runIterations int
	runDocker     bool
)

var runCmd = &cobra.Command{
	Use:   "run [verilog-file] [liberty-file] [requirements...]",
	Short: "Full workflow: analyze, generate constraints, fix violations",
	Long: `Runs all four stages in order: design analysis, liberty analysis,
constraint generation, and the violation fix loop. Stage outputs are
previewed as they complete; the full text of each lands in the
design's run directory.`,
	Example: `  stacli run counter.v nangate_typical.lib "clock period 2ns"`,
	Args:    cobra.MinimumNArgs(3),
	Run:     runWorkflow,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVar(&runIterations, "iterations", 0, "Max fix iterations (default from config)")
	runCmd.Flags().BoolVar(&runDocker, "docker", false, "Run OpenSTA in a Docker container")
}

func runWorkflow(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	client := newGeminiClient(cfg)
	run := openRun(cfg, args[0])

	libName, err := run.ImportLiberty(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	requirements := strings.Join(args[2:], " ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("\033[1m▶ [1/4] Design analysis\033[0m")
	analysis, path, err := analyzeDesign(ctx, client, run)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %v\n", err)
		os.Exit(1)
	}
	preview(analysis, 10)
	fmt.Printf("\033[90mSaved to %s\033[0m\n\n", path)

	fmt.Println("\033[1m▶ [2/4] Liberty analysis\033[0m")
	analysis, path, err = analyzeLiberty(ctx, client, run, libName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %v\n", err)
		os.Exit(1)
	}
	preview(analysis, 10)
	fmt.Printf("\033[90mSaved to %s\033[0m\n\n", path)

	fmt.Println("\033[1m▶ [3/4] Constraint generation\033[0m")
	usedDefault, err := generateConstraints(ctx, client, run, libName, requirements)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %v\n", err)
		os.Exit(1)
	}
	if sdc, err := os.ReadFile(run.SDCPath()); err == nil {
		preview(string(sdc), 10)
	}
	if usedDefault {
		fmt.Println("\033[90mModel TCL rejected, using the default run script\033[0m")
	}
	fmt.Println()

	budget := cfg.Iterations
	if runIterations > 0 {
		budget = runIterations
	}

	fmt.Println("\033[1m▶ [4/4] Violation fixes\033[0m")
	sess := remediate(ctx, cfg, client, run, libName, budget, runDocker, true)
	reportSession(cfg, run, sess)
}

// preview prints the first n lines of a stage's output, indented.
func preview(text string, n int) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		if i == n {
			fmt.Printf("\033[90m  ... %d more lines\033[0m\n", len(lines)-n)
			break
		}
		fmt.Printf("  %s\n", line)
	}
}
