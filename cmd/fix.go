package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"stacli/internal/config"
	"stacli/internal/events"
	"stacli/internal/liberty"
	"stacli/internal/llm"
	"stacli/internal/logger"
	"stacli/internal/remediation"
	"stacli/internal/sta"
	"stacli/internal/storage"
	"stacli/internal/workspace"

	"github.com/spf13/cobra"
)

var (
	fixIterations int
	fixDocker     bool
	fixQuiet      bool
)

var fixCmd = &cobra.Command{
	Use:   "fix [verilog-file] [liberty-file] [requirements...]",
	Short: "Iteratively repair setup/hold violations",
	Long: `Runs the measure/propose/apply loop: OpenSTA measures the design, the
model proposes a revised netlist for any violations, and the revision is
re-measured, until timing is clean or the iteration budget runs out.

Constraints are generated first if the run directory has none. Every
iteration's design, STA log, and model response are kept under
sta_violation_fixes/ in the run directory, and the best attempt is
saved as <design>_best_fixed_design.v.`,
	Example: `  stacli fix counter.v nangate_typical.lib "clock period 2ns"

  # More attempts, STA inside Docker
  stacli fix counter.v nangate_typical.lib "clock period 2ns" --iterations 5 --docker`,
	Args: cobra.MinimumNArgs(3),
	Run:  runFix,
}

func init() {
	rootCmd.AddCommand(fixCmd)
	fixCmd.Flags().IntVar(&fixIterations, "iterations", 0, "Max fix iterations (default from config)")
	fixCmd.Flags().BoolVar(&fixDocker, "docker", false, "Run OpenSTA in a Docker container")
	fixCmd.Flags().BoolVar(&fixQuiet, "quiet", false, "Suppress per-iteration progress")
}

func runFix(cmd *cobra.Command, args []string) {
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

	if !run.HasGeneratedFiles() {
		fmt.Println("\033[1m▶ Generating constraints\033[0m")
		if _, err := generateConstraints(ctx, client, run, libName, requirements); err != nil {
			fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %v\n", err)
			os.Exit(1)
		}
	}

	budget := cfg.Iterations
	if fixIterations > 0 {
		budget = fixIterations
	}

	sess := remediate(ctx, cfg, client, run, libName, budget, fixDocker, !fixQuiet)
	reportSession(cfg, run, sess)
}

// remediate drives the fix loop over the run directory's live design.
// Infrastructure failures (filesystem, interrupt) exit the process; tool
// and model failures come back in the session's status.
func remediate(ctx context.Context, cfg *config.Config, client *llm.GeminiClient, run *workspace.Run, libName string, budget int, docker, verbose bool) *remediation.Session {
	design, err := os.ReadFile(run.DesignPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	library, err := os.ReadFile(filepath.Join(run.Dir(), libName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	reduced := liberty.MinimalForDesign(string(design), string(library))
	if _, err := run.WriteShortenedLiberty(reduced); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var runner remediation.Runner = &sta.Runner{Path: cfg.STAPath, Timeout: cfg.RunTimeout}
	if docker {
		runner = &sta.DockerRunner{Image: cfg.STAImage, Timeout: cfg.RunTimeout}
	}

	bus := events.NewBus()
	runLog, err := logger.New(cfg.LogDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "\033[33m⚠\033[0m Run log disabled: %v\n", err)
		runLog = nil
	}
	bus.SubscribeAll(func(e events.Event) {
		runLog.Log(entryFromEvent(run.DesignName(), e))
	})
	client.OnRetry = func(wait time.Duration, cause string) {
		if verbose {
			fmt.Printf("\033[33m⚠\033[0m Gemini retrying in %s (%s)\n", wait.Round(time.Second), cause)
		}
		bus.Publish(events.Event{
			Type:      events.EventLLMRetry,
			Timestamp: time.Now(),
			Source:    "llm",
			Data:      map[string]interface{}{"wait": wait.String(), "cause": cause},
		})
	}

	loop := &remediation.Loop{
		STA:       runner,
		Proposer:  &llm.FixProposer{Client: client},
		Artifacts: run,
		Budget:    budget,
		Bus:       bus,
		Verbose:   verbose,
	}

	sess, err := loop.Run(ctx, run.DesignName(), string(design), reduced)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "\033[33m⚠\033[0m Interrupted")
		} else {
			fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %v\n", err)
		}
		saveSession(cfg, sess)
		os.Exit(1)
	}
	return sess
}

// reportSession persists history, writes the best design if any attempt
// was made, prints the outcome, and exits non-zero on aborts.
func reportSession(cfg *config.Config, run *workspace.Run, sess *remediation.Session) {
	saveSession(cfg, sess)

	if idx, ok := remediation.BestAttempt(sess.Attempts); ok {
		path, err := run.WriteBestDesign(sess.Attempts[idx].Design)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m Saving best design: %v\n", err)
		} else {
			fmt.Printf("\033[90mBest design: %s\033[0m\n", path)
			if changes := sess.Attempts[idx].Changes; changes != "" {
				fmt.Printf("\033[90m  %s\033[0m\n", changes)
			}
		}
	}

	fmt.Println()
	switch sess.Status {
	case remediation.StatusConverged:
		fmt.Printf("\033[1;32m✓ Timing clean after %d iteration(s)\033[0m\n", sess.Iterations)
	case remediation.StatusExhausted:
		fmt.Printf("\033[1;33m⚠ Budget exhausted after %d iteration(s)\033[0m\n", sess.Iterations)
		if snap, ok := sess.FinalSnapshot(); ok {
			fmt.Printf("  Remaining worst slack: setup %s, hold %s\n",
				slackText(snap.WorstSetupSlack), slackText(snap.WorstHoldSlack))
		}
	case remediation.StatusAborted:
		fmt.Printf("\033[1;31m✗ Aborted: %s\033[0m\n", abortMessage(sess.AbortReason))
		os.Exit(1)
	}
}

func abortMessage(reason string) string {
	switch reason {
	case remediation.AbortSTAFailed:
		return "STA run failed, see the iteration logs in the run directory"
	case remediation.AbortNoDesignExtracted:
		return "model response contained no Verilog design"
	default:
		return reason
	}
}

// saveSession records the session in history. Persistence failures never
// fail the command; the run artifacts on disk are the primary record.
func saveSession(cfg *config.Config, sess *remediation.Session) {
	db, err := storage.Open(cfg.DBPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "\033[33m⚠\033[0m History not saved: %v\n", err)
		return
	}
	defer db.Close()

	store := storage.NewSessionStore(db)
	if err := store.InitSchema(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[33m⚠\033[0m History not saved: %v\n", err)
		return
	}
	if err := store.SaveSession(storage.RecordFromSession(sess)); err != nil {
		fmt.Fprintf(os.Stderr, "\033[33m⚠\033[0m History not saved: %v\n", err)
		return
	}
	for _, rec := range storage.IterationRecordsFromSession(sess) {
		if err := store.SaveIteration(rec); err != nil {
			fmt.Fprintf(os.Stderr, "\033[33m⚠\033[0m History not saved: %v\n", err)
			return
		}
	}
}

func entryFromEvent(design string, e events.Event) logger.Entry {
	entry := logger.Entry{
		Event:     string(e.Type),
		SessionID: e.SessionID,
		Design:    design,
	}
	if data, ok := e.Data.(map[string]interface{}); ok {
		if n, ok := data["iteration"].(int); ok {
			entry.Iteration = n
		}
		if detail, err := json.Marshal(data); err == nil {
			entry.Detail = llm.RedactSecrets(string(detail))
		}
	}
	return entry
}
