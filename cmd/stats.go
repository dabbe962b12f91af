package cmd

import (
	"fmt"
	"os"
	"sort"

	"stacli/internal/analytics"
	"stacli/internal/storage"
	"stacli/internal/textutil"

	"github.com/spf13/cobra"
)

var statsTop int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Convergence statistics across recorded sessions",
	Example: `  stacli stats

  # Per-design breakdown for the 5 most-run designs
  stacli stats --top 5`,
	Run: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().IntVar(&statsTop, "top", 10, "Designs to show in the breakdown")
}

func runStats(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	db, err := storage.Open(cfg.DBPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := storage.NewSessionStore(db).InitSchema(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	an := analytics.NewAnalyzer(db)
	sum, err := an.Summary()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if sum.TotalSessions == 0 {
		fmt.Println("No sessions recorded yet. Run 'stacli fix' to create one.")
		return
	}

	fmt.Println("\033[1m▶ Overview\033[0m")
	fmt.Printf("  Sessions:         %d across %d design(s)\n", sum.TotalSessions, sum.Designs)
	fmt.Printf("  Convergence rate: %.0f%%\n", sum.ConvergenceRate*100)
	fmt.Printf("  Avg iterations:   %.1f\n", sum.AvgIterations)

	statuses := make([]string, 0, len(sum.ByStatus))
	for status := range sum.ByStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		fmt.Printf("  %s %-11s %d\n", statusGlyph(status), status, sum.ByStatus[status])
	}

	breakdown, err := an.DesignBreakdown(statsTop)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(breakdown) == 0 {
		return
	}

	fmt.Println("\n\033[1m▶ By design\033[0m")
	fmt.Printf("  \033[1m%-20s %6s %10s %9s %11s\033[0m\n",
		"DESIGN", "RUNS", "CONVERGED", "AVG ITER", "BEST SETUP")
	for _, d := range breakdown {
		fmt.Printf("  %-20s %6d %9.0f%% %9.1f %11s\n",
			textutil.TruncateWithEllipsis(d.Design, 20),
			d.TotalSessions,
			d.ConvergenceRate*100,
			d.AvgIterations,
			slackText(d.BestSetupSlack))
	}
}
