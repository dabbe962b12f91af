package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"stacli/internal/storage"

	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOut    string
	exportLimit  int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export session history as JSON or CSV",
	Long: `Dumps recorded sessions for offline analysis. JSON includes each
session's per-iteration history; CSV is one flat row per session.`,
	Example: `  stacli export > sessions.json

  stacli export --format csv --output sessions.csv`,
	Run: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format: json or csv")
	exportCmd.Flags().StringVar(&exportOut, "output", "", "Write to file instead of stdout")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 1000, "Max sessions to export")
}

type sessionExport struct {
	ID          string            `json:"id"`
	Design      string            `json:"design"`
	Status      string            `json:"status"`
	AbortReason string            `json:"abort_reason,omitempty"`
	Budget      int               `json:"budget"`
	Iterations  int               `json:"iterations"`
	SetupSlack  *float64          `json:"setup_slack"`
	HoldSlack   *float64          `json:"hold_slack"`
	BestChanges string            `json:"best_changes,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	History     []iterationExport `json:"history,omitempty"`
}

type iterationExport struct {
	Iteration     int      `json:"iteration"`
	SetupSlack    *float64 `json:"setup_slack"`
	HoldSlack     *float64 `json:"hold_slack"`
	HasViolations bool     `json:"has_violations"`
	Changes       string   `json:"changes,omitempty"`
}

func runExport(cmd *cobra.Command, args []string) {
	if exportFormat != "json" && exportFormat != "csv" {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q (json or csv)\n", exportFormat)
		os.Exit(1)
	}

	store, closeDB := openStore()
	defer closeDB()

	recs, err := store.ListSessions(exportLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var w io.Writer = os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	switch exportFormat {
	case "json":
		err = exportJSON(w, store, recs)
	case "csv":
		err = exportCSV(w, recs)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if exportOut != "" {
		fmt.Fprintf(os.Stderr, "\033[32m✓\033[0m Exported %d session(s) to %s\n", len(recs), exportOut)
	}
}

func exportJSON(w io.Writer, store *storage.SessionStore, recs []storage.SessionRecord) error {
	out := make([]sessionExport, 0, len(recs))
	for _, rec := range recs {
		iters, err := store.ListIterations(rec.ID)
		if err != nil {
			return err
		}
		history := make([]iterationExport, 0, len(iters))
		for _, it := range iters {
			history = append(history, iterationExport{
				Iteration:     it.Iteration,
				SetupSlack:    it.SetupSlack,
				HoldSlack:     it.HoldSlack,
				HasViolations: it.HasViolations,
				Changes:       it.Changes,
			})
		}

		exp := sessionExport{
			ID:          rec.ID,
			Design:      rec.Design,
			Status:      rec.Status,
			AbortReason: rec.AbortReason,
			Budget:      rec.Budget,
			Iterations:  rec.Iterations,
			SetupSlack:  rec.SetupSlack,
			HoldSlack:   rec.HoldSlack,
			BestChanges: rec.BestChanges,
			StartedAt:   rec.StartedAt,
			History:     history,
		}
		if !rec.CompletedAt.IsZero() {
			completed := rec.CompletedAt
			exp.CompletedAt = &completed
		}
		out = append(out, exp)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func exportCSV(w io.Writer, recs []storage.SessionRecord) error {
	cw := csv.NewWriter(w)
	header := []string{"id", "design", "status", "abort_reason", "budget",
		"iterations", "setup_slack", "hold_slack", "started_at", "completed_at"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, rec := range recs {
		completed := ""
		if !rec.CompletedAt.IsZero() {
			completed = rec.CompletedAt.Format(time.RFC3339)
		}
		row := []string{
			rec.ID,
			rec.Design,
			rec.Status,
			rec.AbortReason,
			strconv.Itoa(rec.Budget),
			strconv.Itoa(rec.Iterations),
			csvSlack(rec.SetupSlack),
			csvSlack(rec.HoldSlack),
			rec.StartedAt.Format(time.RFC3339),
			completed,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvSlack(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}
