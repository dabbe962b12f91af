package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"stacli/internal/storage"
	"stacli/internal/textutil"
	"stacli/internal/tui"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	sessionsLimit  int
	sessionsBrowse bool
	sessionsPager  bool
	sessionsForce  bool
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List and inspect past fix sessions",
	Example: `  # Recent sessions, newest first
  stacli sessions

  # Interactive browser
  stacli sessions --browse

  # Session IDs accept unique prefixes
  stacli sessions show 4f2a
  stacli sessions delete 4f2a --force`,
	Run: runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show one session's iterations and outcome",
	Args:  cobra.ExactArgs(1),
	Run:   runSessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete [session-id]",
	Short: "Delete a session from history",
	Args:  cobra.ExactArgs(1),
	Run:   runSessionsDelete,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "Max sessions to list")
	sessionsCmd.Flags().BoolVar(&sessionsBrowse, "browse", false, "Open the interactive session browser")
	sessionsShowCmd.Flags().BoolVar(&sessionsPager, "pager", false, "View in a scrollable pager")
	sessionsDeleteCmd.Flags().BoolVar(&sessionsForce, "force", false, "Skip confirmation")
}

func openStore() (*storage.SessionStore, func()) {
	cfg := loadConfig()
	db, err := storage.Open(cfg.DBPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	store := storage.NewSessionStore(db)
	if err := store.InitSchema(); err != nil {
		db.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return store, func() { db.Close() }
}

func runSessionsList(cmd *cobra.Command, args []string) {
	store, closeDB := openStore()
	defer closeDB()

	if sessionsBrowse {
		if err := tui.Browse(store); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	recs, err := store.ListSessions(sessionsLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(recs) == 0 {
		fmt.Println("No sessions recorded yet. Run 'stacli fix' to create one.")
		return
	}

	fmt.Printf("\033[1m%-10s %-20s   %-11s %4s %8s %8s  %s\033[0m\n",
		"ID", "DESIGN", "STATUS", "ITER", "SETUP", "HOLD", "STARTED")
	for _, rec := range recs {
		fmt.Printf("%-10s %-20s %s %-11s %4d %8s %8s  %s\n",
			shortID(rec.ID),
			textutil.TruncateWithEllipsis(rec.Design, 20),
			statusGlyph(rec.Status),
			rec.Status,
			rec.Iterations,
			slackText(rec.SetupSlack),
			slackText(rec.HoldSlack),
			rec.StartedAt.Format("Jan 02 15:04"))
	}
}

func runSessionsShow(cmd *cobra.Command, args []string) {
	store, closeDB := openStore()
	defer closeDB()

	rec := resolveSession(store, args[0])
	iters, err := store.ListIterations(rec.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	content := formatSessionDetail(rec, iters)
	if sessionsPager {
		if err := tui.RunPager("Session "+shortID(rec.ID), content); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	fmt.Print(content)
}

func runSessionsDelete(cmd *cobra.Command, args []string) {
	store, closeDB := openStore()
	defer closeDB()

	rec := resolveSession(store, args[0])

	if !sessionsForce {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: refusing to delete without confirmation; use --force")
			os.Exit(1)
		}
		fmt.Printf("Delete session %s (%s, %s)? [y/N]: ", shortID(rec.ID), rec.Design, rec.Status)
		var resp string
		fmt.Scanln(&resp)
		if resp != "y" && resp != "Y" {
			fmt.Println("Cancelled")
			return
		}
	}

	if err := store.DeleteSession(rec.ID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\033[32m✓\033[0m Deleted %s\n", shortID(rec.ID))
}

// resolveSession accepts a full session ID or a unique prefix.
func resolveSession(store *storage.SessionStore, id string) *storage.SessionRecord {
	rec, err := store.GetSession(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if rec != nil {
		return rec
	}

	recs, err := store.ListSessions(1000)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	var matches []storage.SessionRecord
	for _, r := range recs {
		if strings.HasPrefix(r.ID, id) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 1:
		return &matches[0]
	case 0:
		fmt.Fprintf(os.Stderr, "Error: no session matching %q\n", id)
	default:
		fmt.Fprintf(os.Stderr, "Error: %q matches %d sessions, be more specific\n", id, len(matches))
	}
	os.Exit(1)
	return nil
}

func formatSessionDetail(rec *storage.SessionRecord, iters []storage.IterationRecord) string {
	var b strings.Builder

	status := rec.Status
	if rec.AbortReason != "" {
		status += " (" + rec.AbortReason + ")"
	}
	fmt.Fprintf(&b, "Design:      %s\n", rec.Design)
	fmt.Fprintf(&b, "Status:      %s\n", status)
	fmt.Fprintf(&b, "Started:     %s\n", rec.StartedAt.Format(time.RFC822))
	if !rec.CompletedAt.IsZero() {
		fmt.Fprintf(&b, "Duration:    %s\n", rec.CompletedAt.Sub(rec.StartedAt).Round(time.Second))
	}
	fmt.Fprintf(&b, "Iterations:  %d of %d\n", rec.Iterations, rec.Budget)
	fmt.Fprintf(&b, "Setup slack: %s\n", slackText(rec.SetupSlack))
	fmt.Fprintf(&b, "Hold slack:  %s\n", slackText(rec.HoldSlack))

	if len(iters) > 0 {
		b.WriteString("\nIterations:\n")
		fmt.Fprintf(&b, "  %3s  %8s  %8s  %s\n", "#", "SETUP", "HOLD", "FIX")
		for _, it := range iters {
			fix := it.Changes
			if fix == "" {
				fix = "-"
			}
			fmt.Fprintf(&b, "  %3d  %8s  %8s  %s\n",
				it.Iteration, slackText(it.SetupSlack), slackText(it.HoldSlack), fix)
		}
	}
	if rec.BestChanges != "" {
		b.WriteString("\nBest fix: " + rec.BestChanges + "\n")
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func statusGlyph(status string) string {
	switch status {
	case "converged":
		return "\033[32m✓\033[0m"
	case "exhausted":
		return "\033[33m⚠\033[0m"
	case "aborted":
		return "\033[31m✗\033[0m"
	default:
		return "\033[34m▶\033[0m"
	}
}
