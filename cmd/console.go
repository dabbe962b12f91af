package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var consoleDir string

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive OpenSTA shell",
	Long: `Starts the configured OpenSTA binary in a pseudo-terminal wired to
yours. Useful for poking at a run directory by hand: read_liberty,
read_verilog, report_checks and friends behave exactly as in scripted
runs. Type exit to leave.`,
	Example: `  # Start in a design's run directory
  stacli console --dir sta-runs/counter`,
	Run: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().StringVar(&consoleDir, "dir", ".", "Working directory for the STA process")
}

func runConsole(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: console needs a terminal")
		os.Exit(1)
	}
	if _, err := exec.LookPath(cfg.STAPath); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m OpenSTA not found: %v\n", err)
		fmt.Fprintln(os.Stderr, "  Install OpenSTA or set sta_path in stacli.yaml")
		os.Exit(1)
	}

	fmt.Printf("\033[90mStarting %s in %s\033[0m\n", cfg.STAPath, consoleDir)

	c := exec.Command(cfg.STAPath)
	c.Dir = consoleDir
	c.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.Start(c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer ptmx.Close()

	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	go func() {
		for range winch {
			pty.InheritSize(os.Stdin, ptmx)
		}
	}()
	winch <- syscall.SIGWINCH
	defer signal.Stop(winch)

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	go io.Copy(ptmx, os.Stdin)
	io.Copy(os.Stdout, ptmx)
	c.Wait()
}
