package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	"stacli/internal/config"
	"stacli/internal/sta"

	"github.com/spf13/cobra"
)

var (
	doctorFix   bool
	doctorQuiet bool
)

type CheckResult struct {
	Name    string
	Status  string // "ok", "warn", "fail"
	Message string
	FixCmd  string
	FixFunc func() error
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check system health and fix issues",
	Long: `Run health checks on everything stacli depends on and optionally fix
what can be fixed.

Checks:
  - OpenSTA binary
  - Docker daemon (for --docker runs)
  - Gemini API key and endpoint
  - State directory
  - Config file`,
	Example: `  # Run health checks
  stacli doctor

  # Auto-fix issues where possible
  stacli doctor --fix`,
	Run: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Attempt to auto-fix issues")
	doctorCmd.Flags().BoolVar(&doctorQuiet, "quiet", false, "Only show failures")
}

func runDoctor(cmd *cobra.Command, args []string) {
	fmt.Println("\033[1m🔍 stacli doctor\033[0m")
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m Config: %v\n", err)
		os.Exit(1)
	}

	checks := []func(*config.Config) CheckResult{
		checkConfigFile,
		checkAPIKey,
		checkSTABinary,
		checkDockerDaemon,
		checkGeminiEndpoint,
		checkStateDir,
	}

	var failed, warned, passed int

	for _, check := range checks {
		result := check(cfg)

		if doctorQuiet && result.Status == "ok" {
			passed++
			continue
		}

		icon := getStatusIcon(result.Status)
		fmt.Printf("%s \033[1m%s\033[0m\n", icon, result.Name)
		fmt.Printf("   %s\n", result.Message)

		switch result.Status {
		case "ok":
			passed++
		case "warn":
			warned++
		case "fail":
			failed++
			if doctorFix && (result.FixCmd != "" || result.FixFunc != nil) {
				fmt.Printf("   \033[33m➜ Attempting fix...\033[0m\n")
				if err := attemptFix(result); err != nil {
					fmt.Printf("   \033[31m✗ Fix failed: %v\033[0m\n", err)
				} else {
					fmt.Printf("   \033[32m✓ Fixed!\033[0m\n")
					failed--
					passed++
				}
			} else if result.FixCmd != "" {
				fmt.Printf("   \033[36m💡 Fix: %s\033[0m\n", result.FixCmd)
			}
		}
		fmt.Println()
	}

	// Summary
	fmt.Println("\033[90m────────────────────────────────\033[0m")
	fmt.Printf("✓ %d passed  ", passed)
	if warned > 0 {
		fmt.Printf("⚠ %d warnings  ", warned)
	}
	if failed > 0 {
		fmt.Printf("\033[31m✗ %d failed\033[0m", failed)
	}
	fmt.Println()

	if failed > 0 && !doctorFix {
		fmt.Println("\n\033[33mRun 'stacli doctor --fix' to attempt auto-fixes\033[0m")
		os.Exit(1)
	}
}

func getStatusIcon(status string) string {
	switch status {
	case "ok":
		return "\033[32m✓\033[0m"
	case "warn":
		return "\033[33m⚠\033[0m"
	case "fail":
		return "\033[31m✗\033[0m"
	default:
		return "?"
	}
}

func attemptFix(result CheckResult) error {
	if result.FixFunc != nil {
		return result.FixFunc()
	}
	if result.FixCmd != "" {
		cmd := exec.Command("sh", "-c", result.FixCmd)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}
	return fmt.Errorf("no fix available")
}

func checkConfigFile(cfg *config.Config) CheckResult {
	if _, err := os.Stat(config.FileName); err == nil {
		return CheckResult{Name: "Config", Status: "ok", Message: "./" + config.FileName}
	}
	return CheckResult{
		Name:    "Config",
		Status:  "ok",
		Message: "no stacli.yaml, using defaults and environment",
	}
}

func checkAPIKey(cfg *config.Config) CheckResult {
	if !cfg.HasAPIKey() {
		return CheckResult{
			Name:    "Gemini API key",
			Status:  "fail",
			Message: "not configured; analyze/generate/fix will not run",
			FixCmd:  "export GEMINI_API_KEY=<your key>",
		}
	}
	return CheckResult{
		Name:    "Gemini API key",
		Status:  "ok",
		Message: fmt.Sprintf("configured (model %s)", cfg.Model),
	}
}

func checkSTABinary(cfg *config.Config) CheckResult {
	if _, err := exec.LookPath(cfg.STAPath); err != nil {
		return CheckResult{
			Name:    "OpenSTA",
			Status:  "fail",
			Message: fmt.Sprintf("%q not found on PATH (set sta_path in stacli.yaml or use --docker)", cfg.STAPath),
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	runner := &sta.Runner{Path: cfg.STAPath}
	version, err := runner.Version(ctx)
	if err != nil {
		return CheckResult{
			Name:    "OpenSTA",
			Status:  "warn",
			Message: fmt.Sprintf("found %s but version check failed: %v", cfg.STAPath, err),
		}
	}
	return CheckResult{Name: "OpenSTA", Status: "ok", Message: version}
}

func checkDockerDaemon(cfg *config.Config) CheckResult {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sta.Ping(ctx); err != nil {
		return CheckResult{
			Name:    "Docker",
			Status:  "warn",
			Message: "daemon not reachable; --docker runs unavailable",
			FixCmd:  "sudo systemctl start docker",
		}
	}
	return CheckResult{
		Name:    "Docker",
		Status:  "ok",
		Message: fmt.Sprintf("daemon reachable (image %s)", cfg.STAImage),
	}
}

func checkGeminiEndpoint(cfg *config.Config) CheckResult {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(cfg.APIBaseURL)
	if err != nil {
		return CheckResult{
			Name:    "Network",
			Status:  "warn",
			Message: "cannot reach the Gemini API endpoint",
		}
	}
	defer resp.Body.Close()

	return CheckResult{Name: "Network", Status: "ok", Message: "Gemini API endpoint reachable"}
}

func checkStateDir(cfg *config.Config) CheckResult {
	dir := cfg.StateDir
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return CheckResult{
			Name:    "State directory",
			Status:  "warn",
			Message: fmt.Sprintf("%s does not exist (created on first fix run)", dir),
			FixFunc: func() error {
				return os.MkdirAll(dir, 0755)
			},
		}
	}
	return CheckResult{Name: "State directory", Status: "ok", Message: dir}
}
