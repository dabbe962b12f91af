// Package sta shells out to OpenSTA. The tool reads a TCL script that loads
// the design and constraints and prints timing reports on stdout; everything
// downstream works from that captured stdout.
package sta

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultBinary is the OpenSTA executable name resolved via PATH.
const DefaultBinary = "sta"

// DefaultTimeout caps a single STA run.
const DefaultTimeout = 120 * time.Second

// Result captures one STA invocation. Log is the tool's stdout, which is
// also written to the log path the caller supplied.
type Result struct {
	Command  string
	ExitCode int
	Log      string
	Stderr   string
	Duration time.Duration
}

// Runner executes OpenSTA on the local host.
type Runner struct {
	Path    string
	Timeout time.Duration
}

// Run invokes `sta -exit <script>` with the script's directory as the
// working directory, so relative file references inside the script resolve
// next to it. Stdout is teed to logPath even when the run fails; a non-zero
// exit comes back in the Result, not as an error.
func (r *Runner) Run(ctx context.Context, scriptPath, logPath string) (*Result, error) {
	bin := r.Path
	if bin == "" {
		bin = DefaultBinary
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	script := filepath.Base(scriptPath)
	cmd := exec.CommandContext(runCtx, bin, "-exit", script)
	cmd.Dir = filepath.Dir(scriptPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if logPath != "" && stdout.Len() > 0 {
		if werr := os.WriteFile(logPath, stdout.Bytes(), 0o644); werr != nil {
			return nil, fmt.Errorf("writing sta log: %w", werr)
		}
	}

	res := &Result{
		Command:  fmt.Sprintf("%s -exit %s", bin, script),
		Log:      stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("sta timed out after %s", timeout)
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return nil, fmt.Errorf("running sta: %w", err)
	}

	return res, nil
}

// Version reports the installed OpenSTA version string.
func (r *Runner) Version(ctx context.Context) (string, error) {
	bin := r.Path
	if bin == "" {
		bin = DefaultBinary
	}
	out, err := exec.CommandContext(ctx, bin, "-version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("sta version check failed: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
