package sta

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// DefaultImage runs OpenSTA without a local install.
const DefaultImage = "openroad/opensta:latest"

const workMount = "/work"

// DockerRunner executes OpenSTA inside a container, bind-mounting the
// script's directory so generated files land in the run directory exactly
// as with the local runner.
type DockerRunner struct {
	Image   string
	Timeout time.Duration
}

func (d *DockerRunner) Run(ctx context.Context, scriptPath, logPath string) (*Result, error) {
	img := d.Image
	if img == "" {
		img = DefaultImage
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	dir, err := filepath.Abs(filepath.Dir(scriptPath))
	if err != nil {
		return nil, fmt.Errorf("resolving script dir: %w", err)
	}
	script := filepath.Base(scriptPath)

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker client failed: %w", err)
	}
	defer cli.Close()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Best effort: a cached image still works when the registry is
	// unreachable, so pull failures are not fatal here.
	if rc, perr := cli.ImagePull(runCtx, img, image.PullOptions{}); perr == nil {
		io.Copy(io.Discard, rc)
		rc.Close()
	}

	start := time.Now()
	created, err := cli.ContainerCreate(runCtx, &container.Config{
		Image:      img,
		Cmd:        []string{"sta", "-exit", script},
		WorkingDir: workMount,
	}, &container.HostConfig{
		Binds: []string{dir + ":" + workMount},
	}, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("creating sta container: %w", err)
	}
	defer cli.ContainerRemove(context.Background(), created.ID, container.RemoveOptions{Force: true})

	if err := cli.ContainerStart(runCtx, created.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("starting sta container: %w", err)
	}

	var exitCode int
	statusCh, errCh := cli.ContainerWait(runCtx, created.ID, container.WaitConditionNotRunning)
	select {
	case werr := <-errCh:
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("sta timed out after %s", timeout)
		}
		return nil, fmt.Errorf("waiting for sta container: %w", werr)
	case status := <-statusCh:
		exitCode = int(status.StatusCode)
	}
	duration := time.Since(start)

	logs, err := cli.ContainerLogs(runCtx, created.ID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("reading sta container logs: %w", err)
	}
	defer logs.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, logs); err != nil {
		return nil, fmt.Errorf("demuxing sta container logs: %w", err)
	}

	if logPath != "" && stdout.Len() > 0 {
		if werr := os.WriteFile(logPath, stdout.Bytes(), 0o644); werr != nil {
			return nil, fmt.Errorf("writing sta log: %w", werr)
		}
	}

	return &Result{
		Command:  fmt.Sprintf("docker run %s sta -exit %s", img, script),
		ExitCode: exitCode,
		Log:      stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}, nil
}

// Ping reports whether a Docker daemon is reachable.
func Ping(ctx context.Context) error {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return fmt.Errorf("docker client failed: %w", err)
	}
	defer cli.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(pingCtx); err != nil {
		return fmt.Errorf("daemon unavailable: %w", err)
	}
	return nil
}
