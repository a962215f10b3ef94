package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"ascbridge/internal/ipc"
)

// PIDFileName is the pid file the daemon writes into its log directory.
const PIDFileName = "ascbridge.pid"

const defaultPoll = 200 * time.Millisecond

// ErrDaemonNotRunning indicates nothing answers on the control socket.
var ErrDaemonNotRunning = errors.New("daemon not running")

// Controller drives one daemon identified by its control socket.
type Controller struct {
	SocketPath string
	// Executable is the ascbridge binary launched by Start.
	Executable string
	// Poll is the socket probe interval; zero means 200ms.
	Poll time.Duration
}

// LaunchOptions are forwarded to `ascbridge daemon run`.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
}

// StartResult reports whether Start had to launch a process.
type StartResult struct {
	Launched bool
	PID      int
}

// StopResult reports how the daemon went away.
type StopResult struct {
	ShutdownAcknowledged bool
	ForcedKill           bool
	PID                  int
}

// Running reports whether the control socket answers.
func (c Controller) Running() bool {
	client, err := ipc.Dial(c.SocketPath)
	if err != nil {
		return false
	}
	_ = client.Close()
	return true
}

// Start launches a detached daemon unless one already answers, then waits
// until its socket is reachable or ctx ends.
func (c Controller) Start(ctx context.Context, opts LaunchOptions) (StartResult, error) {
	var result StartResult
	if !c.Running() {
		if err := c.launch(opts); err != nil {
			return result, err
		}
		result.Launched = true
		if err := c.await(ctx, true); err != nil {
			return result, fmt.Errorf("daemon failed to start: %w", err)
		}
	}

	client, err := ipc.Dial(c.SocketPath)
	if err != nil {
		return result, err
	}
	defer client.Close()
	status, err := client.Status()
	if err != nil {
		return result, err
	}
	result.PID = status.PID
	return result, nil
}

// Stop asks the daemon to shut down over IPC. When the socket still answers
// after grace, the process named in the pid file next to the lock is killed.
func (c Controller) Stop(grace time.Duration) (StopResult, error) {
	client, err := ipc.Dial(c.SocketPath)
	if err != nil {
		if unreachable(err) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return StopResult{}, err
	}
	var result StopResult
	var lockPath string
	if status, err := client.Status(); err == nil {
		result.PID = status.PID
		lockPath = status.LockPath
	}
	resp, err := client.Shutdown()
	_ = client.Close()
	if err != nil {
		return result, err
	}
	result.ShutdownAcknowledged = resp.Acknowledged

	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if c.await(ctx, false) == nil {
		return result, nil
	}

	if lockPath == "" {
		return result, errors.New("daemon ignored shutdown and reported no lock path")
	}
	pidPath := filepath.Join(filepath.Dir(lockPath), PIDFileName)
	pid, err := KillFromPIDFile(pidPath, lockPath, result.PID)
	if err != nil {
		return result, fmt.Errorf("failed to stop daemon process: %w", err)
	}
	_ = os.Remove(c.SocketPath)
	result.ForcedKill = true
	result.PID = pid
	return result, nil
}

func (c Controller) launch(opts LaunchOptions) error {
	exe := strings.TrimSpace(c.Executable)
	if exe == "" {
		return errors.New("launch daemon: executable path is empty")
	}
	args := []string{"daemon", "run", "--socket", c.SocketPath}
	if opts.ConfigPath != "" {
		args = append(args, "--config", opts.ConfigPath)
	}
	if opts.LogLevel != "" {
		args = append(args, "--log-level", opts.LogLevel)
	}
	proc := exec.Command(exe, args...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// await polls until the socket's reachability equals up.
func (c Controller) await(ctx context.Context, up bool) error {
	poll := c.Poll
	if poll <= 0 {
		poll = defaultPoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		if c.Running() == up {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// KillFromPIDFile kills the daemon recorded in pidPath, or fallbackPID when
// the file is missing, then removes the pid and lock files.
func KillFromPIDFile(pidPath, lockPath string, fallbackPID int) (int, error) {
	pid := fallbackPID
	switch data, err := os.ReadFile(pidPath); {
	case err == nil:
		if parsed, perr := strconv.Atoi(strings.TrimSpace(string(data))); perr == nil && parsed > 0 {
			pid = parsed
		}
	case !errors.Is(err, os.ErrNotExist):
		return 0, fmt.Errorf("read pid file %s: %w", pidPath, err)
	}
	switch {
	case pid <= 0:
		return 0, fmt.Errorf("no daemon pid known (pid file %s)", pidPath)
	case pid == os.Getpid():
		return 0, fmt.Errorf("refusing to kill current process (pid %d)", pid)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := proc.Kill(); err != nil {
		return 0, fmt.Errorf("kill process %d: %w", pid, err)
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return pid, fmt.Errorf("remove pid file %s: %w", pidPath, err)
	}
	if lockPath != "" {
		_ = os.Remove(lockPath)
	}
	return pid, nil
}

func unreachable(err error) bool {
	return errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
