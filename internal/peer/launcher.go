package peer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ascbridge/internal/logging"
)

// Environment variables exported to the peer.
const (
	EnvPipeDir = "ASCBRIDGE_PIPE_DIR"
	EnvPipeRx  = "ASCBRIDGE_PIPE_RX"
	EnvPipeTx  = "ASCBRIDGE_PIPE_TX"
)

// Options configure a Launcher.
type Options struct {
	Executable  string
	WorkDir     string
	StdoutPath  string
	StderrPath  string
	RxName      string
	TxName      string
	StopTimeout time.Duration
	Logger      *slog.Logger
}

// Launcher owns at most one running peer process.
type Launcher struct {
	opts   Options
	logger *slog.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	exited chan struct{}
}

// New constructs a Launcher.
func New(opts Options) (*Launcher, error) {
	opts.Executable = strings.TrimSpace(opts.Executable)
	if opts.Executable == "" {
		return nil, errors.New("peer executable required")
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = 5 * time.Second
	}
	return &Launcher{opts: opts, logger: logging.NewComponentLogger(opts.Logger, "peer")}, nil
}

// Start launches the executable. The process outlives ctx; use Stop to end it.
func (l *Launcher) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cmd != nil {
		return errors.New("peer already running")
	}

	stdout, err := openOutput(l.opts.StdoutPath)
	if err != nil {
		return err
	}
	stderr, err := openOutput(l.opts.StderrPath)
	if err != nil {
		closeAll(stdout)
		return err
	}

	cmd := exec.Command(l.opts.Executable)
	cmd.Dir = l.opts.WorkDir
	if stdout != nil {
		cmd.Stdout = stdout
	}
	if stderr != nil {
		cmd.Stderr = stderr
	}
	cmd.Env = append(os.Environ(),
		EnvPipeDir+"="+l.opts.WorkDir,
		EnvPipeRx+"="+l.opts.RxName,
		EnvPipeTx+"="+l.opts.TxName,
	)
	if err := cmd.Start(); err != nil {
		closeAll(stdout, stderr)
		return fmt.Errorf("start %s: %w", l.opts.Executable, err)
	}

	exited := make(chan struct{})
	l.cmd = cmd
	l.exited = exited
	go func() {
		err := cmd.Wait()
		closeAll(stdout, stderr)
		l.logger.Debug("peer exited", logging.Int("pid", cmd.Process.Pid), logging.Error(err))
		close(exited)
	}()

	l.logger.Info("peer started",
		logging.String("executable", l.opts.Executable),
		logging.Int("pid", cmd.Process.Pid),
	)
	return nil
}

// Stop interrupts the process, kills it if it is still running after
// StopTimeout, and waits for it to exit. Platforms without interrupt
// delivery go straight to kill.
func (l *Launcher) Stop() error {
	l.mu.Lock()
	cmd, exited := l.cmd, l.exited
	l.cmd, l.exited = nil, nil
	l.mu.Unlock()
	if cmd == nil {
		return nil
	}
	pid := cmd.Process.Pid

	switch err := cmd.Process.Signal(os.Interrupt); {
	case err == nil:
		select {
		case <-exited:
			l.logger.Info("peer stopped", logging.Int("pid", pid))
			return nil
		case <-time.After(l.opts.StopTimeout):
			l.logger.Warn("peer ignored interrupt; killing",
				logging.Int("pid", pid),
				logging.Duration("timeout", l.opts.StopTimeout),
			)
		}
	case errors.Is(err, os.ErrProcessDone):
		<-exited
		return nil
	default:
		l.logger.Debug("interrupt not delivered", logging.Int("pid", pid), logging.Error(err))
	}

	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill peer: %w", err)
	}
	select {
	case <-exited:
	case <-time.After(l.opts.StopTimeout):
		return fmt.Errorf("peer pid %d did not exit within %s", pid, l.opts.StopTimeout)
	}
	l.logger.Info("peer killed", logging.Int("pid", pid))
	return nil
}

// Running reports whether a started process has not exited yet.
func (l *Launcher) Running() bool {
	l.mu.Lock()
	exited := l.exited
	l.mu.Unlock()
	if exited == nil {
		return false
	}
	select {
	case <-exited:
		return false
	default:
		return true
	}
}

// PID returns the process id of the running peer, or 0.
func (l *Launcher) PID() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cmd == nil || l.cmd.Process == nil {
		return 0
	}
	return l.cmd.Process.Pid
}

func openOutput(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open peer output: %w", err)
	}
	return file, nil
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		if f != nil {
			_ = f.Close()
		}
	}
}
