//go:build !windows

package pipe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"ascbridge/internal/logging"
)

const (
	fifoMode          = 0o600
	unblockRetryDelay = 10 * time.Millisecond
	unblockAttempts   = 200
)

type fifoOpener struct {
	dir    string
	role   Role
	logger *slog.Logger
}

// NewOpener returns the FIFO-backed opener.
func NewOpener(opts Options) Opener {
	return &fifoOpener{
		dir:    opts.Dir,
		role:   opts.Role,
		logger: loggerOrDefault(opts.Logger),
	}
}

// Path returns the FIFO location used for name.
func Path(dir, name string) string {
	return filepath.Join(dir, name)
}

func (o *fifoOpener) Open(ctx context.Context, name string, dir Direction) (Transport, error) {
	path := Path(o.dir, name)
	if err := ensureFIFO(path, o.logger); err != nil {
		return nil, err
	}

	flag := os.O_RDONLY
	if dir == Outbound {
		flag = os.O_WRONLY
	}
	file, err := openFIFO(ctx, path, flag)
	if err != nil {
		return nil, fmt.Errorf("open %s pipe %s: %w", dir, path, err)
	}
	o.logger.Info("pipe opened",
		logging.String(logging.FieldPipe, path),
		logging.String("direction", dir.String()),
		logging.String("role", o.role.String()),
	)

	t := &fifoTransport{
		name:   path,
		file:   file,
		remove: o.role == RoleConnector,
		logger: o.logger,
	}
	if dir == Inbound {
		t.reader = newLineReader(file)
	} else {
		t.writer = newLineWriter(file)
	}
	return t, nil
}

func ensureFIFO(path string, logger *slog.Logger) error {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if info.Mode()&fs.ModeNamedPipe == 0 {
			return fmt.Errorf("%s exists and is not a fifo", path)
		}
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("stat fifo %s: %w", path, err)
	}

	logging.WarnWithContext(logger, "fifo missing; creating",
		"pipe_create",
		logging.String(logging.FieldPipe, path),
		logging.String(logging.FieldImpact, "none"),
	)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create fifo directory: %w", err)
	}
	// Both ends may race to create the same file.
	if err := unix.Mkfifo(path, fifoMode); err != nil && !errors.Is(err, unix.EEXIST) {
		return fmt.Errorf("mkfifo %s: %w", path, err)
	}
	return nil
}

type openResult struct {
	file *os.File
	err  error
}

// openFIFO performs the blocking open in a goroutine. When ctx ends first the
// pending open is released by briefly attaching the opposite end.
func openFIFO(ctx context.Context, path string, flag int) (*os.File, error) {
	done := make(chan openResult, 1)
	go func() {
		file, err := os.OpenFile(path, flag, 0)
		done <- openResult{file: file, err: err}
	}()

	select {
	case res := <-done:
		return res.file, res.err
	case <-ctx.Done():
	}

	opposite := os.O_WRONLY
	if flag == os.O_WRONLY {
		opposite = os.O_RDONLY
	}
	for range unblockAttempts {
		if fd, err := unix.Open(path, opposite|unix.O_NONBLOCK|unix.O_CLOEXEC, 0); err == nil {
			res := <-done
			_ = unix.Close(fd)
			if res.file != nil {
				_ = res.file.Close()
			}
			return nil, ctx.Err()
		}
		select {
		case res := <-done:
			if res.file != nil {
				_ = res.file.Close()
			}
			return nil, ctx.Err()
		case <-time.After(unblockRetryDelay):
		}
	}
	return nil, ctx.Err()
}

type fifoTransport struct {
	name   string
	file   *os.File
	reader *lineReader
	writer *lineWriter
	remove bool
	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

func (t *fifoTransport) Read() ([]string, error) {
	if t.reader == nil {
		return nil, fmt.Errorf("read %s: transport is write-only", t.name)
	}
	lines, err := t.reader.Read()
	if err != nil {
		return nil, broken(t.name, "read", err)
	}
	return lines, nil
}

func (t *fifoTransport) Write(text string) error {
	if t.writer == nil {
		return fmt.Errorf("write %s: transport is read-only", t.name)
	}
	if err := t.writer.Write(text); err != nil {
		return broken(t.name, "write", err)
	}
	return nil
}

func (t *fifoTransport) Disconnect() error {
	t.closeOnce.Do(func() {
		if err := t.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			t.closeErr = fmt.Errorf("close %s: %w", t.name, err)
		}
		if t.remove {
			if err := os.Remove(t.name); err != nil && !errors.Is(err, fs.ErrNotExist) {
				t.closeErr = errors.Join(t.closeErr, fmt.Errorf("remove %s: %w", t.name, err))
			}
		}
		t.logger.Debug("pipe disconnected", logging.String(logging.FieldPipe, t.name))
	})
	return t.closeErr
}
