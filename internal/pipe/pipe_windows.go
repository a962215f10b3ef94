//go:build windows

package pipe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/Microsoft/go-winio"

	"ascbridge/internal/logging"
)

const (
	pipeBufferSize = 64 * 1024
	dialRetryDelay = 100 * time.Millisecond
)

type namedPipeOpener struct {
	role   Role
	logger *slog.Logger
}

// NewOpener returns the named-pipe opener. The peer role creates and serves
// each pipe; the connector role dials it.
func NewOpener(opts Options) Opener {
	return &namedPipeOpener{role: opts.Role, logger: loggerOrDefault(opts.Logger)}
}

// Path returns the named pipe path used for name. dir is ignored.
func Path(_ string, name string) string {
	return `\\.\pipe\` + name
}

func (o *namedPipeOpener) Open(ctx context.Context, name string, dir Direction) (Transport, error) {
	path := Path("", name)
	var (
		conn net.Conn
		err  error
	)
	if o.role == RolePeer {
		conn, err = acceptOne(ctx, path)
	} else {
		conn, err = dialUntilReady(ctx, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s pipe %s: %w", dir, path, err)
	}
	o.logger.Info("pipe opened",
		logging.String(logging.FieldPipe, path),
		logging.String("direction", dir.String()),
		logging.String("role", o.role.String()),
	)

	t := &namedPipeTransport{name: path, conn: conn, logger: o.logger}
	if dir == Inbound {
		t.reader = newLineReader(conn)
	} else {
		t.writer = newLineWriter(conn)
	}
	return t, nil
}

// dialUntilReady retries while the serving end has not created the pipe yet.
func dialUntilReady(ctx context.Context, path string) (net.Conn, error) {
	for {
		conn, err := winio.DialPipeContext(ctx, path)
		if err == nil {
			return conn, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialRetryDelay):
		}
	}
}

func acceptOne(ctx context.Context, path string) (net.Conn, error) {
	listener, err := winio.ListenPipe(path, &winio.PipeConfig{
		InputBufferSize:  pipeBufferSize,
		OutputBufferSize: pipeBufferSize,
	})
	if err != nil {
		return nil, err
	}
	defer listener.Close()

	stop := context.AfterFunc(ctx, func() { _ = listener.Close() })
	defer stop()

	conn, err := listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return conn, nil
}

type namedPipeTransport struct {
	name   string
	conn   net.Conn
	reader *lineReader
	writer *lineWriter
	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

func (t *namedPipeTransport) Read() ([]string, error) {
	if t.reader == nil {
		return nil, fmt.Errorf("read %s: transport is write-only", t.name)
	}
	lines, err := t.reader.Read()
	if err != nil {
		return nil, broken(t.name, "read", err)
	}
	return lines, nil
}

func (t *namedPipeTransport) Write(text string) error {
	if t.writer == nil {
		return fmt.Errorf("write %s: transport is read-only", t.name)
	}
	if err := t.writer.Write(text); err != nil {
		return broken(t.name, "write", err)
	}
	return nil
}

func (t *namedPipeTransport) Disconnect() error {
	t.closeOnce.Do(func() {
		if err := t.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, winio.ErrFileClosed) {
			t.closeErr = fmt.Errorf("close %s: %w", t.name, err)
		}
		t.logger.Debug("pipe disconnected", logging.String(logging.FieldPipe, t.name))
	})
	return t.closeErr
}
