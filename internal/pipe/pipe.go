package pipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrBrokenChannel reports a read or write fault: the peer went away or the
// handle was closed.
var ErrBrokenChannel = errors.New("broken channel")

// Direction is the data direction of a transport as seen by its owner.
type Direction int

const (
	// Inbound transports are read from.
	Inbound Direction = iota
	// Outbound transports are written to.
	Outbound
)

func (d Direction) String() string {
	if d == Inbound {
		return "inbound"
	}
	return "outbound"
}

// Role distinguishes the two ends of a pipe pair.
type Role int

const (
	// RoleConnector is the controlling process.
	RoleConnector Role = iota
	// RolePeer is the bridging subprocess or the imitator.
	RolePeer
)

func (r Role) String() string {
	if r == RolePeer {
		return "peer"
	}
	return "connector"
}

// Transport is one open, one-directional pipe.
type Transport interface {
	// Read blocks until at least one complete line arrives and returns every
	// complete non-empty line currently buffered.
	Read() ([]string, error)
	// Write sends text followed by a newline and flushes before returning.
	Write(text string) error
	// Disconnect releases the pipe; it is safe to call more than once and
	// unblocks a pending Read.
	Disconnect() error
}

// Opener opens named transports for one role.
type Opener interface {
	// Open blocks until the opposite end attaches or ctx is done.
	Open(ctx context.Context, name string, dir Direction) (Transport, error)
}

// Options configure NewOpener.
type Options struct {
	// Dir holds FIFO special files. Ignored on Windows.
	Dir    string
	Role   Role
	Logger *slog.Logger
}

func broken(name string, op string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrBrokenChannel, op, name, err)
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
