package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"ascbridge/internal/logging"
	"ascbridge/internal/pipe"
)

// Names identifies the two pipes from the owner's point of view.
type Names struct {
	Inbound  string
	Outbound string
}

// Reversed returns the names as seen by the other end.
func (n Names) Reversed() Names {
	return Names{Inbound: n.Outbound, Outbound: n.Inbound}
}

// Channel is a duplex link over two transports.
type Channel struct {
	opener pipe.Opener
	names  Names
	role   pipe.Role
	logger *slog.Logger

	mu        sync.Mutex
	inbound   pipe.Transport
	outbound  pipe.Transport
	connected atomic.Bool
}

// New constructs a closed channel.
func New(opener pipe.Opener, names Names, role pipe.Role, logger *slog.Logger) *Channel {
	return &Channel{
		opener: opener,
		names:  names,
		role:   role,
		logger: logging.NewComponentLogger(logger, "channel"),
	}
}

// Names reports the pipe names.
func (c *Channel) Names() Names {
	return c.names
}

// Open attaches both transports. The connector opens its outbound pipe first
// and the peer its inbound pipe first, so both sides agree on the order.
func (c *Channel) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected.Load() {
		return nil
	}

	first, second := pipe.Outbound, pipe.Inbound
	if c.role == pipe.RolePeer {
		first, second = pipe.Inbound, pipe.Outbound
	}

	opened := make(map[pipe.Direction]pipe.Transport, 2)
	for _, dir := range []pipe.Direction{first, second} {
		transport, err := c.opener.Open(ctx, c.nameFor(dir), dir)
		if err != nil {
			for _, t := range opened {
				_ = t.Disconnect()
			}
			return fmt.Errorf("open channel: %w", err)
		}
		opened[dir] = transport
	}

	c.inbound = opened[pipe.Inbound]
	c.outbound = opened[pipe.Outbound]
	c.connected.Store(true)
	c.logger.Debug("channel opened",
		logging.String("inbound", c.names.Inbound),
		logging.String("outbound", c.names.Outbound),
	)
	return nil
}

// Send writes one message. It is a no-op while the channel is closed or once
// ctx is done, so a caller from an ended session never reaches transports
// opened after it.
func (c *Channel) Send(ctx context.Context, message string) {
	outbound := c.current(ctx, false)
	if outbound == nil {
		return
	}
	if err := outbound.Write(message); err != nil {
		c.fail(ctx, outbound, c.names.Outbound, err)
	}
}

// Receive blocks for the next batch of inbound messages. It returns nil when
// the channel is closed, fails, or ctx is already done; a failure closes the
// channel.
func (c *Channel) Receive(ctx context.Context) []string {
	inbound := c.current(ctx, true)
	if inbound == nil {
		return nil
	}
	lines, err := inbound.Read()
	if err != nil {
		c.fail(ctx, inbound, c.names.Inbound, err)
		return nil
	}
	return lines
}

// Close disconnects both transports. It is safe to call repeatedly.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected.Store(false)

	var errs []error
	if c.inbound != nil {
		errs = append(errs, c.inbound.Disconnect())
		c.inbound = nil
	}
	if c.outbound != nil {
		errs = append(errs, c.outbound.Disconnect())
		c.outbound = nil
	}
	return errors.Join(errs...)
}

// IsConnected reports whether both transports are attached.
func (c *Channel) IsConnected() bool {
	return c.connected.Load()
}

// current checks ctx under the lock: Close and Open also take it, so a
// cancelled caller cannot pick up transports from a later Open.
func (c *Channel) current(ctx context.Context, inbound bool) pipe.Transport {
	if !c.connected.Load() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil {
		return nil
	}
	if inbound {
		return c.inbound
	}
	return c.outbound
}

func (c *Channel) fail(ctx context.Context, t pipe.Transport, name string, err error) {
	c.mu.Lock()
	stale := t != c.inbound && t != c.outbound
	c.mu.Unlock()
	if stale || ctx.Err() != nil {
		// The transport was already released by Close.
		c.logger.Debug("pipe closed during shutdown", logging.String(logging.FieldPipe, name), logging.Error(err))
		return
	}
	logging.Critical(c.logger, "pipe was broken",
		"channel_broken",
		logging.String(logging.FieldPipe, name),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check that the peer process is running"),
	)
	if closeErr := c.Close(); closeErr != nil {
		c.logger.Debug("channel close after fault", logging.Error(closeErr))
	}
}

func (c *Channel) nameFor(dir pipe.Direction) string {
	if dir == pipe.Inbound {
		return c.names.Inbound
	}
	return c.names.Outbound
}
