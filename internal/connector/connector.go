package connector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"ascbridge/internal/channel"
	"ascbridge/internal/config"
	"ascbridge/internal/lockedqueue"
	"ascbridge/internal/logging"
	"ascbridge/internal/pipe"
	"ascbridge/internal/wire"
)

// ErrInvalidConnectionParams is returned by CreateConnection when validation fails.
var ErrInvalidConnectionParams = errors.New("invalid connection params")

const defaultOpenTimeout = 30 * time.Second

// Options configure a Connector.
type Options struct {
	Names       channel.Names
	Opener      pipe.Opener
	Process     Process
	Validate    Validator
	Params      config.ConnectionParams
	Sink        Sink
	Observer    Observer
	Queue       *lockedqueue.Queue
	OpenTimeout time.Duration
	Logger      *slog.Logger
}

// Status is a point-in-time view of the connector.
type Status struct {
	State       State
	SessionID   string
	ConnectedAt time.Time
	Queued      int
	Unfinished  int
	QueueLocked bool
	Params      config.ConnectionParams
}

// Connector drives one peer connection at a time.
type Connector struct {
	logger      *slog.Logger
	queue       *lockedqueue.Queue
	channel     *channel.Channel
	process     Process
	validate    Validator
	openTimeout time.Duration

	state atomic.Int32

	// lifecycle serializes create, close and restart.
	lifecycle sync.Mutex
	current   atomic.Pointer[session]

	hooksMu  sync.RWMutex
	sink     Sink
	observer Observer
	params   config.ConnectionParams
}

type session struct {
	id          string
	ctx         context.Context
	cancel      context.CancelFunc
	connectedAt time.Time
}

func (s *session) active() bool {
	return s.ctx.Err() == nil
}

// New constructs a disconnected connector.
func New(opts Options) *Connector {
	logger := logging.NewComponentLogger(opts.Logger, "connector")
	queue := opts.Queue
	if queue == nil {
		queue = lockedqueue.New()
	}
	process := opts.Process
	if process == nil {
		process = nopProcess{}
	}
	validate := opts.Validate
	if validate == nil {
		validate = DefaultValidator
	}
	openTimeout := opts.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = defaultOpenTimeout
	}
	queue.Lock()

	return &Connector{
		logger:      logger,
		queue:       queue,
		channel:     channel.New(opts.Opener, opts.Names, pipe.RoleConnector, opts.Logger),
		process:     process,
		validate:    validate,
		openTimeout: openTimeout,
		sink:        opts.Sink,
		observer:    opts.Observer,
		params:      opts.Params,
	}
}

// State returns the lifecycle state.
func (c *Connector) State() State {
	return State(c.state.Load())
}

// IsConnected reports whether a session is running.
func (c *Connector) IsConnected() bool {
	return c.State() == StateConnected
}

// Queue exposes the outbound queue.
func (c *Connector) Queue() *lockedqueue.Queue {
	return c.queue
}

// CreateConnection validates the parameters, starts the peer, opens the
// channel, and starts a new session. It does nothing when not disconnected.
func (c *Connector) CreateConnection(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	return c.createLocked(ctx)
}

// CloseConnection ends the current session. It does nothing when no session
// is running.
func (c *Connector) CloseConnection() error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	return c.closeLocked("requested")
}

// Restart closes and recreates the connection. A restart while disconnected
// is ignored.
func (c *Connector) Restart(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.State() != StateConnected {
		c.logger.Debug("restart ignored", logging.String("state", c.State().String()))
		return nil
	}
	if err := c.closeLocked("restart"); err != nil {
		c.logger.Warn("close during restart reported errors", logging.Error(err))
	}
	return c.createLocked(ctx)
}

// SetConnectionParams stores params and restarts a running connection.
func (c *Connector) SetConnectionParams(ctx context.Context, params config.ConnectionParams) error {
	c.hooksMu.Lock()
	c.params = params
	c.hooksMu.Unlock()
	c.logger.Info("connection params updated", logging.String("type", params.Type))
	return c.Restart(ctx)
}

// ConnectionParams returns the stored parameters.
func (c *Connector) ConnectionParams() config.ConnectionParams {
	c.hooksMu.RLock()
	defer c.hooksMu.RUnlock()
	return c.params
}

// SetSink replaces the answer sink. A nil sink drops answers.
func (c *Connector) SetSink(sink Sink) {
	c.hooksMu.Lock()
	c.sink = sink
	c.hooksMu.Unlock()
}

// SetObserver replaces the traffic observer.
func (c *Connector) SetObserver(observer Observer) {
	c.hooksMu.Lock()
	c.observer = observer
	c.hooksMu.Unlock()
}

// MakeRequest decorates, serializes and enqueues req. The returned string is
// the correlation key echoed by the peer. It fails with
// lockedqueue.ErrQueueLocked while disconnected.
func (c *Connector) MakeRequest(req wire.Request) (string, error) {
	key, err := wire.Prepare(req)
	if err != nil {
		return "", err
	}
	if err := c.queue.Put(key); err != nil {
		return "", err
	}
	c.logger.Debug("request queued", logging.String(logging.FieldRequest, key))
	return key, nil
}

// Status reports the current state and queue depth.
func (c *Connector) Status() Status {
	st := Status{
		State:       c.State(),
		Queued:      c.queue.Len(),
		Unfinished:  c.queue.Unfinished(),
		QueueLocked: c.queue.Locked(),
		Params:      c.ConnectionParams(),
	}
	if s := c.current.Load(); s != nil {
		st.SessionID = s.id
		st.ConnectedAt = s.connectedAt
	}
	return st
}

func (c *Connector) createLocked(ctx context.Context) error {
	if c.State() != StateDisconnected {
		c.logger.Debug("create ignored", logging.String("state", c.State().String()))
		return nil
	}

	params := c.ConnectionParams()
	if errs := c.validate(params); len(errs) > 0 {
		logging.WarnWithContext(c.logger, "incorrect connection params",
			"connection_params_invalid",
			logging.String("type", params.Type),
			logging.Int("errors", len(errs)),
			logging.String(logging.FieldImpact, "connection not attempted"),
			logging.String(logging.FieldErrorHint, "fix the connection settings and connect again"),
		)
		for _, err := range errs {
			c.logger.Error("connection param error", logging.Error(err))
		}
		return fmt.Errorf("%w: %w", ErrInvalidConnectionParams, errors.Join(errs...))
	}

	c.state.Store(int32(StateConnecting))
	if err := c.process.Start(ctx); err != nil {
		c.state.Store(int32(StateDisconnected))
		logging.ErrorWithContext(c.logger, "peer start failed", "peer_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check peer.executable in the config"),
		)
		return fmt.Errorf("start peer: %w", err)
	}

	openCtx, cancel := context.WithTimeout(ctx, c.openTimeout)
	err := c.channel.Open(openCtx)
	cancel()
	if err != nil {
		if stopErr := c.process.Stop(); stopErr != nil {
			c.logger.Warn("peer stop after failed open", logging.Error(stopErr))
		}
		c.state.Store(int32(StateDisconnected))
		logging.ErrorWithContext(c.logger, "channel open failed", "channel_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the peer did not attach to the pipes"),
		)
		return err
	}

	dropped := c.queue.Drain()
	sessionCtx, sessionCancel := context.WithCancel(context.Background())
	s := &session{
		id:          uuid.NewString(),
		ctx:         sessionCtx,
		cancel:      sessionCancel,
		connectedAt: time.Now(),
	}
	c.current.Store(s)
	c.state.Store(int32(StateConnected))
	c.queue.Unlock()

	go c.sendLoop(s)
	go c.receiveLoop(s)

	c.logger.Info("connection opened",
		logging.String(logging.FieldEventType, "connection_opened"),
		logging.String(logging.FieldSessionID, s.id),
		logging.Int("stale_requests_dropped", dropped),
	)
	return nil
}

func (c *Connector) closeLocked(reason string) error {
	if c.State() != StateConnected {
		return nil
	}
	c.state.Store(int32(StateClosing))
	s := c.current.Swap(nil)
	s.cancel()
	c.queue.Lock()

	var errs []error
	if err := c.process.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop peer: %w", err))
	}
	if err := c.channel.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close channel: %w", err))
	}
	c.state.Store(int32(StateDisconnected))

	c.logger.Info("connection closed",
		logging.String(logging.FieldEventType, "connection_closed"),
		logging.String(logging.FieldSessionID, s.id),
		logging.String("reason", reason),
	)
	return errors.Join(errs...)
}

// endSession is the single exit path for both loops.
func (c *Connector) endSession(s *session, reason string) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.current.Load() != s {
		return
	}
	if err := c.closeLocked(reason); err != nil {
		c.logger.Warn("teardown reported errors",
			logging.String(logging.FieldSessionID, s.id),
			logging.Error(err),
		)
	}
}

func (c *Connector) sendLoop(s *session) {
	defer c.endSession(s, "sender stopped")
	for s.active() && c.channel.IsConnected() {
		item, err := c.queue.Get(s.ctx)
		if err != nil {
			return
		}
		c.channel.Send(s.ctx, item)
		c.queue.TaskDone()
		if !c.channel.IsConnected() {
			return
		}
		c.logger.Debug("request sent",
			logging.String(logging.FieldSessionID, s.id),
			logging.String(logging.FieldRequest, item),
		)
		if observer := c.currentObserver(); observer != nil {
			observer.RequestSent(s.id, item)
		}
	}
}

func (c *Connector) receiveLoop(s *session) {
	defer c.endSession(s, "receiver stopped")
	for s.active() && c.channel.IsConnected() {
		lines := c.channel.Receive(s.ctx)
		for _, line := range lines {
			answer, err := wire.DecodeAnswer(line)
			if err != nil {
				logging.WarnWithContext(c.logger, "skipping malformed answer",
					"answer_malformed",
					logging.String(logging.FieldSessionID, s.id),
					logging.String("line", line),
					logging.Error(err),
					logging.String(logging.FieldImpact, "answer dropped"),
				)
				continue
			}
			c.logger.Debug("answer received",
				logging.String(logging.FieldSessionID, s.id),
				logging.String(logging.FieldRequest, answer.Key),
			)
			if observer := c.currentObserver(); observer != nil {
				observer.AnswerReceived(s.id, answer)
			}
			if sink := c.currentSink(); sink != nil {
				sink.Deliver(answer)
			}
		}
	}
}

func (c *Connector) currentSink() Sink {
	c.hooksMu.RLock()
	defer c.hooksMu.RUnlock()
	return c.sink
}

func (c *Connector) currentObserver() Observer {
	c.hooksMu.RLock()
	defer c.hooksMu.RUnlock()
	return c.observer
}
