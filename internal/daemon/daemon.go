package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"ascbridge/internal/config"
	"ascbridge/internal/connector"
	"ascbridge/internal/dispatch"
	"ascbridge/internal/journal"
	"ascbridge/internal/logging"
	"ascbridge/internal/wire"
)

// ErrJournalDisabled is returned by History when no journal is configured.
var ErrJournalDisabled = errors.New("exchange journal disabled")

// Daemon owns one connector and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	conn     *connector.Connector
	journal  *journal.Store
	observer *journal.Observer
	router   *dispatch.Router
	scopes   *scopeTracker
	waiters  *waiters

	lockPath string
	lock     *flock.Flock

	running  atomic.Bool
	answers  atomic.Int64
	startsAt atomic.Pointer[time.Time]
}

// Status represents daemon runtime information.
type Status struct {
	Running     bool
	PID         int
	StartedAt   time.Time
	LockPath    string
	JournalPath string
	PeerMode    string
	Connector   connector.Status
	Answers     int64
	Waiting     int
	Scopes      []ScopeStatus
}

// SendResult reports what happened to a request sent through the daemon.
type SendResult struct {
	Key      string
	Answered bool
	Answer   wire.Answer
}

// New constructs a daemon around conn. The daemon becomes the connector's
// answer sink; store may be nil when the journal is disabled.
func New(cfg *config.Config, conn *connector.Connector, store *journal.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || conn == nil {
		return nil, errors.New("daemon requires config and connector")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "daemon")

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		conn:     conn,
		journal:  store,
		router:   dispatch.NewRouter(logger),
		scopes:   newScopeTracker(logger),
		waiters:  newWaiters(),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	dispatch.RegisterScope(d.router, d.scopes)

	conn.SetSink(connector.SinkFunc(d.deliver))
	if store != nil {
		d.observer = journal.NewObserver(store, logger)
		conn.SetObserver(d.observer)
	}
	return d, nil
}

// Start acquires the daemon lock and connects when auto_connect is set. A
// failed auto-connect is logged and leaves the daemon running.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another ascbridge daemon instance is already running")
	}

	now := time.Now()
	d.startsAt.Store(&now)
	d.running.Store(true)
	d.logger.Info("ascbridge daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("peer_mode", d.cfg.Peer.Mode),
	)

	if d.cfg.Connection.AutoConnect {
		if err := d.conn.CreateConnection(ctx); err != nil {
			logging.WarnWithContext(d.logger, "auto-connect failed", "auto_connect_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run ascbridge connect once the peer is reachable"),
				logging.String(logging.FieldImpact, "requests are rejected until a connection is made"),
			)
		}
	}
	return nil
}

// Stop closes the connection and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if err := d.conn.CloseConnection(); err != nil {
		d.logger.Warn("close connection during stop", logging.Error(err))
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("ascbridge daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.observer != nil {
		d.observer.Close()
	}
	if d.journal != nil {
		return d.journal.Close()
	}
	return nil
}

// Connect opens a connection to the peer.
func (d *Daemon) Connect(ctx context.Context) error {
	return d.conn.CreateConnection(ctx)
}

// Disconnect closes the current connection.
func (d *Daemon) Disconnect() error {
	return d.conn.CloseConnection()
}

// Restart recreates a running connection.
func (d *Daemon) Restart(ctx context.Context) error {
	return d.conn.Restart(ctx)
}

// Params returns the connection parameters in effect.
func (d *Daemon) Params() config.ConnectionParams {
	return d.conn.ConnectionParams()
}

// SetParams replaces the connection parameters and restarts a running
// connection with them.
func (d *Daemon) SetParams(ctx context.Context, params config.ConnectionParams) error {
	return d.conn.SetConnectionParams(ctx, params)
}

// Send queues req. With a positive wait it blocks until the matching answer
// arrives or wait elapses; an elapsed wait is not an error because the peer
// may legitimately stay silent.
func (d *Daemon) Send(ctx context.Context, req wire.Request, wait time.Duration) (SendResult, error) {
	if wait <= 0 {
		key, err := d.conn.MakeRequest(req)
		return SendResult{Key: key}, err
	}

	key, err := wire.Prepare(req)
	if err != nil {
		return SendResult{}, err
	}
	ch := d.waiters.add(key)
	defer d.waiters.remove(key, ch)

	if _, err := d.conn.MakeRequest(req); err != nil {
		return SendResult{Key: key}, err
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case answer := <-ch:
		return SendResult{Key: key, Answered: true, Answer: answer}, nil
	case <-timer.C:
		d.logger.Debug("no answer within wait",
			logging.String(logging.FieldRequest, key),
			logging.Duration("wait", wait),
		)
		return SendResult{Key: key}, nil
	case <-ctx.Done():
		return SendResult{Key: key}, ctx.Err()
	}
}

// History returns the most recent journal entries, newest first.
func (d *Daemon) History(ctx context.Context, limit int) ([]journal.Entry, error) {
	if d.journal == nil {
		return nil, ErrJournalDisabled
	}
	if d.observer != nil {
		if err := d.observer.Flush(ctx); err != nil {
			return nil, err
		}
	}
	return d.journal.Recent(ctx, limit)
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	st := Status{
		Running:   d.running.Load(),
		PID:       os.Getpid(),
		LockPath:  d.lockPath,
		PeerMode:  d.cfg.Peer.Mode,
		Connector: d.conn.Status(),
		Answers:   d.answers.Load(),
		Waiting:   d.waiters.count(),
		Scopes:    d.scopes.snapshot(),
	}
	if started := d.startsAt.Load(); started != nil {
		st.StartedAt = *started
	}
	if d.journal != nil {
		st.JournalPath = d.journal.Path()
	}
	return st
}

func (d *Daemon) deliver(answer wire.Answer) {
	d.answers.Add(1)
	d.waiters.resolve(answer.CanonicalKey(), answer)
	d.router.Deliver(answer)
}
