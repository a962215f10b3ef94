package journal

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"ascbridge/internal/logging"
	"ascbridge/internal/wire"
)

// DefaultObserverBuffer is the number of records an Observer holds while the
// store is busy.
const DefaultObserverBuffer = 1024

// Observer journals connector traffic from a background writer. The connector
// loops only enqueue; when the buffer is full the record is dropped and
// counted. Write failures are logged and never interrupt the exchange.
type Observer struct {
	store  *Store
	logger *slog.Logger

	records chan record
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
	dropped atomic.Int64
}

type record struct {
	sessionID string
	key       string
	answer    *wire.Answer
	flushed   chan struct{}
}

// NewObserver wraps store for use as a connector observer and starts its
// writer. Close stops it.
func NewObserver(store *Store, logger *slog.Logger) *Observer {
	return NewBufferedObserver(store, DefaultObserverBuffer, logger)
}

// NewBufferedObserver is NewObserver with an explicit buffer size.
func NewBufferedObserver(store *Store, buffer int, logger *slog.Logger) *Observer {
	if buffer <= 0 {
		buffer = DefaultObserverBuffer
	}
	o := &Observer{
		store:   store,
		logger:  logging.NewComponentLogger(logger, "journal"),
		records: make(chan record, buffer),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go o.run()
	return o
}

// RequestSent records an outbound request.
func (o *Observer) RequestSent(sessionID, key string) {
	o.enqueue(record{sessionID: sessionID, key: key})
}

// AnswerReceived records an inbound answer.
func (o *Observer) AnswerReceived(sessionID string, answer wire.Answer) {
	o.enqueue(record{sessionID: sessionID, answer: &answer})
}

// Dropped reports how many records were discarded because the buffer was full.
func (o *Observer) Dropped() int64 {
	return o.dropped.Load()
}

// Flush waits until every record enqueued before the call is written.
func (o *Observer) Flush(ctx context.Context) error {
	flushed := make(chan struct{})
	select {
	case o.records <- record{flushed: flushed}:
	case <-o.quit:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-flushed:
		return nil
	case <-o.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes what is still buffered and stops the writer. It is safe to
// call repeatedly.
func (o *Observer) Close() {
	o.once.Do(func() { close(o.quit) })
	<-o.stopped
}

func (o *Observer) enqueue(r record) {
	select {
	case <-o.quit:
		return
	default:
	}
	select {
	case o.records <- r:
	default:
		n := o.dropped.Add(1)
		logging.WarnWithContext(o.logger, "journal buffer full", "journal_record_dropped",
			logging.String(logging.FieldSessionID, r.sessionID),
			logging.Int64("dropped_total", n),
			logging.String(logging.FieldImpact, "exchange missing from history"),
			logging.String(logging.FieldErrorHint, "check that the journal database is not locked by another process"),
		)
	}
}

func (o *Observer) run() {
	defer close(o.stopped)
	for {
		select {
		case r := <-o.records:
			o.write(r)
		case <-o.quit:
			for {
				select {
				case r := <-o.records:
					o.write(r)
				default:
					return
				}
			}
		}
	}
}

func (o *Observer) write(r record) {
	if r.flushed != nil {
		close(r.flushed)
		return
	}
	var err error
	if r.answer != nil {
		err = o.store.RecordAnswer(context.Background(), r.sessionID, *r.answer)
	} else {
		err = o.store.RecordSent(context.Background(), r.sessionID, r.key)
	}
	if err != nil {
		o.warn(err)
	}
}

func (o *Observer) warn(err error) {
	logging.WarnWithContext(o.logger, "journal write failed", "journal_write_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "exchange missing from history"),
		logging.String(logging.FieldErrorHint, "check free space and permissions for the journal path"),
	)
}
