package imitator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ascbridge/internal/channel"
	"ascbridge/internal/logging"
	"ascbridge/internal/pipe"
	"ascbridge/internal/wire"
)

const defaultStopTimeout = 5 * time.Second

// Options configure an Imitator.
type Options struct {
	// Names are the connector's names; the imitator reverses them.
	Names  channel.Names
	Opener pipe.Opener
	// Samples per signal in a synthetic capture.
	Samples     int
	StopTimeout time.Duration
	Logger      *slog.Logger
}

// Imitator answers requests the way the bridging peer would.
type Imitator struct {
	names       channel.Names
	opener      pipe.Opener
	logger      *slog.Logger
	stopTimeout time.Duration

	state    *scopeState
	handlers map[handlerKey]handler

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs an idle imitator.
func New(opts Options) *Imitator {
	state := &scopeState{samples: opts.Samples}
	stopTimeout := opts.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = defaultStopTimeout
	}
	return &Imitator{
		names:       opts.Names.Reversed(),
		opener:      opts.Opener,
		logger:      logging.NewComponentLogger(opts.Logger, "imitator"),
		stopTimeout: stopTimeout,
		state:       state,
		handlers:    state.handlers(),
	}
}

// Run attaches to the pipes and serves until ctx ends or the connector
// goes away.
func (im *Imitator) Run(ctx context.Context) error {
	ch := channel.New(im.opener, im.names, pipe.RolePeer, im.logger)
	if err := ch.Open(ctx); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { _ = ch.Close() })
	defer stop()
	defer ch.Close()

	im.logger.Info("imitator attached",
		logging.String("inbound", im.names.Inbound),
		logging.String("outbound", im.names.Outbound),
	)
	for ch.IsConnected() {
		for _, line := range ch.Receive(ctx) {
			reply, ok, err := im.Handle(line)
			if err != nil {
				logging.WarnWithContext(im.logger, "request not handled", "imitator_request_rejected",
					logging.String(logging.FieldRequest, line),
					logging.Error(err),
					logging.String(logging.FieldImpact, "no answer sent"),
				)
				continue
			}
			if ok {
				ch.Send(ctx, reply)
			}
		}
	}
	im.logger.Info("imitator detached")
	return nil
}

// Handle answers one request line. ok is false when the request warrants no
// answer.
func (im *Imitator) Handle(line string) (reply string, ok bool, err error) {
	req, err := wire.ParseRequest(line)
	if err != nil {
		return "", false, err
	}
	h, found := im.handlers[handlerKey{req.Type, req.Method}]
	if !found {
		return "", false, fmt.Errorf("no handler for %s/%s", req.Type, req.Method)
	}
	value, answer := h(req)
	if !answer {
		return "", false, nil
	}
	reply, err = wire.EncodeEnvelope(line, value)
	if err != nil {
		return "", false, err
	}
	return reply, true, nil
}

// Start runs the imitator in the background. It satisfies the connector's
// peer Process contract.
func (im *Imitator) Start(context.Context) error {
	im.runMu.Lock()
	defer im.runMu.Unlock()
	if im.done != nil {
		return errors.New("imitator already running")
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	im.cancel = cancel
	im.done = done
	go func() {
		defer close(done)
		if err := im.Run(ctx); err != nil && ctx.Err() == nil {
			logging.ErrorWithContext(im.logger, "imitator stopped", "imitator_failed", logging.Error(err))
		}
	}()
	return nil
}

// Stop ends a background run and waits for it to detach.
func (im *Imitator) Stop() error {
	im.runMu.Lock()
	cancel, done := im.cancel, im.done
	im.cancel, im.done = nil, nil
	im.runMu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-time.After(im.stopTimeout):
		return fmt.Errorf("imitator did not stop within %s", im.stopTimeout)
	}
}
