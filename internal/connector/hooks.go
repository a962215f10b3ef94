package connector

import (
	"context"

	"ascbridge/internal/config"
	"ascbridge/internal/wire"
)

// Sink receives every decoded answer, in arrival order.
type Sink interface {
	Deliver(answer wire.Answer)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(answer wire.Answer)

// Deliver calls f.
func (f SinkFunc) Deliver(answer wire.Answer) { f(answer) }

// Observer is notified of traffic for diagnostics.
type Observer interface {
	RequestSent(sessionID, key string)
	AnswerReceived(sessionID string, answer wire.Answer)
}

// Process is the peer at the far end of the pipes. Start must not wait for
// the pipes to open; Stop must be safe to call after the peer already exited.
type Process interface {
	Start(ctx context.Context) error
	Stop() error
}

// Validator checks connection parameters before a connection attempt.
type Validator func(params config.ConnectionParams) []error

// DefaultValidator applies the configuration rules for the parameter type.
func DefaultValidator(params config.ConnectionParams) []error {
	return params.Validate()
}

// AcceptAll is the validator used with the simulated peer.
func AcceptAll(config.ConnectionParams) []error {
	return nil
}

type nopProcess struct{}

func (nopProcess) Start(context.Context) error { return nil }
func (nopProcess) Stop() error                 { return nil }
