package scope

import (
	"fmt"

	"ascbridge/internal/wire"
)

// Type is the request type for oscilloscope commands.
const Type = "Scope"

// Scope methods.
const (
	MethodSetup    = "setup"
	MethodRequest  = "request"
	MethodDownload = "download"
	MethodReset    = "reset"
)

// Argument keys used by setup.
const (
	ArgValues      = "Values"
	ArgPreTrigger  = "PreTrigger"
	ArgPostTrigger = "PostTrigger"
)

// Setup arms the scope on signals. Trigger windows are in seconds.
func Setup(name string, signals []string, preTrigger, postTrigger float64) (wire.Request, error) {
	values := make([]any, len(signals))
	for i, s := range signals {
		values[i] = s
	}
	return wire.NewRequest(Type, name, MethodSetup, map[string]any{
		ArgValues:      values,
		ArgPreTrigger:  preTrigger,
		ArgPostTrigger: postTrigger,
	})
}

// Request asks for the latest captured frame.
func Request(name string) (wire.Request, error) {
	return wire.NewRequest(Type, name, MethodRequest, nil)
}

// Download asks for the full capture buffer.
func Download(name string) (wire.Request, error) {
	return wire.NewRequest(Type, name, MethodDownload, nil)
}

// Reset disarms the scope.
func Reset(name string) (wire.Request, error) {
	return wire.NewRequest(Type, name, MethodReset, nil)
}

// Build dispatches on method.
func Build(method, name string, signals []string, preTrigger, postTrigger float64) (wire.Request, error) {
	switch method {
	case MethodSetup:
		return Setup(name, signals, preTrigger, postTrigger)
	case MethodRequest:
		return Request(name)
	case MethodDownload:
		return Download(name)
	case MethodReset:
		return Reset(name)
	default:
		return wire.Request{}, fmt.Errorf("%w: unknown scope method %q", wire.ErrInvalidRequest, method)
	}
}

// SetupAnswer is the peer's reply to setup.
type SetupAnswer struct {
	Value *bool `json:"value"`
}

// DataAnswer is the peer's reply to request and download.
type DataAnswer struct {
	Data  map[string][]float64 `json:"data"`
	Start *float64             `json:"start"`
	Time  []float64            `json:"time"`
}

// Complete reports whether every field needed to plot the capture is present.
func (d DataAnswer) Complete() bool {
	return d.Data != nil && d.Start != nil && d.Time != nil
}
