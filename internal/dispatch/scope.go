package dispatch

import (
	"fmt"

	"ascbridge/internal/scope"
	"ascbridge/internal/wire"
)

// ScopeEvents receives decoded oscilloscope answers.
type ScopeEvents interface {
	TriggerSet(name string, armed bool)
	CaptureReady(name string, capture scope.DataAnswer)
	TriggerReset(name string)
}

// RegisterScope wires the Scope methods of r to events.
func RegisterScope(r *Router, events ScopeEvents) {
	r.Handle(scope.Type, scope.MethodSetup, func(answer wire.Answer) error {
		var setup scope.SetupAnswer
		if err := decodeObject(answer, &setup); err != nil {
			return err
		}
		if setup.Value != nil {
			events.TriggerSet(answer.Request.Name, *setup.Value)
		}
		return nil
	})

	capture := func(answer wire.Answer) error {
		var data scope.DataAnswer
		if err := decodeObject(answer, &data); err != nil {
			return err
		}
		if data.Complete() {
			events.CaptureReady(answer.Request.Name, data)
		}
		return nil
	}
	r.Handle(scope.Type, scope.MethodRequest, capture)
	r.Handle(scope.Type, scope.MethodDownload, capture)

	r.Handle(scope.Type, scope.MethodReset, func(answer wire.Answer) error {
		events.TriggerReset(answer.Request.Name)
		return nil
	})
}

// decodeObject treats a null answer as an empty object.
func decodeObject(answer wire.Answer, v any) error {
	if answer.IsNull() {
		return nil
	}
	if err := answer.Decode(v); err != nil {
		return fmt.Errorf("decode %s/%s answer: %w", answer.Request.Type, answer.Request.Method, err)
	}
	return nil
}
