package imitator

import (
	"math"
	"sync"

	"ascbridge/internal/scope"
	"ascbridge/internal/wire"
)

const defaultSamples = 64

type handlerKey struct {
	typ    string
	method string
}

// handler returns the answer value and whether an answer is sent at all.
type handler func(req wire.Request) (any, bool)

type scopeState struct {
	mu          sync.Mutex
	signals     []string
	preTrigger  *float64
	postTrigger *float64
	samples     int
}

func (s *scopeState) handlers() map[handlerKey]handler {
	return map[handlerKey]handler{
		{scope.Type, scope.MethodSetup}:    s.setup,
		{scope.Type, scope.MethodRequest}:  s.capture,
		{scope.Type, scope.MethodDownload}: s.capture,
		{scope.Type, scope.MethodReset}:    s.reset,
	}
}

func (s *scopeState) setup(req wire.Request) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = stringList(req.Arguments[scope.ArgValues])
	s.preTrigger = number(req.Arguments[scope.ArgPreTrigger])
	s.postTrigger = number(req.Arguments[scope.ArgPostTrigger])
	if len(s.signals) == 0 {
		return nil, false
	}
	return map[string]any{"value": true}, true
}

func (s *scopeState) capture(wire.Request) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.signals) == 0 {
		return nil, false
	}
	return s.frame(), true
}

func (s *scopeState) reset(wire.Request) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = nil
	s.preTrigger = nil
	s.postTrigger = nil
	return nil, true
}

// frame renders one synthetic capture spanning the trigger window.
func (s *scopeState) frame() scope.DataAnswer {
	pre, post := 0.0, 1.0
	if s.preTrigger != nil {
		pre = *s.preTrigger
	}
	if s.postTrigger != nil {
		post = *s.postTrigger
	}
	n := s.samples
	if n <= 1 {
		n = defaultSamples
	}
	start := -pre
	step := (pre + post) / float64(n-1)
	times := make([]float64, n)
	for i := range times {
		times[i] = start + float64(i)*step
	}
	data := make(map[string][]float64, len(s.signals))
	for idx, name := range s.signals {
		values := make([]float64, n)
		phase := float64(idx) * math.Pi / 4
		for i, t := range times {
			values[i] = math.Sin(2*math.Pi*t + phase)
		}
		data[name] = values
	}
	return scope.DataAnswer{Data: data, Start: &start, Time: times}
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func number(v any) *float64 {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
