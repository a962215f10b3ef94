package daemon

import (
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"ascbridge/internal/logging"
	"ascbridge/internal/scope"
)

// ScopeStatus summarizes what the peer reported for one named oscilloscope.
type ScopeStatus struct {
	Name        string
	Armed       bool
	Captures    int
	Resets      int
	Signals     []string
	Samples     int
	LastCapture time.Time
}

// scopeTracker implements dispatch.ScopeEvents.
type scopeTracker struct {
	logger *slog.Logger

	mu     sync.Mutex
	scopes map[string]*ScopeStatus
}

func newScopeTracker(logger *slog.Logger) *scopeTracker {
	return &scopeTracker{logger: logger, scopes: make(map[string]*ScopeStatus)}
}

func (s *scopeTracker) entry(name string) *ScopeStatus {
	st, ok := s.scopes[name]
	if !ok {
		st = &ScopeStatus{Name: name}
		s.scopes[name] = st
	}
	return st
}

func (s *scopeTracker) TriggerSet(name string, armed bool) {
	s.mu.Lock()
	s.entry(name).Armed = armed
	s.mu.Unlock()
	s.logger.Info("scope trigger set",
		logging.String(logging.FieldEventType, "scope_trigger_set"),
		logging.String("scope", name),
		logging.Bool("armed", armed),
	)
}

func (s *scopeTracker) CaptureReady(name string, capture scope.DataAnswer) {
	signals := make([]string, 0, len(capture.Data))
	for signal := range capture.Data {
		signals = append(signals, signal)
	}
	sort.Strings(signals)

	s.mu.Lock()
	st := s.entry(name)
	st.Captures++
	st.Signals = signals
	st.Samples = len(capture.Time)
	st.LastCapture = time.Now()
	s.mu.Unlock()

	s.logger.Info("scope capture received",
		logging.String(logging.FieldEventType, "scope_capture_ready"),
		logging.String("scope", name),
		logging.Int("signals", len(signals)),
		logging.Int("samples", len(capture.Time)),
	)
}

func (s *scopeTracker) TriggerReset(name string) {
	s.mu.Lock()
	st := s.entry(name)
	st.Armed = false
	st.Resets++
	s.mu.Unlock()
	s.logger.Info("scope reset",
		logging.String(logging.FieldEventType, "scope_reset"),
		logging.String("scope", name),
	)
}

func (s *scopeTracker) snapshot() []ScopeStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ScopeStatus, 0, len(s.scopes))
	for _, st := range s.scopes {
		cp := *st
		cp.Signals = slices.Clone(st.Signals)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
