package dispatch

import (
	"log/slog"
	"sync"

	"ascbridge/internal/logging"
	"ascbridge/internal/wire"
)

// Handler consumes one answer.
type Handler func(answer wire.Answer) error

type route struct {
	typ    string
	method string
}

// Router dispatches answers by (Type, Method).
type Router struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[route]Handler
	types    map[string]struct{}
}

// NewRouter constructs an empty router.
func NewRouter(logger *slog.Logger) *Router {
	return &Router{
		logger:   logging.NewComponentLogger(logger, "dispatch"),
		handlers: make(map[route]Handler),
		types:    make(map[string]struct{}),
	}
}

// Handle registers h for answers to requests of the given type and method.
func (r *Router) Handle(typ, method string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[route{typ, method}] = h
	r.types[typ] = struct{}{}
}

// Deliver routes one answer. Unknown request types are logged at critical
// severity; unknown methods of a known type are logged as warnings.
func (r *Router) Deliver(answer wire.Answer) {
	req := answer.Request
	r.logger.Info("answer received",
		logging.String("type", req.Type),
		logging.String("name", req.Name),
		logging.String("method", req.Method),
		logging.String("value", string(answer.Value)),
	)

	r.mu.RLock()
	h, ok := r.handlers[route{req.Type, req.Method}]
	_, knownType := r.types[req.Type]
	r.mu.RUnlock()

	switch {
	case ok:
		if err := h(answer); err != nil {
			logging.WarnWithContext(r.logger, "answer handler failed", "answer_handler_failed",
				logging.String(logging.FieldRequest, answer.Key),
				logging.Error(err),
				logging.String(logging.FieldImpact, "answer ignored"),
			)
		}
	case knownType:
		logging.WarnWithContext(r.logger, "no handler for method", "answer_unrouted",
			logging.String(logging.FieldRequest, answer.Key),
			logging.String(logging.FieldImpact, "answer ignored"),
		)
	default:
		logging.Critical(r.logger, "incorrect answer type", "answer_type_unknown",
			logging.String(logging.FieldRequest, answer.Key),
			logging.String("value", string(answer.Value)),
		)
	}
}
