// Package logging assembles structured slog loggers and formatting helpers used
// across ascbridge.
//
// It owns the console and JSON handlers, level parsing (including the
// critical level used for broken pipes), standard field keys, and a no-op
// logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape.
package logging
