// Package logging assembles structured slog loggers and formatting helpers used
// across dropspool.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context helpers so loop code can tag log lines with the job
// name, lifecycle stage, and per-iteration correlation ID. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits lines with the same shape and routing.
package logging
