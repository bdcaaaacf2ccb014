// Package logging builds the slog loggers used across overdub.
//
// It owns the console and JSON handlers and the level and output plumbing,
// and adds context-aware helpers that tag log lines with the job ID, stage,
// and request ID recorded by the services package. A no-op logger covers
// tests and wiring code that cannot fail.
//
// New components should obtain loggers here rather than assembling slog by
// hand so every line shares the same shape and routing.
package logging
