// Package stage defines the contract between the workflow manager and the
// pipeline stages that render, composite, reconcile, and merge a dub.
package stage

import (
	"context"
	"log/slog"

	"overdub/internal/queue"
)

// Handler is implemented by every pipeline stage. Prepare runs before the
// item enters the stage's processing status and should fail fast on bad
// inputs; Execute performs the work and records produced artifacts on the
// item; HealthCheck answers readiness probes without touching the queue.
type Handler interface {
	Prepare(context.Context, *queue.Item) error
	Execute(context.Context, *queue.Item) error
	HealthCheck(context.Context) Health
}

// LoggerAware is an optional capability: stages implementing it receive a
// job-scoped logger from the manager before each run.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}

// Health summarizes the readiness of a workflow stage.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy reports a stage as ready.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy reports a stage as not ready, with detail explaining why.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
