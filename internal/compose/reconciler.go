package compose

import (
	"context"
	"fmt"
	"os"
	"time"

	"log/slog"

	"overdub/internal/config"
	"overdub/internal/logging"
	"overdub/internal/media/pcm"
	"overdub/internal/queue"
	"overdub/internal/services"
	"overdub/internal/stage"
)

const progressStageReconciling = "Reconciling"

// Reconciler drives the composed to reconciled stage: it conforms the
// composite track to the job's target duration and records the drift the
// composite carried before correction.
type Reconciler struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
}

// NewReconciler constructs the duration reconciliation stage.
func NewReconciler(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "reconciler"),
	}
}

// SetLogger allows the workflow manager to route stage logs into the job-scoped log.
func (r *Reconciler) SetLogger(logger *slog.Logger) {
	if r == nil {
		return
	}
	r.logger = logging.NewComponentLogger(logger, "reconciler")
}

// Prepare verifies the composite exists and primes progress.
func (r *Reconciler) Prepare(ctx context.Context, item *queue.Item) error {
	if r == nil || r.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "reconcile", "prepare", "reconciler is not configured", nil)
	}
	if r.store == nil {
		return services.Wrap(services.ErrConfiguration, "reconcile", "prepare", "queue store unavailable", nil)
	}
	if item == nil {
		return services.Wrap(services.ErrValidation, "reconcile", "prepare", "queue item is nil", nil)
	}
	if _, err := os.Stat(item.CompositePath(r.cfg.Paths.WorkspaceDir)); err != nil {
		return services.Wrap(services.ErrValidation, "reconcile", "prepare", "composite track not found", err)
	}
	item.InitProgress(progressStageReconciling, "Conforming dub track duration")
	return r.store.UpdateProgress(ctx, item)
}

// Execute measures the composite against the target duration, truncating
// overruns beyond the tolerance and padding shortfalls, then publishes the
// reconciled dub track. Jobs without a target duration pass through
// unchanged.
func (r *Reconciler) Execute(ctx context.Context, item *queue.Item) error {
	stageStart := time.Now()
	if r == nil || r.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "reconcile", "execute", "reconciler is not configured", nil)
	}
	if item == nil {
		return services.Wrap(services.ErrValidation, "reconcile", "execute", "queue item is nil", nil)
	}
	logger := logging.WithContext(ctx, r.logger)

	compositePath := item.CompositePath(r.cfg.Paths.WorkspaceDir)
	dubPath := item.DubTrackFile(r.cfg.Paths.WorkspaceDir)

	track, err := pcm.ReadFile(compositePath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "reconcile", "execute", "read composite track", err)
	}

	actual := track.Duration()
	target := item.TargetDuration
	tolerance := r.cfg.Render.DurationToleranceSecs

	action := "unchanged"
	if target > 0 {
		item.DurationDrift = actual - target
		switch {
		case actual > target+tolerance:
			track.TrimTo(target)
			action = "truncated"
		case actual < target:
			track.PadTo(target)
			action = "padded"
		}
		if action != "unchanged" {
			logger.Warn("composite drifted from target duration",
				logging.Float64("composite_secs", actual),
				logging.Float64("target_secs", target),
				logging.Float64("drift_secs", item.DurationDrift),
				logging.String("action", action),
			)
		}
	} else {
		item.DurationDrift = 0
	}

	if err := track.WriteFile(dubPath); err != nil {
		return services.Wrap(services.ErrTransient, "reconcile", "execute", "write dub track", err)
	}
	if err := os.Remove(compositePath); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove composite after reconcile", logging.Error(err))
	}
	item.DubTrackPath = dubPath

	message := fmt.Sprintf("Dub track %s (drift %+.3fs)", action, item.DurationDrift)
	if target <= 0 {
		message = "Dub track published (no target duration)"
	}
	item.SetProgressComplete("Reconciled", message)
	logger.Info("reconcile stage summary",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Float64("composite_secs", actual),
		logging.Float64("target_secs", target),
		logging.Float64("drift_secs", item.DurationDrift),
		logging.String("action", action),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	return nil
}

// HealthCheck reports readiness for duration reconciliation.
func (r *Reconciler) HealthCheck(ctx context.Context) stage.Health {
	const name = "reconciler"
	if r == nil || r.cfg == nil {
		return stage.Unhealthy(name, "stage not configured")
	}
	if r.store == nil {
		return stage.Unhealthy(name, "queue store unavailable")
	}
	return stage.Healthy(name)
}
