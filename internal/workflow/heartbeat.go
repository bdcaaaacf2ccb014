package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"overdub/internal/logging"
	"overdub/internal/queue"
)

// HeartbeatMonitor keeps claimed jobs visibly alive and sweeps up jobs whose
// worker died without releasing them.
type HeartbeatMonitor struct {
	store  *queue.Store
	logger *slog.Logger

	interval time.Duration
	timeout  time.Duration
}

// NewHeartbeatMonitor creates a new monitor. A nil logger silences it.
func NewHeartbeatMonitor(store *queue.Store, logger *slog.Logger, interval, timeout time.Duration) *HeartbeatMonitor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &HeartbeatMonitor{store: store, logger: logger, interval: interval, timeout: timeout}
}

// SweepStale rolls jobs whose heartbeat predates the timeout back to the
// resting status preceding their stage. A zero timeout disables sweeps.
func (h *HeartbeatMonitor) SweepStale(ctx context.Context, logger *slog.Logger) error {
	if h.timeout <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-h.timeout)
	reclaimed, err := h.store.ReclaimStaleProcessing(ctx, cutoff)
	if err != nil {
		return err
	}
	if reclaimed > 0 {
		logger.Info("reclaimed stale jobs", logging.Int64("count", reclaimed))
	}
	return nil
}

// Beat stamps the item's heartbeat every interval until ctx is cancelled.
// With a non-positive interval it only waits for cancellation, so tests can
// run stages without background writes.
func (h *HeartbeatMonitor) Beat(ctx context.Context, wg *sync.WaitGroup, itemID int64) {
	defer wg.Done()
	if h.interval <= 0 {
		<-ctx.Done()
		return
	}

	logger := logging.WithContext(ctx, logging.NewComponentLogger(h.logger, "workflow-heartbeat"))
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := h.store.UpdateHeartbeat(ctx, itemID)
			switch {
			case err == nil:
			case errors.Is(err, context.Canceled):
				logger.Info("shutting down, heartbeat update cancelled")
			default:
				logger.Warn("heartbeat update failed", logging.Error(err))
			}
		}
	}
}
