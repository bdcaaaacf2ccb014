package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"overdub/internal/logging"
	"overdub/internal/queue"
)

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("manager already started")
	}
	pipe := m.pipeline
	if pipe == nil || len(pipe.restingOrder) == 0 {
		return errors.New("no stages registered")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	go m.run(runCtx, pipe)
	return nil
}

// Stop terminates background processing and waits for completion. Calling it
// on an idle manager is a no-op.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	wasRunning := m.running
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	if !wasRunning {
		return
	}
	cancel()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context, pipe *pipeline) {
	defer m.wg.Done()
	logger := m.runnerLogger()

	for ctx.Err() == nil {
		m.reclaimStale(ctx, logger)

		item, err := m.nextItem(ctx, pipe)
		switch {
		case err != nil:
			m.notePollFailure(ctx, logger, err)
		case item == nil:
			m.sleep(ctx)
		default:
			if err := m.processItem(ctx, pipe, logger, item); errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

// reclaimStale rolls back items whose runner stopped heartbeating. Failures
// are logged, not fatal; the reclaim is retried on the next loop pass.
func (m *Manager) reclaimStale(ctx context.Context, logger *slog.Logger) {
	if err := m.heartbeat.SweepStale(ctx, logger); err != nil {
		logger.Warn("reclaim stale processing failed; stuck items may remain",
			logging.Error(err),
			logging.String(logging.FieldEventType, "heartbeat_reclaim_failed"),
		)
	}
}

// RunItem drives a single queue item through every remaining stage and blocks
// until the item completes, fails, or the context is cancelled. Queue-level
// notifications stay quiet; job-level ones still fire.
func (m *Manager) RunItem(ctx context.Context, id int64) (*queue.Item, error) {
	m.mu.RLock()
	pipe := m.pipeline
	m.mu.RUnlock()
	if pipe == nil || len(pipe.restingOrder) == 0 {
		return nil, errors.New("no stages registered")
	}
	pipe = pipe.withoutQueueLifecycle()
	logger := m.runnerLogger()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item, err := m.store.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load queue item %d: %w", id, err)
		}
		if item == nil {
			return nil, fmt.Errorf("queue item %d not found", id)
		}
		switch item.Status {
		case queue.StatusCompleted:
			return item, nil
		case queue.StatusFailed:
			return item, errors.New(failureReason(item, "unknown failure"))
		}
		if queue.IsProcessingStatus(item.Status) {
			// A previous run died mid-stage; resume from the preceding resting status.
			item.Status = queue.RestingBefore(item.Status)
			item.LastHeartbeat = nil
			if err := m.store.Update(ctx, item); err != nil {
				return nil, fmt.Errorf("reset interrupted item: %w", err)
			}
		}
		if _, ok := pipe.stageForStatus(item.Status); !ok {
			return item, fmt.Errorf("no stage configured for status %s", item.Status)
		}

		if err := m.processItem(ctx, pipe, logger, item); err != nil {
			refreshed, loadErr := m.store.GetByID(ctx, id)
			if loadErr == nil && refreshed != nil && refreshed.Status == queue.StatusFailed {
				return refreshed, errors.New(failureReason(refreshed, err.Error()))
			}
			return nil, err
		}
	}
}

func failureReason(item *queue.Item, fallback string) string {
	if item != nil {
		if msg := strings.TrimSpace(item.ErrorMessage); msg != "" {
			return msg
		}
	}
	return fallback
}

func (m *Manager) nextItem(ctx context.Context, pipe *pipeline) (*queue.Item, error) {
	if pipe == nil || len(pipe.restingOrder) == 0 {
		return nil, nil
	}
	return m.store.NextForStatuses(ctx, pipe.restingOrder...)
}

func (m *Manager) notePollFailure(ctx context.Context, logger *slog.Logger, err error) {
	m.noteFailure(err)
	logger.Error("fetching next queue item failed",
		logging.Error(err),
		logging.String(logging.FieldEventType, "queue_poll_failed"),
	)
	m.sleep(ctx)
}

// sleep pauses for one poll interval, waking early on shutdown.
func (m *Manager) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}
