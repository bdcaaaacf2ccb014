package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"overdub/internal/logging"
	"overdub/internal/notifications"
	"overdub/internal/queue"
)

func (m *Manager) notifyJobStarted(ctx context.Context, item *queue.Item) {
	if m.notifier == nil || item == nil {
		return
	}
	m.publish(ctx, notifications.EventJobStarted, "job start", notifications.Payload{
		"job": item.DisplayName(),
	})
}

func (m *Manager) notifyJobCompleted(ctx context.Context, item *queue.Item) {
	if m.notifier == nil || item == nil {
		return
	}
	m.publish(ctx, notifications.EventJobCompleted, "job completion", notifications.Payload{
		"job":   item.DisplayName(),
		"file":  item.FinalPath,
		"drift": fmt.Sprintf("%+.3fs", item.DurationDrift),
	})
}

func (m *Manager) notifyJobFailed(ctx context.Context, stageName string, item *queue.Item, reason string) {
	if m.notifier == nil || item == nil {
		return
	}
	m.publish(ctx, notifications.EventJobFailed, "job failure", notifications.Payload{
		"job":    item.DisplayName(),
		"stage":  stageName,
		"reason": reason,
	})
}

// onQueueItemStarted fires the queue-started event the first time an item is
// claimed while the queue was idle.
func (m *Manager) onQueueItemStarted(ctx context.Context) {
	if m.notifier == nil {
		return
	}
	stats, ok := m.queueStatsForNotification(ctx, "queue start")
	if !ok || !m.beginQueueRun() {
		return
	}
	m.publish(ctx, notifications.EventQueueStarted, "queue start", notifications.Payload{
		"count": countActiveItems(stats),
	})
}

// checkQueueCompletion fires the queue-completed event once the last active
// item drains.
func (m *Manager) checkQueueCompletion(ctx context.Context) {
	if m.notifier == nil {
		return
	}
	stats, ok := m.queueStatsForNotification(ctx, "queue completion")
	if !ok || countActiveItems(stats) > 0 {
		return
	}
	elapsed, ok := m.endQueueRun()
	if !ok {
		return
	}
	m.publish(ctx, notifications.EventQueueCompleted, "queue completion", notifications.Payload{
		"processed": stats[queue.StatusCompleted],
		"failed":    stats[queue.StatusFailed],
		"duration":  elapsed,
	})
}

// beginQueueRun flips the queue-active flag, reporting false when a run is
// already in flight.
func (m *Manager) beginQueueRun() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.drainActive {
		return false
	}
	m.drainActive = true
	m.drainStarted = time.Now()
	return true
}

// endQueueRun clears the queue-active flag and reports how long the run took.
// The second return is false when no run was active.
func (m *Manager) endQueueRun() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.drainActive {
		return 0, false
	}
	start := m.drainStarted
	m.drainActive = false
	m.drainStarted = time.Time{}
	if start.IsZero() {
		return 0, true
	}
	return time.Since(start), true
}

// queueStatsForNotification reads queue stats, logging and reporting false
// when they are unavailable so the caller skips its notification.
func (m *Manager) queueStatsForNotification(ctx context.Context, label string) (map[queue.Status]int, bool) {
	stats, err := m.store.Stats(ctx)
	if err == nil {
		return stats, true
	}
	if errors.Is(err, context.Canceled) {
		m.logger.Debug("shutting down, skipping " + label + " notification")
	} else {
		m.logger.Warn(label+" notification skipped, queue stats unavailable",
			logging.Error(err),
			logging.String(logging.FieldEventType, "queue_stats_failed"),
		)
	}
	return nil, false
}

func (m *Manager) publish(ctx context.Context, event notifications.Event, label string, payload notifications.Payload) {
	if err := m.notifier.Publish(ctx, event, payload); err != nil {
		m.logNotifyError(label, err)
	}
}

func (m *Manager) logNotifyError(label string, err error) {
	if errors.Is(err, context.Canceled) {
		m.logger.Debug("shutting down, could not send " + label + " notification")
		return
	}
	m.logger.Debug(label+" notification failed", logging.Error(err))
}

// countActiveItems tallies items still waiting on or inside a stage.
func countActiveItems(stats map[queue.Status]int) int {
	active := 0
	for status, count := range stats {
		switch status {
		case queue.StatusCompleted, queue.StatusFailed:
		default:
			active += count
		}
	}
	return active
}
