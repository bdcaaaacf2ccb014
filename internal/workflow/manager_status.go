package workflow

import (
	"context"

	"overdub/internal/logging"
	"overdub/internal/queue"
	"overdub/internal/stage"
)

// Snapshot captures the manager state at one instant, assembled for the
// status command.
type Snapshot struct {
	Running     bool
	LastError   string
	LastJob     *queue.Item
	QueueCounts map[queue.Status]int
	StageHealth map[string]stage.Health
}

// Status reports whether the manager is running, the most recent failure,
// per-status queue counts, and the readiness of every configured stage.
func (m *Manager) Status(ctx context.Context) Snapshot {
	m.mu.RLock()
	summary := Snapshot{
		Running: m.running,
		LastJob: cloneItem(m.lastProcessed),
	}
	if m.lastFailure != nil {
		summary.LastError = m.lastFailure.Error()
	}
	var stages []pipelineStage
	if m.pipeline != nil {
		stages = append(stages, m.pipeline.stages...)
	}
	m.mu.RUnlock()

	if stats, err := m.store.Stats(ctx); err != nil {
		m.logger.Warn("queue stats unavailable", logging.Error(err))
	} else {
		summary.QueueCounts = stats
	}

	summary.StageHealth = make(map[string]stage.Health, len(stages))
	for _, stg := range stages {
		if stg.handler != nil {
			summary.StageHealth[stg.name] = stg.handler.HealthCheck(ctx)
		}
	}
	return summary
}

func (m *Manager) noteFailure(err error) {
	m.mu.Lock()
	m.lastFailure = err
	m.mu.Unlock()
}

func (m *Manager) noteProcessed(item *queue.Item) {
	m.mu.Lock()
	m.lastProcessed = cloneItem(item)
	m.mu.Unlock()
}

// cloneItem returns a detached copy so callers cannot observe later mutations.
func cloneItem(item *queue.Item) *queue.Item {
	if item == nil {
		return nil
	}
	dup := *item
	return &dup
}
