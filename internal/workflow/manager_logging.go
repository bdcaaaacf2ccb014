package workflow

import (
	"context"
	"log/slog"

	"overdub/internal/logging"
	"overdub/internal/queue"
	"overdub/internal/services"
)

func (m *Manager) runnerLogger() *slog.Logger {
	if m.logger != nil {
		return logging.NewComponentLogger(m.logger, "workflow-runner")
	}
	return logging.NewNop()
}

// stageLogger layers context fields (job, stage, correlation id) onto the
// runner logger for the duration of one stage execution.
func (m *Manager) stageLogger(ctx context.Context, base *slog.Logger) *slog.Logger {
	for _, candidate := range []*slog.Logger{base, m.logger} {
		if candidate != nil {
			return logging.WithContext(ctx, candidate)
		}
	}
	return logging.WithContext(ctx, logging.NewNop())
}

// withStageContext tags ctx with the identifiers every stage log line carries.
// Empty values are dropped by the services helpers, so no guards here.
func withStageContext(ctx context.Context, stageName string, item *queue.Item, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if item != nil {
		ctx = services.WithJobID(ctx, item.ID)
	}
	ctx = services.WithStage(ctx, stageName)
	return services.WithRequestID(ctx, requestID)
}
