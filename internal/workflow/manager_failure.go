package workflow

import (
	"context"
	"errors"
	"strings"

	"overdub/internal/logging"
	"overdub/internal/queue"
	"overdub/internal/services"
)

func (m *Manager) handleStageFailure(ctx context.Context, stageName string, item *queue.Item, stageErr error) {
	logger := m.stageLogger(ctx, m.runnerLogger())

	message := failureMessage(stageName, stageErr)
	item.SetFailed(message)

	logger.Error("stage failed",
		logging.Args(
			logging.String("resolved_status", string(queue.StatusFailed)),
			logging.String("error_kind", services.Classify(stageErr)),
			logging.String("error_message", message),
			logging.Error(stageErr),
			logging.String(logging.FieldEventType, "stage_failure"),
		)...)

	switch err := m.store.Update(ctx, item); {
	case err == nil:
	case errors.Is(err, context.Canceled):
		logger.Debug("shutting down, could not update stage failure")
	default:
		logger.Error("failed to persist stage failure", logging.Error(err))
	}

	m.noteProcessed(item)
	m.notifyJobFailed(ctx, stageName, item, message)
	m.checkQueueCompletion(ctx)
}

// failureMessage extracts a human-readable failure description, falling back
// to a generic per-stage message when the error carries no text.
func failureMessage(stageName string, stageErr error) string {
	if stageErr != nil {
		if msg := strings.TrimSpace(stageErr.Error()); msg != "" {
			return msg
		}
	}
	subject := stageName
	if subject == "" {
		subject = "workflow"
	}
	if stageErr == nil {
		return subject + " failed without error detail"
	}
	return subject + " failed"
}
