package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"overdub/internal/logging"
	"overdub/internal/queue"
	"overdub/internal/stage"
)

// errItemClaimed signals that another runner moved the item first.
var errItemClaimed = errors.New("queue item already claimed")

func (m *Manager) processItem(ctx context.Context, pipe *pipeline, runLogger *slog.Logger, item *queue.Item) error {
	stg, ok := pipe.stageForStatus(item.Status)
	if !ok {
		if runLogger == nil {
			runLogger = m.runnerLogger()
		}
		runLogger.Warn("no stage configured for status", logging.String("status", string(item.Status)))
		m.sleep(ctx)
		return nil
	}

	requestID := uuid.NewString()
	stageCtx := withStageContext(ctx, stg.name, item, requestID)
	stageLogger := m.stageLogger(stageCtx, runLogger)
	if aware, ok := stg.handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	switch err := m.claimForStage(stageCtx, pipe, stg, item); {
	case err == nil:
	case errors.Is(err, errItemClaimed):
		stageLogger.Debug("item claimed elsewhere, skipping", logging.Int64(logging.FieldJobID, item.ID))
		return nil
	default:
		stageLogger.Error("failed to transition item to processing", logging.Error(err))
		m.noteFailure(err)
		return err
	}

	return m.executeStage(stageCtx, stageLogger, stg, item)
}

func (m *Manager) executeStage(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, item *queue.Item) error {
	stageStart := time.Now()
	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(stg.processing)),
		logging.String("job", item.DisplayName()),
		logging.String("video_file", strings.TrimSpace(item.VideoPath)),
	)

	handler := stg.handler
	if handler == nil {
		err := errors.New("stage handler unavailable")
		stageLogger.Warn("missing stage handler", logging.String("stage", stg.name))
		item.SetFailed(fmt.Sprintf("stage %s missing handler", stg.name))
		if persistErr := m.store.Update(ctx, item); persistErr != nil {
			stageLogger.Error("failed to persist missing handler failure", logging.Error(persistErr))
		}
		m.noteFailure(err)
		return err
	}

	if err := handler.Prepare(ctx, item); err != nil {
		return m.failStage(ctx, stg, item, err)
	}
	if err := m.persistItem(ctx, stageLogger, item, "persist stage preparation"); err != nil {
		return err
	}

	if execErr := m.executeWithHeartbeat(ctx, handler, item); execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return execErr
		}
		return m.failStage(ctx, stg, item, execErr)
	}

	finalizeStageResult(item, stg)
	if err := m.persistItem(ctx, stageLogger, item, "persist stage result"); err != nil {
		return err
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(item.Status)),
		logging.String(logging.FieldProgressMessage, strings.TrimSpace(item.ProgressMessage)),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	m.noteProcessed(item)
	if item.Status == queue.StatusCompleted {
		m.notifyJobCompleted(ctx, item)
	}
	m.checkQueueCompletion(ctx)
	return nil
}

// failStage records err as the stage's failure and surfaces it to the caller.
func (m *Manager) failStage(ctx context.Context, stg pipelineStage, item *queue.Item, err error) error {
	m.handleStageFailure(ctx, stg.name, item, err)
	m.noteFailure(err)
	return err
}

// persistItem saves the item, logging and recording the wrapped error under
// op when the write fails.
func (m *Manager) persistItem(ctx context.Context, logger *slog.Logger, item *queue.Item, op string) error {
	err := m.store.Update(ctx, item)
	if err == nil {
		return nil
	}
	wrapped := fmt.Errorf("%s: %w", op, err)
	logger.Error("failed to "+op, logging.Error(wrapped))
	m.noteFailure(wrapped)
	return wrapped
}

// finalizeStageResult advances the item out of processing and, on terminal
// completion, fills in any progress fields the handler left blank.
func finalizeStageResult(item *queue.Item, stg pipelineStage) {
	if item.Status == stg.processing || item.Status == "" {
		item.Status = stg.advanceTo
	}
	item.LastHeartbeat = nil
	if item.Status != queue.StatusCompleted {
		return
	}
	label := queue.StatusCompleted.Label()
	if strings.TrimSpace(item.ProgressStage) == "" {
		item.ProgressStage = label
	}
	if strings.TrimSpace(item.ProgressMessage) == "" {
		item.ProgressMessage = label
	}
	if item.ProgressPercent < 100 {
		item.ProgressPercent = 100
	}
}

// executeWithHeartbeat runs the handler while a background loop keeps the
// item's heartbeat fresh. The loop is stopped before returning.
func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, item *queue.Item) error {
	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go m.heartbeat.Beat(hbCtx, &wg, item.ID)
	defer func() {
		stopHeartbeat()
		wg.Wait()
	}()
	return handler.Execute(ctx, item)
}

// claimForStage atomically moves the item into the stage's processing status.
// errItemClaimed reports that a concurrent runner won the claim.
func (m *Manager) claimForStage(ctx context.Context, pipe *pipeline, stg pipelineStage, item *queue.Item) error {
	if stg.processing == "" {
		return errors.New("processing status must not be empty")
	}

	claimed, err := m.store.Claim(ctx, item.ID, item.Status, stg.processing)
	if err != nil {
		return fmt.Errorf("claim queue item: %w", err)
	}
	if !claimed {
		return errItemClaimed
	}

	markClaimed(item, stg.processing)
	if err := m.store.Update(ctx, item); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}
	m.noteProcessed(item)
	if stg.resting == queue.StatusPending {
		m.notifyJobStarted(ctx, item)
	}
	if pipe == nil || pipe.notifyQueueLifecycle {
		m.onQueueItemStarted(ctx)
	}
	return nil
}

// markClaimed stamps the in-memory item with its new processing state. The
// progress fields keep whatever the previous stage reported unless blank.
func markClaimed(item *queue.Item, processing queue.Status) {
	now := time.Now().UTC()
	item.Status = processing
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	item.LastHeartbeat = &now
	if item.ProgressStage == "" {
		item.ProgressStage = processing.Label()
	}
	if item.ProgressMessage == "" {
		item.ProgressMessage = processing.Label() + " started"
	}
}
