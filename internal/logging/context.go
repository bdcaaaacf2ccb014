package logging

import (
	"context"
	"log/slog"

	"overdub/internal/services"
)

// Shared attribute names. Components log through these so downstream queries
// can rely on a stable vocabulary regardless of which stage emitted the line.
const (
	// FieldComponent names the subsystem emitting the line.
	FieldComponent = "component"
	// FieldJobID identifies the queue item a line belongs to.
	FieldJobID = "job_id"
	// FieldStage carries the workflow stage name.
	FieldStage = "stage"
	// FieldEventType marks lifecycle events (stage_start, stage_complete, stage_failed).
	FieldEventType = "event_type"
	// FieldCorrelationID ties together every line from one pipeline run.
	FieldCorrelationID = "correlation_id"
	// FieldSegmentStart tags log lines with the start time of the segment being processed.
	FieldSegmentStart = "segment_start"
	// FieldSpeaker tags log lines with a speaker identifier.
	FieldSpeaker = "speaker"
	// FieldProgressPercent carries stage completion percentage.
	FieldProgressPercent = "progress_percent"
	// FieldProgressMessage carries the human-readable progress message.
	FieldProgressMessage = "progress_message"
	// FieldDurationSecs carries an audio or video duration in seconds.
	FieldDurationSecs = "duration_secs"
)

// NewComponentLogger tags a logger with a component attribute. A nil base
// falls back to the no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// WithContext returns a logger carrying the job id, stage, and correlation id
// found in ctx, so stage code can log without re-threading identifiers.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	args := make([]any, 0, 3)
	if id, ok := services.JobIDFromContext(ctx); ok {
		args = append(args, slog.Int64(FieldJobID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		args = append(args, slog.String(FieldStage, stage))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		args = append(args, slog.String(FieldCorrelationID, rid))
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}
