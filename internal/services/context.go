package services

import "context"

type ctxKey string

const (
	jobIDKey     ctxKey = "job_id"
	stageKey     ctxKey = "stage"
	requestIDKey ctxKey = "request_id"
)

// WithJobID records the queue item id on the context.
func WithJobID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, jobIDKey, id)
}

// JobIDFromContext reports the queue item id recorded by WithJobID.
func JobIDFromContext(ctx context.Context) (int64, bool) {
	switch id := ctx.Value(jobIDKey).(type) {
	case int64:
		return id, true
	case int:
		return int64(id), true
	}
	return 0, false
}

// WithStage records the active stage name on the context. Empty names leave
// the context untouched.
func WithStage(ctx context.Context, name string) context.Context {
	return withString(ctx, stageKey, name)
}

// StageFromContext reports the stage name recorded by WithStage.
func StageFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, stageKey)
}

// WithRequestID records a correlation id used to tie related log lines
// together. Empty ids leave the context untouched.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDKey, id)
}

// RequestIDFromContext reports the correlation id recorded by WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, requestIDKey)
}

func withString(ctx context.Context, key ctxKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringValue(ctx context.Context, key ctxKey) (string, bool) {
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
