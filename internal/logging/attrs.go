package logging

import (
	"log/slog"
)

// Attr aliases slog.Attr so callers can build attribute slices without
// importing slog alongside this package.
type Attr = slog.Attr

// Attribute constructors re-exported for the same reason.
var (
	Bool     = slog.Bool
	Duration = slog.Duration
	Float64  = slog.Float64
	Int      = slog.Int
	Int64    = slog.Int64
	String   = slog.String
)

// Error wraps err for logging under the conventional "error" key.
func Error(err error) Attr {
	if err != nil {
		return slog.Any("error", err)
	}
	return slog.String("error", "<nil>")
}

// Args converts attributes into the variadic form slog methods accept.
func Args(attrs ...Attr) []any {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return args
}
