package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRender        = errors.New("render error")
	ErrMediaTool     = errors.New("media tool error")
	ErrValidation    = errors.New("validation failed")
	ErrConfiguration = errors.New("bad configuration")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timed out")
	ErrTransient     = errors.New("transient error")
)

// classifications orders the sentinel markers for Classify. More specific
// markers come first so a multi-wrapped error reports its narrowest kind.
var classifications = []struct {
	marker error
	label  string
}{
	{ErrConfiguration, "configuration"},
	{ErrValidation, "validation"},
	{ErrRender, "render"},
	{ErrMediaTool, "media_tool"},
	{ErrTimeout, "timeout"},
	{ErrNotFound, "not_found"},
	{ErrTransient, "transient"},
}

// Wrap tags err with one of the sentinel markers above and prefixes it with
// whatever stage context is non-blank. A nil marker defaults to ErrTransient.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	detail := buildDetail(stage, operation, message)
	if err == nil {
		return fmt.Errorf("%w: %s", marker, detail)
	}
	return fmt.Errorf("%w: %s: %w", marker, detail, err)
}

// Classify returns the taxonomy label for a stage error, used in log fields and
// notification payloads. Unrecognized errors classify as "unknown".
func Classify(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range classifications {
		if errors.Is(err, c.marker) {
			return c.label
		}
	}
	return "unknown"
}

func buildDetail(stage, operation, message string) string {
	var parts []string
	for _, part := range []string{stage, operation, message} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
