package services_test

import (
	"errors"
	"strings"
	"testing"

	"overdub/internal/services"
)

func TestWrapBuildsInspectableError(t *testing.T) {
	cause := errors.New("exit status 1")
	err := services.Wrap(services.ErrMediaTool, "merging", "mux", "failed", cause)

	if !errors.Is(err, services.ErrMediaTool) || !errors.Is(err, cause) {
		t.Fatalf("marker or cause lost: %v", err)
	}
	for _, fragment := range []string{"merging", "mux", "failed", "exit status 1"} {
		if msg := err.Error(); !strings.Contains(msg, fragment) {
			t.Fatalf("error %q missing %q", msg, fragment)
		}
	}
}

func TestWrapNilMarkerDefaultsTransient(t *testing.T) {
	err := services.Wrap(nil, "rendering", "synthesize", "", errors.New("io"))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{services.Wrap(services.ErrConfiguration, "voices", "assign", "bad config", nil), "configuration"},
		{services.Wrap(services.ErrValidation, "segments", "parse", "empty script", nil), "validation"},
		{services.Wrap(services.ErrRender, "rendering", "synthesize", "edge-tts failed", errors.New("exit 1")), "render"},
		{services.Wrap(services.ErrMediaTool, "merging", "ffmpeg", "mux failed", errors.New("exit 1")), "media_tool"},
		{services.Wrap(services.ErrTimeout, "rendering", "synthesize", "deadline", nil), "timeout"},
		{services.Wrap(services.ErrNotFound, "compositing", "clip", "missing", nil), "not_found"},
		{errors.New("plain"), "unknown"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := services.Classify(tt.err); got != tt.want {
			t.Fatalf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
