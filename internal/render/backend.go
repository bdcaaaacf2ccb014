package render

import (
	"context"
	"errors"

	"overdub/internal/services"
)

// SynthesisRequest describes a single speech synthesis invocation.
type SynthesisRequest struct {
	// Text is the translated sentence to speak.
	Text string
	// Voice names the neural voice for template engines.
	Voice string
	// PitchHz shifts the template voice pitch; negative lowers it.
	PitchHz int
	// SpeedFactor adjusts pacing relative to natural speed (1.0).
	SpeedFactor float64
	// ReferenceAudio points at the speaker sample for cloning engines.
	ReferenceAudio string
	// Language selects the cloning model language.
	Language string
}

// Backend produces raw synthesized audio for one segment at outPath.
// Implementations write whatever container their engine emits; the renderer
// converts the result to the canonical clip format afterwards.
type Backend interface {
	Synthesize(ctx context.Context, req SynthesisRequest, outPath string) error
}

// wrapSynthesisError classifies a backend failure, preferring the timeout
// marker when the invocation deadline expired.
func wrapSynthesisError(ctx context.Context, operation string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "render", operation, "synthesis timed out", err)
	}
	return services.Wrap(services.ErrRender, "render", operation, "synthesis failed", err)
}
