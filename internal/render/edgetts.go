package render

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strings"

	"overdub/internal/services"
)

const defaultEdgeTTSBinary = "edge-tts"

// commandRunner abstracts external process execution so tests can intercept
// tool invocations.
type commandRunner func(ctx context.Context, name string, args ...string) error

// defaultCommandRunner executes external commands, folding combined output
// into the returned error.
func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if trimmed := strings.TrimSpace(string(output)); trimmed != "" {
			return fmt.Errorf("%w: %s", err, trimmed)
		}
		return err
	}
	return nil
}

// EdgeTTS synthesizes speech through the edge-tts CLI. It is the template
// voice engine: a named neural voice plus a per-speaker pitch offset.
type EdgeTTS struct {
	binary string
	run    commandRunner
}

// NewEdgeTTS constructs the template synthesis backend.
func NewEdgeTTS(binary string) *EdgeTTS {
	if strings.TrimSpace(binary) == "" {
		binary = defaultEdgeTTSBinary
	}
	return &EdgeTTS{binary: binary, run: defaultCommandRunner}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (e *EdgeTTS) WithCommandRunner(r commandRunner) {
	if e != nil && r != nil {
		e.run = r
	}
}

// Synthesize renders req.Text to outPath at the requested pitch and pace.
func (e *EdgeTTS) Synthesize(ctx context.Context, req SynthesisRequest, outPath string) error {
	if e == nil {
		return services.Wrap(services.ErrConfiguration, "render", "edge-tts", "backend not initialized", nil)
	}
	if strings.TrimSpace(req.Voice) == "" {
		return services.Wrap(services.ErrConfiguration, "render", "edge-tts", "voice is required for template synthesis", nil)
	}
	if err := e.run(ctx, e.binary, buildEdgeTTSArgs(req, outPath)...); err != nil {
		return wrapSynthesisError(ctx, "edge-tts", err)
	}
	return nil
}

// buildEdgeTTSArgs constructs the edge-tts invocation. Pitch always carries
// an explicit sign so negative offsets survive; rate is only passed when the
// pacing correction rounds to a non-zero percentage.
func buildEdgeTTSArgs(req SynthesisRequest, outPath string) []string {
	args := []string{
		"--voice", req.Voice,
		"--text", req.Text,
		fmt.Sprintf("--pitch=%+dHz", req.PitchHz),
	}
	if pct := ratePercent(req.SpeedFactor); pct != 0 {
		args = append(args, fmt.Sprintf("--rate=%+d%%", pct))
	}
	return append(args, "--write-media", outPath)
}

// ratePercent converts a speed factor to the whole-percent adjustment
// edge-tts expects. 1.25 yields +25 and 0.8 yields -20; factors at or
// rounding to natural speed yield 0 so the flag can be omitted.
func ratePercent(factor float64) int {
	if factor <= 0 || factor == 1.0 {
		return 0
	}
	return int(math.Round((factor - 1.0) * 100))
}
