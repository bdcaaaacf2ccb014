package render

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"overdub/internal/config"
	"overdub/internal/logging"
	"overdub/internal/media/pcm"
	"overdub/internal/queue"
	"overdub/internal/segments"
	"overdub/internal/services"
	"overdub/internal/stage"
	"overdub/internal/voices"
)

// Speed factor bounds for the corrective synthesis pass. Corrections outside
// this range make speech unintelligible, so the duration conform handles the
// remainder instead.
const (
	minSpeedFactor = 0.7
	maxSpeedFactor = 2.0
)

// RenderedClip describes one synthesized segment artifact.
type RenderedClip struct {
	Path     string
	Duration float64
}

// Renderer drives the pending to rendered stage: it synthesizes one clip per
// script segment into the item's segments directory.
type Renderer struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	backends map[string]Backend
	run      commandRunner
	sampler  *logging.ProgressSampler
}

// NewRenderer constructs the renderer with production backends. The cloning
// backend is only registered when an XTTS server is configured.
func NewRenderer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Renderer {
	backends := map[string]Backend{
		voices.EngineSimple: NewEdgeTTS(cfg.EdgeTTSBinary()),
	}
	if strings.TrimSpace(cfg.Tools.XTTSURL) != "" {
		backends[voices.EngineCloning] = NewXTTS(cfg.Tools.XTTSURL)
	}
	return NewRendererWithDependencies(cfg, store, logger, backends)
}

// NewRendererWithDependencies constructs the renderer with explicit backends (used in tests).
func NewRendererWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, backends map[string]Backend) *Renderer {
	return &Renderer{
		cfg:      cfg,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "renderer"),
		backends: backends,
		run:      defaultCommandRunner,
		sampler:  logging.NewProgressSampler(10),
	}
}

// SetLogger allows the workflow manager to route stage logs into the job-scoped log.
func (r *Renderer) SetLogger(logger *slog.Logger) {
	if r == nil {
		return
	}
	r.logger = logging.NewComponentLogger(logger, "renderer")
}

// WithCommandRunner allows injecting a custom tool runner for tests.
func (r *Renderer) WithCommandRunner(run commandRunner) {
	if r != nil && run != nil {
		r.run = run
	}
}

// Prepare validates the script and voice assignment before synthesis begins,
// so configuration mistakes fail the job without invoking any tools.
func (r *Renderer) Prepare(ctx context.Context, item *queue.Item) error {
	if r == nil || r.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "render", "prepare", "renderer is not configured", nil)
	}
	if r.store == nil {
		return services.Wrap(services.ErrConfiguration, "render", "prepare", "queue store unavailable", nil)
	}
	segs, err := stage.LoadSegments(item)
	if err != nil {
		return err
	}
	if _, err := r.assignment(item); err != nil {
		return err
	}
	item.InitProgress("Rendering", fmt.Sprintf("Synthesizing %d segments", segs.Len()))
	return r.store.UpdateProgress(ctx, item)
}

// Execute renders every segment clip in ascending start order. A segment
// whose synthesis fails is logged and left without a clip; the compositor
// substitutes silence for its span. Execute only fails when no segment
// rendered at all.
func (r *Renderer) Execute(ctx context.Context, item *queue.Item) error {
	if r == nil || r.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "render", "execute", "renderer is not configured", nil)
	}
	if item == nil {
		return services.Wrap(services.ErrValidation, "render", "execute", "queue item is nil", nil)
	}
	logger := logging.WithContext(ctx, r.logger)
	stageStart := time.Now()

	segs, err := stage.LoadSegments(item)
	if err != nil {
		return err
	}
	assignment, err := r.assignment(item)
	if err != nil {
		return err
	}

	segmentsDir := item.SegmentsDir(r.cfg.Paths.WorkspaceDir)
	if err := os.MkdirAll(segmentsDir, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "render", "execute", "create segments directory", err)
	}

	total := segs.Len()
	rendered := 0
	var lastErr error
	for i, seg := range segs.All() {
		if err := ctx.Err(); err != nil {
			return err
		}
		profile := assignment.ProfileFor(seg.Speaker)
		clipPath := filepath.Join(segmentsDir, seg.ClipName())
		clip, err := r.renderSegment(ctx, seg, profile, clipPath)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			lastErr = err
			_ = os.Remove(clipPath)
			logger.Warn("segment synthesis failed; composite will carry silence",
				logging.Error(err),
				logging.Float64(logging.FieldSegmentStart, seg.Start),
				logging.String(logging.FieldSpeaker, seg.Speaker.String()),
				logging.String("classification", services.Classify(err)),
			)
		} else {
			rendered++
			logger.Debug("segment rendered",
				logging.Float64(logging.FieldSegmentStart, seg.Start),
				logging.Float64(logging.FieldDurationSecs, clip.Duration),
				logging.String("engine", profile.Engine),
			)
		}

		percent := float64(i+1) / float64(total) * 100
		item.SetProgress("Rendering", fmt.Sprintf("Rendered segment %d/%d", i+1, total), percent)
		if r.store != nil {
			if err := r.store.UpdateProgress(ctx, item); err != nil {
				logger.Warn("failed to persist render progress", logging.Error(err))
			}
		}
		if r.sampler.ShouldLog(percent, "render") {
			logger.Info("render progress",
				logging.Float64(logging.FieldProgressPercent, percent),
				logging.String(logging.FieldProgressMessage, item.ProgressMessage),
			)
		}
	}

	if rendered == 0 {
		return services.Wrap(services.ErrRender, "render", "execute",
			fmt.Sprintf("all %d segments failed synthesis", total), lastErr)
	}

	item.SetProgressComplete("Rendered", fmt.Sprintf("Rendered %d/%d segments", rendered, total))
	logger.Info("render stage summary",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("segments", total),
		logging.Int("rendered", rendered),
		logging.Int("failed", total-rendered),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	return nil
}

// HealthCheck verifies the tools synthesis shells out to.
func (r *Renderer) HealthCheck(ctx context.Context) stage.Health {
	const name = "renderer"
	if r == nil || r.cfg == nil {
		return stage.Unhealthy(name, "renderer not configured")
	}
	if _, err := exec.LookPath(r.cfg.EdgeTTSBinary()); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("edge-tts binary %q not found", r.cfg.EdgeTTSBinary()))
	}
	if _, err := exec.LookPath(r.cfg.FFmpegBinary()); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("ffmpeg binary %q not found", r.cfg.FFmpegBinary()))
	}
	return stage.Healthy(name)
}

// assignment resolves the voice profile for every speaker in the job.
func (r *Renderer) assignment(item *queue.Item) (voices.Assignment, error) {
	voiceCfg, err := voices.LoadVoiceConfig(item.VoiceConfigPath)
	if err != nil {
		return voices.Assignment{}, err
	}
	assigner, err := voices.NewAssigner(r.cfg.Render.TargetLanguage, strings.TrimSpace(r.cfg.Tools.XTTSURL) != "")
	if err != nil {
		return voices.Assignment{}, err
	}
	return assigner.Assign(voiceCfg)
}

// renderSegment produces the canonical clip for one segment. The first pass
// synthesizes at natural speed; when the measured duration misses the
// segment window by more than the tolerance, a single corrective pass
// re-synthesizes at an adjusted pace, and any residual drift is conformed by
// padding or truncation.
func (r *Renderer) renderSegment(ctx context.Context, seg segments.Segment, profile voices.VoiceProfile, clipPath string) (RenderedClip, error) {
	backend := r.backends[profile.Engine]
	if backend == nil {
		return RenderedClip{}, services.Wrap(services.ErrConfiguration, "render", "synthesize",
			fmt.Sprintf("no backend for engine %q", profile.Engine), nil)
	}

	raw := rawSynthPath(clipPath)
	defer os.Remove(raw)

	req := SynthesisRequest{
		Text:           seg.Text,
		Voice:          profile.Voice,
		PitchHz:        profile.PitchHz,
		SpeedFactor:    1.0,
		ReferenceAudio: profile.ReferenceAudio,
		Language:       profile.Language,
	}
	if err := r.synthesize(ctx, backend, req, raw, clipPath); err != nil {
		return RenderedClip{}, err
	}
	measured, err := pcm.FileDuration(clipPath)
	if err != nil {
		return RenderedClip{}, services.Wrap(services.ErrRender, "render", "measure", "decode synthesized clip", err)
	}

	target := seg.Duration()
	tolerance := r.cfg.Render.DurationToleranceSecs
	if math.Abs(measured-target) > tolerance {
		factor := clampSpeedFactor(measured / target)
		logging.WithContext(ctx, r.logger).Debug("correcting segment pacing",
			logging.Float64(logging.FieldSegmentStart, seg.Start),
			logging.Float64("measured_secs", measured),
			logging.Float64("target_secs", target),
			logging.Float64("speed_factor", factor),
		)
		req.SpeedFactor = factor
		if err := r.synthesize(ctx, backend, req, raw, clipPath); err != nil {
			return RenderedClip{}, err
		}
		measured, err = pcm.FileDuration(clipPath)
		if err != nil {
			return RenderedClip{}, services.Wrap(services.ErrRender, "render", "measure", "decode corrected clip", err)
		}
	}

	if math.Abs(measured-target) > tolerance {
		if err := conformClipDuration(clipPath, target); err != nil {
			return RenderedClip{}, err
		}
		measured = target
	}

	return RenderedClip{Path: clipPath, Duration: measured}, nil
}

// synthesize runs one backend pass into rawPath and converts the result to
// the canonical clip format at clipPath.
func (r *Renderer) synthesize(ctx context.Context, backend Backend, req SynthesisRequest, rawPath, clipPath string) error {
	synthCtx := ctx
	if timeout := r.cfg.SegmentTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		synthCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := backend.Synthesize(synthCtx, req, rawPath); err != nil {
		return err
	}
	return r.convertClip(ctx, rawPath, clipPath)
}

// convertClip transcodes a raw synthesis result into the mono 16-bit PCM WAV
// format all downstream audio math assumes.
func (r *Renderer) convertClip(ctx context.Context, inPath, outPath string) error {
	toolCtx := ctx
	if timeout := r.cfg.ToolTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		toolCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	args := []string{
		"-i", inPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", strconv.Itoa(r.cfg.Render.SampleRate),
		"-y",
		outPath,
	}
	if err := r.run(toolCtx, r.cfg.FFmpegBinary(), args...); err != nil {
		if errors.Is(toolCtx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "render", "convert", "ffmpeg conversion timed out", err)
		}
		return services.Wrap(services.ErrMediaTool, "render", "convert", "ffmpeg conversion failed", err)
	}
	return nil
}

// conformClipDuration pads or truncates the clip to exactly target seconds.
func conformClipDuration(path string, target float64) error {
	track, err := pcm.ReadFile(path)
	if err != nil {
		return services.Wrap(services.ErrRender, "render", "conform", "read clip for duration conform", err)
	}
	track.TrimTo(target)
	track.PadTo(target)
	if err := track.WriteFile(path); err != nil {
		return services.Wrap(services.ErrRender, "render", "conform", "write conformed clip", err)
	}
	return nil
}

// clampSpeedFactor bounds pacing correction so corrected speech stays
// intelligible.
func clampSpeedFactor(factor float64) float64 {
	if factor < minSpeedFactor {
		return minSpeedFactor
	}
	if factor > maxSpeedFactor {
		return maxSpeedFactor
	}
	return factor
}

// rawSynthPath locates the temporary raw synthesis output next to the clip.
func rawSynthPath(clipPath string) string {
	dir := filepath.Dir(clipPath)
	base := filepath.Base(clipPath)
	return filepath.Join(dir, ".synth-"+base+".tmp")
}
