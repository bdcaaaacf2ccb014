// Package mux merges the reconciled dub track back into the source video.
// The video stream is copied without re-encoding; only the audio is replaced.
package mux

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"golang.org/x/text/language"

	"overdub/internal/config"
	"overdub/internal/fileutil"
	"overdub/internal/logging"
	"overdub/internal/media/ffprobe"
	"overdub/internal/queue"
	"overdub/internal/services"
	"overdub/internal/stage"
)

const progressStageMerging = "Merging"

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

// prober inspects a media container; injectable for tests.
type prober func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Muxer drives the reconciled to completed stage: it optionally mixes a
// background track under the dub, merges the result into the source video
// with stream copy, and publishes the dubbed file.
type Muxer struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	run    commandRunner
	probe  prober
}

// NewMuxer constructs the merge stage.
func NewMuxer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Muxer {
	return &Muxer{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "muxer"),
		run:    defaultCommandRunner,
		probe:  ffprobe.Inspect,
	}
}

// SetLogger allows the workflow manager to route stage logs into the job-scoped log.
func (m *Muxer) SetLogger(logger *slog.Logger) {
	if m == nil {
		return
	}
	m.logger = logging.NewComponentLogger(logger, "muxer")
}

// WithCommandRunner allows injecting a custom tool runner for tests.
func (m *Muxer) WithCommandRunner(run commandRunner) {
	if m != nil && run != nil {
		m.run = run
	}
}

// WithProber allows injecting a custom container inspector for tests.
func (m *Muxer) WithProber(p prober) {
	if m != nil && p != nil {
		m.probe = p
	}
}

// Prepare verifies every merge input exists before any tool runs.
func (m *Muxer) Prepare(ctx context.Context, item *queue.Item) error {
	if m == nil || m.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "merge", "prepare", "muxer is not configured", nil)
	}
	if m.store == nil {
		return services.Wrap(services.ErrConfiguration, "merge", "prepare", "queue store unavailable", nil)
	}
	if item == nil {
		return services.Wrap(services.ErrValidation, "merge", "prepare", "queue item is nil", nil)
	}
	if _, err := os.Stat(item.VideoPath); err != nil {
		return services.Wrap(services.ErrValidation, "merge", "prepare", "source video not found", err)
	}
	if _, err := os.Stat(m.dubTrackPath(item)); err != nil {
		return services.Wrap(services.ErrValidation, "merge", "prepare", "dub track not found", err)
	}
	if background := strings.TrimSpace(item.BackgroundPath); background != "" {
		if _, err := os.Stat(background); err != nil {
			return services.Wrap(services.ErrValidation, "merge", "prepare", "background track not found", err)
		}
	}
	item.InitProgress(progressStageMerging, "Merging dub track into video")
	return m.store.UpdateProgress(ctx, item)
}

// Execute mixes the background (when present), merges the dub into the video
// with stream copy, verifies the container, and publishes it to the output
// path. The work directory is cleared only after a successful publish so a
// reclaimed job can retry the merge from the reconciled dub track.
func (m *Muxer) Execute(ctx context.Context, item *queue.Item) error {
	stageStart := time.Now()
	if m == nil || m.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "merge", "execute", "muxer is not configured", nil)
	}
	if item == nil {
		return services.Wrap(services.ErrValidation, "merge", "execute", "queue item is nil", nil)
	}
	logger := logging.WithContext(ctx, m.logger)

	workDir := item.WorkDir(m.cfg.Paths.WorkspaceDir)
	dubPath := m.dubTrackPath(item)
	audioSource := dubPath

	background := strings.TrimSpace(item.BackgroundPath)
	if background != "" {
		mixedPath := filepath.Join(workDir, "mixed.wav")
		defer func() {
			if err := os.Remove(mixedPath); err != nil && !os.IsNotExist(err) {
				logger.Warn("failed to remove mixed intermediate", logging.Error(err))
			}
		}()
		if err := m.mixBackground(ctx, dubPath, background, mixedPath); err != nil {
			return err
		}
		audioSource = mixedPath
	}

	outputPath := m.outputPath(item)
	tmpPath := filepath.Join(workDir, "merged"+filepath.Ext(outputPath))
	if err := m.merge(ctx, item.VideoPath, audioSource, tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	info, err := os.Stat(tmpPath)
	if err != nil {
		return services.Wrap(services.ErrMediaTool, "merge", "verify", "merge produced no output", err)
	}
	if info.Size() == 0 {
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrMediaTool, "merge", "verify", "merge produced an empty file", nil)
	}
	if err := m.verifyStreams(ctx, tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := fileutil.MoveFile(tmpPath, outputPath); err != nil {
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrTransient, "merge", "publish", "move dubbed video into place", err)
	}
	item.FinalPath = outputPath

	if err := os.RemoveAll(workDir); err != nil {
		logger.Warn("failed to clear work directory",
			logging.Error(err),
			logging.String("work_dir", workDir),
		)
	}

	item.SetProgressComplete("Completed", fmt.Sprintf("Dubbed video at %s", outputPath))
	logger.Info("merge stage summary",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("final_path", outputPath),
		logging.Bool("background_mixed", background != ""),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	return nil
}

// HealthCheck verifies the tools the merge shells out to.
func (m *Muxer) HealthCheck(ctx context.Context) stage.Health {
	const name = "muxer"
	if m == nil || m.cfg == nil {
		return stage.Unhealthy(name, "muxer not configured")
	}
	if _, err := exec.LookPath(m.cfg.FFmpegBinary()); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("ffmpeg binary %q not found", m.cfg.FFmpegBinary()))
	}
	if _, err := exec.LookPath(m.cfg.FFprobeBinary()); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("ffprobe binary %q not found", m.cfg.FFprobeBinary()))
	}
	return stage.Healthy(name)
}

// dubTrackPath prefers the path recorded by the reconciler, falling back to
// the canonical work directory location.
func (m *Muxer) dubTrackPath(item *queue.Item) string {
	if p := strings.TrimSpace(item.DubTrackPath); p != "" {
		return p
	}
	return item.DubTrackFile(m.cfg.Paths.WorkspaceDir)
}

// outputPath resolves the final destination for the dubbed video.
func (m *Muxer) outputPath(item *queue.Item) string {
	if p := strings.TrimSpace(item.OutputPath); p != "" {
		return p
	}
	base := filepath.Base(item.VideoPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(m.cfg.Paths.OutputDir, stem+"_dubbed.mp4")
}

// mixBackground lays the background track under the dub, attenuated so the
// dubbed speech stays dominant. The mix ends with the dub track.
func (m *Muxer) mixBackground(ctx context.Context, dubPath, backgroundPath, outPath string) error {
	toolCtx := ctx
	if timeout := m.cfg.ToolTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		toolCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	filter := fmt.Sprintf("[1:a]volume=%.1fdB[bg];[0:a][bg]amix=inputs=2:duration=first[mix]",
		m.cfg.Mix.BackgroundGainDB)
	args := []string{
		"-i", dubPath,
		"-i", backgroundPath,
		"-filter_complex", filter,
		"-map", "[mix]",
		"-y",
		outPath,
	}
	if err := m.run(toolCtx, m.cfg.FFmpegBinary(), args...); err != nil {
		if errors.Is(toolCtx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "merge", "mix", "background mix timed out", err)
		}
		return services.Wrap(services.ErrMediaTool, "merge", "mix", "background mix failed", err)
	}
	return nil
}

// merge replaces the video's audio with the dub track. Video stream copy
// keeps the merge fast and lossless; audio is encoded to AAC for broad
// container compatibility.
func (m *Muxer) merge(ctx context.Context, videoPath, audioPath, outPath string) error {
	toolCtx := ctx
	if timeout := m.cfg.ToolTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		toolCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	args := []string{
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-metadata:s:a:0", "language=" + dubLanguageTag(m.cfg.Render.TargetLanguage),
		"-shortest",
		"-y",
		outPath,
	}
	if err := m.run(toolCtx, m.cfg.FFmpegBinary(), args...); err != nil {
		if errors.Is(toolCtx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "merge", "merge", "ffmpeg merge timed out", err)
		}
		return services.Wrap(services.ErrMediaTool, "merge", "merge", "ffmpeg merge failed", err)
	}
	return nil
}

// dubLanguageTag derives the ISO 639-2 tag recorded on the dub track so
// players label it correctly. Unrecognized configuration yields "und".
func dubLanguageTag(lang string) string {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return "und"
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return "und"
	}
	return base.ISO3()
}

// verifyStreams confirms the merged container carries both a video and an
// audio stream before it is published.
func (m *Muxer) verifyStreams(ctx context.Context, path string) error {
	toolCtx := ctx
	if timeout := m.cfg.ToolTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		toolCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	result, err := m.probe(toolCtx, m.cfg.FFprobeBinary(), path)
	if err != nil {
		return services.Wrap(services.ErrMediaTool, "merge", "verify", "inspect merged output", err)
	}
	if !result.HasVideo() {
		return services.Wrap(services.ErrMediaTool, "merge", "verify", "merged output missing video stream", nil)
	}
	if !result.HasAudio() {
		return services.Wrap(services.ErrMediaTool, "merge", "verify", "merged output missing audio stream", nil)
	}
	return nil
}
