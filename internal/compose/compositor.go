package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"log/slog"

	"overdub/internal/config"
	"overdub/internal/logging"
	"overdub/internal/media/pcm"
	"overdub/internal/queue"
	"overdub/internal/services"
	"overdub/internal/stage"
)

const (
	progressStageCompositing = "Compositing"

	// Tail padding applied when no target duration is known, so the last
	// clip never lands exactly on the track boundary.
	baseTailPadding = 0.1
)

// Compositor drives the rendered to composed stage: it lays rendered clips
// onto a silent base track at their segment offsets.
type Compositor struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
}

// NewCompositor constructs the composite assembly stage.
func NewCompositor(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Compositor {
	return &Compositor{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "compositor"),
	}
}

// SetLogger allows the workflow manager to route stage logs into the job-scoped log.
func (c *Compositor) SetLogger(logger *slog.Logger) {
	if c == nil {
		return
	}
	c.logger = logging.NewComponentLogger(logger, "compositor")
}

// Prepare validates the script and primes progress before assembly begins.
func (c *Compositor) Prepare(ctx context.Context, item *queue.Item) error {
	if c == nil || c.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "compose", "prepare", "compositor is not configured", nil)
	}
	if c.store == nil {
		return services.Wrap(services.ErrConfiguration, "compose", "prepare", "queue store unavailable", nil)
	}
	segs, err := stage.LoadSegments(item)
	if err != nil {
		return err
	}
	item.InitProgress(progressStageCompositing, fmt.Sprintf("Assembling %d clips", segs.Len()))
	return c.store.UpdateProgress(ctx, item)
}

// Execute assembles the composite track. The base is sized by the job's
// target duration when one is known, otherwise by the script's latest end
// time plus a small tail. Segments without a readable clip keep their span
// silent; a clip running past the end of the base extends it.
func (c *Compositor) Execute(ctx context.Context, item *queue.Item) error {
	stageStart := time.Now()
	if c == nil || c.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "compose", "execute", "compositor is not configured", nil)
	}
	if item == nil {
		return services.Wrap(services.ErrValidation, "compose", "execute", "queue item is nil", nil)
	}
	logger := logging.WithContext(ctx, c.logger)

	segs, err := stage.LoadSegments(item)
	if err != nil {
		return err
	}

	baseDuration := item.TargetDuration
	if baseDuration <= 0 {
		baseDuration = segs.MaxEnd() + baseTailPadding
	}
	base := pcm.Silence(baseDuration, c.cfg.Render.SampleRate)

	segmentsDir := item.SegmentsDir(c.cfg.Paths.WorkspaceDir)
	placed := 0
	silent := 0
	for _, seg := range segs.All() {
		if err := ctx.Err(); err != nil {
			return err
		}
		clipPath := filepath.Join(segmentsDir, seg.ClipName())
		clip, err := pcm.ReadFile(clipPath)
		if err != nil {
			silent++
			logger.Warn("clip unavailable; span stays silent",
				logging.Error(err),
				logging.Float64(logging.FieldSegmentStart, seg.Start),
				logging.String("clip", clipPath),
			)
			continue
		}
		if err := base.Overlay(clip, seg.Start); err != nil {
			silent++
			logger.Warn("clip overlay failed; span stays silent",
				logging.Error(err),
				logging.Float64(logging.FieldSegmentStart, seg.Start),
				logging.String("clip", clipPath),
			)
			continue
		}
		placed++
	}

	if placed == 0 {
		logger.Warn("no clips available; composite is pure silence",
			logging.Int("segments", segs.Len()),
		)
	}

	compositePath := item.CompositePath(c.cfg.Paths.WorkspaceDir)
	if err := os.MkdirAll(filepath.Dir(compositePath), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "compose", "execute", "create work directory", err)
	}
	if err := base.WriteFile(compositePath); err != nil {
		return services.Wrap(services.ErrTransient, "compose", "export", "write composite track", err)
	}

	item.SetProgressComplete("Composed", fmt.Sprintf("Composited %d/%d clips", placed, segs.Len()))
	logger.Info("composite stage summary",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("segments", segs.Len()),
		logging.Int("placed", placed),
		logging.Int("silent", silent),
		logging.Float64(logging.FieldDurationSecs, base.Duration()),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	return nil
}

// HealthCheck reports readiness for composite assembly.
func (c *Compositor) HealthCheck(ctx context.Context) stage.Health {
	const name = "compositor"
	if c == nil || c.cfg == nil {
		return stage.Unhealthy(name, "stage not configured")
	}
	if c.store == nil {
		return stage.Unhealthy(name, "queue store unavailable")
	}
	return stage.Healthy(name)
}
