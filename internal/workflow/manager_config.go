package workflow

import (
	"log/slog"

	"overdub/internal/compose"
	"overdub/internal/config"
	"overdub/internal/mux"
	"overdub/internal/queue"
	"overdub/internal/render"
)

// DefaultStages builds the production stage handlers for the dubbing pipeline.
func DefaultStages(cfg *config.Config, store *queue.Store, logger *slog.Logger) StageSet {
	return StageSet{
		Renderer:   render.NewRenderer(cfg, store, logger),
		Compositor: compose.NewCompositor(cfg, store, logger),
		Reconciler: compose.NewReconciler(cfg, store, logger),
		Muxer:      mux.NewMuxer(cfg, store, logger),
	}
}

// ConfigureStages registers the concrete stage handlers the workflow will run.
func (m *Manager) ConfigureStages(set StageSet) {
	pipe := &pipeline{notifyQueueLifecycle: true}

	if set.Renderer != nil {
		pipe.stages = append(pipe.stages, pipelineStage{
			name:       "render",
			handler:    set.Renderer,
			resting:    queue.StatusPending,
			processing: queue.StatusRendering,
			advanceTo:  queue.StatusRendered,
		})
	}
	if set.Compositor != nil {
		pipe.stages = append(pipe.stages, pipelineStage{
			name:       "compose",
			handler:    set.Compositor,
			resting:    queue.StatusRendered,
			processing: queue.StatusCompositing,
			advanceTo:  queue.StatusComposed,
		})
	}
	if set.Reconciler != nil {
		pipe.stages = append(pipe.stages, pipelineStage{
			name:       "reconcile",
			handler:    set.Reconciler,
			resting:    queue.StatusComposed,
			processing: queue.StatusReconciling,
			advanceTo:  queue.StatusReconciled,
		})
	}
	if set.Muxer != nil {
		pipe.stages = append(pipe.stages, pipelineStage{
			name:       "merge",
			handler:    set.Muxer,
			resting:    queue.StatusReconciled,
			processing: queue.StatusMerging,
			advanceTo:  queue.StatusCompleted,
		})
	}

	pipe.index()

	m.mu.Lock()
	m.pipeline = pipe
	m.mu.Unlock()
}
