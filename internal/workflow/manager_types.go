package workflow

import (
	"overdub/internal/queue"
	"overdub/internal/stage"
)

// StageSet carries one handler per pipeline stage, in run order.
type StageSet struct {
	Renderer   stage.Handler
	Compositor stage.Handler
	Reconciler stage.Handler
	Muxer      stage.Handler
}

// pipelineStage pairs a handler with the statuses it moves items between:
// claimed from resting, held at processing, advanced on success.
type pipelineStage struct {
	name    string
	handler stage.Handler

	resting    queue.Status
	processing queue.Status
	advanceTo  queue.Status
}

// pipeline is the ordered stage list plus lookup tables derived from it.
// notifyQueueLifecycle suppresses queue-level start/finish notifications for
// the synchronous RunItem path so one-shot runs only emit job events.
type pipeline struct {
	stages       []pipelineStage
	restingOrder []queue.Status
	byResting    map[queue.Status]pipelineStage

	notifyQueueLifecycle bool
}

// index rebuilds the status lookups after the stage list changes.
func (p *pipeline) index() {
	if p == nil {
		return
	}
	p.byResting = make(map[queue.Status]pipelineStage, len(p.stages))
	p.restingOrder = make([]queue.Status, len(p.stages))
	for i, stg := range p.stages {
		p.byResting[stg.resting] = stg
		p.restingOrder[i] = stg.resting
	}
}

// stageForStatus returns the stage that picks work up from the given resting
// status, if any.
func (p *pipeline) stageForStatus(status queue.Status) (pipelineStage, bool) {
	if p == nil {
		return pipelineStage{}, false
	}
	stg, ok := p.byResting[status]
	return stg, ok
}

// withoutQueueLifecycle returns a copy of the pipeline that keeps job-level
// notifications but drops queue start/finish events.
func (p *pipeline) withoutQueueLifecycle() *pipeline {
	if p == nil {
		return nil
	}
	cp := *p
	cp.notifyQueueLifecycle = false
	return &cp
}
