package logging

import "strings"

// ProgressSampler rate-limits per-segment progress logging. It remembers the
// last percentage it let through and stays quiet until progress advances by at
// least one step, so a several-hundred-segment render produces a handful of
// lines instead of one per segment. A percentage lower than the previous
// emission means a new run started on the same stage, which opens a fresh
// window; the sampler therefore survives being shared across jobs.
type ProgressSampler struct {
	step        float64
	lastStage   string
	lastEmitted float64
}

// NewProgressSampler returns a sampler that emits roughly every step percent.
// Non-positive steps fall back to 5.
func NewProgressSampler(step float64) *ProgressSampler {
	if step <= 0 {
		step = 5
	}
	return &ProgressSampler{step: step, lastEmitted: -1}
}

// ShouldLog reports whether a progress event is worth a log line: the first
// sample on a stage, any advance of at least one step, and completion always
// are. A negative percent means the caller cannot estimate progress; those
// events log only when the stage changes.
func (s *ProgressSampler) ShouldLog(percent float64, stage string) bool {
	if s == nil {
		return true
	}
	stageChanged := false
	if stage = strings.TrimSpace(stage); stage != "" && stage != s.lastStage {
		s.lastStage = stage
		s.lastEmitted = -1
		stageChanged = true
	}
	if percent < 0 {
		return stageChanged
	}
	if percent < s.lastEmitted {
		s.lastEmitted = -1
	}
	if s.lastEmitted < 0 || percent >= s.lastEmitted+s.step || (percent >= 100 && s.lastEmitted < 100) {
		s.lastEmitted = percent
		return true
	}
	return false
}
