package logging_test

import (
	"testing"

	"overdub/internal/logging"
)

func TestProgressSamplerEmitsEveryStep(t *testing.T) {
	sampler := logging.NewProgressSampler(5)

	if !sampler.ShouldLog(0, "rendering") {
		t.Fatal("first event should log")
	}
	if sampler.ShouldLog(2, "rendering") {
		t.Fatal("advance below the step should not log")
	}
	if !sampler.ShouldLog(5, "rendering") {
		t.Fatal("advance of one full step should log")
	}
	if sampler.ShouldLog(6, "rendering") {
		t.Fatal("small advance after an emission should not log")
	}
	if !sampler.ShouldLog(100, "rendering") {
		t.Fatal("completion should log")
	}
}

func TestProgressSamplerEmitsOnStageChange(t *testing.T) {
	sampler := logging.NewProgressSampler(5)

	if !sampler.ShouldLog(50, "rendering") {
		t.Fatal("first event should log")
	}
	if !sampler.ShouldLog(50, "compositing") {
		t.Fatal("stage change should log even at same percent")
	}
}

func TestProgressSamplerRestartsWhenPercentRegresses(t *testing.T) {
	sampler := logging.NewProgressSampler(10)
	sampler.ShouldLog(50, "rendering")
	sampler.ShouldLog(100, "rendering")

	if !sampler.ShouldLog(20, "rendering") {
		t.Fatal("regressing percent should open a fresh window")
	}
	if sampler.ShouldLog(25, "rendering") {
		t.Fatal("sample inside the new window should stay quiet")
	}
	if !sampler.ShouldLog(30, "rendering") {
		t.Fatal("one full step into the new run should log")
	}
}

func TestProgressSamplerAlwaysLogsCompletion(t *testing.T) {
	sampler := logging.NewProgressSampler(25)
	sampler.ShouldLog(80, "rendering")

	if sampler.ShouldLog(95, "rendering") {
		t.Fatal("sub-step advance should stay quiet")
	}
	if !sampler.ShouldLog(100, "rendering") {
		t.Fatal("completion should log regardless of step")
	}
	if sampler.ShouldLog(100, "rendering") {
		t.Fatal("repeated completion should not log twice")
	}
}

func TestProgressSamplerNegativePercentOnlyLogsStageChanges(t *testing.T) {
	sampler := logging.NewProgressSampler(5)
	if !sampler.ShouldLog(-1, "rendering") {
		t.Fatal("stage introduction should log")
	}
	if sampler.ShouldLog(-1, "rendering") {
		t.Fatal("unknown percent with unchanged stage should not log")
	}
}
