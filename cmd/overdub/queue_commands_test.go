package main

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"overdub/internal/queue"
	"overdub/internal/testsupport"
)

func TestQueueAddAndList(t *testing.T) {
	env := setupCLITestEnv(t)

	video := testsupport.WriteFile(t, filepath.Join(env.baseDir, "feature.mkv"), "video")
	script := testsupport.WriteFile(t, filepath.Join(env.baseDir, "script.json"), "[]")

	stdout, _, err := runCLI(t, []string{
		"queue", "add",
		"--video", video,
		"--script", script,
		"--duration", "120",
	}, env.configPath)
	if err != nil {
		t.Fatalf("queue add: %v", err)
	}
	requireContains(t, stdout, "Queued job")
	requireContains(t, stdout, "feature.mkv")

	stdout, _, err = runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, stdout, "feature.mkv")
	requireContains(t, stdout, "Pending")
}

func TestQueueAddRequiresScript(t *testing.T) {
	env := setupCLITestEnv(t)

	video := testsupport.WriteFile(t, filepath.Join(env.baseDir, "feature.mkv"), "video")

	_, _, err := runCLI(t, []string{"queue", "add", "--video", video}, env.configPath)
	if err == nil {
		t.Fatal("expected missing script flag to fail")
	}
}

func TestQueueListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, stdout, "Queue is empty")
}

func TestQueueListFiltersByStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	seedJob(t, env, queue.StatusPending)
	seedJob(t, env, queue.StatusCompleted)

	stdout, _, err := runCLI(t, []string{"queue", "list", "--status", "completed"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, stdout, "Completed")

	_, _, err = runCLI(t, []string{"queue", "list", "--status", "bogus"}, env.configPath)
	if err == nil {
		t.Fatal("expected unknown status to fail")
	}
}

func TestQueueStatusSummary(t *testing.T) {
	env := setupCLITestEnv(t)
	seedJob(t, env, queue.StatusPending)
	seedJob(t, env, queue.StatusFailed)

	stdout, _, err := runCLI(t, []string{"queue", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, stdout, "Pending")
	requireContains(t, stdout, "Failed")
}

func TestQueueRetrySpecificJob(t *testing.T) {
	env := setupCLITestEnv(t)
	failed := seedJob(t, env, queue.StatusFailed)
	pending := seedJob(t, env, queue.StatusPending)

	stdout, _, err := runCLI(t, []string{
		"queue", "retry",
		fmt.Sprintf("%d", failed.ID),
		fmt.Sprintf("%d", pending.ID),
		"9999",
	}, env.configPath)
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, stdout, fmt.Sprintf("Job %d reset for retry", failed.ID))
	requireContains(t, stdout, fmt.Sprintf("Job %d is not in failed state", pending.ID))
	requireContains(t, stdout, "Job 9999 not found")

	refreshed, err := env.store.GetByID(context.Background(), failed.ID)
	if err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if refreshed.Status != queue.StatusPending {
		t.Fatalf("expected pending after retry, got %s", refreshed.Status)
	}
}

func TestQueueRetryAllFailed(t *testing.T) {
	env := setupCLITestEnv(t)
	seedJob(t, env, queue.StatusFailed)
	seedJob(t, env, queue.StatusFailed)

	stdout, _, err := runCLI(t, []string{"queue", "retry"}, env.configPath)
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, stdout, "Retried 2 failed jobs")
}

func TestQueueClearCompleted(t *testing.T) {
	env := setupCLITestEnv(t)
	seedJob(t, env, queue.StatusCompleted)
	kept := seedJob(t, env, queue.StatusPending)

	stdout, _, err := runCLI(t, []string{"queue", "clear", "--completed"}, env.configPath)
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, stdout, "Cleared 1 completed jobs")

	items, err := env.store.List(context.Background())
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(items) != 1 || items[0].ID != kept.ID {
		t.Fatalf("expected only job %d to remain, got %d items", kept.ID, len(items))
	}
}

func TestQueueClearRejectsConflictingFlags(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"queue", "clear", "--completed", "--failed"}, env.configPath)
	if err == nil {
		t.Fatal("expected conflicting flags to fail")
	}
}

func TestQueueResetStuck(t *testing.T) {
	env := setupCLITestEnv(t)
	stuck := seedJob(t, env, queue.StatusCompositing)

	stdout, _, err := runCLI(t, []string{"queue", "reset-stuck"}, env.configPath)
	if err != nil {
		t.Fatalf("queue reset-stuck: %v", err)
	}
	requireContains(t, stdout, "Reset 1 jobs")

	refreshed, err := env.store.GetByID(context.Background(), stuck.ID)
	if err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if refreshed.Status != queue.StatusRendered {
		t.Fatalf("expected compositing job to rest at rendered, got %s", refreshed.Status)
	}
}

func TestQueueHealth(t *testing.T) {
	env := setupCLITestEnv(t)
	seedJob(t, env, queue.StatusPending)
	seedJob(t, env, queue.StatusCompleted)

	stdout, _, err := runCLI(t, []string{"queue", "health"}, env.configPath)
	if err != nil {
		t.Fatalf("queue health: %v", err)
	}
	requireContains(t, stdout, "Total: 2")
	requireContains(t, stdout, "Pending: 1")
	requireContains(t, stdout, "Completed: 1")
}
