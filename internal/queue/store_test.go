package queue_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"overdub/internal/queue"
	"overdub/internal/testsupport"
)

func newJobRequest(n int) queue.NewJobRequest {
	return queue.NewJobRequest{
		VideoPath:  fmt.Sprintf("/videos/input-%d.mp4", n),
		ScriptPath: fmt.Sprintf("/scripts/script-%d.json", n),
	}
}

func TestOpenInitializesSchemaAndInsertsJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewJob(ctx, queue.NewJobRequest{
		VideoPath:      "/videos/episode.mp4",
		ScriptPath:     "/scripts/episode.json",
		OutputPath:     "/out/episode.dubbed.mp4",
		TargetDuration: 42.5,
	})
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected item ID to be assigned")
	}
	if item.UUID == "" {
		t.Fatal("expected item UUID to be assigned")
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", item.Status)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.ScriptPath != "/scripts/episode.json" {
		t.Fatalf("unexpected fetched item: %#v", fetched)
	}
	if fetched.TargetDuration != 42.5 {
		t.Fatalf("expected target duration to round-trip, got %v", fetched.TargetDuration)
	}
}

func TestNewJobRequiresScript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStore(t, cfg)

	if _, err := store.NewJob(context.Background(), queue.NewJobRequest{VideoPath: "/videos/x.mp4"}); err == nil {
		t.Fatal("expected error when script path missing")
	}
}

func TestUpdatePersistsDriftAndArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.NewJob(t, store, newJobRequest(1))

	item.Status = queue.StatusReconciled
	item.DurationDrift = 0.35
	item.DubTrackPath = "/work/dub.wav"
	item.FinalPath = "/out/final.mp4"
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	updated, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.DurationDrift != 0.35 {
		t.Fatalf("expected drift 0.35, got %v", updated.DurationDrift)
	}
	if updated.DubTrackPath != "/work/dub.wav" || updated.FinalPath != "/out/final.mp4" {
		t.Fatalf("artifact paths lost: %#v", updated)
	}
}

func TestClaimIsExclusive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.NewJob(t, store, newJobRequest(1))

	claimed, err := store.Claim(ctx, item.ID, queue.StatusPending, queue.StatusRendering)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if !claimed {
		t.Fatal("expected first claim to succeed")
	}

	again, err := store.Claim(ctx, item.ID, queue.StatusPending, queue.StatusRendering)
	if err != nil {
		t.Fatalf("second Claim failed: %v", err)
	}
	if again {
		t.Fatal("expected second claim to fail")
	}

	updated, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Status != queue.StatusRendering {
		t.Fatalf("expected rendering status, got %s", updated.Status)
	}
	if updated.LastHeartbeat == nil {
		t.Fatal("expected heartbeat stamped on claim")
	}
}

func TestUpdateProgressPreservesHeartbeat(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.NewJob(t, store, newJobRequest(1))
	item.Status = queue.StatusRendering
	past := time.Now().Add(-5 * time.Minute).UTC()
	item.LastHeartbeat = &past
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	item.ProgressStage = "Rendering"
	item.ProgressPercent = 42.5
	item.ProgressMessage = "Rendered segment 17/40"
	if err := store.UpdateProgress(ctx, item); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}

	after, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if after.LastHeartbeat == nil || !after.LastHeartbeat.Equal(past) {
		t.Fatalf("expected heartbeat unchanged, got %v", after.LastHeartbeat)
	}
	if after.ProgressStage != "Rendering" || after.ProgressMessage != "Rendered segment 17/40" {
		t.Fatalf("progress fields lost: %#v", after)
	}
	if after.ProgressPercent != 42.5 {
		t.Fatalf("expected progress percent 42.5, got %f", after.ProgressPercent)
	}
}

func TestClaimRejectsRestingTarget(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStore(t, cfg)

	item := testsupport.NewJob(t, store, newJobRequest(1))
	if _, err := store.Claim(context.Background(), item.ID, queue.StatusPending, queue.StatusRendered); err == nil {
		t.Fatal("expected error for non-processing claim target")
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStore(t, cfg)

	ctx := context.Background()
	cases := []struct {
		name          string
		initialStatus queue.Status
		expected      queue.Status
	}{
		{"rendering", queue.StatusRendering, queue.StatusPending},
		{"compositing", queue.StatusCompositing, queue.StatusRendered},
		{"reconciling", queue.StatusReconciling, queue.StatusComposed},
		{"merging", queue.StatusMerging, queue.StatusReconciled},
	}
	var ids []int64
	for i, tc := range cases {
		item := testsupport.NewJob(t, store, newJobRequest(i))
		item.Status = tc.initialStatus
		item.ProgressStage = tc.name
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		ids = append(ids, item.ID)
	}

	count, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if int(count) != len(cases) {
		t.Fatalf("expected %d items reset, got %d", len(cases), count)
	}

	for idx, tc := range cases {
		updated, err := store.GetByID(ctx, ids[idx])
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if updated.Status != tc.expected {
			t.Fatalf("%s: expected status %s, got %s", tc.name, tc.expected, updated.Status)
		}
		if updated.LastHeartbeat != nil {
			t.Fatalf("%s: expected heartbeat cleared", tc.name)
		}
	}
}

func TestReclaimStaleProcessingUsesCutoff(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStore(t, cfg)

	ctx := context.Background()
	stale := testsupport.NewJob(t, store, newJobRequest(1))
	staleBeat := time.Now().UTC().Add(-10 * time.Minute)
	stale.Status = queue.StatusCompositing
	stale.LastHeartbeat = &staleBeat
	if err := store.Update(ctx, stale); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fresh := testsupport.NewJob(t, store, newJobRequest(2))
	freshBeat := time.Now().UTC()
	fresh.Status = queue.StatusMerging
	fresh.LastHeartbeat = &freshBeat
	if err := store.Update(ctx, fresh); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	count, err := store.ReclaimStaleProcessing(ctx, time.Now().UTC().Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("ReclaimStaleProcessing failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 item reclaimed, got %d", count)
	}

	staleAfter, err := store.GetByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if staleAfter.Status != queue.StatusRendered {
		t.Fatalf("expected stale item back at rendered, got %s", staleAfter.Status)
	}

	freshAfter, err := store.GetByID(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if freshAfter.Status != queue.StatusMerging {
		t.Fatalf("expected fresh item untouched, got %s", freshAfter.Status)
	}
}

func TestRetryFailedResetsToPending(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.NewJob(t, store, newJobRequest(1))
	item.SetFailed("render blew up")
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	count, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 item retried, got %d", count)
	}

	updated, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Status != queue.StatusPending {
		t.Fatalf("expected pending, got %s", updated.Status)
	}
	if updated.ErrorMessage != "" {
		t.Fatalf("expected error message cleared, got %q", updated.ErrorMessage)
	}
}

func TestNextForStatusesReturnsOldest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.NewJob(t, store, newJobRequest(1))
	second := testsupport.NewJob(t, store, newJobRequest(2))
	second.Status = queue.StatusRendered
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	next, err := store.NextForStatuses(ctx, queue.StatusPending, queue.StatusRendered)
	if err != nil {
		t.Fatalf("NextForStatuses failed: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected first item, got %#v", next)
	}

	none, err := store.NextForStatuses(ctx, queue.StatusMerging)
	if err != nil {
		t.Fatalf("NextForStatuses failed: %v", err)
	}
	if none != nil {
		t.Fatalf("expected no item, got %#v", none)
	}
}

func TestStatsAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewJob(t, store, newJobRequest(1))
	processing := testsupport.NewJob(t, store, newJobRequest(2))
	processing.Status = queue.StatusRendering
	if err := store.Update(ctx, processing); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	failed := testsupport.NewJob(t, store, newJobRequest(3))
	failed.SetFailed("boom")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[queue.StatusPending] != 1 || stats[queue.StatusRendering] != 1 || stats[queue.StatusFailed] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 3 || health.Pending != 1 || health.Processing != 1 || health.Failed != 1 {
		t.Fatalf("unexpected health: %#v", health)
	}
}

func TestCheckHealthReportsIntactDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewJob(t, store, newJobRequest(1))
	testsupport.NewJob(t, store, newJobRequest(2))

	health, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.Exists || !health.Readable || !health.TableExists {
		t.Fatalf("expected healthy database, got %#v", health)
	}
	if !health.IntegrityCheck {
		t.Fatalf("expected integrity check to pass, got %#v", health)
	}
	if health.TotalItems != 2 {
		t.Fatalf("expected 2 items, got %d", health.TotalItems)
	}
	if len(health.MissingColumns) != 0 {
		t.Fatalf("schema should have every expected column, missing %v", health.MissingColumns)
	}
}

func TestClearFailedLeavesOthers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStore(t, cfg)

	ctx := context.Background()
	keep := testsupport.NewJob(t, store, newJobRequest(1))
	gone := testsupport.NewJob(t, store, newJobRequest(2))
	gone.SetFailed("unlucky")
	if err := store.Update(ctx, gone); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	count, err := store.ClearFailed(ctx)
	if err != nil {
		t.Fatalf("ClearFailed failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 item cleared, got %d", count)
	}

	remaining, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != keep.ID {
		t.Fatalf("unexpected remaining items: %#v", remaining)
	}
}

func TestWorkDirUsesUUID(t *testing.T) {
	item := queue.Item{ID: 7, UUID: "abc-123"}
	if got := item.WorkDir("/tmp/ws"); got != "/tmp/ws/abc-123" {
		t.Fatalf("WorkDir = %q", got)
	}
	bare := queue.Item{ID: 7}
	if got := bare.WorkDir("/tmp/ws"); got != "/tmp/ws/job-7" {
		t.Fatalf("WorkDir fallback = %q", got)
	}
	if got := item.SegmentsDir("/tmp/ws"); got != "/tmp/ws/abc-123/segments" {
		t.Fatalf("SegmentsDir = %q", got)
	}
}

func TestStatusLabel(t *testing.T) {
	cases := map[queue.Status]string{
		queue.StatusPending:     "Pending",
		queue.StatusRendering:   "Rendering",
		queue.StatusCompleted:   "Completed",
		queue.Status(""):        "",
		queue.Status("MERGING"): "Merging",
	}
	for status, want := range cases {
		if got := status.Label(); got != want {
			t.Fatalf("Label(%q) = %q, want %q", status, got, want)
		}
	}
}
