package testsupport

import (
	"context"
	"testing"

	"overdub/internal/config"
	"overdub/internal/queue"
)

// OpenStore opens the queue database for cfg and closes it when the test ends.
func OpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("open queue store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// NewJob inserts a dubbing job and fails the test on error.
func NewJob(t testing.TB, store *queue.Store, req queue.NewJobRequest) *queue.Item {
	t.Helper()
	item, err := store.NewJob(context.Background(), req)
	if err != nil {
		t.Fatalf("insert job: %v", err)
	}
	return item
}
