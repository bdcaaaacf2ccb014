package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"overdub/internal/config"
	"overdub/internal/notifications"
	"overdub/internal/queue"
)

// Manager drives queued dubbing jobs through the registered stages.
type Manager struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	notifier notifications.Service

	pollInterval time.Duration
	heartbeat    *HeartbeatMonitor
	pipeline     *pipeline

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	lastFailure   error
	lastProcessed *queue.Item

	// drainActive marks a notification-worthy drain in flight, stamped at
	// drainStarted.
	drainActive  bool
	drainStarted time.Time
}

// NewManager constructs a manager that notifies via the config's ntfy topic.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier lets callers substitute the notifier, which tests
// use to capture published events.
func NewManagerWithNotifier(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Manager {
	m := &Manager{cfg: cfg, store: store, logger: logger, notifier: notifier}
	m.pollInterval = cfg.PollInterval()
	m.heartbeat = NewHeartbeatMonitor(store, logger, cfg.HeartbeatInterval(), cfg.HeartbeatTimeout())
	return m
}
