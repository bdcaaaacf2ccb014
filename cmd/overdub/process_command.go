package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"overdub/internal/config"
	"overdub/internal/logging"
	"overdub/internal/queue"
	"overdub/internal/workflow"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Process queued jobs until the queue drains",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				lock, err := acquireProcessLock(cfg)
				if err != nil {
					return err
				}
				defer func() { _ = lock.Unlock() }()

				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return fmt.Errorf("init logger: %w", err)
				}
				logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, cfg.Paths.LogDir, "overdub*.log",
					filepath.Join(cfg.Paths.LogDir, "overdub.log"))

				signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer cancel()

				if err := runPreflight(signalCtx, cfg); err != nil {
					return err
				}

				out := cmd.OutOrStdout()

				reset, err := store.ResetStuckProcessing(signalCtx)
				if err != nil {
					return fmt.Errorf("reset interrupted jobs: %w", err)
				}
				if reset > 0 {
					fmt.Fprintf(out, "Reset %d interrupted jobs to resume\n", reset)
				}

				pending, err := store.Stats(signalCtx)
				if err != nil {
					return fmt.Errorf("read queue stats: %w", err)
				}
				if activeJobs(pending) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}

				manager := workflow.NewManager(cfg, store, logger)
				manager.ConfigureStages(workflow.DefaultStages(cfg, store, logger))
				if err := manager.Start(signalCtx); err != nil {
					return err
				}

				interrupted := waitForQueueDrain(signalCtx, store)
				manager.Stop()

				stats, err := store.Stats(context.Background())
				if err != nil {
					return fmt.Errorf("read queue stats: %w", err)
				}
				if interrupted {
					fmt.Fprintf(out, "Interrupted with %d jobs remaining\n", activeJobs(stats))
					return nil
				}
				fmt.Fprintf(out, "Queue drained: %d completed, %d failed\n",
					stats[queue.StatusCompleted], stats[queue.StatusFailed])
				return nil
			})
		},
	}
}

// waitForQueueDrain polls the store until no pending or in-flight jobs
// remain. Returns true when the context was cancelled first.
func waitForQueueDrain(ctx context.Context, store *queue.Store) bool {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		stats, err := store.Stats(ctx)
		if err == nil && activeJobs(stats) == 0 {
			return false
		}
		select {
		case <-ctx.Done():
			return true
		case <-ticker.C:
		}
	}
}

func activeJobs(stats map[queue.Status]int) int {
	active := 0
	for status, count := range stats {
		if status == queue.StatusCompleted || status == queue.StatusFailed {
			continue
		}
		active += count
	}
	return active
}
