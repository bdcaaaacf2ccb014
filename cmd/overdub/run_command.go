package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"overdub/internal/config"
	"overdub/internal/logging"
	"overdub/internal/queue"
	"overdub/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts jobOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Dub a single video and wait for the result",
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

				request, err := buildJobRequest(signalCtx, cfg, opts)
				if err != nil {
					return err
				}
				item, err := store.NewJob(signalCtx, request)
				if err != nil {
					return fmt.Errorf("enqueue job: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Queued job %d for %s\n", item.ID, item.DisplayName())

				manager := workflow.NewManager(cfg, store, logger)
				manager.ConfigureStages(workflow.DefaultStages(cfg, store, logger))

				finished, err := manager.RunItem(signalCtx, item.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Dubbed video at %s (duration drift %+.3fs)\n", finished.FinalPath, finished.DurationDrift)
				return nil
			})
		},
	}

	registerJobFlags(cmd, &opts)
	return cmd
}
