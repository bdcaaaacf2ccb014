package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"overdub/internal/config"
	"overdub/internal/logging"
	"overdub/internal/preflight"
	"overdub/internal/queue"
	"overdub/internal/workflow"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show environment, stage, and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				printer := newStatusPrinter(cmd.OutOrStdout())

				printer.section("Configuration")
				if ctx.configExists {
					printer.line("Config", statusOK, ctx.configPath)
				} else {
					printer.line("Config", statusInfo, "defaults in use (run 'overdub config init')")
				}
				printer.blank()

				printer.section("Environment")
				printEnvironment(cmd, printer, cfg)
				printer.blank()

				printer.section("Database")
				printDatabaseHealth(cmd, printer, store)
				printer.blank()

				printer.section("Stages")
				printStageHealth(cmd, printer, cfg, store)
				printer.blank()

				printer.section("Queue")
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				printQueueTable(cmd.OutOrStdout(), queueStatusColumns(), buildQueueStatusRows(stats))
				return nil
			})
		},
	}
}

func printEnvironment(cmd *cobra.Command, printer *statusPrinter, cfg *config.Config) {
	for _, result := range preflight.RunAll(cmd.Context(), cfg) {
		printer.line(result.Name, passKind(result.Passed), result.Detail)
	}
	for _, status := range preflight.CheckSystemDeps(cmd.Context(), cfg) {
		kind := passKind(status.Available)
		if kind == statusError && status.Optional {
			kind = statusWarn
		}
		printer.line(status.Name, kind, status.Detail)
	}
}

func printDatabaseHealth(cmd *cobra.Command, printer *statusPrinter, store *queue.Store) {
	health, err := store.CheckHealth(cmd.Context())
	switch {
	case err != nil:
		printer.line("Queue DB", statusError, err.Error())
	case !health.Exists:
		printer.line("Queue DB", statusInfo, "not created yet")
	case !health.IntegrityCheck:
		printer.line("Queue DB", statusError, "integrity check failed")
	case len(health.MissingColumns) > 0:
		printer.line("Queue DB", statusWarn, "missing columns: "+strings.Join(health.MissingColumns, ", "))
	default:
		printer.line("Queue DB", statusOK, fmt.Sprintf("%s (%d items)", health.Path, health.TotalItems))
	}
}

func printStageHealth(cmd *cobra.Command, printer *statusPrinter, cfg *config.Config, store *queue.Store) {
	manager := workflow.NewManager(cfg, store, logging.NewNop())
	manager.ConfigureStages(workflow.DefaultStages(cfg, store, logging.NewNop()))
	summary := manager.Status(cmd.Context())

	names := make([]string, 0, len(summary.StageHealth))
	for name := range summary.StageHealth {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		health := summary.StageHealth[name]
		if health.Ready {
			printer.line(name, statusOK, "Ready")
			continue
		}
		printer.line(name, statusError, health.Detail)
	}
}
