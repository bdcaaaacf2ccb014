package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"overdub/internal/config"
	"overdub/internal/queue"
)

// commandContext carries the lazily loaded configuration shared by every
// subcommand. Loading happens at most once per invocation.
type commandContext struct {
	configFlag *string
	loadOnce   func() (*config.Config, error)

	configPath   string
	configExists bool
}

func newCommandContext(configFlag *string) *commandContext {
	ctx := &commandContext{configFlag: configFlag}
	ctx.loadOnce = sync.OnceValues(ctx.loadConfig)
	return ctx
}

func (c *commandContext) loadConfig() (*config.Config, error) {
	var requested string
	if c.configFlag != nil {
		requested = strings.TrimSpace(*c.configFlag)
	}
	cfg, path, exists, err := config.Load(requested)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	c.configPath = path
	c.configExists = exists
	return cfg, nil
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	return c.loadOnce()
}

// preRun loads configuration for every command that has not opted out via the
// skipConfigLoad annotation.
func (c *commandContext) preRun(cmd *cobra.Command, _ []string) error {
	if shouldSkipConfig(cmd) {
		return nil
	}
	_, err := c.ensureConfig()
	return err
}

// withStore loads config, opens the queue store, and hands both to fn.
func (c *commandContext) withStore(fn func(*config.Config, *queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}
	defer store.Close()
	return fn(cfg, store)
}

// acquireProcessLock guards queue processing against concurrent overdub
// instances sharing the same queue database.
func acquireProcessLock(cfg *config.Config) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(cfg.Paths.LogDir, "overdub.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire processing lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another overdub instance is already processing the queue")
	}
	return lock, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
