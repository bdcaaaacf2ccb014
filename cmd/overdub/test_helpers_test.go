package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"overdub/internal/config"
	"overdub/internal/queue"
	"overdub/internal/testsupport"
)

// cliTestEnv is one isolated CLI fixture: a temp workspace, a config file the
// binary can load, and direct store access for seeding and assertions.
type cliTestEnv struct {
	baseDir    string
	configPath string
	cfg        *config.Config
	store      *queue.Store
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	env := &cliTestEnv{
		baseDir: testsupport.BaseDir(cfg),
		cfg:     cfg,
		store:   testsupport.OpenStore(t, cfg),
	}
	env.configPath = filepath.Join(env.baseDir, "config.toml")
	writeTestConfig(t, env.configPath, cfg)
	return env
}

// writeTestConfig persists cfg for the CLI to load, with the poll interval
// tightened so drain tests finish quickly.
func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()

	tuned := *cfg
	tuned.Workflow.QueuePollInterval = 1
	data, err := toml.Marshal(tuned)
	if err != nil {
		t.Fatalf("encode test config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (stdout, stderr string, err error) {
	t.Helper()

	full := args
	if configPath != "" {
		full = append([]string{"--config", configPath}, args...)
	}

	var outBuf, errBuf bytes.Buffer
	root := newRootCommand()
	root.SetOut(&outBuf)
	root.SetErr(&errBuf)
	root.SetArgs(full)
	err = root.Execute()
	return outBuf.String(), errBuf.String(), err
}

func seedJob(t *testing.T, env *cliTestEnv, status queue.Status) *queue.Item {
	t.Helper()

	item := testsupport.NewJob(t, env.store, queue.NewJobRequest{
		VideoPath:      filepath.Join(env.baseDir, "episode.mkv"),
		ScriptPath:     filepath.Join(env.baseDir, "script.json"),
		TargetDuration: 90,
	})
	if status == queue.StatusPending {
		return item
	}

	if status == queue.StatusFailed {
		item.SetFailed("synthesis failed")
	} else {
		item.Status = status
	}
	if err := env.store.Update(context.Background(), item); err != nil {
		t.Fatalf("update seeded job: %v", err)
	}
	return item
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("output missing %q:\n%s", want, output)
	}
}
