package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and database locations.
type Paths struct {
	WorkspaceDir string `toml:"workspace_dir"`
	OutputDir    string `toml:"output_dir"`
	LogDir       string `toml:"log_dir"`
	QueueDB      string `toml:"queue_db"`
}

// Tools contains external binary overrides and service endpoints.
type Tools struct {
	EdgeTTS string `toml:"edge_tts"`
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
	XTTSURL string `toml:"xtts_url"`
}

// Render contains speech synthesis and duration correction settings.
type Render struct {
	TargetLanguage        string  `toml:"target_language"`
	SampleRate            int     `toml:"sample_rate"`
	DurationToleranceSecs float64 `toml:"duration_tolerance_secs"`
	SegmentTimeoutSecs    int     `toml:"segment_timeout_secs"`
	ToolTimeoutSecs       int     `toml:"tool_timeout_secs"`
}

// Mix contains background track mixing settings.
type Mix struct {
	BackgroundGainDB float64 `toml:"background_gain_db"`
}

// Workflow contains queue polling and heartbeat timing.
type Workflow struct {
	QueuePollInterval int `toml:"queue_poll_interval"`
	HeartbeatInterval int `toml:"heartbeat_interval"`
	HeartbeatTimeout  int `toml:"heartbeat_timeout"`
}

// Notifications configures ntfy push delivery.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging controls log output format, level, and retention.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config is the full overdub configuration tree.
//
//   - Paths: workspace, output, and log directories plus the queue database
//   - Tools: external binary overrides (edge-tts, ffmpeg, ffprobe) and the
//     optional XTTS server URL for the voice cloning engine
//   - Render: target language, canonical sample rate, duration tolerance,
//     and external invocation timeouts
//   - Mix: background track attenuation
//   - Workflow: queue polling and heartbeat timing
//   - Notifications: ntfy topic and request timeout
//   - Logging: console or JSON output, level, and retention
type Config struct {
	Paths Paths `toml:"paths"`
	Tools Tools `toml:"tools"`

	Render   Render   `toml:"render"`
	Mix      Mix      `toml:"mix"`
	Workflow Workflow `toml:"workflow"`
	Logging  Logging  `toml:"logging"`

	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath reports where overdub looks for its config file when no
// explicit path is given.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/overdub/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. An absent file yields defaults.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		raw, err := os.ReadFile(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	for _, finish := range []func() error{cfg.normalize, cfg.Validate} {
		if err := finish(); err != nil {
			return nil, "", false, err
		}
	}
	return &cfg, resolved, exists, nil
}

// resolveConfigPath picks the config file to load. An explicit path (flag or
// OVERDUB_CONFIG) wins; otherwise the default location is preferred over a
// project-local overdub.toml.
func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv("OVERDUB_CONFIG"))
	}
	if path != "" {
		return statConfig(path)
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("overdub.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{defaultPath, projectPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return defaultPath, false, nil
}

// statConfig expands an explicitly requested config path and reports whether
// it exists yet.
func statConfig(path string) (string, bool, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	switch _, err := os.Stat(expanded); {
	case err == nil:
		return expanded, true, nil
	case errors.Is(err, fs.ErrNotExist):
		return expanded, false, nil
	default:
		return "", false, fmt.Errorf("stat config: %w", err)
	}
}

// EnsureDirectories creates the directories a pipeline run needs.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.WorkspaceDir,
		c.Paths.OutputDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.QueueDB),
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// EdgeTTSBinary returns the edge-tts executable name.
func (c *Config) EdgeTTSBinary() string { return orDefault(c.Tools.EdgeTTS, "edge-tts") }

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string { return orDefault(c.Tools.FFmpeg, "ffmpeg") }

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string { return orDefault(c.Tools.FFprobe, "ffprobe") }

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

// SegmentTimeout bounds a single synthesis invocation.
func (c *Config) SegmentTimeout() time.Duration {
	return time.Duration(c.Render.SegmentTimeoutSecs) * time.Second
}

// ToolTimeout bounds a single ffmpeg/ffprobe invocation.
func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.Render.ToolTimeoutSecs) * time.Second
}

// PollInterval is how often the workflow manager checks the queue for work.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Workflow.QueuePollInterval) * time.Second
}

// HeartbeatInterval is how often an in-flight item's heartbeat is stamped.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Workflow.HeartbeatInterval) * time.Second
}

// HeartbeatTimeout is how stale a heartbeat may grow before the item is
// reclaimed for another runner.
func (c *Config) HeartbeatTimeout() time.Duration {
	return time.Duration(c.Workflow.HeartbeatTimeout) * time.Second
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		switch {
		case path == "~":
			path = home
		case len(path) > 1 && (path[1] == '/' || path[1] == '\\'):
			path = filepath.Join(home, path[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", path, err)
	}
	return absolute, nil
}

// ExpandPath applies the home-directory and absolute-path expansion rules used
// for every configured path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// CreateSample writes the annotated sample configuration to path, creating
// parent directories as needed.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
