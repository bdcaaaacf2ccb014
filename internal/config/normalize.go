package config

import (
	"fmt"
	"os"
	"strings"
)

// normalize applies defaults, trims user input, and expands every path field.
func (c *Config) normalize() error {
	c.normalizeTools()
	c.normalizeRender()
	c.normalizeNotifications()
	c.normalizeLogging()
	return c.normalizePaths()
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name     string
		value    *string
		fallback string
	}{
		{"paths.workspace_dir", &c.Paths.WorkspaceDir, defaultWorkspaceDir},
		{"paths.output_dir", &c.Paths.OutputDir, defaultOutputDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.queue_db", &c.Paths.QueueDB, defaultQueueDB},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(*field.value)
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.EdgeTTS = strings.TrimSpace(c.Tools.EdgeTTS)
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	c.Tools.XTTSURL = strings.TrimRight(strings.TrimSpace(c.Tools.XTTSURL), "/")
	if c.Tools.XTTSURL == "" {
		if value, ok := os.LookupEnv("OVERDUB_XTTS_URL"); ok {
			c.Tools.XTTSURL = strings.TrimRight(strings.TrimSpace(value), "/")
		}
	}
}

func (c *Config) normalizeRender() {
	c.Render.TargetLanguage = strings.ToLower(orDefault(c.Render.TargetLanguage, defaultTargetLanguage))
	if c.Render.SampleRate == 0 {
		c.Render.SampleRate = defaultSampleRate
	}
	if c.Render.DurationToleranceSecs == 0 {
		c.Render.DurationToleranceSecs = defaultDurationToleranceSecs
	}
	if c.Render.SegmentTimeoutSecs == 0 {
		c.Render.SegmentTimeoutSecs = defaultSegmentTimeoutSecs
	}
	if c.Render.ToolTimeoutSecs == 0 {
		c.Render.ToolTimeoutSecs = defaultToolTimeoutSecs
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("OVERDUB_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(orDefault(c.Logging.Format, defaultLogFormat))
	c.Logging.Level = strings.ToLower(orDefault(c.Logging.Level, defaultLogLevel))
	if c.Logging.RetentionDays == 0 {
		c.Logging.RetentionDays = defaultLogRetentionDays
	}
}
