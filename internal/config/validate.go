package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.validateRender,
		c.validateTools,
		c.validateWorkflow,
		c.validateLogging,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return ensurePositive("notifications.request_timeout", c.Notifications.RequestTimeout)
}

// ensurePositive rejects zero or negative interval and timeout settings.
func ensurePositive(name string, value int) error {
	if value <= 0 {
		return fmt.Errorf("%s must be positive", name)
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.SampleRate < 8000 || c.Render.SampleRate > 192000 {
		return fmt.Errorf("render.sample_rate %d outside supported range [8000, 192000]", c.Render.SampleRate)
	}
	if c.Render.DurationToleranceSecs <= 0 {
		return errors.New("render.duration_tolerance_secs must be positive")
	}
	if err := ensurePositive("render.segment_timeout_secs", c.Render.SegmentTimeoutSecs); err != nil {
		return err
	}
	return ensurePositive("render.tool_timeout_secs", c.Render.ToolTimeoutSecs)
}

func (c *Config) validateTools() error {
	url := strings.TrimSpace(c.Tools.XTTSURL)
	if url == "" || strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return nil
	}
	return fmt.Errorf("tools.xtts_url must be an http(s) URL, got %q", url)
}

func (c *Config) validateWorkflow() error {
	intervals := []struct {
		name  string
		value int
	}{
		{"workflow.queue_poll_interval", c.Workflow.QueuePollInterval},
		{"workflow.heartbeat_interval", c.Workflow.HeartbeatInterval},
		{"workflow.heartbeat_timeout", c.Workflow.HeartbeatTimeout},
	}
	for _, iv := range intervals {
		if err := ensurePositive(iv.name, iv.value); err != nil {
			return err
		}
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format must be auto, console, or json, got %q", c.Logging.Format)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}
