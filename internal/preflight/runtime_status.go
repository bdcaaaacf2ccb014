package preflight

import (
	"context"
	"strings"

	"overdub/internal/config"
)

// CheckXTTSFromConfig reports voice-clone rendering status from config plus a
// connectivity probe when a server is configured.
func CheckXTTSFromConfig(cfg *config.Config) Result {
	result := Result{Name: "XTTS server"}
	switch {
	case cfg == nil:
		result.Detail = "Unknown"
	case strings.TrimSpace(cfg.Tools.XTTSURL) == "":
		result.Passed = true
		result.Detail = "Disabled"
	default:
		probe := CheckXTTS(context.Background(), cfg.Tools.XTTSURL)
		result.Passed = probe.Passed
		result.Detail = probe.Detail
	}
	return result
}

// CheckNotificationsFromConfig reports whether ntfy push notifications are
// configured. No test message is sent.
func CheckNotificationsFromConfig(cfg *config.Config) Result {
	result := Result{Name: "Notifications"}
	switch {
	case cfg == nil:
		result.Detail = "Unknown"
	case strings.TrimSpace(cfg.Notifications.NtfyTopic) == "":
		result.Passed = true
		result.Detail = "Disabled"
	default:
		result.Passed = true
		result.Detail = "ntfy topic configured"
	}
	return result
}
