package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"overdub/internal/config"
)

const userAgent = "Overdub-Go/0.1.0"

// Event identifies a workflow milestone worth pushing to the operator.
type Event string

const (
	EventJobStarted     Event = "job_started"
	EventJobCompleted   Event = "job_completed"
	EventJobFailed      Event = "job_failed"
	EventQueueStarted   Event = "queue_started"
	EventQueueCompleted Event = "queue_completed"
)

// Payload carries event-specific fields. Values are formatted on demand so
// workflow code can pass counts and durations without stringifying them.
type Payload map[string]any

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

// Publish formats the event into an ntfy message and posts it. Events with no
// message mapping are silently dropped so new workflow milestones never break
// older notifier deployments.
func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	data, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, data)
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventJobStarted:
		return message{
			title: "Overdub - Job Started",
			body:  fmt.Sprintf("Dubbing started: %s", payload.text("job")),
			tags:  []string{"overdub", "job", "started"},
		}, true
	case EventJobCompleted:
		body := fmt.Sprintf("Dubbed video ready: %s", payload.text("job"))
		if file := payload.text("file"); file != "" {
			body = fmt.Sprintf("%s\nFile: %s", body, file)
		}
		if drift := payload.text("drift"); drift != "" {
			body = fmt.Sprintf("%s\nDrift: %s", body, drift)
		}
		return message{
			title:    "Overdub - Job Complete",
			body:     body,
			tags:     []string{"overdub", "job", "completed"},
			priority: "high",
		}, true
	case EventJobFailed:
		body := fmt.Sprintf("Dubbing failed: %s", payload.text("job"))
		if stage := payload.text("stage"); stage != "" {
			body = fmt.Sprintf("%s\nStage: %s", body, stage)
		}
		if reason := payload.text("reason"); reason != "" {
			body = fmt.Sprintf("%s\nReason: %s", body, reason)
		}
		return message{
			title:    "Overdub - Job Failed",
			body:     body,
			tags:     []string{"overdub", "job", "failed"},
			priority: "high",
		}, true
	case EventQueueStarted:
		return message{
			title: "Overdub - Queue Started",
			body:  fmt.Sprintf("Started processing queue with %d jobs", payload.count("count")),
			tags:  []string{"overdub", "queue", "started"},
		}, true
	case EventQueueCompleted:
		processed := payload.count("processed")
		failed := payload.count("failed")
		elapsed := payload.duration("duration").Round(time.Second)
		if elapsed < 0 {
			elapsed = 0
		}

		title := "Overdub - Queue Complete"
		body := fmt.Sprintf("Queue processing complete: %d jobs processed in %s", processed, elapsed)
		if failed > 0 {
			title = "Overdub - Queue Complete (with errors)"
			body = fmt.Sprintf("Queue processing complete: %d succeeded, %d failed in %s", processed, failed, elapsed)
		}
		return message{
			title: title,
			body:  body,
			tags:  []string{"overdub", "queue", "completed"},
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }

func (p Payload) text(key string) string {
	if p == nil {
		return ""
	}
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	if s, isString := value.(string); isString {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func (p Payload) count(key string) int {
	if p == nil {
		return 0
	}
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func (p Payload) duration(key string) time.Duration {
	if p == nil {
		return 0
	}
	if v, ok := p[key].(time.Duration); ok {
		return v
	}
	return 0
}
