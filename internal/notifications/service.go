package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RabowNicholas/swna-automation/internal/config"
)

const userAgent = "swna/0.1.0"

// Event identifies a notification type.
type Event string

const (
	EventCommitInconsistent   Event = "commit_inconsistent"
	EventReconciliationNeeded Event = "reconciliation_needed"
	EventDocumentFailed       Event = "document_failed"
	EventRunCompleted         Event = "run_completed"
	EventTestNotification     Event = "test"
)

// Payload carries event fields. Keys are event specific.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
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
		enabled: map[Event]bool{
			EventCommitInconsistent:   cfg.Notifications.Inconsistent,
			EventReconciliationNeeded: cfg.Notifications.Inconsistent,
			EventDocumentFailed:       cfg.Notifications.Failures,
			EventRunCompleted:         cfg.Notifications.RunSummary,
			EventTestNotification:     true,
		},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	if !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, data)
	if !ok {
		return fmt.Errorf("unsupported notification event %q", event)
	}
	return n.send(ctx, msg)
}

func format(event Event, data Payload) (payload, bool) {
	switch event {
	case EventCommitInconsistent:
		return payload{
			title: "SWNA - Commit Inconsistent",
			message: fmt.Sprintf("Registry updated for %s but the file was not moved.\nFile: %s\nTarget: %s\nError: %s\nReconcile by hand.",
				str(data, "client"), str(data, "source"), str(data, "destination"), str(data, "error")),
			tags:     []string{"swna", "commit", "inconsistent"},
			priority: "urgent",
		}, true
	case EventReconciliationNeeded:
		return payload{
			title: "SWNA - Registry Check Needed",
			message: fmt.Sprintf("Registry update for %s failed and may have been applied.\nFile left in inbox: %s\nError: %s",
				str(data, "client"), str(data, "source"), str(data, "error")),
			tags:     []string{"swna", "registry", "review"},
			priority: "high",
		}, true
	case EventDocumentFailed:
		return payload{
			title:   "SWNA - Document Failed",
			message: fmt.Sprintf("%s failed at %s: %s", str(data, "source"), str(data, "stage"), str(data, "reason")),
			tags:    []string{"swna", "document", "failed"},
		}, true
	case EventRunCompleted:
		duration, _ := data["duration"].(time.Duration)
		duration = max(duration.Round(time.Second), 0)
		committed, _ := data["committed"].(int)
		ignored, _ := data["ignored"].(int)
		failed, _ := data["failed"].(int)
		title := "SWNA - Run Complete"
		if failed > 0 {
			title = "SWNA - Run Complete (with failures)"
		}
		return payload{
			title:   title,
			message: fmt.Sprintf("Filed %d, ignored %d, failed %d in %s", committed, ignored, failed, duration),
			tags:    []string{"swna", "run", "completed"},
		}, true
	case EventTestNotification:
		return payload{
			title:    "SWNA - Test",
			message:  "Notification system test",
			tags:     []string{"swna", "test"},
			priority: "low",
		}, true
	default:
		return payload{}, false
	}
}

func str(data Payload, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return "-"
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return "-"
	}
	return s
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
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
