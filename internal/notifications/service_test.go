package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RabowNicholas/swna-automation/internal/config"
	"github.com/RabowNicholas/swna-automation/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newServer(t *testing.T) (*httptest.Server, *[]captured) {
	t.Helper()
	var got []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = append(got, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, &got
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventRunCompleted, notifications.Payload{"committed": 1}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "commit inconsistent",
			event: notifications.EventCommitInconsistent,
			payload: notifications.Payload{
				"client":      "Smith, John",
				"source":      "/inbox/scan.pdf",
				"destination": "/clients/Smith, John/DOL Letters/AR Ack - J. Smith 07.31.25.pdf",
				"error":       "device busy",
			},
			expectTitle:    "SWNA - Commit Inconsistent",
			expectMessage:  "Registry updated for Smith, John but the file was not moved.",
			expectTags:     "swna,commit,inconsistent",
			expectPriority: "urgent",
		},
		{
			name:           "reconciliation needed",
			event:          notifications.EventReconciliationNeeded,
			payload:        notifications.Payload{"client": "Smith, John", "source": "scan.pdf"},
			expectTitle:    "SWNA - Registry Check Needed",
			expectMessage:  "File left in inbox: scan.pdf",
			expectTags:     "swna,registry,review",
			expectPriority: "high",
		},
		{
			name:          "document failed",
			event:         notifications.EventDocumentFailed,
			payload:       notifications.Payload{"source": "scan.pdf", "stage": "resolve", "reason": "client_not_found"},
			expectTitle:   "SWNA - Document Failed",
			expectMessage: "scan.pdf failed at resolve: client_not_found",
			expectTags:    "swna,document,failed",
		},
		{
			name:          "run completed with failures",
			event:         notifications.EventRunCompleted,
			payload:       notifications.Payload{"committed": 3, "ignored": 1, "failed": 2, "duration": 90 * time.Second},
			expectTitle:   "SWNA - Run Complete (with failures)",
			expectMessage: "Filed 3, ignored 1, failed 2 in 1m30s",
			expectTags:    "swna,run,completed",
		},
		{
			name:           "test",
			event:          notifications.EventTestNotification,
			expectTitle:    "SWNA - Test",
			expectMessage:  "Notification system test",
			expectTags:     "swna,test",
			expectPriority: "low",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, got := newServer(t)
			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			svc := notifications.NewService(&cfg)

			if err := svc.Publish(context.Background(), tt.event, tt.payload); err != nil {
				t.Fatalf("Publish returned error: %v", err)
			}
			if len(*got) != 1 {
				t.Fatalf("expected 1 request, got %d", len(*got))
			}
			req := (*got)[0]
			if req.title != tt.expectTitle {
				t.Fatalf("title = %q, want %q", req.title, tt.expectTitle)
			}
			if !strings.Contains(req.body, tt.expectMessage) {
				t.Fatalf("body %q does not contain %q", req.body, tt.expectMessage)
			}
			if req.tags != tt.expectTags {
				t.Fatalf("tags = %q, want %q", req.tags, tt.expectTags)
			}
			if req.priority != tt.expectPriority {
				t.Fatalf("priority = %q, want %q", req.priority, tt.expectPriority)
			}
		})
	}
}

func TestDisabledEventsAreSkipped(t *testing.T) {
	server, got := newServer(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.RunSummary = false
	svc := notifications.NewService(&cfg)

	if err := svc.Publish(context.Background(), notifications.EventRunCompleted, notifications.Payload{"committed": 1}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if len(*got) != 0 {
		t.Fatalf("expected disabled event to be skipped, got %d requests", len(*got))
	}
}

func TestNtfyErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic blocked", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTestNotification, nil)
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
