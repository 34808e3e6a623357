package slack

import (
	"strings"
	"testing"
	"time"

	"github.com/partkeep/partkeep/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error when webhook url missing")
	}
}

func TestFormatMessageIncludesFields(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
		Channel:    "#alerts",
		Username:   "bot",
		Timeout:    time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := client.formatMessage(notify.IncidentPayload{
		Summary:     "request panic",
		Component:   "http",
		RequestPath: "/components/42",
		RequestID:   "req-1",
		Error:       "boom",
		ErrorClass:  "test_error",
	})

	if msg["username"] != "bot" {
		t.Fatalf("expected username to be preserved, got %v", msg["username"])
	}
	if msg["channel"] != "#alerts" {
		t.Fatalf("expected channel to be set, got %v", msg["channel"])
	}

	text, ok := msg["text"].(string)
	if !ok {
		t.Fatalf("expected text field")
	}
	if !containsAll(
		text,
		[]string{"Incident alert", "request panic", "http", "/components/42", "req-1", "boom", "test_error"},
	) {
		t.Fatalf("message text missing fields: %s", text)
	}
}

func TestFormatMessageRequestLink(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL:   "https://hooks.slack.com/services/test",
		AppURLPrefix: "https://parts.example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := client.formatMessage(notify.IncidentPayload{
		RequestPath: "/components/42",
	})

	text, ok := msg["text"].(string)
	if !ok {
		t.Fatalf("expected text field")
	}

	expected := "<https://parts.example.com/components/42|/components/42>"
	if !strings.Contains(text, expected) {
		t.Fatalf("expected request link %q in text: %s", expected, text)
	}
}

func TestFormatMessageEscapesError(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := client.formatMessage(notify.IncidentPayload{
		RequestPath: "/search?q=<x>&page=1",
	})

	text, ok := msg["text"].(string)
	if !ok {
		t.Fatalf("expected text field")
	}

	if !strings.Contains(text, "&lt;x&gt;&amp;page=1") {
		t.Fatalf("expected escaped request path, got: %s", text)
	}
}

func TestFormatRequestValuePermutations(t *testing.T) {
	tcs := []struct {
		name      string
		path      string
		requestID string
		prefix    string
		want      string
	}{
		{
			name:   "path with link",
			path:   "/dashboard",
			prefix: "https://parts.example.com",
			want:   "<https://parts.example.com/dashboard|/dashboard>",
		},
		{
			name:      "request id only",
			requestID: "req-9",
			prefix:    "https://parts.example.com",
			want:      "req-9",
		},
		{
			name:      "path and id with link",
			path:      "/admin/users",
			requestID: "req-2",
			prefix:    "https://parts.example.com",
			want:      "<https://parts.example.com/admin/users|/admin/users> (req-2)",
		},
		{
			name:      "path and id without link",
			path:      "/admin/users",
			requestID: "req-3",
			prefix:    "not a url",
			want:      "/admin/users (req-3)",
		},
		{
			name:   "empty inputs",
			want:   "",
			prefix: "https://parts.example.com",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			client, err := NewClient(Config{
				WebhookURL:   "https://hooks.slack.com/services/test",
				AppURLPrefix: tc.prefix,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := client.formatRequestValue(tc.path, tc.requestID)
			if got != tc.want {
				t.Fatalf("formatRequestValue(%q,%q) = %q, want %q", tc.path, tc.requestID, got, tc.want)
			}
		})
	}
}

func containsAll(text string, substrs []string) bool {
	for _, s := range substrs {
		if !strings.Contains(text, s) {
			return false
		}
	}
	return true
}
