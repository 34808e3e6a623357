package incidentnotifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/partkeep/partkeep/internal/observability/notify"
)

func TestServiceNotifyIncident(t *testing.T) {
	ctx := context.Background()

	var received []notify.IncidentPayload
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{
				Name: "capture",
				Sink: notify.SinkFunc(func(ctx context.Context, payload notify.IncidentPayload) error {
					received = append(received, payload)
					return nil
				}),
			},
		},
	})

	svc.NotifyIncident(ctx, notify.IncidentPayload{
		Summary:   "request panic",
		Component: "http",
	})

	if len(received) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(received))
	}
	if received[0].Severity != notify.SeverityCritical {
		t.Fatalf("expected severity to default to critical, got %s", received[0].Severity)
	}
	if received[0].OccurredAt.IsZero() {
		t.Fatal("expected occurred_at to be stamped")
	}
}

func TestServiceDisabled(t *testing.T) {
	svc := NewService(Options{})
	if svc.Enabled() {
		t.Fatal("expected Enabled() to be false when no sinks registered")
	}
}

func TestServiceLogsErrors(t *testing.T) {
	// Ensure we don't panic when sink returns an error.
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{
				Name: "fail",
				Sink: notify.SinkFunc(func(ctx context.Context, payload notify.IncidentPayload) error {
					return errors.New("boom")
				}),
			},
		},
	})

	svc.NotifyIncident(context.Background(), notify.IncidentPayload{Summary: "boom"})
}

func TestServiceThrottlesRepeatDedupKeys(t *testing.T) {
	ctx := context.Background()
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var calls int
	svc := NewService(Options{
		Throttle: time.Minute,
		now:      func() time.Time { return current },
		Sinks: []SinkRegistration{
			{
				Name: "capture",
				Sink: notify.SinkFunc(func(ctx context.Context, payload notify.IncidentPayload) error {
					calls++
					return nil
				}),
			},
		},
	})

	payload := notify.IncidentPayload{Summary: "db down", DedupKey: "partkeep:db"}

	svc.NotifyIncident(ctx, payload)
	svc.NotifyIncident(ctx, payload)
	if calls != 1 {
		t.Fatalf("expected repeat incident to be throttled, got %d calls", calls)
	}

	current = current.Add(2 * time.Minute)
	svc.NotifyIncident(ctx, payload)
	if calls != 2 {
		t.Fatalf("expected incident after throttle window to deliver, got %d calls", calls)
	}
}

func TestServiceDoesNotThrottleDistinctKeys(t *testing.T) {
	ctx := context.Background()

	var calls int
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{
				Name: "capture",
				Sink: notify.SinkFunc(func(ctx context.Context, payload notify.IncidentPayload) error {
					calls++
					return nil
				}),
			},
		},
	})

	svc.NotifyIncident(ctx, notify.IncidentPayload{Summary: "a", DedupKey: "k1"})
	svc.NotifyIncident(ctx, notify.IncidentPayload{Summary: "b", DedupKey: "k2"})
	if calls != 2 {
		t.Fatalf("expected both incidents to deliver, got %d calls", calls)
	}
}
