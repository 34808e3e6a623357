package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityError    = "error"
	SeverityWarning  = "warning"
)

// IncidentPayload captures the canonical data we emit for operational
// incident notifications (panics, repeated 5xx responses, failed startup
// dependencies).
type IncidentPayload struct {
	Summary     string
	Component   string
	RequestPath string
	RequestID   string
	Error       string
	ErrorClass  string
	Severity    string
	DedupKey    string
	OccurredAt  time.Time
	Metadata    map[string]string
}

// Sink describes a destination capable of consuming incident notifications.
type Sink interface {
	SendIncident(ctx context.Context, payload IncidentPayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload IncidentPayload) error

// SendIncident implements the Sink interface.
func (f SinkFunc) SendIncident(ctx context.Context, payload IncidentPayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
