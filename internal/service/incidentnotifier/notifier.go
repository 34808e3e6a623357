package incidentnotifier

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/partkeep/partkeep/internal/observability/notify"
)

// defaultThrottle suppresses repeat notifications for the same dedup key.
const defaultThrottle = 5 * time.Minute

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the incident notifier service.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration

	// Throttle is the minimum interval between notifications sharing a
	// dedup key. Zero means the default of five minutes.
	Throttle time.Duration

	now func() time.Time
}

// Service dispatches incident events to all registered sinks.
type Service struct {
	logger   *slog.Logger
	sinks    []SinkRegistration
	throttle time.Duration
	now      func() time.Time

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// NewService constructs an incident notifier.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "incident_notifier")
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "sink"
		}
		sinks = append(sinks, SinkRegistration{
			Name: name,
			Sink: entry.Sink,
		})
	}

	throttle := opts.Throttle
	if throttle <= 0 {
		throttle = defaultThrottle
	}

	now := opts.now
	if now == nil {
		now = time.Now
	}

	return &Service{
		logger:   logger,
		sinks:    sinks,
		throttle: throttle,
		now:      now,
		lastSent: make(map[string]time.Time),
	}
}

// NotifyIncident fans the incident payload out to all sinks. Payloads that
// share a dedup key are throttled so a failing endpoint does not page on
// every request.
func (s *Service) NotifyIncident(ctx context.Context, payload notify.IncidentPayload) {
	if len(s.sinks) == 0 {
		return
	}

	if payload.DedupKey != "" && s.throttled(payload.DedupKey) {
		if s.logger != nil {
			s.logger.DebugContext(ctx, "throttled incident notification",
				"dedup_key", payload.DedupKey,
				"summary", payload.Summary,
			)
		}
		return
	}

	if payload.Severity == "" {
		payload.Severity = notify.SeverityCritical
	}
	if payload.OccurredAt.IsZero() {
		payload.OccurredAt = s.now()
	}

	var g errgroup.Group
	for _, entry := range s.sinks {
		g.Go(func() error {
			if err := entry.Sink.SendIncident(ctx, payload); err != nil {
				s.logger.Error("incident notifier delivery error",
					"sink", entry.Name,
					"summary", payload.Summary,
					"component", payload.Component,
					"error", err,
				)
			}
			// Delivery failures are logged per sink, never propagated.
			return nil
		})
	}
	_ = g.Wait()
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return len(s.sinks) > 0
}

func (s *Service) throttled(key string) bool {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.lastSent[key]; ok && now.Sub(last) < s.throttle {
		return true
	}
	s.lastSent[key] = now
	return false
}
