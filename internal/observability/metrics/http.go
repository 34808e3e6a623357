package metrics

import (
	"strconv"
	"time"

	obserrors "github.com/partkeep/partkeep/internal/observability/errors"
	"github.com/partkeep/partkeep/internal/observability/statsd"
)

// RequestMetric captures details about a handled HTTP request for metric emission.
type RequestMetric struct {
	Method   string
	Route    string
	Status   int
	Duration time.Duration
	Err      error
}

// EmitHTTPRequest emits standardised request metrics.
func EmitHTTPRequest(sink statsd.Sink, in RequestMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"method":       in.Method,
		"route":        in.Route,
		"status":       strconv.Itoa(in.Status),
		"status_class": statusClass(in.Status),
	}

	if in.Err != nil && in.Status >= 500 {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("http.request", 1, tags)

	if in.Duration > 0 {
		sink.Timing("http.request.duration", in.Duration, CloneTags(tags))
	}
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
