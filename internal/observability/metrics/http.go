package metrics

import (
	"strconv"
	"time"

	"github.com/equinetracker/equinetracker/internal/observability/statsd"
)

// EmitHTTPRequest records one served request. Routes are the ServeMux pattern,
// never the raw path, so label cardinality stays bounded.
func EmitHTTPRequest(sink statsd.Sink, method, route string, status int, d time.Duration) {
	if sink == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	tags := map[string]string{
		"method":       method,
		"route":        route,
		"status_class": strconv.Itoa(status/100) + "xx",
	}
	sink.Count("http.requests", 1, tags)
	sink.Timing("http.request_duration", d, CloneTags(tags))
}
