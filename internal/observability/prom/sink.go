// Package prom exposes statsd-style metric calls as Prometheus collectors.
package prom

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/equinetracker/equinetracker/internal/observability/statsd"
)

// Sink implements statsd.Sink on a private Prometheus registry.
// Vectors are created on first use, keyed by metric name and label set.
// Label names for a metric are fixed by its first emission; later calls
// with a different label set are dropped.
type Sink struct {
	namespace string
	registry  *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
	labels     map[string][]string
}

var _ statsd.Sink = (*Sink)(nil)

// NewSink creates a sink with Go runtime and process collectors registered.
func NewSink(namespace string) *Sink {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return &Sink{
		namespace:  sanitize(namespace),
		registry:   reg,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		labels:     make(map[string][]string),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

// Registry returns the underlying registry.
func (s *Sink) Registry() *prometheus.Registry { return s.registry }

// Count adds value to the counter name.
func (s *Sink) Count(name string, value int64, tags map[string]string) {
	if s == nil || value < 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	keys, values, ok := s.labelSet(name, tags)
	if !ok {
		return
	}
	vec, found := s.counters[name]
	if !found {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: s.namespace,
			Name:      sanitize(name) + "_total",
			Help:      "Count of " + name + " events.",
		}, keys)
		if err := s.registry.Register(vec); err != nil {
			return
		}
		s.counters[name] = vec
	}
	vec.WithLabelValues(values...).Add(float64(value))
}

// Gauge sets the gauge name to value.
func (s *Sink) Gauge(name string, value float64, tags map[string]string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	keys, values, ok := s.labelSet(name, tags)
	if !ok {
		return
	}
	vec, found := s.gauges[name]
	if !found {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: s.namespace,
			Name:      sanitize(name),
			Help:      "Current value of " + name + ".",
		}, keys)
		if err := s.registry.Register(vec); err != nil {
			return
		}
		s.gauges[name] = vec
	}
	vec.WithLabelValues(values...).Set(value)
}

// Timing observes value in seconds on the histogram name.
func (s *Sink) Timing(name string, value time.Duration, tags map[string]string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	keys, values, ok := s.labelSet(name, tags)
	if !ok {
		return
	}
	vec, found := s.histograms[name]
	if !found {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: s.namespace,
			Name:      sanitize(name) + "_seconds",
			Help:      "Duration of " + name + ".",
			Buckets:   prometheus.DefBuckets,
		}, keys)
		if err := s.registry.Register(vec); err != nil {
			return
		}
		s.histograms[name] = vec
	}
	vec.WithLabelValues(values...).Observe(value.Seconds())
}

// labelSet returns sorted label keys and matching values. The first call for a
// name pins its keys; mismatching later calls report ok=false.
func (s *Sink) labelSet(name string, tags map[string]string) ([]string, []string, bool) {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		if k = sanitize(k); k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	if pinned, ok := s.labels[name]; ok {
		if !equal(pinned, keys) {
			return nil, nil, false
		}
	} else {
		s.labels[name] = keys
	}

	byKey := make(map[string]string, len(tags))
	for k, v := range tags {
		byKey[sanitize(k)] = v
	}
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = byKey[k]
	}
	return keys, values, true
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// sanitize maps a statsd-style dotted name onto the Prometheus charset.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out != "" && out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}
