package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/equinetracker/equinetracker/internal/observability/statsd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	kind string
	name string
	tags map[string]string
}

type recordingSink struct {
	mu    sync.Mutex
	calls []call
}

func (r *recordingSink) add(kind, name string, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{kind: kind, name: name, tags: tags})
}

func (r *recordingSink) Count(name string, _ int64, tags map[string]string) {
	r.add("count", name, tags)
}
func (r *recordingSink) Gauge(name string, _ float64, tags map[string]string) {
	r.add("gauge", name, tags)
}

func (r *recordingSink) Timing(name string, _ time.Duration, tags map[string]string) {
	r.add("timing", name, tags)
}

func TestEmitBarnSwitch(t *testing.T) {
	sink := &recordingSink{}
	EmitBarnSwitch(sink, BarnSwitch{Result: ResultSuccess, ReloadMode: "soft", Duration: time.Millisecond})

	require.Len(t, sink.calls, 2)
	assert.Equal(t, "shell.barn_switch", sink.calls[0].name)
	assert.Equal(t, map[string]string{"result": "success", "reload_mode": "soft", "error_class": "none"}, sink.calls[0].tags)
	assert.Equal(t, "timing", sink.calls[1].kind)
}

func TestEmitBarnSwitch_ErrorClass(t *testing.T) {
	sink := &recordingSink{}
	EmitBarnSwitch(sink, BarnSwitch{Result: ResultError, ReloadMode: "full", Err: errors.New("boom")})

	require.Len(t, sink.calls, 1)
	assert.Equal(t, "errors_errorstring", sink.calls[0].tags["error_class"])
}

func TestEmitShellLoadAndCache(t *testing.T) {
	sink := &recordingSink{}
	EmitShellLoad(sink, ShellLoad{Mode: "in_context", Selector: "dropdown", Result: ResultSuccess})
	EmitBarnCache(sink, "hit")
	EmitLogin(sink, "admin", ResultSuccess)

	require.Len(t, sink.calls, 3)
	assert.Equal(t, "dropdown", sink.calls[0].tags["selector"])
	assert.Equal(t, "shell.barn_cache", sink.calls[1].name)
	assert.Equal(t, "auth.login", sink.calls[2].name)
}

func TestEmit_NilSink(t *testing.T) {
	EmitBarnSwitch(nil, BarnSwitch{})
	EmitShellLoad(nil, ShellLoad{})
	EmitBarnCache(nil, "hit")
	EmitLogin(nil, "", "")
}

func TestFanout(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}

	assert.Nil(t, NewFanout(nil, nil))
	assert.Same(t, a, NewFanout(nil, a).(*recordingSink))

	var sink statsd.Sink = NewFanout(a, nil, b)
	sink.Count("c", 1, nil)
	sink.Gauge("g", 1, nil)
	sink.Timing("t", time.Second, nil)
	assert.Len(t, a.calls, 3)
	assert.Len(t, b.calls, 3)
}

func TestCloneTags(t *testing.T) {
	assert.Nil(t, CloneTags(nil))
	src := map[string]string{"a": "1"}
	cp := CloneTags(src)
	cp["a"] = "2"
	assert.Equal(t, "1", src["a"])
}

func TestEmitHTTPRequest(t *testing.T) {
	sink := &recordingSink{}
	EmitHTTPRequest(sink, "GET", "GET /horses/{id}", 200, time.Millisecond)
	EmitHTTPRequest(sink, "POST", "", 503, time.Millisecond)
	EmitHTTPRequest(nil, "GET", "", 200, 0)

	require.Len(t, sink.calls, 4)
	assert.Equal(t, map[string]string{"method": "GET", "route": "GET /horses/{id}", "status_class": "2xx"}, sink.calls[0].tags)
	assert.Equal(t, "http.request_duration", sink.calls[1].name)
	assert.Equal(t, "unmatched", sink.calls[2].tags["route"])
	assert.Equal(t, "5xx", sink.calls[2].tags["status_class"])
}
