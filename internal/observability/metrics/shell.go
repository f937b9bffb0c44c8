// Package metrics emits the application's named metrics onto a statsd.Sink.
package metrics

import (
	"time"

	obserrors "github.com/equinetracker/equinetracker/internal/observability/errors"
	"github.com/equinetracker/equinetracker/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultStale   = "stale"
	ResultNoop    = "noop"
)

// BarnSwitch describes one barn switch attempt.
type BarnSwitch struct {
	Result     string
	ReloadMode string
	Duration   time.Duration
	Err        error
}

// EmitBarnSwitch emits shell.barn_switch counters and timings.
func EmitBarnSwitch(sink statsd.Sink, in BarnSwitch) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"result":      in.Result,
		"reload_mode": in.ReloadMode,
	}
	withErrorClass(tags, in.Result, in.Err)

	sink.Count("shell.barn_switch", 1, tags)
	if in.Duration > 0 {
		sink.Timing("shell.barn_switch", in.Duration, CloneTags(tags))
	}
}

// ShellLoad describes one shell context load.
type ShellLoad struct {
	Mode     string
	Selector string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitShellLoad emits shell.load counters and timings.
func EmitShellLoad(sink statsd.Sink, in ShellLoad) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"mode":     in.Mode,
		"selector": in.Selector,
		"result":   in.Result,
	}
	withErrorClass(tags, in.Result, in.Err)

	sink.Count("shell.load", 1, tags)
	if in.Duration > 0 {
		sink.Timing("shell.load", in.Duration, CloneTags(tags))
	}
}

// EmitBarnCache counts barn list cache lookups by outcome (hit, miss, error).
func EmitBarnCache(sink statsd.Sink, outcome string) {
	if sink == nil {
		return
	}
	sink.Count("shell.barn_cache", 1, map[string]string{"outcome": outcome})
}

// EmitLogin counts completed sign-ins by role and result.
func EmitLogin(sink statsd.Sink, role, result string) {
	if sink == nil {
		return
	}
	sink.Count("auth.login", 1, map[string]string{"role": role, "result": result})
}

// withErrorClass always sets error_class so a metric keeps one label set.
func withErrorClass(tags map[string]string, result string, err error) {
	tags["error_class"] = "none"
	if err != nil && result != ResultSuccess {
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}
}

// CloneTags creates a shallow copy of a tag map.
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
