package config

import (
	"fmt"
	"strings"
	"time"
)

// ReloadMode controls how the browser is reset after a barn switch.
type ReloadMode string

const (
	// ReloadModeFull forces a full browser reload (HX-Refresh or a 303 redirect).
	ReloadModeFull ReloadMode = "full"
	// ReloadModeSoft re-renders the shell and page together via HX-Location.
	ReloadModeSoft ReloadMode = "soft"
)

// UnmarshalText implements encoding.TextUnmarshaler for ReloadMode.
func (m *ReloadMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "full", "soft":
		*m = ReloadMode(v)
		return nil
	default:
		return fmt.Errorf("invalid ReloadMode: %q (valid options: full, soft)", v)
	}
}

// SwitchFailureMode controls whether failed barn switches are shown to the user.
type SwitchFailureMode string

const (
	// SwitchFailureSwallow logs the failure and leaves the page untouched.
	SwitchFailureSwallow SwitchFailureMode = "swallow"
	// SwitchFailureSurface logs the failure and renders an error banner.
	SwitchFailureSurface SwitchFailureMode = "surface"
)

// UnmarshalText implements encoding.TextUnmarshaler for SwitchFailureMode.
func (m *SwitchFailureMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "swallow", "surface":
		*m = SwitchFailureMode(v)
		return nil
	default:
		return fmt.Errorf("invalid SwitchFailureMode: %q (valid options: swallow, surface)", v)
	}
}

// ShellConfig groups settings for barn context resolution and switching.
type ShellConfig struct {
	ReloadMode    ReloadMode        `env:"RELOAD_MODE"       envDefault:"full"`
	SwitchFailure SwitchFailureMode `env:"SWITCH_FAILURE"    envDefault:"swallow"`

	// LoadErrorBanner renders a retry banner when the user or barn list cannot be loaded.
	LoadErrorBanner bool `env:"LOAD_ERROR_BANNER" envDefault:"false"`

	// BarnCacheTTL bounds how long the barn list is served from Redis. Zero disables caching.
	BarnCacheTTL time.Duration `env:"BARN_CACHE_TTL" envDefault:"5m"`
}

// Sanitize applies guardrails to shell configuration values.
func (s *ShellConfig) Sanitize() {
	if s.ReloadMode == "" {
		s.ReloadMode = ReloadModeFull
	}
	if s.SwitchFailure == "" {
		s.SwitchFailure = SwitchFailureSwallow
	}
	if s.BarnCacheTTL < 0 {
		s.BarnCacheTTL = 0
	}
}

// SurfaceSwitchErrors reports whether failed switches should be shown to the user.
func (s ShellConfig) SurfaceSwitchErrors() bool {
	return s.SwitchFailure == SwitchFailureSurface
}
