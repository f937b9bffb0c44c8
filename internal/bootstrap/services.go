package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/equinetracker/equinetracker/config"
	"github.com/equinetracker/equinetracker/internal/data"
	httpx "github.com/equinetracker/equinetracker/internal/http"
	"github.com/equinetracker/equinetracker/internal/observability/metrics"
	"github.com/equinetracker/equinetracker/internal/observability/prom"
	"github.com/equinetracker/equinetracker/internal/observability/statsd"
	"github.com/equinetracker/equinetracker/internal/service"
)

const metricsPrefix = "equinetracker"

// Services is the wired application: repositories, domain services and metrics sinks.
type Services struct {
	Users *data.UserRepo
	Barns *data.BarnRepo
	Cache *data.RedisCacheRepo

	Shell *service.ShellService
	Auth  *service.AuthService

	Metrics Metrics

	infra *Infrastructure
}

// Metrics is the combined sink plus the optional Prometheus handler.
type Metrics struct {
	Sink    statsd.Sink
	Handler http.Handler
	statsd  *statsd.Client
}

// Close flushes and closes the statsd socket.
func (m Metrics) Close() error {
	return m.statsd.Close()
}

// BuildMetrics fans out to statsd and Prometheus according to cfg.
// A statsd dial failure is logged and statsd is skipped; metrics never block startup.
func BuildMetrics(cfg config.ObservabilityMetricsConfig, logger *slog.Logger) Metrics {
	var m Metrics
	var sinks []statsd.Sink

	if cfg.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Address: cfg.StatsdAddress,
			Prefix:  metricsPrefix,
			Logger:  logger,
		})
		switch {
		case err != nil:
			logger.Error("statsd disabled", "error", err, "addr", cfg.StatsdAddress)
		case client != nil:
			m.statsd = client
			sinks = append(sinks, client)
		}
	}
	if cfg.PrometheusEnabled {
		p := prom.NewSink(metricsPrefix)
		m.Handler = p.Handler()
		sinks = append(sinks, p)
	}
	m.Sink = metrics.NewFanout(sinks...)
	return m
}

// NewServices builds repositories and services on top of infra.
func NewServices(cfg *config.AppConfig, infra *Infrastructure, logger *slog.Logger) (*Services, error) {
	if cfg == nil || infra == nil || infra.DB == nil {
		return nil, errors.New("services require config and a database")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Services{
		Users:   data.NewUserRepo(infra.DB),
		Barns:   data.NewBarnRepo(infra.DB),
		Metrics: BuildMetrics(cfg.Observability.Metrics, logger),
		infra:   infra,
	}
	if infra.Redis != nil {
		s.Cache = data.NewRedisCacheRepo(infra.Redis)
	}

	shellOpts := service.ShellServiceOptions{
		Users:      s.Users,
		Barns:      s.Barns,
		CacheTTL:   cfg.Shell.BarnCacheTTL,
		ReloadMode: string(cfg.Shell.ReloadMode),
		Metrics:    s.Metrics.Sink,
		Logger:     logger,
	}
	if s.Cache != nil {
		shellOpts.Cache = s.Cache
	}
	s.Shell = service.NewShellService(shellOpts)

	auth, err := BuildAuthService(AuthConfig{
		Auth:        cfg.Auth,
		RedisClient: infra.Redis,
		Users:       s.Users,
		Metrics:     s.Metrics.Sink,
		Logger:      logger,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("auth: %w", err), s.Metrics.Close())
	}
	s.Auth = auth
	return s, nil
}

// HealthChecks reports Postgres and Redis reachability for /healthz.
func (s *Services) HealthChecks() []httpx.HealthCheck {
	checks := []httpx.HealthCheck{{
		Name:  "postgres",
		Check: func(ctx context.Context) error { return s.infra.DB.PingContext(ctx) },
	}}
	if s.Cache != nil {
		checks = append(checks, httpx.HealthCheck{Name: "redis", Check: s.Cache.Health})
	}
	return checks
}

// Close releases the metrics sinks. Infrastructure is closed by its owner.
func (s *Services) Close() error {
	if s == nil {
		return nil
	}
	return s.Metrics.Close()
}
