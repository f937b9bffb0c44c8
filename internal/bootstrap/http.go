package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/equinetracker/equinetracker/config"
	httpx "github.com/equinetracker/equinetracker/internal/http"
)

const shutdownTimeout = 10 * time.Second

// NewHTTPServer builds the router over svcs and returns an unstarted server.
func NewHTTPServer(cfg *config.AppConfig, svcs *Services, logger *slog.Logger) (*http.Server, error) {
	handler, err := httpx.NewRouter(httpx.RouterServices{
		Auth:           svcs.Auth,
		Shell:          svcs.Shell,
		ShellConfig:    cfg.Shell,
		CookieDomain:   cfg.HTTP.CookieDomain,
		Metrics:        svcs.Metrics.Sink,
		MetricsHandler: svcs.Metrics.Handler,
		HealthChecks:   svcs.HealthChecks(),
		IsDev:          cfg.IsDev,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}

	addr := cfg.HTTP.Addr
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}, nil
}

// Serve runs server until ctx is canceled, then drains in-flight requests.
func Serve(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}
