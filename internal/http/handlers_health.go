package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck is a named dependency probe for /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthHandler runs every check concurrently and reports 503 when any fails.
// Check errors are logged, never returned to the caller.
func healthHandler(checks []HealthCheck, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		results := make([]string, len(checks))
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		var g errgroup.Group
		for i, c := range checks {
			g.Go(func() error {
				results[i] = "ok"
				if err := c.Check(ctx); err != nil {
					logger.WarnContext(ctx, "health check failed", "check", c.Name, "error", err)
					results[i] = "error"
				}
				return nil
			})
		}
		_ = g.Wait()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for i, c := range checks {
			resp.Checks[c.Name] = results[i]
			if results[i] != "ok" {
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			}
		}

		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			return
		}
		WriteJSON(w, status, resp)
	}
}
