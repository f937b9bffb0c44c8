package httpx

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/equinetracker/equinetracker"
	"github.com/equinetracker/equinetracker/config"
	"github.com/equinetracker/equinetracker/internal/domain/shell"
	"github.com/equinetracker/equinetracker/internal/observability/statsd"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth  Authenticator
	Shell ShellService

	ShellConfig  config.ShellConfig
	CookieDomain string

	// Metrics receives per-route request metrics (optional).
	Metrics statsd.Sink
	// MetricsHandler serves GET /metrics when set.
	MetricsHandler http.Handler
	// HealthChecks are probed by GET /healthz.
	HealthChecks []HealthCheck

	// TemplateFS overrides the embedded or on-disk templates (tests).
	TemplateFS fs.FS

	IsDev  bool         // Development mode: templates and static files are read from disk.
	Logger *slog.Logger // Logger for template and HTTP errors (optional)
}

// horseDetailSpec renders /horses/{id}; the Horses nav entry stays active by prefix.
//
//nolint:gochecknoglobals // static page descriptor
var horseDetailSpec = PageSpec{Page: shell.PageHorses, Title: "Horse", Description: "Horse details."}

// NewRouter creates the HTTP handler with every route and the shared middleware chain.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.Auth == nil {
		return nil, errors.New("router: auth service is required")
	}
	if services.Shell == nil {
		return nil, errors.New("router: shell service is required")
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	templateFS, err := templateFSFor(services)
	if err != nil {
		return nil, err
	}
	renderer, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: templateFS, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}

	shellHandlers := &ShellHandlers{
		Svc:                 services.Shell,
		T:                   renderer,
		ReloadMode:          services.ShellConfig.ReloadMode,
		SurfaceSwitchErrors: services.ShellConfig.SurfaceSwitchErrors(),
		LoadErrorBanner:     services.ShellConfig.LoadErrorBanner,
		Logger:              logger,
	}
	apiHandlers := &APIHandlers{Svc: services.Shell}
	authHandlers := &AuthHandlers{Svc: services.Auth, CookieDomain: services.CookieDomain, Logger: logger}

	cfg := routeConfig{
		auth: services.Auth,
		csrf: CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain}),
	}

	mux := http.NewServeMux()
	registerShellRoutes(mux, shellHandlers, cfg)
	registerAPIRoutes(mux, apiHandlers, cfg)
	registerAuthRoutes(mux, authHandlers, shellHandlers, cfg)

	health := healthHandler(services.HealthChecks, logger)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	if services.MetricsHandler != nil {
		mux.Handle("GET /metrics", services.MetricsHandler)
	}
	mux.Handle("GET /static/", staticHandler(services.IsDev, logger))

	// Unmatched paths get the shell's 404 page.
	mux.Handle("/", cfg.optional()(http.HandlerFunc(shellHandlers.NotFound)))

	var handler http.Handler = mux
	handler = Metrics(services.Metrics)(handler)
	handler = BrowserDetection()(handler)
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler, nil
}

// routeConfig carries the middleware shared by route groups.
type routeConfig struct {
	auth SessionReader
	csrf func(http.Handler) http.Handler
}

// protected requires a session and validates CSRF on unsafe methods.
func (cfg routeConfig) protected() func(http.Handler) http.Handler {
	requireAuth := RequireAuth(cfg.auth)
	return func(h http.Handler) http.Handler {
		return requireAuth(cfg.csrf(h))
	}
}

// optional attaches a session when present and still issues the CSRF token.
func (cfg routeConfig) optional() func(http.Handler) http.Handler {
	withSession := OptionalAuth(cfg.auth)
	return func(h http.Handler) http.Handler {
		return withSession(cfg.csrf(h))
	}
}

func registerShellRoutes(mux *http.ServeMux, h *ShellHandlers, cfg routeConfig) {
	wrap := cfg.protected()
	mux.Handle("GET /{$}", wrap(http.HandlerFunc(h.Index)))
	for _, ps := range ShellPages() {
		mux.Handle("GET "+shell.PageURL(ps.Page), wrap(h.Page(ps)))
	}
	mux.Handle("GET /horses/{id}", wrap(h.Page(horseDetailSpec)))
	mux.Handle("GET "+shell.PageURL(shell.PageBarnSelection), wrap(http.HandlerFunc(h.BarnSelection)))
	mux.Handle("POST /barn/switch", wrap(http.HandlerFunc(h.SwitchBarn)))
}

func registerAPIRoutes(mux *http.ServeMux, h *APIHandlers, cfg routeConfig) {
	wrap := cfg.protected()
	mux.Handle("GET /api/me", wrap(http.HandlerFunc(h.GetMe)))
	mux.Handle("PATCH /api/me", wrap(http.HandlerFunc(h.PatchMe)))
	mux.Handle("GET /api/barns", wrap(http.HandlerFunc(h.ListBarns)))
	mux.Handle("GET /api/shell", wrap(http.HandlerFunc(h.Shell)))
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, ui *ShellHandlers, cfg routeConfig) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.Handle("POST /auth/logout", cfg.csrf(http.HandlerFunc(h.Logout)))
	mux.HandleFunc("GET /api/auth/me", h.Status)
	mux.Handle("GET /auth/signed-out", cfg.csrf(http.HandlerFunc(ui.SignedOut)))
}

// templateFSFor picks the template source: an explicit override, the working
// tree in dev mode, or the embedded copy.
func templateFSFor(services RouterServices) (fs.FS, error) {
	if services.TemplateFS != nil {
		return services.TemplateFS, nil
	}
	if services.IsDev {
		return os.DirFS(TemplatePathFromRoot), nil
	}
	sub, err := fs.Sub(equinetracker.TemplateFS, TemplatePathFromRoot)
	if err != nil {
		return nil, fmt.Errorf("router: embedded templates: %w", err)
	}
	return sub, nil
}

// staticHandler serves /static/* from disk in dev mode and from the embedded FS otherwise.
func staticHandler(isDev bool, logger *slog.Logger) http.Handler {
	if isDev {
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir(staticPathFromRoot))), false)
	}
	staticSub, err := fs.Sub(equinetracker.StaticFS, staticPathFromRoot)
	if err != nil {
		logger.Error("failed to create sub-filesystem for static assets", "error", err)
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir(staticPathFromRoot))), false)
	}
	return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))), true)
}

// staticWithCacheHeaders lets browsers cache embedded assets briefly; dev assets are never cached.
func staticWithCacheHeaders(handler http.Handler, cacheable bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cacheable {
			w.Header().Set("Cache-Control", "public, max-age=3600")
		} else {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}
		handler.ServeHTTP(w, r)
	})
}
