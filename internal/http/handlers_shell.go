package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/equinetracker/equinetracker/config"
	"github.com/equinetracker/equinetracker/internal/core"
	"github.com/equinetracker/equinetracker/internal/domain/model"
	"github.com/equinetracker/equinetracker/internal/domain/shell"
	corefuncs "github.com/equinetracker/equinetracker/internal/http/templates/core"
	"github.com/equinetracker/equinetracker/internal/http/ui/viewmodel"
	"github.com/equinetracker/equinetracker/internal/service"
)

// ShellService is the slice of service.ShellService the HTTP layer uses.
type ShellService interface {
	Load(ctx context.Context, userID string) service.LoadResult
	LoadUser(ctx context.Context, userID string) (*model.User, error)
	ListBarns(ctx context.Context) ([]model.Barn, error)
	SwitchBarn(ctx context.Context, in service.SwitchBarnInput) (*model.User, error)
	UpdateCurrentUser(ctx context.Context, userID string, req *model.UpdateCurrentUserRequest) (*model.User, error)
	BarnSelection(ctx context.Context, userID string) (*service.BarnSelection, error)
}

var _ ShellService = (*service.ShellService)(nil)

// ShellHandlers renders shell pages and applies barn switches.
type ShellHandlers struct {
	Svc ShellService
	T   *TemplateRenderer

	ReloadMode          config.ReloadMode
	SurfaceSwitchErrors bool
	LoadErrorBanner     bool

	Logger *slog.Logger
}

func (h *ShellHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// placeholderContent backs every page that has no dedicated template yet.
type placeholderContent struct {
	Description string
}

// barnSelectionContent backs the barn selection page.
type barnSelectionContent struct {
	Barns       []viewmodel.Barn
	Seq         int64
	Unavailable bool
}

//nolint:gochecknoglobals // static page descriptors
var (
	barnSelectionSpec = PageSpec{Page: shell.PageBarnSelection, Title: "Select Barn"}
	notFoundSpec      = PageSpec{Page: PageNotFound, Title: "Not Found"}
	signedOutSpec     = PageSpec{Page: PageSignedOut, Title: "Signed out"}
)

// Index sends the bare root to the dashboard.
func (h *ShellHandlers) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, shell.PageURL(shell.PageDashboard), http.StatusFound)
}

// Page returns a handler that renders the page described by ps inside the shell.
func (h *ShellHandlers) Page(ps PageSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := h.load(r)
		page := h.newPage(r, ps, res)
		page.Content = placeholderContent{Description: ps.Description}
		h.render(w, r, page, 0)
	}
}

// BarnSelection lists the barns the user can switch to.
func (h *ShellHandlers) BarnSelection(w http.ResponseWriter, r *http.Request) {
	sel, err := h.Svc.BarnSelection(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		page := h.newPage(r, barnSelectionSpec, service.LoadResult{Context: shell.Resolve(nil, nil), Err: err})
		page.Content = barnSelectionContent{Unavailable: true}
		h.render(w, r, page, 0)
		return
	}

	page := h.newPage(r, barnSelectionSpec, service.LoadResult{Context: sel.Context})
	offered := make([]model.Barn, len(sel.Barns))
	for i, b := range sel.Barns {
		offered[i] = b.Barn
	}
	content := barnSelectionContent{Barns: viewmodel.NewBarns(offered, sel.Context.User.CurrentBarn())}
	if sel.Context.User != nil {
		content.Seq = sel.Context.User.BarnSwitchSeq
	}
	page.Content = content
	h.render(w, r, page, 0)
}

// SwitchBarn persists the selected barn and then reloads; the page is never
// patched in place. POST /barn/switch with barn_id, seq and return_to.
func (h *ShellHandlers) SwitchBarn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "The barn switch request could not be read.")
		return
	}
	returnTo := safeRedirectPath(r.PostFormValue("return_to"))
	in := service.SwitchBarnInput{
		UserID: UserIDFromContext(r.Context()),
		BarnID: r.PostFormValue("barn_id"),
	}
	if raw := strings.TrimSpace(r.PostFormValue("seq")); raw != "" {
		seq, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.logger().WarnContext(r.Context(), "invalid barn switch sequence",
				"user_id", in.UserID, "barn_id", in.BarnID, "seq", raw)
			h.switchFailed(w, r, in.BarnID, returnTo)
			return
		}
		in.Seq = &seq
	}

	_, err := h.Svc.SwitchBarn(r.Context(), in)
	if err != nil && !errors.Is(err, core.ErrStaleSwitch) {
		h.switchFailed(w, r, in.BarnID, returnTo)
		return
	}
	// A stale switch still reloads so the page reflects the switch that won.
	h.reload(w, r, returnTo)
}

func (h *ShellHandlers) reload(w http.ResponseWriter, r *http.Request, returnTo string) {
	if !IsHTMX(r) {
		http.Redirect(w, r, returnTo, http.StatusSeeOther)
		return
	}
	if h.ReloadMode == config.ReloadModeSoft {
		HTMX(w).Location(returnTo)
		return
	}
	HTMX(w).Refresh()
}

// switchFailed leaves the page as it was. Surfaced failures carry a trigger
// (htmx) or a query flag (plain forms) that renders the error banner.
func (h *ShellHandlers) switchFailed(w http.ResponseWriter, r *http.Request, barnID, returnTo string) {
	if IsHTMX(r) {
		if h.SurfaceSwitchErrors {
			HTMX(w).Trigger(EventSwitchFailed, map[string]string{"barn_id": barnID}).NoContent()
			return
		}
		HTMX(w).NoContent()
		return
	}
	if h.SurfaceSwitchErrors {
		returnTo = corefuncs.WithQuery(returnTo, switchErrorParam, "1")
	}
	http.Redirect(w, r, returnTo, http.StatusSeeOther)
}

// NotFound renders the 404 page, inside the shell when the user has a barn context.
func (h *ShellHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("not found")})
		return
	}
	page := h.newPage(r, notFoundSpec, h.load(r))
	h.render(w, r, page, http.StatusNotFound)
}

// SignedOut confirms logout without any shell chrome.
func (h *ShellHandlers) SignedOut(w http.ResponseWriter, r *http.Request) {
	page := h.newPage(r, signedOutSpec, service.LoadResult{Context: shell.Resolve(nil, nil)})
	page.Content = struct{ RedirectURI string }{
		RedirectURI: safeRedirectPath(r.URL.Query().Get("redirect_uri")),
	}
	h.render(w, r, page, 0)
}

// load resolves the shell context for the signed-in user. Anonymous requests
// resolve to no-context without touching the service.
func (h *ShellHandlers) load(r *http.Request) service.LoadResult {
	uid := UserIDFromContext(r.Context())
	if uid == "" {
		return service.LoadResult{Context: shell.Resolve(nil, nil)}
	}
	return h.Svc.Load(r.Context(), uid)
}

func (h *ShellHandlers) newPage(r *http.Request, ps PageSpec, res service.LoadResult) *viewmodel.Page {
	l := viewmodel.Layout{
		Title:           ps.Title,
		PageTitle:       ps.Title,
		CurrentPage:     string(ps.Page),
		CurrentPath:     r.URL.Path,
		CSRFToken:       GetCSRFToken(r),
		IsAuthenticated: GetSessionFromContext(r.Context()) != nil,
		Shell:           viewmodel.NewShell(res.Context, r.URL.Path),
		LoadError:       res.Err != nil && h.LoadErrorBanner,
		SwitchFailed:    h.SurfaceSwitchErrors && r.URL.Query().Get(switchErrorParam) != "",
	}
	if res.Context.User != nil {
		u := l.Shell.Footer
		l.User = &u
	}
	return &viewmodel.Page{Layout: l}
}

// render picks the response shape: htmx navigations get the content block,
// everything else gets a full document with or without the chrome.
func (h *ShellHandlers) render(w http.ResponseWriter, r *http.Request, page *viewmodel.Page, status int) {
	name := tmplContentOnly
	switch {
	case WantsPartial(r):
		name = tmplPartial
		SetHXTrigger(w, EventNavActivate, map[string]string{"path": page.CurrentPath})
	case page.Shell.InContext:
		name = tmplLayout
	}
	if err := h.T.Render(w, name, status, page); err != nil {
		w.Header().Del("Hx-Trigger")
		h.renderError(w, r, http.StatusInternalServerError, "Something went wrong while rendering this page.")
	}
}
