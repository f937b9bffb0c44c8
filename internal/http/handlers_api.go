package httpx

import (
	"net/http"

	"github.com/equinetracker/equinetracker/internal/domain/model"
	"github.com/equinetracker/equinetracker/internal/domain/shell"
)

// APIHandlers serves the JSON view of the current user, barns and shell context.
type APIHandlers struct {
	Svc ShellService
}

// GetMe returns the signed-in user. GET /api/me.
func (h *APIHandlers) GetMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.Svc.LoadUser(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, u)
}

// PatchMe switches the active barn. PATCH /api/me with {"current_barn_id": "..", "seq": n}.
func (h *APIHandlers) PatchMe(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateCurrentUserRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	u, err := h.Svc.UpdateCurrentUser(r.Context(), UserIDFromContext(r.Context()), &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, u)
}

type barnsResponse struct {
	Barns []model.Barn `json:"barns"`
}

// ListBarns returns every barn. GET /api/barns.
func (h *APIHandlers) ListBarns(w http.ResponseWriter, r *http.Request) {
	barns, err := h.Svc.ListBarns(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if barns == nil {
		barns = []model.Barn{}
	}
	WriteJSON(w, http.StatusOK, barnsResponse{Barns: barns})
}

type navEntryResponse struct {
	shell.NavItem
	Active bool `json:"active"`
}

type shellResponse struct {
	Mode          string             `json:"mode"`
	Selector      string             `json:"selector"`
	SelectorLabel string             `json:"selector_label"`
	User          *model.User        `json:"user"`
	CurrentBarn   *model.Barn        `json:"current_barn"`
	UserBarns     []model.Barn       `json:"user_barns"`
	Navigation    []navEntryResponse `json:"navigation"`
	QuickActions  []navEntryResponse `json:"quick_actions"`
	LoadError     bool               `json:"load_error"`
}

// Shell returns the resolved shell context. GET /api/shell?path=/horses.
// Load failures are reported in load_error; the context is still returned.
func (h *APIHandlers) Shell(w http.ResponseWriter, r *http.Request) {
	res := h.Svc.Load(r.Context(), UserIDFromContext(r.Context()))
	sc := res.Context
	path := r.URL.Query().Get("path")

	userBarns := sc.UserBarns
	if userBarns == nil {
		userBarns = []model.Barn{}
	}
	WriteJSON(w, http.StatusOK, shellResponse{
		Mode:          sc.Mode().String(),
		Selector:      sc.Selector().String(),
		SelectorLabel: sc.SelectorLabel(),
		User:          sc.User,
		CurrentBarn:   sc.CurrentBarn,
		UserBarns:     userBarns,
		Navigation:    navEntries(shell.NavigationItems(), path),
		QuickActions:  navEntries(shell.QuickActions(), path),
		LoadError:     res.Err != nil,
	})
}

func navEntries(items []shell.NavItem, path string) []navEntryResponse {
	out := make([]navEntryResponse, len(items))
	for i, it := range items {
		out[i] = navEntryResponse{NavItem: it, Active: path != "" && shell.IsActive(path, it)}
	}
	return out
}
