package httpx

import (
	"errors"
	"net/http"
)

// errorPage is the data behind the standalone error template.
type errorPage struct {
	Title     string
	Status    int
	Message   string
	RequestID string
}

// renderError writes a standalone error page, falling back to plain text when
// the error template itself cannot be rendered.
func (h *ShellHandlers) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{Code: status, ErrCode: errorCodeFor(status), Err: errors.New(message)})
		return
	}
	data := errorPage{
		Title:     http.StatusText(status),
		Status:    status,
		Message:   message,
		RequestID: RequestIDFromContext(r.Context()),
	}
	if h.T == nil {
		http.Error(w, message, status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.T.Render(w, tmplErrorLayout, status, data); err != nil {
		http.Error(w, message, status)
	}
}

func errorCodeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	default:
		return "internal_error"
	}
}
