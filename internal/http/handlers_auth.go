package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/equinetracker/equinetracker/internal/domain/auth"
	"github.com/equinetracker/equinetracker/internal/service"
)

// loginCookieTTL bounds how long an OAuth round trip may take.
const loginCookieTTL = 10 * time.Minute

// Authenticator is the slice of service.AuthService the HTTP layer depends on.
type Authenticator interface {
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlers serves sign-in, sign-out and the session status probe.
type AuthHandlers struct {
	Svc          Authenticator
	CookieDomain string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login starts the OAuth round trip. The page the user asked for travels in a
// short-lived cookie so Callback can return there.
// GET /auth/login?redirect_uri=<path>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	returnTo := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	result, err := h.Svc.BeginLogin(r.Context(), returnTo)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "login_failed", Err: err})
		return
	}

	ttl := int(loginCookieTTL.Seconds())
	h.setCookie(w, r, stateCookieName, result.State, ttl)
	h.setCookie(w, r, nonceCookieName, result.Nonce, ttl)
	h.setCookie(w, r, redirectCookieName, returnTo, ttl)
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// callbackRejection is a 400 raised before the code is exchanged.
type callbackRejection struct {
	code string
	msg  string
}

func (e *callbackRejection) Error() string { return e.msg }

// callbackParams checks the callback query against the login cookies.
func callbackParams(r *http.Request) (service.CompleteLoginInput, error) {
	q := r.URL.Query()
	in := service.CompleteLoginInput{Code: q.Get("code"), State: q.Get("state")}
	if in.Code == "" {
		return in, &callbackRejection{"missing_code", "authorization code is required"}
	}
	if in.State == "" {
		return in, &callbackRejection{"missing_state", "state parameter is required"}
	}
	if c, err := r.Cookie(stateCookieName); err != nil || c.Value != in.State {
		return in, &callbackRejection{"invalid_state", "invalid or missing state parameter"}
	}
	nonce, err := r.Cookie(nonceCookieName)
	if err != nil {
		return in, &callbackRejection{"missing_nonce", "missing nonce parameter"}
	}
	in.Nonce = nonce.Value
	return in, nil
}

// Callback finishes the OAuth round trip, provisions the user through the
// auth service and lands on the page saved by Login.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	in, err := callbackParams(r)
	if err != nil {
		var rej *callbackRejection
		errors.As(err, &rej)
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: rej.code, Err: err})
		return
	}

	result, err := h.Svc.CompleteLogin(r.Context(), in)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "login completion failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     errors.New("login could not be completed"),
		})
		return
	}

	h.setCookie(w, r, sessionCookieName, result.Session.ID, int(time.Until(result.Session.ExpiresAt).Seconds()))
	returnTo := "/"
	if c, cookieErr := r.Cookie(redirectCookieName); cookieErr == nil {
		returnTo = safeRedirectPath(c.Value)
	}
	for _, name := range []string{stateCookieName, nonceCookieName, redirectCookieName} {
		h.expireCookie(w, r, name)
	}
	http.Redirect(w, r, returnTo, http.StatusFound)
}

// Logout drops the session and sends the user to the signed-out page, which
// offers a sign-in link back to redirect_uri. A store failure still clears
// the cookie.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookieName); err == nil {
		if logoutErr := h.Svc.Logout(r.Context(), c.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
	}
	h.expireCookie(w, r, sessionCookieName)

	returnTo := r.FormValue("redirect_uri")
	if returnTo == "" {
		returnTo = r.URL.Query().Get("redirect_uri")
	}
	target := signedOutURL(safeRedirectPath(returnTo))

	switch {
	case IsHTMX(r):
		HTMX(w).Redirect(target)
	case prefersJSON(r):
		WriteJSON(w, http.StatusOK, map[string]string{"status": "success", "redirect_to": target})
	default:
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

func signedOutURL(returnTo string) string {
	u := url.URL{Path: "/auth/signed-out", RawQuery: url.Values{"redirect_uri": {returnTo}}.Encode()}
	return u.String()
}

// prefersJSON reports script callers that expect a JSON body instead of a redirect.
func prefersJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
}

// authStatus is the body of GET /api/auth/me.
type authStatus struct {
	Authenticated bool        `json:"authenticated"`
	User          *statusUser `json:"user,omitempty"`
	ExpiresAt     *time.Time  `json:"expires_at,omitempty"`
}

type statusUser struct {
	ID       string          `json:"id"`
	FullName string          `json:"full_name"`
	Email    string          `json:"email"`
	Role     domainauth.Role `json:"role"`
}

// Status reports whether the request carries a live session. It never fails;
// a stale cookie is expired and reported as signed out.
// GET /api/auth/me.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		WriteJSON(w, http.StatusOK, authStatus{})
		return
	}
	sess, err := h.Svc.GetSession(r.Context(), c.Value)
	if err != nil {
		h.expireCookie(w, r, sessionCookieName)
		WriteJSON(w, http.StatusOK, authStatus{})
		return
	}
	WriteJSON(w, http.StatusOK, authStatus{
		Authenticated: true,
		User:          &statusUser{ID: sess.UserID, FullName: sess.FullName, Email: sess.Email, Role: sess.Role},
		ExpiresAt:     &sess.ExpiresAt,
	})
}

// setCookie writes an HttpOnly, Lax cookie scoped to the configured domain.
func (h *AuthHandlers) setCookie(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// expireCookie deletes name using the same attributes it was set with.
func (h *AuthHandlers) expireCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}
