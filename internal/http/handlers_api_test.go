package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/equinetracker/equinetracker/config"
	"github.com/equinetracker/equinetracker/internal/core"
)

// api performs an authenticated JSON request. Unsafe methods carry the CSRF header.
func (e *shellEnv) api(method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sid"})
	if method != http.MethodGet {
		req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: testCSRFToken})
		req.Header.Set("X-Csrf-Token", testCSRFToken)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestAPI_Shell(t *testing.T) {
	env := newShellEnv(t, config.ShellConfig{})
	env.users.EXPECT().GetByID(gomock.Any(), "u1").Return(testUser(ptr("b2"), "b1", "b2"), nil)
	env.barns.EXPECT().List(gomock.Any()).Return(testBarns(), nil)

	rr := env.api(http.MethodGet, "/api/shell?path=/horses/123", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp shellResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "in-context", resp.Mode)
	assert.Equal(t, "dropdown", resp.Selector)
	assert.Equal(t, "South", resp.SelectorLabel)
	require.NotNil(t, resp.CurrentBarn)
	assert.Equal(t, "b2", resp.CurrentBarn.ID)
	require.Len(t, resp.UserBarns, 2)
	assert.Equal(t, "b1", resp.UserBarns[0].ID)
	assert.False(t, resp.LoadError)

	require.Len(t, resp.Navigation, 7)
	require.Len(t, resp.QuickActions, 5)
	for _, n := range resp.Navigation {
		assert.Equal(t, n.Title == "Horses", n.Active, n.Title)
	}
	for _, q := range resp.QuickActions {
		assert.False(t, q.Active, q.Title)
	}
}

func TestAPI_ShellReportsLoadError(t *testing.T) {
	env := newShellEnv(t, config.ShellConfig{})
	env.users.EXPECT().GetByID(gomock.Any(), "u1").Return(nil, errors.New("connection refused"))

	rr := env.api(http.MethodGet, "/api/shell", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	body := decodeBody(t, rr)
	assert.Equal(t, "no-context", body["mode"])
	assert.Equal(t, "none", body["selector"])
	assert.Equal(t, true, body["load_error"])
	assert.Nil(t, body["user"])
	assert.Equal(t, []any{}, body["user_barns"])
	assert.NotContains(t, rr.Body.String(), "connection refused")
}

func TestAPI_GetMe(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		env := newShellEnv(t, config.ShellConfig{})
		env.users.EXPECT().GetByID(gomock.Any(), "u1").Return(testUser(ptr("b2"), "b1", "b2"), nil)

		rr := env.api(http.MethodGet, "/api/me", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "u1", body["id"])
		assert.Equal(t, "Jane Doe", body["full_name"])
		assert.Equal(t, "b2", body["current_barn_id"])
		assert.Equal(t, []any{"b1", "b2"}, body["associated_barns"])
	})

	t.Run("missing user", func(t *testing.T) {
		env := newShellEnv(t, config.ShellConfig{})
		env.users.EXPECT().GetByID(gomock.Any(), "u1").Return(nil, core.ErrUserNotFound)

		rr := env.api(http.MethodGet, "/api/me", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "not_found", decodeBody(t, rr)["code"])
	})

	t.Run("unauthenticated", func(t *testing.T) {
		env := newShellEnv(t, config.ShellConfig{})
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		rr := httptest.NewRecorder()
		env.handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "authentication_required", decodeBody(t, rr)["code"])
	})
}

func TestAPI_PatchMe(t *testing.T) {
	t.Run("switches the barn", func(t *testing.T) {
		env := newShellEnv(t, config.ShellConfig{})
		env.barns.EXPECT().GetByID(gomock.Any(), "b1").Return(&testBarns()[0], nil)
		env.users.EXPECT().UpdateCurrentBarn(gomock.Any(), core.UpdateCurrentBarnParams{
			UserID:      "u1",
			BarnID:      "b1",
			ExpectedSeq: ptr(int64(3)),
		}).Return(testUser(ptr("b1"), "b1", "b2"), nil)

		rr := env.api(http.MethodPatch, "/api/me", strings.NewReader(`{"current_barn_id":"b1","seq":3}`))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, "b1", decodeBody(t, rr)["current_barn_id"])
	})

	t.Run("stale switch is a conflict", func(t *testing.T) {
		env := newShellEnv(t, config.ShellConfig{})
		env.barns.EXPECT().GetByID(gomock.Any(), "b1").Return(&testBarns()[0], nil)
		env.users.EXPECT().UpdateCurrentBarn(gomock.Any(), gomock.Any()).Return(nil, core.ErrStaleSwitch)

		rr := env.api(http.MethodPatch, "/api/me", strings.NewReader(`{"current_barn_id":"b1","seq":2}`))
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "conflict", decodeBody(t, rr)["code"])
	})

	t.Run("unknown barn", func(t *testing.T) {
		env := newShellEnv(t, config.ShellConfig{})
		env.barns.EXPECT().GetByID(gomock.Any(), "b9").Return(nil, core.ErrBarnNotFound)

		rr := env.api(http.MethodPatch, "/api/me", strings.NewReader(`{"current_barn_id":"b9"}`))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("missing barn id", func(t *testing.T) {
		env := newShellEnv(t, config.ShellConfig{})

		rr := env.api(http.MethodPatch, "/api/me", strings.NewReader(`{}`))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "validation", body["code"])
		assert.Equal(t, "current_barn_id", body["field"])
	})

	t.Run("unknown field", func(t *testing.T) {
		env := newShellEnv(t, config.ShellConfig{})

		rr := env.api(http.MethodPatch, "/api/me", strings.NewReader(`{"current_barn_id":"b1","role":"admin"}`))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "invalid_json", decodeBody(t, rr)["code"])
	})

	t.Run("missing csrf header", func(t *testing.T) {
		env := newShellEnv(t, config.ShellConfig{})
		req := httptest.NewRequest(http.MethodPatch, "/api/me", strings.NewReader(`{"current_barn_id":"b1"}`))
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sid"})
		rr := httptest.NewRecorder()
		env.handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestAPI_ListBarns(t *testing.T) {
	t.Run("lists every barn", func(t *testing.T) {
		env := newShellEnv(t, config.ShellConfig{})
		env.barns.EXPECT().List(gomock.Any()).Return(testBarns(), nil)

		rr := env.api(http.MethodGet, "/api/barns", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var resp barnsResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Barns, 2)
		assert.Equal(t, "North", resp.Barns[0].Name)
	})

	t.Run("empty list is an array", func(t *testing.T) {
		env := newShellEnv(t, config.ShellConfig{})
		env.barns.EXPECT().List(gomock.Any()).Return(nil, nil)

		rr := env.api(http.MethodGet, "/api/barns", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"barns":[]}`, rr.Body.String())
	})

	t.Run("failure hides the cause", func(t *testing.T) {
		env := newShellEnv(t, config.ShellConfig{})
		env.barns.EXPECT().List(gomock.Any()).Return(nil, errors.New("dial tcp 10.0.0.5:5432: refused"))

		rr := env.api(http.MethodGet, "/api/barns", nil)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "10.0.0.5")
		assert.Equal(t, "internal", decodeBody(t, rr)["code"])
	})
}
