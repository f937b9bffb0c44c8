package devauth

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equinetracker/equinetracker/internal/ports"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	prov, err := NewProvider(Config{
		UserID:    " dev-user ",
		FirstName: "Dev",
		LastName:  "Rider",
		Email:     "dev@example.com",
		Groups:    []string{"barn-staff"},
	})
	require.NoError(t, err)
	return prov
}

func TestProvider_BeginPointsAtCallback(t *testing.T) {
	prov := newTestProvider(t)

	authURL, state, nonce, err := prov.Begin(context.Background(), ports.BeginInput{RedirectURL: "/horses"})
	require.NoError(t, err)
	assert.NotEmpty(t, state)
	assert.NotEmpty(t, nonce)
	assert.NotEqual(t, state, nonce)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, "/auth/callback", u.Path)
	assert.Equal(t, "dev", u.Query().Get("code"))
	assert.Equal(t, state, u.Query().Get("state"))
}

func TestProvider_ExchangeReturnsConfiguredRider(t *testing.T) {
	prov := newTestProvider(t)
	fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	prov.now = func() time.Time { return fixed }

	id, err := prov.Exchange(context.Background(), ports.ExchangeInput{Code: "dev"})
	require.NoError(t, err)
	assert.Equal(t, "dev-user", id.UserID)
	assert.Equal(t, "Dev Rider", id.FullName())
	assert.Equal(t, []string{"barn-staff"}, id.Groups)
	assert.Equal(t, fixed.Add(defaultSessionDuration), id.ExpiresAt)

	id.Groups[0] = "mutated"
	again, err := prov.Exchange(context.Background(), ports.ExchangeInput{})
	require.NoError(t, err)
	assert.Equal(t, "barn-staff", again.Groups[0])
}

func TestNewProvider_RequiresUserAndEmail(t *testing.T) {
	_, err := NewProvider(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UserID is required")
	assert.Contains(t, err.Error(), "Email is required")

	_, err = NewProvider(Config{UserID: "dev", Email: "  "})
	assert.Error(t, err)
}
