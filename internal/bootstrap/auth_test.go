package bootstrap

import (
	"io"
	"log/slog"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equinetracker/equinetracker/config"
	"github.com/equinetracker/equinetracker/internal/adapters/authroles"
	domainauth "github.com/equinetracker/equinetracker/internal/domain/auth"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// unreachableRedis never dials until a command runs, which these tests avoid.
func unreachableRedis(t *testing.T) redis.UniversalClient {
	t.Helper()
	c := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func devAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Mode:       config.AuthModeMock,
		AdminGroup: "barn-admins",
		UserGroup:  "barn-staff",
		DevAuth: config.DevAuthConfig{
			UserID: "dev-user",
			Email:  "dev@example.com",
			Groups: []string{"barn-admins"},
		},
	}
}

func TestBuildAuthService_RequiresRedis(t *testing.T) {
	_, err := BuildAuthService(AuthConfig{Auth: devAuthConfig(), Logger: discardLogger()})
	require.Error(t, err)
}

func TestBuildAuthService_DevMode(t *testing.T) {
	svc, err := BuildAuthService(AuthConfig{
		Auth:        devAuthConfig(),
		RedisClient: unreachableRedis(t),
		Logger:      discardLogger(),
	})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestBuildAuthService_DevModeNeedsIdentity(t *testing.T) {
	cfg := devAuthConfig()
	cfg.DevAuth.Email = ""
	_, err := BuildAuthService(AuthConfig{Auth: cfg, RedisClient: unreachableRedis(t)})
	assert.ErrorContains(t, err, "dev auth provider")
}

func TestBuildAuthService_OAuthMissingSettings(t *testing.T) {
	_, err := BuildAuthService(AuthConfig{
		Auth:        config.AuthConfig{Mode: config.AuthModeOAuth},
		RedisClient: unreachableRedis(t),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OAUTH_DISCOVERY_URL")
	assert.Contains(t, err.Error(), "OAUTH_CLIENT_ID")
	assert.Contains(t, err.Error(), "OAUTH_CLIENT_SECRET")
}

func TestBuildRoleMapper(t *testing.T) {
	t.Run("static without expression", func(t *testing.T) {
		m, err := BuildRoleMapper(devAuthConfig())
		require.NoError(t, err)
		_, ok := m.(authroles.StaticRoleMapper)
		assert.True(t, ok)
		assert.Equal(t, domainauth.RoleAdmin, m.Map(domainauth.Identity{Groups: []string{"barn-admins"}}))
	})

	t.Run("expression wraps static", func(t *testing.T) {
		cfg := devAuthConfig()
		cfg.RoleExpression = "contains(groups, 'farriers') && 'user' || ''"
		m, err := BuildRoleMapper(cfg)
		require.NoError(t, err)
		assert.Equal(t, domainauth.RoleUser, m.Map(domainauth.Identity{Groups: []string{"farriers"}}))
		assert.Equal(t, domainauth.RoleAdmin, m.Map(domainauth.Identity{Groups: []string{"barn-admins"}}))
	})

	t.Run("invalid expression", func(t *testing.T) {
		cfg := devAuthConfig()
		cfg.RoleExpression = "contains(groups"
		_, err := BuildRoleMapper(cfg)
		assert.ErrorContains(t, err, "AUTH_ROLE_EXPRESSION")
	})
}
