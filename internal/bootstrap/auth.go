package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/equinetracker/equinetracker/config"
	"github.com/equinetracker/equinetracker/internal/adapters/authroles"
	"github.com/equinetracker/equinetracker/internal/adapters/devauth"
	"github.com/equinetracker/equinetracker/internal/adapters/oidc"
	redisadapter "github.com/equinetracker/equinetracker/internal/adapters/redis"
	"github.com/equinetracker/equinetracker/internal/core"
	"github.com/equinetracker/equinetracker/internal/observability/statsd"
	"github.com/equinetracker/equinetracker/internal/ports"
	"github.com/equinetracker/equinetracker/internal/service"
)

const sessionKeyPrefix = "equinetracker:session:"

// AuthConfig contains the dependencies of the auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	Users       core.UserRepository
	Metrics     statsd.Sink
	Logger      *slog.Logger
}

// BuildAuthService wires the identity provider selected by AUTH_MODE to the
// Redis session store, the role mapper and user provisioning.
func BuildAuthService(cfg AuthConfig) (*service.AuthService, error) {
	if cfg.RedisClient == nil {
		return nil, errors.New("auth requires a redis client for sessions")
	}
	roles, err := BuildRoleMapper(cfg.Auth)
	if err != nil {
		return nil, err
	}

	var provider ports.AuthProvider
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		provider, err = devauth.NewProvider(devauth.Config{
			UserID:    cfg.Auth.DevAuth.UserID,
			FirstName: cfg.Auth.DevAuth.FirstName,
			LastName:  cfg.Auth.DevAuth.LastName,
			Email:     cfg.Auth.DevAuth.Email,
			Groups:    cfg.Auth.DevAuth.Groups,
		})
		if err != nil {
			return nil, fmt.Errorf("dev auth provider: %w", err)
		}
		if cfg.Logger != nil {
			cfg.Logger.Warn("dev auth enabled; every login signs in as the configured user",
				"user_id", cfg.Auth.DevAuth.UserID)
		}
	case config.AuthModeOAuth:
		provider, err = buildOIDCProvider(cfg.Auth.OAuth)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider: provider,
		Sessions: redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, sessionKeyPrefix),
		Roles:    roles,
		Users:    cfg.Users,
		Metrics:  cfg.Metrics,
		Logger:   cfg.Logger,
	}), nil
}

// BuildRoleMapper returns the group-membership mapper, wrapped by the JMESPath
// expression mapper when AUTH_ROLE_EXPRESSION is set.
//
//nolint:ireturn // callers only need the port.
func BuildRoleMapper(cfg config.AuthConfig) (ports.RoleMapper, error) {
	static := authroles.StaticRoleMapper{AdminGroup: cfg.AdminGroup, UserGroup: cfg.UserGroup}
	if strings.TrimSpace(cfg.RoleExpression) == "" {
		return static, nil
	}
	m, err := authroles.NewExpressionMapper(cfg.RoleExpression, static)
	if err != nil {
		return nil, fmt.Errorf("AUTH_ROLE_EXPRESSION: %w", err)
	}
	return m, nil
}

func buildOIDCProvider(cfg config.OAuthConfig) (*oidc.Provider, error) {
	var missing []string
	if strings.TrimSpace(cfg.DiscoveryURL) == "" {
		missing = append(missing, "OAUTH_DISCOVERY_URL")
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		missing = append(missing, "OAUTH_CLIENT_ID")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		missing = append(missing, "OAUTH_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("oauth mode requires %s", strings.Join(missing, ", "))
	}

	p, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scope:        cfg.Scope,
		DiscoveryURL: cfg.DiscoveryURL,
		LogoutURL:    cfg.LogoutURL,
	})
	if err != nil {
		return nil, fmt.Errorf("oidc provider: %w", err)
	}
	return p, nil
}
