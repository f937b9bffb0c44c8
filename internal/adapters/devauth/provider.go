// Package devauth signs in a fixed rider from configuration so the shell can
// be exercised locally without an identity provider.
package devauth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/equinetracker/equinetracker/internal/domain/auth"
	"github.com/equinetracker/equinetracker/internal/ports"
)

const defaultSessionDuration = 8 * time.Hour

// Config describes the rider returned by every login. UserID and Email are required.
type Config struct {
	UserID          string
	FirstName       string
	LastName        string
	Email           string
	Groups          []string
	SessionDuration time.Duration
}

// Provider implements ports.AuthProvider. Begin sends the browser straight
// back to /auth/callback and Exchange returns the configured identity.
type Provider struct {
	cfg Config
	now func() time.Time
}

// NewProvider validates cfg and returns a Provider.
func NewProvider(cfg Config) (*Provider, error) {
	cfg.UserID = strings.TrimSpace(cfg.UserID)
	cfg.Email = strings.TrimSpace(cfg.Email)
	var errs []error
	if cfg.UserID == "" {
		errs = append(errs, errors.New("dev auth: UserID is required"))
	}
	if cfg.Email == "" {
		errs = append(errs, errors.New("dev auth: Email is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if cfg.SessionDuration <= 0 {
		cfg.SessionDuration = defaultSessionDuration
	}
	cfg.Groups = append([]string(nil), cfg.Groups...)
	return &Provider{cfg: cfg, now: time.Now}, nil
}

// Begin returns a local callback URL with a random state and nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, nonce := uuid.NewString(), uuid.NewString()
	q := url.Values{"code": {"dev"}, "state": {state}}
	return "/auth/callback?" + q.Encode(), state, nonce, nil
}

// Exchange returns the configured identity with a fresh expiry. The handler
// has already checked state and nonce.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
	return domainauth.Identity{
		UserID:    p.cfg.UserID,
		FirstName: p.cfg.FirstName,
		LastName:  p.cfg.LastName,
		Email:     p.cfg.Email,
		Groups:    append([]string(nil), p.cfg.Groups...),
		ExpiresAt: p.now().Add(p.cfg.SessionDuration),
	}, nil
}
