// Package devseed loads demo barns for the dev-auth user so a fresh
// environment lands in the in-context shell right after sign-in.
package devseed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/equinetracker/equinetracker/internal/core"
	"github.com/equinetracker/equinetracker/internal/domain/model"
)

// BarnUpserter creates or updates a barn and keeps any barn cache coherent.
type BarnUpserter interface {
	UpsertBarn(ctx context.Context, req *model.UpsertBarnRequest) (*model.Barn, error)
}

// Deps are the ports the seed writes through.
type Deps struct {
	Barns  BarnUpserter
	Users  core.UserRepository
	Logger *slog.Logger
}

// User identifies the account that receives the demo barns.
type User struct {
	ID       string
	FullName string
	Email    string
	Role     string
}

// DemoBarns are the barns created by Run, in display order.
func DemoBarns() []model.UpsertBarnRequest {
	return []model.UpsertBarnRequest{
		{ID: "dev-barn-north", Name: "North Paddock Stables", Location: "Lexington, KY"},
		{ID: "dev-barn-south", Name: "South Ridge Equestrian", Location: "Ocala, FL"},
	}
}

// Run upserts the demo barns, associates u with them and selects the first
// one when u has no active barn yet. It is idempotent.
func Run(ctx context.Context, d Deps, u User) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "devseed")
	if d.Barns == nil || d.Users == nil {
		return errors.New("devseed: barns and users are required")
	}
	if strings.TrimSpace(u.ID) == "" {
		return errors.New("devseed: user id is required")
	}

	barns := DemoBarns()
	ids := make([]string, 0, len(barns))
	for i := range barns {
		b, err := d.Barns.UpsertBarn(ctx, &barns[i])
		if err != nil {
			return fmt.Errorf("seed barn %s: %w", barns[i].ID, err)
		}
		ids = append(ids, b.ID)
	}

	user, err := d.Users.Upsert(ctx, &model.UpsertUserRequest{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		Role:     u.Role,
	})
	if err != nil {
		return fmt.Errorf("seed user %s: %w", u.ID, err)
	}
	if err := d.Users.SetAssociatedBarns(ctx, user.ID, ids); err != nil {
		return fmt.Errorf("associate barns: %w", err)
	}

	if !user.HasCurrentBarn() {
		if _, err := d.Users.UpdateCurrentBarn(ctx, core.UpdateCurrentBarnParams{
			UserID: user.ID,
			BarnID: ids[0],
		}); err != nil {
			return fmt.Errorf("select barn: %w", err)
		}
	}

	logger.InfoContext(ctx, "dev seed applied", "user_id", user.ID, "barns", len(ids))
	return nil
}
