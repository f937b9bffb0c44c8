package core

import (
	"context"
	"errors"

	"github.com/equinetracker/equinetracker/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// Sentinel errors returned by repository implementations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrBarnNotFound = errors.New("barn not found")
	// ErrStaleSwitch means the user's barn_switch_seq moved on before this switch was applied.
	ErrStaleSwitch = errors.New("barn switch superseded by a newer switch")
)

// UserRepository is the entity-access port for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	Upsert(ctx context.Context, req *model.UpsertUserRequest) (*model.User, error)
	UpdateCurrentBarn(ctx context.Context, params UpdateCurrentBarnParams) (*model.User, error)
	SetAssociatedBarns(ctx context.Context, userID string, barnIDs []string) error
}

// UpdateCurrentBarnParams groups parameters for UpdateCurrentBarn.
// When ExpectedSeq is set the write only applies if the stored barn_switch_seq still equals it.
type UpdateCurrentBarnParams struct {
	UserID      string
	BarnID      string
	ExpectedSeq *int64
}

// BarnRepository is the entity-access port for barns.
type BarnRepository interface {
	List(ctx context.Context) ([]model.Barn, error)
	GetByID(ctx context.Context, id string) (*model.Barn, error)
	Upsert(ctx context.Context, req *model.UpsertBarnRequest) (*model.Barn, error)
}
