package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/equinetracker/equinetracker/internal/core"
	"github.com/equinetracker/equinetracker/internal/data/pgxutil"
	"github.com/equinetracker/equinetracker/internal/domain/model"
	apperrors "github.com/equinetracker/equinetracker/internal/errors"
	"github.com/jackc/pgx/v5"
)

const (
	barnColumns      = `id, name, location, created_at`
	barnListQuery    = `SELECT ` + barnColumns + ` FROM barns ORDER BY created_at, id`
	barnGetByIDQuery = `SELECT ` + barnColumns + ` FROM barns WHERE id = $1`
	barnUpsertQuery  = `
		INSERT INTO barns (id, name, location, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name     = EXCLUDED.name,
			location = EXCLUDED.location
		RETURNING ` + barnColumns
)

// BarnRepo provides database operations for barns.
type BarnRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewBarnRepo creates a new BarnRepo with real time provider.
func NewBarnRepo(db *sql.DB) *BarnRepo {
	return &BarnRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewBarnRepoWithTimeProvider creates a new BarnRepo with a custom time provider (useful for tests).
func NewBarnRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *BarnRepo {
	return &BarnRepo{DB: db, timeProvider: tp}
}

var _ core.BarnRepository = (*BarnRepo)(nil)

// List returns every barn ordered by creation time.
// The order is stable; callers filtering it for a user keep this order.
func (r *BarnRepo) List(ctx context.Context) ([]model.Barn, error) {
	var out []model.Barn
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, barnListQuery)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Barn])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list barns: %w", apperrors.MapDBError(err))
	}
	if out == nil {
		out = []model.Barn{}
	}
	return out, nil
}

// GetByID retrieves a barn by ID.
func (r *BarnRepo) GetByID(ctx context.Context, id string) (*model.Barn, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, core.ErrBarnNotFound
	}
	b, err := r.queryOne(ctx, barnGetByIDQuery, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrBarnNotFound
		}
		return nil, fmt.Errorf("get barn by id: %w", apperrors.MapDBError(err))
	}
	return b, nil
}

// Upsert creates a barn or updates its name and location.
func (r *BarnRepo) Upsert(ctx context.Context, req *model.UpsertBarnRequest) (*model.Barn, error) {
	if req == nil {
		return nil, errors.New("upsert barn request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	b, err := r.queryOne(ctx, barnUpsertQuery, req.ID, req.Name, req.Location, r.timeProvider.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("upsert barn: %w", apperrors.MapDBError(err))
	}
	return b, nil
}

func (r *BarnRepo) queryOne(ctx context.Context, query string, args ...any) (*model.Barn, error) {
	var out model.Barn
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Barn])
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
