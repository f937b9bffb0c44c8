package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/equinetracker/equinetracker/internal/core"
	"github.com/equinetracker/equinetracker/internal/data/pgxutil"
	"github.com/equinetracker/equinetracker/internal/domain/model"
	apperrors "github.com/equinetracker/equinetracker/internal/errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// userColumns is shared by every statement returning a model.User.
// associated_barns is aggregated from user_barns in membership order.
const userColumns = `u.id, u.full_name, u.email, u.role, u.current_barn_id,
	COALESCE((
		SELECT array_agg(ub.barn_id ORDER BY ub.created_at, ub.barn_id)
		FROM user_barns ub WHERE ub.user_id = u.id
	), '{}'::text[]) AS associated_barns,
	u.barn_switch_seq, u.created_at, u.updated_at`

const (
	userGetByIDQuery = `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`

	userUpsertQuery = `
		INSERT INTO users AS u (id, full_name, email, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (id) DO UPDATE SET
			full_name  = CASE WHEN EXCLUDED.full_name = '' THEN u.full_name ELSE EXCLUDED.full_name END,
			email      = CASE WHEN EXCLUDED.email = '' THEN u.email ELSE EXCLUDED.email END,
			role       = CASE WHEN EXCLUDED.role = '' THEN u.role ELSE EXCLUDED.role END,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + userColumns

	userUpdateCurrentBarnQuery = `
		UPDATE users AS u SET
			current_barn_id = $2,
			barn_switch_seq = u.barn_switch_seq + 1,
			updated_at      = $4
		WHERE u.id = $1 AND ($3::bigint IS NULL OR u.barn_switch_seq = $3)
		RETURNING ` + userColumns
)

// UserRepo provides database operations for users and their barn memberships.
type UserRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewUserRepo creates a new UserRepo with real time provider.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewUserRepoWithTimeProvider creates a new UserRepo with a custom time provider (useful for tests).
func NewUserRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *UserRepo {
	return &UserRepo{DB: db, timeProvider: tp}
}

var _ core.UserRepository = (*UserRepo)(nil)

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, core.ErrUserNotFound
	}
	u, err := r.queryOne(ctx, userGetByIDQuery, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", apperrors.MapDBError(err))
	}
	return u, nil
}

// Upsert creates the user or refreshes its profile fields.
// Empty profile fields keep their stored values; barn state is never modified.
func (r *UserRepo) Upsert(ctx context.Context, req *model.UpsertUserRequest) (*model.User, error) {
	if req == nil {
		return nil, errors.New("upsert user request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	now := r.timeProvider.Now().UTC()
	u, err := r.queryOne(ctx, userUpsertQuery, req.ID, req.FullName, req.Email, req.Role, now)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", apperrors.MapDBError(err))
	}
	return u, nil
}

// UpdateCurrentBarn persists the user's active barn and advances barn_switch_seq.
// Returns core.ErrStaleSwitch when ExpectedSeq no longer matches, and
// core.ErrBarnNotFound when the barn does not exist.
func (r *UserRepo) UpdateCurrentBarn(ctx context.Context, params core.UpdateCurrentBarnParams) (*model.User, error) {
	userID := strings.TrimSpace(params.UserID)
	barnID := strings.TrimSpace(params.BarnID)
	if userID == "" {
		return nil, core.ErrUserNotFound
	}
	if barnID == "" {
		return nil, apperrors.ValidationField("current_barn_id", "current_barn_id is required")
	}

	now := r.timeProvider.Now().UTC()
	u, err := r.queryOne(ctx, userUpdateCurrentBarnQuery, userID, barnID, params.ExpectedSeq, now)
	if err == nil {
		return u, nil
	}

	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation:
		return nil, core.ErrBarnNotFound
	case errors.Is(err, pgx.ErrNoRows):
		// Either the user is gone or the sequence guard rejected the write.
		if _, getErr := r.GetByID(ctx, userID); getErr != nil {
			return nil, getErr
		}
		return nil, core.ErrStaleSwitch
	default:
		return nil, fmt.Errorf("update current barn: %w", apperrors.MapDBError(err))
	}
}

// SetAssociatedBarns replaces the user's barn memberships.
// Duplicate and blank ids are ignored.
func (r *UserRepo) SetAssociatedBarns(ctx context.Context, userID string, barnIDs []string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return core.ErrUserNotFound
	}
	ids := dedupeIDs(barnIDs)
	now := r.timeProvider.Now().UTC()

	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).
				Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return core.ErrUserNotFound
			}
			if _, err := tx.Exec(ctx, `DELETE FROM user_barns WHERE user_id = $1`, userID); err != nil {
				return err
			}
			if len(ids) == 0 {
				return nil
			}
			batch := &pgx.Batch{}
			for i, id := range ids {
				// Offset created_at so membership order survives the aggregate.
				batch.Queue(`INSERT INTO user_barns (user_id, barn_id, created_at) VALUES ($1, $2, $3)`,
					userID, id, now.Add(time.Duration(i)*time.Microsecond))
			}
			return tx.SendBatch(ctx, batch).Close()
		},
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, core.ErrUserNotFound):
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		return core.ErrBarnNotFound
	}
	return fmt.Errorf("set associated barns: %w", apperrors.MapDBError(err))
}

func (r *UserRepo) queryOne(ctx context.Context, query string, args ...any) (*model.User, error) {
	var out model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
