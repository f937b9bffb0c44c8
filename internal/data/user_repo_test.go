package data

import (
	"context"
	"sync"
	"testing"

	"github.com/equinetracker/equinetracker/internal/core"
	"github.com/equinetracker/equinetracker/internal/domain/model"
	"github.com/equinetracker/equinetracker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestUserRepo_GetByID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db := testutil.SetupTestDB(t)
	testutil.SeedBarn(t, db, "b1", "North", "Lexington, KY")
	testutil.SeedBarn(t, db, "b2", "South", "Ocala, FL")
	testutil.SeedUser(t, db, "u1", "Jane Doe", "b1", "b2", "b1")
	testutil.SeedUser(t, db, "u2", "No Barns", "")

	repo := NewUserRepo(db)
	ctx := context.Background()

	t.Run("loads barn state", func(t *testing.T) {
		u, err := repo.GetByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", u.FullName)
		require.NotNil(t, u.CurrentBarnID)
		assert.Equal(t, "b1", *u.CurrentBarnID)
		assert.Equal(t, []string{"b2", "b1"}, u.AssociatedBarns)
		assert.Equal(t, int64(0), u.BarnSwitchSeq)
	})

	t.Run("no memberships yields empty list", func(t *testing.T) {
		u, err := repo.GetByID(ctx, "u2")
		require.NoError(t, err)
		assert.Nil(t, u.CurrentBarnID)
		assert.Empty(t, u.AssociatedBarns)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "nobody")
		assert.ErrorIs(t, err, core.ErrUserNotFound)
	})
}

func TestUserRepo_Upsert(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db := testutil.SetupTestDB(t)
	testutil.SeedBarn(t, db, "b1", "North", "")
	repo := NewUserRepoWithTimeProvider(db, NewFixedTimeProvider(testutil.TestTime()))
	ctx := context.Background()

	created, err := repo.Upsert(ctx, &model.UpsertUserRequest{ID: "u1", FullName: "Jane", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "Jane", created.FullName)
	assert.Nil(t, created.CurrentBarnID)

	_, err = repo.UpdateCurrentBarn(ctx, core.UpdateCurrentBarnParams{UserID: "u1", BarnID: "b1"})
	require.NoError(t, err)

	t.Run("refresh keeps barn state and blank fields", func(t *testing.T) {
		u, err := repo.Upsert(ctx, &model.UpsertUserRequest{ID: "u1", FullName: "Jane Doe"})
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", u.FullName)
		assert.Equal(t, "admin", u.Role)
		require.NotNil(t, u.CurrentBarnID)
		assert.Equal(t, "b1", *u.CurrentBarnID)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := repo.Upsert(ctx, &model.UpsertUserRequest{ID: "  "})
		require.Error(t, err)
	})
}

func TestUserRepo_UpdateCurrentBarn(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db := testutil.SetupTestDB(t)
	testutil.SeedBarn(t, db, "b1", "North", "")
	testutil.SeedBarn(t, db, "b2", "South", "")
	testutil.SeedUser(t, db, "u1", "Jane", "b1", "b1", "b2")
	repo := NewUserRepo(db)
	ctx := context.Background()

	t.Run("unguarded switch advances seq", func(t *testing.T) {
		u, err := repo.UpdateCurrentBarn(ctx, core.UpdateCurrentBarnParams{UserID: "u1", BarnID: "b2"})
		require.NoError(t, err)
		assert.Equal(t, "b2", *u.CurrentBarnID)
		assert.Equal(t, int64(1), u.BarnSwitchSeq)
		assert.Equal(t, []string{"b1", "b2"}, u.AssociatedBarns)
	})

	t.Run("stale seq is rejected", func(t *testing.T) {
		_, err := repo.UpdateCurrentBarn(ctx, core.UpdateCurrentBarnParams{
			UserID: "u1", BarnID: "b1", ExpectedSeq: ptr(int64(0)),
		})
		require.ErrorIs(t, err, core.ErrStaleSwitch)

		u, err := repo.GetByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "b2", *u.CurrentBarnID)
	})

	t.Run("matching seq applies", func(t *testing.T) {
		u, err := repo.UpdateCurrentBarn(ctx, core.UpdateCurrentBarnParams{
			UserID: "u1", BarnID: "b1", ExpectedSeq: ptr(int64(1)),
		})
		require.NoError(t, err)
		assert.Equal(t, "b1", *u.CurrentBarnID)
		assert.Equal(t, int64(2), u.BarnSwitchSeq)
	})

	t.Run("unknown barn", func(t *testing.T) {
		_, err := repo.UpdateCurrentBarn(ctx, core.UpdateCurrentBarnParams{UserID: "u1", BarnID: "b9"})
		assert.ErrorIs(t, err, core.ErrBarnNotFound)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := repo.UpdateCurrentBarn(ctx, core.UpdateCurrentBarnParams{UserID: "nobody", BarnID: "b1"})
		assert.ErrorIs(t, err, core.ErrUserNotFound)
	})

	t.Run("concurrent guarded switches have one winner", func(t *testing.T) {
		current, err := repo.GetByID(ctx, "u1")
		require.NoError(t, err)
		seq := current.BarnSwitchSeq

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, barn := range []string{"b1", "b2"} {
			wg.Add(1)
			go func(i int, barn string) {
				defer wg.Done()
				_, errs[i] = repo.UpdateCurrentBarn(ctx, core.UpdateCurrentBarnParams{
					UserID: "u1", BarnID: barn, ExpectedSeq: ptr(seq),
				})
			}(i, barn)
		}
		wg.Wait()

		var ok, stale int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, core.ErrStaleSwitch):
				stale++
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, stale)
	})
}

func TestUserRepo_SetAssociatedBarns(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db := testutil.SetupTestDB(t)
	testutil.SeedBarn(t, db, "b1", "North", "")
	testutil.SeedBarn(t, db, "b2", "South", "")
	testutil.SeedUser(t, db, "u1", "Jane", "", "b1")
	repo := NewUserRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.SetAssociatedBarns(ctx, "u1", []string{"b2", " b1 ", "b2", ""}))
	u, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b2", "b1"}, u.AssociatedBarns)

	require.NoError(t, repo.SetAssociatedBarns(ctx, "u1", nil))
	u, err = repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, u.AssociatedBarns)

	assert.ErrorIs(t, repo.SetAssociatedBarns(ctx, "u1", []string{"b9"}), core.ErrBarnNotFound)
	assert.ErrorIs(t, repo.SetAssociatedBarns(ctx, "nobody", []string{"b1"}), core.ErrUserNotFound)
}

func TestDedupeIDs(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, dedupeIDs([]string{" a", "b", "a", ""}))
	assert.Empty(t, dedupeIDs(nil))
}
