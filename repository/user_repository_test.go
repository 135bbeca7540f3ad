package repository

import (
	"context"
	"testing"

	"stakearena/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_GetByID(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("user not found", func(t *testing.T) {
		user, err := repo.GetByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("user found", func(t *testing.T) {
		created, err := repo.Create(ctx, "alice", 1000)
		require.NoError(t, err)

		user, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, user)

		assert.Equal(t, created.ID, user.ID)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, int64(1000), user.Credits)
		assert.False(t, user.MatchmakingLocked)
		assert.Empty(t, user.Elo)
	})
}

func TestUserRepository_GetByUsername(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("unknown username", func(t *testing.T) {
		user, err := repo.GetByUsername(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("known username", func(t *testing.T) {
		created, err := repo.Create(ctx, "bob", 1000)
		require.NoError(t, err)

		user, err := repo.GetByUsername(ctx, "bob")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, created.ID, user.ID)
	})
}

func TestUserRepository_Create(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("successful creation", func(t *testing.T) {
		user, err := repo.Create(ctx, "carol", 1000)
		require.NoError(t, err)
		require.NotNil(t, user)

		assert.NotZero(t, user.ID)
		assert.Equal(t, "carol", user.Username)
		assert.Equal(t, int64(1000), user.Credits)
		assert.False(t, user.CreatedAt.IsZero())
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := repo.Create(ctx, "dave", 1000)
		require.NoError(t, err)

		_, err = repo.Create(ctx, "dave", 1000)
		assert.Error(t, err)
	})
}

func TestUserRepository_UpdateCredits(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("successful update", func(t *testing.T) {
		user, err := repo.Create(ctx, "erin", 1000)
		require.NoError(t, err)

		err = repo.UpdateCredits(ctx, user.ID, 850)
		require.NoError(t, err)

		updated, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(850), updated.Credits)
	})

	t.Run("user not found", func(t *testing.T) {
		err := repo.UpdateCredits(ctx, 999999, 100)
		assert.Error(t, err)
	})

	t.Run("negative balance rejected by schema", func(t *testing.T) {
		user, err := repo.Create(ctx, "frank", 1000)
		require.NoError(t, err)

		err = repo.UpdateCredits(ctx, user.ID, -1)
		assert.Error(t, err)
	})
}

func TestUserRepository_SetMatchmakingLocked(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, err := repo.Create(ctx, "grace", 1000)
	require.NoError(t, err)

	require.NoError(t, repo.SetMatchmakingLocked(ctx, user.ID, true))

	locked, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, locked.MatchmakingLocked)

	require.NoError(t, repo.SetMatchmakingLocked(ctx, user.ID, false))

	unlocked, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, unlocked.MatchmakingLocked)
}

func TestUserRepository_UpsertElo(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, err := repo.Create(ctx, "heidi", 1000)
	require.NoError(t, err)

	t.Run("insert then read back", func(t *testing.T) {
		require.NoError(t, repo.UpsertElo(ctx, user.ID, "rocket-league", 1516))

		loaded, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 1516, loaded.Elo["rocket-league"])
	})

	t.Run("update overwrites", func(t *testing.T) {
		require.NoError(t, repo.UpsertElo(ctx, user.ID, "rocket-league", 1532))

		loaded, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 1532, loaded.Elo["rocket-league"])
	})

	t.Run("per-game isolation", func(t *testing.T) {
		require.NoError(t, repo.UpsertElo(ctx, user.ID, "cs2", 1484))

		loaded, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 1532, loaded.Elo["rocket-league"])
		assert.Equal(t, 1484, loaded.Elo["cs2"])
	})
}

func TestUserRepository_UpdateRating(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, err := repo.Create(ctx, "ivan", 1000)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateRating(ctx, user.ID, -50))

	loaded, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, -50, loaded.Rating)
}
