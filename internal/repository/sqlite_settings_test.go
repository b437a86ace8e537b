package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/smeta/internal/db"
	"github.com/alexanderramin/smeta/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepo_GetMissingIsNotFound(t *testing.T) {
	repo := NewSQLiteSettingsRepo(testutil.NewTestDB(t))

	_, err := repo.Get(context.Background(), KeyAuthToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), KeyAuthToken)
}

func TestSettingsRepo_SetOverwrites(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteSettingsRepo(database)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, KeyLang, "ru"))
	require.NoError(t, repo.Set(ctx, KeyLang, "kk"))

	got, err := repo.Get(ctx, KeyLang)
	require.NoError(t, err)
	assert.Equal(t, "kk", got)

	var updated string
	require.NoError(t, database.QueryRowContext(ctx, `SELECT updated_at FROM settings WHERE key = ?`, KeyLang).Scan(&updated))
	assert.NotEmpty(t, updated)
}

func TestSettingsRepo_DeleteIsIdempotent(t *testing.T) {
	repo := NewSQLiteSettingsRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, KeyAuthUser, "buyer"))
	require.NoError(t, repo.Delete(ctx, KeyAuthUser))
	require.NoError(t, repo.Delete(ctx, KeyAuthUser))

	_, err := repo.Get(ctx, KeyAuthUser)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSettingsRepo_RollbackThroughFailingUoW(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	failure := assert.AnError
	uow := &testutil.FailOnNthExecUoW{DB: database, FailOn: 2, Err: failure}

	err := uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := NewSQLiteSettingsRepo(tx)
		if err := repo.Set(ctx, KeyAuthToken, "tok"); err != nil {
			return err
		}
		return repo.Set(ctx, KeyAuthUser, "buyer")
	})
	require.ErrorIs(t, err, failure)

	_, err = NewSQLiteSettingsRepo(database).Get(ctx, KeyAuthToken)
	assert.ErrorIs(t, err, ErrNotFound, "first write is rolled back with the second")
}
