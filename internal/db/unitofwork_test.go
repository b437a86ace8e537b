package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alexanderramin/smeta/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openUoW(t *testing.T) *db.SQLiteUnitOfWork {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return db.NewSQLiteUnitOfWork(database)
}

func putSetting(ctx context.Context, tx db.DBTX, key, value string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, '')`, key, value)
	return err
}

func readSetting(t *testing.T, uow *db.SQLiteUnitOfWork, key string) (string, bool) {
	t.Helper()
	var val string
	var found bool
	require.NoError(t, uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := tx.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&val); err != nil {
			return nil
		}
		found = true
		return nil
	}))
	return val, found
}

func TestWithinTx_CommitsBothWrites(t *testing.T) {
	uow := openUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := putSetting(ctx, tx, "auth_token", "tok"); err != nil {
			return err
		}
		return putSetting(ctx, tx, "auth_user", "buyer")
	})
	require.NoError(t, err)

	token, ok := readSetting(t, uow, "auth_token")
	assert.True(t, ok)
	assert.Equal(t, "tok", token)
	user, ok := readSetting(t, uow, "auth_user")
	assert.True(t, ok)
	assert.Equal(t, "buyer", user)
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	uow := openUoW(t)
	failure := errors.New("second write failed")

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := putSetting(ctx, tx, "auth_token", "tok"); err != nil {
			return err
		}
		return failure
	})
	require.ErrorIs(t, err, failure)

	_, ok := readSetting(t, uow, "auth_token")
	assert.False(t, ok, "token must not survive a failed login transaction")
}

func TestWithinTx_RollbackOnPanic(t *testing.T) {
	uow := openUoW(t)

	assert.Panics(t, func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_ = putSetting(ctx, tx, "lang", "kk")
			panic("boom")
		})
	})

	_, ok := readSetting(t, uow, "lang")
	assert.False(t, ok)
}
