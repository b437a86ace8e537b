package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/alexanderramin/smeta/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRepo_AppendAndRecent(t *testing.T) {
	repo := NewSQLiteHistoryRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	for _, e := range []string{"/plans", " ", "/plans/1", "/plans/1", "lang kk"} {
		require.NoError(t, repo.Append(ctx, e))
	}

	got, err := repo.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"/plans", "/plans/1", "lang kk"}, got, "blanks and immediate repeats are skipped")

	got, err = repo.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"/plans/1", "lang kk"}, got)
}

func TestHistoryRepo_TrimsToMax(t *testing.T) {
	repo := NewSQLiteHistoryRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	for i := 0; i < MaxHistoryEntries+5; i++ {
		require.NoError(t, repo.Append(ctx, fmt.Sprintf("/plans/%d", i)))
	}

	got, err := repo.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, MaxHistoryEntries)
	assert.Equal(t, "/plans/5", got[0])
}
