package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, Key("plan/7"), Plan(7))
	assert.Equal(t, Key("item/3"), Item(3))
	assert.Equal(t, Key("executions/item/3"), Executions(3))
	assert.Equal(t, Key("catalog/cost-items"), Catalog("cost-items"))
}

func TestCommit_OnlyLatestTicketWins(t *testing.T) {
	s := New()

	older := s.Begin(Plans)
	newer := s.Begin(Plans)
	assert.Greater(t, newer.ID, older.ID)

	require.NoError(t, s.Commit(newer, "fresh"))
	err := s.Commit(older, "slow")
	assert.ErrorIs(t, err, ErrStale)

	v, rev, ok := s.Lookup(Plans)
	require.True(t, ok)
	assert.Equal(t, "fresh", v)
	assert.Equal(t, newer.ID, rev)
}

func TestCommit_OlderArrivingFirstIsStillDiscarded(t *testing.T) {
	s := New()

	older := s.Begin(Plan(1))
	newer := s.Begin(Plan(1))
	assert.ErrorIs(t, s.Commit(older, "slow"), ErrStale)
	assert.False(t, s.IsLatest(older))
	assert.True(t, s.IsLatest(newer))

	_, _, ok := s.Lookup(Plan(1))
	assert.False(t, ok, "nothing is rendered from a fenced response")
}

func TestInvalidate_FencesInFlightRequests(t *testing.T) {
	s := New()
	inFlight := s.Begin(Plan(1))

	s.Invalidate(Plan(1))
	assert.ErrorIs(t, s.Commit(inFlight, "pre-mutation"), ErrStale)
}

func TestFetch_ServesCacheUntilInvalidated(t *testing.T) {
	s := New()
	ctx := context.Background()
	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"p"}, nil
	}

	first, err := Fetch(ctx, s, Plans, load)
	require.NoError(t, err)
	second, err := Fetch(ctx, s, Plans, load)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, first.Revision, second.Revision)

	s.Invalidate(Plans)
	third, err := Fetch(ctx, s, Plans, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Greater(t, third.Revision, first.Revision)
}

func TestFetch_LoadErrorLeavesCacheUntouched(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := Fetch(ctx, s, Item(1), func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	_, _, ok := s.Lookup(Item(1))
	assert.False(t, ok)
}

func TestFetch_LoserOfRaceGetsErrStale(t *testing.T) {
	s := New()
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{})

	var slowErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, slowErr = Reload(ctx, s, Plans, func(context.Context) (string, error) {
			close(started)
			<-release
			return "slow", nil
		})
	}()
	<-started

	fast, err := Reload(ctx, s, Plans, func(context.Context) (string, error) { return "fast", nil })
	require.NoError(t, err)
	close(release)
	wg.Wait()

	assert.ErrorIs(t, slowErr, ErrStale)
	v, rev, ok := s.Lookup(Plans)
	require.True(t, ok)
	assert.Equal(t, "fast", v)
	assert.Equal(t, fast.Revision, rev)
}

func TestInvalidatePrefixAndAll(t *testing.T) {
	s := New()
	for _, k := range []Key{Catalog("mkei"), Catalog("kato"), Plans} {
		require.NoError(t, s.Commit(s.Begin(k), 1))
	}

	s.InvalidatePrefix("catalog/")
	_, _, ok := s.Lookup(Catalog("mkei"))
	assert.False(t, ok)
	_, _, ok = s.Lookup(Plans)
	assert.True(t, ok)

	s.InvalidateAll()
	_, _, ok = s.Lookup(Plans)
	assert.False(t, ok)
	assert.NotZero(t, s.Revision(Plans), "revision survives invalidation")
}
