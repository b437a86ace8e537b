package cli

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/alexanderramin/smeta/internal/service"
	"github.com/alexanderramin/smeta/internal/store"
	"github.com/alexanderramin/smeta/internal/testutil"
)

// gatedBackend holds the first GetPlan call until release is closed.
type gatedBackend struct {
	*testutil.Backend
	entered chan struct{}
	release chan struct{}
	gated   bool
}

func newGatedBackend(b *testutil.Backend) *gatedBackend {
	return &gatedBackend{
		Backend: b,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedBackend) GetPlan(ctx context.Context, id int64) (domain.Plan, error) {
	if !g.gated {
		g.gated = true
		close(g.entered)
		<-g.release
	}
	return g.Backend.GetPlan(ctx, id)
}

// The item form and the plan view under it fetch the same plan when a
// form route is opened directly. The form's request starts first and
// finishes last, so its response is fenced off.
func TestItemForm_LoadsAfterLosingPlanFetch(t *testing.T) {
	env := testApp(t)
	plan, _ := testutil.SeedPlan(t, env.backend, "План")

	gated := newGatedBackend(env.backend)
	app := *env.app
	app.Plans = service.NewPlanService(gated, store.New())
	state := &SharedState{App: &app}
	calls := env.backend.Calls("GetPlan")

	form := newItemFormView(state, plan.ID, 0)
	below := newPlanView(state, plan.ID)

	formMsg := make(chan any, 1)
	go func() { formMsg <- form.load()() }()
	<-gated.entered

	_, _ = below.Update(below.load()())
	require.True(t, below.loaded)

	close(gated.release)
	first := (<-formMsg).(itemFormLoadedMsg)
	require.ErrorIs(t, first.err, store.ErrStale)

	_, cmd := form.Update(first)
	require.NotNil(t, cmd, "a fenced-off load is issued again")
	assert.False(t, form.loaded)

	_, _ = form.Update(cmd())
	assert.True(t, form.loaded)
	assert.NoError(t, form.err)
	assert.Equal(t, calls+2, env.backend.Calls("GetPlan"), "the repeated load is served from the cache")
}

func TestExecutionsView_ReloadsAfterStaleResponse(t *testing.T) {
	env := testApp(t)
	plan, items := testutil.SeedPlan(t, env.backend, "План", testutil.GoodsPayload())
	testutil.Approve(t, env.backend, plan.ID)
	state := &SharedState{App: env.app}

	v := newExecutionsView(state, plan.ID, items[0].ID)
	stale := executionsLoadedMsg{
		itemID: items[0].ID,
		err:    fmt.Errorf("%s request 1: %w", store.Executions(items[0].ID), store.ErrStale),
	}

	_, cmd := v.Update(stale)
	require.NotNil(t, cmd)
	assert.False(t, v.loaded)

	_, _ = v.Update(cmd())
	assert.True(t, v.loaded)
	assert.NoError(t, v.err)
	assert.Equal(t, items[0].ID, v.item.ID)
}
