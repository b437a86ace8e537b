package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoute(t *testing.T) {
	tests := []struct {
		path string
		want Route
	}{
		{"/", Route{Kind: RouteDashboard}},
		{"", Route{Kind: RouteDashboard}},
		{"/plans", Route{Kind: RouteDashboard}},
		{"/plans/", Route{Kind: RouteDashboard}},
		{"/login", Route{Kind: RouteLogin}},
		{"/plans/12", Route{Kind: RoutePlan, PlanID: 12}},
		{"/plans/12/items/new", Route{Kind: RouteItemNew, PlanID: 12}},
		{"/plans/12/items/40/edit", Route{Kind: RouteItemEdit, PlanID: 12, ItemID: 40}},
		{"/plans/12/items/40/executions", Route{Kind: RouteExecutions, PlanID: 12, ItemID: 40}},
		{"  /plans/3  ", Route{Kind: RoutePlan, PlanID: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ParseRoute(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRoute_Unknown(t *testing.T) {
	for _, path := range []string{
		"/settings",
		"/plans/abc",
		"/plans/0",
		"/plans/-4",
		"/plans/1/items",
		"/plans/1/items/2",
		"/plans/1/items/x/edit",
		"/plans/1/items/2/delete",
		"/login/again",
	} {
		t.Run(path, func(t *testing.T) {
			_, err := ParseRoute(path)
			assert.ErrorIs(t, err, ErrUnknownRoute)
		})
	}
}

func TestRoute_PathRoundTrips(t *testing.T) {
	for _, path := range []string{
		"/",
		"/login",
		"/plans/7",
		"/plans/7/items/new",
		"/plans/7/items/9/edit",
		"/plans/7/items/9/executions",
	} {
		r, err := ParseRoute(path)
		require.NoError(t, err)
		assert.Equal(t, path, r.Path())
	}
}

func TestResolve_GatesProtectedRoutes(t *testing.T) {
	env := newTestEnv(t)
	state := &SharedState{App: env.app}

	stack, err := resolve(state, "/plans/5/items/6/edit")
	require.NoError(t, err)
	require.Len(t, stack, 1)
	assert.Equal(t, ViewLogin, stack[0].ID())
	assert.Equal(t, "/plans/5/items/6/edit", state.Next)
}

func TestResolve_BuildsStack(t *testing.T) {
	env := testApp(t)
	state := &SharedState{App: env.app}

	tests := []struct {
		path string
		want []ViewID
	}{
		{"/", []ViewID{ViewDashboard}},
		{"/plans/5", []ViewID{ViewDashboard, ViewPlan}},
		{"/plans/5/items/new", []ViewID{ViewDashboard, ViewPlan, ViewItemForm}},
		{"/plans/5/items/6/executions", []ViewID{ViewDashboard, ViewPlan, ViewExecutions}},
		{"/login", []ViewID{ViewLogin}},
	}
	for _, tt := range tests {
		stack, err := resolve(state, tt.path)
		require.NoError(t, err)
		ids := make([]ViewID, len(stack))
		for i, v := range stack {
			ids[i] = v.ID()
		}
		assert.Equal(t, tt.want, ids, tt.path)
	}
	assert.Empty(t, state.Next)

	_, err := resolve(state, "/nope")
	assert.ErrorIs(t, err, ErrUnknownRoute)
}
