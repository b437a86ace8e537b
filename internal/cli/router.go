package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownRoute is returned for a path no view is registered for.
var ErrUnknownRoute = errors.New("unknown route")

// RouteKind names a TUI screen.
type RouteKind int

const (
	RouteLogin RouteKind = iota
	RouteDashboard
	RoutePlan
	RouteItemNew
	RouteItemEdit
	RouteExecutions
)

// Route is a parsed TUI path.
type Route struct {
	Kind   RouteKind
	PlanID int64
	ItemID int64
}

// ParseRoute maps a path to its route:
//
//	/login
//	/ and /plans
//	/plans/{id}
//	/plans/{id}/items/new
//	/plans/{id}/items/{item}/edit
//	/plans/{id}/items/{item}/executions
func ParseRoute(path string) (Route, error) {
	clean := strings.Trim(strings.TrimSpace(path), "/")
	var seg []string
	if clean != "" {
		seg = strings.Split(clean, "/")
	}
	unknown := fmt.Errorf("%w: %s", ErrUnknownRoute, path)

	switch {
	case len(seg) == 0:
		return Route{Kind: RouteDashboard}, nil
	case len(seg) == 1 && seg[0] == "login":
		return Route{Kind: RouteLogin}, nil
	case seg[0] != "plans":
		return Route{}, unknown
	case len(seg) == 1:
		return Route{Kind: RouteDashboard}, nil
	}

	planID, ok := routeID(seg[1])
	if !ok {
		return Route{}, unknown
	}
	r := Route{Kind: RoutePlan, PlanID: planID}
	switch {
	case len(seg) == 2:
		return r, nil
	case len(seg) == 4 && seg[2] == "items" && seg[3] == "new":
		r.Kind = RouteItemNew
		return r, nil
	case len(seg) == 5 && seg[2] == "items":
		itemID, ok := routeID(seg[3])
		if !ok {
			return Route{}, unknown
		}
		r.ItemID = itemID
		switch seg[4] {
		case "edit":
			r.Kind = RouteItemEdit
			return r, nil
		case "executions":
			r.Kind = RouteExecutions
			return r, nil
		}
	}
	return Route{}, unknown
}

func routeID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}

// Path renders the canonical path of r.
func (r Route) Path() string {
	switch r.Kind {
	case RouteLogin:
		return "/login"
	case RoutePlan:
		return fmt.Sprintf("/plans/%d", r.PlanID)
	case RouteItemNew:
		return fmt.Sprintf("/plans/%d/items/new", r.PlanID)
	case RouteItemEdit:
		return fmt.Sprintf("/plans/%d/items/%d/edit", r.PlanID, r.ItemID)
	case RouteExecutions:
		return fmt.Sprintf("/plans/%d/items/%d/executions", r.PlanID, r.ItemID)
	}
	return "/"
}

// Protected reports whether r needs a token.
func (r Route) Protected() bool {
	return r.Kind != RouteLogin
}

// views builds the stack for r: the dashboard at the bottom, then the plan,
// then the item screen.
func (r Route) views(state *SharedState) []View {
	if r.Kind == RouteLogin {
		return []View{newLoginView(state)}
	}
	stack := []View{newDashboardView(state)}
	if r.Kind == RouteDashboard {
		return stack
	}
	stack = append(stack, newPlanView(state, r.PlanID))
	switch r.Kind {
	case RouteItemNew:
		stack = append(stack, newItemFormView(state, r.PlanID, 0))
	case RouteItemEdit:
		stack = append(stack, newItemFormView(state, r.PlanID, r.ItemID))
	case RouteExecutions:
		stack = append(stack, newExecutionsView(state, r.PlanID, r.ItemID))
	}
	return stack
}

// resolve applies token gating: a protected route without a token opens
// the login view and remembers where to go afterwards.
func resolve(state *SharedState, path string) ([]View, error) {
	r, err := ParseRoute(path)
	if err != nil {
		return nil, err
	}
	if r.Protected() && !state.App.Session.Authenticated() {
		state.Next = r.Path()
		return Route{Kind: RouteLogin}.views(state), nil
	}
	return r.views(state), nil
}
