package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/alexanderramin/smeta/internal/i18n"
)

// parseID parses a positive numeric identifier argument.
func parseID(what, input string) (int64, error) {
	id, err := strconv.ParseInt(input, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, input)
	}
	return id, nil
}

// resolveVersion picks version number from p, or the active version when
// number is zero.
func resolveVersion(app *App, p *domain.Plan, number int) (*domain.Version, error) {
	if number == 0 {
		v, ok := p.ActiveVersion()
		if !ok {
			return nil, &displayError{msg: app.T("no_active_version")}
		}
		return v, nil
	}
	for i := range p.Versions {
		if p.Versions[i].Number == number {
			return &p.Versions[i], nil
		}
	}
	return nil, fmt.Errorf("plan %d has no version %d", p.ID, number)
}

// resolveItem loads an item together with the version it belongs to. The
// plan id comes from the item's embedded version.
func resolveItem(ctx context.Context, app *App, input string) (*domain.Item, int64, error) {
	id, err := parseID("item", input)
	if err != nil {
		return nil, 0, err
	}
	snap, err := app.Items.Get(ctx, id)
	if err != nil {
		return nil, 0, userError(app, err)
	}
	it := snap.Value
	if it.Version == nil {
		return nil, 0, fmt.Errorf("item %d: server sent no version", id)
	}
	return &it, it.Version.PlanID, nil
}

// resolvePlanItem is resolveItem with an optional plan argument the item
// must belong to.
func resolvePlanItem(ctx context.Context, app *App, plan, input string) (*domain.Item, int64, error) {
	it, planID, err := resolveItem(ctx, app, input)
	if err != nil || plan == "" {
		return it, planID, err
	}
	want, err := parseID("plan", plan)
	if err != nil {
		return nil, 0, err
	}
	if want != planID {
		return nil, 0, fmt.Errorf("item %d belongs to plan %d, not %d", it.ID, planID, want)
	}
	return it, planID, nil
}

// requireApproved rejects execution changes on items outside an approved
// version.
func requireApproved(app *App, it *domain.Item) error {
	if it.Version == nil || !it.Actions(it.Version).Execution {
		return &displayError{msg: app.T("execution_requires_approved")}
	}
	return nil
}

// transitionError explains a refused status change.
func transitionError(app *App, from domain.PlanStatus, err error) error {
	return &displayError{
		msg: app.T("transition_not_allowed", i18n.Vars{"from": app.T("status_" + string(from))}),
		err: err,
	}
}
