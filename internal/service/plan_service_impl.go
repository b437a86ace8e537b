package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/smeta/internal/api"
	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/alexanderramin/smeta/internal/store"
)

type planService struct {
	backend  Backend
	cache    *store.Store
	observer UseCaseObserver
}

func NewPlanService(backend Backend, cache *store.Store, observers ...UseCaseObserver) PlanService {
	return &planService{
		backend:  backend,
		cache:    cache,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *planService) List(ctx context.Context) (store.Snapshot[[]domain.Plan], error) {
	return store.Fetch(ctx, s.cache, store.Plans, s.backend.ListPlans)
}

func (s *planService) Get(ctx context.Context, id int64) (store.Snapshot[domain.Plan], error) {
	return store.Fetch(ctx, s.cache, store.Plan(id), s.loadPlan(id))
}

// Refresh always goes to the server; views call it after a mutation.
func (s *planService) Refresh(ctx context.Context, id int64) (store.Snapshot[domain.Plan], error) {
	return store.Reload(ctx, s.cache, store.Plan(id), s.loadPlan(id))
}

func (s *planService) loadPlan(id int64) func(context.Context) (domain.Plan, error) {
	return func(ctx context.Context) (domain.Plan, error) {
		return s.backend.GetPlan(ctx, id)
	}
}

func (s *planService) Create(ctx context.Context, in domain.PlanPayload) (p domain.Plan, err error) {
	done := track(ctx, s.observer, "create-plan", map[string]any{"name": in.Name, "year": in.Year})
	defer func() { done(err) }()

	p, err = s.backend.CreatePlan(ctx, in)
	if err != nil {
		return domain.Plan{}, err
	}
	s.cache.Invalidate(store.Plans)
	return p, nil
}

func (s *planService) Delete(ctx context.Context, id int64) (err error) {
	done := track(ctx, s.observer, "delete-plan", map[string]any{"plan_id": id})
	defer func() { done(err) }()

	if err = s.backend.DeletePlan(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(store.Plans, store.Plan(id))
	return nil
}

func (s *planService) CreateVersion(ctx context.Context, planID int64) (v domain.Version, err error) {
	done := track(ctx, s.observer, "create-version", map[string]any{"plan_id": planID})
	defer func() { done(err) }()

	v, err = s.backend.CreateVersion(ctx, planID)
	if err != nil {
		return domain.Version{}, err
	}
	s.cache.Invalidate(store.Plans, store.Plan(planID))
	return v, nil
}

// AdvanceStatus moves v to status to. Transitions outside the lifecycle
// fail with ErrInvalidTransition before any request.
func (s *planService) AdvanceStatus(ctx context.Context, planID int64, v *domain.Version, to domain.PlanStatus) (out domain.Version, err error) {
	done := track(ctx, s.observer, "set-version-status", map[string]any{"plan_id": planID, "version_id": v.ID, "to": string(to)})
	defer func() { done(err) }()

	if !v.Status.CanTransitionTo(to) {
		return domain.Version{}, fmt.Errorf("%s to %s: %w", v.Status, to, ErrInvalidTransition)
	}
	out, err = s.backend.SetVersionStatus(ctx, planID, v.ID, to)
	if err != nil {
		return domain.Version{}, err
	}
	s.cache.Invalidate(store.Plans, store.Plan(planID))
	s.cache.InvalidatePrefix(store.Items)
	return out, nil
}

func (s *planService) DeleteLatestVersion(ctx context.Context, planID int64) (err error) {
	done := track(ctx, s.observer, "delete-latest-version", map[string]any{"plan_id": planID})
	defer func() { done(err) }()

	if err = s.backend.DeleteLatestVersion(ctx, planID); err != nil {
		return err
	}
	s.cache.Invalidate(store.Plans, store.Plan(planID))
	return nil
}

func (s *planService) Export(ctx context.Context, planID int64, v *domain.Version, dir string) (sum api.WorkbookSummary, err error) {
	done := track(ctx, s.observer, "export-version", map[string]any{"plan_id": planID, "version": v.Number})
	defer func() { done(err) }()

	return s.backend.ExportVersion(ctx, planID, v.ID, v.Number, dir)
}
