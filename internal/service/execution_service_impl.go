package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/alexanderramin/smeta/internal/store"
	"github.com/alexanderramin/smeta/internal/viewmodel"
)

type executionService struct {
	backend  Backend
	cache    *store.Store
	observer UseCaseObserver
}

func NewExecutionService(backend Backend, cache *store.Store, observers ...UseCaseObserver) ExecutionService {
	return &executionService{
		backend:  backend,
		cache:    cache,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *executionService) List(ctx context.Context, itemID int64) (store.Snapshot[[]domain.Execution], error) {
	return store.Fetch(ctx, s.cache, store.Executions(itemID), func(ctx context.Context) ([]domain.Execution, error) {
		return s.backend.ListExecutions(ctx, itemID)
	})
}

func (s *executionService) invalidate(planID, itemID int64) {
	s.cache.Invalidate(store.Executions(itemID), store.Plan(planID), store.Item(itemID))
}

// Add validates entry against the item's remaining plan and records it.
// A rejected entry returns *viewmodel.ExecutionRejected and sends nothing.
func (s *executionService) Add(ctx context.Context, planID int64, item *domain.Item, entry viewmodel.ExecutionEntry) (e domain.Execution, err error) {
	done := track(ctx, s.observer, "add-execution", map[string]any{"plan_id": planID, "item_id": item.ID})
	defer func() { done(err) }()

	recorded, err := s.List(ctx, item.ID)
	if err != nil {
		return domain.Execution{}, fmt.Errorf("loading executions: %w", err)
	}
	payload, err := viewmodel.BuildExecutionPayload(entry, item, recorded.Value)
	if err != nil {
		return domain.Execution{}, err
	}
	e, err = s.backend.CreateExecution(ctx, payload)
	if err != nil {
		return domain.Execution{}, err
	}
	s.invalidate(planID, item.ID)
	return e, nil
}

func (s *executionService) Delete(ctx context.Context, planID, itemID, id int64) (err error) {
	done := track(ctx, s.observer, "delete-execution", map[string]any{"plan_id": planID, "item_id": itemID, "execution_id": id})
	defer func() { done(err) }()

	if err = s.backend.DeleteExecution(ctx, id); err != nil {
		return err
	}
	s.invalidate(planID, itemID)
	return nil
}
