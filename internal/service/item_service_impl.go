package service

import (
	"context"
	"fmt"
	"os"

	"github.com/alexanderramin/smeta/internal/api"
	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/alexanderramin/smeta/internal/store"
	"github.com/alexanderramin/smeta/internal/viewmodel"
)

type itemService struct {
	backend  Backend
	cache    *store.Store
	observer UseCaseObserver
}

func NewItemService(backend Backend, cache *store.Store, observers ...UseCaseObserver) ItemService {
	return &itemService{
		backend:  backend,
		cache:    cache,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *itemService) Get(ctx context.Context, id int64) (store.Snapshot[domain.Item], error) {
	return store.Fetch(ctx, s.cache, store.Item(id), func(ctx context.Context) (domain.Item, error) {
		return s.backend.GetItem(ctx, id)
	})
}

func (s *itemService) invalidate(planID, itemID int64) {
	s.cache.Invalidate(store.Plans, store.Plan(planID), store.Item(itemID))
}

// Add sends the form as a new item. Incomplete or locked forms fail with
// viewmodel.ErrFormIncomplete or viewmodel.ErrFormLocked before any request.
func (s *itemService) Add(ctx context.Context, planID int64, f viewmodel.ItemForm) (it domain.Item, err error) {
	done := track(ctx, s.observer, "add-item", map[string]any{"plan_id": planID})
	defer func() { done(err) }()

	payload, err := viewmodel.BuildPayload(f)
	if err != nil {
		return domain.Item{}, err
	}
	it, err = s.backend.AddItem(ctx, planID, payload)
	if err != nil {
		return domain.Item{}, err
	}
	s.invalidate(planID, it.ID)
	return it, nil
}

func (s *itemService) Update(ctx context.Context, planID, id int64, f viewmodel.ItemForm) (it domain.Item, err error) {
	done := track(ctx, s.observer, "update-item", map[string]any{"plan_id": planID, "item_id": id})
	defer func() { done(err) }()

	payload, err := viewmodel.BuildPayload(f)
	if err != nil {
		return domain.Item{}, err
	}
	it, err = s.backend.UpdateItem(ctx, id, payload)
	if err != nil {
		return domain.Item{}, err
	}
	s.invalidate(planID, id)
	return it, nil
}

func (s *itemService) Delete(ctx context.Context, planID, id int64) (err error) {
	done := track(ctx, s.observer, "delete-item", map[string]any{"plan_id": planID, "item_id": id})
	defer func() { done(err) }()

	if err = s.backend.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.invalidate(planID, id)
	return nil
}

func (s *itemService) Revert(ctx context.Context, planID, id int64) (it domain.Item, err error) {
	done := track(ctx, s.observer, "revert-item", map[string]any{"plan_id": planID, "item_id": id})
	defer func() { done(err) }()

	it, err = s.backend.RevertItem(ctx, id)
	if err != nil {
		return domain.Item{}, err
	}
	s.invalidate(planID, id)
	return it, nil
}

// Import uploads the workbook at path. Row errors are a result, not an
// error; the plan is invalidated either way since a partial server-side
// apply is not ruled out.
func (s *itemService) Import(ctx context.Context, planID int64, path, dir string) (res domain.ImportResult, err error) {
	fields := map[string]any{"plan_id": planID, "file": path}
	done := track(ctx, s.observer, "import-items", fields)
	defer func() { done(err) }()

	f, err := os.Open(path)
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("opening import file: %w", err)
	}
	defer f.Close()

	res, err = s.backend.ImportItems(ctx, planID, path, f, dir)
	if err != nil {
		return domain.ImportResult{}, err
	}
	s.cache.Invalidate(store.Plans, store.Plan(planID))
	fields["failed"] = res.Failed()
	fields["errors"] = len(res.Errors)
	return res, nil
}

func (s *itemService) Template(ctx context.Context, dir string) (api.WorkbookSummary, error) {
	return s.backend.ImportTemplate(ctx, dir)
}
