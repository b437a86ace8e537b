package service

import (
	"context"
	"errors"
	"io"

	"github.com/alexanderramin/smeta/internal/api"
	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/alexanderramin/smeta/internal/store"
	"github.com/alexanderramin/smeta/internal/viewmodel"
)

// ErrInvalidTransition is returned for a status change the lifecycle does
// not allow; no request is sent.
var ErrInvalidTransition = errors.New("invalid status transition")

// Backend is the server surface the services call. *api.Client implements
// it over HTTP and *testutil.Backend in process.
type Backend interface {
	Login(ctx context.Context, username, password string) (domain.LoginResult, error)

	ListPlans(ctx context.Context) ([]domain.Plan, error)
	CreatePlan(ctx context.Context, p domain.PlanPayload) (domain.Plan, error)
	GetPlan(ctx context.Context, id int64) (domain.Plan, error)
	DeletePlan(ctx context.Context, id int64) error
	CreateVersion(ctx context.Context, planID int64) (domain.Version, error)
	SetVersionStatus(ctx context.Context, planID, versionID int64, status domain.PlanStatus) (domain.Version, error)
	DeleteLatestVersion(ctx context.Context, planID int64) error

	AddItem(ctx context.Context, planID int64, p domain.ItemPayload) (domain.Item, error)
	GetItem(ctx context.Context, id int64) (domain.Item, error)
	UpdateItem(ctx context.Context, id int64, p domain.ItemPayload) (domain.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	RevertItem(ctx context.Context, id int64) (domain.Item, error)

	CreateExecution(ctx context.Context, p domain.ExecutionPayload) (domain.Execution, error)
	ListExecutions(ctx context.Context, itemID int64) ([]domain.Execution, error)
	DeleteExecution(ctx context.Context, id int64) error

	SearchEnstru(ctx context.Context, q string) ([]domain.Enstru, error)
	CheckKtp(ctx context.Context, code string) (domain.KtpStatus, error)
	SearchMkei(ctx context.Context, q string) ([]domain.Mkei, error)
	CostItems(ctx context.Context) ([]domain.CostItem, error)
	FundingSources(ctx context.Context) ([]domain.FundingSource, error)
	SearchAgsk(ctx context.Context, q string) ([]domain.Agsk, error)
	SearchKato(ctx context.Context, parentID *int64, q string) ([]domain.Kato, error)

	ImportItems(ctx context.Context, planID int64, filename string, src io.Reader, dir string) (domain.ImportResult, error)
	ImportTemplate(ctx context.Context, dir string) (api.WorkbookSummary, error)
	ExportVersion(ctx context.Context, planID, versionID int64, number int, dir string) (api.WorkbookSummary, error)
}

type AuthService interface {
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	SetLang(ctx context.Context, code string) (domain.Lang, error)
}

type PlanService interface {
	List(ctx context.Context) (store.Snapshot[[]domain.Plan], error)
	Get(ctx context.Context, id int64) (store.Snapshot[domain.Plan], error)
	Refresh(ctx context.Context, id int64) (store.Snapshot[domain.Plan], error)
	Create(ctx context.Context, p domain.PlanPayload) (domain.Plan, error)
	Delete(ctx context.Context, id int64) error
	CreateVersion(ctx context.Context, planID int64) (domain.Version, error)
	AdvanceStatus(ctx context.Context, planID int64, v *domain.Version, to domain.PlanStatus) (domain.Version, error)
	DeleteLatestVersion(ctx context.Context, planID int64) error
	Export(ctx context.Context, planID int64, v *domain.Version, dir string) (api.WorkbookSummary, error)
}

type ItemService interface {
	Get(ctx context.Context, id int64) (store.Snapshot[domain.Item], error)
	Add(ctx context.Context, planID int64, f viewmodel.ItemForm) (domain.Item, error)
	Update(ctx context.Context, planID, id int64, f viewmodel.ItemForm) (domain.Item, error)
	Delete(ctx context.Context, planID, id int64) error
	Revert(ctx context.Context, planID, id int64) (domain.Item, error)
	Import(ctx context.Context, planID int64, path, dir string) (domain.ImportResult, error)
	Template(ctx context.Context, dir string) (api.WorkbookSummary, error)
}

type ExecutionService interface {
	List(ctx context.Context, itemID int64) (store.Snapshot[[]domain.Execution], error)
	Add(ctx context.Context, planID int64, item *domain.Item, entry viewmodel.ExecutionEntry) (domain.Execution, error)
	Delete(ctx context.Context, planID, itemID, id int64) error
}

type CatalogService interface {
	SearchEnstru(ctx context.Context, q string) ([]domain.Enstru, error)
	CheckKtp(ctx context.Context, code string) bool
	SearchMkei(ctx context.Context, q string) ([]domain.Mkei, error)
	CostItems(ctx context.Context) ([]domain.CostItem, error)
	FundingSources(ctx context.Context) ([]domain.FundingSource, error)
	SearchAgsk(ctx context.Context, q string) ([]domain.AgskChoice, error)
	KatoChildren(ctx context.Context, parentID *int64) ([]domain.Kato, error)
	SearchKato(ctx context.Context, q string) ([]domain.Kato, error)
}
