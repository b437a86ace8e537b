package testutil

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/smeta/internal/domain"
)

// Item payload options
type ItemOption func(*domain.ItemPayload)

func WithQuantity(q float64) ItemOption {
	return func(p *domain.ItemPayload) {
		p.Quantity = q
	}
}

func WithPrice(price float64) ItemOption {
	return func(p *domain.ItemPayload) {
		p.PricePerUnit = price
	}
}

func WithResidentShare(share float64) ItemOption {
	return func(p *domain.ItemPayload) {
		p.ResidentShare = share
	}
}

func WithKtp(ktp bool) ItemOption {
	return func(p *domain.ItemPayload) {
		p.IsKtp = ktp
	}
}

func WithCostItem(id int64) ItemOption {
	return func(p *domain.ItemPayload) {
		p.CostItemID = id
	}
}

func WithSpecs(ru, kk string) ItemOption {
	return func(p *domain.ItemPayload) {
		p.SpecsRu = ru
		p.SpecsKk = kk
	}
}

func WithMinDVC(pct float64) ItemOption {
	return func(p *domain.ItemPayload) {
		p.MinDVCPercent = pct
	}
}

func basePayload(code string) domain.ItemPayload {
	return domain.ItemPayload{
		TruCode:         code,
		CostItemID:      CostMaterials,
		FundingSourceID: FundingOwn,
		KatoPurchaseID:  KatoAlmaty,
		KatoDeliveryID:  KatoAlmaty,
		SpecsRu:         "ГОСТ 27772-2015",
		SpecsKk:         "МЕМСТ 27772-2015",
		Quantity:        10,
		PricePerUnit:    100,
		ResidentShare:   100,
	}
}

func apply(p domain.ItemPayload, opts []ItemOption) domain.ItemPayload {
	for _, o := range opts {
		o(&p)
	}
	return p
}

// GoodsPayload is a valid payload for a good measured in tonnes.
func GoodsPayload(opts ...ItemOption) domain.ItemPayload {
	p := basePayload(CodeSteel)
	p.UnitID = ptr(UnitTonne)
	return apply(p, opts)
}

// WorksPayload is a valid construction-works payload with an AGSK code.
func WorksPayload(opts ...ItemOption) domain.ItemPayload {
	p := basePayload(CodePipeline)
	p.CostItemID = CostConstruction
	p.AgskCode = ptr(AgskPipeline)
	p.Quantity = 1
	p.PricePerUnit = 5000
	return apply(p, opts)
}

// ServicePayload is a valid services payload.
func ServicePayload(opts ...ItemOption) domain.ItemPayload {
	p := basePayload(CodeEngineering)
	p.CostItemID = CostServices
	p.Quantity = 1
	p.PricePerUnit = 500
	return apply(p, opts)
}

// ExecutionPayload records qty units at price against itemID.
func ExecutionPayload(itemID int64, qty, price float64) domain.ExecutionPayload {
	return domain.ExecutionPayload{
		ItemID:               itemID,
		SupplierName:         "ТОО Поставщик",
		SupplierBIN:          "123456789012",
		ResidencyCode:        "KZ",
		OriginCode:           "KZ",
		ContractNumber:       "Д-1",
		ContractDate:         "2025-03-01",
		ContractQuantity:     qty,
		ContractPricePerUnit: price,
	}
}

// SeedPlan creates a plan named name and adds one item per payload to its
// first version.
func SeedPlan(t *testing.T, b *Backend, name string, items ...domain.ItemPayload) (domain.Plan, []domain.Item) {
	t.Helper()
	ctx := context.Background()
	p, err := b.CreatePlan(ctx, domain.PlanPayload{Name: name, Year: 2025})
	require.NoError(t, err)
	out := make([]domain.Item, 0, len(items))
	for _, in := range items {
		it, err := b.AddItem(ctx, p.ID, in)
		require.NoError(t, err)
		out = append(out, it)
	}
	p, err = b.GetPlan(ctx, p.ID)
	require.NoError(t, err)
	return p, out
}

// Approve walks the active version of planID up to APPROVED.
func Approve(t *testing.T, b *Backend, planID int64) domain.Version {
	t.Helper()
	ctx := context.Background()
	p, err := b.GetPlan(ctx, planID)
	require.NoError(t, err)
	active, ok := p.ActiveVersion()
	require.True(t, ok, "plan %d has no active version", planID)
	v := *active
	for next, ok := v.Status.Next(); ok; next, ok = v.Status.Next() {
		v, err = b.SetVersionStatus(ctx, planID, v.ID, next)
		require.NoError(t, err)
	}
	return v
}

// Unauthorized is the error the server returns for a missing or bad token.
func Unauthorized() error {
	return apiError(http.StatusUnauthorized, "Could not validate credentials")
}
