package viewmodel

import (
	"math"
	"testing"

	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goodsItem(qty, price float64) *domain.Item {
	return &domain.Item{
		ID:           1,
		NeedType:     domain.NeedGood,
		TruCode:      "A",
		Quantity:     domain.Amount(qty),
		PricePerUnit: domain.Amount(price),
		TotalAmount:  domain.Amount(qty * price),
	}
}

func execution(qty, price float64) domain.Execution {
	return domain.Execution{
		ContractQuantity:     domain.Amount(qty),
		ContractPricePerUnit: domain.Amount(price),
		ContractSum:          domain.Amount(qty * price),
	}
}

func TestImportShare(t *testing.T) {
	assert.Equal(t, 0.0, ImportShare(0, 0))
	assert.Equal(t, 0.0, ImportShare(-5, 3))
	assert.InDelta(t, 25.0, ImportShare(1000, 750), 1e-9)
	assert.InDelta(t, 100.0, ImportShare(1000, 0), 1e-9)
}

func TestVersionMetrics_TakesLocalContentFromServer(t *testing.T) {
	v := &domain.Version{
		TotalAmount:   1000,
		VCAmount:      600,
		VCPercentage:  60,
		VCMean:        55,
		VCMedian:      50,
		KtpPercentage: 12.5,
		Items: []domain.Item{
			{ID: 1}, {ID: 2, IsDeleted: true},
		},
	}

	m := VersionMetrics(v)
	assert.Equal(t, 1000.0, m.Total)
	assert.Equal(t, 60.0, m.VCPercent)
	assert.Equal(t, 600.0, m.VCAmount)
	assert.InDelta(t, 40.0, m.ImportShare, 1e-9)
	assert.Equal(t, 12.5, m.KtpShare)
	assert.Equal(t, 1, m.LiveItems)

	assert.Equal(t, VersionStats{}, VersionMetrics(nil))
}

func TestItemProgress_ExecutionScenario(t *testing.T) {
	item := goodsItem(10, 100)
	assert.Equal(t, 1000.0, item.TotalAmount.Float())

	p := ItemProgress(item, []domain.Execution{execution(4, 100)})
	assert.Equal(t, 6.0, p.RemainingQuantity)
	assert.Equal(t, 600.0, p.RemainingAmount)
	assert.Equal(t, 40.0, p.QuantityPercent)
	assert.False(t, p.FullyExecuted)

	p = ItemProgress(item, []domain.Execution{execution(4, 100), execution(6, 100)})
	assert.Equal(t, 0.0, p.RemainingQuantity)
	assert.Equal(t, 100.0, p.QuantityPercent)
	assert.True(t, p.FullyExecuted)
	assert.False(t, p.Overdrawn())
}

func TestItemProgress_OverdrawnIsNotClamped(t *testing.T) {
	p := ItemProgress(goodsItem(10, 100), []domain.Execution{execution(12, 100)})
	assert.Equal(t, -2.0, p.RemainingQuantity)
	assert.Equal(t, 100.0, p.QuantityPercent, "display percentage caps at 100")
	assert.True(t, p.Overdrawn())
	assert.True(t, p.FullyExecuted)
}

func TestItemProgress_ZeroPlanYieldsZero(t *testing.T) {
	p := ItemProgress(goodsItem(0, 0), []domain.Execution{execution(1, 1)})
	assert.Equal(t, 0.0, p.QuantityPercent)
	assert.Equal(t, 0.0, p.AmountPercent)
	assert.False(t, math.IsNaN(p.QuantityPercent))
	assert.False(t, p.FullyExecuted)

	assert.Equal(t, Progress{}, ItemProgress(nil, nil))
}

func TestItemProgressFromTotals(t *testing.T) {
	item := goodsItem(10, 100)
	item.ExecutedQuantity = 5
	item.ExecutedAmount = 500

	p := ItemProgressFromTotals(item)
	assert.Equal(t, 50.0, p.QuantityPercent)
	assert.Equal(t, 50.0, p.AmountPercent)
}

func TestMemo_RecomputesOnlyOnKeyChange(t *testing.T) {
	var m Memo[string, int]
	calls := 0
	compute := func() int { calls++; return calls }

	assert.Equal(t, 1, m.Get("a", compute))
	assert.Equal(t, 1, m.Get("a", compute))
	assert.Equal(t, 2, m.Get("b", compute))
	assert.Equal(t, 2, m.computes)

	m.Reset()
	assert.Equal(t, 3, m.Get("b", compute))
}

func TestProgressMemo_KeyedByRevision(t *testing.T) {
	var pm ProgressMemo
	item := goodsItem(10, 100)
	execs := []domain.Execution{execution(4, 100)}

	first := pm.Get(item, execs, 1)
	again := pm.Get(item, append(execs, execution(6, 100)), 1)
	require.Equal(t, first, again, "same revision serves the cached projection")
	assert.Equal(t, 1, pm.memo.computes)

	fresh := pm.Get(item, append(execs, execution(6, 100)), 2)
	assert.True(t, fresh.FullyExecuted)
	assert.Equal(t, 2, pm.memo.computes)
}
