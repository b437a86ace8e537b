package viewmodel

import (
	"math"

	"github.com/alexanderramin/smeta/internal/domain"
)

// VersionStats are the figures shown above a version's item table. Local
// content figures come from the server; only the import share is derived.
type VersionStats struct {
	Total       float64
	KtpShare    float64
	ImportShare float64
	VCPercent   float64
	VCAmount    float64
	VCMean      float64
	VCMedian    float64
	LiveItems   int
}

// ImportShare is the percentage of total not covered by local content.
// A zero or negative total yields zero.
func ImportShare(total, localAmount float64) float64 {
	if total <= 0 {
		return 0
	}
	return (total - localAmount) / total * 100
}

// VersionMetrics projects the stats of v.
func VersionMetrics(v *domain.Version) VersionStats {
	if v == nil {
		return VersionStats{}
	}
	total := v.TotalAmount.Float()
	vc := v.VCAmount.Float()
	return VersionStats{
		Total:       total,
		KtpShare:    v.KtpPercentage.Float(),
		ImportShare: ImportShare(total, vc),
		VCPercent:   v.VCPercentage.Float(),
		VCAmount:    vc,
		VCMean:      v.VCMean.Float(),
		VCMedian:    v.VCMedian.Float(),
		LiveItems:   v.LiveItemCount(),
	}
}

// Progress is the execution state of one item.
type Progress struct {
	PlanQuantity       float64
	PlanPrice          float64
	PlanAmount         float64
	ContractedQuantity float64
	ContractedAmount   float64
	RemainingQuantity  float64
	RemainingAmount    float64
	QuantityPercent    float64
	AmountPercent      float64
	FullyExecuted      bool
}

// Overdrawn reports a negative remainder; it is flagged, never clamped.
func (p Progress) Overdrawn() bool {
	return p.RemainingQuantity < 0 || p.RemainingAmount < 0
}

// Started reports whether anything was contracted yet.
func (p Progress) Started() bool { return p.ContractedQuantity > 0 }

// ItemProgress sums the executions recorded against item.
func ItemProgress(item *domain.Item, executions []domain.Execution) Progress {
	if item == nil {
		return Progress{}
	}
	p := Progress{
		PlanQuantity: item.Quantity.Float(),
		PlanPrice:    item.PricePerUnit.Float(),
		PlanAmount:   item.TotalAmount.Float(),
	}
	for _, e := range executions {
		p.ContractedQuantity += e.ContractQuantity.Float()
		p.ContractedAmount += e.ContractSum.Float()
	}
	p.RemainingQuantity = p.PlanQuantity - p.ContractedQuantity
	p.RemainingAmount = p.PlanAmount - p.ContractedAmount
	p.QuantityPercent = progressPercent(p.ContractedQuantity, p.PlanQuantity)
	p.AmountPercent = progressPercent(p.ContractedAmount, p.PlanAmount)
	p.FullyExecuted = p.PlanQuantity > 0 && p.ContractedQuantity >= p.PlanQuantity
	return p
}

// ItemProgressFromTotals uses the server-aggregated executed figures of an
// item, for tables where per-item executions are not loaded.
func ItemProgressFromTotals(item *domain.Item) Progress {
	if item == nil {
		return Progress{}
	}
	return ItemProgress(item, []domain.Execution{{
		ContractQuantity: item.ExecutedQuantity,
		ContractSum:      item.ExecutedAmount,
	}})
}

func progressPercent(done, plan float64) float64 {
	if plan <= 0 || math.IsNaN(done) {
		return 0
	}
	return math.Min(done/plan*100, 100)
}

// ProgressKey identifies the inputs of an item progress projection.
// Revision is the store revision of the execution list.
type ProgressKey struct {
	ItemID   int64
	Quantity domain.Amount
	Amount   domain.Amount
	Price    domain.Amount
	Revision uint64
}

// ProgressMemo memoizes ItemProgress per item snapshot and execution
// revision.
type ProgressMemo struct {
	memo Memo[ProgressKey, Progress]
}

func (m *ProgressMemo) Get(item *domain.Item, executions []domain.Execution, revision uint64) Progress {
	key := ProgressKey{Revision: revision}
	if item != nil {
		key.ItemID = item.ID
		key.Quantity = item.Quantity
		key.Amount = item.TotalAmount
		key.Price = item.PricePerUnit
	}
	return m.memo.Get(key, func() Progress { return ItemProgress(item, executions) })
}
