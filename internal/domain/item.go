package domain

import "strconv"

// Item is one planned procurement line within a version.
type Item struct {
	ID                int64     `json:"id"`
	VersionID         int64     `json:"version_id"`
	Number            int       `json:"item_number"`
	RevisionNumber    int       `json:"revision_number"`
	NeedType          NeedType  `json:"need_type"`
	TruCode           string    `json:"trucode"`
	Quantity          Amount    `json:"quantity"`
	PricePerUnit      Amount    `json:"price_per_unit"`
	TotalAmount       Amount    `json:"total_amount"`
	IsKtp             bool      `json:"is_ktp"`
	ResidentShare     Amount    `json:"resident_share"`
	NonResidentReason string    `json:"non_resident_reason,omitempty"`
	IsDeleted         bool      `json:"is_deleted"`
	CreatedAt         Timestamp `json:"created_at"`
	RootItemID        *int64    `json:"root_item_id,omitempty"`
	SourceVersionID   *int64    `json:"source_version_id,omitempty"`
	ExecutedQuantity  Amount    `json:"executed_quantity"`
	ExecutedAmount    Amount    `json:"executed_amount"`
	MinDVCPercent     Amount    `json:"min_dvc_percent"`
	VCAmount          Amount    `json:"vc_amount"`
	SpecsRu           string    `json:"additional_specs,omitempty"`
	SpecsKk           string    `json:"additional_specs_kz,omitempty"`

	Enstru        *Enstru        `json:"enstru,omitempty"`
	Unit          *Mkei          `json:"unit,omitempty"`
	CostItem      *CostItem      `json:"expense_item,omitempty"`
	FundingSource *FundingSource `json:"funding_source,omitempty"`
	Agsk          *Agsk          `json:"agsk,omitempty"`
	KatoPurchase  *Kato          `json:"kato_purchase,omitempty"`
	KatoDelivery  *Kato          `json:"kato_delivery,omitempty"`

	// Version is populated when the item is fetched on its own.
	Version *Version `json:"version,omitempty"`
}

// DisplayNumber renders the compound number, e.g. "3-1 Т".
func (it *Item) DisplayNumber() string {
	s := strconv.Itoa(it.Number)
	if it.RevisionNumber > 0 {
		s += "-" + strconv.Itoa(it.RevisionNumber)
	}
	if l := it.NeedType.Letter(); l != "" {
		s += " " + l
	}
	return s
}

// Name returns the commodity name in the requested language, falling back
// to the commodity code.
func (it *Item) Name(lang Lang) string {
	if it.Enstru != nil {
		if n := it.Enstru.Name(lang); n != "" {
			return n
		}
	}
	return it.TruCode
}

// Specs returns the free-text specification in the requested language.
func (it *Item) Specs(lang Lang) string {
	return pick(lang, it.SpecsRu, it.SpecsKk)
}

// CanRevert reports whether the item was changed in the active version and
// still has an ancestor to revert to.
func (it *Item) CanRevert(activeVersionID int64, editable bool) bool {
	if !editable || it.IsDeleted {
		return false
	}
	if it.SourceVersionID == nil || *it.SourceVersionID != activeVersionID {
		return false
	}
	return it.RootItemID != nil && *it.RootItemID != it.ID
}

// ItemActions lists the item actions a version permits.
type ItemActions struct {
	Edit      bool
	Delete    bool
	Revert    bool
	Execution bool
}

// Actions returns what may be done to the item while v is displayed.
func (it *Item) Actions(v *Version) ItemActions {
	if it.IsDeleted || v == nil {
		return ItemActions{}
	}
	editable := v.Editable()
	return ItemActions{
		Edit:      editable,
		Delete:    editable,
		Revert:    it.CanRevert(v.ID, editable),
		Execution: v.Status == StatusApproved,
	}
}
