package domain

// PlanPayload creates a plan.
type PlanPayload struct {
	Name string `json:"plan_name" validate:"required"`
	Year int    `json:"year" validate:"gte=2000,lte=2100"`
}

// StatusPayload advances a version's status.
type StatusPayload struct {
	Status PlanStatus `json:"status" validate:"oneof=DRAFT PRE_APPROVED APPROVED"`
}

// ItemPayload creates or replaces an item. Fields irrelevant to the need
// type are nil rather than stale.
type ItemPayload struct {
	TruCode           string  `json:"trucode" validate:"required"`
	UnitID            *int64  `json:"unit_id"`
	CostItemID        int64   `json:"expense_item_id" validate:"required"`
	FundingSourceID   int64   `json:"funding_source_id" validate:"required"`
	AgskCode          *string `json:"agsk_id"`
	KatoPurchaseID    int64   `json:"kato_purchase_id" validate:"required"`
	KatoDeliveryID    int64   `json:"kato_delivery_id" validate:"required"`
	SpecsRu           string  `json:"additional_specs" validate:"required"`
	SpecsKk           string  `json:"additional_specs_kz" validate:"required"`
	Quantity          float64 `json:"quantity" validate:"gt=0"`
	PricePerUnit      float64 `json:"price_per_unit" validate:"gt=0"`
	IsKtp             bool    `json:"is_ktp"`
	ResidentShare     float64 `json:"resident_share" validate:"gte=0,lte=100"`
	NonResidentReason *string `json:"non_resident_reason"`
	MinDVCPercent     float64 `json:"min_dvc_percent" validate:"gte=0,lte=100"`
}

// ExecutionPayload records a contract against an item.
type ExecutionPayload struct {
	ItemID               int64   `json:"plan_item_id" validate:"required"`
	SupplierName         string  `json:"supplier_name" validate:"required"`
	SupplierBIN          string  `json:"supplier_bin" validate:"len=12,number"`
	ResidencyCode        string  `json:"residency_code"`
	OriginCode           string  `json:"origin_code"`
	ContractNumber       string  `json:"contract_number" validate:"required"`
	ContractDate         string  `json:"contract_date" validate:"required,datetime=2006-01-02"`
	ContractQuantity     float64 `json:"contract_quantity" validate:"gt=0"`
	ContractPricePerUnit float64 `json:"contract_price_per_unit" validate:"gt=0"`
	SupplyVolumePhysical float64 `json:"supply_volume_physical" validate:"gte=0"`
	SupplyVolumeValue    float64 `json:"supply_volume_value" validate:"gte=0"`
}

// LoginResult is the token response of the login endpoint.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// KtpStatus reports whether a commodity code is domestically produced.
type KtpStatus struct {
	IsKtp bool `json:"is_ktp"`
}

// ImportResult is the outcome of a bulk item import. Exactly one of the
// shapes applies: success (Message only), an itemized error list, or an
// annotated workbook saved at ErrorFile.
type ImportResult struct {
	Message   string   `json:"message"`
	Errors    []string `json:"errors,omitempty"`
	ErrorFile string   `json:"-"`
	ErrorRows int      `json:"-"`
}

// Failed reports whether the import was rejected.
func (r *ImportResult) Failed() bool {
	return len(r.Errors) > 0 || r.ErrorFile != ""
}
