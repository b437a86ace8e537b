package domain

// Execution is a recorded contract fulfilling part of an item.
type Execution struct {
	ID                   int64  `json:"id"`
	ItemID               int64  `json:"plan_item_id"`
	SupplierName         string `json:"supplier_name"`
	SupplierBIN          string `json:"supplier_bin"`
	ResidencyCode        string `json:"residency_code"`
	OriginCode           string `json:"origin_code"`
	ContractNumber       string `json:"contract_number"`
	ContractDate         string `json:"contract_date"`
	ContractQuantity     Amount `json:"contract_quantity"`
	ContractPricePerUnit Amount `json:"contract_price_per_unit"`
	ContractSum          Amount `json:"contract_sum"`
	SupplyVolumePhysical Amount `json:"supply_volume_physical"`
	SupplyVolumeValue    Amount `json:"supply_volume_value"`
}
