package viewmodel

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/smeta/internal/domain"
)

// Tolerances absorbing floating-point rounding in the ceilings.
const (
	QuantityEpsilon = 0.001
	MoneyEpsilon    = 0.01
)

// ContractDateLayout is the accepted contract date format.
const ContractDateLayout = "2006-01-02"

// ExecutionEntry is the execution form as typed.
type ExecutionEntry struct {
	SupplierName   string
	SupplierBIN    string
	ResidencyCode  string
	OriginCode     string
	ContractNumber string
	ContractDate   string
	Quantity       string
	Price          string
	SupplyPhysical string
	SupplyValue    string
}

// Execution form fields; ExecFieldSum is the derived contract sum.
const (
	ExecFieldSupplier       Field = "supplier_name"
	ExecFieldBIN            Field = "supplier_bin"
	ExecFieldContractNumber Field = "contract_number"
	ExecFieldContractDate   Field = "contract_date"
	ExecFieldQuantity       Field = "contract_quantity"
	ExecFieldPrice          Field = "contract_price_per_unit"
	ExecFieldSum            Field = "contract_sum"
	ExecFieldSupplyPhysical Field = "supply_volume_physical"
	ExecFieldSupplyValue    Field = "supply_volume_value"
)

// ExecutionCheck is the evaluation of an entry against an item's remaining
// plan. Each ceiling is checked on its own so every violated rule shows.
type ExecutionCheck struct {
	Progress    Progress
	Quantity    float64
	Price       float64
	Sum         float64
	MaxQuantity float64
	MaxPrice    float64
	MaxSum      float64
	Errors      []FieldError
	CanSubmit   bool
}

// Error returns the i18n key of the rule field fails, or "".
func (c ExecutionCheck) Error(field Field) string {
	for _, e := range c.Errors {
		if e.Field == field {
			return e.Key
		}
	}
	return ""
}

// Err returns an *ExecutionRejected when the entry fails any rule.
func (c ExecutionCheck) Err() error {
	if c.CanSubmit {
		return nil
	}
	return &ExecutionRejected{Errors: c.Errors}
}

// ExecutionRejected is returned for an entry blocked before sending.
type ExecutionRejected struct {
	Errors []FieldError
}

func (e *ExecutionRejected) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Key))
	}
	return "execution rejected: " + strings.Join(parts, "; ")
}

// Keys lists the i18n keys of the failed rules in order.
func (e *ExecutionRejected) Keys() []string {
	keys := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		keys = append(keys, fe.Key)
	}
	return keys
}

// ValidateExecution checks entry against item and the executions already
// recorded for it.
func ValidateExecution(entry ExecutionEntry, item *domain.Item, executions []domain.Execution) ExecutionCheck {
	progress := ItemProgress(item, executions)
	c := ExecutionCheck{
		Progress:    progress,
		MaxQuantity: progress.RemainingQuantity,
		MaxPrice:    progress.PlanPrice,
		MaxSum:      progress.RemainingAmount,
	}
	fail := func(field Field, key string) {
		c.Errors = append(c.Errors, FieldError{Field: field, Key: key})
	}

	if strings.TrimSpace(entry.SupplierName) == "" {
		fail(ExecFieldSupplier, "error_fill_required_fields")
	}
	if !validBIN(strings.TrimSpace(entry.SupplierBIN)) {
		fail(ExecFieldBIN, "error_bin_length")
	}
	if strings.TrimSpace(entry.ContractNumber) == "" {
		fail(ExecFieldContractNumber, "error_fill_required_fields")
	}
	if _, err := time.Parse(ContractDateLayout, strings.TrimSpace(entry.ContractDate)); err != nil {
		fail(ExecFieldContractDate, "error_contract_date_format")
	}

	qty, qtyOK := parseNumber(entry.Quantity)
	price, priceOK := parseNumber(entry.Price)
	switch {
	case !qtyOK || qty <= 0:
		fail(ExecFieldQuantity, "error_positive_number")
	case qty > progress.RemainingQuantity+QuantityEpsilon:
		fail(ExecFieldQuantity, "error_quantity_exceeds_plan")
	}
	switch {
	case !priceOK || price <= 0:
		fail(ExecFieldPrice, "error_positive_number")
	case price > progress.PlanPrice+MoneyEpsilon:
		fail(ExecFieldPrice, "error_price_exceeds_plan")
	}
	if qtyOK && priceOK {
		c.Quantity, c.Price, c.Sum = qty, price, qty*price
		if c.Sum > progress.RemainingAmount+MoneyEpsilon {
			fail(ExecFieldSum, "error_amount_exceeds_plan")
		}
	}
	if v, ok := optionalNumber(entry.SupplyPhysical); !ok || v < 0 {
		fail(ExecFieldSupplyPhysical, "error_positive_number")
	}
	if v, ok := optionalNumber(entry.SupplyValue); !ok || v < 0 {
		fail(ExecFieldSupplyValue, "error_positive_number")
	}

	c.CanSubmit = len(c.Errors) == 0
	return c
}

// BuildExecutionPayload validates entry and maps it to the request body.
func BuildExecutionPayload(entry ExecutionEntry, item *domain.Item, executions []domain.Execution) (domain.ExecutionPayload, error) {
	c := ValidateExecution(entry, item, executions)
	if err := c.Err(); err != nil {
		return domain.ExecutionPayload{}, err
	}
	physical, _ := optionalNumber(entry.SupplyPhysical)
	value, _ := optionalNumber(entry.SupplyValue)
	return domain.ExecutionPayload{
		ItemID:               item.ID,
		SupplierName:         strings.TrimSpace(entry.SupplierName),
		SupplierBIN:          strings.TrimSpace(entry.SupplierBIN),
		ResidencyCode:        strings.TrimSpace(entry.ResidencyCode),
		OriginCode:           strings.TrimSpace(entry.OriginCode),
		ContractNumber:       strings.TrimSpace(entry.ContractNumber),
		ContractDate:         strings.TrimSpace(entry.ContractDate),
		ContractQuantity:     c.Quantity,
		ContractPricePerUnit: c.Price,
		SupplyVolumePhysical: physical,
		SupplyVolumeValue:    value,
	}, nil
}

func validBIN(s string) bool {
	if len(s) != 12 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// optionalNumber treats a blank input as zero.
func optionalNumber(s string) (float64, bool) {
	if strings.TrimSpace(s) == "" {
		return 0, true
	}
	return parseNumber(s)
}
