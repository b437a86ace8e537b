package viewmodel

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alexanderramin/smeta/internal/domain"
)

var (
	ErrFormLocked     = errors.New("item form is locked")
	ErrFormIncomplete = errors.New("item form incomplete")
)

// FormPhase is the state of the item form machine.
type FormPhase int

const (
	PhaseNoCode FormPhase = iota
	PhaseCodeSelected
)

// Field names an input of the item form.
type Field string

const (
	FieldCode          Field = "code"
	FieldUnit          Field = "unit"
	FieldCostItem      Field = "cost_item"
	FieldFundingSource Field = "funding_source"
	FieldAgsk          Field = "agsk"
	FieldKatoPurchase  Field = "kato_purchase"
	FieldKatoDelivery  Field = "kato_delivery"
	FieldSpecsRu       Field = "specs_ru"
	FieldSpecsKk       Field = "specs_kk"
	FieldQuantity      Field = "quantity"
	FieldPrice         Field = "price"
	FieldResidentShare Field = "resident_share"
	FieldReason        Field = "non_resident_reason"
)

// FormFields lists the fields in display and validation order.
var FormFields = []Field{
	FieldCode, FieldCostItem, FieldAgsk, FieldFundingSource, FieldUnit,
	FieldQuantity, FieldPrice, FieldResidentShare, FieldReason,
	FieldKatoPurchase, FieldKatoDelivery, FieldSpecsRu, FieldSpecsKk,
}

// ItemForm is an immutable snapshot of the item form. Numeric inputs are
// kept as typed text so partially entered values survive re-evaluation.
// The struct is comparable and serves as its own memo key.
type ItemForm struct {
	Code          domain.Choice[domain.Enstru]
	IsKtp         bool
	Unit          domain.Choice[domain.Mkei]
	CostItem      domain.Choice[domain.CostItem]
	FundingSource domain.Choice[domain.FundingSource]
	Agsk          domain.AgskChoice
	KatoPurchase  domain.Choice[domain.Kato]
	KatoDelivery  domain.Choice[domain.Kato]
	SpecsRu       string
	SpecsKk       string
	Quantity      string
	Price         string
	ResidentShare string
	Reason        string

	VersionStatus domain.PlanStatus
	VersionActive bool
	// Editing marks a form loaded from an existing item; its code is fixed.
	Editing bool
}

// NewItemForm returns an empty form for adding an item to v.
func NewItemForm(v *domain.Version) ItemForm {
	f := ItemForm{ResidentShare: "100"}
	if v != nil {
		f.VersionStatus = v.Status
		f.VersionActive = v.IsActive
	}
	return f
}

// FromItem loads an existing item for editing. A construction item saved
// without a construction code was entered against the price list.
func FromItem(it *domain.Item, v *domain.Version) ItemForm {
	if v == nil {
		v = it.Version
	}
	f := NewItemForm(v)
	f.Editing = true

	code := domain.Enstru{Code: it.TruCode, TypeName: it.NeedType.CatalogType()}
	if it.Enstru != nil {
		code = *it.Enstru
	}
	f.Code = domain.Selected(code)
	f.IsKtp = it.IsKtp
	f.Unit = domain.SelectedPtr(it.Unit)
	f.CostItem = domain.SelectedPtr(it.CostItem)
	f.FundingSource = domain.SelectedPtr(it.FundingSource)
	f.KatoPurchase = domain.SelectedPtr(it.KatoPurchase)
	f.KatoDelivery = domain.SelectedPtr(it.KatoDelivery)
	switch {
	case it.Agsk != nil:
		f.Agsk = domain.AgskCode(*it.Agsk)
	case it.CostItem != nil && it.CostItem.IsConstruction():
		f.Agsk = domain.PriceListAgsk()
	}
	f.SpecsRu = it.SpecsRu
	f.SpecsKk = it.SpecsKk
	f.Quantity = formatInput(it.Quantity.Float())
	f.Price = formatInput(it.PricePerUnit.Float())
	f.ResidentShare = formatInput(it.ResidentShare.Float())
	f.Reason = it.NonResidentReason
	return f
}

// Locked reports whether the owning version rejects edits.
func (f ItemForm) Locked() bool {
	return !f.VersionActive || f.VersionStatus != domain.StatusDraft
}

func (f ItemForm) Phase() FormPhase {
	if f.Code.IsSelected() {
		return PhaseCodeSelected
	}
	return PhaseNoCode
}

// NeedType is derived from the selected code; empty while none is chosen.
func (f ItemForm) NeedType() domain.NeedType {
	if e, ok := f.Code.Get(); ok {
		return e.NeedType()
	}
	return ""
}

func (f ItemForm) isGoods() bool { return f.NeedType() == domain.NeedGood }

func (f ItemForm) codeEditable() bool {
	return !f.Locked() && !(f.Editing && f.Code.IsSelected())
}

func (f ItemForm) agskRequired() bool {
	c, ok := f.CostItem.Get()
	return ok && c.IsConstruction()
}

func (f ItemForm) with(apply func(*ItemForm)) ItemForm {
	if f.Locked() {
		return f
	}
	apply(&f)
	return f
}

// SelectCode enters the code-selected state. Unit, residency share and the
// justification are reset; non-goods get the fixed quantity of 1. ktp is
// the applicability flag fetched for the code, false when unknown.
func (f ItemForm) SelectCode(e domain.Enstru, ktp bool) ItemForm {
	if !f.codeEditable() {
		return f
	}
	f.Code = domain.Selected(e)
	f.IsKtp = ktp
	f.resetForCode()
	if !f.isGoods() {
		f.Quantity = "1"
	}
	return f
}

// ClearCode returns the form to the no-code state.
func (f ItemForm) ClearCode() ItemForm {
	if !f.codeEditable() {
		return f
	}
	f.Code = domain.Unselected[domain.Enstru]()
	f.IsKtp = false
	f.resetForCode()
	return f
}

func (f *ItemForm) resetForCode() {
	f.Unit = domain.Unselected[domain.Mkei]()
	f.ResidentShare = "100"
	f.Reason = ""
}

// ApplyKtp records a KTP flag that arrived after code selection. Results
// for a code that is no longer selected are ignored.
func (f ItemForm) ApplyKtp(code string, ktp bool) ItemForm {
	e, ok := f.Code.Get()
	if !ok || e.Code != code {
		return f
	}
	return f.with(func(f *ItemForm) { f.IsKtp = ktp })
}

func (f ItemForm) SetUnit(u domain.Mkei) ItemForm {
	return f.with(func(f *ItemForm) { f.Unit = domain.Selected(u) })
}

// SetCostItem changes the expense category. Leaving the construction
// category drops any construction-code choice.
func (f ItemForm) SetCostItem(c domain.CostItem) ItemForm {
	return f.with(func(f *ItemForm) {
		f.CostItem = domain.Selected(c)
		if !c.IsConstruction() {
			f.Agsk = domain.NoAgsk()
		}
	})
}

func (f ItemForm) SetFundingSource(s domain.FundingSource) ItemForm {
	return f.with(func(f *ItemForm) { f.FundingSource = domain.Selected(s) })
}

func (f ItemForm) SetAgsk(c domain.AgskChoice) ItemForm {
	return f.with(func(f *ItemForm) { f.Agsk = c })
}

func (f ItemForm) SetKatoPurchase(k domain.Kato) ItemForm {
	return f.with(func(f *ItemForm) { f.KatoPurchase = domain.Selected(k) })
}

func (f ItemForm) SetKatoDelivery(k domain.Kato) ItemForm {
	return f.with(func(f *ItemForm) { f.KatoDelivery = domain.Selected(k) })
}

func (f ItemForm) SetSpecsRu(s string) ItemForm {
	return f.with(func(f *ItemForm) { f.SpecsRu = s })
}

func (f ItemForm) SetSpecsKk(s string) ItemForm {
	return f.with(func(f *ItemForm) { f.SpecsKk = s })
}

// SetQuantity is ignored for works and services, whose quantity is fixed.
func (f ItemForm) SetQuantity(s string) ItemForm {
	if f.Code.IsSelected() && !f.isGoods() {
		return f
	}
	return f.with(func(f *ItemForm) { f.Quantity = s })
}

func (f ItemForm) SetPrice(s string) ItemForm {
	return f.with(func(f *ItemForm) { f.Price = s })
}

// SetResidentShare is ignored for goods, whose share is fixed at 100.
func (f ItemForm) SetResidentShare(s string) ItemForm {
	if f.isGoods() {
		return f
	}
	return f.with(func(f *ItemForm) { f.ResidentShare = s })
}

func (f ItemForm) SetReason(s string) ItemForm {
	return f.with(func(f *ItemForm) { f.Reason = s })
}

// FieldPolicy is how a field is presented for the current need type.
type FieldPolicy struct {
	Visible  bool
	Required bool
	Editable bool
}

// FieldError is a failed rule, carried as an i18n key.
type FieldError struct {
	Field Field
	Key   string
}

// FormStatus is the evaluation of an ItemForm snapshot.
type FormStatus struct {
	Phase     FormPhase
	NeedType  domain.NeedType
	Locked    bool
	Policies  map[Field]FieldPolicy
	Errors    []FieldError
	Total     float64
	CanSubmit bool
}

// Policy returns the policy for field.
func (s FormStatus) Policy(field Field) FieldPolicy { return s.Policies[field] }

// Error returns the i18n key of the rule field fails, or "".
func (s FormStatus) Error(field Field) string {
	for _, e := range s.Errors {
		if e.Field == field {
			return e.Key
		}
	}
	return ""
}

// Evaluate applies the field-requirement policy to f.
func Evaluate(f ItemForm) FormStatus {
	locked := f.Locked()
	selected := f.Code.IsSelected()
	goods := f.isGoods()
	nonGoods := selected && !goods
	share, shareOK := parseNumber(f.ResidentShare)
	reasonNeeded := nonGoods && shareOK && share < 100
	agskNeeded := f.agskRequired()

	st := FormStatus{
		Phase:    f.Phase(),
		NeedType: f.NeedType(),
		Locked:   locked,
		Policies: make(map[Field]FieldPolicy, len(FormFields)),
	}
	plain := FieldPolicy{Visible: true, Required: true, Editable: !locked}
	for _, field := range FormFields {
		st.Policies[field] = plain
	}
	st.Policies[FieldCode] = FieldPolicy{Visible: true, Required: true, Editable: f.codeEditable()}
	st.Policies[FieldUnit] = FieldPolicy{Visible: goods, Required: goods, Editable: !locked && goods}
	st.Policies[FieldQuantity] = FieldPolicy{Visible: true, Required: true, Editable: !locked && !nonGoods}
	st.Policies[FieldResidentShare] = FieldPolicy{Visible: nonGoods, Required: nonGoods, Editable: !locked && nonGoods}
	st.Policies[FieldReason] = FieldPolicy{Visible: reasonNeeded, Required: reasonNeeded, Editable: !locked && reasonNeeded}
	st.Policies[FieldAgsk] = FieldPolicy{Visible: agskNeeded, Required: agskNeeded, Editable: !locked && agskNeeded}

	fail := func(field Field, key string) {
		st.Errors = append(st.Errors, FieldError{Field: field, Key: key})
	}
	qty, qtyOK := parseNumber(f.Quantity)
	if nonGoods {
		qty, qtyOK = 1, true
	}
	price, priceOK := parseNumber(f.Price)

	for _, field := range FormFields {
		switch field {
		case FieldCode:
			if !selected {
				fail(field, "error_enstru_required")
			}
		case FieldUnit:
			if goods && !f.Unit.IsSelected() {
				fail(field, "error_unit_required_for_goods")
			}
		case FieldCostItem:
			if !f.CostItem.IsSelected() {
				fail(field, "error_expense_item_required")
			}
		case FieldAgsk:
			if agskNeeded && !f.Agsk.Satisfied() {
				fail(field, "error_agsk_required_for_smr")
			}
		case FieldFundingSource:
			if !f.FundingSource.IsSelected() {
				fail(field, "error_funding_source_required")
			}
		case FieldQuantity:
			if !qtyOK || qty <= 0 {
				fail(field, "error_quantity_required")
			}
		case FieldPrice:
			if !priceOK || price <= 0 {
				fail(field, "error_price_required")
			}
		case FieldResidentShare:
			if nonGoods && (!shareOK || share < 0 || share > 100) {
				fail(field, "error_resident_share_required")
			}
		case FieldReason:
			if reasonNeeded && strings.TrimSpace(f.Reason) == "" {
				fail(field, "error_non_resident_reason_required")
			}
		case FieldKatoPurchase:
			if !f.KatoPurchase.IsSelected() {
				fail(field, "error_kato_purchase_required")
			}
		case FieldKatoDelivery:
			if !f.KatoDelivery.IsSelected() {
				fail(field, "error_kato_delivery_required")
			}
		case FieldSpecsRu:
			if strings.TrimSpace(f.SpecsRu) == "" {
				fail(field, "error_additional_specs_required")
			}
		case FieldSpecsKk:
			if strings.TrimSpace(f.SpecsKk) == "" {
				fail(field, "error_additional_specs_kz_required")
			}
		}
	}

	if qtyOK && priceOK {
		st.Total = qty * price
	}
	st.CanSubmit = !locked && len(st.Errors) == 0
	return st
}

// FormEvaluator memoizes Evaluate on the snapshot.
type FormEvaluator struct {
	memo Memo[ItemForm, FormStatus]
}

func (e *FormEvaluator) Evaluate(f ItemForm) FormStatus {
	return e.memo.Get(f, func() FormStatus { return Evaluate(f) })
}

// BuildPayload maps a complete form to the request body. Fields that do
// not apply to the need type are sent empty rather than stale.
func BuildPayload(f ItemForm) (domain.ItemPayload, error) {
	st := Evaluate(f)
	if st.Locked {
		return domain.ItemPayload{}, ErrFormLocked
	}
	if !st.CanSubmit {
		first := st.Errors[0]
		return domain.ItemPayload{}, fmt.Errorf("%w: %s: %s", ErrFormIncomplete, first.Field, first.Key)
	}

	code := f.Code.OrZero()
	goods := f.isGoods()
	price, _ := parseNumber(f.Price)
	p := domain.ItemPayload{
		TruCode:         code.Code,
		CostItemID:      f.CostItem.OrZero().ID,
		FundingSourceID: f.FundingSource.OrZero().ID,
		KatoPurchaseID:  f.KatoPurchase.OrZero().ID,
		KatoDeliveryID:  f.KatoDelivery.OrZero().ID,
		SpecsRu:         strings.TrimSpace(f.SpecsRu),
		SpecsKk:         strings.TrimSpace(f.SpecsKk),
		PricePerUnit:    price,
	}
	if f.agskRequired() {
		p.AgskCode = f.Agsk.WireCode()
	}
	if goods {
		unitID := f.Unit.OrZero().ID
		p.UnitID = &unitID
		p.Quantity, _ = parseNumber(f.Quantity)
		p.IsKtp = f.IsKtp
		p.ResidentShare = 100
		p.MinDVCPercent = 100
		return p, nil
	}

	share, _ := parseNumber(f.ResidentShare)
	p.Quantity = 1
	p.ResidentShare = share
	p.MinDVCPercent = share
	p.IsKtp = share == 100
	if share < 100 {
		reason := strings.TrimSpace(f.Reason)
		p.NonResidentReason = &reason
	}
	return p, nil
}

// parseNumber reads a decimal typed with either separator.
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func formatInput(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
