package domain

import "fmt"

type PlanStatus string

const (
	StatusDraft       PlanStatus = "DRAFT"
	StatusPreApproved PlanStatus = "PRE_APPROVED"
	StatusApproved    PlanStatus = "APPROVED"
)

// StatusExecuted is a display-only status that overlays a version whose
// is_executed flag is set. It is never sent to the server.
const StatusExecuted PlanStatus = "EXECUTED"

// ParsePlanStatus accepts the wire names case-insensitively.
func ParsePlanStatus(s string) (PlanStatus, error) {
	switch PlanStatus(upperASCII(s)) {
	case StatusDraft:
		return StatusDraft, nil
	case StatusPreApproved:
		return StatusPreApproved, nil
	case StatusApproved:
		return StatusApproved, nil
	}
	return "", fmt.Errorf("unknown plan status %q", s)
}

// Next returns the status that follows s, or false when s is terminal.
func (s PlanStatus) Next() (PlanStatus, bool) {
	switch s {
	case StatusDraft:
		return StatusPreApproved, true
	case StatusPreApproved:
		return StatusApproved, true
	}
	return "", false
}

// CanTransitionTo reports whether to is reachable from s in one step.
// Transitions are forward-only; re-applying the current status is a no-op
// that the server accepts.
func (s PlanStatus) CanTransitionTo(to PlanStatus) bool {
	if s == to {
		return true
	}
	next, ok := s.Next()
	return ok && next == to
}

// NeedType is the procurement category of an item. Wire values are the
// Russian labels the server stores.
type NeedType string

const (
	NeedGood    NeedType = "Товар"
	NeedWork    NeedType = "Работа"
	NeedService NeedType = "Услуга"
)

// AllNeedTypes lists need types in display order.
var AllNeedTypes = []NeedType{NeedGood, NeedWork, NeedService}

// Rank orders need types: goods first, then works, then services.
// Unknown values sort last.
func (n NeedType) Rank() int {
	switch n {
	case NeedGood:
		return 0
	case NeedWork:
		return 1
	case NeedService:
		return 2
	}
	return 3
}

// Letter is the single-letter suffix used in item display numbers.
func (n NeedType) Letter() string {
	switch n {
	case NeedGood:
		return "Т"
	case NeedWork:
		return "Р"
	case NeedService:
		return "У"
	}
	return ""
}

// TranslationKey returns the i18n key for the need type label.
func (n NeedType) TranslationKey() string {
	switch n {
	case NeedGood:
		return "need_type_goods"
	case NeedWork:
		return "need_type_works"
	case NeedService:
		return "need_type_services"
	}
	return "need_type"
}

// ParseNeedType accepts the wire label or the short aliases good/work/service.
func ParseNeedType(s string) (NeedType, error) {
	switch s {
	case string(NeedGood), "good", "goods", "G", "Т":
		return NeedGood, nil
	case string(NeedWork), "work", "works", "W", "Р":
		return NeedWork, nil
	case string(NeedService), "service", "services", "S", "У":
		return NeedService, nil
	}
	return "", fmt.Errorf("unknown need type %q", s)
}

// CatalogType is the commodity catalog's classification of an entry.
type CatalogType string

const (
	CatalogGoods    CatalogType = "GOODS"
	CatalogWorks    CatalogType = "WORKS"
	CatalogServices CatalogType = "SERVICES"
)

// NeedType maps the catalog classification to an item need type.
func (c CatalogType) NeedType() NeedType {
	switch c {
	case CatalogGoods:
		return NeedGood
	case CatalogWorks:
		return NeedWork
	default:
		return NeedService
	}
}

// CatalogType is the catalog classification matching the need type.
func (n NeedType) CatalogType() CatalogType {
	switch n {
	case NeedGood:
		return CatalogGoods
	case NeedWork:
		return CatalogWorks
	}
	return CatalogServices
}

type Lang string

const (
	LangRu Lang = "ru"
	LangKk Lang = "kk"
)

// ParseLang validates a language code.
func ParseLang(s string) (Lang, error) {
	switch Lang(s) {
	case LangRu, LangKk:
		return Lang(s), nil
	}
	return "", fmt.Errorf("unsupported language %q (use ru or kk)", s)
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
