package domain

// Enstru is an entry of the commodity classification catalog.
type Enstru struct {
	ID        int64       `json:"id"`
	Code      string      `json:"code"`
	NameRu    string      `json:"name_rus"`
	NameKk    string      `json:"name_kaz"`
	TypeName  CatalogType `json:"type_name"`
	DetailRu  string      `json:"detail_rus,omitempty"`
	DetailKk  string      `json:"detail_kaz,omitempty"`
	UnitLabel string      `json:"uom,omitempty"`
}

func (e Enstru) Name(lang Lang) string   { return pick(lang, e.NameRu, e.NameKk) }
func (e Enstru) Detail(lang Lang) string { return pick(lang, e.DetailRu, e.DetailKk) }

// NeedType derives the item need type from the catalog classification.
func (e Enstru) NeedType() NeedType { return e.TypeName.NeedType() }

// Mkei is a unit of measure.
type Mkei struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	NameRu string `json:"name_ru"`
	NameKk string `json:"name_kz"`
}

func (m Mkei) Name(lang Lang) string { return pick(lang, m.NameRu, m.NameKk) }

// Kato is a node of the administrative-region hierarchy.
type Kato struct {
	ID       int64  `json:"id"`
	ParentID *int64 `json:"parent_id"`
	Code     string `json:"code"`
	NameRu   string `json:"name_ru"`
	NameKk   string `json:"name_kz"`
}

func (k Kato) Name(lang Lang) string { return pick(lang, k.NameRu, k.NameKk) }

// Agsk is a construction-works classification code.
type Agsk struct {
	ID     int64  `json:"id"`
	Group  string `json:"group"`
	Code   string `json:"code"`
	NameRu string `json:"name_ru"`
}

// CostItem is an expense category.
type CostItem struct {
	ID     int64  `json:"id"`
	NameRu string `json:"name_ru"`
	NameKk string `json:"name_kz"`
}

func (c CostItem) Name(lang Lang) string { return pick(lang, c.NameRu, c.NameKk) }

// ConstructionCostItem is the Russian name of the construction-works
// expense category that makes a construction code mandatory.
const ConstructionCostItem = "СМР"

// IsConstruction reports whether the category is construction works.
func (c CostItem) IsConstruction() bool { return c.NameRu == ConstructionCostItem }

// FundingSource is a budget funding source.
type FundingSource struct {
	ID     int64  `json:"id"`
	NameRu string `json:"name_ru"`
	NameKk string `json:"name_kz"`
}

func (f FundingSource) Name(lang Lang) string { return pick(lang, f.NameRu, f.NameKk) }

// UserLookup is the compact user reference embedded in versions.
type UserLookup struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

func pick(lang Lang, ru, kk string) string {
	if lang == LangKk && kk != "" {
		return kk
	}
	return ru
}
