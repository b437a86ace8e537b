package testutil

import "github.com/alexanderramin/smeta/internal/domain"

// Catalog codes seeded by DefaultCatalog.
const (
	CodeSteel       = "251111.100.000000"
	CodeTransformer = "271011.300.000001"
	CodePipeline    = "422110.100.000000"
	CodeEngineering = "711210.000.000001"

	UnitTonne = int64(1)
	UnitPiece = int64(2)

	CostConstruction = int64(1)
	CostMaterials    = int64(2)
	CostServices     = int64(3)

	FundingOwn      = int64(1)
	FundingBorrowed = int64(2)

	KatoAlmaty   = int64(1)
	KatoAlmaly   = int64(2)
	KatoAstana   = int64(3)
	AgskPipeline = "A-101"
)

// Catalog is the reference data a Backend serves. Ktp maps commodity codes
// in the domestic-producer registry to their local-content percentage.
type Catalog struct {
	Enstru         []domain.Enstru
	Mkei           []domain.Mkei
	CostItems      []domain.CostItem
	FundingSources []domain.FundingSource
	Agsk           []domain.Agsk
	Kato           []domain.Kato
	Ktp            map[string]float64
}

// DefaultCatalog covers one commodity per need type plus a KTP-registered
// good.
func DefaultCatalog() Catalog {
	return Catalog{
		Enstru: []domain.Enstru{
			{ID: 1, Code: CodeSteel, NameRu: "Конструкции стальные", NameKk: "Болат құрылымдар", TypeName: domain.CatalogGoods, UnitLabel: "тонна"},
			{ID: 2, Code: CodeTransformer, NameRu: "Трансформатор силовой", NameKk: "Күштік трансформатор", TypeName: domain.CatalogGoods, UnitLabel: "штука"},
			{ID: 3, Code: CodePipeline, NameRu: "Работы по строительству трубопроводов", NameKk: "Құбыр салу жұмыстары", TypeName: domain.CatalogWorks},
			{ID: 4, Code: CodeEngineering, NameRu: "Услуги инженерные", NameKk: "Инженерлік қызметтер", TypeName: domain.CatalogServices},
		},
		Mkei: []domain.Mkei{
			{ID: UnitTonne, Code: "168", NameRu: "тонна", NameKk: "тонна"},
			{ID: UnitPiece, Code: "796", NameRu: "штука", NameKk: "дана"},
		},
		CostItems: []domain.CostItem{
			{ID: CostConstruction, NameRu: domain.ConstructionCostItem, NameKk: "ҚМЖ"},
			{ID: CostMaterials, NameRu: "Материалы", NameKk: "Материалдар"},
			{ID: CostServices, NameRu: "Услуги сторонних организаций", NameKk: "Бөгде ұйымдардың қызметтері"},
		},
		FundingSources: []domain.FundingSource{
			{ID: FundingOwn, NameRu: "Собственные средства", NameKk: "Меншікті қаражат"},
			{ID: FundingBorrowed, NameRu: "Заемные средства", NameKk: "Қарыз қаражаты"},
		},
		Agsk: []domain.Agsk{
			{ID: 1, Group: "Трубопроводы", Code: AgskPipeline, NameRu: "Прокладка стальных трубопроводов"},
		},
		Kato: []domain.Kato{
			{ID: KatoAlmaty, Code: "750000000", NameRu: "г. Алматы", NameKk: "Алматы қ."},
			{ID: KatoAlmaly, ParentID: ptr(KatoAlmaty), Code: "751210000", NameRu: "Алмалинский район", NameKk: "Алмалы ауданы"},
			{ID: KatoAstana, Code: "710000000", NameRu: "г. Астана", NameKk: "Астана қ."},
		},
		Ktp: map[string]float64{CodeSteel: 60},
	}
}

func (c Catalog) enstru(code string) (domain.Enstru, bool) {
	for _, e := range c.Enstru {
		if e.Code == code {
			return e, true
		}
	}
	return domain.Enstru{}, false
}

func (c Catalog) mkei(id int64) (domain.Mkei, bool) {
	for _, m := range c.Mkei {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Mkei{}, false
}

func (c Catalog) mkeiByCode(code string) (domain.Mkei, bool) {
	for _, m := range c.Mkei {
		if m.Code == code {
			return m, true
		}
	}
	return domain.Mkei{}, false
}

func (c Catalog) costItem(id int64) (domain.CostItem, bool) {
	for _, ci := range c.CostItems {
		if ci.ID == id {
			return ci, true
		}
	}
	return domain.CostItem{}, false
}

func (c Catalog) fundingSource(id int64) (domain.FundingSource, bool) {
	for _, f := range c.FundingSources {
		if f.ID == id {
			return f, true
		}
	}
	return domain.FundingSource{}, false
}

func (c Catalog) agsk(code string) (domain.Agsk, bool) {
	for _, a := range c.Agsk {
		if a.Code == code {
			return a, true
		}
	}
	return domain.Agsk{}, false
}

func (c Catalog) kato(id int64) (domain.Kato, bool) {
	for _, k := range c.Kato {
		if k.ID == id {
			return k, true
		}
	}
	return domain.Kato{}, false
}

func (c Catalog) katoByCode(code string) (domain.Kato, bool) {
	for _, k := range c.Kato {
		if k.Code == code {
			return k, true
		}
	}
	return domain.Kato{}, false
}
