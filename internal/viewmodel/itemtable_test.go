package viewmodel

import (
	"testing"

	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableItem(id int64, number int, need domain.NeedType, code string) domain.Item {
	return domain.Item{ID: id, Number: number, NeedType: need, TruCode: code}
}

func itemIDs(p TablePage) []int64 {
	var ids []int64
	for _, r := range p.Rows {
		if !r.Header {
			ids = append(ids, r.Item.ID)
		}
	}
	return ids
}

func TestItemFilter_QuerySingleMatch(t *testing.T) {
	items := []domain.Item{
		tableItem(1, 1, domain.NeedGood, "A"),
		tableItem(2, 1, domain.NeedWork, "B"),
	}

	p := BuildItemTable(items, ItemFilter{Query: "a"}, 0, 10)
	assert.Equal(t, []int64{1}, itemIDs(p))
	assert.Equal(t, 1, p.Matched)
}

func TestItemFilter_SearchesNamesSpecsAndConstructionCode(t *testing.T) {
	it := domain.Item{
		TruCode: "X",
		SpecsKk: "Қағаз",
		Enstru:  &domain.Enstru{NameRu: "Бумага офисная", NameKk: "Кеңсе"},
		Agsk:    &domain.Agsk{Code: "G2-17"},
	}
	for _, q := range []string{"бумага", "КЕҢСЕ", "қағаз", "g2-1"} {
		assert.True(t, ItemFilter{Query: q}.Match(&it), "query %q", q)
	}
	assert.False(t, ItemFilter{Query: "нет"}.Match(&it))
}

func TestItemFilter_PredicatesAreAndCombined(t *testing.T) {
	a := tableItem(1, 1, domain.NeedGood, "AA")
	a.IsKtp = true
	b := tableItem(2, 2, domain.NeedGood, "AB")
	c := tableItem(3, 1, domain.NeedService, "AC")
	c.IsKtp = true
	items := []domain.Item{a, b, c}

	assert.Equal(t, []int64{1, 2, 3}, itemIDs(BuildItemTable(items, ItemFilter{Query: "a"}, 0, 10)))
	assert.Equal(t, []int64{1, 3}, itemIDs(BuildItemTable(items, ItemFilter{Query: "a", KtpOnly: true}, 0, 10)))

	onlyServices := ItemFilter{Query: "a", KtpOnly: true, NeedTypes: NewNeedTypeSet(domain.NeedService)}
	assert.Equal(t, []int64{3}, itemIDs(BuildItemTable(items, onlyServices, 0, 10)))
}

func TestSortItems_RankThenDeletedThenNumber(t *testing.T) {
	deleted := tableItem(4, 1, domain.NeedGood, "D")
	deleted.IsDeleted = true
	items := []domain.Item{
		tableItem(1, 2, domain.NeedService, "S"),
		deleted,
		tableItem(2, 3, domain.NeedGood, "G3"),
		tableItem(3, 1, domain.NeedWork, "W"),
		tableItem(5, 2, domain.NeedGood, "G2"),
	}

	p := BuildItemTable(items, ItemFilter{}, 0, 10)
	assert.Equal(t, []int64{5, 2, 4, 3, 1}, itemIDs(p))
}

func TestBuildItemTable_HeadersComputedPerPage(t *testing.T) {
	items := []domain.Item{
		tableItem(1, 1, domain.NeedGood, "G1"),
		tableItem(2, 2, domain.NeedGood, "G2"),
		tableItem(3, 3, domain.NeedGood, "G3"),
		tableItem(4, 1, domain.NeedWork, "W1"),
	}

	first := BuildItemTable(items, ItemFilter{}, 0, 2)
	require.Len(t, first.Rows, 3)
	assert.True(t, first.Rows[0].Header)
	assert.Equal(t, domain.NeedGood, first.Rows[0].NeedType)

	second := BuildItemTable(items, ItemFilter{}, 1, 2)
	require.Len(t, second.Rows, 4)
	assert.True(t, second.Rows[0].Header, "page starts with a header even mid-group")
	assert.Equal(t, domain.NeedGood, second.Rows[0].NeedType)
	assert.True(t, second.Rows[2].Header)
	assert.Equal(t, domain.NeedWork, second.Rows[2].NeedType)
	assert.Equal(t, 2, second.TotalPages)
	assert.Equal(t, 2, second.ItemCount())
}

func TestBuildItemTable_ClampsPage(t *testing.T) {
	items := []domain.Item{tableItem(1, 1, domain.NeedGood, "A")}
	assert.Equal(t, 0, BuildItemTable(items, ItemFilter{}, 5, 10).Page)
	assert.Equal(t, 0, BuildItemTable(nil, ItemFilter{}, 3, 10).Page)
	assert.Equal(t, 0, BuildItemTable(nil, ItemFilter{}, 0, 10).TotalPages)
}

func TestTableState_FilterAndPageSizeResetPage(t *testing.T) {
	s := NewTableState(10).WithPage(3)
	assert.Equal(t, 3, s.Page)

	assert.Equal(t, 0, s.WithQuery("a").Page)
	assert.Equal(t, 0, s.ToggleKtpOnly().Page)
	assert.Equal(t, 0, s.ToggleNeedType(domain.NeedWork).Page)
	assert.Equal(t, 0, s.WithPageSize(25).Page)

	assert.Equal(t, 3, s.WithQuery("").Page, "unchanged filter keeps the page")
	assert.Equal(t, 3, s.WithPageSize(10).Page)
}

func TestNeedTypeSet(t *testing.T) {
	var s NeedTypeSet
	assert.True(t, s.Includes(domain.NeedWork), "empty set includes everything")

	s = s.Toggle(domain.NeedGood).Toggle(domain.NeedService)
	assert.Equal(t, []domain.NeedType{domain.NeedGood, domain.NeedService}, s.Types())
	assert.False(t, s.Includes(domain.NeedWork))
	assert.Equal(t, NeedTypeSet(0), s.Toggle(domain.NeedGood).Toggle(domain.NeedService))
}

func TestItemTable_MemoizedByStateAndRevision(t *testing.T) {
	var tbl ItemTable
	items := []domain.Item{tableItem(1, 1, domain.NeedGood, "A")}
	s := NewTableState(10)

	tbl.Page(items, 1, s)
	tbl.Page(items, 1, s)
	assert.Equal(t, 1, tbl.memo.computes)

	tbl.Page(items, 2, s)
	tbl.Page(items, 2, s.WithQuery("z"))
	assert.Equal(t, 3, tbl.memo.computes)
}
