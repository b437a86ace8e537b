package viewmodel

import (
	"cmp"
	"slices"
	"strings"

	"github.com/alexanderramin/smeta/internal/domain"
)

// NeedTypeSet is a multi-select of need types. The empty set includes all.
type NeedTypeSet uint8

func needBit(n domain.NeedType) NeedTypeSet {
	r := n.Rank()
	if r > 2 {
		return 0
	}
	return 1 << r
}

// NewNeedTypeSet builds a set from types.
func NewNeedTypeSet(types ...domain.NeedType) NeedTypeSet {
	var s NeedTypeSet
	for _, t := range types {
		s |= needBit(t)
	}
	return s
}

func (s NeedTypeSet) Has(n domain.NeedType) bool { return s&needBit(n) != 0 }

// Toggle adds or removes n.
func (s NeedTypeSet) Toggle(n domain.NeedType) NeedTypeSet { return s ^ needBit(n) }

// Includes reports whether items of type n pass the filter.
func (s NeedTypeSet) Includes(n domain.NeedType) bool { return s == 0 || s.Has(n) }

// Types lists the members in rank order.
func (s NeedTypeSet) Types() []domain.NeedType {
	var out []domain.NeedType
	for _, n := range domain.AllNeedTypes {
		if s.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

// ItemFilter narrows a version's items. All predicates must hold.
type ItemFilter struct {
	Query     string
	KtpOnly   bool
	NeedTypes NeedTypeSet
}

// Match reports whether it passes the filter. The query is a
// case-insensitive substring of the code, either name, the construction
// code or either specification text.
func (f ItemFilter) Match(it *domain.Item) bool {
	if f.KtpOnly && !it.IsKtp {
		return false
	}
	if !f.NeedTypes.Includes(it.NeedType) {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	haystack := []string{it.TruCode, it.SpecsRu, it.SpecsKk}
	if it.Enstru != nil {
		haystack = append(haystack, it.Enstru.NameRu, it.Enstru.NameKk)
	}
	if it.Agsk != nil {
		haystack = append(haystack, it.Agsk.Code)
	}
	for _, s := range haystack {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

// SortItems orders by need-type rank, then live before deleted, then item
// number. The input is not modified.
func SortItems(items []*domain.Item) []*domain.Item {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b *domain.Item) int {
		if c := cmp.Compare(a.NeedType.Rank(), b.NeedType.Rank()); c != 0 {
			return c
		}
		if a.IsDeleted != b.IsDeleted {
			if a.IsDeleted {
				return 1
			}
			return -1
		}
		return cmp.Compare(a.Number, b.Number)
	})
	return out
}

// Row is one line of the item table: a group header or an item.
type Row struct {
	Header   bool
	NeedType domain.NeedType
	Item     *domain.Item
}

// TablePage is the visible page of the item table.
type TablePage struct {
	Rows       []Row
	Page       int
	PageSize   int
	TotalPages int
	Matched    int
}

// ItemCount is the number of item rows on the page.
func (p TablePage) ItemCount() int {
	n := 0
	for _, r := range p.Rows {
		if !r.Header {
			n++
		}
	}
	return n
}

// BuildItemTable filters, sorts and paginates items. Group headers are
// inserted on the visible page only, whenever the need type differs from
// the previous row on that page.
func BuildItemTable(items []domain.Item, filter ItemFilter, page, pageSize int) TablePage {
	if pageSize <= 0 {
		pageSize = 10
	}
	matched := make([]*domain.Item, 0, len(items))
	for i := range items {
		if filter.Match(&items[i]) {
			matched = append(matched, &items[i])
		}
	}
	sorted := SortItems(matched)

	total := (len(sorted) + pageSize - 1) / pageSize
	page = clampPage(page, total)
	start := min(page*pageSize, len(sorted))
	end := min(start+pageSize, len(sorted))

	out := TablePage{Page: page, PageSize: pageSize, TotalPages: total, Matched: len(sorted)}
	var prev domain.NeedType
	for i, it := range sorted[start:end] {
		if i == 0 || it.NeedType != prev {
			out.Rows = append(out.Rows, Row{Header: true, NeedType: it.NeedType})
		}
		out.Rows = append(out.Rows, Row{NeedType: it.NeedType, Item: it})
		prev = it.NeedType
	}
	return out
}

func clampPage(page, total int) int {
	if page >= total {
		page = total - 1
	}
	if page < 0 {
		page = 0
	}
	return page
}

// TableState is the user-controlled part of the item table. Any filter
// or page-size change returns to the first page.
type TableState struct {
	Filter   ItemFilter
	Page     int
	PageSize int
}

func NewTableState(pageSize int) TableState {
	return TableState{PageSize: pageSize}
}

func (s TableState) WithFilter(f ItemFilter) TableState {
	if f != s.Filter {
		s.Filter = f
		s.Page = 0
	}
	return s
}

func (s TableState) WithQuery(q string) TableState {
	f := s.Filter
	f.Query = q
	return s.WithFilter(f)
}

func (s TableState) ToggleKtpOnly() TableState {
	f := s.Filter
	f.KtpOnly = !f.KtpOnly
	return s.WithFilter(f)
}

func (s TableState) ToggleNeedType(n domain.NeedType) TableState {
	f := s.Filter
	f.NeedTypes = f.NeedTypes.Toggle(n)
	return s.WithFilter(f)
}

func (s TableState) WithPageSize(size int) TableState {
	if size > 0 && size != s.PageSize {
		s.PageSize = size
		s.Page = 0
	}
	return s
}

func (s TableState) WithPage(page int) TableState {
	s.Page = max(page, 0)
	return s
}

type tableKey struct {
	State    TableState
	Revision uint64
}

// ItemTable memoizes BuildItemTable per table state and item revision.
type ItemTable struct {
	memo Memo[tableKey, TablePage]
}

// Page returns the visible page. revision identifies the items snapshot.
func (t *ItemTable) Page(items []domain.Item, revision uint64, s TableState) TablePage {
	return t.memo.Get(tableKey{State: s, Revision: revision}, func() TablePage {
		return BuildItemTable(items, s.Filter, s.Page, s.PageSize)
	})
}
