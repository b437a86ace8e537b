package service

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/alexanderramin/smeta/internal/store"
)

type catalogService struct {
	backend  Backend
	cache    *store.Store
	minChars int
}

// NewCatalogService returns a CatalogService that sends searches of at
// least minChars characters (ui.search_min_chars).
func NewCatalogService(backend Backend, cache *store.Store, minChars int) CatalogService {
	return &catalogService{backend: backend, cache: cache, minChars: minChars}
}

// searchable reports whether q is long enough to send.
func (s *catalogService) searchable(q string) (string, bool) {
	q = strings.TrimSpace(q)
	return q, utf8.RuneCountInString(q) >= s.minChars
}

func (s *catalogService) SearchEnstru(ctx context.Context, q string) ([]domain.Enstru, error) {
	q, ok := s.searchable(q)
	if !ok {
		return nil, nil
	}
	return s.backend.SearchEnstru(ctx, q)
}

// CheckKtp reports registry membership; any failure reads as not
// registered.
func (s *catalogService) CheckKtp(ctx context.Context, code string) bool {
	st, err := s.backend.CheckKtp(ctx, code)
	if err != nil {
		return false
	}
	return st.IsKtp
}

func (s *catalogService) SearchMkei(ctx context.Context, q string) ([]domain.Mkei, error) {
	q, ok := s.searchable(q)
	if !ok {
		return nil, nil
	}
	return s.backend.SearchMkei(ctx, q)
}

// CostItems and FundingSources are short fixed lists, cached for the
// session.
func (s *catalogService) CostItems(ctx context.Context) ([]domain.CostItem, error) {
	snap, err := store.Fetch(ctx, s.cache, store.Catalog("cost-items"), s.backend.CostItems)
	return snap.Value, err
}

func (s *catalogService) FundingSources(ctx context.Context) ([]domain.FundingSource, error) {
	snap, err := store.Fetch(ctx, s.cache, store.Catalog("funding-sources"), s.backend.FundingSources)
	return snap.Value, err
}

// SearchAgsk always offers the price-list option first.
func (s *catalogService) SearchAgsk(ctx context.Context, q string) ([]domain.AgskChoice, error) {
	out := []domain.AgskChoice{domain.PriceListAgsk()}
	q, ok := s.searchable(q)
	if !ok {
		return out, nil
	}
	found, err := s.backend.SearchAgsk(ctx, q)
	if err != nil {
		return nil, err
	}
	for _, a := range found {
		out = append(out, domain.AgskCode(a))
	}
	return out, nil
}

// KatoChildren lists one level of the region hierarchy; nil parentID is the
// top level.
func (s *catalogService) KatoChildren(ctx context.Context, parentID *int64) ([]domain.Kato, error) {
	key := store.Catalog("kato/root")
	if parentID != nil {
		key = store.Catalog("kato/" + strconv.FormatInt(*parentID, 10))
	}
	snap, err := store.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]domain.Kato, error) {
		return s.backend.SearchKato(ctx, parentID, "")
	})
	return snap.Value, err
}

func (s *catalogService) SearchKato(ctx context.Context, q string) ([]domain.Kato, error) {
	q, ok := s.searchable(q)
	if !ok {
		return nil, nil
	}
	return s.backend.SearchKato(ctx, nil, q)
}
