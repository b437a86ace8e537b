package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/alexanderramin/smeta/internal/domain"
)

func searchQuery(q string) url.Values {
	if q == "" {
		return nil
	}
	return url.Values{"q": {q}}
}

func (c *Client) SearchEnstru(ctx context.Context, q string) ([]domain.Enstru, error) {
	var out []domain.Enstru
	err := c.doJSON(ctx, http.MethodGet, "/lookups/enstru", searchQuery(q), nil, &out)
	return out, err
}

// CheckKtp reports whether goods under code are domestically produced.
func (c *Client) CheckKtp(ctx context.Context, code string) (domain.KtpStatus, error) {
	var out domain.KtpStatus
	err := c.doJSON(ctx, http.MethodGet, "/lookups/enstru/"+url.PathEscape(code)+"/ktp", nil, nil, &out)
	return out, err
}

func (c *Client) SearchMkei(ctx context.Context, q string) ([]domain.Mkei, error) {
	var out []domain.Mkei
	err := c.doJSON(ctx, http.MethodGet, "/lookups/mkei", searchQuery(q), nil, &out)
	return out, err
}

func (c *Client) CostItems(ctx context.Context) ([]domain.CostItem, error) {
	var out []domain.CostItem
	err := c.doJSON(ctx, http.MethodGet, "/lookups/cost-items", nil, nil, &out)
	return out, err
}

func (c *Client) FundingSources(ctx context.Context) ([]domain.FundingSource, error) {
	var out []domain.FundingSource
	err := c.doJSON(ctx, http.MethodGet, "/lookups/funding-sources", nil, nil, &out)
	return out, err
}

func (c *Client) SearchAgsk(ctx context.Context, q string) ([]domain.Agsk, error) {
	var out []domain.Agsk
	err := c.doJSON(ctx, http.MethodGet, "/lookups/agsk", searchQuery(q), nil, &out)
	return out, err
}

// SearchKato lists region codes under parentID (top level when nil),
// optionally filtered by q.
func (c *Client) SearchKato(ctx context.Context, parentID *int64, q string) ([]domain.Kato, error) {
	query := url.Values{}
	if parentID != nil {
		query.Set("parent_id", strconv.FormatInt(*parentID, 10))
	}
	if q != "" {
		query.Set("q", q)
	}
	var out []domain.Kato
	err := c.doJSON(ctx, http.MethodGet, "/lookups/kato", query, nil, &out)
	return out, err
}
