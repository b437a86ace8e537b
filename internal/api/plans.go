package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/alexanderramin/smeta/internal/domain"
)

func (c *Client) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	var out []domain.Plan
	if err := c.doJSON(ctx, http.MethodGet, "/plans", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreatePlan(ctx context.Context, p domain.PlanPayload) (domain.Plan, error) {
	var out domain.Plan
	err := c.doJSON(ctx, http.MethodPost, "/plans", nil, p, &out)
	return out, err
}

// GetPlan returns the plan with every version and its items.
func (c *Client) GetPlan(ctx context.Context, id int64) (domain.Plan, error) {
	var out domain.Plan
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/plans/%d", id), nil, nil, &out)
	return out, err
}

func (c *Client) DeletePlan(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/plans/%d", id), nil, nil, nil)
}

// CreateVersion clones the active version into a new draft.
func (c *Client) CreateVersion(ctx context.Context, planID int64) (domain.Version, error) {
	var out domain.Version
	err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/plans/%d/versions", planID), nil, nil, &out)
	return out, err
}

func (c *Client) SetVersionStatus(ctx context.Context, planID, versionID int64, status domain.PlanStatus) (domain.Version, error) {
	var out domain.Version
	path := fmt.Sprintf("/plans/%d/versions/%d/status", planID, versionID)
	err := c.doJSON(ctx, http.MethodPatch, path, nil, domain.StatusPayload{Status: status}, &out)
	return out, err
}

func (c *Client) DeleteLatestVersion(ctx context.Context, planID int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/plans/%d/versions/latest", planID), nil, nil, nil)
}

func decode(resp *response, out any) error {
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
