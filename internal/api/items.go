package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alexanderramin/smeta/internal/domain"
)

// AddItem appends an item to the plan's active version.
func (c *Client) AddItem(ctx context.Context, planID int64, p domain.ItemPayload) (domain.Item, error) {
	var out domain.Item
	err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/plans/%d/items", planID), nil, p, &out)
	return out, err
}

// GetItem returns the item with its version embedded.
func (c *Client) GetItem(ctx context.Context, id int64) (domain.Item, error) {
	var out domain.Item
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/items/%d", id), nil, nil, &out)
	return out, err
}

func (c *Client) UpdateItem(ctx context.Context, id int64, p domain.ItemPayload) (domain.Item, error) {
	var out domain.Item
	err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/items/%d", id), nil, p, &out)
	return out, err
}

// DeleteItem soft-deletes the item.
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/items/%d", id), nil, nil, nil)
}

// RevertItem restores the item to its state in the source version.
func (c *Client) RevertItem(ctx context.Context, id int64) (domain.Item, error) {
	var out domain.Item
	err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/items/%d/revert", id), nil, nil, &out)
	return out, err
}
