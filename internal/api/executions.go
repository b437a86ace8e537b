package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alexanderramin/smeta/internal/domain"
)

func (c *Client) CreateExecution(ctx context.Context, p domain.ExecutionPayload) (domain.Execution, error) {
	var out domain.Execution
	err := c.doJSON(ctx, http.MethodPost, "/executions", nil, p, &out)
	return out, err
}

func (c *Client) ListExecutions(ctx context.Context, itemID int64) ([]domain.Execution, error) {
	var out []domain.Execution
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/executions/by-item/%d", itemID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteExecution(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/executions/%d", id), nil, nil, nil)
}
