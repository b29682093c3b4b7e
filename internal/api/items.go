package api

import (
	"context"
	"fmt"
	"net/url"
)

// GetItems fetches the complete item catalog in a single call.
func (c *Client) GetItems(ctx context.Context) ([]APIItem, error) {
	var resp ItemsResponse
	if err := c.FetchJSON(ctx, "/items", nil, &resp); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	return resp.Data, nil
}

// GetItemOrders fetches all live orders for an item across platforms.
func (c *Client) GetItemOrders(ctx context.Context, slug string) ([]APIOrder, error) {
	var resp OrdersResponse
	if err := c.FetchJSON(ctx, "/orders/item/"+url.PathEscape(slug), nil, &resp); err != nil {
		return nil, fmt.Errorf("get orders %s: %w", slug, err)
	}
	return resp.Data, nil
}
