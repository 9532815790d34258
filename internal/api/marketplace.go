package api

import (
	"context"
	"net/url"
)

type MarketplaceFilter struct {
	Category    string
	Subcategory string
	Search      string
	Provider    string
}

func (c *Client) ListMarketplace(ctx context.Context, f MarketplaceFilter) ([]MarketplaceMCP, error) {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Subcategory != "" {
		q.Set("subcategory", f.Subcategory)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Provider != "" && f.Provider != "all" {
		q.Set("provider", f.Provider)
	}
	var resp struct {
		MCPs []MarketplaceMCP `json:"mcps"`
	}
	if err := c.get(ctx, withQuery("/public/marketplace", q), &resp); err != nil {
		return nil, err
	}
	if resp.MCPs == nil {
		resp.MCPs = []MarketplaceMCP{}
	}
	return resp.MCPs, nil
}

func (c *Client) GetMarketplace(ctx context.Context, slug string) (MarketplaceMCP, error) {
	var resp struct {
		MCP MarketplaceMCP `json:"mcp"`
	}
	if err := c.get(ctx, "/public/marketplace/"+pathEscape(slug), &resp); err != nil {
		return MarketplaceMCP{}, err
	}
	return resp.MCP, nil
}
