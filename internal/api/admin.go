package api

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

func (c *Client) AdminOverview(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.get(ctx, "/admin/analytics/overview", &out); err != nil {
		return nil, err
	}
	delete(out, "success")
	return out, nil
}

func (c *Client) UsageTrends(ctx context.Context, days int) ([]UsageTrend, error) {
	if days <= 0 {
		days = 30
	}
	var resp struct {
		Trends []UsageTrend `json:"trends"`
	}
	if err := c.get(ctx, "/admin/analytics/usage-trends?days="+strconv.Itoa(days), &resp); err != nil {
		return nil, err
	}
	return resp.Trends, nil
}

func (c *Client) ServerPerformance(ctx context.Context) ([]ServerPerformance, error) {
	var resp struct {
		Servers []ServerPerformance `json:"servers"`
	}
	if err := c.get(ctx, "/admin/analytics/server-performance", &resp); err != nil {
		return nil, err
	}
	return resp.Servers, nil
}

func (c *Client) Revenue(ctx context.Context) (Revenue, error) {
	var out Revenue
	err := c.get(ctx, "/admin/analytics/revenue", &out)
	return out, err
}

func (c *Client) ListPlans(ctx context.Context, activeOnly bool) ([]Plan, error) {
	q := url.Values{}
	if activeOnly {
		q.Set("is_active", "true")
	}
	var resp struct {
		Plans []Plan `json:"plans"`
	}
	if err := c.get(ctx, withQuery("/admin/plans", q), &resp); err != nil {
		return nil, err
	}
	return resp.Plans, nil
}

func validatePlan(p Plan) error {
	if strings.TrimSpace(p.Name) == "" {
		return Invalid("name", "plan name is required")
	}
	if strings.TrimSpace(p.Slug) == "" {
		return Invalid("slug", "plan slug is required")
	}
	if p.PriceMonthly < 0 || p.PriceYearly < 0 {
		return Invalid("price", "prices cannot be negative")
	}
	return nil
}

func (c *Client) CreatePlan(ctx context.Context, p Plan) (Plan, error) {
	if err := validatePlan(p); err != nil {
		return Plan{}, err
	}
	var resp struct {
		Plan Plan `json:"plan"`
	}
	if err := c.post(ctx, "/admin/plans", p, &resp); err != nil {
		return Plan{}, err
	}
	return resp.Plan, nil
}

// UpdatePlan sends a partial update.
func (c *Client) UpdatePlan(ctx context.Context, id string, fields map[string]any) (Plan, error) {
	if len(fields) == 0 {
		return Plan{}, Invalid("fields", "nothing to update")
	}
	var resp struct {
		Plan Plan `json:"plan"`
	}
	if err := c.put(ctx, "/admin/plans/"+pathEscape(id), fields, &resp); err != nil {
		return Plan{}, err
	}
	return resp.Plan, nil
}

func (c *Client) DeletePlan(ctx context.Context, id string) error {
	return c.del(ctx, "/admin/plans/"+pathEscape(id), nil)
}

func (c *Client) ListTeams(ctx context.Context, search string, limit, offset int) ([]AdminTeam, int, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	var resp struct {
		Teams []AdminTeam `json:"teams"`
		Total int         `json:"total"`
	}
	if err := c.get(ctx, withQuery("/admin/teams", q), &resp); err != nil {
		return nil, 0, err
	}
	return resp.Teams, resp.Total, nil
}
