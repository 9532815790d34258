package api

import "context"

// Health calls the unauthenticated health endpoint. A 503 surfaces as an error
// matching ErrMaintenance.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.getPublic(ctx, "/health", &out)
	return out, err
}

// DashboardHealth reports workspace level health.
func (c *Client) DashboardHealth(ctx context.Context) (Health, error) {
	var out Health
	err := c.get(ctx, dashboard+"/health", &out)
	return out, err
}
