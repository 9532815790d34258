package api

import "context"

func (c *Client) MCPConnectionInfo(ctx context.Context) (MCPConnectionInfo, error) {
	var out MCPConnectionInfo
	if err := c.get(ctx, dashboard+"/mcp/connection-info", &out); err != nil {
		return MCPConnectionInfo{}, err
	}
	return out, nil
}

// UpdateMCPMode sets the workspace default when serverID is empty, otherwise
// the override for one server ("inherit" clears it).
func (c *Client) UpdateMCPMode(ctx context.Context, mode, serverID string) error {
	body := map[string]string{"mode": mode}
	if serverID != "" {
		body["server_id"] = serverID
	}
	return c.put(ctx, dashboard+"/mcp/mode", body, nil)
}
