package api

import (
	"context"
	"strings"
)

const dashboard = "/auth/dashboard"

func (c *Client) ListServers(ctx context.Context) ([]Server, error) {
	var resp struct {
		Servers []Server `json:"servers"`
	}
	if err := c.get(ctx, dashboard+"/servers", &resp); err != nil {
		return nil, err
	}
	if resp.Servers == nil {
		resp.Servers = []Server{}
	}
	return resp.Servers, nil
}

func (c *Client) GetServer(ctx context.Context, id string) (Server, error) {
	var resp struct {
		Server Server `json:"server"`
	}
	if err := c.get(ctx, dashboard+"/servers/"+pathEscape(id), &resp); err != nil {
		return Server{}, err
	}
	return resp.Server, nil
}

func (c *Client) DeployServer(ctx context.Context, in DeployRequest) (Server, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Server{}, Invalid("name", "server name is required")
	}
	if in.Type == "" {
		return Server{}, Invalid("type", "server type is required")
	}
	var resp struct {
		Server  Server `json:"server"`
		Message string `json:"message"`
	}
	if err := c.post(ctx, dashboard+"/servers", in, &resp); err != nil {
		return Server{}, err
	}
	return resp.Server, nil
}

func (c *Client) DeleteServer(ctx context.Context, id string) error {
	return c.del(ctx, dashboard+"/servers/"+pathEscape(id), nil)
}

// ServerAction is a lifecycle transition accepted by the backend.
type ServerAction string

const (
	ActionStart    ServerAction = "start"
	ActionStop     ServerAction = "stop"
	ActionRestart  ServerAction = "restart"
	ActionActivate ServerAction = "activate"
)

func (c *Client) ServerAction(ctx context.Context, id string, action ServerAction) error {
	switch action {
	case ActionStart, ActionStop, ActionRestart:
		return c.post(ctx, dashboard+"/servers/"+pathEscape(id)+"/"+string(action), nil, nil)
	case ActionActivate:
		// activation lives outside the dashboard prefix
		return c.post(ctx, "/servers/"+pathEscape(id)+"/activate", nil, nil)
	default:
		return Invalid("action", "unknown server action "+string(action))
	}
}

func (c *Client) ConnectionInfo(ctx context.Context, serverID string) (ConnectionInfo, error) {
	var resp struct {
		Connection ConnectionInfo `json:"connection"`
	}
	if err := c.get(ctx, dashboard+"/servers/"+pathEscape(serverID)+"/connection-info", &resp); err != nil {
		return ConnectionInfo{}, err
	}
	return resp.Connection, nil
}

func (c *Client) PlanLimits(ctx context.Context) (PlanLimits, error) {
	var out PlanLimits
	err := c.get(ctx, dashboard+"/limits", &out)
	return out, err
}

func (c *Client) Metrics(ctx context.Context) (Metrics, error) {
	var out Metrics
	err := c.get(ctx, dashboard+"/metrics", &out)
	return out, err
}
