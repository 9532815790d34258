package api

import (
	"context"
	"strings"
)

func (c *Client) ListWorkspaces(ctx context.Context) (WorkspaceList, error) {
	var out WorkspaceList
	if err := c.get(ctx, dashboard+"/workspaces", &out); err != nil {
		return WorkspaceList{}, err
	}
	return out, nil
}

// SwitchWorkspace moves the server-side default workspace pointer.
func (c *Client) SwitchWorkspace(ctx context.Context, id string) (Workspace, error) {
	var resp struct {
		Team Workspace `json:"team"`
	}
	if err := c.post(ctx, dashboard+"/workspaces/"+pathEscape(id)+"/switch", nil, &resp); err != nil {
		return Workspace{}, err
	}
	if resp.Team.ID == "" {
		resp.Team.ID = id
	}
	return resp.Team, nil
}

func (c *Client) CreateWorkspace(ctx context.Context, name string) (Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Workspace{}, Invalid("name", "workspace name is required")
	}
	var resp struct {
		Team Workspace `json:"team"`
	}
	if err := c.post(ctx, dashboard+"/workspaces", map[string]string{"name": name}, &resp); err != nil {
		return Workspace{}, err
	}
	if resp.Team.Name == "" {
		resp.Team.Name = name
	}
	return resp.Team, nil
}

func (c *Client) UpdateWorkspace(ctx context.Context, id, name string) (Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Workspace{}, Invalid("name", "workspace name is required")
	}
	var resp struct {
		Team Workspace `json:"team"`
	}
	if err := c.patch(ctx, dashboard+"/workspaces/"+pathEscape(id), map[string]string{"name": name}, &resp); err != nil {
		return Workspace{}, err
	}
	return resp.Team, nil
}

func (c *Client) DeleteWorkspace(ctx context.Context, id string) error {
	return c.del(ctx, dashboard+"/workspaces/"+pathEscape(id), nil)
}

func (c *Client) LeaveWorkspace(ctx context.Context, id string) error {
	return c.post(ctx, dashboard+"/workspaces/"+pathEscape(id)+"/leave", nil, nil)
}

func (c *Client) TransferWorkspace(ctx context.Context, id, newOwnerID string) error {
	if strings.TrimSpace(newOwnerID) == "" {
		return Invalid("owner", "new owner is required")
	}
	return c.post(ctx, dashboard+"/workspaces/"+pathEscape(id)+"/transfer", map[string]string{"new_owner_id": newOwnerID}, nil)
}
