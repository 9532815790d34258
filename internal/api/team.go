package api

import (
	"context"
	"net/mail"
	"strings"
)

var memberRoles = map[string]bool{"owner": true, "admin": true, "member": true, "viewer": true}

func (c *Client) ListTeam(ctx context.Context) ([]TeamMember, error) {
	var resp struct {
		Members []TeamMember `json:"members"`
	}
	if err := c.get(ctx, dashboard+"/team", &resp); err != nil {
		return nil, err
	}
	if resp.Members == nil {
		resp.Members = []TeamMember{}
	}
	return resp.Members, nil
}

func (c *Client) InviteMember(ctx context.Context, email, role string) (TeamMember, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return TeamMember{}, Invalid("email", "a valid email address is required")
	}
	if role == "" {
		role = "member"
	}
	if !memberRoles[role] || role == "owner" {
		return TeamMember{}, Invalid("role", "role must be admin, member or viewer")
	}
	var resp struct {
		Member TeamMember `json:"member"`
	}
	if err := c.post(ctx, dashboard+"/team/invite", map[string]string{"email": email, "role": role}, &resp); err != nil {
		return TeamMember{}, err
	}
	return resp.Member, nil
}

func (c *Client) UpdateMemberRole(ctx context.Context, memberID, role string) error {
	if !memberRoles[role] {
		return Invalid("role", "unknown role "+role)
	}
	return c.put(ctx, dashboard+"/team/"+pathEscape(memberID)+"/role", map[string]string{"role": role}, nil)
}

func (c *Client) RemoveMember(ctx context.Context, memberID string) error {
	return c.del(ctx, dashboard+"/team/"+pathEscape(memberID), nil)
}

func (c *Client) ResendInvite(ctx context.Context, memberID string) error {
	return c.post(ctx, dashboard+"/team/"+pathEscape(memberID)+"/resend", nil, nil)
}
