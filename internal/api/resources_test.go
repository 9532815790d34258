package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symonectl/internal/api"
	"symonectl/internal/apitest"
	"symonectl/internal/session"
)

func TestNormalizeSecretName(t *testing.T) {
	cases := map[string]string{
		"api key":          "API_KEY",
		"API_KEY":          "API_KEY",
		"  github   token": "GITHUB_TOKEN",
		"db-url.v2":        "DB_URL_V2",
		"stripe\tkey":      "STRIPE_KEY",
		"":                 "",
	}
	for in, want := range cases {
		got := api.NormalizeSecretName(in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, got, api.NormalizeSecretName(got), "idempotent for %q", in)
	}
}

func TestSecretsLifecycle(t *testing.T) {
	be := apitest.New(t)
	c, _ := newClient(t, be.URL(), session.RoleUser, apitest.UserToken)
	ctx := context.Background()

	s, err := c.CreateSecret(ctx, api.SecretInput{Name: "openai key", Value: "sk-123"})
	require.NoError(t, err)
	assert.Equal(t, "OPENAI_KEY", s.Name)

	_, err = c.CreateSecret(ctx, api.SecretInput{Name: "x", Value: "  "})
	assert.True(t, api.IsValidation(err))

	require.NoError(t, c.RotateSecret(ctx, "openai_key", "sk-456"))
	exp := "2027-01-01"
	upd, err := c.UpdateSecret(ctx, "OPENAI_KEY", &exp, []string{"srv-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"srv-1"}, upd.ServerIDs)

	list, err := c.ListSecrets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, c.DeleteSecret(ctx, "openai key"))
	list, err = c.ListSecrets(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestServerLifecycle(t *testing.T) {
	be := apitest.New(t)
	c, _ := newClient(t, be.URL(), session.RoleUser, apitest.UserToken)
	ctx := context.Background()

	s, err := c.DeployServer(ctx, api.DeployRequest{Name: "gh", Type: "github"})
	require.NoError(t, err)
	assert.Equal(t, api.StatusDeploying, s.Status)

	require.NoError(t, c.ServerAction(ctx, s.ID, api.ActionActivate))
	assert.Equal(t, 1, be.Count(http.MethodPost, "/servers/"+s.ID+"/activate"))
	require.NoError(t, c.ServerAction(ctx, s.ID, api.ActionStop))
	got, err := c.GetServer(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, api.StatusStopped, got.Status)

	info, err := c.ConnectionInfo(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, info.ServerID)
	assert.NotEmpty(t, info.CurlExample)

	assert.True(t, api.IsValidation(c.ServerAction(ctx, s.ID, "explode")))
	require.NoError(t, c.DeleteServer(ctx, s.ID))
	_, err = c.GetServer(ctx, s.ID)
	assert.Equal(t, http.StatusNotFound, api.StatusOf(err))
}

func TestTeamValidation(t *testing.T) {
	be := apitest.New(t)
	c, _ := newClient(t, be.URL(), session.RoleUser, apitest.UserToken)
	ctx := context.Background()

	_, err := c.InviteMember(ctx, "not-an-email", "member")
	assert.True(t, api.IsValidation(err))
	_, err = c.InviteMember(ctx, "bob@example.com", "owner")
	assert.True(t, api.IsValidation(err))
	assert.Empty(t, be.Calls())

	m, err := c.InviteMember(ctx, "bob@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "member", m.Role)
	require.NoError(t, c.UpdateMemberRole(ctx, m.ID, "admin"))
	require.NoError(t, c.ResendInvite(ctx, m.ID))
	require.NoError(t, c.RemoveMember(ctx, m.ID))
}

func TestMarketplaceIsPublic(t *testing.T) {
	be := apitest.New(t)
	be.Marketplace = []api.MarketplaceMCP{{ID: "1", Name: "GitHub", Slug: "github"}, {ID: "2", Name: "Slack", Slug: "slack"}}
	c, _ := newClient(t, be.URL(), session.RoleUser, "")

	all, err := c.ListMarketplace(context.Background(), api.MarketplaceFilter{Provider: "all"})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	some, err := c.ListMarketplace(context.Background(), api.MarketplaceFilter{Search: "git"})
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, "github", some[0].Slug)

	one, err := c.GetMarketplace(context.Background(), "slack")
	require.NoError(t, err)
	assert.Equal(t, "Slack", one.Name)
}

func TestPlansAdmin(t *testing.T) {
	be := apitest.New(t)
	c, _ := newClient(t, be.URL(), session.RoleAdmin, apitest.AdminToken)
	ctx := context.Background()

	_, err := c.CreatePlan(ctx, api.Plan{Name: "Pro"})
	assert.True(t, api.IsValidation(err))

	p, err := c.CreatePlan(ctx, api.Plan{Name: "Pro", Slug: "pro", PriceMonthly: 49})
	require.NoError(t, err)
	upd, err := c.UpdatePlan(ctx, p.ID, map[string]any{"name": "Pro+"})
	require.NoError(t, err)
	assert.Equal(t, "Pro+", upd.Name)
	require.NoError(t, c.DeletePlan(ctx, p.ID))

	teams, total, err := c.ListTeams(ctx, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, teams, 1)

	ov, err := c.AdminOverview(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ov, "success")
}

func TestUpdateMCPMode(t *testing.T) {
	be := apitest.New(t)
	mode := "optimized"
	be.MCP = api.MCPConnectionInfo{WorkspaceName: "Acme", CurrentMode: "standard", EnabledServers: []api.MCPServer{{ID: "s1", MCPMode: &mode}}}
	c, _ := newClient(t, be.URL(), session.RoleUser, apitest.UserToken)
	ctx := context.Background()

	require.NoError(t, c.UpdateMCPMode(ctx, "optimized", ""))
	require.NoError(t, c.UpdateMCPMode(ctx, "inherit", "s1"))
	info, err := c.MCPConnectionInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "optimized", info.CurrentMode)
	assert.Nil(t, info.EnabledServers[0].MCPMode)
}
