package data_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symonectl/internal/api"
	"symonectl/internal/apitest"
	"symonectl/internal/data"
	"symonectl/internal/logging"
	"symonectl/internal/query"
	"symonectl/internal/session"
	"symonectl/internal/state"
)

func newService(t *testing.T) (*data.Service, *apitest.Backend) {
	t.Helper()
	be := apitest.New(t)
	sess := session.NewManager(state.NewMemory(), session.RoleUser, logging.Discard())
	require.NoError(t, sess.SetSession(context.Background(), apitest.UserToken, session.Profile{"id": "u-1"}))
	c := api.NewClient(be.URL(), sess, logging.Discard())
	return data.New(c, query.New(), logging.Discard()), be
}

func TestCreateServerShowsUpInNextRead(t *testing.T) {
	svc, be := newService(t)
	ctx := context.Background()

	before, err := svc.Servers(ctx)
	require.NoError(t, err)
	assert.Empty(t, before)
	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.TotalServers)

	created, err := svc.CreateServer(ctx, api.DeployRequest{Name: "github", Type: "github"})
	require.NoError(t, err)

	after, err := svc.Servers(ctx)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, created.ID, after[0].ID)

	st, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalServers)
	assert.Equal(t, 1, st.Deploying)
	assert.Equal(t, 4, st.RemainingSlots)
	assert.Equal(t, 2, be.Count(http.MethodGet, "/auth/dashboard/servers"))
}

func TestReadsAreCached(t *testing.T) {
	svc, be := newService(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Secrets(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, be.Count(http.MethodGet, "/auth/dashboard/secrets"))
}

func TestFailedMutationLeavesCacheAndTitles(t *testing.T) {
	svc, be := newService(t)
	ctx := context.Background()
	be.Servers = []api.Server{{ID: "s1", Name: "slack", Status: api.StatusRunning}}
	be.Members = []api.TeamMember{{ID: "m1", Email: "bob@example.com", Role: "member"}}

	_, err := svc.Servers(ctx)
	require.NoError(t, err)
	_, err = svc.Team(ctx)
	require.NoError(t, err)

	be.Fail(http.MethodPost, "/auth/dashboard/servers", http.StatusPaymentRequired, "Server limit reached")
	_, err = svc.CreateServer(ctx, api.DeployRequest{Name: "x", Type: "x"})
	var me *data.MutationError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "Deployment failed", me.Title)
	assert.Equal(t, "Deployment failed: Server limit reached", err.Error())

	be.Fail(http.MethodPut, "/auth/dashboard/team/m1/role", http.StatusBadRequest, "nope")
	err = svc.UpdateRole(ctx, "m1", "admin")
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "Could not update role", me.Title)

	_, ok := svc.Cache.Peek(data.KeyServers)
	assert.True(t, ok, "server list survives a failed mutation")
	_, ok = svc.Cache.Peek(data.KeyTeam)
	assert.True(t, ok)
}

func TestValidationErrorIsNotWrapped(t *testing.T) {
	svc, be := newService(t)
	_, err := svc.CreateSecret(context.Background(), api.SecretInput{Name: "", Value: "x"})
	require.Error(t, err)
	assert.True(t, api.IsValidation(err))
	var me *data.MutationError
	assert.NotErrorAs(t, err, &me)
	assert.Empty(t, be.Calls())
}

func TestDismissUpdatesListWithoutRefetch(t *testing.T) {
	svc, be := newService(t)
	ctx := context.Background()
	be.Notifications = []api.Notification{
		{ID: "n1", Title: "Deployed"},
		{ID: "n2", Title: "Quota"},
		{ID: "n3", Title: "Invite"},
		{ID: "n4", Title: "Old", Read: true},
	}

	n, err := svc.UnreadCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	require.NoError(t, svc.DismissNotification(ctx, "n2"))
	n, err = svc.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := svc.Notifications(ctx)
	require.NoError(t, err)
	for _, x := range list {
		assert.NotEqual(t, "n2", x.ID)
	}
	assert.Len(t, list, 3)
	assert.Equal(t, 1, be.Count(http.MethodGet, "/auth/dashboard/notifications"))
}

func TestMarkReadAndMarkAll(t *testing.T) {
	svc, be := newService(t)
	ctx := context.Background()
	be.Notifications = []api.Notification{{ID: "n1"}, {ID: "n2"}}

	_, err := svc.Notifications(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.MarkNotificationRead(ctx, "n1"))
	n, _ := svc.UnreadCount(ctx)
	assert.Equal(t, 1, n)
	require.NoError(t, svc.MarkAllNotificationsRead(ctx))
	n, _ = svc.UnreadCount(ctx)
	assert.Equal(t, 0, n)

	be.Fail(http.MethodPost, "/auth/dashboard/notifications/n9/read", http.StatusNotFound, "Notification not found")
	var me *data.MutationError
	require.ErrorAs(t, svc.MarkNotificationRead(ctx, "n9"), &me)
}

func TestServerActionsInvalidate(t *testing.T) {
	svc, be := newService(t)
	ctx := context.Background()
	be.Servers = []api.Server{{ID: "s1", Name: "slack", Status: api.StatusStopped}}

	s, err := svc.Server(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, api.StatusStopped, s.Status)

	require.NoError(t, svc.StartServer(ctx, "s1"))
	s, err = svc.Server(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, api.StatusRunning, s.Status)

	require.NoError(t, svc.StopServer(ctx, "s1"))
	require.NoError(t, svc.RestartServer(ctx, "s1"))
	require.NoError(t, svc.ActivateServer(ctx, "s1"))
	require.NoError(t, svc.DeleteServer(ctx, "s1"))
	list, err := svc.Servers(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	var me *data.MutationError
	require.ErrorAs(t, svc.StopServer(ctx, "s1"), &me)
	assert.Equal(t, "Could not stop server", me.Title)
}

func TestReloadDropsEverything(t *testing.T) {
	svc, be := newService(t)
	ctx := context.Background()
	_, err := svc.Servers(ctx)
	require.NoError(t, err)
	_, err = svc.Team(ctx)
	require.NoError(t, err)

	var all int
	svc.Cache.Subscribe(func(ev query.Event) {
		if ev.All {
			all++
		}
	})
	require.NoError(t, svc.Reload(ctx))
	assert.Equal(t, 1, all)
	assert.Equal(t, 0, svc.Cache.Len())

	_, err = svc.Servers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, be.Count(http.MethodGet, "/auth/dashboard/servers"))
}

func TestSecretMutations(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateSecret(ctx, api.SecretInput{Name: "api key", Value: "v"})
	require.NoError(t, err)
	list, err := svc.Secrets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "API_KEY", list[0].Name)

	require.NoError(t, svc.RotateSecret(ctx, "API_KEY", "v2"))
	_, err = svc.UpdateSecret(ctx, "API_KEY", nil, []string{"s1"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteSecret(ctx, "API_KEY"))
	list, err = svc.Secrets(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTeamMutations(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	m, err := svc.InviteMember(ctx, "eve@example.com", "viewer")
	require.NoError(t, err)
	team, err := svc.Team(ctx)
	require.NoError(t, err)
	require.Len(t, team, 1)

	require.NoError(t, svc.UpdateRole(ctx, m.ID, "admin"))
	team, _ = svc.Team(ctx)
	assert.Equal(t, "admin", team[0].Role)
	require.NoError(t, svc.ResendInvite(ctx, m.ID))
	require.NoError(t, svc.RemoveMember(ctx, m.ID))
	team, _ = svc.Team(ctx)
	assert.Empty(t, team)
}
