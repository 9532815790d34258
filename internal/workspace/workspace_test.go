package workspace_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symonectl/internal/api"
	"symonectl/internal/apitest"
	"symonectl/internal/logging"
	"symonectl/internal/session"
	"symonectl/internal/state"
	"symonectl/internal/workspace"
)

type countingReloader struct{ n int }

func (r *countingReloader) Reload(context.Context) error {
	r.n++
	return nil
}

type fixture struct {
	be   *apitest.Backend
	sess *session.Manager
	st   *state.MemoryStore
	rel  *countingReloader
	sw   *workspace.Switcher
}

func setup(t *testing.T, baseURL string) *fixture {
	t.Helper()
	st := state.NewMemory()
	sess := session.NewManager(st, session.RoleUser, logging.Discard())
	require.NoError(t, sess.SetSession(context.Background(), apitest.UserToken, session.Profile{
		"id": "u-1", "email": "ada@example.com", "team_id": "a", "team_name": "Acme", "role": "owner",
	}))
	rel := &countingReloader{}
	c := api.NewClient(baseURL, sess, logging.Discard())
	return &fixture{sess: sess, st: st, rel: rel, sw: workspace.New(c, sess, st, rel, logging.Discard())}
}

func newFixture(t *testing.T) *fixture {
	be := apitest.New(t)
	be.Workspaces = []api.Workspace{{ID: "a", Name: "Acme", Role: "owner"}, {ID: "b", Name: "Beta", Role: "member"}}
	be.ActiveID = "a"
	f := setup(t, be.URL())
	f.be = be
	return f
}

func TestSwitchScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l, err := f.sw.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", l.ActiveID)

	require.NoError(t, f.sw.Switch(ctx, "b"))
	u := f.sess.CachedUser()
	assert.Equal(t, "b", u.TeamID())
	assert.Equal(t, "Beta", u.TeamName())
	assert.Equal(t, "member", u.TeamRole())
	assert.Equal(t, "ada@example.com", u.Email(), "other cached fields survive")
	assert.Equal(t, 1, f.rel.n)
	assert.Equal(t, "b", f.sw.Active(ctx))

	v, ok, err := f.st.Get(ctx, state.KeyActiveTeam)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", string(v))
}

func TestSwitchToActiveIsNoop(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sw.Switch(context.Background(), "a"))
	assert.Empty(t, f.be.Calls())
	assert.Equal(t, 0, f.rel.n)
}

func TestListFollowsBackendActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.be.Edit(func(b *apitest.Backend) { b.ActiveID = "b" })

	l, err := f.sw.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", l.ActiveID)
	assert.Equal(t, "b", f.sw.Active(ctx))
	assert.Equal(t, "Beta", f.sess.CachedUser().TeamName())
	assert.Equal(t, 0, f.rel.n, "listing never reloads")

	require.NoError(t, f.sw.Switch(ctx, "a"))
	assert.Equal(t, 1, f.be.Count(http.MethodPost, "/auth/dashboard/workspaces/a/switch"))
	assert.Equal(t, 1, f.rel.n)
	assert.Equal(t, "a", f.sw.Active(ctx))
}

func TestSwitchFailureKeepsState(t *testing.T) {
	f := newFixture(t)
	f.be.Fail(http.MethodPost, "/auth/dashboard/workspaces/b/switch", http.StatusForbidden, "Not a member")
	err := f.sw.Switch(context.Background(), "b")
	require.Error(t, err)
	assert.Equal(t, "a", f.sess.CachedUser().TeamID())
	assert.Equal(t, 0, f.rel.n)
}

func TestCreateValidatesAndSwitches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sw.Create(ctx, "   ")
	assert.True(t, api.IsValidation(err))
	assert.Empty(t, f.be.Calls())

	ws, err := f.sw.Create(ctx, "  Gamma ")
	require.NoError(t, err)
	assert.Equal(t, "Gamma", ws.Name)
	assert.Equal(t, "owner", ws.Role)
	assert.Equal(t, ws.ID, f.sess.CachedUser().TeamID())
	assert.Equal(t, "owner", f.sess.CachedUser().TeamRole())
	assert.Equal(t, 1, f.rel.n)
}

func TestNormalizeInvariant(t *testing.T) {
	ws := []api.Workspace{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	cases := []struct {
		name     string
		in       api.WorkspaceList
		fallback string
		want     string
	}{
		{"empty", api.WorkspaceList{}, "a", ""},
		{"reported", api.WorkspaceList{Teams: ws, ActiveTeamID: "b"}, "c", "b"},
		{"unknown uses fallback", api.WorkspaceList{Teams: ws, ActiveTeamID: "zz"}, "c", "c"},
		{"unknown fallback uses first", api.WorkspaceList{Teams: ws, ActiveTeamID: "zz"}, "yy", "a"},
		{"missing", api.WorkspaceList{Teams: ws}, "", "a"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := workspace.Normalize(tc.in, tc.fallback)
			assert.Equal(t, tc.want, l.ActiveID)
			matches := 0
			for _, w := range l.Workspaces {
				if w.ID == l.ActiveID {
					matches++
				}
			}
			if len(l.Workspaces) == 0 {
				assert.Empty(t, l.ActiveID)
			} else {
				assert.Equal(t, 1, matches)
			}
		})
	}
}

func TestListDegradesWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	f := setup(t, url)

	l, err := f.sw.List(context.Background())
	require.NoError(t, err)
	assert.True(t, l.Degraded)
	assert.Error(t, l.Err)
	assert.Empty(t, l.Workspaces)
	assert.Empty(t, l.ActiveID)
}

func TestRenameActiveRefreshesProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sw.Rename(ctx, "b", "Beta Two")
	require.NoError(t, err)
	assert.Equal(t, 0, f.rel.n)

	_, err = f.sw.Rename(ctx, "a", "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", f.sess.CachedUser().TeamName())
	assert.Equal(t, 1, f.rel.n)
}

func TestDeleteActiveFallsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.sw.Delete(ctx, "a"))
	assert.Equal(t, "b", f.sess.CachedUser().TeamID())
	assert.Equal(t, "Beta", f.sess.CachedUser().TeamName())
	assert.Equal(t, 1, f.rel.n)
}

func TestLeaveInactive(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sw.Leave(context.Background(), "b"))
	assert.Equal(t, "a", f.sess.CachedUser().TeamID())
	assert.Equal(t, 0, f.rel.n)
}

func TestTransferOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assert.True(t, api.IsValidation(f.sw.TransferOwnership(ctx, "a", "")))
	require.NoError(t, f.sw.TransferOwnership(ctx, "a", "u-2"))
	assert.Equal(t, "admin", f.sess.CachedUser().TeamRole())
	assert.Equal(t, 1, f.rel.n)
}
