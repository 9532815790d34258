package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symonectl/internal/logging"
	"symonectl/internal/state"
)

func newManager(t *testing.T, role Role) (*Manager, *state.MemoryStore) {
	t.Helper()
	st := state.NewMemory()
	return NewManager(st, role, logging.Discard()), st
}

func TestSetSessionAndReload(t *testing.T) {
	ctx := context.Background()
	m, st := newManager(t, RoleUser)
	require.NoError(t, m.SetSession(ctx, "tok-1", Profile{"id": "u1", "team_id": "a", "email": "x@y.z"}))

	again := NewManager(st, RoleUser, logging.Discard())
	require.NoError(t, again.Load(ctx))
	assert.Equal(t, "tok-1", again.Token())
	assert.Equal(t, "a", again.CachedUser().TeamID())
	assert.True(t, again.LoggedIn())
}

func TestClearAllRemovesTokenAndProfile(t *testing.T) {
	ctx := context.Background()
	m, st := newManager(t, RoleUser)
	require.NoError(t, m.SetSession(ctx, "tok", Profile{"id": "u1"}))
	require.NoError(t, st.Set(ctx, state.KeyTheme, []byte("light")))

	require.NoError(t, m.ClearAll(ctx))
	assert.Empty(t, m.Token())
	assert.Nil(t, m.CachedUser())

	_, ok, _ := st.Get(ctx, state.KeyUserToken)
	assert.False(t, ok)
	_, ok, _ = st.Get(ctx, state.KeyUser)
	assert.False(t, ok)
	_, ok, _ = st.Get(ctx, state.KeyTheme)
	assert.True(t, ok, "preferences survive logout")
}

func TestLoadClearsPartialSession(t *testing.T) {
	ctx := context.Background()
	st := state.NewMemory()
	require.NoError(t, st.Set(ctx, state.KeyUserToken, []byte("orphan")))

	m := NewManager(st, RoleUser, logging.Discard())
	require.NoError(t, m.Load(ctx))
	assert.False(t, m.LoggedIn())
	_, ok, _ := st.Get(ctx, state.KeyUserToken)
	assert.False(t, ok)
}

func TestRolesUseSeparateKeys(t *testing.T) {
	ctx := context.Background()
	st := state.NewMemory()
	user := NewManager(st, RoleUser, logging.Discard())
	admin := NewManager(st, RoleAdmin, logging.Discard())
	require.NoError(t, user.SetSession(ctx, "u-tok", Profile{"id": "u"}))
	require.NoError(t, admin.SetSession(ctx, "a-tok", Profile{"id": "adm"}))

	require.NoError(t, admin.ClearAll(ctx))
	require.NoError(t, user.Load(ctx))
	assert.Equal(t, "u-tok", user.Token())
	assert.Equal(t, "/admin/login", admin.LoginPath())
	assert.Equal(t, "/login", user.LoginPath())
}

func TestMergeProfileKeepsOtherFields(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, RoleUser)
	require.NoError(t, m.SetSession(ctx, "tok", Profile{"id": "u1", "email": "x@y.z", "team_id": "a", "team_name": "Acme"}))

	require.NoError(t, m.MergeProfile(ctx, Profile{"team_id": "b", "team_name": "Beta", "role": "member"}))
	u := m.CachedUser()
	assert.Equal(t, "b", u.TeamID())
	assert.Equal(t, "Beta", u.TeamName())
	assert.Equal(t, "member", u.TeamRole())
	assert.Equal(t, "x@y.z", u.Email())
	assert.Equal(t, "u1", u.ID())
}

func TestMergeProfileWithoutSession(t *testing.T) {
	m, _ := newManager(t, RoleUser)
	assert.ErrorIs(t, m.MergeProfile(context.Background(), Profile{"team_id": "b"}), ErrNoSession)
}

func TestCachedUserIsACopy(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, RoleUser)
	require.NoError(t, m.SetSession(ctx, "tok", Profile{"team_id": "a"}))
	u := m.CachedUser()
	u["team_id"] = "zzz"
	assert.Equal(t, "a", m.CachedUser().TeamID())
}

func TestExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": now.Add(-time.Minute).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	m, _ := newManager(t, RoleUser)
	require.NoError(t, m.SetSession(ctx, signed, Profile{}))
	assert.True(t, m.Expired(now))
	assert.False(t, m.Expired(now.Add(-time.Hour)))

	require.NoError(t, m.SetSession(ctx, "opaque-token", Profile{}))
	assert.False(t, m.Expired(now))
}

func TestPrefs(t *testing.T) {
	ctx := context.Background()
	p := Prefs{Store: state.NewMemory()}

	th, err := p.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, th)
	require.NoError(t, p.SetTheme(ctx, ThemeLight))
	th, _ = p.Theme(ctx)
	assert.Equal(t, ThemeLight, th)
	assert.Error(t, p.SetTheme(ctx, "neon"))

	c, err := p.Consent(ctx)
	require.NoError(t, err)
	assert.Empty(t, c)
	require.NoError(t, p.SetConsent(ctx, ConsentAccepted))
	c, _ = p.Consent(ctx)
	assert.Equal(t, ConsentAccepted, c)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)
	_, err = ParseRole("root")
	assert.Error(t, err)
}
