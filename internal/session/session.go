// Package session holds the authenticated identity of the running client:
// the bearer token and the cached profile returned at login. A Manager is
// created once at start-up from the persisted store and handed to everything
// that talks to the API.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"symonectl/internal/state"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %s", s)
	}
}

// LoginPath is where a client with this role is sent after a forced logout.
func (r Role) LoginPath() string {
	if r == RoleAdmin {
		return "/admin/login"
	}
	return "/login"
}

func (r Role) keys() (token, user string) {
	if r == RoleAdmin {
		return state.KeyAdminToken, state.KeyAdminUser
	}
	return state.KeyUserToken, state.KeyUser
}

// Profile is the cached user (or admin) record. It is kept as a generic map so
// fields the backend adds survive a partial merge.
type Profile map[string]any

func (p Profile) String(key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (p Profile) ID() string       { return p.String("id") }
func (p Profile) Email() string    { return p.String("email") }
func (p Profile) TeamID() string   { return p.String("team_id") }
func (p Profile) TeamName() string { return p.String("team_name") }
func (p Profile) TeamRole() string { return p.String("role") }

func (p Profile) clone() Profile {
	if p == nil {
		return nil
	}
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

var ErrNoSession = errors.New("not logged in")

type Manager struct {
	store  state.Store
	role   Role
	logger *slog.Logger

	mu    sync.RWMutex
	token string
	user  Profile
}

func NewManager(store state.Store, role Role, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, role: role, logger: logger}
}

func (m *Manager) Role() Role        { return m.role }
func (m *Manager) LoginPath() string { return m.role.LoginPath() }

// Load reads the persisted session. A token without a profile (or the
// reverse) is treated as no session and both keys are cleared.
func (m *Manager) Load(ctx context.Context) error {
	tokenKey, userKey := m.role.keys()
	tok, hasTok, err := m.store.Get(ctx, tokenKey)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	var user Profile
	hasUser, err := state.GetJSON(ctx, m.store, userKey, &user)
	if err != nil {
		m.logger.Warn("discarding unreadable cached profile", "err", err)
		hasUser = false
	}
	if hasTok != hasUser || (hasTok && len(tok) == 0) {
		m.logger.Warn("partial session in store, clearing", "role", m.role)
		return m.ClearAll(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if hasTok {
		m.token, m.user = string(tok), user
	} else {
		m.token, m.user = "", nil
	}
	return nil
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *Manager) LoggedIn() bool { return m.Token() != "" }

// CachedUser returns a copy of the cached profile, or nil.
func (m *Manager) CachedUser() Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user.clone()
}

// SetSession persists the token and profile returned by a login call.
func (m *Manager) SetSession(ctx context.Context, token string, user Profile) error {
	if token == "" {
		return errors.New("empty token")
	}
	if user == nil {
		user = Profile{}
	}
	tokenKey, userKey := m.role.keys()

	m.mu.Lock()
	defer m.mu.Unlock()
	// Profile first: a reader that sees the token always finds a profile.
	if err := state.SetJSON(ctx, m.store, userKey, user); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	if err := m.store.Set(ctx, tokenKey, []byte(token)); err != nil {
		_ = m.store.Delete(ctx, userKey)
		return fmt.Errorf("save token: %w", err)
	}
	m.token, m.user = token, user.clone()
	return nil
}

// ClearAll removes token and profile in a single store delete.
func (m *Manager) ClearAll(ctx context.Context) error {
	tokenKey, userKey := m.role.keys()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.user = "", nil
	keys := []string{tokenKey, userKey}
	if m.role == RoleUser {
		keys = append(keys, state.KeyActiveTeam)
	}
	if err := m.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// MergeProfile overwrites only the given fields of the cached profile.
func (m *Manager) MergeProfile(ctx context.Context, fields Profile) error {
	_, userKey := m.role.keys()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return ErrNoSession
	}
	next := m.user.clone()
	if next == nil {
		next = Profile{}
	}
	for k, v := range fields {
		next[k] = v
	}
	if err := state.SetJSON(ctx, m.store, userKey, next); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	m.user = next
	return nil
}

// Expired reports whether the token is a JWT whose exp claim is before now.
// Opaque tokens are never reported as expired; the backend decides.
func (m *Manager) Expired(now time.Time) bool {
	tok := m.Token()
	if tok == "" {
		return false
	}
	exp, ok := TokenExpiry(tok)
	return ok && !now.Before(exp)
}

// TokenExpiry extracts the exp claim without verifying the signature.
func TokenExpiry(token string) (time.Time, bool) {
	t, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := t.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
