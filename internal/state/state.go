package state

import (
	"context"
	"encoding/json"
	"fmt"

	"symonectl/internal/config"
)

// Keys under which client state is persisted. Each is independently
// readable and writable.
const (
	KeyUserToken     = "symone_user_token"
	KeyUser          = "symone_user"
	KeyAdminToken    = "symone_admin_token"
	KeyAdminUser     = "symone_admin_user"
	KeyCookieConsent = "symone_cookie_consent"
	KeyTheme         = "symone_theme"
	KeyActiveTeam    = "symone_active_team"
)

// Store persists small values under namespaced keys. Delete removes all the
// given keys in one step: a reader never observes a subset of them removed.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Open selects the backend named in cfg.
func Open(ctx context.Context, cfg config.StateConfig) (Store, error) {
	switch cfg.Backend {
	case "", "file":
		return OpenFile(cfg.Path)
	case "sqlite":
		return OpenSQLite(ctx, cfg.Path)
	case "postgres":
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown state backend: %s", cfg.Backend)
	}
}

// GetJSON decodes the value stored under key into v. ok is false when the key
// is absent.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	b, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func SetJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, b)
}
