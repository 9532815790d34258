// Package data exposes cached backend reads and the mutations that keep them
// fresh. Every mutation is exactly one backend call. On success it
// invalidates the reads it affects. On failure it leaves the cache alone and
// returns a *MutationError with a title specific to that mutation.
package data

import (
	"context"
	"log/slog"

	"symonectl/internal/api"
	"symonectl/internal/query"
)

// Cache keys. Keys nest with "/", so invalidating KeyServers also drops
// per-server entries.
const (
	KeyServers       = "servers"
	KeySecrets       = "secrets"
	KeyTeam          = "team"
	KeyActivity      = "activity"
	KeyNotifications = "notifications"
	KeyWorkspaces    = "workspaces"
	KeyLimits        = "limits"
	KeyStats         = "stats"
	KeyMCP           = "mcp"
)

type MutationError struct {
	Title string
	Err   error
}

func (e *MutationError) Error() string { return e.Title + ": " + api.Message(e.Err) }
func (e *MutationError) Unwrap() error { return e.Err }

type Service struct {
	API    *api.Client
	Cache  *query.Cache
	Logger *slog.Logger
}

func New(c *api.Client, cache *query.Cache, logger *slog.Logger) *Service {
	if cache == nil {
		cache = query.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{API: c, Cache: cache, Logger: logger}
}

// Reload makes every subsequent read go back to the backend.
func (s *Service) Reload(context.Context) error {
	s.Logger.Debug("invalidating all cached reads")
	s.Cache.InvalidateAll()
	return nil
}

// mutate runs one backend call and applies the invalidation on success.
func (s *Service) mutate(ctx context.Context, title string, call func(context.Context) error, invalidate ...string) error {
	if err := call(ctx); err != nil {
		if api.IsValidation(err) {
			return err
		}
		s.Logger.Debug("mutation failed", "title", title, "err", err)
		return &MutationError{Title: title, Err: err}
	}
	s.Cache.Invalidate(invalidate...)
	return nil
}
