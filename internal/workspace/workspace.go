// Package workspace tracks which of the user's workspaces is active.
//
// The active id lives in two places: on the backend as the user's default
// and locally, in the cached profile and under its own state key, so it
// can be read without a round trip. Every change of the active workspace ends
// with exactly one Reload, which makes all cached reads refetch under the new
// context.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"symonectl/internal/api"
	"symonectl/internal/session"
	"symonectl/internal/state"
)

type Reloader interface {
	Reload(ctx context.Context) error
}

type Listing struct {
	Workspaces []api.Workspace `json:"workspaces"`
	ActiveID   string          `json:"active_id"`
	// Degraded is set when the backend could not be reached; Workspaces is
	// then empty and Err says why.
	Degraded bool  `json:"degraded,omitempty"`
	Err      error `json:"-"`
}

func (l Listing) Active() (api.Workspace, bool) {
	for _, w := range l.Workspaces {
		if w.ID == l.ActiveID {
			return w, true
		}
	}
	return api.Workspace{}, false
}

type Switcher struct {
	API      *api.Client
	Session  *session.Manager
	Store    state.Store
	Reloader Reloader
	Logger   *slog.Logger

	mu    sync.Mutex
	known map[string]api.Workspace
}

func New(c *api.Client, sess *session.Manager, st state.Store, r Reloader, logger *slog.Logger) *Switcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Switcher{API: c, Session: sess, Store: st, Reloader: r, Logger: logger, known: map[string]api.Workspace{}}
}

// Normalize makes the active id name exactly one listed workspace, or be
// empty when the list is. An active id the backend reports but does not list
// falls back to fallbackID if listed, then to the first workspace.
func Normalize(in api.WorkspaceList, fallbackID string) Listing {
	out := Listing{Workspaces: in.Teams}
	if out.Workspaces == nil {
		out.Workspaces = []api.Workspace{}
	}
	if len(out.Workspaces) == 0 {
		return out
	}
	has := func(id string) bool {
		if id == "" {
			return false
		}
		for _, w := range out.Workspaces {
			if w.ID == id {
				return true
			}
		}
		return false
	}
	switch {
	case has(in.ActiveTeamID):
		out.ActiveID = in.ActiveTeamID
	case has(fallbackID):
		out.ActiveID = fallbackID
	default:
		out.ActiveID = out.Workspaces[0].ID
	}
	return out
}

// List fetches the user's workspaces. An unreachable backend is not an
// error: the listing comes back degraded.
func (s *Switcher) List(ctx context.Context) (Listing, error) {
	raw, err := s.API.ListWorkspaces(ctx)
	if err != nil {
		if api.IsNetwork(err) {
			s.Logger.Debug("workspace list unavailable", "err", err)
			return Listing{Workspaces: []api.Workspace{}, Degraded: true, Err: err}, nil
		}
		return Listing{}, err
	}
	local := s.localActive(ctx)
	l := Normalize(raw, local)
	s.remember(l.Workspaces...)
	if l.ActiveID != "" && l.ActiveID != local {
		// Moved on another device; follow the backend without a reload.
		active, _ := l.Active()
		if err := s.record(ctx, active); err != nil {
			return Listing{}, err
		}
	}
	return l, nil
}

// Active returns the locally known active workspace id without a network call.
func (s *Switcher) Active(ctx context.Context) string {
	return s.localActive(ctx)
}

func (s *Switcher) localActive(ctx context.Context) string {
	if s.Store != nil {
		if b, ok, err := s.Store.Get(ctx, state.KeyActiveTeam); err == nil && ok && len(b) > 0 {
			return string(b)
		}
	}
	return s.Session.CachedUser().TeamID()
}

// Switch makes id the active workspace. Switching to the already active
// workspace does nothing and makes no network call.
func (s *Switcher) Switch(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return api.Invalid("workspace", "workspace id is required")
	}
	if id == s.localActive(ctx) {
		return nil
	}
	ws, err := s.API.SwitchWorkspace(ctx, id)
	if err != nil {
		return err
	}
	return s.adopt(ctx, s.fill(ws))
}

// adopt records ws as active locally and reloads.
func (s *Switcher) adopt(ctx context.Context, ws api.Workspace) error {
	if err := s.record(ctx, ws); err != nil {
		return err
	}
	s.Logger.Info("active workspace changed", "team_id", ws.ID, "team_name", ws.Name)
	return s.reload(ctx)
}

// record mirrors ws as the active workspace in the cached profile and the
// active-team key.
func (s *Switcher) record(ctx context.Context, ws api.Workspace) error {
	fields := session.Profile{"team_id": ws.ID, "team_name": ws.Name}
	if ws.Role != "" {
		fields["role"] = ws.Role
	}
	if err := s.Session.MergeProfile(ctx, fields); err != nil {
		return fmt.Errorf("update cached profile: %w", err)
	}
	if s.Store != nil {
		if err := s.Store.Set(ctx, state.KeyActiveTeam, []byte(ws.ID)); err != nil {
			return fmt.Errorf("store active workspace: %w", err)
		}
	}
	return nil
}

func (s *Switcher) reload(ctx context.Context) error {
	if s.Reloader == nil {
		return nil
	}
	return s.Reloader.Reload(ctx)
}

// Create makes a workspace owned by the current user and switches to it.
func (s *Switcher) Create(ctx context.Context, name string) (api.Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return api.Workspace{}, api.Invalid("name", "workspace name is required")
	}
	ws, err := s.API.CreateWorkspace(ctx, name)
	if err != nil {
		return api.Workspace{}, err
	}
	ws.Role = "owner"
	s.remember(ws)
	if err := s.Switch(ctx, ws.ID); err != nil {
		return ws, err
	}
	return ws, nil
}

func (s *Switcher) Rename(ctx context.Context, id, name string) (api.Workspace, error) {
	ws, err := s.API.UpdateWorkspace(ctx, id, name)
	if err != nil {
		return api.Workspace{}, err
	}
	if ws.ID == "" {
		ws.ID = id
	}
	if ws.Name == "" {
		ws.Name = strings.TrimSpace(name)
	}
	s.remember(ws)
	if id != s.localActive(ctx) {
		return ws, nil
	}
	if err := s.Session.MergeProfile(ctx, session.Profile{"team_name": ws.Name}); err != nil {
		return ws, err
	}
	return ws, s.reload(ctx)
}

func (s *Switcher) Delete(ctx context.Context, id string) error {
	if err := s.API.DeleteWorkspace(ctx, id); err != nil {
		return err
	}
	return s.dropped(ctx, id)
}

func (s *Switcher) Leave(ctx context.Context, id string) error {
	if err := s.API.LeaveWorkspace(ctx, id); err != nil {
		return err
	}
	return s.dropped(ctx, id)
}

func (s *Switcher) TransferOwnership(ctx context.Context, id, newOwnerID string) error {
	if err := s.API.TransferWorkspace(ctx, id, newOwnerID); err != nil {
		return err
	}
	if id != s.localActive(ctx) {
		return nil
	}
	if err := s.Session.MergeProfile(ctx, session.Profile{"role": "admin"}); err != nil {
		return err
	}
	return s.reload(ctx)
}

// dropped handles losing access to id. When it was active, the backend's new
// default (or the first remaining workspace) becomes active.
func (s *Switcher) dropped(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.known, id)
	s.mu.Unlock()
	if id != s.localActive(ctx) {
		return nil
	}
	if s.Store != nil {
		if err := s.Store.Delete(ctx, state.KeyActiveTeam); err != nil {
			return err
		}
	}
	raw, err := s.API.ListWorkspaces(ctx)
	if err != nil {
		return err
	}
	l := Normalize(raw, "")
	next, ok := l.Active()
	if !ok {
		if err := s.Session.MergeProfile(ctx, session.Profile{"team_id": nil, "team_name": nil}); err != nil {
			return err
		}
		return s.reload(ctx)
	}
	return s.adopt(ctx, next)
}

func (s *Switcher) remember(ws ...api.Workspace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range ws {
		s.known[w.ID] = w
	}
}

// fill completes a backend switch response from the last listing.
func (s *Switcher) fill(ws api.Workspace) api.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.known[ws.ID]
	if !ok {
		return ws
	}
	if ws.Name == "" {
		ws.Name = k.Name
	}
	if ws.Role == "" {
		ws.Role = k.Role
	}
	if ws.Plan == "" {
		ws.Plan = k.Plan
	}
	return ws
}
