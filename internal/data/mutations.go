package data

import (
	"context"

	"symonectl/internal/api"
	"symonectl/internal/query"
)

// CreateServer deploys a server. The new server shows up in the next
// Servers read.
func (s *Service) CreateServer(ctx context.Context, in api.DeployRequest) (api.Server, error) {
	var out api.Server
	err := s.mutate(ctx, "Deployment failed", func(ctx context.Context) (err error) {
		out, err = s.API.DeployServer(ctx, in)
		return err
	}, KeyServers, KeyStats, KeyLimits, KeyMCP)
	return out, err
}

func (s *Service) DeleteServer(ctx context.Context, id string) error {
	return s.mutate(ctx, "Could not delete server", func(ctx context.Context) error {
		return s.API.DeleteServer(ctx, id)
	}, KeyServers, KeyStats, KeyLimits, KeyMCP)
}

var actionTitles = map[api.ServerAction]string{
	api.ActionStart:    "Could not start server",
	api.ActionStop:     "Could not stop server",
	api.ActionRestart:  "Restart failed",
	api.ActionActivate: "Activation failed",
}

func (s *Service) serverAction(ctx context.Context, id string, a api.ServerAction) error {
	return s.mutate(ctx, actionTitles[a], func(ctx context.Context) error {
		return s.API.ServerAction(ctx, id, a)
	}, KeyServers, KeyStats, KeyMCP)
}

func (s *Service) StartServer(ctx context.Context, id string) error {
	return s.serverAction(ctx, id, api.ActionStart)
}

func (s *Service) StopServer(ctx context.Context, id string) error {
	return s.serverAction(ctx, id, api.ActionStop)
}

func (s *Service) RestartServer(ctx context.Context, id string) error {
	return s.serverAction(ctx, id, api.ActionRestart)
}

func (s *Service) ActivateServer(ctx context.Context, id string) error {
	return s.serverAction(ctx, id, api.ActionActivate)
}

func (s *Service) CreateSecret(ctx context.Context, in api.SecretInput) (api.Secret, error) {
	var out api.Secret
	err := s.mutate(ctx, "Could not save secret", func(ctx context.Context) (err error) {
		out, err = s.API.CreateSecret(ctx, in)
		return err
	}, KeySecrets)
	return out, err
}

func (s *Service) UpdateSecret(ctx context.Context, name string, expiresAt *string, serverIDs []string) (api.Secret, error) {
	var out api.Secret
	err := s.mutate(ctx, "Could not update secret", func(ctx context.Context) (err error) {
		out, err = s.API.UpdateSecret(ctx, name, expiresAt, serverIDs)
		return err
	}, KeySecrets)
	return out, err
}

func (s *Service) RotateSecret(ctx context.Context, name, value string) error {
	return s.mutate(ctx, "Rotation failed", func(ctx context.Context) error {
		return s.API.RotateSecret(ctx, name, value)
	}, KeySecrets)
}

func (s *Service) DeleteSecret(ctx context.Context, name string) error {
	return s.mutate(ctx, "Could not delete secret", func(ctx context.Context) error {
		return s.API.DeleteSecret(ctx, name)
	}, KeySecrets)
}

func (s *Service) InviteMember(ctx context.Context, email, role string) (api.TeamMember, error) {
	var out api.TeamMember
	err := s.mutate(ctx, "Invitation failed", func(ctx context.Context) (err error) {
		out, err = s.API.InviteMember(ctx, email, role)
		return err
	}, KeyTeam)
	return out, err
}

func (s *Service) UpdateRole(ctx context.Context, memberID, role string) error {
	return s.mutate(ctx, "Could not update role", func(ctx context.Context) error {
		return s.API.UpdateMemberRole(ctx, memberID, role)
	}, KeyTeam)
}

func (s *Service) RemoveMember(ctx context.Context, memberID string) error {
	return s.mutate(ctx, "Could not remove member", func(ctx context.Context) error {
		return s.API.RemoveMember(ctx, memberID)
	}, KeyTeam)
}

func (s *Service) ResendInvite(ctx context.Context, memberID string) error {
	return s.mutate(ctx, "Could not resend invitation", func(ctx context.Context) error {
		return s.API.ResendInvite(ctx, memberID)
	})
}

// Notification mutations edit the cached list in place so the unread count
// and the visible list change without a re-fetch.

func (s *Service) MarkNotificationRead(ctx context.Context, id string) error {
	if err := s.API.MarkNotificationRead(ctx, id); err != nil {
		return &MutationError{Title: "Could not mark notification as read", Err: err}
	}
	s.editNotifications(func(list []api.Notification) []api.Notification {
		for i := range list {
			if list[i].ID == id {
				list[i].Read = true
			}
		}
		return list
	})
	return nil
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context) error {
	if err := s.API.MarkAllNotificationsRead(ctx); err != nil {
		return &MutationError{Title: "Could not mark notifications as read", Err: err}
	}
	s.editNotifications(func(list []api.Notification) []api.Notification {
		for i := range list {
			list[i].Read = true
		}
		return list
	})
	return nil
}

func (s *Service) DismissNotification(ctx context.Context, id string) error {
	if err := s.API.DismissNotification(ctx, id); err != nil {
		return &MutationError{Title: "Could not dismiss notification", Err: err}
	}
	s.editNotifications(func(list []api.Notification) []api.Notification {
		out := list[:0]
		for _, n := range list {
			if n.ID != id {
				out = append(out, n)
			}
		}
		return out
	})
	return nil
}

// editNotifications hands fn a private copy of the cached list.
func (s *Service) editNotifications(fn func([]api.Notification) []api.Notification) {
	query.UpdateAs(s.Cache, KeyNotifications, func(list []api.Notification) []api.Notification {
		return fn(append([]api.Notification(nil), list...))
	})
}

// UpdateMode persists the workspace default mode, or a per-server override
// when serverID is set.
func (s *Service) UpdateMode(ctx context.Context, mode, serverID string) error {
	return s.mutate(ctx, "Could not update mode", func(ctx context.Context) error {
		return s.API.UpdateMCPMode(ctx, mode, serverID)
	}, KeyMCP)
}
