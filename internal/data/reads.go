package data

import (
	"context"
	"strconv"

	"golang.org/x/sync/errgroup"

	"symonectl/internal/api"
	"symonectl/internal/query"
)

func (s *Service) Servers(ctx context.Context) ([]api.Server, error) {
	return query.Fetch(ctx, s.Cache, KeyServers, s.API.ListServers)
}

func (s *Service) Server(ctx context.Context, id string) (api.Server, error) {
	return query.Fetch(ctx, s.Cache, KeyServers+"/"+id, func(ctx context.Context) (api.Server, error) {
		return s.API.GetServer(ctx, id)
	})
}

func (s *Service) ConnectionInfo(ctx context.Context, serverID string) (api.ConnectionInfo, error) {
	return query.Fetch(ctx, s.Cache, KeyServers+"/"+serverID+"/connection", func(ctx context.Context) (api.ConnectionInfo, error) {
		return s.API.ConnectionInfo(ctx, serverID)
	})
}

func (s *Service) Secrets(ctx context.Context) ([]api.Secret, error) {
	return query.Fetch(ctx, s.Cache, KeySecrets, s.API.ListSecrets)
}

func (s *Service) Team(ctx context.Context) ([]api.TeamMember, error) {
	return query.Fetch(ctx, s.Cache, KeyTeam, s.API.ListTeam)
}

func (s *Service) Activity(ctx context.Context, limit int) ([]api.ActivityLog, error) {
	return query.Fetch(ctx, s.Cache, KeyActivity+"/"+strconv.Itoa(limit), func(ctx context.Context) ([]api.ActivityLog, error) {
		return s.API.ListActivity(ctx, limit)
	})
}

// RefreshActivity bypasses the cache and stores the fresh page.
func (s *Service) RefreshActivity(ctx context.Context, limit int) ([]api.ActivityLog, error) {
	v, err := s.API.ListActivity(ctx, limit)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(KeyActivity+"/"+strconv.Itoa(limit), v)
	return v, nil
}

func (s *Service) Notifications(ctx context.Context) ([]api.Notification, error) {
	return query.Fetch(ctx, s.Cache, KeyNotifications, func(ctx context.Context) ([]api.Notification, error) {
		return s.API.ListNotifications(ctx, false)
	})
}

func (s *Service) RefreshNotifications(ctx context.Context) ([]api.Notification, error) {
	v, err := s.API.ListNotifications(ctx, false)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(KeyNotifications, v)
	return v, nil
}

func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	list, err := s.Notifications(ctx)
	if err != nil {
		return 0, err
	}
	return CountUnread(list), nil
}

func CountUnread(list []api.Notification) int {
	n := 0
	for _, x := range list {
		if !x.Read {
			n++
		}
	}
	return n
}

func (s *Service) Workspaces(ctx context.Context) (api.WorkspaceList, error) {
	return query.Fetch(ctx, s.Cache, KeyWorkspaces, s.API.ListWorkspaces)
}

func (s *Service) PlanLimits(ctx context.Context) (api.PlanLimits, error) {
	return query.Fetch(ctx, s.Cache, KeyLimits, s.API.PlanLimits)
}

func (s *Service) MCPInfo(ctx context.Context) (api.MCPConnectionInfo, error) {
	return query.Fetch(ctx, s.Cache, KeyMCP, s.API.MCPConnectionInfo)
}

// Stats is the dashboard summary.
type Stats struct {
	TotalServers   int     `json:"total_servers"`
	Running        int     `json:"running"`
	Stopped        int     `json:"stopped"`
	Deploying      int     `json:"deploying"`
	Errored        int     `json:"errored"`
	ServerLimit    int     `json:"server_limit"`
	TotalRequests  int     `json:"total_requests"`
	SuccessRate    float64 `json:"success_rate"`
	QuotaLimit     int     `json:"quota_limit"`
	CurrentUsage   int     `json:"current_usage"`
	Plan           string  `json:"plan"`
	RemainingSlots int     `json:"remaining_slots"`
}

// Stats fetches servers, metrics and limits in parallel.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return query.Fetch(ctx, s.Cache, KeyStats, func(ctx context.Context) (Stats, error) {
		var (
			servers []api.Server
			metrics api.Metrics
			limits  api.PlanLimits
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			servers, err = s.Servers(gctx)
			return err
		})
		g.Go(func() (err error) {
			metrics, err = s.API.Metrics(gctx)
			return err
		})
		g.Go(func() (err error) {
			limits, err = s.PlanLimits(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return Stats{}, err
		}
		return summarize(servers, metrics, limits), nil
	})
}

func summarize(servers []api.Server, m api.Metrics, l api.PlanLimits) Stats {
	st := Stats{
		TotalServers:  len(servers),
		ServerLimit:   l.ServerLimit,
		TotalRequests: m.TotalRequests,
		SuccessRate:   m.SuccessRate,
		QuotaLimit:    l.QuotaLimit,
		CurrentUsage:  l.CurrentUsage,
		Plan:          l.PlanName,
	}
	for _, s := range servers {
		switch s.Status {
		case api.StatusRunning:
			st.Running++
		case api.StatusStopped:
			st.Stopped++
		case api.StatusDeploying:
			st.Deploying++
		case api.StatusError:
			st.Errored++
		}
	}
	if l.ServerLimit > 0 {
		st.RemainingSlots = max(l.ServerLimit-len(servers), 0)
	}
	return st
}
