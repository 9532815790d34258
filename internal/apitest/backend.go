// Package apitest runs an in-memory Symone backend for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"symonectl/internal/api"
)

const (
	UserToken  = "user-token"
	AdminToken = "admin-token"
)

type failure struct {
	status int
	detail string
}

// Backend is a fake gateway. Exported fields may be seeded before the first
// request; afterwards go through the helpers.
type Backend struct {
	Server *httptest.Server

	mu            sync.Mutex
	Servers       []api.Server
	Secrets       []api.Secret
	Members       []api.TeamMember
	Workspaces    []api.Workspace
	ActiveID      string
	Notifications []api.Notification
	Activity      []api.ActivityLog
	MCP           api.MCPConnectionInfo
	Marketplace   []api.MarketplaceMCP
	Plans         []api.Plan
	Maintenance   bool

	calls    []string
	failures map[string]failure
	nextID   int
}

func New(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{failures: map[string]failure{}}
	b.Server = httptest.NewServer(b.routes())
	t.Cleanup(b.Server.Close)
	return b
}

func (b *Backend) URL() string { return b.Server.URL }

// Edit runs fn with the backend locked, for changing state between requests.
func (b *Backend) Edit(fn func(*Backend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

// Fail makes every method+path request answer status with detail.
func (b *Backend) Fail(method, path string, status int, detail string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = failure{status: status, detail: detail}
}

func (b *Backend) Clear(method, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, method+" "+path)
}

func (b *Backend) SetMaintenance(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Maintenance = on
}

// Calls lists "METHOD /path" for every request received, in order.
func (b *Backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *Backend) Count(method, path string) int {
	n := 0
	for _, c := range b.Calls() {
		if c == method+" "+path {
			n++
		}
	}
	return n
}

func (b *Backend) ResetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

func (b *Backend) Snapshot() (servers []api.Server, secrets []api.Secret) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.Server(nil), b.Servers...), append([]api.Secret(nil), b.Secrets...)
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.record)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
	})
	r.Route("/public/marketplace", func(r chi.Router) {
		r.Get("/", b.listMarketplace)
		r.Get("/{slug}", b.getMarketplace)
	})
	r.Post("/auth/login", b.login)
	r.Post("/auth/signup", b.login)
	r.Post("/admin/simple-login", b.adminLogin)

	r.Group(func(r chi.Router) {
		r.Use(b.requireToken(UserToken, "Authorization"))
		r.Post("/auth/logout", ok)
		r.Get("/auth/me", b.me)
		r.Post("/auth/change-password", ok)
		r.Post("/servers/{id}/activate", b.serverAction("activate"))
		r.Route("/auth/dashboard", func(r chi.Router) {
			r.Get("/servers", b.listServers)
			r.Post("/servers", b.deployServer)
			r.Get("/servers/{id}", b.getServer)
			r.Delete("/servers/{id}", b.deleteServer)
			r.Post("/servers/{id}/{action}", b.serverActionParam)
			r.Get("/servers/{id}/connection-info", b.connectionInfo)
			r.Get("/limits", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, api.PlanLimits{ServerLimit: 5, QuotaLimit: 1000, Plan: "pro", PlanName: "Pro"})
			})
			r.Get("/metrics", b.metrics)
			r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, api.Health{Status: "healthy", Database: "ok"})
			})
			r.Get("/secrets", b.listSecrets)
			r.Post("/secrets", b.createSecret)
			r.Put("/secrets/{name}", b.updateSecret)
			r.Post("/secrets/{name}/rotate", ok)
			r.Delete("/secrets/{name}", b.deleteSecret)
			r.Get("/team", b.listTeam)
			r.Post("/team/invite", b.invite)
			r.Put("/team/{id}/role", b.updateRole)
			r.Delete("/team/{id}", b.removeMember)
			r.Post("/team/{id}/resend", ok)
			r.Get("/workspaces", b.listWorkspaces)
			r.Post("/workspaces", b.createWorkspace)
			r.Post("/workspaces/{id}/switch", b.switchWorkspace)
			r.Patch("/workspaces/{id}", b.renameWorkspace)
			r.Delete("/workspaces/{id}", b.dropWorkspace)
			r.Post("/workspaces/{id}/leave", b.dropWorkspace)
			r.Post("/workspaces/{id}/transfer", ok)
			r.Get("/notifications", b.listNotifications)
			r.Post("/notifications/read-all", b.readAll)
			r.Post("/notifications/{id}/read", b.readNotification)
			r.Delete("/notifications/{id}", b.dismissNotification)
			r.Get("/activity", b.listActivity)
			r.Get("/mcp/connection-info", b.mcpInfo)
			r.Put("/mcp/mode", b.mcpMode)
		})
	})
	r.Group(func(r chi.Router) {
		r.Use(b.requireToken(AdminToken, "X-Admin-Token"))
		r.Post("/admin/logout", ok)
		r.Get("/admin/me", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"admin": map[string]any{"id": "adm-1", "email": "root@symone.dev"}})
		})
		r.Get("/admin/analytics/overview", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "teams": map[string]any{"total": 3}})
		})
		r.Get("/admin/analytics/usage-trends", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"trends": []api.UsageTrend{{Date: r.URL.Query().Get("days"), Requests: 10}}})
		})
		r.Get("/admin/analytics/server-performance", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"servers": []api.ServerPerformance{{ServerType: "github", Requests: 5, SuccessRate: 0.8}}})
		})
		r.Get("/admin/analytics/revenue", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, api.Revenue{TotalMRR: 490, TotalARR: 5880})
		})
		r.Get("/admin/plans", b.listPlans)
		r.Post("/admin/plans", b.createPlan)
		r.Put("/admin/plans/{id}", b.updatePlan)
		r.Delete("/admin/plans/{id}", ok)
		r.Get("/admin/teams", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"teams": []api.AdminTeam{{ID: "t1", Name: "Acme", Active: true}}, "total": 1})
		})
	})
	return r
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		b.calls = append(b.calls, key)
		f, failing := b.failures[key]
		maint := b.Maintenance
		b.mu.Unlock()
		switch {
		case maint:
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"detail": "Scheduled maintenance"})
		case failing:
			writeJSON(w, f.status, map[string]any{"detail": f.detail})
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (b *Backend) requireToken(token, header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(header)
			got = strings.TrimPrefix(got, "Bearer ")
			if got != token {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Invalid or expired token"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (b *Backend) id(prefix string) string {
	b.nextID++
	return fmt.Sprintf("%s-%d", prefix, b.nextID)
}

func ok(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &in); err != nil || in.Password != "secret" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Invalid email or password"})
		return
	}
	b.mu.Lock()
	teamID, teamName := b.ActiveID, ""
	for _, ws := range b.Workspaces {
		if ws.ID == teamID {
			teamName = ws.Name
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   UserToken,
		"user":    map[string]any{"id": "u-1", "email": in.Email, "team_id": teamID, "team_name": teamName, "role": "owner"},
	})
}

func (b *Backend) adminLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Password string `json:"password"`
	}
	if err := decode(r, &in); err != nil || in.Password != "secret" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"admin":   map[string]any{"id": "adm-1", "email": "root@symone.dev"},
		"session": map[string]any{"token": AdminToken},
	})
}

func (b *Backend) me(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": "u-1", "name": "Ada"}})
}

func (b *Backend) listServers(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "servers": b.Servers})
}

func (b *Backend) findServer(id string) int {
	for i, s := range b.Servers {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (b *Backend) getServer(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.findServer(chi.URLParam(r, "id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Server not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"server": b.Servers[i]})
}

func (b *Backend) deployServer(w http.ResponseWriter, r *http.Request) {
	var in api.DeployRequest
	if err := decode(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": err.Error()})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	s := api.Server{ID: b.id("srv"), Name: in.Name, Type: in.Type, Region: in.Region, Status: api.StatusDeploying, Config: in.Config}
	b.Servers = append(b.Servers, s)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "server": s})
}

func (b *Backend) deleteServer(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.findServer(chi.URLParam(r, "id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Server not found"})
		return
	}
	b.Servers = append(b.Servers[:i], b.Servers[i+1:]...)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *Backend) serverActionParam(w http.ResponseWriter, r *http.Request) {
	b.serverAction(chi.URLParam(r, "action"))(w, r)
}

func (b *Backend) serverAction(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		i := b.findServer(chi.URLParam(r, "id"))
		if i < 0 {
			writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Server not found"})
			return
		}
		switch action {
		case "start", "restart", "activate":
			b.Servers[i].Status = api.StatusRunning
		case "stop":
			b.Servers[i].Status = api.StatusStopped
		default:
			writeJSON(w, http.StatusNotFound, map[string]any{"detail": "unknown action"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "server": b.Servers[i]})
	}
}

func (b *Backend) connectionInfo(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.findServer(chi.URLParam(r, "id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Server not found"})
		return
	}
	s := b.Servers[i]
	url := b.Server.URL + "/mcp/" + s.ID + "/sse"
	writeJSON(w, http.StatusOK, map[string]any{"connection": api.ConnectionInfo{
		ServerID:      s.ID,
		ServerName:    s.Name,
		ServerType:    s.Type,
		Status:        string(s.Status),
		GatewayURL:    url,
		ToolsEndpoint: b.Server.URL + "/mcp/" + s.ID + "/tools",
		Region:        "us-central1",
		ClaudeDesktopConfig: map[string]any{"mcpServers": map[string]any{
			s.Name: map[string]any{"url": url},
		}},
		CurlExample: "curl -H 'X-Symone-Key: <your-api-key>' " + url,
	}})
}

func (b *Backend) metrics(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, api.Metrics{TotalRequests: len(b.Activity), SuccessRate: 1, TotalServers: len(b.Servers)})
}

func (b *Backend) listSecrets(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"secrets": b.Secrets})
}

func (b *Backend) createSecret(w http.ResponseWriter, r *http.Request) {
	var in api.SecretInput
	if err := decode(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": err.Error()})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.Secrets {
		if s.Name == in.Name {
			writeJSON(w, http.StatusConflict, map[string]any{"detail": "Secret already exists"})
			return
		}
	}
	s := api.Secret{ID: b.id("sec"), Name: in.Name, ExpiresAt: in.ExpiresAt, ServerIDs: in.ServerIDs}
	b.Secrets = append(b.Secrets, s)
	writeJSON(w, http.StatusOK, map[string]any{"secret": s})
}

func (b *Backend) updateSecret(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ExpiresAt *string  `json:"expires_at"`
		ServerIDs []string `json:"server_ids"`
	}
	_ = decode(r, &in)
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.Secrets {
		if s.Name == chi.URLParam(r, "name") {
			b.Secrets[i].ExpiresAt, b.Secrets[i].ServerIDs = in.ExpiresAt, in.ServerIDs
			writeJSON(w, http.StatusOK, map[string]any{"secret": b.Secrets[i]})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Secret not found"})
}

func (b *Backend) deleteSecret(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.Secrets {
		if s.Name == chi.URLParam(r, "name") {
			b.Secrets = append(b.Secrets[:i], b.Secrets[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Secret not found"})
}

func (b *Backend) listTeam(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"members": b.Members})
}

func (b *Backend) invite(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	_ = decode(r, &in)
	b.mu.Lock()
	defer b.mu.Unlock()
	m := api.TeamMember{ID: b.id("mem"), Email: in.Email, Role: in.Role, Status: "invited"}
	b.Members = append(b.Members, m)
	writeJSON(w, http.StatusOK, map[string]any{"member": m, "message": "Invitation sent"})
}

func (b *Backend) updateRole(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Role string `json:"role"`
	}
	_ = decode(r, &in)
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, m := range b.Members {
		if m.ID == chi.URLParam(r, "id") {
			b.Members[i].Role = in.Role
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Member not found"})
}

func (b *Backend) removeMember(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, m := range b.Members {
		if m.ID == chi.URLParam(r, "id") {
			b.Members = append(b.Members[:i], b.Members[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Member not found"})
}

func (b *Backend) listWorkspaces(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, api.WorkspaceList{Teams: b.Workspaces, ActiveTeamID: b.ActiveID})
}

func (b *Backend) createWorkspace(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	_ = decode(r, &in)
	b.mu.Lock()
	defer b.mu.Unlock()
	ws := api.Workspace{ID: b.id("ws"), Name: in.Name, Plan: "free", Role: "owner"}
	b.Workspaces = append(b.Workspaces, ws)
	writeJSON(w, http.StatusOK, map[string]any{"team": ws})
}

func (b *Backend) switchWorkspace(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := chi.URLParam(r, "id")
	for _, ws := range b.Workspaces {
		if ws.ID == id {
			b.ActiveID = id
			writeJSON(w, http.StatusOK, map[string]any{"team": ws})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Workspace not found"})
}

func (b *Backend) renameWorkspace(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	_ = decode(r, &in)
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ws := range b.Workspaces {
		if ws.ID == chi.URLParam(r, "id") {
			b.Workspaces[i].Name = in.Name
			writeJSON(w, http.StatusOK, map[string]any{"team": b.Workspaces[i]})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Workspace not found"})
}

func (b *Backend) dropWorkspace(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := chi.URLParam(r, "id")
	for i, ws := range b.Workspaces {
		if ws.ID == id {
			b.Workspaces = append(b.Workspaces[:i], b.Workspaces[i+1:]...)
			if b.ActiveID == id {
				b.ActiveID = ""
				if len(b.Workspaces) > 0 {
					b.ActiveID = b.Workspaces[0].ID
				}
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Workspace not found"})
}

func (b *Backend) listNotifications(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]api.Notification, 0, len(b.Notifications))
	unread := r.URL.Query().Get("unread") == "true"
	for _, n := range b.Notifications {
		if unread && n.Read {
			continue
		}
		out = append(out, n)
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": out})
}

func (b *Backend) readAll(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Notifications {
		b.Notifications[i].Read = true
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *Backend) readNotification(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, n := range b.Notifications {
		if n.ID == chi.URLParam(r, "id") {
			b.Notifications[i].Read = true
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Notification not found"})
}

func (b *Backend) dismissNotification(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, n := range b.Notifications {
		if n.ID == chi.URLParam(r, "id") {
			b.Notifications = append(b.Notifications[:i], b.Notifications[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Notification not found"})
}

func (b *Backend) listActivity(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"activity": b.Activity})
}

func (b *Backend) mcpInfo(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.MCP)
}

func (b *Backend) mcpMode(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Mode     string `json:"mode"`
		ServerID string `json:"server_id"`
	}
	_ = decode(r, &in)
	b.mu.Lock()
	defer b.mu.Unlock()
	if in.ServerID == "" {
		b.MCP.CurrentMode = in.Mode
	} else {
		for i, s := range b.MCP.EnabledServers {
			if s.ID == in.ServerID {
				if in.Mode == "inherit" {
					b.MCP.EnabledServers[i].MCPMode = nil
				} else {
					m := in.Mode
					b.MCP.EnabledServers[i].MCPMode = &m
				}
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *Backend) listMarketplace(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	q := strings.ToLower(r.URL.Query().Get("search"))
	out := []api.MarketplaceMCP{}
	for _, m := range b.Marketplace {
		if q == "" || strings.Contains(strings.ToLower(m.Name), q) {
			out = append(out, m)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "mcps": out})
}

func (b *Backend) getMarketplace(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range b.Marketplace {
		if m.Slug == chi.URLParam(r, "slug") {
			writeJSON(w, http.StatusOK, map[string]any{"mcp": m})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "MCP not found"})
}

func (b *Backend) listPlans(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := append([]api.Plan(nil), b.Plans...)
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	writeJSON(w, http.StatusOK, map[string]any{"plans": out})
}

func (b *Backend) createPlan(w http.ResponseWriter, r *http.Request) {
	var p api.Plan
	_ = decode(r, &p)
	b.mu.Lock()
	defer b.mu.Unlock()
	p.ID = b.id("plan")
	b.Plans = append(b.Plans, p)
	writeJSON(w, http.StatusOK, map[string]any{"plan": p})
}

func (b *Backend) updatePlan(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	_ = decode(r, &fields)
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, p := range b.Plans {
		if p.ID == chi.URLParam(r, "id") {
			if v, ok := fields["name"].(string); ok {
				b.Plans[i].Name = v
			}
			if v, ok := fields["is_active"].(bool); ok {
				b.Plans[i].IsActive = v
			}
			writeJSON(w, http.StatusOK, map[string]any{"plan": b.Plans[i]})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Plan not found"})
}
