package api

type ServerStatus string

const (
	StatusDeploying ServerStatus = "deploying"
	StatusRunning   ServerStatus = "running"
	StatusStopped   ServerStatus = "stopped"
	StatusError     ServerStatus = "error"
)

// Server is a deployed integration instance.
type Server struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Status    ServerStatus   `json:"status"`
	Config    map[string]any `json:"config,omitempty"`
	Enabled   bool           `json:"enabled,omitempty"`
	MCPMode   *string        `json:"mcp_mode,omitempty"`
	Region    string         `json:"region,omitempty"`
	CreatedAt string         `json:"created_at,omitempty"`
	UpdatedAt string         `json:"updated_at,omitempty"`
}

type DeployRequest struct {
	Name   string         `json:"name"`
	Type   string         `json:"type"`
	Region string         `json:"region,omitempty"`
	Config map[string]any `json:"config,omitempty"`
}

// Secret never carries its value once created.
type Secret struct {
	ID        string   `json:"id,omitempty"`
	Name      string   `json:"name"`
	ExpiresAt *string  `json:"expires_at,omitempty"`
	ServerIDs []string `json:"server_ids,omitempty"`
	CreatedAt string   `json:"created_at,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
}

type SecretInput struct {
	Name      string   `json:"name"`
	Value     string   `json:"value"`
	ExpiresAt *string  `json:"expires_at,omitempty"`
	ServerIDs []string `json:"server_ids,omitempty"`
}

type Workspace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Plan string `json:"plan,omitempty"`
	Role string `json:"role,omitempty"`
}

type WorkspaceList struct {
	Teams        []Workspace `json:"teams"`
	ActiveTeamID string      `json:"active_team_id"`
}

type TeamMember struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Avatar    string `json:"avatar,omitempty"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type Notification struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	ActionURL string `json:"action_url,omitempty"`
	CreatedAt string `json:"created_at"`
}

type ActivityLog struct {
	ID            string         `json:"id"`
	ServerType    string         `json:"server_type"`
	ToolName      string         `json:"tool_name"`
	Status        string         `json:"status"`
	LatencyMS     *float64       `json:"latency_ms,omitempty"`
	CreatedAt     string         `json:"created_at"`
	RequestParams map[string]any `json:"request_params,omitempty"`
}

// ConnectionInfo is the per-server connection description.
type ConnectionInfo struct {
	ServerID            string         `json:"server_id"`
	ServerName          string         `json:"server_name"`
	ServerType          string         `json:"server_type"`
	Status              string         `json:"status"`
	GatewayURL          string         `json:"gateway_url"`
	ToolsEndpoint       string         `json:"tools_endpoint"`
	APIKeyHint          string         `json:"api_key_hint,omitempty"`
	Region              string         `json:"region"`
	ClaudeDesktopConfig map[string]any `json:"claude_desktop_config"`
	CurlExample         string         `json:"curl_example"`
	DocumentationURL    string         `json:"documentation_url"`
	NextSteps           []string       `json:"next_steps"`
}

type MCPServer struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	MCPMode *string `json:"mcp_mode"`
}

// MCPConnectionInfo describes the workspace-wide MCP endpoint.
type MCPConnectionInfo struct {
	WorkspaceName   string         `json:"workspace_name"`
	ConnectionURL   string         `json:"connection_url"`
	CurrentMode     string         `json:"current_mode"`
	EnabledServers  []MCPServer    `json:"enabled_servers"`
	EstimatedTokens map[string]int `json:"estimated_tokens"`
}

type PlanLimits struct {
	QuotaLimit     int    `json:"quota_limit"`
	ServerLimit    int    `json:"server_limit"`
	StorageLimit   int    `json:"storage_limit"`
	CurrentUsage   int    `json:"current_usage"`
	CurrentServers int    `json:"current_servers"`
	Plan           string `json:"plan"`
	PlanName       string `json:"plan_name"`
}

type Metrics struct {
	TotalRequests int     `json:"total_requests"`
	SuccessRate   float64 `json:"success_rate"`
	TotalServers  int     `json:"total_servers"`
}

type Health struct {
	Status        string `json:"status"`
	Database      string `json:"database,omitempty"`
	ServersActive int    `json:"servers_active,omitempty"`
}

type MarketplaceMCP struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Slug            string   `json:"slug"`
	Category        string   `json:"category"`
	Subcategory     string   `json:"subcategory,omitempty"`
	Description     string   `json:"description,omitempty"`
	Provider        string   `json:"provider"`
	Status          string   `json:"status"`
	Version         string   `json:"version"`
	Icon            string   `json:"icon,omitempty"`
	Installs        int      `json:"installs"`
	Rating          float64  `json:"rating"`
	Verified        bool     `json:"verified"`
	ServerType      string   `json:"server_type,omitempty"`
	RequiredSecrets []string `json:"required_secrets,omitempty"`
}

type Plan struct {
	ID           string   `json:"id,omitempty"`
	Name         string   `json:"name"`
	Slug         string   `json:"slug"`
	Description  string   `json:"description,omitempty"`
	PriceMonthly float64  `json:"price_monthly"`
	PriceYearly  float64  `json:"price_yearly"`
	QuotaLimit   int      `json:"quota_limit"`
	Features     []string `json:"features"`
	IsActive     bool     `json:"is_active"`
	IsFeatured   bool     `json:"is_featured"`
	DisplayOrder int      `json:"display_order"`
}

// AdminTeam is a tenant as seen from the admin panel.
type AdminTeam struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Plan        string `json:"plan,omitempty"`
	QuotaLimit  int    `json:"quota_limit,omitempty"`
	UsageCount  int    `json:"usage_count,omitempty"`
	Active      bool   `json:"active"`
	MemberCount int    `json:"member_count,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type UsageTrend struct {
	Date         string  `json:"date"`
	Requests     int     `json:"requests"`
	Errors       int     `json:"errors"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
}

type ServerPerformance struct {
	ServerType   string  `json:"server_type"`
	Requests     int     `json:"requests"`
	SuccessRate  float64 `json:"success_rate"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
}

type RevenueBreakdown struct {
	MRR   float64 `json:"mrr"`
	ARR   float64 `json:"arr"`
	Count int     `json:"count"`
}

type Revenue struct {
	TotalMRR  float64                     `json:"total_mrr"`
	TotalARR  float64                     `json:"total_arr"`
	ByPlan    map[string]RevenueBreakdown `json:"by_plan"`
	Timestamp string                      `json:"timestamp"`
}
