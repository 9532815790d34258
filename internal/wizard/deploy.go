package wizard

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"symonectl/internal/api"
)

const DefaultRegion = "us-central1"

type Template struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

var Templates = []Template{
	{Name: "PostgreSQL", Type: "database", Description: "SQL database connector"},
	{Name: "MongoDB", Type: "database", Description: "NoSQL document store"},
	{Name: "Slack", Type: "messaging", Description: "Slack workspace integration"},
	{Name: "Discord", Type: "messaging", Description: "Discord bot connector"},
	{Name: "AWS S3", Type: "storage", Description: "Cloud object storage"},
	{Name: "Google Cloud Storage", Type: "storage", Description: "GCP storage buckets"},
	{Name: "GitHub", Type: "api", Description: "Repository management"},
	{Name: "Notion", Type: "api", Description: "Workspace & docs API"},
	{Name: "Stripe", Type: "api", Description: "Payment processing"},
	{Name: "SendGrid", Type: "messaging", Description: "Email delivery"},
	{Name: "Web Scraper", Type: "api", Description: "Extract web data"},
	{Name: "OpenAI", Type: "ai", Description: "GPT & embeddings"},
	{Name: "Anthropic", Type: "ai", Description: "Claude AI assistant"},
}

// FindTemplate matches a template by name, case-insensitively, or by its
// default server name.
func FindTemplate(name string) (Template, error) {
	for _, t := range Templates {
		if strings.EqualFold(t.Name, name) || DefaultServerName(t) == strings.ToLower(name) {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("unknown template %q", name)
}

var spaces = regexp.MustCompile(`\s+`)

// DefaultServerName is the template name lower-cased with whitespace runs
// turned into hyphens.
func DefaultServerName(t Template) string {
	return spaces.ReplaceAllString(strings.ToLower(t.Name), "-")
}

type DeployForm struct {
	Template Template
	Name     string
	Config   map[string]any
}

func (f DeployForm) Request() (api.DeployRequest, error) {
	if f.Template.Name == "" || f.Template.Type == "" {
		return api.DeployRequest{}, api.Invalid("template", "select a template")
	}
	name := strings.TrimSpace(f.Name)
	if name == "" {
		name = DefaultServerName(f.Template)
	}
	cfg := f.Config
	if cfg == nil {
		cfg = map[string]any{}
	}
	return api.DeployRequest{Name: name, Type: f.Template.Type, Region: DefaultRegion, Config: cfg}, nil
}

// Deploy creates the server and fetches its connection info. If only the
// second call fails the server is returned with the error: it exists.
func Deploy(ctx context.Context, b Backend, f DeployForm) (api.Server, *api.ConnectionInfo, error) {
	req, err := f.Request()
	if err != nil {
		return api.Server{}, nil, err
	}
	srv, err := b.CreateServer(ctx, req)
	if err != nil {
		return api.Server{}, nil, err
	}
	info, err := b.ConnectionInfo(ctx, srv.ID)
	if err != nil {
		return srv, nil, fmt.Errorf("server %s deployed but its connection info is unavailable: %w", srv.ID, err)
	}
	return srv, &info, nil
}
