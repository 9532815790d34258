// Package connect derives the configuration an MCP client needs to reach a
// workspace's gateway endpoint.
package connect

import (
	"fmt"
	"sort"
	"strings"
)

const (
	KeyHeader   = "X-Symone-Key"
	ModeHeader  = "X-Symone-Mode"
	ServersHdr  = "X-Symone-Servers"
	Placeholder = "<your-api-key>"
)

// Agent is one of the supported client kinds. The set is closed.
type Agent interface {
	Name() string
	Label() string
	FileName() string
	render(in Input, key string) (string, error)
}

type ClaudeDesktop struct{}
type Cursor struct{}
type Windsurf struct{}
type Custom struct{}

func (ClaudeDesktop) Name() string     { return "claude_desktop" }
func (ClaudeDesktop) Label() string    { return "Claude Desktop" }
func (ClaudeDesktop) FileName() string { return "claude_desktop_config.json" }

func (ClaudeDesktop) render(in Input, key string) (string, error) {
	return marshal(config{MCPServers: map[string]entry{key: {
		URL:     in.URL,
		Headers: headers(in),
	}}})
}

func (Cursor) Name() string     { return "cursor" }
func (Cursor) Label() string    { return "Cursor" }
func (Cursor) FileName() string { return "mcp.json" }

func (Cursor) render(in Input, key string) (string, error) {
	return ClaudeDesktop{}.render(in, key)
}

func (Windsurf) Name() string     { return "windsurf" }
func (Windsurf) Label() string    { return "Windsurf" }
func (Windsurf) FileName() string { return "mcp_config.json" }

func (Windsurf) render(in Input, key string) (string, error) {
	return ClaudeDesktop{}.render(in, key)
}

func (Custom) Name() string     { return "custom" }
func (Custom) Label() string    { return "Custom / SSE" }
func (Custom) FileName() string { return "mcp_config.json" }

// Custom tooling gets both an endpoint description and the JSON config.
func (Custom) render(in Input, key string) (string, error) {
	js, err := ClaudeDesktop{}.render(in, key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("# SSE Connection\nURL: %s\nHeader: %s: %s\n\n# JSON Config\n%s", in.URL, KeyHeader, Placeholder, js), nil
}

var Agents = []Agent{ClaudeDesktop{}, Cursor{}, Windsurf{}, Custom{}}

func AgentOf(name string) (Agent, error) {
	for _, a := range Agents {
		if a.Name() == name {
			return a, nil
		}
	}
	names := make([]string, len(Agents))
	for i, a := range Agents {
		names[i] = a.Name()
	}
	return nil, fmt.Errorf("unknown agent %q (want one of %s)", name, strings.Join(names, ", "))
}

// headers carries the mode and server selection next to the key so that
// every derivation input is visible in the snippet.
func headers(in Input) map[string]string {
	h := map[string]string{
		KeyHeader:  Placeholder,
		ModeHeader: string(in.Mode),
	}
	if v := serversHeader(in.Servers); v != "" {
		h[ServersHdr] = v
	}
	return h
}

// serversHeader lists enabled servers sorted by id, with id=mode for
// overridden ones.
func serversHeader(servers []Server) string {
	parts := make([]string, 0, len(servers))
	for _, s := range servers {
		if s.Mode != nil {
			parts = append(parts, s.ID+"="+string(*s.Mode))
		} else {
			parts = append(parts, s.ID)
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// RequestHeaders are the headers a client configured from in sends, carrying
// the real key instead of the placeholder.
func RequestHeaders(in Input, key string) map[string]string {
	h := headers(in)
	h[KeyHeader] = key
	return h
}
