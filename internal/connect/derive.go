package connect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"symonectl/internal/api"
)

// Server is an enabled server; Mode is its override, nil when it inherits
// the workspace mode.
type Server struct {
	ID   string
	Name string
	Mode *Mode
}

type Input struct {
	Workspace string
	URL       string
	Mode      Mode
	Servers   []Server
}

type Snippet struct {
	Agent    string `json:"agent"`
	FileName string `json:"file_name"`
	Body     string `json:"body"`
}

var whitespace = regexp.MustCompile(`\s+`)

// ServerKey is the mcpServers entry name for a workspace label.
func ServerKey(workspace string) string {
	return "symone-" + whitespace.ReplaceAllString(strings.ToLower(workspace), "-")
}

// Derive renders the configuration for agent. It depends only on its
// arguments: equal inputs give byte-identical output.
func Derive(agent Agent, in Input) (Snippet, error) {
	if agent == nil {
		return Snippet{}, fmt.Errorf("agent is required")
	}
	if strings.TrimSpace(in.Workspace) == "" {
		return Snippet{}, fmt.Errorf("workspace label is required")
	}
	if strings.TrimSpace(in.URL) == "" {
		return Snippet{}, fmt.Errorf("connection url is required")
	}
	if in.Mode == "" {
		in.Mode = ModeStandard
	}
	if _, err := ParseMode(string(in.Mode)); err != nil {
		return Snippet{}, err
	}
	seen := map[string]bool{}
	for _, s := range in.Servers {
		if s.ID == "" {
			return Snippet{}, fmt.Errorf("server without id")
		}
		if seen[s.ID] {
			return Snippet{}, fmt.Errorf("server %s listed twice", s.ID)
		}
		seen[s.ID] = true
	}
	body, err := agent.render(in, ServerKey(in.Workspace))
	if err != nil {
		return Snippet{}, err
	}
	return Snippet{Agent: agent.Name(), FileName: agent.FileName(), Body: body}, nil
}

// FromInfo builds an Input from the backend's workspace connection info.
func FromInfo(info api.MCPConnectionInfo) Input {
	in := Input{
		Workspace: info.WorkspaceName,
		URL:       info.ConnectionURL,
		Mode:      Mode(info.CurrentMode),
	}
	for _, s := range info.EnabledServers {
		srv := Server{ID: s.ID, Name: s.Name}
		if s.MCPMode != nil && *s.MCPMode != "" && *s.MCPMode != Inherit {
			m := Mode(*s.MCPMode)
			srv.Mode = &m
		}
		in.Servers = append(in.Servers, srv)
	}
	return in
}

// TokenEstimate is the backend's estimated tool overhead for mode, or 0.
func TokenEstimate(info api.MCPConnectionInfo, mode Mode) int {
	return info.EstimatedTokens[string(mode)]
}

type config struct {
	MCPServers map[string]entry `json:"mcpServers"`
}

type entry struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}

func marshal(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
