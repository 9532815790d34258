package connect

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symonectl/internal/api"
	"symonectl/internal/logging"
)

func mode(m Mode) *Mode { return &m }

func baseInput() Input {
	return Input{
		Workspace: "Acme Corp",
		URL:       "https://gw.symone.dev/mcp/acme/sse",
		Mode:      ModeOptimized,
		Servers: []Server{
			{ID: "srv-2", Name: "Slack"},
			{ID: "srv-1", Name: "GitHub", Mode: mode(ModeStandard)},
		},
	}
}

func TestServerKey(t *testing.T) {
	assert.Equal(t, "symone-acme-corp", ServerKey("Acme Corp"))
	assert.Equal(t, "symone--my-big-team-", ServerKey("  My \t Big\nTeam "))
	assert.Equal(t, "symone--acme", ServerKey("  Acme"))
	assert.Equal(t, "symone-beta", ServerKey("beta"))
}

func TestDeriveClaudeDesktopShape(t *testing.T) {
	s, err := Derive(ClaudeDesktop{}, baseInput())
	require.NoError(t, err)
	assert.Equal(t, "claude_desktop_config.json", s.FileName)

	var cfg struct {
		MCPServers map[string]struct {
			URL     string            `json:"url"`
			Headers map[string]string `json:"headers"`
		} `json:"mcpServers"`
	}
	require.NoError(t, json.Unmarshal([]byte(s.Body), &cfg))
	e, ok := cfg.MCPServers["symone-acme-corp"]
	require.True(t, ok)
	assert.Equal(t, "https://gw.symone.dev/mcp/acme/sse", e.URL)
	assert.Equal(t, "<your-api-key>", e.Headers["X-Symone-Key"])
	assert.Equal(t, "optimized", e.Headers["X-Symone-Mode"])
	assert.Equal(t, "srv-1=standard,srv-2", e.Headers["X-Symone-Servers"])
	assert.Len(t, e.Headers, 3)

	in := baseInput()
	in.Servers = nil
	s, err = Derive(ClaudeDesktop{}, in)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(s.Body), &cfg))
	assert.NotContains(t, cfg.MCPServers["symone-acme-corp"].Headers, "X-Symone-Servers")
}

func TestDeriveIsDeterministic(t *testing.T) {
	for _, a := range Agents {
		in := baseInput()
		first, err := Derive(a, in)
		require.NoError(t, err)
		// reordered server list is the same set
		in.Servers[0], in.Servers[1] = in.Servers[1], in.Servers[0]
		for i := 0; i < 5; i++ {
			again, err := Derive(a, in)
			require.NoError(t, err)
			assert.Equal(t, first.Body, again.Body, a.Name())
		}
	}
}

func TestDeriveChangesWithEveryInput(t *testing.T) {
	base, err := Derive(ClaudeDesktop{}, baseInput())
	require.NoError(t, err)

	variants := map[string]func(*Input){
		"workspace":       func(in *Input) { in.Workspace = "Beta" },
		"url":             func(in *Input) { in.URL = "https://other/sse" },
		"mode":            func(in *Input) { in.Mode = ModeStandard },
		"add server":      func(in *Input) { in.Servers = append(in.Servers, Server{ID: "srv-3"}) },
		"drop server":     func(in *Input) { in.Servers = in.Servers[:1] },
		"server override": func(in *Input) { in.Servers[0].Mode = mode(ModeOptimized) },
		"clear override":  func(in *Input) { in.Servers[1].Mode = nil },
	}
	for name, mutate := range variants {
		t.Run(name, func(t *testing.T) {
			in := baseInput()
			mutate(&in)
			s, err := Derive(ClaudeDesktop{}, in)
			require.NoError(t, err)
			assert.NotEqual(t, base.Body, s.Body)
		})
	}

	seen := map[Snippet]string{}
	for _, a := range Agents {
		s, err := Derive(a, baseInput())
		require.NoError(t, err)
		other, dup := seen[s]
		assert.False(t, dup, "%s vs %s", a.Name(), other)
		seen[s] = a.Name()
	}
}

func TestDeriveCustom(t *testing.T) {
	in := baseInput()
	s, err := Derive(Custom{}, in)
	require.NoError(t, err)
	js, err := Derive(ClaudeDesktop{}, in)
	require.NoError(t, err)

	want := "# SSE Connection\nURL: " + in.URL + "\nHeader: X-Symone-Key: <your-api-key>\n\n# JSON Config\n" + js.Body
	assert.Equal(t, want, s.Body)
	assert.Equal(t, "mcp_config.json", s.FileName)
}

func TestAgentVariants(t *testing.T) {
	desk, err := Derive(ClaudeDesktop{}, baseInput())
	require.NoError(t, err)
	for _, a := range []Agent{Cursor{}, Windsurf{}} {
		s, err := Derive(a, baseInput())
		require.NoError(t, err)
		assert.Equal(t, desk.Body, s.Body, a.Name())

		var raw map[string]map[string]map[string]json.RawMessage
		require.NoError(t, json.Unmarshal([]byte(s.Body), &raw))
		e := raw["mcpServers"]["symone-acme-corp"]
		assert.Len(t, e, 2, a.Name())
		assert.Contains(t, e, "url")
		assert.Contains(t, e, "headers")
	}
	cur, err := Derive(Cursor{}, baseInput())
	require.NoError(t, err)
	assert.Equal(t, "mcp.json", cur.FileName)

	a, err := AgentOf("windsurf")
	require.NoError(t, err)
	assert.Equal(t, Windsurf{}, a)
	_, err = AgentOf("vim")
	assert.Error(t, err)
}

func TestDeriveRejectsBadInput(t *testing.T) {
	in := baseInput()
	in.URL = ""
	_, err := Derive(ClaudeDesktop{}, in)
	assert.Error(t, err)

	in = baseInput()
	in.Workspace = " "
	_, err = Derive(ClaudeDesktop{}, in)
	assert.Error(t, err)

	in = baseInput()
	in.Servers = append(in.Servers, Server{ID: "srv-1"})
	_, err = Derive(ClaudeDesktop{}, in)
	assert.Error(t, err)

	in = baseInput()
	in.Mode = "turbo"
	_, err = Derive(ClaudeDesktop{}, in)
	assert.Error(t, err)
}

func TestURLNotHTMLEscaped(t *testing.T) {
	in := baseInput()
	in.URL = "https://gw/sse?a=1&b=2"
	s, err := Derive(ClaudeDesktop{}, in)
	require.NoError(t, err)
	assert.True(t, strings.Contains(s.Body, "a=1&b=2"))
}

func TestModes(t *testing.T) {
	assert.NoError(t, ModeStandard.Selectable())
	assert.NoError(t, ModeOptimized.Selectable())
	assert.ErrorIs(t, ModeAdvanced.Selectable(), ErrModeReserved)

	m, err := ParseOverride("inherit")
	require.NoError(t, err)
	assert.Nil(t, m)
	m, err = ParseOverride("optimized")
	require.NoError(t, err)
	assert.Equal(t, ModeOptimized, *m)
	_, err = ParseOverride("advanced")
	assert.ErrorIs(t, err, ErrModeReserved)
	_, err = ParseMode("bogus")
	assert.Error(t, err)
}

type fakePersister struct {
	err   error
	calls []string
}

func (f *fakePersister) UpdateMode(_ context.Context, mode, serverID string) error {
	f.calls = append(f.calls, serverID+":"+mode)
	return f.err
}

func info() api.MCPConnectionInfo {
	o := "optimized"
	return api.MCPConnectionInfo{
		WorkspaceName:   "Acme",
		ConnectionURL:   "https://gw/sse",
		CurrentMode:     "standard",
		EnabledServers:  []api.MCPServer{{ID: "s1", Name: "GitHub"}, {ID: "s2", Name: "Slack", MCPMode: &o}},
		EstimatedTokens: map[string]int{"standard": 12000, "optimized": 7560, "advanced": 900},
	}
}

func TestModeControllerSuccess(t *testing.T) {
	p := &fakePersister{}
	c := NewModeController(p, info(), logging.Discard())
	before, err := c.Derive(ClaudeDesktop{})
	require.NoError(t, err)

	require.NoError(t, c.SetMode(context.Background(), ModeOptimized))
	assert.Equal(t, ModeOptimized, c.Input().Mode)
	after, err := c.Derive(ClaudeDesktop{})
	require.NoError(t, err)
	assert.NotEqual(t, before.Body, after.Body)

	require.NoError(t, c.SetServerMode(context.Background(), "s2", Inherit))
	assert.Nil(t, c.Input().Servers[1].Mode)
	assert.Equal(t, []string{":optimized", "s2:inherit"}, p.calls)
}

func TestModeControllerRollsBack(t *testing.T) {
	p := &fakePersister{err: errors.New("http 500: boom")}
	c := NewModeController(p, info(), logging.Discard())

	err := c.SetMode(context.Background(), ModeOptimized)
	require.Error(t, err)
	assert.Equal(t, ModeStandard, c.Input().Mode)

	err = c.SetServerMode(context.Background(), "s1", "optimized")
	require.Error(t, err)
	assert.Nil(t, c.Input().Servers[0].Mode)
}

func TestModeControllerRejectsReserved(t *testing.T) {
	p := &fakePersister{}
	c := NewModeController(p, info(), logging.Discard())
	assert.ErrorIs(t, c.SetMode(context.Background(), ModeAdvanced), ErrModeReserved)
	assert.Empty(t, p.calls)
	assert.Error(t, c.SetServerMode(context.Background(), "nope", "standard"))
	assert.Empty(t, p.calls)
}

func TestInputIsACopy(t *testing.T) {
	c := NewModeController(&fakePersister{}, info(), logging.Discard())
	in := c.Input()
	*in.Servers[1].Mode = ModeStandard
	assert.Equal(t, ModeOptimized, *c.Input().Servers[1].Mode)
}

func TestTokenEstimate(t *testing.T) {
	assert.Equal(t, 7560, TokenEstimate(info(), ModeOptimized))
	assert.Equal(t, 0, TokenEstimate(api.MCPConnectionInfo{}, ModeStandard))
}
