package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"symonectl/internal/connect"
	"symonectl/internal/mcp"
	"symonectl/internal/session"
)

func connectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "MCP client configuration for the active workspace",
	}
	cmd.AddCommand(connectShowCmd())
	cmd.AddCommand(connectDownloadCmd())
	cmd.AddCommand(connectModeCmd())
	cmd.AddCommand(connectTestCmd())
	return cmd
}

func modeController(ctx context.Context, a *app) (*connect.ModeController, error) {
	info, err := a.data.MCPInfo(ctx)
	if err != nil {
		return nil, err
	}
	return connect.NewModeController(a.data, info, a.log), nil
}

func connectShowCmd() *cobra.Command {
	var agent string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the connection config for an agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			ag, err := connect.AgentOf(agent)
			if err != nil {
				return err
			}
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				info, err := a.data.MCPInfo(ctx)
				if err != nil {
					return err
				}
				in := connect.FromInfo(info)
				snip, err := connect.Derive(ag, in)
				if err != nil {
					return err
				}
				if a.asJSON {
					return a.printJSON(map[string]any{"connection": info, "snippet": snip})
				}
				fmt.Fprintf(a.out, "Workspace: %s\nURL:       %s\nMode:      %s (%s)\n", info.WorkspaceName, info.ConnectionURL, in.Mode, in.Mode.Description())
				if n := connect.TokenEstimate(info, in.Mode); n > 0 {
					fmt.Fprintf(a.out, "Estimated tool overhead: ~%d tokens\n", n)
				}
				fmt.Fprintf(a.out, "\n# %s (%s)\n%s\n", ag.Label(), snip.FileName, snip.Body)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "claude_desktop", "agent: claude_desktop|cursor|windsurf|custom")
	return cmd
}

func connectDownloadCmd() *cobra.Command {
	var agent, out string
	var force bool
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Write the connection config to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ag, err := connect.AgentOf(agent)
			if err != nil {
				return err
			}
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				mc, err := modeController(ctx, a)
				if err != nil {
					return err
				}
				snip, err := mc.Derive(ag)
				if err != nil {
					return err
				}
				path := out
				if path == "" {
					path = snip.FileName
				}
				if !force {
					if _, err := os.Stat(path); err == nil {
						return fmt.Errorf("%s exists; pass --force to overwrite", path)
					}
				}
				if dir := filepath.Dir(path); dir != "." {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						return err
					}
				}
				body := snip.Body
				if !strings.HasSuffix(body, "\n") {
					body += "\n"
				}
				if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				a.ok("wrote %s; replace %s with your API key", path, connect.Placeholder)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "claude_desktop", "agent: claude_desktop|cursor|windsurf|custom")
	cmd.Flags().StringVar(&out, "out", "", "output path (defaults to the agent's file name)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func connectModeCmd() *cobra.Command {
	var server string
	cmd := &cobra.Command{
		Use:   "mode [standard|optimized|inherit]",
		Short: "Show or change the execution mode (workspace-wide or per --server)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				mc, err := modeController(ctx, a)
				if err != nil {
					return err
				}
				if len(args) == 1 {
					if server != "" {
						err = mc.SetServerMode(ctx, server, args[0])
					} else {
						var m connect.Mode
						if m, err = connect.ParseMode(args[0]); err == nil {
							err = mc.SetMode(ctx, m)
						}
					}
					if err != nil {
						return err
					}
				}
				in := mc.Input()
				return a.print(in, func(w io.Writer) {
					fmt.Fprintf(w, "Workspace mode:\t%s\n", in.Mode)
					for _, m := range connect.Modes {
						note := ""
						if m.Selectable() != nil {
							note = " (coming soon)"
						}
						fmt.Fprintf(w, "  %s%s\t%s\n", m, note, m.Description())
					}
					if len(in.Servers) > 0 {
						fmt.Fprintln(w, "\nSERVER\tNAME\tMODE")
					}
					for _, s := range in.Servers {
						mode := connect.Inherit
						if s.Mode != nil {
							mode = string(*s.Mode)
						}
						fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.Name, mode)
					}
				})
			})
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "apply to one server instead of the workspace")
	return cmd
}

func connectTestCmd() *cobra.Command {
	var key string
	var sse bool
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Connect to the workspace MCP endpoint and list its tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				key = os.Getenv("SYMONE_API_KEY")
			}
			if key == "" {
				return fmt.Errorf("missing --key (or set SYMONE_API_KEY)")
			}
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				info, err := a.data.MCPInfo(ctx)
				if err != nil {
					return err
				}
				in := connect.FromInfo(info)
				pctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()
				res, err := mcp.Probe(pctx, in.URL, key, mcp.ProbeOptions{
					Headers:   connect.RequestHeaders(in, key),
					PreferSSE: sse,
				})
				if err != nil {
					return fmt.Errorf("probe %s: %w", in.URL, err)
				}
				return a.print(res, func(w io.Writer) {
					fmt.Fprintf(w, "Connected via %s in %s\n", res.Transport, res.Elapsed.Round(time.Millisecond))
					fmt.Fprintf(w, "%d tools\n", len(res.Tools))
					for _, t := range res.Tools {
						fmt.Fprintf(w, "  %s\n", t)
					}
				})
			})
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "workspace API key (defaults to SYMONE_API_KEY)")
	cmd.Flags().BoolVar(&sse, "sse", false, "skip streamable HTTP and use SSE")
	cmd.Flags().DurationVar(&timeout, "probe-timeout", 20*time.Second, "probe timeout")
	return cmd
}
