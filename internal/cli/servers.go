package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"symonectl/internal/api"
	"symonectl/internal/data"
	"symonectl/internal/session"
	"symonectl/internal/wizard"
)

func serversCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "servers",
		Short: "Deployed servers in the active workspace",
	}
	cmd.AddCommand(serversListCmd())
	cmd.AddCommand(serversGetCmd())
	cmd.AddCommand(serversInfoCmd())
	cmd.AddCommand(serversStatsCmd())
	cmd.AddCommand(serversDeleteCmd())
	for _, act := range []struct {
		name, short string
		fn          func(*data.Service) func(context.Context, string) error
	}{
		{"start", "Start a server", func(s *data.Service) func(context.Context, string) error { return s.StartServer }},
		{"stop", "Stop a server", func(s *data.Service) func(context.Context, string) error { return s.StopServer }},
		{"restart", "Restart a server", func(s *data.Service) func(context.Context, string) error { return s.RestartServer }},
		{"activate", "Activate a configured server", func(s *data.Service) func(context.Context, string) error { return s.ActivateServer }},
	} {
		cmd.AddCommand(serverActionCmd(act.name, act.short, act.fn))
	}
	return cmd
}

func serversListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				list, err := a.data.Servers(ctx)
				if err != nil {
					return err
				}
				return a.print(list, func(w io.Writer) {
					fmt.Fprintln(w, "ID\tNAME\tTYPE\tSTATUS\tREGION")
					for _, s := range list {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Type, s.Status, orDash(s.Region))
					}
				})
			})
		},
	}
}

func serversGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				s, err := a.data.Server(ctx, args[0])
				if err != nil {
					return err
				}
				return a.printJSON(s)
			})
		},
	}
}

func serversInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <id>",
		Short: "Show a server's connection info",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				info, err := a.data.ConnectionInfo(ctx, args[0])
				if err != nil {
					return err
				}
				return a.print(info, func(w io.Writer) { printConnectionInfo(w, info) })
			})
		},
	}
}

func printConnectionInfo(w io.Writer, info api.ConnectionInfo) {
	fmt.Fprintf(w, "Server:\t%s (%s)\n", info.ServerName, info.ServerID)
	fmt.Fprintf(w, "Status:\t%s\n", info.Status)
	fmt.Fprintf(w, "Gateway:\t%s\n", info.GatewayURL)
	fmt.Fprintf(w, "Tools:\t%s\n", info.ToolsEndpoint)
	if info.APIKeyHint != "" {
		fmt.Fprintf(w, "API key:\t%s\n", info.APIKeyHint)
	}
	if info.CurlExample != "" {
		fmt.Fprintf(w, "\n%s\n", info.CurlExample)
	}
	for i, step := range info.NextSteps {
		fmt.Fprintf(w, "%d.\t%s\n", i+1, step)
	}
}

func serversStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Dashboard statistics for the active workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				st, err := a.data.Stats(ctx)
				if err != nil {
					return err
				}
				return a.printJSON(st)
			})
		},
	}
}

func serversDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				if err := a.data.DeleteServer(ctx, args[0]); err != nil {
					return err
				}
				a.ok("server %s deleted", args[0])
				return nil
			})
		},
	}
}

func serverActionCmd(name, short string, pick func(*data.Service) func(context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				if err := pick(a.data)(ctx, args[0]); err != nil {
					return err
				}
				a.ok("%s: %s", name, args[0])
				return nil
			})
		},
	}
}

func deployCmd() *cobra.Command {
	var tmpl, name string
	var config []string
	var listOnly bool
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a server from a template",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listOnly {
				return run(cmd, "", false, func(ctx context.Context, a *app) error {
					return a.print(wizard.Templates, func(w io.Writer) {
						fmt.Fprintln(w, "TEMPLATE\tTYPE\tDEFAULT NAME\tDESCRIPTION")
						for _, t := range wizard.Templates {
							fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Name, t.Type, wizard.DefaultServerName(t), t.Description)
						}
					})
				})
			}
			t, err := wizard.FindTemplate(tmpl)
			if err != nil {
				return err
			}
			cfg, err := parseKV(config)
			if err != nil {
				return err
			}
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				srv, info, err := wizard.Deploy(ctx, a.data, wizard.DeployForm{Template: t, Name: name, Config: cfg})
				if err != nil {
					if srv.ID != "" {
						a.log.Warn("server deployed without connection info", "server_id", srv.ID)
					}
					return err
				}
				out := map[string]any{"server": srv, "connection": info}
				return a.print(out, func(w io.Writer) {
					fmt.Fprintf(w, "Deployed %s (%s) in %s\n\n", srv.Name, srv.ID, orDash(srv.Region))
					printConnectionInfo(w, *info)
				})
			})
		},
	}
	cmd.Flags().StringVar(&tmpl, "template", "", "template name (see --list)")
	cmd.Flags().StringVar(&name, "name", "", "server name (defaults to the template name)")
	cmd.Flags().StringArrayVar(&config, "config", nil, "configuration entry key=value (repeatable)")
	cmd.Flags().BoolVar(&listOnly, "list", false, "list templates and exit")
	return cmd
}

func parseKV(pairs []string) (map[string]any, error) {
	out := map[string]any{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid key=value: %q", p)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}
