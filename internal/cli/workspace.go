package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"symonectl/internal/session"
	"symonectl/internal/workspace"
)

func workspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "List and switch workspaces",
	}
	cmd.AddCommand(workspaceListCmd())
	cmd.AddCommand(workspaceSwitchCmd())
	cmd.AddCommand(workspaceCreateCmd())
	cmd.AddCommand(workspaceRenameCmd())
	cmd.AddCommand(workspaceDeleteCmd())
	cmd.AddCommand(workspaceLeaveCmd())
	cmd.AddCommand(workspaceTransferCmd())
	return cmd
}

// resolveWorkspace accepts a workspace id or an exact (case-insensitive) name.
func resolveWorkspace(ctx context.Context, a *app, ref string) (string, error) {
	l, err := a.ws.List(ctx)
	if err != nil {
		return "", err
	}
	if l.Degraded {
		return ref, nil
	}
	for _, w := range l.Workspaces {
		if w.ID == ref {
			return w.ID, nil
		}
	}
	for _, w := range l.Workspaces {
		if strings.EqualFold(w.Name, ref) {
			return w.ID, nil
		}
	}
	return "", fmt.Errorf("no workspace %q", ref)
}

func workspaceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workspaces; the active one is marked",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				l, err := a.ws.List(ctx)
				if err != nil {
					return err
				}
				if l.Degraded {
					a.log.Warn("workspaces unavailable", "err", l.Err)
				}
				return a.print(l, func(w io.Writer) { printListing(w, l) })
			})
		},
	}
}

func printListing(w io.Writer, l workspace.Listing) {
	if l.Degraded {
		fmt.Fprintln(w, "(disconnected)")
		return
	}
	fmt.Fprintln(w, "\tID\tNAME\tPLAN\tROLE")
	for _, ws := range l.Workspaces {
		mark := ""
		if ws.ID == l.ActiveID {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", mark, ws.ID, ws.Name, orDash(ws.Plan), orDash(ws.Role))
	}
}

func workspaceSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <id|name>",
		Short: "Make a workspace active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				id, err := resolveWorkspace(ctx, a, args[0])
				if err != nil {
					return err
				}
				if err := a.ws.Switch(ctx, id); err != nil {
					return err
				}
				a.ok("active workspace: %s", orDash(a.sess.CachedUser().TeamName()))
				return nil
			})
		},
	}
}

func workspaceCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a workspace and switch to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				ws, err := a.ws.Create(ctx, args[0])
				if err != nil {
					return err
				}
				if a.asJSON {
					return a.printJSON(ws)
				}
				a.ok("created workspace %s (%s) and switched to it", ws.Name, ws.ID)
				return nil
			})
		},
	}
}

func workspaceRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id|name> <new-name>",
		Short: "Rename a workspace",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				id, err := resolveWorkspace(ctx, a, args[0])
				if err != nil {
					return err
				}
				ws, err := a.ws.Rename(ctx, id, args[1])
				if err != nil {
					return err
				}
				a.ok("renamed to %s", ws.Name)
				return nil
			})
		},
	}
}

func workspaceDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete a workspace you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("deleting a workspace removes its servers and secrets; pass --yes to confirm")
			}
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				id, err := resolveWorkspace(ctx, a, args[0])
				if err != nil {
					return err
				}
				if err := a.ws.Delete(ctx, id); err != nil {
					return err
				}
				a.ok("workspace deleted")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func workspaceLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <id|name>",
		Short: "Leave a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				id, err := resolveWorkspace(ctx, a, args[0])
				if err != nil {
					return err
				}
				if err := a.ws.Leave(ctx, id); err != nil {
					return err
				}
				a.ok("left workspace")
				return nil
			})
		},
	}
}

func workspaceTransferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <id|name> <new-owner-user-id>",
		Short: "Transfer workspace ownership",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				id, err := resolveWorkspace(ctx, a, args[0])
				if err != nil {
					return err
				}
				if err := a.ws.TransferOwnership(ctx, id, args[1]); err != nil {
					return err
				}
				a.ok("ownership transferred")
				return nil
			})
		},
	}
}
