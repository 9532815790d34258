package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"symonectl/internal/session"
)

func teamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Members of the active workspace",
	}
	cmd.AddCommand(teamListCmd())
	cmd.AddCommand(teamInviteCmd())
	cmd.AddCommand(teamMemberCmd("role <member-id> <role>", "Change a member's role", 2,
		func(ctx context.Context, a *app, args []string) error {
			return a.data.UpdateRole(ctx, args[0], args[1])
		}))
	cmd.AddCommand(teamMemberCmd("remove <member-id>", "Remove a member", 1,
		func(ctx context.Context, a *app, args []string) error {
			return a.data.RemoveMember(ctx, args[0])
		}))
	cmd.AddCommand(teamMemberCmd("resend <member-id>", "Resend a pending invitation", 1,
		func(ctx context.Context, a *app, args []string) error {
			return a.data.ResendInvite(ctx, args[0])
		}))
	return cmd
}

func teamListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List members",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				list, err := a.data.Team(ctx)
				if err != nil {
					return err
				}
				return a.print(list, func(w io.Writer) {
					fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tSTATUS")
					for _, m := range list {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.ID, m.Email, orDash(m.Name), m.Role, orDash(m.Status))
					}
				})
			})
		},
	}
}

func teamInviteCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "invite <email>",
		Short: "Invite someone to the workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				m, err := a.data.InviteMember(ctx, args[0], role)
				if err != nil {
					return err
				}
				a.ok("invited %s as %s", m.Email, m.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "member", "role: admin|member|viewer")
	return cmd
}

func teamMemberCmd(use, short string, nargs int, fn func(ctx context.Context, a *app, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				if err := fn(ctx, a, args); err != nil {
					return err
				}
				a.ok("done")
				return nil
			})
		},
	}
}
