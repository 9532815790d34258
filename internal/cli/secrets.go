package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"symonectl/internal/api"
	"symonectl/internal/session"
)

func secretsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Workspace secrets (values are write-only)",
	}
	cmd.AddCommand(secretsListCmd())
	cmd.AddCommand(secretsAddCmd())
	cmd.AddCommand(secretsUpdateCmd())
	cmd.AddCommand(secretsRotateCmd())
	cmd.AddCommand(secretsDeleteCmd())
	return cmd
}

func secretsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List secret names",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				list, err := a.data.Secrets(ctx)
				if err != nil {
					return err
				}
				return a.print(list, func(w io.Writer) {
					fmt.Fprintln(w, "NAME\tSERVERS\tEXPIRES\tUPDATED")
					for _, s := range list {
						exp := "-"
						if s.ExpiresAt != nil {
							exp = *s.ExpiresAt
						}
						fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", s.Name, len(s.ServerIDs), exp, orDash(s.UpdatedAt))
					}
				})
			})
		},
	}
}

func secretsAddCmd() *cobra.Command {
	var servers []string
	var expires string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Store a secret; the value is read from stdin or prompted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := readSecret(cmd, "Value: ")
			if err != nil {
				return err
			}
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				in := api.SecretInput{Name: args[0], Value: value, ServerIDs: servers}
				if expires != "" {
					in.ExpiresAt = &expires
				}
				s, err := a.data.CreateSecret(ctx, in)
				if err != nil {
					return err
				}
				a.ok("secret %s stored", s.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&servers, "server", nil, "server id allowed to use the secret (repeatable)")
	cmd.Flags().StringVar(&expires, "expires", "", "expiry timestamp (RFC 3339)")
	return cmd
}

func secretsUpdateCmd() *cobra.Command {
	var servers []string
	var expires string
	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Change a secret's expiry or attached servers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				var exp *string
				if cmd.Flags().Changed("expires") {
					exp = &expires
				}
				s, err := a.data.UpdateSecret(ctx, api.NormalizeSecretName(args[0]), exp, servers)
				if err != nil {
					return err
				}
				a.ok("secret %s updated", s.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&servers, "server", nil, "server id allowed to use the secret (repeatable)")
	cmd.Flags().StringVar(&expires, "expires", "", "expiry timestamp (RFC 3339)")
	return cmd
}

func secretsRotateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rotate <name>",
		Short: "Replace a secret's value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := readSecret(cmd, "New value: ")
			if err != nil {
				return err
			}
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				name := api.NormalizeSecretName(args[0])
				if err := a.data.RotateSecret(ctx, name, value); err != nil {
					return err
				}
				a.ok("secret %s rotated", name)
				return nil
			})
		},
	}
}

func secretsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				name := api.NormalizeSecretName(args[0])
				if err := a.data.DeleteSecret(ctx, name); err != nil {
					return err
				}
				a.ok("secret %s deleted", name)
				return nil
			})
		},
	}
}
