package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"symonectl/internal/api"
	"symonectl/internal/session"
	"symonectl/internal/wizard"
)

func marketplaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "marketplace",
		Aliases: []string{"mp"},
		Short:   "Browse and install marketplace MCP servers",
	}
	cmd.AddCommand(marketplaceListCmd())
	cmd.AddCommand(marketplaceInstallCmd())
	return cmd
}

func marketplaceListCmd() *cobra.Command {
	var f api.MarketplaceFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List marketplace entries (no login needed)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, false, func(ctx context.Context, a *app) error {
				list, err := a.api.ListMarketplace(ctx, f)
				if err != nil {
					return err
				}
				return a.print(list, func(w io.Writer) {
					fmt.Fprintln(w, "SLUG\tNAME\tCATEGORY\tPROVIDER\tINSTALLS\tSECRETS")
					for _, m := range list {
						name := m.Name
						if m.Verified {
							name += " ✓"
						}
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", m.Slug, name, m.Category, m.Provider, m.Installs, orDash(strings.Join(m.RequiredSecrets, ",")))
					}
				})
			})
		},
	}
	cmd.Flags().StringVar(&f.Category, "category", "", "filter by category")
	cmd.Flags().StringVar(&f.Subcategory, "subcategory", "", "filter by subcategory")
	cmd.Flags().StringVar(&f.Search, "search", "", "search text")
	cmd.Flags().StringVar(&f.Provider, "provider", "", "filter by provider")
	return cmd
}

func marketplaceInstallCmd() *cobra.Command {
	var secrets []string
	cmd := &cobra.Command{
		Use:   "install <slug>",
		Short: "Install a marketplace server: deploy, store its secrets, activate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			given, err := parseKV(secrets)
			if err != nil {
				return err
			}
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				entry, err := a.api.GetMarketplace(ctx, args[0])
				if err != nil {
					return err
				}
				w, info := wizard.NewInstall(a.data, entry)
				step, err := info.Install(ctx)
				if err != nil && step.State() != wizard.StateVerify {
					return err
				}
				if c, ok := step.(*wizard.Configure); ok {
					var prompts, keys []string
					for _, k := range c.Required() {
						if v, ok := given[k]; ok {
							c.Set(k, fmt.Sprint(v))
							continue
						}
						keys = append(keys, k)
						prompts = append(prompts, k+": ")
					}
					if len(prompts) > 0 {
						vals, err := readSecrets(cmd, prompts...)
						if err != nil {
							return err
						}
						for i, k := range keys {
							c.Set(k, vals[i])
						}
					}
					step, err = c.Submit(ctx)
					if err != nil && step.State() != wizard.StateVerify {
						return fmt.Errorf("server %s was created but is not configured: %w", w.Server().ID, err)
					}
				}
				switch s := step.(type) {
				case *wizard.Success:
					return a.print(s, func(out io.Writer) {
						fmt.Fprintf(out, "Installed %s (%s)\n\n", s.Server.Name, s.Server.ID)
						printConnectionInfo(out, s.Connection)
					})
				case *wizard.Verify:
					return errors.Join(fmt.Errorf("server %s is active; run `symone servers info %s` to retry", w.Server().ID, w.Server().ID), s.Err)
				default:
					return fmt.Errorf("install stopped at %s", step.State())
				}
			})
		},
	}
	cmd.Flags().StringArrayVar(&secrets, "secret", nil, "required secret NAME=value (repeatable; prompted when missing)")
	return cmd
}
