package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"symonectl/internal/session"
)

func prefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Device preferences",
	}
	cmd.AddCommand(&cobra.Command{
		Use:       "theme [dark|light]",
		Short:     "Show or set the theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"dark", "light"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, "", false, func(ctx context.Context, a *app) error {
				p := session.Prefs{Store: a.store}
				if len(args) == 1 {
					return p.SetTheme(ctx, session.Theme(args[0]))
				}
				t, err := p.Theme(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, t)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:       "consent [accepted|declined]",
		Short:     "Show or record cookie consent",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"accepted", "declined"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, "", false, func(ctx context.Context, a *app) error {
				p := session.Prefs{Store: a.store}
				if len(args) == 1 {
					return p.SetConsent(ctx, session.Consent(args[0]))
				}
				c, err := p.Consent(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, orDash(string(c)))
				return nil
			})
		},
	})
	return cmd
}
