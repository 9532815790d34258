package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"symonectl/internal/api"
	"symonectl/internal/poll"
)

func healthCmd() *cobra.Command {
	var wait, dashboard bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check gateway health; --wait blocks through maintenance",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, "", dashboard, func(ctx context.Context, a *app) error {
				check := a.api.Health
				if dashboard {
					check = a.api.DashboardHealth
				}
				var h api.Health
				var err error
				if wait {
					h, err = poll.WaitHealthy(ctx, healthFunc(check), a.cfg.Poll.Health, func(err error) {
						if api.IsMaintenance(err) {
							a.log.Info("gateway under maintenance, waiting")
						}
					})
				} else {
					h, err = check(ctx)
				}
				if err != nil {
					if api.IsMaintenance(err) {
						return fmt.Errorf("gateway is under maintenance")
					}
					return err
				}
				return a.print(h, func(w io.Writer) {
					fmt.Fprintf(w, "Status:\t%s\n", h.Status)
					if h.Database != "" {
						fmt.Fprintf(w, "Database:\t%s\n", h.Database)
					}
					if h.ServersActive > 0 {
						fmt.Fprintf(w, "Active servers:\t%d\n", h.ServersActive)
					}
				})
			})
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the gateway leaves maintenance (bounded by --timeout)")
	cmd.Flags().BoolVar(&dashboard, "dashboard", false, "check the authenticated dashboard health endpoint")
	return cmd
}

type healthFunc func(context.Context) (api.Health, error)

func (f healthFunc) Health(ctx context.Context) (api.Health, error) { return f(ctx) }
