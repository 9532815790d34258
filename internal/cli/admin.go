package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"symonectl/internal/api"
	"symonectl/internal/session"
)

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin panel: analytics, plans, tenants",
	}
	cmd.AddCommand(adminLoginCmd())
	cmd.AddCommand(adminLogoutCmd())
	cmd.AddCommand(adminOverviewCmd())
	cmd.AddCommand(adminTrendsCmd())
	cmd.AddCommand(adminPerformanceCmd())
	cmd.AddCommand(adminRevenueCmd())
	cmd.AddCommand(adminPlansCmd())
	cmd.AddCommand(adminTeamsCmd())
	return cmd
}

func adminRun(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	return run(cmd, session.RoleAdmin, true, fn)
}

func adminLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as an administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := readSecret(cmd, "Password: ")
				if err != nil {
					return err
				}
				password = p
			}
			return run(cmd, session.RoleAdmin, false, func(ctx context.Context, a *app) error {
				res, err := a.api.AdminLogin(ctx, strings.TrimSpace(email), password)
				if err != nil {
					return err
				}
				a.ok("admin session for %s", orDash(res.User.Email()))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func adminLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the admin session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleAdmin, false, func(ctx context.Context, a *app) error {
				if err := a.api.Logout(ctx); err != nil {
					a.log.Warn("backend logout failed, local session cleared", "err", err)
				}
				a.ok("admin logged out")
				return nil
			})
		},
	}
}

func adminOverviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Platform-wide totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return adminRun(cmd, func(ctx context.Context, a *app) error {
				ov, err := a.api.AdminOverview(ctx)
				if err != nil {
					return err
				}
				return a.print(ov, func(w io.Writer) {
					keys := make([]string, 0, len(ov))
					for k := range ov {
						keys = append(keys, k)
					}
					sort.Strings(keys)
					for _, k := range keys {
						fmt.Fprintf(w, "%s:\t%v\n", k, ov[k])
					}
				})
			})
		},
	}
}

func adminTrendsCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Daily request and error counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return adminRun(cmd, func(ctx context.Context, a *app) error {
				list, err := a.api.UsageTrends(ctx, days)
				if err != nil {
					return err
				}
				return a.print(list, func(w io.Writer) {
					fmt.Fprintln(w, "DATE\tREQUESTS\tERRORS\tAVG LATENCY")
					for _, t := range list {
						fmt.Fprintf(w, "%s\t%d\t%d\t%.0fms\n", t.Date, t.Requests, t.Errors, t.AvgLatencyMS)
					}
				})
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "window in days")
	return cmd
}

func adminPerformanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "performance",
		Short: "Per server type success rate and latency",
		RunE: func(cmd *cobra.Command, args []string) error {
			return adminRun(cmd, func(ctx context.Context, a *app) error {
				list, err := a.api.ServerPerformance(ctx)
				if err != nil {
					return err
				}
				return a.print(list, func(w io.Writer) {
					fmt.Fprintln(w, "TYPE\tREQUESTS\tSUCCESS\tAVG LATENCY")
					for _, p := range list {
						fmt.Fprintf(w, "%s\t%d\t%.1f%%\t%.0fms\n", p.ServerType, p.Requests, p.SuccessRate, p.AvgLatencyMS)
					}
				})
			})
		},
	}
}

func adminRevenueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revenue",
		Short: "Recurring revenue by plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return adminRun(cmd, func(ctx context.Context, a *app) error {
				r, err := a.api.Revenue(ctx)
				if err != nil {
					return err
				}
				return a.print(r, func(w io.Writer) {
					fmt.Fprintf(w, "MRR:\t%.2f\nARR:\t%.2f\n\n", r.TotalMRR, r.TotalARR)
					fmt.Fprintln(w, "PLAN\tSUBSCRIBERS\tMRR\tARR")
					plans := make([]string, 0, len(r.ByPlan))
					for k := range r.ByPlan {
						plans = append(plans, k)
					}
					sort.Strings(plans)
					for _, k := range plans {
						b := r.ByPlan[k]
						fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\n", k, b.Count, b.MRR, b.ARR)
					}
				})
			})
		},
	}
}

func adminPlansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Subscription plans",
	}
	cmd.AddCommand(adminPlansListCmd())
	cmd.AddCommand(adminPlansCreateCmd())
	cmd.AddCommand(adminPlansUpdateCmd())
	cmd.AddCommand(adminPlansDeleteCmd())
	return cmd
}

func adminPlansListCmd() *cobra.Command {
	var active bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			return adminRun(cmd, func(ctx context.Context, a *app) error {
				list, err := a.api.ListPlans(ctx, active)
				if err != nil {
					return err
				}
				return a.print(list, func(w io.Writer) {
					fmt.Fprintln(w, "ID\tSLUG\tNAME\tMONTHLY\tYEARLY\tQUOTA\tACTIVE")
					for _, p := range list {
						fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%d\t%t\n", p.ID, p.Slug, p.Name, p.PriceMonthly, p.PriceYearly, p.QuotaLimit, p.IsActive)
					}
				})
			})
		},
	}
	cmd.Flags().BoolVar(&active, "active", false, "only active plans")
	return cmd
}

type planFlags struct {
	plan api.Plan
}

func (f *planFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.plan.Name, "name", "", "plan name")
	fl.StringVar(&f.plan.Slug, "slug", "", "plan slug")
	fl.StringVar(&f.plan.Description, "description", "", "description")
	fl.Float64Var(&f.plan.PriceMonthly, "monthly", 0, "monthly price")
	fl.Float64Var(&f.plan.PriceYearly, "yearly", 0, "yearly price")
	fl.IntVar(&f.plan.QuotaLimit, "quota", 0, "monthly request quota")
	fl.StringSliceVar(&f.plan.Features, "feature", nil, "feature line (repeatable)")
	fl.BoolVar(&f.plan.IsActive, "active", true, "plan is offered")
	fl.BoolVar(&f.plan.IsFeatured, "featured", false, "highlight the plan")
	fl.IntVar(&f.plan.DisplayOrder, "order", 0, "display order")
}

// changed returns only the fields whose flags were set, keyed by their JSON
// names.
func (f *planFlags) changed(cmd *cobra.Command) map[string]any {
	byFlag := map[string]struct {
		key string
		val any
	}{
		"name":        {"name", f.plan.Name},
		"slug":        {"slug", f.plan.Slug},
		"description": {"description", f.plan.Description},
		"monthly":     {"price_monthly", f.plan.PriceMonthly},
		"yearly":      {"price_yearly", f.plan.PriceYearly},
		"quota":       {"quota_limit", f.plan.QuotaLimit},
		"feature":     {"features", f.plan.Features},
		"active":      {"is_active", f.plan.IsActive},
		"featured":    {"is_featured", f.plan.IsFeatured},
		"order":       {"display_order", f.plan.DisplayOrder},
	}
	out := map[string]any{}
	for flag, kv := range byFlag {
		if cmd.Flags().Changed(flag) {
			out[kv.key] = kv.val
		}
	}
	return out
}

func adminPlansCreateCmd() *cobra.Command {
	var f planFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return adminRun(cmd, func(ctx context.Context, a *app) error {
				if f.plan.Features == nil {
					f.plan.Features = []string{}
				}
				p, err := a.api.CreatePlan(ctx, f.plan)
				if err != nil {
					return err
				}
				if a.asJSON {
					return a.printJSON(p)
				}
				a.ok("plan %s created (%s)", p.Slug, p.ID)
				return nil
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func adminPlansUpdateCmd() *cobra.Command {
	var f planFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update the given plan fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return adminRun(cmd, func(ctx context.Context, a *app) error {
				p, err := a.api.UpdatePlan(ctx, args[0], f.changed(cmd))
				if err != nil {
					return err
				}
				if a.asJSON {
					return a.printJSON(p)
				}
				a.ok("plan %s updated", args[0])
				return nil
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func adminPlansDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return adminRun(cmd, func(ctx context.Context, a *app) error {
				if err := a.api.DeletePlan(ctx, args[0]); err != nil {
					return err
				}
				a.ok("plan %s deleted", args[0])
				return nil
			})
		},
	}
}

func adminTeamsCmd() *cobra.Command {
	var search string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "teams",
		Short: "List tenants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return adminRun(cmd, func(ctx context.Context, a *app) error {
				list, total, err := a.api.ListTeams(ctx, search, limit, offset)
				if err != nil {
					return err
				}
				out := map[string]any{"teams": list, "total": total}
				return a.print(out, func(w io.Writer) {
					fmt.Fprintln(w, "ID\tNAME\tPLAN\tUSAGE\tQUOTA\tMEMBERS\tACTIVE")
					for _, t := range list {
						fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%t\n", t.ID, t.Name, orDash(t.Plan), t.UsageCount, t.QuotaLimit, t.MemberCount, t.Active)
					}
					fmt.Fprintf(w, "\n%d of %d\n", len(list), total)
				})
			})
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "name filter")
	cmd.Flags().IntVar(&limit, "limit", 50, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	return cmd
}
