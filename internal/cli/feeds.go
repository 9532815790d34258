package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"symonectl/internal/api"
	"symonectl/internal/data"
	"symonectl/internal/poll"
	"symonectl/internal/session"
)

// watch runs fn until interrupted. The command timeout does not apply.
func watch(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a, err := openApp(ctx, cmd, session.RoleUser)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	err = fn(ctx, a)
	if ctx.Err() != nil {
		return nil
	}
	return explain(a, err)
}

func statusPrinter(a *app) func(poll.Status, error) {
	return func(s poll.Status, err error) {
		if err != nil {
			a.log.Warn("feed status", "status", s, "err", err)
			return
		}
		a.log.Info("feed status", "status", s)
	}
}

func notificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "Notifications for the current user",
	}
	cmd.AddCommand(notificationsListCmd())
	cmd.AddCommand(notificationsReadCmd())
	cmd.AddCommand(notificationsDismissCmd())
	cmd.AddCommand(notificationsWatchCmd())
	return cmd
}

func notificationsListCmd() *cobra.Command {
	var unread bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				list, err := a.data.Notifications(ctx)
				if err != nil {
					return err
				}
				if unread {
					kept := list[:0:0]
					for _, n := range list {
						if !n.Read {
							kept = append(kept, n)
						}
					}
					list = kept
				}
				return a.print(list, func(w io.Writer) {
					fmt.Fprintf(w, "%d unread\n", data.CountUnread(list))
					fmt.Fprintln(w, "\tID\tTYPE\tTITLE\tCREATED")
					for _, n := range list {
						mark := ""
						if !n.Read {
							mark = "*"
						}
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", mark, n.ID, n.Type, n.Title, n.CreatedAt)
					}
				})
			})
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "only unread notifications")
	return cmd
}

func notificationsReadCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "read [id]",
		Short: "Mark a notification (or --all) as read",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("give a notification id or --all")
			}
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				if all {
					if err := a.data.MarkAllNotificationsRead(ctx); err != nil {
						return err
					}
					a.ok("all notifications marked read")
					return nil
				}
				if err := a.data.MarkNotificationRead(ctx, args[0]); err != nil {
					return err
				}
				a.ok("marked read")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "mark every notification read")
	return cmd
}

func notificationsDismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <id>",
		Short: "Dismiss a notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				if err := a.data.DismissNotification(ctx, args[0]); err != nil {
					return err
				}
				a.ok("dismissed")
				return nil
			})
		},
	}
}

func notificationsWatchCmd() *cobra.Command {
	var every time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the unread count whenever it changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return watch(cmd, func(ctx context.Context, a *app) error {
				if every <= 0 {
					every = a.cfg.Poll.Notifications
				}
				last := -1
				p := poll.Unread(a.data, every, func(n int) {
					if n == last {
						return
					}
					last = n
					if a.asJSON {
						_ = a.printJSON(map[string]int{"unread": n})
						return
					}
					fmt.Fprintf(a.out, "%s unread: %d\n", time.Now().Format(time.TimeOnly), n)
				}, statusPrinter(a), a.log)
				return p.Run(ctx)
			})
		},
	}
	cmd.Flags().DurationVar(&every, "every", 0, "poll interval (defaults to poll.notifications)")
	return cmd
}

func activityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Recent tool calls through the gateway",
	}
	cmd.AddCommand(activityListCmd())
	cmd.AddCommand(activityWatchCmd())
	return cmd
}

func printActivity(w io.Writer, list []api.ActivityLog) {
	fmt.Fprintln(w, "TIME\tSERVER\tTOOL\tSTATUS\tLATENCY")
	for _, l := range list {
		lat := "-"
		if l.LatencyMS != nil {
			lat = fmt.Sprintf("%.0fms", *l.LatencyMS)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", l.CreatedAt, l.ServerType, l.ToolName, l.Status, lat)
	}
}

func activityListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				list, err := a.data.Activity(ctx, limit)
				if err != nil {
					return err
				}
				return a.print(list, func(w io.Writer) { printActivity(w, list) })
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries")
	return cmd
}

func activityWatchCmd() *cobra.Command {
	var limit int
	var every time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the activity feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return watch(cmd, func(ctx context.Context, a *app) error {
				if every <= 0 {
					every = a.cfg.Poll.Activity
				}
				seen := map[string]bool{}
				p := poll.Activity(a.data, every, limit, func(page []api.ActivityLog) {
					var fresh []api.ActivityLog
					for i := len(page) - 1; i >= 0; i-- {
						if !seen[page[i].ID] {
							seen[page[i].ID] = true
							fresh = append(fresh, page[i])
						}
					}
					if len(fresh) == 0 {
						return
					}
					if a.asJSON {
						_ = a.printJSON(fresh)
						return
					}
					_ = a.print(fresh, func(w io.Writer) { printActivity(w, fresh) })
				}, statusPrinter(a), a.log)
				return p.Run(ctx)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "entries per poll")
	cmd.Flags().DurationVar(&every, "every", 0, "poll interval (defaults to poll.activity)")
	return cmd
}
