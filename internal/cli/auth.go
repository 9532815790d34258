package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"symonectl/internal/session"
)

// readSecrets reads one line per prompt from the terminal without echo, or
// from the command's stdin when it is not a terminal.
func readSecrets(cmd *cobra.Command, prompts ...string) ([]string, error) {
	out := make([]string, 0, len(prompts))
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		for _, p := range prompts {
			fmt.Fprint(cmd.ErrOrStderr(), p)
			b, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(cmd.ErrOrStderr())
			if err != nil {
				return nil, fmt.Errorf("read password: %w", err)
			}
			out = append(out, string(b))
		}
		return out, nil
	}
	r := bufio.NewReader(cmd.InOrStdin())
	for range prompts {
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		out = append(out, strings.TrimRight(line, "\r\n"))
	}
	return out, nil
}

func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	v, err := readSecrets(cmd, prompt)
	if err != nil {
		return "", err
	}
	return v[0], nil
}

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := readSecret(cmd, "Password: ")
				if err != nil {
					return err
				}
				password = p
			}
			return run(cmd, session.RoleUser, false, func(ctx context.Context, a *app) error {
				res, err := a.api.Login(ctx, strings.TrimSpace(email), password)
				if err != nil {
					return err
				}
				a.log.Info("logged in", "email", res.User.Email())
				return a.print(res.User, func(w io.Writer) {
					fmt.Fprintf(w, "Logged in as %s\n", orDash(res.User.Email()))
					if name := res.User.TeamName(); name != "" {
						fmt.Fprintf(w, "Workspace:\t%s\n", name)
					}
				})
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func signupCmd() *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := readSecret(cmd, "Password: ")
				if err != nil {
					return err
				}
				password = p
			}
			return run(cmd, session.RoleUser, false, func(ctx context.Context, a *app) error {
				res, err := a.api.Signup(ctx, strings.TrimSpace(email), password, strings.TrimSpace(name))
				if err != nil {
					return err
				}
				if res.Token == "" {
					a.ok("account created; run `symone login`")
					return nil
				}
				a.ok("account created, logged in as %s", res.User.Email())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, "", false, func(ctx context.Context, a *app) error {
				if !a.sess.LoggedIn() {
					a.ok("not logged in")
					return nil
				}
				if err := a.api.Logout(ctx); err != nil {
					a.log.Warn("backend logout failed, local session cleared", "err", err)
				}
				a.ok("logged out")
				return nil
			})
		},
	}
}

func whoamiCmd() *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, "", true, func(ctx context.Context, a *app) error {
				p := a.sess.CachedUser()
				if !offline {
					fresh, err := a.api.Me(ctx)
					if err != nil {
						return err
					}
					if fresh != nil {
						p = a.sess.CachedUser()
					}
				}
				return a.print(p, func(w io.Writer) {
					fmt.Fprintf(w, "Email:\t%s\n", orDash(p.Email()))
					fmt.Fprintf(w, "Name:\t%s\n", orDash(p.String("name")))
					fmt.Fprintf(w, "Role:\t%s\n", a.sess.Role())
					if a.sess.Role() == session.RoleUser {
						fmt.Fprintf(w, "Workspace:\t%s (%s)\n", orDash(p.TeamName()), orDash(p.TeamID()))
						fmt.Fprintf(w, "Team role:\t%s\n", orDash(p.TeamRole()))
					}
					if exp, ok := session.TokenExpiry(a.sess.Token()); ok {
						fmt.Fprintf(w, "Expires:\t%s\n", exp.Local().Format("2006-01-02 15:04"))
					}
				})
			})
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "print the cached profile without calling the gateway")
	return cmd
}

func passwordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "password",
		Short: "Change the account password",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readSecrets(cmd, "Current password: ", "New password: ")
			if err != nil {
				return err
			}
			current, next := pw[0], pw[1]
			return run(cmd, session.RoleUser, true, func(ctx context.Context, a *app) error {
				if err := a.api.ChangePassword(ctx, current, next); err != nil {
					return err
				}
				a.ok("password changed")
				return nil
			})
		},
	}
}
