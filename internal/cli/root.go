package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"symonectl/internal/api"
	"symonectl/internal/config"
	"symonectl/internal/data"
	"symonectl/internal/logging"
	"symonectl/internal/query"
	"symonectl/internal/session"
	"symonectl/internal/state"
	"symonectl/internal/workspace"
)

type rootFlags struct {
	Config   string
	Profile  string
	Output   string
	Role     string
	APIURL   string
	LogLevel string
	Timeout  time.Duration
}

var rf rootFlags

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "symone",
		Short:        "Symone gateway client (session, workspaces, servers, MCP connections)",
		SilenceUsage: true,
	}

	defPath, _ := config.DefaultPath()
	rootCmd.PersistentFlags().StringVar(&rf.Config, "config", defPath, "config file")
	rootCmd.PersistentFlags().StringVar(&rf.Profile, "profile", "", "config profile (defaults to SYMONE_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&rf.Output, "output", "o", "", "output format: text|json")
	rootCmd.PersistentFlags().StringVar(&rf.Role, "role", "", "session role: user|admin")
	rootCmd.PersistentFlags().StringVar(&rf.APIURL, "api-url", "", "gateway base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&rf.LogLevel, "log-level", "", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().DurationVar(&rf.Timeout, "timeout", 30*time.Second, "per-command timeout")

	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(signupCmd())
	rootCmd.AddCommand(passwordCmd())
	rootCmd.AddCommand(workspaceCmd())
	rootCmd.AddCommand(serversCmd())
	rootCmd.AddCommand(deployCmd())
	rootCmd.AddCommand(secretsCmd())
	rootCmd.AddCommand(teamCmd())
	rootCmd.AddCommand(notificationsCmd())
	rootCmd.AddCommand(activityCmd())
	rootCmd.AddCommand(connectCmd())
	rootCmd.AddCommand(marketplaceCmd())
	rootCmd.AddCommand(prefsCmd())
	rootCmd.AddCommand(healthCmd())
	rootCmd.AddCommand(adminCmd())
	rootCmd.AddCommand(dbCmd())

	return rootCmd
}

// app is the process-wide context a command runs in: configuration, the
// persisted session and everything layered on it.
type app struct {
	cfg    config.Config
	log    *slog.Logger
	store  state.Store
	sess   *session.Manager
	api    *api.Client
	data   *data.Service
	ws     *workspace.Switcher
	out    io.Writer
	okTag  string
	asJSON bool
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(rf.Config, rf.Profile)
	if err != nil {
		return config.Config{}, err
	}
	if rf.APIURL != "" {
		cfg.APIURL = rf.APIURL
	}
	if rf.Role != "" {
		cfg.Role = rf.Role
	}
	if rf.Output != "" {
		cfg.Output = rf.Output
	}
	if rf.LogLevel != "" {
		cfg.Log.Level = rf.LogLevel
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openApp builds the app for cmd. role overrides the configured role when
// non-empty; admin commands always run as admin.
func openApp(ctx context.Context, cmd *cobra.Command, role session.Role) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if role == "" {
		role, err = session.ParseRole(cfg.Role)
		if err != nil {
			return nil, err
		}
	}
	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cmd.ErrOrStderr()})

	st, err := state.Open(ctx, cfg.State)
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	sess := session.NewManager(st, role, logger)
	if err := sess.Load(ctx); err != nil {
		st.Close()
		return nil, err
	}
	client := api.NewClient(cfg.APIURL, sess, logger)
	client.OnMaintenance = func() {
		logger.Warn("gateway is in maintenance mode; run `symone health --wait` to wait for it")
	}
	svc := data.New(client, query.New(), logger)
	return &app{
		cfg:    cfg,
		log:    logger,
		store:  st,
		sess:   sess,
		api:    client,
		data:   svc,
		ws:     workspace.New(client, sess, st, svc, logger),
		out:    cmd.OutOrStdout(),
		okTag:  okStyle(cmd.OutOrStdout()).Render("ok:"),
		asJSON: cfg.Output == "json",
	}, nil
}

func (a *app) Close() error { return a.store.Close() }

// requireLogin fails fast when no session is held.
func (a *app) requireLogin() error {
	if !a.sess.LoggedIn() {
		return fmt.Errorf("not logged in: run `symone %s`", loginHint(a.sess.Role()))
	}
	return nil
}

func loginHint(r session.Role) string {
	if r == session.RoleAdmin {
		return "admin login"
	}
	return "login"
}

// run wraps a command body with the command timeout, app construction and
// teardown.
func run(cmd *cobra.Command, role session.Role, needLogin bool, fn func(ctx context.Context, a *app) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), rf.Timeout)
	defer cancel()
	a, err := openApp(ctx, cmd, role)
	if err != nil {
		return err
	}
	defer a.Close()
	if needLogin {
		if err := a.requireLogin(); err != nil {
			return err
		}
	}
	return explain(a, fn(ctx, a))
}

// explain turns an auth failure into a pointer to the right login command.
func explain(a *app, err error) error {
	if err == nil {
		return nil
	}
	if api.IsAuth(err) {
		return fmt.Errorf("%w (run `symone %s`)", err, loginHint(a.sess.Role()))
	}
	return err
}

func (a *app) printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(b))
	return err
}

// print writes v as JSON in json mode, otherwise calls text.
func (a *app) print(v any, text func(w io.Writer)) error {
	if a.asJSON || text == nil {
		return a.printJSON(v)
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

func (a *app) ok(msg string, args ...any) {
	if a.asJSON {
		return
	}
	fmt.Fprintf(a.out, a.okTag+" "+msg+"\n", args...)
}

// okStyle colors the success tag green on terminals; pipes and files get
// plain text.
func okStyle(w io.Writer) lipgloss.Style {
	return lipgloss.NewRenderer(w).NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#008000", Dark: "#55FF55"})
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
