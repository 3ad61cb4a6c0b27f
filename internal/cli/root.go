package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"scriptbench/internal/engine"
	"scriptbench/internal/format"
	"scriptbench/internal/logs"
	"scriptbench/internal/resource"
	"scriptbench/internal/store"
	"scriptbench/internal/tui"
)

type App struct {
	Server     string
	APIRoot    string
	PrettyJSON bool
	Format     string
	LogLevel   string
	LogFile    string
	Timeout    time.Duration
	DropStale  bool

	cfg    *store.Config
	logger *logs.Logger
	// client replaces the HTTP client (tests).
	client resource.Client
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "scriptbench",
		Short:        "Browse and edit the scripts of a script store (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive explorer
  scriptbench --server norns.local

  # Scriptable commands
  scriptbench ls /api/v1/scripts/lib
  scriptbench cat /api/v1/scripts/lib/util.lua --format text
  scriptbench save /api/v1/scripts/lib/util.lua ./util.lua

  # Shortcut for: scriptbench cat <url>
  scriptbench /api/v1/scripts/lib/util.lua
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup(cmd)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.logger == nil {
			return nil
		}
		return app.logger.Close()
	}

	cmd.PersistentFlags().StringVar(&app.Server, "server", envOr("SCRIPTBENCH_SERVER", ""), "Script store address, host:port or base url (default from config, else "+store.DefaultServer+")")
	cmd.PersistentFlags().StringVar(&app.APIRoot, "api-root", envOr("SCRIPTBENCH_API_ROOT", ""), "Path the store serves its API under (default "+store.DefaultAPIRoot+")")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("SCRIPTBENCH_FORMAT", "json"), "Output format (json|text)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("SCRIPTBENCH_LOG_LEVEL", ""), "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", envOr("SCRIPTBENCH_LOG_FILE", ""), "Also write JSON logs to this file")
	cmd.PersistentFlags().DurationVar(&app.Timeout, "timeout", 0, "Timeout for each store call (default from config, else 30s)")
	cmd.PersistentFlags().BoolVar(&app.DropStale, "drop-stale-listings", false, "Ignore a folder listing when a newer one was requested")

	cmd.AddCommand(newLsCmd(app))
	cmd.AddCommand(newTreeCmd(app))
	cmd.AddCommand(newCatCmd(app))
	cmd.AddCommand(newSaveCmd(app))
	cmd.AddCommand(newNewCmd(app))
	cmd.AddCommand(newCpCmd(app))
	cmd.AddCommand(newMvCmd(app))
	cmd.AddCommand(newRmCmd(app))
	cmd.AddCommand(newMkdirCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newInfoCmd(app))

	return cmd
}

// setup merges flags over the config file and builds the logger. Flags win.
func (app *App) setup(cmd *cobra.Command) error {
	cfg, err := store.LoadConfig()
	if err != nil {
		return err
	}
	app.cfg = cfg
	if app.Server == "" {
		app.Server = cfg.ServerOrDefault()
	}
	if app.APIRoot == "" {
		app.APIRoot = cfg.APIRootOrDefault()
	}
	if app.Timeout <= 0 {
		app.Timeout = cfg.Timeout()
	}
	if app.LogLevel == "" {
		app.LogLevel = cfg.LogLevel
	}
	if app.LogFile == "" {
		app.LogFile = cfg.LogFile
	}
	if !cmd.Flags().Changed("drop-stale-listings") {
		app.DropStale = cfg.DropStaleListings
	}

	opts := logs.Options{Level: app.LogLevel, File: app.LogFile, Terminal: cmd.ErrOrStderr()}
	if cmd == cmd.Root() {
		// The TUI owns the terminal.
		opts.Terminal = nil
	}
	l, err := logs.New(opts)
	if err != nil {
		return err
	}
	app.logger = l
	return nil
}

func (app *App) newClient() (resource.Client, error) {
	if app.client != nil {
		return app.client, nil
	}
	return resource.NewHTTPClient(app.Server,
		resource.WithAPIRoot(app.APIRoot),
		resource.WithLogger(app.log().Logger),
	)
}

func (app *App) log() *logs.Logger {
	if app.logger == nil {
		app.logger = logs.Discard()
	}
	return app.logger
}

func (app *App) newEngine(opts ...engine.Option) (*engine.Engine, error) {
	client, err := app.newClient()
	if err != nil {
		return nil, err
	}
	opts = append([]engine.Option{
		engine.WithLogger(app.log().Logger),
		engine.WithTimeout(app.Timeout),
		engine.WithDropStaleListings(app.DropStale),
	}, opts...)
	return engine.New(client, opts...), nil
}

// session is one engine driven to quiescence per step, for scriptable commands.
type session struct {
	e   *engine.Engine
	r   *engine.Runner
	ctx context.Context
}

func (app *App) session(cmd *cobra.Command, c engine.Confirmer) (*session, error) {
	e, err := app.newEngine()
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return &session{e: e, r: engine.NewRunner(e, c), ctx: ctx}, nil
}

// run drives cmds and their follow-ups, then reports the first store failure they
// caused.
func (s *session) run(cmds ...tea.Cmd) error {
	s.e.ClearFailure()
	if err := s.r.Run(s.ctx, cmds...); err != nil {
		return err
	}
	if f := s.e.State().Failure; f != nil {
		return *f
	}
	return nil
}

// reveal lists everything leading to url; url itself is opened.
func (s *session) reveal(url string) error {
	return s.run(s.e.Reveal(url))
}

func runTUI(cmd *cobra.Command, app *App) error {
	e, err := app.newEngine()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var restore *engine.Snapshot
	if sess, err := store.LoadSession(ctx, app.Server); err != nil {
		app.log().Warn("load session", "err", err)
	} else {
		restore = snapshotOf(sess)
	}

	opts := tui.Options{Server: app.Server, Restore: restore, Logger: app.log().Logger}
	if app.cfg != nil && app.cfg.TUI != nil {
		opts.Theme = app.cfg.TUI.Theme
		opts.Preview = app.cfg.TUI.Preview
	}
	snap, err := tui.Run(e, opts)
	if err != nil {
		return err
	}
	if err := store.SaveSession(ctx, sessionOf(app.Server, snap)); err != nil {
		app.log().Warn("save session", "err", err)
	}
	return nil
}

func snapshotOf(s *store.Session) *engine.Snapshot {
	if s == nil || (s.Active == "" && len(s.Expanded) == 0) {
		return nil
	}
	snap := &engine.Snapshot{Expanded: s.Expanded, Active: s.Active}
	if s.DraftURL != "" {
		snap.Draft = &engine.Draft{URL: s.DraftURL, Content: s.DraftContent}
	}
	return snap
}

func sessionOf(server string, snap engine.Snapshot) *store.Session {
	s := &store.Session{Server: server, Expanded: snap.Expanded, Active: snap.Active}
	if snap.Draft != nil {
		s.DraftURL = snap.Draft.URL
		s.DraftContent = snap.Draft.Content
	}
	return s
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// writeOut writes v in a {"data": ...} envelope, or plainly for --format text.
func writeOut(cmd *cobra.Command, app *App, v any, hints ...string) error {
	if app.Format == "text" {
		return format.WriteText(cmd.OutOrStdout(), v)
	}
	env := map[string]any{"data": v}
	if len(hints) > 0 {
		env["_hints"] = hints
	}
	return format.Write(cmd.OutOrStdout(), env, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
