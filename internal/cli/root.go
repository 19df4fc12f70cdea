// Package cli implements the graw command line using Cobra.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	graw "github.com/jamesprial/go-reddit-media"
	"github.com/jamesprial/go-reddit-media/internal/config"
	"github.com/jamesprial/go-reddit-media/pkg/media"
)

// offline marks commands that run without a configured client.
const offline = "offline"

// App carries the state shared by every command of one invocation.
type App struct {
	Out io.Writer
	Err io.Writer

	// ConfigPath and SessionPath default to the XDG locations.
	ConfigPath  string
	SessionPath string
	Debug       bool
	NoColor     bool

	cfg    *config.Config
	client *graw.Client
	logger *slog.Logger

	// configure adjusts the client config before NewClient, for tests.
	configure func(*graw.Config)
}

// Execute runs the CLI with os.Args and returns the process exit code.
func Execute() int {
	app := &App{Out: os.Stdout, Err: os.Stderr}
	if err := NewRootCommand(app).Execute(); err != nil {
		fmt.Fprintln(app.Err, color.RedString("Error: %v", err))
		return 1
	}
	return 0
}

// NewRootCommand builds the command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	// Flags bind to locals so fields preset on app survive unless the flag
	// is given.
	var (
		configPath string
		debug      bool
		noColor    bool
	)
	root := &cobra.Command{
		Use:   "graw",
		Short: "Browse Reddit and resolve the media posts link to",
		Long: `graw reads subreddit feeds and comment threads and resolves the media
behind each post (Reddit galleries and videos, Streamable, Imgur, Redgifs).

Credentials are read from ` + config.Path() + `
or the GRAW_CLIENT_ID, GRAW_CLIENT_SECRET and GRAW_REDIRECT_URI variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("config") {
				app.ConfigPath = configPath
			}
			if flags.Changed("debug") {
				app.Debug = debug
			}
			if flags.Changed("no-color") {
				app.NoColor = noColor
			}
			return app.setup(cmd, args)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.Path()+")")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging to stderr")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		app.classifyCmd(),
		app.resolveCmd(),
		app.feedCmd(),
		app.commentsCmd(),
		app.loginCmd(),
		app.logoutCmd(),
		app.whoamiCmd(),
		app.voteCmd(),
		app.saveCmd(),
		app.serveCmd(),
	)
	return root
}

// setup loads config, builds the client and restores the saved session.
func (a *App) setup(cmd *cobra.Command, _ []string) error {
	if a.NoColor {
		color.NoColor = true
	}

	level := slog.LevelInfo
	if a.Debug {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.Err, &slog.HandlerOptions{Level: level}))

	if cmd.Annotations[offline] != "" {
		return nil
	}

	path := a.ConfigPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	if a.SessionPath == "" {
		a.SessionPath = config.SessionPath()
	}

	client, err := a.newClient(cfg)
	if err != nil {
		return err
	}
	a.client = client

	creds, ok, err := config.LoadSession(a.SessionPath)
	if err != nil {
		a.logger.Warn("ignoring saved session", "path", a.SessionPath, "error", err)
	} else if ok {
		client.Login(creds)
		a.logger.Debug("restored session", "account", creds.Account)
	}
	return nil
}

func (a *App) newClient(cfg *config.Config) (*graw.Client, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	clientCfg := &graw.Config{
		ClientID:           cfg.ClientID,
		ClientSecret:       cfg.ClientSecret,
		RedirectURI:        cfg.RedirectURI,
		UserAgent:          cfg.UserAgent,
		BaseURL:            cfg.BaseURL,
		PublicBaseURL:      cfg.PublicBaseURL,
		AuthURL:            cfg.AuthURL,
		HTTPClient:         &http.Client{Timeout: timeout},
		Logger:             a.logger,
		ResolveConcurrency: cfg.ResolveConcurrency,
		OnRefresh:          a.persistSession,
	}
	if a.configure != nil {
		a.configure(clientCfg)
	}
	return graw.NewClient(clientCfg)
}

// newResolver builds a media resolver that needs no Reddit credentials.
func (a *App) newResolver() *media.Resolver {
	clientCfg := &graw.Config{
		UserAgent:  graw.DefaultUserAgent,
		HTTPClient: &http.Client{Timeout: graw.DefaultTimeout},
	}
	if a.configure != nil {
		a.configure(clientCfg)
	}
	return media.NewResolver(clientCfg.HTTPClient, clientCfg.Media, clientCfg.UserAgent, a.logger)
}

// persistSession saves rotated tokens so the next invocation reuses them.
func (a *App) persistSession(creds graw.Credentials) {
	if err := config.SaveSession(a.SessionPath, creds); err != nil {
		a.logger.Warn("failed to save session", "error", err)
	}
}

var errNotLoggedIn = errors.New("not logged in (run `graw login` first)")

func (a *App) requireLogin() error {
	if _, ok := a.client.Session(); !ok {
		return errNotLoggedIn
	}
	return nil
}
