package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/hylla/skillroute/internal/adapters/remote/httpclient"
	"github.com/hylla/skillroute/internal/app"
	"github.com/hylla/skillroute/internal/config"
	"github.com/hylla/skillroute/internal/platform"
)

// program is the part of tea.Program the root command drives.
type program interface {
	Run() (tea.Model, error)
}

// globalFlags holds persistent flag values.
type globalFlags struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

// cli carries process IO, injectable collaborators, and the state resolved before each command.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv platform.Getenv
	now    func() time.Time

	newProgram func(tea.Model, ...tea.ProgramOption) program
	confirm    app.ConfirmFunc

	flags      globalFlags
	paths      platform.Paths
	configPath string
	cfg        config.Config
	logger     *runtimeLogger
}

// newCLI builds a cli over the given process streams.
func newCLI(stdin io.Reader, stdout, stderr io.Writer, getenv platform.Getenv) *cli {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	c := &cli{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		getenv: getenv,
		now:    time.Now,
		newProgram: func(m tea.Model, opts ...tea.ProgramOption) program {
			return tea.NewProgram(m, opts...)
		},
	}
	c.confirm = huhConfirm
	return c
}

// rootCommand builds the command tree. The root command launches the TUI.
func (c *cli) rootCommand() *cobra.Command {
	opts := platform.ResolveOptions(c.getenv, platform.Options{
		AppName: platform.DefaultAppName,
		DevMode: version == "dev",
	})
	root := &cobra.Command{
		Use:           "skillroute",
		Short:         "Career learning roadmaps in the terminal",
		Long:          "skillroute tracks a phased learning roadmap toward a target role, adapts it to your pace, and turns skill-gap analyses into plans.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.prepare(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runTUI(cmd.Context())
		},
	}
	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.configPath, "config", "", "path to config TOML")
	pf.StringVar(&c.flags.dbPath, "db", "", "path to sqlite database (serve)")
	pf.StringVar(&c.flags.appName, "app", opts.AppName, "application name for config/data path resolution")
	pf.BoolVar(&c.flags.devMode, "dev", opts.DevMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		c.pathsCommand(),
		c.statusCommand(),
		c.toggleCommand(),
		c.adaptCommand(),
		c.resetCommand(),
		c.generateCommand(),
		c.profileCommand(),
		c.analyzeCommand(),
		c.adoptCommand(),
		c.exportCommand(),
		c.tokenCommand(),
		c.serveCommand(),
	)
	return root
}

// prepare resolves paths, loads config, and opens the runtime logger.
func (c *cli) prepare(cmd *cobra.Command) error {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: c.flags.appName,
		DevMode: c.flags.devMode,
	})
	if err != nil {
		return err
	}
	paths = platform.ApplyOverrides(paths, c.getenv)
	if v := strings.TrimSpace(c.flags.configPath); v != "" {
		paths.ConfigPath = v
	}
	dbOverridden := strings.TrimSpace(c.flags.dbPath) != ""
	if dbOverridden {
		paths.DBPath = c.flags.dbPath
	}
	c.paths = paths
	c.configPath = paths.ConfigPath

	cfg, err := config.Load(paths.ConfigPath, config.Default(paths.DBPath))
	if err != nil {
		return fmt.Errorf("load config %q: %w", paths.ConfigPath, err)
	}
	if dbOverridden || strings.TrimSpace(c.env(platform.EnvDBPath)) != "" {
		cfg.Database.Path = paths.DBPath
	}
	if v := strings.TrimSpace(c.env(platform.EnvBaseURL)); v != "" {
		cfg.Client.BaseURL = v
	}
	if v := strings.TrimSpace(c.env(platform.EnvToken)); v != "" {
		cfg.Client.Token = v
	}
	c.cfg = cfg

	logger, err := newRuntimeLogger(c.stderr, c.flags.appName, c.flags.devMode, cfg.Logging)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	c.logger = logger
	logger.Debug("configuration loaded", "command", cmd.Name(), "config_path", paths.ConfigPath, "base_url", cfg.Client.BaseURL)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}
	return nil
}

// close releases the runtime logger.
func (c *cli) close() {
	if c.logger == nil {
		return
	}
	if err := c.logger.Close(); err != nil {
		_, _ = fmt.Fprintf(c.stderr, "warning: close runtime log sink: %v\n", err)
	}
}

func (c *cli) env(key string) string {
	if c.getenv == nil {
		return ""
	}
	return c.getenv(key)
}

// remote builds the HTTP client from the resolved client config.
func (c *cli) remote() (*httpclient.Client, error) {
	client, err := httpclient.New(httpclient.Config{
		BaseURL: c.cfg.Client.BaseURL,
		Tokens:  httpclient.StaticToken(c.cfg.Client.Token),
		Timeout: c.cfg.ClientTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("configure remote client: %w", err)
	}
	return client, nil
}

// coordinator builds a coordinator over the remote client and loads its state.
func (c *cli) coordinator(ctx context.Context, client *httpclient.Client, confirmer app.Confirmer, notifier app.Notifier) (*app.Coordinator, error) {
	coord := app.NewCoordinator(client, app.CoordinatorConfig{Confirmer: confirmer, Notifier: notifier})
	if _, err := coord.Load(ctx); err != nil {
		coord.Close()
		return nil, fmt.Errorf("load roadmap: %w", err)
	}
	return coord, nil
}

// printNotifier writes notifications to w, one per line.
func printNotifier(w io.Writer) app.NotifyFunc {
	return func(n app.Notification) {
		_, _ = fmt.Fprintf(w, "%s: %s\n", n.Level, n.Message)
	}
}

// parsePhaseIndex parses a 1-based phase number into a 0-based index.
func parsePhaseIndex(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("phase must be a positive number, got %q", raw)
	}
	return n - 1, nil
}
