package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hylla/skillroute/internal/adapters/server"
	"github.com/hylla/skillroute/internal/adapters/server/auth"
	"github.com/hylla/skillroute/internal/adapters/server/common"
	"github.com/hylla/skillroute/internal/adapters/server/metrics"
	"github.com/hylla/skillroute/internal/adapters/storage/sqlite"
	"github.com/hylla/skillroute/internal/backend"
)

func (c *cli) serveCommand() *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the roadmap API and MCP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := c.cfg
			if strings.TrimSpace(bind) != "" {
				cfg.Server.Bind = bind
			}
			logger := c.logger.Console()

			c.logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
			repo, err := sqlite.Open(cfg.Database.Path)
			if err != nil {
				c.logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
				return fmt.Errorf("open sqlite repository: %w", err)
			}
			defer func() {
				if closeErr := repo.Close(); closeErr != nil {
					c.logger.Warn("sqlite close failed", "db_path", cfg.Database.Path, "err", closeErr)
				}
			}()

			deps := server.Dependencies{
				Service: common.NewServiceAdapter(backend.NewService(repo, uuid.NewString, c.now, logger)),
				Ready:   repo.Ping,
				Logger:  logger,
			}
			if secret := strings.TrimSpace(cfg.Auth.Secret); secret != "" {
				authn, err := auth.New(auth.Config{Secret: secret, Issuer: cfg.Auth.Issuer, TTL: cfg.TokenTTL(), Now: c.now})
				if err != nil {
					return fmt.Errorf("configure auth: %w", err)
				}
				deps.Auth = authn
			} else {
				c.logger.Warn("no auth secret configured; serving every request as the local user", "local_user", cfg.Server.LocalUser)
			}
			if cfg.Server.MetricsEnabled {
				deps.Metrics = metrics.New()
			}

			err = server.Run(cmd.Context(), server.Config{
				HTTPBind:        cfg.Server.Bind,
				APIEndpoint:     cfg.Server.APIEndpoint,
				MCPEndpoint:     cfg.Server.MCPEndpoint,
				MetricsEndpoint: cfg.Server.MetricsEndpoint,
				EnableMetrics:   cfg.Server.MetricsEnabled,
				ServerName:      "skillroute",
				ServerVersion:   version,
				LocalUser:       cfg.Server.LocalUser,
			}, deps)
			if err != nil {
				c.logger.Error("server terminated with error", "err", err)
				return err
			}
			c.logger.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "listen address (overrides server.bind)")
	return cmd
}

func (c *cli) tokenCommand() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the configured auth secret",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			secret := strings.TrimSpace(c.cfg.Auth.Secret)
			if secret == "" {
				return errors.New("auth.secret is not configured")
			}
			authn, err := auth.New(auth.Config{Secret: secret, Issuer: c.cfg.Auth.Issuer, TTL: c.cfg.TokenTTL(), Now: c.now})
			if err != nil {
				return fmt.Errorf("configure auth: %w", err)
			}
			token, err := authn.Mint(user)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(c.stdout, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "local", "user id to embed in the token")
	return cmd
}
