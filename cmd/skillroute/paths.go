package main

import (
	"errors"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/hylla/skillroute/internal/config"
)

func (c *cli) pathsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data, and log locations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintf(c.stdout, "app: %s\n", c.flags.appName)
			_, _ = fmt.Fprintf(c.stdout, "dev_mode: %t\n", c.flags.devMode)
			_, _ = fmt.Fprintf(c.stdout, "config: %s\n", c.paths.ConfigPath)
			_, _ = fmt.Fprintf(c.stdout, "data_dir: %s\n", c.paths.DataDir)
			_, _ = fmt.Fprintf(c.stdout, "db: %s\n", c.cfg.Database.Path)
			_, _ = fmt.Fprintf(c.stdout, "logs: %s\n", c.paths.LogDir)
			_, _ = fmt.Fprintf(c.stdout, "base_url: %s\n", c.cfg.Client.BaseURL)
			return nil
		},
	}
	cmd.AddCommand(c.initConfigCommand())
	return cmd
}

// initConfigCommand writes the default config when none exists.
func (c *cli) initConfigCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path := c.configPath
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config %q already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("stat config: %w", err)
			}
			if err := config.EnsureConfigDir(path); err != nil {
				return fmt.Errorf("create config dir: %w", err)
			}
			encoded, err := toml.Marshal(config.Default(c.paths.DBPath))
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			if err := os.WriteFile(path, encoded, 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			_, _ = fmt.Fprintf(c.stdout, "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}
