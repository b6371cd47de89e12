package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hylla/skillroute/internal/app"
)

func (c *cli) exportCommand() *cobra.Command {
	var (
		format  string
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the roadmap and progress as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported export format %q: use json or yaml", format)
			}
			return c.withCoordinator(cmd.Context(), nil, func(_ context.Context, coord *app.Coordinator) error {
				doc, err := app.NewExport(coord.Snapshot(), c.now())
				if err != nil {
					return fmt.Errorf("build export: %w", err)
				}
				encoded, err := encodeExport(doc, format)
				if err != nil {
					return err
				}
				if outPath == "-" {
					if _, err := c.stdout.Write(encoded); err != nil {
						return fmt.Errorf("write export to stdout: %w", err)
					}
					return nil
				}
				if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
					return fmt.Errorf("create export output dir: %w", err)
				}
				if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
					return fmt.Errorf("write export file: %w", err)
				}
				c.logger.Info("export written", "path", outPath, "format", format)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

func encodeExport(doc app.Export, format string) ([]byte, error) {
	if format == "yaml" {
		encoded, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode export yaml: %w", err)
		}
		return encoded, nil
	}
	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export json: %w", err)
	}
	return append(encoded, '\n'), nil
}
