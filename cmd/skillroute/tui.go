package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hylla/skillroute/internal/app"
	"github.com/hylla/skillroute/internal/domain"
	"github.com/hylla/skillroute/internal/tui"
)

// runTUI wires the coordinator to the bubbletea model through a bridge and runs the program.
func (c *cli) runTUI(ctx context.Context) error {
	// Runtime logs stay in the dev-file sink while the TUI owns the terminal.
	c.logger.SetConsoleEnabled(false)
	defer c.logger.SetConsoleEnabled(true)

	client, err := c.remote()
	if err != nil {
		return err
	}
	bridge := tui.NewBridge()
	coord := app.NewCoordinator(client, app.CoordinatorConfig{Confirmer: bridge, Notifier: bridge})
	defer coord.Close()
	coord.OnChange(bridge.Publish)

	m := tui.NewModel(
		coord,
		tui.WithBridge(bridge),
		tui.WithViewMode(c.cfg.ViewMode()),
		tui.WithRingRadius(c.cfg.View.RingRadius),
		tui.WithAnalysisSource(func(ctx context.Context) (*domain.GapAnalysis, error) {
			items, err := client.ListGapAnalyses(ctx, 1)
			if err != nil {
				return nil, err
			}
			if len(items) == 0 {
				return nil, nil
			}
			analysis := items[0].Analysis
			if analysis.ID == "" {
				analysis.ID = items[0].ID
			}
			return &analysis, nil
		}),
		tui.WithAdopterFactory(func() tui.Adopter {
			return app.NewAdopter(coord)
		}),
	)
	c.logger.Info("starting tui program loop", "base_url", c.cfg.Client.BaseURL)
	if _, err := c.newProgram(m).Run(); err != nil {
		c.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	c.logger.Info("command flow complete", "command", "tui")
	return nil
}
