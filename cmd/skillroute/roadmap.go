package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hylla/skillroute/internal/app"
)

func (c *cli) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show roadmap progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := c.remote()
			if err != nil {
				return err
			}
			coord, err := c.coordinator(cmd.Context(), client, nil, nil)
			if err != nil {
				return err
			}
			defer coord.Close()
			writeStatus(c.stdout, coord.Snapshot())
			return nil
		},
	}
}

func (c *cli) toggleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <phase>",
		Short: "Mark a phase completed or pending",
		Long:  "Flip the status of one phase. Phases are numbered from 1.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parsePhaseIndex(args[0])
			if err != nil {
				return err
			}
			return c.withCoordinator(cmd.Context(), nil, func(ctx context.Context, coord *app.Coordinator) error {
				mutation, err := coord.TogglePhase(ctx, index)
				if err != nil {
					if errors.Is(err, app.ErrRemoteFailure) {
						return fmt.Errorf("phase %d left %s: %w", index+1, mutation.From, err)
					}
					return err
				}
				_, _ = fmt.Fprintf(c.stdout, "phase %d: %s -> %s\n", index+1, mutation.From, mutation.To)
				writeStatus(c.stdout, coord.Snapshot())
				return nil
			})
		},
	}
}

func (c *cli) adaptCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "adapt",
		Short: "Re-plan pending phases around your progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withCoordinator(cmd.Context(), nil, func(ctx context.Context, coord *app.Coordinator) error {
				if _, err := coord.AdaptRoadmap(ctx); err != nil {
					return err
				}
				writeStatus(c.stdout, coord.Snapshot())
				return nil
			})
		},
	}
}

func (c *cli) resetCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the active roadmap and its progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			confirmer := c.confirm
			if yes {
				confirmer = func(context.Context, app.Prompt) (bool, error) { return true, nil }
			}
			return c.withCoordinator(cmd.Context(), confirmer, func(ctx context.Context, coord *app.Coordinator) error {
				_, err := coord.ResetRoadmap(ctx)
				switch {
				case errors.Is(err, app.ErrResetCanceled):
					_, _ = fmt.Fprintln(c.stdout, "reset cancelled")
					return nil
				case errors.Is(err, app.ErrNoRoadmap):
					_, _ = fmt.Fprintln(c.stdout, "no active roadmap")
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (c *cli) generateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate a roadmap from your saved profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withCoordinator(cmd.Context(), nil, func(ctx context.Context, coord *app.Coordinator) error {
				_, err := coord.GenerateRoadmap(ctx, coord.Profile())
				if errors.Is(err, app.ErrProfileRequired) {
					return fmt.Errorf("%w: run `skillroute profile set --target-role ROLE` first", err)
				}
				if err != nil {
					return err
				}
				writeStatus(c.stdout, coord.Snapshot())
				return nil
			})
		},
	}
}

// withCoordinator loads a coordinator that prints notifications to stderr and runs fn.
func (c *cli) withCoordinator(ctx context.Context, confirmer app.ConfirmFunc, fn func(context.Context, *app.Coordinator) error) error {
	client, err := c.remote()
	if err != nil {
		return err
	}
	var conf app.Confirmer
	if confirmer != nil {
		conf = confirmer
	}
	coord, err := c.coordinator(ctx, client, conf, printNotifier(c.stderr))
	if err != nil {
		return err
	}
	defer coord.Close()
	return fn(ctx, coord)
}

// writeStatus prints the roadmap with derived progress.
func writeStatus(w io.Writer, snap app.Snapshot) {
	if snap.Roadmap == nil {
		if snap.Profile == nil {
			_, _ = fmt.Fprintln(w, "no roadmap yet; run `skillroute profile set` then `skillroute generate`")
			return
		}
		_, _ = fmt.Fprintf(w, "no roadmap yet; run `skillroute generate` to plan toward %s\n", snap.Profile.TargetRole)
		return
	}
	d := snap.Derivation
	_, _ = fmt.Fprintf(w, "%s\n", snap.Roadmap.Title)
	_, _ = fmt.Fprintf(w, "progress: %d%% (%d/%d phases)", d.Percentage, d.CompletedPhases, d.TotalPhases)
	if d.StreakDays > 0 {
		_, _ = fmt.Fprintf(w, ", %d-day streak", d.StreakDays)
	}
	_, _ = fmt.Fprintln(w)
	if cd := snap.CareerDecision; cd != nil && strings.TrimSpace(cd.TargetRole) != "" {
		_, _ = fmt.Fprintf(w, "target: %s\n", cd.TargetRole)
	}
	for idx, phase := range snap.Roadmap.Phases {
		marker := "[ ]"
		if phase.IsCompleted() {
			marker = "[x]"
		}
		tag := ""
		switch {
		case d.Current != nil && d.Current.Index == idx:
			tag = "  (current)"
		case d.Next != nil && d.Next.Index == idx:
			tag = "  (next)"
		}
		label := phase.Name
		if phase.DurationLabel != "" {
			label += "  " + phase.DurationLabel
		}
		_, _ = fmt.Fprintf(w, "%s %d. %s%s\n", marker, idx+1, label, tag)
	}
}
