package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hylla/skillroute/internal/app"
	"github.com/hylla/skillroute/internal/domain"
)

func (c *cli) analyzeCommand() *cobra.Command {
	var (
		resumePath string
		jdText     string
		jdPath     string
		hours      int
		adopt      bool
		title      string
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compare a resume against a job description",
		Long:  "Score a plain-text resume against a job description and print the learning plan for the missing skills.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resume, err := os.ReadFile(resumePath)
			if err != nil {
				return fmt.Errorf("read resume: %w", err)
			}
			if jdPath != "" {
				raw, err := os.ReadFile(jdPath)
				if err != nil {
					return fmt.Errorf("read job description: %w", err)
				}
				jdText = string(raw)
			}
			if strings.TrimSpace(jdText) == "" {
				return errors.New("a job description is required: pass --jd or --jd-file")
			}
			if !cmd.Flags().Changed("hours") {
				hours = c.cfg.Analysis.DefaultHoursPerWeek
			}
			if _, err := domain.NormalizeHoursPerWeek(hours); err != nil {
				return err
			}
			return c.withCoordinator(cmd.Context(), nil, func(ctx context.Context, coord *app.Coordinator) error {
				analysis, err := coord.AnalyzeGap(ctx, app.AnalyzeRequest{
					ResumeName:   filepath.Base(resumePath),
					Resume:       resume,
					JDText:       jdText,
					HoursPerWeek: hours,
				})
				if err != nil {
					return err
				}
				writeAnalysis(c.stdout, analysis)
				if !adopt {
					return nil
				}
				if err := app.NewAdopter(coord).Adopt(ctx, analysis, title); err != nil {
					return err
				}
				writeStatus(c.stdout, coord.Snapshot())
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&resumePath, "resume", "", "path to a .txt resume")
	f.StringVar(&jdText, "jd", "", "job description text")
	f.StringVar(&jdPath, "jd-file", "", "path to a job description file")
	f.IntVar(&hours, "hours", 0, "study hours per week (1-80)")
	f.BoolVar(&adopt, "adopt", false, "replace the active roadmap with the learning plan")
	f.StringVar(&title, "title", "", "roadmap title when adopting")
	_ = cmd.MarkFlagRequired("resume")
	cmd.MarkFlagsMutuallyExclusive("jd", "jd-file")
	return cmd
}

func (c *cli) adoptCommand() *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "adopt",
		Short: "Replace the roadmap with the latest skill-gap plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := c.remote()
			if err != nil {
				return err
			}
			items, err := client.ListGapAnalyses(cmd.Context(), 1)
			if err != nil {
				return fmt.Errorf("list analyses: %w", err)
			}
			if len(items) == 0 {
				return errors.New("no skill-gap analysis yet; run `skillroute analyze` first")
			}
			return c.withCoordinator(cmd.Context(), nil, func(ctx context.Context, coord *app.Coordinator) error {
				if err := app.NewAdopter(coord).Adopt(ctx, items[0].Analysis, title); err != nil {
					return err
				}
				writeStatus(c.stdout, coord.Snapshot())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "roadmap title")
	return cmd
}

func writeAnalysis(w io.Writer, a domain.GapAnalysis) {
	_, _ = fmt.Fprintf(w, "match: %.2f%%  readiness: %.0f%%\n", a.MatchPercentage, a.JobReadinessScore)
	_, _ = fmt.Fprintf(w, "have: %s\n", joinOrDash(a.MatchedSkills))
	_, _ = fmt.Fprintf(w, "need: %s\n", joinOrDash(a.MissingSkills))
	v := a.LearningVelocity
	if v.TotalEstimatedHours == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "plan: about %dh, %.1f weeks\n", v.TotalEstimatedHours, v.WeeksToReadiness)
	for _, phase := range v.Roadmap {
		_, _ = fmt.Fprintf(w, "  %s (%s, %dh): %s\n", phase.Name, phase.Timeline, phase.EstimatedHours, strings.Join(phase.Skills, ", "))
	}
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
