package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hylla/skillroute/internal/domain"
)

func (c *cli) profileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your learner profile",
	}
	cmd.AddCommand(c.profileShowCommand(), c.profileSetCommand())
	return cmd
}

func (c *cli) profileShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the saved profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := c.remote()
			if err != nil {
				return err
			}
			profile, err := client.FetchProfile(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch profile: %w", err)
			}
			if profile == nil {
				_, _ = fmt.Fprintln(c.stdout, "no profile yet; run `skillroute profile set --target-role ROLE`")
				return nil
			}
			writeProfile(c.stdout, *profile)
			return nil
		},
	}
}

func (c *cli) profileSetCommand() *cobra.Command {
	var in domain.Profile
	var level string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update the profile",
		Long:  "Merge the given flags into the saved profile. Unset flags keep their saved values.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := c.remote()
			if err != nil {
				return err
			}
			current, err := client.FetchProfile(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch profile: %w", err)
			}
			merged := domain.Profile{HoursPerWeek: c.cfg.Analysis.DefaultHoursPerWeek}
			if current != nil {
				merged = *current
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				merged.Name = in.Name
			}
			if flags.Changed("current-role") {
				merged.CurrentRole = in.CurrentRole
			}
			if flags.Changed("target-role") {
				merged.TargetRole = in.TargetRole
			}
			if flags.Changed("skills") {
				merged.Skills = in.Skills
			}
			if flags.Changed("interests") {
				merged.Interests = in.Interests
			}
			if flags.Changed("level") {
				merged.ExperienceLevel = domain.ExperienceLevel(level)
			}
			if flags.Changed("hours") {
				merged.HoursPerWeek = in.HoursPerWeek
			}
			if flags.Changed("months") {
				merged.DurationMonths = in.DurationMonths
			}
			normalized, err := domain.NewProfile(merged)
			if err != nil {
				return err
			}
			saved, err := client.SaveProfile(cmd.Context(), normalized)
			if err != nil {
				return fmt.Errorf("save profile: %w", err)
			}
			c.logger.Info("profile saved", "target_role", saved.TargetRole)
			writeProfile(c.stdout, saved)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "display name")
	f.StringVar(&in.CurrentRole, "current-role", "", "current role")
	f.StringVar(&in.TargetRole, "target-role", "", "role to work toward")
	f.StringSliceVar(&in.Skills, "skills", nil, "skills you already have (comma separated)")
	f.StringSliceVar(&in.Interests, "interests", nil, "topics you want to focus on")
	f.StringVar(&level, "level", "", "experience level: beginner, intermediate, advanced")
	f.IntVar(&in.HoursPerWeek, "hours", 0, "study hours per week (1-80)")
	f.IntVar(&in.DurationMonths, "months", 0, "roadmap length in months")
	return cmd
}

func writeProfile(w io.Writer, p domain.Profile) {
	rows := [][2]string{
		{"name", p.Name},
		{"current_role", p.CurrentRole},
		{"target_role", p.TargetRole},
		{"skills", strings.Join(p.Skills, ", ")},
		{"interests", strings.Join(p.Interests, ", ")},
		{"experience_level", string(p.ExperienceLevel)},
		{"hours_per_week", fmt.Sprint(p.HoursPerWeek)},
		{"duration_months", fmt.Sprint(p.DurationMonths)},
	}
	for _, row := range rows {
		if strings.TrimSpace(row[1]) == "" {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s: %s\n", row[0], row[1])
	}
}
