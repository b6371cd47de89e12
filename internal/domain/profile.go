package domain

import (
	"fmt"
	"strings"
)

// ExperienceLevel describes how much prior experience a learner reports.
type ExperienceLevel string

// ExperienceBeginner and related constants define the supported levels.
const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// DefaultHoursPerWeek is used when a profile or request leaves study hours unset.
const DefaultHoursPerWeek = 10

// MaxHoursPerWeek bounds the study hours a learner may declare.
const MaxHoursPerWeek = 80

// Profile is the learner data roadmap generation works from.
type Profile struct {
	Name            string          `json:"name,omitempty"`
	CurrentRole     string          `json:"current_role,omitempty"`
	TargetRole      string          `json:"target_role"`
	Skills          []string        `json:"skills,omitempty"`
	Interests       []string        `json:"interests,omitempty"`
	ExperienceLevel ExperienceLevel `json:"experience_level,omitempty"`
	HoursPerWeek    int             `json:"hours_per_week,omitempty"`
	DurationMonths  int             `json:"duration_months,omitempty"`
}

// NewProfile validates and normalizes one profile.
func NewProfile(in Profile) (Profile, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.CurrentRole = strings.TrimSpace(in.CurrentRole)
	in.TargetRole = strings.TrimSpace(in.TargetRole)
	if in.TargetRole == "" {
		return Profile{}, fmt.Errorf("%w: target role is required", ErrInvalidProfile)
	}
	in.Skills = NormalizeSkills(in.Skills)
	in.Interests = NormalizeSkills(in.Interests)
	level := ExperienceLevel(strings.TrimSpace(strings.ToLower(string(in.ExperienceLevel))))
	switch level {
	case "":
		level = ExperienceBeginner
	case ExperienceBeginner, ExperienceIntermediate, ExperienceAdvanced:
	default:
		return Profile{}, fmt.Errorf("%w: unknown experience level %q", ErrInvalidProfile, in.ExperienceLevel)
	}
	in.ExperienceLevel = level
	hours, err := NormalizeHoursPerWeek(in.HoursPerWeek)
	if err != nil {
		return Profile{}, err
	}
	in.HoursPerWeek = hours
	if in.DurationMonths < 0 {
		return Profile{}, ErrInvalidDuration
	}
	if in.DurationMonths == 0 {
		in.DurationMonths = 6
	}
	return in, nil
}

// NormalizeHoursPerWeek applies the default and bounds study hours to 1..MaxHoursPerWeek.
func NormalizeHoursPerWeek(hours int) (int, error) {
	if hours == 0 {
		return DefaultHoursPerWeek, nil
	}
	if hours < 1 || hours > MaxHoursPerWeek {
		return 0, fmt.Errorf("%w: hours per week must be within 1..%d", ErrInvalidProfile, MaxHoursPerWeek)
	}
	return hours, nil
}

// CareerDecision is the optional career-direction summary served next to a roadmap.
type CareerDecision struct {
	TargetRole string `json:"target_role"`
	Summary    string `json:"summary"`
}
