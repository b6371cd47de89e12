package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/hylla/skillroute/internal/domain"
)

// ExportVersion identifies the export document layout.
const ExportVersion = "skillroute.export.v1"

// Export is a portable document of the active roadmap and its progress.
type Export struct {
	Version    string         `json:"version" yaml:"version"`
	ExportedAt time.Time      `json:"exported_at" yaml:"exported_at"`
	Title      string         `json:"title" yaml:"title"`
	Months     int            `json:"duration_months" yaml:"duration_months"`
	Progress   ExportProgress `json:"progress" yaml:"progress"`
	Phases     []ExportPhase  `json:"phases" yaml:"phases"`
}

// ExportProgress holds the derived progress figures of an export.
type ExportProgress struct {
	Percentage       int        `json:"percentage" yaml:"percentage"`
	CompletedPhases  int        `json:"completed_phases" yaml:"completed_phases"`
	TotalPhases      int        `json:"total_phases" yaml:"total_phases"`
	StreakDays       int        `json:"streak_days" yaml:"streak_days"`
	LastActivityDate *time.Time `json:"last_activity_date,omitempty" yaml:"last_activity_date,omitempty"`
	CurrentPhase     *int       `json:"current_phase,omitempty" yaml:"current_phase,omitempty"`
}

// ExportPhase is one phase of an export.
type ExportPhase struct {
	Name          string            `json:"name" yaml:"name"`
	DurationLabel string            `json:"duration,omitempty" yaml:"duration,omitempty"`
	Status        string            `json:"status" yaml:"status"`
	FocusSkills   []string          `json:"focus_skills,omitempty" yaml:"focus_skills,omitempty"`
	Outcomes      []string          `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
	Milestones    []ExportMilestone `json:"milestones,omitempty" yaml:"milestones,omitempty"`
}

// ExportMilestone is one milestone of an export.
type ExportMilestone struct {
	Name           string           `json:"name" yaml:"name"`
	EstimatedHours float64          `json:"estimated_hours" yaml:"estimated_hours"`
	Resources      []ExportResource `json:"resources,omitempty" yaml:"resources,omitempty"`
}

// ExportResource is one resource of an export.
type ExportResource struct {
	Type     string `json:"type" yaml:"type"`
	Title    string `json:"title" yaml:"title"`
	URL      string `json:"url" yaml:"url"`
	Duration string `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// NewExport builds an export document from a coordinator snapshot.
func NewExport(snap Snapshot, now time.Time) (Export, error) {
	if snap.Roadmap == nil {
		return Export{}, ErrNoRoadmap
	}
	roadmap := *snap.Roadmap
	derived := domain.Derive(roadmap, snap.Progress)
	out := Export{
		Version:    ExportVersion,
		ExportedAt: now.UTC(),
		Title:      roadmap.Title,
		Months:     roadmap.DurationMonths,
		Progress: ExportProgress{
			Percentage:       derived.Percentage,
			CompletedPhases:  derived.CompletedPhases,
			TotalPhases:      derived.TotalPhases,
			StreakDays:       derived.StreakDays,
			LastActivityDate: derived.LastActivityDate,
		},
		Phases: make([]ExportPhase, 0, roadmap.PhaseCount()),
	}
	if derived.Current != nil {
		idx := derived.Current.Index
		out.Progress.CurrentPhase = &idx
	}
	for _, phase := range roadmap.Phases {
		ep := ExportPhase{
			Name:          phase.Name,
			DurationLabel: phase.DurationLabel,
			Status:        string(phase.Status),
			FocusSkills:   phase.FocusSkills,
			Outcomes:      phase.Outcomes,
		}
		for _, m := range phase.Milestones {
			em := ExportMilestone{Name: m.Name, EstimatedHours: m.EstimatedHours}
			for _, r := range m.Resources {
				em.Resources = append(em.Resources, ExportResource{
					Type:     string(r.Type),
					Title:    r.Title,
					URL:      r.URL,
					Duration: r.DurationLabel,
				})
			}
			ep.Milestones = append(ep.Milestones, em)
		}
		out.Phases = append(out.Phases, ep)
	}
	return out, out.Validate()
}

// Validate checks the document for internal consistency.
func (e Export) Validate() error {
	if e.Version != ExportVersion {
		return fmt.Errorf("unsupported export version %q", e.Version)
	}
	if e.Progress.TotalPhases != len(e.Phases) {
		return errors.New("export progress does not match phase count")
	}
	completed := 0
	for idx, phase := range e.Phases {
		status, err := domain.NormalizePhaseStatus(domain.PhaseStatus(phase.Status))
		if err != nil {
			return fmt.Errorf("export phase %d: %w", idx, err)
		}
		if status == domain.PhaseStatusCompleted {
			completed++
		}
	}
	if completed != e.Progress.CompletedPhases {
		return errors.New("export completed count does not match phase statuses")
	}
	return nil
}
