package app

import "github.com/hylla/skillroute/internal/domain"

// MilestoneRow is one milestone as shown under an expanded phase.
type MilestoneRow struct {
	Index          int
	Name           string
	EstimatedHours float64
	Resources      []domain.Resource
	PanelOpen      bool
}

// TimelineRow is one phase in the timeline projection.
type TimelineRow struct {
	Index         int
	Name          string
	DurationLabel string
	Status        domain.PhaseStatus
	Current       bool
	Next          bool
	Expanded      bool
	TotalHours    float64
	FocusSkills   []string
	Outcomes      []string
	Milestones    []MilestoneRow
}

// StepState is the marker drawn for one step of the classic stepper.
type StepState string

// StepDone and related constants define stepper markers.
const (
	StepDone     StepState = "done"
	StepActive   StepState = "active"
	StepUpcoming StepState = "upcoming"
)

// ClassicStep is one phase in the classic stepper projection.
type ClassicStep struct {
	Index         int
	Name          string
	DurationLabel string
	State         StepState
	Status        domain.PhaseStatus
	Expanded      bool
	Milestones    []MilestoneRow
}

// TimelineRows projects the roadmap into timeline rows.
func TimelineRows(roadmap domain.Roadmap, progress domain.ProgressRecord, view *ViewState) []TimelineRow {
	derived := domain.Derive(roadmap, progress)
	rows := make([]TimelineRow, 0, roadmap.PhaseCount())
	for idx, phase := range roadmap.Phases {
		row := TimelineRow{
			Index:         idx,
			Name:          phase.Name,
			DurationLabel: phase.DurationLabel,
			Status:        phase.Status,
			Current:       derived.Current != nil && derived.Current.Index == idx,
			Next:          derived.Next != nil && derived.Next.Index == idx,
			Expanded:      view != nil && view.IsExpanded(idx),
			TotalHours:    phase.TotalHours(),
			FocusSkills:   phase.FocusSkills,
			Outcomes:      phase.Outcomes,
		}
		if row.Expanded {
			row.Milestones = milestoneRows(idx, phase, view)
		}
		rows = append(rows, row)
	}
	return rows
}

// ClassicSteps projects the roadmap into stepper steps.
func ClassicSteps(roadmap domain.Roadmap, progress domain.ProgressRecord, view *ViewState) []ClassicStep {
	derived := domain.Derive(roadmap, progress)
	steps := make([]ClassicStep, 0, roadmap.PhaseCount())
	for idx, phase := range roadmap.Phases {
		step := ClassicStep{
			Index:         idx,
			Name:          phase.Name,
			DurationLabel: phase.DurationLabel,
			Status:        phase.Status,
			State:         StepUpcoming,
			Expanded:      view != nil && view.IsExpanded(idx),
		}
		switch {
		case phase.IsCompleted():
			step.State = StepDone
		case derived.Current != nil && derived.Current.Index == idx:
			step.State = StepActive
		}
		if step.Expanded {
			step.Milestones = milestoneRows(idx, phase, view)
		}
		steps = append(steps, step)
	}
	return steps
}

// AnalysisRows projects a gap analysis as it would look once adopted.
func AnalysisRows(analysis domain.GapAnalysis, view *ViewState) ([]TimelineRow, error) {
	roadmap, err := NormalizeAnalysis(analysis)
	if err != nil {
		return nil, err
	}
	return TimelineRows(roadmap, domain.ReconcileProgress(roadmap, domain.ProgressRecord{}), view), nil
}

func milestoneRows(phaseIndex int, phase domain.Phase, view *ViewState) []MilestoneRow {
	rows := make([]MilestoneRow, 0, len(phase.Milestones))
	for idx, m := range phase.Milestones {
		rows = append(rows, MilestoneRow{
			Index:          idx,
			Name:           m.Name,
			EstimatedHours: m.EstimatedHours,
			Resources:      m.Resources,
			PanelOpen:      view != nil && view.IsPanelOpen(phaseIndex, idx),
		})
	}
	return rows
}
