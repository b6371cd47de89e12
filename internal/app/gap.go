package app

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/hylla/skillroute/internal/domain"
)

// WeeksPerMonth converts readiness weeks into roadmap months.
const WeeksPerMonth = 4.345

// DefaultAnalysisTitle names roadmaps built from an analysis when no title is given.
const DefaultAnalysisTitle = "Skill Gap Roadmap"

// NormalizeAnalysis maps a gap analysis into a pending roadmap. Each skill of a
// velocity phase becomes one milestone carrying an even share of the phase hours.
func NormalizeAnalysis(analysis domain.GapAnalysis) (domain.Roadmap, error) {
	velocity := analysis.LearningVelocity
	phases := make([]domain.Phase, 0, len(velocity.Roadmap))
	for idx, vp := range velocity.Roadmap {
		skills := nonEmpty(vp.Skills)
		share := 0.0
		if len(skills) > 0 && vp.EstimatedHours > 0 {
			share = float64(vp.EstimatedHours) / float64(len(skills))
		}
		milestones := make([]domain.Milestone, 0, len(skills))
		outcomes := make([]string, 0, len(skills))
		for _, skill := range skills {
			m, err := domain.NewMilestone(skill, share, analysis.ResourcesFor(skill))
			if err != nil {
				return domain.Roadmap{}, fmt.Errorf("analysis phase %d milestone %q: %w", idx, skill, err)
			}
			milestones = append(milestones, m)
			outcomes = append(outcomes, "Apply "+skill+" in a working project")
		}
		phase, err := domain.NewPhase(domain.PhaseInput{
			Name:          vp.Name,
			DurationLabel: vp.Timeline,
			FocusSkills:   skills,
			Outcomes:      outcomes,
			Milestones:    milestones,
			Status:        domain.PhaseStatusPending,
		})
		if err != nil {
			return domain.Roadmap{}, fmt.Errorf("analysis phase %d: %w", idx, err)
		}
		phases = append(phases, phase)
	}
	return domain.NewRoadmap(DefaultAnalysisTitle, phases, monthsForWeeks(velocity.WeeksToReadiness))
}

func monthsForWeeks(weeks float64) int {
	if weeks <= 0 || math.IsNaN(weeks) || math.IsInf(weeks, 0) {
		return 0
	}
	return int(math.Ceil(weeks / WeeksPerMonth))
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// AnalyzeGap runs a skill-gap analysis through the remote.
func (c *Coordinator) AnalyzeGap(ctx context.Context, req AnalyzeRequest) (domain.GapAnalysis, error) {
	if c.isClosed() {
		return domain.GapAnalysis{}, ErrClosed
	}
	analysis, err := c.remote.AnalyzeSkillGap(ctx, req)
	if err != nil {
		return domain.GapAnalysis{}, fmt.Errorf("analyze skill gap: %w", remoteFailure(err))
	}
	return analysis, nil
}

// AdoptState is the lifecycle state of an Adopter.
type AdoptState string

// AdoptIdle and related constants define adopter states. AdoptAdopted is terminal.
const (
	AdoptIdle    AdoptState = "idle"
	AdoptPending AdoptState = "pending"
	AdoptAdopted AdoptState = "adopted"
)

// Adopter merges one gap analysis into the active roadmap at most once.
type Adopter struct {
	coord *Coordinator

	mu    sync.Mutex
	state AdoptState
}

// NewAdopter returns an idle adopter bound to coord.
func NewAdopter(coord *Coordinator) *Adopter {
	return &Adopter{coord: coord, state: AdoptIdle}
}

// State returns the adopter state.
func (a *Adopter) State() AdoptState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Adopt sends the normalized analysis to the remote and reloads the coordinator.
// Once adopted, further calls return nil without writing.
func (a *Adopter) Adopt(ctx context.Context, analysis domain.GapAnalysis, title string) error {
	a.mu.Lock()
	switch a.state {
	case AdoptAdopted:
		a.mu.Unlock()
		return nil
	case AdoptPending:
		a.mu.Unlock()
		return fmt.Errorf("adopt roadmap: %w", ErrConcurrentMutation)
	}
	a.state = AdoptPending
	a.mu.Unlock()

	roadmap, err := NormalizeAnalysis(analysis)
	if err != nil {
		a.setState(AdoptIdle)
		return err
	}
	if roadmap.PhaseCount() == 0 {
		a.setState(AdoptIdle)
		return fmt.Errorf("adopt roadmap: %w", ErrEmptyPlan)
	}
	if title = strings.TrimSpace(title); title != "" {
		roadmap.Title = title
	}
	if err := a.coord.remote.AdoptRoadmap(ctx, roadmap, roadmap.Title); err != nil {
		a.setState(AdoptIdle)
		err = fmt.Errorf("adopt roadmap: %w", remoteFailure(err))
		if !a.coord.isClosed() {
			a.coord.notifier.Notify(Notification{Level: NotificationError, Message: "Could not add this plan to your roadmap.", Err: err})
		}
		return err
	}
	a.setState(AdoptAdopted)
	if a.coord.isClosed() {
		return nil
	}
	a.coord.notifier.Notify(Notification{Level: NotificationSuccess, Message: "Plan added to your roadmap."})
	if _, err := a.coord.load(ctx, installReplace); err != nil {
		return fmt.Errorf("reload after adopt: %w", err)
	}
	return nil
}

func (a *Adopter) setState(state AdoptState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = state
}
