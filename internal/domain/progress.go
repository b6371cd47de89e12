package domain

import (
	"math"
	"time"
)

// ProgressRecord is the server-side progress companion of the active roadmap.
// StreakDays and LastActivityDate are maintained remotely and only read here.
type ProgressRecord struct {
	CompletedPhaseCount int        `json:"completed_phase_count"`
	TotalPhases         int        `json:"total_phases"`
	StreakDays          int        `json:"streak_days"`
	LastActivityDate    *time.Time `json:"last_activity_date,omitempty"`
}

// NewProgressRecord validates counts against the phase total.
func NewProgressRecord(completed, total, streakDays int, lastActivity *time.Time) (ProgressRecord, error) {
	if completed < 0 || total < 0 || completed > total || streakDays < 0 {
		return ProgressRecord{}, ErrInvalidProgress
	}
	return ProgressRecord{
		CompletedPhaseCount: completed,
		TotalPhases:         total,
		StreakDays:          streakDays,
		LastActivityDate:    normalizeActivityDate(lastActivity),
	}, nil
}

// ReconcileProgress recomputes the phase counts from the roadmap's statuses,
// keeping the server-maintained streak fields.
func ReconcileProgress(roadmap Roadmap, progress ProgressRecord) ProgressRecord {
	progress.CompletedPhaseCount = roadmap.CompletedCount()
	progress.TotalPhases = roadmap.PhaseCount()
	if progress.StreakDays < 0 {
		progress.StreakDays = 0
	}
	return progress
}

// PhaseRef pairs a phase with its ordinal identity.
type PhaseRef struct {
	Index int
	Phase Phase
}

// Derivation holds the metrics computed from one roadmap and progress pair.
type Derivation struct {
	Percentage       int
	Current          *PhaseRef
	Next             *PhaseRef
	CompletedPhases  int
	TotalPhases      int
	StreakDays       int
	LastActivityDate *time.Time
}

// Derive computes percentage and current/next focus in one pass over the phases.
func Derive(roadmap Roadmap, progress ProgressRecord) Derivation {
	out := Derivation{
		Percentage:       Percentage(progress.CompletedPhaseCount, progress.TotalPhases),
		CompletedPhases:  progress.CompletedPhaseCount,
		TotalPhases:      progress.TotalPhases,
		StreakDays:       max(0, progress.StreakDays),
		LastActivityDate: progress.LastActivityDate,
	}
	for idx, phase := range roadmap.Phases {
		if out.Current == nil {
			if !phase.IsCompleted() {
				out.Current = &PhaseRef{Index: idx, Phase: phase}
			}
			continue
		}
		out.Next = &PhaseRef{Index: idx, Phase: phase}
		break
	}
	return out
}

// Percentage returns round(100*completed/total) clamped to [0,100]; zero totals yield 0.
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(100 * float64(completed) / float64(total)))
	return min(100, max(0, pct))
}

func normalizeActivityDate(ts *time.Time) *time.Time {
	if ts == nil {
		return nil
	}
	day := ts.UTC().Truncate(24 * time.Hour)
	return &day
}
