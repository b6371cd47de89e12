// Package backend implements the per-user roadmap service behind the REST and MCP adapters.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hylla/skillroute/internal/domain"
)

// IDGenerator returns unique identifiers for new records.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// DefaultListLimit bounds gap-analysis listings when no limit is given.
const DefaultListLimit = 20

// Service owns profile, roadmap, progress, and gap-analysis state per user.
type Service struct {
	repo   Repository
	idGen  IDGenerator
	clock  Clock
	logger *log.Logger
}

// NewService constructs a backend service.
func NewService(repo Repository, idGen IDGenerator, clock Clock, logger *log.Logger) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Service{repo: repo, idGen: idGen, clock: clock, logger: logger}
}

// Profile returns the saved profile of userID.
func (s *Service) Profile(ctx context.Context, userID string) (domain.Profile, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return domain.Profile{}, err
	}
	return s.repo.GetProfile(ctx, userID)
}

// SaveProfile validates and stores the profile of userID.
func (s *Service) SaveProfile(ctx context.Context, userID string, profile domain.Profile) (domain.Profile, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return domain.Profile{}, err
	}
	profile, err = domain.NewProfile(profile)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := s.repo.SaveProfile(ctx, userID, profile); err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

// Roadmap returns the active roadmap of userID.
func (s *Service) Roadmap(ctx context.Context, userID string) (StoredRoadmap, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return StoredRoadmap{}, err
	}
	return s.repo.GetRoadmap(ctx, userID)
}

// CreateRoadmap generates a roadmap from profile, saves the profile, and
// replaces any active roadmap with fresh progress.
func (s *Service) CreateRoadmap(ctx context.Context, userID string, profile domain.Profile) (StoredRoadmap, error) {
	profile, err := s.SaveProfile(ctx, userID, profile)
	if err != nil {
		return StoredRoadmap{}, err
	}
	roadmap, decision, err := Generate(profile)
	if err != nil {
		return StoredRoadmap{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	stored := s.fresh(roadmap, decision)
	if err := s.repo.SaveRoadmap(ctx, strings.TrimSpace(userID), stored); err != nil {
		return StoredRoadmap{}, err
	}
	s.logger.Info("roadmap created", "user", userID, "phases", roadmap.PhaseCount())
	return stored, nil
}

// UpdateProgress sets one phase status and maintains the streak. Only
// completions count as activity.
func (s *Service) UpdateProgress(ctx context.Context, userID string, index int, status domain.PhaseStatus) (domain.ProgressRecord, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return domain.ProgressRecord{}, err
	}
	status, err = domain.NormalizePhaseStatus(status)
	if err != nil {
		return domain.ProgressRecord{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	stored, err := s.repo.UpdateRoadmap(ctx, userID, func(stored *StoredRoadmap) error {
		roadmap, err := stored.Roadmap.WithPhaseStatus(index, status)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		now := s.clock().UTC()
		progress := domain.ReconcileProgress(roadmap, stored.Progress)
		if status == domain.PhaseStatusCompleted {
			progress.StreakDays, progress.LastActivityDate = NextStreak(progress.StreakDays, progress.LastActivityDate, now)
		}
		stored.Roadmap = roadmap
		stored.Progress = progress
		stored.UpdatedAt = now
		return nil
	})
	if err != nil {
		return domain.ProgressRecord{}, err
	}
	s.logger.Debug("progress updated", "user", userID, "phase", index, "status", status)
	return stored.Progress, nil
}

// AdaptRoadmap re-plans the pending phases of the active roadmap.
func (s *Service) AdaptRoadmap(ctx context.Context, userID string) (StoredRoadmap, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return StoredRoadmap{}, err
	}
	hours := domain.DefaultHoursPerWeek
	profile, err := s.repo.GetProfile(ctx, userID)
	switch {
	case err == nil:
		hours = profile.HoursPerWeek
	case !errors.Is(err, ErrNotFound):
		return StoredRoadmap{}, err
	}
	stored, err := s.repo.UpdateRoadmap(ctx, userID, func(stored *StoredRoadmap) error {
		stored.Roadmap = Replan(stored.Roadmap, hours)
		stored.Progress = domain.ReconcileProgress(stored.Roadmap, stored.Progress)
		stored.UpdatedAt = s.clock().UTC()
		return nil
	})
	if err != nil {
		return StoredRoadmap{}, err
	}
	s.logger.Info("roadmap adapted", "user", userID)
	return stored, nil
}

// DeleteRoadmap removes the active roadmap. The profile is kept.
func (s *Service) DeleteRoadmap(ctx context.Context, userID string) error {
	userID, err := requireUser(userID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteRoadmap(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("roadmap deleted", "user", userID)
	return nil
}

// AdoptRoadmap replaces the active roadmap with roadmap and resets progress.
func (s *Service) AdoptRoadmap(ctx context.Context, userID string, roadmap domain.Roadmap, title string) (StoredRoadmap, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return StoredRoadmap{}, err
	}
	roadmap = roadmap.Clone()
	if title = strings.TrimSpace(title); title != "" {
		roadmap.Title = title
	}
	if roadmap.PhaseCount() == 0 {
		return StoredRoadmap{}, fmt.Errorf("%w: roadmap has no phases", ErrInvalidInput)
	}
	for idx := range roadmap.Phases {
		roadmap.Phases[idx].Status = domain.PhaseStatusPending
	}
	stored := s.fresh(roadmap, nil)
	if err := s.repo.SaveRoadmap(ctx, userID, stored); err != nil {
		return StoredRoadmap{}, err
	}
	s.logger.Info("roadmap adopted", "user", userID, "title", roadmap.Title)
	return stored, nil
}

// AnalyzeGap runs a skill-gap analysis and records it for userID.
func (s *Service) AnalyzeGap(ctx context.Context, userID string, in AnalyzeInput) (GapRecord, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return GapRecord{}, err
	}
	analysis, err := Analyze(in)
	if err != nil {
		return GapRecord{}, err
	}
	hours, _ := domain.NormalizeHoursPerWeek(in.HoursPerWeek)
	record := GapRecord{
		ID:           s.idGen(),
		UserID:       userID,
		ResumeName:   strings.TrimSpace(in.ResumeName),
		HoursPerWeek: hours,
		Analysis:     analysis,
		AnalyzedAt:   s.clock().UTC(),
	}
	record.Analysis.ID = record.ID
	if err := s.repo.CreateGapAnalysis(ctx, record); err != nil {
		// Persistence is best effort.
		s.logger.Warn("persist gap analysis failed", "user", userID, "err", err)
		return record, nil
	}
	s.logger.Info("gap analysis stored", "user", userID, "id", record.ID, "match", analysis.MatchPercentage)
	return record, nil
}

// GapAnalyses lists recent analyses of userID, newest first.
func (s *Service) GapAnalyses(ctx context.Context, userID string, limit int) ([]GapRecord, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.repo.ListGapAnalyses(ctx, userID, limit)
}

func (s *Service) fresh(roadmap domain.Roadmap, decision *domain.CareerDecision) StoredRoadmap {
	now := s.clock().UTC()
	return StoredRoadmap{
		Roadmap:        roadmap,
		Progress:       domain.ReconcileProgress(roadmap, domain.ProgressRecord{}),
		CareerDecision: decision,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func requireUser(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return userID, nil
}
