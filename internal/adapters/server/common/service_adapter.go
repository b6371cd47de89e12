package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/hylla/skillroute/internal/backend"
	"github.com/hylla/skillroute/internal/domain"
)

// ServiceAdapter maps transport contracts onto backend.Service.
type ServiceAdapter struct {
	service *backend.Service
}

// NewServiceAdapter builds one common adapter over a backend.Service instance.
func NewServiceAdapter(service *backend.Service) *ServiceAdapter {
	return &ServiceAdapter{service: service}
}

// Profile returns the caller's saved profile.
func (a *ServiceAdapter) Profile(ctx context.Context, userID string) (domain.Profile, error) {
	if err := a.ready(); err != nil {
		return domain.Profile{}, err
	}
	profile, err := a.service.Profile(ctx, userID)
	if err != nil {
		return domain.Profile{}, mapBackendError("get profile", err)
	}
	return profile, nil
}

// SaveProfile stores the caller's profile.
func (a *ServiceAdapter) SaveProfile(ctx context.Context, userID string, profile domain.Profile) (domain.Profile, error) {
	if err := a.ready(); err != nil {
		return domain.Profile{}, err
	}
	saved, err := a.service.SaveProfile(ctx, userID, profile)
	if err != nil {
		return domain.Profile{}, mapBackendError("save profile", err)
	}
	return saved, nil
}

// Roadmap returns the caller's active roadmap.
func (a *ServiceAdapter) Roadmap(ctx context.Context, userID string) (RoadmapEnvelope, error) {
	if err := a.ready(); err != nil {
		return RoadmapEnvelope{}, err
	}
	stored, err := a.service.Roadmap(ctx, userID)
	if err != nil {
		return RoadmapEnvelope{}, mapBackendError("get roadmap", err)
	}
	return envelopeFromStored(stored), nil
}

// CreateRoadmap generates and installs a roadmap for profile.
func (a *ServiceAdapter) CreateRoadmap(ctx context.Context, userID string, profile domain.Profile) (RoadmapEnvelope, error) {
	if err := a.ready(); err != nil {
		return RoadmapEnvelope{}, err
	}
	stored, err := a.service.CreateRoadmap(ctx, userID, profile)
	if err != nil {
		return RoadmapEnvelope{}, mapBackendError("create roadmap", err)
	}
	return envelopeFromStored(stored), nil
}

// UpdateProgress sets one phase status.
func (a *ServiceAdapter) UpdateProgress(ctx context.Context, userID string, in UpdateProgressRequest) (domain.ProgressRecord, error) {
	if err := a.ready(); err != nil {
		return domain.ProgressRecord{}, err
	}
	progress, err := a.service.UpdateProgress(ctx, userID, in.PhaseIndex, in.Status)
	if err != nil {
		return domain.ProgressRecord{}, mapBackendError("update progress", err)
	}
	return progress, nil
}

// AdaptRoadmap re-plans the caller's pending phases.
func (a *ServiceAdapter) AdaptRoadmap(ctx context.Context, userID string) error {
	if err := a.ready(); err != nil {
		return err
	}
	_, err := a.service.AdaptRoadmap(ctx, userID)
	return mapBackendError("adapt roadmap", err)
}

// DeleteRoadmap removes the caller's active roadmap.
func (a *ServiceAdapter) DeleteRoadmap(ctx context.Context, userID string) error {
	if err := a.ready(); err != nil {
		return err
	}
	return mapBackendError("delete roadmap", a.service.DeleteRoadmap(ctx, userID))
}

// AdoptRoadmap installs the submitted roadmap as the active one.
func (a *ServiceAdapter) AdoptRoadmap(ctx context.Context, userID string, in AdoptRoadmapRequest) error {
	if err := a.ready(); err != nil {
		return err
	}
	_, err := a.service.AdoptRoadmap(ctx, userID, in.Roadmap, in.Title)
	return mapBackendError("adopt roadmap", err)
}

// AnalyzeGap runs and records one skill-gap analysis.
func (a *ServiceAdapter) AnalyzeGap(ctx context.Context, userID string, in AnalyzeGapRequest) (domain.GapAnalysis, error) {
	if err := a.ready(); err != nil {
		return domain.GapAnalysis{}, err
	}
	rec, err := a.service.AnalyzeGap(ctx, userID, backend.AnalyzeInput{
		ResumeName:   in.ResumeName,
		Resume:       in.Resume,
		JDText:       in.JDText,
		HoursPerWeek: in.HoursPerWeek,
	})
	if err != nil {
		return domain.GapAnalysis{}, mapBackendError("analyze gap", err)
	}
	return rec.Analysis, nil
}

// ListGapAnalyses lists the caller's recent analyses.
func (a *ServiceAdapter) ListGapAnalyses(ctx context.Context, userID string, limit int) ([]GapAnalysisItem, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	records, err := a.service.GapAnalyses(ctx, userID, limit)
	if err != nil {
		return nil, mapBackendError("list gap analyses", err)
	}
	out := make([]GapAnalysisItem, 0, len(records))
	for _, rec := range records {
		out = append(out, GapAnalysisItem{
			ID:           rec.ID,
			ResumeName:   rec.ResumeName,
			HoursPerWeek: rec.HoursPerWeek,
			AnalyzedAt:   rec.AnalyzedAt,
			Analysis:     rec.Analysis,
		})
	}
	return out, nil
}

func (a *ServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("backend service adapter is not configured: %w", ErrServiceUnavailable)
	}
	return nil
}

func envelopeFromStored(stored backend.StoredRoadmap) RoadmapEnvelope {
	return RoadmapEnvelope{
		Roadmap:        stored.Roadmap,
		Progress:       stored.Progress,
		CareerDecision: stored.CareerDecision,
	}
}

// mapBackendError maps backend errors onto transport sentinels.
func mapBackendError(operation string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, backend.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, backend.ErrUnsupportedFormat):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrUnsupportedMedia, err))
	case errors.Is(err, backend.ErrInvalidInput),
		errors.Is(err, backend.ErrNoJDSkills),
		errors.Is(err, backend.ErrEmptyResume),
		errors.Is(err, domain.ErrIndexOutOfRange),
		errors.Is(err, domain.ErrInvalidStatus):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
