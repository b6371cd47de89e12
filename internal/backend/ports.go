package backend

import (
	"context"
	"time"

	"github.com/hylla/skillroute/internal/domain"
)

// Repository persists per-user profiles, roadmaps, and gap analyses.
type Repository interface {
	GetProfile(context.Context, string) (domain.Profile, error)
	SaveProfile(context.Context, string, domain.Profile) error

	GetRoadmap(context.Context, string) (StoredRoadmap, error)
	SaveRoadmap(context.Context, string, StoredRoadmap) error
	// UpdateRoadmap applies fn to the stored roadmap and saves the result atomically.
	UpdateRoadmap(context.Context, string, func(*StoredRoadmap) error) (StoredRoadmap, error)
	DeleteRoadmap(context.Context, string) error

	CreateGapAnalysis(context.Context, GapRecord) error
	ListGapAnalyses(context.Context, string, int) ([]GapRecord, error)
}

// StoredRoadmap is the persisted roadmap and progress pair of one user.
type StoredRoadmap struct {
	Roadmap        domain.Roadmap
	Progress       domain.ProgressRecord
	CareerDecision *domain.CareerDecision
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// GapRecord is one persisted gap analysis.
type GapRecord struct {
	ID           string
	UserID       string
	ResumeName   string
	HoursPerWeek int
	Analysis     domain.GapAnalysis
	AnalyzedAt   time.Time
}
