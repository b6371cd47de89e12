// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"

	"github.com/hylla/skillroute/internal/domain"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrUnsupportedMedia reports resume uploads in a format the analyzer cannot read.
var ErrUnsupportedMedia = errors.New("unsupported media")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrUnauthorized reports a missing or invalid caller identity.
var ErrUnauthorized = errors.New("unauthorized")

// ErrServiceUnavailable reports a transport without backing service.
var ErrServiceUnavailable = errors.New("service unavailable")

// RoadmapEnvelope is the roadmap payload returned by fetch and create.
type RoadmapEnvelope struct {
	Roadmap        domain.Roadmap         `json:"roadmap"`
	Progress       domain.ProgressRecord  `json:"progress"`
	CareerDecision *domain.CareerDecision `json:"career_decision,omitempty"`
}

// UpdateProgressRequest captures one phase status change.
type UpdateProgressRequest struct {
	PhaseIndex int                `json:"phase_index"`
	Status     domain.PhaseStatus `json:"status"`
}

// ProgressResponse is returned after a progress update.
type ProgressResponse struct {
	OK       bool                  `json:"ok"`
	Progress domain.ProgressRecord `json:"progress"`
}

// OKResponse acknowledges a write without payload.
type OKResponse struct {
	OK bool `json:"ok"`
}

// AdoptRoadmapRequest captures a roadmap to install as the active one.
type AdoptRoadmapRequest struct {
	Title   string         `json:"title"`
	Roadmap domain.Roadmap `json:"roadmap"`
}

// AnalyzeGapRequest carries one resume and job description pair.
type AnalyzeGapRequest struct {
	ResumeName   string
	Resume       []byte
	JDText       string
	HoursPerWeek int
}

// GapAnalysisItem is one stored analysis in list responses.
type GapAnalysisItem struct {
	ID           string             `json:"id"`
	ResumeName   string             `json:"resume_name"`
	HoursPerWeek int                `json:"hours_per_week"`
	AnalyzedAt   time.Time          `json:"analyzed_at"`
	Analysis     domain.GapAnalysis `json:"analysis"`
}

// GapAnalysisList wraps list responses.
type GapAnalysisList struct {
	Items []GapAnalysisItem `json:"items"`
}

// RoadmapService is the per-user surface served over HTTP and MCP.
type RoadmapService interface {
	Profile(context.Context, string) (domain.Profile, error)
	SaveProfile(context.Context, string, domain.Profile) (domain.Profile, error)
	Roadmap(context.Context, string) (RoadmapEnvelope, error)
	CreateRoadmap(context.Context, string, domain.Profile) (RoadmapEnvelope, error)
	UpdateProgress(context.Context, string, UpdateProgressRequest) (domain.ProgressRecord, error)
	AdaptRoadmap(context.Context, string) error
	DeleteRoadmap(context.Context, string) error
	AdoptRoadmap(context.Context, string, AdoptRoadmapRequest) error
	AnalyzeGap(context.Context, string, AnalyzeGapRequest) (domain.GapAnalysis, error)
	ListGapAnalyses(context.Context, string, int) ([]GapAnalysisItem, error)
}
