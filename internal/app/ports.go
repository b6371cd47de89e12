package app

import (
	"context"

	"github.com/hylla/skillroute/internal/domain"
)

// Remote is the source of truth for profiles, roadmaps, and progress.
type Remote interface {
	// FetchProfile returns nil when the user has not saved a profile yet.
	FetchProfile(context.Context) (*domain.Profile, error)
	// FetchRoadmap returns nil when no roadmap is active.
	FetchRoadmap(context.Context) (*RoadmapPayload, error)
	CreateRoadmap(context.Context, domain.Profile) (RoadmapPayload, error)
	UpdateProgress(context.Context, int, domain.PhaseStatus) (domain.ProgressRecord, error)
	AdaptRoadmap(context.Context) error
	DeleteRoadmap(context.Context) error
	AnalyzeSkillGap(context.Context, AnalyzeRequest) (domain.GapAnalysis, error)
	AdoptRoadmap(context.Context, domain.Roadmap, string) error
}

// RoadmapPayload is one roadmap fetch result.
type RoadmapPayload struct {
	Roadmap        domain.Roadmap
	Progress       domain.ProgressRecord
	CareerDecision *domain.CareerDecision
}

// AnalyzeRequest carries the inputs of one skill-gap analysis.
type AnalyzeRequest struct {
	ResumeName   string
	Resume       []byte
	JDText       string
	HoursPerWeek int
}

// Prompt describes one confirm/cancel question.
type Prompt struct {
	Title        string
	Message      string
	ConfirmLabel string
	CancelLabel  string
}

// Confirmer asks the user to confirm a destructive operation.
type Confirmer interface {
	Confirm(context.Context, Prompt) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(context.Context, Prompt) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt Prompt) (bool, error) {
	return f(ctx, prompt)
}

// NotificationLevel classifies transient notifications.
type NotificationLevel string

// NotificationSuccess and related constants define notification levels.
const (
	NotificationSuccess NotificationLevel = "success"
	NotificationInfo    NotificationLevel = "info"
	NotificationError   NotificationLevel = "error"
)

// Notification is one fire-and-forget message for the user.
type Notification struct {
	Level   NotificationLevel
	Message string
	Err     error
}

// Notifier delivers transient notifications. Implementations must not block.
type Notifier interface {
	Notify(Notification)
}

// NotifyFunc adapts a function to Notifier.
type NotifyFunc func(Notification)

// Notify calls f.
func (f NotifyFunc) Notify(n Notification) {
	f(n)
}

type discardNotifier struct{}

func (discardNotifier) Notify(Notification) {}
