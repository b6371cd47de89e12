package tui

import (
	"context"

	"github.com/atotto/clipboard"

	"github.com/hylla/skillroute/internal/app"
	"github.com/hylla/skillroute/internal/domain"
)

// Option configures a Model.
type Option func(*Model)

// AnalysisSource returns the most recent skill-gap analysis, or nil when none exists.
type AnalysisSource func(context.Context) (*domain.GapAnalysis, error)

// Adopter adds one analysis to the active roadmap at most once.
type Adopter interface {
	Adopt(context.Context, domain.GapAnalysis, string) error
	State() app.AdoptState
}

// WithViewMode sets the initial roadmap display mode.
func WithViewMode(mode app.ViewMode) Option {
	return func(m *Model) {
		m.view.SetMode(mode)
	}
}

// WithRingRadius sets the score gauge size in cells.
func WithRingRadius(radius int) Option {
	return func(m *Model) {
		if radius > 0 {
			m.ringRadius = radius
		}
	}
}

// WithBridge subscribes the model to coordinator callbacks.
func WithBridge(b *Bridge) Option {
	return func(m *Model) {
		m.bridge = b
	}
}

// WithAnalysisSource enables the skill-gap view.
func WithAnalysisSource(src AnalysisSource) Option {
	return func(m *Model) {
		m.analyses = src
	}
}

// WithAdopterFactory supplies one adopter per loaded analysis.
func WithAdopterFactory(factory func() Adopter) Option {
	return func(m *Model) {
		m.newAdopter = factory
	}
}

// WithClipboard overrides the clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

func defaultClipboard(text string) error {
	return clipboard.WriteAll(text)
}
