package app

import (
	"fmt"
	"strings"
)

// ViewMode selects which roadmap projection is shown.
type ViewMode string

// ViewModeTimeline and ViewModeClassic are the two display modes.
const (
	ViewModeTimeline ViewMode = "timeline"
	ViewModeClassic  ViewMode = "classic"
)

// ParseViewMode parses a configured mode; empty input yields timeline.
func ParseViewMode(raw string) (ViewMode, error) {
	switch mode := ViewMode(strings.TrimSpace(strings.ToLower(raw))); mode {
	case "":
		return ViewModeTimeline, nil
	case ViewModeTimeline, ViewModeClassic:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown view mode %q", raw)
	}
}

// PanelKey addresses one milestone detail panel.
type PanelKey struct {
	Phase     int
	Milestone int
}

// ViewState tracks expand/collapse and display mode by ordinal index.
// It holds no roadmap data and is owned by a single UI goroutine.
type ViewState struct {
	expanded map[int]struct{}
	panels   map[PanelKey]struct{}
	mode     ViewMode
}

// NewViewState returns a view state with phase 0 expanded and every panel closed.
func NewViewState(mode ViewMode) *ViewState {
	if mode != ViewModeClassic {
		mode = ViewModeTimeline
	}
	return &ViewState{
		expanded: map[int]struct{}{0: {}},
		panels:   map[PanelKey]struct{}{},
		mode:     mode,
	}
}

// ToggleExpanded flips whether phase index is expanded.
func (v *ViewState) ToggleExpanded(index int) {
	if _, ok := v.expanded[index]; ok {
		delete(v.expanded, index)
		return
	}
	v.expanded[index] = struct{}{}
}

// IsExpanded reports whether phase index is expanded.
func (v *ViewState) IsExpanded(index int) bool {
	_, ok := v.expanded[index]
	return ok
}

// ToggleMilestonePanel flips whether one milestone panel is open.
func (v *ViewState) ToggleMilestonePanel(phaseIndex, milestoneIndex int) {
	key := PanelKey{Phase: phaseIndex, Milestone: milestoneIndex}
	if _, ok := v.panels[key]; ok {
		delete(v.panels, key)
		return
	}
	v.panels[key] = struct{}{}
}

// IsPanelOpen reports whether one milestone panel is open.
func (v *ViewState) IsPanelOpen(phaseIndex, milestoneIndex int) bool {
	_, ok := v.panels[PanelKey{Phase: phaseIndex, Milestone: milestoneIndex}]
	return ok
}

// Mode returns the active display mode.
func (v *ViewState) Mode() ViewMode {
	return v.mode
}

// SetMode switches the display mode. Unknown modes are ignored.
func (v *ViewState) SetMode(mode ViewMode) {
	if mode == ViewModeTimeline || mode == ViewModeClassic {
		v.mode = mode
	}
}

// ToggleMode switches between timeline and classic.
func (v *ViewState) ToggleMode() ViewMode {
	if v.mode == ViewModeTimeline {
		v.mode = ViewModeClassic
	} else {
		v.mode = ViewModeTimeline
	}
	return v.mode
}

// Retain drops keys for phases at or beyond phaseCount and keeps the rest.
func (v *ViewState) Retain(phaseCount int) {
	for idx := range v.expanded {
		if idx < 0 || idx >= phaseCount {
			delete(v.expanded, idx)
		}
	}
	for key := range v.panels {
		if key.Phase < 0 || key.Phase >= phaseCount {
			delete(v.panels, key)
		}
	}
}
