package app

import (
	"testing"

	"github.com/hylla/skillroute/internal/domain"
)

func TestViewStateInitial(t *testing.T) {
	view := NewViewState("")
	if view.Mode() != ViewModeTimeline {
		t.Fatalf("expected timeline mode, got %q", view.Mode())
	}
	if !view.IsExpanded(0) || view.IsExpanded(1) {
		t.Fatal("expected only phase 0 expanded")
	}
	if view.IsPanelOpen(0, 0) {
		t.Fatal("expected panels closed")
	}
}

func TestViewStateToggles(t *testing.T) {
	view := NewViewState(ViewModeClassic)
	view.ToggleExpanded(0)
	view.ToggleExpanded(3)
	if view.IsExpanded(0) || !view.IsExpanded(3) {
		t.Fatal("expected toggles to flip membership")
	}
	view.ToggleMilestonePanel(3, 1)
	if !view.IsPanelOpen(3, 1) || view.IsPanelOpen(1, 3) {
		t.Fatal("expected panel keyed by (phase, milestone)")
	}
	view.ToggleMilestonePanel(3, 1)
	if view.IsPanelOpen(3, 1) {
		t.Fatal("expected panel to close on second toggle")
	}
	if view.ToggleMode() != ViewModeTimeline || view.ToggleMode() != ViewModeClassic {
		t.Fatal("expected mode to alternate")
	}
	view.SetMode("grid")
	if view.Mode() != ViewModeClassic {
		t.Fatalf("expected unknown mode to be ignored, got %q", view.Mode())
	}
}

func TestViewStateRetain(t *testing.T) {
	view := NewViewState(ViewModeTimeline)
	view.ToggleExpanded(2)
	view.ToggleExpanded(5)
	view.ToggleMilestonePanel(2, 0)
	view.ToggleMilestonePanel(5, 1)

	view.Retain(4)
	if !view.IsExpanded(0) || !view.IsExpanded(2) {
		t.Fatal("expected surviving indices to stay expanded")
	}
	if view.IsExpanded(5) || view.IsPanelOpen(5, 1) {
		t.Fatal("expected vanished indices to be dropped")
	}
	if !view.IsPanelOpen(2, 0) {
		t.Fatal("expected surviving panel to stay open")
	}
}

func TestParseViewMode(t *testing.T) {
	for raw, want := range map[string]ViewMode{"": ViewModeTimeline, " Classic ": ViewModeClassic, "timeline": ViewModeTimeline} {
		got, err := ParseViewMode(raw)
		if err != nil || got != want {
			t.Fatalf("ParseViewMode(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseViewMode("kanban"); err == nil {
		t.Fatal("expected unknown mode error")
	}
}

func TestTimelineRowsAndClassicStepsAgree(t *testing.T) {
	roadmap := testRoadmap(t, 4, 0, 2)
	progress := domain.ReconcileProgress(roadmap, domain.ProgressRecord{})
	view := NewViewState(ViewModeTimeline)
	view.ToggleMilestonePanel(0, 1)

	rows := TimelineRows(roadmap, progress, view)
	steps := ClassicSteps(roadmap, progress, view)
	if len(rows) != 4 || len(steps) != 4 {
		t.Fatalf("expected 4 rows and steps, got %d and %d", len(rows), len(steps))
	}
	if !rows[1].Current || !rows[2].Next {
		t.Fatalf("expected current 1 and next 2, got %#v", rows)
	}
	if steps[0].State != StepDone || steps[1].State != StepActive || steps[2].State != StepDone || steps[3].State != StepUpcoming {
		t.Fatalf("unexpected step states %#v", steps)
	}
	for idx := range rows {
		if rows[idx].Status != steps[idx].Status {
			t.Fatalf("projections disagree on phase %d", idx)
		}
	}
	if len(rows[0].Milestones) != 2 || !rows[0].Milestones[1].PanelOpen || rows[0].Milestones[0].PanelOpen {
		t.Fatalf("unexpected milestone rows %#v", rows[0].Milestones)
	}
	if rows[1].Milestones != nil {
		t.Fatal("expected collapsed phase to omit milestones")
	}
	if rows[0].TotalHours != 10 {
		t.Fatalf("expected 10 hours, got %v", rows[0].TotalHours)
	}
}
