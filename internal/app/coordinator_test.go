package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hylla/skillroute/internal/domain"
	"pgregory.net/rapid"
)

func TestCoordinatorLoadDerivesProgress(t *testing.T) {
	roadmap := testRoadmap(t, 5, 0, 1)
	coord := loadedCoordinator(t, newFakeRemote(&roadmap), CoordinatorConfig{})

	snap := coord.Snapshot()
	if !snap.HasRoadmap() {
		t.Fatal("expected roadmap after load")
	}
	if snap.Derivation.Percentage != 40 {
		t.Fatalf("expected 40%%, got %d", snap.Derivation.Percentage)
	}
	if snap.Derivation.Current == nil || snap.Derivation.Current.Index != 2 {
		t.Fatalf("expected current 2, got %#v", snap.Derivation.Current)
	}
	if snap.Derivation.Next == nil || snap.Derivation.Next.Index != 3 {
		t.Fatalf("expected next 3, got %#v", snap.Derivation.Next)
	}
	if snap.Derivation.StreakDays != 2 {
		t.Fatalf("expected streak 2, got %d", snap.Derivation.StreakDays)
	}
}

func TestCoordinatorLoadAbsentRoadmap(t *testing.T) {
	coord := loadedCoordinator(t, newFakeRemote(nil), CoordinatorConfig{})
	if coord.Snapshot().HasRoadmap() {
		t.Fatal("expected no roadmap")
	}
	if _, err := coord.TogglePhase(context.Background(), 0); !errors.Is(err, ErrNoRoadmap) {
		t.Fatalf("expected ErrNoRoadmap, got %v", err)
	}
}

func TestTogglePhaseSuccess(t *testing.T) {
	roadmap := testRoadmap(t, 5, 0, 1)
	remote := newFakeRemote(&roadmap)
	notes := &recordingNotifier{}
	coord := loadedCoordinator(t, remote, CoordinatorConfig{Notifier: notes})

	m, err := coord.TogglePhase(context.Background(), 2)
	if err != nil {
		t.Fatalf("TogglePhase() error = %v", err)
	}
	if m.State != MutationCommitted || m.From != domain.PhaseStatusPending || m.To != domain.PhaseStatusCompleted {
		t.Fatalf("unexpected mutation %#v", m)
	}
	snap := coord.Snapshot()
	if got, _ := snap.Roadmap.PhaseStatus(2); got != domain.PhaseStatusCompleted {
		t.Fatalf("expected completed at 2, got %q", got)
	}
	if snap.Derivation.Current == nil || snap.Derivation.Current.Index != 3 {
		t.Fatalf("expected current 3, got %#v", snap.Derivation.Current)
	}
	if snap.Progress.CompletedPhaseCount != 3 {
		t.Fatalf("expected completed count 3, got %d", snap.Progress.CompletedPhaseCount)
	}
	if notes.count(NotificationError) != 0 {
		t.Fatal("expected no error notification")
	}
	if coord.LastMutation().State != MutationCommitted {
		t.Fatalf("expected last mutation committed, got %q", coord.LastMutation().State)
	}
}

func TestTogglePhaseMergesServerStreak(t *testing.T) {
	roadmap := testRoadmap(t, 3)
	remote := newFakeRemote(&roadmap)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	remote.activity = &day
	coord := loadedCoordinator(t, remote, CoordinatorConfig{})
	if got := coord.Snapshot().Derivation.StreakDays; got != 2 {
		t.Fatalf("expected loaded streak 2, got %d", got)
	}

	if _, err := coord.TogglePhase(context.Background(), 0); err != nil {
		t.Fatalf("TogglePhase() error = %v", err)
	}
	snap := coord.Snapshot()
	if snap.Progress.StreakDays != 3 || snap.Derivation.StreakDays != 3 {
		t.Fatalf("expected streak from the acknowledgement, got %#v", snap.Progress)
	}
	if snap.Progress.LastActivityDate == nil || !snap.Progress.LastActivityDate.Equal(day) {
		t.Fatalf("expected last activity %v, got %v", day, snap.Progress.LastActivityDate)
	}
	if snap.Progress.CompletedPhaseCount != 1 {
		t.Fatalf("expected local completed count kept, got %d", snap.Progress.CompletedPhaseCount)
	}
}

func TestTogglePhaseFailureRollsBack(t *testing.T) {
	roadmap := testRoadmap(t, 5, 0, 1)
	remote := newFakeRemote(&roadmap)
	remote.updateErr = errBoom
	notes := &recordingNotifier{}
	coord := loadedCoordinator(t, remote, CoordinatorConfig{Notifier: notes})
	before := coord.Snapshot()

	m, err := coord.TogglePhase(context.Background(), 2)
	if !errors.Is(err, ErrRemoteFailure) || !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped remote failure, got %v", err)
	}
	if m.State != MutationRolledBack {
		t.Fatalf("expected rolled back, got %q", m.State)
	}
	after := coord.Snapshot()
	if got, _ := after.Roadmap.PhaseStatus(2); got != domain.PhaseStatusPending {
		t.Fatalf("expected pending at 2, got %q", got)
	}
	if !after.Roadmap.Equal(*before.Roadmap) {
		t.Fatal("expected tree equal to pre-toggle state")
	}
	if after.Roadmap != before.Roadmap {
		t.Fatal("expected rollback to restore the committed snapshot")
	}
	if after.Progress.CompletedPhaseCount != 2 {
		t.Fatalf("expected completed count 2, got %d", after.Progress.CompletedPhaseCount)
	}
	if got := notes.count(NotificationError); got != 1 {
		t.Fatalf("expected exactly one error notification, got %d", got)
	}
}

func TestTogglePhaseTwiceRestoresStatus(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 8).Draw(rt, "count")
		index := rapid.IntRange(0, count-1).Draw(rt, "index")
		statuses := rapid.SliceOfN(rapid.Bool(), count, count).Draw(rt, "completed")
		phases := make([]domain.Phase, count)
		for idx, done := range statuses {
			phases[idx] = domain.Phase{Name: "p", Status: domain.PhaseStatusPending}
			if done {
				phases[idx].Status = domain.PhaseStatusCompleted
			}
		}
		roadmap := domain.Roadmap{Title: "r", Phases: phases}
		coord := NewCoordinator(newFakeRemote(&roadmap), CoordinatorConfig{})
		if _, err := coord.Load(context.Background()); err != nil {
			rt.Fatalf("Load() error = %v", err)
		}
		for range 2 {
			if _, err := coord.TogglePhase(context.Background(), index); err != nil {
				rt.Fatalf("TogglePhase() error = %v", err)
			}
		}
		snap := coord.Snapshot()
		if !snap.Roadmap.Equal(roadmap) {
			rt.Fatalf("expected double toggle to restore phase %d", index)
		}
		if snap.Progress.CompletedPhaseCount != roadmap.CompletedCount() {
			rt.Fatalf("expected completed count %d, got %d", roadmap.CompletedCount(), snap.Progress.CompletedPhaseCount)
		}
	})
}

func TestTogglePhaseIndexOutOfRange(t *testing.T) {
	roadmap := testRoadmap(t, 3)
	remote := newFakeRemote(&roadmap)
	coord := loadedCoordinator(t, remote, CoordinatorConfig{})
	for _, idx := range []int{-1, 3} {
		if _, err := coord.TogglePhase(context.Background(), idx); !errors.Is(err, domain.ErrIndexOutOfRange) {
			t.Fatalf("index %d: expected ErrIndexOutOfRange, got %v", idx, err)
		}
	}
	if remote.updateCalls != 0 {
		t.Fatalf("expected no remote calls, got %d", remote.updateCalls)
	}
}

func TestTogglePhaseSameIndexInFlight(t *testing.T) {
	roadmap := testRoadmap(t, 3)
	remote := newFakeRemote(&roadmap)
	gate := remote.gate(1)
	coord := loadedCoordinator(t, remote, CoordinatorConfig{})

	done := make(chan error, 1)
	go func() {
		_, err := coord.TogglePhase(context.Background(), 1)
		done <- err
	}()
	<-remote.updateSeen

	if _, err := coord.TogglePhase(context.Background(), 1); !errors.Is(err, ErrConcurrentMutation) {
		t.Fatalf("expected ErrConcurrentMutation, got %v", err)
	}
	if pending := coord.Snapshot().Pending; len(pending) != 1 || pending[0] != 1 {
		t.Fatalf("expected index 1 pending, got %v", pending)
	}
	if _, err := coord.TogglePhase(context.Background(), 2); err != nil {
		t.Fatalf("expected other index to proceed, got %v", err)
	}

	gate <- nil
	if err := <-done; err != nil {
		t.Fatalf("TogglePhase() error = %v", err)
	}
	snap := coord.Snapshot()
	if snap.Progress.CompletedPhaseCount != 2 {
		t.Fatalf("expected two completed phases, got %d", snap.Progress.CompletedPhaseCount)
	}
	if len(snap.Pending) != 0 {
		t.Fatalf("expected nothing pending, got %v", snap.Pending)
	}
}

func TestTogglePhaseFailureKeepsConcurrentChange(t *testing.T) {
	roadmap := testRoadmap(t, 3)
	remote := newFakeRemote(&roadmap)
	gate := remote.gate(0)
	notes := &recordingNotifier{}
	coord := loadedCoordinator(t, remote, CoordinatorConfig{Notifier: notes})

	done := make(chan error, 1)
	go func() {
		_, err := coord.TogglePhase(context.Background(), 0)
		done <- err
	}()
	<-remote.updateSeen
	if _, err := coord.TogglePhase(context.Background(), 2); err != nil {
		t.Fatalf("TogglePhase(2) error = %v", err)
	}

	gate <- errBoom
	if err := <-done; !errors.Is(err, ErrRemoteFailure) {
		t.Fatalf("expected ErrRemoteFailure, got %v", err)
	}
	snap := coord.Snapshot()
	if got, _ := snap.Roadmap.PhaseStatus(0); got != domain.PhaseStatusPending {
		t.Fatalf("expected phase 0 reverted, got %q", got)
	}
	if got, _ := snap.Roadmap.PhaseStatus(2); got != domain.PhaseStatusCompleted {
		t.Fatalf("expected phase 2 kept, got %q", got)
	}
	if snap.Progress.CompletedPhaseCount != 1 {
		t.Fatalf("expected completed count 1, got %d", snap.Progress.CompletedPhaseCount)
	}
	if notes.count(NotificationError) != 1 {
		t.Fatalf("expected one error notification, got %d", notes.count(NotificationError))
	}
}

func TestTogglePhaseCompletionAfterCloseIsNoop(t *testing.T) {
	roadmap := testRoadmap(t, 3)
	remote := newFakeRemote(&roadmap)
	gate := remote.gate(0)
	notes := &recordingNotifier{}
	coord := loadedCoordinator(t, remote, CoordinatorConfig{Notifier: notes})
	calls := 0
	coord.OnChange(func(Snapshot) { calls++ })

	done := make(chan error, 1)
	go func() {
		_, err := coord.TogglePhase(context.Background(), 0)
		done <- err
	}()
	<-remote.updateSeen
	optimistic := coord.Snapshot()
	coord.Close()
	callsAtClose := calls

	gate <- errBoom
	<-done
	if notes.count(NotificationError) != 0 {
		t.Fatal("expected no notification after close")
	}
	if calls != callsAtClose {
		t.Fatal("expected no subscriber calls after close")
	}
	if coord.Snapshot().Roadmap != optimistic.Roadmap {
		t.Fatal("expected no state write after close")
	}
	if _, err := coord.TogglePhase(context.Background(), 1); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestTogglePhaseStaleCompletionSkipsReplacedTree(t *testing.T) {
	roadmap := testRoadmap(t, 3)
	remote := newFakeRemote(&roadmap)
	gate := remote.gate(0)
	notes := &recordingNotifier{}
	coord := loadedCoordinator(t, remote, CoordinatorConfig{Notifier: notes})

	done := make(chan error, 1)
	go func() {
		_, err := coord.TogglePhase(context.Background(), 0)
		done <- err
	}()
	<-remote.updateSeen

	remote.mu.Lock()
	remote.payload.Roadmap.Title = "Reloaded"
	remote.mu.Unlock()
	if _, err := coord.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	reloaded := coord.Snapshot().Roadmap

	gate <- errBoom
	<-done
	if coord.Snapshot().Roadmap != reloaded {
		t.Fatal("expected stale completion to leave the reloaded tree alone")
	}
	if notes.count(NotificationError) != 1 {
		t.Fatalf("expected one error notification, got %d", notes.count(NotificationError))
	}
}

func TestAdaptRoadmapReloads(t *testing.T) {
	roadmap := testRoadmap(t, 3)
	remote := newFakeRemote(&roadmap)
	notes := &recordingNotifier{}
	coord := loadedCoordinator(t, remote, CoordinatorConfig{Notifier: notes})
	view := NewViewState(ViewModeTimeline)
	view.ToggleExpanded(2)
	coord.OnChange(func(s Snapshot) {
		if s.Roadmap != nil {
			view.Retain(s.Roadmap.PhaseCount())
		}
	})

	m, err := coord.AdaptRoadmap(context.Background())
	if err != nil {
		t.Fatalf("AdaptRoadmap() error = %v", err)
	}
	if m.State != MutationCommitted {
		t.Fatalf("expected committed, got %q", m.State)
	}
	if got := coord.Snapshot().Roadmap.Title; got != "Platform Engineer (adapted)" {
		t.Fatalf("expected reloaded roadmap, got %q", got)
	}
	if coord.Adapting() {
		t.Fatal("expected adapting to clear")
	}
	if !view.IsExpanded(0) || !view.IsExpanded(2) {
		t.Fatal("expected expanded phases to survive reload")
	}
	if notes.count(NotificationSuccess) != 1 {
		t.Fatal("expected one success notification")
	}
}

func TestAdaptRoadmapFailureAndConcurrency(t *testing.T) {
	roadmap := testRoadmap(t, 3)
	remote := newFakeRemote(&roadmap)
	remote.adaptErr = errBoom
	notes := &recordingNotifier{}
	coord := loadedCoordinator(t, remote, CoordinatorConfig{Notifier: notes})
	before := coord.Snapshot().Roadmap

	if _, err := coord.AdaptRoadmap(context.Background()); !errors.Is(err, ErrRemoteFailure) {
		t.Fatalf("expected ErrRemoteFailure, got %v", err)
	}
	if coord.Snapshot().Roadmap != before {
		t.Fatal("expected failed adapt to keep the tree")
	}
	if coord.Adapting() {
		t.Fatal("expected adapting to clear after failure")
	}
	if notes.count(NotificationError) != 1 {
		t.Fatal("expected one error notification")
	}

	coord.mu.Lock()
	coord.adapting = true
	coord.mu.Unlock()
	if _, err := coord.AdaptRoadmap(context.Background()); !errors.Is(err, ErrConcurrentMutation) {
		t.Fatalf("expected ErrConcurrentMutation, got %v", err)
	}
}

func TestResetRoadmapCanceled(t *testing.T) {
	roadmap := testRoadmap(t, 2)
	remote := newFakeRemote(&roadmap)
	var asked Prompt
	coord := loadedCoordinator(t, remote, CoordinatorConfig{
		Confirmer: ConfirmFunc(func(_ context.Context, p Prompt) (bool, error) {
			asked = p
			return false, nil
		}),
	})

	if _, err := coord.ResetRoadmap(context.Background()); !errors.Is(err, ErrResetCanceled) {
		t.Fatalf("expected ErrResetCanceled, got %v", err)
	}
	if asked.Title == "" {
		t.Fatal("expected confirmation prompt")
	}
	if remote.deleteCalls != 0 {
		t.Fatalf("expected no delete call, got %d", remote.deleteCalls)
	}
	if !coord.Snapshot().HasRoadmap() {
		t.Fatal("expected roadmap to remain")
	}
}

func TestResetRoadmapConfirmed(t *testing.T) {
	roadmap := testRoadmap(t, 2)
	remote := newFakeRemote(&roadmap)
	remote.profile = &domain.Profile{TargetRole: "SRE"}
	coord := loadedCoordinator(t, remote, CoordinatorConfig{
		Confirmer: ConfirmFunc(func(context.Context, Prompt) (bool, error) { return true, nil }),
	})

	if _, err := coord.ResetRoadmap(context.Background()); err != nil {
		t.Fatalf("ResetRoadmap() error = %v", err)
	}
	snap := coord.Snapshot()
	if snap.HasRoadmap() {
		t.Fatal("expected roadmap to be absent")
	}
	if snap.Profile == nil || snap.Profile.TargetRole != "SRE" {
		t.Fatalf("expected profile untouched, got %#v", snap.Profile)
	}
	if remote.deleteCalls != 1 {
		t.Fatalf("expected one delete call, got %d", remote.deleteCalls)
	}
}

func TestResetRoadmapFailureNotRetried(t *testing.T) {
	roadmap := testRoadmap(t, 2)
	remote := newFakeRemote(&roadmap)
	remote.deleteErr = errBoom
	coord := loadedCoordinator(t, remote, CoordinatorConfig{
		Confirmer: ConfirmFunc(func(context.Context, Prompt) (bool, error) { return true, nil }),
	})
	if _, err := coord.ResetRoadmap(context.Background()); !errors.Is(err, ErrRemoteFailure) {
		t.Fatalf("expected ErrRemoteFailure, got %v", err)
	}
	if remote.deleteCalls != 1 {
		t.Fatalf("expected exactly one delete call, got %d", remote.deleteCalls)
	}
	if !coord.Snapshot().HasRoadmap() {
		t.Fatal("expected roadmap kept after failed reset")
	}
}

func TestGenerateRoadmap(t *testing.T) {
	remote := newFakeRemote(nil)
	coord := loadedCoordinator(t, remote, CoordinatorConfig{})

	if _, err := coord.GenerateRoadmap(context.Background(), nil); !errors.Is(err, ErrProfileRequired) {
		t.Fatalf("expected ErrProfileRequired, got %v", err)
	}
	if remote.createCalls != 0 {
		t.Fatal("expected no create call without profile")
	}

	profile, err := domain.NewProfile(domain.Profile{TargetRole: "Data Engineer", Skills: []string{"sql"}})
	if err != nil {
		t.Fatalf("NewProfile() error = %v", err)
	}
	if _, err := coord.GenerateRoadmap(context.Background(), &profile); err != nil {
		t.Fatalf("GenerateRoadmap() error = %v", err)
	}
	snap := coord.Snapshot()
	if !snap.HasRoadmap() || snap.Roadmap.Title != "Data Engineer" {
		t.Fatalf("expected generated roadmap, got %#v", snap.Roadmap)
	}
	if snap.Derivation.Current == nil || snap.Derivation.Current.Index != 0 {
		t.Fatalf("expected current 0, got %#v", snap.Derivation.Current)
	}
}

func TestSnapshotInstanceTracksReplacedRoadmaps(t *testing.T) {
	remote := newFakeRemote(nil)
	coord := loadedCoordinator(t, remote, CoordinatorConfig{
		Confirmer: ConfirmFunc(func(context.Context, Prompt) (bool, error) { return true, nil }),
	})
	ctx := context.Background()
	start := coord.Snapshot().Instance

	profile, err := domain.NewProfile(domain.Profile{TargetRole: "SRE"})
	if err != nil {
		t.Fatalf("NewProfile() error = %v", err)
	}
	if _, err := coord.GenerateRoadmap(ctx, &profile); err != nil {
		t.Fatalf("GenerateRoadmap() error = %v", err)
	}
	generated := coord.Snapshot().Instance
	if generated == start {
		t.Fatal("expected generate to start a new instance")
	}

	if _, err := coord.TogglePhase(ctx, 0); err != nil {
		t.Fatalf("TogglePhase() error = %v", err)
	}
	if _, err := coord.AdaptRoadmap(ctx); err != nil {
		t.Fatalf("AdaptRoadmap() error = %v", err)
	}
	if _, err := coord.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := coord.Snapshot().Instance; got != generated {
		t.Fatalf("expected toggle, adapt, and reload to keep instance %d, got %d", generated, got)
	}

	if _, err := coord.ResetRoadmap(ctx); err != nil {
		t.Fatalf("ResetRoadmap() error = %v", err)
	}
	if got := coord.Snapshot().Instance; got == generated {
		t.Fatal("expected reset to start a new instance")
	}
	reset := coord.Snapshot().Instance
	if err := NewAdopter(coord).Adopt(ctx, sampleAnalysis(), ""); err != nil {
		t.Fatalf("Adopt() error = %v", err)
	}
	if got := coord.Snapshot().Instance; got == reset {
		t.Fatal("expected adopt to start a new instance")
	}
}

func TestOnChangeReceivesPendingAndSettledStates(t *testing.T) {
	roadmap := testRoadmap(t, 2)
	coord := loadedCoordinator(t, newFakeRemote(&roadmap), CoordinatorConfig{})
	var states []MutationState
	coord.OnChange(func(s Snapshot) { states = append(states, s.LastMutation.State) })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := coord.TogglePhase(ctx, 0); err != nil {
		t.Fatalf("TogglePhase() error = %v", err)
	}
	if len(states) != 2 || states[0] != MutationPending || states[1] != MutationCommitted {
		t.Fatalf("unexpected states %v", states)
	}
}
