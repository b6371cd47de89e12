package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hylla/skillroute/internal/domain"
)

var errBoom = errors.New("boom")

type fakeRemote struct {
	mu sync.Mutex

	profile *domain.Profile
	payload *RoadmapPayload

	updateErr error
	// gates block UpdateProgress for an index until a result is sent.
	gates      map[int]chan error
	updateSeen chan int
	adaptErr   error
	deleteErr  error
	createErr  error
	adoptErr   error
	analysis   domain.GapAnalysis

	updateCalls int
	adaptCalls  int
	deleteCalls int
	createCalls int
	adoptCalls  int
	adopted     []domain.Roadmap
	// activity, when set, is recorded as the last activity of each completion.
	activity *time.Time
}

func newFakeRemote(roadmap *domain.Roadmap) *fakeRemote {
	f := &fakeRemote{}
	if roadmap != nil {
		f.payload = &RoadmapPayload{
			Roadmap:  *roadmap,
			Progress: domain.ReconcileProgress(*roadmap, domain.ProgressRecord{StreakDays: 2}),
		}
	}
	return f
}

func (f *fakeRemote) FetchProfile(context.Context) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profile, nil
}

func (f *fakeRemote) FetchRoadmap(context.Context) (*RoadmapPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.payload == nil {
		return nil, nil
	}
	out := *f.payload
	out.Roadmap = f.payload.Roadmap.Clone()
	return &out, nil
}

func (f *fakeRemote) CreateRoadmap(_ context.Context, profile domain.Profile) (RoadmapPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return RoadmapPayload{}, f.createErr
	}
	phase, _ := domain.NewPhase(domain.PhaseInput{Name: "Foundations", FocusSkills: profile.Skills})
	roadmap, _ := domain.NewRoadmap(profile.TargetRole, []domain.Phase{phase}, profile.DurationMonths)
	f.payload = &RoadmapPayload{Roadmap: roadmap, Progress: domain.ReconcileProgress(roadmap, domain.ProgressRecord{})}
	return *f.payload, nil
}

func (f *fakeRemote) UpdateProgress(_ context.Context, index int, status domain.PhaseStatus) (domain.ProgressRecord, error) {
	f.mu.Lock()
	f.updateCalls++
	gate, seen, err := f.gates[index], f.updateSeen, f.updateErr
	f.mu.Unlock()
	if seen != nil {
		seen <- index
	}
	if gate != nil {
		err = <-gate
	}
	if err != nil {
		return domain.ProgressRecord{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.payload == nil {
		return domain.ProgressRecord{}, nil
	}
	next, werr := f.payload.Roadmap.WithPhaseStatus(index, status)
	if werr != nil {
		return domain.ProgressRecord{}, werr
	}
	f.payload.Roadmap = next
	f.payload.Progress = domain.ReconcileProgress(next, f.payload.Progress)
	if status == domain.PhaseStatusCompleted && f.activity != nil {
		f.payload.Progress.StreakDays++
		day := *f.activity
		f.payload.Progress.LastActivityDate = &day
	}
	return f.payload.Progress, nil
}

func (f *fakeRemote) AdaptRoadmap(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adaptCalls++
	if f.adaptErr != nil {
		return f.adaptErr
	}
	if f.payload != nil {
		f.payload.Roadmap.Title += " (adapted)"
	}
	return nil
}

func (f *fakeRemote) DeleteRoadmap(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.payload = nil
	return nil
}

func (f *fakeRemote) AnalyzeSkillGap(context.Context, AnalyzeRequest) (domain.GapAnalysis, error) {
	return f.analysis, nil
}

func (f *fakeRemote) AdoptRoadmap(_ context.Context, roadmap domain.Roadmap, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adoptCalls++
	if f.adoptErr != nil {
		return f.adoptErr
	}
	roadmap.Title = title
	f.adopted = append(f.adopted, roadmap)
	f.payload = &RoadmapPayload{Roadmap: roadmap, Progress: domain.ReconcileProgress(roadmap, domain.ProgressRecord{})}
	return nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []Notification
}

func (r *recordingNotifier) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *recordingNotifier) count(level NotificationLevel) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, item := range r.items {
		if item.Level == level {
			n++
		}
	}
	return n
}

// testRoadmap builds count pending phases, completing the listed indices.
func testRoadmap(t *testing.T, count int, completed ...int) domain.Roadmap {
	t.Helper()
	done := map[int]bool{}
	for _, idx := range completed {
		done[idx] = true
	}
	phases := make([]domain.Phase, 0, count)
	for idx := 0; idx < count; idx++ {
		status := domain.PhaseStatusPending
		if done[idx] {
			status = domain.PhaseStatusCompleted
		}
		m1, err := domain.NewMilestone("basics", 6, nil)
		if err != nil {
			t.Fatalf("NewMilestone() error = %v", err)
		}
		m2, err := domain.NewMilestone("practice", 4, nil)
		if err != nil {
			t.Fatalf("NewMilestone() error = %v", err)
		}
		phase, err := domain.NewPhase(domain.PhaseInput{
			Name:       "Phase",
			Milestones: []domain.Milestone{m1, m2},
			Status:     status,
		})
		if err != nil {
			t.Fatalf("NewPhase() error = %v", err)
		}
		phases = append(phases, phase)
	}
	roadmap, err := domain.NewRoadmap("Platform Engineer", phases, 6)
	if err != nil {
		t.Fatalf("NewRoadmap() error = %v", err)
	}
	return roadmap
}

// gate makes UpdateProgress for index block until a result is sent on the returned channel.
func (f *fakeRemote) gate(index int) chan error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gates == nil {
		f.gates = map[int]chan error{}
	}
	if f.updateSeen == nil {
		f.updateSeen = make(chan int, 8)
	}
	ch := make(chan error)
	f.gates[index] = ch
	return ch
}

func loadedCoordinator(t *testing.T, remote *fakeRemote, cfg CoordinatorConfig) *Coordinator {
	t.Helper()
	coord := NewCoordinator(remote, cfg)
	if _, err := coord.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return coord
}
