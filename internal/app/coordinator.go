package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/hylla/skillroute/internal/domain"
)

// CoordinatorConfig holds the UI-boundary collaborators of a coordinator.
type CoordinatorConfig struct {
	Confirmer Confirmer
	Notifier  Notifier
}

// Snapshot is a read-only view of coordinator state with derived metrics.
// Instance changes whenever a different roadmap replaces the active one.
type Snapshot struct {
	Profile        *domain.Profile
	Roadmap        *domain.Roadmap
	Progress       domain.ProgressRecord
	CareerDecision *domain.CareerDecision
	Derivation     domain.Derivation
	Adapting       bool
	Pending        []int
	LastMutation   Mutation
	Instance       uint64
}

// HasRoadmap reports whether a roadmap is active.
func (s Snapshot) HasRoadmap() bool {
	return s.Roadmap != nil
}

// Coordinator owns the active roadmap and progress pair and reconciles
// optimistic local changes with the remote source of truth.
type Coordinator struct {
	remote    Remote
	confirmer Confirmer
	notifier  Notifier

	mu          sync.Mutex
	profile     *domain.Profile
	roadmap     *domain.Roadmap
	progress    domain.ProgressRecord
	career      *domain.CareerDecision
	epoch       uint64
	instance    uint64
	closed      bool
	adapting    bool
	inFlight    map[int]struct{}
	last        Mutation
	subscribers []func(Snapshot)
}

// NewCoordinator constructs a coordinator over one remote.
func NewCoordinator(remote Remote, cfg CoordinatorConfig) *Coordinator {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = discardNotifier{}
	}
	return &Coordinator{
		remote:    remote,
		confirmer: cfg.Confirmer,
		notifier:  notifier,
		inFlight:  map[int]struct{}{},
		last:      Mutation{State: MutationIdle},
	}
}

// OnChange registers a subscriber called after every state change.
func (c *Coordinator) OnChange(fn func(Snapshot)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Snapshot returns the current state and its derivation.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Profile returns the loaded profile, or nil when absent.
func (c *Coordinator) Profile() *domain.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

// LastMutation returns the most recently started or finished operation.
func (c *Coordinator) LastMutation() Mutation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Adapting reports whether an adapt request is in progress.
func (c *Coordinator) Adapting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.adapting
}

// Close detaches the coordinator from its view. Later completions are no-ops.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.subscribers = nil
}

// Load fetches profile and roadmap and installs them wholesale.
func (c *Coordinator) Load(ctx context.Context) (Snapshot, error) {
	return c.load(ctx, installReload)
}

// load installs the remote state as kind.
func (c *Coordinator) load(ctx context.Context, kind installKind) (Snapshot, error) {
	if c.isClosed() {
		return Snapshot{}, ErrClosed
	}
	profile, err := c.remote.FetchProfile(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load profile: %w", remoteFailure(err))
	}
	payload, err := c.remote.FetchRoadmap(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load roadmap: %w", remoteFailure(err))
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Snapshot{}, ErrClosed
	}
	c.profile = profile
	c.installLocked(payload, kind)
	snap, subs := c.publishLocked()
	c.mu.Unlock()
	emit(subs, snap)
	return snap, nil
}

// TogglePhase flips the status of one phase optimistically and reconciles the
// result with the remote. A failed remote write restores the prior status.
func (c *Coordinator) TogglePhase(ctx context.Context, index int) (Mutation, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Mutation{}, ErrClosed
	}
	if c.roadmap == nil {
		c.mu.Unlock()
		return Mutation{}, ErrNoRoadmap
	}
	from, err := c.roadmap.PhaseStatus(index)
	if err != nil {
		c.mu.Unlock()
		return Mutation{}, err
	}
	if _, busy := c.inFlight[index]; busy {
		c.mu.Unlock()
		return Mutation{}, fmt.Errorf("toggle phase %d: %w", index, ErrConcurrentMutation)
	}
	to := from.Opposite()
	next, err := c.roadmap.WithPhaseStatus(index, to)
	if err != nil {
		c.mu.Unlock()
		return Mutation{}, err
	}

	committed := c.roadmap
	committedProgress := c.progress
	optimistic := &next
	epoch := c.epoch
	c.roadmap = optimistic
	c.progress = domain.ReconcileProgress(next, c.progress)
	c.inFlight[index] = struct{}{}
	mutation := Mutation{Kind: MutationToggle, State: MutationPending, Index: index, From: from, To: to}
	c.last = mutation
	snap, subs := c.publishLocked()
	c.mu.Unlock()
	emit(subs, snap)

	ack, remoteErr := c.remote.UpdateProgress(ctx, index, to)

	c.mu.Lock()
	delete(c.inFlight, index)
	if remoteErr == nil {
		mutation.State = MutationCommitted
		if epoch == c.epoch && !c.closed {
			c.progress.StreakDays = ack.StreakDays
			c.progress.LastActivityDate = ack.LastActivityDate
		}
	} else {
		mutation.State = MutationRolledBack
		mutation.Err = fmt.Errorf("toggle phase %d: %w", index, remoteFailure(remoteErr))
	}
	if c.closed {
		c.mu.Unlock()
		return mutation, mutation.Err
	}
	if remoteErr != nil && epoch == c.epoch {
		c.rollbackLocked(optimistic, committed, committedProgress, index, from)
	}
	c.last = mutation
	snap, subs = c.publishLocked()
	c.mu.Unlock()

	if remoteErr != nil {
		c.notifier.Notify(Notification{
			Level:   NotificationError,
			Message: fmt.Sprintf("Could not update phase %d. Your change was reverted.", index+1),
			Err:     mutation.Err,
		})
	}
	emit(subs, snap)
	return mutation, mutation.Err
}

// rollbackLocked restores the committed tree. When another toggle landed in
// between, only index is reverted so the other change survives.
func (c *Coordinator) rollbackLocked(optimistic, committed *domain.Roadmap, committedProgress domain.ProgressRecord, index int, from domain.PhaseStatus) {
	if c.roadmap == optimistic {
		c.roadmap = committed
		c.progress = committedProgress
		return
	}
	if c.roadmap == nil {
		return
	}
	restored, err := c.roadmap.WithPhaseStatus(index, from)
	if err != nil {
		return
	}
	c.roadmap = &restored
	c.progress = domain.ReconcileProgress(restored, c.progress)
}

// AdaptRoadmap asks the remote to re-plan the roadmap and reloads it.
func (c *Coordinator) AdaptRoadmap(ctx context.Context) (Mutation, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Mutation{}, ErrClosed
	}
	if c.roadmap == nil {
		c.mu.Unlock()
		return Mutation{}, ErrNoRoadmap
	}
	if c.adapting {
		c.mu.Unlock()
		return Mutation{}, fmt.Errorf("adapt roadmap: %w", ErrConcurrentMutation)
	}
	c.adapting = true
	mutation := Mutation{Kind: MutationAdapt, State: MutationPending}
	c.last = mutation
	snap, subs := c.publishLocked()
	c.mu.Unlock()
	emit(subs, snap)

	var payload *RoadmapPayload
	err := c.remote.AdaptRoadmap(ctx)
	if err == nil {
		payload, err = c.remote.FetchRoadmap(ctx)
	}
	return c.finishReplace(mutation, err, func() { c.installLocked(payload, installReplan) }, "Roadmap adapted to your progress.", "Could not adapt your roadmap.")
}

// ResetRoadmap deletes the active roadmap after explicit confirmation.
// The profile is kept. Failures are reported and never retried.
func (c *Coordinator) ResetRoadmap(ctx context.Context) (Mutation, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Mutation{}, ErrClosed
	}
	if c.roadmap == nil {
		c.mu.Unlock()
		return Mutation{}, ErrNoRoadmap
	}
	c.mu.Unlock()

	if c.confirmer == nil {
		return Mutation{}, ErrResetCanceled
	}
	ok, err := c.confirmer.Confirm(ctx, Prompt{
		Title:        "Reset roadmap?",
		Message:      "This deletes your current roadmap and its progress. Your profile is kept.",
		ConfirmLabel: "Reset",
		CancelLabel:  "Cancel",
	})
	if err != nil {
		return Mutation{}, fmt.Errorf("confirm reset: %w", err)
	}
	if !ok {
		return Mutation{}, ErrResetCanceled
	}

	c.mu.Lock()
	mutation := Mutation{Kind: MutationReset, State: MutationPending}
	c.last = mutation
	snap, subs := c.publishLocked()
	c.mu.Unlock()
	emit(subs, snap)

	err = c.remote.DeleteRoadmap(ctx)
	return c.finishReplace(mutation, err, func() { c.installLocked(nil, installReplace) }, "Roadmap reset.", "Could not reset your roadmap.")
}

// GenerateRoadmap creates a new roadmap from profile and installs it.
func (c *Coordinator) GenerateRoadmap(ctx context.Context, profile *domain.Profile) (Mutation, error) {
	if profile == nil {
		return Mutation{}, ErrProfileRequired
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Mutation{}, ErrClosed
	}
	mutation := Mutation{Kind: MutationGenerate, State: MutationPending}
	c.last = mutation
	snap, subs := c.publishLocked()
	c.mu.Unlock()
	emit(subs, snap)

	payload, err := c.remote.CreateRoadmap(ctx, *profile)
	return c.finishReplace(mutation, err, func() {
		p := *profile
		c.profile = &p
		c.installLocked(&payload, installReplace)
	}, "Roadmap generated.", "Could not generate a roadmap.")
}

// finishReplace settles a non-toggle mutation. install runs under the lock on success.
func (c *Coordinator) finishReplace(mutation Mutation, err error, install func(), okMsg, failMsg string) (Mutation, error) {
	c.mu.Lock()
	if mutation.Kind == MutationAdapt {
		c.adapting = false
	}
	if err != nil {
		mutation.State = MutationRolledBack
		mutation.Err = fmt.Errorf("%s roadmap: %w", mutation.Kind, remoteFailure(err))
	} else {
		mutation.State = MutationCommitted
	}
	if c.closed {
		c.mu.Unlock()
		return mutation, mutation.Err
	}
	if err == nil {
		install()
	}
	c.last = mutation
	snap, subs := c.publishLocked()
	c.mu.Unlock()

	if err != nil {
		c.notifier.Notify(Notification{Level: NotificationError, Message: failMsg, Err: mutation.Err})
	} else {
		c.notifier.Notify(Notification{Level: NotificationSuccess, Message: okMsg})
	}
	emit(subs, snap)
	return mutation, mutation.Err
}

// installKind says whether an installed roadmap continues the active instance.
type installKind int

const (
	// installReload starts a new instance only when the roadmap changed shape.
	installReload installKind = iota
	// installReplan keeps the active instance.
	installReplan
	// installReplace always starts a new instance.
	installReplace
)

// installLocked replaces the roadmap wholesale and invalidates older completions.
func (c *Coordinator) installLocked(payload *RoadmapPayload, kind installKind) {
	c.epoch++
	var next *domain.Roadmap
	if payload != nil {
		next = &payload.Roadmap
	}
	switch kind {
	case installReplace:
		c.instance++
	case installReload:
		if !sameInstance(c.roadmap, next) {
			c.instance++
		}
	}
	if payload == nil {
		c.roadmap = nil
		c.progress = domain.ProgressRecord{}
		c.career = nil
		return
	}
	roadmap := payload.Roadmap.Clone()
	c.roadmap = &roadmap
	c.progress = domain.ReconcileProgress(roadmap, payload.Progress)
	c.career = payload.CareerDecision
}

// sameInstance reports whether b looks like the same roadmap as a.
func sameInstance(a, b *domain.Roadmap) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Title == b.Title && a.PhaseCount() == b.PhaseCount()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	snap := Snapshot{
		Profile:        c.profile,
		Roadmap:        c.roadmap,
		Progress:       c.progress,
		CareerDecision: c.career,
		Adapting:       c.adapting,
		LastMutation:   c.last,
		Instance:       c.instance,
	}
	if c.roadmap != nil {
		snap.Derivation = domain.Derive(*c.roadmap, c.progress)
	}
	for idx := range c.inFlight {
		snap.Pending = append(snap.Pending, idx)
	}
	slices.Sort(snap.Pending)
	return snap
}

func (c *Coordinator) publishLocked() (Snapshot, []func(Snapshot)) {
	return c.snapshotLocked(), slices.Clone(c.subscribers)
}

func (c *Coordinator) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func emit(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}

// remoteFailure tags err as a remote failure unless it already is one.
func remoteFailure(err error) error {
	if errors.Is(err, ErrRemoteFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRemoteFailure, err)
}
