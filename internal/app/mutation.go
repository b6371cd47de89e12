package app

import "github.com/hylla/skillroute/internal/domain"

// MutationState is the lifecycle state of one coordinator operation.
type MutationState string

// MutationIdle and related constants define the mutation lifecycle.
const (
	MutationIdle       MutationState = "idle"
	MutationPending    MutationState = "pending"
	MutationCommitted  MutationState = "committed"
	MutationRolledBack MutationState = "rolled_back"
)

// IsTerminal reports whether the state ends an operation.
func (s MutationState) IsTerminal() bool {
	return s == MutationCommitted || s == MutationRolledBack
}

// MutationKind names the operation a Mutation tracks.
type MutationKind string

// MutationToggle and related constants define mutation kinds.
const (
	MutationToggle   MutationKind = "toggle"
	MutationAdapt    MutationKind = "adapt"
	MutationReset    MutationKind = "reset"
	MutationGenerate MutationKind = "generate"
)

// Mutation records one operation and where it ended up.
// Index, From, and To are only set for toggles.
type Mutation struct {
	Kind  MutationKind
	State MutationState
	Index int
	From  domain.PhaseStatus
	To    domain.PhaseStatus
	Err   error
}
