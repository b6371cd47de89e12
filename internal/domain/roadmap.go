package domain

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// ResourceType identifies the kind of learning asset a resource points to.
type ResourceType string

// ResourceTypeDocs and related constants define the supported resource kinds.
const (
	ResourceTypeDocs    ResourceType = "docs"
	ResourceTypeCourse  ResourceType = "course"
	ResourceTypeVideo   ResourceType = "video"
	ResourceTypeArticle ResourceType = "article"
	ResourceTypeProject ResourceType = "project"
)

var validResourceTypes = []ResourceType{
	ResourceTypeDocs,
	ResourceTypeCourse,
	ResourceTypeVideo,
	ResourceTypeArticle,
	ResourceTypeProject,
}

// PhaseStatus is the binary completion status of one phase.
type PhaseStatus string

// PhaseStatusPending and PhaseStatusCompleted are the only phase statuses.
const (
	PhaseStatusPending   PhaseStatus = "pending"
	PhaseStatusCompleted PhaseStatus = "completed"
)

// Opposite returns the status a toggle moves to.
func (s PhaseStatus) Opposite() PhaseStatus {
	if s == PhaseStatusCompleted {
		return PhaseStatusPending
	}
	return PhaseStatusCompleted
}

// IsValid reports whether the status is one of the known values.
func (s PhaseStatus) IsValid() bool {
	return s == PhaseStatusPending || s == PhaseStatusCompleted
}

// NormalizePhaseStatus canonicalizes a raw status value; empty maps to pending.
func NormalizePhaseStatus(raw PhaseStatus) (PhaseStatus, error) {
	status := PhaseStatus(strings.TrimSpace(strings.ToLower(string(raw))))
	if status == "" {
		return PhaseStatusPending, nil
	}
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

// Resource is one external learning asset. Values are never mutated after construction.
type Resource struct {
	Type          ResourceType `json:"type"`
	Title         string       `json:"title"`
	URL           string       `json:"url"`
	DurationLabel string       `json:"duration,omitempty"`
}

// NewResource validates and normalizes one resource.
func NewResource(typ ResourceType, title, url, durationLabel string) (Resource, error) {
	typ = ResourceType(strings.TrimSpace(strings.ToLower(string(typ))))
	title = strings.TrimSpace(title)
	url = strings.TrimSpace(url)
	if !slices.Contains(validResourceTypes, typ) {
		return Resource{}, fmt.Errorf("%w: %q", ErrInvalidResourceType, typ)
	}
	if title == "" {
		return Resource{}, ErrInvalidTitle
	}
	if url == "" {
		return Resource{}, ErrInvalidURL
	}
	return Resource{
		Type:          typ,
		Title:         title,
		URL:           url,
		DurationLabel: strings.TrimSpace(durationLabel),
	}, nil
}

// Milestone is one learning topic inside a phase.
type Milestone struct {
	Name           string     `json:"name"`
	EstimatedHours float64    `json:"estimated_hours"`
	Resources      []Resource `json:"resources,omitempty"`
}

// NewMilestone validates and normalizes one milestone.
func NewMilestone(name string, estimatedHours float64, resources []Resource) (Milestone, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Milestone{}, ErrInvalidName
	}
	if estimatedHours < 0 || math.IsNaN(estimatedHours) || math.IsInf(estimatedHours, 0) {
		return Milestone{}, ErrInvalidHours
	}
	return Milestone{
		Name:           name,
		EstimatedHours: estimatedHours,
		Resources:      slices.Clone(resources),
	}, nil
}

// Phase is one stage of a roadmap. Its identity is its index in Roadmap.Phases.
type Phase struct {
	Name          string      `json:"name"`
	DurationLabel string      `json:"duration,omitempty"`
	FocusSkills   []string    `json:"focus_skills,omitempty"`
	Outcomes      []string    `json:"outcomes,omitempty"`
	Milestones    []Milestone `json:"milestones,omitempty"`
	Status        PhaseStatus `json:"status"`
}

// PhaseInput holds the raw values used to build a phase.
type PhaseInput struct {
	Name          string
	DurationLabel string
	FocusSkills   []string
	Outcomes      []string
	Milestones    []Milestone
	Status        PhaseStatus
}

// NewPhase validates and normalizes one phase.
func NewPhase(in PhaseInput) (Phase, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Phase{}, ErrInvalidName
	}
	status, err := NormalizePhaseStatus(in.Status)
	if err != nil {
		return Phase{}, err
	}
	outcomes := make([]string, 0, len(in.Outcomes))
	for _, raw := range in.Outcomes {
		if outcome := strings.TrimSpace(raw); outcome != "" {
			outcomes = append(outcomes, outcome)
		}
	}
	return Phase{
		Name:          name,
		DurationLabel: strings.TrimSpace(in.DurationLabel),
		FocusSkills:   NormalizeSkills(in.FocusSkills),
		Outcomes:      outcomes,
		Milestones:    slices.Clone(in.Milestones),
		Status:        status,
	}, nil
}

// IsCompleted reports whether the phase is completed.
func (p Phase) IsCompleted() bool {
	return p.Status == PhaseStatusCompleted
}

// TotalHours sums the estimated hours of every milestone.
func (p Phase) TotalHours() float64 {
	total := 0.0
	for _, m := range p.Milestones {
		total += m.EstimatedHours
	}
	return total
}

// Milestone returns the milestone at index.
func (p Phase) Milestone(index int) (Milestone, error) {
	if index < 0 || index >= len(p.Milestones) {
		return Milestone{}, fmt.Errorf("%w: milestone %d of %d", ErrIndexOutOfRange, index, len(p.Milestones))
	}
	return p.Milestones[index], nil
}

// Roadmap owns an ordered arena of phases addressed by dense zero-based index.
type Roadmap struct {
	Title          string  `json:"title"`
	Phases         []Phase `json:"phases"`
	DurationMonths int     `json:"duration_months"`
}

// NewRoadmap validates and builds one roadmap.
func NewRoadmap(title string, phases []Phase, durationMonths int) (Roadmap, error) {
	if durationMonths < 0 {
		return Roadmap{}, ErrInvalidDuration
	}
	for idx, phase := range phases {
		if !phase.Status.IsValid() {
			return Roadmap{}, fmt.Errorf("phase %d: %w", idx, ErrInvalidStatus)
		}
	}
	return Roadmap{
		Title:          strings.TrimSpace(title),
		Phases:         slices.Clone(phases),
		DurationMonths: durationMonths,
	}, nil
}

// PhaseCount returns the number of phases.
func (r Roadmap) PhaseCount() int {
	return len(r.Phases)
}

// Phase returns the phase at index.
func (r Roadmap) Phase(index int) (Phase, error) {
	if err := r.checkIndex(index); err != nil {
		return Phase{}, err
	}
	return r.Phases[index], nil
}

// PhaseStatus returns the status of the phase at index.
func (r Roadmap) PhaseStatus(index int) (PhaseStatus, error) {
	if err := r.checkIndex(index); err != nil {
		return "", err
	}
	return r.Phases[index].Status, nil
}

// CompletedCount counts phases whose status is completed.
func (r Roadmap) CompletedCount() int {
	count := 0
	for _, phase := range r.Phases {
		if phase.IsCompleted() {
			count++
		}
	}
	return count
}

// TotalHours sums milestone hours across all phases.
func (r Roadmap) TotalHours() float64 {
	total := 0.0
	for _, phase := range r.Phases {
		total += phase.TotalHours()
	}
	return total
}

// WithPhaseStatus returns a copy of the roadmap with only phase index's status changed.
// The receiver is left untouched; milestones and resources are shared because they are immutable.
func (r Roadmap) WithPhaseStatus(index int, status PhaseStatus) (Roadmap, error) {
	if err := r.checkIndex(index); err != nil {
		return Roadmap{}, err
	}
	if !status.IsValid() {
		return Roadmap{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	next := r
	next.Phases = slices.Clone(r.Phases)
	next.Phases[index].Status = status
	return next, nil
}

// Clone deep-copies the phase arena and nested slices.
func (r Roadmap) Clone() Roadmap {
	out := r
	out.Phases = make([]Phase, len(r.Phases))
	for idx, phase := range r.Phases {
		phase.FocusSkills = slices.Clone(phase.FocusSkills)
		phase.Outcomes = slices.Clone(phase.Outcomes)
		milestones := make([]Milestone, len(phase.Milestones))
		for mIdx, m := range phase.Milestones {
			m.Resources = slices.Clone(m.Resources)
			milestones[mIdx] = m
		}
		phase.Milestones = milestones
		out.Phases[idx] = phase
	}
	return out
}

// Equal reports value equality of two roadmaps.
func (r Roadmap) Equal(other Roadmap) bool {
	if r.Title != other.Title || r.DurationMonths != other.DurationMonths || len(r.Phases) != len(other.Phases) {
		return false
	}
	for idx := range r.Phases {
		if !phaseEqual(r.Phases[idx], other.Phases[idx]) {
			return false
		}
	}
	return true
}

func (r Roadmap) checkIndex(index int) error {
	if index < 0 || index >= len(r.Phases) {
		return fmt.Errorf("%w: phase %d of %d", ErrIndexOutOfRange, index, len(r.Phases))
	}
	return nil
}

func phaseEqual(a, b Phase) bool {
	if a.Name != b.Name || a.DurationLabel != b.DurationLabel || a.Status != b.Status {
		return false
	}
	if !slices.Equal(a.FocusSkills, b.FocusSkills) || !slices.Equal(a.Outcomes, b.Outcomes) {
		return false
	}
	return slices.EqualFunc(a.Milestones, b.Milestones, func(x, y Milestone) bool {
		return x.Name == y.Name && x.EstimatedHours == y.EstimatedHours && slices.Equal(x.Resources, y.Resources)
	})
}

// NormalizeSkills lower-cases, trims, deduplicates, and sorts a skill set.
func NormalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := map[string]struct{}{}
	for _, raw := range skills {
		skill := strings.ToLower(strings.TrimSpace(raw))
		if skill == "" {
			continue
		}
		if _, ok := seen[skill]; ok {
			continue
		}
		seen[skill] = struct{}{}
		out = append(out, skill)
	}
	slices.Sort(out)
	return out
}
