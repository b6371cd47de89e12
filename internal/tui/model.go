// Package tui renders the roadmap, its progress, and skill-gap analyses in the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/hylla/skillroute/internal/app"
	"github.com/hylla/skillroute/internal/domain"
)

// toastTTL bounds how long one toast stays on screen.
const toastTTL = 4 * time.Second

// maxToasts bounds the visible toast stack.
const maxToasts = 3

// defaultRingRadius sizes the score gauges when no option overrides it.
const defaultRingRadius = 4

// Service is the coordinator surface the model drives.
type Service interface {
	Load(context.Context) (app.Snapshot, error)
	Snapshot() app.Snapshot
	TogglePhase(context.Context, int) (app.Mutation, error)
	AdaptRoadmap(context.Context) (app.Mutation, error)
	ResetRoadmap(context.Context) (app.Mutation, error)
	GenerateRoadmap(context.Context, *domain.Profile) (app.Mutation, error)
}

// screen selects the top-level page.
type screen int

const (
	screenRoadmap screen = iota
	screenAnalysis
)

// cursorItem addresses one selectable row. milestone is -1 for phase rows.
type cursorItem struct {
	phase     int
	milestone int
}

// toast is one transient notification.
type toast struct {
	id    int
	level app.NotificationLevel
	text  string
}

type loadedMsg struct {
	snap app.Snapshot
	err  error
}

type mutationDoneMsg struct {
	kind     app.MutationKind
	mutation app.Mutation
	err      error
}

type analysisLoadedMsg struct {
	analysis *domain.GapAnalysis
	err      error
}

type adoptDoneMsg struct {
	err error
}

type copiedMsg struct {
	url string
	err error
}

type toastExpiredMsg struct {
	id int
}

// Model is the root bubbletea model.
type Model struct {
	svc        Service
	bridge     *Bridge
	analyses   AnalysisSource
	newAdopter func() Adopter
	adopter    Adopter
	copyText   func(string) error

	keys keyMap
	help help.Model
	md   *markdownRenderer

	view         *app.ViewState
	analysisView *app.ViewState
	snap         app.Snapshot
	loaded       bool
	err          error

	screen         screen
	cursor         int
	analysisCursor int
	analysis       *domain.GapAnalysis
	analysisErr    error

	confirm       *confirmRequestMsg
	confirmChoice int

	toasts      []toast
	nextToastID int

	status     string
	ready      bool
	width      int
	height     int
	ringRadius int
}

// NewModel builds a model over svc.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:          svc,
		copyText:     defaultClipboard,
		keys:         newKeyMap(),
		help:         h,
		md:           &markdownRenderer{},
		view:         app.NewViewState(app.ViewModeTimeline),
		analysisView: app.NewViewState(app.ViewModeTimeline),
		status:       "loading...",
		ringRadius:   defaultRingRadius,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init loads the roadmap and starts listening for coordinator events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.bridge.wait())
}

// Update applies one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, app.ErrClosed) {
				return m, nil
			}
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.loaded = true
		m.setSnapshot(msg.snap)
		m.status = "ready"
		return m, nil

	case snapshotMsg:
		m.setSnapshot(msg.snap)
		return m, m.bridge.wait()

	case notificationMsg:
		id := m.pushToast(msg.notification)
		return m, tea.Batch(m.bridge.wait(), expireToast(id))

	case confirmRequestMsg:
		if m.confirm != nil {
			// One modal at a time; a second request is declined.
			msg.reply <- false
			return m, m.bridge.wait()
		}
		req := msg
		m.confirm = &req
		m.confirmChoice = 1
		return m, m.bridge.wait()

	case toastExpiredMsg:
		for idx, t := range m.toasts {
			if t.id == msg.id {
				m.toasts = append(m.toasts[:idx:idx], m.toasts[idx+1:]...)
				break
			}
		}
		return m, nil

	case mutationDoneMsg:
		if m.svc != nil {
			m.setSnapshot(m.svc.Snapshot())
		}
		m.status = mutationStatus(msg)
		return m, nil

	case analysisLoadedMsg:
		if msg.err != nil {
			m.analysisErr = msg.err
			m.status = "skill gap load failed"
			return m, nil
		}
		m.analysisErr = nil
		if msg.analysis == nil {
			m.analysis = nil
			m.status = "no skill-gap analysis yet"
			return m, nil
		}
		if m.analysis == nil || m.analysis.ID != msg.analysis.ID || msg.analysis.ID == "" {
			m.analysisView = app.NewViewState(app.ViewModeTimeline)
			m.analysisCursor = 0
			m.adopter = nil
			if m.newAdopter != nil {
				m.adopter = m.newAdopter()
			}
		}
		m.analysis = msg.analysis
		m.status = "skill gap loaded"
		return m, nil

	case adoptDoneMsg:
		if msg.err != nil {
			if errors.Is(msg.err, app.ErrConcurrentMutation) {
				m.status = "already adding this plan"
				return m, nil
			}
			if errors.Is(msg.err, app.ErrEmptyPlan) {
				m.status = "nothing to add: no missing skills"
				return m, nil
			}
			m.status = "could not add plan"
			return m, nil
		}
		if m.svc != nil {
			m.setSnapshot(m.svc.Snapshot())
		}
		m.status = "plan added to roadmap"
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
			return m, nil
		}
		m.status = "copied " + msg.url
		return m, nil

	case tea.KeyPressMsg:
		if m.confirm != nil {
			return m.handleConfirmKey(msg)
		}
		if m.screen == screenAnalysis {
			return m.handleAnalysisKey(msg)
		}
		return m.handleRoadmapKey(msg)

	default:
		return m, nil
	}
}

// handleRoadmapKey handles keys on the roadmap page.
func (m Model) handleRoadmapKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadCmd()
	}
	if m.err != nil {
		return m, nil
	}

	items := m.roadmapItems()
	switch {
	case key.Matches(msg, m.keys.moveUp):
		m.cursor = clamp(m.cursor-1, 0, len(items)-1)
	case key.Matches(msg, m.keys.moveDown):
		m.cursor = clamp(m.cursor+1, 0, len(items)-1)
	case key.Matches(msg, m.keys.expand):
		item, ok := itemAt(items, m.cursor)
		if !ok {
			return m, nil
		}
		if item.milestone < 0 {
			m.view.ToggleExpanded(item.phase)
		} else {
			m.view.ToggleMilestonePanel(item.phase, item.milestone)
		}
	case key.Matches(msg, m.keys.togglePhase):
		item, ok := itemAt(items, m.cursor)
		if !ok {
			m.status = "no roadmap yet"
			return m, nil
		}
		m.status = fmt.Sprintf("saving phase %d...", item.phase+1)
		return m, m.toggleCmd(item.phase)
	case key.Matches(msg, m.keys.switchMode):
		mode := m.view.ToggleMode()
		m.status = string(mode) + " view"
	case key.Matches(msg, m.keys.analysisView):
		if m.analyses == nil {
			m.status = "skill-gap view unavailable"
			return m, nil
		}
		m.screen = screenAnalysis
		m.status = "loading skill gap..."
		return m, m.loadAnalysisCmd()
	case key.Matches(msg, m.keys.adapt):
		if !m.snap.HasRoadmap() {
			m.status = "no roadmap to adapt"
			return m, nil
		}
		m.status = "adapting roadmap..."
		return m, m.adaptCmd()
	case key.Matches(msg, m.keys.reset):
		if !m.snap.HasRoadmap() {
			m.status = "no roadmap to reset"
			return m, nil
		}
		return m, m.resetCmd()
	case key.Matches(msg, m.keys.generate):
		if m.snap.Profile == nil {
			m.status = "no profile yet: run `skillroute profile set` first"
			return m, nil
		}
		m.status = "generating roadmap..."
		return m, m.generateCmd(m.snap.Profile)
	case key.Matches(msg, m.keys.copyLink):
		url, ok := m.selectedResourceURL(items)
		if !ok {
			m.status = "select a milestone with a resource link"
			return m, nil
		}
		return m, m.copyCmd(url)
	}
	return m, nil
}

// handleAnalysisKey handles keys on the skill-gap page.
func (m Model) handleAnalysisKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	items := m.analysisItems()
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.analysisView):
		m.screen = screenRoadmap
		m.status = "roadmap"
	case key.Matches(msg, m.keys.reload):
		m.status = "loading skill gap..."
		return m, m.loadAnalysisCmd()
	case key.Matches(msg, m.keys.moveUp):
		m.analysisCursor = clamp(m.analysisCursor-1, 0, len(items)-1)
	case key.Matches(msg, m.keys.moveDown):
		m.analysisCursor = clamp(m.analysisCursor+1, 0, len(items)-1)
	case key.Matches(msg, m.keys.expand):
		item, ok := itemAt(items, m.analysisCursor)
		if !ok {
			return m, nil
		}
		if item.milestone < 0 {
			m.analysisView.ToggleExpanded(item.phase)
		} else {
			m.analysisView.ToggleMilestonePanel(item.phase, item.milestone)
		}
	case key.Matches(msg, m.keys.adopt):
		switch {
		case m.analysis == nil:
			m.status = "no analysis to add"
		case m.adopter == nil:
			m.status = "adding plans is unavailable"
		case m.adopter.State() == app.AdoptAdopted:
			m.status = "plan already added"
		default:
			m.status = "adding plan to roadmap..."
			return m, m.adoptCmd(*m.analysis)
		}
	}
	return m, nil
}

// handleConfirmKey answers the open confirm modal.
func (m Model) handleConfirmKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "n":
		return m.answerConfirm(false), nil
	case "y":
		return m.answerConfirm(true), nil
	case "h", "left", "l", "right", "tab":
		m.confirmChoice = 1 - m.confirmChoice
		return m, nil
	case "enter":
		return m.answerConfirm(m.confirmChoice == 0), nil
	default:
		return m, nil
	}
}

func (m Model) answerConfirm(ok bool) Model {
	req := m.confirm
	m.confirm = nil
	m.confirmChoice = 1
	if req != nil {
		select {
		case req.reply <- ok:
		default:
		}
	}
	if ok {
		m.status = "applying..."
	} else {
		m.status = "cancelled"
	}
	return m
}

// setSnapshot installs snap. A new roadmap instance starts from a fresh view
// state; otherwise view keys past the phase count are pruned.
func (m *Model) setSnapshot(snap app.Snapshot) {
	prev := m.snap
	m.snap = snap
	switch {
	case snap.Roadmap == nil:
	case prev.Roadmap == nil || snap.Instance != prev.Instance:
		m.view = app.NewViewState(m.view.Mode())
		m.cursor = 0
	default:
		m.view.Retain(snap.Roadmap.PhaseCount())
	}
	m.cursor = clamp(m.cursor, 0, len(m.roadmapItems())-1)
}

func (m *Model) pushToast(n app.Notification) int {
	m.nextToastID++
	m.toasts = append(m.toasts, toast{id: m.nextToastID, level: n.Level, text: n.Message})
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
	return m.nextToastID
}

// roadmapItems flattens phases and the milestones of expanded phases.
func (m Model) roadmapItems() []cursorItem {
	if m.snap.Roadmap == nil {
		return nil
	}
	return flattenItems(*m.snap.Roadmap, m.view)
}

func (m Model) analysisItems() []cursorItem {
	if m.analysis == nil {
		return nil
	}
	roadmap, err := app.NormalizeAnalysis(*m.analysis)
	if err != nil {
		return nil
	}
	return flattenItems(roadmap, m.analysisView)
}

func flattenItems(roadmap domain.Roadmap, view *app.ViewState) []cursorItem {
	items := make([]cursorItem, 0, roadmap.PhaseCount())
	for idx, phase := range roadmap.Phases {
		items = append(items, cursorItem{phase: idx, milestone: -1})
		if !view.IsExpanded(idx) {
			continue
		}
		for j := range phase.Milestones {
			items = append(items, cursorItem{phase: idx, milestone: j})
		}
	}
	return items
}

func itemAt(items []cursorItem, idx int) (cursorItem, bool) {
	if idx < 0 || idx >= len(items) {
		return cursorItem{}, false
	}
	return items[idx], true
}

// selectedResourceURL returns the first linked resource of the selected milestone.
func (m Model) selectedResourceURL(items []cursorItem) (string, bool) {
	item, ok := itemAt(items, m.cursor)
	if !ok || item.milestone < 0 || m.snap.Roadmap == nil {
		return "", false
	}
	phase, err := m.snap.Roadmap.Phase(item.phase)
	if err != nil {
		return "", false
	}
	milestone, err := phase.Milestone(item.milestone)
	if err != nil {
		return "", false
	}
	for _, res := range milestone.Resources {
		if res.URL != "" {
			return res.URL, true
		}
	}
	return "", false
}

func (m Model) loadCmd() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		if svc == nil {
			return loadedMsg{err: errors.New("roadmap service unavailable")}
		}
		snap, err := svc.Load(context.Background())
		return loadedMsg{snap: snap, err: err}
	}
}

func (m Model) toggleCmd(index int) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		mutation, err := svc.TogglePhase(context.Background(), index)
		return mutationDoneMsg{kind: app.MutationToggle, mutation: mutation, err: err}
	}
}

func (m Model) adaptCmd() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		mutation, err := svc.AdaptRoadmap(context.Background())
		return mutationDoneMsg{kind: app.MutationAdapt, mutation: mutation, err: err}
	}
}

func (m Model) resetCmd() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		mutation, err := svc.ResetRoadmap(context.Background())
		return mutationDoneMsg{kind: app.MutationReset, mutation: mutation, err: err}
	}
}

func (m Model) generateCmd(profile *domain.Profile) tea.Cmd {
	svc := m.svc
	p := *profile
	return func() tea.Msg {
		mutation, err := svc.GenerateRoadmap(context.Background(), &p)
		return mutationDoneMsg{kind: app.MutationGenerate, mutation: mutation, err: err}
	}
}

func (m Model) loadAnalysisCmd() tea.Cmd {
	src := m.analyses
	return func() tea.Msg {
		analysis, err := src(context.Background())
		return analysisLoadedMsg{analysis: analysis, err: err}
	}
}

func (m Model) adoptCmd(analysis domain.GapAnalysis) tea.Cmd {
	adopter := m.adopter
	return func() tea.Msg {
		return adoptDoneMsg{err: adopter.Adopt(context.Background(), analysis, "")}
	}
}

func (m Model) copyCmd(url string) tea.Cmd {
	write := m.copyText
	return func() tea.Msg {
		return copiedMsg{url: url, err: write(url)}
	}
}

func expireToast(id int) tea.Cmd {
	return tea.Tick(toastTTL, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

// mutationStatus summarizes one finished mutation for the status line.
func mutationStatus(msg mutationDoneMsg) string {
	err := msg.err
	switch {
	case err == nil:
		switch msg.kind {
		case app.MutationToggle:
			return fmt.Sprintf("phase %d marked %s", msg.mutation.Index+1, msg.mutation.To)
		case app.MutationAdapt:
			return "roadmap adapted"
		case app.MutationReset:
			return "roadmap reset"
		default:
			return "roadmap generated"
		}
	case errors.Is(err, app.ErrConcurrentMutation):
		return "still saving, try again in a moment"
	case errors.Is(err, app.ErrResetCanceled):
		return "reset cancelled"
	case errors.Is(err, app.ErrNoRoadmap):
		return "no roadmap yet"
	case errors.Is(err, app.ErrProfileRequired):
		return "no profile yet: run `skillroute profile set` first"
	case errors.Is(err, app.ErrClosed):
		return ""
	case errors.Is(err, app.ErrRemoteFailure):
		if msg.kind == app.MutationToggle {
			return "phase update failed, change reverted"
		}
		return string(msg.kind) + " failed"
	default:
		return err.Error()
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
