package tui

import "charm.land/bubbles/v2/key"

// keyMap holds every binding the roadmap screens react to.
type keyMap struct {
	quit         key.Binding
	reload       key.Binding
	toggleHelp   key.Binding
	moveUp       key.Binding
	moveDown     key.Binding
	togglePhase  key.Binding
	expand       key.Binding
	switchMode   key.Binding
	analysisView key.Binding
	adapt        key.Binding
	reset        key.Binding
	generate     key.Binding
	copyLink     key.Binding
	adopt        key.Binding
	back         key.Binding
}

// newKeyMap returns the default bindings.
func newKeyMap() keyMap {
	return keyMap{
		quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveUp:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		moveDown:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		togglePhase:  key.NewBinding(key.WithKeys("space", " "), key.WithHelp("space", "mark phase done/pending")),
		expand:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "expand / details")),
		switchMode:   key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "timeline/classic")),
		analysisView: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "skill gap")),
		adapt:        key.NewBinding(key.WithKeys("A", "shift+a"), key.WithHelp("A", "adapt roadmap")),
		reset:        key.NewBinding(key.WithKeys("R", "shift+r"), key.WithHelp("R", "reset roadmap")),
		generate:     key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "generate roadmap")),
		copyLink:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy resource link")),
		adopt:        key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "add plan to roadmap")),
		back:         key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}

// ShortHelp returns the one-line help bindings.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.togglePhase, k.expand, k.switchMode, k.analysisView, k.toggleHelp, k.quit}
}

// FullHelp returns grouped bindings for the expanded help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveUp, k.moveDown, k.expand, k.togglePhase, k.copyLink},
		{k.switchMode, k.analysisView, k.adopt, k.back},
		{k.adapt, k.reset, k.generate, k.reload, k.toggleHelp, k.quit},
	}
}
