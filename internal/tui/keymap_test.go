package tui

import (
	"testing"

	"charm.land/bubbles/v2/key"
)

// TestKeyMapBindingsAreUnique verifies no two bindings claim the same key.
func TestKeyMapBindingsAreUnique(t *testing.T) {
	k := newKeyMap()
	seen := map[string]string{}
	for _, group := range k.FullHelp() {
		for _, binding := range group {
			for _, raw := range binding.Keys() {
				if owner, ok := seen[raw]; ok {
					t.Fatalf("key %q bound twice (%s, %s)", raw, owner, binding.Help().Desc)
				}
				seen[raw] = binding.Help().Desc
			}
		}
	}
}

// TestKeyMapMatchesPhaseKeys verifies the main roadmap keys match press events.
func TestKeyMapMatchesPhaseKeys(t *testing.T) {
	k := newKeyMap()
	cases := []struct {
		name    string
		press   string
		binding key.Binding
	}{
		{name: "toggle", press: "space", binding: k.togglePhase},
		{name: "adapt", press: "A", binding: k.adapt},
		{name: "reset", press: "R", binding: k.reset},
		{name: "mode", press: "v", binding: k.switchMode},
	}
	for _, tc := range cases {
		found := false
		for _, raw := range tc.binding.Keys() {
			if raw == tc.press {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s: expected %q in %#v", tc.name, tc.press, tc.binding.Keys())
		}
	}
	if len(k.ShortHelp()) == 0 {
		t.Fatal("expected short help bindings")
	}
}
