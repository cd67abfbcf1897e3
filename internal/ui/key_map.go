package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings shared by every view of the copy flow.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	confirm key.Binding
	cancel  key.Binding
	again   key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	bind := func(help, desc string, keys ...string) key.Binding {
		return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
	}

	return keyMap{
		up:      bind("↑/k", "up", "up", "k"),
		down:    bind("↓/j", "down", "down", "j"),
		enter:   bind("enter", "choose playlist", "enter"),
		back:    bind("esc", "back", "esc"),
		confirm: bind("y", "copy", "y"),
		cancel:  bind("n", "cancel", "n"),
		again:   bind("r", "copy another", "r"),
		quit:    bind("q", "quit", "q", "ctrl+c"),
	}
}

func (k keyMap) ShortHelp() []key.Binding { return []key.Binding{k.quit} }

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.up, k.down, k.enter, k.back}, {k.confirm, k.cancel, k.again, k.quit}}
}
