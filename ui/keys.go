package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Talk   key.Binding
	Cancel key.Binding
	Voice  key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Talk: key.NewBinding(
		key.WithKeys(" ", "space", "enter"),
		key.WithHelp("space", "talk / done"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Voice: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "voice"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) bindings() []key.Binding {
	return []key.Binding{k.Talk, k.Cancel, k.Voice, k.Quit}
}
