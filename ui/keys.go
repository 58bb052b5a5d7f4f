package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	MarkRead   key.Binding
	Clear      key.Binding
	RefreshVPN key.Binding
	Quit       key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.MarkRead, k.Clear, k.RefreshVPN, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultKeyMap = keyMap{
	MarkRead: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "mark all read"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear"),
	),
	RefreshVPN: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "refresh vpn"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
