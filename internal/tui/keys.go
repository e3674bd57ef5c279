package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the global bindings. Screens add their own in their help line.
type keyMap struct {
	Quit     key.Binding
	Logout   key.Binding
	Inbox    key.Binding
	Help     key.Binding
	Back     key.Binding
	Navigate key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Logout: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "log out"),
		),
		Inbox: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "notifications"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Navigate: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "go to"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Navigate, k.Inbox, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Navigate, k.Back},
		{k.Inbox, k.Logout},
		{k.Help, k.Quit},
	}
}

// screenKeys is a screen's own bindings, shown under the global ones.
type screenKeys []key.Binding

func (s screenKeys) ShortHelp() []key.Binding  { return s }
func (s screenKeys) FullHelp() [][]key.Binding { return [][]key.Binding{s} }

func binding(keys, desc string) key.Binding {
	return key.NewBinding(key.WithKeys(keys), key.WithHelp(keys, desc))
}
