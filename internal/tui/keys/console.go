package keys

import "github.com/charmbracelet/bubbles/key"

// ConsoleKeys are the bindings of the module console
type ConsoleKeys struct {
	ModeKeys
	Enter            key.Binding
	Up               key.Binding
	Down             key.Binding
	Clear            key.Binding
	ToggleTrace      key.Binding
	ToggleTimestamps key.Binding
	GotoTop          key.Binding
	GotoBottom       key.Binding
}

func NewConsoleKeys() ConsoleKeys {
	return ConsoleKeys{
		ModeKeys: NewModeKeys(),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "queue command"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear log"),
		),
		ToggleTrace: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle traffic log"),
		),
		ToggleTimestamps: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "toggle timestamps"),
		),
		GotoTop: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "goto top"),
		),
		GotoBottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "goto bottom"),
		),
	}
}

func (k ConsoleKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Compose, k.Enter, k.ToggleTrace, k.Quit}
}

func (k ConsoleKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Compose, k.Browse, k.Enter},
		{k.Clear, k.ToggleTrace, k.ToggleTimestamps},
		{k.GotoTop, k.GotoBottom, k.Up, k.Down},
		{k.Help, k.Quit},
	}
}
