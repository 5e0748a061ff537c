package keys

import "github.com/charmbracelet/bubbles/key"

// ModeKeys switch the console between browsing the log and typing a command
type ModeKeys struct {
	Quit    key.Binding
	Help    key.Binding
	Compose key.Binding
	Browse  key.Binding
}

func NewModeKeys() ModeKeys {
	return ModeKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "close port and quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "all keys"),
		),
		Compose: key.NewBinding(
			key.WithKeys("i", "a"),
			key.WithHelp("i", "type command or /slot"),
		),
		Browse: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back to log"),
		),
	}
}
