package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-ice/internal/tui/colors"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	StatusConnectedStyle = lipgloss.NewStyle().
				Foreground(colors.Green).
				Bold(true)

	StatusDisconnectedStyle = lipgloss.NewStyle().
				Foreground(colors.Red).
				Bold(true)

	StatusConnectingStyle = lipgloss.NewStyle().
				Foreground(colors.Yellow).
				Bold(true)

	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(0, 1)

	// Log entries
	TimestampStyle = lipgloss.NewStyle().Foreground(colors.Subtext0)
	CommandStyle   = lipgloss.NewStyle().Foreground(colors.Command).Bold(true)
	ResponseStyle  = lipgloss.NewStyle().Foreground(colors.Response).Bold(true)
	FaultStyle     = lipgloss.NewStyle().Foreground(colors.Fault).Bold(true)
	SlotStyle      = lipgloss.NewStyle().Foreground(colors.Slot)
	MutedStyle     = lipgloss.NewStyle().Foreground(colors.Muted)
)

type StatusType int

const (
	StatusConnected StatusType = iota
	StatusDisconnected
	StatusConnecting
	StatusError
)

func GetStatusStyle(status StatusType) lipgloss.Style {
	switch status {
	case StatusConnected:
		return StatusConnectedStyle
	case StatusConnecting:
		return StatusConnectingStyle
	default:
		return StatusDisconnectedStyle
	}
}

// StatusIndicator returns the one-character connection marker for status
func StatusIndicator(status StatusType) string {
	switch status {
	case StatusConnected:
		return GetStatusStyle(status).Render("●")
	case StatusError:
		return GetStatusStyle(status).Render("✗")
	default:
		return GetStatusStyle(status).Render("○")
	}
}
