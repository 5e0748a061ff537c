package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-ice"
	"github.com/allbin/go-ice/internal/tui/colors"
	"github.com/allbin/go-ice/internal/tui/styles"
)

// ConnectionInfo is what the status bar shows about the open controller
type ConnectionInfo struct {
	BaudRate int
	Timeout  time.Duration
	Slot     ice.Slave
	Pending  int
	Trace    bool
}

type StatusBar struct {
	portPath       string
	status         styles.StatusType
	err            error
	width          int
	connectionInfo ConnectionInfo
}

func NewStatusBar(portPath string) *StatusBar {
	return &StatusBar{
		portPath:       portPath,
		status:         styles.StatusDisconnected,
		connectionInfo: ConnectionInfo{Slot: ice.NoSlave},
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetPort(portPath string) {
	sb.portPath = portPath
}

func (sb *StatusBar) SetConnectionInfo(info ConnectionInfo) {
	sb.connectionInfo = info
}

func (sb *StatusBar) ConnectionInfo() ConnectionInfo {
	return sb.connectionInfo
}

func (sb *StatusBar) SetConnecting() {
	sb.status = styles.StatusConnecting
	sb.err = nil
}

func (sb *StatusBar) SetConnected() {
	sb.status = styles.StatusConnected
	sb.err = nil
}

func (sb *StatusBar) SetDisconnected(err error) {
	sb.status = styles.StatusDisconnected
	sb.err = err
	if err != nil {
		sb.status = styles.StatusError
	}
}

func (sb *StatusBar) Err() error {
	return sb.err
}

// View renders the status bar: mode, port and connection marker on the
// left, slot, queue depth and timing on the right.
func (sb *StatusBar) View(inputMode string, timestamp string) string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	modeBackground := colors.Blue
	if inputMode == "INSERT" {
		modeBackground = colors.Green
	}
	mode := lipgloss.NewStyle().
		Foreground(colors.Base).
		Background(modeBackground).
		Bold(true).
		Padding(0, 1).
		Render(inputMode)

	port := lipgloss.NewStyle().
		Foreground(colors.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(sb.portPath)

	divider := lipgloss.NewStyle().
		Foreground(colors.Surface2).
		Padding(0, 1).
		Render("│")

	info := sb.connectionInfo
	trace := "off"
	if info.Trace {
		trace = "on"
	}
	details := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1).
		Render(fmt.Sprintf("slot %s  queued %d  ⚡ %d baud  %s  trace %s",
			info.Slot, info.Pending, info.BaudRate, info.Timeout, trace))

	clock := lipgloss.NewStyle().
		Foreground(colors.Subtext1).
		Padding(0, 1).
		Render(timestamp)

	left := lipgloss.JoinHorizontal(lipgloss.Left, mode, port, styles.StatusIndicator(sb.status), divider)
	if sb.err != nil {
		left = lipgloss.JoinHorizontal(lipgloss.Left, left, styles.FaultStyle.Render(sb.err.Error()))
	}
	right := lipgloss.JoinHorizontal(lipgloss.Left, details, divider, clock)

	spacerWidth := width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	return lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(width).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, left, spacer, right))
}
