/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/allbin/go-ice"
	"github.com/allbin/go-ice/internal/tui/components"
	"github.com/allbin/go-ice/internal/tui/keys"
	"github.com/allbin/go-ice/internal/tui/models"
	"github.com/allbin/go-ice/internal/tui/styles"
)

// drainInterval is how often the console delivers completed commands
const drainInterval = 50 * time.Millisecond

// consoleCmd represents the console command
var consoleCmd = &cobra.Command{
	Use:   "console [port]",
	Short: "Interactive console for the modules on a control channel",
	Long: `Open the control channel and talk to the ICE modules interactively.

Typed commands are queued for the selected module and their answers are
shown as they arrive. Directives start with '/':

  /slot N       select the module in slot N
  /send CMD     send CMD and wait for the answer
  /open [PORT]  reopen the port, or open another one
  /close        close the port, dropping queued commands
  /ports        list serial ports

Press 'i' to type, 'esc' to leave input, 't' to toggle the traffic log
and '?' for all keys.

Example usage:
  icectl console /dev/ttyACM0
  icectl console --port /dev/ttyACM0 --slot 2`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		portPath, err := portArg(args)
		if err != nil {
			return err
		}
		slot, _ := cmd.Flags().GetInt("slot")
		return runConsoleTUI(portPath, ice.Slave(slot))
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)

	consoleCmd.Flags().IntP("slot", "s", int(ice.NoSlave), "slot to select once the port is open")
}

// consoleModel represents the Bubble Tea model for the console command
type consoleModel struct {
	*models.Console
	logs      *components.LogBuffer
	terminal  *components.Terminal
	statusBar *components.StatusBar
	input     *components.Input
	help      help.Model
	keys      keys.ConsoleKeys

	slot     ice.Slave
	baudRate int
	// opened is set once the initial open attempt has finished; the
	// controller is only touched from Update after that.
	opened bool
}

func runConsoleTUI(portPath string, slot ice.Slave) error {
	logs := components.NewLogBuffer()
	logger := consoleLogger(logs)
	defer logger.Sync() //nolint:errcheck

	line, err := newLine(logger)
	if err != nil {
		return err
	}
	timeout := viper.GetDuration("timeout")
	ctrl, err := ice.New(line, ice.WithLogger(logger), ice.WithTimeout(timeout))
	if err != nil {
		return err
	}

	m := consoleModel{
		Console:   models.NewConsole(ctrl, portPath, timeout),
		logs:      logs,
		terminal:  components.NewTerminal(0, 0),
		statusBar: components.NewStatusBar(portPath),
		input:     components.NewInput("Type a command and press Enter to queue it..."),
		help:      help.New(),
		keys:      keys.NewConsoleKeys(),
		slot:      slot,
		baudRate:  viper.GetInt("baud"),
	}
	m.statusBar.SetConnecting()
	m.statusBar.SetConnectionInfo(components.ConnectionInfo{
		BaudRate: m.baudRate,
		Timeout:  timeout,
		Slot:     ice.NoSlave,
		Trace:    viper.GetBool("trace"),
	})

	p := tea.NewProgram(&m, tea.WithAltScreen())
	_, err = p.Run()

	m.Cleanup()
	return err
}

// consoleLogger sends log lines into the console, and to the log file when one is configured
func consoleLogger(buf *components.LogBuffer) *zap.Logger {
	level := logLevel()

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	cores := []zapcore.Core{zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), buf, level)}
	if path := viper.GetString("log-file"); path != "" {
		cores = append(cores, fileCore(path, level))
	}
	return zap.New(zapcore.NewTee(cores...))
}

func tick() tea.Cmd {
	return tea.Tick(drainInterval, func(t time.Time) tea.Msg {
		return models.TickMsg(t)
	})
}

func (m *consoleModel) Init() tea.Cmd {
	return func() tea.Msg {
		err := m.Open(m.slot)
		return models.ConnectionStatusMsg{Connected: err == nil, Error: err}
	}
}

func (m *consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// input box (with border) and status bar
		verticalMargin := 3 + 1
		if m.help.ShowAll {
			verticalMargin += lipgloss.Height(m.help.View(m.keys))
		}
		m.terminal.SetSize(msg.Width, msg.Height-verticalMargin)
		m.input.SetWidth(msg.Width)
		m.statusBar.SetWidth(msg.Width)
		m.help.Width = msg.Width
		m.SetReady(true)

	case models.ConnectionStatusMsg:
		m.opened = true
		m.SetConnected(msg.Connected, msg.Error)
		if msg.Error != nil {
			m.statusBar.SetDisconnected(msg.Error)
		} else {
			m.statusBar.SetConnected()
			m.SetInputMode(models.InputModeInsert)
			m.input.Focus()
		}
		cmds = append(cmds, tick())

	case models.TickMsg:
		wasConnected := m.IsConnected()
		m.terminal.Add(m.Poll()...)
		if wasConnected && !m.IsConnected() {
			m.statusBar.SetDisconnected(m.GetError())
		}
		cmds = append(cmds, tick())

	case tea.KeyMsg:
		if m.IsInInsertMode() {
			switch {
			case key.Matches(msg, m.keys.Browse):
				m.SetInputMode(models.InputModeNormal)
				m.input.Blur()
				return m, tea.Batch(cmds...)
			case key.Matches(msg, m.keys.Enter):
				if m.opened {
					m.execute(m.input.Value())
				}
				return m, tea.Batch(cmds...)
			case msg.Type == tea.KeyUp:
				m.input.NavigateHistoryUp()
				return m, tea.Batch(cmds...)
			case msg.Type == tea.KeyDown:
				m.input.NavigateHistoryDown()
				return m, tea.Batch(cmds...)
			}
		} else {
			switch {
			case key.Matches(msg, m.keys.Quit):
				m.Cleanup()
				return m, tea.Quit
			case key.Matches(msg, m.keys.Compose):
				m.SetInputMode(models.InputModeInsert)
				m.input.Focus()
				return m, tea.Batch(cmds...)
			case key.Matches(msg, m.keys.Help):
				m.help.ShowAll = !m.help.ShowAll
			case key.Matches(msg, m.keys.Clear):
				m.terminal.Clear()
			case key.Matches(msg, m.keys.ToggleTimestamps):
				m.terminal.ToggleTimestamps()
			case key.Matches(msg, m.keys.ToggleTrace):
				if m.opened {
					m.ToggleTrace()
				}
			case key.Matches(msg, m.keys.Up):
				m.terminal.ScrollUp()
			case key.Matches(msg, m.keys.Down):
				m.terminal.ScrollDown()
			case key.Matches(msg, m.keys.GotoTop):
				m.terminal.GotoTop()
			case key.Matches(msg, m.keys.GotoBottom):
				m.terminal.GotoBottom()
			}
		}
	}

	if m.opened {
		m.statusBar.SetConnectionInfo(m.Info(m.baudRate))
	}
	m.terminal.Add(m.logs.Take()...)

	var cmd tea.Cmd
	if m.IsInInsertMode() {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	if _, ok := msg.(tea.WindowSizeMsg); ok {
		_, cmd = m.terminal.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// execute runs the typed line and keeps the status bar in step with the connection
func (m *consoleModel) execute(value string) {
	wasConnected := m.IsConnected()
	m.terminal.Add(m.Execute(value)...)
	m.input.AddToHistory(value)
	m.input.SetValue("")

	switch {
	case m.IsConnected() && !wasConnected:
		m.statusBar.SetPort(m.PortPath())
		m.statusBar.SetConnected()
	case !m.IsConnected() && (wasConnected || m.GetError() != nil):
		m.statusBar.SetDisconnected(m.GetError())
	}
}

func (m *consoleModel) View() string {
	content := "Initializing..."
	if m.IsReady() {
		content = m.terminal.View()
	}

	input := m.input.ViewWithSlot(m.statusBar.ConnectionInfo().Slot, m.IsInInsertMode())
	statusBar := m.statusBar.View(m.GetInputMode().String(), time.Now().Format("15:04:05"))

	sections := []string{styles.ContentBorderStyle.Render(content), input, statusBar}
	if m.help.ShowAll {
		sections = append(sections, m.help.View(m.keys))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
