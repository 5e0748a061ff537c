package models

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/allbin/go-ice"
	"github.com/allbin/go-ice/internal/tui/components"
)

// InputMode represents the current input mode (vim-like)
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	switch m {
	case InputModeInsert:
		return "INSERT"
	default:
		return "NORMAL"
	}
}

type ConnectionStatusMsg struct {
	Connected bool
	Error     error
}

// TickMsg drives the periodic response drain
type TickMsg time.Time

var errPortLost = errors.New("port lost")

// Console is the state of an interactive session with one controller.
// It is not safe for concurrent use; the TUI calls it from its update loop only.
type Console struct {
	ctrl     *ice.Controller
	portPath string
	timeout  time.Duration

	connected bool
	err       error
	ready     bool
	inputMode InputMode

	// entries produced by callbacks since the last Take
	out []components.Entry

	ctx    context.Context
	cancel context.CancelFunc
}

func NewConsole(ctrl *ice.Controller, portPath string, timeout time.Duration) *Console {
	ctx, cancel := context.WithCancel(context.Background())
	return &Console{
		ctrl:      ctrl,
		portPath:  portPath,
		timeout:   timeout,
		inputMode: InputModeNormal,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (c *Console) PortPath() string {
	return c.portPath
}

func (c *Console) IsConnected() bool {
	return c.connected
}

func (c *Console) SetConnected(connected bool, err error) {
	c.connected = connected
	c.err = err
}

func (c *Console) GetError() error {
	return c.err
}

func (c *Console) IsReady() bool {
	return c.ready
}

func (c *Console) SetReady(ready bool) {
	c.ready = ready
}

func (c *Console) GetInputMode() InputMode {
	return c.inputMode
}

func (c *Console) SetInputMode(mode InputMode) {
	c.inputMode = mode
}

func (c *Console) IsInInsertMode() bool {
	return c.inputMode == InputModeInsert
}

// Open opens the console's port and selects slot when it is valid
func (c *Console) Open(slot ice.Slave) error {
	if err := c.ctrl.Open(c.portPath); err != nil {
		return err
	}
	if !slot.Valid() {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()
	return c.ctrl.SetSlot(ctx, slot)
}

// Execute runs one line typed by the user and returns the entries to show.
// Replies to queued commands arrive later through Poll.
func (c *Console) Execute(line string) []components.Entry {
	input, err := ParseLine(line)
	if err != nil {
		return []components.Entry{c.fault(err)}
	}

	switch input.Kind {
	case LineEmpty:
		return nil
	case LineHelp:
		return []components.Entry{c.info(helpText)}
	case LineSlot:
		return c.selectSlot(input.Slot)
	case LineSend:
		return c.send(input.Command)
	case LineOpen:
		return c.open(input.Port)
	case LineClose:
		return c.close()
	case LinePorts:
		return c.ports()
	default:
		return c.enqueue(input.Command)
	}
}

// Poll delivers completed queued commands and reports a lost port
func (c *Console) Poll() []components.Entry {
	c.ctrl.ProcessResponses()
	entries := c.Take()

	if c.connected && c.ctrl.State() == ice.StateDisconnected {
		c.connected = false
		c.err = errPortLost
		entries = append(entries, c.fault(fmt.Errorf("%s: %w", c.portPath, errPortLost)))
	}
	return entries
}

// Take returns the entries produced by callbacks and forgets them
func (c *Console) Take() []components.Entry {
	out := c.out
	c.out = nil
	return out
}

// ToggleTrace flips traffic logging and returns the new setting
func (c *Console) ToggleTrace() bool {
	enabled := !c.ctrl.Logging()
	c.ctrl.SetLogging(enabled)
	return enabled
}

// Info returns the status bar fields for the current state
func (c *Console) Info(baudRate int) components.ConnectionInfo {
	return components.ConnectionInfo{
		BaudRate: baudRate,
		Timeout:  c.timeout,
		Slot:     c.ctrl.Slot(),
		Pending:  c.ctrl.Pending(),
		Trace:    c.ctrl.Logging(),
	}
}

func (c *Console) Cleanup() {
	c.cancel()
	if c.connected {
		c.ctrl.SerialClose() //nolint:errcheck
		c.connected = false
	}
}

func (c *Console) record(r ice.Result) {
	c.out = append(c.out, components.EntryFromResult(r))
}

func (c *Console) enqueue(command string) []components.Entry {
	slot := c.ctrl.Slot()
	if err := c.ctrl.Enqueue(command, ice.CallbackFunc(c.record)); err != nil {
		return []components.Entry{c.fault(err)}
	}
	return []components.Entry{c.entry(components.EntryCommand, slot, command)}
}

func (c *Console) send(command string) []components.Entry {
	slot := c.ctrl.Slot()
	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()

	entries := []components.Entry{c.entry(components.EntryCommand, slot, command)}
	if _, err := c.ctrl.Send(ctx, command, slot, ice.CallbackFunc(c.record)); errors.Is(err, ice.ErrNotConnected) {
		return []components.Entry{c.fault(err)}
	}
	return append(entries, c.Take()...)
}

func (c *Console) selectSlot(slot ice.Slave) []components.Entry {
	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()

	if err := c.ctrl.SetSlot(ctx, slot); err != nil {
		return []components.Entry{c.fault(err)}
	}
	return []components.Entry{c.info(fmt.Sprintf("slot %s selected", slot))}
}

func (c *Console) open(port string) []components.Entry {
	if port == "" {
		port = c.portPath
	}
	if !c.ctrl.SerialOpen(port) {
		c.connected = false
		c.err = fmt.Errorf("open %s failed", port)
		return []components.Entry{c.fault(c.err)}
	}

	c.portPath = port
	c.connected = true
	c.err = nil
	return []components.Entry{c.info("opened " + port)}
}

func (c *Console) close() []components.Entry {
	dropped := c.ctrl.Pending()
	if err := c.ctrl.SerialClose(); err != nil {
		return []components.Entry{c.fault(err)}
	}
	c.connected = false
	c.err = nil
	return []components.Entry{c.info(fmt.Sprintf("closed %s, %d queued command(s) dropped", c.portPath, dropped))}
}

func (c *Console) ports() []components.Entry {
	ports, err := c.ctrl.SerialPorts()
	if err != nil {
		return []components.Entry{c.fault(err)}
	}
	if len(ports) == 0 {
		return []components.Entry{c.info("no serial ports found")}
	}
	return []components.Entry{c.info("ports: " + strings.Join(ports, ", "))}
}

func (c *Console) entry(kind components.EntryKind, slot ice.Slave, text string) components.Entry {
	return components.Entry{Timestamp: time.Now(), Kind: kind, Slot: slot, Text: text}
}

func (c *Console) info(text string) components.Entry {
	return c.entry(components.EntryInfo, ice.NoSlave, text)
}

func (c *Console) fault(err error) components.Entry {
	return c.entry(components.EntryError, c.ctrl.Slot(), err.Error())
}

const helpText = "/slot N select module N | /send CMD wait for the answer | /open [PORT] | /close | /ports | anything else is queued for the selected module"

// LineKind classifies a line typed into the console
type LineKind int

const (
	LineEmpty LineKind = iota
	LineCommand
	LineSend
	LineSlot
	LineOpen
	LineClose
	LinePorts
	LineHelp
)

// Line is a parsed console input line
type Line struct {
	Kind    LineKind
	Command string
	Slot    ice.Slave
	Port    string
}

// ParseLine splits console directives, which start with '/', from module commands
func ParseLine(s string) (Line, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Line{Kind: LineEmpty}, nil
	}
	if !strings.HasPrefix(s, "/") {
		return Line{Kind: LineCommand, Command: s}, nil
	}

	name, arg, _ := strings.Cut(s[1:], " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(name) {
	case "slot":
		n, err := strconv.Atoi(arg)
		if err != nil || !ice.Slave(n).Valid() {
			return Line{}, fmt.Errorf("%w: %q", ice.ErrInvalidSlave, arg)
		}
		return Line{Kind: LineSlot, Slot: ice.Slave(n)}, nil
	case "send":
		if arg == "" {
			return Line{}, errors.New("/send needs a command")
		}
		return Line{Kind: LineSend, Command: arg}, nil
	case "open":
		return Line{Kind: LineOpen, Port: arg}, nil
	case "close":
		return Line{Kind: LineClose}, nil
	case "ports":
		return Line{Kind: LinePorts}, nil
	case "help", "?":
		return Line{Kind: LineHelp}, nil
	default:
		return Line{}, fmt.Errorf("unknown directive /%s (try /help)", name)
	}
}
