/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/allbin/go-ice"
	"github.com/allbin/go-ice/transport"
)

var (
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("40")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

var errNoPort = errors.New("no port given (use --port, ICECTL_PORT or the config file)")

// newLine builds a transport from the bound settings.
func newLine(logger *zap.Logger) (*transport.Line, error) {
	return transport.New(
		transport.WithBaudRate(viper.GetInt("baud")),
		transport.WithTimeout(viper.GetDuration("timeout")),
		transport.WithLogging(viper.GetBool("trace")),
		transport.WithLogger(logger),
	)
}

// openController opens the configured port and returns a connected controller.
func openController(logger *zap.Logger) (*ice.Controller, error) {
	port := viper.GetString("port")
	if port == "" {
		return nil, errNoPort
	}

	line, err := newLine(logger)
	if err != nil {
		return nil, err
	}
	ctrl, err := ice.New(line,
		ice.WithLogger(logger),
		ice.WithTimeout(viper.GetDuration("timeout")),
	)
	if err != nil {
		return nil, err
	}
	if err := ctrl.Open(port); err != nil {
		return nil, err
	}
	return ctrl, nil
}

func parseSignalState(state string) (bool, error) {
	switch strings.ToLower(state) {
	case "high", "on", "true", "1":
		return true, nil
	case "low", "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid state: %s (valid: high, low, on, off, true, false, 1, 0)", state)
	}
}

func formatSignalState(state bool) string {
	if state {
		return "HIGH"
	}
	return "LOW"
}

// printable replaces control characters for display
func printable(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return '·'
		}
		return r
	}, s)
}

// portArg returns the positional port argument, falling back to the configured port.
func portArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if port := viper.GetString("port"); port != "" {
		return port, nil
	}
	return "", errNoPort
}
