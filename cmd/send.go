/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/allbin/go-ice"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [command...]",
	Short: "Send commands to one ICE module and wait for each answer",
	Long: `Send one or more commands to the module in the given slot, waiting for
each answer before sending the next. The slot is selected once.

Commands can be given as arguments or piped on stdin, one per line.
The exit status is non-zero if any module answered with an error.

Example usage:
  icectl send --port /dev/ttyACM0 --slot 3 "temp?"
  icectl send -s 3 "laser on" "laser?"
  printf 'temp?\nlaser?\n' | icectl send -s 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, _ := cmd.Flags().GetInt("slot")

		commands := args
		if len(commands) == 0 {
			var err error
			if commands, err = readCommands(os.Stdin); err != nil {
				return err
			}
		}
		if len(commands) == 0 {
			return errors.New("no commands given")
		}

		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		ctrl, err := openController(logger)
		if err != nil {
			return err
		}
		defer ctrl.SerialClose() //nolint:errcheck

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		failed := sendAll(ctx, ctrl, ice.Slave(slot), commands)
		if failed > 0 {
			return fmt.Errorf("%d of %d command(s) failed", failed, len(commands))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().IntP("slot", "s", 0, "slot of the module to address")
}

// sendAll sends each command in turn and prints the outcome. It returns the number of failures.
func sendAll(ctx context.Context, ctrl *ice.Controller, slot ice.Slave, commands []string) int {
	failed := 0
	for _, command := range commands {
		if ctx.Err() != nil {
			failed++
			continue
		}

		resp, err := ctrl.Send(ctx, command, slot, nil)
		if err != nil {
			failed++
			fmt.Printf("%s [%s] %s %s\n", errorStyle.Render("✗"), slot, command, errorStyle.Render(describeError(err)))
			continue
		}
		fmt.Printf("%s [%s] %s %s\n", successStyle.Render("✓"), slot, command,
			printable(strings.TrimRight(resp.Payload, "\r\n")))
	}
	return failed
}

// describeError returns the part of err worth showing next to the command
func describeError(err error) string {
	var de *ice.DispatchError
	if errors.As(err, &de) {
		switch de.Kind {
		case ice.KindProtocol:
			return printable(strings.TrimSpace(de.Payload))
		case ice.KindTransport:
			return de.Err.Error()
		}
	}
	return err.Error()
}

// readCommands reads non-empty lines from r unless r is a terminal
func readCommands(r io.Reader) ([]string, error) {
	if f, ok := r.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
			return nil, nil
		}
	}

	var commands []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			commands = append(commands, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return commands, nil
}
