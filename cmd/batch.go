/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"

	"github.com/allbin/go-ice"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch [command...]",
	Short: "Queue commands to one ICE module and collect the answers",
	Long: `Queue commands for the module in the given slot without waiting for each
answer, then collect the answers as they complete. Answers are printed in
completion order, which matches submission order.

Example usage:
  icectl batch -s 2 "laser on" "temp?" "laser?"
  icectl batch -s 2 --table --wait 5s "temp?" "current?"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, _ := cmd.Flags().GetInt("slot")
		wait, _ := cmd.Flags().GetDuration("wait")
		poll, _ := cmd.Flags().GetDuration("poll")
		tableFormat, _ := cmd.Flags().GetBool("table")

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

		b := &batch{quiet: tableFormat}
		if err := b.enqueue(ctx, ctrl, ice.Slave(slot), commands); err != nil {
			return err
		}
		b.collect(ctx, ctrl, wait, poll)

		if tableFormat {
			fmt.Println(b.table().View())
		}
		if missing := len(commands) - len(b.results); missing > 0 {
			return fmt.Errorf("%d command(s) did not complete within %s", missing, wait)
		}
		if b.failed > 0 {
			return fmt.Errorf("%d of %d command(s) failed", b.failed, len(commands))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntP("slot", "s", 0, "slot of the module to address")
	batchCmd.Flags().Duration("wait", 10*time.Second, "how long to wait for all answers")
	batchCmd.Flags().Duration("poll", 20*time.Millisecond, "interval between response drains")
	batchCmd.Flags().BoolP("table", "t", false, "print a summary table instead of one line per answer")
}

type batchResult struct {
	ice.Result
	elapsed time.Duration
}

type batch struct {
	quiet   bool
	start   time.Time
	results []batchResult
	failed  int
}

func (b *batch) enqueue(ctx context.Context, ctrl *ice.Controller, slot ice.Slave, commands []string) error {
	b.start = time.Now()
	for _, command := range commands {
		if err := ctrl.EnqueueTo(ctx, command, slot, ice.CallbackFunc(b.record)); err != nil {
			return fmt.Errorf("queueing %q: %w", command, err)
		}
	}
	return nil
}

func (b *batch) record(r ice.Result) {
	res := batchResult{Result: r, elapsed: time.Since(b.start)}
	b.results = append(b.results, res)
	if !r.OK() {
		b.failed++
	}
	if b.quiet {
		return
	}

	if r.OK() {
		fmt.Printf("%s [%s] %s %s\n", successStyle.Render("✓"), r.Slave, r.Command, printable(r.Payload))
	} else {
		fmt.Printf("%s [%s] %s %s\n", errorStyle.Render("✗"), r.Slave, r.Command, errorStyle.Render(describeError(r.Err)))
	}
}

// collect drains responses until every queued command has reported, the
// wait expires or ctx is cancelled.
func (b *batch) collect(ctx context.Context, ctrl *ice.Controller, wait, poll time.Duration) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	deadline := time.After(wait)

	for ctrl.Pending() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			ctrl.ProcessResponses()
			return
		case <-ticker.C:
			ctrl.ProcessResponses()
		}
	}
}

const (
	columnIndex    = "index"
	columnCommand  = "command"
	columnStatus   = "status"
	columnResponse = "response"
	columnElapsed  = "elapsed"
)

func (b *batch) table() table.Model {
	columns := []table.Column{
		table.NewColumn(columnIndex, "#", 4),
		table.NewColumn(columnCommand, "Command", 20),
		table.NewColumn(columnStatus, "Status", 8),
		table.NewFlexColumn(columnResponse, "Response", 1),
		table.NewColumn(columnElapsed, "Elapsed", 10),
	}

	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	rows := make([]table.Row, 0, len(b.results))
	for i, r := range b.results {
		status := table.NewStyledCell("ok", okStyle)
		response := printable(r.Payload)
		if !r.OK() {
			status = table.NewStyledCell("error", failStyle)
			response = describeError(r.Err)
		}
		rows = append(rows, table.NewRow(table.RowData{
			columnIndex:    strconv.Itoa(i + 1),
			columnCommand:  r.Command,
			columnStatus:   status,
			columnResponse: response,
			columnElapsed:  r.elapsed.Round(time.Millisecond).String(),
		}))
	}

	return table.New(columns).
		WithRows(rows).
		WithTargetWidth(90).
		BorderRounded().
		HeaderStyle(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")))
}
