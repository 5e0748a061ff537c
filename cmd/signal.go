/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/allbin/go-ice/serial"
)

// signalCmd represents the signal command
var signalCmd = &cobra.Command{
	Use:   "signal [port]",
	Short: "Set or pulse the DTR/RTS lines of the controller port",
	Long: `Set the DTR (Data Terminal Ready) and RTS (Request To Send) output lines
of the controller port. Controllers with an auto-reset circuit restart when
DTR is pulsed low.

Examples:
  icectl signal /dev/ttyACM0 --dtr off
  icectl signal --dtr on --rts off
  icectl signal --dtr off --pulse 100ms    # drop DTR for 100ms, then raise it

Valid states: high, low, on, off, true, false, 1, 0`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		portPath, err := portArg(args)
		if err != nil {
			return err
		}

		dtrArg, _ := cmd.Flags().GetString("dtr")
		rtsArg, _ := cmd.Flags().GetString("rts")
		pulse, _ := cmd.Flags().GetDuration("pulse")
		if dtrArg == "" && rtsArg == "" {
			return fmt.Errorf("nothing to do: give --dtr and/or --rts")
		}

		opts := []serial.Option{serial.WithBaudRate(viper.GetInt("baud"))}
		var dtr, rts bool
		if dtrArg != "" {
			if dtr, err = parseSignalState(dtrArg); err != nil {
				return err
			}
			opts = append(opts, serial.WithInitialDTR(dtr))
		}
		if rtsArg != "" {
			if rts, err = parseSignalState(rtsArg); err != nil {
				return err
			}
			opts = append(opts, serial.WithInitialRTS(rts))
		}

		port, err := serial.Open(portPath, opts...)
		if err != nil {
			return fmt.Errorf("opening port: %w", err)
		}
		defer port.Close()

		if dtrArg != "" {
			fmt.Printf("DTR set to %s on %s\n", formatSignalState(dtr), portPath)
		}
		if rtsArg != "" {
			fmt.Printf("RTS set to %s on %s\n", formatSignalState(rts), portPath)
		}
		if pulse <= 0 {
			return nil
		}

		time.Sleep(pulse)
		if dtrArg != "" {
			if err := port.SetDTR(!dtr); err != nil {
				return fmt.Errorf("setting DTR: %w", err)
			}
			fmt.Printf("DTR restored to %s after %s\n", formatSignalState(!dtr), pulse)
		}
		if rtsArg != "" {
			if err := port.SetRTS(!rts); err != nil {
				return fmt.Errorf("setting RTS: %w", err)
			}
			fmt.Printf("RTS restored to %s after %s\n", formatSignalState(!rts), pulse)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(signalCmd)

	signalCmd.Flags().String("dtr", "", "DTR state")
	signalCmd.Flags().String("rts", "", "RTS state")
	signalCmd.Flags().Duration("pulse", 0, "restore the opposite state after this long")
}
