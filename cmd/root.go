/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/allbin/go-ice"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "icectl",
	Short: "Command ICE modules over a shared serial control channel",
	Long: `icectl talks to a chain of ICE modules that share one serial control
channel. Each module sits in a numbered slot and is addressed with
"#slave N" before it receives commands; icectl only switches slots when
the target changes.

Settings can come from flags, from $HOME/.icectl.yaml or from ICECTL_*
environment variables:

  port: /dev/ttyACM0
  baud: 115200
  timeout: 500ms
  log-file: /var/log/icectl.log`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.icectl.yaml)")
	flags.StringP("port", "p", "", "serial port of the ICE controller (e.g. /dev/ttyACM0)")
	flags.IntP("baud", "b", 115200, "baud rate")
	flags.Duration("timeout", ice.DefaultTimeout, "response timeout per command")
	flags.String("log-file", "", "write JSON logs to this file (rotated)")
	flags.BoolP("verbose", "v", false, "enable debug logging")
	flags.Bool("trace", false, "log every command and response line")

	for _, name := range []string{"port", "baud", "timeout", "log-file", "verbose", "trace"} {
		cobra.CheckErr(viper.BindPFlag(name, flags.Lookup(name)))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".icectl")
	}

	viper.SetEnvPrefix("ICECTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && viper.GetBool("verbose") {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
