// hantool decodes meter payloads and checks meter connections from the
// command line.
package main

import (
	"os"

	"github.com/NotCoffee418/amshan_reader/pkg/logging"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "hantool",
	Short: "AMS/HAN smart meter tool",
	Long: `hantool decodes HDLC frames, DLMS notifications and P1 readouts,
lists serial ports and validates meter connection configs.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.InitLogger("hantool", logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level")
	rootCmd.AddCommand(decodeCmd, portsCmd, captureCmd, validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
