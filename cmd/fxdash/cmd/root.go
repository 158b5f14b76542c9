package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fxdash",
	Short: "A simulated forex trading dashboard",
	Long: `fxdash runs a simulated forex trading dashboard.

It provides:
  - A synthetic price feed and live revaluation of open positions
  - On-demand or scheduled signal analysis with optional auto-execution
  - An HTTP API, price chart and websocket snapshot stream
  - CSV or SQLite trade journals

Nothing here connects to a broker. All prices are random.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
