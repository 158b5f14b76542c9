package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the fxdash CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fxdash version %s\n", version)
		fmt.Fprintln(cmd.OutOrStdout(), "A simulated forex trading dashboard")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
