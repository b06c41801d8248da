// Package cli implements the flavorctl command tree. The solve and
// backends commands run entirely from local data; import dials the same
// backing services the daemon uses.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "flavorctl",
	Short: "Solve flavor requirements and manage the catalog",
	Long: `flavorctl runs flavor searches against a local game-data export and
loads that data into the catalog a solver daemon serves from.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
