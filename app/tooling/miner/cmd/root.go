// Package cmd contains the miner app.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "miner",
	Short: "Proof of work miner",
}

// Execute adds all child commands to the root command. Missing or invalid
// arguments print the usage and exit with status 1.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
