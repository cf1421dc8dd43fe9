package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "relayctl",
	Short: "Relay CLI tool",
	Long: `relayctl is a command-line interface for a running relay server.

Available commands:
  version   Print the CLI version
  topics    Explore the message bus topic catalogue
  events    List the wire events and their action vocabularies
  publish   Queue an update for broadcast
  watch     Connect as a client and print every frame

Use "relayctl [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8000", "Base URL of the relay server")
}
