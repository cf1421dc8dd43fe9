package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/relay/cmd/relayctl/internal/output"
)

var eventsFormat string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List the wire events clients receive",
	Long: `List every event a connected client can receive, with the payload key
that carries the action and the recognized action vocabulary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		events := output.WireEvents()
		switch eventsFormat {
		case "json":
			return output.EventsJSON(cmd.OutOrStdout(), events)
		case "table":
			output.EventsTable(cmd.OutOrStdout(), events)
			return nil
		default:
			return fmt.Errorf("unsupported output format %q, use table or json", eventsFormat)
		}
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().StringVarP(&eventsFormat, "format", "f", "table", "Output format (table, json)")
}
