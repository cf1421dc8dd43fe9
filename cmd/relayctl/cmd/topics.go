package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nfrund/relay/cmd/relayctl/internal/output"
	// Registers the relay bus topics with the default manager.
	_ "github.com/nfrund/relay/internal/dispatch"
	"github.com/nfrund/relay/internal/topicmgr"
)

var (
	topicsFormat string
	topicsScope  string
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Explore the message bus topics",
	Long: `The topics command lists the topics the relay server publishes and
subscribes to on its internal message bus.

Examples:
  relayctl topics list
  relayctl topics list --scope framework --format json
  relayctl topics get updates.requested`,
}

var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered topics",
	RunE: func(cmd *cobra.Command, args []string) error {
		list := topicmgr.List()
		if topicsScope != "" {
			scope, err := parseScope(topicsScope)
			if err != nil {
				return err
			}
			list = topicmgr.Default().ListByScope(scope)
		}

		w := cmd.OutOrStdout()
		switch topicsFormat {
		case "json":
			return output.TopicsJSON(w, list)
		case "table":
			output.TopicsTable(w, list)
			return nil
		default:
			return fmt.Errorf("unsupported output format %q, use table or json", topicsFormat)
		}
	},
}

var topicsGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show one topic in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, ok := topicmgr.Get(args[0])
		if !ok {
			return fmt.Errorf("topic not found: %s", args[0])
		}
		return output.TopicDetails(cmd.OutOrStdout(), topic, topicsFormat)
	},
}

// parseScope converts string scope to topicmgr.TopicScope
func parseScope(s string) (topicmgr.TopicScope, error) {
	switch strings.ToLower(s) {
	case "framework":
		return topicmgr.ScopeFramework, nil
	case "module":
		return topicmgr.ScopeModule, nil
	default:
		return "", fmt.Errorf("invalid scope %q, valid scopes: framework, module", s)
	}
}

func init() {
	rootCmd.AddCommand(topicsCmd)
	topicsCmd.AddCommand(topicsListCmd, topicsGetCmd)

	topicsCmd.PersistentFlags().StringVarP(&topicsFormat, "format", "f", "table", "Output format (table, json)")
	topicsListCmd.Flags().StringVarP(&topicsScope, "scope", "s", "", "Filter topics by scope (framework, module)")
}
