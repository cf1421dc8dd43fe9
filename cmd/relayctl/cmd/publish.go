package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nfrund/relay/internal/domain"
	"github.com/nfrund/relay/internal/handlers"
)

var (
	publishData string
	publishRoom string
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

var publishCmd = &cobra.Command{
	Use:   "publish <category> <action>",
	Short: "Queue an update for broadcast",
	Long: `Send an update to the relay server's /api/updates endpoint. The server
validates it and broadcasts it to every client, or only to --room.

Examples:
  relayctl publish blog created --data '{"id":"p1","title":"Hello"}'
  relayctl publish dashboard stats --room dashboard --data '{"posts":12}'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := domain.ParseCategory(args[0]); err != nil {
			return err
		}

		req := handlers.UpdateRequest{Category: args[0], Action: args[1], Room: publishRoom}
		if publishData != "" {
			req.Data = json.RawMessage(publishData)
			if err := domain.ValidateData(req.Data); err != nil {
				return err
			}
		}
		body, err := json.Marshal(req)
		if err != nil {
			return err
		}

		url := strings.TrimSuffix(serverURL, "/") + "/api/updates"
		resp, err := httpClient.Post(url, "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("publish update: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusAccepted {
			var apiErr handlers.ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Message == "" {
				return fmt.Errorf("server returned %s", resp.Status)
			}
			return fmt.Errorf("server returned %s: %s", resp.Status, apiErr.Message)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "accepted %s/%s\n", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().StringVar(&publishData, "data", "", "Update data as a JSON object")
	publishCmd.Flags().StringVar(&publishRoom, "room", "", "Only deliver to members of this room")
}
