package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/cobra"

	"github.com/nfrund/relay/internal/lifecycle"
	relayws "github.com/nfrund/relay/internal/websocket"
)

var watchRooms []string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Connect as a client and print every frame",
	Long: `Open a WebSocket connection to the relay server, optionally join rooms,
and print every frame received until interrupted.

Examples:
  relayctl watch
  relayctl watch --join dashboard`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return watch(ctx, cmd, wsURL(serverURL), watchRooms)
	},
}

// wsURL maps an http(s) base URL to the server's WebSocket endpoint.
func wsURL(base string) string {
	base = strings.TrimSuffix(base, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws"
}

func watch(ctx context.Context, cmd *cobra.Command, url string, rooms []string) error {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", url, err)
	}
	defer conn.CloseNow()

	for _, room := range rooms {
		join := map[string]any{
			"event": lifecycle.SignalJoinRoom,
			"args":  map[string]string{"room": room},
		}
		if err := wsjson.Write(ctx, conn, join); err != nil {
			return fmt.Errorf("join %s: %w", room, err)
		}
	}

	out := cmd.OutOrStdout()
	for {
		var frame relayws.Frame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) != -1 {
				conn.Close(websocket.StatusNormalClosure, "")
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}
		fmt.Fprintf(out, "%s %s\n", frame.Event, frame.Payload)
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringSliceVar(&watchRooms, "join", nil, "Room to join after connecting (repeatable)")
}
