// Package dispatch connects the message bus to the broadcaster. The API
// layer publishes update requests through a Notifier; the Dispatcher
// consumes them and emits the updates to clients.
package dispatch

import (
	"encoding/json"

	"github.com/nfrund/relay/internal/pubsub"
)

// UpdateRequested asks for one update to be broadcast.
type UpdateRequested struct {
	Category string          `json:"category"`
	Action   string          `json:"action"`
	Room     string          `json:"room,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// ClientEvent reports a client joining or leaving the connection set.
type ClientEvent struct {
	ClientID     string `json:"client_id"`
	TotalClients int    `json:"total_clients"`
}

var (
	// TopicUpdateRequested carries updates from the API layer to the broadcaster.
	TopicUpdateRequested = pubsub.NewEvent[UpdateRequested](
		"updates.requested",
		"A domain update waiting to be broadcast to connected clients",
	)

	// TopicClientConnected is published after a client is registered.
	TopicClientConnected = pubsub.NewFrameworkEvent[ClientEvent](
		"clients.connected",
		"Published after a WebSocket client is registered and acknowledged",
	)

	// TopicClientDisconnected is published after a client is unregistered.
	TopicClientDisconnected = pubsub.NewFrameworkEvent[ClientEvent](
		"clients.disconnected",
		"Published after a WebSocket client is unregistered and removed from its rooms",
	)
)
