package dispatch

import (
	"context"
	"log/slog"

	"github.com/nfrund/relay/internal/domain"
	"github.com/nfrund/relay/internal/pubsub"
)

// Notifier publishes onto the bus.
type Notifier struct {
	pub    pubsub.Publisher
	logger *slog.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(pub pubsub.Publisher, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{pub: pub, logger: logger.With("component", "notifier")}
}

// RequestUpdate queues an update for broadcast.
func (n *Notifier) RequestUpdate(ctx context.Context, req UpdateRequested) error {
	return pubsub.Publish(ctx, n.pub, TopicUpdateRequested, req)
}

// ClientConnected publishes a clients.connected event. Failures are logged.
func (n *Notifier) ClientConnected(ctx context.Context, id domain.ClientID, total int) {
	n.publishClient(ctx, TopicClientConnected, id, total)
}

// ClientDisconnected publishes a clients.disconnected event. Failures are logged.
func (n *Notifier) ClientDisconnected(ctx context.Context, id domain.ClientID, total int) {
	n.publishClient(ctx, TopicClientDisconnected, id, total)
}

func (n *Notifier) publishClient(ctx context.Context, event pubsub.Event[ClientEvent], id domain.ClientID, total int) {
	err := pubsub.Publish(ctx, n.pub, event, ClientEvent{ClientID: id.String(), TotalClients: total})
	if err != nil {
		n.logger.Warn("Failed to publish client event", "topic", event.Name(), "client_id", id, "error", err)
	}
}
