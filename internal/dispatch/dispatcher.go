package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/relay/internal/broadcast"
	"github.com/nfrund/relay/internal/domain"
	"github.com/nfrund/relay/internal/pubsub"
)

// Broadcaster emits one update.
type Broadcaster interface {
	Broadcast(ctx context.Context, req broadcast.Request) error
}

// Dispatcher consumes update requests from the bus. It also records client
// presence changes; other consumers may subscribe to the same topics.
type Dispatcher struct {
	sub         pubsub.Subscriber
	broadcaster Broadcaster
	logger      *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(sub pubsub.Subscriber, b Broadcaster, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sub: sub, broadcaster: b, logger: logger.With("component", "dispatcher")}
}

// Start subscribes to update requests and presence events. It returns once
// the subscriptions are active; handling stops when ctx is canceled.
func (d *Dispatcher) Start(ctx context.Context) error {
	if err := pubsub.Subscribe(ctx, d.sub, TopicUpdateRequested, d.handle); err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicUpdateRequested.Name(), err)
	}
	for _, event := range []pubsub.Event[ClientEvent]{TopicClientConnected, TopicClientDisconnected} {
		if err := pubsub.Subscribe(ctx, d.sub, event, d.presence(event.Name())); err != nil {
			return fmt.Errorf("subscribe %s: %w", event.Name(), err)
		}
	}
	return nil
}

func (d *Dispatcher) presence(topic string) func(context.Context, ClientEvent) error {
	return func(ctx context.Context, e ClientEvent) error {
		d.logger.DebugContext(ctx, "Client presence changed",
			"event", topic, "client_id", e.ClientID, "total_clients", e.TotalClients)
		return nil
	}
}

// handle never returns an error: a failed broadcast is logged and dropped.
func (d *Dispatcher) handle(ctx context.Context, u UpdateRequested) error {
	req := broadcast.Request{
		Category: domain.Category(u.Category),
		Action:   u.Action,
		Data:     u.Data,
		Room:     u.Room,
	}
	if err := d.broadcaster.Broadcast(ctx, req); err != nil {
		d.logger.Warn("Dropped update", "category", u.Category, "action", u.Action, "room", u.Room, "error", err)
	}
	return nil
}
