// Package broadcast fans typed update envelopes out to every connected
// client or to the members of one room.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nfrund/relay/internal/domain"
)

// Transport is the group-send side of the bidirectional messaging layer.
// Implementations accept the send and return; delivery happens later.
type Transport interface {
	SendToAll(ctx context.Context, event string, payload []byte) error
	SendToRoom(ctx context.Context, room, event string, payload []byte) error
}

// Audience reports how many clients are connected.
type Audience interface {
	Count() int
}

// Rooms resolves room membership at emit time.
type Rooms interface {
	MembersOf(room string) []domain.ClientID
}

// Observer receives one observation per broadcast attempt that reached the
// transport.
type Observer interface {
	UpdateBroadcast(ctx context.Context, category domain.Category, action string, audience int)
	BroadcastFailed(ctx context.Context, category domain.Category, action string)
}

// Validation selects how unrecognized actions are treated.
type Validation string

const (
	// Strict rejects actions outside the category vocabulary.
	Strict Validation = "strict"
	// Permissive logs and forwards them.
	Permissive Validation = "permissive"
)

// Request describes one update to broadcast. An empty Room means every
// connected client.
type Request struct {
	Category domain.Category
	Action   string
	Data     any
	Room     string
}

// Broadcaster holds no state of its own; it reads the registry and the room
// index at emit time.
type Broadcaster struct {
	transport  Transport
	audience   Audience
	rooms      Rooms
	validation Validation
	observer   Observer
	logger     *slog.Logger
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithValidation sets the action validation mode. Strict is the default.
func WithValidation(v Validation) Option {
	return func(b *Broadcaster) {
		b.validation = v
	}
}

// WithObserver sets the broadcast observer.
func WithObserver(o Observer) Option {
	return func(b *Broadcaster) {
		b.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Broadcaster) {
		b.logger = l
	}
}

// New creates a Broadcaster.
func New(transport Transport, audience Audience, rooms Rooms, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		transport:  transport,
		audience:   audience,
		rooms:      rooms,
		validation: Strict,
		logger:     slog.Default().With("component", "broadcaster"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Broadcast builds the envelope for req and hands it to the transport.
// With no audience it returns nil without touching the transport. Transport
// and serialization failures come back as *domain.BroadcastError and are
// never retried.
func (b *Broadcaster) Broadcast(ctx context.Context, req Request) error {
	if err := b.checkAction(req.Category, req.Action); err != nil {
		return err
	}

	audience := b.audienceSize(req.Room)
	if audience == 0 {
		b.logger.Debug("no audience, skipping update",
			"category", req.Category, "action", req.Action, "room", req.Room)
		return nil
	}

	update := domain.NewUpdate(req.Category, req.Action, req.Data)
	payload, err := json.Marshal(update)
	if err != nil {
		return b.fail(ctx, req, err)
	}

	if req.Room != "" {
		err = b.transport.SendToRoom(ctx, req.Room, update.EventName(), payload)
	} else {
		err = b.transport.SendToAll(ctx, update.EventName(), payload)
	}
	if err != nil {
		return b.fail(ctx, req, err)
	}

	if b.observer != nil {
		b.observer.UpdateBroadcast(ctx, req.Category, req.Action, audience)
	}
	b.logger.Info("emitted update",
		"event", update.EventName(),
		"category", req.Category,
		"action", req.Action,
		"room", req.Room,
		"audience", audience)
	return nil
}

func (b *Broadcaster) checkAction(category domain.Category, action string) error {
	err := category.ValidateAction(action)
	if err == nil {
		return nil
	}
	if !category.Valid() || b.validation == Strict {
		return err
	}
	b.logger.Warn("forwarding unrecognized action", "category", category, "action", action)
	return nil
}

func (b *Broadcaster) audienceSize(room string) int {
	if room != "" {
		return len(b.rooms.MembersOf(room))
	}
	return b.audience.Count()
}

func (b *Broadcaster) fail(ctx context.Context, req Request, cause error) error {
	if b.observer != nil {
		b.observer.BroadcastFailed(ctx, req.Category, req.Action)
	}
	err := &domain.BroadcastError{
		Category: req.Category,
		Action:   req.Action,
		Room:     req.Room,
		Err:      cause,
	}
	b.logger.Error("broadcast failed", "error", err)
	return err
}

// ParseValidation converts a configuration value into a Validation.
func ParseValidation(s string) (Validation, error) {
	switch v := Validation(s); v {
	case Strict, Permissive:
		return v, nil
	default:
		return "", fmt.Errorf("unknown action validation mode %q", s)
	}
}
