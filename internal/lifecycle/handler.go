// Package lifecycle binds transport connect, disconnect and room signals
// to the connection registry and the room index.
package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nfrund/relay/internal/domain"
)

// State is the lifecycle state of one client.
type State int

const (
	// StateDisconnected is the zero state. It is terminal: ids are forgotten
	// once they disconnect, so unseen and departed clients both report it.
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Signal names clients may send.
const (
	SignalJoinDashboard  = "join_dashboard"
	SignalLeaveDashboard = "leave_dashboard"
	SignalJoinRoom       = "join_room"
	SignalLeaveRoom      = "leave_room"
)

// DefaultConnectMessage is the acknowledgement text sent on connect.
const DefaultConnectMessage = "Connected to blog platform"

// Registry is the part of the connection registry the handler drives.
type Registry interface {
	Register(ctx context.Context, id domain.ClientID) bool
	Unregister(ctx context.Context, id domain.ClientID) bool
	Count() int
}

// Rooms is the part of the room index the handler drives.
type Rooms interface {
	Join(room string, id domain.ClientID) error
	Leave(room string, id domain.ClientID) bool
}

// Sender delivers a frame to a single client.
type Sender interface {
	SendToClient(ctx context.Context, id domain.ClientID, event string, payload []byte) error
}

// Events is notified about clients coming and going.
type Events interface {
	ClientConnected(ctx context.Context, id domain.ClientID, total int)
	ClientDisconnected(ctx context.Context, id domain.ClientID, total int)
}

// Handler implements the per-client state machine
// Connecting -> Connected -> Disconnected.
type Handler struct {
	mu     sync.Mutex
	states map[domain.ClientID]State

	registry Registry
	rooms    Rooms
	sender   Sender
	events   Events

	allowedRooms   map[string]struct{}
	connectMessage string
	logger         *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithRooms sets the rooms clients may join. Defaults to the dashboard room.
func WithRooms(names ...string) Option {
	return func(h *Handler) {
		h.allowedRooms = make(map[string]struct{}, len(names))
		for _, n := range names {
			if n != "" {
				h.allowedRooms[n] = struct{}{}
			}
		}
	}
}

// WithConnectMessage overrides the acknowledgement text.
func WithConnectMessage(msg string) Option {
	return func(h *Handler) {
		h.connectMessage = msg
	}
}

// WithEvents sets the lifecycle event sink.
func WithEvents(e Events) Option {
	return func(h *Handler) {
		h.events = e
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}

// New creates a Handler.
func New(reg Registry, rooms Rooms, sender Sender, opts ...Option) *Handler {
	h := &Handler{
		states:         make(map[domain.ClientID]State),
		registry:       reg,
		rooms:          rooms,
		sender:         sender,
		allowedRooms:   map[string]struct{}{domain.RoomDashboard: {}},
		connectMessage: DefaultConnectMessage,
		logger:         slog.Default().With("component", "lifecycle"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// State returns the current state of id.
func (h *Handler) State(id domain.ClientID) State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.states[id]
}

// OnConnect registers id and acknowledges the connection to that client
// only. A failed acknowledgement is logged; the client stays registered.
func (h *Handler) OnConnect(ctx context.Context, id domain.ClientID) error {
	h.mu.Lock()
	if st, seen := h.states[id]; seen {
		h.mu.Unlock()
		if st == StateConnected {
			return nil
		}
		return fmt.Errorf("connect %s: client is %s", id, st)
	}
	h.states[id] = StateConnecting
	h.mu.Unlock()

	h.registry.Register(ctx, id)

	ack, err := json.Marshal(domain.ConnectionConfirmed{Message: h.connectMessage})
	if err == nil {
		err = h.sender.SendToClient(ctx, id, domain.EventConnectionConfirmed, ack)
	}
	if err != nil {
		h.logger.Warn("failed to acknowledge connection", "client_id", id, "error", err)
	}

	h.mu.Lock()
	st := h.states[id]
	if st == StateConnecting {
		h.states[id] = StateConnected
	}
	h.mu.Unlock()

	if st != StateConnecting {
		// disconnected while connecting; undo the registration
		h.registry.Unregister(ctx, id)
		return fmt.Errorf("connect %s: %w", id, domain.ErrNotConnected)
	}

	if h.events != nil {
		h.events.ClientConnected(ctx, id, h.registry.Count())
	}
	return nil
}

// OnDisconnect unregisters id, which also removes it from every room.
// Calling it more than once is harmless. Later signals for id are rejected.
func (h *Handler) OnDisconnect(ctx context.Context, id domain.ClientID) {
	h.mu.Lock()
	_, seen := h.states[id]
	delete(h.states, id)
	h.mu.Unlock()

	removed := h.registry.Unregister(ctx, id)
	if !seen && !removed {
		return
	}
	if h.events != nil {
		h.events.ClientDisconnected(ctx, id, h.registry.Count())
	}
}

// roomArgs is the argument shape of join_room and leave_room.
type roomArgs struct {
	Room string `json:"room"`
}

// OnSignal handles a custom client signal. Only connected clients may send
// signals.
func (h *Handler) OnSignal(ctx context.Context, id domain.ClientID, name string, args json.RawMessage) error {
	if h.State(id) != StateConnected {
		return fmt.Errorf("signal %q from %s: %w", name, id, domain.ErrNotConnected)
	}

	switch name {
	case SignalJoinDashboard:
		return h.join(domain.RoomDashboard, id)
	case SignalLeaveDashboard:
		return h.leave(domain.RoomDashboard, id)
	case SignalJoinRoom, SignalLeaveRoom:
		var a roomArgs
		if len(args) > 0 {
			if err := json.Unmarshal(args, &a); err != nil {
				return fmt.Errorf("signal %q: decode args: %w", name, err)
			}
		}
		if a.Room == "" {
			return fmt.Errorf("signal %q: %w", name, domain.ErrInvalidRoom)
		}
		if name == SignalJoinRoom {
			return h.join(a.Room, id)
		}
		return h.leave(a.Room, id)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownSignal, name)
	}
}

func (h *Handler) join(room string, id domain.ClientID) error {
	if _, ok := h.allowedRooms[room]; !ok {
		return fmt.Errorf("join: %w: %q", domain.ErrUnknownRoom, room)
	}
	return h.rooms.Join(room, id)
}

func (h *Handler) leave(room string, id domain.ClientID) error {
	if _, ok := h.allowedRooms[room]; !ok {
		return fmt.Errorf("leave: %w: %q", domain.ErrUnknownRoom, room)
	}
	h.rooms.Leave(room, id)
	return nil
}
