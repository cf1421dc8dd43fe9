// Package websocket is the real-time transport. It upgrades HTTP requests,
// keeps one Client per connection and delivers event frames to single
// clients, rooms or everyone.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/relay/internal/domain"
)

var (
	// ErrHubClosed is returned once the hub has been shut down.
	ErrHubClosed = errors.New("websocket hub closed")
	// ErrClientNotFound is returned when sending to an id with no live connection.
	ErrClientNotFound = errors.New("websocket client not found")
	// ErrBufferFull is returned when a client's send buffer is full.
	ErrBufferFull = errors.New("websocket client send buffer full")
)

// Defaults for hub options.
const (
	DefaultSendBuffer   = 256
	DefaultWriteTimeout = 10 * time.Second
	DefaultPingInterval = 25 * time.Second
	DefaultReadLimit    = 32 << 10
)

// RoomMembers resolves a room name to its current members.
type RoomMembers interface {
	MembersOf(room string) []domain.ClientID
}

// SignalHandler receives the lifecycle of every connection.
type SignalHandler interface {
	OnConnect(ctx context.Context, id domain.ClientID) error
	OnDisconnect(ctx context.Context, id domain.ClientID)
	OnSignal(ctx context.Context, id domain.ClientID, name string, args json.RawMessage) error
}

// Hub owns every live connection.
type Hub struct {
	mu      sync.RWMutex
	clients map[domain.ClientID]*Client
	closed  bool

	rooms RoomMembers

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	sendBuffer     int
	writeTimeout   time.Duration
	pingInterval   time.Duration
	readLimit      int64
	originPatterns []string
	logger         *slog.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithSendBuffer sets the per-client outbound queue length.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithWriteTimeout bounds each frame write and ping.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// WithPingInterval sets how often idle connections are pinged.
func WithPingInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

// WithReadLimit caps the size of a single inbound message.
func WithReadLimit(n int64) Option {
	return func(h *Hub) {
		if n > 0 {
			h.readLimit = n
		}
	}
}

// WithAllowedOrigins sets the cross-origin hosts allowed to connect.
// Entries may be full origins ("http://localhost:4200") or host patterns.
func WithAllowedOrigins(origins ...string) Option {
	return func(h *Hub) {
		h.originPatterns = OriginPatterns(origins)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		h.logger = l
	}
}

// OriginPatterns converts origins into host patterns for the upgrader.
func OriginPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if strings.Contains(o, "://") {
			if u, err := url.Parse(o); err == nil && u.Host != "" {
				o = u.Host
			}
		}
		patterns = append(patterns, o)
	}
	return patterns
}

// NewHub creates a Hub that resolves room sends through rooms.
func NewHub(rooms RoomMembers, opts ...Option) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:      make(map[domain.ClientID]*Client),
		rooms:        rooms,
		ctx:          ctx,
		cancel:       cancel,
		sendBuffer:   DefaultSendBuffer,
		writeTimeout: DefaultWriteTimeout,
		pingInterval: DefaultPingInterval,
		readLimit:    DefaultReadLimit,
		logger:       slog.Default().With("component", "websocket"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handler returns an echo.HandlerFunc that upgrades the request and serves
// the connection until it closes. Every connection gets a fresh id.
func (h *Hub) Handler(signals SignalHandler) echo.HandlerFunc {
	return func(c echo.Context) error {
		h.mu.RLock()
		closed := h.closed
		h.mu.RUnlock()
		if closed {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "server is shutting down")
		}

		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			OriginPatterns: h.originPatterns,
		})
		if err != nil {
			// Accept has already written the response.
			h.logger.Warn("Failed to upgrade connection to WebSocket", "error", err)
			return nil
		}
		conn.SetReadLimit(h.readLimit)

		client := newClient(domain.ClientID(uuid.NewString()), conn, h.sendBuffer)
		if err := h.add(client); err != nil {
			conn.Close(websocket.StatusGoingAway, "server is shutting down")
			return nil
		}
		h.serve(client, signals)
		return nil
	}
}

func (h *Hub) serve(client *Client, signals SignalHandler) {
	defer h.wg.Done()

	ctx, cancel := context.WithCancel(h.ctx)
	defer cancel()

	log := h.logger.With("client_id", client.ID)
	log.Debug("WebSocket connection opened")

	go h.writePump(ctx, client)

	if err := signals.OnConnect(ctx, client.ID); err != nil {
		log.Warn("Connection rejected", "error", err)
		signals.OnDisconnect(ctx, client.ID)
		h.remove(client.ID)
		client.Conn.Close(websocket.StatusPolicyViolation, "connection rejected")
		return
	}

	h.readPump(ctx, client, signals)

	signals.OnDisconnect(ctx, client.ID)
	h.remove(client.ID)
	client.Conn.Close(websocket.StatusNormalClosure, "")
	log.Debug("WebSocket connection closed")
}

func (h *Hub) readPump(ctx context.Context, client *Client, signals SignalHandler) {
	for {
		_, data, err := client.Conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			switch {
			case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
				h.logger.Debug("WebSocket closed by client", "client_id", client.ID)
			case errors.Is(err, io.EOF) || ctx.Err() != nil:
			default:
				h.logger.Warn("WebSocket read error", "client_id", client.ID, "error", err)
			}
			return
		}

		in, err := DecodeInbound(data)
		if err != nil {
			h.replyError(ctx, client.ID, "", err)
			continue
		}
		if err := signals.OnSignal(ctx, client.ID, in.Event, in.Args); err != nil {
			h.replyError(ctx, client.ID, in.Event, err)
		}
	}
}

func (h *Hub) writePump(ctx context.Context, client *Client) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	send := client.outbound()
	for {
		select {
		case msg, ok := <-send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
			err := client.Conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				if ctx.Err() == nil {
					h.logger.Warn("WebSocket write error", "client_id", client.ID, "error", err)
				}
				client.Conn.CloseNow()
				return
			}

		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
			err := client.Conn.Ping(pctx)
			cancel()
			if err != nil {
				if ctx.Err() == nil {
					h.logger.Info("WebSocket ping failed", "client_id", client.ID, "error", err)
				}
				client.Conn.CloseNow()
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) replyError(ctx context.Context, id domain.ClientID, signal string, cause error) {
	h.logger.Debug("Rejected client signal", "client_id", id, "signal", signal, "error", cause)
	payload, err := json.Marshal(domain.SignalError{Signal: signal, Message: cause.Error()})
	if err != nil {
		return
	}
	if err := h.SendToClient(ctx, id, domain.EventError, payload); err != nil {
		h.logger.Debug("Failed to send signal error", "client_id", id, "error", err)
	}
}

func (h *Hub) add(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	h.clients[c.ID] = c
	h.wg.Add(1)
	return nil
}

func (h *Hub) remove(id domain.ClientID) {
	h.mu.Lock()
	c, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()
	if ok {
		c.Close()
	}
}

func (h *Hub) client(id domain.ClientID) (*Client, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	c, ok := h.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}
	return c, nil
}

// SendToClient queues an event for one client.
func (h *Hub) SendToClient(ctx context.Context, id domain.ClientID, event string, payload []byte) error {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		return err
	}
	c, err := h.client(id)
	if err != nil {
		return err
	}
	if !c.SendMessage(frame) {
		return ErrBufferFull
	}
	return nil
}

// SendToAll queues an event for every connected client. Clients whose
// buffers are full miss the frame.
func (h *Hub) SendToAll(ctx context.Context, event string, payload []byte) error {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrHubClosed
	}
	for _, c := range h.clients {
		c.SendMessage(frame)
	}
	return nil
}

// SendToRoom queues an event for the current members of room.
func (h *Hub) SendToRoom(ctx context.Context, room string, event string, payload []byte) error {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		return err
	}
	members := h.rooms.MembersOf(room)

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrHubClosed
	}
	for _, id := range members {
		if c, ok := h.clients[id]; ok {
			c.SendMessage(frame)
		}
	}
	return nil
}

// ConnectionCount returns the number of open connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops accepting connections, closes every open one and waits for
// their handlers to finish or ctx to expire.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	open := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		open = append(open, c)
	}
	h.mu.Unlock()

	h.logger.Info("Closing WebSocket hub", "connections", len(open))
	for _, c := range open {
		go c.Conn.Close(websocket.StatusGoingAway, "server is shutting down")
	}
	h.cancel()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
