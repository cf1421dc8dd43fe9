package dispatch_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/relay/internal/broadcast"
	"github.com/nfrund/relay/internal/dispatch"
	"github.com/nfrund/relay/internal/domain"
	"github.com/nfrund/relay/internal/pubsub"
	"github.com/nfrund/relay/internal/topicmgr"
)

type mockBroadcaster struct {
	mu   sync.Mutex
	reqs []broadcast.Request
	err  error
}

func (m *mockBroadcaster) Broadcast(ctx context.Context, req broadcast.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqs = append(m.reqs, req)
	return m.err
}

func (m *mockBroadcaster) requests() []broadcast.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]broadcast.Request(nil), m.reqs...)
}

// mockPublisher records published messages.
type mockPublisher struct {
	mu       sync.Mutex
	messages []pubsub.Message
	err      error
}

func (m *mockPublisher) Publish(ctx context.Context, msg pubsub.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func TestTopicsAreCatalogued(t *testing.T) {
	for _, name := range []string{"updates.requested", "clients.connected", "clients.disconnected"} {
		topic, ok := topicmgr.Get(name)
		require.True(t, ok, name)
		assert.NotEmpty(t, topic.Description())
	}
	topic, _ := topicmgr.Get("updates.requested")
	assert.Equal(t, "updates", topic.Module())
}

func TestDispatcher_BroadcastsRequestedUpdates(t *testing.T) {
	bus := pubsub.NewWatermillBridge()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := &mockBroadcaster{}
	require.NoError(t, dispatch.NewDispatcher(bus, b, nil).Start(ctx))

	n := dispatch.NewNotifier(bus, nil)
	require.NoError(t, n.RequestUpdate(ctx, dispatch.UpdateRequested{
		Category: "dashboard",
		Action:   "stats",
		Room:     "dashboard",
		Data:     json.RawMessage(`{"x":1}`),
	}))

	require.Eventually(t, func() bool { return len(b.requests()) == 1 }, time.Second, 10*time.Millisecond)
	req := b.requests()[0]
	assert.Equal(t, domain.CategoryDashboard, req.Category)
	assert.Equal(t, "stats", req.Action)
	assert.Equal(t, "dashboard", req.Room)
	assert.JSONEq(t, `{"x":1}`, string(req.Data.(json.RawMessage)))
}

func TestDispatcher_FailedBroadcastIsDropped(t *testing.T) {
	bus := pubsub.NewWatermillBridge()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := &mockBroadcaster{err: errors.New("transport down")}
	require.NoError(t, dispatch.NewDispatcher(bus, b, nil).Start(ctx))

	n := dispatch.NewNotifier(bus, nil)
	require.NoError(t, n.RequestUpdate(ctx, dispatch.UpdateRequested{Category: "blog", Action: "created"}))
	require.NoError(t, n.RequestUpdate(ctx, dispatch.UpdateRequested{Category: "blog", Action: "deleted"}))

	require.Eventually(t, func() bool { return len(b.requests()) == 2 }, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, b.requests(), 2, "failed updates must not be redelivered")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestDispatcher_LogsClientPresence(t *testing.T) {
	bus := pubsub.NewWatermillBridge()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	require.NoError(t, dispatch.NewDispatcher(bus, &mockBroadcaster{}, logger).Start(ctx))

	n := dispatch.NewNotifier(bus, nil)
	n.ClientConnected(ctx, "A", 1)
	n.ClientDisconnected(ctx, "A", 0)

	require.Eventually(t, func() bool {
		logs := out.String()
		return strings.Contains(logs, "event=clients.connected client_id=A total_clients=1") &&
			strings.Contains(logs, "event=clients.disconnected client_id=A total_clients=0")
	}, time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), `msg="Client presence changed"`)
}

func TestNotifier_ClientEvents(t *testing.T) {
	pub := &mockPublisher{}
	n := dispatch.NewNotifier(pub, nil)
	ctx := context.Background()

	n.ClientConnected(ctx, "A", 1)
	n.ClientDisconnected(ctx, "A", 0)

	require.Len(t, pub.messages, 2)
	assert.Equal(t, "clients.connected", pub.messages[0].Topic)
	assert.JSONEq(t, `{"client_id":"A","total_clients":1}`, string(pub.messages[0].Payload))
	assert.Equal(t, "clients.disconnected", pub.messages[1].Topic)
	assert.JSONEq(t, `{"client_id":"A","total_clients":0}`, string(pub.messages[1].Payload))
}

func TestNotifier_PublishFailures(t *testing.T) {
	pub := &mockPublisher{err: errors.New("bus closed")}
	n := dispatch.NewNotifier(pub, nil)
	ctx := context.Background()

	assert.Error(t, n.RequestUpdate(ctx, dispatch.UpdateRequested{Category: "blog", Action: "created"}))
	assert.NotPanics(t, func() { n.ClientConnected(ctx, "A", 1) })
}
