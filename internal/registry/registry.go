// Package registry tracks the set of currently connected clients.
package registry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nfrund/relay/internal/domain"
)

// Observer receives connection-count changes. delta is +1 or -1.
type Observer interface {
	ConnectionCountChanged(ctx context.Context, count int, delta int)
}

// Registry owns the ConnectionSet. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	clients map[domain.ClientID]struct{}

	hooksMu sync.RWMutex
	hooks   []func(domain.ClientID)

	observer Observer
	logger   *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithObserver sets the observer notified on every count change.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		r.observer = o
	}
}

// WithLogger sets the logger used for connection logs.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		clients: make(map[domain.ClientID]struct{}),
		logger:  slog.Default().With("component", "registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnUnregister adds a hook run after a client has been removed. Hooks run
// outside the registry lock, in registration order.
func (r *Registry) OnUnregister(fn func(domain.ClientID)) {
	r.hooksMu.Lock()
	defer r.hooksMu.Unlock()
	r.hooks = append(r.hooks, fn)
}

// Register adds id to the set. It reports whether the id was newly added;
// registering a present id changes nothing and emits nothing.
func (r *Registry) Register(ctx context.Context, id domain.ClientID) bool {
	r.mu.Lock()
	if _, ok := r.clients[id]; ok {
		r.mu.Unlock()
		return false
	}
	r.clients[id] = struct{}{}
	count := len(r.clients)
	r.mu.Unlock()

	r.logger.Info("client connected", "client_id", id, "total_clients", count)
	if r.observer != nil {
		r.observer.ConnectionCountChanged(ctx, count, 1)
	}
	return true
}

// Unregister removes id and cascades the removal through the unregister
// hooks. It is a no-op for unknown ids.
func (r *Registry) Unregister(ctx context.Context, id domain.ClientID) bool {
	r.mu.Lock()
	if _, ok := r.clients[id]; !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.clients, id)
	count := len(r.clients)
	r.mu.Unlock()

	r.logger.Info("client disconnected", "client_id", id, "total_clients", count)
	if r.observer != nil {
		r.observer.ConnectionCountChanged(ctx, count, -1)
	}

	r.hooksMu.RLock()
	hooks := r.hooks
	r.hooksMu.RUnlock()
	for _, hook := range hooks {
		hook(id)
	}
	return true
}

// IsConnected reports whether id is currently registered.
func (r *Registry) IsConnected(id domain.ClientID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[id]
	return ok
}

// Count returns the number of connected clients.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// IsEmpty reports whether no client is connected.
func (r *Registry) IsEmpty() bool {
	return r.Count() == 0
}

// Clients returns a snapshot of the connected ids.
func (r *Registry) Clients() []domain.ClientID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]domain.ClientID, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	return ids
}
