// Package rooms keeps track of which connected clients opted into which
// named interest groups.
package rooms

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/nfrund/relay/internal/domain"
)

// Connections is the view of the connection registry the index needs.
// Client ids are only referenced, never owned, by the index.
type Connections interface {
	IsConnected(id domain.ClientID) bool
	OnUnregister(fn func(domain.ClientID))
}

// Index owns room membership. It is safe for concurrent use.
type Index struct {
	mu    sync.RWMutex
	rooms map[string]map[domain.ClientID]struct{}
	conns Connections

	logger *slog.Logger
}

// NewIndex creates an index bound to conns. Clients removed from conns are
// removed from every room.
func NewIndex(conns Connections) *Index {
	x := &Index{
		rooms:  make(map[string]map[domain.ClientID]struct{}),
		conns:  conns,
		logger: slog.Default().With("component", "rooms"),
	}
	conns.OnUnregister(func(id domain.ClientID) {
		x.RemoveClientFromAllRooms(id)
	})
	return x
}

// Join adds id to room, creating the room on first join. It fails with
// domain.ErrNotConnected when id is not a live connection.
func (x *Index) Join(room string, id domain.ClientID) error {
	if room == "" {
		return domain.ErrInvalidRoom
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	// The registry drops a client before running its unregister hooks, and
	// the cascade needs this lock, so checking under it cannot leave an orphan.
	if !x.conns.IsConnected(id) {
		return fmt.Errorf("join %q: %w: %s", room, domain.ErrNotConnected, id)
	}

	members, ok := x.rooms[room]
	if !ok {
		members = make(map[domain.ClientID]struct{})
		x.rooms[room] = members
	}
	if _, already := members[id]; already {
		return nil
	}
	members[id] = struct{}{}
	x.logger.Info("client joined room", "client_id", id, "room", room, "members", len(members))
	return nil
}

// Leave removes id from room. It reports whether anything changed.
func (x *Index) Leave(room string, id domain.ClientID) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.removeLocked(room, id) {
		return false
	}
	x.logger.Info("client left room", "client_id", id, "room", room)
	return true
}

// RemoveClientFromAllRooms drops id from every room and returns how many
// rooms it was in.
func (x *Index) RemoveClientFromAllRooms(id domain.ClientID) int {
	x.mu.Lock()
	defer x.mu.Unlock()

	removed := 0
	for room := range x.rooms {
		if x.removeLocked(room, id) {
			removed++
		}
	}
	if removed > 0 {
		x.logger.Debug("client removed from rooms", "client_id", id, "rooms", removed)
	}
	return removed
}

// removeLocked deletes id from room and drops the room once empty.
func (x *Index) removeLocked(room string, id domain.ClientID) bool {
	members, ok := x.rooms[room]
	if !ok {
		return false
	}
	if _, ok := members[id]; !ok {
		return false
	}
	delete(members, id)
	if len(members) == 0 {
		delete(x.rooms, room)
	}
	return true
}

// MembersOf returns a snapshot of the members of room, empty when the room
// does not exist.
func (x *Index) MembersOf(room string) []domain.ClientID {
	members, _ := x.Members(room)
	if members == nil {
		return []domain.ClientID{}
	}
	return members
}

// Members is MembersOf for callers that need to tell an unknown room apart.
func (x *Index) Members(room string) ([]domain.ClientID, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	members, ok := x.rooms[room]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownRoom, room)
	}
	ids := make([]domain.ClientID, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Size returns the number of members of room.
func (x *Index) Size(room string) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.rooms[room])
}

// Rooms returns the size of every non-empty room.
func (x *Index) Rooms() map[string]int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	sizes := make(map[string]int, len(x.rooms))
	for room, members := range x.rooms {
		sizes[room] = len(members)
	}
	return sizes
}
