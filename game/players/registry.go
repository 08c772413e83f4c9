package players

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNoTransport is returned when a handle has no sender attached
var ErrNoTransport = errors.New("player has no transport")

// Sender delivers an outbound message to one connection without blocking
type Sender interface {
	Send(msg interface{}) error
}

// Handle is a connected player
type Handle struct {
	ID          string
	ConnectedAt time.Time

	conn Sender

	mu     sync.RWMutex
	roomID string
}

// NewHandle creates a handle for conn
func NewHandle(id string, conn Sender) *Handle {
	return &Handle{ID: id, ConnectedAt: time.Now(), conn: conn}
}

// Send forwards msg to the player's transport
func (h *Handle) Send(msg interface{}) error {
	if h.conn == nil {
		return ErrNoTransport
	}
	return h.conn.Send(msg)
}

// Room returns the identity of the player's current room, or ""
func (h *Handle) Room() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.roomID
}

// SetRoom records the player's current room
func (h *Handle) SetRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.roomID = roomID
}

// ClearRoom forgets roomID if it is still the player's current room
func (h *Handle) ClearRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.roomID == roomID {
		h.roomID = ""
	}
}

// Registry maps player identities to handles
type Registry struct {
	mu      sync.RWMutex
	handles map[string]*Handle
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]*Handle)}
}

// Register creates and stores a handle, replacing any previous one for id
func (r *Registry) Register(id string, conn Sender) *Handle {
	h := NewHandle(id, conn)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[id] = h
	return h
}

// Unregister removes and returns the handle for id
func (r *Registry) Unregister(id string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	if ok {
		delete(r.handles, id)
	}
	return h, ok
}

// Get returns the handle for id
func (r *Registry) Get(id string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[id]
	return h, ok
}

// Count returns the number of connected players
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// List returns all handles ordered by connection time
func (r *Registry) List() []*Handle {
	r.mu.RLock()
	list := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		list = append(list, h)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].ConnectedAt.Before(list[j].ConnectedAt)
	})
	return list
}
