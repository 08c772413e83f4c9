package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/gamerooms/game/engine"
	"github.com/wricardo/mcp-training/gamerooms/game/events"
	"github.com/wricardo/mcp-training/gamerooms/game/players"
)

// DefaultGracePeriod is how long an empty room survives before it is destroyed
const DefaultGracePeriod = 30 * time.Second

type room struct {
	session *Session
	destroy *time.Timer

	// bumped on every schedule and cancel so a timer that already fired
	// can tell it has been superseded
	gen uint64
}

// Directory owns every active room and decides when empty rooms are destroyed
type Directory struct {
	factories map[engine.GameType]engine.Factory
	grace     time.Duration
	log       *zap.Logger
	events    events.Publisher

	ctx    context.Context
	cancel context.CancelFunc

	rooms map[string]*room
	mu    sync.RWMutex
}

// Option configures a Directory
type Option func(*Directory)

func WithGracePeriod(d time.Duration) Option {
	return func(dir *Directory) { dir.grace = d }
}

func WithLogger(log *zap.Logger) Option {
	return func(dir *Directory) { dir.log = log }
}

func WithPublisher(p events.Publisher) Option {
	return func(dir *Directory) { dir.events = p }
}

// NewDirectory creates a directory able to host the given game types
func NewDirectory(factories map[engine.GameType]engine.Factory, opts ...Option) *Directory {
	d := &Directory{
		factories: factories,
		grace:     DefaultGracePeriod,
		log:       zap.NewNop(),
		events:    events.Nop{},
		rooms:     make(map[string]*room),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	return d
}

// Create opens an empty room. The room is destroyed after the grace period
// unless someone joins it first.
func (d *Directory) Create(gameType engine.GameType) (*Session, error) {
	factory, ok := d.factories[gameType]
	if !ok {
		return nil, engine.ErrUnknownGameType
	}

	d.mu.Lock()
	id := d.generateRoomID()
	s := newSession(d.ctx, id, factory(), d.log, d.onFinished)
	r := &room{session: s}
	d.rooms[id] = r
	d.scheduleLocked(id, r)
	d.mu.Unlock()

	d.log.Info("room created", zap.String("room", id), zap.String("game", string(gameType)))
	d.publish(events.RoomCreated, s, nil)
	return s, nil
}

// Get retrieves a room by id (case-insensitive)
func (d *Directory) Get(id string) (*Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.rooms[strings.ToLower(id)]
	if !ok {
		return nil, engine.ErrRoomNotFound
	}
	return r.session, nil
}

// List returns every room, oldest first
func (d *Directory) List() []*Session {
	d.mu.RLock()
	result := make([]*Session, 0, len(d.rooms))
	for _, r := range d.rooms {
		result = append(result, r.session)
	}
	d.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Count returns the number of rooms
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}

// Join seats h in the room and cancels any pending destroy
func (d *Directory) Join(id string, h *players.Handle) (*Session, interface{}, error) {
	s, err := d.Get(id)
	if err != nil {
		return nil, nil, err
	}
	seat, err := s.Join(h)
	if err != nil {
		return nil, nil, err
	}

	d.mu.Lock()
	if r, ok := d.rooms[s.ID]; ok && r.session == s {
		d.cancelLocked(s.ID, r)
	}
	d.mu.Unlock()
	return s, seat, nil
}

// Leave removes playerID from the room and schedules its destroy once empty
func (d *Directory) Leave(id, playerID string) error {
	s, err := d.Get(id)
	if err != nil {
		return err
	}
	if !s.Has(playerID) {
		return engine.ErrNotMember
	}
	if empty := s.Leave(playerID); !empty {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok := d.rooms[s.ID]; ok && r.session == s {
		d.scheduleLocked(s.ID, r)
	}
	return nil
}

// Pending reports whether the room is waiting to be destroyed
func (d *Directory) Pending(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.rooms[strings.ToLower(id)]
	return ok && r.destroy != nil
}

func (d *Directory) scheduleLocked(id string, r *room) {
	if r.destroy != nil {
		r.destroy.Stop()
	}
	r.gen++
	gen, s := r.gen, r.session
	r.destroy = time.AfterFunc(d.grace, func() { d.destroyIfEmpty(id, s, gen) })
	d.log.Debug("room destroy scheduled", zap.String("room", id), zap.Duration("grace", d.grace))
}

func (d *Directory) cancelLocked(id string, r *room) {
	if r.destroy == nil {
		return
	}
	r.destroy.Stop()
	r.destroy = nil
	r.gen++
	d.log.Debug("room destroy cancelled", zap.String("room", id))
}

func (d *Directory) destroyIfEmpty(id string, s *Session, gen uint64) {
	d.mu.Lock()
	r, ok := d.rooms[id]
	if !ok || r.session != s || r.gen != gen {
		d.mu.Unlock()
		return
	}
	// a join may have landed after the timer fired
	if s.Len() > 0 {
		r.destroy = nil
		d.mu.Unlock()
		return
	}
	delete(d.rooms, id)
	d.mu.Unlock()

	s.close()
	d.log.Info("room destroyed", zap.String("room", id), zap.String("reason", "empty"))
	d.publish(events.RoomDestroyed, s, map[string]string{"reason": "empty"})
}

// Destroy removes a room immediately
func (d *Directory) Destroy(id string) error {
	d.mu.Lock()
	r, ok := d.rooms[strings.ToLower(id)]
	if !ok {
		d.mu.Unlock()
		return engine.ErrRoomNotFound
	}
	delete(d.rooms, r.session.ID)
	if r.destroy != nil {
		r.destroy.Stop()
	}
	d.mu.Unlock()

	r.session.close()
	d.log.Info("room destroyed", zap.String("room", r.session.ID), zap.String("reason", "teardown"))
	d.publish(events.RoomDestroyed, r.session, map[string]string{"reason": "teardown"})
	return nil
}

// Close destroys every room and stops all tick loops
func (d *Directory) Close() {
	d.mu.RLock()
	ids := make([]string, 0, len(d.rooms))
	for id := range d.rooms {
		ids = append(ids, id)
	}
	d.mu.RUnlock()

	for _, id := range ids {
		_ = d.Destroy(id)
	}
	d.cancel()
}

// SupportedGames lists the game types rooms can be created for
func (d *Directory) SupportedGames() []engine.GameType {
	types := make([]engine.GameType, 0, len(d.factories))
	for t := range d.factories {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Stats summarises the directory
type Stats struct {
	Rooms   int                     `json:"rooms"`
	Players int                     `json:"players"`
	Pending int                     `json:"pendingDestroy"`
	ByType  map[engine.GameType]int `json:"byType"`
	Ticking int                     `json:"ticking"`
}

func (d *Directory) Stats() Stats {
	d.mu.RLock()
	rooms := make([]*room, 0, len(d.rooms))
	st := Stats{ByType: make(map[engine.GameType]int)}
	for _, r := range d.rooms {
		rooms = append(rooms, r)
		if r.destroy != nil {
			st.Pending++
		}
	}
	d.mu.RUnlock()

	for _, r := range rooms {
		st.Rooms++
		st.ByType[r.session.Type]++
		st.Players += r.session.Len()
		if r.session.Ticking() {
			st.Ticking++
		}
	}
	return st
}

// onFinished runs with the session locked
func (d *Directory) onFinished(s *Session) {
	d.publish(events.GameFinished, s, map[string]interface{}{"players": s.memberIDs()})
}

func (d *Directory) publish(typ string, s *Session, data interface{}) {
	ev := events.New(typ)
	ev.RoomID = s.ID
	ev.GameType = s.Type
	ev.Data = data
	if err := d.events.Publish(d.ctx, ev); err != nil {
		d.log.Warn("publish event failed", zap.String("event", typ), zap.Error(err))
	}
}

// generateRoomID returns an unused 6-character hex id. Callers hold d.mu.
func (d *Directory) generateRoomID() string {
	for {
		bytes := make([]byte, 3)
		rand.Read(bytes)
		id := hex.EncodeToString(bytes)
		if _, exists := d.rooms[id]; !exists {
			return id
		}
	}
}
