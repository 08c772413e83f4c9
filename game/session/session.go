package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/gamerooms/game/engine"
	"github.com/wricardo/mcp-training/gamerooms/game/players"
	"github.com/wricardo/mcp-training/gamerooms/game/protocol"
)

// Session is one room: its members, ready flags, owner and engine.
// Every method is safe for concurrent use; mutations are serialized per room.
type Session struct {
	ID        string
	Type      engine.GameType
	CreatedAt time.Time

	mu      sync.Mutex
	engine  engine.Engine
	members []*players.Handle
	ready   map[string]bool
	owner   string
	loop    *engine.Loop
	closed  bool

	ctx      context.Context
	log      *zap.Logger
	finished func(*Session)
}

func newSession(ctx context.Context, id string, eng engine.Engine, log *zap.Logger, finished func(*Session)) *Session {
	return &Session{
		ID:        id,
		Type:      eng.Type(),
		CreatedAt: time.Now(),
		engine:    eng,
		ready:     make(map[string]bool),
		ctx:       ctx,
		log:       log.With(zap.String("room", id), zap.String("game", string(eng.Type()))),
		finished:  finished,
	}
}

// Join adds h to the room and returns the seat the engine assigned
func (s *Session) Join(h *players.Handle) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, engine.ErrRoomNotFound
	}
	if len(s.members) >= s.engine.MaxPlayers() {
		return nil, engine.ErrRoomFull
	}
	if s.indexOf(h.ID) >= 0 {
		return nil, engine.ErrAlreadyJoined
	}

	prev := s.engine.Status()
	seat, err := s.engine.OnJoin(h.ID)
	if err != nil {
		return nil, err
	}
	s.members = append(s.members, h)
	if s.owner == "" {
		s.owner = h.ID
	}
	h.SetRoom(s.ID)
	s.log.Info("player joined", zap.String("player", h.ID), zap.Int("members", len(s.members)))

	s.changed(prev)
	return seat, nil
}

// Leave removes a member and reports whether the room is now empty.
// Unknown players are ignored.
func (s *Session) Leave(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(playerID)
	if i < 0 {
		return len(s.members) == 0
	}

	h := s.members[i]
	s.members = append(s.members[:i], s.members[i+1:]...)
	delete(s.ready, playerID)
	if s.owner == playerID {
		s.owner = ""
		if len(s.members) > 0 {
			s.owner = s.members[0].ID
		}
	}
	h.ClearRoom(s.ID)

	prev := s.engine.Status()
	s.engine.OnLeave(playerID)
	s.log.Info("player left", zap.String("player", playerID), zap.Int("members", len(s.members)))

	if len(s.members) == 0 {
		s.stopLoop()
		return true
	}
	s.changed(prev)
	return false
}

// MarkReady records playerID as ready and starts the engine once everyone is.
// Engines implementing engine.ReadyHandler decide for themselves.
func (s *Session) MarkReady(playerID string, settings json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(playerID) < 0 {
		return engine.ErrNotMember
	}

	prev := s.engine.Status()
	was := s.ready[playerID]
	s.ready[playerID] = true

	started, err := s.markReady(playerID, settings)
	if err != nil {
		if was {
			s.ready[playerID] = true
		} else {
			delete(s.ready, playerID)
		}
		return err
	}
	if started {
		s.ready = make(map[string]bool)
		s.log.Info("game started", zap.Strings("players", s.memberIDs()))
	}

	s.changed(prev)
	return nil
}

func (s *Session) markReady(playerID string, settings json.RawMessage) (bool, error) {
	ids := s.memberIDs()
	if rh, ok := s.engine.(engine.ReadyHandler); ok {
		return rh.MarkReady(playerID, ids, s.readyCopy(), settings)
	}

	if s.engine.Status() == engine.StatusPlaying {
		return false, engine.ErrWrongPhase.WithMessage("game already in progress")
	}
	if len(ids) > 1 {
		for _, id := range ids {
			if !s.ready[id] {
				return false, nil
			}
		}
	}
	if err := s.engine.Start(ids, settings); err != nil {
		return false, err
	}
	return true, nil
}

// Act applies a game action on behalf of a member
func (s *Session) Act(playerID string, action engine.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(playerID) < 0 {
		return engine.ErrNotMember
	}

	prev := s.engine.Status()
	if err := s.engine.ApplyAction(playerID, action); err != nil {
		return err
	}
	s.changed(prev)
	return nil
}

// Reset returns the engine to its pre-game state, keeping members seated
func (s *Session) Reset(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(playerID) < 0 {
		return engine.ErrNotMember
	}

	prev := s.engine.Status()
	s.stopLoop()
	s.engine.Reset()
	s.ready = make(map[string]bool)
	s.log.Info("game reset", zap.String("player", playerID))

	s.changed(prev)
	return nil
}

// Broadcast sends msg to every member. A failing member never stops delivery to the rest.
func (s *Session) Broadcast(msg interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcast(msg)
}

func (s *Session) broadcast(msg interface{}) {
	for _, h := range s.members {
		s.send(h, msg)
	}
}

func (s *Session) send(h *players.Handle, msg interface{}) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("send panicked", zap.String("player", h.ID), zap.Any("panic", r))
		}
	}()
	if err := h.Send(msg); err != nil {
		s.log.Warn("send failed", zap.String("player", h.ID), zap.Error(err))
	}
}

// State returns the room's gameState message
func (s *Session) State() protocol.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

func (s *Session) state() protocol.GameState {
	return protocol.GameState{
		Type:     protocol.TypeGameState,
		GameID:   s.ID,
		GameType: s.Type,
		Status:   s.engine.Status(),
		Owner:    s.owner,
		Players:  s.memberIDs(),
		Ready:    s.readyCopy(),
		State:    s.engine.Snapshot(),
	}
}

// Summary describes the room for listings
func (s *Session) Summary() protocol.GameSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return protocol.GameSummary{
		ID:         s.ID,
		GameType:   s.Type,
		Status:     s.engine.Status(),
		Owner:      s.owner,
		Players:    len(s.members),
		MaxPlayers: s.engine.MaxPlayers(),
		CreatedAt:  s.CreatedAt,
	}
}

func (s *Session) Status() engine.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Status()
}

func (s *Session) Owner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}

// Members returns member ids in join order
func (s *Session) Members() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memberIDs()
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members)
}

func (s *Session) Has(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(playerID) >= 0
}

// Ticking reports whether the room's simulation loop is running
func (s *Session) Ticking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loop != nil
}

// close stops the loop, detaches members and tells them the room is gone
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopLoop()
	for _, h := range s.members {
		h.ClearRoom(s.ID)
		s.send(h, protocol.GameLeft{Type: protocol.TypeGameLeft, GameID: s.ID})
	}
	s.members = nil
}

// changed broadcasts state and notices after a mutation and keeps the loop in step
// with the engine. Callers hold s.mu.
func (s *Session) changed(prev engine.Status) {
	s.broadcast(s.state())
	s.flushNotices()
	s.syncLoop()
	s.checkFinished(prev)
}

func (s *Session) flushNotices() {
	n, ok := s.engine.(engine.Notifier)
	if !ok {
		return
	}
	for _, notice := range n.DrainNotices() {
		s.broadcast(protocol.Notice{
			Type:   protocol.TypeNotice,
			GameID: s.ID,
			Event:  notice.Event,
			Data:   notice.Data,
		})
	}
}

func (s *Session) checkFinished(prev engine.Status) {
	if prev != engine.StatusFinished && s.engine.Status() == engine.StatusFinished && s.finished != nil {
		s.log.Info("game finished")
		s.finished(s)
	}
}

func (s *Session) syncLoop() {
	sim, ok := s.engine.(engine.Simulation)
	if !ok {
		return
	}
	running := sim.Running() && !s.closed && len(s.members) > 0
	switch {
	case running && s.loop == nil:
		var loop *engine.Loop
		loop = engine.StartLoop(s.ctx, sim.TickInterval(), func() { s.tick(loop) })
		s.loop = loop
		s.log.Debug("tick loop started", zap.Duration("interval", sim.TickInterval()))
	case !running && s.loop != nil:
		s.stopLoop()
	}
}

func (s *Session) stopLoop() {
	if s.loop == nil {
		return
	}
	s.loop.Stop()
	s.loop = nil
	s.log.Debug("tick loop stopped")
}

func (s *Session) tick(loop *engine.Loop) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// a stopped loop may still deliver one tick
	if s.closed || s.loop != loop {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("tick panicked", zap.Any("panic", r))
			s.stopLoop()
		}
	}()

	sim := s.engine.(engine.Simulation)
	prev := s.engine.Status()
	if sim.Step() {
		s.broadcast(s.state())
	}
	s.flushNotices()
	if !sim.Running() {
		s.stopLoop()
	}
	s.checkFinished(prev)
}

func (s *Session) indexOf(playerID string) int {
	for i, h := range s.members {
		if h.ID == playerID {
			return i
		}
	}
	return -1
}

func (s *Session) memberIDs() []string {
	ids := make([]string, len(s.members))
	for i, h := range s.members {
		ids[i] = h.ID
	}
	return ids
}

func (s *Session) readyCopy() map[string]bool {
	ready := make(map[string]bool, len(s.ready))
	for id, ok := range s.ready {
		ready[id] = ok
	}
	return ready
}
