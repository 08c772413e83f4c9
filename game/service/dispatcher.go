package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/gamerooms/game/engine"
	"github.com/wricardo/mcp-training/gamerooms/game/events"
	"github.com/wricardo/mcp-training/gamerooms/game/players"
	"github.com/wricardo/mcp-training/gamerooms/game/protocol"
	"github.com/wricardo/mcp-training/gamerooms/game/session"
)

// Dispatcher handles inbound intents for every connection
type Dispatcher struct {
	rooms   RoomDirectory
	players PlayerRegistry
	presets PresetLister
	events  events.Publisher
	log     *zap.Logger
	started time.Time
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

func WithLogger(log *zap.Logger) Option {
	return func(d *Dispatcher) { d.log = log }
}

func WithPublisher(p events.Publisher) Option {
	return func(d *Dispatcher) { d.events = p }
}

func WithPresets(p PresetLister) Option {
	return func(d *Dispatcher) { d.presets = p }
}

// NewDispatcher creates a dispatcher over rooms and connected players
func NewDispatcher(rooms RoomDirectory, registry PlayerRegistry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		rooms:   rooms,
		players: registry,
		events:  events.Nop{},
		log:     zap.NewNop(),
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Connect registers conn under a new player id and greets it with playerInfo
func (d *Dispatcher) Connect(ctx context.Context, conn players.Sender) *players.Handle {
	h := d.players.Register(uuid.NewString(), conn)
	d.log.Info("player connected", zap.String("player", h.ID))

	d.reply(h, protocol.PlayerInfo{
		Type:           protocol.TypePlayerInfo,
		PlayerID:       h.ID,
		SupportedGames: d.rooms.SupportedGames(),
	})

	ev := events.New(events.PlayerConnected)
	ev.PlayerID = h.ID
	d.publish(ctx, ev)
	return h
}

// Disconnect removes the player from its room and forgets the connection
func (d *Dispatcher) Disconnect(ctx context.Context, playerID string) {
	h, ok := d.players.Unregister(playerID)
	if !ok {
		return
	}
	log := d.log.With(zap.String("player", playerID))

	roomID := h.Room()
	if roomID != "" {
		if err := d.rooms.Leave(roomID, playerID); err != nil {
			log.Debug("leave on disconnect", zap.String("room", roomID), zap.Error(err))
		}
	}
	log.Info("player disconnected", zap.String("room", roomID))

	ev := events.New(events.PlayerDisconnected)
	ev.PlayerID = playerID
	ev.RoomID = roomID
	d.publish(ctx, ev)
}

// Handle decodes and executes one inbound message from playerID.
// Failures are reported to that player only. The returned error is
// ErrPlayerNotFound when playerID has no registered connection.
func (d *Dispatcher) Handle(ctx context.Context, playerID string, raw []byte) error {
	h, ok := d.players.Get(playerID)
	if !ok {
		d.log.Warn("message from unknown player", zap.String("player", playerID))
		return engine.ErrPlayerNotFound
	}
	log := d.log.With(zap.String("player", playerID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("intent panicked", zap.Any("panic", r), zap.Stack("stack"))
			d.reply(h, protocol.NewError(engine.Internal(fmt.Errorf("panic: %v", r))))
		}
	}()

	env, err := protocol.Decode(raw)
	if err != nil {
		log.Debug("rejected message", zap.Error(err))
		d.reply(h, protocol.NewError(err))
		return nil
	}

	if err := d.route(ctx, h, env); err != nil {
		log.Debug("rejected intent",
			zap.String("type", env.Type),
			zap.String("room", env.GameID),
			zap.String("code", engine.CodeOf(err)),
			zap.Error(err))
		d.reply(h, protocol.NewError(err))
	}
	return nil
}

func (d *Dispatcher) route(ctx context.Context, h *players.Handle, env protocol.Envelope) error {
	switch env.Type {
	case protocol.TypeCreateGame:
		return d.createGame(h, env)
	case protocol.TypeJoinGame:
		return d.joinGame(h, env)
	case protocol.TypeReady:
		s, err := d.member(h, env.GameID)
		if err != nil {
			return err
		}
		return s.MarkReady(h.ID, env.Settings)
	case protocol.TypeGameAction:
		if env.Action == "" {
			return engine.ErrInvalidAction.WithMessage("action is required")
		}
		return d.act(h, env.GameID, engine.Action{Name: env.Action, Data: env.Data})
	case protocol.TypeMakeMove:
		if env.Row == nil || env.Col == nil {
			return engine.ErrInvalidPayload.WithMessage("makeMove requires row and col")
		}
		data, _ := json.Marshal(map[string]int{"row": *env.Row, "col": *env.Col})
		return d.act(h, env.GameID, engine.Action{Name: "place", Data: data})
	case protocol.TypeResetGame:
		s, err := d.member(h, env.GameID)
		if err != nil {
			return err
		}
		return s.Reset(h.ID)
	case protocol.TypeLeaveGame:
		return d.leaveGame(h, env)
	case protocol.TypeListGames:
		d.reply(h, protocol.GameList{Type: protocol.TypeGameList, Games: d.ListGames(ctx)})
		return nil
	default:
		return engine.ErrInvalidAction.WithMessage(fmt.Sprintf("unknown message type %q", env.Type))
	}
}

func (d *Dispatcher) createGame(h *players.Handle, env protocol.Envelope) error {
	if env.GameType == "" {
		return engine.ErrInvalidPayload.WithMessage("gameType is required")
	}
	if room := h.Room(); room != "" {
		return engine.ErrAlreadyInRoom.WithMessage(fmt.Sprintf("already in game %s", room))
	}

	s, err := d.rooms.Create(env.GameType)
	if err != nil {
		return err
	}
	_, seat, err := d.rooms.Join(s.ID, h)
	if err != nil {
		return err
	}

	d.log.Info("game created",
		zap.String("player", h.ID),
		zap.String("room", s.ID),
		zap.String("game", string(s.Type)))
	d.reply(h, protocol.GameJoined{
		Type:       protocol.TypeGameCreated,
		GameID:     s.ID,
		GameType:   s.Type,
		PlayerInfo: seat,
	})
	return nil
}

func (d *Dispatcher) joinGame(h *players.Handle, env protocol.Envelope) error {
	if env.GameID == "" {
		return engine.ErrInvalidPayload.WithMessage("gameId is required")
	}
	if room := h.Room(); room != "" {
		if strings.EqualFold(room, env.GameID) {
			return engine.ErrAlreadyJoined
		}
		return engine.ErrAlreadyInRoom.WithMessage(fmt.Sprintf("already in game %s", room))
	}

	s, seat, err := d.rooms.Join(env.GameID, h)
	if err != nil {
		return err
	}
	d.reply(h, protocol.GameJoined{
		Type:       protocol.TypeGameJoined,
		GameID:     s.ID,
		GameType:   s.Type,
		PlayerInfo: seat,
	})
	return nil
}

func (d *Dispatcher) leaveGame(h *players.Handle, env protocol.Envelope) error {
	roomID := env.GameID
	if roomID == "" {
		roomID = h.Room()
	}
	if roomID == "" {
		return engine.ErrNotMember
	}
	s, err := d.rooms.Get(roomID)
	if err != nil {
		return err
	}
	if err := d.rooms.Leave(s.ID, h.ID); err != nil {
		return err
	}
	d.reply(h, protocol.GameLeft{Type: protocol.TypeGameLeft, GameID: s.ID})
	return nil
}

func (d *Dispatcher) act(h *players.Handle, gameID string, action engine.Action) error {
	s, err := d.member(h, gameID)
	if err != nil {
		return err
	}
	return s.Act(h.ID, action)
}

// member resolves the room an intent targets, defaulting to the player's current room
func (d *Dispatcher) member(h *players.Handle, gameID string) (*session.Session, error) {
	if gameID == "" {
		gameID = h.Room()
	}
	if gameID == "" {
		return nil, engine.ErrNotMember
	}
	s, err := d.rooms.Get(gameID)
	if err != nil {
		return nil, err
	}
	if !s.Has(h.ID) {
		return nil, engine.ErrNotMember
	}
	return s, nil
}

func (d *Dispatcher) reply(h *players.Handle, msg interface{}) {
	if err := h.Send(msg); err != nil {
		d.log.Warn("reply failed", zap.String("player", h.ID), zap.Error(err))
	}
}

func (d *Dispatcher) publish(ctx context.Context, ev events.Event) {
	if err := d.events.Publish(ctx, ev); err != nil {
		d.log.Warn("publish event failed", zap.String("event", ev.Type), zap.Error(err))
	}
}
