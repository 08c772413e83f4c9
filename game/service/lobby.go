package service

import (
	"context"
	"time"

	"github.com/wricardo/mcp-training/gamerooms/game/config"
	"github.com/wricardo/mcp-training/gamerooms/game/engine"
	"github.com/wricardo/mcp-training/gamerooms/game/protocol"
)

var _ Lobby = (*Dispatcher)(nil)

// ListGames summarises every room, oldest first
func (d *Dispatcher) ListGames(_ context.Context) []protocol.GameSummary {
	rooms := d.rooms.List()
	games := make([]protocol.GameSummary, 0, len(rooms))
	for _, s := range rooms {
		games = append(games, s.Summary())
	}
	return games
}

// GetGame returns one room's summary and state
func (d *Dispatcher) GetGame(_ context.Context, gameID string) (*GameDetail, error) {
	s, err := d.rooms.Get(gameID)
	if err != nil {
		return nil, err
	}
	st := s.State()
	return &GameDetail{
		GameSummary: s.Summary(),
		Members:     st.Players,
		Ready:       st.Ready,
		State:       st.State,
	}, nil
}

// ListPresets returns the race map presets, if a preset source is configured
func (d *Dispatcher) ListPresets(_ context.Context) ([]config.PresetInfo, error) {
	if d.presets == nil {
		return []config.PresetInfo{}, nil
	}
	return d.presets.List()
}

func (d *Dispatcher) Stats(_ context.Context) *Stats {
	rs := d.rooms.Stats()
	return &Stats{
		Connections:    d.players.Count(),
		Rooms:          rs.Rooms,
		PlayersInRooms: rs.Players,
		PendingDestroy: rs.Pending,
		TickingRooms:   rs.Ticking,
		RoomsByType:    rs.ByType,
		SupportedGames: d.rooms.SupportedGames(),
		StartedAt:      d.started,
		UptimeSeconds:  int64(time.Since(d.started).Seconds()),
	}
}

func (d *Dispatcher) SupportedGames() []engine.GameType {
	return d.rooms.SupportedGames()
}
