package service

import (
	"context"

	"github.com/wricardo/mcp-training/gamerooms/game/config"
	"github.com/wricardo/mcp-training/gamerooms/game/engine"
	"github.com/wricardo/mcp-training/gamerooms/game/players"
	"github.com/wricardo/mcp-training/gamerooms/game/protocol"
	"github.com/wricardo/mcp-training/gamerooms/game/session"
)

// Lobby is the read-only view used by the REST and MCP layers
type Lobby interface {
	ListGames(ctx context.Context) []protocol.GameSummary
	GetGame(ctx context.Context, gameID string) (*GameDetail, error)
	ListPresets(ctx context.Context) ([]config.PresetInfo, error)
	Stats(ctx context.Context) *Stats
	SupportedGames() []engine.GameType
}

// RoomDirectory defines room storage operations
type RoomDirectory interface {
	Create(gameType engine.GameType) (*session.Session, error)
	Get(id string) (*session.Session, error)
	List() []*session.Session
	Join(id string, h *players.Handle) (*session.Session, interface{}, error)
	Leave(id, playerID string) error
	SupportedGames() []engine.GameType
	Stats() session.Stats
}

// PlayerRegistry defines connection bookkeeping
type PlayerRegistry interface {
	Register(id string, conn players.Sender) *players.Handle
	Unregister(id string) (*players.Handle, bool)
	Get(id string) (*players.Handle, bool)
	Count() int
}

// PresetLister lists race map presets
type PresetLister interface {
	List() ([]config.PresetInfo, error)
}
