package service

import (
	"time"

	"github.com/wricardo/mcp-training/gamerooms/game/engine"
	"github.com/wricardo/mcp-training/gamerooms/game/protocol"
)

// GameDetail is a room summary plus its current state
type GameDetail struct {
	protocol.GameSummary
	Members []string        `json:"members"`
	Ready   map[string]bool `json:"ready"`
	State   interface{}     `json:"state"`
}

// Stats describes the running server
type Stats struct {
	Connections    int                     `json:"connections"`
	Rooms          int                     `json:"rooms"`
	PlayersInRooms int                     `json:"playersInRooms"`
	PendingDestroy int                     `json:"pendingDestroy"`
	TickingRooms   int                     `json:"tickingRooms"`
	RoomsByType    map[engine.GameType]int `json:"roomsByType"`
	SupportedGames []engine.GameType       `json:"supportedGames"`
	StartedAt      time.Time               `json:"startedAt"`
	UptimeSeconds  int64                   `json:"uptimeSeconds"`
}
