// Package protocol defines the JSON envelopes exchanged with clients.
//
// Every message carries a "type" discriminator. Inbound intents decode into
// Envelope; outbound messages are the typed structs below and are encoded by
// the transport.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/gamerooms/game/engine"
)

// Inbound intent types
const (
	TypeCreateGame = "createGame"
	TypeJoinGame   = "joinGame"
	TypeReady      = "ready"
	TypeGameAction = "gameAction"
	TypeResetGame  = "resetGame"
	TypeLeaveGame  = "leaveGame"
	TypeListGames  = "listGames"
	TypeMakeMove   = "makeMove"
)

// Outbound message types
const (
	TypePlayerInfo  = "playerInfo"
	TypeGameCreated = "gameCreated"
	TypeGameJoined  = "gameJoined"
	TypeGameState   = "gameState"
	TypeGameList    = "gameList"
	TypeGameLeft    = "gameLeft"
	TypeNotice      = "notice"
	TypeError       = "error"
)

// Envelope is an inbound intent
type Envelope struct {
	Type     string          `json:"type"`
	GameID   string          `json:"gameId,omitempty"`
	GameType engine.GameType `json:"gameType,omitempty"`
	Action   string          `json:"action,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Settings json.RawMessage `json:"settings,omitempty"`

	// legacy makeMove coordinates
	Row *int `json:"row,omitempty"`
	Col *int `json:"col,omitempty"`
}

// Decode parses an inbound message
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, engine.ErrInvalidPayload.WithMessage(fmt.Sprintf("malformed message: %v", err))
	}
	if env.Type == "" {
		return env, engine.ErrInvalidPayload.WithMessage("message type is required")
	}
	return env, nil
}

// PlayerInfo is sent once on connect
type PlayerInfo struct {
	Type           string            `json:"type"`
	PlayerID       string            `json:"playerId"`
	SupportedGames []engine.GameType `json:"supportedGames"`
}

// GameJoined confirms a create or join
type GameJoined struct {
	Type       string          `json:"type"`
	GameID     string          `json:"gameId"`
	GameType   engine.GameType `json:"gameType"`
	PlayerInfo interface{}     `json:"playerInfo,omitempty"`
}

// GameState carries room data and the engine snapshot
type GameState struct {
	Type     string          `json:"type"`
	GameID   string          `json:"gameId"`
	GameType engine.GameType `json:"gameType"`
	Status   engine.Status   `json:"status"`
	Owner    string          `json:"owner,omitempty"`
	Players  []string        `json:"players"`
	Ready    map[string]bool `json:"ready"`
	State    interface{}     `json:"state"`
}

// GameSummary describes a room in listings
type GameSummary struct {
	ID         string          `json:"gameId"`
	GameType   engine.GameType `json:"gameType"`
	Status     engine.Status   `json:"status"`
	Owner      string          `json:"owner,omitempty"`
	Players    int             `json:"players"`
	MaxPlayers int             `json:"maxPlayers"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// GameList answers listGames
type GameList struct {
	Type  string        `json:"type"`
	Games []GameSummary `json:"games"`
}

// GameLeft confirms a leave
type GameLeft struct {
	Type   string `json:"type"`
	GameID string `json:"gameId"`
}

// Notice is an advisory engine event
type Notice struct {
	Type   string      `json:"type"`
	GameID string      `json:"gameId"`
	Event  string      `json:"event"`
	Data   interface{} `json:"data,omitempty"`
}

// Error reports a rejected intent to its sender
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Kind    string `json:"kind"`
}

// NewError converts err into an error message
func NewError(err error) Error {
	msg := err.Error()
	if engine.KindOf(err) == engine.KindInternal {
		msg = engine.ErrInternal.Message
	}
	return Error{
		Type:    TypeError,
		Message: msg,
		Code:    engine.CodeOf(err),
		Kind:    string(engine.KindOf(err)),
	}
}
