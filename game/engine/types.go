package engine

import (
	"encoding/json"
	"fmt"
)

// GameType tags the engine variant a room runs
type GameType string

const (
	FiveInRow GameType = "fiveinrow"
	Xiangqi   GameType = "xiangqi"
	Race      GameType = "race"
)

// Status is the match-scoped status of a room
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusSetup    Status = "setup"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Action is a game-specific command submitted by a player
type Action struct {
	Name string          `json:"action"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Decode unmarshals the action payload into v. An empty payload leaves v untouched.
func (a Action) Decode(v interface{}) error {
	if len(a.Data) == 0 || string(a.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(a.Data, v); err != nil {
		return ErrInvalidPayload.WithMessage(fmt.Sprintf("invalid %s payload: %v", a.Name, err))
	}
	return nil
}

// DecodeSettings unmarshals optional ready/start settings into v
func DecodeSettings(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return ErrInvalidPayload.WithMessage(fmt.Sprintf("invalid settings: %v", err))
	}
	return nil
}

// Notice is an advisory event broadcast next to state updates
type Notice struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Cell is a board coordinate
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}
