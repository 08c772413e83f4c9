package engine

import (
	"encoding/json"
	"time"
)

// Engine is the capability set every game variant implements
type Engine interface {
	Type() GameType
	MaxPlayers() int
	Status() Status

	// OnJoin seats a new member and returns the seat description sent back as playerInfo
	OnJoin(playerID string) (interface{}, error)
	OnLeave(playerID string)

	// Start begins a round for the given members once everyone is ready
	Start(members []string, settings json.RawMessage) error
	ApplyAction(playerID string, action Action) error
	Reset()

	Snapshot() interface{}
}

// ReadyHandler is implemented by engines that replace the default ready flow.
// ready holds the room's current ready flags, including playerID.
type ReadyHandler interface {
	MarkReady(playerID string, members []string, ready map[string]bool, settings json.RawMessage) (started bool, err error)
}

// Simulation is implemented by engines that advance on a fixed tick
type Simulation interface {
	// Running reports whether the room should keep its tick loop active
	Running() bool
	// Step advances one tick and reports whether state should be broadcast
	Step() bool
	TickInterval() time.Duration
}

// Notifier is implemented by engines that emit advisory notices
type Notifier interface {
	DrainNotices() []Notice
}

// Factory creates a fresh engine for a new room
type Factory func() Engine
