// Package engine defines the contract shared by every game variant hosted in a room.
//
// The engine package provides:
//   - The Engine capability interface (join/leave hooks, actions, snapshots)
//   - Optional capabilities: ReadyHandler, Simulation and Notifier
//   - The error taxonomy returned by engines and rooms
//   - Loop, the cancellable fixed-rate ticker used by simulations
//
// Core Types:
//
// A room (see package session) owns exactly one Engine for its lifetime and
// serializes every call into it, so engine implementations are not safe for
// concurrent use and do not need to be. Engines never perform I/O; they mutate
// their own state and the room broadcasts Snapshot() afterwards.
//
// Variants live in sub-packages:
//
//	fiveinrow  20x20 five-in-a-row board game
//	xiangqi    Chinese chess with check and checkmate detection
//	race       real-time obstacle race with items, effects and respawn
//
// Errors:
//
// Every rejected operation returns an *Error carrying a Kind (validation,
// not_found, state, internal) and a stable Code. Sentinels such as
// ErrNotYourTurn can be matched with errors.Is even after WithMessage:
//
//	if errors.Is(err, engine.ErrCellOccupied) {
//		// ...
//	}
package engine
