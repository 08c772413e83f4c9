// Package session manages game rooms.
//
// A Session is one room: an ordered list of members, their ready flags, the
// room owner and exactly one engine. All mutation goes through the session's
// mutex, so each room has a single writer at a time while different rooms
// proceed independently. After every successful mutation the session
// broadcasts a gameState message (plus any engine notices) to its members.
//
// Engines that implement engine.Simulation get a tick loop. The session
// starts it when the engine reports Running and stops it when the engine
// stops, the room empties, is reset or is destroyed.
//
// The Directory maps room ids to sessions. Rooms are created empty and are
// destroyed once they have stayed empty for the grace period; a join before
// then cancels the pending destroy.
//
// Usage:
//
//	dir := session.NewDirectory(map[engine.GameType]engine.Factory{
//		engine.FiveInRow: fiveinrow.NewEngine,
//	}, session.WithLogger(logger))
//	defer dir.Close()
//
//	room, err := dir.Create(engine.FiveInRow)
//	room, seat, err := dir.Join(room.ID, handle)
//	err = room.Act(handle.ID, action)
//	err = dir.Leave(room.ID, handle.ID)
package session
