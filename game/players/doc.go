// Package players tracks connected players and their transport handles.
//
// The Registry maps an opaque player identity to a Handle. A Handle wraps the
// transport's Sender together with connection metadata: when the player
// connected and which room, if any, they currently occupy. Rooms hold Handles
// to fan out messages, but membership is recorded by room identity only, so a
// Handle never keeps a room alive.
//
// Usage:
//
//	reg := players.NewRegistry()
//	h := reg.Register(uuid.NewString(), conn)
//	defer reg.Unregister(h.ID)
//
//	h.SetRoom("a1b2")
//	_ = h.Send(msg)
package players
