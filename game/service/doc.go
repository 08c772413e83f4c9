// Package service routes client intents to rooms.
//
// The Dispatcher is the single entry point for inbound messages. Connect
// registers a new connection under a fresh player id, Handle decodes and
// executes one intent, and Disconnect treats a closed connection as a normal
// leave. Rejected intents are answered with an error message to the sender
// only; a panic while handling an intent is recovered and reported as an
// internal error without affecting other rooms.
//
// The Dispatcher also implements Lobby, the read-only view the REST API and
// MCP tools use to list rooms, inspect a room and report server statistics.
//
// Usage:
//
//	d := service.NewDispatcher(directory, players.NewRegistry(),
//		service.WithLogger(logger),
//		service.WithPresets(presets))
//
//	h := d.Connect(ctx, conn)
//	d.Handle(ctx, h.ID, raw)
//	d.Disconnect(ctx, h.ID)
package service
