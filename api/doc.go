// Package api provides the HTTP surface of the room server.
//
// Endpoints:
//
//   - GET /api/games - List rooms (filters: type, status, limit)
//   - GET /api/games/{id} - One room with members, ready flags and state
//   - GET /api/presets - Race map presets
//   - GET /api/stats - Connection and room counts
//   - GET /api/health - Liveness and supported game types
//   - /ws - WebSocket upgrade, the only channel that mutates rooms
//   - /mcp - MCP tool server, when mounted
//
// Errors are JSON objects {"error": message, "code": code}. Not-found errors
// map to 404, validation errors to 400, state errors to 409 and anything else
// to 500 with the message hidden.
//
// Usage:
//
//	server := api.NewServer(dispatcher, http.HandlerFunc(hub.ServeWS),
//		api.WithLogger(logger),
//		api.WithStaticDir("static"))
//	http.ListenAndServe(":8080", server)
package api
