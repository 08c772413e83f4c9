// Package mcp exposes a read-only Model Context Protocol view of the game
// room server.
//
// The Client proxies every tool call to the REST API, so it can run inside
// the server process (mounted at /mcp through Handler) or as a separate stdio
// process pointed at a remote server.
//
// Tools:
//   - list_games: rooms, optionally filtered by type or status
//   - get_game: one room with an ASCII board or a race leaderboard
//   - list_presets: race map presets
//   - server_stats: connection and room counts
//   - game_rules: actions and rules per game type
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
