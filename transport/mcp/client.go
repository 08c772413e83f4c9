package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/gamerooms/game/config"
	"github.com/wricardo/mcp-training/gamerooms/game/engine"
	"github.com/wricardo/mcp-training/gamerooms/game/engine/fiveinrow"
	"github.com/wricardo/mcp-training/gamerooms/game/engine/race"
	"github.com/wricardo/mcp-training/gamerooms/game/engine/xiangqi"
	"github.com/wricardo/mcp-training/gamerooms/game/protocol"
	"github.com/wricardo/mcp-training/gamerooms/game/service"
)

// Client is a thin MCP server that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API at baseURL
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Game Rooms",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Game Rooms - MCP Interface

Read-only view of a multiplayer game room server hosting five-in-a-row,
xiangqi and obstacle race rooms. Players act over WebSocket; these tools
let you observe.

AVAILABLE TOOLS:
- list_games: List rooms, optionally filtered by type or status
- get_game: Show one room with its board or race leaderboard
- list_presets: List race map presets
- server_stats: Connection and room counts
- game_rules: Rules and actions for a game type`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List active game rooms",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"type": map[string]interface{}{
					"type":        "string",
					"description": "Only rooms of this game type (fiveinrow, xiangqi, race)",
				},
				"status": map[string]interface{}{
					"type":        "string",
					"description": "Only rooms in this status (waiting, setup, playing, finished)",
				},
			},
		},
	}, c.handleListGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_game",
		Description: "Get one room's members and current state",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Room ID",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleGetGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_presets",
		Description: "List race map presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPresets)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "server_stats",
		Description: "Get server connection and room statistics",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleServerStats)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_rules",
		Description: "Describe the rules, actions and messages of a game type",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_type": map[string]interface{}{
					"type":        "string",
					"description": "fiveinrow, xiangqi or race",
				},
			},
			Required: []string{"game_type"},
		},
	}, c.handleGameRules)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Handler serves single JSON-RPC messages over HTTP POST
func (c *Client) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := c.mcpServer.HandleMessage(r.Context(), body)
		if response == nil {
			w.WriteHeader(http.StatusAccepted)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
}

// Helper methods for API calls

func (c *Client) apiGet(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func stringArg(request mcp.CallToolRequest, name string) string {
	args, _ := request.Params.Arguments.(map[string]interface{})
	v, _ := args[name].(string)
	return v
}

// Tool handlers

func (c *Client) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := url.Values{}
	if t := stringArg(request, "type"); t != "" {
		query.Set("type", t)
	}
	if s := stringArg(request, "status"); s != "" {
		query.Set("status", s)
	}
	path := "/api/games"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var response struct {
		Games []protocol.GameSummary `json:"games"`
		Count int                    `json:"count"`
		Total int                    `json:"total"`
	}
	if err := c.apiGet(ctx, path, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGameList(response.Games, response.Total)), nil
}

type gameDetail struct {
	protocol.GameSummary
	Members []string        `json:"members"`
	Ready   map[string]bool `json:"ready"`
	State   json.RawMessage `json:"state"`
}

func (c *Client) handleGetGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID := stringArg(request, "game_id")
	if gameID == "" {
		return mcp.NewToolResultError("game_id is required"), nil
	}

	var detail gameDetail
	if err := c.apiGet(ctx, "/api/games/"+url.PathEscape(gameID), &detail); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := formatGame(&detail)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListPresets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var presets []config.PresetInfo
	if err := c.apiGet(ctx, "/api/presets", &presets); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Race Presets (%d):\n\n", len(presets))
	for _, p := range presets {
		fmt.Fprintf(&b, "- %s [%s, %s] %s, distance %.0f, %d lives (%s)\n",
			p.ID, p.Mode, p.Difficulty, p.Description, p.Distance, p.Lives, p.Source)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleServerStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stats service.Stats
	if err := c.apiGet(ctx, "/api/stats", &stats); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Connections: %d\n", stats.Connections)
	fmt.Fprintf(&b, "Rooms: %d (%d players seated, %d awaiting destroy, %d ticking)\n",
		stats.Rooms, stats.PlayersInRooms, stats.PendingDestroy, stats.TickingRooms)
	types := make([]string, 0, len(stats.RoomsByType))
	for t := range stats.RoomsByType {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(&b, "  %s: %d\n", t, stats.RoomsByType[engine.GameType(t)])
	}
	fmt.Fprintf(&b, "Uptime: %s\n", time.Duration(stats.UptimeSeconds)*time.Second)
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameType := engine.GameType(stringArg(request, "game_type"))
	rules, ok := gameRules[gameType]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown game type %q (use fiveinrow, xiangqi or race)", gameType)), nil
	}
	return mcp.NewToolResultText(rules), nil
}

func formatGameList(games []protocol.GameSummary, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Games (%d of %d):\n\n", len(games), total)
	for _, g := range games {
		fmt.Fprintf(&b, "- %s %s %s %d/%d players (created %s)\n",
			g.ID, g.GameType, g.Status, g.Players, g.MaxPlayers, g.CreatedAt.Format("15:04:05"))
	}
	return b.String()
}

func formatGame(d *gameDetail) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Game %s (%s)\n", d.ID, d.GameType)
	fmt.Fprintf(&b, "Status: %s\n", d.Status)
	fmt.Fprintf(&b, "Players (%d/%d):", len(d.Members), d.MaxPlayers)
	for _, m := range d.Members {
		marker := ""
		if m == d.Owner {
			marker += " owner"
		}
		if d.Ready[m] {
			marker += " ready"
		}
		if marker != "" {
			fmt.Fprintf(&b, " %s(%s)", m, strings.TrimSpace(marker))
		} else {
			fmt.Fprintf(&b, " %s", m)
		}
	}
	b.WriteString("\n\n")

	var err error
	switch d.GameType {
	case engine.FiveInRow:
		err = formatFiveInRow(&b, d.State)
	case engine.Xiangqi:
		err = formatXiangqi(&b, d.State)
	case engine.Race:
		err = formatRace(&b, d.State)
	}
	if err != nil {
		return "", fmt.Errorf("decode %s state: %w", d.GameType, err)
	}
	return b.String(), nil
}

func formatFiveInRow(b *strings.Builder, raw json.RawMessage) error {
	var st fiveinrow.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return err
	}

	fmt.Fprintf(b, "Turn: %s  Moves: %d\n", st.Turn, st.MoveCount)
	switch {
	case st.Winner != fiveinrow.None:
		fmt.Fprintf(b, "Winner: %s (%s)\n", st.Winner, st.Players[st.Winner])
	case st.Draw:
		b.WriteString("Result: draw\n")
	}
	for _, row := range st.Board {
		for _, cell := range row {
			if cell == fiveinrow.None {
				b.WriteByte('.')
			} else {
				b.WriteString(string(cell))
			}
		}
		b.WriteByte('\n')
	}
	return nil
}

var pieceLetters = map[xiangqi.Kind]string{
	xiangqi.General:  "g",
	xiangqi.Advisor:  "a",
	xiangqi.Elephant: "e",
	xiangqi.Horse:    "h",
	xiangqi.Chariot:  "r",
	xiangqi.Cannon:   "c",
	xiangqi.Soldier:  "s",
}

func formatXiangqi(b *strings.Builder, raw json.RawMessage) error {
	var st xiangqi.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return err
	}

	fmt.Fprintf(b, "Turn: %s  Moves: %d\n", st.Turn, st.Moves)
	for color, check := range st.InCheck {
		if check {
			fmt.Fprintf(b, "%s is in check\n", color)
		}
	}
	if st.Winner != "" {
		fmt.Fprintf(b, "Winner: %s (%s)\n", st.Winner, st.Reason)
	}
	b.WriteString("Red pieces uppercase, black lowercase.\n")
	for _, row := range st.Board {
		for _, p := range row {
			if p == nil || p.Empty() {
				b.WriteByte('.')
				continue
			}
			letter := pieceLetters[p.Kind]
			if p.Color == xiangqi.Red {
				letter = strings.ToUpper(letter)
			}
			b.WriteString(letter)
		}
		b.WriteByte('\n')
	}
	return nil
}

func formatRace(b *strings.Builder, raw json.RawMessage) error {
	// Effects encode as a name map, so only the summary fields are decoded
	var st struct {
		Phase       race.Phase      `json:"phase"`
		Mode        race.Mode       `json:"mode"`
		Map         string          `json:"map"`
		Round       int             `json:"round"`
		Countdown   int             `json:"countdown"`
		Elapsed     float64         `json:"elapsed"`
		Distance    float64         `json:"distance"`
		Leaderboard []race.Standing `json:"leaderboard"`
		Respawn     bool            `json:"respawnAvailable"`
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return err
	}

	fmt.Fprintf(b, "Phase: %s  Mode: %s  Map: %s  Round: %d\n", st.Phase, st.Mode, st.Map, st.Round)
	if st.Phase == race.PhaseCountdown {
		fmt.Fprintf(b, "Starting in %d\n", st.Countdown)
	}
	fmt.Fprintf(b, "Elapsed: %.1fs  Course: %.0f out and back\n", st.Elapsed, st.Distance)
	if st.Respawn {
		b.WriteString("Respawn available: everyone send ready\n")
	}
	b.WriteString("Leaderboard:\n")
	for _, s := range st.Leaderboard {
		state := string(s.Phase)
		if !s.Alive && s.Phase != race.Finished {
			state = "out"
		}
		fmt.Fprintf(b, "  %d. %s %s progress %.0f score %d\n", s.Position, s.PlayerID, state, s.Progress, s.Score)
	}
	return nil
}

var gameRules = map[engine.GameType]string{
	engine.FiveInRow: `FIVE IN A ROW (fiveinrow)
Two players on a 20x20 board. The first to join plays X and moves first.
The game starts as soon as the second player joins.
Action: {"type":"gameAction","action":"place","data":{"row":R,"col":C}}
Legacy: {"type":"makeMove","gameId":ID,"row":R,"col":C}
Five or more in a line (horizontal, vertical or diagonal) wins; a full board is a draw.
Send ready after a finished game for a rematch.`,

	engine.Xiangqi: `XIANGQI (xiangqi)
Chinese chess on a 9x10 board. The first to join plays red (rows 5-9) and moves first.
Action: {"type":"gameAction","action":"move","data":{"from":{"row":R,"col":C},"to":{"row":R,"col":C}}}
Action: {"type":"gameAction","action":"surrender"}
Moves that leave your own general in check are rejected. Checkmate or capturing
the general wins. Generals may not face each other on an open file.`,

	engine.Race: `OBSTACLE RACE (race)
Up to four players fly out to the far end of the course and back.
Everyone sends ready (optionally with settings {"mode","map","lives","timeLimit"});
a three second countdown follows.
Actions: flap, useItem {"x","y"}, pause, resume.
Pipes cost a life unless shielded. Item boxes grant one held item at a time:
speed, shield, bomb, trap or missile.
Modes: classic (first finisher ends the round), battle (last alive),
time (score at the time limit), endless (until everyone is out).
After a round, ready again to respawn.`,
}
