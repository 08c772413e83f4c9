package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPI(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.RequestURI()]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"game not found","code":"room_not_found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) (string, bool) {
	t.Helper()
	result, err := handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, result.IsError
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	assert.Equal(t, "http://localhost:8080", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.GetMCPServer())
}

func TestListGames(t *testing.T) {
	api := newAPI(t, map[string]string{
		"/api/games":           `{"games":[{"gameId":"a1b2c3","gameType":"fiveinrow","status":"playing","players":2,"maxPlayers":2,"createdAt":"2026-01-01T10:00:00Z"}],"count":1,"total":3}`,
		"/api/games?type=race": `{"games":[],"count":0,"total":3}`,
	})
	client := NewClient(api.URL)

	text, isErr := call(t, client.handleListGames, nil)
	assert.False(t, isErr)
	assert.Contains(t, text, "Games (1 of 3)")
	assert.Contains(t, text, "a1b2c3 fiveinrow playing 2/2")

	text, isErr = call(t, client.handleListGames, map[string]interface{}{"type": "race"})
	assert.False(t, isErr)
	assert.Contains(t, text, "Games (0 of 3)")
}

func TestGetGameFiveInRow(t *testing.T) {
	api := newAPI(t, map[string]string{
		"/api/games/abc123": `{"gameId":"abc123","gameType":"fiveinrow","status":"playing","owner":"p1","players":2,"maxPlayers":2,
			"members":["p1","p2"],"ready":{},
			"state":{"board":[["X","",""],["","O",""],["","",""]],"players":{"X":"p1","O":"p2"},"currentPlayer":"X","status":"playing","moveCount":2}}`,
	})
	client := NewClient(api.URL)

	text, isErr := call(t, client.handleGetGame, map[string]interface{}{"game_id": "abc123"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Game abc123 (fiveinrow)")
	assert.Contains(t, text, "p1(owner)")
	assert.Contains(t, text, "Turn: X  Moves: 2")
	assert.Contains(t, text, "X..\n.O.\n...\n")
}

func TestGetGameXiangqi(t *testing.T) {
	api := newAPI(t, map[string]string{
		"/api/games/x1": `{"gameId":"x1","gameType":"xiangqi","status":"finished","players":2,"maxPlayers":2,
			"members":["p1","p2"],
			"state":{"board":[[{"type":"chariot","color":"black"},null],[null,{"type":"general","color":"red"}]],
			"currentPlayer":"black","status":"finished","winner":"red","reason":"surrender","inCheck":{"red":false,"black":true},"moveCount":7}}`,
	})
	client := NewClient(api.URL)

	text, isErr := call(t, client.handleGetGame, map[string]interface{}{"game_id": "x1"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Winner: red (surrender)")
	assert.Contains(t, text, "black is in check")
	assert.Contains(t, text, "r.\n.G\n")
}

func TestGetGameRace(t *testing.T) {
	api := newAPI(t, map[string]string{
		"/api/games/r1": `{"gameId":"r1","gameType":"race","status":"finished","players":2,"maxPlayers":4,
			"members":["p1","p2"],"ready":{"p2":true},
			"state":{"phase":"finished","mode":"classic","map":"normal","round":1,"elapsed":12.5,"distance":2000,
			"players":{"p1":{"effects":{"shield":2}}},
			"leaderboard":[{"position":1,"playerId":"p1","phase":"finished","progress":4000,"score":10,"alive":true},
			{"position":2,"playerId":"p2","phase":"outbound","progress":800,"score":3,"alive":false}],
			"respawnAvailable":true}}`,
	})
	client := NewClient(api.URL)

	text, isErr := call(t, client.handleGetGame, map[string]interface{}{"game_id": "r1"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "p2(ready)")
	assert.Contains(t, text, "Phase: finished  Mode: classic  Map: normal  Round: 1")
	assert.Contains(t, text, "Respawn available")
	assert.Contains(t, text, "1. p1 finished progress 4000 score 10")
	assert.Contains(t, text, "2. p2 out progress 800 score 3")
}

func TestGetGameErrors(t *testing.T) {
	client := NewClient(newAPI(t, nil).URL)

	text, isErr := call(t, client.handleGetGame, nil)
	assert.True(t, isErr)
	assert.Equal(t, "game_id is required", text)

	text, isErr = call(t, client.handleGetGame, map[string]interface{}{"game_id": "nope"})
	assert.True(t, isErr)
	assert.Equal(t, "game not found", text)
}

func TestListPresetsAndStats(t *testing.T) {
	api := newAPI(t, map[string]string{
		"/api/presets": `[{"id":"normal","name":"normal","description":"Standard course","difficulty":"medium","mode":"classic","distance":2000,"lives":3,"source":"builtin"}]`,
		"/api/stats":   `{"connections":4,"rooms":2,"playersInRooms":3,"pendingDestroy":1,"tickingRooms":1,"roomsByType":{"race":1,"fiveinrow":1},"uptimeSeconds":90}`,
	})
	client := NewClient(api.URL)

	text, isErr := call(t, client.handleListPresets, nil)
	assert.False(t, isErr)
	assert.Contains(t, text, "Race Presets (1)")
	assert.Contains(t, text, "- normal [classic, medium] Standard course, distance 2000, 3 lives (builtin)")

	text, isErr = call(t, client.handleServerStats, nil)
	assert.False(t, isErr)
	assert.Contains(t, text, "Connections: 4")
	assert.Contains(t, text, "Rooms: 2 (3 players seated, 1 awaiting destroy, 1 ticking)")
	assert.Less(t, strings.Index(text, "fiveinrow: 1"), strings.Index(text, "race: 1"))
	assert.Contains(t, text, "Uptime: 1m30s")
}

func TestGameRules(t *testing.T) {
	client := NewClient("http://unused")

	for _, gt := range []string{"fiveinrow", "xiangqi", "race"} {
		text, isErr := call(t, client.handleGameRules, map[string]interface{}{"game_type": gt})
		assert.False(t, isErr, gt)
		assert.Contains(t, text, "("+gt+")")
	}

	_, isErr := call(t, client.handleGameRules, map[string]interface{}{"game_type": "chess"})
	assert.True(t, isErr)
}

func TestHandler(t *testing.T) {
	client := NewClient("http://unused")
	srv := httptest.NewServer(client.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
	resp, err = http.Post(srv.URL, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	names := make([]string, 0, len(out.Result.Tools))
	for _, tool := range out.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"list_games", "get_game", "list_presets", "server_stats", "game_rules"}, names)
}
