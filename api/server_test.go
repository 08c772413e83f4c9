package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wricardo/mcp-training/gamerooms/game/config"
	"github.com/wricardo/mcp-training/gamerooms/game/engine"
	"github.com/wricardo/mcp-training/gamerooms/game/protocol"
	"github.com/wricardo/mcp-training/gamerooms/game/service"
)

// MockLobby implements service.Lobby for testing
type MockLobby struct {
	ListGamesFunc   func(ctx context.Context) []protocol.GameSummary
	GetGameFunc     func(ctx context.Context, gameID string) (*service.GameDetail, error)
	ListPresetsFunc func(ctx context.Context) ([]config.PresetInfo, error)
	StatsFunc       func(ctx context.Context) *service.Stats
}

func (m *MockLobby) ListGames(ctx context.Context) []protocol.GameSummary {
	if m.ListGamesFunc != nil {
		return m.ListGamesFunc(ctx)
	}
	return []protocol.GameSummary{}
}

func (m *MockLobby) GetGame(ctx context.Context, gameID string) (*service.GameDetail, error) {
	if m.GetGameFunc != nil {
		return m.GetGameFunc(ctx, gameID)
	}
	return nil, engine.ErrRoomNotFound
}

func (m *MockLobby) ListPresets(ctx context.Context) ([]config.PresetInfo, error) {
	if m.ListPresetsFunc != nil {
		return m.ListPresetsFunc(ctx)
	}
	return []config.PresetInfo{}, nil
}

func (m *MockLobby) Stats(ctx context.Context) *service.Stats {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &service.Stats{}
}

func (m *MockLobby) SupportedGames() []engine.GameType {
	return []engine.GameType{engine.FiveInRow, engine.Race, engine.Xiangqi}
}

func sampleGames() []protocol.GameSummary {
	now := time.Now()
	return []protocol.GameSummary{
		{ID: "aaa111", GameType: engine.FiveInRow, Status: engine.StatusPlaying, Players: 2, MaxPlayers: 2, CreatedAt: now},
		{ID: "bbb222", GameType: engine.Race, Status: engine.StatusWaiting, Players: 1, MaxPlayers: 4, CreatedAt: now},
		{ID: "ccc333", GameType: engine.Race, Status: engine.StatusPlaying, Players: 3, MaxPlayers: 4, CreatedAt: now},
	}
}

func doRequest(t *testing.T, s *Server, method, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var body map[string]interface{}
	if rec.Header().Get("Content-Type") == "application/json" && rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestListGames(t *testing.T) {
	s := NewServer(&MockLobby{
		ListGamesFunc: func(ctx context.Context) []protocol.GameSummary { return sampleGames() },
	}, nil, WithLogger(zaptest.NewLogger(t)))

	tests := []struct {
		name  string
		path  string
		ids   []string
		total float64
	}{
		{"all", "/api/games", []string{"aaa111", "bbb222", "ccc333"}, 3},
		{"by type", "/api/games?type=race", []string{"bbb222", "ccc333"}, 3},
		{"by status", "/api/games?status=playing", []string{"aaa111", "ccc333"}, 3},
		{"type and status", "/api/games?type=race&status=waiting", []string{"bbb222"}, 3},
		{"limit", "/api/games?limit=1", []string{"aaa111"}, 3},
		{"limit beyond", "/api/games?limit=10", []string{"aaa111", "bbb222", "ccc333"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := doRequest(t, s, "GET", tt.path)
			require.Equal(t, http.StatusOK, rec.Code)

			var ids []string
			for _, g := range body["games"].([]interface{}) {
				ids = append(ids, g.(map[string]interface{})["gameId"].(string))
			}
			assert.Equal(t, tt.ids, ids)
			assert.Equal(t, float64(len(tt.ids)), body["count"])
			assert.Equal(t, tt.total, body["total"])
		})
	}

	t.Run("bad limit", func(t *testing.T) {
		rec, body := doRequest(t, s, "GET", "/api/games?limit=abc")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_payload", body["code"])
	})
}

func TestGetGame(t *testing.T) {
	s := NewServer(&MockLobby{
		GetGameFunc: func(ctx context.Context, gameID string) (*service.GameDetail, error) {
			switch gameID {
			case "aaa111":
				return &service.GameDetail{
					GameSummary: sampleGames()[0],
					Members:     []string{"p1", "p2"},
					State:       map[string]string{"currentPlayer": "X"},
				}, nil
			case "broken":
				return nil, errors.New("disk on fire")
			}
			return nil, engine.ErrRoomNotFound
		},
	}, nil)

	rec, body := doRequest(t, s, "GET", "/api/games/aaa111")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "aaa111", body["gameId"])
	assert.Equal(t, []interface{}{"p1", "p2"}, body["members"])
	assert.Equal(t, map[string]interface{}{"currentPlayer": "X"}, body["state"])

	rec, body = doRequest(t, s, "GET", "/api/games/zzz999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "room_not_found", body["code"])
	assert.Equal(t, "game not found", body["error"])

	rec, body = doRequest(t, s, "GET", "/api/games/broken")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", body["error"], "internal details are hidden")
}

func TestListPresets(t *testing.T) {
	presets, err := config.NewManager("")
	require.NoError(t, err)

	s := NewServer(&MockLobby{
		ListPresetsFunc: func(ctx context.Context) ([]config.PresetInfo, error) { return presets.List() },
	}, nil)

	rec, _ := doRequest(t, s, "GET", "/api/presets")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []config.PresetInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 3)
	assert.Equal(t, "easy", list[0].ID)

	failing := NewServer(&MockLobby{
		ListPresetsFunc: func(ctx context.Context) ([]config.PresetInfo, error) { return nil, errors.New("boom") },
	}, nil)
	rec, _ = doRequest(t, failing, "GET", "/api/presets")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStatsAndHealth(t *testing.T) {
	s := NewServer(&MockLobby{
		StatsFunc: func(ctx context.Context) *service.Stats {
			return &service.Stats{Connections: 5, Rooms: 2, RoomsByType: map[engine.GameType]int{engine.Race: 2}}
		},
	}, nil)

	rec, body := doRequest(t, s, "GET", "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(5), body["connections"])
	assert.Equal(t, float64(2), body["rooms"])
	assert.Equal(t, map[string]interface{}{"race": float64(2)}, body["roomsByType"])

	rec, body = doRequest(t, s, "GET", "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, []interface{}{"fiveinrow", "race", "xiangqi"}, body["supportedGames"])
}

func TestMethodNotAllowed(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		path string
	}{
		{"list", nil, "/api/games"},
		{"detail", nil, "/api/games/abc123"},
		{"stats", nil, "/api/stats"},
		{"list with static files", []Option{WithStaticDir(t.TempDir())}, "/api/games"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(&MockLobby{}, nil, tt.opts...)
			rec, _ := doRequest(t, s, "POST", tt.path)
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		})
	}
}

func TestMountedHandlers(t *testing.T) {
	ws := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>rooms</h1>"), 0644))

	s := NewServer(&MockLobby{}, ws, WithMCP(mcp), WithStaticDir(dir))

	rec, _ := doRequest(t, s, "GET", "/ws")
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec, _ = doRequest(t, s, "POST", "/mcp")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec, _ = doRequest(t, s, "GET", "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rooms")

	bare := NewServer(&MockLobby{}, nil)
	rec, _ = doRequest(t, bare, "GET", "/ws")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
