package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/gamerooms/game/engine"
	"github.com/wricardo/mcp-training/gamerooms/game/protocol"
	"github.com/wricardo/mcp-training/gamerooms/game/service"
)

// Server represents the REST API server
type Server struct {
	lobby     service.Lobby
	ws        http.Handler
	mcp       http.Handler
	staticDir string
	log       *zap.Logger
	router    *mux.Router
}

// Option configures a Server
type Option func(*Server)

// WithLogger logs every request
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithStaticDir serves files from dir for unmatched paths
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

// WithMCP mounts an MCP handler at /mcp
func WithMCP(h http.Handler) Option {
	return func(s *Server) { s.mcp = h }
}

// NewServer creates a new API server. ws handles /ws upgrades and may be nil.
func NewServer(lobby service.Lobby, ws http.Handler, opts ...Option) *Server {
	s := &Server{
		lobby:  lobby,
		ws:     ws,
		log:    zap.NewNop(),
		router: mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)

	s.router.HandleFunc("/api/games", s.handleListGames).Methods("GET")
	s.router.HandleFunc("/api/games/{id}", s.handleGetGame).Methods("GET")
	s.router.HandleFunc("/api/presets", s.handleListPresets).Methods("GET")
	s.router.HandleFunc("/api/stats", s.handleStats).Methods("GET")
	s.router.HandleFunc("/api/health", s.handleHealth).Methods("GET")

	if s.ws != nil {
		s.router.Handle("/ws", s.ws)
	}
	if s.mcp != nil {
		s.router.PathPrefix("/mcp").Handler(s.mcp)
	}
	if s.staticDir != "" {
		s.router.PathPrefix("/").Methods("GET", "HEAD").Handler(http.FileServer(http.Dir(s.staticDir)))
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := engine.ErrInternal.Message
	switch engine.KindOf(err) {
	case engine.KindNotFound:
		status, msg = http.StatusNotFound, err.Error()
	case engine.KindValidation:
		status, msg = http.StatusBadRequest, err.Error()
	case engine.KindState:
		status, msg = http.StatusConflict, err.Error()
	}
	respondJSON(w, status, map[string]string{"error": msg, "code": engine.CodeOf(err)})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games := s.lobby.ListGames(r.Context())

	query := r.URL.Query()
	gameType := query.Get("type")
	status := query.Get("status")

	filtered := make([]protocol.GameSummary, 0, len(games))
	for _, g := range games {
		if gameType != "" && string(g.GameType) != gameType {
			continue
		}
		if status != "" && string(g.Status) != status {
			continue
		}
		filtered = append(filtered, g)
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			respondError(w, engine.ErrInvalidPayload.WithMessage("limit must be a non-negative integer"))
			return
		}
		if limit < len(filtered) {
			filtered = filtered[:limit]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"games": filtered,
		"count": len(filtered),
		"total": len(games),
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	game, err := s.lobby.GetGame(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, game)
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.lobby.ListPresets(r.Context())
	if err != nil {
		s.log.Error("list presets", zap.Error(err))
		respondError(w, engine.Internal(err))
		return
	}
	respondJSON(w, http.StatusOK, presets)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.lobby.Stats(r.Context()))
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"supportedGames": s.lobby.SupportedGames(),
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// websocket upgrades need the raw writer for hijacking
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
