// Package server exposes hosted games over HTTP and streams their events
// over websockets.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/tycoonfree/tycoon-server-go/internal/config"
	"github.com/tycoonfree/tycoon-server-go/internal/game"
	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
)

const maxBodyBytes = 1 << 20

// Server routes requests to the engine.
type Server struct {
	engine   *game.Engine
	hub      *Hub
	defaults game.Config
	cfg      config.ServerConfig
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// New creates a server. defaults is the rule set new games start from
// before request overrides.
func New(engine *game.Engine, hub *Hub, defaults game.Config, cfg config.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	origins := make(map[string]bool, len(cfg.AllowedOrigins))
	allowAll := len(cfg.AllowedOrigins) == 0
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		origins[origin] = true
	}

	return &Server{
		engine:   engine,
		hub:      hub,
		defaults: defaults,
		cfg:      cfg,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || origins[origin]
			},
		},
	}
}

// Handler returns the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /games", s.handleListGames)
	mux.HandleFunc("POST /games", s.handleCreateGame)
	mux.HandleFunc("DELETE /games/{id}", s.handleDeleteGame)
	mux.HandleFunc("GET /games/{id}/status", s.handleStatus)
	mux.HandleFunc("GET /games/{id}/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /games/{id}/checksum", s.handleChecksum)
	mux.HandleFunc("GET /games/{id}/legal_actions", s.handleLegalActions)
	mux.HandleFunc("GET /games/{id}/events", s.handleEvents)
	mux.HandleFunc("POST /games/{id}/actions", s.handleAction)
	mux.HandleFunc("GET /ws/games/{id}", s.handleWS)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(mux)
}

// CreateGameRequest is the body of POST /games. Config fields that are
// present override the server defaults.
type CreateGameRequest struct {
	GameID  string          `json:"game_id,omitempty"`
	Players []string        `json:"players"`
	Config  json.RawMessage `json:"config,omitempty"`
}

// ActionResponse is the body returned by POST /games/{id}/actions.
type ActionResponse struct {
	Accepted bool              `json:"accepted"`
	Reason   string            `json:"reason,omitempty"`
	Details  map[string]string `json:"details,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "games": len(s.engine.GameIDs())})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"games": s.engine.GameIDs()})
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if !s.decode(w, r, &req) {
		return
	}

	cfg := s.defaults
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeError(w, http.StatusBadRequest, "invalid config: "+err.Error())
			return
		}
	}

	gameID := req.GameID
	var err error
	if gameID == "" {
		gameID, err = s.engine.CreateGame(cfg, req.Players)
	} else {
		err = s.engine.StartGame(gameID, cfg, req.Players)
	}
	if err != nil {
		var cfgErr *game.ConfigError
		if errors.As(err, &cfgErr) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	s.logger.Info("game created over http",
		zap.String("game_id", gameID),
		zap.Strings("players", req.Players),
	)
	writeJSON(w, http.StatusCreated, map[string]string{"game_id": gameID})
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.CleanupGame(r.PathValue("id")); err != nil {
		s.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.engine.Status(r.PathValue("id"))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Snapshot(r.PathValue("id"))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleChecksum(w http.ResponseWriter, r *http.Request) {
	sum, err := s.engine.Checksum(r.PathValue("id"))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleLegalActions(w http.ResponseWriter, r *http.Request) {
	player, err := strconv.Atoi(r.URL.Query().Get("player"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "player must be a seat index")
		return
	}
	actions, err := s.engine.LegalActions(r.PathValue("id"), player)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"player": player, "actions": actions})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	since, ok := sinceParam(w, r)
	if !ok {
		return
	}
	events, err := s.engine.Events(r.PathValue("id"), since)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"since": since, "events": events})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var action game.Action
	if !s.decode(w, r, &action) {
		return
	}

	err := s.engine.ProcessAction(r.PathValue("id"), action)
	var rejection *game.RejectionError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, ActionResponse{Accepted: true})
	case errors.As(err, &rejection):
		writeJSON(w, http.StatusConflict, ActionResponse{
			Accepted: false,
			Reason:   rejection.Reason,
			Details:  rejection.Details,
		})
	default:
		s.writeEngineError(w, err)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	since, ok := sinceParam(w, r)
	if !ok {
		return
	}
	if _, err := s.engine.Status(gameID); err != nil {
		s.writeEngineError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.String("game_id", gameID), zap.Error(err))
		return
	}

	client := newClient(conn, gameID, since)
	go client.writePump(s.cfg.HeartbeatInterval, s.cfg.WriteTimeout)

	err = s.hub.attach(client, func() ([]rules.Event, error) {
		return s.engine.Events(gameID, since)
	})
	if err != nil {
		s.logger.Warn("failed to attach websocket client", zap.String("game_id", gameID), zap.Error(err))
		return
	}
	go client.readPump(s.hub)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrGameNotFound), errors.Is(err, game.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("engine request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func sinceParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		return 0, true
	}
	since, err := strconv.Atoi(raw)
	if err != nil || since < 0 {
		writeError(w, http.StatusBadRequest, "since must be a non-negative integer")
		return 0, false
	}
	return since, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
