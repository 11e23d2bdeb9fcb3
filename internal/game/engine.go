package game

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// Notification types emitted by the engine.
const (
	NotificationEvent    = "EVENT"
	NotificationGameOver = "GAME_OVER"
	NotificationCreated  = "GAME_CREATED"
	NotificationRemoved  = "GAME_REMOVED"
)

// GameNotification represents a notification that can be sent to UI/websocket clients
type GameNotification struct {
	Type      string                 // Type of notification (e.g., "EVENT", "GAME_OVER")
	GameID    string                 // Game ID
	PlayerID  int                    // Acting player, rules.NoPlayer for broadcast
	Timestamp time.Time              // When the notification was created
	Event     *rules.Event           // Set for NotificationEvent
	Data      map[string]interface{} // Notification-specific data
}

// NotificationHandler is a function that handles game notifications
type NotificationHandler func(notification GameNotification)

// GameStatus is a summary of one hosted game.
type GameStatus struct {
	GameID        string      `json:"game_id"`
	Players       []string    `json:"players"`
	Phase         rules.Phase `json:"phase"`
	Turn          int         `json:"turn"`
	CurrentPlayer int         `json:"current_player"`
	Actor         int         `json:"actor"`
	Over          bool        `json:"over"`
	Winner        int         `json:"winner"`
	EndReason     string      `json:"end_reason,omitempty"`
	EventCount    int         `json:"event_count"`
	ActionCount   int         `json:"action_count"`
	CreatedAt     time.Time   `json:"created_at"`
}

type engineGame struct {
	id        string
	players   []string
	state     *State
	bus       *rules.EventBus
	published int
	actions   int
	createdAt time.Time
	mu        sync.Mutex
}

// Engine hosts many games and serializes access to each of them. State
// itself holds no locks.
type Engine struct {
	logger              *zap.Logger
	mu                  sync.RWMutex
	games               map[string]*engineGame
	notificationHandler NotificationHandler // Optional handler for UI/websocket notifications
	recorder            *ReplayRecorder
}

// NewEngine creates an engine with no games.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		logger: logger,
		games:  make(map[string]*engineGame),
	}
}

// SetNotificationHandler sets the handler for game notifications. Handlers
// run synchronously, in event order, while the game is locked; they must
// not call back into the engine for the same game.
func (e *Engine) SetNotificationHandler(handler NotificationHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notificationHandler = handler
}

// SetReplayRecorder enables replay recording for games created afterwards.
func (e *Engine) SetReplayRecorder(recorder *ReplayRecorder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recorder = recorder
}

func (e *Engine) emitNotification(notification GameNotification) {
	e.mu.RLock()
	handler := e.notificationHandler
	e.mu.RUnlock()

	if handler != nil {
		handler(notification)
	}
}

// CreateGame starts a game under a fresh id.
func (e *Engine) CreateGame(cfg Config, players []string) (string, error) {
	gameID := uuid.New().String()
	if err := e.StartGame(gameID, cfg, players); err != nil {
		return "", err
	}
	return gameID, nil
}

// StartGame starts a game under the given id.
func (e *Engine) StartGame(gameID string, cfg Config, players []string) error {
	state, err := NewGame(cfg, players, WithLogger(e.logger.With(zap.String("game_id", gameID))))
	if err != nil {
		return err
	}

	g := &engineGame{
		id:        gameID,
		players:   append([]string(nil), players...),
		state:     state,
		bus:       rules.NewEventBus(),
		createdAt: time.Now(),
	}

	// Held until the initial events are out so no action can overtake them.
	g.mu.Lock()
	defer g.mu.Unlock()

	e.mu.Lock()
	if _, exists := e.games[gameID]; exists {
		e.mu.Unlock()
		return fmt.Errorf("game %s already exists", gameID)
	}
	e.games[gameID] = g
	recorder := e.recorder
	e.mu.Unlock()

	if recorder != nil {
		recorder.StartRecording(gameID, cfg, players)
	}

	e.logger.Info("game started",
		zap.String("game_id", gameID),
		zap.Int("players", len(players)),
		zap.Uint64("seed", cfg.Seed),
	)

	e.emitNotification(GameNotification{
		Type:      NotificationCreated,
		GameID:    gameID,
		PlayerID:  rules.NoPlayer,
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"players": g.players},
	})
	e.publish(g)
	return nil
}

func (e *Engine) game(gameID string) (*engineGame, error) {
	e.mu.RLock()
	g, exists := e.games[gameID]
	e.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("game %s: %w", gameID, ErrGameNotFound)
	}
	return g, nil
}

// ProcessAction applies an action. Rejections are *RejectionError values
// and leave the game untouched.
func (e *Engine) ProcessAction(gameID string, action Action) error {
	g, err := e.game(gameID)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.state.Apply(action); err != nil {
		e.logger.Debug("action rejected",
			zap.String("game_id", gameID),
			zap.String("action", action.String()),
			zap.Error(err),
		)
		return err
	}
	g.actions++

	e.mu.RLock()
	recorder := e.recorder
	e.mu.RUnlock()
	if recorder != nil {
		recorder.RecordAction(gameID, action)
	}

	e.publish(g)

	if g.state.IsOver() {
		winner, _ := g.state.Winner()
		e.logger.Info("game over",
			zap.String("game_id", gameID),
			zap.Int("winner", winner),
			zap.String("reason", g.state.EndReason()),
			zap.Int("turns", g.state.TurnNumber()),
		)
		if recorder != nil && recorder.IsRecording(gameID) {
			if err := recorder.SaveReplay(gameID, g.state); err != nil {
				e.logger.Warn("failed to save replay", zap.String("game_id", gameID), zap.Error(err))
			}
		}
		e.emitNotification(GameNotification{
			Type:      NotificationGameOver,
			GameID:    gameID,
			PlayerID:  winner,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"winner": winner,
				"reason": g.state.EndReason(),
			},
		})
	}
	return nil
}

// publish fans out events appended since the last call. Caller holds g.mu.
func (e *Engine) publish(g *engineGame) {
	events := g.state.Events(g.published)
	g.published += len(events)
	for i := range events {
		evt := events[i]
		g.bus.Publish(evt)
		e.emitNotification(GameNotification{
			Type:      NotificationEvent,
			GameID:    g.id,
			PlayerID:  evt.PlayerID,
			Timestamp: time.Now(),
			Event:     &evt,
		})
	}
}

// LegalActions lists the actions a player may take in a game.
func (e *Engine) LegalActions(gameID string, playerID int) ([]Action, error) {
	g, err := e.game(gameID)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.player(playerID) == nil {
		return nil, fmt.Errorf("seat %d: %w", playerID, ErrPlayerNotFound)
	}
	return g.state.LegalActions(playerID), nil
}

// Snapshot returns the current projection of a game.
func (e *Engine) Snapshot(gameID string) (Snapshot, error) {
	g, err := e.game(gameID)
	if err != nil {
		return Snapshot{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Snapshot(), nil
}

// Events returns a game's event log from sequence since onward.
func (e *Engine) Events(gameID string, since int) ([]rules.Event, error) {
	g, err := e.game(gameID)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Events(since), nil
}

// Checksum hashes a game's current state.
func (e *Engine) Checksum(gameID string) (*SerializationChecksum, error) {
	g, err := e.game(gameID)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Checksum()
}

// Status summarises a game.
func (e *Engine) Status(gameID string) (GameStatus, error) {
	g, err := e.game(gameID)
	if err != nil {
		return GameStatus{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.state
	return GameStatus{
		GameID:        g.id,
		Players:       append([]string(nil), g.players...),
		Phase:         s.Phase(),
		Turn:          s.TurnNumber(),
		CurrentPlayer: s.CurrentPlayer(),
		Actor:         s.Actor(),
		Over:          s.IsOver(),
		Winner:        s.winner,
		EndReason:     s.EndReason(),
		EventCount:    s.EventCount(),
		ActionCount:   g.actions,
		CreatedAt:     g.createdAt,
	}, nil
}

// Subscribe registers a listener for a game's future events.
func (e *Engine) Subscribe(gameID string, listener rules.Listener) (int, error) {
	g, err := e.game(gameID)
	if err != nil {
		return 0, err
	}
	return g.bus.Subscribe(listener), nil
}

// SubscribeTyped registers a listener for one event type.
func (e *Engine) SubscribeTyped(gameID string, eventType rules.EventType, listener func(rules.Event)) (int, error) {
	g, err := e.game(gameID)
	if err != nil {
		return 0, err
	}
	return g.bus.SubscribeTyped(eventType, listener), nil
}

// Unsubscribe removes a listener.
func (e *Engine) Unsubscribe(gameID string, handle int) error {
	g, err := e.game(gameID)
	if err != nil {
		return err
	}
	g.bus.Unsubscribe(handle)
	return nil
}

// GameIDs lists hosted games in sorted order.
func (e *Engine) GameIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := make([]string, 0, len(e.games))
	for id := range e.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CleanupGame removes a game and drops any unsaved replay.
func (e *Engine) CleanupGame(gameID string) error {
	e.mu.Lock()
	_, exists := e.games[gameID]
	if !exists {
		e.mu.Unlock()
		return fmt.Errorf("game %s: %w", gameID, ErrGameNotFound)
	}
	delete(e.games, gameID)
	recorder := e.recorder
	e.mu.Unlock()

	if recorder != nil {
		recorder.ClearReplay(gameID)
	}

	e.logger.Info("game cleaned up", zap.String("game_id", gameID))
	e.emitNotification(GameNotification{
		Type:      NotificationRemoved,
		GameID:    gameID,
		PlayerID:  rules.NoPlayer,
		Timestamp: time.Now(),
	})
	return nil
}
