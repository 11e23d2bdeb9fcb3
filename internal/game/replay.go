package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// Replay is a recorded game: its setup, every accepted action in order and
// the resulting event log. Games are deterministic, so the actions alone
// rebuild every intermediate state.
type Replay struct {
	GameID       string
	Config       Config
	Players      []string
	Actions      []Action
	Events       []rules.Event
	Checksum     string
	CurrentIndex int
	mu           sync.RWMutex
}

// NewReplay creates an empty replay for a game setup.
func NewReplay(gameID string, cfg Config, players []string) *Replay {
	return &Replay{
		GameID:  gameID,
		Config:  cfg,
		Players: append([]string(nil), players...),
		Actions: make([]Action, 0),
	}
}

// RecordAction appends an accepted action.
func (r *Replay) RecordAction(action Action) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Actions = append(r.Actions, action.clone())
}

// Finish stores the final event log and checksum of the recorded game.
func (r *Replay) Finish(state *State) error {
	sum, err := state.Checksum()
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Events = state.Events(0)
	r.Checksum = sum.Hash
	return nil
}

// Start rewinds playback to the beginning.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.CurrentIndex = 0
}

// Next returns the next action in playback order.
func (r *Replay) Next() (Action, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex < len(r.Actions) {
		action := r.Actions[r.CurrentIndex]
		r.CurrentIndex++
		return action, true
	}
	return Action{}, false
}

// Previous steps playback back by one action.
func (r *Replay) Previous() (Action, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.Actions[r.CurrentIndex], true
	}
	return Action{}, false
}

// Skip moves the playback cursor by count actions, clamped to the
// recording.
func (r *Replay) Skip(count int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	newIndex := r.CurrentIndex + count
	if newIndex > len(r.Actions) {
		newIndex = len(r.Actions)
	}
	if newIndex < 0 {
		newIndex = 0
	}
	r.CurrentIndex = newIndex
	return r.CurrentIndex
}

// Size returns the number of recorded actions.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.Actions)
}

// StateAt rebuilds the game after the first n actions.
func (r *Replay) StateAt(n int) (*State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n < 0 || n > len(r.Actions) {
		return nil, fmt.Errorf("action index %d out of range [0, %d]", n, len(r.Actions))
	}
	state, err := NewGame(r.Config, r.Players)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild game: %w", err)
	}
	for i, action := range r.Actions[:n] {
		if err := state.Apply(action); err != nil {
			return nil, fmt.Errorf("action %d (%s) diverged: %w", i, action, err)
		}
	}
	return state, nil
}

// Verify re-applies every action to a fresh game and compares the event
// log and final checksum with the recording.
func (r *Replay) Verify() error {
	state, err := r.StateAt(r.Size())
	if err != nil {
		return err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	events := state.Events(0)
	if len(events) != len(r.Events) {
		return fmt.Errorf("event count mismatch: recorded=%d, replayed=%d", len(r.Events), len(events))
	}
	for i := range events {
		if !sameEvent(events[i], r.Events[i]) {
			return fmt.Errorf("event %d differs: recorded=%s, replayed=%s", i, r.Events[i].Type, events[i].Type)
		}
	}
	if r.Checksum != "" {
		sum, err := state.Checksum()
		if err != nil {
			return err
		}
		if sum.Hash != r.Checksum {
			return fmt.Errorf("checksum mismatch: recorded=%s, replayed=%s", r.Checksum, sum.Hash)
		}
	}
	return nil
}

func sameEvent(a, b rules.Event) bool {
	if a.Sequence != b.Sequence || a.Turn != b.Turn || a.Type != b.Type ||
		a.PlayerID != b.PlayerID || a.TargetID != b.TargetID || a.Position != b.Position ||
		a.Amount != b.Amount || a.Flag != b.Flag || a.Data != b.Data {
		return false
	}
	if len(a.Metadata) != len(b.Metadata) {
		return false
	}
	for k, v := range a.Metadata {
		if b.Metadata[k] != v {
			return false
		}
	}
	return true
}

// replayMetadata contains information about a saved replay
type replayMetadata struct {
	GameID      string
	Timestamp   time.Time
	Version     int
	ActionCount int
}

type replayBody struct {
	Config   Config
	Players  []string
	Actions  []Action
	Events   []rules.Event
	Checksum string
}

// SaveToFile writes the replay as gzip-compressed gob to
// <directory>/<game id>.replay.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", r.GameID))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	encoder := gob.NewEncoder(gzipWriter)

	metadata := replayMetadata{
		GameID:      r.GameID,
		Timestamp:   time.Now(),
		Version:     1,
		ActionCount: len(r.Actions),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	body := replayBody{
		Config:   r.Config,
		Players:  r.Players,
		Actions:  r.Actions,
		Events:   r.Events,
		Checksum: r.Checksum,
	}
	if err := encoder.Encode(&body); err != nil {
		return fmt.Errorf("failed to encode replay: %w", err)
	}

	return nil
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(directory, gameID string) (*Replay, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", gameID))

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != 1 {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	var body replayBody
	if err := decoder.Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode replay: %w", err)
	}
	if len(body.Actions) != metadata.ActionCount {
		return nil, fmt.Errorf("replay truncated: expected %d actions, found %d", metadata.ActionCount, len(body.Actions))
	}

	replay := NewReplay(metadata.GameID, body.Config, body.Players)
	replay.Actions = append(replay.Actions, body.Actions...)
	replay.Events = body.Events
	replay.Checksum = body.Checksum
	return replay, nil
}

// ReplayRecorder manages replay recording for the engine
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay // gameID -> Replay
	enabled map[string]bool    // gameID -> whether recording is enabled
	saveDir string             // Directory to save replay files
}

// NewReplayRecorder creates a new replay recorder
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		enabled: make(map[string]bool),
		saveDir: saveDir,
	}
}

// StartRecording begins recording a game
func (rr *ReplayRecorder) StartRecording(gameID string, cfg Config, players []string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.replays[gameID] = NewReplay(gameID, cfg, players)
	rr.enabled[gameID] = true

	if rr.logger != nil {
		rr.logger.Info("started replay recording",
			zap.String("game_id", gameID),
		)
	}
}

// StopRecording stops recording a game
func (rr *ReplayRecorder) StopRecording(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.enabled[gameID] = false

	if rr.logger != nil {
		rr.logger.Info("stopped replay recording",
			zap.String("game_id", gameID),
		)
	}
}

// RecordAction records an accepted action if recording is enabled
func (rr *ReplayRecorder) RecordAction(gameID string, action Action) {
	rr.mu.RLock()
	enabled := rr.enabled[gameID]
	replay := rr.replays[gameID]
	rr.mu.RUnlock()

	if !enabled || replay == nil {
		return
	}

	replay.RecordAction(action)
}

// GetReplay returns the replay for a game
func (rr *ReplayRecorder) GetReplay(gameID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	replay, exists := rr.replays[gameID]
	return replay, exists
}

// SaveReplay finalises a replay against the game's final state, writes it
// to disk and removes it from memory.
func (rr *ReplayRecorder) SaveReplay(gameID string, state *State) error {
	rr.mu.Lock()
	replay, exists := rr.replays[gameID]
	if !exists {
		rr.mu.Unlock()
		return fmt.Errorf("no replay found for game %s", gameID)
	}
	delete(rr.replays, gameID)
	delete(rr.enabled, gameID)
	rr.mu.Unlock()

	if state != nil {
		if err := replay.Finish(state); err != nil {
			return fmt.Errorf("failed to finish replay: %w", err)
		}
	}
	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}

	if rr.logger != nil {
		rr.logger.Info("saved replay to disk",
			zap.String("game_id", gameID),
			zap.Int("action_count", replay.Size()),
			zap.String("directory", rr.saveDir),
		)
	}

	return nil
}

// LoadReplay loads a replay from disk
func (rr *ReplayRecorder) LoadReplay(gameID string) (*Replay, error) {
	replay, err := LoadReplayFromFile(rr.saveDir, gameID)
	if err != nil {
		return nil, err
	}

	if rr.logger != nil {
		rr.logger.Info("loaded replay from disk",
			zap.String("game_id", gameID),
			zap.Int("action_count", replay.Size()),
		)
	}

	return replay, nil
}

// ClearReplay removes a replay from memory without saving
func (rr *ReplayRecorder) ClearReplay(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	delete(rr.replays, gameID)
	delete(rr.enabled, gameID)

	if rr.logger != nil {
		rr.logger.Debug("cleared replay from memory",
			zap.String("game_id", gameID),
		)
	}
}

// IsRecording returns whether recording is enabled for a game
func (rr *ReplayRecorder) IsRecording(gameID string) bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	return rr.enabled[gameID]
}
