// Package tournament runs series of seeded games between automated policies
// and keeps standings across them.
package tournament

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tycoonfree/tycoon-server-go/internal/agent"
	"github.com/tycoonfree/tycoon-server-go/internal/game"
	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
	"github.com/tycoonfree/tycoon-server-go/internal/game/watchers"
)

// SeriesState represents the state of a series
type SeriesState int

const (
	SeriesStateWaiting SeriesState = iota
	SeriesStateInProgress
	SeriesStateFinished
)

func (s SeriesState) String() string {
	switch s {
	case SeriesStateWaiting:
		return "WAITING"
	case SeriesStateInProgress:
		return "IN_PROGRESS"
	case SeriesStateFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// EndMaxActions is the end reason recorded when a game hits the action guard.
const EndMaxActions = "max_actions"

// Points awarded per game.
const (
	PointsWin  = 3
	PointsDraw = 1
)

var (
	ErrSeriesNotFound = errors.New("series not found")
	ErrSeriesStarted  = errors.New("series already started")
)

// Options describe a series.
type Options struct {
	Name       string
	Policies   []string // assigned to participants round-robin
	Players    int      // seats per game
	Games      int
	Seed       uint64 // game n uses Seed+n
	MaxActions int    // 0 means unlimited
	Rules      game.Config
}

// Player is one participant and its running totals.
type Player struct {
	Name          string
	Policy        string
	Points        int
	Wins          int
	Losses        int
	Draws         int
	Eliminations  int
	Games         int
	NetWorthTotal int
	RentPaid      int
	RentReceived  int
	Salary        int
	AuctionsWon   int
}

// AverageNetWorth is the mean final net worth over finished games.
func (p *Player) AverageNetWorth() float64 {
	if p.Games == 0 {
		return 0
	}
	return float64(p.NetWorthTotal) / float64(p.Games)
}

// GameResult records one finished game of a series.
type GameResult struct {
	Number   int
	GameID   string
	Seed     uint64
	Winner   string // empty on a draw
	Draw     bool
	Leader   string // richest surviving participant on a draw
	Reason   string
	Turns    int
	Actions  int
	Seating  []string // participant name per seat
	NetWorth map[string]int
	Bankrupt []string // in elimination order
}

// PlayerSnapshot is a copy of a participant's standing.
type PlayerSnapshot struct {
	Name            string  `json:"name"`
	Policy          string  `json:"policy"`
	Points          int     `json:"points"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	Draws           int     `json:"draws"`
	Eliminations    int     `json:"eliminations"`
	Games           int     `json:"games"`
	AverageNetWorth float64 `json:"average_net_worth"`
	RentPaid        int     `json:"rent_paid"`
	RentReceived    int     `json:"rent_received"`
	Salary          int     `json:"salary"`
	AuctionsWon     int     `json:"auctions_won"`
}

// SeriesSnapshot is a consistent copy of a series.
type SeriesSnapshot struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	State      SeriesState      `json:"state"`
	Games      int              `json:"games"`
	Played     int              `json:"played"`
	Standings  []PlayerSnapshot `json:"standings"`
	Results    []GameResult     `json:"results"`
	CreateTime time.Time        `json:"create_time"`
	StartTime  *time.Time       `json:"start_time,omitempty"`
	EndTime    *time.Time       `json:"end_time,omitempty"`
}

// Series is a fixed number of games between the same participants. Seats
// rotate by one every game.
type Series struct {
	ID          string
	Name        string
	Options     Options
	State       SeriesState
	Players     map[string]*Player
	PlayerOrder []string
	Results     []*GameResult
	CreateTime  time.Time
	StartTime   *time.Time
	EndTime     *time.Time

	mu sync.RWMutex
}

// NewSeries creates a series after validating its options.
func NewSeries(opts Options) (*Series, error) {
	if opts.Games <= 0 {
		return nil, errors.New("games must be positive")
	}
	if opts.MaxActions < 0 {
		return nil, errors.New("max actions must not be negative")
	}
	if len(opts.Policies) == 0 {
		return nil, errors.New("at least one policy is required")
	}
	if err := opts.Rules.Validate(opts.Players); err != nil {
		return nil, err
	}
	for _, name := range opts.Policies {
		if _, err := agent.New(name, 0, 0); err != nil {
			return nil, err
		}
	}

	s := &Series{
		ID:         uuid.New().String(),
		Name:       opts.Name,
		Options:    opts,
		State:      SeriesStateWaiting,
		Players:    make(map[string]*Player),
		CreateTime: time.Now(),
	}
	s.Options.Policies = append([]string(nil), opts.Policies...)
	for i := 0; i < opts.Players; i++ {
		policy := opts.Policies[i%len(opts.Policies)]
		name := fmt.Sprintf("%s-%d", policy, i+1)
		s.Players[name] = &Player{Name: name, Policy: policy}
		s.PlayerOrder = append(s.PlayerOrder, name)
	}
	return s, nil
}

// Seating returns the participant at each seat for game number n.
func (s *Series) Seating(n int) []string {
	count := len(s.PlayerOrder)
	seating := make([]string, count)
	for seat := range seating {
		seating[seat] = s.PlayerOrder[(seat+n)%count]
	}
	return seating
}

// SetState sets the series state
func (s *Series) SetState(state SeriesState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setState(state)
}

func (s *Series) setState(state SeriesState) {
	s.State = state

	if state == SeriesStateInProgress && s.StartTime == nil {
		now := time.Now()
		s.StartTime = &now
	} else if state == SeriesStateFinished {
		now := time.Now()
		s.EndTime = &now
	}
}

// GetState returns the current series state
func (s *Series) GetState() SeriesState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.State
}

// GetPlayerCount returns the number of participants
func (s *Series) GetPlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Players)
}

// Played returns the number of recorded games.
func (s *Series) Played() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Results)
}

// Start moves a waiting series into progress.
func (s *Series) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State != SeriesStateWaiting {
		return ErrSeriesStarted
	}
	s.setState(SeriesStateInProgress)
	return nil
}

// RecordGameResult folds a finished game into the standings. A winner
// earns PointsWin and every other participant a loss. On a draw every
// participant who was not eliminated earns PointsDraw. The draw's Leader is
// informational only.
func (s *Series) RecordGameResult(result *GameResult, stats *watchers.Stats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State != SeriesStateInProgress {
		return fmt.Errorf("series %s is %s", s.ID, s.State)
	}
	if len(result.Seating) != len(s.PlayerOrder) {
		return fmt.Errorf("result seats %d participants, series has %d", len(result.Seating), len(s.PlayerOrder))
	}

	eliminated := make(map[string]bool, len(result.Bankrupt))
	for _, name := range result.Bankrupt {
		eliminated[name] = true
	}

	for seat, name := range result.Seating {
		player, ok := s.Players[name]
		if !ok {
			return fmt.Errorf("participant %q not in series", name)
		}
		player.Games++
		player.NetWorthTotal += result.NetWorth[name]
		if eliminated[name] {
			player.Eliminations++
		}

		switch {
		case result.Draw:
			if !eliminated[name] {
				player.Draws++
				player.Points += PointsDraw
			} else {
				player.Losses++
			}
		case result.Winner == name:
			player.Wins++
			player.Points += PointsWin
		default:
			player.Losses++
		}

		if stats != nil {
			player.RentPaid += stats.Rent.Paid(seat)
			player.RentReceived += stats.Rent.Received(seat)
			player.Salary += stats.Salary.Collected(seat)
			player.AuctionsWon += stats.Auctions.Won(seat)
		}
	}

	s.Results = append(s.Results, result)
	if len(s.Results) >= s.Options.Games {
		s.setState(SeriesStateFinished)
	}
	return nil
}

// Standings returns participants ordered by points, then wins, then
// average net worth, then name.
func (s *Series) Standings() []PlayerSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.standings()
}

func (s *Series) standings() []PlayerSnapshot {
	out := make([]PlayerSnapshot, 0, len(s.PlayerOrder))
	for _, name := range s.PlayerOrder {
		p := s.Players[name]
		out = append(out, PlayerSnapshot{
			Name:            p.Name,
			Policy:          p.Policy,
			Points:          p.Points,
			Wins:            p.Wins,
			Losses:          p.Losses,
			Draws:           p.Draws,
			Eliminations:    p.Eliminations,
			Games:           p.Games,
			AverageNetWorth: p.AverageNetWorth(),
			RentPaid:        p.RentPaid,
			RentReceived:    p.RentReceived,
			Salary:          p.Salary,
			AuctionsWon:     p.AuctionsWon,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.AverageNetWorth != b.AverageNetWorth {
			return a.AverageNetWorth > b.AverageNetWorth
		}
		return a.Name < b.Name
	})
	return out
}

// Snapshot returns a consistent copy of the series state.
func (s *Series) Snapshot() SeriesSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]GameResult, 0, len(s.Results))
	for _, r := range s.Results {
		cp := *r
		cp.Seating = append([]string(nil), r.Seating...)
		cp.Bankrupt = append([]string(nil), r.Bankrupt...)
		cp.NetWorth = make(map[string]int, len(r.NetWorth))
		for k, v := range r.NetWorth {
			cp.NetWorth[k] = v
		}
		results = append(results, cp)
	}

	return SeriesSnapshot{
		ID:         s.ID,
		Name:       s.Name,
		State:      s.State,
		Games:      s.Options.Games,
		Played:     len(s.Results),
		Standings:  s.standings(),
		Results:    results,
		CreateTime: s.CreateTime,
		StartTime:  cloneTime(s.StartTime),
		EndTime:    cloneTime(s.EndTime),
	}
}

func cloneTime(src *time.Time) *time.Time {
	if src == nil {
		return nil
	}
	cp := *src
	return &cp
}

// Manager manages series and plays their games on a shared engine.
type Manager struct {
	series map[string]*Series
	mu     sync.RWMutex
	engine *game.Engine
	logger *zap.Logger
}

// NewManager creates a new series manager
func NewManager(engine *game.Engine, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = game.NewEngine(logger)
	}
	return &Manager{
		series: make(map[string]*Series),
		engine: engine,
		logger: logger,
	}
}

// CreateSeries creates a new series
func (m *Manager) CreateSeries(opts Options) (*Series, error) {
	series, err := NewSeries(opts)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.series[series.ID] = series
	m.mu.Unlock()

	m.logger.Info("series created",
		zap.String("series_id", series.ID),
		zap.String("name", opts.Name),
		zap.Strings("policies", opts.Policies),
		zap.Int("players", opts.Players),
		zap.Int("games", opts.Games),
	)
	return series, nil
}

// GetSeries retrieves a series by ID
func (m *Manager) GetSeries(seriesID string) (*Series, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	series, ok := m.series[seriesID]
	return series, ok
}

// RemoveSeries removes a series
func (m *Manager) RemoveSeries(seriesID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.series, seriesID)

	m.logger.Info("series removed", zap.String("series_id", seriesID))
}

// GetAllSeries returns all series
func (m *Manager) GetAllSeries() []*Series {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*Series, 0, len(m.series))
	for _, series := range m.series {
		all = append(all, series)
	}
	return all
}

// GetActiveSeriesCount returns the count of unfinished series
func (m *Manager) GetActiveSeriesCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, series := range m.series {
		if series.GetState() != SeriesStateFinished {
			count++
		}
	}
	return count
}

// Run plays every game of a series in order. It stops between actions when
// ctx is cancelled; games already recorded stay in the standings.
func (m *Manager) Run(ctx context.Context, seriesID string) error {
	series, ok := m.GetSeries(seriesID)
	if !ok {
		return fmt.Errorf("series %s: %w", seriesID, ErrSeriesNotFound)
	}
	if err := series.Start(); err != nil {
		return err
	}

	for n := 0; n < series.Options.Games; n++ {
		result, stats, err := m.playGame(ctx, series, n)
		if err != nil {
			return fmt.Errorf("series %s game %d: %w", seriesID, n, err)
		}
		if err := series.RecordGameResult(result, stats); err != nil {
			return err
		}
		m.logger.Info("series game finished",
			zap.String("series_id", seriesID),
			zap.Int("game", n),
			zap.String("winner", result.Winner),
			zap.Bool("draw", result.Draw),
			zap.String("reason", result.Reason),
			zap.Int("turns", result.Turns),
			zap.Int("actions", result.Actions),
		)
	}

	m.logger.Info("series finished",
		zap.String("series_id", seriesID),
		zap.Int("games", series.Played()),
	)
	return nil
}

func (m *Manager) playGame(ctx context.Context, series *Series, n int) (*GameResult, *watchers.Stats, error) {
	opts := series.Options
	seating := series.Seating(n)
	cfg := opts.Rules
	cfg.Seed = opts.Seed + uint64(n)

	policies := make([]agent.Policy, len(seating))
	for seat, name := range seating {
		policy, err := agent.New(series.Players[name].Policy, seat, cfg.Seed)
		if err != nil {
			return nil, nil, err
		}
		policies[seat] = policy
	}

	gameID := fmt.Sprintf("%s-%03d", series.ID, n)
	if err := m.engine.StartGame(gameID, cfg, seating); err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := m.engine.CleanupGame(gameID); err != nil {
			m.logger.Warn("failed to clean up game", zap.String("game_id", gameID), zap.Error(err))
		}
	}()

	// Nothing has acted yet, so the backlog plus the subscription covers
	// every event exactly once.
	stats := watchers.NewStandardRegistry()
	backlog, err := m.engine.Events(gameID, 0)
	if err != nil {
		return nil, nil, err
	}
	for _, evt := range backlog {
		stats.Registry.Watch(evt)
	}
	if _, err := m.engine.Subscribe(gameID, stats.Registry.Watch); err != nil {
		return nil, nil, err
	}

	actions := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		status, err := m.engine.Status(gameID)
		if err != nil {
			return nil, nil, err
		}
		if status.Over || (opts.MaxActions > 0 && actions >= opts.MaxActions) {
			break
		}

		seat, legal, err := m.nextSeat(gameID, status.Actor, len(seating))
		if err != nil {
			return nil, nil, err
		}
		if len(legal) == 0 {
			return nil, nil, fmt.Errorf("game %s stalled in %s", gameID, status.Phase)
		}

		snap, err := m.engine.Snapshot(gameID)
		if err != nil {
			return nil, nil, err
		}
		choice := policies[seat].Choose(snap, legal)
		if err := m.engine.ProcessAction(gameID, choice); err != nil {
			var rejection *game.RejectionError
			if !errors.As(err, &rejection) {
				return nil, nil, err
			}
			fallback, _ := agent.Fallback(legal)
			m.logger.Debug("policy choice rejected",
				zap.String("game_id", gameID),
				zap.String("policy", policies[seat].Name()),
				zap.String("action", choice.String()),
				zap.String("fallback", fallback.String()),
			)
			if err := m.engine.ProcessAction(gameID, fallback); err != nil {
				return nil, nil, fmt.Errorf("fallback %s: %w", fallback, err)
			}
		}
		actions++
	}

	snap, err := m.engine.Snapshot(gameID)
	if err != nil {
		return nil, nil, err
	}
	return buildResult(gameID, n, cfg.Seed, seating, snap, stats, actions), stats, nil
}

// nextSeat picks whoever must act; during an auction that is the first
// seat with a legal action.
func (m *Manager) nextSeat(gameID string, actor, seats int) (int, []game.Action, error) {
	if actor != rules.NoPlayer {
		legal, err := m.engine.LegalActions(gameID, actor)
		return actor, legal, err
	}
	for seat := 0; seat < seats; seat++ {
		legal, err := m.engine.LegalActions(gameID, seat)
		if err != nil {
			return 0, nil, err
		}
		if len(legal) > 0 {
			return seat, legal, nil
		}
	}
	return rules.NoPlayer, nil, nil
}

func buildResult(gameID string, n int, seed uint64, seating []string, snap game.Snapshot, stats *watchers.Stats, actions int) *GameResult {
	result := &GameResult{
		Number:   n,
		GameID:   gameID,
		Seed:     seed,
		Turns:    snap.Turn,
		Actions:  actions,
		Seating:  seating,
		NetWorth: make(map[string]int, len(seating)),
	}
	for _, p := range snap.Players {
		result.NetWorth[seating[p.ID]] = p.NetWorth
	}
	for _, seat := range stats.Bankruptcies.Order() {
		result.Bankrupt = append(result.Bankrupt, seating[seat])
	}

	if snap.Phase == rules.PhaseGameOver {
		result.Reason = snap.EndReason
		if snap.Winner != rules.NoPlayer {
			result.Winner = seating[snap.Winner]
		}
		return result
	}

	result.Draw = true
	result.Reason = EndMaxActions
	best := 0
	for _, p := range snap.Players {
		if p.Bankrupt {
			continue
		}
		if result.Leader == "" || p.NetWorth > best {
			result.Leader, best = seating[p.ID], p.NetWorth
		}
	}
	return result
}
