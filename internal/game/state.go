package game

import (
	"fmt"
	"math/rand/v2"

	"github.com/tycoonfree/tycoon-server-go/internal/game/auction"
	"github.com/tycoonfree/tycoon-server-go/internal/game/bank"
	"github.com/tycoonfree/tycoon-server-go/internal/game/board"
	"github.com/tycoonfree/tycoon-server-go/internal/game/cards"
	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
	"github.com/tycoonfree/tycoon-server-go/internal/game/trading"
	"go.uber.org/zap"
)

// NoOwner marks an unowned property.
const NoOwner = -1

// Bank is the creditor id used for payments to the bank.
const Bank = rules.NoPlayer

// Player is one seat at the table.
type Player struct {
	ID        int
	Name      string
	Cash      int
	Position  int
	InJail    bool
	JailTurns int
	JailCards []cards.Card
	Bankrupt  bool
}

func (p *Player) clone() *Player {
	c := *p
	c.JailCards = append([]cards.Card(nil), p.JailCards...)
	return &c
}

// PropertyState is the mutable ownership record of a purchasable space.
type PropertyState struct {
	Position  int
	Owner     int
	Houses    int
	Hotel     bool
	Mortgaged bool
}

// Level is the building level: 0-4 houses, board.HotelLevel with a hotel.
func (ps *PropertyState) Level() int {
	if ps.Hotel {
		return board.HotelLevel
	}
	return ps.Houses
}

// HasBuildings reports whether the property carries a house or hotel.
func (ps *PropertyState) HasBuildings() bool {
	return ps.Hotel || ps.Houses > 0
}

// Obligation is a payment that could not be made when it fell due.
type Obligation struct {
	Debtor   int             `json:"debtor"`
	Creditor int             `json:"creditor"` // Bank for the bank
	Amount   int             `json:"amount"`
	Reason   string          `json:"reason"`
	Kind     rules.EventType `json:"kind"`
	Position int             `json:"position"`
}

// Dice is a single roll of two dice.
type Dice struct {
	D1 int `json:"d1"`
	D2 int `json:"d2"`
}

// Total is the sum of both dice.
func (d Dice) Total() int { return d.D1 + d.D2 }

// Doubles reports whether both dice show the same face.
func (d Dice) Doubles() bool { return d.D1 != 0 && d.D1 == d.D2 }

// State is the aggregate root of one game. It is not safe for concurrent
// use; the Engine serializes access.
type State struct {
	cfg    Config
	board  *board.Board
	logger *zap.Logger

	players []*Player
	props   map[int]*PropertyState
	bank    *bank.Bank
	chance  *cards.Deck
	chest   *cards.Deck

	pcg *rand.PCG
	rng *rand.Rand

	turns *rules.TurnManager
	phase rules.Phase
	// step is the phase the current turn returns to once no auction, trade,
	// purchase offer or obligation is open.
	step            rules.Phase
	pendingPurchase int
	auction         *auction.Auction
	trade           *trading.Offer
	nextTradeID     int
	obligations     []Obligation

	lastRoll Dice
	rigged   []int

	log       *rules.EventLog
	winner    int
	endReason string
}

// Option customises a new State.
type Option func(*State)

// WithLogger attaches a logger for phase transitions and rollbacks.
func WithLogger(logger *zap.Logger) Option {
	return func(s *State) {
		s.logger = logger
	}
}

// NewGame creates a game for the named players in seat order.
func NewGame(cfg Config, names []string, opts ...Option) (*State, error) {
	if err := cfg.Validate(len(names)); err != nil {
		return nil, err
	}
	for i, name := range names {
		if name == "" {
			return nil, &ConfigError{Field: "players", Reason: fmt.Sprintf("player %d has no name", i)}
		}
	}

	pcg := rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)
	rng := rand.New(pcg)
	b := board.Standard()

	s := &State{
		cfg:             cfg,
		board:           b,
		props:           make(map[int]*PropertyState),
		bank:            bank.New(cfg.HouseLimit, cfg.HotelLimit),
		pcg:             pcg,
		rng:             rng,
		turns:           rules.NewTurnManager(len(names)),
		phase:           rules.PhaseAwaitingRoll,
		step:            rules.PhaseAwaitingRoll,
		pendingPurchase: rules.NoPosition,
		nextTradeID:     1,
		log:             rules.NewEventLog(),
		winner:          rules.NoPlayer,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.chance = cards.NewStandardDeck(cards.DeckChance, rng)
	s.chest = cards.NewStandardDeck(cards.DeckCommunityChest, rng)

	for i, name := range names {
		s.players = append(s.players, &Player{ID: i, Name: name, Cash: cfg.StartingCash})
	}
	for _, pos := range b.Purchasable() {
		s.props[pos] = &PropertyState{Position: pos, Owner: NoOwner}
	}

	evt := rules.NewEventWithAmount(rules.EventGameStarted, rules.NoPlayer, len(names))
	evt.Metadata = map[string]string{"seed": fmt.Sprint(cfg.Seed)}
	s.emit(evt)
	s.emit(rules.NewEvent(rules.EventTurnStarted, 0))
	return s, nil
}

// Config returns the rules the game was created with.
func (s *State) Config() Config { return s.cfg }

// Board returns the static board.
func (s *State) Board() *board.Board { return s.board }

// Phase returns the active phase.
func (s *State) Phase() rules.Phase { return s.phase }

// CurrentPlayer returns the seat whose turn it is.
func (s *State) CurrentPlayer() int { return s.turns.Current() }

// TurnNumber returns the turn counter, starting at 1.
func (s *State) TurnNumber() int { return s.turns.TurnNumber() }

// LastRoll returns the most recent dice roll.
func (s *State) LastRoll() Dice { return s.lastRoll }

// PlayerCount returns the number of seats, bankrupt or not.
func (s *State) PlayerCount() int { return len(s.players) }

// IsOver reports whether the game has finished.
func (s *State) IsOver() bool { return s.phase == rules.PhaseGameOver }

// Winner returns the winning seat once the game is over.
func (s *State) Winner() (int, bool) {
	if s.phase != rules.PhaseGameOver || s.winner == rules.NoPlayer {
		return rules.NoPlayer, false
	}
	return s.winner, true
}

// Events returns the event log from sequence since onward.
func (s *State) Events(since int) []rules.Event {
	return s.log.Since(since)
}

// EventCount is the length of the event log.
func (s *State) EventCount() int { return s.log.Len() }

// Player returns a copy of a player's state.
func (s *State) Player(id int) (Player, error) {
	p := s.player(id)
	if p == nil {
		return Player{}, fmt.Errorf("seat %d: %w", id, ErrPlayerNotFound)
	}
	return *p.clone(), nil
}

// Property returns a copy of the ownership record at a position.
func (s *State) Property(position int) (PropertyState, bool) {
	ps, ok := s.props[position]
	if !ok {
		return PropertyState{}, false
	}
	return *ps, true
}

// Obligations returns the open payments in queue order.
func (s *State) Obligations() []Obligation {
	return append([]Obligation(nil), s.obligations...)
}

// BankHouses and BankHotels report the remaining building inventory.
func (s *State) BankHouses() int { return s.bank.Houses }
func (s *State) BankHotels() int { return s.bank.Hotels }

func (s *State) player(id int) *Player {
	if id < 0 || id >= len(s.players) {
		return nil
	}
	return s.players[id]
}

func (s *State) current() *Player {
	return s.players[s.turns.Current()]
}

func (s *State) activePlayers() []int {
	out := make([]int, 0, len(s.players))
	for _, p := range s.players {
		if !p.Bankrupt {
			out = append(out, p.ID)
		}
	}
	return out
}

func (s *State) ownedBy(id int) []*PropertyState {
	var out []*PropertyState
	for _, pos := range s.board.Purchasable() {
		if ps := s.props[pos]; ps.Owner == id {
			out = append(out, ps)
		}
	}
	return out
}

func (s *State) groupStates(color board.Color) []*PropertyState {
	positions := s.board.Group(color)
	out := make([]*PropertyState, 0, len(positions))
	for _, pos := range positions {
		out = append(out, s.props[pos])
	}
	return out
}

func (s *State) emit(evt rules.Event) rules.Event {
	evt.Turn = s.turns.TurnNumber()
	return s.log.Append(evt)
}

// trading.Holdings

// IsActivePlayer reports whether the seat exists and is not bankrupt.
func (s *State) IsActivePlayer(id int) bool {
	p := s.player(id)
	return p != nil && !p.Bankrupt
}

// Cash returns a player's cash, or 0 for unknown seats.
func (s *State) Cash(id int) int {
	if p := s.player(id); p != nil {
		return p.Cash
	}
	return 0
}

// JailCards returns how many release cards a player holds.
func (s *State) JailCards(id int) int {
	if p := s.player(id); p != nil {
		return len(p.JailCards)
	}
	return 0
}

// Owner returns the owner of an owned purchasable position.
func (s *State) Owner(position int) (int, bool) {
	ps, ok := s.props[position]
	if !ok || ps.Owner == NoOwner {
		return NoOwner, false
	}
	return ps.Owner, true
}

// GroupHasBuildings reports whether any property in the position's color
// group carries a building.
func (s *State) GroupHasBuildings(position int) bool {
	space := s.board.Space(position)
	if space.Kind != board.KindProperty {
		return false
	}
	for _, ps := range s.groupStates(space.Group) {
		if ps.HasBuildings() {
			return true
		}
	}
	return false
}

// Scenario setup. These bypass the dispatcher and are meant for tests and
// seeded exhibitions only.

// RigDice queues die faces consumed by the next rolls before the generator.
func (s *State) RigDice(faces ...int) {
	s.rigged = append(s.rigged, faces...)
}

// SetCash overwrites a player's cash.
func (s *State) SetCash(id, cash int) {
	if p := s.player(id); p != nil {
		p.Cash = cash
	}
}

// SetPosition moves a token without resolving the landing.
func (s *State) SetPosition(id, position int) {
	if p := s.player(id); p != nil {
		p.Position = ((position % board.Size) + board.Size) % board.Size
	}
}

// SetOwner assigns a purchasable position to a player, or NoOwner.
func (s *State) SetOwner(position, owner int) {
	if ps, ok := s.props[position]; ok {
		ps.Owner = owner
	}
}

// SetMortgaged sets the mortgage flag of a property.
func (s *State) SetMortgaged(position int, mortgaged bool) {
	if ps, ok := s.props[position]; ok {
		ps.Mortgaged = mortgaged
	}
}

// SetHouses places houses on a property, drawing them from the bank.
func (s *State) SetHouses(position, houses int) error {
	ps, ok := s.props[position]
	if !ok {
		return fmt.Errorf("position %d is not purchasable", position)
	}
	s.bank.ReturnHouses(ps.Houses)
	if err := s.bank.TakeHouses(houses); err != nil {
		s.bank.Houses -= ps.Houses
		return err
	}
	ps.Houses = houses
	return nil
}

// StackCard moves a card to the top of a deck's draw pile.
func (s *State) StackCard(kind cards.DeckKind, id int) bool {
	return s.deck(kind).StackTop(id)
}

func (s *State) deck(kind cards.DeckKind) *cards.Deck {
	if kind == cards.DeckChance {
		return s.chance
	}
	return s.chest
}

// bookmark captures the state for rollback. The event log is append-only, so
// it is shared and only its length is recorded.
type bookmark struct {
	state  *State
	events int
}

func (s *State) bookmark() bookmark {
	return bookmark{state: s.clone(), events: s.log.Len()}
}

// clone returns a deep copy of everything but the event log, which the copy
// shares with the receiver.
func (s *State) clone() *State {
	c := *s
	c.players = make([]*Player, len(s.players))
	for i, p := range s.players {
		c.players[i] = p.clone()
	}
	c.props = make(map[int]*PropertyState, len(s.props))
	for pos, ps := range s.props {
		copied := *ps
		c.props[pos] = &copied
	}
	c.bank = s.bank.Clone()
	c.chance = s.chance.Clone()
	c.chest = s.chest.Clone()
	pcg := *s.pcg
	c.pcg = &pcg
	c.rng = rand.New(c.pcg)
	c.turns = s.turns.Clone()
	if s.auction != nil {
		c.auction = s.auction.Clone()
	}
	c.trade = s.trade.Clone()
	c.obligations = append([]Obligation(nil), s.obligations...)
	c.rigged = append([]int(nil), s.rigged...)
	return &c
}

// restore replaces the receiver's contents with a bookmark and drops any
// events appended since it was taken.
func (s *State) restore(b bookmark) {
	logger := s.logger
	*s = *b.state
	s.logger = logger
	s.log.Truncate(b.events)
}
