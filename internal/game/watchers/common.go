package watchers

import (
	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
)

// Watcher keys used by NewStandardRegistry.
const (
	KeyRent         = "RentWatcher"
	KeySalary       = "SalaryWatcher"
	KeyAuctions     = "AuctionsWonWatcher"
	KeyBankruptcies = "BankruptciesWatcher"
)

// RentWatcher tracks rent paid and received by players.
type RentWatcher struct {
	*rules.BaseWatcher
	paid     map[int]int // payer -> total
	received map[int]int // owner -> total
}

// NewRentWatcher creates a new rent watcher.
func NewRentWatcher() *RentWatcher {
	return &RentWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame, KeyRent),
		paid:        make(map[int]int),
		received:    make(map[int]int),
	}
}

// Watch implements the Watcher interface.
func (w *RentWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventRentPaid {
		return
	}
	w.paid[event.PlayerID] += event.Amount
	w.received[event.TargetID] += event.Amount
}

// Reset clears the watcher's state.
func (w *RentWatcher) Reset() {
	w.paid = make(map[int]int)
	w.received = make(map[int]int)
}

// Paid returns the rent a player has paid.
func (w *RentWatcher) Paid(playerID int) int {
	return w.paid[playerID]
}

// Received returns the rent a player has collected.
func (w *RentWatcher) Received(playerID int) int {
	return w.received[playerID]
}

// Total returns all rent paid in the game.
func (w *RentWatcher) Total() int {
	total := 0
	for _, amount := range w.paid {
		total += amount
	}
	return total
}

// SalaryWatcher tracks GO salary collected by players.
type SalaryWatcher struct {
	*rules.BaseWatcher
	collected map[int]int
	laps      map[int]int
}

// NewSalaryWatcher creates a new salary watcher.
func NewSalaryWatcher() *SalaryWatcher {
	return &SalaryWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame, KeySalary),
		collected:   make(map[int]int),
		laps:        make(map[int]int),
	}
}

// Watch implements the Watcher interface.
func (w *SalaryWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventSalaryCollected {
		return
	}
	w.collected[event.PlayerID] += event.Amount
	w.laps[event.PlayerID]++
}

// Reset clears the watcher's state.
func (w *SalaryWatcher) Reset() {
	w.collected = make(map[int]int)
	w.laps = make(map[int]int)
}

// Collected returns the salary a player has received.
func (w *SalaryWatcher) Collected(playerID int) int {
	return w.collected[playerID]
}

// Laps returns how many times a player passed or landed on GO.
func (w *SalaryWatcher) Laps(playerID int) int {
	return w.laps[playerID]
}

// AuctionsWonWatcher tracks auctions won and the amount spent on them.
type AuctionsWonWatcher struct {
	*rules.BaseWatcher
	won   map[int]int
	spent map[int]int
	held  int
}

// NewAuctionsWonWatcher creates a new auction watcher.
func NewAuctionsWonWatcher() *AuctionsWonWatcher {
	return &AuctionsWonWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame, KeyAuctions),
		won:         make(map[int]int),
		spent:       make(map[int]int),
	}
}

// Watch implements the Watcher interface.
func (w *AuctionsWonWatcher) Watch(event rules.Event) {
	switch event.Type {
	case rules.EventAuctionStarted:
		w.held++
	case rules.EventAuctionWon:
		w.won[event.PlayerID]++
		w.spent[event.PlayerID] += event.Amount
	}
}

// Reset clears the watcher's state.
func (w *AuctionsWonWatcher) Reset() {
	w.won = make(map[int]int)
	w.spent = make(map[int]int)
	w.held = 0
}

// Won returns the number of auctions a player won.
func (w *AuctionsWonWatcher) Won(playerID int) int {
	return w.won[playerID]
}

// Spent returns what a player paid across won auctions.
func (w *AuctionsWonWatcher) Spent(playerID int) int {
	return w.spent[playerID]
}

// Held returns the number of auctions opened.
func (w *AuctionsWonWatcher) Held() int {
	return w.held
}

// BankruptciesWatcher records eliminations in order.
type BankruptciesWatcher struct {
	*rules.BaseWatcher
	order     []int
	creditors map[int]int
	turns     map[int]int
}

// NewBankruptciesWatcher creates a new bankruptcy watcher.
func NewBankruptciesWatcher() *BankruptciesWatcher {
	return &BankruptciesWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame, KeyBankruptcies),
		creditors:   make(map[int]int),
		turns:       make(map[int]int),
	}
}

// Watch implements the Watcher interface.
func (w *BankruptciesWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventBankrupt {
		return
	}
	w.order = append(w.order, event.PlayerID)
	w.creditors[event.PlayerID] = event.TargetID
	w.turns[event.PlayerID] = event.Turn
}

// Reset clears the watcher's state.
func (w *BankruptciesWatcher) Reset() {
	w.order = nil
	w.creditors = make(map[int]int)
	w.turns = make(map[int]int)
}

// Order returns bankrupt players in elimination order.
func (w *BankruptciesWatcher) Order() []int {
	return append([]int(nil), w.order...)
}

// Count returns the number of bankruptcies.
func (w *BankruptciesWatcher) Count() int {
	return len(w.order)
}

// Creditor returns who received a bankrupt player's estate, rules.NoPlayer
// for the bank.
func (w *BankruptciesWatcher) Creditor(playerID int) (int, bool) {
	creditor, ok := w.creditors[playerID]
	return creditor, ok
}

// Turn returns the turn a player went bankrupt on.
func (w *BankruptciesWatcher) Turn(playerID int) (int, bool) {
	turn, ok := w.turns[playerID]
	return turn, ok
}

// Stats bundles the standard watchers of a game.
type Stats struct {
	Registry     *rules.WatcherRegistry
	Rent         *RentWatcher
	Salary       *SalaryWatcher
	Auctions     *AuctionsWonWatcher
	Bankruptcies *BankruptciesWatcher
}

// NewStandardRegistry registers one of each standard watcher.
func NewStandardRegistry() *Stats {
	s := &Stats{
		Registry:     rules.NewWatcherRegistry(),
		Rent:         NewRentWatcher(),
		Salary:       NewSalaryWatcher(),
		Auctions:     NewAuctionsWonWatcher(),
		Bankruptcies: NewBankruptciesWatcher(),
	}
	s.Registry.AddWatcher(s.Rent)
	s.Registry.AddWatcher(s.Salary)
	s.Registry.AddWatcher(s.Auctions)
	s.Registry.AddWatcher(s.Bankruptcies)
	return s
}
