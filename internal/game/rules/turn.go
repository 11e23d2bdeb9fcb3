package rules

import (
	"fmt"
)

// Phase is the single active step of the game state machine.
type Phase int

const (
	PhaseAwaitingRoll Phase = iota
	PhaseResolvingLanding
	PhaseAwaitingPurchase
	PhaseAuctionActive
	PhaseAwaitingJailDecision
	PhaseTradePending
	PhasePaymentPending
	PhasePostRoll
	PhaseGameOver
)

var phaseNames = map[Phase]string{
	PhaseAwaitingRoll:         "AWAITING_ROLL",
	PhaseResolvingLanding:     "RESOLVING_LANDING",
	PhaseAwaitingPurchase:     "AWAITING_PURCHASE",
	PhaseAuctionActive:        "AUCTION_ACTIVE",
	PhaseAwaitingJailDecision: "AWAITING_JAIL_DECISION",
	PhaseTradePending:         "TRADE_PENDING",
	PhasePaymentPending:       "PAYMENT_PENDING",
	PhasePostRoll:             "POST_ROLL",
	PhaseGameOver:             "GAME_OVER",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// MarshalText renders the phase name in JSON output.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", string(text))
}

// TurnManager tracks the seat rotation, the turn counter and the doubles
// streak of the current player.
type TurnManager struct {
	turnNumber    int
	seats         int
	current       int
	doublesStreak int
}

// NewTurnManager creates a manager at turn 1 with seat 0 to act.
func NewTurnManager(seats int) *TurnManager {
	return &TurnManager{
		turnNumber: 1,
		seats:      seats,
	}
}

// TurnNumber returns the current turn number (1-based).
func (tm *TurnManager) TurnNumber() int {
	return tm.turnNumber
}

// CompletedTurns returns how many turns have ended.
func (tm *TurnManager) CompletedTurns() int {
	return tm.turnNumber - 1
}

// Current returns the seat whose turn it is.
func (tm *TurnManager) Current() int {
	return tm.current
}

// DoublesStreak returns the consecutive doubles rolled this turn.
func (tm *TurnManager) DoublesStreak() int {
	return tm.doublesStreak
}

// RecordDoubles increments the doubles streak and returns the new value.
func (tm *TurnManager) RecordDoubles() int {
	tm.doublesStreak++
	return tm.doublesStreak
}

// ResetDoubles clears the doubles streak.
func (tm *TurnManager) ResetDoubles() {
	tm.doublesStreak = 0
}

// Advance passes the turn to the next seat for which skip returns false.
// It returns false when no seat can take the turn.
func (tm *TurnManager) Advance(skip func(seat int) bool) (int, bool) {
	for step := 1; step <= tm.seats; step++ {
		seat := (tm.current + step) % tm.seats
		if skip != nil && skip(seat) {
			continue
		}
		tm.current = seat
		tm.turnNumber++
		tm.doublesStreak = 0
		return seat, true
	}
	return tm.current, false
}

// Clone returns a copy of the manager.
func (tm *TurnManager) Clone() *TurnManager {
	c := *tm
	return &c
}
