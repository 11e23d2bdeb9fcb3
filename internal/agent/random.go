package agent

import (
	"math/rand/v2"

	"github.com/tycoonfree/tycoon-server-go/internal/game"
	"github.com/tycoonfree/tycoon-server-go/internal/game/board"
	"github.com/tycoonfree/tycoon-server-go/internal/game/trading"
)

const (
	rollBias    = 0.8
	endTurnBias = 0.7
	maxRaise    = 50
)

// Random plays uniformly among legal actions, nudged towards keeping the
// game moving. It is deterministic for a given seed.
type Random struct {
	rng   *rand.Rand
	board *board.Board
}

// NewRandom creates a random policy.
func NewRandom(seed uint64) *Random {
	return &Random{
		rng:   rand.New(rand.NewPCG(seed, seed^0x6a09e667f3bcc909)),
		board: board.Standard(),
	}
}

func (r *Random) Name() string { return PolicyRandom }

func (r *Random) Choose(snap game.Snapshot, legal []game.Action) game.Action {
	if len(legal) == 0 {
		return game.Action{}
	}
	if a, ok := find(legal, game.ActionRollDice); ok && r.rng.Float64() < rollBias {
		return a
	}
	if a, ok := find(legal, game.ActionEndTurn); ok && r.rng.Float64() < endTurnBias {
		return a
	}

	candidates := make([]game.Action, 0, len(legal))
	for _, a := range legal {
		if a.Type != game.ActionDeclareBankruptcy {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		return legal[0]
	}

	choice := candidates[r.rng.IntN(len(candidates))]
	switch choice.Type {
	case game.ActionBid:
		choice.Amount = r.bid(snap, choice)
	case game.ActionProposeTrade:
		choice = r.propose(snap, choice)
	}
	return choice
}

// bid raises by 1 to maxRaise over the current bid, capped by cash.
func (r *Random) bid(snap game.Snapshot, a game.Action) int {
	amount := a.Amount + r.rng.IntN(maxRaise)
	if cash := cashOf(snap, a.PlayerID); amount > cash {
		amount = cash
	}
	if amount < a.Amount {
		amount = a.Amount
	}
	return amount
}

// propose offers one unimproved property for its list price.
func (r *Random) propose(snap game.Snapshot, a game.Action) game.Action {
	p, ok := snap.Player(a.PlayerID)
	if !ok {
		return a
	}
	var offerable []game.PropertyView
	for _, prop := range p.Properties {
		if prop.Houses == 0 && !prop.Hotel {
			offerable = append(offerable, prop)
		}
	}
	if len(offerable) == 0 {
		a.Offered = &trading.Bundle{}
		a.Requested = &trading.Bundle{Cash: 1 + r.rng.IntN(maxRaise)}
		return a
	}
	prop := offerable[r.rng.IntN(len(offerable))]
	a.Offered = &trading.Bundle{Properties: []int{prop.Position}}
	a.Requested = &trading.Bundle{Cash: r.board.Space(prop.Position).Price}
	return a
}
