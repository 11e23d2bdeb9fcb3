package agent

import (
	"github.com/tycoonfree/tycoon-server-go/internal/game"
	"github.com/tycoonfree/tycoon-server-go/internal/game/board"
	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
)

// Greedy thresholds.
const (
	buyAlways      = 0.20 // of cash
	buyMaybe       = 0.40 // of cash
	declinePercent = 30
	buildReserve   = 200
	bidStep        = 10
)

// Greedy buys what it can comfortably afford, builds while it keeps a
// reserve and never trades. It holds no randomness: the occasional decline
// is a fixed function of seat and position.
type Greedy struct {
	seat  int
	board *board.Board
}

// NewGreedy creates a greedy policy for a seat.
func NewGreedy(seat int) *Greedy {
	return &Greedy{seat: seat, board: board.Standard()}
}

func (g *Greedy) Name() string { return PolicyGreedy }

func (g *Greedy) Choose(snap game.Snapshot, legal []game.Action) game.Action {
	if len(legal) == 0 {
		return game.Action{}
	}
	seat := legal[0].PlayerID
	cash := cashOf(snap, seat)

	switch snap.Phase {
	case rules.PhaseAuctionActive:
		return g.auction(snap, legal, cash)
	case rules.PhaseTradePending:
		if a, ok := find(legal, game.ActionRejectTrade); ok {
			return a
		}
		if a, ok := find(legal, game.ActionCancelTrade); ok {
			return a
		}
	case rules.PhasePaymentPending:
		return g.raiseFunds(legal)
	case rules.PhaseAwaitingPurchase:
		if a, ok := find(legal, game.ActionBuyProperty); ok && g.wantsToBuy(a.Position, cash) {
			return a
		}
		if a, ok := find(legal, game.ActionDeclinePurchase); ok {
			return a
		}
	case rules.PhaseAwaitingJailDecision:
		if a, ok := find(legal, game.ActionPayJailFine); ok && cash >= a.Amount {
			return a
		}
		if a, ok := find(legal, game.ActionUseJailCard); ok {
			return a
		}
	}

	if a, ok := g.improve(legal, cash); ok {
		return a
	}
	for _, kind := range []game.ActionType{game.ActionRollDice, game.ActionPayJailFine, game.ActionEndTurn} {
		if a, ok := find(legal, kind); ok {
			return a
		}
	}
	if a, ok := Fallback(legal); ok {
		return a
	}
	return legal[0]
}

func (g *Greedy) wantsToBuy(position, cash int) bool {
	price := g.board.Space(position).Price
	switch {
	case float64(price) <= buyAlways*float64(cash):
		return true
	case float64(price) <= buyMaybe*float64(cash):
		return (g.seat*31+position*17)%100 >= declinePercent
	}
	return false
}

func (g *Greedy) auction(snap game.Snapshot, legal []game.Action, cash int) game.Action {
	if a, ok := find(legal, game.ActionBid); ok && snap.Auction != nil {
		amount := snap.Auction.CurrentBid + bidStep
		if amount <= cash/2 {
			a.Amount = amount
			return a
		}
	}
	if a, ok := find(legal, game.ActionPassAuction); ok {
		return a
	}
	return legal[0]
}

// improve builds hotels before houses, then lifts mortgages, as long as the
// reserve survives the spend.
func (g *Greedy) improve(legal []game.Action, cash int) (game.Action, bool) {
	for _, kind := range []game.ActionType{game.ActionBuildHotel, game.ActionBuildHouse} {
		for _, a := range legal {
			if a.Type == kind && cash-g.board.Space(a.Position).HouseCost >= buildReserve {
				return a, true
			}
		}
	}
	for _, a := range legal {
		if a.Type == game.ActionUnmortgage && cash-g.board.Space(a.Position).Mortgage*2 >= buildReserve*2 {
			return a, true
		}
	}
	return game.Action{}, false
}

// raiseFunds sells buildings first, then mortgages, and only then gives up.
func (g *Greedy) raiseFunds(legal []game.Action) game.Action {
	for _, kind := range []game.ActionType{game.ActionSellHotel, game.ActionSellHouse, game.ActionMortgage, game.ActionDeclareBankruptcy} {
		if a, ok := find(legal, kind); ok {
			return a
		}
	}
	return legal[0]
}
