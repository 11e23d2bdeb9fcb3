package game

import (
	"github.com/tycoonfree/tycoon-server-go/internal/game/board"
	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
	"github.com/tycoonfree/tycoon-server-go/internal/game/trading"
	"go.uber.org/zap"
)

// Endgame reasons recorded on the GAME_OVER event.
const (
	EndLastPlayerStanding = "last player standing"
	EndTurnLimit          = "turn limit"
)

// declareBankruptcy liquidates a player in favour of the creditor of their
// first open obligation, or the bank when they owe nothing.
func (s *State) declareBankruptcy(p *Player) {
	creditor := Bank
	for _, o := range s.obligations {
		if o.Debtor == p.ID {
			creditor = o.Creditor
			break
		}
	}
	wasCurrent := p.ID == s.turns.Current()

	s.liquidateBuildings(p)

	if cash := p.Cash; cash > 0 {
		s.transfer(p.ID, creditor, cash)
		s.emitPayment(rules.EventPayment, p.ID, creditor, cash, "bankruptcy", rules.NoPosition)
	}
	p.Cash = 0

	var mortgaged []int
	for _, ps := range s.ownedBy(p.ID) {
		if creditor == Bank {
			ps.Owner = NoOwner
			ps.Mortgaged = false
			evt := rules.NewEvent(rules.EventPropertyReturned, p.ID)
			evt.Position = ps.Position
			s.emit(evt)
			continue
		}
		ps.Owner = creditor
		if ps.Mortgaged {
			mortgaged = append(mortgaged, ps.Position)
		}
		evt := rules.NewEvent(rules.EventPropertyTransferred, p.ID)
		evt.TargetID = creditor
		evt.Position = ps.Position
		evt.Flag = ps.Mortgaged
		s.emit(evt)
	}

	for _, card := range p.JailCards {
		if creditor != Bank {
			s.players[creditor].JailCards = append(s.players[creditor].JailCards, card)
			continue
		}
		s.deck(card.Deck).ReturnHeld(card)
		evt := rules.NewEvent(rules.EventJailCardReturned, p.ID)
		evt.Data = string(card.Deck)
		s.emit(evt)
	}
	p.JailCards = nil
	p.InJail = false
	p.JailTurns = 0
	p.Bankrupt = true

	kept := s.obligations[:0]
	for _, o := range s.obligations {
		if o.Debtor == p.ID {
			continue
		}
		if o.Creditor == p.ID {
			o.Creditor = Bank
		}
		kept = append(kept, o)
	}
	s.obligations = kept

	if s.auction != nil && s.auction.Active(p.ID) {
		s.passAuction(p)
	}
	if s.trade != nil && (s.trade.Proposer == p.ID || s.trade.Recipient == p.ID) {
		s.cancelTrade(p)
	}

	evt := rules.NewEvent(rules.EventBankrupt, p.ID)
	evt.TargetID = creditor
	s.emit(evt)

	if creditor != Bank {
		s.chargeTransferFees(creditor, mortgaged)
	}

	if s.checkLastStanding() {
		return
	}
	if wasCurrent {
		s.endTurn()
	}
}

// liquidateBuildings sells every building back to the bank at half cost.
func (s *State) liquidateBuildings(p *Player) {
	total := 0
	for _, ps := range s.ownedBy(p.ID) {
		if !ps.HasBuildings() {
			continue
		}
		space := s.board.Space(ps.Position)
		total += board.BuildingValue(space, ps.Level()) / 2
		if ps.Hotel {
			s.bank.ReturnHotel()
		} else {
			s.bank.ReturnHouses(ps.Houses)
		}
		ps.Hotel = false
		ps.Houses = 0
	}
	if total == 0 {
		return
	}
	p.Cash += total
	s.emit(rules.NewEventWithAmount(rules.EventBuildingsLiquidated, p.ID, total))
}

func (s *State) checkLastStanding() bool {
	active := s.activePlayers()
	if len(active) > 1 {
		return false
	}
	winner := rules.NoPlayer
	if len(active) == 1 {
		winner = active[0]
	}
	s.finish(winner, EndLastPlayerStanding)
	return true
}

// finishByNetWorth ends the game at the turn limit. Ties go to the lowest
// seat.
func (s *State) finishByNetWorth() {
	winner, best := rules.NoPlayer, 0
	for _, id := range s.activePlayers() {
		if worth := s.NetWorth(id); winner == rules.NoPlayer || worth > best {
			winner, best = id, worth
		}
	}
	s.finish(winner, EndTurnLimit)
}

func (s *State) finish(winner int, reason string) {
	s.auction = nil
	s.trade = nil
	s.pendingPurchase = rules.NoPosition
	s.winner = winner
	s.endReason = reason
	s.phase = rules.PhaseGameOver
	s.step = rules.PhaseGameOver

	evt := rules.NewEvent(rules.EventGameOver, winner)
	evt.Data = reason
	evt.Flag = reason == EndTurnLimit
	if winner != rules.NoPlayer {
		evt.Amount = s.NetWorth(winner)
	}
	s.emit(evt)

	if s.logger != nil {
		s.logger.Debug("game over",
			zap.Int("winner", winner),
			zap.String("reason", reason),
			zap.Int("turn", s.turns.TurnNumber()),
		)
	}
}

// EndReason explains how a finished game ended.
func (s *State) EndReason() string { return s.endReason }

// NetWorth is cash plus list price of unmortgaged properties, half price of
// mortgaged ones and the cost of standing buildings.
func (s *State) NetWorth(id int) int {
	p := s.player(id)
	if p == nil || p.Bankrupt {
		return 0
	}
	worth := p.Cash
	for _, ps := range s.ownedBy(id) {
		space := s.board.Space(ps.Position)
		if ps.Mortgaged {
			worth += space.Price / 2
		} else {
			worth += space.Price
		}
		worth += board.BuildingValue(space, ps.Level())
	}
	return worth
}

var _ trading.Holdings = (*State)(nil)
