package game

import (
	"errors"

	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// LegalActions enumerates what a player may do right now, in a fixed order:
// phase actions first, then property management by ascending position,
// trade proposals by seat, and bankruptcy last. It does not mutate state.
func (s *State) LegalActions(playerID int) []Action {
	out := []Action{}
	p := s.player(playerID)
	if p == nil || p.Bankrupt || s.phase == rules.PhaseGameOver {
		return out
	}

	switch s.phase {
	case rules.PhaseAuctionActive:
		a := s.auction
		if a == nil || !a.Active(p.ID) {
			return out
		}
		if a.CanBid(p.ID) && p.Cash >= a.MinBid() {
			out = append(out, Action{Type: ActionBid, PlayerID: p.ID, Position: a.Position, Amount: a.MinBid()})
		}
		return append(out, Action{Type: ActionPassAuction, PlayerID: p.ID, Position: a.Position})

	case rules.PhaseTradePending:
		t := s.trade
		switch p.ID {
		case t.Recipient:
			out = append(out,
				Action{Type: ActionAcceptTrade, PlayerID: p.ID, TradeID: t.ID},
				Action{Type: ActionRejectTrade, PlayerID: p.ID, TradeID: t.ID},
			)
		case t.Proposer:
			out = append(out, Action{Type: ActionCancelTrade, PlayerID: p.ID, TradeID: t.ID})
		}
		return out

	case rules.PhasePaymentPending:
		o, ok := s.debtor()
		if !ok || o.Debtor != p.ID {
			return out
		}
		out = s.appendRaiseFunds(out, p)
		return append(out, Action{Type: ActionDeclareBankruptcy, PlayerID: p.ID})
	}

	if p.ID != s.turns.Current() {
		return out
	}

	switch s.phase {
	case rules.PhaseAwaitingPurchase:
		pos := s.pendingPurchase
		if p.Cash >= s.board.Space(pos).Price {
			out = append(out, Action{Type: ActionBuyProperty, PlayerID: p.ID, Position: pos})
		}
		return append(out, Action{Type: ActionDeclinePurchase, PlayerID: p.ID, Position: pos})

	case rules.PhaseAwaitingRoll:
		out = append(out, Action{Type: ActionRollDice, PlayerID: p.ID})

	case rules.PhaseAwaitingJailDecision:
		if p.JailTurns < s.cfg.MaxJailTurns {
			out = append(out, Action{Type: ActionRollDice, PlayerID: p.ID})
		}
		if p.Cash >= s.cfg.JailFine || p.JailTurns >= s.cfg.MaxJailTurns {
			out = append(out, Action{Type: ActionPayJailFine, PlayerID: p.ID, Amount: s.cfg.JailFine})
		}
		if len(p.JailCards) > 0 {
			out = append(out, Action{Type: ActionUseJailCard, PlayerID: p.ID})
		}

	case rules.PhasePostRoll:
		out = append(out, Action{Type: ActionEndTurn, PlayerID: p.ID})

	default:
		return out
	}

	out = s.appendManagement(out, p)
	for _, other := range s.activePlayers() {
		if other != p.ID {
			out = append(out, Action{Type: ActionProposeTrade, PlayerID: p.ID, Target: other})
		}
	}
	return append(out, Action{Type: ActionDeclareBankruptcy, PlayerID: p.ID})
}

// appendManagement lists building and mortgage actions on the player's
// properties.
func (s *State) appendManagement(out []Action, p *Player) []Action {
	for _, ps := range s.ownedBy(p.ID) {
		pos := ps.Position
		if s.canBuildHouse(p.ID, pos).Legal {
			out = append(out, Action{Type: ActionBuildHouse, PlayerID: p.ID, Position: pos})
		}
		if s.canBuildHotel(p.ID, pos).Legal {
			out = append(out, Action{Type: ActionBuildHotel, PlayerID: p.ID, Position: pos})
		}
		if s.canSellHouse(p.ID, pos).Legal {
			out = append(out, Action{Type: ActionSellHouse, PlayerID: p.ID, Position: pos})
		}
		if s.canSellHotel(p.ID, pos).Legal {
			out = append(out, Action{Type: ActionSellHotel, PlayerID: p.ID, Position: pos})
		}
		if s.canMortgage(p.ID, pos).Legal {
			out = append(out, Action{Type: ActionMortgage, PlayerID: p.ID, Position: pos})
		}
		if s.canUnmortgage(p.ID, pos).Legal {
			out = append(out, Action{Type: ActionUnmortgage, PlayerID: p.ID, Position: pos})
		}
	}
	return out
}

// appendRaiseFunds lists the sales and mortgages open to a debtor.
func (s *State) appendRaiseFunds(out []Action, p *Player) []Action {
	for _, ps := range s.ownedBy(p.ID) {
		pos := ps.Position
		if s.canSellHotel(p.ID, pos).Legal {
			out = append(out, Action{Type: ActionSellHotel, PlayerID: p.ID, Position: pos})
		}
		if s.canSellHouse(p.ID, pos).Legal {
			out = append(out, Action{Type: ActionSellHouse, PlayerID: p.ID, Position: pos})
		}
		if s.canMortgage(p.ID, pos).Legal {
			out = append(out, Action{Type: ActionMortgage, PlayerID: p.ID, Position: pos})
		}
	}
	return out
}

// Check explains why an action would be rejected without applying it.
func (s *State) Check(action Action) rules.LegalityResult {
	if s.phase == rules.PhaseGameOver {
		return rules.Illegal(rules.ReasonGameOver)
	}
	p := s.player(action.PlayerID)
	if p == nil {
		return rules.Illegal(rules.ReasonUnknownPlayer, "player", action.PlayerID)
	}
	if p.Bankrupt {
		return rules.Illegal(rules.ReasonPlayerBankrupt, "player", action.PlayerID)
	}
	for _, legal := range s.LegalActions(action.PlayerID) {
		if legal.Matches(action) {
			return rules.Legal()
		}
	}
	if res := s.explain(action); !res.Legal {
		return res
	}
	return rules.Illegal(rules.ReasonNotLegal, "phase", s.phase.String())
}

// explain produces the specific reason for a rejected property action.
func (s *State) explain(action Action) rules.LegalityResult {
	switch action.Type {
	case ActionBuildHouse:
		return s.canBuildHouse(action.PlayerID, action.Position)
	case ActionBuildHotel:
		return s.canBuildHotel(action.PlayerID, action.Position)
	case ActionSellHouse:
		return s.canSellHouse(action.PlayerID, action.Position)
	case ActionSellHotel:
		return s.canSellHotel(action.PlayerID, action.Position)
	case ActionMortgage:
		return s.canMortgage(action.PlayerID, action.Position)
	case ActionUnmortgage:
		return s.canUnmortgage(action.PlayerID, action.Position)
	}
	return rules.Legal()
}

// Apply validates an action against LegalActions and executes it. The state
// is bookmarked first; any failure restores it exactly, generator included,
// and returns a *RejectionError.
func (s *State) Apply(action Action) error {
	if res := s.Check(action); !res.Legal {
		return reject(action, res.Reason, res.Details)
	}

	before := s.phase
	mark := s.bookmark()
	if err := s.execute(action); err != nil {
		s.restore(mark)
		if s.logger != nil {
			s.logger.Warn("action failed, state restored",
				zap.String("action", action.String()),
				zap.Error(err),
			)
		}
		var rejection *RejectionError
		if errors.As(err, &rejection) {
			return rejection
		}
		return reject(action, err.Error(), nil)
	}
	s.settle(before)
	return nil
}

func (s *State) execute(action Action) error {
	p := s.players[action.PlayerID]
	switch action.Type {
	case ActionRollDice:
		if p.InJail {
			s.jailRoll(p)
		} else {
			s.roll(p)
		}
	case ActionBuyProperty:
		s.buy(p)
	case ActionDeclinePurchase:
		s.decline(p)
	case ActionEndTurn:
		s.endTurn()
	case ActionBid:
		s.placeBid(p, action.Amount)
	case ActionPassAuction:
		s.passAuction(p)
	case ActionBuildHouse:
		return s.buildHouse(p, action.Position)
	case ActionBuildHotel:
		return s.buildHotel(p, action.Position)
	case ActionSellHouse:
		s.sellHouse(p, action.Position)
	case ActionSellHotel:
		return s.sellHotel(p, action.Position)
	case ActionMortgage:
		s.mortgage(p, action.Position)
	case ActionUnmortgage:
		s.unmortgage(p, action.Position)
	case ActionPayJailFine:
		s.release(p, "fine")
		s.charge(p.ID, Bank, s.cfg.JailFine, rules.EventPayment, "jail fine", rules.NoPosition)
		s.step = rules.PhaseAwaitingRoll
	case ActionUseJailCard:
		card := p.JailCards[0]
		p.JailCards = p.JailCards[1:]
		s.deck(card.Deck).ReturnHeld(card)
		evt := rules.NewEvent(rules.EventJailCardReturned, p.ID)
		evt.Data = string(card.Deck)
		s.emit(evt)
		s.release(p, "card")
		s.step = rules.PhaseAwaitingRoll
	case ActionProposeTrade:
		if rej := s.proposeTrade(action); rej != nil {
			return rej
		}
	case ActionAcceptTrade:
		if rej := s.acceptTrade(action); rej != nil {
			return rej
		}
	case ActionRejectTrade:
		s.rejectTrade(p)
	case ActionCancelTrade:
		s.cancelTrade(p)
	case ActionDeclareBankruptcy:
		s.declareBankruptcy(p)
	default:
		return reject(action, rules.ReasonNotLegal, nil)
	}
	return nil
}

// settle derives the next phase once an action has run. Open obligations
// come first, then an auction, a trade and a purchase offer; otherwise the
// turn's own step applies.
func (s *State) settle(before rules.Phase) {
	if s.phase == rules.PhaseGameOver {
		return
	}
	s.resolveObligations()

	next := s.step
	switch {
	case len(s.obligations) > 0:
		next = rules.PhasePaymentPending
	case s.auction != nil:
		next = rules.PhaseAuctionActive
	case s.trade != nil:
		next = rules.PhaseTradePending
	case s.pendingPurchase != rules.NoPosition:
		next = rules.PhaseAwaitingPurchase
	}
	s.setPhase(next)

	if next != before {
		evt := rules.NewEvent(rules.EventPhaseChanged, s.actor())
		evt.Data = next.String()
		evt.Metadata = map[string]string{"from": before.String()}
		s.emit(evt)
	}
}

func (s *State) setPhase(phase rules.Phase) {
	if s.phase == phase {
		return
	}
	if s.logger != nil {
		s.logger.Debug("phase transition",
			zap.String("from", s.phase.String()),
			zap.String("to", phase.String()),
			zap.Int("turn", s.turns.TurnNumber()),
		)
	}
	s.phase = phase
}

// actor returns the player expected to act next, or rules.NoPlayer when
// several may act or the game is over.
func (s *State) actor() int {
	switch s.phase {
	case rules.PhaseGameOver:
		return rules.NoPlayer
	case rules.PhasePaymentPending:
		o, _ := s.debtor()
		return o.Debtor
	case rules.PhaseTradePending:
		return s.trade.Recipient
	case rules.PhaseAuctionActive:
		return rules.NoPlayer
	}
	return s.turns.Current()
}

// Actor returns the seat expected to act next. During an auction every
// active bidder may act and it returns rules.NoPlayer.
func (s *State) Actor() int { return s.actor() }
