package game

import (
	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
	"github.com/tycoonfree/tycoon-server-go/internal/game/trading"
)

// PendingTrade returns a copy of the open offer, if any.
func (s *State) PendingTrade() *trading.Offer {
	return s.trade.Clone()
}

func (s *State) proposeTrade(action Action) *RejectionError {
	offer := &trading.Offer{
		ID:        s.nextTradeID,
		Proposer:  action.PlayerID,
		Recipient: action.Target,
		Status:    trading.StatusPending,
	}
	if action.Offered != nil {
		offer.Offered = action.Offered.Clone()
	}
	if action.Requested != nil {
		offer.Requested = action.Requested.Clone()
	}
	if res := trading.Validate(s, offer); !res.Legal {
		return reject(action, res.Reason, res.Details)
	}
	s.nextTradeID++
	s.trade = offer

	evt := rules.NewEvent(rules.EventTradeProposed, offer.Proposer)
	evt.TargetID = offer.Recipient
	evt.Amount = offer.ID
	s.emit(evt)
	return nil
}

// acceptTrade re-validates the offer against current holdings and executes
// both sides. Mortgaged properties cost their receiver the transfer fee.
func (s *State) acceptTrade(action Action) *RejectionError {
	offer := s.trade
	if res := trading.Validate(s, offer); !res.Legal {
		return reject(action, res.Reason, res.Details)
	}

	s.moveBundle(offer.Proposer, offer.Recipient, offer.Offered)
	s.moveBundle(offer.Recipient, offer.Proposer, offer.Requested)

	offer.Status = trading.StatusAccepted
	s.trade = nil

	evt := rules.NewEvent(rules.EventTradeAccepted, offer.Recipient)
	evt.TargetID = offer.Proposer
	evt.Amount = offer.ID
	s.emit(evt)

	s.chargeTransferFees(offer.Recipient, offer.Offered.Properties)
	s.chargeTransferFees(offer.Proposer, offer.Requested.Properties)
	return nil
}

func (s *State) moveBundle(from, to int, b trading.Bundle) {
	if b.Cash > 0 {
		s.transfer(from, to, b.Cash)
		s.emitPayment(rules.EventPayment, from, to, b.Cash, "trade", rules.NoPosition)
	}
	for _, pos := range b.Properties {
		s.props[pos].Owner = to
		evt := rules.NewEvent(rules.EventPropertyTransferred, from)
		evt.TargetID = to
		evt.Position = pos
		evt.Flag = s.props[pos].Mortgaged
		s.emit(evt)
	}
	giver, receiver := s.players[from], s.players[to]
	for i := 0; i < b.JailCards; i++ {
		card := giver.JailCards[0]
		giver.JailCards = giver.JailCards[1:]
		receiver.JailCards = append(receiver.JailCards, card)
	}
}

func (s *State) chargeTransferFees(receiver int, positions []int) {
	for _, pos := range positions {
		if !s.props[pos].Mortgaged {
			continue
		}
		fee := trading.TransferFee(s.board.Space(pos).Mortgage, s.cfg.MortgageTransferRate)
		s.charge(receiver, Bank, fee, rules.EventMortgageFeePaid, "mortgage transfer fee", pos)
	}
}

func (s *State) rejectTrade(p *Player) {
	offer := s.trade
	offer.Status = trading.StatusRejected
	s.trade = nil

	evt := rules.NewEvent(rules.EventTradeRejected, p.ID)
	evt.TargetID = offer.Proposer
	evt.Amount = offer.ID
	s.emit(evt)
}

func (s *State) cancelTrade(p *Player) {
	offer := s.trade
	offer.Status = trading.StatusCancelled
	s.trade = nil

	evt := rules.NewEvent(rules.EventTradeCancelled, p.ID)
	evt.TargetID = offer.Recipient
	evt.Amount = offer.ID
	s.emit(evt)
}
