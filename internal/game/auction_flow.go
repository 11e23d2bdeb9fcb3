package game

import (
	"github.com/tycoonfree/tycoon-server-go/internal/game/auction"
	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
)

// buy completes the pending purchase at list price.
func (s *State) buy(p *Player) {
	pos := s.pendingPurchase
	space := s.board.Space(pos)
	s.pendingPurchase = rules.NoPosition

	s.transfer(p.ID, Bank, space.Price)
	s.props[pos].Owner = p.ID

	evt := rules.NewEventWithAmount(rules.EventPropertyBought, p.ID, space.Price)
	evt.Position = pos
	evt.Data = space.Name
	s.emit(evt)
}

// decline turns the pending purchase into an auction.
func (s *State) decline(p *Player) {
	pos := s.pendingPurchase
	s.pendingPurchase = rules.NoPosition

	evt := rules.NewEvent(rules.EventPurchaseDeclined, p.ID)
	evt.Position = pos
	s.emit(evt)

	s.startAuction(pos, p.ID)
}

// startAuction opens bidding on an unowned position. The initiator holds
// the floor bid from the start.
func (s *State) startAuction(pos, initiator int) {
	space := s.board.Space(pos)
	a := auction.New(pos, space.Price, initiator, s.activePlayers(), s.cfg.MaxBidsPerAuction)

	evt := rules.NewEventWithAmount(rules.EventAuctionStarted, initiator, a.Floor)
	evt.Position = pos
	evt.Data = space.Name
	s.emit(evt)

	bid := rules.NewEventWithAmount(rules.EventAuctionBid, initiator, a.Floor)
	bid.Position = pos
	bid.Flag = true
	s.emit(bid)

	if a.Complete {
		s.finishAuction(a)
		return
	}
	s.auction = a
}

func (s *State) placeBid(p *Player, amount int) {
	a := s.auction
	res := a.Bid(p.ID, amount, p.Cash)
	if res.Accepted {
		evt := rules.NewEventWithAmount(rules.EventAuctionBid, p.ID, amount)
		evt.Position = a.Position
		s.emit(evt)
	}
	if res.AutoPassed {
		evt := rules.NewEventWithAmount(rules.EventAuctionPassed, p.ID, amount)
		evt.Position = a.Position
		evt.Data = res.Reason
		evt.Flag = !res.Accepted
		s.emit(evt)
	}
	if res.Completed {
		s.finishAuction(a)
	}
}

func (s *State) passAuction(p *Player) {
	a := s.auction
	res := a.Pass(p.ID)
	evt := rules.NewEvent(rules.EventAuctionPassed, p.ID)
	evt.Position = a.Position
	s.emit(evt)
	if res.Completed {
		s.finishAuction(a)
	}
}

// finishAuction hands the property to the high bidder. A winner who cannot
// cover the bid still receives the property and owes the bank.
func (s *State) finishAuction(a *auction.Auction) {
	s.auction = nil
	winner, amount, ok := a.Winner()
	if !ok {
		return
	}
	s.props[a.Position].Owner = winner

	evt := rules.NewEventWithAmount(rules.EventAuctionWon, winner, amount)
	evt.Position = a.Position
	evt.Data = s.board.Space(a.Position).Name
	s.emit(evt)

	s.charge(winner, Bank, amount, rules.EventPayment, "auction", a.Position)
}
