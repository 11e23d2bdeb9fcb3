package game

import (
	"math"

	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
)

func (s *State) canMortgage(player, pos int) rules.LegalityResult {
	ps, ok := s.props[pos]
	switch {
	case !ok:
		return rules.Illegal(rules.ReasonNotProperty, "position", pos)
	case ps.Owner != player:
		return rules.Illegal(rules.ReasonNotOwner, "position", pos)
	case ps.Mortgaged:
		return rules.Illegal(rules.ReasonMortgaged, "position", pos)
	case s.GroupHasBuildings(pos):
		return rules.Illegal(rules.ReasonHasBuildings, "position", pos)
	}
	return rules.Legal()
}

func (s *State) canUnmortgage(player, pos int) rules.LegalityResult {
	ps, ok := s.props[pos]
	switch {
	case !ok:
		return rules.Illegal(rules.ReasonNotProperty, "position", pos)
	case ps.Owner != player:
		return rules.Illegal(rules.ReasonNotOwner, "position", pos)
	case !ps.Mortgaged:
		return rules.Illegal(rules.ReasonNotMortgaged, "position", pos)
	}
	if cost := s.UnmortgageCost(pos); s.players[player].Cash < cost {
		return rules.Illegal(rules.ReasonInsufficientFunds, "cost", cost)
	}
	return rules.Legal()
}

// UnmortgageCost is the mortgage value plus interest, rounded down.
func (s *State) UnmortgageCost(pos int) int {
	mv := s.board.Space(pos).Mortgage
	return int(math.Floor(float64(mv)*(1+s.cfg.MortgageInterestRate) + 1e-9))
}

func (s *State) mortgage(p *Player, pos int) {
	space := s.board.Space(pos)
	s.props[pos].Mortgaged = true
	p.Cash += space.Mortgage

	evt := rules.NewEventWithAmount(rules.EventMortgaged, p.ID, space.Mortgage)
	evt.Position = pos
	s.emit(evt)
}

func (s *State) unmortgage(p *Player, pos int) {
	cost := s.UnmortgageCost(pos)
	s.transfer(p.ID, Bank, cost)
	s.props[pos].Mortgaged = false

	evt := rules.NewEventWithAmount(rules.EventUnmortgaged, p.ID, cost)
	evt.Position = pos
	s.emit(evt)
}
