package game

import (
	"strconv"

	"github.com/tycoonfree/tycoon-server-go/internal/game/board"
	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
)

// ownedColorProperty checks the shared preconditions of building actions.
func (s *State) ownedColorProperty(player, pos int) (*PropertyState, board.Space, rules.LegalityResult) {
	ps, ok := s.props[pos]
	space := s.board.Space(pos)
	if !ok || space.Kind != board.KindProperty {
		return nil, space, rules.Illegal(rules.ReasonNotProperty, "position", pos)
	}
	if ps.Owner != player {
		return nil, space, rules.Illegal(rules.ReasonNotOwner, "position", pos)
	}
	return ps, space, rules.Legal()
}

func (s *State) canBuildHouse(player, pos int) rules.LegalityResult {
	ps, space, res := s.ownedColorProperty(player, pos)
	if !res.Legal {
		return res
	}
	if res := s.canImprove(player, space); !res.Legal {
		return res
	}
	switch {
	case ps.Hotel:
		return rules.Illegal(rules.ReasonHasHotel, "position", pos)
	case ps.Houses >= 4:
		return rules.Illegal(rules.ReasonMaxHouses, "position", pos)
	case s.bank.Houses < 1:
		return rules.Illegal(rules.ReasonBankNoHouses)
	case s.players[player].Cash < space.HouseCost:
		return rules.Illegal(rules.ReasonInsufficientFunds, "cost", space.HouseCost)
	}
	for _, sibling := range s.groupStates(space.Group) {
		if sibling.Level() < ps.Houses {
			return rules.Illegal(rules.ReasonEvenBuild, "position", pos, "sibling", sibling.Position)
		}
	}
	return rules.Legal()
}

func (s *State) canBuildHotel(player, pos int) rules.LegalityResult {
	ps, space, res := s.ownedColorProperty(player, pos)
	if !res.Legal {
		return res
	}
	if res := s.canImprove(player, space); !res.Legal {
		return res
	}
	switch {
	case ps.Hotel:
		return rules.Illegal(rules.ReasonHasHotel, "position", pos)
	case ps.Houses != 4:
		return rules.Illegal(rules.ReasonNeedFourHouses, "position", pos)
	case s.bank.Hotels < 1:
		return rules.Illegal(rules.ReasonBankNoHotels)
	case s.players[player].Cash < space.HouseCost:
		return rules.Illegal(rules.ReasonInsufficientFunds, "cost", space.HouseCost)
	}
	for _, sibling := range s.groupStates(space.Group) {
		if sibling.Level() < 4 {
			return rules.Illegal(rules.ReasonNeedFourHouses, "sibling", sibling.Position)
		}
	}
	return rules.Legal()
}

// canImprove requires the full, unmortgaged color group.
func (s *State) canImprove(player int, space board.Space) rules.LegalityResult {
	for _, sibling := range s.groupStates(space.Group) {
		if sibling.Owner != player {
			return rules.Illegal(rules.ReasonNoMonopoly, "group", string(space.Group))
		}
		if sibling.Mortgaged {
			return rules.Illegal(rules.ReasonGroupMortgaged, "sibling", sibling.Position)
		}
	}
	return rules.Legal()
}

func (s *State) canSellHouse(player, pos int) rules.LegalityResult {
	ps, space, res := s.ownedColorProperty(player, pos)
	if !res.Legal {
		return res
	}
	if ps.Hotel || ps.Houses == 0 {
		return rules.Illegal(rules.ReasonNoHouses, "position", pos)
	}
	for _, sibling := range s.groupStates(space.Group) {
		if sibling.Level() > ps.Houses {
			return rules.Illegal(rules.ReasonEvenSell, "position", pos, "sibling", sibling.Position)
		}
	}
	return rules.Legal()
}

func (s *State) canSellHotel(player, pos int) rules.LegalityResult {
	ps, _, res := s.ownedColorProperty(player, pos)
	if !res.Legal {
		return res
	}
	if !ps.Hotel {
		return rules.Illegal(rules.ReasonNoHotel, "position", pos)
	}
	if s.bank.Houses < 4 {
		return rules.Illegal(rules.ReasonBankNoHouses, "needed", 4)
	}
	return rules.Legal()
}

func (s *State) buildHouse(p *Player, pos int) error {
	space := s.board.Space(pos)
	if err := s.bank.TakeHouses(1); err != nil {
		return err
	}
	s.transfer(p.ID, Bank, space.HouseCost)
	ps := s.props[pos]
	ps.Houses++

	evt := rules.NewEventWithAmount(rules.EventHouseBuilt, p.ID, space.HouseCost)
	evt.Position = pos
	evt.Metadata = map[string]string{"houses": strconv.Itoa(ps.Houses)}
	s.emit(evt)
	return nil
}

// buildHotel trades the four houses on a property for a hotel.
func (s *State) buildHotel(p *Player, pos int) error {
	space := s.board.Space(pos)
	if err := s.bank.TakeHotel(); err != nil {
		return err
	}
	s.transfer(p.ID, Bank, space.HouseCost)
	ps := s.props[pos]
	s.bank.ReturnHouses(ps.Houses)
	ps.Houses = 0
	ps.Hotel = true

	evt := rules.NewEventWithAmount(rules.EventHotelBuilt, p.ID, space.HouseCost)
	evt.Position = pos
	s.emit(evt)
	return nil
}

func (s *State) sellHouse(p *Player, pos int) {
	space := s.board.Space(pos)
	ps := s.props[pos]
	ps.Houses--
	s.bank.ReturnHouses(1)
	refund := space.HouseCost / 2
	p.Cash += refund

	evt := rules.NewEventWithAmount(rules.EventHouseSold, p.ID, refund)
	evt.Position = pos
	evt.Metadata = map[string]string{"houses": strconv.Itoa(ps.Houses)}
	s.emit(evt)
}

// sellHotel downgrades a hotel back to four houses.
func (s *State) sellHotel(p *Player, pos int) error {
	space := s.board.Space(pos)
	if err := s.bank.TakeHouses(4); err != nil {
		return err
	}
	ps := s.props[pos]
	ps.Hotel = false
	ps.Houses = 4
	s.bank.ReturnHotel()
	refund := space.HouseCost / 2
	p.Cash += refund

	evt := rules.NewEventWithAmount(rules.EventHotelSold, p.ID, refund)
	evt.Position = pos
	s.emit(evt)
	return nil
}
