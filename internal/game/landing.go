package game

import (
	"strconv"

	"github.com/tycoonfree/tycoon-server-go/internal/game/board"
	"github.com/tycoonfree/tycoon-server-go/internal/game/cards"
	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
)

// landing carries rent modifiers set by "advance to nearest" cards.
type landing struct {
	railroadMultiplier int
	utilityMultiplier  int
}

func (s *State) resolveLanding(p *Player, mod landing) {
	s.setPhase(rules.PhaseResolvingLanding)
	space := s.board.Space(p.Position)

	switch space.Kind {
	case board.KindProperty, board.KindRailroad, board.KindUtility:
		s.resolveOwnable(p, space, mod)
	case board.KindTax:
		s.charge(p.ID, Bank, space.Tax, rules.EventTaxPaid, space.Name, space.Position)
	case board.KindChance:
		s.resolveCard(p, cards.DeckChance)
	case board.KindCommunityChest:
		s.resolveCard(p, cards.DeckCommunityChest)
	case board.KindGoToJail:
		s.sendToJail(p, space.Name)
	case board.KindGo, board.KindJail, board.KindFreeParking:
	}
}

func (s *State) resolveOwnable(p *Player, space board.Space, mod landing) {
	ps := s.props[space.Position]
	switch {
	case ps.Owner == NoOwner:
		if p.Cash >= space.Price {
			s.pendingPurchase = space.Position
			return
		}
		s.startAuction(space.Position, p.ID)
	case ps.Owner == p.ID || ps.Mortgaged:
	default:
		rent := s.rentFor(ps, space, mod, s.lastRoll.Total())
		s.charge(p.ID, ps.Owner, rent, rules.EventRentPaid, space.Name, space.Position)
	}
}

// RentFor returns the rent currently due on an owned position for a dice
// total. It returns 0 for unowned or mortgaged positions.
func (s *State) RentFor(position, diceTotal int) int {
	ps, ok := s.props[position]
	if !ok || ps.Owner == NoOwner || ps.Mortgaged {
		return 0
	}
	return s.rentFor(ps, s.board.Space(position), landing{}, diceTotal)
}

func (s *State) rentFor(ps *PropertyState, space board.Space, mod landing, diceTotal int) int {
	switch space.Kind {
	case board.KindProperty:
		return board.PropertyRent(space, ps.Level(), s.holdsMonopoly(ps.Owner, space.Group))
	case board.KindRailroad:
		rent := board.RailroadRent(s.countOwned(ps.Owner, s.board.Railroads()))
		if mod.railroadMultiplier > 0 {
			rent *= mod.railroadMultiplier
		}
		return rent
	case board.KindUtility:
		if mod.utilityMultiplier > 0 {
			return diceTotal * mod.utilityMultiplier
		}
		return board.UtilityRent(s.countOwned(ps.Owner, s.board.Utilities()), diceTotal)
	}
	return 0
}

// holdsMonopoly reports whether the owner holds the whole group with no
// member mortgaged.
func (s *State) holdsMonopoly(owner int, color board.Color) bool {
	for _, ps := range s.groupStates(color) {
		if ps.Owner != owner || ps.Mortgaged {
			return false
		}
	}
	return true
}

func (s *State) countOwned(owner int, positions []int) int {
	n := 0
	for _, pos := range positions {
		if s.props[pos].Owner == owner {
			n++
		}
	}
	return n
}

func (s *State) resolveCard(p *Player, kind cards.DeckKind) {
	deck := s.deck(kind)
	card, ok := deck.Draw(s.rng)
	if !ok {
		return
	}

	evt := rules.NewEvent(rules.EventCardDrawn, p.ID)
	evt.Position = p.Position
	evt.Data = card.Text
	evt.Metadata = map[string]string{
		"deck":   string(card.Deck),
		"card":   strconv.Itoa(card.ID),
		"effect": string(card.Effect),
	}
	s.emit(evt)

	if card.Effect == cards.EffectJailRelease {
		deck.Hold(card)
		p.JailCards = append(p.JailCards, card)
		return
	}
	deck.Discard(card)

	switch card.Effect {
	case cards.EffectAdvanceTo:
		s.moveTo(p, card.Target, landing{})
	case cards.EffectAdvanceToNearest:
		mod := landing{}
		if card.Nearest == board.KindRailroad {
			mod.railroadMultiplier = 2
		} else {
			mod.utilityMultiplier = 10
		}
		s.moveTo(p, s.board.Nearest(p.Position, card.Nearest), mod)
	case cards.EffectMoveBack:
		s.moveBack(p, card.Spaces)
	case cards.EffectCollect:
		s.collect(p.ID, card.Amount, rules.EventCollected, card.Text)
	case cards.EffectPay:
		s.charge(p.ID, Bank, card.Amount, rules.EventPayment, card.Text, rules.NoPosition)
	case cards.EffectCollectFromEach:
		for _, other := range s.activePlayers() {
			if other != p.ID {
				s.charge(other, p.ID, card.Amount, rules.EventPayment, card.Text, rules.NoPosition)
			}
		}
	case cards.EffectPayEach:
		for _, other := range s.activePlayers() {
			if other != p.ID {
				s.charge(p.ID, other, card.Amount, rules.EventPayment, card.Text, rules.NoPosition)
			}
		}
	case cards.EffectRepairs:
		houses, hotels := 0, 0
		for _, ps := range s.ownedBy(p.ID) {
			if ps.Hotel {
				hotels++
			} else {
				houses += ps.Houses
			}
		}
		cost := houses*card.Amount + hotels*card.HotelAmount
		s.charge(p.ID, Bank, cost, rules.EventPayment, card.Text, rules.NoPosition)
	case cards.EffectGoToJail:
		s.sendToJail(p, card.Text)
	}
}
