package cards

import (
	"github.com/tycoonfree/tycoon-server-go/internal/game/board"
)

// DeckKind names one of the two draw piles.
type DeckKind string

const (
	DeckChance         DeckKind = "CHANCE"
	DeckCommunityChest DeckKind = "COMMUNITY_CHEST"
)

// Effect is the tag of a card's variant. Each effect reads only the fields
// it needs from Card.
type Effect string

const (
	EffectAdvanceTo        Effect = "ADVANCE_TO"
	EffectAdvanceToNearest Effect = "ADVANCE_TO_NEAREST"
	EffectMoveBack         Effect = "MOVE_BACK"
	EffectCollect          Effect = "COLLECT"
	EffectPay              Effect = "PAY"
	EffectCollectFromEach  Effect = "COLLECT_FROM_EACH"
	EffectPayEach          Effect = "PAY_EACH"
	EffectRepairs          Effect = "REPAIRS"
	EffectJailRelease      Effect = "JAIL_RELEASE"
	EffectGoToJail         Effect = "GO_TO_JAIL"
)

// Card is a single deck entry.
type Card struct {
	ID     int
	Deck   DeckKind
	Text   string
	Effect Effect

	Amount      int             // collect/pay amount, or per-house repair charge
	HotelAmount int             // per-hotel repair charge
	Target      int             // destination for EffectAdvanceTo
	Nearest     board.SpaceKind // railroad or utility for EffectAdvanceToNearest
	Spaces      int             // steps for EffectMoveBack
}

func chanceCards() []Card {
	cards := []Card{
		{Text: "Advance to GO (collect salary)", Effect: EffectAdvanceTo, Target: board.GoPosition},
		{Text: "Advance to Illinois Avenue", Effect: EffectAdvanceTo, Target: 24},
		{Text: "Advance to St. Charles Place", Effect: EffectAdvanceTo, Target: 11},
		{Text: "Advance to the nearest Utility. If owned, pay ten times the dice roll", Effect: EffectAdvanceToNearest, Nearest: board.KindUtility},
		{Text: "Advance to the nearest Railroad. If owned, pay twice the rental", Effect: EffectAdvanceToNearest, Nearest: board.KindRailroad},
		{Text: "Advance to the nearest Railroad. If owned, pay twice the rental", Effect: EffectAdvanceToNearest, Nearest: board.KindRailroad},
		{Text: "Bank pays you a dividend of 50", Effect: EffectCollect, Amount: 50},
		{Text: "Get Out of Jail Free", Effect: EffectJailRelease},
		{Text: "Go back 3 spaces", Effect: EffectMoveBack, Spaces: 3},
		{Text: "Go to Jail", Effect: EffectGoToJail},
		{Text: "Make general repairs: pay 25 per house and 100 per hotel", Effect: EffectRepairs, Amount: 25, HotelAmount: 100},
		{Text: "Speeding fine of 15", Effect: EffectPay, Amount: 15},
		{Text: "Take a trip to Reading Railroad", Effect: EffectAdvanceTo, Target: 5},
		{Text: "Take a walk on the Boardwalk", Effect: EffectAdvanceTo, Target: 39},
		{Text: "Elected chairman of the board: pay each player 50", Effect: EffectPayEach, Amount: 50},
		{Text: "Your building loan matures: collect 150", Effect: EffectCollect, Amount: 150},
	}
	return stamp(cards, DeckChance)
}

func communityChestCards() []Card {
	cards := []Card{
		{Text: "Advance to GO (collect salary)", Effect: EffectAdvanceTo, Target: board.GoPosition},
		{Text: "Bank error in your favor: collect 200", Effect: EffectCollect, Amount: 200},
		{Text: "Doctor's fee: pay 50", Effect: EffectPay, Amount: 50},
		{Text: "From sale of stock you get 50", Effect: EffectCollect, Amount: 50},
		{Text: "Get Out of Jail Free", Effect: EffectJailRelease},
		{Text: "Go to Jail", Effect: EffectGoToJail},
		{Text: "Grand opera night: collect 50 from every player", Effect: EffectCollectFromEach, Amount: 50},
		{Text: "Holiday fund matures: receive 100", Effect: EffectCollect, Amount: 100},
		{Text: "Income tax refund: collect 20", Effect: EffectCollect, Amount: 20},
		{Text: "It is your birthday: collect 10 from every player", Effect: EffectCollectFromEach, Amount: 10},
		{Text: "Life insurance matures: collect 100", Effect: EffectCollect, Amount: 100},
		{Text: "Hospital fees: pay 100", Effect: EffectPay, Amount: 100},
		{Text: "School fees: pay 150", Effect: EffectPay, Amount: 150},
		{Text: "Receive 25 consultancy fee", Effect: EffectCollect, Amount: 25},
		{Text: "Street repairs: pay 40 per house and 115 per hotel", Effect: EffectRepairs, Amount: 40, HotelAmount: 115},
		{Text: "Second prize in a beauty contest: collect 10", Effect: EffectCollect, Amount: 10},
		{Text: "You inherit 100", Effect: EffectCollect, Amount: 100},
	}
	return stamp(cards, DeckCommunityChest)
}

func stamp(cards []Card, kind DeckKind) []Card {
	for i := range cards {
		cards[i].ID = i
		cards[i].Deck = kind
	}
	return cards
}

// StandardCards returns the classic card list for a deck, unshuffled.
func StandardCards(kind DeckKind) []Card {
	if kind == DeckChance {
		return chanceCards()
	}
	return communityChestCards()
}
