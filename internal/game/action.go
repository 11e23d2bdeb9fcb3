package game

import (
	"fmt"

	"github.com/tycoonfree/tycoon-server-go/internal/game/trading"
)

// ActionType is the discriminant of an Action.
type ActionType string

const (
	ActionRollDice          ActionType = "roll_dice"
	ActionBuyProperty       ActionType = "buy_property"
	ActionDeclinePurchase   ActionType = "decline_purchase"
	ActionEndTurn           ActionType = "end_turn"
	ActionBid               ActionType = "bid"
	ActionPassAuction       ActionType = "pass_auction"
	ActionBuildHouse        ActionType = "build_house"
	ActionBuildHotel        ActionType = "build_hotel"
	ActionSellHouse         ActionType = "sell_house"
	ActionSellHotel         ActionType = "sell_hotel"
	ActionMortgage          ActionType = "mortgage"
	ActionUnmortgage        ActionType = "unmortgage"
	ActionPayJailFine       ActionType = "pay_jail_fine"
	ActionUseJailCard       ActionType = "use_jail_card"
	ActionProposeTrade      ActionType = "propose_trade"
	ActionAcceptTrade       ActionType = "accept_trade"
	ActionRejectTrade       ActionType = "reject_trade"
	ActionCancelTrade       ActionType = "cancel_trade"
	ActionDeclareBankruptcy ActionType = "declare_bankruptcy"
)

// Action is a request from a player. Only the fields its type reads are
// significant: Position for property actions, Amount for bids, Target,
// Offered and Requested for proposals, TradeID for trade responses.
type Action struct {
	Type      ActionType      `json:"type"`
	PlayerID  int             `json:"player_id"`
	Position  int             `json:"position,omitempty"`
	Amount    int             `json:"amount,omitempty"`
	Target    int             `json:"target,omitempty"`
	TradeID   int             `json:"trade_id,omitempty"`
	Offered   *trading.Bundle `json:"offered,omitempty"`
	Requested *trading.Bundle `json:"requested,omitempty"`
}

func (a Action) String() string {
	switch a.Type {
	case ActionBuyProperty, ActionBuildHouse, ActionBuildHotel, ActionSellHouse, ActionSellHotel, ActionMortgage, ActionUnmortgage:
		return fmt.Sprintf("%s(player=%d, position=%d)", a.Type, a.PlayerID, a.Position)
	case ActionBid:
		return fmt.Sprintf("%s(player=%d, amount=%d)", a.Type, a.PlayerID, a.Amount)
	case ActionProposeTrade:
		return fmt.Sprintf("%s(player=%d, target=%d)", a.Type, a.PlayerID, a.Target)
	case ActionAcceptTrade, ActionRejectTrade, ActionCancelTrade:
		return fmt.Sprintf("%s(player=%d, trade=%d)", a.Type, a.PlayerID, a.TradeID)
	default:
		return fmt.Sprintf("%s(player=%d)", a.Type, a.PlayerID)
	}
}

// actionKey is the part of an action that legality is decided on. Bid
// amounts and trade contents are parameters checked during execution.
type actionKey struct {
	kind     ActionType
	player   int
	position int
	target   int
	tradeID  int
}

func (a Action) key() actionKey {
	k := actionKey{kind: a.Type, player: a.PlayerID}
	switch a.Type {
	case ActionBuyProperty, ActionBuildHouse, ActionBuildHotel, ActionSellHouse, ActionSellHotel, ActionMortgage, ActionUnmortgage:
		k.position = a.Position
	case ActionProposeTrade:
		k.target = a.Target
	case ActionAcceptTrade, ActionRejectTrade, ActionCancelTrade:
		k.tradeID = a.TradeID
	}
	return k
}

// Matches reports whether two actions share the same legality key.
func (a Action) Matches(other Action) bool {
	return a.key() == other.key()
}

func (a Action) clone() Action {
	if a.Offered != nil {
		b := a.Offered.Clone()
		a.Offered = &b
	}
	if a.Requested != nil {
		b := a.Requested.Clone()
		a.Requested = &b
	}
	return a
}
