package rules

import (
	"fmt"
	"strconv"
)

// Rejection reasons shared by the validators. Callers may match on these
// strings; the details map carries the specifics.
const (
	ReasonGameOver          = "game is over"
	ReasonNotLegal          = "action is not legal in the current phase"
	ReasonUnknownPlayer     = "unknown player"
	ReasonPlayerBankrupt    = "player is bankrupt"
	ReasonNotOwner          = "player does not own the property"
	ReasonNotProperty       = "space is not a color property"
	ReasonNoMonopoly        = "player does not own the full color group"
	ReasonGroupMortgaged    = "a property in the color group is mortgaged"
	ReasonEvenBuild         = "even-build rule"
	ReasonEvenSell          = "even-sell rule"
	ReasonMaxHouses         = "property already has four houses"
	ReasonHasHotel          = "property already has a hotel"
	ReasonNeedFourHouses    = "every property in the group needs four houses"
	ReasonNoHotel           = "property has no hotel"
	ReasonNoHouses          = "property has no houses"
	ReasonBankNoHouses      = "bank has no houses left"
	ReasonBankNoHotels      = "bank has no hotels left"
	ReasonInsufficientFunds = "insufficient funds"
	ReasonMortgaged         = "property is mortgaged"
	ReasonNotMortgaged      = "property is not mortgaged"
	ReasonHasBuildings      = "buildings must be sold first"
	ReasonEmptyTrade        = "trade offer is empty"
	ReasonSelfTrade         = "cannot trade with yourself"
	ReasonMissingJailCards  = "not enough jail release cards"
)

// LegalityResult represents the result of a legality check.
type LegalityResult struct {
	Legal   bool
	Reason  string
	Details map[string]string
}

// Legal is the passing result.
func Legal() LegalityResult {
	return LegalityResult{Legal: true}
}

// Illegal builds a failing result with alternating key/value details.
func Illegal(reason string, kv ...any) LegalityResult {
	result := LegalityResult{Legal: false, Reason: reason}
	if len(kv) > 0 {
		result.Details = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			key := fmt.Sprint(kv[i])
			switch v := kv[i+1].(type) {
			case int:
				result.Details[key] = strconv.Itoa(v)
			case string:
				result.Details[key] = v
			default:
				result.Details[key] = fmt.Sprint(v)
			}
		}
	}
	return result
}
