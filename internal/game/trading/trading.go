package trading

import (
	"math"
	"slices"

	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
)

// DefaultTransferRate is the share of a mortgaged property's mortgage value
// charged to whoever receives it.
const DefaultTransferRate = 0.10

// Status is the lifecycle state of an offer.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// Bundle is one side of a trade.
type Bundle struct {
	Cash       int   `json:"cash"`
	Properties []int `json:"properties,omitempty"`
	JailCards  int   `json:"jail_cards"`
}

// IsEmpty reports whether the bundle transfers nothing.
func (b Bundle) IsEmpty() bool {
	return b.Cash == 0 && len(b.Properties) == 0 && b.JailCards == 0
}

// Clone returns a copy that shares no slice storage.
func (b Bundle) Clone() Bundle {
	b.Properties = append([]int(nil), b.Properties...)
	return b
}

// Offer is a bilateral trade proposal.
type Offer struct {
	ID        int    `json:"id"`
	Proposer  int    `json:"proposer"`
	Recipient int    `json:"recipient"`
	Offered   Bundle `json:"offered"`
	Requested Bundle `json:"requested"`
	Status    Status `json:"status"`
}

// Clone returns a deep copy of the offer.
func (o *Offer) Clone() *Offer {
	if o == nil {
		return nil
	}
	c := *o
	c.Offered = o.Offered.Clone()
	c.Requested = o.Requested.Clone()
	return &c
}

// Holdings gives the validator read access to the game it checks against.
type Holdings interface {
	// IsActivePlayer reports whether the player exists and is not bankrupt.
	IsActivePlayer(id int) bool
	// Cash returns the player's cash.
	Cash(id int) int
	// JailCards returns how many release cards the player holds.
	JailCards(id int) int
	// Owner returns the owner of a purchasable position.
	Owner(position int) (int, bool)
	// GroupHasBuildings reports whether the position's color group carries
	// any house or hotel. It is false for railroads and utilities.
	GroupHasBuildings(position int) bool
}

// Validate checks an offer against current holdings. It is used both when
// an offer is proposed and again when it is accepted.
func Validate(h Holdings, o *Offer) rules.LegalityResult {
	if o == nil {
		return rules.Illegal(rules.ReasonEmptyTrade)
	}
	if o.Proposer == o.Recipient {
		return rules.Illegal(rules.ReasonSelfTrade, "player", o.Proposer)
	}
	if !h.IsActivePlayer(o.Proposer) {
		return rules.Illegal(rules.ReasonPlayerBankrupt, "player", o.Proposer)
	}
	if !h.IsActivePlayer(o.Recipient) {
		return rules.Illegal(rules.ReasonPlayerBankrupt, "player", o.Recipient)
	}
	if o.Offered.IsEmpty() && o.Requested.IsEmpty() {
		return rules.Illegal(rules.ReasonEmptyTrade)
	}
	if res := validateSide(h, o.Proposer, o.Offered); !res.Legal {
		return res
	}
	if res := validateSide(h, o.Recipient, o.Requested); !res.Legal {
		return res
	}
	for _, pos := range o.Offered.Properties {
		if slices.Contains(o.Requested.Properties, pos) {
			return rules.Illegal("property listed on both sides", "position", pos)
		}
	}
	return rules.Legal()
}

func validateSide(h Holdings, player int, b Bundle) rules.LegalityResult {
	if b.Cash < 0 || b.JailCards < 0 {
		return rules.Illegal("trade amounts must not be negative", "player", player)
	}
	if b.Cash > h.Cash(player) {
		return rules.Illegal(rules.ReasonInsufficientFunds, "player", player, "cash", b.Cash)
	}
	if b.JailCards > h.JailCards(player) {
		return rules.Illegal(rules.ReasonMissingJailCards, "player", player, "jail_cards", b.JailCards)
	}
	seen := make(map[int]bool, len(b.Properties))
	for _, pos := range b.Properties {
		if seen[pos] {
			return rules.Illegal("property listed twice", "position", pos)
		}
		seen[pos] = true
		owner, owned := h.Owner(pos)
		if !owned || owner != player {
			return rules.Illegal(rules.ReasonNotOwner, "player", player, "position", pos)
		}
		if h.GroupHasBuildings(pos) {
			return rules.Illegal(rules.ReasonHasBuildings, "position", pos)
		}
	}
	return rules.Legal()
}

// TransferFee is charged to the receiver of a mortgaged property.
func TransferFee(mortgageValue int, rate float64) int {
	return int(math.Floor(float64(mortgageValue) * rate))
}
