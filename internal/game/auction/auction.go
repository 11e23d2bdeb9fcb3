package auction

import (
	"fmt"
)

// DefaultMaxBids is the number of bids each player may place per auction.
const DefaultMaxBids = 3

// Floor is the guaranteed opening bid: ten percent of price, rounded up,
// never below one.
func Floor(price int) int {
	floor := (price + 9) / 10
	if floor < 1 {
		floor = 1
	}
	return floor
}

// Result describes what a bid or pass did to the auction.
type Result struct {
	Accepted   bool   // the bid became the high bid
	Reason     string // why a bid was turned into a pass
	AutoPassed bool   // the player left the bidding as a consequence
	Completed  bool   // the auction finished with this step
}

// Auction is the bidding sub-state machine for one unowned property. It
// knows nothing about cash beyond what the caller passes in.
type Auction struct {
	Position   int
	Price      int
	Floor      int
	Initiator  int
	Bidders    []int
	CurrentBid int
	HighBidder int
	BidsLeft   map[int]int
	Passed     map[int]bool
	Complete   bool
}

// New opens an auction. The initiator's opening bid at the floor counts
// against their allowance. An auction with a single eligible bidder is
// complete immediately.
func New(position, price, initiator int, eligible []int, maxBids int) *Auction {
	if maxBids < 1 {
		maxBids = DefaultMaxBids
	}
	a := &Auction{
		Position:   position,
		Price:      price,
		Floor:      Floor(price),
		Initiator:  initiator,
		Bidders:    append([]int(nil), eligible...),
		HighBidder: initiator,
		BidsLeft:   make(map[int]int, len(eligible)),
		Passed:     make(map[int]bool, len(eligible)),
	}
	a.CurrentBid = a.Floor
	for _, id := range eligible {
		a.BidsLeft[id] = maxBids
	}
	a.BidsLeft[initiator]--
	if a.BidsLeft[initiator] <= 0 {
		a.Passed[initiator] = true
	}
	a.checkCompletion()
	return a
}

// IsBidder reports whether the player is eligible in this auction.
func (a *Auction) IsBidder(player int) bool {
	_, ok := a.BidsLeft[player]
	return ok
}

// Active reports whether the player is still in the bidding.
func (a *Auction) Active(player int) bool {
	return !a.Complete && a.IsBidder(player) && !a.Passed[player]
}

// CanBid reports whether the player may raise. The high bidder waits for
// someone else to act.
func (a *Auction) CanBid(player int) bool {
	return a.Active(player) && a.BidsLeft[player] > 0 && player != a.HighBidder
}

// MinBid is the smallest amount that beats the current bid.
func (a *Auction) MinBid() int {
	return a.CurrentBid + 1
}

// ActiveBidders lists players still in the bidding, in seat order.
func (a *Auction) ActiveBidders() []int {
	out := make([]int, 0, len(a.Bidders))
	for _, id := range a.Bidders {
		if !a.Passed[id] {
			out = append(out, id)
		}
	}
	return out
}

// Bid places a bid for player. A bid that does not beat the current bid,
// exceeds cash, or comes from a player who cannot bid is an implicit pass.
func (a *Auction) Bid(player, amount, cash int) Result {
	if !a.Active(player) {
		return Result{Reason: fmt.Sprintf("player %d is not bidding", player)}
	}

	var reason string
	switch {
	case player == a.HighBidder:
		reason = "already the high bidder"
	case a.BidsLeft[player] <= 0:
		reason = "bid allowance exhausted"
	case amount <= a.CurrentBid:
		reason = fmt.Sprintf("bid %d does not exceed current bid %d", amount, a.CurrentBid)
	case amount > cash:
		reason = fmt.Sprintf("bid %d exceeds cash %d", amount, cash)
	}
	if reason != "" {
		res := a.Pass(player)
		res.Reason = reason
		return res
	}

	a.CurrentBid = amount
	a.HighBidder = player
	a.BidsLeft[player]--

	res := Result{Accepted: true}
	if a.BidsLeft[player] <= 0 {
		a.Passed[player] = true
		res.AutoPassed = true
		res.Completed = a.checkCompletion()
	}
	return res
}

// Pass withdraws the player from the bidding. The high bid stands even if
// its bidder passes.
func (a *Auction) Pass(player int) Result {
	if !a.Active(player) {
		return Result{Reason: fmt.Sprintf("player %d is not bidding", player)}
	}
	a.Passed[player] = true
	return Result{AutoPassed: true, Completed: a.checkCompletion()}
}

func (a *Auction) checkCompletion() bool {
	if a.Complete {
		return false
	}
	if len(a.ActiveBidders()) <= 1 {
		a.Complete = true
		return true
	}
	return false
}

// Winner returns the high bidder and price once the auction is complete.
func (a *Auction) Winner() (player, amount int, ok bool) {
	if !a.Complete {
		return 0, 0, false
	}
	return a.HighBidder, a.CurrentBid, true
}

// Clone returns an independent copy of the auction.
func (a *Auction) Clone() *Auction {
	c := *a
	c.Bidders = append([]int(nil), a.Bidders...)
	c.BidsLeft = make(map[int]int, len(a.BidsLeft))
	for k, v := range a.BidsLeft {
		c.BidsLeft[k] = v
	}
	c.Passed = make(map[int]bool, len(a.Passed))
	for k, v := range a.Passed {
		c.Passed[k] = v
	}
	return &c
}
