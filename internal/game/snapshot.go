package game

import (
	"github.com/tycoonfree/tycoon-server-go/internal/game/board"
	"github.com/tycoonfree/tycoon-server-go/internal/game/cards"
	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
	"github.com/tycoonfree/tycoon-server-go/internal/game/trading"
)

// Snapshot is a read-only projection of the whole game.
type Snapshot struct {
	Turn            int            `json:"turn"`
	CurrentPlayer   int            `json:"current_player"`
	Actor           int            `json:"actor"`
	Phase           rules.Phase    `json:"phase"`
	Players         []PlayerView   `json:"players"`
	Bank            BankView       `json:"bank"`
	Auction         *AuctionView   `json:"auction,omitempty"`
	Trade           *trading.Offer `json:"trade,omitempty"`
	Obligations     []Obligation   `json:"obligations"`
	Decks           []DeckView     `json:"decks"`
	PendingPurchase int            `json:"pending_purchase"`
	LastRoll        Dice           `json:"last_roll"`
	DoublesStreak   int            `json:"doubles_streak"`
	Winner          int            `json:"winner"`
	EndReason       string         `json:"end_reason,omitempty"`
	EventCount      int            `json:"event_count"`
}

// PlayerView is one player inside a Snapshot.
type PlayerView struct {
	ID         int            `json:"id"`
	Name       string         `json:"name"`
	Cash       int            `json:"cash"`
	Position   int            `json:"position"`
	InJail     bool           `json:"in_jail"`
	JailTurns  int            `json:"jail_turns"`
	JailCards  int            `json:"jail_cards"`
	Bankrupt   bool           `json:"bankrupt"`
	NetWorth   int            `json:"net_worth"`
	Properties []PropertyView `json:"properties"`
}

// PropertyView is an owned property inside a PlayerView.
type PropertyView struct {
	Position  int             `json:"position"`
	Name      string          `json:"name"`
	Kind      board.SpaceKind `json:"kind"`
	Group     board.Color     `json:"group,omitempty"`
	Houses    int             `json:"houses"`
	Hotel     bool            `json:"hotel"`
	Mortgaged bool            `json:"mortgaged"`
}

// BankView is the remaining building inventory.
type BankView struct {
	Houses int `json:"houses"`
	Hotels int `json:"hotels"`
}

// AuctionView is the open auction, if any.
type AuctionView struct {
	Position   int   `json:"position"`
	Price      int   `json:"price"`
	Floor      int   `json:"floor"`
	CurrentBid int   `json:"current_bid"`
	HighBidder int   `json:"high_bidder"`
	Active     []int `json:"active"`
	BidsLeft   []int `json:"bids_left"` // indexed by seat
}

// DeckView reports deck pile sizes.
type DeckView struct {
	Kind      string `json:"kind"`
	Remaining int    `json:"remaining"`
	Discarded int    `json:"discarded"`
	Held      int    `json:"held"`
}

// Snapshot projects the current state.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Turn:            s.turns.TurnNumber(),
		CurrentPlayer:   s.turns.Current(),
		Actor:           s.actor(),
		Phase:           s.phase,
		Bank:            BankView{Houses: s.bank.Houses, Hotels: s.bank.Hotels},
		Trade:           s.trade.Clone(),
		Obligations:     append([]Obligation{}, s.obligations...),
		PendingPurchase: s.pendingPurchase,
		LastRoll:        s.lastRoll,
		DoublesStreak:   s.turns.DoublesStreak(),
		Winner:          s.winner,
		EndReason:       s.endReason,
		EventCount:      s.log.Len(),
	}

	for _, p := range s.players {
		view := PlayerView{
			ID:         p.ID,
			Name:       p.Name,
			Cash:       p.Cash,
			Position:   p.Position,
			InJail:     p.InJail,
			JailTurns:  p.JailTurns,
			JailCards:  len(p.JailCards),
			Bankrupt:   p.Bankrupt,
			NetWorth:   s.NetWorth(p.ID),
			Properties: []PropertyView{},
		}
		for _, ps := range s.ownedBy(p.ID) {
			space := s.board.Space(ps.Position)
			view.Properties = append(view.Properties, PropertyView{
				Position:  ps.Position,
				Name:      space.Name,
				Kind:      space.Kind,
				Group:     space.Group,
				Houses:    ps.Houses,
				Hotel:     ps.Hotel,
				Mortgaged: ps.Mortgaged,
			})
		}
		snap.Players = append(snap.Players, view)
	}

	if a := s.auction; a != nil {
		view := &AuctionView{
			Position:   a.Position,
			Price:      a.Price,
			Floor:      a.Floor,
			CurrentBid: a.CurrentBid,
			HighBidder: a.HighBidder,
			Active:     a.ActiveBidders(),
			BidsLeft:   make([]int, len(s.players)),
		}
		for id, left := range a.BidsLeft {
			view.BidsLeft[id] = left
		}
		snap.Auction = view
	}

	for _, d := range []*cards.Deck{s.chance, s.chest} {
		snap.Decks = append(snap.Decks, DeckView{
			Kind:      string(d.Kind),
			Remaining: d.Remaining(),
			Discarded: d.Discarded(),
			Held:      d.Held(),
		})
	}
	return snap
}

// Player returns the view of a seat, or false when out of range.
func (snap Snapshot) Player(id int) (PlayerView, bool) {
	if id < 0 || id >= len(snap.Players) {
		return PlayerView{}, false
	}
	return snap.Players[id], true
}

// Owner finds the owner of a position in the snapshot.
func (snap Snapshot) Owner(position int) (int, bool) {
	for _, p := range snap.Players {
		for _, prop := range p.Properties {
			if prop.Position == position {
				return p.ID, true
			}
		}
	}
	return NoOwner, false
}
