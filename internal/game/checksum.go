package game

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/tycoonfree/tycoon-server-go/internal/game/cards"
)

// checksumVersion changes whenever the canonical rendering does.
const checksumVersion = 1

// SerializationChecksum identifies a game state. Two states with the same
// hash are indistinguishable to the rules, generator included.
type SerializationChecksum struct {
	Hash    string
	Version int
}

// Checksum hashes a canonical text rendering of the state with BLAKE2b-256.
func (s *State) Checksum() (*SerializationChecksum, error) {
	data, err := s.canonical()
	if err != nil {
		return nil, err
	}
	sum := blake2b.Sum256(data)
	return &SerializationChecksum{
		Hash:    hex.EncodeToString(sum[:]),
		Version: checksumVersion,
	}, nil
}

// VerifyChecksum reports whether the state still matches a checksum.
func (s *State) VerifyChecksum(expected *SerializationChecksum) (bool, error) {
	computed, err := s.Checksum()
	if err != nil {
		return false, fmt.Errorf("failed to compute checksum: %w", err)
	}
	return computed.Hash == expected.Hash && computed.Version == expected.Version, nil
}

func (s *State) canonical() ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "GAME:%d|%d|%s|%s|%d|%d|%d|%d\n",
		s.turns.TurnNumber(),
		s.turns.Current(),
		s.phase,
		s.step,
		s.turns.DoublesStreak(),
		s.pendingPurchase,
		s.winner,
		s.nextTradeID,
	)
	fmt.Fprintf(&buf, "ROLL:%d|%d\n", s.lastRoll.D1, s.lastRoll.D2)

	for _, p := range s.players {
		cardIDs := make([]string, 0, len(p.JailCards))
		for _, c := range p.JailCards {
			cardIDs = append(cardIDs, fmt.Sprintf("%s/%d", c.Deck, c.ID))
		}
		sort.Strings(cardIDs)
		fmt.Fprintf(&buf, "PLAYER:%d|%s|%d|%d|%t|%d|%t|%s\n",
			p.ID, p.Name, p.Cash, p.Position, p.InJail, p.JailTurns, p.Bankrupt,
			strings.Join(cardIDs, ","))
	}

	positions := make([]int, 0, len(s.props))
	for pos := range s.props {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	for _, pos := range positions {
		ps := s.props[pos]
		fmt.Fprintf(&buf, "PROPERTY:%d|%d|%d|%t|%t\n", pos, ps.Owner, ps.Houses, ps.Hotel, ps.Mortgaged)
	}

	fmt.Fprintf(&buf, "BANK:%d|%d\n", s.bank.Houses, s.bank.Hotels)

	// Obligation order is significant.
	for i, o := range s.obligations {
		fmt.Fprintf(&buf, "OBLIGATION:%d|%d|%d|%d|%s\n", i, o.Debtor, o.Creditor, o.Amount, o.Kind)
	}

	if a := s.auction; a != nil {
		fmt.Fprintf(&buf, "AUCTION:%d|%d|%d|%v\n", a.Position, a.CurrentBid, a.HighBidder, a.ActiveBidders())
		for _, id := range a.Bidders {
			fmt.Fprintf(&buf, "  BIDS:%d=%d\n", id, a.BidsLeft[id])
		}
	}
	if t := s.trade; t != nil {
		fmt.Fprintf(&buf, "TRADE:%d|%d|%d|%+v|%+v\n", t.ID, t.Proposer, t.Recipient, t.Offered, t.Requested)
	}

	for _, d := range []*cards.Deck{s.chance, s.chest} {
		ids := make([]string, 0, d.Remaining())
		for _, c := range d.Peek() {
			ids = append(ids, fmt.Sprint(c.ID))
		}
		fmt.Fprintf(&buf, "DECK:%s|%s|%d|%d\n", d.Kind, strings.Join(ids, ","), d.Discarded(), d.Held())
	}

	rng, err := s.pcg.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode generator: %w", err)
	}
	fmt.Fprintf(&buf, "RNG:%s|%v\n", hex.EncodeToString(rng), s.rigged)
	fmt.Fprintf(&buf, "EVENTS:%d\n", s.log.Len())

	return buf.Bytes(), nil
}
