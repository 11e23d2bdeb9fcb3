package cards

import (
	"math/rand/v2"
)

// Deck is a draw pile with its discard pile. Jail release cards leave the
// deck while a player holds them and come back through ReturnHeld.
type Deck struct {
	Kind    DeckKind
	draw    []Card
	discard []Card
	held    []Card
}

// NewDeck shuffles cards into a fresh draw pile using the game generator.
func NewDeck(kind DeckKind, cards []Card, rng *rand.Rand) *Deck {
	d := &Deck{
		Kind: kind,
		draw: append([]Card(nil), cards...),
	}
	shuffle(d.draw, rng)
	return d
}

// NewStandardDeck builds and shuffles the classic card list for kind.
func NewStandardDeck(kind DeckKind, rng *rand.Rand) *Deck {
	return NewDeck(kind, StandardCards(kind), rng)
}

func shuffle(cards []Card, rng *rand.Rand) {
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// Draw takes the top card. An empty draw pile is refilled from the discard
// pile and reshuffled first. It returns false only when every card is held.
func (d *Deck) Draw(rng *rand.Rand) (Card, bool) {
	if len(d.draw) == 0 {
		if len(d.discard) == 0 {
			return Card{}, false
		}
		d.draw = d.discard
		d.discard = nil
		shuffle(d.draw, rng)
	}
	card := d.draw[0]
	d.draw = d.draw[1:]
	return card, true
}

// Discard places a resolved card on the discard pile.
func (d *Deck) Discard(card Card) {
	d.discard = append(d.discard, card)
}

// Hold records that a player kept the card.
func (d *Deck) Hold(card Card) {
	d.held = append(d.held, card)
}

// ReturnHeld moves a held card back to the discard pile.
func (d *Deck) ReturnHeld(card Card) bool {
	for i, held := range d.held {
		if held.ID == card.ID {
			d.held = append(d.held[:i], d.held[i+1:]...)
			d.discard = append(d.discard, card)
			return true
		}
	}
	return false
}

// Remaining is the number of cards left to draw before a reshuffle.
func (d *Deck) Remaining() int { return len(d.draw) }

// Discarded is the size of the discard pile.
func (d *Deck) Discarded() int { return len(d.discard) }

// Held is the number of cards out with players.
func (d *Deck) Held() int { return len(d.held) }

// Peek returns the draw pile order without mutating it.
func (d *Deck) Peek() []Card {
	return append([]Card(nil), d.draw...)
}

// Clone returns an independent copy of the deck.
func (d *Deck) Clone() *Deck {
	return &Deck{
		Kind:    d.Kind,
		draw:    append([]Card(nil), d.draw...),
		discard: append([]Card(nil), d.discard...),
		held:    append([]Card(nil), d.held...),
	}
}

// StackTop moves the card with the given ID to the top of the draw pile.
// It is used to script scenarios and returns false if the card is not in
// the draw pile.
func (d *Deck) StackTop(id int) bool {
	for i, card := range d.draw {
		if card.ID == id {
			d.draw = append(d.draw[:i], d.draw[i+1:]...)
			d.draw = append([]Card{card}, d.draw...)
			return true
		}
	}
	return false
}
