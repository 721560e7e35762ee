package deck

import rand "math/rand/v2"

// Size is the number of cards in a Seka deck: 4 suits × 9 ranks.
const Size = 36

// HandSize is the number of cards dealt to each player.
const HandSize = 3

// Deck represents a shuffled 36-card deck
type Deck struct {
	cards []Card
}

// New creates a full 36-card deck permuted by a Fisher–Yates shuffle using
// the provided RNG. Callers inject the RNG so deals are reproducible.
func New(rng *rand.Rand) *Deck {
	d := &Deck{cards: make([]Card, 0, Size)}
	for suit := Hearts; suit <= Diamonds; suit++ {
		for rank := Six; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(suit, rank))
		}
	}
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
	return d
}

// Deal removes and returns the top n cards from the deck
func (d *Deck) Deal(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	cards := d.cards[:n]
	d.cards = d.cards[n:]
	return cards
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}
