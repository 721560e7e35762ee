package deck

// Score computes the Seka value of a 3-card hand.
//
// Precedence:
//  1. Three Aces score 33, two Aces score 22.
//  2. Three cards of the same non-Ace rank score a flat 32.
//  3. Otherwise the score is the highest per-suit sum of card values over
//     suits holding at least two cards; 0 when no two cards share a suit.
//
// The function is pure and invariant under hand ordering.
func Score(hand []Card) int {
	if len(hand) == 0 {
		return 0
	}

	aces := 0
	for _, c := range hand {
		if c.IsAce() {
			aces++
		}
	}
	if aces == 3 {
		return 33
	}
	if aces == 2 {
		return 22
	}

	if len(hand) == 3 && hand[0].Rank == hand[1].Rank && hand[1].Rank == hand[2].Rank {
		return 32
	}

	var sums [4]int
	var counts [4]int
	for _, c := range hand {
		sums[c.Suit] += c.Value()
		counts[c.Suit]++
	}

	best := 0
	for s := range sums {
		if counts[s] >= 2 && sums[s] > best {
			best = sums[s]
		}
	}
	return best
}
