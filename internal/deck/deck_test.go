package deck

import (
	"testing"

	"github.com/sekalabs/seka-server/internal/randutil"
)

func TestNewDeckIsCanonicalPermutation(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		d := New(randutil.New(seed))
		if d.Remaining() != Size {
			t.Fatalf("deck has %d cards, want %d", d.Remaining(), Size)
		}

		seen := make(map[Card]int, Size)
		for _, c := range d.Deal(Size) {
			seen[c]++
		}

		for suit := Hearts; suit <= Diamonds; suit++ {
			for rank := Six; rank <= Ace; rank++ {
				if n := seen[NewCard(suit, rank)]; n != 1 {
					t.Errorf("seed %d: card %s appears %d times", seed, NewCard(suit, rank), n)
				}
			}
		}
	}
}

func TestDealConsumesDeck(t *testing.T) {
	d := New(randutil.New(1))
	hand := d.Deal(HandSize)
	if len(hand) != HandSize {
		t.Fatalf("dealt %d cards, want %d", len(hand), HandSize)
	}
	if d.Remaining() != Size-HandSize {
		t.Errorf("remaining = %d, want %d", d.Remaining(), Size-HandSize)
	}

	// dealt cards must not reappear
	rest := d.Deal(Size)
	for _, c := range hand {
		for _, r := range rest {
			if c == r {
				t.Errorf("card %s dealt twice", c)
			}
		}
	}
}

func TestDealShortDeck(t *testing.T) {
	d := New(randutil.New(2))
	d.Deal(Size)
	if got := d.Deal(3); len(got) != 0 {
		t.Errorf("dealing from empty deck returned %d cards", len(got))
	}
}
