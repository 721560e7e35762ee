package game

import (
	"fmt"

	"github.com/sekalabs/seka-server/internal/money"
)

// MoveType enumerates the in-round actions a player can take. Inbound string
// tags are parsed once at the edge; everything past that point dispatches on
// the enum.
type MoveType int

const (
	MoveRaise MoveType = iota
	MoveFold
	MoveShow
	MoveOfferSplit
	MoveOfferSeka
)

// String returns the wire tag for the move type.
func (m MoveType) String() string {
	switch m {
	case MoveRaise:
		return "raise"
	case MoveFold:
		return "fold"
	case MoveShow:
		return "show"
	case MoveOfferSplit:
		return "offer_split"
	case MoveOfferSeka:
		return "offer_seka"
	default:
		return "unknown"
	}
}

// ParseMoveType maps an inbound tag to a MoveType. Unknown tags are a typed
// error, not a silent no-op.
func ParseMoveType(s string) (MoveType, error) {
	switch s {
	case "raise":
		return MoveRaise, nil
	case "fold", "pass":
		return MoveFold, nil
	case "show":
		return MoveShow, nil
	case "offer_split":
		return MoveOfferSplit, nil
	case "offer_seka":
		return MoveOfferSeka, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMove, s)
	}
}

// Move is a validated in-round action. Amount is only meaningful for raises.
type Move struct {
	Type   MoveType
	Amount money.Amount
}

// OfferType distinguishes the two negotiated outcomes.
type OfferType int

const (
	OfferSplit OfferType = iota // divide the pot evenly and end the round
	OfferSeka                   // redeal hands, pot retained
)

// String returns the wire tag for the offer type.
func (o OfferType) String() string {
	if o == OfferSplit {
		return "offer_split"
	}
	return "offer_seka"
}

// Offer is a pending proposal from the acting player to the single opponent.
type Offer struct {
	Type OfferType
	From string
	To   string
}
