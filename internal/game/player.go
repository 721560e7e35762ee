package game

import (
	"github.com/sekalabs/seka-server/internal/deck"
	"github.com/sekalabs/seka-server/internal/money"
)

// PlayerStatus tracks a player's participation in the current round.
type PlayerStatus string

const (
	StatusWaiting PlayerStatus = "waiting" // in the room, not anted
	StatusReady   PlayerStatus = "ready"   // anted, waiting for the deal
	StatusActive  PlayerStatus = "active"  // holding cards, eligible to act
	StatusFolded  PlayerStatus = "folded"  // out of the current round
)

// Player is a seat in a room. It is owned exclusively by its Room and only
// touched under the room lock.
type Player struct {
	Username   string
	ConnID     string // opaque connection handle for private publishes
	Status     PlayerStatus
	Hand       []deck.Card
	Score      int
	CurrentBet money.Amount // amount committed to the pot this round
}

// resetForNextRound clears round state while keeping the seat.
func (p *Player) resetForNextRound() {
	p.Status = StatusWaiting
	p.Hand = nil
	p.Score = 0
	p.CurrentBet = 0
}

// PlayerView is the broadcastable projection of a Player. Hands are never
// included; each player receives their own hand privately.
type PlayerView struct {
	Username   string       `json:"username"`
	Status     PlayerStatus `json:"status"`
	CurrentBet money.Amount `json:"currentBet"`
}

func (p *Player) view() PlayerView {
	return PlayerView{
		Username:   p.Username,
		Status:     p.Status,
		CurrentBet: p.CurrentBet,
	}
}

// RevealedHand is a player's hand and score, disclosed when a round ends.
type RevealedHand struct {
	Username string      `json:"username"`
	Hand     []deck.Card `json:"hand"`
	Score    int         `json:"score"`
}
