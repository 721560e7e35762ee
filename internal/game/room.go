package game

import (
	"sync"

	"github.com/coder/quartz"

	"github.com/sekalabs/seka-server/internal/money"
)

// RoomStatus is the coarse room lifecycle state.
type RoomStatus string

const (
	RoomWaiting RoomStatus = "waiting" // accepting antes
	RoomPlaying RoomStatus = "playing" // round in progress
)

// Room is a single table of Seka. All mutable state is guarded by mu; every
// mutation path (player action, timeout callback, disconnect) locks the room
// so a raise, a fold and a timeout-fold can never interleave.
type Room struct {
	ID         string
	Name       string
	Creator    string
	MaxPlayers int
	MinBet     money.Amount

	mu        sync.Mutex
	players   []*Player // join order; turn order derives from it
	status    RoomStatus
	lastBet   money.Amount
	totalBank money.Amount
	turnIndex int // index into the active-player list, not players

	countdownActive bool
	countdownTimer  *quartz.Timer
	pendingOffer    *Offer

	// turnSeq increments whenever the turn moves or the round ends. Timer
	// callbacks capture the sequence they were scheduled under and bail out
	// if it has moved on, so a stale timer can never double-process a turn.
	turnSeq   uint64
	turnTimer *quartz.Timer
}

func newRoom(id, name, creator string, maxPlayers int, minBet money.Amount) *Room {
	return &Room{
		ID:         id,
		Name:       name,
		Creator:    creator,
		MaxPlayers: maxPlayers,
		MinBet:     minBet,
		status:     RoomWaiting,
		lastBet:    minBet,
	}
}

// find returns the seated player with the given username, or nil.
// Caller must hold mu.
func (r *Room) find(username string) *Player {
	for _, p := range r.players {
		if p.Username == username {
			return p
		}
	}
	return nil
}

// activePlayers returns players holding cards, in join order.
// Caller must hold mu.
func (r *Room) activePlayers() []*Player {
	var active []*Player
	for _, p := range r.players {
		if p.Status == StatusActive {
			active = append(active, p)
		}
	}
	return active
}

// readyCount counts players who have anted. Caller must hold mu.
func (r *Room) readyCount() int {
	n := 0
	for _, p := range r.players {
		if p.Status == StatusReady {
			n++
		}
	}
	return n
}

// currentTurn returns the player addressed by turnIndex, or nil when no
// round is running. Caller must hold mu.
func (r *Room) currentTurn() *Player {
	active := r.activePlayers()
	if r.status != RoomPlaying || len(active) == 0 {
		return nil
	}
	return active[r.turnIndex%len(active)]
}

// views projects every seat for broadcasting. Caller must hold mu.
func (r *Room) views() []PlayerView {
	views := make([]PlayerView, len(r.players))
	for i, p := range r.players {
		views[i] = p.view()
	}
	return views
}

// revealAll discloses all dealt hands at round end. Caller must hold mu.
func (r *Room) revealAll() []RevealedHand {
	var hands []RevealedHand
	for _, p := range r.players {
		if len(p.Hand) > 0 {
			hands = append(hands, RevealedHand{Username: p.Username, Hand: p.Hand, Score: p.Score})
		}
	}
	return hands
}

// RoomSummary is the room-list projection published to the lobby.
type RoomSummary struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	PlayerCount int          `json:"playerCount"`
	MaxPlayers  int          `json:"maxPlayers"`
	MinBet      money.Amount `json:"minBet"`
	Status      RoomStatus   `json:"status"`
}

// Summary snapshots the room for the lobby list.
func (r *Room) Summary() RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomSummary{
		ID:          r.ID,
		Name:        r.Name,
		PlayerCount: len(r.players),
		MaxPlayers:  r.MaxPlayers,
		MinBet:      r.MinBet,
		Status:      r.status,
	}
}

// RoomState is the in-room snapshot returned on join.
type RoomState struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Creator   string       `json:"creator"`
	MinBet    money.Amount `json:"minBet"`
	LastBet   money.Amount `json:"lastBet"`
	TotalBank money.Amount `json:"totalBank"`
	Status    RoomStatus   `json:"status"`
	Players   []PlayerView `json:"players"`
}

// State snapshots the full public room state.
func (r *Room) State() RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

func (r *Room) stateLocked() RoomState {
	return RoomState{
		ID:        r.ID,
		Name:      r.Name,
		Creator:   r.Creator,
		MinBet:    r.MinBet,
		LastBet:   r.lastBet,
		TotalBank: r.totalBank,
		Status:    r.status,
		Players:   r.views(),
	}
}

// stopTimersLocked cancels any scheduled countdown or turn timer and bumps
// turnSeq so in-flight callbacks become no-ops. Caller must hold mu.
func (r *Room) stopTimersLocked() {
	r.turnSeq++
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
	if r.countdownTimer != nil {
		r.countdownTimer.Stop()
		r.countdownTimer = nil
	}
	r.countdownActive = false
}
