package game

import (
	"github.com/sekalabs/seka-server/internal/deck"
	"github.com/sekalabs/seka-server/internal/money"
)

// Publisher fans events out to subscribers. The engine calls it but does not
// implement transport; delivery is at-most-once and never acknowledged.
type Publisher interface {
	// ToRoom publishes an event to every connection in the room.
	ToRoom(roomID, event string, payload any)
	// ToPlayer publishes an event to a single connection handle.
	ToPlayer(connID, event string, payload any)
	// RoomList publishes the lobby projection to everyone.
	RoomList(rooms []RoomSummary)
}

// Event names the clients subscribe to.
const (
	EventRoomList           = "update_room_list"
	EventPlayerJoined       = "player_joined"
	EventPlayersUpdate      = "update_players"
	EventBalanceUpdate      = "balance_update"
	EventStartCountdown     = "start_countdown"
	EventCountdownCancelled = "countdown_cancelled"
	EventBattleStart        = "battle_start"
	EventDealHand           = "deal_hand"
	EventNextTurn           = "next_turn"
	EventMoveMade           = "move_made"
	EventFinalTwo           = "final_two"
	EventGameState          = "update_game_state"
	EventOfferReceived      = "offer_received"
	EventOfferRejected      = "offer_rejected"
	EventSeka               = "seka_event"
	EventRedeal             = "redeal"
	EventGameOver           = "game_over"
)

// PlayerJoined announces a new seat to the rest of the room.
type PlayerJoined struct {
	Username string `json:"username"`
}

// PlayersUpdate accompanies any change to the seat list or antes.
type PlayersUpdate struct {
	Players   []PlayerView `json:"players"`
	TotalBank money.Amount `json:"totalBank"`
}

// BalanceUpdate is sent privately to the player whose ledger balance moved.
type BalanceUpdate struct {
	Username   string       `json:"username"`
	NewBalance money.Amount `json:"newBalance"`
}

// CountdownStarted announces the one-shot pre-round countdown.
type CountdownStarted struct {
	Seconds int `json:"seconds"`
}

// BattleStart announces the deal. Hands are delivered privately.
type BattleStart struct {
	Players      []PlayerView `json:"players"`
	TotalBank    money.Amount `json:"totalBank"`
	ActivePlayer string       `json:"activePlayer"`
	LastBet      money.Amount `json:"lastBet"`
}

// DealHand is the private per-player deal.
type DealHand struct {
	Hand  []deck.Card `json:"hand"`
	Score int         `json:"score"`
}

// NextTurn announces whose turn it is.
type NextTurn struct {
	ActivePlayer string       `json:"activePlayer"`
	TotalBank    money.Amount `json:"totalBank"`
	LastBet      money.Amount `json:"lastBet"`
}

// MoveMade reports a completed action, including server-driven timeout folds.
type MoveMade struct {
	Username string `json:"username"`
	MoveType string `json:"moveType"`
}

// FinalTwo signals that exactly two active players remain after a raise, so
// the other party may request a showdown.
type FinalTwo struct {
	By     string       `json:"by"`
	Amount money.Amount `json:"amount"`
}

// GameState accompanies a successful raise.
type GameState struct {
	Players      []PlayerView `json:"players"`
	TotalBank    money.Amount `json:"totalBank"`
	LastBet      money.Amount `json:"lastBet"`
	ActivePlayer string       `json:"activePlayer"`
}

// OfferReceived is sent privately to the opponent of an offer.
type OfferReceived struct {
	Type string `json:"type"`
	From string `json:"from"`
}

// OfferRejected is sent privately back to the offerer.
type OfferRejected struct {
	By string `json:"by"`
}

// SekaTie announces equal showdown scores and the forced re-deal.
type SekaTie struct {
	Players   []string     `json:"players"`
	Score     int          `json:"score"`
	TotalBank money.Amount `json:"totalBank"`
}

// GameOver reports round resolution. Winner is empty on a split.
type GameOver struct {
	Winner     string         `json:"winner,omitempty"`
	WinAmount  money.Amount   `json:"winAmount"`
	Commission money.Amount   `json:"commission"`
	IsSplit    bool           `json:"isSplit,omitempty"`
	AllHands   []RevealedHand `json:"allHands"`
}
