package game

import "errors"

// Sentinel errors returned by the registry, engine and service. The
// transport maps these onto protocol error codes, so every rejected action
// must surface as one of them.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomFull            = errors.New("room is full")
	ErrAlreadyJoined       = errors.New("player already in room")
	ErrPlayerNotInRoom     = errors.New("player not in room")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrBetTooLow           = errors.New("bet is below the current bet")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidConfig       = errors.New("invalid room configuration")
	ErrAlreadyEntered      = errors.New("player already entered the round")
	ErrRoundInProgress     = errors.New("round already in progress")
	ErrNoActiveRound       = errors.New("no active round")
	ErrNotInRound          = errors.New("player not in the current round")
	ErrNotHeadsUp          = errors.New("action requires exactly two active players")
	ErrOfferPending        = errors.New("an offer is already pending")
	ErrNoPendingOffer      = errors.New("no pending offer addressed to player")
	ErrUnknownMove         = errors.New("unknown move")
	ErrLedgerUnavailable   = errors.New("ledger unavailable")
)
