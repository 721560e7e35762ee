// Package ledger is the persisted balance store the game engine settles
// against. Debits are atomic: a conditional read-modify-write that either
// applies in full or fails with ErrInsufficientFunds, so concurrent debits
// for the same account can never overdraw it.
package ledger

import (
	"context"
	"errors"

	"github.com/sekalabs/seka-server/internal/money"
)

var (
	// ErrInsufficientFunds is returned by Debit when the account balance is
	// below the requested amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrUnknownAccount is returned when the account does not exist.
	ErrUnknownAccount = errors.New("unknown account")
)

// Ledger settles balances. Amounts are non-negative; implementations must
// make Debit atomic against concurrent debits for the same username. Any
// error other than the two sentinels above means the ledger is unavailable
// and the caller must not apply the associated game-state change.
type Ledger interface {
	// Debit removes amount from the account and returns the new balance.
	Debit(ctx context.Context, username string, amount money.Amount) (money.Amount, error)

	// Credit adds amount to the account and returns the new balance.
	Credit(ctx context.Context, username string, amount money.Amount) (money.Amount, error)

	// Balance returns the current account balance.
	Balance(ctx context.Context, username string) (money.Amount, error)

	// EnsureAccount creates the account with the given starting balance if
	// it does not already exist.
	EnsureAccount(ctx context.Context, username string, startingBalance money.Amount) error
}
