package ledger

import (
	"context"
	"sync"

	"github.com/sekalabs/seka-server/internal/money"
)

// Memory is an in-process Ledger for tests and single-node development runs.
type Memory struct {
	mu       sync.Mutex
	balances map[string]money.Amount
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{balances: make(map[string]money.Amount)}
}

// Debit implements Ledger. The check and the write happen under one lock.
func (m *Memory) Debit(_ context.Context, username string, amount money.Amount) (money.Amount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bal, ok := m.balances[username]
	if !ok {
		return 0, ErrUnknownAccount
	}
	if bal < amount {
		return 0, ErrInsufficientFunds
	}
	m.balances[username] = bal - amount
	return bal - amount, nil
}

// Credit implements Ledger.
func (m *Memory) Credit(_ context.Context, username string, amount money.Amount) (money.Amount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bal, ok := m.balances[username]
	if !ok {
		return 0, ErrUnknownAccount
	}
	m.balances[username] = bal + amount
	return bal + amount, nil
}

// Balance implements Ledger.
func (m *Memory) Balance(_ context.Context, username string) (money.Amount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bal, ok := m.balances[username]
	if !ok {
		return 0, ErrUnknownAccount
	}
	return bal, nil
}

// EnsureAccount implements Ledger.
func (m *Memory) EnsureAccount(_ context.Context, username string, startingBalance money.Amount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.balances[username]; !ok {
		m.balances[username] = startingBalance
	}
	return nil
}
