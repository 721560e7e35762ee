package ledger

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/sekalabs/seka-server/internal/money"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	username   TEXT PRIMARY KEY,
	balance    BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres is a Ledger backed by a PostgreSQL accounts table. Debits are a
// single conditional UPDATE so two raises racing for the same balance can
// never both succeed past it.
type Postgres struct {
	db *sql.DB
}

// Connect opens a PostgreSQL ledger and applies the schema.
func Connect(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging ledger database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("applying ledger schema: %w", err)
	}
	return &Postgres{db: db}, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Debit implements Ledger.
func (p *Postgres) Debit(ctx context.Context, username string, amount money.Amount) (money.Amount, error) {
	var balance int64
	err := p.db.QueryRowContext(ctx, `
		UPDATE accounts SET balance = balance - $2
		WHERE username = $1 AND balance >= $2
		RETURNING balance
	`, username, int64(amount)).Scan(&balance)
	if err == sql.ErrNoRows {
		// Either the account is missing or the balance is short; distinguish
		// so the caller can report the right condition.
		var exists bool
		if err := p.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1)`, username).Scan(&exists); err != nil {
			return 0, fmt.Errorf("checking account %s: %w", username, err)
		}
		if !exists {
			return 0, ErrUnknownAccount
		}
		return 0, ErrInsufficientFunds
	}
	if err != nil {
		return 0, fmt.Errorf("debiting %s: %w", username, err)
	}
	return money.Amount(balance), nil
}

// Credit implements Ledger.
func (p *Postgres) Credit(ctx context.Context, username string, amount money.Amount) (money.Amount, error) {
	var balance int64
	err := p.db.QueryRowContext(ctx, `
		UPDATE accounts SET balance = balance + $2
		WHERE username = $1
		RETURNING balance
	`, username, int64(amount)).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrUnknownAccount
	}
	if err != nil {
		return 0, fmt.Errorf("crediting %s: %w", username, err)
	}
	return money.Amount(balance), nil
}

// Balance implements Ledger.
func (p *Postgres) Balance(ctx context.Context, username string) (money.Amount, error) {
	var balance int64
	err := p.db.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE username = $1`, username).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrUnknownAccount
	}
	if err != nil {
		return 0, fmt.Errorf("reading balance for %s: %w", username, err)
	}
	return money.Amount(balance), nil
}

// EnsureAccount implements Ledger.
func (p *Postgres) EnsureAccount(ctx context.Context, username string, startingBalance money.Amount) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO accounts (username, balance) VALUES ($1, $2)
		ON CONFLICT (username) DO NOTHING
	`, username, int64(startingBalance))
	if err != nil {
		return fmt.Errorf("ensuring account %s: %w", username, err)
	}
	return nil
}
