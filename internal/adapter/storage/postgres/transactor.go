package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Transactor hands out pgx transactions for ledger units of work. Every
// balance mutation runs inside one so the wallet row lock, the transaction
// insert, and the balance write commit or roll back together.
type Transactor struct {
	pool Pool
}

// NewTransactor wraps the connection pool as a ports.DBTransactor.
func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// Begin opens a read-write transaction at the default isolation level.
// Read committed is sufficient: the FOR UPDATE row lock serializes writers
// per wallet, and the reference uniqueness constraint arbitrates replays.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return t.pool.BeginTx(ctx, pgx.TxOptions{})
}
