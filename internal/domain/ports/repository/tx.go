package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an infra-defined transaction handle (pgx.Tx for Postgres).
// Repository helpers MUST accept a nil Tx and fall back to the pool.
type Tx interface{}

// TransactionManager runs fn inside a transaction, committing when fn returns
// nil and rolling back otherwise. The snapshot repository uses it so a Save
// either lands completely or not at all.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
