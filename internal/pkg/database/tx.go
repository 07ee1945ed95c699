package database

import "context"

// TxRunner runs a function inside a database transaction. Services depend on
// this interface instead of pgx directly so tests can substitute an in-memory
// runner.
type TxRunner interface {
	// RunInTx begins a transaction, runs fn with a context the repositories
	// recognize as transactional, and commits when fn returns nil.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
