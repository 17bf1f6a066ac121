package repositories

import "context"

// TxFn is a unit of work run inside a transaction. Repositories called with the
// ctx passed to fn join that transaction.
type TxFn func(ctx context.Context) error

// TransactionManager runs multi-statement operations atomically.
// Only account deletion needs one; every other operation is a single statement.
type TransactionManager interface {
	// ExecTx commits when fn returns nil and rolls back otherwise.
	ExecTx(ctx context.Context, fn TxFn) error
}
