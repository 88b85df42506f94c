package repositories

import "context"

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager runs functions inside database transactions.
// Repositories called from fn pick the transaction up via the context.
type TransactionManager interface {
	// ExecTx executes fn within a transaction, rolling back on error
	ExecTx(ctx context.Context, fn TxFn) error
}
