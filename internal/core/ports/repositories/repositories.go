// Package repositories defines the persistence ports of the core.
//
// Write methods take a pgx.Tx so that every business operation runs inside a
// single database transaction owned by the calling service: "document row
// changed" and "journal entry posted" commit or roll back together. Read
// methods without a tx parameter use the pool directly.
package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TxManager runs a function inside one database transaction, committing on
// nil and rolling back on error.
type TxManager interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// RepositoryProvider bundles every repository implementation for wiring.
type RepositoryProvider struct {
	TxManager       TxManager
	EntryRepo       EntryRepositoryFacade
	AccountRepo     AccountRepositoryFacade
	PersonRepo      PersonRepositoryFacade
	CashRepo        CashRepositoryFacade
	BankRepo        BankRepositoryFacade
	DocumentRepo    DocumentRepositoryFacade
	FiscalRepo      FiscalRepositoryFacade
	TransactionRepo TransactionRepositoryFacade
}
