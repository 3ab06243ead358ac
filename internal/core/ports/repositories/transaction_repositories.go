package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/quipuware/quipu_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransactionRepositoryFacade persists transactions and their document links.
type TransactionRepositoryFacade interface {
	SaveTransaction(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error
	UpdateTransaction(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error
	DeleteTransaction(ctx context.Context, tx pgx.Tx, tenantID, transactionID string) error
	FindTransactionByID(ctx context.Context, tenantID, transactionID string) (*domain.Transaction, error)
	SaveTransactionDocuments(ctx context.Context, tx pgx.Tx, links []domain.TransactionDocument) error
	DeleteTransactionDocuments(ctx context.Context, tx pgx.Tx, transactionID string) error
	ListTransactionDocuments(ctx context.Context, tx pgx.Tx, transactionID string) ([]domain.TransactionDocument, error)
	// SumAppliedToDocument aggregates the applied amount over every link that
	// touches the document. Recomputation always goes through this aggregate,
	// never through incremental adds.
	SumAppliedToDocument(ctx context.Context, tx pgx.Tx, tenantID, documentID string) (decimal.Decimal, error)
}
