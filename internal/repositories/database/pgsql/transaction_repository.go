package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/quipuware/quipu_backend/internal/apperrors"
	"github.com/quipuware/quipu_backend/internal/core/domain"
	portsrepo "github.com/quipuware/quipu_backend/internal/core/ports/repositories"
	"github.com/quipuware/quipu_backend/internal/models"
	"github.com/quipuware/quipu_backend/internal/utils/mapping"
)

type PgxTransactionRepository struct {
	pool *pgxpool.Pool
}

// newPgxTransactionRepository creates a new repository for transactions and
// their document links.
func newPgxTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepositoryFacade {
	return &PgxTransactionRepository{pool: pool}
}

// Ensure PgxTransactionRepository implements portsrepo.TransactionRepositoryFacade
var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

func toDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID:   m.TransactionID,
		TenantID:        m.TenantID,
		UserID:          m.UserID,
		Type:            domain.TransactionType(m.Type),
		Method:          domain.PaymentMethod(m.Method),
		Amount:          m.Amount,
		Concept:         m.Concept,
		TransactionDate: m.TransactionDate,
		PersonID:        m.PersonID,
		BankAccountID:   m.BankAccountID,
		CashMovementID:  m.CashMovementID,
		BankMovementID:  m.BankMovementID,
		AuditFields:     mapping.ToDomainAuditFields(m.AuditFields),
	}
}

const transactionColumns = `transaction_id, tenant_id, user_id, type, method, amount, concept, transaction_date, person_id, bank_account_id, cash_movement_id, bank_movement_id, created_at, created_by, last_updated_at, last_updated_by`

// SaveTransaction inserts a transaction within tx.
func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := tx.Exec(ctx, query,
		txn.TransactionID,
		txn.TenantID,
		txn.UserID,
		string(txn.Type),
		string(txn.Method),
		txn.Amount,
		txn.Concept,
		txn.TransactionDate,
		txn.PersonID,
		txn.BankAccountID,
		txn.CashMovementID,
		txn.BankMovementID,
		txn.CreatedAt,
		txn.CreatedBy,
		txn.LastUpdatedAt,
		txn.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save transaction %s: %w", txn.TransactionID, err)
	}
	return nil
}

// UpdateTransaction rewrites a transaction row within tx.
func (r *PgxTransactionRepository) UpdateTransaction(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error {
	query := `
		UPDATE transactions
		SET amount = $1, concept = $2, transaction_date = $3, cash_movement_id = $4, bank_movement_id = $5, last_updated_at = $6, last_updated_by = $7
		WHERE tenant_id = $8 AND transaction_id = $9;
	`
	tag, err := tx.Exec(ctx, query,
		txn.Amount,
		txn.Concept,
		txn.TransactionDate,
		txn.CashMovementID,
		txn.BankMovementID,
		txn.LastUpdatedAt,
		txn.LastUpdatedBy,
		txn.TenantID,
		txn.TransactionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", txn.TransactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteTransaction removes a transaction within tx.
func (r *PgxTransactionRepository) DeleteTransaction(ctx context.Context, tx pgx.Tx, tenantID, transactionID string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM transactions WHERE tenant_id = $1 AND transaction_id = $2;`, tenantID, transactionID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindTransactionByID retrieves a transaction by its ID.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, tenantID, transactionID string) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE tenant_id = $1 AND transaction_id = $2;
	`
	var m models.Transaction
	err := r.pool.QueryRow(ctx, query, tenantID, transactionID).Scan(
		&m.TransactionID,
		&m.TenantID,
		&m.UserID,
		&m.Type,
		&m.Method,
		&m.Amount,
		&m.Concept,
		&m.TransactionDate,
		&m.PersonID,
		&m.BankAccountID,
		&m.CashMovementID,
		&m.BankMovementID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}
	txn := toDomainTransaction(m)
	return &txn, nil
}

// SaveTransactionDocuments inserts the allocation links within tx.
func (r *PgxTransactionRepository) SaveTransactionDocuments(ctx context.Context, tx pgx.Tx, links []domain.TransactionDocument) error {
	batch := &pgx.Batch{}
	query := `
		INSERT INTO transaction_documents (transaction_id, document_id, amount)
		VALUES ($1, $2, $3);
	`
	for _, link := range links {
		batch.Queue(query, link.TransactionID, link.DocumentID, link.Amount)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert transaction links: %w", err)
	}
	return nil
}

// DeleteTransactionDocuments removes every link of the transaction within tx.
func (r *PgxTransactionRepository) DeleteTransactionDocuments(ctx context.Context, tx pgx.Tx, transactionID string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM transaction_documents WHERE transaction_id = $1;`, transactionID); err != nil {
		return fmt.Errorf("failed to delete links of transaction %s: %w", transactionID, err)
	}
	return nil
}

// ListTransactionDocuments returns the links of a transaction within tx.
func (r *PgxTransactionRepository) ListTransactionDocuments(ctx context.Context, tx pgx.Tx, transactionID string) ([]domain.TransactionDocument, error) {
	rows, err := tx.Query(ctx, `
		SELECT transaction_id, document_id, amount
		FROM transaction_documents
		WHERE transaction_id = $1;
	`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links of transaction %s: %w", transactionID, err)
	}
	defer rows.Close()

	var links []domain.TransactionDocument
	for rows.Next() {
		var link domain.TransactionDocument
		if err := rows.Scan(&link.TransactionID, &link.DocumentID, &link.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan link of transaction %s: %w", transactionID, err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// SumAppliedToDocument aggregates the applied amount over every link that
// touches the document within tx.
func (r *PgxTransactionRepository) SumAppliedToDocument(ctx context.Context, tx pgx.Tx, tenantID, documentID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(td.amount), 0)
		FROM transaction_documents td
		JOIN transactions t ON t.transaction_id = td.transaction_id
		WHERE t.tenant_id = $1 AND td.document_id = $2;
	`
	var sum decimal.Decimal
	if err := tx.QueryRow(ctx, query, tenantID, documentID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to aggregate applied amount for document %s: %w", documentID, err)
	}
	return sum, nil
}
