package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/quipuware/quipu_backend/internal/apperrors"
	"github.com/quipuware/quipu_backend/internal/core/domain"
	portsrepo "github.com/quipuware/quipu_backend/internal/core/ports/repositories"
	"github.com/quipuware/quipu_backend/internal/models"
	"github.com/quipuware/quipu_backend/internal/utils/mapping"
)

type PgxDocumentRepository struct {
	BaseRepository
	fiscalRepo portsrepo.FiscalRepositoryFacade
}

// newPgxDocumentRepository creates a new repository for document data.
func newPgxDocumentRepository(pool *pgxpool.Pool, fiscalRepo portsrepo.FiscalRepositoryFacade) portsrepo.DocumentRepositoryFacade {
	return &PgxDocumentRepository{
		BaseRepository: BaseRepository{Pool: pool},
		fiscalRepo:     fiscalRepo,
	}
}

// Ensure PgxDocumentRepository implements portsrepo.DocumentRepositoryFacade
var _ portsrepo.DocumentRepositoryFacade = (*PgxDocumentRepository)(nil)

const documentColumns = `document_id, tenant_id, kind, person_id, issue_date, subtotal, tax_total, discount, total, paid_amount, balance, status, created_at, created_by, last_updated_at, last_updated_by`

func scanDocument(row pgx.Row) (*models.Document, error) {
	var m models.Document
	err := row.Scan(
		&m.DocumentID,
		&m.TenantID,
		&m.Kind,
		&m.PersonID,
		&m.IssueDate,
		&m.Subtotal,
		&m.TaxTotal,
		&m.Discount,
		&m.Total,
		&m.PaidAmount,
		&m.Balance,
		&m.Status,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PgxDocumentRepository) insertChildren(ctx context.Context, tx pgx.Tx, document domain.Document) error {
	batch := &pgx.Batch{}
	itemQuery := `
		INSERT INTO document_items (item_id, document_id, description, quantity, unit_price, discount, tax_rate, revenue_account_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	for _, item := range document.Items {
		batch.Queue(itemQuery,
			item.ItemID,
			item.DocumentID,
			item.Description,
			item.Quantity,
			item.UnitPrice,
			item.Discount,
			item.TaxRate,
			item.RevenueAccountID,
		)
	}
	paymentQuery := `
		INSERT INTO document_payments (payment_id, document_id, method, amount, due_days)
		VALUES ($1, $2, $3, $4, $5);
	`
	for _, payment := range document.Payments {
		batch.Queue(paymentQuery,
			payment.PaymentID,
			payment.DocumentID,
			string(payment.Method),
			payment.Amount,
			payment.DueDays,
		)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert children of document %s: %w", document.DocumentID, err)
	}
	return nil
}

// SaveDocument inserts the document header and its children within tx.
func (r *PgxDocumentRepository) SaveDocument(ctx context.Context, tx pgx.Tx, document domain.Document) error {
	m := mapping.ToModelDocument(document)
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := tx.Exec(ctx, query,
		m.DocumentID,
		m.TenantID,
		m.Kind,
		m.PersonID,
		m.IssueDate,
		m.Subtotal,
		m.TaxTotal,
		m.Discount,
		m.Total,
		m.PaidAmount,
		m.Balance,
		m.Status,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document %s: %w", m.DocumentID, err)
	}
	return r.insertChildren(ctx, tx, document)
}

// UpdateDocument rewrites the header and replaces children wholesale within tx.
func (r *PgxDocumentRepository) UpdateDocument(ctx context.Context, tx pgx.Tx, document domain.Document) error {
	m := mapping.ToModelDocument(document)
	query := `
		UPDATE documents
		SET person_id = $1, issue_date = $2, subtotal = $3, tax_total = $4, discount = $5, total = $6, paid_amount = $7, balance = $8, status = $9, last_updated_at = $10, last_updated_by = $11
		WHERE tenant_id = $12 AND document_id = $13;
	`
	tag, err := tx.Exec(ctx, query,
		m.PersonID,
		m.IssueDate,
		m.Subtotal,
		m.TaxTotal,
		m.Discount,
		m.Total,
		m.PaidAmount,
		m.Balance,
		m.Status,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
		m.TenantID,
		m.DocumentID,
	)
	if err != nil {
		return fmt.Errorf("failed to update document %s: %w", m.DocumentID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM document_items WHERE document_id = $1;`, m.DocumentID); err != nil {
		return fmt.Errorf("failed to clear items of document %s: %w", m.DocumentID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM document_payments WHERE document_id = $1;`, m.DocumentID); err != nil {
		return fmt.Errorf("failed to clear payments of document %s: %w", m.DocumentID, err)
	}
	return r.insertChildren(ctx, tx, document)
}

// FindDocumentByID returns the document with children and fiscal info.
func (r *PgxDocumentRepository) FindDocumentByID(ctx context.Context, tenantID, documentID string) (*domain.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE tenant_id = $1 AND document_id = $2;
	`
	m, err := scanDocument(r.Pool.QueryRow(ctx, query, tenantID, documentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find document %s: %w", documentID, err)
	}
	document := mapping.ToDomainDocument(*m)

	if err := r.loadChildren(ctx, &document); err != nil {
		return nil, err
	}

	fiscal, err := r.fiscalRepo.FindFiscalByDocumentID(ctx, tenantID, documentID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	document.FiscalInfo = fiscal
	return &document, nil
}

func (r *PgxDocumentRepository) loadChildren(ctx context.Context, document *domain.Document) error {
	itemQuery := `
		SELECT item_id, document_id, description, quantity, unit_price, discount, tax_rate, revenue_account_id
		FROM document_items
		WHERE document_id = $1
		ORDER BY item_id;
	`
	rows, err := r.Pool.Query(ctx, itemQuery, document.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to query items of document %s: %w", document.DocumentID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var m models.DocumentItem
		if err := rows.Scan(&m.ItemID, &m.DocumentID, &m.Description, &m.Quantity, &m.UnitPrice, &m.Discount, &m.TaxRate, &m.RevenueAccountID); err != nil {
			return fmt.Errorf("failed to scan item of document %s: %w", document.DocumentID, err)
		}
		document.Items = append(document.Items, mapping.ToDomainDocumentItem(m))
	}
	if err := rows.Err(); err != nil {
		return err
	}

	paymentQuery := `
		SELECT payment_id, document_id, method, amount, due_days
		FROM document_payments
		WHERE document_id = $1
		ORDER BY payment_id;
	`
	payRows, err := r.Pool.Query(ctx, paymentQuery, document.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to query payments of document %s: %w", document.DocumentID, err)
	}
	defer payRows.Close()
	for payRows.Next() {
		var m models.DocumentPayment
		if err := payRows.Scan(&m.PaymentID, &m.DocumentID, &m.Method, &m.Amount, &m.DueDays); err != nil {
			return fmt.Errorf("failed to scan payment of document %s: %w", document.DocumentID, err)
		}
		document.Payments = append(document.Payments, mapping.ToDomainDocumentPayment(m))
	}
	return payRows.Err()
}

// FindDocumentForUpdate locks the document row within tx and returns the
// header without children.
func (r *PgxDocumentRepository) FindDocumentForUpdate(ctx context.Context, tx pgx.Tx, tenantID, documentID string) (*domain.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE tenant_id = $1 AND document_id = $2
		FOR UPDATE;
	`
	m, err := scanDocument(tx.QueryRow(ctx, query, tenantID, documentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock document %s: %w", documentID, err)
	}
	document := mapping.ToDomainDocument(*m)
	return &document, nil
}

// UpdateDocumentAmounts writes paid_amount and balance within tx.
func (r *PgxDocumentRepository) UpdateDocumentAmounts(ctx context.Context, tx pgx.Tx, tenantID, documentID string, paidAmount, balance decimal.Decimal, userID string, at time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE documents
		SET paid_amount = $1, balance = $2, last_updated_at = $3, last_updated_by = $4
		WHERE tenant_id = $5 AND document_id = $6;
	`, paidAmount, balance, at, userID, tenantID, documentID)
	if err != nil {
		return fmt.Errorf("failed to update amounts of document %s: %w", documentID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateDocumentStatus writes the business status on the pool.
func (r *PgxDocumentRepository) UpdateDocumentStatus(ctx context.Context, tenantID, documentID string, status domain.DocumentStatus, userID string, at time.Time) error {
	tag, err := r.Pool.Exec(ctx, `
		UPDATE documents
		SET status = $1, last_updated_at = $2, last_updated_by = $3
		WHERE tenant_id = $4 AND document_id = $5;
	`, string(status), at, userID, tenantID, documentID)
	if err != nil {
		return fmt.Errorf("failed to update status of document %s: %w", documentID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteDocument removes the document and all its children within tx.
func (r *PgxDocumentRepository) DeleteDocument(ctx context.Context, tx pgx.Tx, tenantID, documentID string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM document_items WHERE document_id = $1;`, documentID); err != nil {
		return fmt.Errorf("failed to clear items of document %s: %w", documentID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM document_payments WHERE document_id = $1;`, documentID); err != nil {
		return fmt.Errorf("failed to clear payments of document %s: %w", documentID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM document_fiscal_info WHERE document_id = $1;`, documentID); err != nil {
		return fmt.Errorf("failed to clear fiscal info of document %s: %w", documentID, err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM documents WHERE tenant_id = $1 AND document_id = $2;`, tenantID, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", documentID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// NextFiscalSequence claims the next sequence number for the emission point.
// The counter row is upserted and incremented atomically within tx.
func (r *PgxDocumentRepository) NextFiscalSequence(ctx context.Context, tx pgx.Tx, tenantID, establishment, emissionPoint string, kind domain.DocumentKind) (int64, error) {
	query := `
		INSERT INTO fiscal_sequences (tenant_id, establishment, emission_point, kind, last_sequence)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (tenant_id, establishment, emission_point, kind)
		DO UPDATE SET last_sequence = fiscal_sequences.last_sequence + 1
		RETURNING last_sequence;
	`
	var sequence int64
	if err := tx.QueryRow(ctx, query, tenantID, establishment, emissionPoint, string(kind)).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to claim fiscal sequence %s-%s: %w", establishment, emissionPoint, err)
	}
	return sequence, nil
}
