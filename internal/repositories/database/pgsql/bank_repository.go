package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quipuware/quipu_backend/internal/apperrors"
	"github.com/quipuware/quipu_backend/internal/core/domain"
	portsrepo "github.com/quipuware/quipu_backend/internal/core/ports/repositories"
	"github.com/quipuware/quipu_backend/internal/models"
	"github.com/quipuware/quipu_backend/internal/utils/mapping"
)

type PgxBankRepository struct {
	pool *pgxpool.Pool
}

// newPgxBankRepository creates a new repository for bank accounts and
// movements.
func newPgxBankRepository(pool *pgxpool.Pool) portsrepo.BankRepositoryFacade {
	return &PgxBankRepository{pool: pool}
}

// Ensure PgxBankRepository implements portsrepo.BankRepositoryFacade
var _ portsrepo.BankRepositoryFacade = (*PgxBankRepository)(nil)

func toDomainBankMovement(m models.BankMovement) domain.BankMovement {
	return domain.BankMovement{
		MovementID:    m.MovementID,
		TenantID:      m.TenantID,
		BankAccountID: m.BankAccountID,
		Direction:     domain.MovementDirection(m.Direction),
		Amount:        m.Amount,
		Concept:       m.Concept,
		MovementDate:  m.MovementDate,
		TransactionID: m.TransactionID,
		EntryID:       m.EntryID,
		AuditFields:   mapping.ToDomainAuditFields(m.AuditFields),
	}
}

// FindBankAccountByID retrieves a bank account by its ID.
func (r *PgxBankRepository) FindBankAccountByID(ctx context.Context, tenantID, bankAccountID string) (*domain.BankAccount, error) {
	query := `
		SELECT bank_account_id, tenant_id, bank_name, number, account_id, created_at, created_by, last_updated_at, last_updated_by
		FROM bank_accounts
		WHERE tenant_id = $1 AND bank_account_id = $2;
	`
	var m models.BankAccount
	err := r.pool.QueryRow(ctx, query, tenantID, bankAccountID).Scan(
		&m.BankAccountID,
		&m.TenantID,
		&m.BankName,
		&m.Number,
		&m.AccountID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find bank account %s: %w", bankAccountID, err)
	}
	return &domain.BankAccount{
		BankAccountID: m.BankAccountID,
		TenantID:      m.TenantID,
		BankName:      m.BankName,
		Number:        m.Number,
		AccountID:     m.AccountID,
		AuditFields:   mapping.ToDomainAuditFields(m.AuditFields),
	}, nil
}

func (r *PgxBankRepository) insertDetails(ctx context.Context, tx pgx.Tx, details []domain.BankMovementDetail) error {
	batch := &pgx.Batch{}
	query := `
		INSERT INTO bank_movement_details (detail_id, movement_id, account_id, amount, person_id, description)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	for _, d := range details {
		batch.Queue(query, d.DetailID, d.MovementID, d.AccountID, d.Amount, d.PersonID, d.Description)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert bank movement details: %w", err)
	}
	return nil
}

const bankMovementColumns = `movement_id, tenant_id, bank_account_id, direction, amount, concept, movement_date, transaction_id, entry_id, created_at, created_by, last_updated_at, last_updated_by`

// SaveBankMovement inserts a movement and its details within tx.
func (r *PgxBankRepository) SaveBankMovement(ctx context.Context, tx pgx.Tx, movement domain.BankMovement) error {
	query := `
		INSERT INTO bank_movements (` + bankMovementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := tx.Exec(ctx, query,
		movement.MovementID,
		movement.TenantID,
		movement.BankAccountID,
		string(movement.Direction),
		movement.Amount,
		movement.Concept,
		movement.MovementDate,
		movement.TransactionID,
		movement.EntryID,
		movement.CreatedAt,
		movement.CreatedBy,
		movement.LastUpdatedAt,
		movement.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save bank movement %s: %w", movement.MovementID, err)
	}
	return r.insertDetails(ctx, tx, movement.Details)
}

// UpdateBankMovement rewrites the header and replaces details wholesale
// within tx.
func (r *PgxBankRepository) UpdateBankMovement(ctx context.Context, tx pgx.Tx, movement domain.BankMovement) error {
	query := `
		UPDATE bank_movements
		SET direction = $1, amount = $2, concept = $3, movement_date = $4, entry_id = $5, last_updated_at = $6, last_updated_by = $7
		WHERE tenant_id = $8 AND movement_id = $9;
	`
	tag, err := tx.Exec(ctx, query,
		string(movement.Direction),
		movement.Amount,
		movement.Concept,
		movement.MovementDate,
		movement.EntryID,
		movement.LastUpdatedAt,
		movement.LastUpdatedBy,
		movement.TenantID,
		movement.MovementID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bank movement %s: %w", movement.MovementID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM bank_movement_details WHERE movement_id = $1;`, movement.MovementID); err != nil {
		return fmt.Errorf("failed to clear details of bank movement %s: %w", movement.MovementID, err)
	}
	return r.insertDetails(ctx, tx, movement.Details)
}

// DeleteBankMovement removes a movement and its details within tx.
func (r *PgxBankRepository) DeleteBankMovement(ctx context.Context, tx pgx.Tx, tenantID, movementID string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM bank_movement_details WHERE movement_id = $1;`, movementID); err != nil {
		return fmt.Errorf("failed to clear details of bank movement %s: %w", movementID, err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM bank_movements WHERE tenant_id = $1 AND movement_id = $2;`, tenantID, movementID)
	if err != nil {
		return fmt.Errorf("failed to delete bank movement %s: %w", movementID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindBankMovementByID retrieves a movement with its details.
func (r *PgxBankRepository) FindBankMovementByID(ctx context.Context, tenantID, movementID string) (*domain.BankMovement, error) {
	query := `
		SELECT ` + bankMovementColumns + `
		FROM bank_movements
		WHERE tenant_id = $1 AND movement_id = $2;
	`
	var m models.BankMovement
	err := r.pool.QueryRow(ctx, query, tenantID, movementID).Scan(
		&m.MovementID,
		&m.TenantID,
		&m.BankAccountID,
		&m.Direction,
		&m.Amount,
		&m.Concept,
		&m.MovementDate,
		&m.TransactionID,
		&m.EntryID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find bank movement %s: %w", movementID, err)
	}
	movement := toDomainBankMovement(m)

	detailQuery := `
		SELECT detail_id, movement_id, account_id, amount, person_id, description
		FROM bank_movement_details
		WHERE movement_id = $1
		ORDER BY detail_id;
	`
	rows, err := r.pool.Query(ctx, detailQuery, movementID)
	if err != nil {
		return nil, fmt.Errorf("failed to query details of bank movement %s: %w", movementID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var d models.BankMovementDetail
		if err := rows.Scan(&d.DetailID, &d.MovementID, &d.AccountID, &d.Amount, &d.PersonID, &d.Description); err != nil {
			return nil, fmt.Errorf("failed to scan detail of bank movement %s: %w", movementID, err)
		}
		movement.Details = append(movement.Details, domain.BankMovementDetail{
			DetailID:    d.DetailID,
			MovementID:  d.MovementID,
			AccountID:   d.AccountID,
			Amount:      d.Amount,
			PersonID:    d.PersonID,
			Description: d.Description,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &movement, nil
}
