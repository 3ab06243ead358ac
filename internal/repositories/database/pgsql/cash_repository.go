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

type PgxCashRepository struct {
	pool *pgxpool.Pool
}

// newPgxCashRepository creates a new repository for cash boxes, sessions and
// movements.
func newPgxCashRepository(pool *pgxpool.Pool) portsrepo.CashRepositoryFacade {
	return &PgxCashRepository{pool: pool}
}

// Ensure PgxCashRepository implements portsrepo.CashRepositoryFacade
var _ portsrepo.CashRepositoryFacade = (*PgxCashRepository)(nil)

func toDomainCashSession(m models.CashSession) domain.CashSession {
	return domain.CashSession{
		SessionID:     m.SessionID,
		TenantID:      m.TenantID,
		CashBoxID:     m.CashBoxID,
		UserID:        m.UserID,
		OpeningAmount: m.OpeningAmount,
		ClosingAmount: m.ClosingAmount,
		Status:        domain.CashSessionStatus(m.Status),
		OpenedAt:      m.OpenedAt,
		ClosedAt:      m.ClosedAt,
	}
}

func toDomainCashMovement(m models.CashMovement) domain.CashMovement {
	return domain.CashMovement{
		MovementID:    m.MovementID,
		TenantID:      m.TenantID,
		SessionID:     m.SessionID,
		PersonID:      m.PersonID,
		Direction:     domain.MovementDirection(m.Direction),
		Amount:        m.Amount,
		Concept:       m.Concept,
		MovementDate:  m.MovementDate,
		TransactionID: m.TransactionID,
		EntryID:       m.EntryID,
		AuditFields:   mapping.ToDomainAuditFields(m.AuditFields),
	}
}

// FindCashBoxByID retrieves a cash box by its ID.
func (r *PgxCashRepository) FindCashBoxByID(ctx context.Context, tenantID, cashBoxID string) (*domain.CashBox, error) {
	query := `
		SELECT cash_box_id, tenant_id, name, account_id, created_at, created_by, last_updated_at, last_updated_by
		FROM cash_boxes
		WHERE tenant_id = $1 AND cash_box_id = $2;
	`
	var m models.CashBox
	err := r.pool.QueryRow(ctx, query, tenantID, cashBoxID).Scan(
		&m.CashBoxID,
		&m.TenantID,
		&m.Name,
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
		return nil, fmt.Errorf("failed to find cash box %s: %w", cashBoxID, err)
	}
	return &domain.CashBox{
		CashBoxID:   m.CashBoxID,
		TenantID:    m.TenantID,
		Name:        m.Name,
		AccountID:   m.AccountID,
		AuditFields: mapping.ToDomainAuditFields(m.AuditFields),
	}, nil
}

// SaveCashSession inserts a new session within tx.
func (r *PgxCashRepository) SaveCashSession(ctx context.Context, tx pgx.Tx, session domain.CashSession) error {
	query := `
		INSERT INTO cash_sessions (session_id, tenant_id, cash_box_id, user_id, opening_amount, closing_amount, status, opened_at, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := tx.Exec(ctx, query,
		session.SessionID,
		session.TenantID,
		session.CashBoxID,
		session.UserID,
		session.OpeningAmount,
		session.ClosingAmount,
		string(session.Status),
		session.OpenedAt,
		session.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save cash session %s: %w", session.SessionID, err)
	}
	return nil
}

// UpdateCashSession rewrites a session row within tx.
func (r *PgxCashRepository) UpdateCashSession(ctx context.Context, tx pgx.Tx, session domain.CashSession) error {
	query := `
		UPDATE cash_sessions
		SET closing_amount = $1, status = $2, closed_at = $3
		WHERE tenant_id = $4 AND session_id = $5;
	`
	tag, err := tx.Exec(ctx, query,
		session.ClosingAmount,
		string(session.Status),
		session.ClosedAt,
		session.TenantID,
		session.SessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update cash session %s: %w", session.SessionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

const cashSessionColumns = `session_id, tenant_id, cash_box_id, user_id, opening_amount, closing_amount, status, opened_at, closed_at`

func scanCashSession(row pgx.Row) (*models.CashSession, error) {
	var m models.CashSession
	err := row.Scan(
		&m.SessionID,
		&m.TenantID,
		&m.CashBoxID,
		&m.UserID,
		&m.OpeningAmount,
		&m.ClosingAmount,
		&m.Status,
		&m.OpenedAt,
		&m.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindOpenSessionForUser returns the user's OPEN session, if any.
func (r *PgxCashRepository) FindOpenSessionForUser(ctx context.Context, tenantID, userID string) (*domain.CashSession, error) {
	query := `
		SELECT ` + cashSessionColumns + `
		FROM cash_sessions
		WHERE tenant_id = $1 AND user_id = $2 AND status = 'OPEN';
	`
	m, err := scanCashSession(r.pool.QueryRow(ctx, query, tenantID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find open session for user %s: %w", userID, err)
	}
	session := toDomainCashSession(*m)
	return &session, nil
}

// FindCashSessionByID retrieves a session by its ID.
func (r *PgxCashRepository) FindCashSessionByID(ctx context.Context, tenantID, sessionID string) (*domain.CashSession, error) {
	query := `
		SELECT ` + cashSessionColumns + `
		FROM cash_sessions
		WHERE tenant_id = $1 AND session_id = $2;
	`
	m, err := scanCashSession(r.pool.QueryRow(ctx, query, tenantID, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find cash session %s: %w", sessionID, err)
	}
	session := toDomainCashSession(*m)
	return &session, nil
}

const cashMovementColumns = `movement_id, tenant_id, session_id, person_id, direction, amount, concept, movement_date, transaction_id, entry_id, created_at, created_by, last_updated_at, last_updated_by`

// SaveCashMovement inserts a movement within tx.
func (r *PgxCashRepository) SaveCashMovement(ctx context.Context, tx pgx.Tx, movement domain.CashMovement) error {
	query := `
		INSERT INTO cash_movements (` + cashMovementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := tx.Exec(ctx, query,
		movement.MovementID,
		movement.TenantID,
		movement.SessionID,
		movement.PersonID,
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
		return fmt.Errorf("failed to save cash movement %s: %w", movement.MovementID, err)
	}
	return nil
}

// UpdateCashMovement rewrites a movement row within tx.
func (r *PgxCashRepository) UpdateCashMovement(ctx context.Context, tx pgx.Tx, movement domain.CashMovement) error {
	query := `
		UPDATE cash_movements
		SET person_id = $1, direction = $2, amount = $3, concept = $4, movement_date = $5, entry_id = $6, last_updated_at = $7, last_updated_by = $8
		WHERE tenant_id = $9 AND movement_id = $10;
	`
	tag, err := tx.Exec(ctx, query,
		movement.PersonID,
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
		return fmt.Errorf("failed to update cash movement %s: %w", movement.MovementID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteCashMovement removes a movement within tx.
func (r *PgxCashRepository) DeleteCashMovement(ctx context.Context, tx pgx.Tx, tenantID, movementID string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM cash_movements WHERE tenant_id = $1 AND movement_id = $2;`, tenantID, movementID)
	if err != nil {
		return fmt.Errorf("failed to delete cash movement %s: %w", movementID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindCashMovementByID retrieves a movement by its ID.
func (r *PgxCashRepository) FindCashMovementByID(ctx context.Context, tenantID, movementID string) (*domain.CashMovement, error) {
	query := `
		SELECT ` + cashMovementColumns + `
		FROM cash_movements
		WHERE tenant_id = $1 AND movement_id = $2;
	`
	var m models.CashMovement
	err := r.pool.QueryRow(ctx, query, tenantID, movementID).Scan(
		&m.MovementID,
		&m.TenantID,
		&m.SessionID,
		&m.PersonID,
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
		return nil, fmt.Errorf("failed to find cash movement %s: %w", movementID, err)
	}
	movement := toDomainCashMovement(m)
	return &movement, nil
}
