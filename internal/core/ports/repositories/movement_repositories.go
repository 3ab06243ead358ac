package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/quipuware/quipu_backend/internal/core/domain"
)

// CashRepositoryFacade persists cash boxes, sessions and movements.
type CashRepositoryFacade interface {
	FindCashBoxByID(ctx context.Context, tenantID, cashBoxID string) (*domain.CashBox, error)
	SaveCashSession(ctx context.Context, tx pgx.Tx, session domain.CashSession) error
	UpdateCashSession(ctx context.Context, tx pgx.Tx, session domain.CashSession) error
	// FindOpenSessionForUser returns the user's OPEN session or ErrNotFound.
	FindOpenSessionForUser(ctx context.Context, tenantID, userID string) (*domain.CashSession, error)
	FindCashSessionByID(ctx context.Context, tenantID, sessionID string) (*domain.CashSession, error)
	SaveCashMovement(ctx context.Context, tx pgx.Tx, movement domain.CashMovement) error
	UpdateCashMovement(ctx context.Context, tx pgx.Tx, movement domain.CashMovement) error
	DeleteCashMovement(ctx context.Context, tx pgx.Tx, tenantID, movementID string) error
	FindCashMovementByID(ctx context.Context, tenantID, movementID string) (*domain.CashMovement, error)
}

// BankRepositoryFacade persists bank accounts and movements with details.
type BankRepositoryFacade interface {
	FindBankAccountByID(ctx context.Context, tenantID, bankAccountID string) (*domain.BankAccount, error)
	SaveBankMovement(ctx context.Context, tx pgx.Tx, movement domain.BankMovement) error
	// UpdateBankMovement updates the header and replaces details wholesale.
	UpdateBankMovement(ctx context.Context, tx pgx.Tx, movement domain.BankMovement) error
	DeleteBankMovement(ctx context.Context, tx pgx.Tx, tenantID, movementID string) error
	FindBankMovementByID(ctx context.Context, tenantID, movementID string) (*domain.BankMovement, error)
}
