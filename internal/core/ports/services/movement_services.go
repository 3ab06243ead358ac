package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/quipuware/quipu_backend/internal/core/domain"
	"github.com/quipuware/quipu_backend/internal/dto"
)

// CashSessionSvcFacade manages cash-session lifecycle.
type CashSessionSvcFacade interface {
	OpenSession(ctx context.Context, tenantID string, req dto.OpenCashSessionRequest, userID string) (*domain.CashSession, error)
	CloseSession(ctx context.Context, tenantID string, req dto.CloseCashSessionRequest, userID string) (*domain.CashSession, error)
	GetOpenSession(ctx context.Context, tenantID, userID string) (*domain.CashSession, error)
}

// CashMovementSvcFacade is the cash-movement accountant: it records
// movements and keeps each one paired with exactly one journal entry.
// The *InTx variants run inside a caller-owned transaction and are what the
// transaction allocator uses.
type CashMovementSvcFacade interface {
	Create(ctx context.Context, tenantID string, req dto.CreateCashMovementRequest, userID string) (*domain.CashMovement, error)
	Update(ctx context.Context, tenantID, movementID string, req dto.UpdateCashMovementRequest, userID string) (*domain.CashMovement, error)
	Delete(ctx context.Context, tenantID, movementID string, userID string) error
	CreateInTx(ctx context.Context, tx pgx.Tx, tenantID string, req dto.CreateCashMovementRequest, transactionID *string, userID string) (*domain.CashMovement, error)
	UpdateInTx(ctx context.Context, tx pgx.Tx, tenantID, movementID string, req dto.UpdateCashMovementRequest, userID string) (*domain.CashMovement, error)
	DeleteInTx(ctx context.Context, tx pgx.Tx, tenantID, movementID string) error
}

// BankMovementSvcFacade is the bank-movement accountant, symmetric to cash
// with one counterpart line per movement detail.
type BankMovementSvcFacade interface {
	Create(ctx context.Context, tenantID string, req dto.CreateBankMovementRequest, userID string) (*domain.BankMovement, error)
	Update(ctx context.Context, tenantID, movementID string, req dto.UpdateBankMovementRequest, userID string) (*domain.BankMovement, error)
	Delete(ctx context.Context, tenantID, movementID string, userID string) error
	CreateInTx(ctx context.Context, tx pgx.Tx, tenantID string, req dto.CreateBankMovementRequest, transactionID *string, userID string) (*domain.BankMovement, error)
	UpdateInTx(ctx context.Context, tx pgx.Tx, tenantID, movementID string, req dto.UpdateBankMovementRequest, userID string) (*domain.BankMovement, error)
	DeleteInTx(ctx context.Context, tx pgx.Tx, tenantID, movementID string) error
}
