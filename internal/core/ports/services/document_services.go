package services

import (
	"context"

	"github.com/quipuware/quipu_backend/internal/core/domain"
	"github.com/quipuware/quipu_backend/internal/dto"
)

// DocumentSvcFacade manages business documents and their posting.
type DocumentSvcFacade interface {
	CreateDocument(ctx context.Context, tenantID string, req dto.CreateDocumentRequest, userID string) (*domain.Document, error)
	UpdateDocument(ctx context.Context, tenantID, documentID string, req dto.UpdateDocumentRequest, userID string) (*domain.Document, error)
	GetDocument(ctx context.Context, tenantID, documentID string) (*domain.Document, error)
	DeleteDocument(ctx context.Context, tenantID, documentID string, userID string) error
}

// TransactionSvcFacade is the transaction allocator.
type TransactionSvcFacade interface {
	Allocate(ctx context.Context, tenantID string, req dto.CreateTransactionRequest, userID string) (*domain.Transaction, error)
	Update(ctx context.Context, tenantID, transactionID string, req dto.UpdateTransactionRequest, userID string) (*domain.Transaction, error)
	Reverse(ctx context.Context, tenantID, transactionID string, userID string) error
}

// FiscalSvcFacade drives revenue documents through the authority lifecycle.
type FiscalSvcFacade interface {
	// Advance runs the next pending lifecycle step(s). Safe to call
	// repeatedly; completed steps are never re-run.
	Advance(ctx context.Context, tenantID, documentID string) (*dto.FiscalAdvanceResult, error)
	// PollAuthorization runs only the authorization-query step. Used by the
	// retry sweeper for IN_PROCESS documents.
	PollAuthorization(ctx context.Context, tenantID, documentID string) (*dto.FiscalAdvanceResult, error)
	// Regenerate starts a fresh cycle for a REJECTED document: clears the
	// access key and signed XML pointer and resets the status to DRAFT.
	Regenerate(ctx context.Context, tenantID, documentID string, userID string) error
}

// SweeperSvcFacade re-polls documents stuck IN_PROCESS.
type SweeperSvcFacade interface {
	SweepPending(ctx context.Context) (*dto.SweepResult, error)
}
