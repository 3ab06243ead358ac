package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/quipuware/quipu_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DocumentRepositoryFacade persists documents and their children.
type DocumentRepositoryFacade interface {
	// SaveDocument inserts the document, its items, payments and fiscal info.
	SaveDocument(ctx context.Context, tx pgx.Tx, document domain.Document) error
	// UpdateDocument updates the header and replaces items/payments wholesale.
	UpdateDocument(ctx context.Context, tx pgx.Tx, document domain.Document) error
	// FindDocumentByID returns the document with children and fiscal info.
	FindDocumentByID(ctx context.Context, tenantID, documentID string) (*domain.Document, error)
	// FindDocumentForUpdate locks the document row inside tx and returns the
	// header (no children).
	FindDocumentForUpdate(ctx context.Context, tx pgx.Tx, tenantID, documentID string) (*domain.Document, error)
	// UpdateDocumentAmounts writes paidAmount and balance.
	UpdateDocumentAmounts(ctx context.Context, tx pgx.Tx, tenantID, documentID string, paidAmount, balance decimal.Decimal, userID string, at time.Time) error
	// UpdateDocumentStatus writes the business status. Runs on the pool so the
	// fiscal lifecycle can flip a document to CONFIRMED outside any caller tx.
	UpdateDocumentStatus(ctx context.Context, tenantID, documentID string, status domain.DocumentStatus, userID string, at time.Time) error
	// DeleteDocument removes the document and all its children.
	DeleteDocument(ctx context.Context, tx pgx.Tx, tenantID, documentID string) error
	// NextFiscalSequence claims the next sequence number for the emission point.
	NextFiscalSequence(ctx context.Context, tx pgx.Tx, tenantID, establishment, emissionPoint string, kind domain.DocumentKind) (int64, error)
}

// FiscalRepositoryFacade persists fiscal lifecycle state. Updates commit
// independently: each lifecycle transition is its own durable checkpoint.
type FiscalRepositoryFacade interface {
	SaveFiscalInfo(ctx context.Context, tx pgx.Tx, info domain.DocumentFiscalInfo) error
	// UpdateFiscalInfo writes the full fiscal row (status, access key, signed
	// XML path, authorization fields, last response) on the pool.
	UpdateFiscalInfo(ctx context.Context, info domain.DocumentFiscalInfo) error
	FindFiscalByDocumentID(ctx context.Context, tenantID, documentID string) (*domain.DocumentFiscalInfo, error)
	// ListInProcess returns every IN_PROCESS fiscal row across all tenants.
	ListInProcess(ctx context.Context) ([]domain.DocumentFiscalInfo, error)
}
