// Package services defines the service facades exposed by the core.
package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/quipuware/quipu_backend/internal/core/domain"
	"github.com/quipuware/quipu_backend/internal/dto"
)

// PostingSvcFacade is the ledger posting engine. It never opens its own
// database transaction: Post/Replace/RemoveBySource are always steps inside
// a caller-owned transaction.
type PostingSvcFacade interface {
	// Post validates and persists a balanced entry with its lines.
	Post(ctx context.Context, tx pgx.Tx, tenantID string, req dto.PostingRequest, userID string) (*domain.JournalEntry, error)
	// PostManual posts a source-less manual entry in its own transaction.
	PostManual(ctx context.Context, tenantID string, req dto.PostingRequest, userID string) (*domain.JournalEntry, error)
	// Replace deletes the current entry for {sourceType, sourceID}, if any,
	// then posts the new request. The only sanctioned way to edit an entry.
	Replace(ctx context.Context, tx pgx.Tx, tenantID string, sourceType domain.EntrySourceType, sourceID string, req dto.PostingRequest, userID string) (*domain.JournalEntry, error)
	// RemoveBySource deletes the current entry for a source document, if any.
	RemoveBySource(ctx context.Context, tx pgx.Tx, tenantID string, sourceType domain.EntrySourceType, sourceID string) error
	// GetEntry returns one entry with its lines.
	GetEntry(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error)
	// ListEntries returns a token-paginated page of entries.
	ListEntries(ctx context.Context, tenantID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}
