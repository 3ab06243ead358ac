package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/quipuware/quipu_backend/internal/core/domain"
)

// EntryRepositoryFacade persists journal entries and their lines.
type EntryRepositoryFacade interface {
	// SaveEntry inserts the entry and all its lines within tx.
	SaveEntry(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) error
	// FindEntryBySource locks and returns the current entry for a source
	// document, or apperrors.ErrNotFound when none exists.
	FindEntryBySource(ctx context.Context, tx pgx.Tx, tenantID string, sourceType domain.EntrySourceType, sourceID string) (*domain.JournalEntry, error)
	// DeleteEntry removes the entry and its lines within tx.
	DeleteEntry(ctx context.Context, tx pgx.Tx, tenantID, entryID string) error
	// FindEntryByID returns the entry with its lines.
	FindEntryByID(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error)
	// ListEntries returns a token-paginated page of entries (without lines).
	ListEntries(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)
}
