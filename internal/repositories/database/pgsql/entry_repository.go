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
	"github.com/quipuware/quipu_backend/internal/utils/pagination"
)

type PgxEntryRepository struct {
	BaseRepository
}

// newPgxEntryRepository creates a new repository for journal entry data.
func newPgxEntryRepository(pool *pgxpool.Pool) portsrepo.EntryRepositoryFacade {
	return &PgxEntryRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxEntryRepository implements portsrepo.EntryRepositoryFacade
var _ portsrepo.EntryRepositoryFacade = (*PgxEntryRepository)(nil)

const entryColumns = `entry_id, tenant_id, entry_date, description, entry_type, source_type, source_id, created_at, created_by, last_updated_at, last_updated_by`

func scanEntry(row pgx.Row) (*models.JournalEntry, error) {
	var m models.JournalEntry
	err := row.Scan(
		&m.EntryID,
		&m.TenantID,
		&m.EntryDate,
		&m.Description,
		&m.EntryType,
		&m.SourceType,
		&m.SourceID,
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

// SaveEntry inserts an entry and all its lines in one batch within tx.
func (r *PgxEntryRepository) SaveEntry(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) error {
	modelEntry := mapping.ToModelJournalEntry(entry)

	entryQuery := `
		INSERT INTO journal_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := tx.Exec(ctx, entryQuery,
		modelEntry.EntryID,
		modelEntry.TenantID,
		modelEntry.EntryDate,
		modelEntry.Description,
		modelEntry.EntryType,
		modelEntry.SourceType,
		modelEntry.SourceID,
		modelEntry.CreatedAt,
		modelEntry.CreatedBy,
		modelEntry.LastUpdatedAt,
		modelEntry.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert journal entry %s: %w", modelEntry.EntryID, err)
	}

	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO journal_entry_lines (line_id, entry_id, account_id, debit, credit, cost_center_id, person_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	for _, line := range entry.Lines {
		modelLine := mapping.ToModelJournalEntryLine(line)
		batch.Queue(lineQuery,
			modelLine.LineID,
			modelLine.EntryID,
			modelLine.AccountID,
			modelLine.Debit,
			modelLine.Credit,
			modelLine.CostCenterID,
			modelLine.PersonID,
		)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert lines for entry %s: %w", modelEntry.EntryID, err)
	}
	return nil
}

// FindEntryBySource locks and returns the current entry for a source
// document within tx.
func (r *PgxEntryRepository) FindEntryBySource(ctx context.Context, tx pgx.Tx, tenantID string, sourceType domain.EntrySourceType, sourceID string) (*domain.JournalEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE tenant_id = $1 AND source_type = $2 AND source_id = $3
		FOR UPDATE;
	`
	m, err := scanEntry(tx.QueryRow(ctx, query, tenantID, string(sourceType), sourceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find entry for source %s/%s: %w", sourceType, sourceID, err)
	}
	entry := mapping.ToDomainJournalEntry(*m)
	return &entry, nil
}

// DeleteEntry removes the entry and its lines within tx.
func (r *PgxEntryRepository) DeleteEntry(ctx context.Context, tx pgx.Tx, tenantID, entryID string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM journal_entry_lines WHERE entry_id = $1;`, entryID); err != nil {
		return fmt.Errorf("failed to delete lines of entry %s: %w", entryID, err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM journal_entries WHERE tenant_id = $1 AND entry_id = $2;`, tenantID, entryID)
	if err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindEntryByID returns the entry with its lines.
func (r *PgxEntryRepository) FindEntryByID(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE tenant_id = $1 AND entry_id = $2;
	`
	m, err := scanEntry(r.Pool.QueryRow(ctx, query, tenantID, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find entry %s: %w", entryID, err)
	}
	entry := mapping.ToDomainJournalEntry(*m)

	lines, err := r.findLines(ctx, entryID)
	if err != nil {
		return nil, err
	}
	entry.Lines = lines
	return &entry, nil
}

func (r *PgxEntryRepository) findLines(ctx context.Context, entryID string) ([]domain.JournalEntryLine, error) {
	query := `
		SELECT line_id, entry_id, account_id, debit, credit, cost_center_id, person_id
		FROM journal_entry_lines
		WHERE entry_id = $1
		ORDER BY line_id;
	`
	rows, err := r.Pool.Query(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines of entry %s: %w", entryID, err)
	}
	defer rows.Close()

	var modelLines []models.JournalEntryLine
	for rows.Next() {
		var m models.JournalEntryLine
		if err := rows.Scan(&m.LineID, &m.EntryID, &m.AccountID, &m.Debit, &m.Credit, &m.CostCenterID, &m.PersonID); err != nil {
			return nil, fmt.Errorf("failed to scan line of entry %s: %w", entryID, err)
		}
		modelLines = append(modelLines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return mapping.ToDomainJournalEntryLineSlice(modelLines), nil
}

// ListEntries returns a keyset-paginated page of entries ordered by entry
// date then creation time, newest first.
func (r *PgxEntryRepository) ListEntries(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	args := []interface{}{tenantID}
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE tenant_id = $1
	`
	if nextToken != nil && *nextToken != "" {
		entryDate, createdAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		query += ` AND (entry_date, created_at) < ($2, $3)`
		args = append(args, entryDate, createdAt)
	}
	query += fmt.Sprintf(` ORDER BY entry_date DESC, created_at DESC LIMIT %d;`, limit+1)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, mapping.ToDomainJournalEntry(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var newToken *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		token := pagination.EncodeToken(last.EntryDate, last.CreatedAt)
		newToken = &token
	}
	return entries, newToken, nil
}
