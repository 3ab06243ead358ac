package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/quipuware/quipu_backend/internal/apperrors"
	"github.com/quipuware/quipu_backend/internal/core/domain"
	portsrepo "github.com/quipuware/quipu_backend/internal/core/ports/repositories"
	portssvc "github.com/quipuware/quipu_backend/internal/core/ports/services"
	"github.com/quipuware/quipu_backend/internal/dto"
	"github.com/quipuware/quipu_backend/internal/middleware"
)

// postingService is the ledger posting engine. It validates and persists
// balanced journal entries; it never opens a database transaction of its own
// since posting is always one step of a larger business operation.
type postingService struct {
	txManager portsrepo.TxManager
	entryRepo portsrepo.EntryRepositoryFacade
}

// NewPostingService creates the posting engine.
func NewPostingService(txManager portsrepo.TxManager, entryRepo portsrepo.EntryRepositoryFacade) portssvc.PostingSvcFacade {
	return &postingService{txManager: txManager, entryRepo: entryRepo}
}

var _ portssvc.PostingSvcFacade = (*postingService)(nil)

// validateLines enforces the line invariant: every line has exactly one
// positive side, and the debit and credit sums are exactly equal.
func (s *postingService) validateLines(lines []dto.PostingLine) error {
	if len(lines) == 0 {
		return apperrors.ErrEmptyEntry
	}

	debitSum := decimal.Zero
	creditSum := decimal.Zero
	for i, line := range lines {
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("%w: line %d has a negative amount", apperrors.ErrInvalidLine, i)
		}
		hasDebit := line.Debit.IsPositive()
		hasCredit := line.Credit.IsPositive()
		if hasDebit == hasCredit {
			return fmt.Errorf("%w: line %d for account %s", apperrors.ErrInvalidLine, i, line.AccountID)
		}
		debitSum = debitSum.Add(line.Debit)
		creditSum = creditSum.Add(line.Credit)
	}

	// Exact decimal equality. The 0.01 tolerance elsewhere is for allocation
	// matching only; the ledger itself never tolerates drift.
	if !debitSum.Equal(creditSum) {
		return fmt.Errorf("%w: debits sum is %s and credits sum is %s",
			apperrors.ErrUnbalancedEntry, debitSum.String(), creditSum.String())
	}
	return nil
}

// Post validates the request and persists the entry with all its lines
// inside the caller's transaction.
func (s *postingService) Post(ctx context.Context, tx pgx.Tx, tenantID string, req dto.PostingRequest, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.validateLines(req.Lines); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entryID := uuid.NewString()

	lines := make([]domain.JournalEntryLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = domain.JournalEntryLine{
			LineID:       uuid.NewString(),
			EntryID:      entryID,
			AccountID:    l.AccountID,
			Debit:        l.Debit,
			Credit:       l.Credit,
			CostCenterID: l.CostCenterID,
			PersonID:     l.PersonID,
		}
	}

	entry := domain.JournalEntry{
		EntryID:     entryID,
		TenantID:    tenantID,
		EntryDate:   req.Date,
		Description: req.Description,
		EntryType:   req.EntryType,
		SourceType:  req.SourceType,
		SourceID:    req.SourceID,
		Lines:       lines,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.entryRepo.SaveEntry(ctx, tx, entry); err != nil {
		logger.Error("Failed to save journal entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to save journal entry: %w", err)
	}

	logger.Debug("Journal entry posted", slog.String("entry_id", entryID), slog.String("entry_type", string(req.EntryType)))
	return &entry, nil
}

// PostManual posts a source-less manual entry in its own transaction.
func (s *postingService) PostManual(ctx context.Context, tenantID string, req dto.PostingRequest, userID string) (*domain.JournalEntry, error) {
	req.SourceType = nil
	req.SourceID = nil
	req.EntryType = domain.EntryTypeManual

	var entry *domain.JournalEntry
	err := s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		var innerErr error
		entry, innerErr = s.Post(ctx, tx, tenantID, req, userID)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Replace finds the current entry for {sourceType, sourceID}, deletes it
// (lines first, via cascade in the repository), then posts the new request.
// All within the caller's transaction, so repeated edits of the same source
// document can never accumulate duplicate entries.
func (s *postingService) Replace(ctx context.Context, tx pgx.Tx, tenantID string, sourceType domain.EntrySourceType, sourceID string, req dto.PostingRequest, userID string) (*domain.JournalEntry, error) {
	if err := s.RemoveBySource(ctx, tx, tenantID, sourceType, sourceID); err != nil {
		return nil, err
	}
	req.SourceType = &sourceType
	req.SourceID = &sourceID
	return s.Post(ctx, tx, tenantID, req, userID)
}

// RemoveBySource deletes the current entry for a source document, if any.
func (s *postingService) RemoveBySource(ctx context.Context, tx pgx.Tx, tenantID string, sourceType domain.EntrySourceType, sourceID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	existing, err := s.entryRepo.FindEntryBySource(ctx, tx, tenantID, sourceType, sourceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		logger.Error("Failed to look up entry by source", slog.String("error", err.Error()), slog.String("source_id", sourceID))
		return fmt.Errorf("failed to look up entry for %s/%s: %w", sourceType, sourceID, err)
	}

	if err := s.entryRepo.DeleteEntry(ctx, tx, tenantID, existing.EntryID); err != nil {
		logger.Error("Failed to delete prior journal entry", slog.String("error", err.Error()), slog.String("entry_id", existing.EntryID))
		return fmt.Errorf("failed to delete prior entry %s: %w", existing.EntryID, err)
	}

	logger.Debug("Prior journal entry removed", slog.String("entry_id", existing.EntryID), slog.String("source_type", string(sourceType)))
	return nil
}

// GetEntry returns one entry with its lines.
func (s *postingService) GetEntry(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.entryRepo.FindEntryByID(ctx, tenantID, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find entry %s: %w", entryID, err)
	}
	return entry, nil
}

// ListEntries returns a token-paginated page of entries.
func (s *postingService) ListEntries(ctx context.Context, tenantID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	entries, nextToken, err := s.entryRepo.ListEntries(ctx, tenantID, limit, params.NextToken)
	if err != nil {
		logger.Error("Failed to list entries", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to retrieve entries: %w", err)
	}

	responses := make([]dto.EntryResponse, len(entries))
	for i := range entries {
		responses[i] = dto.ToEntryResponse(&entries[i])
	}
	return &dto.ListEntriesResponse{Entries: responses, NextToken: nextToken}, nil
}
