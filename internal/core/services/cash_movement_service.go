package services

import (
	"context"
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

// cashMovementService is the cash-movement accountant: every movement it
// writes is paired with exactly one journal entry, found and replaced (never
// duplicated) when the movement is edited.
type cashMovementService struct {
	txManager  portsrepo.TxManager
	cashRepo   portsrepo.CashRepositoryFacade
	personRepo portsrepo.PersonRepositoryFacade
	postingSvc portssvc.PostingSvcFacade
}

// NewCashMovementService creates the cash-movement accountant.
func NewCashMovementService(txManager portsrepo.TxManager, cashRepo portsrepo.CashRepositoryFacade, personRepo portsrepo.PersonRepositoryFacade, postingSvc portssvc.PostingSvcFacade) portssvc.CashMovementSvcFacade {
	return &cashMovementService{
		txManager:  txManager,
		cashRepo:   cashRepo,
		personRepo: personRepo,
		postingSvc: postingSvc,
	}
}

var _ portssvc.CashMovementSvcFacade = (*cashMovementService)(nil)

// buildPostingRequest translates a cash movement into its two-line posting
// request: the cash-box account on one side, the counterparty (or the cash
// box again for unattributed movements) on the other.
func (s *cashMovementService) buildPostingRequest(ctx context.Context, tenantID string, movement domain.CashMovement) (*dto.PostingRequest, error) {
	session, err := s.cashRepo.FindCashSessionByID(ctx, tenantID, movement.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find cash session %s: %w", movement.SessionID, err)
	}

	cashBox, err := s.cashRepo.FindCashBoxByID(ctx, tenantID, session.CashBoxID)
	if err != nil {
		return nil, fmt.Errorf("failed to find cash box %s: %w", session.CashBoxID, err)
	}
	if cashBox.AccountID == nil || *cashBox.AccountID == "" {
		return nil, fmt.Errorf("%w: cash box %q", apperrors.ErrMissingCashBoxAccount, cashBox.Name)
	}

	if movement.PersonID == nil {
		return nil, fmt.Errorf("%w: cash movement has no counterparty", apperrors.ErrValidation)
	}
	person, err := s.personRepo.FindPersonByID(ctx, tenantID, *movement.PersonID)
	if err != nil {
		return nil, fmt.Errorf("failed to find person %s: %w", *movement.PersonID, err)
	}
	counterpartAccount := person.CounterpartAccountFor(movement.Direction)
	if counterpartAccount == nil || *counterpartAccount == "" {
		return nil, fmt.Errorf("%w: person %q, direction %s", apperrors.ErrMissingCounterpartyAccount, person.Name, movement.Direction)
	}

	var cashLine, counterpartLine dto.PostingLine
	if movement.Direction == domain.MovementIn {
		cashLine = dto.PostingLine{AccountID: *cashBox.AccountID, Debit: movement.Amount, Credit: decimal.Zero}
		counterpartLine = dto.PostingLine{AccountID: *counterpartAccount, Debit: decimal.Zero, Credit: movement.Amount, PersonID: movement.PersonID}
	} else {
		cashLine = dto.PostingLine{AccountID: *cashBox.AccountID, Debit: decimal.Zero, Credit: movement.Amount}
		counterpartLine = dto.PostingLine{AccountID: *counterpartAccount, Debit: movement.Amount, Credit: decimal.Zero, PersonID: movement.PersonID}
	}

	return &dto.PostingRequest{
		Date:        movement.MovementDate,
		Description: movement.Concept,
		EntryType:   domain.EntryTypeCash,
		Lines:       []dto.PostingLine{cashLine, counterpartLine},
	}, nil
}

// CreateInTx records a movement and posts its entry inside the caller's
// transaction. The transaction allocator calls this directly.
func (s *cashMovementService) CreateInTx(ctx context.Context, tx pgx.Tx, tenantID string, req dto.CreateCashMovementRequest, transactionID *string, userID string) (*domain.CashMovement, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: cash movement amount must be positive", apperrors.ErrValidation)
	}

	session, err := s.cashRepo.FindOpenSessionForUser(ctx, tenantID, userID)
	if err != nil {
		return nil, apperrors.ErrNoOpenCashSession
	}

	now := time.Now().UTC()
	movement := domain.CashMovement{
		MovementID:    uuid.NewString(),
		TenantID:      tenantID,
		SessionID:     session.SessionID,
		PersonID:      req.PersonID,
		Direction:     req.Direction,
		Amount:        req.Amount,
		Concept:       req.Concept,
		MovementDate:  req.MovementDate,
		TransactionID: transactionID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	postingReq, err := s.buildPostingRequest(ctx, tenantID, movement)
	if err != nil {
		return nil, err
	}

	entry, err := s.postingSvc.Replace(ctx, tx, tenantID, domain.SourceCashMovement, movement.MovementID, *postingReq, userID)
	if err != nil {
		return nil, err
	}
	movement.EntryID = &entry.EntryID

	if err := s.cashRepo.SaveCashMovement(ctx, tx, movement); err != nil {
		logger.Error("Failed to save cash movement", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save cash movement: %w", err)
	}

	logger.Info("Cash movement recorded", slog.String("movement_id", movement.MovementID), slog.String("direction", string(movement.Direction)))
	return &movement, nil
}

// Create records a movement in its own transaction.
func (s *cashMovementService) Create(ctx context.Context, tenantID string, req dto.CreateCashMovementRequest, userID string) (*domain.CashMovement, error) {
	var movement *domain.CashMovement
	err := s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		var innerErr error
		movement, innerErr = s.CreateInTx(ctx, tx, tenantID, req, nil, userID)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// UpdateInTx edits a movement and replaces its journal entry within tx.
func (s *cashMovementService) UpdateInTx(ctx context.Context, tx pgx.Tx, tenantID, movementID string, req dto.UpdateCashMovementRequest, userID string) (*domain.CashMovement, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	movement, err := s.cashRepo.FindCashMovementByID(ctx, tenantID, movementID)
	if err != nil {
		return nil, err
	}

	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: cash movement amount must be positive", apperrors.ErrValidation)
		}
		movement.Amount = *req.Amount
	}
	if req.Concept != nil {
		movement.Concept = *req.Concept
	}
	if req.MovementDate != nil {
		movement.MovementDate = *req.MovementDate
	}
	movement.LastUpdatedAt = time.Now().UTC()
	movement.LastUpdatedBy = userID

	postingReq, err := s.buildPostingRequest(ctx, tenantID, *movement)
	if err != nil {
		return nil, err
	}

	entry, err := s.postingSvc.Replace(ctx, tx, tenantID, domain.SourceCashMovement, movement.MovementID, *postingReq, userID)
	if err != nil {
		return nil, err
	}
	movement.EntryID = &entry.EntryID

	if err := s.cashRepo.UpdateCashMovement(ctx, tx, *movement); err != nil {
		logger.Error("Failed to update cash movement", slog.String("error", err.Error()), slog.String("movement_id", movementID))
		return nil, fmt.Errorf("failed to update cash movement: %w", err)
	}
	return movement, nil
}

// Update edits a movement in its own transaction.
func (s *cashMovementService) Update(ctx context.Context, tenantID, movementID string, req dto.UpdateCashMovementRequest, userID string) (*domain.CashMovement, error) {
	var movement *domain.CashMovement
	err := s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		var innerErr error
		movement, innerErr = s.UpdateInTx(ctx, tx, tenantID, movementID, req, userID)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// DeleteInTx removes the movement and its journal entry within tx.
func (s *cashMovementService) DeleteInTx(ctx context.Context, tx pgx.Tx, tenantID, movementID string) error {
	if err := s.postingSvc.RemoveBySource(ctx, tx, tenantID, domain.SourceCashMovement, movementID); err != nil {
		return err
	}
	return s.cashRepo.DeleteCashMovement(ctx, tx, tenantID, movementID)
}

// Delete removes the movement in its own transaction.
func (s *cashMovementService) Delete(ctx context.Context, tenantID, movementID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)
	err := s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		return s.DeleteInTx(ctx, tx, tenantID, movementID)
	})
	if err != nil {
		return err
	}
	logger.Info("Cash movement deleted", slog.String("movement_id", movementID), slog.String("deleted_by", userID))
	return nil
}
