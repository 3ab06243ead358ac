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

// bankMovementService is the bank-movement accountant. A bank movement may
// carry several detail splits; the posted entry has the bank account on one
// side and one line per detail on the other.
type bankMovementService struct {
	txManager  portsrepo.TxManager
	bankRepo   portsrepo.BankRepositoryFacade
	postingSvc portssvc.PostingSvcFacade
}

// NewBankMovementService creates the bank-movement accountant.
func NewBankMovementService(txManager portsrepo.TxManager, bankRepo portsrepo.BankRepositoryFacade, postingSvc portssvc.PostingSvcFacade) portssvc.BankMovementSvcFacade {
	return &bankMovementService{
		txManager:  txManager,
		bankRepo:   bankRepo,
		postingSvc: postingSvc,
	}
}

var _ portssvc.BankMovementSvcFacade = (*bankMovementService)(nil)

// buildPostingRequest translates a bank movement into its posting request.
func (s *bankMovementService) buildPostingRequest(ctx context.Context, tenantID string, movement domain.BankMovement) (*dto.PostingRequest, error) {
	bankAccount, err := s.bankRepo.FindBankAccountByID(ctx, tenantID, movement.BankAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find bank account %s: %w", movement.BankAccountID, err)
	}
	if bankAccount.AccountID == nil || *bankAccount.AccountID == "" {
		return nil, fmt.Errorf("%w: bank account %s %s", apperrors.ErrMissingBankAccount, bankAccount.BankName, bankAccount.Number)
	}

	if len(movement.Details) == 0 {
		return nil, fmt.Errorf("%w: bank movement needs at least one detail", apperrors.ErrValidation)
	}
	if !movement.DetailTotal().Equal(movement.Amount) {
		return nil, fmt.Errorf("%w: detail amounts %s do not sum to movement amount %s",
			apperrors.ErrValidation, movement.DetailTotal().String(), movement.Amount.String())
	}

	lines := make([]dto.PostingLine, 0, len(movement.Details)+1)
	if movement.Direction == domain.MovementIn {
		lines = append(lines, dto.PostingLine{AccountID: *bankAccount.AccountID, Debit: movement.Amount, Credit: decimal.Zero})
		for _, d := range movement.Details {
			lines = append(lines, dto.PostingLine{AccountID: d.AccountID, Debit: decimal.Zero, Credit: d.Amount, PersonID: d.PersonID})
		}
	} else {
		lines = append(lines, dto.PostingLine{AccountID: *bankAccount.AccountID, Debit: decimal.Zero, Credit: movement.Amount})
		for _, d := range movement.Details {
			lines = append(lines, dto.PostingLine{AccountID: d.AccountID, Debit: d.Amount, Credit: decimal.Zero, PersonID: d.PersonID})
		}
	}

	return &dto.PostingRequest{
		Date:        movement.MovementDate,
		Description: movement.Concept,
		EntryType:   domain.EntryTypeBank,
		Lines:       lines,
	}, nil
}

func detailsFromRequest(movementID string, reqs []dto.BankMovementDetailRequest) []domain.BankMovementDetail {
	details := make([]domain.BankMovementDetail, len(reqs))
	for i, d := range reqs {
		details[i] = domain.BankMovementDetail{
			DetailID:    uuid.NewString(),
			MovementID:  movementID,
			AccountID:   d.AccountID,
			Amount:      d.Amount,
			PersonID:    d.PersonID,
			Description: d.Description,
		}
	}
	return details
}

// CreateInTx records a movement and posts its entry inside the caller's
// transaction.
func (s *bankMovementService) CreateInTx(ctx context.Context, tx pgx.Tx, tenantID string, req dto.CreateBankMovementRequest, transactionID *string, userID string) (*domain.BankMovement, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: bank movement amount must be positive", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	movementID := uuid.NewString()
	movement := domain.BankMovement{
		MovementID:    movementID,
		TenantID:      tenantID,
		BankAccountID: req.BankAccountID,
		Direction:     req.Direction,
		Amount:        req.Amount,
		Concept:       req.Concept,
		MovementDate:  req.MovementDate,
		TransactionID: transactionID,
		Details:       detailsFromRequest(movementID, req.Details),
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

	entry, err := s.postingSvc.Replace(ctx, tx, tenantID, domain.SourceBankMovement, movement.MovementID, *postingReq, userID)
	if err != nil {
		return nil, err
	}
	movement.EntryID = &entry.EntryID

	if err := s.bankRepo.SaveBankMovement(ctx, tx, movement); err != nil {
		logger.Error("Failed to save bank movement", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save bank movement: %w", err)
	}

	logger.Info("Bank movement recorded", slog.String("movement_id", movement.MovementID), slog.String("direction", string(movement.Direction)))
	return &movement, nil
}

// Create records a movement in its own transaction.
func (s *bankMovementService) Create(ctx context.Context, tenantID string, req dto.CreateBankMovementRequest, userID string) (*domain.BankMovement, error) {
	var movement *domain.BankMovement
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

// UpdateInTx edits a movement, replaces its details wholesale and replaces
// its journal entry within tx.
func (s *bankMovementService) UpdateInTx(ctx context.Context, tx pgx.Tx, tenantID, movementID string, req dto.UpdateBankMovementRequest, userID string) (*domain.BankMovement, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	movement, err := s.bankRepo.FindBankMovementByID(ctx, tenantID, movementID)
	if err != nil {
		return nil, err
	}

	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: bank movement amount must be positive", apperrors.ErrValidation)
		}
		movement.Amount = *req.Amount
	}
	if req.Concept != nil {
		movement.Concept = *req.Concept
	}
	if req.MovementDate != nil {
		movement.MovementDate = *req.MovementDate
	}
	if req.Details != nil {
		movement.Details = detailsFromRequest(movementID, req.Details)
	}
	movement.LastUpdatedAt = time.Now().UTC()
	movement.LastUpdatedBy = userID

	postingReq, err := s.buildPostingRequest(ctx, tenantID, *movement)
	if err != nil {
		return nil, err
	}

	entry, err := s.postingSvc.Replace(ctx, tx, tenantID, domain.SourceBankMovement, movement.MovementID, *postingReq, userID)
	if err != nil {
		return nil, err
	}
	movement.EntryID = &entry.EntryID

	if err := s.bankRepo.UpdateBankMovement(ctx, tx, *movement); err != nil {
		logger.Error("Failed to update bank movement", slog.String("error", err.Error()), slog.String("movement_id", movementID))
		return nil, fmt.Errorf("failed to update bank movement: %w", err)
	}
	return movement, nil
}

// Update edits a movement in its own transaction.
func (s *bankMovementService) Update(ctx context.Context, tenantID, movementID string, req dto.UpdateBankMovementRequest, userID string) (*domain.BankMovement, error) {
	var movement *domain.BankMovement
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

// DeleteInTx removes the movement, its details and its journal entry within tx.
func (s *bankMovementService) DeleteInTx(ctx context.Context, tx pgx.Tx, tenantID, movementID string) error {
	if err := s.postingSvc.RemoveBySource(ctx, tx, tenantID, domain.SourceBankMovement, movementID); err != nil {
		return err
	}
	return s.bankRepo.DeleteBankMovement(ctx, tx, tenantID, movementID)
}

// Delete removes the movement in its own transaction.
func (s *bankMovementService) Delete(ctx context.Context, tenantID, movementID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)
	err := s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		return s.DeleteInTx(ctx, tx, tenantID, movementID)
	})
	if err != nil {
		return err
	}
	logger.Info("Bank movement deleted", slog.String("movement_id", movementID), slog.String("deleted_by", userID))
	return nil
}
