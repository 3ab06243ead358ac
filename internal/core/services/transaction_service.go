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

// transactionService is the transaction allocator: one payment or receipt
// fans out across documents, produces exactly one cash or bank movement, and
// keeps every touched document's paid amount equal to the aggregate of its
// links. Paid amounts are always recomputed from the aggregate, never
// incremented in place.
type transactionService struct {
	txManager  portsrepo.TxManager
	txnRepo    portsrepo.TransactionRepositoryFacade
	docRepo    portsrepo.DocumentRepositoryFacade
	personRepo portsrepo.PersonRepositoryFacade
	cashSvc    portssvc.CashMovementSvcFacade
	bankSvc    portssvc.BankMovementSvcFacade
}

// NewTransactionService creates the transaction allocator.
func NewTransactionService(txManager portsrepo.TxManager, txnRepo portsrepo.TransactionRepositoryFacade, docRepo portsrepo.DocumentRepositoryFacade, personRepo portsrepo.PersonRepositoryFacade, cashSvc portssvc.CashMovementSvcFacade, bankSvc portssvc.BankMovementSvcFacade) portssvc.TransactionSvcFacade {
	return &transactionService{
		txManager:  txManager,
		txnRepo:    txnRepo,
		docRepo:    docRepo,
		personRepo: personRepo,
		cashSvc:    cashSvc,
		bankSvc:    bankSvc,
	}
}

var _ portssvc.TransactionSvcFacade = (*transactionService)(nil)

// validateAllocations checks that every allocation is positive and that the
// allocations sum to amount within the rounding tolerance.
func validateAllocations(amount decimal.Decimal, allocations []dto.AllocationRequest) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: transaction amount must be positive", apperrors.ErrValidation)
	}
	if len(allocations) == 0 {
		return fmt.Errorf("%w: transaction needs at least one allocation", apperrors.ErrValidation)
	}
	sum := decimal.Zero
	for _, a := range allocations {
		if !a.Amount.IsPositive() {
			return fmt.Errorf("%w: allocation to document %s must be positive", apperrors.ErrValidation, a.DocumentID)
		}
		sum = sum.Add(a.Amount)
	}
	if sum.Sub(amount).Abs().GreaterThan(domain.AllocationTolerance) {
		return fmt.Errorf("%w: allocations sum to %s, transaction amount is %s",
			apperrors.ErrAllocationMismatch, sum.String(), amount.String())
	}
	return nil
}

// recomputePaid re-derives the document's paid amount from the link
// aggregate and rewrites paidAmount and balance.
func (s *transactionService) recomputePaid(ctx context.Context, tx pgx.Tx, tenantID, documentID, userID string) error {
	doc, err := s.docRepo.FindDocumentForUpdate(ctx, tx, tenantID, documentID)
	if err != nil {
		return fmt.Errorf("failed to lock document %s: %w", documentID, err)
	}
	paid, err := s.txnRepo.SumAppliedToDocument(ctx, tx, tenantID, documentID)
	if err != nil {
		return fmt.Errorf("failed to aggregate applied amount for document %s: %w", documentID, err)
	}
	balance := doc.Total.Sub(paid)
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	return s.docRepo.UpdateDocumentAmounts(ctx, tx, tenantID, documentID, paid, balance, userID, time.Now().UTC())
}

// createMovement produces the single movement backing the transaction and
// returns the updated transaction with the movement reference set.
func (s *transactionService) createMovement(ctx context.Context, tx pgx.Tx, txn *domain.Transaction, userID string) error {
	direction := txn.Type.Direction()
	switch txn.Method {
	case domain.MethodCash:
		movement, err := s.cashSvc.CreateInTx(ctx, tx, txn.TenantID, dto.CreateCashMovementRequest{
			Direction:    direction,
			Amount:       txn.Amount,
			Concept:      txn.Concept,
			MovementDate: txn.TransactionDate,
			PersonID:     txn.PersonID,
		}, &txn.TransactionID, userID)
		if err != nil {
			return err
		}
		txn.CashMovementID = &movement.MovementID
	case domain.MethodTransfer:
		if txn.BankAccountID == nil || *txn.BankAccountID == "" {
			return fmt.Errorf("%w: transfer transactions need a bank account", apperrors.ErrMissingBankAccount)
		}
		if txn.PersonID == nil {
			return fmt.Errorf("%w: transfer transactions need a counterparty", apperrors.ErrValidation)
		}
		person, err := s.personRepo.FindPersonByID(ctx, txn.TenantID, *txn.PersonID)
		if err != nil {
			return fmt.Errorf("failed to find person %s: %w", *txn.PersonID, err)
		}
		counterpartAccount := person.CounterpartAccountFor(direction)
		if counterpartAccount == nil || *counterpartAccount == "" {
			return fmt.Errorf("%w: person %q, direction %s", apperrors.ErrMissingCounterpartyAccount, person.Name, direction)
		}
		movement, err := s.bankSvc.CreateInTx(ctx, tx, txn.TenantID, dto.CreateBankMovementRequest{
			BankAccountID: *txn.BankAccountID,
			Direction:     direction,
			Amount:        txn.Amount,
			Concept:       txn.Concept,
			MovementDate:  txn.TransactionDate,
			Details: []dto.BankMovementDetailRequest{
				{AccountID: *counterpartAccount, Amount: txn.Amount, PersonID: txn.PersonID},
			},
		}, &txn.TransactionID, userID)
		if err != nil {
			return err
		}
		txn.BankMovementID = &movement.MovementID
	default:
		return fmt.Errorf("%w: unknown payment method %q", apperrors.ErrValidation, txn.Method)
	}
	return nil
}

// deleteMovement removes the movement (and its journal entry) backing the
// transaction.
func (s *transactionService) deleteMovement(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error {
	if txn.CashMovementID != nil {
		if err := s.cashSvc.DeleteInTx(ctx, tx, txn.TenantID, *txn.CashMovementID); err != nil {
			return err
		}
		txn.CashMovementID = nil
	}
	if txn.BankMovementID != nil {
		if err := s.bankSvc.DeleteInTx(ctx, tx, txn.TenantID, *txn.BankMovementID); err != nil {
			return err
		}
		txn.BankMovementID = nil
	}
	return nil
}

// applyAllocations locks each target document, rejects overshoot, and writes
// the links. priorApplied carries this transaction's just-deleted link
// amounts per document: on a re-allocation the stored balance still includes
// the old contribution, so the headroom check adds it back before comparing.
func (s *transactionService) applyAllocations(ctx context.Context, tx pgx.Tx, txn *domain.Transaction, allocations []dto.AllocationRequest, priorApplied map[string]decimal.Decimal, userID string) error {
	links := make([]domain.TransactionDocument, 0, len(allocations))
	for _, a := range allocations {
		doc, err := s.docRepo.FindDocumentForUpdate(ctx, tx, txn.TenantID, a.DocumentID)
		if err != nil {
			return fmt.Errorf("failed to lock document %s: %w", a.DocumentID, err)
		}
		available := doc.Balance.Add(priorApplied[a.DocumentID])
		if a.Amount.Sub(available).GreaterThan(domain.AllocationTolerance) {
			return fmt.Errorf("%w: allocation %s exceeds balance %s of document %s",
				apperrors.ErrValidation, a.Amount.String(), available.String(), a.DocumentID)
		}
		links = append(links, domain.TransactionDocument{
			TransactionID: txn.TransactionID,
			DocumentID:    a.DocumentID,
			Amount:        a.Amount,
		})
	}
	if err := s.txnRepo.SaveTransactionDocuments(ctx, tx, links); err != nil {
		return fmt.Errorf("failed to save transaction links: %w", err)
	}
	for _, link := range links {
		if err := s.recomputePaid(ctx, tx, txn.TenantID, link.DocumentID, userID); err != nil {
			return err
		}
	}
	return nil
}

// Allocate records a transaction, creates its movement and journal entry,
// links it to the target documents and recomputes their paid amounts — all in
// one database transaction.
func (s *transactionService) Allocate(ctx context.Context, tenantID string, req dto.CreateTransactionRequest, userID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := validateAllocations(req.Amount, req.Allocations); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	txn := domain.Transaction{
		TransactionID:   uuid.NewString(),
		TenantID:        tenantID,
		UserID:          userID,
		Type:            req.Type,
		Method:          req.Method,
		Amount:          req.Amount,
		Concept:         req.Concept,
		TransactionDate: req.TransactionDate,
		PersonID:        req.PersonID,
		BankAccountID:   req.BankAccountID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	err := s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.txnRepo.SaveTransaction(ctx, tx, txn); err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}
		if err := s.createMovement(ctx, tx, &txn, userID); err != nil {
			return err
		}
		if err := s.txnRepo.UpdateTransaction(ctx, tx, txn); err != nil {
			return fmt.Errorf("failed to link movement to transaction: %w", err)
		}
		return s.applyAllocations(ctx, tx, &txn, req.Allocations, nil, userID)
	})
	if err != nil {
		logger.Error("Failed to allocate transaction", slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Transaction allocated",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("type", string(txn.Type)),
		slog.Int("documents", len(req.Allocations)))
	return &txn, nil
}

// Update re-allocates a transaction: the links are replaced wholesale, the
// movement is updated in place, and every document touched before or after
// gets its paid amount recomputed from the aggregate.
func (s *transactionService) Update(ctx context.Context, tenantID, transactionID string, req dto.UpdateTransactionRequest, userID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := validateAllocations(req.Amount, req.Allocations); err != nil {
		return nil, err
	}

	txn, err := s.txnRepo.FindTransactionByID(ctx, tenantID, transactionID)
	if err != nil {
		return nil, err
	}

	txn.Amount = req.Amount
	txn.Concept = req.Concept
	txn.TransactionDate = req.TransactionDate
	txn.LastUpdatedAt = time.Now().UTC()
	txn.LastUpdatedBy = userID

	err = s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		oldLinks, err := s.txnRepo.ListTransactionDocuments(ctx, tx, transactionID)
		if err != nil {
			return fmt.Errorf("failed to list transaction links: %w", err)
		}
		if err := s.txnRepo.DeleteTransactionDocuments(ctx, tx, transactionID); err != nil {
			return fmt.Errorf("failed to clear transaction links: %w", err)
		}
		priorApplied := make(map[string]decimal.Decimal, len(oldLinks))
		for _, link := range oldLinks {
			priorApplied[link.DocumentID] = priorApplied[link.DocumentID].Add(link.Amount)
		}

		if txn.CashMovementID != nil {
			if _, err := s.cashSvc.UpdateInTx(ctx, tx, tenantID, *txn.CashMovementID, dto.UpdateCashMovementRequest{
				Amount:       &req.Amount,
				Concept:      &req.Concept,
				MovementDate: &req.TransactionDate,
			}, userID); err != nil {
				return err
			}
		}
		if txn.BankMovementID != nil {
			if txn.PersonID == nil {
				return fmt.Errorf("%w: transfer transactions need a counterparty", apperrors.ErrValidation)
			}
			person, err := s.personRepo.FindPersonByID(ctx, tenantID, *txn.PersonID)
			if err != nil {
				return fmt.Errorf("failed to find person %s: %w", *txn.PersonID, err)
			}
			counterpartAccount := person.CounterpartAccountFor(txn.Type.Direction())
			if counterpartAccount == nil || *counterpartAccount == "" {
				return fmt.Errorf("%w: person %q, direction %s", apperrors.ErrMissingCounterpartyAccount, person.Name, txn.Type.Direction())
			}
			if _, err := s.bankSvc.UpdateInTx(ctx, tx, tenantID, *txn.BankMovementID, dto.UpdateBankMovementRequest{
				Amount:       &req.Amount,
				Concept:      &req.Concept,
				MovementDate: &req.TransactionDate,
				Details: []dto.BankMovementDetailRequest{
					{AccountID: *counterpartAccount, Amount: req.Amount, PersonID: txn.PersonID},
				},
			}, userID); err != nil {
				return err
			}
		}

		if err := s.txnRepo.UpdateTransaction(ctx, tx, *txn); err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}
		if err := s.applyAllocations(ctx, tx, txn, req.Allocations, priorApplied, userID); err != nil {
			return err
		}

		// Documents dropped from the allocation still need their paid
		// amounts recomputed.
		touched := make(map[string]bool, len(req.Allocations))
		for _, a := range req.Allocations {
			touched[a.DocumentID] = true
		}
		for _, link := range oldLinks {
			if touched[link.DocumentID] {
				continue
			}
			if err := s.recomputePaid(ctx, tx, tenantID, link.DocumentID, userID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to update transaction", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
		return nil, err
	}

	logger.Info("Transaction re-allocated", slog.String("transaction_id", transactionID))
	return txn, nil
}

// Reverse undoes a transaction: links, movement and journal entry are
// removed, the transaction is deleted, and every previously paid document
// gets its paid amount recomputed (the aggregate simply shrinks, so balances
// float back up and never go negative).
func (s *transactionService) Reverse(ctx context.Context, tenantID, transactionID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	txn, err := s.txnRepo.FindTransactionByID(ctx, tenantID, transactionID)
	if err != nil {
		return err
	}

	err = s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		links, err := s.txnRepo.ListTransactionDocuments(ctx, tx, transactionID)
		if err != nil {
			return fmt.Errorf("failed to list transaction links: %w", err)
		}
		if err := s.txnRepo.DeleteTransactionDocuments(ctx, tx, transactionID); err != nil {
			return fmt.Errorf("failed to clear transaction links: %w", err)
		}
		if err := s.deleteMovement(ctx, tx, txn); err != nil {
			return err
		}
		if err := s.txnRepo.DeleteTransaction(ctx, tx, tenantID, transactionID); err != nil {
			return fmt.Errorf("failed to delete transaction: %w", err)
		}
		for _, link := range links {
			if err := s.recomputePaid(ctx, tx, tenantID, link.DocumentID, userID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to reverse transaction", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
		return err
	}

	logger.Info("Transaction reversed", slog.String("transaction_id", transactionID), slog.String("reversed_by", userID))
	return nil
}
