package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quipuware/quipu_backend/internal/apperrors"
	"github.com/quipuware/quipu_backend/internal/core/domain"
	portsrepo "github.com/quipuware/quipu_backend/internal/core/ports/repositories"
	portssvc "github.com/quipuware/quipu_backend/internal/core/ports/services"
	"github.com/quipuware/quipu_backend/internal/dto"
	"github.com/quipuware/quipu_backend/internal/middleware"
)

// cashSessionService manages the open/close cycle of cash sessions. A user
// has at most one OPEN session, and only OPEN sessions accept movements.
type cashSessionService struct {
	txManager portsrepo.TxManager
	cashRepo  portsrepo.CashRepositoryFacade
}

// NewCashSessionService creates the cash-session service.
func NewCashSessionService(txManager portsrepo.TxManager, cashRepo portsrepo.CashRepositoryFacade) portssvc.CashSessionSvcFacade {
	return &cashSessionService{txManager: txManager, cashRepo: cashRepo}
}

var _ portssvc.CashSessionSvcFacade = (*cashSessionService)(nil)

// OpenSession opens a session on a cash box for the user.
func (s *cashSessionService) OpenSession(ctx context.Context, tenantID string, req dto.OpenCashSessionRequest, userID string) (*domain.CashSession, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.cashRepo.FindOpenSessionForUser(ctx, tenantID, userID); err == nil {
		return nil, fmt.Errorf("%w: user already has an open cash session", apperrors.ErrConflict)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for open session: %w", err)
	}

	if _, err := s.cashRepo.FindCashBoxByID(ctx, tenantID, req.CashBoxID); err != nil {
		return nil, fmt.Errorf("failed to find cash box %s: %w", req.CashBoxID, err)
	}
	if req.OpeningAmount.IsNegative() {
		return nil, fmt.Errorf("%w: opening amount cannot be negative", apperrors.ErrValidation)
	}

	session := domain.CashSession{
		SessionID:     uuid.NewString(),
		TenantID:      tenantID,
		CashBoxID:     req.CashBoxID,
		UserID:        userID,
		OpeningAmount: req.OpeningAmount,
		Status:        domain.SessionOpen,
		OpenedAt:      time.Now().UTC(),
	}

	err := s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		return s.cashRepo.SaveCashSession(ctx, tx, session)
	})
	if err != nil {
		logger.Error("Failed to open cash session", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to open cash session: %w", err)
	}

	logger.Info("Cash session opened", slog.String("session_id", session.SessionID), slog.String("cash_box_id", req.CashBoxID))
	return &session, nil
}

// CloseSession closes the user's open session with the counted amount.
func (s *cashSessionService) CloseSession(ctx context.Context, tenantID string, req dto.CloseCashSessionRequest, userID string) (*domain.CashSession, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	session, err := s.cashRepo.FindOpenSessionForUser(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNoOpenCashSession
		}
		return nil, fmt.Errorf("failed to find open session: %w", err)
	}

	now := time.Now().UTC()
	session.Status = domain.SessionClosed
	session.ClosingAmount = &req.ClosingAmount
	session.ClosedAt = &now

	err = s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		return s.cashRepo.UpdateCashSession(ctx, tx, *session)
	})
	if err != nil {
		logger.Error("Failed to close cash session", slog.String("error", err.Error()), slog.String("session_id", session.SessionID))
		return nil, fmt.Errorf("failed to close cash session: %w", err)
	}

	logger.Info("Cash session closed", slog.String("session_id", session.SessionID))
	return session, nil
}

// GetOpenSession returns the user's open session, if any.
func (s *cashSessionService) GetOpenSession(ctx context.Context, tenantID, userID string) (*domain.CashSession, error) {
	return s.cashRepo.FindOpenSessionForUser(ctx, tenantID, userID)
}
