package services

import (
	"context"
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

// accountService manages the tenant chart of accounts.
type accountService struct {
	txManager   portsrepo.TxManager
	accountRepo portsrepo.AccountRepositoryFacade
}

// NewAccountService creates the account service.
func NewAccountService(txManager portsrepo.TxManager, accountRepo portsrepo.AccountRepositoryFacade) portssvc.AccountSvcFacade {
	return &accountService{txManager: txManager, accountRepo: accountRepo}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount creates a single chart-of-accounts node.
func (s *accountService) CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, userID string) (*domain.ChartAccount, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.ParentID != nil {
		if _, err := s.accountRepo.FindAccountByID(ctx, tenantID, *req.ParentID); err != nil {
			return nil, fmt.Errorf("failed to find parent account %s: %w", *req.ParentID, err)
		}
	}

	now := time.Now().UTC()
	account := domain.ChartAccount{
		AccountID: uuid.NewString(),
		TenantID:  tenantID,
		Code:      req.Code,
		Name:      req.Name,
		ParentID:  req.ParentID,
		IsMovable: req.IsMovable,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	err := s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		return s.accountRepo.SaveAccount(ctx, tx, account)
	})
	if err != nil {
		logger.Error("Failed to create account", slog.String("error", err.Error()), slog.String("code", req.Code))
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("code", account.Code))
	return &account, nil
}

// ListAccounts returns the full chart of accounts for the tenant.
func (s *accountService) ListAccounts(ctx context.Context, tenantID string) ([]domain.ChartAccount, error) {
	return s.accountRepo.ListAccounts(ctx, tenantID)
}

// CloneTemplate copies a chart-of-accounts template into the tenant. The
// template references parents by code and rows arrive in arbitrary order, so
// the clone runs in two passes inside one transaction: first create every
// account without a parent, then resolve each ParentCode against the freshly
// created IDs and link.
func (s *accountService) CloneTemplate(ctx context.Context, tenantID string, template []domain.TemplateAccount, userID string) ([]domain.ChartAccount, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if len(template) == 0 {
		return nil, fmt.Errorf("%w: template has no accounts", apperrors.ErrValidation)
	}
	byCode := make(map[string]domain.TemplateAccount, len(template))
	for _, row := range template {
		if _, dup := byCode[row.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate template code %q", apperrors.ErrValidation, row.Code)
		}
		byCode[row.Code] = row
	}
	for _, row := range template {
		if row.ParentCode != nil {
			if _, ok := byCode[*row.ParentCode]; !ok {
				return nil, fmt.Errorf("%w: template code %q references unknown parent %q", apperrors.ErrValidation, row.Code, *row.ParentCode)
			}
			if *row.ParentCode == row.Code {
				return nil, fmt.Errorf("%w: template code %q is its own parent", apperrors.ErrValidation, row.Code)
			}
		}
	}

	now := time.Now().UTC()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     userID,
		LastUpdatedAt: now,
		LastUpdatedBy: userID,
	}

	accounts := make([]domain.ChartAccount, len(template))
	idByCode := make(map[string]string, len(template))
	for i, row := range template {
		code := row.Code
		accounts[i] = domain.ChartAccount{
			AccountID:    uuid.NewString(),
			TenantID:     tenantID,
			Code:         row.Code,
			Name:         row.Name,
			TemplateCode: &code,
			IsMovable:    row.IsMovable,
			AuditFields:  audit,
		}
		idByCode[row.Code] = accounts[i].AccountID
	}

	err := s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		for _, account := range accounts {
			if err := s.accountRepo.SaveAccount(ctx, tx, account); err != nil {
				return fmt.Errorf("failed to save account %s: %w", account.Code, err)
			}
		}
		for i, row := range template {
			if row.ParentCode == nil {
				continue
			}
			parentID := idByCode[*row.ParentCode]
			if err := s.accountRepo.SetAccountParent(ctx, tx, tenantID, accounts[i].AccountID, parentID); err != nil {
				return fmt.Errorf("failed to link account %s to parent %s: %w", row.Code, *row.ParentCode, err)
			}
			accounts[i].ParentID = &parentID
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to clone chart template", slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Chart template cloned", slog.Int("accounts", len(accounts)))
	return accounts, nil
}
