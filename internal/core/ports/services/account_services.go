package services

import (
	"context"

	"github.com/quipuware/quipu_backend/internal/core/domain"
	"github.com/quipuware/quipu_backend/internal/dto"
)

// AccountSvcFacade manages the tenant chart of accounts.
type AccountSvcFacade interface {
	CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, userID string) (*domain.ChartAccount, error)
	ListAccounts(ctx context.Context, tenantID string) ([]domain.ChartAccount, error)
	// CloneTemplate clones a chart-of-accounts template into the tenant with
	// the two-pass create-then-link algorithm.
	CloneTemplate(ctx context.Context, tenantID string, template []domain.TemplateAccount, userID string) ([]domain.ChartAccount, error)
}
