package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/quipuware/quipu_backend/internal/core/domain"
)

// AccountRepositoryFacade persists chart-of-accounts nodes and tenant settings.
type AccountRepositoryFacade interface {
	SaveAccount(ctx context.Context, tx pgx.Tx, account domain.ChartAccount) error
	// SetAccountParent resolves one parent link during a template clone.
	SetAccountParent(ctx context.Context, tx pgx.Tx, tenantID, accountID, parentID string) error
	FindAccountByID(ctx context.Context, tenantID, accountID string) (*domain.ChartAccount, error)
	FindAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.ChartAccount, error)
	ListAccounts(ctx context.Context, tenantID string) ([]domain.ChartAccount, error)
	FindSettings(ctx context.Context, tenantID string) (*domain.TenantSettings, error)
}

// PersonRepositoryFacade persists counterparties.
type PersonRepositoryFacade interface {
	SavePerson(ctx context.Context, tx pgx.Tx, person domain.Person) error
	FindPersonByID(ctx context.Context, tenantID, personID string) (*domain.Person, error)
}
