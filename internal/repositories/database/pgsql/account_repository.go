package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quipuware/quipu_backend/internal/apperrors"
	"github.com/quipuware/quipu_backend/internal/core/domain"
	portsrepo "github.com/quipuware/quipu_backend/internal/core/ports/repositories"
	"github.com/quipuware/quipu_backend/internal/models"
	"github.com/quipuware/quipu_backend/internal/utils/mapping"
)

type PgxAccountRepository struct {
	pool *pgxpool.Pool
}

// newPgxAccountRepository creates a new repository for chart-of-accounts data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{pool: pool}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

// Helper to convert domain.ChartAccount to models.ChartAccount for DB storage
func toModelChartAccount(d domain.ChartAccount) models.ChartAccount {
	return models.ChartAccount{
		AccountID:    d.AccountID,
		TenantID:     d.TenantID,
		Code:         d.Code,
		Name:         d.Name,
		ParentID:     d.ParentID,
		TemplateCode: d.TemplateCode,
		IsMovable:    d.IsMovable,
		AuditFields:  mapping.ToModelAuditFields(d.AuditFields),
	}
}

// Helper to convert models.ChartAccount from DB to domain.ChartAccount
func toDomainChartAccount(m models.ChartAccount) domain.ChartAccount {
	return domain.ChartAccount{
		AccountID:    m.AccountID,
		TenantID:     m.TenantID,
		Code:         m.Code,
		Name:         m.Name,
		ParentID:     m.ParentID,
		TemplateCode: m.TemplateCode,
		IsMovable:    m.IsMovable,
		AuditFields:  mapping.ToDomainAuditFields(m.AuditFields),
	}
}

const accountColumns = `account_id, tenant_id, code, name, parent_account_id, template_code, is_movable, created_at, created_by, last_updated_at, last_updated_by`

func scanChartAccount(row pgx.Row) (*models.ChartAccount, error) {
	var m models.ChartAccount
	err := row.Scan(
		&m.AccountID,
		&m.TenantID,
		&m.Code,
		&m.Name,
		&m.ParentID,
		&m.TemplateCode,
		&m.IsMovable,
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

// SaveAccount inserts a new account within tx.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, tx pgx.Tx, account domain.ChartAccount) error {
	m := toModelChartAccount(account)

	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := tx.Exec(ctx, query,
		m.AccountID,
		m.TenantID,
		m.Code,
		m.Name,
		m.ParentID,
		m.TemplateCode,
		m.IsMovable,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique violation
			return fmt.Errorf("%w: account with code %s already exists", apperrors.ErrDuplicate, m.Code)
		}
		return fmt.Errorf("failed to save account %s: %w", m.AccountID, err)
	}
	return nil
}

// SetAccountParent resolves one parent link during a template clone.
func (r *PgxAccountRepository) SetAccountParent(ctx context.Context, tx pgx.Tx, tenantID, accountID, parentID string) error {
	tag, err := tx.Exec(ctx,
		`UPDATE accounts SET parent_account_id = $1 WHERE tenant_id = $2 AND account_id = $3;`,
		parentID, tenantID, accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to set parent of account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, tenantID, accountID string) (*domain.ChartAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE tenant_id = $1 AND account_id = $2;
	`
	m, err := scanChartAccount(r.pool.QueryRow(ctx, query, tenantID, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	account := toDomainChartAccount(*m)
	return &account, nil
}

// FindAccountsByIDs returns the accounts keyed by ID. Missing IDs are simply
// absent from the map; callers decide whether that is an error.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.ChartAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE tenant_id = $1 AND account_id = ANY($2);
	`
	rows, err := r.pool.Query(ctx, query, tenantID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	result := make(map[string]domain.ChartAccount, len(accountIDs))
	for rows.Next() {
		m, err := scanChartAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		result[m.AccountID] = toDomainChartAccount(*m)
	}
	return result, rows.Err()
}

// ListAccounts returns the full chart of accounts ordered by code.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, tenantID string) ([]domain.ChartAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE tenant_id = $1
		ORDER BY code;
	`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.ChartAccount
	for rows.Next() {
		m, err := scanChartAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, toDomainChartAccount(*m))
	}
	return accounts, rows.Err()
}

// FindSettings returns the tenant's accounting and fiscal configuration.
func (r *PgxAccountRepository) FindSettings(ctx context.Context, tenantID string) (*domain.TenantSettings, error) {
	query := `
		SELECT tenant_id, ruc, sales_tax_account_id, certificate_path, certificate_password, sri_environment
		FROM tenant_settings
		WHERE tenant_id = $1;
	`
	var m models.TenantSettings
	err := r.pool.QueryRow(ctx, query, tenantID).Scan(
		&m.TenantID,
		&m.RUC,
		&m.SalesTaxAccountID,
		&m.CertificatePath,
		&m.CertificatePassword,
		&m.SRIEnvironment,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find settings for tenant %s: %w", tenantID, err)
	}
	return &domain.TenantSettings{
		TenantID:            m.TenantID,
		RUC:                 m.RUC,
		SalesTaxAccountID:   m.SalesTaxAccountID,
		CertificatePath:     m.CertificatePath,
		CertificatePassword: m.CertificatePassword,
		SRIEnvironment:      m.SRIEnvironment,
	}, nil
}
