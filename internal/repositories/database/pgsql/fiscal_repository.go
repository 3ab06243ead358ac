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
)

type PgxFiscalRepository struct {
	pool *pgxpool.Pool
}

// newPgxFiscalRepository creates a new repository for fiscal lifecycle state.
func newPgxFiscalRepository(pool *pgxpool.Pool) portsrepo.FiscalRepositoryFacade {
	return &PgxFiscalRepository{pool: pool}
}

// Ensure PgxFiscalRepository implements portsrepo.FiscalRepositoryFacade
var _ portsrepo.FiscalRepositoryFacade = (*PgxFiscalRepository)(nil)

const fiscalColumns = `fiscal_id, document_id, tenant_id, establishment, emission_point, sequence, access_key, signed_xml_path, authorization_number, authorization_date, sri_status, last_response, created_at, created_by, last_updated_at, last_updated_by`

func scanFiscalInfo(row pgx.Row) (*models.DocumentFiscalInfo, error) {
	var m models.DocumentFiscalInfo
	err := row.Scan(
		&m.FiscalID,
		&m.DocumentID,
		&m.TenantID,
		&m.Establishment,
		&m.EmissionPoint,
		&m.Sequence,
		&m.AccessKey,
		&m.SignedXMLPath,
		&m.AuthorizationNumber,
		&m.AuthorizationDate,
		&m.SRIStatus,
		&m.LastResponse,
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

// SaveFiscalInfo inserts the fiscal row within tx, together with the
// document it belongs to.
func (r *PgxFiscalRepository) SaveFiscalInfo(ctx context.Context, tx pgx.Tx, info domain.DocumentFiscalInfo) error {
	m := mapping.ToModelFiscalInfo(info)
	query := `
		INSERT INTO document_fiscal_info (` + fiscalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := tx.Exec(ctx, query,
		m.FiscalID,
		m.DocumentID,
		m.TenantID,
		m.Establishment,
		m.EmissionPoint,
		m.Sequence,
		m.AccessKey,
		m.SignedXMLPath,
		m.AuthorizationNumber,
		m.AuthorizationDate,
		m.SRIStatus,
		m.LastResponse,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert fiscal info for document %s: %w", m.DocumentID, err)
	}
	return nil
}

// UpdateFiscalInfo rewrites the fiscal row on the pool. Lifecycle
// transitions are durable checkpoints independent of any caller transaction.
func (r *PgxFiscalRepository) UpdateFiscalInfo(ctx context.Context, info domain.DocumentFiscalInfo) error {
	m := mapping.ToModelFiscalInfo(info)
	query := `
		UPDATE document_fiscal_info
		SET access_key = $1, signed_xml_path = $2, authorization_number = $3, authorization_date = $4, sri_status = $5, last_response = $6, last_updated_at = $7, last_updated_by = $8
		WHERE tenant_id = $9 AND fiscal_id = $10;
	`
	tag, err := r.pool.Exec(ctx, query,
		m.AccessKey,
		m.SignedXMLPath,
		m.AuthorizationNumber,
		m.AuthorizationDate,
		m.SRIStatus,
		m.LastResponse,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
		m.TenantID,
		m.FiscalID,
	)
	if err != nil {
		return fmt.Errorf("failed to update fiscal info %s: %w", m.FiscalID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindFiscalByDocumentID returns the fiscal row of a document.
func (r *PgxFiscalRepository) FindFiscalByDocumentID(ctx context.Context, tenantID, documentID string) (*domain.DocumentFiscalInfo, error) {
	query := `
		SELECT ` + fiscalColumns + `
		FROM document_fiscal_info
		WHERE tenant_id = $1 AND document_id = $2;
	`
	m, err := scanFiscalInfo(r.pool.QueryRow(ctx, query, tenantID, documentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find fiscal info for document %s: %w", documentID, err)
	}
	info := mapping.ToDomainFiscalInfo(*m)
	return &info, nil
}

// ListInProcess returns every IN_PROCESS fiscal row across all tenants,
// oldest first so long-stuck documents are retried before fresh ones.
func (r *PgxFiscalRepository) ListInProcess(ctx context.Context) ([]domain.DocumentFiscalInfo, error) {
	query := `
		SELECT ` + fiscalColumns + `
		FROM document_fiscal_info
		WHERE sri_status = 'IN_PROCESS'
		ORDER BY last_updated_at;
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list in-process fiscal documents: %w", err)
	}
	defer rows.Close()

	var infos []domain.DocumentFiscalInfo
	for rows.Next() {
		m, err := scanFiscalInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fiscal info: %w", err)
		}
		infos = append(infos, mapping.ToDomainFiscalInfo(*m))
	}
	return infos, rows.Err()
}
