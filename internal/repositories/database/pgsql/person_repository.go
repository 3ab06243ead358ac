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

type PgxPersonRepository struct {
	pool *pgxpool.Pool
}

// newPgxPersonRepository creates a new repository for counterparty data.
func newPgxPersonRepository(pool *pgxpool.Pool) portsrepo.PersonRepositoryFacade {
	return &PgxPersonRepository{pool: pool}
}

// Ensure PgxPersonRepository implements portsrepo.PersonRepositoryFacade
var _ portsrepo.PersonRepositoryFacade = (*PgxPersonRepository)(nil)

func toDomainPerson(m models.Person) domain.Person {
	return domain.Person{
		PersonID:            m.PersonID,
		TenantID:            m.TenantID,
		Name:                m.Name,
		TaxID:               m.TaxID,
		Email:               m.Email,
		ReceivableAccountID: m.ReceivableAccountID,
		PayableAccountID:    m.PayableAccountID,
		AuditFields:         mapping.ToDomainAuditFields(m.AuditFields),
	}
}

// SavePerson inserts a new counterparty within tx.
func (r *PgxPersonRepository) SavePerson(ctx context.Context, tx pgx.Tx, person domain.Person) error {
	query := `
		INSERT INTO persons (person_id, tenant_id, name, tax_id, email, receivable_account_id, payable_account_id, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := tx.Exec(ctx, query,
		person.PersonID,
		person.TenantID,
		person.Name,
		person.TaxID,
		person.Email,
		person.ReceivableAccountID,
		person.PayableAccountID,
		person.CreatedAt,
		person.CreatedBy,
		person.LastUpdatedAt,
		person.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique violation
			return fmt.Errorf("%w: person with tax ID %s already exists", apperrors.ErrDuplicate, person.TaxID)
		}
		return fmt.Errorf("failed to save person %s: %w", person.PersonID, err)
	}
	return nil
}

// FindPersonByID retrieves a counterparty by its ID.
func (r *PgxPersonRepository) FindPersonByID(ctx context.Context, tenantID, personID string) (*domain.Person, error) {
	query := `
		SELECT person_id, tenant_id, name, tax_id, email, receivable_account_id, payable_account_id, created_at, created_by, last_updated_at, last_updated_by
		FROM persons
		WHERE tenant_id = $1 AND person_id = $2;
	`
	var m models.Person
	err := r.pool.QueryRow(ctx, query, tenantID, personID).Scan(
		&m.PersonID,
		&m.TenantID,
		&m.Name,
		&m.TaxID,
		&m.Email,
		&m.ReceivableAccountID,
		&m.PayableAccountID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find person %s: %w", personID, err)
	}
	person := toDomainPerson(m)
	return &person, nil
}
