package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/quipuware/quipu_backend/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	fiscalRepo := newPgxFiscalRepository(dbPool)

	return portsrepo.RepositoryProvider{
		TxManager:       &BaseRepository{Pool: dbPool},
		EntryRepo:       newPgxEntryRepository(dbPool),
		AccountRepo:     newPgxAccountRepository(dbPool),
		PersonRepo:      newPgxPersonRepository(dbPool),
		CashRepo:        newPgxCashRepository(dbPool),
		BankRepo:        newPgxBankRepository(dbPool),
		DocumentRepo:    newPgxDocumentRepository(dbPool, fiscalRepo),
		FiscalRepo:      fiscalRepo,
		TransactionRepo: newPgxTransactionRepository(dbPool),
	}
}
