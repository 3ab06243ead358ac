package services

import (
	"time"

	"github.com/quipuware/quipu_backend/internal/core/ports/external"
	portsrepo "github.com/quipuware/quipu_backend/internal/core/ports/repositories"
	portssvc "github.com/quipuware/quipu_backend/internal/core/ports/services"
)

// NewServiceContainer builds the full service graph from the repositories
// and the fiscal platform adapters.
func NewServiceContainer(
	repos portsrepo.RepositoryProvider,
	signer external.Signer,
	authority external.AuthorityClient,
	blobStore external.BlobStore,
	xmlBuilder external.XMLBuilder,
	locker external.DocumentLocker,
	fiscalDocTimeout time.Duration,
) *portssvc.ServiceContainer {
	posting := NewPostingService(repos.TxManager, repos.EntryRepo)
	account := NewAccountService(repos.TxManager, repos.AccountRepo)
	cashSession := NewCashSessionService(repos.TxManager, repos.CashRepo)
	cashMovement := NewCashMovementService(repos.TxManager, repos.CashRepo, repos.PersonRepo, posting)
	bankMovement := NewBankMovementService(repos.TxManager, repos.BankRepo, posting)
	document := NewDocumentService(repos.TxManager, repos.DocumentRepo, repos.FiscalRepo, repos.PersonRepo, repos.AccountRepo, posting)
	transaction := NewTransactionService(repos.TxManager, repos.TransactionRepo, repos.DocumentRepo, repos.PersonRepo, cashMovement, bankMovement)
	fiscal := NewFiscalService(repos.FiscalRepo, repos.DocumentRepo, repos.AccountRepo, signer, authority, blobStore, xmlBuilder, locker)
	sweeper := NewSweeperService(repos.FiscalRepo, fiscal, fiscalDocTimeout)

	return &portssvc.ServiceContainer{
		Posting:      posting,
		Account:      account,
		CashSession:  cashSession,
		CashMovement: cashMovement,
		BankMovement: bankMovement,
		Document:     document,
		Transaction:  transaction,
		Fiscal:       fiscal,
		Sweeper:      sweeper,
	}
}
