package services_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/quipuware/quipu_backend/internal/apperrors"
	"github.com/quipuware/quipu_backend/internal/core/domain"
	"github.com/quipuware/quipu_backend/internal/core/ports/external"
	portsrepo "github.com/quipuware/quipu_backend/internal/core/ports/repositories"
	portssvc "github.com/quipuware/quipu_backend/internal/core/ports/services"
	"github.com/quipuware/quipu_backend/internal/dto"
)

// decEq matches a decimal argument by numeric value rather than internal
// representation (10.0 and 10.00 compare equal).
func decEq(want decimal.Decimal) interface{} {
	return mock.MatchedBy(func(got decimal.Decimal) bool {
		return got.Equal(want)
	})
}

// --- Fake TxManager ---

// fakeTxManager runs the callback with a nil pgx.Tx. The repositories under
// test are mocks, so no real transaction is needed.
type fakeTxManager struct{}

var _ portsrepo.TxManager = (*fakeTxManager)(nil)

func (f *fakeTxManager) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

// --- Mock EntryRepository ---

type MockEntryRepository struct {
	mock.Mock
}

var _ portsrepo.EntryRepositoryFacade = (*MockEntryRepository)(nil)

func (m *MockEntryRepository) SaveEntry(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) error {
	args := m.Called(ctx, tx, entry)
	return args.Error(0)
}

func (m *MockEntryRepository) FindEntryBySource(ctx context.Context, tx pgx.Tx, tenantID string, sourceType domain.EntrySourceType, sourceID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tx, tenantID, sourceType, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockEntryRepository) DeleteEntry(ctx context.Context, tx pgx.Tx, tenantID, entryID string) error {
	args := m.Called(ctx, tx, tenantID, entryID)
	return args.Error(0)
}

func (m *MockEntryRepository) FindEntryByID(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tenantID, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockEntryRepository) ListEntries(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	args := m.Called(ctx, tenantID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var token *string
	if args.Get(1) != nil {
		val := args.Get(1).(string)
		token = &val
	}
	return args.Get(0).([]domain.JournalEntry), token, args.Error(2)
}

// --- Mock AccountRepository ---

type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) SaveAccount(ctx context.Context, tx pgx.Tx, account domain.ChartAccount) error {
	args := m.Called(ctx, tx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) SetAccountParent(ctx context.Context, tx pgx.Tx, tenantID, accountID, parentID string) error {
	args := m.Called(ctx, tx, tenantID, accountID, parentID)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, tenantID, accountID string) (*domain.ChartAccount, error) {
	args := m.Called(ctx, tenantID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChartAccount), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.ChartAccount, error) {
	args := m.Called(ctx, tenantID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.ChartAccount), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, tenantID string) ([]domain.ChartAccount, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChartAccount), args.Error(1)
}

func (m *MockAccountRepository) FindSettings(ctx context.Context, tenantID string) (*domain.TenantSettings, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TenantSettings), args.Error(1)
}

// --- Mock PersonRepository ---

type MockPersonRepository struct {
	mock.Mock
}

var _ portsrepo.PersonRepositoryFacade = (*MockPersonRepository)(nil)

func (m *MockPersonRepository) SavePerson(ctx context.Context, tx pgx.Tx, person domain.Person) error {
	args := m.Called(ctx, tx, person)
	return args.Error(0)
}

func (m *MockPersonRepository) FindPersonByID(ctx context.Context, tenantID, personID string) (*domain.Person, error) {
	args := m.Called(ctx, tenantID, personID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Person), args.Error(1)
}

// --- Mock CashRepository ---

type MockCashRepository struct {
	mock.Mock
}

var _ portsrepo.CashRepositoryFacade = (*MockCashRepository)(nil)

func (m *MockCashRepository) FindCashBoxByID(ctx context.Context, tenantID, cashBoxID string) (*domain.CashBox, error) {
	args := m.Called(ctx, tenantID, cashBoxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashBox), args.Error(1)
}

func (m *MockCashRepository) SaveCashSession(ctx context.Context, tx pgx.Tx, session domain.CashSession) error {
	args := m.Called(ctx, tx, session)
	return args.Error(0)
}

func (m *MockCashRepository) UpdateCashSession(ctx context.Context, tx pgx.Tx, session domain.CashSession) error {
	args := m.Called(ctx, tx, session)
	return args.Error(0)
}

func (m *MockCashRepository) FindOpenSessionForUser(ctx context.Context, tenantID, userID string) (*domain.CashSession, error) {
	args := m.Called(ctx, tenantID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashSession), args.Error(1)
}

func (m *MockCashRepository) FindCashSessionByID(ctx context.Context, tenantID, sessionID string) (*domain.CashSession, error) {
	args := m.Called(ctx, tenantID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashSession), args.Error(1)
}

func (m *MockCashRepository) SaveCashMovement(ctx context.Context, tx pgx.Tx, movement domain.CashMovement) error {
	args := m.Called(ctx, tx, movement)
	return args.Error(0)
}

func (m *MockCashRepository) UpdateCashMovement(ctx context.Context, tx pgx.Tx, movement domain.CashMovement) error {
	args := m.Called(ctx, tx, movement)
	return args.Error(0)
}

func (m *MockCashRepository) DeleteCashMovement(ctx context.Context, tx pgx.Tx, tenantID, movementID string) error {
	args := m.Called(ctx, tx, tenantID, movementID)
	return args.Error(0)
}

func (m *MockCashRepository) FindCashMovementByID(ctx context.Context, tenantID, movementID string) (*domain.CashMovement, error) {
	args := m.Called(ctx, tenantID, movementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashMovement), args.Error(1)
}

// --- Mock BankRepository ---

type MockBankRepository struct {
	mock.Mock
}

var _ portsrepo.BankRepositoryFacade = (*MockBankRepository)(nil)

func (m *MockBankRepository) FindBankAccountByID(ctx context.Context, tenantID, bankAccountID string) (*domain.BankAccount, error) {
	args := m.Called(ctx, tenantID, bankAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankAccount), args.Error(1)
}

func (m *MockBankRepository) SaveBankMovement(ctx context.Context, tx pgx.Tx, movement domain.BankMovement) error {
	args := m.Called(ctx, tx, movement)
	return args.Error(0)
}

func (m *MockBankRepository) UpdateBankMovement(ctx context.Context, tx pgx.Tx, movement domain.BankMovement) error {
	args := m.Called(ctx, tx, movement)
	return args.Error(0)
}

func (m *MockBankRepository) DeleteBankMovement(ctx context.Context, tx pgx.Tx, tenantID, movementID string) error {
	args := m.Called(ctx, tx, tenantID, movementID)
	return args.Error(0)
}

func (m *MockBankRepository) FindBankMovementByID(ctx context.Context, tenantID, movementID string) (*domain.BankMovement, error) {
	args := m.Called(ctx, tenantID, movementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankMovement), args.Error(1)
}

// --- Mock DocumentRepository ---

type MockDocumentRepository struct {
	mock.Mock
}

var _ portsrepo.DocumentRepositoryFacade = (*MockDocumentRepository)(nil)

func (m *MockDocumentRepository) SaveDocument(ctx context.Context, tx pgx.Tx, document domain.Document) error {
	args := m.Called(ctx, tx, document)
	return args.Error(0)
}

func (m *MockDocumentRepository) UpdateDocument(ctx context.Context, tx pgx.Tx, document domain.Document) error {
	args := m.Called(ctx, tx, document)
	return args.Error(0)
}

func (m *MockDocumentRepository) FindDocumentByID(ctx context.Context, tenantID, documentID string) (*domain.Document, error) {
	args := m.Called(ctx, tenantID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindDocumentForUpdate(ctx context.Context, tx pgx.Tx, tenantID, documentID string) (*domain.Document, error) {
	args := m.Called(ctx, tx, tenantID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepository) UpdateDocumentAmounts(ctx context.Context, tx pgx.Tx, tenantID, documentID string, paidAmount, balance decimal.Decimal, userID string, at time.Time) error {
	args := m.Called(ctx, tx, tenantID, documentID, paidAmount, balance, userID, at)
	return args.Error(0)
}

func (m *MockDocumentRepository) UpdateDocumentStatus(ctx context.Context, tenantID, documentID string, status domain.DocumentStatus, userID string, at time.Time) error {
	args := m.Called(ctx, tenantID, documentID, status, userID, at)
	return args.Error(0)
}

func (m *MockDocumentRepository) DeleteDocument(ctx context.Context, tx pgx.Tx, tenantID, documentID string) error {
	args := m.Called(ctx, tx, tenantID, documentID)
	return args.Error(0)
}

func (m *MockDocumentRepository) NextFiscalSequence(ctx context.Context, tx pgx.Tx, tenantID, establishment, emissionPoint string, kind domain.DocumentKind) (int64, error) {
	args := m.Called(ctx, tx, tenantID, establishment, emissionPoint, kind)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock FiscalRepository ---

type MockFiscalRepository struct {
	mock.Mock
}

var _ portsrepo.FiscalRepositoryFacade = (*MockFiscalRepository)(nil)

func (m *MockFiscalRepository) SaveFiscalInfo(ctx context.Context, tx pgx.Tx, info domain.DocumentFiscalInfo) error {
	args := m.Called(ctx, tx, info)
	return args.Error(0)
}

func (m *MockFiscalRepository) UpdateFiscalInfo(ctx context.Context, info domain.DocumentFiscalInfo) error {
	args := m.Called(ctx, info)
	return args.Error(0)
}

func (m *MockFiscalRepository) FindFiscalByDocumentID(ctx context.Context, tenantID, documentID string) (*domain.DocumentFiscalInfo, error) {
	args := m.Called(ctx, tenantID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentFiscalInfo), args.Error(1)
}

func (m *MockFiscalRepository) ListInProcess(ctx context.Context) ([]domain.DocumentFiscalInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentFiscalInfo), args.Error(1)
}

// --- Mock TransactionRepository ---

type MockTransactionRepository struct {
	mock.Mock
}

var _ portsrepo.TransactionRepositoryFacade = (*MockTransactionRepository)(nil)

func (m *MockTransactionRepository) SaveTransaction(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error {
	args := m.Called(ctx, tx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) UpdateTransaction(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error {
	args := m.Called(ctx, tx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) DeleteTransaction(ctx context.Context, tx pgx.Tx, tenantID, transactionID string) error {
	args := m.Called(ctx, tx, tenantID, transactionID)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindTransactionByID(ctx context.Context, tenantID, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, tenantID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) SaveTransactionDocuments(ctx context.Context, tx pgx.Tx, links []domain.TransactionDocument) error {
	args := m.Called(ctx, tx, links)
	return args.Error(0)
}

func (m *MockTransactionRepository) DeleteTransactionDocuments(ctx context.Context, tx pgx.Tx, transactionID string) error {
	args := m.Called(ctx, tx, transactionID)
	return args.Error(0)
}

func (m *MockTransactionRepository) ListTransactionDocuments(ctx context.Context, tx pgx.Tx, transactionID string) ([]domain.TransactionDocument, error) {
	args := m.Called(ctx, tx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TransactionDocument), args.Error(1)
}

func (m *MockTransactionRepository) SumAppliedToDocument(ctx context.Context, tx pgx.Tx, tenantID, documentID string) (decimal.Decimal, error) {
	args := m.Called(ctx, tx, tenantID, documentID)
	if args.Get(0) == nil {
		return decimal.Zero, args.Error(1)
	}
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// --- Mock fiscal platform adapters ---

type MockSigner struct {
	mock.Mock
}

var _ external.Signer = (*MockSigner)(nil)

func (m *MockSigner) Sign(ctx context.Context, certificate []byte, password string, unsignedXML string) (string, error) {
	args := m.Called(ctx, certificate, password, unsignedXML)
	return args.String(0), args.Error(1)
}

type MockAuthorityClient struct {
	mock.Mock
}

var _ external.AuthorityClient = (*MockAuthorityClient)(nil)

func (m *MockAuthorityClient) Transmit(ctx context.Context, signedXML string, environment string) (*external.TransmitResult, error) {
	args := m.Called(ctx, signedXML, environment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*external.TransmitResult), args.Error(1)
}

func (m *MockAuthorityClient) QueryAuthorization(ctx context.Context, accessKey string, environment string) (*external.AuthorizationResult, error) {
	args := m.Called(ctx, accessKey, environment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*external.AuthorizationResult), args.Error(1)
}

type MockBlobStore struct {
	mock.Mock
}

var _ external.BlobStore = (*MockBlobStore)(nil)

func (m *MockBlobStore) Upload(ctx context.Context, path string, data []byte) (string, error) {
	args := m.Called(ctx, path, data)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) Download(ctx context.Context, path string) ([]byte, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockXMLBuilder struct {
	mock.Mock
}

var _ external.XMLBuilder = (*MockXMLBuilder)(nil)

func (m *MockXMLBuilder) BuildXML(ctx context.Context, document *domain.Document, fiscal *domain.DocumentFiscalInfo, settings *domain.TenantSettings) (string, error) {
	args := m.Called(ctx, document, fiscal, settings)
	return args.String(0), args.Error(1)
}

// --- Mock movement services ---

type MockCashMovementService struct {
	mock.Mock
}

var _ portssvc.CashMovementSvcFacade = (*MockCashMovementService)(nil)

func (m *MockCashMovementService) Create(ctx context.Context, tenantID string, req dto.CreateCashMovementRequest, userID string) (*domain.CashMovement, error) {
	args := m.Called(ctx, tenantID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashMovement), args.Error(1)
}

func (m *MockCashMovementService) Update(ctx context.Context, tenantID, movementID string, req dto.UpdateCashMovementRequest, userID string) (*domain.CashMovement, error) {
	args := m.Called(ctx, tenantID, movementID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashMovement), args.Error(1)
}

func (m *MockCashMovementService) Delete(ctx context.Context, tenantID, movementID string, userID string) error {
	args := m.Called(ctx, tenantID, movementID, userID)
	return args.Error(0)
}

func (m *MockCashMovementService) CreateInTx(ctx context.Context, tx pgx.Tx, tenantID string, req dto.CreateCashMovementRequest, transactionID *string, userID string) (*domain.CashMovement, error) {
	args := m.Called(ctx, tx, tenantID, req, transactionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashMovement), args.Error(1)
}

func (m *MockCashMovementService) UpdateInTx(ctx context.Context, tx pgx.Tx, tenantID, movementID string, req dto.UpdateCashMovementRequest, userID string) (*domain.CashMovement, error) {
	args := m.Called(ctx, tx, tenantID, movementID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashMovement), args.Error(1)
}

func (m *MockCashMovementService) DeleteInTx(ctx context.Context, tx pgx.Tx, tenantID, movementID string) error {
	args := m.Called(ctx, tx, tenantID, movementID)
	return args.Error(0)
}

type MockBankMovementService struct {
	mock.Mock
}

var _ portssvc.BankMovementSvcFacade = (*MockBankMovementService)(nil)

func (m *MockBankMovementService) Create(ctx context.Context, tenantID string, req dto.CreateBankMovementRequest, userID string) (*domain.BankMovement, error) {
	args := m.Called(ctx, tenantID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankMovement), args.Error(1)
}

func (m *MockBankMovementService) Update(ctx context.Context, tenantID, movementID string, req dto.UpdateBankMovementRequest, userID string) (*domain.BankMovement, error) {
	args := m.Called(ctx, tenantID, movementID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankMovement), args.Error(1)
}

func (m *MockBankMovementService) Delete(ctx context.Context, tenantID, movementID string, userID string) error {
	args := m.Called(ctx, tenantID, movementID, userID)
	return args.Error(0)
}

func (m *MockBankMovementService) CreateInTx(ctx context.Context, tx pgx.Tx, tenantID string, req dto.CreateBankMovementRequest, transactionID *string, userID string) (*domain.BankMovement, error) {
	args := m.Called(ctx, tx, tenantID, req, transactionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankMovement), args.Error(1)
}

func (m *MockBankMovementService) UpdateInTx(ctx context.Context, tx pgx.Tx, tenantID, movementID string, req dto.UpdateBankMovementRequest, userID string) (*domain.BankMovement, error) {
	args := m.Called(ctx, tx, tenantID, movementID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankMovement), args.Error(1)
}

func (m *MockBankMovementService) DeleteInTx(ctx context.Context, tx pgx.Tx, tenantID, movementID string) error {
	args := m.Called(ctx, tx, tenantID, movementID)
	return args.Error(0)
}

// --- Mock fiscal service ---

type MockFiscalService struct {
	mock.Mock
}

var _ portssvc.FiscalSvcFacade = (*MockFiscalService)(nil)

func (m *MockFiscalService) Advance(ctx context.Context, tenantID, documentID string) (*dto.FiscalAdvanceResult, error) {
	args := m.Called(ctx, tenantID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.FiscalAdvanceResult), args.Error(1)
}

func (m *MockFiscalService) PollAuthorization(ctx context.Context, tenantID, documentID string) (*dto.FiscalAdvanceResult, error) {
	args := m.Called(ctx, tenantID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.FiscalAdvanceResult), args.Error(1)
}

func (m *MockFiscalService) Regenerate(ctx context.Context, tenantID, documentID string, userID string) error {
	args := m.Called(ctx, tenantID, documentID, userID)
	return args.Error(0)
}

// fakeLocker always grants the lock, or always refuses when busy is set.
type fakeLocker struct {
	busy bool
	err  error
}

var _ external.DocumentLocker = (*fakeLocker)(nil)

func (f *fakeLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.busy {
		return nil, apperrors.ErrFiscalBusy
	}
	return func() {}, nil
}
