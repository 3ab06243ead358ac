package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/quipuware/quipu_backend/internal/apperrors"
	"github.com/quipuware/quipu_backend/internal/core/domain"
	portssvc "github.com/quipuware/quipu_backend/internal/core/ports/services"
	"github.com/quipuware/quipu_backend/internal/core/services"
	"github.com/quipuware/quipu_backend/internal/dto"
)

type BankMovementServiceTestSuite struct {
	suite.Suite
	mockBankRepo  *MockBankRepository
	mockEntryRepo *MockEntryRepository
	service       portssvc.BankMovementSvcFacade
	tenantID      string
	userID        string
	bankAccountID string
	ledgerAccount string
}

func (s *BankMovementServiceTestSuite) SetupTest() {
	s.mockBankRepo = new(MockBankRepository)
	s.mockEntryRepo = new(MockEntryRepository)
	postingSvc := services.NewPostingService(&fakeTxManager{}, s.mockEntryRepo)
	s.service = services.NewBankMovementService(&fakeTxManager{}, s.mockBankRepo, postingSvc)
	s.tenantID = uuid.NewString()
	s.userID = uuid.NewString()
	s.bankAccountID = uuid.NewString()
	s.ledgerAccount = uuid.NewString()
}

func (s *BankMovementServiceTestSuite) bankAccount() *domain.BankAccount {
	return &domain.BankAccount{
		BankAccountID: s.bankAccountID,
		TenantID:      s.tenantID,
		BankName:      "Banco Pichincha",
		Number:        "2201234567",
		AccountID:     &s.ledgerAccount,
	}
}

func (s *BankMovementServiceTestSuite) TestCreateSplitsDetailsIntoLines() {
	ctx := context.Background()
	feeAccount := uuid.NewString()
	salesAccount := uuid.NewString()
	req := dto.CreateBankMovementRequest{
		BankAccountID: s.bankAccountID,
		Direction:     domain.MovementIn,
		Amount:        decimal.NewFromInt(150),
		Concept:       "deposito ventas",
		MovementDate:  time.Now().UTC(),
		Details: []dto.BankMovementDetailRequest{
			{AccountID: salesAccount, Amount: decimal.NewFromInt(140)},
			{AccountID: feeAccount, Amount: decimal.NewFromInt(10)},
		},
	}

	s.mockBankRepo.On("FindBankAccountByID", ctx, s.tenantID, s.bankAccountID).Return(s.bankAccount(), nil).Once()
	s.mockEntryRepo.On("FindEntryBySource", ctx, mock.Anything, s.tenantID, domain.SourceBankMovement, mock.AnythingOfType("string")).Return(nil, apperrors.ErrNotFound).Once()

	var savedEntry domain.JournalEntry
	s.mockEntryRepo.On("SaveEntry", ctx, mock.Anything, mock.AnythingOfType("domain.JournalEntry")).
		Run(func(args mock.Arguments) { savedEntry = args.Get(2).(domain.JournalEntry) }).Return(nil).Once()
	s.mockBankRepo.On("SaveBankMovement", ctx, mock.Anything, mock.AnythingOfType("domain.BankMovement")).Return(nil).Once()

	movement, err := s.service.Create(ctx, s.tenantID, req, s.userID)

	s.Require().NoError(err)
	s.Require().Len(movement.Details, 2)
	s.Require().NotNil(movement.EntryID)

	s.Equal(domain.EntryTypeBank, savedEntry.EntryType)
	s.Require().Len(savedEntry.Lines, 3)
	s.Equal(s.ledgerAccount, savedEntry.Lines[0].AccountID)
	s.True(savedEntry.Lines[0].Debit.Equal(decimal.NewFromInt(150)))
	s.True(savedEntry.Lines[1].Credit.Equal(decimal.NewFromInt(140)))
	s.True(savedEntry.Lines[2].Credit.Equal(decimal.NewFromInt(10)))
	s.True(savedEntry.DebitTotal().Equal(savedEntry.CreditTotal()))
}

func (s *BankMovementServiceTestSuite) TestCreateRejectsDetailMismatch() {
	ctx := context.Background()
	req := dto.CreateBankMovementRequest{
		BankAccountID: s.bankAccountID,
		Direction:     domain.MovementIn,
		Amount:        decimal.NewFromInt(150),
		Concept:       "deposito",
		MovementDate:  time.Now().UTC(),
		Details: []dto.BankMovementDetailRequest{
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(149)},
		},
	}

	s.mockBankRepo.On("FindBankAccountByID", ctx, s.tenantID, s.bankAccountID).Return(s.bankAccount(), nil).Once()

	_, err := s.service.Create(ctx, s.tenantID, req, s.userID)

	s.ErrorIs(err, apperrors.ErrValidation)
	s.mockBankRepo.AssertNotCalled(s.T(), "SaveBankMovement", mock.Anything, mock.Anything, mock.Anything)
}

func (s *BankMovementServiceTestSuite) TestCreateRequiresLedgerAccountLink() {
	ctx := context.Background()
	account := s.bankAccount()
	account.AccountID = nil
	req := dto.CreateBankMovementRequest{
		BankAccountID: s.bankAccountID,
		Direction:     domain.MovementOut,
		Amount:        decimal.NewFromInt(20),
		Concept:       "pago",
		MovementDate:  time.Now().UTC(),
		Details: []dto.BankMovementDetailRequest{
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(20)},
		},
	}

	s.mockBankRepo.On("FindBankAccountByID", ctx, s.tenantID, s.bankAccountID).Return(account, nil).Once()

	_, err := s.service.Create(ctx, s.tenantID, req, s.userID)

	s.ErrorIs(err, apperrors.ErrMissingBankAccount)
}

func (s *BankMovementServiceTestSuite) TestDeleteRemovesMovementAndEntry() {
	ctx := context.Background()
	movementID := uuid.NewString()
	entryID := uuid.NewString()

	s.mockEntryRepo.On("FindEntryBySource", ctx, mock.Anything, s.tenantID, domain.SourceBankMovement, movementID).
		Return(&domain.JournalEntry{EntryID: entryID, TenantID: s.tenantID}, nil).Once()
	s.mockEntryRepo.On("DeleteEntry", ctx, mock.Anything, s.tenantID, entryID).Return(nil).Once()
	s.mockBankRepo.On("DeleteBankMovement", ctx, mock.Anything, s.tenantID, movementID).Return(nil).Once()

	err := s.service.Delete(ctx, s.tenantID, movementID, s.userID)

	s.Require().NoError(err)
	s.mockEntryRepo.AssertExpectations(s.T())
	s.mockBankRepo.AssertExpectations(s.T())
}

func TestBankMovementServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BankMovementServiceTestSuite))
}
