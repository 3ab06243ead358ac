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

type TransactionServiceTestSuite struct {
	suite.Suite
	mockTxnRepo    *MockTransactionRepository
	mockDocRepo    *MockDocumentRepository
	mockPersonRepo *MockPersonRepository
	mockCashSvc    *MockCashMovementService
	mockBankSvc    *MockBankMovementService
	service        portssvc.TransactionSvcFacade
	tenantID       string
	userID         string
}

func (s *TransactionServiceTestSuite) SetupTest() {
	s.mockTxnRepo = new(MockTransactionRepository)
	s.mockDocRepo = new(MockDocumentRepository)
	s.mockPersonRepo = new(MockPersonRepository)
	s.mockCashSvc = new(MockCashMovementService)
	s.mockBankSvc = new(MockBankMovementService)
	s.service = services.NewTransactionService(&fakeTxManager{}, s.mockTxnRepo, s.mockDocRepo, s.mockPersonRepo, s.mockCashSvc, s.mockBankSvc)
	s.tenantID = uuid.NewString()
	s.userID = uuid.NewString()
}

func (s *TransactionServiceTestSuite) openDocument(total, paid decimal.Decimal) *domain.Document {
	return &domain.Document{
		DocumentID: uuid.NewString(),
		TenantID:   s.tenantID,
		Kind:       domain.KindInvoice,
		Total:      total,
		PaidAmount: paid,
		Balance:    total.Sub(paid),
	}
}

func (s *TransactionServiceTestSuite) cashReceiptRequest(amount decimal.Decimal, allocations []dto.AllocationRequest) dto.CreateTransactionRequest {
	return dto.CreateTransactionRequest{
		Type:            domain.Receipt,
		Method:          domain.MethodCash,
		Amount:          amount,
		Concept:         "cobro factura",
		TransactionDate: time.Now().UTC(),
		Allocations:     allocations,
	}
}

func (s *TransactionServiceTestSuite) TestAllocateCashReceipt() {
	ctx := context.Background()
	doc := s.openDocument(decimal.NewFromInt(100), decimal.Zero)
	req := s.cashReceiptRequest(decimal.NewFromInt(100), []dto.AllocationRequest{
		{DocumentID: doc.DocumentID, Amount: decimal.NewFromInt(100)},
	})
	movement := &domain.CashMovement{MovementID: uuid.NewString()}

	s.mockTxnRepo.On("SaveTransaction", ctx, mock.Anything, mock.AnythingOfType("domain.Transaction")).Return(nil).Once()
	s.mockCashSvc.On("CreateInTx", ctx, mock.Anything, s.tenantID, mock.AnythingOfType("dto.CreateCashMovementRequest"), mock.AnythingOfType("*string"), s.userID).Return(movement, nil).Once()
	s.mockTxnRepo.On("UpdateTransaction", ctx, mock.Anything, mock.AnythingOfType("domain.Transaction")).Return(nil).Once()
	s.mockDocRepo.On("FindDocumentForUpdate", ctx, mock.Anything, s.tenantID, doc.DocumentID).Return(doc, nil).Twice()
	s.mockTxnRepo.On("SaveTransactionDocuments", ctx, mock.Anything, mock.AnythingOfType("[]domain.TransactionDocument")).Return(nil).Once()
	s.mockTxnRepo.On("SumAppliedToDocument", ctx, mock.Anything, s.tenantID, doc.DocumentID).Return(decimal.NewFromInt(100), nil).Once()
	s.mockDocRepo.On("UpdateDocumentAmounts", ctx, mock.Anything, s.tenantID, doc.DocumentID, decEq(decimal.NewFromInt(100)), decEq(decimal.Zero), s.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	txn, err := s.service.Allocate(ctx, s.tenantID, req, s.userID)

	s.Require().NoError(err)
	s.Require().NotNil(txn.CashMovementID)
	s.Equal(movement.MovementID, *txn.CashMovementID)
	s.Nil(txn.BankMovementID)
	s.mockTxnRepo.AssertExpectations(s.T())
	s.mockDocRepo.AssertExpectations(s.T())
	s.mockCashSvc.AssertExpectations(s.T())
}

func (s *TransactionServiceTestSuite) TestAllocateAcceptsSumWithinTolerance() {
	ctx := context.Background()
	doc := s.openDocument(decimal.NewFromInt(50), decimal.Zero)
	// 49.99 against a 50.00 transaction is exactly at the 0.01 tolerance.
	req := s.cashReceiptRequest(decimal.NewFromInt(50), []dto.AllocationRequest{
		{DocumentID: doc.DocumentID, Amount: decimal.NewFromFloat(49.99)},
	})
	movement := &domain.CashMovement{MovementID: uuid.NewString()}

	s.mockTxnRepo.On("SaveTransaction", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	s.mockCashSvc.On("CreateInTx", ctx, mock.Anything, s.tenantID, mock.Anything, mock.Anything, s.userID).Return(movement, nil).Once()
	s.mockTxnRepo.On("UpdateTransaction", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	s.mockDocRepo.On("FindDocumentForUpdate", ctx, mock.Anything, s.tenantID, doc.DocumentID).Return(doc, nil).Twice()
	s.mockTxnRepo.On("SaveTransactionDocuments", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	s.mockTxnRepo.On("SumAppliedToDocument", ctx, mock.Anything, s.tenantID, doc.DocumentID).Return(decimal.NewFromFloat(49.99), nil).Once()
	s.mockDocRepo.On("UpdateDocumentAmounts", ctx, mock.Anything, s.tenantID, doc.DocumentID, decEq(decimal.NewFromFloat(49.99)), decEq(decimal.NewFromFloat(0.01)), s.userID, mock.Anything).Return(nil).Once()

	_, err := s.service.Allocate(ctx, s.tenantID, req, s.userID)

	s.Require().NoError(err)
}

func (s *TransactionServiceTestSuite) TestAllocateRejectsSumBeyondTolerance() {
	req := s.cashReceiptRequest(decimal.NewFromInt(50), []dto.AllocationRequest{
		{DocumentID: uuid.NewString(), Amount: decimal.NewFromFloat(49.98)},
	})

	_, err := s.service.Allocate(context.Background(), s.tenantID, req, s.userID)

	s.ErrorIs(err, apperrors.ErrAllocationMismatch)
	s.mockTxnRepo.AssertNotCalled(s.T(), "SaveTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func (s *TransactionServiceTestSuite) TestAllocateRejectsNonPositiveAllocation() {
	req := s.cashReceiptRequest(decimal.NewFromInt(50), []dto.AllocationRequest{
		{DocumentID: uuid.NewString(), Amount: decimal.NewFromInt(50)},
		{DocumentID: uuid.NewString(), Amount: decimal.Zero},
	})

	_, err := s.service.Allocate(context.Background(), s.tenantID, req, s.userID)

	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *TransactionServiceTestSuite) TestAllocateRejectsOvershoot() {
	ctx := context.Background()
	doc := s.openDocument(decimal.NewFromInt(100), decimal.NewFromInt(80))
	// 30 against a remaining balance of 20 overshoots well past tolerance.
	req := s.cashReceiptRequest(decimal.NewFromInt(30), []dto.AllocationRequest{
		{DocumentID: doc.DocumentID, Amount: decimal.NewFromInt(30)},
	})
	movement := &domain.CashMovement{MovementID: uuid.NewString()}

	s.mockTxnRepo.On("SaveTransaction", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	s.mockCashSvc.On("CreateInTx", ctx, mock.Anything, s.tenantID, mock.Anything, mock.Anything, s.userID).Return(movement, nil).Once()
	s.mockTxnRepo.On("UpdateTransaction", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	s.mockDocRepo.On("FindDocumentForUpdate", ctx, mock.Anything, s.tenantID, doc.DocumentID).Return(doc, nil).Once()

	_, err := s.service.Allocate(ctx, s.tenantID, req, s.userID)

	s.ErrorIs(err, apperrors.ErrValidation)
	s.mockTxnRepo.AssertNotCalled(s.T(), "SaveTransactionDocuments", mock.Anything, mock.Anything, mock.Anything)
}

func (s *TransactionServiceTestSuite) TestAllocateTransferNeedsBankAccount() {
	ctx := context.Background()
	personID := uuid.NewString()
	req := dto.CreateTransactionRequest{
		Type:            domain.Payment,
		Method:          domain.MethodTransfer,
		Amount:          decimal.NewFromInt(75),
		Concept:         "pago proveedor",
		TransactionDate: time.Now().UTC(),
		PersonID:        &personID,
		Allocations: []dto.AllocationRequest{
			{DocumentID: uuid.NewString(), Amount: decimal.NewFromInt(75)},
		},
	}

	s.mockTxnRepo.On("SaveTransaction", ctx, mock.Anything, mock.Anything).Return(nil).Once()

	_, err := s.service.Allocate(ctx, s.tenantID, req, s.userID)

	s.ErrorIs(err, apperrors.ErrMissingBankAccount)
	s.mockBankSvc.AssertNotCalled(s.T(), "CreateInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *TransactionServiceTestSuite) TestAllocateTransferUsesCounterpartAccount() {
	ctx := context.Background()
	doc := s.openDocument(decimal.NewFromInt(75), decimal.Zero)
	personID := uuid.NewString()
	bankAccountID := uuid.NewString()
	payableAccount := uuid.NewString()
	req := dto.CreateTransactionRequest{
		Type:            domain.Payment,
		Method:          domain.MethodTransfer,
		Amount:          decimal.NewFromInt(75),
		Concept:         "pago proveedor",
		TransactionDate: time.Now().UTC(),
		PersonID:        &personID,
		BankAccountID:   &bankAccountID,
		Allocations: []dto.AllocationRequest{
			{DocumentID: doc.DocumentID, Amount: decimal.NewFromInt(75)},
		},
	}
	person := &domain.Person{PersonID: personID, Name: "Proveedor SA", PayableAccountID: &payableAccount}
	movement := &domain.BankMovement{MovementID: uuid.NewString()}

	s.mockTxnRepo.On("SaveTransaction", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	s.mockPersonRepo.On("FindPersonByID", ctx, s.tenantID, personID).Return(person, nil).Once()
	var bankReq dto.CreateBankMovementRequest
	s.mockBankSvc.On("CreateInTx", ctx, mock.Anything, s.tenantID, mock.AnythingOfType("dto.CreateBankMovementRequest"), mock.Anything, s.userID).
		Run(func(args mock.Arguments) {
			bankReq = args.Get(3).(dto.CreateBankMovementRequest)
		}).Return(movement, nil).Once()
	s.mockTxnRepo.On("UpdateTransaction", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	s.mockDocRepo.On("FindDocumentForUpdate", ctx, mock.Anything, s.tenantID, doc.DocumentID).Return(doc, nil).Twice()
	s.mockTxnRepo.On("SaveTransactionDocuments", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	s.mockTxnRepo.On("SumAppliedToDocument", ctx, mock.Anything, s.tenantID, doc.DocumentID).Return(decimal.NewFromInt(75), nil).Once()
	s.mockDocRepo.On("UpdateDocumentAmounts", ctx, mock.Anything, s.tenantID, doc.DocumentID, decEq(decimal.NewFromInt(75)), decEq(decimal.Zero), s.userID, mock.Anything).Return(nil).Once()

	txn, err := s.service.Allocate(ctx, s.tenantID, req, s.userID)

	s.Require().NoError(err)
	s.Require().NotNil(txn.BankMovementID)
	s.Equal(bankAccountID, bankReq.BankAccountID)
	s.Require().Len(bankReq.Details, 1)
	s.Equal(payableAccount, bankReq.Details[0].AccountID)
	s.True(bankReq.Details[0].Amount.Equal(decimal.NewFromInt(75)))
}

func (s *TransactionServiceTestSuite) TestReverseRecomputesPaidAmounts() {
	ctx := context.Background()
	transactionID := uuid.NewString()
	movementID := uuid.NewString()
	doc := s.openDocument(decimal.NewFromInt(100), decimal.NewFromInt(100))
	txn := &domain.Transaction{
		TransactionID:  transactionID,
		TenantID:       s.tenantID,
		Type:           domain.Receipt,
		Method:         domain.MethodCash,
		Amount:         decimal.NewFromInt(100),
		CashMovementID: &movementID,
	}
	links := []domain.TransactionDocument{
		{TransactionID: transactionID, DocumentID: doc.DocumentID, Amount: decimal.NewFromInt(100)},
	}

	s.mockTxnRepo.On("FindTransactionByID", ctx, s.tenantID, transactionID).Return(txn, nil).Once()
	s.mockTxnRepo.On("ListTransactionDocuments", ctx, mock.Anything, transactionID).Return(links, nil).Once()
	s.mockTxnRepo.On("DeleteTransactionDocuments", ctx, mock.Anything, transactionID).Return(nil).Once()
	s.mockCashSvc.On("DeleteInTx", ctx, mock.Anything, s.tenantID, movementID).Return(nil).Once()
	s.mockTxnRepo.On("DeleteTransaction", ctx, mock.Anything, s.tenantID, transactionID).Return(nil).Once()
	s.mockDocRepo.On("FindDocumentForUpdate", ctx, mock.Anything, s.tenantID, doc.DocumentID).Return(doc, nil).Once()
	s.mockTxnRepo.On("SumAppliedToDocument", ctx, mock.Anything, s.tenantID, doc.DocumentID).Return(decimal.Zero, nil).Once()
	s.mockDocRepo.On("UpdateDocumentAmounts", ctx, mock.Anything, s.tenantID, doc.DocumentID, decEq(decimal.Zero), decEq(decimal.NewFromInt(100)), s.userID, mock.Anything).Return(nil).Once()

	err := s.service.Reverse(ctx, s.tenantID, transactionID, s.userID)

	s.Require().NoError(err)
	s.mockTxnRepo.AssertExpectations(s.T())
	s.mockDocRepo.AssertExpectations(s.T())
	s.mockCashSvc.AssertExpectations(s.T())
}

func (s *TransactionServiceTestSuite) TestUpdateRecomputesDroppedDocuments() {
	ctx := context.Background()
	transactionID := uuid.NewString()
	movementID := uuid.NewString()
	keptDoc := s.openDocument(decimal.NewFromInt(60), decimal.Zero)
	droppedDoc := s.openDocument(decimal.NewFromInt(40), decimal.NewFromInt(40))
	txn := &domain.Transaction{
		TransactionID:  transactionID,
		TenantID:       s.tenantID,
		Type:           domain.Receipt,
		Method:         domain.MethodCash,
		Amount:         decimal.NewFromInt(100),
		CashMovementID: &movementID,
	}
	oldLinks := []domain.TransactionDocument{
		{TransactionID: transactionID, DocumentID: keptDoc.DocumentID, Amount: decimal.NewFromInt(60)},
		{TransactionID: transactionID, DocumentID: droppedDoc.DocumentID, Amount: decimal.NewFromInt(40)},
	}
	req := dto.UpdateTransactionRequest{
		Amount:          decimal.NewFromInt(60),
		Concept:         "cobro corregido",
		TransactionDate: time.Now().UTC(),
		Allocations: []dto.AllocationRequest{
			{DocumentID: keptDoc.DocumentID, Amount: decimal.NewFromInt(60)},
		},
	}
	movement := &domain.CashMovement{MovementID: movementID}

	s.mockTxnRepo.On("FindTransactionByID", ctx, s.tenantID, transactionID).Return(txn, nil).Once()
	s.mockTxnRepo.On("ListTransactionDocuments", ctx, mock.Anything, transactionID).Return(oldLinks, nil).Once()
	s.mockTxnRepo.On("DeleteTransactionDocuments", ctx, mock.Anything, transactionID).Return(nil).Once()
	s.mockCashSvc.On("UpdateInTx", ctx, mock.Anything, s.tenantID, movementID, mock.AnythingOfType("dto.UpdateCashMovementRequest"), s.userID).Return(movement, nil).Once()
	s.mockTxnRepo.On("UpdateTransaction", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	s.mockDocRepo.On("FindDocumentForUpdate", ctx, mock.Anything, s.tenantID, keptDoc.DocumentID).Return(keptDoc, nil).Twice()
	s.mockTxnRepo.On("SaveTransactionDocuments", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	s.mockTxnRepo.On("SumAppliedToDocument", ctx, mock.Anything, s.tenantID, keptDoc.DocumentID).Return(decimal.NewFromInt(60), nil).Once()
	s.mockDocRepo.On("UpdateDocumentAmounts", ctx, mock.Anything, s.tenantID, keptDoc.DocumentID, decEq(decimal.NewFromInt(60)), decEq(decimal.Zero), s.userID, mock.Anything).Return(nil).Once()
	// The dropped document's aggregate shrinks back to zero.
	s.mockDocRepo.On("FindDocumentForUpdate", ctx, mock.Anything, s.tenantID, droppedDoc.DocumentID).Return(droppedDoc, nil).Once()
	s.mockTxnRepo.On("SumAppliedToDocument", ctx, mock.Anything, s.tenantID, droppedDoc.DocumentID).Return(decimal.Zero, nil).Once()
	s.mockDocRepo.On("UpdateDocumentAmounts", ctx, mock.Anything, s.tenantID, droppedDoc.DocumentID, decEq(decimal.Zero), decEq(decimal.NewFromInt(40)), s.userID, mock.Anything).Return(nil).Once()

	updated, err := s.service.Update(ctx, s.tenantID, transactionID, req, s.userID)

	s.Require().NoError(err)
	s.True(updated.Amount.Equal(decimal.NewFromInt(60)))
	s.mockDocRepo.AssertExpectations(s.T())
	s.mockTxnRepo.AssertExpectations(s.T())
}

func (s *TransactionServiceTestSuite) TestUpdateReallocatesFullyPaidDocument() {
	ctx := context.Background()
	transactionID := uuid.NewString()
	movementID := uuid.NewString()
	// The stored row already reflects this transaction's own payment: total
	// 60, paid 60, balance 0. Re-saving the identical allocation must not
	// read as overshoot.
	doc := s.openDocument(decimal.NewFromInt(60), decimal.NewFromInt(60))
	txn := &domain.Transaction{
		TransactionID:  transactionID,
		TenantID:       s.tenantID,
		Type:           domain.Receipt,
		Method:         domain.MethodCash,
		Amount:         decimal.NewFromInt(60),
		CashMovementID: &movementID,
	}
	oldLinks := []domain.TransactionDocument{
		{TransactionID: transactionID, DocumentID: doc.DocumentID, Amount: decimal.NewFromInt(60)},
	}
	req := dto.UpdateTransactionRequest{
		Amount:          decimal.NewFromInt(60),
		Concept:         "cobro factura",
		TransactionDate: time.Now().UTC(),
		Allocations: []dto.AllocationRequest{
			{DocumentID: doc.DocumentID, Amount: decimal.NewFromInt(60)},
		},
	}
	movement := &domain.CashMovement{MovementID: movementID}

	s.mockTxnRepo.On("FindTransactionByID", ctx, s.tenantID, transactionID).Return(txn, nil).Once()
	s.mockTxnRepo.On("ListTransactionDocuments", ctx, mock.Anything, transactionID).Return(oldLinks, nil).Once()
	s.mockTxnRepo.On("DeleteTransactionDocuments", ctx, mock.Anything, transactionID).Return(nil).Once()
	s.mockCashSvc.On("UpdateInTx", ctx, mock.Anything, s.tenantID, movementID, mock.AnythingOfType("dto.UpdateCashMovementRequest"), s.userID).Return(movement, nil).Once()
	s.mockTxnRepo.On("UpdateTransaction", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	s.mockDocRepo.On("FindDocumentForUpdate", ctx, mock.Anything, s.tenantID, doc.DocumentID).Return(doc, nil).Twice()
	s.mockTxnRepo.On("SaveTransactionDocuments", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	s.mockTxnRepo.On("SumAppliedToDocument", ctx, mock.Anything, s.tenantID, doc.DocumentID).Return(decimal.NewFromInt(60), nil).Once()
	s.mockDocRepo.On("UpdateDocumentAmounts", ctx, mock.Anything, s.tenantID, doc.DocumentID, decEq(decimal.NewFromInt(60)), decEq(decimal.Zero), s.userID, mock.Anything).Return(nil).Once()

	updated, err := s.service.Update(ctx, s.tenantID, transactionID, req, s.userID)

	s.Require().NoError(err)
	s.True(updated.Amount.Equal(decimal.NewFromInt(60)))
	s.mockTxnRepo.AssertExpectations(s.T())
	s.mockDocRepo.AssertExpectations(s.T())
}

func (s *TransactionServiceTestSuite) TestUpdateRejectsOvershootPastPriorLink() {
	ctx := context.Background()
	transactionID := uuid.NewString()
	movementID := uuid.NewString()
	doc := s.openDocument(decimal.NewFromInt(60), decimal.NewFromInt(60))
	txn := &domain.Transaction{
		TransactionID:  transactionID,
		TenantID:       s.tenantID,
		Type:           domain.Receipt,
		Method:         domain.MethodCash,
		Amount:         decimal.NewFromInt(60),
		CashMovementID: &movementID,
	}
	oldLinks := []domain.TransactionDocument{
		{TransactionID: transactionID, DocumentID: doc.DocumentID, Amount: decimal.NewFromInt(60)},
	}
	// 70 against a headroom of 60 (balance 0 plus this transaction's old
	// link of 60) still overshoots.
	req := dto.UpdateTransactionRequest{
		Amount:          decimal.NewFromInt(70),
		Concept:         "cobro factura",
		TransactionDate: time.Now().UTC(),
		Allocations: []dto.AllocationRequest{
			{DocumentID: doc.DocumentID, Amount: decimal.NewFromInt(70)},
		},
	}
	movement := &domain.CashMovement{MovementID: movementID}

	s.mockTxnRepo.On("FindTransactionByID", ctx, s.tenantID, transactionID).Return(txn, nil).Once()
	s.mockTxnRepo.On("ListTransactionDocuments", ctx, mock.Anything, transactionID).Return(oldLinks, nil).Once()
	s.mockTxnRepo.On("DeleteTransactionDocuments", ctx, mock.Anything, transactionID).Return(nil).Once()
	s.mockCashSvc.On("UpdateInTx", ctx, mock.Anything, s.tenantID, movementID, mock.Anything, s.userID).Return(movement, nil).Once()
	s.mockTxnRepo.On("UpdateTransaction", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	s.mockDocRepo.On("FindDocumentForUpdate", ctx, mock.Anything, s.tenantID, doc.DocumentID).Return(doc, nil).Once()

	_, err := s.service.Update(ctx, s.tenantID, transactionID, req, s.userID)

	s.ErrorIs(err, apperrors.ErrValidation)
	s.mockTxnRepo.AssertNotCalled(s.T(), "SaveTransactionDocuments", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransactionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TransactionServiceTestSuite))
}
