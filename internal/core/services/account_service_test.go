package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/quipuware/quipu_backend/internal/apperrors"
	"github.com/quipuware/quipu_backend/internal/core/domain"
	portssvc "github.com/quipuware/quipu_backend/internal/core/ports/services"
	"github.com/quipuware/quipu_backend/internal/core/services"
	"github.com/quipuware/quipu_backend/internal/dto"
)

type AccountServiceTestSuite struct {
	suite.Suite
	mockAccountRepo *MockAccountRepository
	service         portssvc.AccountSvcFacade
	tenantID        string
	userID          string
}

func (s *AccountServiceTestSuite) SetupTest() {
	s.mockAccountRepo = new(MockAccountRepository)
	s.service = services.NewAccountService(&fakeTxManager{}, s.mockAccountRepo)
	s.tenantID = uuid.NewString()
	s.userID = uuid.NewString()
}

func strPtr(v string) *string { return &v }

func (s *AccountServiceTestSuite) TestCreateAccount() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{Code: "1.1.01", Name: "Caja general", IsMovable: true}

	s.mockAccountRepo.On("SaveAccount", ctx, mock.Anything, mock.AnythingOfType("domain.ChartAccount")).Return(nil).Once()

	account, err := s.service.CreateAccount(ctx, s.tenantID, req, s.userID)

	s.Require().NoError(err)
	s.Equal("1.1.01", account.Code)
	s.True(account.IsMovable)
	s.NotEmpty(account.AccountID)
	s.mockAccountRepo.AssertExpectations(s.T())
}

func (s *AccountServiceTestSuite) TestCreateAccountRejectsUnknownParent() {
	ctx := context.Background()
	parentID := uuid.NewString()
	req := dto.CreateAccountRequest{Code: "1.1.01", Name: "Caja general", ParentID: &parentID}

	s.mockAccountRepo.On("FindAccountByID", ctx, s.tenantID, parentID).Return(nil, apperrors.ErrNotFound).Once()

	_, err := s.service.CreateAccount(ctx, s.tenantID, req, s.userID)

	s.ErrorIs(err, apperrors.ErrNotFound)
	s.mockAccountRepo.AssertNotCalled(s.T(), "SaveAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (s *AccountServiceTestSuite) TestCloneTemplateLinksParentsSecondPass() {
	ctx := context.Background()
	// Child listed before its parent: the clone must still resolve the link.
	template := []domain.TemplateAccount{
		{Code: "1.1", Name: "Activo corriente", ParentCode: strPtr("1")},
		{Code: "1", Name: "Activo"},
		{Code: "1.1.01", Name: "Caja", ParentCode: strPtr("1.1"), IsMovable: true},
	}

	s.mockAccountRepo.On("SaveAccount", ctx, mock.Anything, mock.AnythingOfType("domain.ChartAccount")).Return(nil).Times(3)
	s.mockAccountRepo.On("SetAccountParent", ctx, mock.Anything, s.tenantID, mock.AnythingOfType("string"), mock.AnythingOfType("string")).Return(nil).Times(2)

	accounts, err := s.service.CloneTemplate(ctx, s.tenantID, template, s.userID)

	s.Require().NoError(err)
	s.Require().Len(accounts, 3)

	byCode := make(map[string]domain.ChartAccount, len(accounts))
	for _, a := range accounts {
		byCode[a.Code] = a
	}
	s.Nil(byCode["1"].ParentID)
	s.Require().NotNil(byCode["1.1"].ParentID)
	s.Equal(byCode["1"].AccountID, *byCode["1.1"].ParentID)
	s.Require().NotNil(byCode["1.1.01"].ParentID)
	s.Equal(byCode["1.1"].AccountID, *byCode["1.1.01"].ParentID)
	s.Require().NotNil(byCode["1.1.01"].TemplateCode)
	s.Equal("1.1.01", *byCode["1.1.01"].TemplateCode)
	s.mockAccountRepo.AssertExpectations(s.T())
}

func (s *AccountServiceTestSuite) TestCloneTemplateRejectsEmptyTemplate() {
	_, err := s.service.CloneTemplate(context.Background(), s.tenantID, nil, s.userID)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *AccountServiceTestSuite) TestCloneTemplateRejectsDuplicateCode() {
	template := []domain.TemplateAccount{
		{Code: "1", Name: "Activo"},
		{Code: "1", Name: "Activo otra vez"},
	}

	_, err := s.service.CloneTemplate(context.Background(), s.tenantID, template, s.userID)

	s.ErrorIs(err, apperrors.ErrValidation)
	s.mockAccountRepo.AssertNotCalled(s.T(), "SaveAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (s *AccountServiceTestSuite) TestCloneTemplateRejectsUnknownParentCode() {
	template := []domain.TemplateAccount{
		{Code: "1.1", Name: "Activo corriente", ParentCode: strPtr("9")},
	}

	_, err := s.service.CloneTemplate(context.Background(), s.tenantID, template, s.userID)

	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *AccountServiceTestSuite) TestCloneTemplateRejectsSelfParent() {
	template := []domain.TemplateAccount{
		{Code: "1", Name: "Activo", ParentCode: strPtr("1")},
	}

	_, err := s.service.CloneTemplate(context.Background(), s.tenantID, template, s.userID)

	s.ErrorIs(err, apperrors.ErrValidation)
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
