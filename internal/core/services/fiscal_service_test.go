package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/quipuware/quipu_backend/internal/apperrors"
	"github.com/quipuware/quipu_backend/internal/core/domain"
	"github.com/quipuware/quipu_backend/internal/core/ports/external"
	portssvc "github.com/quipuware/quipu_backend/internal/core/ports/services"
	"github.com/quipuware/quipu_backend/internal/core/services"
)

type FiscalServiceTestSuite struct {
	suite.Suite
	mockFiscalRepo  *MockFiscalRepository
	mockDocRepo     *MockDocumentRepository
	mockAccountRepo *MockAccountRepository
	mockSigner      *MockSigner
	mockAuthority   *MockAuthorityClient
	mockBlobStore   *MockBlobStore
	mockXMLBuilder  *MockXMLBuilder
	tenantID        string
	documentID      string
}

func (s *FiscalServiceTestSuite) SetupTest() {
	s.mockFiscalRepo = new(MockFiscalRepository)
	s.mockDocRepo = new(MockDocumentRepository)
	s.mockAccountRepo = new(MockAccountRepository)
	s.mockSigner = new(MockSigner)
	s.mockAuthority = new(MockAuthorityClient)
	s.mockBlobStore = new(MockBlobStore)
	s.mockXMLBuilder = new(MockXMLBuilder)
	s.tenantID = uuid.NewString()
	s.documentID = uuid.NewString()
}

func (s *FiscalServiceTestSuite) newService(locker *fakeLocker) portssvc.FiscalSvcFacade {
	return services.NewFiscalService(s.mockFiscalRepo, s.mockDocRepo, s.mockAccountRepo,
		s.mockSigner, s.mockAuthority, s.mockBlobStore, s.mockXMLBuilder, locker)
}

func (s *FiscalServiceTestSuite) draftFiscal() *domain.DocumentFiscalInfo {
	return &domain.DocumentFiscalInfo{
		FiscalID:      uuid.NewString(),
		DocumentID:    s.documentID,
		TenantID:      s.tenantID,
		Establishment: "001",
		EmissionPoint: "001",
		Sequence:      42,
		SRIStatus:     domain.SRIDraft,
	}
}

func (s *FiscalServiceTestSuite) settings() *domain.TenantSettings {
	certPath := "certs/tenant.p12"
	certPassword := "secret"
	return &domain.TenantSettings{
		TenantID:            s.tenantID,
		RUC:                 "1790012345001",
		CertificatePath:     &certPath,
		CertificatePassword: &certPassword,
		SRIEnvironment:      "1",
	}
}

func (s *FiscalServiceTestSuite) invoice() *domain.Document {
	return &domain.Document{
		DocumentID: s.documentID,
		TenantID:   s.tenantID,
		Kind:       domain.KindInvoice,
		IssueDate:  time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Status:     domain.DocumentDraft,
	}
}

func (s *FiscalServiceTestSuite) TestAdvanceAuthorizedIsNoOp() {
	ctx := context.Background()
	service := s.newService(&fakeLocker{})
	authNumber := "1503202601179001234500110010010000000421234567819"
	fiscal := s.draftFiscal()
	fiscal.SRIStatus = domain.SRIAuthorized
	fiscal.AuthorizationNumber = &authNumber

	s.mockFiscalRepo.On("FindFiscalByDocumentID", ctx, s.tenantID, s.documentID).Return(fiscal, nil).Once()

	result, err := service.Advance(ctx, s.tenantID, s.documentID)

	s.Require().NoError(err)
	s.Equal(domain.SRIAuthorized, result.SRIStatus)
	s.Equal(&authNumber, result.AuthorizationNumber)
	s.mockDocRepo.AssertNotCalled(s.T(), "FindDocumentByID", mock.Anything, mock.Anything, mock.Anything)
	s.mockFiscalRepo.AssertNotCalled(s.T(), "UpdateFiscalInfo", mock.Anything, mock.Anything)
}

func (s *FiscalServiceTestSuite) TestAdvanceRejectedNeedsRegenerate() {
	ctx := context.Background()
	service := s.newService(&fakeLocker{})
	fiscal := s.draftFiscal()
	fiscal.SRIStatus = domain.SRIRejected

	s.mockFiscalRepo.On("FindFiscalByDocumentID", ctx, s.tenantID, s.documentID).Return(fiscal, nil).Once()

	_, err := service.Advance(ctx, s.tenantID, s.documentID)

	s.ErrorIs(err, apperrors.ErrFiscalRejected)
}

func (s *FiscalServiceTestSuite) TestAdvanceRefusesWhenDocumentLocked() {
	service := s.newService(&fakeLocker{busy: true})

	_, err := service.Advance(context.Background(), s.tenantID, s.documentID)

	s.ErrorIs(err, apperrors.ErrFiscalBusy)
	s.mockFiscalRepo.AssertNotCalled(s.T(), "FindFiscalByDocumentID", mock.Anything, mock.Anything, mock.Anything)
}

func (s *FiscalServiceTestSuite) TestAdvanceFullCycleToAuthorized() {
	ctx := context.Background()
	service := s.newService(&fakeLocker{})
	fiscal := s.draftFiscal()
	authNumber := "9999"
	authDate := time.Now().UTC()

	s.mockFiscalRepo.On("FindFiscalByDocumentID", ctx, s.tenantID, s.documentID).Return(fiscal, nil).Once()
	s.mockDocRepo.On("FindDocumentByID", ctx, s.tenantID, s.documentID).Return(s.invoice(), nil).Once()
	s.mockAccountRepo.On("FindSettings", ctx, s.tenantID).Return(s.settings(), nil).Once()

	s.mockXMLBuilder.On("BuildXML", ctx, mock.Anything, fiscal, mock.Anything).Return("<factura/>", nil).Once()
	s.mockBlobStore.On("Download", ctx, "certs/tenant.p12").Return([]byte("cert"), nil).Once()
	s.mockSigner.On("Sign", ctx, []byte("cert"), "secret", "<factura/>").Return("<factura firmada/>", nil).Once()
	s.mockBlobStore.On("Upload", ctx, mock.AnythingOfType("string"), []byte("<factura firmada/>")).Return("stored/signed.xml", nil).Once()
	s.mockBlobStore.On("Download", ctx, "stored/signed.xml").Return([]byte("<factura firmada/>"), nil).Once()
	s.mockAuthority.On("Transmit", ctx, "<factura firmada/>", "1").
		Return(&external.TransmitResult{Accepted: true, Status: "RECIBIDA", Raw: "<respuesta/>"}, nil).Once()
	s.mockAuthority.On("QueryAuthorization", ctx, mock.AnythingOfType("string"), "1").
		Return(&external.AuthorizationResult{
			Status:              external.AuthorizationAuthorized,
			AuthorizationNumber: &authNumber,
			AuthorizationDate:   &authDate,
			Raw:                 "<autorizacion/>",
		}, nil).Once()
	s.mockFiscalRepo.On("UpdateFiscalInfo", ctx, mock.AnythingOfType("domain.DocumentFiscalInfo")).Return(nil).Times(3)
	s.mockDocRepo.On("UpdateDocumentStatus", ctx, s.tenantID, s.documentID, domain.DocumentConfirmed, mock.Anything, mock.AnythingOfType("time.Time")).Return(nil).Once()

	result, err := service.Advance(ctx, s.tenantID, s.documentID)

	s.Require().NoError(err)
	s.Equal(domain.SRIAuthorized, result.SRIStatus)
	s.Require().NotNil(result.AccessKey)
	s.Len(*result.AccessKey, 49)
	s.Equal(&authNumber, result.AuthorizationNumber)
	s.mockFiscalRepo.AssertExpectations(s.T())
	s.mockAuthority.AssertExpectations(s.T())
	s.mockDocRepo.AssertExpectations(s.T())
}

func (s *FiscalServiceTestSuite) TestAdvanceRequiresCertificate() {
	ctx := context.Background()
	service := s.newService(&fakeLocker{})
	settings := s.settings()
	settings.CertificatePath = nil

	s.mockFiscalRepo.On("FindFiscalByDocumentID", ctx, s.tenantID, s.documentID).Return(s.draftFiscal(), nil).Once()
	s.mockDocRepo.On("FindDocumentByID", ctx, s.tenantID, s.documentID).Return(s.invoice(), nil).Once()
	s.mockAccountRepo.On("FindSettings", ctx, s.tenantID).Return(settings, nil).Once()

	_, err := service.Advance(ctx, s.tenantID, s.documentID)

	s.ErrorIs(err, apperrors.ErrCertificateNotConfigured)
	s.mockSigner.AssertNotCalled(s.T(), "Sign", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *FiscalServiceTestSuite) TestAdvanceRequiresThirteenDigitRUC() {
	ctx := context.Background()
	service := s.newService(&fakeLocker{})
	settings := s.settings()
	settings.RUC = "12345"

	s.mockFiscalRepo.On("FindFiscalByDocumentID", ctx, s.tenantID, s.documentID).Return(s.draftFiscal(), nil).Once()
	s.mockDocRepo.On("FindDocumentByID", ctx, s.tenantID, s.documentID).Return(s.invoice(), nil).Once()
	s.mockAccountRepo.On("FindSettings", ctx, s.tenantID).Return(settings, nil).Once()

	_, err := service.Advance(ctx, s.tenantID, s.documentID)

	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *FiscalServiceTestSuite) signedFiscal() *domain.DocumentFiscalInfo {
	fiscal := s.draftFiscal()
	accessKey := "1503202601179001234500110010010000000421234567819"
	signedPath := "stored/signed.xml"
	fiscal.AccessKey = &accessKey
	fiscal.SignedXMLPath = &signedPath
	return fiscal
}

func (s *FiscalServiceTestSuite) TestAdvanceSkipsSignWhenAlreadySigned() {
	ctx := context.Background()
	service := s.newService(&fakeLocker{})
	fiscal := s.signedFiscal()

	s.mockFiscalRepo.On("FindFiscalByDocumentID", ctx, s.tenantID, s.documentID).Return(fiscal, nil).Once()
	s.mockDocRepo.On("FindDocumentByID", ctx, s.tenantID, s.documentID).Return(s.invoice(), nil).Once()
	s.mockAccountRepo.On("FindSettings", ctx, s.tenantID).Return(s.settings(), nil).Once()
	s.mockBlobStore.On("Download", ctx, "stored/signed.xml").Return([]byte("<factura firmada/>"), nil).Once()
	s.mockAuthority.On("Transmit", ctx, "<factura firmada/>", "1").
		Return(&external.TransmitResult{Returned: true, Status: "DEVUELTA", Raw: "<respuesta/>"}, nil).Once()
	s.mockFiscalRepo.On("UpdateFiscalInfo", ctx, mock.AnythingOfType("domain.DocumentFiscalInfo")).Return(nil).Once()

	result, err := service.Advance(ctx, s.tenantID, s.documentID)

	s.Require().NoError(err)
	s.Equal(domain.SRIRejected, result.SRIStatus)
	s.mockSigner.AssertNotCalled(s.T(), "Sign", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	s.mockXMLBuilder.AssertNotCalled(s.T(), "BuildXML", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *FiscalServiceTestSuite) TestAdvanceTransportFailureLeavesSent() {
	ctx := context.Background()
	service := s.newService(&fakeLocker{})
	fiscal := s.signedFiscal()

	s.mockFiscalRepo.On("FindFiscalByDocumentID", ctx, s.tenantID, s.documentID).Return(fiscal, nil).Once()
	s.mockDocRepo.On("FindDocumentByID", ctx, s.tenantID, s.documentID).Return(s.invoice(), nil).Once()
	s.mockAccountRepo.On("FindSettings", ctx, s.tenantID).Return(s.settings(), nil).Once()
	s.mockBlobStore.On("Download", ctx, "stored/signed.xml").Return([]byte("<factura firmada/>"), nil).Once()
	s.mockAuthority.On("Transmit", ctx, "<factura firmada/>", "1").Return(nil, errors.New("connection refused")).Once()

	var checkpointed domain.DocumentFiscalInfo
	s.mockFiscalRepo.On("UpdateFiscalInfo", ctx, mock.AnythingOfType("domain.DocumentFiscalInfo")).
		Run(func(args mock.Arguments) {
			checkpointed = args.Get(1).(domain.DocumentFiscalInfo)
		}).Return(nil).Once()

	_, err := service.Advance(ctx, s.tenantID, s.documentID)

	s.ErrorIs(err, apperrors.ErrTransmission)
	s.Equal(domain.SRISent, checkpointed.SRIStatus)
}

func (s *FiscalServiceTestSuite) TestAdvanceQueryFailureLeavesInProcess() {
	ctx := context.Background()
	service := s.newService(&fakeLocker{})
	fiscal := s.signedFiscal()
	fiscal.SRIStatus = domain.SRIReceived

	s.mockFiscalRepo.On("FindFiscalByDocumentID", ctx, s.tenantID, s.documentID).Return(fiscal, nil).Once()
	s.mockDocRepo.On("FindDocumentByID", ctx, s.tenantID, s.documentID).Return(s.invoice(), nil).Once()
	s.mockAccountRepo.On("FindSettings", ctx, s.tenantID).Return(s.settings(), nil).Once()
	s.mockAuthority.On("QueryAuthorization", ctx, *fiscal.AccessKey, "1").Return(nil, errors.New("timeout")).Once()

	var checkpointed domain.DocumentFiscalInfo
	s.mockFiscalRepo.On("UpdateFiscalInfo", ctx, mock.AnythingOfType("domain.DocumentFiscalInfo")).
		Run(func(args mock.Arguments) {
			checkpointed = args.Get(1).(domain.DocumentFiscalInfo)
		}).Return(nil).Once()

	_, err := service.Advance(ctx, s.tenantID, s.documentID)

	s.ErrorIs(err, apperrors.ErrAuthorizationPending)
	s.Equal(domain.SRIInProcess, checkpointed.SRIStatus)
}

func (s *FiscalServiceTestSuite) TestPollAuthorizationRequiresAccessKey() {
	ctx := context.Background()
	service := s.newService(&fakeLocker{})

	s.mockFiscalRepo.On("FindFiscalByDocumentID", ctx, s.tenantID, s.documentID).Return(s.draftFiscal(), nil).Once()

	_, err := service.PollAuthorization(ctx, s.tenantID, s.documentID)

	s.ErrorIs(err, apperrors.ErrValidation)
	s.mockAuthority.AssertNotCalled(s.T(), "QueryAuthorization", mock.Anything, mock.Anything, mock.Anything)
}

func (s *FiscalServiceTestSuite) TestPollAuthorizationConfirmsDocument() {
	ctx := context.Background()
	service := s.newService(&fakeLocker{})
	fiscal := s.signedFiscal()
	fiscal.SRIStatus = domain.SRIInProcess
	authNumber := "8888"
	authDate := time.Now().UTC()

	s.mockFiscalRepo.On("FindFiscalByDocumentID", ctx, s.tenantID, s.documentID).Return(fiscal, nil).Once()
	s.mockAccountRepo.On("FindSettings", ctx, s.tenantID).Return(s.settings(), nil).Once()
	s.mockAuthority.On("QueryAuthorization", ctx, *fiscal.AccessKey, "1").
		Return(&external.AuthorizationResult{
			Status:              external.AuthorizationAuthorized,
			AuthorizationNumber: &authNumber,
			AuthorizationDate:   &authDate,
			Raw:                 "<autorizacion/>",
		}, nil).Once()
	s.mockFiscalRepo.On("UpdateFiscalInfo", ctx, mock.AnythingOfType("domain.DocumentFiscalInfo")).Return(nil).Once()
	s.mockDocRepo.On("UpdateDocumentStatus", ctx, s.tenantID, s.documentID, domain.DocumentConfirmed, mock.Anything, mock.AnythingOfType("time.Time")).Return(nil).Once()

	result, err := service.PollAuthorization(ctx, s.tenantID, s.documentID)

	s.Require().NoError(err)
	s.Equal(domain.SRIAuthorized, result.SRIStatus)
	s.mockDocRepo.AssertExpectations(s.T())
}

func (s *FiscalServiceTestSuite) TestPollAuthorizationRejectsUntransmittedDocument() {
	ctx := context.Background()
	service := s.newService(&fakeLocker{})
	// Signed and durable, but the authority never accepted it: polling would
	// checkpoint IN_PROCESS and strand the document past transmission.
	fiscal := s.signedFiscal()
	fiscal.SRIStatus = domain.SRISent

	s.mockFiscalRepo.On("FindFiscalByDocumentID", ctx, s.tenantID, s.documentID).Return(fiscal, nil).Once()

	_, err := service.PollAuthorization(ctx, s.tenantID, s.documentID)

	s.ErrorIs(err, apperrors.ErrValidation)
	s.mockAuthority.AssertNotCalled(s.T(), "QueryAuthorization", mock.Anything, mock.Anything, mock.Anything)
	s.mockFiscalRepo.AssertNotCalled(s.T(), "UpdateFiscalInfo", mock.Anything, mock.Anything)
}

func (s *FiscalServiceTestSuite) TestRegenerateRequiresRejected() {
	ctx := context.Background()
	service := s.newService(&fakeLocker{})
	fiscal := s.signedFiscal()
	fiscal.SRIStatus = domain.SRIInProcess

	s.mockFiscalRepo.On("FindFiscalByDocumentID", ctx, s.tenantID, s.documentID).Return(fiscal, nil).Once()

	err := service.Regenerate(ctx, s.tenantID, s.documentID, uuid.NewString())

	s.ErrorIs(err, apperrors.ErrConflict)
	s.mockFiscalRepo.AssertNotCalled(s.T(), "UpdateFiscalInfo", mock.Anything, mock.Anything)
}

func (s *FiscalServiceTestSuite) TestRegenerateResetsToDraft() {
	ctx := context.Background()
	service := s.newService(&fakeLocker{})
	userID := uuid.NewString()
	fiscal := s.signedFiscal()
	fiscal.SRIStatus = domain.SRIRejected

	var updated domain.DocumentFiscalInfo
	s.mockFiscalRepo.On("FindFiscalByDocumentID", ctx, s.tenantID, s.documentID).Return(fiscal, nil).Once()
	s.mockFiscalRepo.On("UpdateFiscalInfo", ctx, mock.AnythingOfType("domain.DocumentFiscalInfo")).
		Run(func(args mock.Arguments) {
			updated = args.Get(1).(domain.DocumentFiscalInfo)
		}).Return(nil).Once()

	err := service.Regenerate(ctx, s.tenantID, s.documentID, userID)

	s.Require().NoError(err)
	s.Equal(domain.SRIDraft, updated.SRIStatus)
	s.Nil(updated.AccessKey)
	s.Nil(updated.SignedXMLPath)
	s.Nil(updated.AuthorizationNumber)
	s.Equal(userID, updated.LastUpdatedBy)
	s.Equal(int64(42), updated.Sequence)
}

func TestFiscalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FiscalServiceTestSuite))
}
