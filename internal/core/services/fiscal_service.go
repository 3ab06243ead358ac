package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/quipuware/quipu_backend/internal/apperrors"
	"github.com/quipuware/quipu_backend/internal/core/domain"
	"github.com/quipuware/quipu_backend/internal/core/ports/external"
	portsrepo "github.com/quipuware/quipu_backend/internal/core/ports/repositories"
	portssvc "github.com/quipuware/quipu_backend/internal/core/ports/services"
	"github.com/quipuware/quipu_backend/internal/dto"
	"github.com/quipuware/quipu_backend/internal/middleware"
)

// fiscalService drives revenue documents through the authority lifecycle:
// sign, transmit, query authorization. Every step persists its outcome
// before the next one runs, so a crash mid-flow leaves the document
// resumable and Advance never repeats completed work. A per-document lock
// keeps manual sends and the retry sweeper from interleaving.
type fiscalService struct {
	fiscalRepo  portsrepo.FiscalRepositoryFacade
	docRepo     portsrepo.DocumentRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
	signer      external.Signer
	authority   external.AuthorityClient
	blobStore   external.BlobStore
	xmlBuilder  external.XMLBuilder
	locker      external.DocumentLocker
}

// NewFiscalService creates the fiscal lifecycle service.
func NewFiscalService(fiscalRepo portsrepo.FiscalRepositoryFacade, docRepo portsrepo.DocumentRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade, signer external.Signer, authority external.AuthorityClient, blobStore external.BlobStore, xmlBuilder external.XMLBuilder, locker external.DocumentLocker) portssvc.FiscalSvcFacade {
	return &fiscalService{
		fiscalRepo:  fiscalRepo,
		docRepo:     docRepo,
		accountRepo: accountRepo,
		signer:      signer,
		authority:   authority,
		blobStore:   blobStore,
		xmlBuilder:  xmlBuilder,
		locker:      locker,
	}
}

var _ portssvc.FiscalSvcFacade = (*fiscalService)(nil)

func fiscalLockKey(tenantID, documentID string) string {
	return fmt.Sprintf("fiscal:%s:%s", tenantID, documentID)
}

func toAdvanceResult(fiscal *domain.DocumentFiscalInfo) *dto.FiscalAdvanceResult {
	return &dto.FiscalAdvanceResult{
		SRIStatus:           fiscal.SRIStatus,
		AccessKey:           fiscal.AccessKey,
		AuthorizationNumber: fiscal.AuthorizationNumber,
		AuthorizationDate:   fiscal.AuthorizationDate,
	}
}

// checkpoint persists the fiscal row on the pool. Lifecycle state must
// survive independently of any caller transaction: once the authority has
// seen a document, forgetting that fact would cause duplicate submissions.
func (s *fiscalService) checkpoint(ctx context.Context, fiscal *domain.DocumentFiscalInfo) error {
	fiscal.LastUpdatedAt = time.Now().UTC()
	if err := s.fiscalRepo.UpdateFiscalInfo(ctx, *fiscal); err != nil {
		return fmt.Errorf("failed to persist fiscal state %s: %w", fiscal.SRIStatus, err)
	}
	return nil
}

var documentTypeCodes = map[domain.DocumentKind]string{
	domain.KindInvoice:    "01",
	domain.KindCreditNote: "04",
}

// generateAccessKey builds the 49-digit access key: issue date, document
// type, RUC, environment, series, sequence, a random numeric code, emission
// type 1, and a mod-11 check digit.
func generateAccessKey(doc *domain.Document, fiscal *domain.DocumentFiscalInfo, settings *domain.TenantSettings) (string, error) {
	typeCode, ok := documentTypeCodes[doc.Kind]
	if !ok {
		return "", fmt.Errorf("%w: document kind %s has no fiscal type code", apperrors.ErrValidation, doc.Kind)
	}
	if len(settings.RUC) != 13 {
		return "", fmt.Errorf("%w: tenant RUC must be 13 digits", apperrors.ErrValidation)
	}
	key48 := fmt.Sprintf("%s%s%s%s%s%s%09d%08d1",
		doc.IssueDate.Format("02012006"),
		typeCode,
		settings.RUC,
		settings.SRIEnvironment,
		fiscal.Establishment,
		fiscal.EmissionPoint,
		fiscal.Sequence,
		rand.Intn(100000000),
	)
	return key48 + mod11CheckDigit(key48), nil
}

// mod11CheckDigit computes the check digit over the 48-digit body with
// weights 2..7 cycling from the rightmost digit.
func mod11CheckDigit(digits string) string {
	weight := 2
	sum := 0
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		weight++
		if weight > 7 {
			weight = 2
		}
	}
	check := 11 - sum%11
	switch check {
	case 11:
		check = 0
	case 10:
		check = 1
	}
	return fmt.Sprintf("%d", check)
}

// sign runs the sign step: build the XML, sign it with the tenant
// certificate, store the signed file and checkpoint the access key. Skipped
// entirely when a previous run already produced durable output.
func (s *fiscalService) sign(ctx context.Context, doc *domain.Document, fiscal *domain.DocumentFiscalInfo, settings *domain.TenantSettings) error {
	if fiscal.Signed() {
		return nil
	}
	if settings.CertificatePath == nil || settings.CertificatePassword == nil {
		return fmt.Errorf("%w: tenant %s", apperrors.ErrCertificateNotConfigured, fiscal.TenantID)
	}

	accessKey, err := generateAccessKey(doc, fiscal, settings)
	if err != nil {
		return err
	}
	fiscal.AccessKey = &accessKey

	unsignedXML, err := s.xmlBuilder.BuildXML(ctx, doc, fiscal, settings)
	if err != nil {
		fiscal.AccessKey = nil
		return fmt.Errorf("failed to build document XML: %w", err)
	}

	certificate, err := s.blobStore.Download(ctx, *settings.CertificatePath)
	if err != nil {
		fiscal.AccessKey = nil
		return fmt.Errorf("failed to load tenant certificate: %w", err)
	}

	signedXML, err := s.signer.Sign(ctx, certificate, *settings.CertificatePassword, unsignedXML)
	if err != nil {
		fiscal.AccessKey = nil
		return err
	}

	path := fmt.Sprintf("%s/signed/%s.xml", fiscal.TenantID, accessKey)
	storedPath, err := s.blobStore.Upload(ctx, path, []byte(signedXML))
	if err != nil {
		fiscal.AccessKey = nil
		return fmt.Errorf("failed to store signed XML: %w", err)
	}
	fiscal.SignedXMLPath = &storedPath

	return s.checkpoint(ctx, fiscal)
}

// transmit runs the reception step. A transport failure or an ambiguous
// answer leaves the document at SENT so the next Advance retries; only an
// explicit DEVUELTA moves it to REJECTED.
func (s *fiscalService) transmit(ctx context.Context, fiscal *domain.DocumentFiscalInfo, settings *domain.TenantSettings) error {
	signedXML, err := s.blobStore.Download(ctx, *fiscal.SignedXMLPath)
	if err != nil {
		return fmt.Errorf("failed to load signed XML: %w", err)
	}

	result, err := s.authority.Transmit(ctx, string(signedXML), settings.SRIEnvironment)
	if err != nil {
		fiscal.SRIStatus = domain.SRISent
		if cpErr := s.checkpoint(ctx, fiscal); cpErr != nil {
			return cpErr
		}
		return fmt.Errorf("%w: %v", apperrors.ErrTransmission, err)
	}

	fiscal.LastResponse = &result.Raw
	switch {
	case result.Accepted:
		fiscal.SRIStatus = domain.SRIReceived
	case result.Returned:
		fiscal.SRIStatus = domain.SRIRejected
	default:
		fiscal.SRIStatus = domain.SRISent
	}
	if err := s.checkpoint(ctx, fiscal); err != nil {
		return err
	}
	if fiscal.SRIStatus == domain.SRISent {
		return fmt.Errorf("%w: ambiguous reception status %q", apperrors.ErrTransmission, result.Status)
	}
	return nil
}

// queryAuthorization runs the authorization step and, on success, confirms
// the underlying document.
func (s *fiscalService) queryAuthorization(ctx context.Context, fiscal *domain.DocumentFiscalInfo, settings *domain.TenantSettings) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	result, err := s.authority.QueryAuthorization(ctx, *fiscal.AccessKey, settings.SRIEnvironment)
	if err != nil {
		fiscal.SRIStatus = domain.SRIInProcess
		if cpErr := s.checkpoint(ctx, fiscal); cpErr != nil {
			return cpErr
		}
		return fmt.Errorf("%w: %v", apperrors.ErrAuthorizationPending, err)
	}

	fiscal.LastResponse = &result.Raw
	switch result.Status {
	case external.AuthorizationAuthorized:
		fiscal.SRIStatus = domain.SRIAuthorized
		fiscal.AuthorizationNumber = result.AuthorizationNumber
		fiscal.AuthorizationDate = result.AuthorizationDate
	case external.AuthorizationRejected:
		fiscal.SRIStatus = domain.SRIRejected
	default:
		fiscal.SRIStatus = domain.SRIInProcess
	}
	if err := s.checkpoint(ctx, fiscal); err != nil {
		return err
	}

	if fiscal.SRIStatus == domain.SRIAuthorized {
		if err := s.docRepo.UpdateDocumentStatus(ctx, fiscal.TenantID, fiscal.DocumentID, domain.DocumentConfirmed, fiscal.LastUpdatedBy, time.Now().UTC()); err != nil {
			logger.Error("Failed to confirm authorized document",
				slog.String("error", err.Error()), slog.String("document_id", fiscal.DocumentID))
			return fmt.Errorf("failed to confirm document: %w", err)
		}
	}
	return nil
}

// Advance runs every step still pending for the document, stopping at the
// first one whose outcome is not final. Idempotent: completed steps are
// recognized from the persisted state and skipped.
func (s *fiscalService) Advance(ctx context.Context, tenantID, documentID string) (*dto.FiscalAdvanceResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	release, err := s.locker.Acquire(ctx, fiscalLockKey(tenantID, documentID))
	if err != nil {
		return nil, err
	}
	defer release()

	fiscal, err := s.fiscalRepo.FindFiscalByDocumentID(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	switch fiscal.SRIStatus {
	case domain.SRIAuthorized:
		return toAdvanceResult(fiscal), nil
	case domain.SRIRejected:
		return nil, fmt.Errorf("%w: document %s needs regeneration", apperrors.ErrFiscalRejected, documentID)
	}

	doc, err := s.docRepo.FindDocumentByID(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	settings, err := s.accountRepo.FindSettings(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant settings: %w", err)
	}

	if err := s.sign(ctx, doc, fiscal, settings); err != nil {
		return nil, err
	}
	if fiscal.SRIStatus == domain.SRIDraft || fiscal.SRIStatus == domain.SRISent {
		if err := s.transmit(ctx, fiscal, settings); err != nil {
			return nil, err
		}
		if fiscal.SRIStatus == domain.SRIRejected {
			logger.Warn("Document returned by reception", slog.String("document_id", documentID))
			return toAdvanceResult(fiscal), nil
		}
	}
	if fiscal.SRIStatus == domain.SRIReceived || fiscal.SRIStatus == domain.SRIInProcess {
		if err := s.queryAuthorization(ctx, fiscal, settings); err != nil {
			return nil, err
		}
	}

	logger.Info("Fiscal lifecycle advanced",
		slog.String("document_id", documentID),
		slog.String("sri_status", string(fiscal.SRIStatus)))
	return toAdvanceResult(fiscal), nil
}

// PollAuthorization runs only the authorization query. The retry sweeper
// calls this for documents stuck IN_PROCESS.
func (s *fiscalService) PollAuthorization(ctx context.Context, tenantID, documentID string) (*dto.FiscalAdvanceResult, error) {
	release, err := s.locker.Acquire(ctx, fiscalLockKey(tenantID, documentID))
	if err != nil {
		return nil, err
	}
	defer release()

	fiscal, err := s.fiscalRepo.FindFiscalByDocumentID(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	switch {
	case fiscal.SRIStatus == domain.SRIAuthorized:
		return toAdvanceResult(fiscal), nil
	case fiscal.SRIStatus == domain.SRIRejected:
		return nil, fmt.Errorf("%w: document %s needs regeneration", apperrors.ErrFiscalRejected, documentID)
	case fiscal.AccessKey == nil || *fiscal.AccessKey == "":
		return nil, fmt.Errorf("%w: document %s was never transmitted", apperrors.ErrValidation, documentID)
	case fiscal.SRIStatus != domain.SRIReceived && fiscal.SRIStatus != domain.SRIInProcess:
		// A document the authority never accepted (DRAFT, SENT) must go
		// back through transmission, not straight to the query step.
		return nil, fmt.Errorf("%w: document %s is %s, not awaiting authorization", apperrors.ErrValidation, documentID, fiscal.SRIStatus)
	}

	settings, err := s.accountRepo.FindSettings(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant settings: %w", err)
	}
	if err := s.queryAuthorization(ctx, fiscal, settings); err != nil {
		return nil, err
	}
	return toAdvanceResult(fiscal), nil
}

// Regenerate resets a REJECTED document for a fresh fiscal cycle: the access
// key, signed XML pointer and authorization fields are cleared and the
// status returns to DRAFT. The fiscal sequence is kept; only the random
// component of the next access key changes.
func (s *fiscalService) Regenerate(ctx context.Context, tenantID, documentID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	release, err := s.locker.Acquire(ctx, fiscalLockKey(tenantID, documentID))
	if err != nil {
		return err
	}
	defer release()

	fiscal, err := s.fiscalRepo.FindFiscalByDocumentID(ctx, tenantID, documentID)
	if err != nil {
		return err
	}
	if fiscal.SRIStatus != domain.SRIRejected {
		return fmt.Errorf("%w: only REJECTED documents can be regenerated, got %s", apperrors.ErrConflict, fiscal.SRIStatus)
	}

	fiscal.AccessKey = nil
	fiscal.SignedXMLPath = nil
	fiscal.AuthorizationNumber = nil
	fiscal.AuthorizationDate = nil
	fiscal.SRIStatus = domain.SRIDraft
	fiscal.LastUpdatedBy = userID
	if err := s.checkpoint(ctx, fiscal); err != nil {
		return err
	}

	logger.Info("Fiscal document regenerated", slog.String("document_id", documentID), slog.String("regenerated_by", userID))
	return nil
}
