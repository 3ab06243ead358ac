package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/quipuware/quipu_backend/internal/apperrors"
	"github.com/quipuware/quipu_backend/internal/core/domain"
	portsrepo "github.com/quipuware/quipu_backend/internal/core/ports/repositories"
	portssvc "github.com/quipuware/quipu_backend/internal/core/ports/services"
	"github.com/quipuware/quipu_backend/internal/dto"
	"github.com/quipuware/quipu_backend/internal/middleware"
)

const (
	defaultEstablishment = "001"
	defaultEmissionPoint = "001"
)

// documentService manages business documents. It recomputes totals from the
// items on every write, replaces children wholesale instead of diffing, and
// acts as the document accountant: the posting request is derived from the
// document's item/tax breakdown, never hand-built by callers.
type documentService struct {
	txManager   portsrepo.TxManager
	docRepo     portsrepo.DocumentRepositoryFacade
	fiscalRepo  portsrepo.FiscalRepositoryFacade
	personRepo  portsrepo.PersonRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
	postingSvc  portssvc.PostingSvcFacade
}

// NewDocumentService creates the document service.
func NewDocumentService(txManager portsrepo.TxManager, docRepo portsrepo.DocumentRepositoryFacade, fiscalRepo portsrepo.FiscalRepositoryFacade, personRepo portsrepo.PersonRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade, postingSvc portssvc.PostingSvcFacade) portssvc.DocumentSvcFacade {
	return &documentService{
		txManager:   txManager,
		docRepo:     docRepo,
		fiscalRepo:  fiscalRepo,
		personRepo:  personRepo,
		accountRepo: accountRepo,
		postingSvc:  postingSvc,
	}
}

var _ portssvc.DocumentSvcFacade = (*documentService)(nil)

func itemsFromRequest(documentID string, reqs []dto.DocumentItemRequest) []domain.DocumentItem {
	items := make([]domain.DocumentItem, len(reqs))
	for i, r := range reqs {
		items[i] = domain.DocumentItem{
			ItemID:           uuid.NewString(),
			DocumentID:       documentID,
			Description:      r.Description,
			Quantity:         r.Quantity,
			UnitPrice:        r.UnitPrice,
			Discount:         r.Discount,
			TaxRate:          r.TaxRate,
			RevenueAccountID: r.RevenueAccountID,
		}
	}
	return items
}

func paymentsFromRequest(documentID string, reqs []dto.DocumentPaymentRequest) []domain.DocumentPayment {
	payments := make([]domain.DocumentPayment, len(reqs))
	for i, r := range reqs {
		payments[i] = domain.DocumentPayment{
			PaymentID:  uuid.NewString(),
			DocumentID: documentID,
			Method:     r.Method,
			Amount:     r.Amount,
			DueDays:    r.DueDays,
		}
	}
	return payments
}

// recomputeTotals re-derives all monetary header fields from the items.
func recomputeTotals(doc *domain.Document) {
	subtotal := decimal.Zero
	taxTotal := decimal.Zero
	discount := decimal.Zero
	for _, item := range doc.Items {
		subtotal = subtotal.Add(item.Net())
		taxTotal = taxTotal.Add(item.Tax())
		discount = discount.Add(item.Discount)
	}
	doc.Subtotal = subtotal
	doc.TaxTotal = taxTotal
	doc.Discount = discount
	doc.Total = subtotal.Add(taxTotal)
	doc.RecomputeBalance()
}

// buildPostingRequest derives the document's posting lines from its item and
// tax breakdown: counterparty account against per-item revenue/expense
// accounts plus the tenant's tax account.
func (s *documentService) buildPostingRequest(ctx context.Context, doc *domain.Document) (*dto.PostingRequest, error) {
	person, err := s.personRepo.FindPersonByID(ctx, doc.TenantID, doc.PersonID)
	if err != nil {
		return nil, fmt.Errorf("failed to find person %s: %w", doc.PersonID, err)
	}

	counterpartAccount := person.ReceivableAccountID
	accountRole := "receivable"
	if doc.Kind == domain.KindPurchaseInvoice {
		counterpartAccount = person.PayableAccountID
		accountRole = "payable"
	}
	if counterpartAccount == nil || *counterpartAccount == "" {
		return nil, fmt.Errorf("%w: person %q has no %s account", apperrors.ErrMissingCounterpartyAccount, person.Name, accountRole)
	}

	var taxAccount *string
	if doc.TaxTotal.IsPositive() {
		settings, err := s.accountRepo.FindSettings(ctx, doc.TenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to load tenant settings: %w", err)
		}
		taxAccount = settings.SalesTaxAccountID
		if taxAccount == nil || *taxAccount == "" {
			return nil, fmt.Errorf("%w: no sales tax account configured", apperrors.ErrValidation)
		}
	}

	// Aggregate item nets per revenue/expense account so repeated accounts
	// collapse into one line.
	perAccount := make(map[string]decimal.Decimal)
	order := make([]string, 0, len(doc.Items))
	for _, item := range doc.Items {
		if _, seen := perAccount[item.RevenueAccountID]; !seen {
			order = append(order, item.RevenueAccountID)
		}
		perAccount[item.RevenueAccountID] = perAccount[item.RevenueAccountID].Add(item.Net())
	}

	// Invoices debit the counterparty; purchases and credit notes credit it.
	counterpartDebit := doc.Kind == domain.KindInvoice || doc.Kind == domain.KindWithholding

	lines := make([]dto.PostingLine, 0, len(order)+2)
	if counterpartDebit {
		lines = append(lines, dto.PostingLine{AccountID: *counterpartAccount, Debit: doc.Total, Credit: decimal.Zero, PersonID: &doc.PersonID})
		for _, accountID := range order {
			lines = append(lines, dto.PostingLine{AccountID: accountID, Debit: decimal.Zero, Credit: perAccount[accountID]})
		}
		if taxAccount != nil {
			lines = append(lines, dto.PostingLine{AccountID: *taxAccount, Debit: decimal.Zero, Credit: doc.TaxTotal})
		}
	} else {
		lines = append(lines, dto.PostingLine{AccountID: *counterpartAccount, Debit: decimal.Zero, Credit: doc.Total, PersonID: &doc.PersonID})
		for _, accountID := range order {
			lines = append(lines, dto.PostingLine{AccountID: accountID, Debit: perAccount[accountID], Credit: decimal.Zero})
		}
		if taxAccount != nil {
			lines = append(lines, dto.PostingLine{AccountID: *taxAccount, Debit: doc.TaxTotal, Credit: decimal.Zero})
		}
	}

	entryType := domain.EntryTypeSale
	if doc.Kind == domain.KindPurchaseInvoice {
		entryType = domain.EntryTypePurchase
	}

	return &dto.PostingRequest{
		Date:        doc.IssueDate,
		Description: fmt.Sprintf("%s %s", doc.Kind, doc.DocumentID),
		EntryType:   entryType,
		Lines:       lines,
	}, nil
}

// CreateDocument creates the document, its children, its fiscal info (for
// revenue kinds) and its journal entry in one transaction.
func (s *documentService) CreateDocument(ctx context.Context, tenantID string, req dto.CreateDocumentRequest, userID string) (*domain.Document, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: document needs at least one item", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	documentID := uuid.NewString()
	doc := domain.Document{
		DocumentID: documentID,
		TenantID:   tenantID,
		Kind:       req.Kind,
		PersonID:   req.PersonID,
		IssueDate:  req.IssueDate,
		PaidAmount: decimal.Zero,
		Status:     domain.DocumentDraft,
		Items:      itemsFromRequest(documentID, req.Items),
		Payments:   paymentsFromRequest(documentID, req.Payments),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	recomputeTotals(&doc)

	err := s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		if doc.Kind.Revenue() {
			establishment := req.Establishment
			if establishment == "" {
				establishment = defaultEstablishment
			}
			emissionPoint := req.EmissionPoint
			if emissionPoint == "" {
				emissionPoint = defaultEmissionPoint
			}
			sequence, err := s.docRepo.NextFiscalSequence(ctx, tx, tenantID, establishment, emissionPoint, doc.Kind)
			if err != nil {
				return fmt.Errorf("failed to claim fiscal sequence: %w", err)
			}
			doc.FiscalInfo = &domain.DocumentFiscalInfo{
				FiscalID:      uuid.NewString(),
				DocumentID:    documentID,
				TenantID:      tenantID,
				Establishment: establishment,
				EmissionPoint: emissionPoint,
				Sequence:      sequence,
				SRIStatus:     domain.SRIDraft,
				AuditFields:   doc.AuditFields,
			}
		}

		if err := s.docRepo.SaveDocument(ctx, tx, doc); err != nil {
			return fmt.Errorf("failed to save document: %w", err)
		}
		if doc.FiscalInfo != nil {
			if err := s.fiscalRepo.SaveFiscalInfo(ctx, tx, *doc.FiscalInfo); err != nil {
				return fmt.Errorf("failed to save fiscal info: %w", err)
			}
		}

		postingReq, err := s.buildPostingRequest(ctx, &doc)
		if err != nil {
			return err
		}
		_, err = s.postingSvc.Replace(ctx, tx, tenantID, domain.SourceDocument, documentID, *postingReq, userID)
		return err
	})
	if err != nil {
		logger.Error("Failed to create document", slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Document created", slog.String("document_id", documentID), slog.String("kind", string(doc.Kind)))
	return &doc, nil
}

// UpdateDocument replaces the document's children wholesale, recomputes the
// totals preserving the paid amount, and replaces its journal entry — one
// transaction for all of it.
func (s *documentService) UpdateDocument(ctx context.Context, tenantID, documentID string, req dto.UpdateDocumentRequest, userID string) (*domain.Document, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	doc, err := s.docRepo.FindDocumentByID(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.FiscalInfo != nil && doc.FiscalInfo.SRIStatus != domain.SRIDraft {
		return nil, fmt.Errorf("%w: document already entered the fiscal flow (%s)", apperrors.ErrConflict, doc.FiscalInfo.SRIStatus)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: document needs at least one item", apperrors.ErrValidation)
	}

	if req.IssueDate != nil {
		doc.IssueDate = *req.IssueDate
	}
	if req.PersonID != nil {
		doc.PersonID = *req.PersonID
	}
	doc.Items = itemsFromRequest(documentID, req.Items)
	doc.Payments = paymentsFromRequest(documentID, req.Payments)
	recomputeTotals(doc)
	doc.LastUpdatedAt = time.Now().UTC()
	doc.LastUpdatedBy = userID

	err = s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.docRepo.UpdateDocument(ctx, tx, *doc); err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}
		postingReq, err := s.buildPostingRequest(ctx, doc)
		if err != nil {
			return err
		}
		_, err = s.postingSvc.Replace(ctx, tx, tenantID, domain.SourceDocument, documentID, *postingReq, userID)
		return err
	})
	if err != nil {
		logger.Error("Failed to update document", slog.String("error", err.Error()), slog.String("document_id", documentID))
		return nil, err
	}

	logger.Info("Document updated", slog.String("document_id", documentID))
	return doc, nil
}

// GetDocument returns a document with its children and fiscal info.
func (s *documentService) GetDocument(ctx context.Context, tenantID, documentID string) (*domain.Document, error) {
	return s.docRepo.FindDocumentByID(ctx, tenantID, documentID)
}

// DeleteDocument removes a document and its journal entry. Paid or
// authorized documents cannot be deleted.
func (s *documentService) DeleteDocument(ctx context.Context, tenantID, documentID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	doc, err := s.docRepo.FindDocumentByID(ctx, tenantID, documentID)
	if err != nil {
		return err
	}
	if doc.PaidAmount.IsPositive() {
		return fmt.Errorf("%w: document has payments applied", apperrors.ErrConflict)
	}
	if doc.FiscalInfo != nil && doc.FiscalInfo.SRIStatus == domain.SRIAuthorized {
		return fmt.Errorf("%w: authorized documents cannot be deleted", apperrors.ErrConflict)
	}

	err = s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.postingSvc.RemoveBySource(ctx, tx, tenantID, domain.SourceDocument, documentID); err != nil {
			return err
		}
		return s.docRepo.DeleteDocument(ctx, tx, tenantID, documentID)
	})
	if err != nil {
		logger.Error("Failed to delete document", slog.String("error", err.Error()), slog.String("document_id", documentID))
		return err
	}

	logger.Info("Document deleted", slog.String("document_id", documentID), slog.String("deleted_by", userID))
	return nil
}
