package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/quipuware/quipu_backend/internal/apperrors"
	"github.com/quipuware/quipu_backend/internal/core/domain"
	portsrepo "github.com/quipuware/quipu_backend/internal/core/ports/repositories"
	portssvc "github.com/quipuware/quipu_backend/internal/core/ports/services"
	"github.com/quipuware/quipu_backend/internal/dto"
	"github.com/quipuware/quipu_backend/internal/middleware"
)

// sweeperService re-polls documents stuck IN_PROCESS. One document failing
// never stops the sweep: every failure is logged, counted and skipped.
type sweeperService struct {
	fiscalRepo portsrepo.FiscalRepositoryFacade
	fiscalSvc  portssvc.FiscalSvcFacade
	docTimeout time.Duration
}

// NewSweeperService creates the retry sweeper. docTimeout bounds the
// authority round-trip for each document.
func NewSweeperService(fiscalRepo portsrepo.FiscalRepositoryFacade, fiscalSvc portssvc.FiscalSvcFacade, docTimeout time.Duration) portssvc.SweeperSvcFacade {
	return &sweeperService{
		fiscalRepo: fiscalRepo,
		fiscalSvc:  fiscalSvc,
		docTimeout: docTimeout,
	}
}

var _ portssvc.SweeperSvcFacade = (*sweeperService)(nil)

// SweepPending polls every IN_PROCESS document once, across all tenants.
func (s *sweeperService) SweepPending(ctx context.Context) (*dto.SweepResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	pending, err := s.fiscalRepo.ListInProcess(ctx)
	if err != nil {
		return nil, err
	}

	result := &dto.SweepResult{Scanned: len(pending)}
	for _, fiscal := range pending {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		docCtx, cancel := context.WithTimeout(ctx, s.docTimeout)
		advance, err := s.fiscalSvc.PollAuthorization(docCtx, fiscal.TenantID, fiscal.DocumentID)
		cancel()

		switch {
		case errors.Is(err, apperrors.ErrFiscalBusy):
			// Another worker holds the document; it will be swept next round.
			result.Pending++
		case errors.Is(err, apperrors.ErrFiscalRejected):
			result.Rejected++
		case errors.Is(err, apperrors.ErrAuthorizationPending):
			result.Pending++
		case err != nil:
			result.Failed++
			logger.Error("Sweep failed for document",
				slog.String("error", err.Error()),
				slog.String("tenant_id", fiscal.TenantID),
				slog.String("document_id", fiscal.DocumentID))
		case advance.SRIStatus == domain.SRIAuthorized:
			result.Authorized++
		case advance.SRIStatus == domain.SRIRejected:
			result.Rejected++
		default:
			result.Pending++
		}
	}

	logger.Info("Fiscal sweep finished",
		slog.Int("scanned", result.Scanned),
		slog.Int("authorized", result.Authorized),
		slog.Int("rejected", result.Rejected),
		slog.Int("pending", result.Pending),
		slog.Int("failed", result.Failed))
	return result, nil
}
