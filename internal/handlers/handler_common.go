// Package handlers wires the HTTP surface to the service facades.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quipuware/quipu_backend/internal/apperrors"
	"github.com/quipuware/quipu_backend/internal/middleware"
)

// requireIdentity pulls the tenant and user IDs that AuthMiddleware placed on
// the request context. It answers 401 itself when either is missing.
func requireIdentity(c *gin.Context, logger *slog.Logger) (tenantID string, userID string, ok bool) {
	ctx := c.Request.Context()
	tenantID, ok = middleware.GetTenantIDFromContext(ctx)
	if !ok {
		logger.Error("Tenant ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", "", false
	}
	userID, ok = middleware.GetUserIDFromContext(ctx)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", "", false
	}
	return tenantID, userID, true
}

// respondError maps a service error to an HTTP response. Client faults become
// 4xx with the wrapped message; upstream authority faults become 502; anything
// unrecognized is a 500 carrying only the fallback text.
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrEmptyEntry),
		errors.Is(err, apperrors.ErrInvalidLine),
		errors.Is(err, apperrors.ErrUnbalancedEntry),
		errors.Is(err, apperrors.ErrAllocationMismatch),
		errors.Is(err, apperrors.ErrMissingCashBoxAccount),
		errors.Is(err, apperrors.ErrMissingCounterpartyAccount),
		errors.Is(err, apperrors.ErrMissingBankAccount),
		errors.Is(err, apperrors.ErrNoOpenCashSession),
		errors.Is(err, apperrors.ErrCertificateNotConfigured),
		errors.Is(err, apperrors.ErrWrongCertificatePassword):
		logger.Warn(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		logger.Warn(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrFiscalBusy),
		errors.Is(err, apperrors.ErrFiscalRejected):
		logger.Warn(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrSigning),
		errors.Is(err, apperrors.ErrTransmission),
		errors.Is(err, apperrors.ErrAuthorizationPending):
		logger.Warn(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
