package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/quipuware/quipu_backend/internal/core/ports/services"
	"github.com/quipuware/quipu_backend/internal/dto"
	"github.com/quipuware/quipu_backend/internal/middleware"
)

// cashHandler handles HTTP requests for cash sessions and cash movements.
type cashHandler struct {
	sessionService  portssvc.CashSessionSvcFacade
	movementService portssvc.CashMovementSvcFacade
}

// newCashHandler creates a new cashHandler.
func newCashHandler(sessionService portssvc.CashSessionSvcFacade, movementService portssvc.CashMovementSvcFacade) *cashHandler {
	return &cashHandler{
		sessionService:  sessionService,
		movementService: movementService,
	}
}

// registerCashRoutes registers cash session and cash movement specific routes
func registerCashRoutes(rg *gin.RouterGroup, sessionService portssvc.CashSessionSvcFacade, movementService portssvc.CashMovementSvcFacade) {
	h := newCashHandler(sessionService, movementService)

	sessions := rg.Group("/cash-sessions")
	{
		sessions.POST("/open", h.openSession)
		sessions.POST("/close", h.closeSession)
		sessions.GET("/current", h.currentSession)
	}

	movements := rg.Group("/cash-movements")
	{
		movements.POST("", h.createMovement)
		movements.PUT("/:movementID", h.updateMovement)
		movements.DELETE("/:movementID", h.deleteMovement)
	}
}

func (h *cashHandler) openSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.OpenCashSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for openSession", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, userID, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	session, err := h.sessionService.OpenSession(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to open cash session")
		return
	}

	logger.Info("Cash session opened", slog.String("session_id", session.SessionID), slog.String("cash_box_id", session.CashBoxID))
	c.JSON(http.StatusCreated, session)
}

func (h *cashHandler) closeSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CloseCashSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for closeSession", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, userID, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	session, err := h.sessionService.CloseSession(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to close cash session")
		return
	}

	logger.Info("Cash session closed", slog.String("session_id", session.SessionID))
	c.JSON(http.StatusOK, session)
}

func (h *cashHandler) currentSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	tenantID, userID, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	session, err := h.sessionService.GetOpenSession(c.Request.Context(), tenantID, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve open cash session")
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *cashHandler) createMovement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateCashMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for createMovement", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, userID, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	movement, err := h.movementService.Create(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to create cash movement")
		return
	}

	logger.Info("Cash movement created", slog.String("movement_id", movement.MovementID), slog.String("direction", string(movement.Direction)))
	c.JSON(http.StatusCreated, movement)
}

func (h *cashHandler) updateMovement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	movementID := c.Param("movementID")

	var req dto.UpdateCashMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for updateMovement", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, userID, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	movement, err := h.movementService.Update(c.Request.Context(), tenantID, movementID, req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to update cash movement")
		return
	}

	logger.Info("Cash movement updated", slog.String("movement_id", movement.MovementID))
	c.JSON(http.StatusOK, movement)
}

func (h *cashHandler) deleteMovement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	movementID := c.Param("movementID")

	tenantID, userID, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	if err := h.movementService.Delete(c.Request.Context(), tenantID, movementID, userID); err != nil {
		respondError(c, logger, err, "Failed to delete cash movement")
		return
	}

	logger.Info("Cash movement deleted", slog.String("movement_id", movementID))
	c.Status(http.StatusNoContent)
}
