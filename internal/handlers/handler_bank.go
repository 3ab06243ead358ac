package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/quipuware/quipu_backend/internal/core/ports/services"
	"github.com/quipuware/quipu_backend/internal/dto"
	"github.com/quipuware/quipu_backend/internal/middleware"
)

// bankHandler handles HTTP requests for bank movements.
type bankHandler struct {
	movementService portssvc.BankMovementSvcFacade
}

// newBankHandler creates a new bankHandler.
func newBankHandler(movementService portssvc.BankMovementSvcFacade) *bankHandler {
	return &bankHandler{movementService: movementService}
}

// registerBankRoutes registers bank movement specific routes
func registerBankRoutes(rg *gin.RouterGroup, movementService portssvc.BankMovementSvcFacade) {
	h := newBankHandler(movementService)

	movements := rg.Group("/bank-movements")
	{
		movements.POST("", h.createMovement)
		movements.PUT("/:movementID", h.updateMovement)
		movements.DELETE("/:movementID", h.deleteMovement)
	}
}

func (h *bankHandler) createMovement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateBankMovementRequest
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
		respondError(c, logger, err, "Failed to create bank movement")
		return
	}

	logger.Info("Bank movement created", slog.String("movement_id", movement.MovementID), slog.String("direction", string(movement.Direction)))
	c.JSON(http.StatusCreated, movement)
}

func (h *bankHandler) updateMovement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	movementID := c.Param("movementID")

	var req dto.UpdateBankMovementRequest
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
		respondError(c, logger, err, "Failed to update bank movement")
		return
	}

	logger.Info("Bank movement updated", slog.String("movement_id", movement.MovementID))
	c.JSON(http.StatusOK, movement)
}

func (h *bankHandler) deleteMovement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	movementID := c.Param("movementID")

	tenantID, userID, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	if err := h.movementService.Delete(c.Request.Context(), tenantID, movementID, userID); err != nil {
		respondError(c, logger, err, "Failed to delete bank movement")
		return
	}

	logger.Info("Bank movement deleted", slog.String("movement_id", movementID))
	c.Status(http.StatusNoContent)
}
