package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/quipuware/quipu_backend/internal/core/ports/services"
	"github.com/quipuware/quipu_backend/internal/dto"
	"github.com/quipuware/quipu_backend/internal/middleware"
)

// entryHandler handles HTTP requests for journal entries.
type entryHandler struct {
	postingService portssvc.PostingSvcFacade
}

// newEntryHandler creates a new entryHandler.
func newEntryHandler(postingService portssvc.PostingSvcFacade) *entryHandler {
	return &entryHandler{postingService: postingService}
}

// registerEntryRoutes registers journal entry specific routes
func registerEntryRoutes(rg *gin.RouterGroup, postingService portssvc.PostingSvcFacade) {
	h := newEntryHandler(postingService)

	entries := rg.Group("/entries")
	{
		entries.POST("", h.postEntry)
		entries.GET("", h.listEntries)
		entries.GET("/:entryID", h.getEntry)
	}
}

// postEntry accepts a manual journal entry. Source-bound entries are only
// ever written by their owning service, never over HTTP.
func (h *entryHandler) postEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.PostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for postEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, userID, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	entry, err := h.postingService.PostManual(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to post journal entry")
		return
	}

	logger.Info("Manual journal entry posted", slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

func (h *entryHandler) getEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("entryID")

	tenantID, _, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	entry, err := h.postingService.GetEntry(c.Request.Context(), tenantID, entryID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve journal entry")
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

func (h *entryHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Error("Failed to bind query for listEntries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	tenantID, _, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	page, err := h.postingService.ListEntries(c.Request.Context(), tenantID, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list journal entries")
		return
	}

	c.JSON(http.StatusOK, page)
}
