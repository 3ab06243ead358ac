package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/quipuware/quipu_backend/internal/core/ports/services"
	"github.com/quipuware/quipu_backend/internal/dto"
	"github.com/quipuware/quipu_backend/internal/middleware"
)

// documentHandler handles HTTP requests for source documents and their
// fiscal lifecycle.
type documentHandler struct {
	documentService portssvc.DocumentSvcFacade
	fiscalService   portssvc.FiscalSvcFacade
}

// newDocumentHandler creates a new documentHandler.
func newDocumentHandler(documentService portssvc.DocumentSvcFacade, fiscalService portssvc.FiscalSvcFacade) *documentHandler {
	return &documentHandler{
		documentService: documentService,
		fiscalService:   fiscalService,
	}
}

// registerDocumentRoutes registers document and fiscal lifecycle specific routes
func registerDocumentRoutes(rg *gin.RouterGroup, documentService portssvc.DocumentSvcFacade, fiscalService portssvc.FiscalSvcFacade) {
	h := newDocumentHandler(documentService, fiscalService)

	documents := rg.Group("/documents")
	{
		documents.POST("", h.createDocument)
		documents.GET("/:documentID", h.getDocument)
		documents.PUT("/:documentID", h.updateDocument)
		documents.DELETE("/:documentID", h.deleteDocument)

		fiscal := documents.Group("/:documentID/fiscal")
		{
			fiscal.POST("/advance", h.advanceFiscal)
			fiscal.POST("/poll", h.pollFiscal)
			fiscal.POST("/regenerate", h.regenerateFiscal)
		}
	}
}

func (h *documentHandler) createDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for createDocument", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, userID, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	document, err := h.documentService.CreateDocument(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to create document")
		return
	}

	logger.Info("Document created", slog.String("document_id", document.DocumentID), slog.String("kind", string(document.Kind)))
	c.JSON(http.StatusCreated, dto.ToDocumentResponse(document))
}

func (h *documentHandler) getDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	documentID := c.Param("documentID")

	tenantID, _, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	document, err := h.documentService.GetDocument(c.Request.Context(), tenantID, documentID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve document")
		return
	}

	c.JSON(http.StatusOK, dto.ToDocumentResponse(document))
}

func (h *documentHandler) updateDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	documentID := c.Param("documentID")

	var req dto.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for updateDocument", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, userID, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	document, err := h.documentService.UpdateDocument(c.Request.Context(), tenantID, documentID, req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to update document")
		return
	}

	logger.Info("Document updated", slog.String("document_id", document.DocumentID))
	c.JSON(http.StatusOK, dto.ToDocumentResponse(document))
}

func (h *documentHandler) deleteDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	documentID := c.Param("documentID")

	tenantID, userID, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	if err := h.documentService.DeleteDocument(c.Request.Context(), tenantID, documentID, userID); err != nil {
		respondError(c, logger, err, "Failed to delete document")
		return
	}

	logger.Info("Document deleted", slog.String("document_id", documentID))
	c.Status(http.StatusNoContent)
}

func (h *documentHandler) advanceFiscal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	documentID := c.Param("documentID")

	tenantID, _, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	result, err := h.fiscalService.Advance(c.Request.Context(), tenantID, documentID)
	if err != nil {
		respondError(c, logger, err, "Failed to advance fiscal document")
		return
	}

	logger.Info("Fiscal document advanced", slog.String("document_id", documentID), slog.String("sri_status", string(result.SRIStatus)))
	c.JSON(http.StatusOK, result)
}

func (h *documentHandler) pollFiscal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	documentID := c.Param("documentID")

	tenantID, _, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	result, err := h.fiscalService.PollAuthorization(c.Request.Context(), tenantID, documentID)
	if err != nil {
		respondError(c, logger, err, "Failed to poll fiscal authorization")
		return
	}

	logger.Info("Fiscal authorization polled", slog.String("document_id", documentID), slog.String("sri_status", string(result.SRIStatus)))
	c.JSON(http.StatusOK, result)
}

func (h *documentHandler) regenerateFiscal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	documentID := c.Param("documentID")

	tenantID, userID, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	if err := h.fiscalService.Regenerate(c.Request.Context(), tenantID, documentID, userID); err != nil {
		respondError(c, logger, err, "Failed to regenerate fiscal document")
		return
	}

	logger.Info("Fiscal document regenerated", slog.String("document_id", documentID))
	c.Status(http.StatusNoContent)
}
