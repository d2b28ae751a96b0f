package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
	"github.com/harborlend/loancrm/internal/dto"
	"github.com/harborlend/loancrm/internal/middleware"
)

// uploadFormOverhead is the slack allowed on top of the file size cap for
// multipart boundaries and part headers.
const uploadFormOverhead = 16 << 10

// documentHandler handles document metadata and file transfer requests.
type documentHandler struct {
	docService     portssvc.DocumentService
	maxUploadBytes int64
}

func newDocumentHandler(ds portssvc.DocumentService, maxUploadBytes int64) *documentHandler {
	return &documentHandler{docService: ds, maxUploadBytes: maxUploadBytes}
}

// registerDocumentRoutes registers routes related to documents.
func registerDocumentRoutes(rg *gin.RouterGroup, docService portssvc.DocumentService, maxUploadBytes int64) {
	h := newDocumentHandler(docService, maxUploadBytes)

	docs := rg.Group("/documents")
	{
		docs.POST("", h.createDocument)
		docs.GET("", h.listDocuments)
		docs.GET("/:id", h.getDocument)
		docs.PUT("/:id", h.updateDocument)
		docs.DELETE("/:id", h.deleteDocument)
		docs.POST("/:id/upload", h.uploadFile)
		docs.GET("/:id/download", h.downloadFile)
	}
}

// createDocument godoc
// @Summary Request a document
// @Description Creates document metadata in REQUIRED status; the file arrives later via upload.
// @Tags documents
// @Accept json
// @Produce json
// @Param document body dto.CreateDocumentRequest true "Document details"
// @Success 201 {object} dto.DocumentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Unknown or out-of-scope loan"
// @Security BearerAuth
// @Router /documents [post]
func (h *documentHandler) createDocument(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	doc, err := h.docService.CreateDocument(c.Request.Context(), actor, req.ToDocument())
	if err != nil {
		respondError(c, err, "Failed to create document")
		return
	}
	c.JSON(http.StatusCreated, dto.ToDocumentResponse(doc))
}

// listDocuments godoc
// @Summary List documents
// @Tags documents
// @Produce json
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Param loanID query string false "Filter by loan"
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /documents [get]
func (h *documentHandler) listDocuments(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var params dto.ListDocumentsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}

	filter := params.ToDocumentFilter()
	docs, total, err := h.docService.ListDocuments(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err, "Failed to list documents")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":       dto.ToListDocumentResponse(docs),
		"pagination": dto.NewPagination(total, filter.Page.Limit, filter.Page.Offset),
	})
}

// getDocument godoc
// @Summary Get a document by ID
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} dto.DocumentResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /documents/{id} [get]
func (h *documentHandler) getDocument(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	doc, err := h.docService.GetDocumentByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load document")
		return
	}
	c.JSON(http.StatusOK, dto.ToDocumentResponse(doc))
}

// updateDocument godoc
// @Summary Update document metadata
// @Tags documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param document body dto.UpdateDocumentRequest true "Document fields"
// @Success 200 {object} dto.DocumentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /documents/{id} [put]
func (h *documentHandler) updateDocument(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	doc, err := h.docService.UpdateDocument(c.Request.Context(), actor, c.Param("id"), req.ToDocumentPatch())
	if err != nil {
		respondError(c, err, "Failed to update document")
		return
	}
	c.JSON(http.StatusOK, dto.ToDocumentResponse(doc))
}

// deleteDocument godoc
// @Summary Delete a document
// @Description Removes the metadata row; the stored object is removed best-effort.
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 204 "Deleted"
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /documents/{id} [delete]
func (h *documentHandler) deleteDocument(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.docService.DeleteDocument(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete document")
		return
	}
	c.Status(http.StatusNoContent)
}

// uploadFile godoc
// @Summary Upload a document file
// @Description Accepts one multipart file under "file", gated by size and extension, and marks the document RECEIVED.
// @Tags documents
// @Accept mpfd
// @Produce json
// @Param id path string true "Document ID"
// @Param file formData file true "Document file"
// @Success 200 {object} dto.DocumentResponse
// @Failure 400 {object} ErrorResponse "Missing file or disallowed type"
// @Failure 404 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse "File exceeds the size limit"
// @Security BearerAuth
// @Router /documents/{id}/upload [post]
func (h *documentHandler) uploadFile(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	// The size gate must fire before multipart parsing buffers the body.
	// An honest Content-Length is rejected without reading anything; a
	// missing or lying one trips MaxBytesReader during the parse.
	bodyCap := h.maxUploadBytes + uploadFormOverhead
	if c.Request.ContentLength > bodyCap {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Uploaded file exceeds the size limit"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, bodyCap)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Uploaded file exceeds the size limit"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "A file is required under the \"file\" form field"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	doc, err := h.docService.Upload(c.Request.Context(), actor, c.Param("id"), fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		respondError(c, err, "Failed to store uploaded file")
		return
	}

	logger.Info("document uploaded",
		slog.String("document_id", doc.DocumentID),
		slog.String("file_name", doc.FileName),
		slog.Int64("size", fileHeader.Size))
	c.JSON(http.StatusOK, dto.ToDocumentResponse(doc))
}

// downloadFile godoc
// @Summary Download a document file
// @Tags documents
// @Produce octet-stream
// @Param id path string true "Document ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse "No file uploaded yet"
// @Security BearerAuth
// @Router /documents/{id}/download [get]
func (h *documentHandler) downloadFile(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	reader, doc, err := h.docService.Download(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to download file")
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(doc.FileName))
	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("failed to stream file", slog.String("error", err.Error()))
	}
}
