package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docsense/internal/export"
	"docsense/internal/service"
)

// ExtractionHandler handles document extraction endpoints.
type ExtractionHandler struct {
	extractionService service.ExtractionService
}

// NewExtractionHandler creates a new ExtractionHandler.
func NewExtractionHandler(extractionService service.ExtractionService) *ExtractionHandler {
	return &ExtractionHandler{extractionService: extractionService}
}

// Create handles POST /api/v1/extractions. It accepts a multipart upload,
// stores the file, and queues it for extraction.
func (h *ExtractionHandler) Create(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	ext, err := h.extractionService.Create(c.Request.Context(), &service.CreateExtractionInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, ext)
}

// List handles GET /api/v1/extractions
func (h *ExtractionHandler) List(c *gin.Context) {
	offset, limit := paginationParams(c)

	exts, total, err := h.extractionService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, exts, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/extractions/:id
func (h *ExtractionHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	ext, err := h.extractionService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, ext)
}

// GetResult handles GET /api/v1/extractions/:id/result
func (h *ExtractionHandler) GetResult(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.extractionService.GetResult(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// Retry handles POST /api/v1/extractions/:id/retry
func (h *ExtractionHandler) Retry(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	ext, err := h.extractionService.Retry(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, ext)
}

// Delete handles DELETE /api/v1/extractions/:id
func (h *ExtractionHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.extractionService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"deleted": id})
}

// Export handles GET /api/v1/extractions/export?format=csv|xlsx. It streams
// all completed extractions as a spreadsheet download.
func (h *ExtractionHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be 'csv' or 'xlsx'")
		return
	}

	exts, err := h.extractionService.ListCompleted(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := export.BuildFilename("extractions", format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if format == "xlsx" {
		buf, err := export.WriteXLSX(exts)
		if err != nil {
			HandleError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	_, _ = c.Writer.Write(export.BOM)

	w := export.NewCSVWriter(c.Writer)
	if err := w.WriteHeader(); err != nil {
		return
	}
	if err := w.WriteExtractions(exts); err != nil {
		return
	}
	w.Flush()
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid extraction ID")
		return uuid.Nil, false
	}
	return id, true
}

func paginationParams(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if offset < 0 {
		offset = 0
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return offset, limit
}
