package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docsense/internal/domain"
	"docsense/internal/export"
	"docsense/internal/handler"
	"docsense/internal/service"
	"docsense/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupHandlerTest() (*mocks.MockExtractionService, *gin.Engine) {
	svc := new(mocks.MockExtractionService)
	h := handler.NewExtractionHandler(svc)

	r := gin.New()
	v1 := r.Group("/api/v1")
	{
		ext := v1.Group("/extractions")
		{
			ext.POST("", h.Create)
			ext.GET("", h.List)
			ext.GET("/export", h.Export)
			ext.GET("/:id", h.GetByID)
			ext.GET("/:id/result", h.GetResult)
			ext.POST("/:id/retry", h.Retry)
			ext.DELETE("/:id", h.Delete)
		}
	}
	return svc, r
}

func multipartUpload(t *testing.T, fieldName, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile(fieldName, fileName)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestExtractionHandler_Create(t *testing.T) {
	svc, r := setupHandlerTest()
	svc.On("Create", mock.Anything, mock.MatchedBy(func(in *service.CreateExtractionInput) bool {
		return in.FileName == "invoice.pdf"
	})).Return(&domain.Extraction{
		ID:       uuid.New(),
		FileName: "invoice.pdf",
		Status:   domain.ExtractionStatusQueued,
	}, nil).Once()

	body, contentType := multipartUpload(t, "file", "invoice.pdf", "%PDF-1.4")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extractions", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
}

func TestExtractionHandler_CreateMissingFile(t *testing.T) {
	_, r := setupHandlerTest()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extractions", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MISSING_FILE", resp.Error.Code)
}

func TestExtractionHandler_CreateUnsupportedType(t *testing.T) {
	svc, r := setupHandlerTest()
	svc.On("Create", mock.Anything, mock.Anything).
		Return(nil, domain.ErrUnsupportedFileType).Once()

	body, contentType := multipartUpload(t, "file", "notes.txt", "hello")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extractions", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNSUPPORTED_FILE_TYPE", resp.Error.Code)
}

func TestExtractionHandler_ListWithPagination(t *testing.T) {
	svc, r := setupHandlerTest()
	svc.On("List", mock.Anything, 5, 10).
		Return([]domain.Extraction{{ID: uuid.New()}}, 42, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/extractions?offset=5&limit=10", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 42, resp.Meta.Total)
	assert.Equal(t, 5, resp.Meta.Offset)
	assert.Equal(t, 10, resp.Meta.Limit)
}

func TestExtractionHandler_ListClampsLimit(t *testing.T) {
	svc, r := setupHandlerTest()
	svc.On("List", mock.Anything, 0, 20).
		Return([]domain.Extraction{}, 0, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/extractions?limit=500", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestExtractionHandler_GetByIDInvalidID(t *testing.T) {
	_, r := setupHandlerTest()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/extractions/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_ID", resp.Error.Code)
}

func TestExtractionHandler_GetByIDNotFound(t *testing.T) {
	svc, r := setupHandlerTest()
	id := uuid.New()
	svc.On("GetByID", mock.Anything, id).Return(nil, domain.ErrExtractionNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/extractions/"+id.String(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "EXTRACTION_NOT_FOUND", resp.Error.Code)
}

func TestExtractionHandler_GetResultNotDone(t *testing.T) {
	svc, r := setupHandlerTest()
	id := uuid.New()
	svc.On("GetResult", mock.Anything, id).Return(nil, domain.ErrExtractionNotDone).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/extractions/"+id.String()+"/result", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "EXTRACTION_NOT_DONE", resp.Error.Code)
}

func TestExtractionHandler_GetResult(t *testing.T) {
	svc, r := setupHandlerTest()
	id := uuid.New()
	svc.On("GetResult", mock.Anything, id).Return(&domain.ExtractionResult{
		DocType:           domain.DocTypeInvoice,
		OverallConfidence: 0.87,
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/extractions/"+id.String()+"/result", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "invoice", data["doc_type"])
}

func TestExtractionHandler_Retry(t *testing.T) {
	svc, r := setupHandlerTest()
	id := uuid.New()
	svc.On("Retry", mock.Anything, id).Return(&domain.Extraction{
		ID:     id,
		Status: domain.ExtractionStatusQueued,
	}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extractions/"+id.String()+"/retry", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestExtractionHandler_Delete(t *testing.T) {
	svc, r := setupHandlerTest()
	id := uuid.New()
	svc.On("Delete", mock.Anything, id).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/extractions/"+id.String(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestExtractionHandler_ExportInvalidFormat(t *testing.T) {
	_, r := setupHandlerTest()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/extractions/export?format=pdf", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_FORMAT", resp.Error.Code)
}

func TestExtractionHandler_ExportCSV(t *testing.T) {
	svc, r := setupHandlerTest()
	svc.On("ListCompleted", mock.Anything).Return([]domain.Extraction{
		{
			ID:       uuid.New(),
			FileName: "invoice.pdf",
			DocType:  domain.DocTypeInvoice,
			Status:   domain.ExtractionStatusCompleted,
		},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/extractions/export", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	body := rec.Body.Bytes()
	require.True(t, bytes.HasPrefix(body, export.BOM))
	lines := strings.Split(strings.TrimSpace(string(body[len(export.BOM):])), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "File Name")
	assert.Contains(t, lines[1], "invoice.pdf")
}

func TestExtractionHandler_ExportXLSX(t *testing.T) {
	svc, r := setupHandlerTest()
	svc.On("ListCompleted", mock.Anything).Return([]domain.Extraction{}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/extractions/export?format=xlsx", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotEmpty(t, rec.Body.Bytes())
}
