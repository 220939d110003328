package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"legalyzer/internal/domain"
	"legalyzer/internal/handler"
	"legalyzer/internal/service"
	"legalyzer/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, _ = part.Write(content)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func newTestContext(method, path string, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(method, path, nil)
	c.Params = params
	return c, w
}

func TestAnalysisHandler_Analyze_Success(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(svc)
	fileID := uuid.New()

	svc.On("Analyze", mock.Anything, mock.MatchedBy(func(in service.AnalyzeInput) bool {
		return in.Filename == "lease.pdf" && in.Size > 0
	})).Return(&domain.AnalysisResult{
		FileID:       fileID,
		Filename:     "lease.pdf",
		Summary:      domain.NewLegacySummary("A lease."),
		DocumentType: "Lease",
	}, nil)

	body, contentType := multipartUpload(t, "lease.pdf", []byte("%PDF-1.4 test content"))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/analyze", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.Analyze(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, fileID.String(), data["file_id"])
	assert.Equal(t, "A lease.", data["summary"])
	svc.AssertExpectations(t)
}

func TestAnalysisHandler_Analyze_NoFile(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(svc)

	c, w := newTestContext(http.MethodPost, "/analyze", nil)
	h.Analyze(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FILE", decode(t, w).Error.Code)
	svc.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestAnalysisHandler_Analyze_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"unsupported", domain.NewUnsupportedType("extension .exe is not allowed"), http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported_type: extension .exe is not allowed"},
		{"too large", domain.NewTooLarge("file is too big"), http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "too_large: file is too big"},
		{"ocr unavailable", &domain.OCRUnavailableError{Message: "install tesseract"}, http.StatusUnprocessableEntity, "OCR_UNAVAILABLE", "install tesseract"},
		{"corrupt", &domain.ExtractionError{Err: errors.New("bad xref")}, http.StatusUnprocessableEntity, "EXTRACTION_FAILED", ""},
		{"no text", &domain.ExtractionError{Err: domain.ErrNoExtractableText}, http.StatusUnprocessableEntity, "NO_EXTRACTABLE_TEXT", ""},
		{"timeout", &domain.AnalysisError{Kind: domain.AnalysisTimeout, Err: errors.New("deadline")}, http.StatusGatewayTimeout, "ANALYSIS_TIMEOUT", ""},
		{"upstream", &domain.AnalysisError{Kind: domain.AnalysisUpstreamError, Err: errors.New("502")}, http.StatusBadGateway, "ANALYSIS_UPSTREAM_ERROR", ""},
		{"malformed", &domain.AnalysisError{Kind: domain.AnalysisMalformedResponse, Err: errors.New("empty")}, http.StatusBadGateway, "ANALYSIS_MALFORMED_RESPONSE", ""},
		{"storage", domain.ErrUploadFailed, http.StatusInternalServerError, "UPLOAD_FAILED", ""},
		{"canceled while waiting", fmt.Errorf("analysisService.Analyze: waiting for slot: %w", context.Canceled), 499, "REQUEST_CANCELED", ""},
		{"canceled during page ocr", fmt.Errorf("extract.ocrPages: %w", context.Canceled), 499, "REQUEST_CANCELED", ""},
		{"deadline", fmt.Errorf("analysisService.Analyze: waiting for slot: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "REQUEST_TIMEOUT", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockAnalysisService)
			h := handler.NewAnalysisHandler(svc)
			svc.On("Analyze", mock.Anything, mock.Anything).Return(nil, tt.err)

			body, contentType := multipartUpload(t, "doc.pdf", []byte("%PDF-1.4"))
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodPost, "/analyze", body)
			c.Request.Header.Set("Content-Type", contentType)

			h.Analyze(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, resp.Error.Message)
			}
		})
	}
}

func TestAnalysisHandler_Get(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(svc)
	fileID := uuid.New()
	svc.On("Get", mock.Anything, fileID).Return(&domain.AnalysisResult{FileID: fileID}, nil)

	c, w := newTestContext(http.MethodGet, "/analysis/"+fileID.String(), gin.Params{{Key: "file_id", Value: fileID.String()}})
	h.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAnalysisHandler_Get_NotFound(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(svc)
	fileID := uuid.New()
	svc.On("Get", mock.Anything, fileID).Return(nil, domain.ErrNotFound)

	c, w := newTestContext(http.MethodGet, "/analysis/"+fileID.String(), gin.Params{{Key: "file_id", Value: fileID.String()}})
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w).Error.Code)
}

func TestAnalysisHandler_Get_MalformedID(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(svc)

	c, w := newTestContext(http.MethodGet, "/analysis/nope", gin.Params{{Key: "file_id", Value: "nope"}})
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestAnalysisHandler_Clear(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(svc)
	svc.On("ClearHistory", mock.Anything).Return(2, nil)

	c, w := newTestContext(http.MethodDelete, "/analyses", nil)
	h.Clear(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["cleared"])
}

func TestAnalysisHandler_Original(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(svc)
	fileID := uuid.New()
	svc.On("GetOriginal", mock.Anything, fileID).Return(&service.OriginalDocument{
		Data:        []byte("%PDF-1.4 original"),
		ContentType: "application/pdf",
		Filename:    "lease.pdf",
	}, nil)

	c, w := newTestContext(http.MethodGet, "/documents/"+fileID.String(), gin.Params{{Key: "file_id", Value: fileID.String()}})
	h.Original(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="lease.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4 original", w.Body.String())
}

func TestExportHandler_Create(t *testing.T) {
	svc := new(mocks.MockExportService)
	h := handler.NewExportHandler(svc)
	fileID := uuid.New()
	taskID := uuid.New()
	svc.On("Create", mock.Anything, fileID, "pdf").Return(&domain.ExportTask{
		ID: taskID, FileID: fileID, Format: domain.ExportFormatPDF, Status: domain.ExportStatusQueued,
	}, nil)

	c, w := newTestContext(http.MethodPost, "/export/"+fileID.String()+"/pdf", gin.Params{
		{Key: "file_id", Value: fileID.String()},
		{Key: "format", Value: "pdf"},
	})
	h.Create(c)

	assert.Equal(t, http.StatusAccepted, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, taskID.String(), data["task_id"])
	assert.Equal(t, "queued", data["status"])
}

func TestExportHandler_Create_InvalidFormat(t *testing.T) {
	svc := new(mocks.MockExportService)
	h := handler.NewExportHandler(svc)
	fileID := uuid.New()
	svc.On("Create", mock.Anything, fileID, "docx").Return(nil, domain.ErrInvalidExportFormat)

	c, w := newTestContext(http.MethodPost, "/export/"+fileID.String()+"/docx", gin.Params{
		{Key: "file_id", Value: fileID.String()},
		{Key: "format", Value: "docx"},
	})
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_EXPORT_FORMAT", decode(t, w).Error.Code)
}

func TestExportHandler_Poll_Failed(t *testing.T) {
	svc := new(mocks.MockExportService)
	h := handler.NewExportHandler(svc)
	taskID := uuid.New()
	svc.On("Poll", mock.Anything, taskID).Return(&domain.ExportTask{
		ID: taskID, Format: domain.ExportFormatPDF, Status: domain.ExportStatusFailed,
		Error: "render timed out", CreatedAt: time.Now(),
	}, nil)

	c, w := newTestContext(http.MethodGet, "/export/"+taskID.String(), gin.Params{{Key: "task_id", Value: taskID.String()}})
	h.Poll(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, "failed", data["status"])
	assert.Equal(t, "render timed out", data["error"])
}

func TestExportHandler_Poll_UnknownTask(t *testing.T) {
	svc := new(mocks.MockExportService)
	h := handler.NewExportHandler(svc)
	taskID := uuid.New()
	svc.On("Poll", mock.Anything, taskID).Return(nil, domain.ErrNotFound)

	c, w := newTestContext(http.MethodGet, "/export/"+taskID.String(), gin.Params{{Key: "task_id", Value: taskID.String()}})
	h.Poll(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportHandler_Download_NotReady(t *testing.T) {
	svc := new(mocks.MockExportService)
	h := handler.NewExportHandler(svc)
	taskID := uuid.New()
	svc.On("Download", mock.Anything, taskID).Return(nil, domain.ErrNotReady)

	c, w := newTestContext(http.MethodGet, "/export/"+taskID.String()+"/download", gin.Params{{Key: "task_id", Value: taskID.String()}})
	h.Download(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "EXPORT_NOT_READY", decode(t, w).Error.Code)
}

func TestExportHandler_Download(t *testing.T) {
	svc := new(mocks.MockExportService)
	h := handler.NewExportHandler(svc)
	taskID := uuid.New()
	svc.On("Download", mock.Anything, taskID).Return(&service.ExportArtifact{
		Data:        []byte(`{"export_info":{}}`),
		ContentType: "application/json",
		Filename:    "lease_analysis.json",
	}, nil)

	c, w := newTestContext(http.MethodGet, "/export/"+taskID.String()+"/download", gin.Params{{Key: "task_id", Value: taskID.String()}})
	h.Download(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="lease_analysis.json"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, `{"export_info":{}}`, w.Body.String())
}

func TestSystemHandler_SupportedFormats(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	h := handler.NewSystemHandler(svc, new(mocks.MockRetentionService))
	svc.On("SupportedFormats").Return(service.SupportedFormats{
		Formats:       []string{".pdf", ".png"},
		MaxFileSizeMB: 50,
		ExportFormats: domain.ExportFormats,
	})

	c, w := newTestContext(http.MethodGet, "/supported-formats", nil)
	h.SupportedFormats(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, []interface{}{".pdf", ".png"}, data["formats"])
	assert.Equal(t, float64(50), data["max_file_size_mb"])
}

func TestSystemHandler_RetentionStatus(t *testing.T) {
	retention := new(mocks.MockRetentionService)
	h := handler.NewSystemHandler(new(mocks.MockAnalysisService), retention)
	retention.On("Status").Return(service.RetentionStatus{Enabled: true, TTLSeconds: 3600, Runs: 2, LastRemoved: 1})

	c, w := newTestContext(http.MethodGet, "/retention/status", nil)
	h.RetentionStatus(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, true, data["enabled"])
	assert.Equal(t, float64(3600), data["ttl_seconds"])
	assert.Equal(t, float64(2), data["runs"])
}

func TestSystemHandler_RetentionCleanup(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		removed    int
		err        error
		wantStatus int
		wantCode   string
	}{
		{"default type", "", 3, nil, http.StatusOK, ""},
		{"analysis type", "?type=analysis", 0, nil, http.StatusOK, ""},
		{"unknown type", "?type=log", 0, nil, http.StatusBadRequest, "INVALID_CLEANUP_TYPE"},
		{"disabled", "?type=all", 0, domain.ErrRetentionDisabled, http.StatusConflict, "RETENTION_DISABLED"},
		{"store down", "", 0, errors.New("db down"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retention := new(mocks.MockRetentionService)
			h := handler.NewSystemHandler(new(mocks.MockAnalysisService), retention)
			retention.On("Cleanup", mock.Anything).Return(tt.removed, tt.err)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodPost, "/retention/cleanup"+tt.query, http.NoBody)
			h.RetentionCleanup(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, resp.Error.Code)
				return
			}
			data := resp.Data.(map[string]interface{})
			assert.Equal(t, float64(tt.removed), data["removed"])
		})
	}
}

func TestHealthHandler_Health(t *testing.T) {
	store := new(mocks.MockResultStore)
	caps := new(mocks.MockAnalysisService)
	store.On("Ping", mock.Anything).Return(nil)
	caps.On("OCREnabled").Return(false)
	h := handler.NewHealthHandler(store, caps)

	c, w := newTestContext(http.MethodGet, "/health", nil)
	h.Health(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp handler.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "disabled", resp.Services["tesseract_ocr"])
	assert.Equal(t, "ok", resp.Services["store"])
}

func TestHealthHandler_StoreDown(t *testing.T) {
	store := new(mocks.MockResultStore)
	caps := new(mocks.MockAnalysisService)
	store.On("Ping", mock.Anything).Return(errors.New("connection refused"))
	caps.On("OCREnabled").Return(true)
	h := handler.NewHealthHandler(store, caps)

	c, w := newTestContext(http.MethodGet, "/health", nil)
	h.Health(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	c, w = newTestContext(http.MethodGet, "/readyz", nil)
	h.Readiness(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
