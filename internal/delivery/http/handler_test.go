package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketcheck/backend/config"
	"github.com/ticketcheck/backend/internal/domain"
	"github.com/ticketcheck/backend/internal/infrastructure/cache"
	"github.com/ticketcheck/backend/internal/infrastructure/xlsx"
	"github.com/ticketcheck/backend/internal/usecase"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// stubReader serves prepared documents by file name
type stubReader struct {
	docs map[string]*domain.Document
}

func (r *stubReader) Read(ctx context.Context, name string, data []byte) (*domain.Document, error) {
	if doc, ok := r.docs[name]; ok {
		return doc, nil
	}
	return nil, errors.New("malformed PDF")
}

const (
	handlerWOText = `Customer Delivery Name: ACME LANKA
Delivery Address: 12 Main Street
Colombo
Product Code: LB 1234
PO 4500123`
	handlerPOText = `Extracted Style Numbers: 12345678
PO Number: 4500123
1 TAG.PRC.TKT_LB-1234_REG TICKET 50.0000 PCS
Color/Size/Destination : RED / L / USA`
)

func testDocs() map[string]*domain.Document {
	return map[string]*domain.Document{
		"wo.pdf": {
			Name: "wo.pdf",
			Pages: []domain.Page{{
				Number: 1,
				Text:   handlerWOText,
				Tables: map[domain.TableStrategy][]domain.Table{
					domain.StrategyLines: {{
						{"Style", "Colour", "Size", "Quantity"},
						{"12345678", "RED", "L", "50"},
					}},
				},
			}},
		},
		"po.pdf": {Name: "po.pdf", Pages: []domain.Page{{Number: 1, Text: handlerPOText}}},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*"},
			MaxUploadMB:    1,
		},
		RateLimit: config.RateLimitConfig{PerIP: 600, Burst: 100},
	}
}

// setupTestRouter wires the real use case, cache and exporter behind the router
func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	logger, _ := test.NewNullLogger()
	cfg := testConfig()

	store := cache.NewMemoryReportStore()
	t.Cleanup(store.Close)

	service := usecase.NewReconciliationService(
		&stubReader{docs: testDocs()},
		xlsx.NewStyleSheetReader(logger),
		store,
		xlsx.NewReportExporter(logger),
		usecase.ReconciliationConfig{},
		logger,
	)

	handler := NewHandler(service, cfg.Server.MaxUploadBytes(), logger)
	return SetupRouter(cfg, handler, logger)
}

// uploadRequest builds a multipart request; a nil part is left out
func uploadRequest(t *testing.T, parts map[string][]byte, names map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for field, data := range parts {
		name := names[field]
		if name == "" {
			name = field + ".bin"
		}
		fw, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reconciliations", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func validUpload(t *testing.T) *http.Request {
	return uploadRequest(t,
		map[string][]byte{"wo": []byte("%PDF-1.4"), "po": []byte("%PDF-1.4")},
		map[string]string{"wo": "wo.pdf", "po": "po.pdf"},
	)
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthCheckEndpoint(t *testing.T) {
	router := setupTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "ticketcheck-backend", body["service"])
}

func TestCreateReconciliation(t *testing.T) {
	router := setupTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, validUpload(t))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var report domain.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "/api/v1/reconciliations/"+report.ID, w.Header().Get("Location"))
	assert.Equal(t, "wo.pdf", report.WODocument)
	assert.Equal(t, "po.pdf", report.PODocument)
	assert.Equal(t, "4500123", report.References.PONumber)
	assert.NotEmpty(t, report.Verdict)
}

func TestCreateReconciliation_Errors(t *testing.T) {
	tests := []struct {
		name       string
		parts      map[string][]byte
		names      map[string]string
		wantStatus int
		wantSide   string
	}{
		{
			name:       "missing po file",
			parts:      map[string][]byte{"wo": []byte("%PDF")},
			names:      map[string]string{"wo": "wo.pdf"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty wo file",
			parts:      map[string][]byte{"wo": {}, "po": []byte("%PDF")},
			names:      map[string]string{"wo": "wo.pdf", "po": "po.pdf"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unreadable po",
			parts:      map[string][]byte{"wo": []byte("%PDF"), "po": []byte("garbage")},
			names:      map[string]string{"wo": "wo.pdf", "po": "broken.pdf"},
			wantStatus: http.StatusUnprocessableEntity,
			wantSide:   "PO",
		},
		{
			name:       "unreadable wo",
			parts:      map[string][]byte{"wo": []byte("garbage"), "po": []byte("%PDF")},
			names:      map[string]string{"wo": "broken.pdf", "po": "po.pdf"},
			wantStatus: http.StatusUnprocessableEntity,
			wantSide:   "WO",
		},
		{
			name: "style sheet is not a workbook",
			parts: map[string][]byte{
				"wo": []byte("%PDF"), "po": []byte("%PDF"), "styles": []byte("not xlsx"),
			},
			names:      map[string]string{"wo": "wo.pdf", "po": "po.pdf", "styles": "styles.xlsx"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "upload too large",
			parts:      map[string][]byte{"wo": bytes.Repeat([]byte("x"), 2<<20), "po": []byte("%PDF")},
			names:      map[string]string{"wo": "wo.pdf", "po": "po.pdf"},
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter(t)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, uploadRequest(t, tt.parts, tt.names))

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			body := decodeJSON(t, w)
			assert.NotEmpty(t, body["error"])
			if tt.wantSide != "" {
				assert.Equal(t, tt.wantSide, body["side"])
			}
		})
	}
}

func TestCreateReconciliation_NotMultipart(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reconciliations", bytes.NewBufferString(`{"wo":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAndExportReconciliation(t *testing.T) {
	router := setupTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, validUpload(t))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeJSON(t, w)["id"].(string)

	t.Run("get stored report", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reconciliations/"+id, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, id, decodeJSON(t, w)["id"])
	})

	t.Run("export stored report", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reconciliations/"+id+"/export", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, xlsx.ContentType, w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "reconciliation-"+id+".xlsx")
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), "workbook is a zip archive")
	})

	t.Run("delete stored report", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/reconciliations/"+id, nil))
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reconciliations/"+id, nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown report", func(t *testing.T) {
		for _, path := range []string{"/api/v1/reconciliations/nope", "/api/v1/reconciliations/nope/export"} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusNotFound, w.Code, path)
		}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/reconciliations/nope", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandler_NoService(t *testing.T) {
	logger, _ := test.NewNullLogger()
	router := SetupRouter(testConfig(), NewHandler(nil, 0, logger), logger)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reconciliations/abc", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRespondError_Internal(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := NewHandler(nil, 0, logger)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	h.respondError(c, errors.New("disk on fire"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decodeJSON(t, w)["error"])
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Request failed", hook.LastEntry().Message)
}

func TestAPIRouting(t *testing.T) {
	router := setupTestRouter(t)

	for _, path := range []string{"/api/reconciliations", "/reconciliations", "/api/v2/reconciliations"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}
