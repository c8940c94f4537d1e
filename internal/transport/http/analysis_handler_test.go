package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "sheetqa/internal/errors"
	"sheetqa/internal/quality"
	"sheetqa/internal/services"
	"sheetqa/internal/shared/testutil"
	"sheetqa/internal/workbook"
)

// MockAnalysisService is a testify mock for AnalysisServiceInterface
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) AnalyzeUpload(ctx context.Context, filename string, src io.Reader, size int64) (*services.AnalysisResult, error) {
	args := m.Called(ctx, filename, src, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AnalysisResult), args.Error(1)
}

func (m *MockAnalysisService) ListReports(ctx context.Context) ([]services.ReportInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.ReportInfo), args.Error(1)
}

func (m *MockAnalysisService) GetReport(ctx context.Context, name string) (*quality.AnalysisReport, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quality.AnalysisReport), args.Error(1)
}

func (m *MockAnalysisService) MaxUploadBytes() int64 {
	return workbook.MaxUploadSize
}

func newAnalysisHandler(t *testing.T, svc AnalysisServiceInterface) *AnalysisHandler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewAnalysisHandler(svc, logger, apierrors.NewErrorHandler(logger, false))
}

func storedReport() *quality.AnalysisReport {
	return &quality.AnalysisReport{
		Workbook: "estudiantes.xlsx",
		Sheets: []quality.SheetReport{
			{
				Name:       "Hoja1",
				Dimensions: quality.Dimensions{Rows: 10, Columns: 3},
				Metrics: quality.QualityMetrics{
					Completeness: 80, Accuracy: 90, Uniqueness: 100, Consistency: 85,
				},
			},
		},
		Summary: quality.Summary{
			SheetsAnalyzed: 1,
			TotalRows:      10,
			TotalColumns:   3,
			BySeverity: map[quality.Severity]int{
				quality.SeverityAlta: 0, quality.SeverityMedia: 0, quality.SeverityBaja: 0,
			},
		},
		Aggregate: quality.QualityMetrics{
			Completeness: 80, Accuracy: 90, Uniqueness: 100, Consistency: 85,
		},
		Score: 87.5,
	}
}

func multipartUpload(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestAnalysisHandler_Upload(t *testing.T) {
	t.Run("successful upload", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("AnalyzeUpload", mock.Anything, "datos.csv", mock.Anything, mock.Anything).
			Return(&services.AnalysisResult{
				Report:     storedReport(),
				ReportFile: "informe_datos_20250615_120000.json",
			}, nil)

		handler := newAnalysisHandler(t, svc)

		body, contentType := multipartUpload(t, "archivo", "datos.csv", "a,b\n1,2\n")
		r := httptest.NewRequest("POST", "/upload", body)
		r.Header.Set("Content-Type", contentType)

		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "success", resp["status"])
		assert.Equal(t, "informe_datos_20250615_120000.json", resp["archivo_informe"])

		svc.AssertExpectations(t)
	})

	t.Run("missing file field", func(t *testing.T) {
		handler := newAnalysisHandler(t, new(MockAnalysisService))

		body, contentType := multipartUpload(t, "otro_campo", "datos.csv", "a,b\n")
		r := httptest.NewRequest("POST", "/upload", body)
		r.Header.Set("Content-Type", contentType)

		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing content type", func(t *testing.T) {
		handler := newAnalysisHandler(t, new(MockAnalysisService))

		r := httptest.NewRequest("POST", "/upload", bytes.NewReader([]byte("a,b\n")))
		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non-multipart content type", func(t *testing.T) {
		handler := newAnalysisHandler(t, new(MockAnalysisService))

		r := httptest.NewRequest("POST", "/upload", bytes.NewReader([]byte(`{"archivo":"x"}`)))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("service rejects format", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("AnalyzeUpload", mock.Anything, "notas.txt", mock.Anything, mock.Anything).
			Return(nil, apierrors.ErrUnsupportedFormat)

		handler := newAnalysisHandler(t, svc)

		body, contentType := multipartUpload(t, "archivo", "notas.txt", "hola")
		r := httptest.NewRequest("POST", "/upload", body)
		r.Header.Set("Content-Type", contentType)

		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var problem map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&problem))
		assert.Equal(t, apierrors.TypeUnsupportedFormat, problem["type"])
	})
}

func TestAnalysisHandler_ListReports(t *testing.T) {
	t.Run("returns reports", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("ListReports", mock.Anything).Return([]services.ReportInfo{
			{Name: "informe_a.json", SizeBytes: 1024},
			{Name: "informe_b.json", SizeBytes: 2048},
		}, nil)

		handler := newAnalysisHandler(t, svc)

		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, httptest.NewRequest("GET", "/reports", nil))

		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, float64(2), resp["count"])
	})

	t.Run("limite caps the listing", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("ListReports", mock.Anything).Return([]services.ReportInfo{
			{Name: "informe_c.json"},
			{Name: "informe_b.json"},
			{Name: "informe_a.json"},
		}, nil)

		handler := newAnalysisHandler(t, svc)

		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, httptest.NewRequest("GET", "/reports?limite=2", nil))

		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, float64(2), resp["count"])
	})

	t.Run("orden antiguos reverses the listing", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("ListReports", mock.Anything).Return([]services.ReportInfo{
			{Name: "informe_nuevo.json"},
			{Name: "informe_viejo.json"},
		}, nil)

		handler := newAnalysisHandler(t, svc)

		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, httptest.NewRequest("GET", "/reports?orden=antiguos&limite=1", nil))

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data []services.ReportInfo `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "informe_viejo.json", resp.Data[0].Name)
	})

	t.Run("invalid orden rejected", func(t *testing.T) {
		handler := newAnalysisHandler(t, new(MockAnalysisService))

		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, httptest.NewRequest("GET", "/reports?orden=alfabetico", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid limite rejected", func(t *testing.T) {
		for _, raw := range []string{"0", "-3", "abc", "5000"} {
			handler := newAnalysisHandler(t, new(MockAnalysisService))

			w := httptest.NewRecorder()
			handler.Routes().ServeHTTP(w, httptest.NewRequest("GET", "/reports?limite="+raw, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code, "limite=%s", raw)
		}
	})

	t.Run("no reports yields 404", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("ListReports", mock.Anything).Return(nil, services.ErrNoReportsFound)

		handler := newAnalysisHandler(t, svc)

		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, httptest.NewRequest("GET", "/reports", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAnalysisHandler_GetReport(t *testing.T) {
	t.Run("returns stored report", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("GetReport", mock.Anything, "informe_a.json").Return(storedReport(), nil)

		handler := newAnalysisHandler(t, svc)

		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, httptest.NewRequest("GET", "/reports/informe_a.json", nil))

		assert.Equal(t, http.StatusOK, w.Code)

		var report quality.AnalysisReport
		require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
		assert.Equal(t, "estudiantes.xlsx", report.Workbook)
		assert.Equal(t, 87.5, report.Score)
	})

	t.Run("missing report yields 404", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("GetReport", mock.Anything, "nope.json").Return(nil, services.ErrReportNotFound)

		handler := newAnalysisHandler(t, svc)

		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, httptest.NewRequest("GET", "/reports/nope.json", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)

		var problem map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&problem))
		assert.Equal(t, apierrors.TypeReportNotFound, problem["type"])
	})
}

func TestAnalysisHandler_GetReportSummary(t *testing.T) {
	svc := new(MockAnalysisService)
	svc.On("GetReport", mock.Anything, "informe_a.json").Return(storedReport(), nil)

	handler := newAnalysisHandler(t, svc)

	w := httptest.NewRecorder()
	handler.Routes().ServeHTTP(w, httptest.NewRequest("GET", "/reports/informe_a.json/summary", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "RESUMEN DE ANÁLISIS")
	assert.Contains(t, w.Body.String(), "Puntuación de calidad: 87.5/100")
}
