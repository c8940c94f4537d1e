package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "sheetqa/internal/errors"
	"sheetqa/internal/narrative"
	"sheetqa/internal/quality"
	"sheetqa/internal/services"
	"sheetqa/internal/shared/testutil"
)

// MockNarrativeService is a testify mock for NarrativeServiceInterface
type MockNarrativeService struct {
	mock.Mock
}

func (m *MockNarrativeService) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *MockNarrativeService) Status(ctx context.Context) narrative.Status {
	return m.Called(ctx).Get(0).(narrative.Status)
}

func (m *MockNarrativeService) QualityReport(ctx context.Context, report *quality.AnalysisReport) (*narrative.Result, error) {
	args := m.Called(ctx, report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*narrative.Result), args.Error(1)
}

func (m *MockNarrativeService) ExplainProblem(ctx context.Context, p quality.Problem, fileContext string) (*narrative.Result, error) {
	args := m.Called(ctx, p, fileContext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*narrative.Result), args.Error(1)
}

func (m *MockNarrativeService) CleaningSuggestions(ctx context.Context, report *quality.AnalysisReport) (*narrative.Result, error) {
	args := m.Called(ctx, report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*narrative.Result), args.Error(1)
}

func (m *MockNarrativeService) Chat(ctx context.Context, question string, report *quality.AnalysisReport) (*narrative.Result, error) {
	args := m.Called(ctx, question, report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*narrative.Result), args.Error(1)
}

func newNarrativeHandler(t *testing.T, nar NarrativeServiceInterface, ana AnalysisServiceInterface) *NarrativeHandler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewNarrativeHandler(nar, ana, logger, apierrors.NewErrorHandler(logger, false))
}

func postJSON(path, body string) *http.Request {
	r := httptest.NewRequest("POST", path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestNarrativeHandler_Status(t *testing.T) {
	nar := new(MockNarrativeService)
	nar.On("Status", mock.Anything).Return(narrative.Status{
		Connected:      true,
		ModelAvailable: true,
		Models:         []string{"llama3.2:latest"},
	})

	handler := newNarrativeHandler(t, nar, new(MockAnalysisService))

	w := httptest.NewRecorder()
	handler.Routes().ServeHTTP(w, httptest.NewRequest("GET", "/status", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var status narrative.Status
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.True(t, status.Connected)
	assert.True(t, status.ModelAvailable)
}

func TestNarrativeHandler_QualityReport(t *testing.T) {
	t.Run("generates narrative", func(t *testing.T) {
		ana := new(MockAnalysisService)
		ana.On("GetReport", mock.Anything, "informe_a.json").Return(storedReport(), nil)

		nar := new(MockNarrativeService)
		nar.On("QualityReport", mock.Anything, mock.Anything).Return(&narrative.Result{
			Text:       "La calidad general del archivo es buena.",
			TokensUsed: 30,
		}, nil)

		handler := newNarrativeHandler(t, nar, ana)

		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, postJSON("/report", `{"archivo_informe":"informe_a.json"}`))

		assert.Equal(t, http.StatusOK, w.Code)

		var result narrative.Result
		require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
		assert.Equal(t, "La calidad general del archivo es buena.", result.Text)
		assert.Equal(t, 30, result.TokensUsed)
	})

	t.Run("missing report name", func(t *testing.T) {
		handler := newNarrativeHandler(t, new(MockNarrativeService), new(MockAnalysisService))

		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, postJSON("/report", `{}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown report", func(t *testing.T) {
		ana := new(MockAnalysisService)
		ana.On("GetReport", mock.Anything, "nope.json").Return(nil, services.ErrReportNotFound)

		handler := newNarrativeHandler(t, new(MockNarrativeService), ana)

		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, postJSON("/report", `{"archivo_informe":"nope.json"}`))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("narrative disabled", func(t *testing.T) {
		ana := new(MockAnalysisService)
		ana.On("GetReport", mock.Anything, "informe_a.json").Return(storedReport(), nil)

		nar := new(MockNarrativeService)
		nar.On("QualityReport", mock.Anything, mock.Anything).
			Return(nil, services.ErrNarrativeDisabled)

		handler := newNarrativeHandler(t, nar, ana)

		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, postJSON("/report", `{"archivo_informe":"informe_a.json"}`))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var problem map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&problem))
		assert.Equal(t, apierrors.TypeNarrativeUnavailable, problem["type"])
	})
}

func TestNarrativeHandler_ExplainProblem(t *testing.T) {
	t.Run("explains problem", func(t *testing.T) {
		nar := new(MockNarrativeService)
		nar.On("ExplainProblem", mock.Anything, mock.Anything, "estudiantes.xlsx").
			Return(&narrative.Result{Text: "Faltan correos en la columna Email."}, nil)

		handler := newNarrativeHandler(t, nar, new(MockAnalysisService))

		body := `{
			"problema": {
				"tipo": "valores_faltantes",
				"descripcion": "columna 'Email' tiene 20% de valores faltantes",
				"severidad": "media",
				"columna": "Email",
				"afectados": 2
			},
			"contexto_archivo": "estudiantes.xlsx"
		}`

		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, postJSON("/explain", body))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("empty problem rejected", func(t *testing.T) {
		handler := newNarrativeHandler(t, new(MockNarrativeService), new(MockAnalysisService))

		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, postJSON("/explain", `{"problema":{}}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestNarrativeHandler_Chat(t *testing.T) {
	t.Run("chat without report", func(t *testing.T) {
		nar := new(MockNarrativeService)
		nar.On("Chat", mock.Anything, "¿Qué puedes hacer?", (*quality.AnalysisReport)(nil)).
			Return(&narrative.Result{Text: "Puedo analizar archivos Excel."}, nil)

		handler := newNarrativeHandler(t, nar, new(MockAnalysisService))

		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, postJSON("/chat", `{"pregunta":"¿Qué puedes hacer?"}`))

		assert.Equal(t, http.StatusOK, w.Code)
		nar.AssertExpectations(t)
	})

	t.Run("chat with report grounding", func(t *testing.T) {
		report := storedReport()

		ana := new(MockAnalysisService)
		ana.On("GetReport", mock.Anything, "informe_a.json").Return(report, nil)

		nar := new(MockNarrativeService)
		nar.On("Chat", mock.Anything, "¿Cuántos problemas hay?", report).
			Return(&narrative.Result{Text: "No se detectaron problemas."}, nil)

		handler := newNarrativeHandler(t, nar, ana)

		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, postJSON("/chat",
			`{"pregunta":"¿Cuántos problemas hay?","archivo_informe":"informe_a.json"}`))

		assert.Equal(t, http.StatusOK, w.Code)
		nar.AssertExpectations(t)
	})

	t.Run("empty question rejected", func(t *testing.T) {
		handler := newNarrativeHandler(t, new(MockNarrativeService), new(MockAnalysisService))

		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, postJSON("/chat", `{"pregunta":""}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// The generation endpoints sit behind the content-type and body validation
// middleware: non-JSON requests never reach the handlers or the services.
func TestNarrativeHandler_RequestValidation(t *testing.T) {
	t.Run("missing content type", func(t *testing.T) {
		handler := newNarrativeHandler(t, new(MockNarrativeService), new(MockAnalysisService))

		r := httptest.NewRequest("POST", "/report", strings.NewReader(`{"archivo_informe":"informe_a.json"}`))
		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unsupported content type", func(t *testing.T) {
		handler := newNarrativeHandler(t, new(MockNarrativeService), new(MockAnalysisService))

		r := httptest.NewRequest("POST", "/chat", strings.NewReader("pregunta=hola"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("malformed JSON body", func(t *testing.T) {
		handler := newNarrativeHandler(t, new(MockNarrativeService), new(MockAnalysisService))

		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, postJSON("/report", `{"archivo_informe":`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("traversal report name rejected before lookup", func(t *testing.T) {
		ana := new(MockAnalysisService)
		handler := newNarrativeHandler(t, new(MockNarrativeService), ana)

		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, postJSON("/report", `{"archivo_informe":"../secreto.json"}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		ana.AssertNotCalled(t, "GetReport", mock.Anything, mock.Anything)
	})

	t.Run("missing fields yield a validation problem", func(t *testing.T) {
		handler := newNarrativeHandler(t, new(MockNarrativeService), new(MockAnalysisService))

		w := httptest.NewRecorder()
		handler.Routes().ServeHTTP(w, postJSON("/suggestions", `{}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var problem map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&problem))
		assert.Equal(t, apierrors.TypeValidation, problem["type"])
	})
}

func TestNarrativeHandler_CleaningSuggestions(t *testing.T) {
	ana := new(MockAnalysisService)
	ana.On("GetReport", mock.Anything, "informe_a.json").Return(storedReport(), nil)

	nar := new(MockNarrativeService)
	nar.On("CleaningSuggestions", mock.Anything, mock.Anything).
		Return(&narrative.Result{Text: "1. Eliminar filas duplicadas."}, nil)

	handler := newNarrativeHandler(t, nar, ana)

	w := httptest.NewRecorder()
	handler.Routes().ServeHTTP(w, postJSON("/suggestions", `{"archivo_informe":"informe_a.json"}`))

	assert.Equal(t, http.StatusOK, w.Code)

	var result narrative.Result
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Contains(t, result.Text, "duplicadas")
}
