package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "sheetqa/internal/errors"
	customMiddleware "sheetqa/internal/middleware"
	"sheetqa/internal/narrative"
	"sheetqa/internal/quality"
	"sheetqa/internal/services"
)

// NarrativeHandler exposes the Ollama-backed narrative endpoints.
type NarrativeHandler struct {
	narrative    NarrativeServiceInterface
	analysis     AnalysisServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validator    *customMiddleware.ValidationMiddleware
}

// NewNarrativeHandler creates a new narrative handler
func NewNarrativeHandler(narrativeService NarrativeServiceInterface, analysisService AnalysisServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *NarrativeHandler {
	return &NarrativeHandler{
		narrative:    narrativeService,
		analysis:     analysisService,
		logger:       logger.With(slog.String("handler", "narrative")),
		errorHandler: errorHandler,
		validator:    customMiddleware.NewValidationMiddleware(logger, errorHandler),
	}
}

// Routes returns the narrative routes
func (h *NarrativeHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/status", h.Status)

	// Generation endpoints take JSON bodies: enforce the content type and
	// reject malformed JSON before any handler decodes it.
	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.ContentTypeValidator("application/json"))
		r.Use(h.validator.ValidateRequest)

		r.Post("/report", h.QualityReport)
		r.Post("/explain", h.ExplainProblem)
		r.Post("/suggestions", h.CleaningSuggestions)
		r.Post("/chat", h.Chat)
	})

	return r
}

// reportRequest names a stored report to generate a narrative for.
type reportRequest struct {
	ReportFile string `json:"archivo_informe" validate:"required,filename"`
}

// explainRequest carries one problem to explain.
type explainRequest struct {
	Problem     quality.Problem `json:"problema"`
	FileContext string          `json:"contexto_archivo"`
}

// chatRequest is a free-form question, optionally grounded on a report.
type chatRequest struct {
	Question   string `json:"pregunta" validate:"required"`
	ReportFile string `json:"archivo_informe,omitempty" validate:"omitempty,filename"`
}

// Status handles GET /api/narrative/status
func (h *NarrativeHandler) Status(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.narrative.Status(r.Context()))
}

// QualityReport handles POST /api/narrative/report
func (h *NarrativeHandler) QualityReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrInvalidRequest)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, ok := h.fetchReport(w, r, req.ReportFile)
	if !ok {
		return
	}

	h.respond(w, r, func() (*narrative.Result, error) {
		return h.narrative.QualityReport(r.Context(), report)
	})
}

// ExplainProblem handles POST /api/narrative/explain
func (h *NarrativeHandler) ExplainProblem(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrInvalidRequest)
		return
	}
	if req.Problem.Description == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("problema", "A problem description is required"))
		return
	}

	h.respond(w, r, func() (*narrative.Result, error) {
		return h.narrative.ExplainProblem(r.Context(), req.Problem, req.FileContext)
	})
}

// CleaningSuggestions handles POST /api/narrative/suggestions
func (h *NarrativeHandler) CleaningSuggestions(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrInvalidRequest)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, ok := h.fetchReport(w, r, req.ReportFile)
	if !ok {
		return
	}

	h.respond(w, r, func() (*narrative.Result, error) {
		return h.narrative.CleaningSuggestions(r.Context(), report)
	})
}

// Chat handles POST /api/narrative/chat
func (h *NarrativeHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrInvalidRequest)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	// The chat works without a report; grounding is attached when one is named.
	var report *quality.AnalysisReport
	if req.ReportFile != "" {
		var ok bool
		if report, ok = h.fetchReport(w, r, req.ReportFile); !ok {
			return
		}
	}

	h.respond(w, r, func() (*narrative.Result, error) {
		return h.narrative.Chat(r.Context(), req.Question, report)
	})
}

// fetchReport loads the named report, writing the error response on failure.
func (h *NarrativeHandler) fetchReport(w http.ResponseWriter, r *http.Request, name string) (*quality.AnalysisReport, bool) {
	if name == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("archivo_informe", "A report file name is required"))
		return nil, false
	}

	report, err := h.analysis.GetReport(r.Context(), name)
	if err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			h.errorHandler.HandleError(w, r, apierrors.ErrReportNotFound)
		} else {
			h.errorHandler.HandleError(w, r, err)
		}
		return nil, false
	}

	return report, true
}

// respond runs the generation and renders its result or error.
func (h *NarrativeHandler) respond(w http.ResponseWriter, r *http.Request, generate func() (*narrative.Result, error)) {
	result, err := generate()
	if err != nil {
		if errors.Is(err, services.ErrNarrativeDisabled) {
			h.errorHandler.HandleError(w, r, apierrors.ErrNarrativeUnavailable)
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}
