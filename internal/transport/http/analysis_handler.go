package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "sheetqa/internal/errors"
	customMiddleware "sheetqa/internal/middleware"
	"sheetqa/internal/quality"
	"sheetqa/internal/services"
	"sheetqa/internal/workbook"
)

// AnalysisHandler handles upload and report HTTP requests with RFC 7807 errors
type AnalysisHandler struct {
	service      AnalysisServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	queryParams  *customMiddleware.QueryParamValidator
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service AnalysisServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalysisHandler {
	return &AnalysisHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "analysis")),
		errorHandler: errorHandler,
		queryParams:  customMiddleware.NewQueryParamValidator(logger, errorHandler),
	}
}

// Routes returns the analysis routes
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.ContentTypeValidator("multipart/form-data"))
		r.Post("/", h.Upload)
		r.Post("/upload", h.Upload)
	})
	r.Get("/reports", h.ListReports)

	r.Route("/reports/{name}", func(r chi.Router) {
		r.Use(h.ReportCtx)
		r.Get("/", h.GetReport)
		r.Get("/summary", h.GetReportSummary)
	})

	return r
}

// ReportCtx validates the report name parameter
func (h *AnalysisHandler) ReportCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if name == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("name", "Report name is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Upload handles POST /api/analysis/upload with a multipart form file
func (h *AnalysisHandler) Upload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	limit := h.service.MaxUploadBytes()
	if limit <= 0 {
		limit = workbook.MaxUploadSize
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrInvalidRequest)
		return
	}

	file, header, err := r.FormFile("archivo")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("archivo", "A file is required in the 'archivo' form field"))
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "processing upload",
		slog.String("request_id", reqID),
		slog.String("file", header.Filename),
		slog.Int64("size", header.Size),
	)

	result, err := h.service.AnalyzeUpload(r.Context(), header.Filename, file, header.Size)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status":          "success",
		"archivo_informe": result.ReportFile,
		"informe":         result.Report,
	})
}

// ListReports handles GET /api/analysis/reports. The optional "limite" query
// parameter caps how many reports are returned; "orden" flips the default
// newest-first ordering.
func (h *AnalysisHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.queryParams.ValidateInt(w, r, "limite", 1, 1000, 0)
	if !ok {
		return
	}
	order, ok := h.queryParams.ValidateEnum(w, r, "orden", []string{"recientes", "antiguos"}, "recientes")
	if !ok {
		return
	}

	reports, err := h.service.ListReports(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoReportsFound) {
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusNotFound,
				"NO_REPORTS_FOUND",
				"No reports available",
			))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if order == "antiguos" {
		for i, j := 0, len(reports)-1; i < j; i, j = i+1, j-1 {
			reports[i], reports[j] = reports[j], reports[i]
		}
	}
	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   reports,
		"count":  len(reports),
	})
}

// GetReport handles GET /api/analysis/reports/{name}
func (h *AnalysisHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.loadReport(w, r)
	if err != nil {
		return
	}
	render.JSON(w, r, report)
}

// GetReportSummary handles GET /api/analysis/reports/{name}/summary,
// returning the plain-text executive rendering of a stored report.
func (h *AnalysisHandler) GetReportSummary(w http.ResponseWriter, r *http.Request) {
	report, err := h.loadReport(w, r)
	if err != nil {
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(quality.RenderSummary(report)))
}

// loadReport fetches the report named in the URL, writing the error response
// itself when the lookup fails.
func (h *AnalysisHandler) loadReport(w http.ResponseWriter, r *http.Request) (*quality.AnalysisReport, error) {
	name := chi.URLParam(r, "name")

	report, err := h.service.GetReport(r.Context(), name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReportNotFound):
			h.errorHandler.HandleError(w, r, apierrors.ErrReportNotFound)
		case errors.Is(err, services.ErrInvalidInput):
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("name", "Invalid report name"))
		default:
			h.errorHandler.HandleError(w, r, err)
		}
		return nil, err
	}

	return report, nil
}
