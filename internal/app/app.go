package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sheetqa/internal/config"
	apierrors "sheetqa/internal/errors"
	"sheetqa/internal/infrastructure"
	customMiddleware "sheetqa/internal/middleware"
	"sheetqa/internal/narrative"
	"sheetqa/internal/services"
	transporthttp "sheetqa/internal/transport/http"
)

const (
	// Version identifies the build in health and version endpoints.
	Version = "1.0.0"
	AppName = "SheetQA"
)

// BuildTime is set at compile time via -ldflags; falls back to process start.
var BuildTime = time.Now().UTC().Format(time.RFC3339)

// Application holds all services and the HTTP server.
type Application struct {
	Config *config.Config
	Logger *slog.Logger
	Router *chi.Mux
	Server *http.Server

	AnalysisService  *services.AnalysisService
	NarrativeService *services.NarrativeService
	HealthService    *services.HealthService

	registry     *prometheus.Registry
	metrics      *customMiddleware.HTTPMetrics
	errorHandler *apierrors.ErrorHandler
}

// NewApplication creates a fully wired application: configuration is loaded,
// the logger initialized, services constructed, and the router and server set
// up. The returned Application is ready to Run.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(logger)

	app := &Application{
		Config:       cfg,
		Logger:       logger,
		errorHandler: apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices constructs the service layer from configuration.
func (a *Application) initializeServices() {
	var narrativeClient *narrative.Client
	if a.Config.Ollama.Enabled {
		narrativeClient = narrative.NewClient(a.Config.Ollama.URL, a.Config.Ollama.Model, a.Logger)
	}

	a.AnalysisService = services.NewAnalysisService(a.Config, a.Logger)
	a.NarrativeService = services.NewNarrativeService(narrativeClient, a.Config.Ollama.Enabled, a.Logger)
	a.HealthService = services.NewHealthService(Version, BuildTime, a.Config.Paths, a.NarrativeService, a.Logger)

	a.Logger.Info("services initialized",
		slog.Bool("narrative_enabled", a.Config.Ollama.Enabled),
		slog.String("ollama_model", a.Config.Ollama.Model),
		slog.String("reports_dir", a.Config.Paths.ReportsDir))
}

// setupRouter configures the chi router with middleware and routes.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = customMiddleware.NewHTTPMetrics(a.registry)

	// Request identity first so every downstream log line carries a trace ID.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.Group(func(r chi.Router) {
		r.Use(a.metrics.Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			limiter := customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			)
			r.Use(limiter.Handler)
		}

		a.setupAPIRoutes(r)
	})

	// Prometheus scrapes stay outside the logging and rate-limit group.
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes mounts all API endpoints under /api.
func (a *Application) setupAPIRoutes(r chi.Router) {
	healthHandler := transporthttp.NewHealthHandler(a.HealthService, a.Logger)
	analysisHandler := transporthttp.NewAnalysisHandler(a.AnalysisService, a.Logger, a.errorHandler)
	narrativeHandler := transporthttp.NewNarrativeHandler(a.NarrativeService, a.AnalysisService, a.Logger, a.errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(10*time.Second, a.Logger))
			r.Get("/health", healthHandler.HealthCheck)
			r.Get("/health/ready", healthHandler.ReadinessCheck)
			r.Get("/health/live", healthHandler.LivenessCheck)
			r.Get("/version", healthHandler.Version)
			r.Get("/stats", healthHandler.Stats)
		})

		// Uploads of large workbooks need the full write timeout.
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.WriteTimeout, a.Logger))
			r.Mount("/analysis", analysisHandler.Routes())
		})

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Ollama.Timeout+10*time.Second, a.Logger))
			r.Mount("/narrative", narrativeHandler.Routes())
		})
	})
}

// getCORSConfig builds the CORS policy from configuration.
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	origins := []string{
		fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
		fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
	}
	origins = append(origins, a.Config.Security.AllowedOrigins...)

	return customMiddleware.CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}
}

// createServer creates the HTTP server.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the HTTP server in the background. Server errors cancel the
// supplied context so Run can shut down cleanly.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting application",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	a.Logger.InfoContext(ctx, "application paths",
		slog.String("base_dir", a.Config.Paths.BaseDir),
		slog.String("uploads_dir", a.Config.Paths.UploadsDir),
		slog.String("reports_dir", a.Config.Paths.ReportsDir),
		slog.String("logs_dir", a.Config.Paths.LogsDir))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// performStartupHealthCheck verifies the directories the application writes to
// and the narrative backend, logging warnings without blocking startup.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	for _, dir := range []string{a.Config.Paths.UploadsDir, a.Config.Paths.ReportsDir} {
		if _, err := os.Stat(dir); err != nil {
			return fmt.Errorf("storage directory not accessible: %s: %w", dir, err)
		}
	}

	if a.NarrativeService.Enabled() {
		status := a.NarrativeService.Status(ctx)
		if !status.Connected {
			a.Logger.WarnContext(ctx, "narrative backend unreachable at startup",
				slog.String("url", a.Config.Ollama.URL))
		} else if !status.ModelAvailable {
			a.Logger.WarnContext(ctx, "narrative model not pulled",
				slog.String("model", a.Config.Ollama.Model),
				slog.Any("available", status.Models))
		}
	}

	return nil
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run runs the application until interrupted.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "context cancelled")
	}

	return a.Stop(context.Background())
}
