package app

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetqa/internal/infrastructure"
)

// setupTestEnvironment points all writable paths at a temp directory and
// quiets logging. Ollama is disabled so no test touches the network.
func setupTestEnvironment(t *testing.T) {
	t.Helper()
	infrastructure.ResetLoggerForTesting()

	t.Setenv("SHEETQA_PATHS_BASE_DIR", t.TempDir())
	t.Setenv("SHEETQA_SERVER_PORT", "18085")
	t.Setenv("SHEETQA_LOGGING_LEVEL", "error")
	t.Setenv("SHEETQA_LOGGING_OUTPUT", "console")
	t.Setenv("SHEETQA_OLLAMA_ENABLED", "false")
}

func TestNewApplication(t *testing.T) {
	t.Run("successful initialization", func(t *testing.T) {
		setupTestEnvironment(t)

		app, err := NewApplication()
		require.NoError(t, err)
		require.NotNil(t, app)

		assert.NotNil(t, app.Config)
		assert.NotNil(t, app.Logger)
		assert.NotNil(t, app.Router)
		assert.NotNil(t, app.Server)
		assert.NotNil(t, app.AnalysisService)
		assert.NotNil(t, app.NarrativeService)
		assert.NotNil(t, app.HealthService)
		assert.False(t, app.NarrativeService.Enabled())
	})

	t.Run("invalid config is rejected", func(t *testing.T) {
		setupTestEnvironment(t)
		t.Setenv("SHEETQA_SERVER_PORT", "-1")

		app, err := NewApplication()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "config validation failed")
		assert.Nil(t, app)
	})
}

func TestApplication_Routes(t *testing.T) {
	setupTestEnvironment(t)

	app, err := NewApplication()
	require.NoError(t, err)

	server := httptest.NewServer(app.Router)
	defer server.Close()

	t.Run("health endpoints", func(t *testing.T) {
		for _, path := range []string{"/api/health", "/api/health/live", "/api/health/ready", "/api/version", "/api/stats"} {
			resp, err := http.Get(server.URL + path)
			require.NoError(t, err, path)
			resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		}
	})

	t.Run("request id header is set", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/health")
		require.NoError(t, err)
		resp.Body.Close()
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	})

	t.Run("metrics endpoint exposes registry", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "go_goroutines")
		assert.Contains(t, string(body), "sheetqa_http_requests_total")
	})

	t.Run("unknown route returns problem details", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/nope")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "application/problem+json")
	})

	t.Run("listing reports before any upload returns 404", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/analysis/reports")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("narrative status reports disabled", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/narrative/status")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "disabled")
	})
}

func TestApplication_UploadFlow(t *testing.T) {
	setupTestEnvironment(t)

	app, err := NewApplication()
	require.NoError(t, err)

	server := httptest.NewServer(app.Router)
	defer server.Close()

	var buf strings.Builder
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("archivo", "clientes.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("Nombres,Edad,Email\nAna,20,ana@mail.com\nLuis,21,luis@mail.com\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	resp, err := http.Post(server.URL+"/api/analysis/upload", writer.FormDataContentType(), strings.NewReader(buf.String()))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "archivo_informe")
	assert.Contains(t, string(body), "puntuacion_calidad")

	// The report is now listable.
	listResp, err := http.Get(server.URL + "/api/analysis/reports")
	require.NoError(t, err)
	listResp.Body.Close()
	assert.Equal(t, http.StatusOK, listResp.StatusCode)
}

func TestApplication_createServer(t *testing.T) {
	setupTestEnvironment(t)

	app, err := NewApplication()
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf(":%d", app.Config.Server.Port), app.Server.Addr)
	assert.Equal(t, app.Router, app.Server.Handler)
	assert.Equal(t, app.Config.Server.ReadTimeout, app.Server.ReadTimeout)
	assert.Equal(t, app.Config.Server.WriteTimeout, app.Server.WriteTimeout)
	assert.Equal(t, app.Config.Server.IdleTimeout, app.Server.IdleTimeout)
}

func TestApplication_getCORSConfig(t *testing.T) {
	setupTestEnvironment(t)

	app, err := NewApplication()
	require.NoError(t, err)

	cfg := app.getCORSConfig()
	assert.Contains(t, cfg.AllowedOrigins, fmt.Sprintf("http://localhost:%d", app.Config.Server.Port))
	assert.Contains(t, cfg.AllowedMethods, "GET")
	assert.Contains(t, cfg.AllowedMethods, "POST")
	assert.Contains(t, cfg.AllowedHeaders, "Content-Type")
	assert.True(t, cfg.AllowCredentials)
	assert.Equal(t, 300, cfg.MaxAge)
}

func TestApplication_performStartupHealthCheck(t *testing.T) {
	setupTestEnvironment(t)

	app, err := NewApplication()
	require.NoError(t, err)

	t.Run("directories present", func(t *testing.T) {
		assert.NoError(t, app.performStartupHealthCheck(context.Background()))
	})

	t.Run("missing reports directory", func(t *testing.T) {
		require.NoError(t, os.RemoveAll(app.Config.Paths.ReportsDir))
		err := app.performStartupHealthCheck(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not accessible")
	})
}

func TestApplication_StartStop(t *testing.T) {
	setupTestEnvironment(t)

	app, err := NewApplication()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, app.Start(ctx, cancel))

	// Wait for the listener to come up.
	url := fmt.Sprintf("http://localhost:%d/api/health", app.Config.Server.Port)
	var healthy bool
	for i := 0; i < 20; i++ {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			healthy = resp.StatusCode == http.StatusOK
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	assert.True(t, healthy, "server never became healthy")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	assert.NoError(t, app.Stop(shutdownCtx))
}
