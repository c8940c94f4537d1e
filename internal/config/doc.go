// Package config provides centralized configuration management.
// It handles loading configuration from multiple sources, validation, and
// provides a type-safe API for accessing configuration values throughout the
// application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern SHEETQA_* for namespacing:
//
//	SHEETQA_SERVER_PORT=8080
//	SHEETQA_OLLAMA_URL=http://localhost:11434
//	SHEETQA_OLLAMA_MODEL=llama3.2
//	SHEETQA_LOGGING_LEVEL=info
//	SHEETQA_ANALYSIS_MAX_CONCURRENCY=4
//
// # Path Management
//
// Relative directories (uploads, reports, logs) are anchored under
// Paths.BaseDir and created at load time, so the rest of the application can
// assume they exist.
//
// # Validation
//
// All configuration is validated at load time to ensure required fields are
// present and values are within acceptable ranges.
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
