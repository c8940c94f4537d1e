// Package app provides application initialization and lifecycle management.
// It wires configuration loading, logging, the service layer, and the HTTP
// transport into a runnable server with graceful shutdown.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from environment and files
//	2. Initialize structured logging
//	3. Initialize services (analysis, narrative, health)
//	4. Set up the chi router with middleware and API routes
//	5. Configure the HTTP server
//
// # Usage
//
// The main entry point is typically:
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// The package handles SIGINT and SIGTERM signals: active requests are given
// the configured shutdown timeout to complete before the server exits.
//
// All initialization errors are returned to the caller. The app does not call
// os.Exit() directly, allowing the main function to control the exit process.
package app
