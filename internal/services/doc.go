// Package services implements the business logic layer of the application.
// It provides a clean separation between HTTP handlers and the analysis
// engine, ensuring that business rules are centralized and testable.
//
// # Architecture
//
// Services follow these architectural principles:
//
//	1. Interface-driven design for testability
//	2. Context propagation for cancellation and tracing
//	3. Dependency injection for loose coupling
//	4. Domain-focused methods that encapsulate business rules
//
// # Service Layer Responsibilities
//
// The service layer is responsible for:
//
//	- Upload validation and persistence
//	- Running workbook analyses and storing their reports
//	- External API integration (the Ollama narrative backend)
//	- Error handling and transformation
//
// # Common Service Pattern
//
// Services typically follow this structure:
//
//	type ServiceName struct {
//	    deps   Dependencies
//	    logger *slog.Logger
//	}
//
//	func NewServiceName(deps Dependencies, logger *slog.Logger) *ServiceName {
//	    return &ServiceName{
//	        deps:   deps,
//	        logger: logger,
//	    }
//	}
package services
