package services

import "errors"

// Service layer errors
var (
	// Report errors
	ErrNoReportsFound = errors.New("no reports found")
	ErrReportNotFound = errors.New("report not found")

	// Upload errors
	ErrNoFilesFound    = errors.New("no files found")
	ErrFileNotFound    = errors.New("file not found")
	ErrInvalidFileType = errors.New("invalid file type")

	// Narrative errors
	ErrNarrativeDisabled    = errors.New("narrative generation is disabled")
	ErrNarrativeUnavailable = errors.New("narrative backend unavailable")

	// General errors
	ErrInvalidInput       = errors.New("invalid input")
	ErrOperationTimeout   = errors.New("operation timed out")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
