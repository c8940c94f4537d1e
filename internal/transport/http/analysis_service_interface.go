package http

import (
	"context"
	"io"

	"sheetqa/internal/narrative"
	"sheetqa/internal/quality"
	"sheetqa/internal/services"
)

// AnalysisServiceInterface defines the contract the analysis handler needs.
// Keeping it local to the transport layer lets tests substitute the service.
type AnalysisServiceInterface interface {
	AnalyzeUpload(ctx context.Context, filename string, src io.Reader, size int64) (*services.AnalysisResult, error)
	ListReports(ctx context.Context) ([]services.ReportInfo, error)
	GetReport(ctx context.Context, name string) (*quality.AnalysisReport, error)
	MaxUploadBytes() int64
}

// NarrativeServiceInterface defines the contract the narrative handler needs.
type NarrativeServiceInterface interface {
	Enabled() bool
	Status(ctx context.Context) narrative.Status
	QualityReport(ctx context.Context, report *quality.AnalysisReport) (*narrative.Result, error)
	ExplainProblem(ctx context.Context, p quality.Problem, fileContext string) (*narrative.Result, error)
	CleaningSuggestions(ctx context.Context, report *quality.AnalysisReport) (*narrative.Result, error)
	Chat(ctx context.Context, question string, report *quality.AnalysisReport) (*narrative.Result, error)
}
