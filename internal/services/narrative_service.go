package services

import (
	"context"
	"log/slog"

	"sheetqa/internal/narrative"
	"sheetqa/internal/quality"
)

// NarrativeService wraps the Ollama-backed narrative client with the prompt
// catalog for the different narrative kinds.
type NarrativeService struct {
	client  *narrative.Client
	enabled bool
	logger  *slog.Logger
}

// NewNarrativeService creates a new narrative service
func NewNarrativeService(client *narrative.Client, enabled bool, logger *slog.Logger) *NarrativeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NarrativeService{
		client:  client,
		enabled: enabled,
		logger:  logger.With(slog.String("component", "narrative_service")),
	}
}

// Enabled reports whether narrative generation is configured.
func (s *NarrativeService) Enabled() bool {
	return s.enabled && s.client != nil
}

// Status checks connectivity and model availability of the backend.
func (s *NarrativeService) Status(ctx context.Context) narrative.Status {
	if !s.Enabled() {
		return narrative.Status{Error: ErrNarrativeDisabled.Error()}
	}
	return s.client.Health(ctx)
}

// QualityReport generates the executive quality narrative for a report.
func (s *NarrativeService) QualityReport(ctx context.Context, report *quality.AnalysisReport) (*narrative.Result, error) {
	if !s.Enabled() {
		return nil, ErrNarrativeDisabled
	}

	prompt := narrative.QualityReportPrompt(report)
	grounding := narrative.TechnicalSummary(report)

	return s.generate(ctx, "quality_report", prompt, grounding)
}

// ExplainProblem generates a plain-language explanation of one problem.
func (s *NarrativeService) ExplainProblem(ctx context.Context, p quality.Problem, fileContext string) (*narrative.Result, error) {
	if !s.Enabled() {
		return nil, ErrNarrativeDisabled
	}

	prompt := narrative.ExplainProblemPrompt(p, fileContext)
	return s.generate(ctx, "explain_problem", prompt, "")
}

// CleaningSuggestions generates concrete cleaning steps for a report.
func (s *NarrativeService) CleaningSuggestions(ctx context.Context, report *quality.AnalysisReport) (*narrative.Result, error) {
	if !s.Enabled() {
		return nil, ErrNarrativeDisabled
	}

	prompt := narrative.CleaningSuggestionsPrompt(report)
	grounding := narrative.TechnicalSummary(report)

	return s.generate(ctx, "cleaning_suggestions", prompt, grounding)
}

// Chat answers a free-form question, grounded on the report when present.
func (s *NarrativeService) Chat(ctx context.Context, question string, report *quality.AnalysisReport) (*narrative.Result, error) {
	if !s.Enabled() {
		return nil, ErrNarrativeDisabled
	}
	if question == "" {
		return nil, ErrInvalidInput
	}

	prompt := narrative.ChatPrompt(question, report)

	var grounding string
	if report != nil {
		grounding = narrative.TechnicalSummary(report)
	}

	return s.generate(ctx, "chat", prompt, grounding)
}

func (s *NarrativeService) generate(ctx context.Context, kind, prompt, grounding string) (*narrative.Result, error) {
	result, err := s.client.Generate(ctx, prompt, grounding)
	if err != nil {
		s.logger.ErrorContext(ctx, "narrative generation failed",
			slog.String("kind", kind),
			slog.String("model", s.client.Model()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.InfoContext(ctx, "narrative generated",
		slog.String("kind", kind),
		slog.String("model", s.client.Model()),
		slog.Int("tokens", result.TokensUsed),
	)

	return result, nil
}
