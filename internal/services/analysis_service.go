package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sheetqa/internal/config"
	apierrors "sheetqa/internal/errors"
	"sheetqa/internal/quality"
	"sheetqa/internal/workbook"
)

// AnalysisService runs quality analyses over uploaded workbooks and manages
// the stored JSON reports.
type AnalysisService struct {
	paths          config.PathsConfig
	maxUploadBytes int64
	loader         *workbook.Loader
	analyzer       *quality.Analyzer
	logger         *slog.Logger
	now            func() time.Time
}

// ReportInfo describes one stored report file.
type ReportInfo struct {
	Name       string    `json:"nombre"`
	SizeBytes  int64     `json:"tamano_bytes"`
	ModifiedAt time.Time `json:"modificado"`
}

// AnalysisResult couples a finished analysis with the name of its stored
// report file.
type AnalysisResult struct {
	Report     *quality.AnalysisReport `json:"informe"`
	ReportFile string                  `json:"archivo_informe"`
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(cfg *config.Config, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}

	analyzer := quality.NewAnalyzer(logger)
	analyzer.SetConcurrency(cfg.Analysis.MaxConcurrency)

	return &AnalysisService{
		paths:          cfg.Paths,
		maxUploadBytes: cfg.Analysis.MaxUploadBytes,
		loader:         workbook.NewLoader(logger),
		analyzer:       analyzer,
		logger:         logger.With(slog.String("component", "analysis_service")),
		now:            time.Now,
	}
}

// MaxUploadBytes returns the configured upload size cap.
func (s *AnalysisService) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// SetClock overrides the wall clock used for timestamps and age checks.
func (s *AnalysisService) SetClock(now func() time.Time) {
	s.now = now
	s.analyzer.SetClock(now)
}

// AnalyzeUpload validates and persists an uploaded file, runs the analysis
// and stores the resulting report as JSON.
func (s *AnalysisService) AnalyzeUpload(ctx context.Context, filename string, src io.Reader, size int64) (*AnalysisResult, error) {
	if err := workbook.ValidateUpload(filename, size, s.maxUploadBytes); err != nil {
		return nil, err
	}

	stamp := s.now().Format("20060102_150405")
	stored := filepath.Join(s.paths.UploadsDir, stamp+"_"+sanitizeFilename(filename))

	if err := s.saveUpload(stored, src); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "upload stored",
		slog.String("file", filename),
		slog.String("path", stored),
		slog.Int64("size", size),
	)

	report, err := s.AnalyzeFile(ctx, stored)
	if err != nil {
		return nil, err
	}
	// Reports are keyed by the original upload name, not the storage path.
	report.Workbook = filename

	reportFile, err := s.saveReport(report, filename, stamp)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "analysis completed",
		slog.String("file", filename),
		slog.String("report", reportFile),
		slog.Float64("score", report.Score),
		slog.Int("problems", report.Summary.TotalProblems),
	)

	return &AnalysisResult{Report: report, ReportFile: reportFile}, nil
}

// AnalyzeFile loads a workbook from disk and runs the full analysis.
func (s *AnalysisService) AnalyzeFile(ctx context.Context, path string) (*quality.AnalysisReport, error) {
	var (
		wb  *quality.Workbook
		err error
	)

	if workbook.IsCSV(path) {
		wb, err = s.loader.LoadCSV(path)
	} else {
		wb, err = s.loader.Load(path)
	}
	if err != nil {
		return nil, apierrors.NewParsingError(fmt.Sprintf("no se pudo leer %s", filepath.Base(path)), err)
	}

	return s.analyzer.Analyze(ctx, wb), nil
}

// ListReports returns the stored reports, newest first.
func (s *AnalysisService) ListReports(ctx context.Context) ([]ReportInfo, error) {
	entries, err := os.ReadDir(s.paths.ReportsDir)
	if err != nil {
		return nil, apierrors.NewStorageError("cannot read reports directory", err)
	}

	reports := make([]ReportInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		reports = append(reports, ReportInfo{
			Name:       entry.Name(),
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}

	if len(reports) == 0 {
		return nil, ErrNoReportsFound
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].ModifiedAt.After(reports[j].ModifiedAt)
	})

	return reports, nil
}

// GetReport loads a stored report by file name.
func (s *AnalysisService) GetReport(ctx context.Context, name string) (*quality.AnalysisReport, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return nil, ErrInvalidInput
	}

	data, err := os.ReadFile(filepath.Join(s.paths.ReportsDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrReportNotFound
		}
		return nil, apierrors.NewStorageError("cannot read report", err)
	}

	var report quality.AnalysisReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, apierrors.NewParsingError("stored report is corrupted", err)
	}

	return &report, nil
}

// saveUpload copies the uploaded content to the uploads directory.
func (s *AnalysisService) saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return apierrors.NewStorageError("cannot store upload", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return apierrors.NewStorageError("cannot store upload", err)
	}

	return nil
}

// saveReport writes the analysis report as indented JSON.
func (s *AnalysisService) saveReport(report *quality.AnalysisReport, filename, stamp string) (string, error) {
	base := strings.TrimSuffix(sanitizeFilename(filename), filepath.Ext(filename))
	name := fmt.Sprintf("informe_%s_%s.json", base, stamp)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", apierrors.NewStorageError("cannot encode report", err)
	}

	if err := os.WriteFile(filepath.Join(s.paths.ReportsDir, name), data, 0644); err != nil {
		return "", apierrors.NewStorageError("cannot write report", err)
	}

	return name, nil
}

// sanitizeFilename strips path components and characters unsafe for storage.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
