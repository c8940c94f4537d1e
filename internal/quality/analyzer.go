package quality

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Analyzer runs the full quality assessment over a workbook. It carries no
// per-run state: every Analyze call works on locals and returns a freshly
// built report, so a single Analyzer is safe for concurrent use.
type Analyzer struct {
	logger         *slog.Logger
	now            func() time.Time
	maxConcurrency int

	// sheetFn performs the actual per-sheet computation. Overridable for
	// tests, like the clock.
	sheetFn func(context.Context, Sheet) SheetReport
}

// NewAnalyzer creates an analyzer with the given logger. A nil logger falls
// back to slog.Default().
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Analyzer{
		logger:         logger,
		now:            time.Now,
		maxConcurrency: 4,
	}
	a.sheetFn = a.computeSheet
	return a
}

// SetConcurrency bounds how many sheets are analyzed in parallel.
func (a *Analyzer) SetConcurrency(n int) {
	if n > 0 {
		a.maxConcurrency = n
	}
}

// SetClock overrides the time source used by age checks. Intended for tests.
func (a *Analyzer) SetClock(now func() time.Time) {
	if now != nil {
		a.now = now
	}
}

// Analyze assesses every data-carrying sheet of the workbook and merges the
// per-sheet results into one report. It never fails: a sheet whose analysis
// blows up gets the fallback metric tuple and its error recorded, and an
// empty or fully failed workbook still yields a scored report.
func (a *Analyzer) Analyze(ctx context.Context, wb *Workbook) *AnalysisReport {
	start := a.now()

	var sheets []Sheet
	for _, sheet := range wb.Sheets {
		if sheet.HasData {
			sheets = append(sheets, sheet)
		}
	}

	a.logger.InfoContext(ctx, "starting quality analysis",
		"workbook", wb.Name,
		"sheets", len(wb.Sheets),
		"sheets_with_data", len(sheets),
	)

	reports := make([]SheetReport, len(sheets))

	// Sheets share nothing, and the merge below is commutative, so sheet
	// order never affects the aggregate.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxConcurrency)
	for i, sheet := range sheets {
		g.Go(func() error {
			reports[i] = a.analyzeSheet(gctx, sheet)
			return nil
		})
	}
	// Workers only write their own slot and return nil; Wait is for joining.
	_ = g.Wait()

	report := a.aggregate(wb.Name, reports)

	a.logger.InfoContext(ctx, "quality analysis completed",
		"workbook", wb.Name,
		"sheets_analyzed", report.Summary.SheetsAnalyzed,
		"problems", report.Summary.TotalProblems,
		"score", report.Score,
		"duration", time.Since(start).String(),
	)

	return report
}

// analyzeSheet produces the full per-sheet report. A panic anywhere in the
// sheet's analysis is converted into the fallback metric tuple rather than
// aborting the run.
func (a *Analyzer) analyzeSheet(ctx context.Context, sheet Sheet) (report SheetReport) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.WarnContext(ctx, "sheet analysis failed, applying fallback metrics",
				"sheet", sheet.Name,
				"panic", fmt.Sprint(r),
			)
			report = SheetReport{
				Name: sheet.Name,
				Dimensions: Dimensions{
					Rows:    sheet.Table.RowCount(),
					Columns: sheet.Table.ColumnCount(),
				},
				Metrics:      FallbackMetrics(),
				FallbackUsed: true,
				Error:        fmt.Sprintf("error al analizar hoja %s: %v", sheet.Name, r),
			}
		}
	}()

	return a.sheetFn(ctx, sheet)
}

// computeSheet runs the histograms, metrics and problem rules over one sheet.
func (a *Analyzer) computeSheet(ctx context.Context, sheet Sheet) (report SheetReport) {
	t := &sheet.Table

	report = SheetReport{
		Name: sheet.Name,
		Dimensions: Dimensions{
			Rows:    t.RowCount(),
			Columns: t.ColumnCount(),
		},
		TypeHistogram: typeHistogram(t),
	}
	report.NullHistogram, report.NullTotal = nullHistogram(t)
	report.Metrics = ComputeMetrics(t)
	report.Problems = DetectProblems(t, a.now())

	a.logger.DebugContext(ctx, "sheet analyzed",
		"sheet", sheet.Name,
		"rows", report.Dimensions.Rows,
		"columns", report.Dimensions.Columns,
		"problems", len(report.Problems),
	)

	return report
}

// aggregate merges per-sheet reports into the global summary, the mean
// metrics and the overall score.
func (a *Analyzer) aggregate(name string, reports []SheetReport) *AnalysisReport {
	summary := Summary{
		SheetsAnalyzed: len(reports),
		BySeverity: map[Severity]int{
			SeverityAlta:  0,
			SeverityMedia: 0,
			SeverityBaja:  0,
		},
	}

	var computed []QualityMetrics
	for _, r := range reports {
		summary.TotalProblems += len(r.Problems)
		for _, p := range r.Problems {
			summary.BySeverity[p.Severity]++
		}
		if r.FallbackUsed {
			continue
		}
		summary.TotalRows += r.Dimensions.Rows
		summary.TotalColumns += r.Dimensions.Columns
		computed = append(computed, r.Metrics)
	}

	aggregate := FallbackMetrics()
	if len(computed) > 0 {
		var sum QualityMetrics
		for _, m := range computed {
			sum.Completeness += m.Completeness
			sum.Accuracy += m.Accuracy
			sum.Uniqueness += m.Uniqueness
			sum.Consistency += m.Consistency
		}
		n := float64(len(computed))
		aggregate = QualityMetrics{
			Completeness: sum.Completeness / n,
			Accuracy:     sum.Accuracy / n,
			Uniqueness:   sum.Uniqueness / n,
			Consistency:  sum.Consistency / n,
		}
	}

	return &AnalysisReport{
		Workbook:  name,
		Sheets:    reports,
		Summary:   summary,
		Aggregate: aggregate,
		Score:     OverallScore(aggregate, summary.BySeverity[SeverityAlta]),
	}
}

// OverallScore applies the dimension weights and the critical-problem
// penalty: every alta problem shaves 5% off the weighted score, capped at a
// 30% total reduction.
func OverallScore(m QualityMetrics, altaCount int) float64 {
	weighted := WeightCompleteness*m.Completeness +
		WeightAccuracy*m.Accuracy +
		WeightUniqueness*m.Uniqueness +
		WeightConsistency*m.Consistency

	penalty := CriticalPenaltyStep * float64(altaCount)
	if penalty > CriticalPenaltyCap {
		penalty = CriticalPenaltyCap
	}

	return clamp100(weighted * (1 - penalty))
}

func typeHistogram(t *Table) map[string]int {
	hist := make(map[string]int, 3)
	for _, col := range t.Columns {
		hist[col.Kind.String()]++
	}
	return hist
}

// nullHistogram counts null-like cells per column, mirroring the classifier
// so the histogram and the completeness metric always agree.
func nullHistogram(t *Table) (map[string]int, int) {
	hist := make(map[string]int, len(t.Columns))
	total := 0
	for i, col := range t.Columns {
		missing := 0
		for _, cell := range t.ColumnCells(i) {
			if Classify(cell, col.Kind).Problematic() {
				missing++
			}
		}
		hist[col.Name] = missing
		total += missing
	}
	return hist, total
}
