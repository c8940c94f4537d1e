// Package quality implements the rule-based data-quality assessment engine.
//
// The engine ingests an immutable workbook snapshot (independent sheets of
// rows by named columns) and produces a structured assessment: per-sheet and
// aggregate scores across four dimensions (completitud, exactitud, unicidad,
// consistencia), a ranked list of detected problems with severity, and a
// single overall quality score in [0,100].
//
// # Architecture
//
// Data flows strictly downward through five stages:
//
//  1. classifier.go: categorizes each cell as valid, null, empty,
//     placeholder or out-of-range, feeding every downstream metric
//  2. roles.go: maps a column name to at most one semantic role via an
//     ordered, case-insensitive rule table
//  3. metrics.go: the four per-sheet quality scores, plus the whole-sheet
//     severe-pattern penalty
//  4. problems.go: eight independently evaluated detector rules, each
//     emitting at most one aggregate record per column per sheet
//  5. analyzer.go: the orchestrator, merging per-sheet results into the
//     global summary and the weighted overall score
//
// The classifier and the role matcher are the single sources of truth for
// cell counting and column-name matching; the metrics engine and the problem
// detector both go through them so their tallies never diverge.
//
// # Error model
//
// Analysis is best-effort and never aborts a run. A sheet whose analysis
// panics gets the fixed fallback metric tuple and its error recorded; a
// detector rule that panics becomes an error_analisis problem while the
// remaining rules still run. The report always comes back scored.
//
// # Usage Example
//
//	analyzer := quality.NewAnalyzer(logger)
//	report := analyzer.Analyze(ctx, workbook)
//	fmt.Println(quality.RenderSummary(report))
package quality
