package quality

import (
	"fmt"
	"strings"
)

// RenderSummary turns a report into the plain-text digest handed to the
// narrative generator. Counts and percentages only, no markup.
func RenderSummary(report *AnalysisReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "RESUMEN DE ANÁLISIS:\n")
	fmt.Fprintf(&b, "- Total de hojas analizadas: %d\n", report.Summary.SheetsAnalyzed)
	fmt.Fprintf(&b, "- Total de filas: %d\n", report.Summary.TotalRows)
	fmt.Fprintf(&b, "- Total de columnas: %d\n", report.Summary.TotalColumns)
	fmt.Fprintf(&b, "- Total de problemas encontrados: %d\n", report.Summary.TotalProblems)
	fmt.Fprintf(&b, "- Problemas de severidad alta: %d\n", report.Summary.BySeverity[SeverityAlta])
	fmt.Fprintf(&b, "- Problemas de severidad media: %d\n", report.Summary.BySeverity[SeverityMedia])
	fmt.Fprintf(&b, "- Problemas de severidad baja: %d\n", report.Summary.BySeverity[SeverityBaja])
	fmt.Fprintf(&b, "- Puntuación de calidad: %.1f/100\n", report.Score)

	fmt.Fprintf(&b, "\nMÉTRICAS DE CALIDAD ESPECÍFICAS:\n")
	writeMetricLine(&b, "Completitud", report.Aggregate.Completeness)
	writeMetricLine(&b, "Exactitud", report.Aggregate.Accuracy)
	writeMetricLine(&b, "Unicidad", report.Aggregate.Uniqueness)
	writeMetricLine(&b, "Consistencia", report.Aggregate.Consistency)

	wroteHeader := false
	for _, sheet := range report.Sheets {
		if len(sheet.Problems) == 0 && sheet.Error == "" {
			continue
		}
		if !wroteHeader {
			fmt.Fprintf(&b, "\nPROBLEMAS DETALLADOS POR HOJA:\n")
			wroteHeader = true
		}
		fmt.Fprintf(&b, "\nHoja '%s':\n", sheet.Name)
		if sheet.Error != "" {
			fmt.Fprintf(&b, "- %s\n", sheet.Error)
		}
		for _, p := range sheet.Problems {
			fmt.Fprintf(&b, "- %s (Severidad: %s)\n", p.Description, p.Severity)
		}
	}

	return b.String()
}

func writeMetricLine(b *strings.Builder, label string, value float64) {
	fmt.Fprintf(b, "- %s: %.1f%% (%% de no cumplimiento: %.1f%%)\n", label, value, 100-value)
}
