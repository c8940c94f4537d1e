package narrative

import (
	"fmt"
	"strings"

	"sheetqa/internal/quality"
)

// Prompt templates for each narrative task. All answers are requested in
// Spanish, the working language of the reports.
const (
	qualityReportTemplate = `Eres un experto analista de datos que trabaja en una institución de educación superior. Analiza la siguiente información sobre un archivo Excel y proporciona un reporte detallado sobre la calidad de los datos.

INFORMACIÓN DEL ARCHIVO:
- Nombre: %s
- Número de filas: %d
- Número de columnas: %d
- Hojas: %s

ANÁLISIS REALIZADO:
%s

PROBLEMAS DETECTADOS:
%s

Proporciona un reporte en español que incluya:
1. **Resumen Ejecutivo**: Evaluación general de la calidad (Excelente/Buena/Regular/Mala)
2. **Problemas Identificados**: Lista detallada de issues encontrados
3. **Recomendaciones**: Acciones específicas para mejorar la calidad
4. **Priorización**: Qué problemas resolver primero

Sé específico y práctico en tus recomendaciones.`

	explainProblemTemplate = `Explica de manera clara y pedagógica el siguiente problema de calidad de datos:

PROBLEMA: %s
CONTEXTO: %s
IMPACTO: %s

Proporciona:
1. **¿Qué significa este problema?**: Explicación simple
2. **¿Por qué es importante?**: Consecuencias de no solucionarlo
3. **¿Cómo solucionarlo?**: Pasos específicos para corregirlo
4. **Ejemplo práctico**: Un caso concreto de cómo aplicar la solución

Responde en español de manera clara y práctica.`

	cleaningSuggestionsTemplate = `Basándote en el análisis de calidad de datos, genera sugerencias específicas de limpieza para este archivo Excel:

DATOS DEL ARCHIVO:
%s

PROBLEMAS DETECTADOS:
%s

Proporciona sugerencias concretas organizadas por:
1. **Limpieza Inmediata**: Problemas críticos que deben resolverse ahora
2. **Mejoras Estructurales**: Cambios para mejorar la organización
3. **Validaciones**: Reglas para mantener la calidad a futuro
4. **Automatización**: Procesos que se pueden automatizar

Cada sugerencia debe incluir:
- Descripción clara del problema
- Pasos específicos para solucionarlo
- Herramientas recomendadas (Excel, Python, etc.)

Responde en español de manera práctica y accionable.`

	chatTemplate = `Eres un asistente especializado en análisis de datos Excel. El usuario tiene una pregunta sobre su archivo.

%s

PREGUNTA DEL USUARIO: %s

Responde de manera clara, práctica y en español. Si la pregunta no está relacionada con análisis de datos, redirige amablemente hacia temas de Excel y calidad de datos.`
)

// severityImpacts maps a problem's severity to the impact wording used in the
// explanation prompt.
var severityImpacts = map[quality.Severity]string{
	quality.SeverityAlta:  "Puede causar errores significativos en análisis y decisiones",
	quality.SeverityMedia: "Puede afectar la precisión de los resultados",
	quality.SeverityBaja:  "Impacto menor pero recomendable corregir",
}

// QualityReportPrompt builds the full quality-report prompt from one analysis
// run.
func QualityReportPrompt(report *quality.AnalysisReport) string {
	names := make([]string, 0, len(report.Sheets))
	for _, s := range report.Sheets {
		names = append(names, s.Name)
	}
	return fmt.Sprintf(qualityReportTemplate,
		report.Workbook,
		report.Summary.TotalRows,
		report.Summary.TotalColumns,
		strings.Join(names, ", "),
		TechnicalSummary(report),
		quality.RenderSummary(report),
	)
}

// ExplainProblemPrompt builds the prompt explaining a single detected problem.
func ExplainProblemPrompt(p quality.Problem, fileContext string) string {
	impact, ok := severityImpacts[p.Severity]
	if !ok {
		impact = "Impacto variable"
	}
	context := fmt.Sprintf("Tipo: %s, Severidad: %s. %s", p.Kind, p.Severity, fileContext)
	return fmt.Sprintf(explainProblemTemplate, p.Description, context, impact)
}

// CleaningSuggestionsPrompt builds the cleaning-suggestions prompt.
func CleaningSuggestionsPrompt(report *quality.AnalysisReport) string {
	info := fmt.Sprintf("- Nombre: %s\n- Hojas: %d\n- Puntuación de calidad: %.1f/100",
		report.Workbook, len(report.Sheets), report.Score)
	return fmt.Sprintf(cleaningSuggestionsTemplate, info, quality.RenderSummary(report))
}

// ChatPrompt builds the interactive-chat prompt. The report is optional: with
// no analyzed file the question stands alone.
func ChatPrompt(question string, report *quality.AnalysisReport) string {
	fileContext := ""
	if report != nil {
		fileContext = fmt.Sprintf("INFORMACIÓN DEL ARCHIVO ACTUAL:\n- Nombre: %s\n- Hojas: %d\n- Hojas con datos: %d",
			report.Workbook, len(report.Sheets), report.Summary.SheetsAnalyzed)
	}
	return fmt.Sprintf(chatTemplate, fileContext, question)
}

// TechnicalSummary condenses the run's headline numbers for prompt grounding.
func TechnicalSummary(report *quality.AnalysisReport) string {
	return fmt.Sprintf(`Análisis técnico completado:
- Hojas analizadas: %d
- Total de filas: %d
- Total de columnas: %d
- Problemas encontrados: %d
- Puntuación de calidad: %.1f/100`,
		report.Summary.SheetsAnalyzed,
		report.Summary.TotalRows,
		report.Summary.TotalColumns,
		report.Summary.TotalProblems,
		report.Score,
	)
}
