package quality

import (
	"fmt"
	"strings"
	"time"
)

// Thresholds and caps for the detector rules.
const (
	missingMediaThreshold = 10.0 // percent of rows
	missingAltaThreshold  = 30.0
	phoneMinLength        = 7
	phoneMaxLength        = 12
	minPlausibleAge       = 15
	maxPlausibleAge       = 80
	nearEmptyMaxCells     = 2
	maxExamples           = 5
	maxAgeExamples        = 3
)

// Column-name substrings for the fixed-expectation rules.
var (
	mandatoryColumns = [][]string{
		{"codigo programa", "codigo_programa", "programa"},
		{"estudiante"},
	}
	uniqueColumns = [][]string{
		{"documento"},
		{"codigo estudiante", "codigo_estudiante", "estudiante"},
		{"email", "correo"},
	}
	phoneColumnNames = []string{"telefono", "teléfono", "celular", "movil", "móvil", "phone"}
	emailColumnNames = []string{"email", "correo", "mail"}
	birthColumnNames = []string{"nacimiento", "birth"}
)

// detectorRule is one independently evaluated detector pass.
type detectorRule struct {
	name string
	run  func(t *Table, now time.Time) []Problem
}

var detectorRules = []detectorRule{
	{"valores_faltantes", ruleMissingValues},
	{"errores_tipograficos", ruleTypos},
	{"telefono_longitud", rulePhoneLength},
	{"campos_obligatorios", ruleMandatoryFields},
	{"valores_duplicados", ruleDuplicateKeys},
	{"edad_improbable", ruleImprobableAge},
	{"email_invalido", ruleInvalidEmail},
	{"filas_vacias", ruleEmptyRows},
}

// DetectProblems runs every rule against the table and returns the combined,
// ordered problem list. Rules never abort each other: a panicking rule is
// recorded as an error_analisis problem and the remaining rules still run.
func DetectProblems(t *Table, now time.Time) []Problem {
	if t.RowCount() == 0 || t.ColumnCount() == 0 {
		return nil
	}

	var problems []Problem
	for _, rule := range detectorRules {
		problems = append(problems, runRule(rule, t, now)...)
	}
	return problems
}

func runRule(rule detectorRule, t *Table, now time.Time) (problems []Problem) {
	defer func() {
		if r := recover(); r != nil {
			problems = []Problem{{
				Kind:        ProblemAnalysisError,
				Description: fmt.Sprintf("La regla '%s' falló durante el análisis: %v", rule.name, r),
				Severity:    SeverityAlta,
			}}
		}
	}()
	return rule.run(t, now)
}

// ruleMissingValues flags every column whose null/empty/placeholder share of
// rows exceeds 10%, alta above 30%.
func ruleMissingValues(t *Table, _ time.Time) []Problem {
	var problems []Problem
	for i, col := range t.Columns {
		missing := 0
		for _, cell := range t.ColumnCells(i) {
			if Classify(cell, col.Kind).Problematic() {
				missing++
			}
		}
		pct := 100 * float64(missing) / float64(t.RowCount())
		if pct <= missingMediaThreshold {
			continue
		}

		severity := SeverityMedia
		if pct > missingAltaThreshold {
			severity = SeverityAlta
		}
		problems = append(problems, Problem{
			Kind:        ProblemMissingValues,
			Description: fmt.Sprintf("Columna '%s' tiene %.1f%% valores faltantes o inválidos", col.Name, pct),
			Severity:    severity,
			Column:      col.Name,
			Affected:    missing,
		})
	}
	return problems
}

// ruleTypos scans every cell against the typo dictionary and emits a single
// aggregate record with suggested corrections.
func ruleTypos(t *Table, _ time.Time) []Problem {
	var examples []string
	matches := 0
	for rowIdx, row := range t.Rows {
		for colIdx, cell := range row {
			if cell.Null || colIdx >= len(t.Columns) {
				continue
			}
			fix, ok := typoCorrectionFor(cell.Value)
			if !ok {
				continue
			}
			matches++
			if len(examples) < maxExamples {
				examples = append(examples, fmt.Sprintf("fila %d, columna '%s': '%s' → '%s'",
					rowIdx+1, t.Columns[colIdx].Name, strings.TrimSpace(cell.Value), fix))
			}
		}
	}
	if matches == 0 {
		return nil
	}
	return []Problem{{
		Kind:        ProblemTypos,
		Description: fmt.Sprintf("%d errores tipográficos conocidos detectados", matches),
		Severity:    SeverityAlta,
		Affected:    matches,
		Examples:    examples,
	}}
}

// rulePhoneLength flags phone columns holding values outside [7,12] characters.
func rulePhoneLength(t *Table, _ time.Time) []Problem {
	idx := FindColumn(t.Columns, phoneColumnNames...)
	if idx < 0 {
		return nil
	}

	col := t.Columns[idx]
	var examples []string
	flagged := 0
	for _, cell := range t.ColumnCells(idx) {
		if Classify(cell, col.Kind).Problematic() {
			continue
		}
		trimmed := strings.TrimSpace(cell.Value)
		if len(trimmed) >= phoneMinLength && len(trimmed) <= phoneMaxLength {
			continue
		}
		flagged++
		if len(examples) < maxExamples {
			examples = append(examples, trimmed)
		}
	}
	if flagged == 0 {
		return nil
	}
	return []Problem{{
		Kind:        ProblemPhoneLength,
		Description: fmt.Sprintf("Columna '%s' tiene %d teléfonos con longitud anómala", col.Name, flagged),
		Severity:    SeverityMedia,
		Column:      col.Name,
		Affected:    flagged,
		Examples:    examples,
	}}
}

// ruleMandatoryFields checks the fixed set of expected-mandatory columns for
// null or empty values.
func ruleMandatoryFields(t *Table, _ time.Time) []Problem {
	var problems []Problem
	for _, candidates := range mandatoryColumns {
		idx := FindColumn(t.Columns, candidates...)
		if idx < 0 {
			continue
		}

		col := t.Columns[idx]
		missing := 0
		for _, cell := range t.ColumnCells(idx) {
			if Classify(cell, col.Kind).Problematic() {
				missing++
			}
		}
		if missing == 0 {
			continue
		}
		problems = append(problems, Problem{
			Kind:        ProblemMandatoryFields,
			Description: fmt.Sprintf("Campo obligatorio '%s' tiene %d valores vacíos", col.Name, missing),
			Severity:    SeverityAlta,
			Column:      col.Name,
			Affected:    missing,
		})
	}
	return problems
}

// ruleDuplicateKeys checks the fixed set of expected-unique columns for
// duplicated non-null values.
func ruleDuplicateKeys(t *Table, _ time.Time) []Problem {
	var problems []Problem
	for _, candidates := range uniqueColumns {
		idx := FindColumn(t.Columns, candidates...)
		if idx < 0 {
			continue
		}

		col := t.Columns[idx]
		seen := make(map[string]int)
		duplicated := 0
		var examples []string
		for _, cell := range t.ColumnCells(idx) {
			if Classify(cell, col.Kind).Problematic() {
				continue
			}
			value := strings.TrimSpace(cell.Value)
			seen[value]++
			if seen[value] == 2 && len(examples) < maxExamples {
				examples = append(examples, value)
			}
			if seen[value] > 1 {
				duplicated++
			}
		}
		if duplicated == 0 {
			continue
		}
		problems = append(problems, Problem{
			Kind:        ProblemDuplicateKeys,
			Description: fmt.Sprintf("Columna '%s' tiene %d valores duplicados", col.Name, duplicated),
			Severity:    SeverityAlta,
			Column:      col.Name,
			Affected:    duplicated,
			Examples:    examples,
		})
	}
	return problems
}

// ruleImprobableAge parses birth dates and flags ages outside [15,80] years.
func ruleImprobableAge(t *Table, now time.Time) []Problem {
	idx := FindColumn(t.Columns, birthColumnNames...)
	if idx < 0 {
		return nil
	}

	col := t.Columns[idx]
	var examples []string
	flagged := 0
	for _, cell := range t.ColumnCells(idx) {
		if Classify(cell, col.Kind).Problematic() {
			continue
		}
		birth, ok := ParseDate(cell.Value)
		if !ok {
			continue
		}
		age := yearsBetween(birth, now)
		if age >= minPlausibleAge && age <= maxPlausibleAge {
			continue
		}
		flagged++
		if len(examples) < maxAgeExamples {
			examples = append(examples, fmt.Sprintf("%s (edad %d)", strings.TrimSpace(cell.Value), age))
		}
	}
	if flagged == 0 {
		return nil
	}
	return []Problem{{
		Kind:        ProblemImprobableAge,
		Description: fmt.Sprintf("Columna '%s' tiene %d fechas de nacimiento con edad improbable", col.Name, flagged),
		Severity:    SeverityMedia,
		Column:      col.Name,
		Affected:    flagged,
		Examples:    examples,
	}}
}

// ruleInvalidEmail validates every value of the email column.
func ruleInvalidEmail(t *Table, _ time.Time) []Problem {
	idx := FindColumn(t.Columns, emailColumnNames...)
	if idx < 0 {
		return nil
	}

	col := t.Columns[idx]
	var examples []string
	invalid := 0
	for _, cell := range t.ColumnCells(idx) {
		if Classify(cell, col.Kind).Problematic() {
			continue
		}
		if ValidEmail(cell.Value) {
			continue
		}
		invalid++
		if len(examples) < maxExamples {
			examples = append(examples, strings.TrimSpace(cell.Value))
		}
	}
	if invalid == 0 {
		return nil
	}
	return []Problem{{
		Kind:        ProblemInvalidEmail,
		Description: fmt.Sprintf("Columna '%s' tiene %d emails con formato inválido", col.Name, invalid),
		Severity:    SeverityMedia,
		Column:      col.Name,
		Affected:    invalid,
		Examples:    examples,
	}}
}

// ruleEmptyRows counts fully empty rows and near-empty rows (two or fewer
// populated cells) as separate records.
func ruleEmptyRows(t *Table, _ time.Time) []Problem {
	empty, nearEmpty := 0, 0
	for _, row := range t.Rows {
		populated := 0
		for i, cell := range row {
			if i >= len(t.Columns) {
				break
			}
			if !Classify(cell, t.Columns[i].Kind).Problematic() {
				populated++
			}
		}
		switch {
		case populated == 0:
			empty++
		case populated <= nearEmptyMaxCells && t.ColumnCount() > nearEmptyMaxCells:
			nearEmpty++
		}
	}

	var problems []Problem
	if empty > 0 {
		problems = append(problems, Problem{
			Kind:        ProblemEmptyRows,
			Description: fmt.Sprintf("%d filas completamente vacías", empty),
			Severity:    SeverityMedia,
			Affected:    empty,
		})
	}
	if nearEmpty > 0 {
		problems = append(problems, Problem{
			Kind:        ProblemNearEmptyRows,
			Description: fmt.Sprintf("%d filas con 2 o menos celdas con datos", nearEmpty),
			Severity:    SeverityMedia,
			Affected:    nearEmpty,
		})
	}
	return problems
}

// yearsBetween computes whole years from birth to now.
func yearsBetween(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}
