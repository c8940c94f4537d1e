package quality

// Kind is the declared value kind of a column.
type Kind int

const (
	// KindText holds free-form textual values
	KindText Kind = iota
	// KindNumeric holds values that parse as numbers
	KindNumeric
	// KindOther holds anything else (mixed, boolean, exotic)
	KindOther
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindText:
		return "texto"
	case KindNumeric:
		return "numerico"
	case KindOther:
		return "otro"
	default:
		return "desconocido"
	}
}

// Cell is a single table cell. Null marks a truly absent value, as opposed
// to an empty or placeholder string.
type Cell struct {
	Value string `json:"value"`
	Null  bool   `json:"null,omitempty"`
}

// Column is a named column with its declared kind.
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Table is an ordered set of named columns and rows. Every row has exactly
// one cell per column. Tables are never mutated by the analyzer.
type Table struct {
	Columns []Column `json:"columns"`
	Rows    [][]Cell `json:"rows"`
}

// RowCount returns the number of rows in the table
func (t *Table) RowCount() int { return len(t.Rows) }

// ColumnCount returns the number of columns in the table
func (t *Table) ColumnCount() int { return len(t.Columns) }

// ColumnCells returns the cells of column idx in row order.
func (t *Table) ColumnCells(idx int) []Cell {
	cells := make([]Cell, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx < len(row) {
			cells = append(cells, row[idx])
		}
	}
	return cells
}

// Sheet couples a table with the metadata supplied by the loader.
type Sheet struct {
	Name    string `json:"name"`
	Table   Table  `json:"-"`
	HasData bool   `json:"has_data"`
}

// Workbook is the immutable input snapshot for one analysis run.
type Workbook struct {
	Name   string  `json:"name"`
	Sheets []Sheet `json:"sheets"`
}

// CellClass is the classification of a single cell value.
type CellClass int

const (
	// ClassValid is any value the classifier has no complaint about
	ClassValid CellClass = iota
	// ClassNull is an absent value
	ClassNull
	// ClassEmpty is an empty or whitespace-only string
	ClassEmpty
	// ClassPlaceholder is a token standing in for missing data ("??", "n/a", ...)
	ClassPlaceholder
	// ClassOutOfRange is a value that cannot belong to its declared kind
	ClassOutOfRange
)

// String returns the string representation of the classification
func (c CellClass) String() string {
	switch c {
	case ClassValid:
		return "valido"
	case ClassNull:
		return "nulo"
	case ClassEmpty:
		return "vacio"
	case ClassPlaceholder:
		return "placeholder"
	case ClassOutOfRange:
		return "fuera_de_rango"
	default:
		return "desconocido"
	}
}

// Problematic reports whether the classification counts against completeness.
func (c CellClass) Problematic() bool {
	return c == ClassNull || c == ClassEmpty || c == ClassPlaceholder
}

// Severity is the qualitative impact ranking of a detected problem.
type Severity string

const (
	SeverityAlta  Severity = "alta"
	SeverityMedia Severity = "media"
	SeverityBaja  Severity = "baja"
)

// QualityMetrics holds the four per-sheet quality scores, each in [0,100].
// A metrics value is produced once and never mutated.
type QualityMetrics struct {
	Completeness float64 `json:"completitud"`
	Accuracy     float64 `json:"exactitud"`
	Uniqueness   float64 `json:"unicidad"`
	Consistency  float64 `json:"consistencia"`
}

// FallbackMetrics is the "assume poor quality" tuple used when a sheet's
// analysis fails internally instead of propagating the failure.
func FallbackMetrics() QualityMetrics {
	return QualityMetrics{
		Completeness: 30,
		Accuracy:     25,
		Uniqueness:   40,
		Consistency:  35,
	}
}

// clamp restricts every metric to [0,100].
func (m QualityMetrics) clamp() QualityMetrics {
	return QualityMetrics{
		Completeness: clamp100(m.Completeness),
		Accuracy:     clamp100(m.Accuracy),
		Uniqueness:   clamp100(m.Uniqueness),
		Consistency:  clamp100(m.Consistency),
	}
}

// scale multiplies every metric by factor, without clamping.
func (m QualityMetrics) scale(factor float64) QualityMetrics {
	return QualityMetrics{
		Completeness: m.Completeness * factor,
		Accuracy:     m.Accuracy * factor,
		Uniqueness:   m.Uniqueness * factor,
		Consistency:  m.Consistency * factor,
	}
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Problem kinds emitted by the detector.
const (
	ProblemMissingValues   = "valores_faltantes"
	ProblemTypos           = "errores_tipograficos"
	ProblemPhoneLength     = "telefono_longitud_anomala"
	ProblemMandatoryFields = "campos_obligatorios_incompletos"
	ProblemDuplicateKeys   = "valores_duplicados"
	ProblemImprobableAge   = "edad_improbable"
	ProblemInvalidEmail    = "email_invalido"
	ProblemEmptyRows       = "filas_vacias"
	ProblemNearEmptyRows   = "filas_casi_vacias"
	ProblemAnalysisError   = "error_analisis"
)

// Problem is one detected data-quality issue, immutable once created.
type Problem struct {
	Kind        string   `json:"tipo"`
	Description string   `json:"descripcion"`
	Severity    Severity `json:"severidad"`
	Column      string   `json:"columna,omitempty"`
	Affected    int      `json:"afectados"`
	Examples    []string `json:"ejemplos,omitempty"`
}

// Dimensions holds a sheet's row and column counts.
type Dimensions struct {
	Rows    int `json:"filas"`
	Columns int `json:"columnas"`
}

// SheetReport is the per-sheet analysis result. FallbackUsed distinguishes a
// genuinely low computed score from the fallback tuple applied after an
// internal failure; Error carries the failure when FallbackUsed is set.
type SheetReport struct {
	Name          string         `json:"nombre"`
	Dimensions    Dimensions     `json:"dimensiones"`
	Metrics       QualityMetrics `json:"metricas_calidad"`
	Problems      []Problem      `json:"problemas"`
	TypeHistogram map[string]int `json:"tipos_datos"`
	NullHistogram map[string]int `json:"valores_nulos"`
	NullTotal     int            `json:"nulos_total"`
	FallbackUsed  bool           `json:"fallback,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// SeverityCount returns how many of the sheet's problems carry sev.
func (r *SheetReport) SeverityCount(sev Severity) int {
	n := 0
	for _, p := range r.Problems {
		if p.Severity == sev {
			n++
		}
	}
	return n
}

// Summary aggregates counts across all analyzed sheets.
type Summary struct {
	SheetsAnalyzed int              `json:"total_hojas_analizadas"`
	TotalRows      int              `json:"total_filas"`
	TotalColumns   int              `json:"total_columnas"`
	TotalProblems  int              `json:"total_problemas"`
	BySeverity     map[Severity]int `json:"problemas_por_severidad"`
}

// AnalysisReport is the aggregate result of one analysis run. It is built
// once from an immutable workbook snapshot and never updated incrementally.
type AnalysisReport struct {
	Workbook  string         `json:"archivo"`
	Sheets    []SheetReport  `json:"analisis_por_hoja"`
	Summary   Summary        `json:"resumen_general"`
	Aggregate QualityMetrics `json:"metricas_calidad_detalladas"`
	Score     float64        `json:"puntuacion_calidad"`
}

// Overall score weights and the critical-problem penalty bounds.
const (
	WeightCompleteness = 0.30
	WeightAccuracy     = 0.35
	WeightUniqueness   = 0.15
	WeightConsistency  = 0.20

	CriticalPenaltyStep = 0.05
	CriticalPenaltyCap  = 0.30
)
