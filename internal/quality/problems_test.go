package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func problemsByKind(problems []Problem, kind string) []Problem {
	var out []Problem
	for _, p := range problems {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

func TestDetectProblemsEmptyTable(t *testing.T) {
	assert.Nil(t, DetectProblems(&Table{}, fixedNow))
	assert.Nil(t, DetectProblems(&Table{Columns: []Column{{Name: "a"}}}, fixedNow))
}

func TestRuleMissingValues(t *testing.T) {
	table := &Table{
		Columns: []Column{
			{Name: "parcial", Kind: KindText},
			{Name: "agujereada", Kind: KindText},
			{Name: "completa", Kind: KindText},
		},
	}
	for i := 0; i < 10; i++ {
		a, b := textCell("a"), textCell("b")
		if i < 2 {
			a = nullCell() // 20%, media
		}
		if i < 4 {
			b = textCell("??") // 40% placeholders, alta
		}
		table.Rows = append(table.Rows, []Cell{a, b, textCell("c")})
	}

	got := problemsByKind(DetectProblems(table, fixedNow), ProblemMissingValues)
	require.Len(t, got, 2)

	assert.Equal(t, "parcial", got[0].Column)
	assert.Equal(t, SeverityMedia, got[0].Severity)
	assert.Equal(t, 2, got[0].Affected)

	assert.Equal(t, "agujereada", got[1].Column)
	assert.Equal(t, SeverityAlta, got[1].Severity)
	assert.Equal(t, 4, got[1].Affected)
}

func TestRuleTypos(t *testing.T) {
	table := &Table{
		Columns: []Column{{Name: "Programa", Kind: KindText}},
		Rows: [][]Cell{
			{textCell("PREGARDO")},
			{textCell("PREGRADO")},
			{textCell("ingeneiria")},
		},
	}

	got := problemsByKind(DetectProblems(table, fixedNow), ProblemTypos)
	require.Len(t, got, 1)
	assert.Equal(t, SeverityAlta, got[0].Severity)
	assert.Equal(t, 2, got[0].Affected)
	require.Len(t, got[0].Examples, 2)
	assert.Equal(t, "fila 1, columna 'Programa': 'PREGARDO' → 'PREGRADO'", got[0].Examples[0])
	assert.Equal(t, "fila 3, columna 'Programa': 'ingeneiria' → 'INGENIERIA'", got[0].Examples[1])
}

func TestRulePhoneLength(t *testing.T) {
	table := singleColumn("Teléfono", KindText,
		textCell("3001234567"), textCell("12345"), nullCell(), textCell("123456789012345"))

	got := problemsByKind(DetectProblems(table, fixedNow), ProblemPhoneLength)
	require.Len(t, got, 1)
	assert.Equal(t, SeverityMedia, got[0].Severity)
	assert.Equal(t, 2, got[0].Affected)
	assert.Equal(t, []string{"12345", "123456789012345"}, got[0].Examples)
}

func TestRuleMandatoryFields(t *testing.T) {
	table := &Table{
		Columns: []Column{
			{Name: "Codigo Programa", Kind: KindText},
			{Name: "Estudiante", Kind: KindText},
		},
		Rows: [][]Cell{
			{textCell("SIS-01"), textCell("ana")},
			{nullCell(), textCell("berta")},
			{textCell(""), textCell("carla")},
		},
	}

	got := problemsByKind(DetectProblems(table, fixedNow), ProblemMandatoryFields)
	require.Len(t, got, 1)
	assert.Equal(t, "Codigo Programa", got[0].Column)
	assert.Equal(t, SeverityAlta, got[0].Severity)
	assert.Equal(t, 2, got[0].Affected)
}

func TestRuleDuplicateKeys(t *testing.T) {
	table := singleColumn("Documento", KindText,
		textCell("200"), textCell("200"), textCell("100"), textCell("100"), textCell("100"))

	got := problemsByKind(DetectProblems(table, fixedNow), ProblemDuplicateKeys)
	require.Len(t, got, 1)
	assert.Equal(t, SeverityAlta, got[0].Severity)
	assert.Equal(t, 3, got[0].Affected, "every repeat beyond the first counts")
	assert.Equal(t, []string{"200", "100"}, got[0].Examples, "first-appearance order")
}

func TestRuleImprobableAge(t *testing.T) {
	table := singleColumn("Fecha Nacimiento", KindText,
		textCell("01/01/2020"), // age 5
		textCell("01/01/1990"), // age 35
		textCell("01/01/1940"), // age 85
		textCell("notadate"))

	got := problemsByKind(DetectProblems(table, fixedNow), ProblemImprobableAge)
	require.Len(t, got, 1)
	assert.Equal(t, SeverityMedia, got[0].Severity)
	assert.Equal(t, 2, got[0].Affected)
	assert.Equal(t, []string{"01/01/2020 (edad 5)", "01/01/1940 (edad 85)"}, got[0].Examples)
}

func TestRuleInvalidEmail(t *testing.T) {
	table := singleColumn("Correo", KindText,
		textCell("a@b.com"), textCell("bad-email"), nullCell())

	got := problemsByKind(DetectProblems(table, fixedNow), ProblemInvalidEmail)
	require.Len(t, got, 1)
	assert.Equal(t, SeverityMedia, got[0].Severity)
	assert.Equal(t, 1, got[0].Affected)
	assert.Equal(t, []string{"bad-email"}, got[0].Examples)
}

func TestRuleEmptyRows(t *testing.T) {
	table := &Table{
		Columns: []Column{
			{Name: "a", Kind: KindText},
			{Name: "b", Kind: KindText},
			{Name: "c", Kind: KindText},
		},
		Rows: [][]Cell{
			{textCell("1"), textCell("2"), textCell("3")},
			{nullCell(), nullCell(), nullCell()},
			{textCell("x"), nullCell(), textCell("")},
		},
	}

	problems := DetectProblems(table, fixedNow)

	empty := problemsByKind(problems, ProblemEmptyRows)
	require.Len(t, empty, 1)
	assert.Equal(t, 1, empty[0].Affected)

	nearEmpty := problemsByKind(problems, ProblemNearEmptyRows)
	require.Len(t, nearEmpty, 1)
	assert.Equal(t, 1, nearEmpty[0].Affected)
}

// Near-empty makes no sense on narrow sheets: with two columns a single
// populated cell is half the row.
func TestRuleEmptyRowsSkipsNearEmptyOnNarrowTables(t *testing.T) {
	table := &Table{
		Columns: []Column{
			{Name: "a", Kind: KindText},
			{Name: "b", Kind: KindText},
		},
		Rows: [][]Cell{
			{textCell("x"), nullCell()},
		},
	}

	problems := DetectProblems(table, fixedNow)
	assert.Empty(t, problemsByKind(problems, ProblemNearEmptyRows))
	assert.Empty(t, problemsByKind(problems, ProblemEmptyRows))
}

func TestRunRuleRecoversPanic(t *testing.T) {
	boom := detectorRule{
		name: "regla_rota",
		run: func(_ *Table, _ time.Time) []Problem {
			panic("boom")
		},
	}

	got := runRule(boom, &Table{Columns: []Column{{Name: "a"}}, Rows: [][]Cell{{textCell("1")}}}, fixedNow)
	require.Len(t, got, 1)
	assert.Equal(t, ProblemAnalysisError, got[0].Kind)
	assert.Equal(t, SeverityAlta, got[0].Severity)
	assert.Contains(t, got[0].Description, "regla_rota")
	assert.Contains(t, got[0].Description, "boom")
}

func TestDetectProblemsDeterministic(t *testing.T) {
	table := &Table{
		Columns: []Column{
			{Name: "Documento", Kind: KindText},
			{Name: "Correo Electronico", Kind: KindText},
			{Name: "Programa", Kind: KindText},
		},
		Rows: [][]Cell{
			{textCell("1"), textCell("a@b.com"), textCell("PREGARDO")},
			{textCell("1"), textCell("oops"), nullCell()},
			{nullCell(), nullCell(), nullCell()},
			{textCell("2"), textCell("c@d.com"), textCell("hoy")},
		},
	}

	first := DetectProblems(table, fixedNow)
	require.NotEmpty(t, first)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, DetectProblems(table, fixedNow))
	}
}
