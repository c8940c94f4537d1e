package quality

import (
	"strconv"
	"strings"
)

// Deduction constants for the accuracy metric, per role.
const (
	deductDateHoy           = 20
	deductDateUnparseable   = 15
	deductIdentifierEmpty   = 25
	deductPhoneLength       = 20
	deductPhoneNonDigit     = 15
	deductGenderInvalid     = 30
	deductGenderPlaceholder = 40
	deductEmailInvalid      = 25
	deductInstitutionBad    = 30
	deductGarbledMarkers    = 15
	deductOverlongValue     = 10
	deductNumericOutliers   = 25
)

// Deduction constants for the consistency metric.
const (
	deductMixedDateFormats = 30
	deductCodeLengthSpread = 25
	deductMixedCasing      = 25
	deductPaddedValues     = 20
	deductPartialSpecials  = 15
)

// genderValues is the accepted value set for gender columns.
var genderValues = map[string]struct{}{
	"masculino": {},
	"femenino":  {},
	"otro":      {},
}

// keyFieldCandidates are the column-name substrings treated as candidate key
// fields by the uniqueness metric.
var keyFieldCandidates = []string{"documento", "identificacion", "email", "correo"}

// ComputeMetrics calculates the four quality dimensions for one table.
// Pure: a fresh record is returned on every call and the table is never
// touched. An empty table (zero rows or zero columns) is vacuously perfect.
func ComputeMetrics(t *Table) QualityMetrics {
	if t.RowCount() == 0 || t.ColumnCount() == 0 {
		return QualityMetrics{Completeness: 100, Accuracy: 100, Uniqueness: 100, Consistency: 100}
	}

	m := QualityMetrics{
		Completeness: completeness(t),
		Accuracy:     accuracy(t),
		Uniqueness:   uniqueness(t),
		Consistency:  consistency(t),
	}

	// Severe garbling drags every dimension down, not just accuracy: a sheet
	// riddled with corrupted tokens cannot be trusted on any axis.
	m = m.scale(1 - severePenaltyFactor(t))

	return m.clamp()
}

// completeness is the share of cells that are not null, empty or placeholder.
func completeness(t *Table) float64 {
	total := t.RowCount() * t.ColumnCount()
	problematic := 0
	for _, row := range t.Rows {
		for i, cell := range row {
			if i >= len(t.Columns) {
				break
			}
			if Classify(cell, t.Columns[i].Kind).Problematic() {
				problematic++
			}
		}
	}
	return clamp100(100 * (1 - float64(problematic)/float64(total)))
}

// accuracy averages per-column scores. Each column starts at 100 and takes
// role-specific deductions; a rule deducts once per column no matter how many
// values trigger it. Columns holding no data at all are skipped.
func accuracy(t *Table) float64 {
	var scores []float64

	for i, col := range t.Columns {
		cells := t.ColumnCells(i)
		values := presentValues(cells, col.Kind)
		if len(values) == 0 {
			continue
		}

		score := 100.0
		role := RoleFor(col.Name)

		switch role {
		case RoleDate:
			hasHoy, hasUnparseable := false, false
			for _, v := range values {
				if strings.EqualFold(strings.TrimSpace(v), hoyLiteral) {
					hasHoy = true
					continue
				}
				if _, ok := ParseDate(v); !ok {
					hasUnparseable = true
				}
			}
			if hasHoy {
				score -= deductDateHoy
			}
			if hasUnparseable {
				score -= deductDateUnparseable
			}

		case RoleIdentifier:
			for _, cell := range cells {
				if cell.Null {
					continue
				}
				if strings.TrimSpace(cell.Value) == "" || IsPlaceholderToken(cell.Value) {
					score -= deductIdentifierEmpty
					break
				}
			}

		case RolePhone:
			badLength, nonDigit := false, false
			for _, v := range values {
				trimmed := strings.TrimSpace(v)
				if len(trimmed) < 7 || len(trimmed) > 12 {
					badLength = true
				}
				if !allDigits(trimmed) {
					nonDigit = true
				}
			}
			if badLength {
				score -= deductPhoneLength
			}
			if nonDigit {
				score -= deductPhoneNonDigit
			}

		case RoleGender:
			invalid, placeholder := false, false
			for _, v := range values {
				if IsPlaceholderToken(v) {
					placeholder = true
					continue
				}
				if _, ok := genderValues[strings.ToLower(strings.TrimSpace(v))]; !ok {
					invalid = true
				}
			}
			if invalid {
				score -= deductGenderInvalid
			}
			if placeholder {
				score -= deductGenderPlaceholder
			}

		case RoleEmail:
			for _, v := range values {
				if !ValidEmail(v) {
					score -= deductEmailInvalid
					break
				}
			}

		case RoleInstitution:
			for _, v := range values {
				trimmed := strings.TrimSpace(v)
				if len(trimmed) < 3 || strings.Contains(trimmed, "??") || strings.Contains(trimmed, "@@") {
					score -= deductInstitutionBad
					break
				}
			}
		}

		// Generic textual checks apply to every column regardless of role.
		garbled, overlong := false, false
		for _, v := range values {
			if strings.Contains(v, "??") || strings.Contains(v, "@@") || strings.Contains(v, "##") {
				garbled = true
			}
			if len(v) > 200 {
				overlong = true
			}
		}
		if garbled {
			score -= deductGarbledMarkers
		}
		if overlong {
			score -= deductOverlongValue
		}

		// Pure numeric columns with no semantic role get outlier screening.
		if col.Kind == KindNumeric && role == RoleNone {
			if numericOutlierShare(values) > 0.10 {
				score -= deductNumericOutliers
			}
		}

		if score < 0 {
			score = 0
		}
		scores = append(scores, score)
	}

	if len(scores) == 0 {
		return 100
	}
	return mean(scores)
}

// numericOutlierShare computes the fraction of values outside
// [Q1 - 3*IQR, Q3 + 3*IQR]. Fewer than four parsable values yield 0.
func numericOutlierShare(values []string) float64 {
	var nums []float64
	for _, v := range values {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", ""), 64); err == nil {
			nums = append(nums, f)
		}
	}
	if len(nums) <= 3 {
		return 0
	}

	q1 := quantile(nums, 0.25)
	q3 := quantile(nums, 0.75)
	iqr := q3 - q1
	if iqr <= 0 {
		return 0
	}

	lo, hi := q1-3*iqr, q3+3*iqr
	outliers := 0
	for _, n := range nums {
		if n < lo || n > hi {
			outliers++
		}
	}
	return float64(outliers) / float64(len(nums))
}

// uniqueness is the lower of full-row uniqueness and key-field uniqueness.
func uniqueness(t *Table) float64 {
	fullRow := fullRowUniqueness(t)
	keyField := keyFieldUniqueness(t)
	if keyField < fullRow {
		return clamp100(keyField)
	}
	return clamp100(fullRow)
}

func fullRowUniqueness(t *Table) float64 {
	seen := make(map[string]struct{}, t.RowCount())
	for _, row := range t.Rows {
		var b strings.Builder
		for _, cell := range row {
			if cell.Null {
				b.WriteString("\x00")
			} else {
				b.WriteString(cell.Value)
			}
			b.WriteString("\x1f")
		}
		seen[b.String()] = struct{}{}
	}
	return 100 * float64(len(seen)) / float64(t.RowCount())
}

// keyFieldUniqueness is the minimum distinct ratio across candidate key
// columns; 100 when the sheet has no candidate key column.
func keyFieldUniqueness(t *Table) float64 {
	minRatio := 100.0
	for _, candidate := range keyFieldCandidates {
		idx := FindColumn(t.Columns, candidate)
		if idx < 0 {
			continue
		}

		distinct := make(map[string]struct{})
		nonNull := 0
		for _, cell := range t.ColumnCells(idx) {
			if Classify(cell, t.Columns[idx].Kind).Problematic() {
				continue
			}
			nonNull++
			distinct[strings.TrimSpace(cell.Value)] = struct{}{}
		}
		if nonNull == 0 {
			continue
		}

		ratio := 100 * float64(len(distinct)) / float64(nonNull)
		if ratio < minRatio {
			minRatio = ratio
		}
	}
	return minRatio
}

// consistency averages per-column format uniformity over textual columns.
func consistency(t *Table) float64 {
	var scores []float64

	for i, col := range t.Columns {
		if col.Kind == KindNumeric {
			continue
		}
		values := presentValues(t.ColumnCells(i), col.Kind)
		if len(values) == 0 {
			continue
		}

		score := 100.0
		role := RoleFor(col.Name)

		if role == RoleDate {
			styles := make(map[dateStyle]struct{})
			for _, v := range values {
				styles[classifyDateStyle(v)] = struct{}{}
			}
			if len(styles) > 1 {
				score -= deductMixedDateFormats
			}
		}

		if role == RoleIdentifier {
			lengths := make(map[int]struct{})
			for _, v := range values {
				lengths[len(strings.TrimSpace(v))] = struct{}{}
			}
			if len(lengths) > 2 {
				score -= deductCodeLengthSpread
			}
		}

		upper, lower := 0, 0
		for _, v := range values {
			trimmed := strings.TrimSpace(v)
			up, down := strings.ToUpper(trimmed), strings.ToLower(trimmed)
			if up == down {
				continue // no cased letters
			}
			switch trimmed {
			case up:
				upper++
			case down:
				lower++
			}
		}
		if upper > 0 && lower > 0 {
			minority := upper
			if lower < minority {
				minority = lower
			}
			if float64(minority)/float64(len(values)) > 0.20 {
				score -= deductMixedCasing
			}
		}

		padded := 0
		for _, v := range values {
			if v != strings.TrimSpace(v) {
				padded++
			}
		}
		if float64(padded)/float64(len(values)) > 0.10 {
			score -= deductPaddedValues
		}

		withSpecials := 0
		for _, v := range values {
			if strings.ContainsAny(v, "@#$%") {
				withSpecials++
			}
		}
		if withSpecials > 0 && withSpecials < len(values) {
			score -= deductPartialSpecials
		}

		if score < 0 {
			score = 0
		}
		scores = append(scores, score)
	}

	if len(scores) == 0 {
		return 100
	}
	return mean(scores)
}

// severePenaltyFactor counts severe pattern matches across all cells and
// converts the count into a multiplicative penalty, capped at 0.5.
func severePenaltyFactor(t *Table) float64 {
	severe := 0
	for _, row := range t.Rows {
		for _, cell := range row {
			if cell.Null {
				continue
			}
			if severeMatch(cell.Value) {
				severe++
			}
		}
	}
	if severe == 0 {
		return 0
	}

	factor := float64(severe) / (float64(t.RowCount()) * 0.1)
	if factor > 0.5 {
		factor = 0.5
	}
	return factor
}

// presentValues returns the raw values of cells that hold something:
// everything except nulls and empty strings. Placeholder tokens stay in
// because several role validators penalize them explicitly.
func presentValues(cells []Cell, kind Kind) []string {
	values := make([]string, 0, len(cells))
	for _, cell := range cells {
		switch Classify(cell, kind) {
		case ClassNull, ClassEmpty:
			continue
		}
		values = append(values, cell.Value)
	}
	return values
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
