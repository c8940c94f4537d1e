package workbook

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"sheetqa/internal/quality"
)

// Loader reads spreadsheet files into the immutable snapshot consumed by the
// analyzer. The first row of every sheet is taken as the header; blank cells
// become nulls, mirroring how spreadsheet tools report absent values.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader with the given logger. A nil logger falls back
// to slog.Default().
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load reads every sheet of an Excel workbook.
func (l *Loader) Load(path string) (*quality.Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	wb := &quality.Workbook{Name: filepath.Base(path)}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
		}
		sheet := buildSheet(name, rows)
		wb.Sheets = append(wb.Sheets, sheet)

		l.logger.Debug("sheet loaded",
			slog.String("workbook", wb.Name),
			slog.String("sheet", name),
			slog.Int("rows", sheet.Table.RowCount()),
			slog.Int("columns", sheet.Table.ColumnCount()),
			slog.Bool("has_data", sheet.HasData),
		)
	}
	return wb, nil
}

// LoadCSV reads a CSV file as a single-sheet workbook. The sheet takes the
// file's base name without extension.
func (l *Loader) LoadCSV(path string) (*quality.Workbook, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv %s: %w", filepath.Base(path), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv %s: %w", filepath.Base(path), err)
	}

	base := filepath.Base(path)
	sheetName := strings.TrimSuffix(base, filepath.Ext(base))
	sheet := buildSheet(sheetName, records)

	l.logger.Debug("csv loaded",
		slog.String("file", base),
		slog.Int("rows", sheet.Table.RowCount()),
		slog.Int("columns", sheet.Table.ColumnCount()),
	)

	return &quality.Workbook{Name: base, Sheets: []quality.Sheet{sheet}}, nil
}

// buildSheet converts raw string rows into a rectangular table. Rows shorter
// than the widest row are padded with nulls; unnamed header cells get a
// positional name.
func buildSheet(name string, rows [][]string) quality.Sheet {
	if len(rows) == 0 {
		return quality.Sheet{Name: name}
	}

	header := rows[0]
	width := len(header)
	for _, row := range rows[1:] {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return quality.Sheet{Name: name}
	}

	cols := make([]quality.Column, width)
	for i := range cols {
		colName := fmt.Sprintf("columna_%d", i+1)
		if i < len(header) && strings.TrimSpace(header[i]) != "" {
			colName = strings.TrimSpace(header[i])
		}
		cols[i] = quality.Column{Name: colName, Kind: quality.KindText}
	}

	table := quality.Table{Columns: cols}
	hasData := false
	for _, row := range rows[1:] {
		cells := make([]quality.Cell, width)
		for i := 0; i < width; i++ {
			var raw string
			if i < len(row) {
				raw = row[i]
			}
			if raw == "" {
				cells[i] = quality.Cell{Null: true}
				continue
			}
			cells[i] = quality.Cell{Value: raw}
			hasData = true
		}
		table.Rows = append(table.Rows, cells)
	}

	for i := range table.Columns {
		table.Columns[i].Kind = inferKind(table.ColumnCells(i))
	}

	return quality.Sheet{Name: name, Table: table, HasData: hasData}
}

// inferKind marks a column numeric only when every populated cell parses as a
// number after stripping thousands separators.
func inferKind(cells []quality.Cell) quality.Kind {
	populated, numeric := 0, 0
	for _, cell := range cells {
		if cell.Null {
			continue
		}
		trimmed := strings.TrimSpace(cell.Value)
		if trimmed == "" {
			continue
		}
		populated++
		if _, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", ""), 64); err == nil {
			numeric++
		}
	}
	if populated > 0 && numeric == populated {
		return quality.KindNumeric
	}
	return quality.KindText
}
