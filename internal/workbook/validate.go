package workbook

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxUploadSize is the largest accepted upload, in bytes.
const MaxUploadSize = 100 << 20

var allowedExtensions = map[string]struct{}{
	".xlsx": {},
	".xls":  {},
	".xlsm": {},
	".csv":  {},
}

// IsCSV reports whether the file name carries a CSV extension.
func IsCSV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}

// ValidateUpload checks an uploaded file's name and declared size before any
// bytes are written to disk. A non-positive limit falls back to
// MaxUploadSize. Messages are user-facing.
func ValidateUpload(name string, size, limit int64) error {
	if limit <= 0 {
		limit = MaxUploadSize
	}
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := allowedExtensions[ext]; !ok {
		return fmt.Errorf("formato no soportado: %q (use .xlsx, .xls, .xlsm o .csv)", ext)
	}
	if size <= 0 {
		return fmt.Errorf("el archivo está vacío")
	}
	if size > limit {
		return fmt.Errorf("archivo demasiado grande: %.1f MB (máximo %d MB)",
			float64(size)/(1<<20), limit/(1<<20))
	}
	return nil
}
