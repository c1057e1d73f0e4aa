package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Col converts a column letter ("A", "AE", ...) to its 1-based index.
// It panics on malformed input, which for the fixed column maps used by the
// extractors and writers is a programming error, not a data error.
func Col(letter string) int {
	n, err := excelize.ColumnNameToNumber(letter)
	if err != nil {
		panic(fmt.Sprintf("excel: invalid column letter %q: %v", letter, err))
	}
	return n
}

// ColName converts a 1-based column index back to its letter form.
func ColName(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		panic(fmt.Sprintf("excel: invalid column number %d: %v", col, err))
	}
	return name
}

// CellName builds an A1-style reference from 1-based column and row indices.
func CellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		panic(fmt.Sprintf("excel: invalid coordinates (%d,%d): %v", col, row, err))
	}
	return name
}
