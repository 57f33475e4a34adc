package sheet

import (
	"github.com/xuri/excelize/v2"
)

// ColumnName converts a 1-based column number to its letter label
// (1 is A, 26 is Z, 27 is AA). Numbers outside 1..excelize.MaxColumns
// return "".
func ColumnName(n int) string {
	if n < 1 {
		return ""
	}
	name, err := excelize.ColumnNumberToName(n)
	if err != nil {
		return ""
	}
	return name
}

// cellName converts 0-based coordinates to an A1 reference.
func cellName(row, col int) (string, error) {
	return excelize.CoordinatesToCellName(col+1, row+1)
}
