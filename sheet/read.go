package sheet

import (
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/width"

	apperrors "github.com/leeforge/mediakit/errors"
)

// ReadFile reads sheet from path starting at the 0-based (row, col). Each
// row becomes a Record keyed by column letters. Empty or missing cells
// have a nil value.
func ReadFile(path string, sheet, row, col int) ([]Record, error) {
	return readPath(path, func(rows [][]string) []Record {
		return lettered(rows, row, col)
	}, sheet)
}

// Read is ReadFile over a stream.
func Read(r io.Reader, sheet, row, col int) ([]Record, error) {
	return readStream(r, func(rows [][]string) []Record {
		return lettered(rows, row, col)
	}, sheet)
}

// ReadWithHeader reads sheet from path using its first row as keys.
// Header text is trimmed and width-folded so full-width labels match their
// ASCII spelling. Blank headers fall back to the column letter.
func ReadWithHeader(path string, sheet int) ([]Record, error) {
	return readPath(path, headed, sheet)
}

// ReadWithHeaderFrom is ReadWithHeader over a stream.
func ReadWithHeaderFrom(r io.Reader, sheet int) ([]Record, error) {
	return readStream(r, headed, sheet)
}

func readPath(path string, build func([][]string) []Record, sheet int) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.WrapWithType(err, apperrors.ErrorTypeSourceUnreadable, "open workbook").
			WithDetail("path", path)
	}
	defer f.Close()
	return readStream(f, build, sheet)
}

func readStream(r io.Reader, build func([][]string) []Record, sheet int) ([]Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.WrapWithType(err, apperrors.ErrorTypeDecodeFailed, "parse workbook")
	}
	defer f.Close()

	list := f.GetSheetList()
	if sheet < 0 || sheet >= len(list) {
		return nil, apperrors.InvalidArgument("sheet", sheet, "no such sheet")
	}
	rows, err := f.GetRows(list[sheet])
	if err != nil {
		return nil, apperrors.WrapWithType(err, apperrors.ErrorTypeDecodeFailed, "read rows").
			WithDetail("sheet", list[sheet])
	}
	return build(rows), nil
}

func cellValue(row []string, i int) any {
	if i < len(row) && row[i] != "" {
		return row[i]
	}
	return nil
}

func lettered(rows [][]string, start, col int) []Record {
	if start < 0 {
		start = 0
	}
	if col < 0 {
		col = 0
	}
	var out []Record
	for r := start; r < len(rows); r++ {
		rec := Record{}
		for c := col; c < len(rows[r]); c++ {
			rec = append(rec, Field{Key: ColumnName(c + 1), Value: cellValue(rows[r], c)})
		}
		out = append(out, rec)
	}
	return out
}

func headed(rows [][]string) []Record {
	if len(rows) == 0 {
		return nil
	}
	header := rows[0]
	keys := make([]string, len(header))
	for i, h := range header {
		key := width.Fold.String(strings.TrimSpace(h))
		if key == "" {
			key = ColumnName(i + 1)
		}
		keys[i] = key
	}

	out := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(Record, 0, len(keys))
		for i, key := range keys {
			rec.Set(key, cellValue(row, i))
		}
		out = append(out, rec)
	}
	return out
}
