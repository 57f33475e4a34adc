// Package sheet reads and writes spreadsheet workbooks. Writing maps Go
// values, slices, grids and typed records onto cells; reading turns rows
// into ordered Records.
package sheet

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/leeforge/mediakit/errors"
)

// State is the lifecycle stage of a Workbook.
type State int

const (
	StateOpen State = iota
	StateExported
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateExported:
		return "exported"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// DateFormat is the number format applied to time.Time cells.
const DateFormat = "yyyy-mm-dd hh:mm:ss"

var (
	ErrWorkbookExported = apperrors.New(apperrors.ErrorTypeConflict, "workbook already exported")
	ErrWorkbookClosed   = apperrors.New(apperrors.ErrorTypeConflict, "workbook closed")
)

// Workbook is a single-use writer: it moves from Open to Exported on
// Export and to Closed on Close. Writes are only accepted while Open.
// A Workbook is not safe for concurrent use.
type Workbook struct {
	file      *excelize.File
	state     State
	dateStyle int
}

// New creates a workbook with a single sheet named "Sheet1".
func New() *Workbook {
	return &Workbook{file: excelize.NewFile(), dateStyle: -1}
}

// Open loads an existing workbook for editing.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.WrapWithType(err, apperrors.ErrorTypeSourceUnreadable, "open workbook").
			WithDetail("path", path)
	}
	return &Workbook{file: f, dateStyle: -1}, nil
}

// State reports the lifecycle stage.
func (w *Workbook) State() State { return w.state }

func (w *Workbook) writable() error {
	switch w.state {
	case StateExported:
		return ErrWorkbookExported
	case StateClosed:
		return ErrWorkbookClosed
	}
	return nil
}

// SheetCount returns the number of sheets.
func (w *Workbook) SheetCount() int {
	if w.state == StateClosed {
		return 0
	}
	return len(w.file.GetSheetList())
}

// CreateSheet appends a sheet and returns its 0-based index.
func (w *Workbook) CreateSheet(name string) (int, error) {
	if err := w.writable(); err != nil {
		return 0, err
	}
	if _, err := w.file.NewSheet(name); err != nil {
		return 0, apperrors.WrapWithType(err, apperrors.ErrorTypeInvalidArgument, "create sheet").
			WithDetail("name", name)
	}
	return w.file.GetSheetIndex(name)
}

func (w *Workbook) sheetName(index int) (string, error) {
	list := w.file.GetSheetList()
	if index < 0 || index >= len(list) {
		return "", apperrors.InvalidArgument("sheet", index, fmt.Sprintf("workbook has %d sheets", len(list)))
	}
	return list[index], nil
}

// WriteValue writes v into the 0-based (row, col) cell of sheet. Numbers
// stay numeric, nil becomes an empty string and time.Time gets DateFormat.
func (w *Workbook) WriteValue(sheet, row, col int, v any) error {
	if err := w.writable(); err != nil {
		return err
	}
	if row < 0 || col < 0 {
		return apperrors.InvalidArgument("cell", [2]int{row, col}, "row and column must not be negative")
	}
	name, err := w.sheetName(sheet)
	if err != nil {
		return err
	}
	cell, err := cellName(row, col)
	if err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeInvalidArgument, "cell reference")
	}
	return w.setCell(name, cell, v)
}

func (w *Workbook) setCell(sheet, cell string, v any) error {
	var err error
	switch val := v.(type) {
	case nil:
		err = w.file.SetCellStr(sheet, cell, "")
	case time.Time:
		if err = w.file.SetCellValue(sheet, cell, val); err == nil {
			var style int
			if style, err = w.dateStyleID(); err == nil {
				err = w.file.SetCellStyle(sheet, cell, cell, style)
			}
		}
	case fmt.Stringer:
		err = w.file.SetCellStr(sheet, cell, val.String())
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			err = w.file.SetCellValue(sheet, cell, rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			err = w.file.SetCellValue(sheet, cell, rv.Uint())
		case reflect.Float32:
			err = w.file.SetCellFloat(sheet, cell, rv.Float(), -1, 32)
		case reflect.Float64:
			err = w.file.SetCellFloat(sheet, cell, rv.Float(), -1, 64)
		case reflect.Bool:
			err = w.file.SetCellValue(sheet, cell, rv.Bool())
		case reflect.Pointer:
			if rv.IsNil() {
				return w.setCell(sheet, cell, nil)
			}
			return w.setCell(sheet, cell, rv.Elem().Interface())
		case reflect.String:
			err = w.file.SetCellStr(sheet, cell, rv.String())
		default:
			err = w.file.SetCellStr(sheet, cell, fmt.Sprint(v))
		}
	}
	if err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeInternal, "write cell").
			WithDetail("sheet", sheet).
			WithDetail("cell", cell)
	}
	return nil
}

func (w *Workbook) dateStyleID() (int, error) {
	if w.dateStyle >= 0 {
		return w.dateStyle, nil
	}
	format := DateFormat
	id, err := w.file.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return 0, err
	}
	w.dateStyle = id
	return id, nil
}

// WriteRow writes values left to right starting at (row, col).
func WriteRow[T any](w *Workbook, sheet, row, col int, values []T) error {
	for i, v := range values {
		if err := w.WriteValue(sheet, row, col+i, v); err != nil {
			return err
		}
	}
	return nil
}

// WriteGrid writes a 2D slice with its top-left at (row, col).
func WriteGrid[T any](w *Workbook, sheet, row, col int, grid [][]T) error {
	for r, values := range grid {
		if err := WriteRow(w, sheet, row+r, col, values); err != nil {
			return err
		}
	}
	return nil
}

// Column maps one field of T onto a spreadsheet column.
type Column[T any] struct {
	Header string
	Value  func(T) any
}

type recordOptions struct {
	header bool
}

// RecordOption tunes WriteRecords.
type RecordOption func(*recordOptions)

// WithHeader writes a header row of column names before the items.
func WithHeader() RecordOption {
	return func(o *recordOptions) { o.header = true }
}

// WriteRecords writes one row per item, with columns in mapping order.
func WriteRecords[T any](w *Workbook, sheet, row, col int, items []T, columns []Column[T], opts ...RecordOption) error {
	if len(columns) == 0 {
		return apperrors.InvalidArgument("columns", 0, "at least one column required")
	}
	var o recordOptions
	for _, opt := range opts {
		opt(&o)
	}
	if len(items) == 0 && !o.header {
		return nil
	}

	if o.header {
		for j, c := range columns {
			if err := w.WriteValue(sheet, row, col+j, c.Header); err != nil {
				return err
			}
		}
		row++
	}
	for i, item := range items {
		for j, c := range columns {
			if c.Value == nil {
				return apperrors.InvalidArgument("column", c.Header, "value accessor is nil")
			}
			if err := w.WriteValue(sheet, row+i, col+j, c.Value(item)); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteDynamic writes each record on its own row, values in key order.
func (w *Workbook) WriteDynamic(sheet, row, col int, records []Record) error {
	for i, rec := range records {
		for j, f := range rec {
			if err := w.WriteValue(sheet, row+i, col+j, f.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

// Cell returns the formatted value at the 0-based (row, col) of sheet.
// Missing cells read as "".
func (w *Workbook) Cell(sheet, row, col int) (string, error) {
	if w.state == StateClosed {
		return "", ErrWorkbookClosed
	}
	name, err := w.sheetName(sheet)
	if err != nil {
		return "", err
	}
	cell, err := cellName(row, col)
	if err != nil {
		return "", apperrors.WrapWithType(err, apperrors.ErrorTypeInvalidArgument, "cell reference")
	}
	v, err := w.file.GetCellValue(name, cell)
	if err != nil {
		return "", apperrors.WrapWithType(err, apperrors.ErrorTypeInternal, "read cell")
	}
	return v, nil
}

// Export writes the workbook to out and moves it to Exported.
func (w *Workbook) Export(out io.Writer) error {
	if err := w.writable(); err != nil {
		return err
	}
	if err := w.file.Write(out); err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeDestinationUnwritable, "write workbook")
	}
	w.state = StateExported
	return nil
}

// ExportFile writes the workbook to path, creating parent directories.
// A partially written file is removed on failure.
func (w *Workbook) ExportFile(path string) (err error) {
	if err := w.writable(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeDestinationUnwritable, "create directory").
			WithDetail("path", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeDestinationUnwritable, "create workbook file").
			WithDetail("path", path)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = apperrors.WrapWithType(cerr, apperrors.ErrorTypeDestinationUnwritable, "close workbook file")
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return w.Export(f)
}

// Close releases the workbook. Closing twice is a no-op.
func (w *Workbook) Close() error {
	if w.state == StateClosed {
		return nil
	}
	w.state = StateClosed
	if err := w.file.Close(); err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeInternal, "close workbook")
	}
	return nil
}
