package sheet

import (
	"github.com/xuri/excelize/v2"

	apperrors "github.com/leeforge/mediakit/errors"
)

// Style is the subset of cell styling the adapter exposes.
type Style struct {
	Bold bool
	// FillColor is a hex RGB color such as "#FFFF00". Empty means no fill.
	FillColor string
	// NumberFormat is a custom format code such as "0.00". Empty keeps
	// the general format.
	NumberFormat string
}

func (w *Workbook) styleID(s Style) (int, error) {
	es := &excelize.Style{}
	if s.Bold {
		es.Font = &excelize.Font{Bold: true}
	}
	if s.FillColor != "" {
		es.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{s.FillColor}}
	}
	if s.NumberFormat != "" {
		format := s.NumberFormat
		es.CustomNumFmt = &format
	}
	id, err := w.file.NewStyle(es)
	if err != nil {
		return 0, apperrors.WrapWithType(err, apperrors.ErrorTypeInvalidArgument, "build style")
	}
	return id, nil
}

// SetRowStyle applies s to the whole 0-based row.
func (w *Workbook) SetRowStyle(sheet, row int, s Style) error {
	if err := w.writable(); err != nil {
		return err
	}
	name, err := w.sheetName(sheet)
	if err != nil {
		return err
	}
	id, err := w.styleID(s)
	if err != nil {
		return err
	}
	if err := w.file.SetRowStyle(name, row+1, row+1, id); err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeInvalidArgument, "set row style")
	}
	return nil
}

// SetCellStyle applies s to a single 0-based cell.
func (w *Workbook) SetCellStyle(sheet, row, col int, s Style) error {
	if err := w.writable(); err != nil {
		return err
	}
	name, err := w.sheetName(sheet)
	if err != nil {
		return err
	}
	cell, err := cellName(row, col)
	if err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeInvalidArgument, "cell reference")
	}
	id, err := w.styleID(s)
	if err != nil {
		return err
	}
	if err := w.file.SetCellStyle(name, cell, cell, id); err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeInvalidArgument, "set cell style")
	}
	return nil
}
