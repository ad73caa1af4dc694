// Package spreadsheet writes tabular exports as xlsx workbooks.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// ContentType is the media type of the written workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	defaultSheet  = "Sheet1"
	minColWidth   = 10
	maxColWidth   = 60
	colWidthSlack = 2
)

// Write renders a single-sheet workbook with a bold header row followed by rows and writes it to w.
// Every cell is stored as a string so phone numbers keep their leading "+" and zeros.
func Write(w io.Writer, sheet string, header []string, rows [][]string) (err error) {
	if len(header) == 0 {
		return errors.New("spreadsheet header is required")
	}
	if sheet == "" {
		sheet = defaultSheet
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", cerr)
		}
	}()

	if sheet != defaultSheet {
		if err = f.SetSheetName(defaultSheet, sheet); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}

	if err = writeHeader(f, sheet, header); err != nil {
		return err
	}

	for i, row := range rows {
		cell, cellErr := excelize.CoordinatesToCellName(1, i+2)
		if cellErr != nil {
			return fmt.Errorf("row %d: %w", i+1, cellErr)
		}
		values := row
		if err = f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err = fitColumns(f, sheet, header, rows); err != nil {
		return err
	}

	if err = f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []string) error {
	values := header
	if err := f.SetSheetRow(sheet, "A1", &values); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	return nil
}

// fitColumns sizes each column to its longest value, clamped to a readable range.
func fitColumns(f *excelize.File, sheet string, header []string, rows [][]string) error {
	for col := range header {
		width := utf8.RuneCountInString(header[col])
		for _, row := range rows {
			if col < len(row) {
				width = max(width, utf8.RuneCountInString(row[col]))
			}
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("column %d: %w", col+1, err)
		}
		w := float64(min(max(width+colWidthSlack, minColWidth), maxColWidth))
		if err := f.SetColWidth(sheet, name, name, w); err != nil {
			return fmt.Errorf("set width of column %s: %w", name, err)
		}
	}
	return nil
}
