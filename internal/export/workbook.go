// Package export renders role-scoped listings as Excel workbooks.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of an .xlsx file.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	headerFill = "E2EFDA"
	colWidth   = 22
)

// Sheet is one tab: a header row followed by data rows.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Workbook is a finished export ready to be streamed or uploaded.
type Workbook struct {
	Filename string
	file     *excelize.File
}

func (w *Workbook) File() *excelize.File { return w.file }

func (w *Workbook) Bytes() ([]byte, error) {
	buf, err := w.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export: write %s: %w", w.Filename, err)
	}
	return buf.Bytes(), nil
}

// Reader returns the encoded workbook and its size.
func (w *Workbook) Reader() (*bytes.Reader, int64, error) {
	data, err := w.Bytes()
	if err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(data), int64(len(data)), nil
}

// Build lays out the sheets in order. The first sheet replaces excelize's
// default "Sheet1".
func Build(filename string, sheets ...Sheet) (*Workbook, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.Name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			return nil, err
		}
		if err := writeSheet(f, sh, headerStyle); err != nil {
			return nil, fmt.Errorf("export: sheet %s: %w", sh.Name, err)
		}
	}
	return &Workbook{Filename: filename, file: f}, nil
}

func writeSheet(f *excelize.File, sh Sheet, headerStyle int) error {
	if len(sh.Headers) == 0 {
		return nil
	}

	// 1. Header row
	headers := make([]any, len(sh.Headers))
	for i, h := range sh.Headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(sh.Name, "A1", &headers); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(sh.Headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sh.Name, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(sh.Name, "A", lastCol, colWidth); err != nil {
		return err
	}

	// 2. Data rows
	for i, row := range sh.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = cellValue(v)
		}
		if err := f.SetSheetRow(sh.Name, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

// cellValue converts domain types to something excelize writes natively.
func cellValue(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.Round(2).InexactFloat64()
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format("2006-01-02 15:04")
	case *time.Time:
		if x == nil {
			return ""
		}
		return x.Format("2006-01-02")
	}
	return v
}

// Filename builds "<prefix>_<timestamp>.xlsx".
func Filename(prefix string, at time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", prefix, at.Format("20060102_150405"))
}
