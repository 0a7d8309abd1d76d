// internal/output/excel.go
package output

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Excel layout defaults
const (
	DefaultExcelSheetName = "Timings"
	summarySheetName      = "Summary"
)

// ExcelWriter writes reports as an .xlsx workbook with a timings sheet and a
// summary sheet
type ExcelWriter struct {
	w         io.Writer
	file      *excelize.File
	sheetName string
}

// NewExcelWriter creates a new Excel writer that saves the workbook to w on Close
func NewExcelWriter(w io.Writer, sheetName string) *ExcelWriter {
	if sheetName == "" {
		sheetName = DefaultExcelSheetName
	}
	return &ExcelWriter{w: w, file: excelize.NewFile(), sheetName: sheetName}
}

// Write fills both sheets. Durations are numeric milliseconds.
func (w *ExcelWriter) Write(report Report) error {
	// Rename the default sheet
	if err := w.file.SetSheetName(w.file.GetSheetName(0), w.sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for col, header := range columns {
		if err := w.setCell(col+1, 1, header); err != nil {
			return err
		}
	}

	for i, t := range report.Timings {
		r := i + 2
		values := []interface{}{i + 1, t.Name, t.Start, milliseconds(t.Duration), status(t), t.Error}
		for col, v := range values {
			if err := w.setCell(col+1, r, v); err != nil {
				return err
			}
		}
	}

	if err := w.applyFormatting(len(report.Timings)); err != nil {
		return err
	}
	return w.writeSummary(report)
}

func (w *ExcelWriter) setCell(col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return w.file.SetCellValue(w.sheetName, cell, value)
}

// applyFormatting styles the header, sets widths, an auto filter and a frozen header row
func (w *ExcelWriter) applyFormatting(rows int) error {
	lastCol, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return err
	}

	headerStyle, err := w.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4F81BD"}},
	})
	if err != nil {
		return err
	}
	if err := w.file.SetCellStyle(w.sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	if rows > 0 {
		dateStyle, err := w.file.NewStyle(&excelize.Style{NumFmt: 22})
		if err != nil {
			return err
		}
		if err := w.file.SetCellStyle(w.sheetName, "C2", fmt.Sprintf("C%d", rows+1), dateStyle); err != nil {
			return err
		}
	}

	widths := map[string]float64{"A": 6, "B": 40, "C": 22, "D": 14, "E": 10, "F": 60}
	for col, width := range widths {
		if err := w.file.SetColWidth(w.sheetName, col, col, width); err != nil {
			return err
		}
	}

	if err := w.file.AutoFilter(w.sheetName, fmt.Sprintf("A1:%s%d", lastCol, rows+1), nil); err != nil {
		return err
	}

	return w.file.SetPanes(w.sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (w *ExcelWriter) writeSummary(report Report) error {
	if _, err := w.file.NewSheet(summarySheetName); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"scenario", report.Scenario},
		{"started", report.Started},
		{"steps", len(report.Timings)},
		{"failed", report.Failed},
		{"total_ms", milliseconds(report.Total)},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := w.file.SetSheetRow(summarySheetName, cell, &r); err != nil {
			return err
		}
	}
	return w.file.SetColWidth(summarySheetName, "A", "B", 24)
}

// Close saves the workbook to the underlying writer
func (w *ExcelWriter) Close() error {
	defer w.file.Close()
	if err := w.file.Write(w.w); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
