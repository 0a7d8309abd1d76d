// internal/output/csv.go
package output

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVWriter writes reports in CSV format, one row per timing
type CSVWriter struct {
	writer *csv.Writer
}

// NewCSVWriter creates a new CSV writer. A zero delimiter means a comma.
func NewCSVWriter(w io.Writer, delimiter rune) *CSVWriter {
	writer := csv.NewWriter(w)
	if delimiter != 0 {
		writer.Comma = delimiter
	}
	return &CSVWriter{writer: writer}
}

// Write writes the header and every timing
func (w *CSVWriter) Write(report Report) error {
	if err := w.writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, t := range report.Timings {
		if err := w.writer.Write(row(i, t)); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	w.writer.Flush()
	return w.writer.Error()
}

// Close flushes any buffered rows
func (w *CSVWriter) Close() error {
	w.writer.Flush()
	return w.writer.Error()
}
