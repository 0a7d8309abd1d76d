// internal/output/types.go

// Package output writes timing reports of scenario runs as JSON, CSV, YAML
// or Excel workbooks.
package output

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/valpere/ratdriver/pkg/ratdriver"
)

// OutputFormat represents supported report formats
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatCSV   OutputFormat = "csv"
	FormatYAML  OutputFormat = "yaml"
	FormatExcel OutputFormat = "xlsx"
)

// ValidOutputFormats returns all valid output format values
func ValidOutputFormats() []OutputFormat {
	return []OutputFormat{FormatJSON, FormatCSV, FormatYAML, FormatExcel}
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "xlsx":
		return FormatExcel, nil
	default:
		return "", fmt.Errorf("unsupported report format for %q (want .json, .csv, .yaml or .xlsx)", path)
	}
}

// Report is the outcome of one scenario run.
type Report struct {
	Scenario string             `json:"scenario" yaml:"scenario"`
	Started  time.Time          `json:"started" yaml:"started"`
	Total    time.Duration      `json:"total" yaml:"total"`
	Failed   int                `json:"failed" yaml:"failed"`
	Timings  []ratdriver.Timing `json:"timings" yaml:"timings"`
}

// NewReport summarizes the timings recorded on clock.
func NewReport(scenario string, clock *ratdriver.Clock) Report {
	r := Report{Scenario: scenario, Timings: clock.Timings(), Total: clock.Total()}
	for i, t := range r.Timings {
		if i == 0 || t.Start.Before(r.Started) {
			r.Started = t.Start
		}
		if t.Error != "" {
			r.Failed++
		}
	}
	return r
}

// Writer writes a report in one format
type Writer interface {
	Write(report Report) error
	Close() error
}

// columns are the tabular report headers.
var columns = []string{"step", "name", "start", "duration_ms", "status", "error"}

func status(t ratdriver.Timing) string {
	if t.Error != "" {
		return "failed"
	}
	return "passed"
}

func milliseconds(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// row renders one timing for the tabular formats.
func row(i int, t ratdriver.Timing) []string {
	return []string{
		strconv.Itoa(i + 1),
		t.Name,
		t.Start.Format(time.RFC3339Nano),
		strconv.FormatFloat(milliseconds(t.Duration), 'f', 3, 64),
		status(t),
		t.Error,
	}
}
