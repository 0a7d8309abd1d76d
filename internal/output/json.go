// internal/output/json.go
package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/valpere/ratdriver/pkg/ratdriver"
)

// JSONWriter writes reports in JSON format
type JSONWriter struct {
	w io.Writer
}

// NewJSONWriter creates a new JSON writer
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: w}
}

type jsonTiming struct {
	Name       string    `json:"name"`
	Start      time.Time `json:"start"`
	DurationMS float64   `json:"duration_ms"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}

type jsonReport struct {
	Scenario string       `json:"scenario"`
	Started  time.Time    `json:"started"`
	TotalMS  float64      `json:"total_ms"`
	Failed   int          `json:"failed"`
	Timings  []jsonTiming `json:"timings"`
}

// Write writes the report as one indented JSON document
func (w *JSONWriter) Write(report Report) error {
	out := jsonReport{
		Scenario: report.Scenario,
		Started:  report.Started,
		TotalMS:  milliseconds(report.Total),
		Failed:   report.Failed,
		Timings:  make([]jsonTiming, 0, len(report.Timings)),
	}
	for _, t := range report.Timings {
		out.Timings = append(out.Timings, toJSON(t))
	}

	encoder := json.NewEncoder(w.w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func toJSON(t ratdriver.Timing) jsonTiming {
	return jsonTiming{
		Name:       t.Name,
		Start:      t.Start,
		DurationMS: milliseconds(t.Duration),
		Status:     status(t),
		Error:      t.Error,
	}
}

// Close is a no-op; the caller owns the underlying writer
func (w *JSONWriter) Close() error {
	return nil
}
