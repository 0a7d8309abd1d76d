// internal/output/yaml.go
package output

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLWriter writes reports as YAML documents
type YAMLWriter struct {
	encoder *yaml.Encoder
}

// NewYAMLWriter creates a new YAML writer with two space indentation
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	return &YAMLWriter{encoder: encoder}
}

type yamlTiming struct {
	Name     string `yaml:"name"`
	Start    string `yaml:"start"`
	Duration string `yaml:"duration"`
	Status   string `yaml:"status"`
	Error    string `yaml:"error,omitempty"`
}

// Write encodes the report as one document. Durations are written in Go
// notation, e.g. 1.25s.
func (w *YAMLWriter) Write(report Report) error {
	timings := make([]yamlTiming, 0, len(report.Timings))
	for i, t := range report.Timings {
		cells := row(i, t)
		timings = append(timings, yamlTiming{
			Name:     t.Name,
			Start:    cells[2],
			Duration: t.Duration.String(),
			Status:   status(t),
			Error:    t.Error,
		})
	}

	doc := map[string]interface{}{
		"scenario": report.Scenario,
		"started":  report.Started.Format("2006-01-02T15:04:05.999999999Z07:00"),
		"total":    report.Total.String(),
		"failed":   report.Failed,
		"timings":  timings,
	}
	if err := w.encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode YAML report: %w", err)
	}
	return nil
}

// Close finishes the YAML stream
func (w *YAMLWriter) Close() error {
	return w.encoder.Close()
}
