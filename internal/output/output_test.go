// internal/output/output_test.go
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/valpere/ratdriver/pkg/ratdriver"
)

var started = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func sampleReport() Report {
	return Report{
		Scenario: "checkout",
		Started:  started,
		Total:    1750 * time.Millisecond,
		Failed:   1,
		Timings: []ratdriver.Timing{
			{Name: "open home", Start: started, Duration: 1500 * time.Millisecond},
			{Name: "click buy", Start: started.Add(1500 * time.Millisecond), Duration: 250 * time.Millisecond, Error: "click: element not interactable"},
		},
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]OutputFormat{
		"out/report.json": FormatJSON,
		"report.CSV":      FormatCSV,
		"report.yml":      FormatYAML,
		"report.yaml":     FormatYAML,
		"a/b/report.xlsx": FormatExcel,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("report.pdf")
	assert.Error(t, err)
	_, err = FormatFromPath("report")
	assert.Error(t, err)
}

func TestNewReport(t *testing.T) {
	clock := ratdriver.NewClock()
	_, _ = clock.Measure("first", func() error { return nil })
	_, _ = clock.Measure("second", func() error { return errors.New("boom") })

	report := NewReport("smoke", clock)
	assert.Equal(t, "smoke", report.Scenario)
	assert.Len(t, report.Timings, 2)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, clock.Total(), report.Total)
	assert.Equal(t, report.Timings[0].Start, report.Started)
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONWriter(&buf).Write(sampleReport()))

	var got struct {
		Scenario string  `json:"scenario"`
		TotalMS  float64 `json:"total_ms"`
		Failed   int     `json:"failed"`
		Timings  []struct {
			Name       string  `json:"name"`
			DurationMS float64 `json:"duration_ms"`
			Status     string  `json:"status"`
			Error      string  `json:"error"`
		} `json:"timings"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "checkout", got.Scenario)
	assert.Equal(t, 1750.0, got.TotalMS)
	require.Len(t, got.Timings, 2)
	assert.Equal(t, 1500.0, got.Timings[0].DurationMS)
	assert.Equal(t, "passed", got.Timings[0].Status)
	assert.Equal(t, "failed", got.Timings[1].Status)
	assert.NotContains(t, buf.String(), `"error": ""`)
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf, ';')
	require.NoError(t, w.Write(sampleReport()))
	require.NoError(t, w.Close())

	r := csv.NewReader(&buf)
	r.Comma = ';'
	records, err := r.ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, columns, records[0])
	assert.Equal(t, []string{"1", "open home", "2024-05-01T09:00:00Z", "1500.000", "passed", ""}, records[1])
	assert.Equal(t, "click: element not interactable", records[2][5])
}

func TestYAMLWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewYAMLWriter(&buf)
	require.NoError(t, w.Write(sampleReport()))
	require.NoError(t, w.Close())

	var got struct {
		Scenario string `yaml:"scenario"`
		Total    string `yaml:"total"`
		Timings  []struct {
			Name     string `yaml:"name"`
			Duration string `yaml:"duration"`
			Status   string `yaml:"status"`
		} `yaml:"timings"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "checkout", got.Scenario)
	assert.Equal(t, "1.75s", got.Total)
	require.Len(t, got.Timings, 2)
	assert.Equal(t, "250ms", got.Timings[1].Duration)
	assert.Equal(t, "failed", got.Timings[1].Status)
}

func TestExcelWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewExcelWriter(&buf, "")
	require.NoError(t, w.Write(sampleReport()))
	require.NoError(t, w.Close())

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DefaultExcelSheetName, summarySheetName}, f.GetSheetList())

	rows, err := f.GetRows(DefaultExcelSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, columns, rows[0])
	assert.Equal(t, "open home", rows[1][1])
	assert.Equal(t, "1500", rows[1][3])
	assert.Equal(t, "failed", rows[2][4])

	failed, err := f.GetCellValue(summarySheetName, "B4")
	require.NoError(t, err)
	assert.Equal(t, "1", failed)
}

func TestManager_WriteFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := NewManager(fs, nil)

	for _, path := range []string{"reports/run.json", "reports/run.csv", "reports/run.yaml", "reports/run.xlsx"} {
		require.NoError(t, m.WriteFile(path, sampleReport()), path)
		info, err := fs.Stat(path)
		require.NoError(t, err, path)
		assert.Greater(t, info.Size(), int64(0), path)
	}

	data, err := afero.ReadFile(fs, "reports/run.json")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario": "checkout"`)

	assert.Error(t, m.WriteFile("reports/run.txt", sampleReport()))
	assert.Error(t, NewManager(afero.NewReadOnlyFs(fs), nil).WriteFile("other/run.json", sampleReport()))
}

func TestNewWriter_Unsupported(t *testing.T) {
	_, err := NewWriter(OutputFormat("pdf"), &bytes.Buffer{})
	assert.Error(t, err)
	assert.Len(t, ValidOutputFormats(), 4)
}
