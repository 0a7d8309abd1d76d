// internal/output/manager.go
package output

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/valpere/ratdriver/internal/utils"
)

// Manager writes reports to files on fs
type Manager struct {
	fs     afero.Fs
	logger utils.Logger
}

// NewManager creates a new output manager. A nil fs means the OS filesystem.
func NewManager(fs afero.Fs, logger utils.Logger) *Manager {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Manager{fs: fs, logger: logger}
}

// NewWriter returns the writer for format on top of w
func NewWriter(format OutputFormat, w io.Writer) (Writer, error) {
	switch format {
	case FormatJSON:
		return NewJSONWriter(w), nil
	case FormatCSV:
		return NewCSVWriter(w, 0), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	case FormatExcel:
		return NewExcelWriter(w, ""), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteFile writes report to path in the format named by its extension
func (m *Manager) WriteFile(path string, report Report) (err error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := m.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	file, err := m.fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	writer, err := NewWriter(format, file)
	if err != nil {
		return err
	}
	if err := writer.Write(report); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write %s report: %w", format, err)
	}
	if err := writer.Close(); err != nil {
		return err
	}

	m.logger.WithFields(map[string]interface{}{
		"path":   path,
		"format": string(format),
		"steps":  len(report.Timings),
	}).Info("report written")
	return nil
}
