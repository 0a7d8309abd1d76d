// internal/config/config.go
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	rerrors "github.com/valpere/ratdriver/internal/errors"
)

// DefaultTimeout applies when the preferences leave timeout empty.
const DefaultTimeout = 10 * time.Second

// Default returns preferences with every default applied.
func Default() *Preferences {
	p := &Preferences{}
	applyDefaults(p)
	return p
}

// LoadFromFile loads preferences from a YAML file on fs
func LoadFromFile(fs afero.Fs, filename string) (*Preferences, error) {
	if filename == "" {
		return nil, configError("configuration filename cannot be empty")
	}

	// Check if file exists
	exists, err := afero.Exists(fs, filename)
	if err != nil {
		return nil, configError("failed to stat configuration file: %w", err)
	}
	if !exists {
		return nil, configError("configuration file not found: %s", filename)
	}

	data, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, configError("failed to read configuration file: %w", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads preferences from YAML bytes, then applies environment
// overrides and defaults before validating.
func LoadFromBytes(data []byte) (*Preferences, error) {
	if len(data) == 0 {
		return nil, configError("configuration data cannot be empty")
	}

	// Substitute environment variables
	expanded := expandEnvironmentVariables(string(data))

	var prefs Preferences
	if err := yaml.Unmarshal([]byte(expanded), &prefs); err != nil {
		return nil, configError("failed to parse YAML configuration: %w", err)
	}

	if err := applyEnvOverrides(&prefs); err != nil {
		return nil, err
	}

	applyDefaults(&prefs)

	if err := prefs.Validate(); err != nil {
		return nil, configError("invalid configuration: %w", err)
	}

	return &prefs, nil
}

// LoadFromReader loads preferences from an io.Reader
func LoadFromReader(reader io.Reader) (*Preferences, error) {
	if reader == nil {
		return nil, configError("reader cannot be nil")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, configError("failed to read from reader: %w", err)
	}

	return LoadFromBytes(data)
}

// LoadOrDefault loads filename when given, otherwise returns the defaults
// with environment overrides applied.
func LoadOrDefault(fs afero.Fs, filename string) (*Preferences, error) {
	if filename != "" {
		return LoadFromFile(fs, filename)
	}

	prefs := &Preferences{}
	if err := applyEnvOverrides(prefs); err != nil {
		return nil, err
	}
	applyDefaults(prefs)

	if err := prefs.Validate(); err != nil {
		return nil, configError("invalid configuration: %w", err)
	}
	return prefs, nil
}

// SaveToFile saves preferences to a YAML file on fs
func SaveToFile(fs afero.Fs, prefs *Preferences, filename string) error {
	if filename == "" {
		return configError("filename cannot be empty")
	}

	// Ensure directory exists
	dir := filepath.Dir(filename)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return configError("failed to create directory %s: %w", dir, err)
	}

	f, err := fs.Create(filename)
	if err != nil {
		return configError("failed to create configuration file: %w", err)
	}
	defer f.Close()

	return SaveToWriter(prefs, f)
}

// SaveToWriter saves preferences to an io.Writer
func SaveToWriter(prefs *Preferences, writer io.Writer) error {
	if prefs == nil {
		return configError("configuration cannot be nil")
	}

	if writer == nil {
		return configError("writer cannot be nil")
	}

	// Validate configuration before saving
	if err := prefs.Validate(); err != nil {
		return configError("invalid configuration: %w", err)
	}

	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(prefs); err != nil {
		return configError("failed to marshal configuration to YAML: %w", err)
	}

	return encoder.Close()
}

// GenerateTemplate returns a starting preferences file for a local desktop run.
func GenerateTemplate() *Preferences {
	prefs := &Preferences{
		Name:       "local-chrome",
		DebugLevel: rerrors.LevelHuman,
		Chrome: ChromeConfig{
			Headless: true,
			W3C:      true,
			Args:     []string{"--no-sandbox", "--disable-dev-shm-usage", "--window-size=1920,1080"},
		},
		MobileEmulation: MobileEmulationConfig{
			EnableTouchEvents: true,
			Width:             360,
			Height:            640,
			PixelRatio:        3.0,
		},
		Actions: ActionConfig{
			RatePerSecond: 10,
			Burst:         5,
		},
		Metrics: MetricsConfig{
			ListenAddress: ":9090",
		},
	}
	applyDefaults(prefs)
	return prefs
}

// Helper functions

// configError formats an error marked as a configuration failure
func configError(format string, args ...interface{}) error {
	return rerrors.Mark(fmt.Errorf(format, args...), rerrors.ErrConfig)
}

// expandEnvironmentVariables substitutes environment variables in the configuration
func expandEnvironmentVariables(content string) string {
	return os.ExpandEnv(content)
}

// applyEnvOverrides applies RATDRIVER_* variables on top of the file values
func applyEnvOverrides(prefs *Preferences) error {
	if err := envconfig.Process(EnvPrefix, prefs); err != nil {
		return configError("failed to apply environment overrides: %w", err)
	}
	return nil
}

// applyDefaults applies default values to the preferences
func applyDefaults(prefs *Preferences) {
	if prefs.Timeout == 0 {
		prefs.Timeout = Timespan(DefaultTimeout)
	}

	if prefs.Waits.PollInterval == 0 {
		prefs.Waits.PollInterval = Timespan(500 * time.Millisecond)
	}

	if prefs.Actions.RatePerSecond > 0 && prefs.Actions.Burst == 0 {
		prefs.Actions.Burst = 1
	}

	if prefs.Logging.Level == "" {
		prefs.Logging.Level = "info"
	}

	if prefs.Logging.Format == "" {
		prefs.Logging.Format = "text"
	}

	if prefs.Metrics.Namespace == "" {
		prefs.Metrics.Namespace = "ratdriver"
	}

	if prefs.Metrics.Enabled && prefs.Metrics.ListenAddress == "" {
		prefs.Metrics.ListenAddress = ":9090"
	}

	if prefs.Retry == (rerrors.RetryConfig{}) {
		prefs.Retry = rerrors.DefaultRetryConfig()
	}

	if prefs.Retry.BackoffFactor == 0 {
		prefs.Retry.BackoffFactor = 2.0
	}
}
