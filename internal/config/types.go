// internal/config/types.go

// Package config provides the preferences that drive RatDriver: the browser
// and chromedriver settings, mobile emulation defaults, waits, logging and
// metrics. Preferences are read from YAML and may be overridden from the
// environment.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	rerrors "github.com/valpere/ratdriver/internal/errors"
)

// EnvPrefix is the prefix of every environment override, e.g.
// RATDRIVER_CHROME_BINARY_LOCATION.
const EnvPrefix = "ratdriver"

// Preferences represents the complete preferences file.
type Preferences struct {
	// Name identifies this preferences set
	Name string `yaml:"name" json:"name" envconfig:"NAME"`

	// Timeout is the default wait and command timeout
	Timeout Timespan `yaml:"timeout" json:"timeout" envconfig:"TIMEOUT"`

	// MenuHoverTime bounds the wait before a hover action
	MenuHoverTime Timespan `yaml:"menu_hover_time" json:"menu_hover_time" envconfig:"MENU_HOVER_TIME"`

	// DebugLevel controls console reporting of failures
	DebugLevel rerrors.DebugLevel `yaml:"debug_level" json:"debug_level" envconfig:"DEBUG_LEVEL"`

	Chrome          ChromeConfig          `yaml:"chrome" json:"chrome" envconfig:"CHROME"`
	ChromeDriver    DriverServiceConfig   `yaml:"chromedriver" json:"chromedriver" envconfig:"CHROMEDRIVER"`
	MobileEmulation MobileEmulationConfig `yaml:"mobile_emulation" json:"mobile_emulation" envconfig:"MOBILE_EMULATION"`
	Performance     PerformanceConfig     `yaml:"performance" json:"performance" envconfig:"PERFORMANCE"`
	Waits           WaitConfig            `yaml:"waits" json:"waits" envconfig:"WAITS"`
	Actions         ActionConfig          `yaml:"actions" json:"actions" envconfig:"ACTIONS"`
	Logging         LoggingConfig         `yaml:"logging" json:"logging" envconfig:"LOGGING"`
	Metrics         MetricsConfig         `yaml:"metrics" json:"metrics" envconfig:"METRICS"`
	Retry           rerrors.RetryConfig   `yaml:"retry" json:"retry" envconfig:"RETRY"`
}

// ChromeConfig holds the Chrome browser options.
type ChromeConfig struct {
	// BinaryLocation is the Chrome executable; empty lets chromedriver decide
	BinaryLocation string `yaml:"binary_location,omitempty" json:"binary_location,omitempty" envconfig:"BINARY_LOCATION"`

	// DebuggerAddress connects to an already running Chrome (host:port)
	DebuggerAddress string `yaml:"debugger_address,omitempty" json:"debugger_address,omitempty" envconfig:"DEBUGGER_ADDRESS"`

	// MinidumpPath is where Chrome stores crash dumps (Linux only)
	MinidumpPath string `yaml:"minidump_path,omitempty" json:"minidump_path,omitempty" envconfig:"MINIDUMP_PATH"`

	// LeaveBrowserRunning keeps Chrome alive after the session ends
	LeaveBrowserRunning bool `yaml:"leave_browser_running" json:"leave_browser_running" envconfig:"LEAVE_BROWSER_RUNNING"`

	Headless bool     `yaml:"headless" json:"headless" envconfig:"HEADLESS"`
	Args     []string `yaml:"args,omitempty" json:"args,omitempty" envconfig:"ARGS"`
	W3C      bool     `yaml:"w3c" json:"w3c" envconfig:"W3C"`

	// CapabilityList holds additional capabilities as name=value|type items
	CapabilityList string `yaml:"capability_list,omitempty" json:"capability_list,omitempty" envconfig:"CAPABILITY_LIST"`

	// ExtensionsList is a comma separated list of .crx files
	ExtensionsList string `yaml:"extensions_list,omitempty" json:"extensions_list,omitempty" envconfig:"EXTENSIONS_LIST"`

	// LocalStatePreferences and UserProfilePreferences use the
	// name=value|type list format
	LocalStatePreferences  string `yaml:"local_state_preferences,omitempty" json:"local_state_preferences,omitempty" envconfig:"LOCAL_STATE_PREFERENCES"`
	UserProfilePreferences string `yaml:"user_profile_preferences,omitempty" json:"user_profile_preferences,omitempty" envconfig:"USER_PROFILE_PREFERENCES"`
}

// DriverServiceConfig holds the chromedriver service settings.
type DriverServiceConfig struct {
	// BinaryLocation is the chromedriver executable
	BinaryLocation string `yaml:"binary_location,omitempty" json:"binary_location,omitempty" envconfig:"BINARY_LOCATION"`

	// Port for the local service; 0 picks a free port
	Port int `yaml:"port" json:"port" envconfig:"PORT"`

	// LogPath receives the service output when set
	LogPath string `yaml:"log_path,omitempty" json:"log_path,omitempty" envconfig:"LOG_PATH"`

	VerboseLogging bool `yaml:"verbose_logging" json:"verbose_logging" envconfig:"VERBOSE_LOGGING"`

	// SuppressInitialDiagnosticInformation discards service output unless LogPath is set
	SuppressInitialDiagnosticInformation bool `yaml:"suppress_initial_diagnostic_information" json:"suppress_initial_diagnostic_information" envconfig:"SUPPRESS_INITIAL_DIAGNOSTIC_INFORMATION"`

	// RemoteURL targets a running Selenium server or grid instead of a local service
	RemoteURL string `yaml:"remote_url,omitempty" json:"remote_url,omitempty" envconfig:"REMOTE_URL"`
}

// MobileEmulationConfig holds the default device metrics for mobile emulation.
type MobileEmulationConfig struct {
	EnableTouchEvents bool    `yaml:"enable_touch_events" json:"enable_touch_events" envconfig:"ENABLE_TOUCH_EVENTS"`
	Height            int     `yaml:"height" json:"height" envconfig:"HEIGHT"`
	Width             int     `yaml:"width" json:"width" envconfig:"WIDTH"`
	PixelRatio        float64 `yaml:"pixel_ratio" json:"pixel_ratio" envconfig:"PIXEL_RATIO"`
	UserAgent         string  `yaml:"user_agent,omitempty" json:"user_agent,omitempty" envconfig:"USER_AGENT"`

	// UseDeviceName asks chromedriver for its own device preset instead of
	// sending explicit metrics
	UseDeviceName bool `yaml:"use_device_name" json:"use_device_name" envconfig:"USE_DEVICE_NAME"`
}

// PerformanceConfig controls chromedriver performance logging.
type PerformanceConfig struct {
	Enabled                      bool     `yaml:"enabled" json:"enabled" envconfig:"ENABLED"`
	CollectNetwork               bool     `yaml:"collect_network" json:"collect_network" envconfig:"COLLECT_NETWORK"`
	CollectPage                  bool     `yaml:"collect_page" json:"collect_page" envconfig:"COLLECT_PAGE"`
	TracingCategories            string   `yaml:"tracing_categories,omitempty" json:"tracing_categories,omitempty" envconfig:"TRACING_CATEGORIES"`
	BufferUsageReportingInterval Timespan `yaml:"buffer_usage_reporting_interval,omitempty" json:"buffer_usage_reporting_interval,omitempty" envconfig:"BUFFER_USAGE_REPORTING_INTERVAL"`
}

// WaitConfig controls polling of wait conditions.
type WaitConfig struct {
	PollInterval Timespan `yaml:"poll_interval" json:"poll_interval" envconfig:"POLL_INTERVAL"`
}

// ActionConfig paces browser actions. A zero rate disables pacing.
type ActionConfig struct {
	RatePerSecond float64 `yaml:"rate_per_second" json:"rate_per_second" envconfig:"RATE_PER_SECOND"`
	Burst         int     `yaml:"burst" json:"burst" envconfig:"BURST"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" json:"format" envconfig:"FORMAT"`
}

// MetricsConfig configures the Prometheus exporter.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled" json:"enabled" envconfig:"ENABLED"`
	Namespace     string `yaml:"namespace" json:"namespace" envconfig:"NAMESPACE"`
	ListenAddress string `yaml:"listen_address" json:"listen_address" envconfig:"LISTEN_ADDRESS"`
}

// Timespan is a duration that also accepts the legacy
// "days,hours,minutes,seconds,milliseconds" notation.
type Timespan time.Duration

// Duration returns t as a time.Duration.
func (t Timespan) Duration() time.Duration {
	return time.Duration(t)
}

func (t Timespan) String() string {
	return time.Duration(t).String()
}

// ParseTimespan accepts "1m30s", "45" (seconds) or "0,0,1,30,0".
func ParseTimespan(s string) (Timespan, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) != 5 {
			return 0, fmt.Errorf("timespan %q: expected days,hours,minutes,seconds,milliseconds", s)
		}
		units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second, time.Millisecond}
		var total time.Duration
		for i, part := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return 0, fmt.Errorf("timespan %q: %w", s, err)
			}
			if n < 0 {
				return 0, fmt.Errorf("timespan %q: negative component", s)
			}
			total += time.Duration(n) * units[i]
		}
		return Timespan(total), nil
	}

	if n, err := strconv.Atoi(s); err == nil {
		return Timespan(time.Duration(n) * time.Second), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("timespan %q: %w", s, err)
	}
	return Timespan(d), nil
}

// UnmarshalYAML satisfies yaml.Unmarshaler.
func (t *Timespan) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseTimespan(value.Value)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalYAML satisfies yaml.Marshaler.
func (t Timespan) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// Decode satisfies envconfig.Decoder.
func (t *Timespan) Decode(value string) error {
	parsed, err := ParseTimespan(value)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
