// internal/config/validation.go - Validation with detailed error messages
package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/valpere/ratdriver/internal/capability"
	rerrors "github.com/valpere/ratdriver/internal/errors"
	"github.com/valpere/ratdriver/internal/utils"
)

// ValidationError represents a detailed validation error
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []string          `json:"warnings"`
}

func (r *ValidationResult) addError(field, value, format string, args ...interface{}) {
	r.Errors = append(r.Errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	})
}

// Validate checks the preferences and reports every problem found.
func (p *Preferences) Validate() error {
	result := p.ValidateWithDetails()
	if !result.Valid {
		return formatValidationError(result)
	}
	return nil
}

// ValidateWithDetails provides detailed validation results
func (p *Preferences) ValidateWithDetails() *ValidationResult {
	result := &ValidationResult{
		Errors:   make([]ValidationError, 0),
		Warnings: make([]string, 0),
	}

	p.validateTimings(result)
	p.validateChrome(result)
	p.validateDriverService(result)
	p.validateMobileEmulation(result)
	p.validateAmbient(result)

	result.Valid = len(result.Errors) == 0
	return result
}

// validateTimings checks the wait related values
func (p *Preferences) validateTimings(result *ValidationResult) {
	if p.Timeout <= 0 {
		result.addError("timeout", p.Timeout.String(), "Timeout must be positive")
	}
	if p.MenuHoverTime < 0 {
		result.addError("menu_hover_time", p.MenuHoverTime.String(), "Menu hover time cannot be negative")
	}
	if p.Waits.PollInterval <= 0 {
		result.addError("waits.poll_interval", p.Waits.PollInterval.String(), "Poll interval must be positive")
	} else if p.Timeout > 0 && p.Waits.PollInterval > p.Timeout {
		result.Warnings = append(result.Warnings, "waits.poll_interval is longer than timeout; waits will poll once")
	}
}

// validateChrome checks browser options and the typed lists
func (p *Preferences) validateChrome(result *ValidationResult) {
	c := p.Chrome

	if c.DebuggerAddress != "" {
		if _, _, err := net.SplitHostPort(c.DebuggerAddress); err != nil {
			result.addError("chrome.debugger_address", c.DebuggerAddress, "Debugger address must be host:port")
		}
	}

	lists := []struct{ field, value string }{
		{"chrome.capability_list", c.CapabilityList},
		{"chrome.local_state_preferences", c.LocalStatePreferences},
		{"chrome.user_profile_preferences", c.UserProfilePreferences},
	}
	for _, list := range lists {
		if _, err := capability.ParseList(list.value); err != nil {
			result.addError(list.field, list.value, "%v", err)
		}
	}

	for _, ext := range capability.SplitList(c.ExtensionsList) {
		if !strings.HasSuffix(strings.ToLower(ext), ".crx") {
			result.Warnings = append(result.Warnings, fmt.Sprintf("extension %s does not have a .crx suffix", ext))
		}
	}
}

// validateDriverService checks the chromedriver settings
func (p *Preferences) validateDriverService(result *ValidationResult) {
	d := p.ChromeDriver

	if d.Port < 0 || d.Port > 65535 {
		result.addError("chromedriver.port", fmt.Sprint(d.Port), "Port must be between 0 and 65535")
	}

	if d.RemoteURL != "" {
		u, err := url.Parse(d.RemoteURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			result.addError("chromedriver.remote_url", d.RemoteURL, "Remote URL must be absolute (http://host:port/wd/hub)")
		} else if d.BinaryLocation != "" {
			result.Warnings = append(result.Warnings, "chromedriver.binary_location is ignored when remote_url is set")
		}
	} else if d.BinaryLocation == "" {
		result.Warnings = append(result.Warnings, "chromedriver.binary_location is empty; chromedriver must be on PATH")
	}
}

// validateMobileEmulation checks the default device metrics
func (p *Preferences) validateMobileEmulation(result *ValidationResult) {
	m := p.MobileEmulation

	if m.Width < 0 {
		result.addError("mobile_emulation.width", fmt.Sprint(m.Width), "Width cannot be negative")
	}
	if m.Height < 0 {
		result.addError("mobile_emulation.height", fmt.Sprint(m.Height), "Height cannot be negative")
	}
	if m.PixelRatio < 0 {
		result.addError("mobile_emulation.pixel_ratio", fmt.Sprint(m.PixelRatio), "Pixel ratio cannot be negative")
	}
}

// validateAmbient checks logging, pacing and metrics settings
func (p *Preferences) validateAmbient(result *ValidationResult) {
	if _, err := utils.ParseLogLevel(p.Logging.Level); err != nil {
		result.addError("logging.level", p.Logging.Level, "%v", err)
	}

	switch p.Logging.Format {
	case "text", "json":
	default:
		result.addError("logging.format", p.Logging.Format, "Log format must be text or json")
	}

	if p.Actions.RatePerSecond < 0 {
		result.addError("actions.rate_per_second", fmt.Sprint(p.Actions.RatePerSecond), "Action rate cannot be negative")
	}
	if p.Actions.Burst < 0 {
		result.addError("actions.burst", fmt.Sprint(p.Actions.Burst), "Burst cannot be negative")
	}

	if p.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(p.Metrics.ListenAddress); err != nil {
			result.addError("metrics.listen_address", p.Metrics.ListenAddress, "Listen address must be host:port")
		}
	}

	if p.Retry.MaxRetries < 0 {
		result.addError("retry.max_retries", fmt.Sprint(p.Retry.MaxRetries), "Max retries cannot be negative")
	}
}

// formatValidationError creates a comprehensive error message
func formatValidationError(result *ValidationResult) error {
	var errorMsg strings.Builder

	errorMsg.WriteString("Configuration validation failed:\n")

	for i, err := range result.Errors {
		errorMsg.WriteString(fmt.Sprintf("  %d. %s", i+1, err.Message))
		if err.Field != "" {
			errorMsg.WriteString(fmt.Sprintf(" (field: %s)", err.Field))
		}
		if err.Value != "" {
			errorMsg.WriteString(fmt.Sprintf(" (value: %s)", err.Value))
		}
		errorMsg.WriteString("\n")
	}

	return rerrors.Mark(fmt.Errorf("%s", errorMsg.String()), rerrors.ErrConfig)
}
