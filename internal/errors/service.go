// internal/errors/service.go - Retry and CLI presentation of driver errors
package errors

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// RetryConfig defines retry behavior
type RetryConfig struct {
	MaxRetries    int           `yaml:"max_retries" json:"max_retries" envconfig:"MAX_RETRIES"`
	BaseDelay     time.Duration `yaml:"base_delay" json:"base_delay" envconfig:"BASE_DELAY"`
	BackoffFactor float64       `yaml:"backoff_factor" json:"backoff_factor" envconfig:"BACKOFF_FACTOR"`
	MaxDelay      time.Duration `yaml:"max_delay" json:"max_delay" envconfig:"MAX_DELAY"`
}

// DefaultRetryConfig returns the retry policy used for starting drivers
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    2,
		BaseDelay:     500 * time.Millisecond,
		BackoffFactor: 2.0,
		MaxDelay:      10 * time.Second,
	}
}

// Service retries operations and turns errors into CLI output
type Service struct {
	retryConfig   RetryConfig
	showTechnical bool
}

// NewService creates a new error service
func NewService(retry RetryConfig) *Service {
	return &Service{retryConfig: retry}
}

// WithVerbose enables technical error details
func (s *Service) WithVerbose(verbose bool) *Service {
	s.showTechnical = verbose
	return s
}

// ExecuteWithRetry runs operation until it succeeds, the error is not
// retryable, the attempts are exhausted or ctx is done.
func (s *Service) ExecuteWithRetry(ctx context.Context, operation func() error, operationName string) error {
	var lastErr error

	for attempt := 0; attempt <= s.retryConfig.MaxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err

		if !s.shouldRetry(err, attempt) {
			break
		}

		delay := s.calculateDelay(attempt)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			continue
		}
	}

	return fmt.Errorf("operation %s failed after %d attempts: %w", operationName, s.retryConfig.MaxRetries+1, lastErr)
}

// shouldRetry determines if error is retryable
func (s *Service) shouldRetry(err error, attempt int) bool {
	if attempt >= s.retryConfig.MaxRetries {
		return false
	}
	if Is(err, context.Canceled) || Is(err, ErrInvalidLocator) {
		return false
	}

	errStr := strings.ToLower(err.Error())
	retryableErrors := []string{
		"timeout", "timed out", "connection refused", "connection reset",
		"session not created", "chrome not reachable", "unable to start",
		"temporary", "service unavailable", "eof",
	}

	for _, retryable := range retryableErrors {
		if strings.Contains(errStr, retryable) {
			return true
		}
	}

	return false
}

// calculateDelay computes exponential backoff delay
func (s *Service) calculateDelay(attempt int) time.Duration {
	delay := time.Duration(float64(s.retryConfig.BaseDelay) * math.Pow(s.retryConfig.BackoffFactor, float64(attempt)))
	if s.retryConfig.MaxDelay > 0 && delay > s.retryConfig.MaxDelay {
		delay = s.retryConfig.MaxDelay
	}
	return delay
}

// GetUserFriendlyError converts technical errors to user-friendly messages
func (s *Service) GetUserFriendlyError(err error) (title, message string, suggestions []string) {
	if err == nil {
		return "", "", nil
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case Is(err, ErrValidation):
		return "Invalid Scenario",
			"The scenario file could not be parsed or has invalid steps.",
			[]string{
				"Run `ratdriver validate --scenario <file>` to list every problem",
				"Check YAML indentation (use spaces, not tabs)",
			}
	case Is(err, ErrConfig):
		return "Configuration Error",
			"Unable to load driver options settings from the config file.",
			[]string{
				"Regenerate a default file with `ratdriver template`",
				"Check YAML indentation (use spaces, not tabs)",
			}
	case Is(err, ErrElementNotFound) || strings.Contains(errStr, "no such element"):
		return "Element Not Found",
			"Could not find the specified element on the page.",
			[]string{
				"Check that the locator type and value are correct",
				"Wait for the element before looking it up",
				"The page structure might have changed",
			}
	case Is(err, ErrTimeout) || strings.Contains(errStr, "timeout"):
		return "Wait Timed Out",
			"The browser did not reach the expected state in time.",
			[]string{
				"Increase the timeout value in the preferences file",
				"Check that the element becomes visible in a manual run",
			}
	case Is(err, ErrNoShadowRoot):
		return "Shadow Root Missing",
			"The element does not host an open shadow root.",
			[]string{
				"Check each locator in the shadow chain",
				"Closed shadow roots cannot be expanded",
			}
	case Is(err, ErrDriverNotStarted) || strings.Contains(errStr, "session not created"):
		return "Driver Not Started",
			"Could not start the chrome driver.",
			[]string{
				"Please investigate the changes you have made to your config file",
				"Check that chromedriver matches the installed Chrome version",
			}
	}

	return "Unexpected Error",
		"An unexpected error occurred during the operation.",
		[]string{
			"Run again with --verbose for technical details",
		}
}

// GetExitCode returns appropriate exit code for error
func (s *Service) GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch {
	case Is(err, ErrDriverNotStarted):
		return 3
	case Is(err, ErrElementNotFound) || Is(err, ErrNoShadowRoot) || Is(err, ErrInvalidLocator):
		return 4
	case Is(err, ErrTimeout):
		return 5
	case Is(err, ErrConfig):
		return 2
	case Is(err, ErrValidation):
		return 6
	default:
		return 1
	}
}

// FormatErrorForCLI formats error for command-line display
func (s *Service) FormatErrorForCLI(err error) string {
	title, message, suggestions := s.GetUserFriendlyError(err)

	output := fmt.Sprintf("Error: %s\n%s\n", title, message)

	if s.showTechnical {
		output += fmt.Sprintf("\nTechnical details: %s\n", err.Error())
	}

	if len(suggestions) > 0 {
		output += "\nSuggestions:\n"
		for _, suggestion := range suggestions {
			output += fmt.Sprintf("  - %s\n", suggestion)
		}
	}

	return output
}
