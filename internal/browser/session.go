// internal/browser/session.go
package browser

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"

	rerrors "github.com/valpere/ratdriver/internal/errors"
	"github.com/valpere/ratdriver/internal/monitoring"
	"github.com/valpere/ratdriver/internal/utils"
)

// Session is an open Chrome WebDriver session together with the chromedriver
// service that backs it.
type Session struct {
	selenium.WebDriver

	service      DriverService
	closers      []io.Closer
	leaveRunning bool
	logger       utils.Logger
	metrics      *monitoring.MetricsManager

	closeOnce sync.Once
	closeErr  error
}

// NewSession wraps an already open WebDriver.
func NewSession(wd selenium.WebDriver) *Session {
	return &Session{WebDriver: wd, logger: utils.NewNopLogger()}
}

func (s *Session) applyTimeouts(timeout time.Duration) error {
	if timeout <= 0 {
		return nil
	}
	if err := s.SetPageLoadTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set page load timeout: %w", err)
	}
	if err := s.SetAsyncScriptTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set script timeout: %w", err)
	}
	return nil
}

// DebuggerAddress returns the host:port of Chrome's DevTools endpoint as
// reported by chromedriver.
func (s *Session) DebuggerAddress() (string, error) {
	caps, err := s.Capabilities()
	if err != nil {
		return "", fmt.Errorf("failed to read session capabilities: %w", err)
	}

	opts, ok := caps[chrome.CapabilitiesKey].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("session capabilities have no %s section", chrome.CapabilitiesKey)
	}

	addr, _ := opts["debuggerAddress"].(string)
	if addr == "" {
		return "", fmt.Errorf("session reports no debugger address")
	}
	return addr, nil
}

// Quit ends the session and stops the service. When the browser should be
// left running only the service is stopped. Quit is safe to call twice.
func (s *Session) Quit() error {
	s.closeOnce.Do(func() {
		var errs []error

		if !s.leaveRunning && s.WebDriver != nil {
			if err := s.WebDriver.Quit(); err != nil {
				errs = append(errs, fmt.Errorf("quit: %w", err))
			}
		}

		if s.service != nil {
			if err := s.service.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("stop chromedriver: %w", err))
			}
		}

		closeAll(s.closers)
		s.metrics.SessionClosed()

		if len(errs) > 0 {
			s.closeErr = rerrors.Join(errs...)
			s.logger.Warnf("%v", s.closeErr)
			return
		}
		s.logger.Debug("session closed")
	})
	return s.closeErr
}
