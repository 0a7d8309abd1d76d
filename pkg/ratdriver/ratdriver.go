// pkg/ratdriver/ratdriver.go

// Package ratdriver wraps a selenium.WebDriver with the helpers UI tests reach
// for most: finding elements by every locator strategy, clicking with a
// keyboard fallback, waiting on visibility, clickability, invisibility and
// page changes, reading text, attributes and CSS values, walking shadow
// trees, and timing the steps of a test.
//
// Every helper returns its error after handing it to the configured
// errors.Handler, which prints it according to the debug level.
package ratdriver

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tebeka/selenium"

	"github.com/valpere/ratdriver/internal/config"
	rerrors "github.com/valpere/ratdriver/internal/errors"
	"github.com/valpere/ratdriver/internal/monitoring"
	"github.com/valpere/ratdriver/internal/utils"
)

const (
	DefaultTimeout      = config.DefaultTimeout
	DefaultPollInterval = 500 * time.Millisecond
	DefaultHoverTime    = 2 * time.Second
)

// RatDriver is the helper surface over one WebDriver session.
type RatDriver struct {
	wd selenium.WebDriver

	ctx          context.Context
	timeout      time.Duration
	pollInterval time.Duration
	hoverTime    time.Duration

	logger  utils.Logger
	handler *rerrors.Handler
	metrics *monitoring.MetricsManager
	limiter *utils.RateLimiter

	mu       sync.Mutex
	element  selenium.WebElement
	elements []selenium.WebElement
	locator  By
}

// Option configures a RatDriver.
type Option func(*RatDriver)

func WithTimeout(d time.Duration) Option {
	return func(r *RatDriver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(r *RatDriver) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithHoverTime bounds the wait before a hover.
func WithHoverTime(d time.Duration) Option {
	return func(r *RatDriver) {
		if d > 0 {
			r.hoverTime = d
		}
	}
}

func WithLogger(l utils.Logger) Option {
	return func(r *RatDriver) { r.logger = l }
}

func WithHandler(h *rerrors.Handler) Option {
	return func(r *RatDriver) { r.handler = h }
}

func WithMetrics(m *monitoring.MetricsManager) Option {
	return func(r *RatDriver) { r.metrics = m }
}

// WithRateLimit paces helper actions; a non-positive rate disables it.
func WithRateLimit(actionsPerSecond float64, burst int) Option {
	return func(r *RatDriver) {
		if actionsPerSecond > 0 {
			r.limiter = utils.NewRateLimiter(actionsPerSecond, burst)
		}
	}
}

// WithContext bounds rate limiter waits.
func WithContext(ctx context.Context) Option {
	return func(r *RatDriver) { r.ctx = ctx }
}

// PreferenceOptions maps the loaded preferences onto options.
func PreferenceOptions(prefs *config.Preferences, logger utils.Logger) []Option {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return []Option{
		WithTimeout(prefs.Timeout.Duration()),
		WithHoverTime(prefs.MenuHoverTime.Duration()),
		WithPollInterval(prefs.Waits.PollInterval.Duration()),
		WithLogger(logger),
		WithHandler(rerrors.NewHandler(prefs.DebugLevel, logger)),
		WithRateLimit(prefs.Actions.RatePerSecond, prefs.Actions.Burst),
	}
}

// New wraps wd. Without options the default timeout is 10 seconds and errors
// are printed at the message level.
func New(wd selenium.WebDriver, opts ...Option) *RatDriver {
	r := &RatDriver{
		wd:           wd,
		ctx:          context.Background(),
		timeout:      DefaultTimeout,
		pollInterval: DefaultPollInterval,
		hoverTime:    DefaultHoverTime,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = utils.NewNopLogger()
	}
	if r.handler == nil {
		r.handler = rerrors.NewHandler(rerrors.LevelNotSpecified, r.logger)
	}
	return r
}

// Driver returns the wrapped WebDriver.
func (r *RatDriver) Driver() selenium.WebDriver { return r.wd }

// Timeout returns the default wait timeout.
func (r *RatDriver) Timeout() time.Duration { return r.timeout }

// Element returns the element most recently touched by a helper.
func (r *RatDriver) Element() selenium.WebElement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.element
}

// Elements returns the collection most recently returned by a finder.
func (r *RatDriver) Elements() []selenium.WebElement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elements
}

// Locator returns the locator most recently used by a helper.
func (r *RatDriver) Locator() By {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.locator
}

func (r *RatDriver) setElement(el selenium.WebElement) {
	r.mu.Lock()
	r.element = el
	r.mu.Unlock()
}

func (r *RatDriver) setElements(els []selenium.WebElement) {
	r.mu.Lock()
	r.elements = els
	r.mu.Unlock()
}

func (r *RatDriver) setLocator(by By) {
	r.mu.Lock()
	r.locator = by
	r.mu.Unlock()
}

// run paces, times, logs and reports one helper action.
func (r *RatDriver) run(action, target, human string, fn func() error) error {
	log := r.logger.WithFields(map[string]interface{}{
		"action":  action,
		"locator": target,
	})

	if err := r.limiter.Wait(r.ctx); err != nil {
		return r.handler.Handle(human, rerrors.Wrap(action, target, err))
	}

	start := time.Now()
	err := fn()
	r.metrics.RecordAction(action, time.Since(start), err)

	if err != nil {
		err = rerrors.Wrap(action, target, err)
		log.Debugf("failed: %v", err)
		return r.handler.Handle(human, err)
	}
	log.Debug("done")
	return nil
}

// finder is satisfied by both selenium.WebDriver and selenium.WebElement.
type finder interface {
	FindElement(by, value string) (selenium.WebElement, error)
	FindElements(by, value string) ([]selenium.WebElement, error)
}

func findIn(ctx finder, by By) (selenium.WebElement, error) {
	strategy, value, err := by.Strategy()
	if err != nil {
		return nil, err
	}
	el, err := ctx.FindElement(strategy, value)
	if err != nil {
		return nil, notFound(err)
	}
	return el, nil
}

func findAllIn(ctx finder, by By) ([]selenium.WebElement, error) {
	strategy, value, err := by.Strategy()
	if err != nil {
		return nil, err
	}
	els, err := ctx.FindElements(strategy, value)
	if err != nil {
		return nil, notFound(err)
	}
	return els, nil
}

func notFound(err error) error {
	if err == nil || rerrors.Is(err, rerrors.ErrElementNotFound) || !isNoSuchElement(err) {
		return err
	}
	return &wrappedError{sentinel: rerrors.ErrElementNotFound, err: err}
}

func isNoSuchElement(err error) bool {
	if rerrors.Is(err, rerrors.ErrElementNotFound) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such element") || strings.Contains(msg, "unable to locate element")
}

func isStale(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "stale element reference")
}

// wrappedError keeps the driver's text while matching a sentinel.
type wrappedError struct {
	sentinel error
	err      error
}

func (e *wrappedError) Error() string { return e.err.Error() }

func (e *wrappedError) Unwrap() []error { return []error{e.sentinel, e.err} }
