// internal/scenario/runner.go
package scenario

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/afero"

	"github.com/valpere/ratdriver/internal/monitoring"
	"github.com/valpere/ratdriver/internal/utils"
	"github.com/valpere/ratdriver/pkg/ratdriver"
)

// ErrAssertion marks a step whose check did not hold
var ErrAssertion = errors.New("assertion failed")

// Result summarizes one run
type Result struct {
	Scenario string `json:"scenario"`
	Run      int    `json:"run"`
	Failed   int    `json:"failed"`
	Skipped  int    `json:"skipped"`
}

// Passed reports whether every step ran and succeeded
func (r Result) Passed() bool {
	return r.Failed == 0 && r.Skipped == 0
}

// Runner executes scenarios against one driver
type Runner struct {
	driver  *ratdriver.RatDriver
	fs      afero.Fs
	clock   *ratdriver.Clock
	metrics *monitoring.MetricsManager
	logger  utils.Logger
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithFs sets the filesystem screenshots are written to
func WithFs(fs afero.Fs) RunnerOption {
	return func(r *Runner) { r.fs = fs }
}

func WithMetrics(m *monitoring.MetricsManager) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

func WithLogger(l utils.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithClock records step timings on clock instead of a fresh one
func WithClock(c *ratdriver.Clock) RunnerOption {
	return func(r *Runner) { r.clock = c }
}

// NewRunner creates a runner for driver
func NewRunner(driver *ratdriver.RatDriver, opts ...RunnerOption) *Runner {
	r := &Runner{driver: driver}
	for _, opt := range opts {
		opt(r)
	}
	if r.fs == nil {
		r.fs = afero.NewOsFs()
	}
	if r.clock == nil {
		r.clock = ratdriver.NewClock()
	}
	if r.logger == nil {
		r.logger = utils.NewNopLogger()
	}
	return r
}

// Clock returns the clock step timings are recorded on
func (r *Runner) Clock() *ratdriver.Clock { return r.clock }

// Run executes the steps in order. It stops at the first failure unless the
// scenario continues on error, and returns every step error joined.
func (r *Runner) Run(ctx context.Context, s *Scenario) (Result, error) {
	result := Result{Scenario: s.Name}
	log := r.logger.WithField("scenario", s.Name)
	log.Infof("running %d steps", len(s.Steps))

	var errs []error
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			result.Skipped = len(s.Steps) - i
			return result, errors.Join(append(errs, err)...)
		}

		label := step.Label(i)
		err := r.driver.Timed(r.clock, label, func() error {
			return r.exec(s, step)
		})
		result.Run++

		timings := r.clock.Timings()
		r.metrics.RecordStep(string(step.Action), timings[len(timings)-1].Duration, err)

		stepLog := log.WithFields(map[string]interface{}{
			"step":   label,
			"action": string(step.Action),
		})
		if err == nil {
			stepLog.Debug("step passed")
			continue
		}

		result.Failed++
		stepLog.Warnf("step failed: %v", err)
		errs = append(errs, fmt.Errorf("step %q: %w", label, err))
		if !s.ContinueOnError {
			result.Skipped = len(s.Steps) - i - 1
			break
		}
	}

	log.WithFields(map[string]interface{}{
		"run":     result.Run,
		"failed":  result.Failed,
		"skipped": result.Skipped,
	}).Info("scenario finished")
	return result, errors.Join(errs...)
}

func (r *Runner) exec(s *Scenario, step Step) error {
	d := r.driver
	var by ratdriver.By
	if step.Locator != nil {
		by = step.Locator.By
	}

	switch step.Action {
	case ActionNavigate:
		target, err := resolveURL(s.BaseURL, step.URL)
		if err != nil {
			return err
		}
		return d.NavigateToPage(target)

	case ActionClick:
		return d.ClickLinkBy(by, step.Wait)

	case ActionClickAndWait:
		if step.Value == "" {
			return d.ClickLinkAndWaitBy(by, step.Wait)
		}
		el, err := d.FindElement(by, step.Wait)
		if err != nil {
			return err
		}
		return d.ClickLinkAndWaitForURL(el, step.Value, false)

	case ActionWaitVisible:
		_, err := d.WaitForElementToBeVisible(by)
		return err

	case ActionWaitClickable:
		timeout := step.Timeout.Duration()
		if timeout <= 0 {
			timeout = d.Timeout()
		}
		return d.WaitForLocatorToLoadWithin(by, timeout)

	case ActionWaitInvisible:
		if step.Text != "" {
			return d.WaitForInvisibilityOfElementWithText(by, step.Text)
		}
		return d.WaitForInvisibilityOfElement(by)

	case ActionTextContains:
		text, err := d.GetElementTextBy(by, step.Wait)
		if err != nil {
			return err
		}
		if !strings.Contains(text, step.Text) {
			return fmt.Errorf("%w: text of %s is %q, want it to contain %q", ErrAssertion, by, text, step.Text)
		}
		return nil

	case ActionAttributeEquals:
		value, err := d.GetElementAttributeBy(by, step.Attribute, step.Wait)
		if err != nil {
			return err
		}
		if value != step.Value {
			return fmt.Errorf("%w: %s of %s is %q, want %q", ErrAssertion, step.Attribute, by, value, step.Value)
		}
		return nil

	case ActionCSSEquals:
		value, err := d.GetCSSValueBy(by, step.Property)
		if err != nil {
			return err
		}
		if value != step.Value {
			return fmt.Errorf("%w: %s of %s is %q, want %q", ErrAssertion, step.Property, by, value, step.Value)
		}
		return nil

	case ActionURLContains:
		return d.WaitForURLToContain(step.Value)

	case ActionTitleContains:
		title, err := d.GetBrowserWindowTitle()
		if err != nil {
			return err
		}
		if !strings.Contains(title, step.Value) {
			return fmt.Errorf("%w: title is %q, want it to contain %q", ErrAssertion, title, step.Value)
		}
		return nil

	case ActionSourceContains:
		return r.sourceContains(step)

	case ActionShadowClick:
		el, err := d.ExpandShadowRootTreeFromLocator(step.Chain[0].By, bys(step.Chain[1:]))
		if err != nil {
			return err
		}
		return d.ClickLink(el, false)

	case ActionScreenshot:
		return d.SaveScreenshot(r.fs, step.Path)

	case ActionHover:
		return d.Hover(by)

	case ActionType:
		el, err := d.FindElement(by, step.Wait)
		if err != nil {
			return err
		}
		return d.EnterText(el, step.Text, step.Clear)

	case ActionBack:
		return d.PressBackButton()

	case ActionRefresh:
		return d.RefreshPage()
	}
	return fmt.Errorf("unknown action %q", step.Action)
}

// sourceContains queries the page source offline. With a selector at least
// one element must match; with text the matched text must contain it.
func (r *Runner) sourceContains(step Step) error {
	doc, err := r.driver.PageDocument()
	if err != nil {
		return err
	}

	sel := doc.Selection
	if step.Selector != "" {
		sel = doc.Find(step.Selector)
		if sel.Length() == 0 {
			return fmt.Errorf("%w: no element matches %q", ErrAssertion, step.Selector)
		}
	}
	if step.Text != "" && !strings.Contains(sel.Text(), step.Text) {
		where := "page"
		if step.Selector != "" {
			where = step.Selector
		}
		return fmt.Errorf("%w: %s does not contain %q", ErrAssertion, where, step.Text)
	}
	return nil
}

func resolveURL(base, raw string) (string, error) {
	if base == "" {
		return raw, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base_url: %w", err)
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	return b.ResolveReference(ref).String(), nil
}
