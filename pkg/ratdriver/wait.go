// pkg/ratdriver/wait.go
package ratdriver

import (
	"fmt"
	"strings"
	"time"

	"github.com/tebeka/selenium"

	rerrors "github.com/valpere/ratdriver/internal/errors"
)

// check reports whether a condition holds. Missing and stale elements count
// as "not yet"; any other error ends the wait.
type check func(wd selenium.WebDriver) (bool, error)

func (r *RatDriver) waitUntil(condition string, timeout time.Duration, fn check) error {
	var condErr error
	err := r.wd.WaitWithTimeoutAndInterval(func(wd selenium.WebDriver) (bool, error) {
		ok, err := fn(wd)
		if err == nil {
			return ok, nil
		}
		if isNoSuchElement(err) || isStale(err) {
			return false, nil
		}
		condErr = err
		return false, err
	}, timeout, r.pollInterval)

	switch {
	case err == nil:
		return nil
	case condErr != nil:
		return condErr
	default:
		r.metrics.RecordWaitTimeout(condition)
		return fmt.Errorf("%w: %s not met within %s", rerrors.ErrTimeout, condition, timeout)
	}
}

func clickable(el selenium.WebElement) (bool, error) {
	displayed, err := el.IsDisplayed()
	if err != nil || !displayed {
		return false, err
	}
	return el.IsEnabled()
}

func (r *RatDriver) waitClickable(el selenium.WebElement, timeout time.Duration) error {
	if el == nil {
		return fmt.Errorf("%w: nil element", rerrors.ErrElementNotFound)
	}
	return r.waitUntil("clickable", timeout, func(selenium.WebDriver) (bool, error) {
		return clickable(el)
	})
}

func (r *RatDriver) waitLocatorClickable(ctx finder, by By, timeout time.Duration) (selenium.WebElement, error) {
	if _, _, err := by.Strategy(); err != nil {
		return nil, err
	}
	var found selenium.WebElement
	err := r.waitUntil("clickable", timeout, func(selenium.WebDriver) (bool, error) {
		el, err := findIn(ctx, by)
		if err != nil {
			return false, err
		}
		ok, err := clickable(el)
		if ok {
			found = el
		}
		return ok, err
	})
	return found, err
}

func (r *RatDriver) waitVisible(ctx finder, by By, timeout time.Duration) (selenium.WebElement, error) {
	if _, _, err := by.Strategy(); err != nil {
		return nil, err
	}
	var found selenium.WebElement
	err := r.waitUntil("visible", timeout, func(selenium.WebDriver) (bool, error) {
		el, err := findIn(ctx, by)
		if err != nil {
			return false, err
		}
		displayed, err := el.IsDisplayed()
		if displayed {
			found = el
		}
		return displayed, err
	})
	return found, err
}

// invisible holds when the element is missing, stale or not displayed.
func invisible(wd selenium.WebDriver, by By) (bool, error) {
	el, err := findIn(wd, by)
	if err != nil {
		if isNoSuchElement(err) {
			return true, nil
		}
		return false, err
	}
	displayed, err := el.IsDisplayed()
	if err != nil {
		if isStale(err) {
			return true, nil
		}
		return false, err
	}
	return !displayed, nil
}

func (r *RatDriver) waitStale(el selenium.WebElement, timeout time.Duration) error {
	return r.waitUntil("stale", timeout, func(selenium.WebDriver) (bool, error) {
		if _, err := el.IsEnabled(); err != nil {
			if isStale(err) || isNoSuchElement(err) {
				return true, nil
			}
			return false, err
		}
		return false, nil
	})
}

// WaitForElementToLoad waits for el to become clickable.
func (r *RatDriver) WaitForElementToLoad(el selenium.WebElement) error {
	return r.WaitForElementToLoadWithin(el, r.timeout)
}

// WaitForElementToLoadWithin waits up to timeout for el to become clickable.
func (r *RatDriver) WaitForElementToLoadWithin(el selenium.WebElement, timeout time.Duration) error {
	r.setElement(el)
	return r.run("wait_load", "", "The element did not load in the time allowed.", func() error {
		return r.waitClickable(el, timeout)
	})
}

// WaitForLocatorToLoad waits for the element found by by to become clickable.
func (r *RatDriver) WaitForLocatorToLoad(by By) error {
	return r.WaitForLocatorToLoadWithin(by, r.timeout)
}

func (r *RatDriver) WaitForLocatorToLoadWithin(by By, timeout time.Duration) error {
	r.setLocator(by)
	return r.run("wait_load", by.String(), "The element did not load in the time allowed.", func() error {
		el, err := r.waitLocatorClickable(r.wd, by, timeout)
		if err == nil {
			r.setElement(el)
		}
		return err
	})
}

// WaitForElementToBeClickable waits for el to be displayed and enabled.
func (r *RatDriver) WaitForElementToBeClickable(el selenium.WebElement) error {
	r.setElement(el)
	return r.run("wait_clickable", "", "The element did not become clickable in the time allowed.", func() error {
		return r.waitClickable(el, r.timeout)
	})
}

// WaitForElementToBeVisible waits for by to match a displayed element and returns it.
func (r *RatDriver) WaitForElementToBeVisible(by By) (selenium.WebElement, error) {
	r.setLocator(by)
	var el selenium.WebElement
	err := r.run("wait_visible", by.String(), "The element did not become visible in the time allowed.", func() error {
		var err error
		el, err = r.waitVisible(r.wd, by, r.timeout)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.setElement(el)
	return el, nil
}

// WaitForInvisibilityOfElement waits until by matches nothing visible.
// It fails only when the element is still visible at the timeout.
func (r *RatDriver) WaitForInvisibilityOfElement(by By) error {
	r.setLocator(by)
	return r.run("wait_invisible", by.String(), "The element remained visible in the time allowed.", func() error {
		if _, _, err := by.Strategy(); err != nil {
			return err
		}
		return r.waitUntil("invisible", r.timeout, func(wd selenium.WebDriver) (bool, error) {
			return invisible(wd, by)
		})
	})
}

// WaitForInvisibilityOfElementWithText waits until no visible element found
// by by shows text.
func (r *RatDriver) WaitForInvisibilityOfElementWithText(by By, text string) error {
	r.setLocator(by)
	return r.run("wait_invisible", by.String(), "The element text remained visible in the time allowed.", func() error {
		if _, _, err := by.Strategy(); err != nil {
			return err
		}
		return r.waitUntil("invisible_text", r.timeout, func(wd selenium.WebDriver) (bool, error) {
			gone, err := invisible(wd, by)
			if err != nil || gone {
				return gone, err
			}
			el, err := findIn(wd, by)
			if err != nil {
				return isNoSuchElement(err), nil
			}
			current, err := el.Text()
			if err != nil {
				return isStale(err), nil
			}
			return !strings.Contains(current, text), nil
		})
	})
}

// WaitForPageToLoad waits for old, usually the previous page's <html>
// element, to go stale.
func (r *RatDriver) WaitForPageToLoad(old selenium.WebElement) error {
	return r.run("wait_page", "html", "The page did not change in the time allowed.", func() error {
		if old == nil {
			return fmt.Errorf("%w: no previous page element", rerrors.ErrElementNotFound)
		}
		return r.waitStale(old, r.timeout)
	})
}

// WaitForURLToContain waits for the current URL to contain fragment.
func (r *RatDriver) WaitForURLToContain(fragment string) error {
	return r.run("wait_url", fragment, "The browser did not reach the expected address in the time allowed.", func() error {
		return r.waitURL(fragment, r.timeout)
	})
}

func (r *RatDriver) waitURL(fragment string, timeout time.Duration) error {
	return r.waitUntil("url_contains", timeout, func(wd selenium.WebDriver) (bool, error) {
		current, err := wd.CurrentURL()
		if err != nil {
			return false, err
		}
		return strings.Contains(current, fragment), nil
	})
}
