// pkg/ratdriver/actions.go
package ratdriver

import (
	"fmt"
	"strings"

	"github.com/tebeka/selenium"

	rerrors "github.com/valpere/ratdriver/internal/errors"
)

const clickFailed = "Cannot click on the element requested. Both methods fail."

// click tries a mouse click, then the Enter key.
func (r *RatDriver) click(el selenium.WebElement, wait bool) error {
	if el == nil {
		return fmt.Errorf("%w: nil element", rerrors.ErrElementNotFound)
	}

	clickErr := func() error {
		if wait {
			if err := r.waitClickable(el, r.timeout); err != nil {
				return err
			}
		}
		return el.Click()
	}()
	if clickErr == nil {
		return nil
	}

	r.handler.Human("Could not use the click method. Attempting to send Enter key instead.")
	if keyErr := el.SendKeys(selenium.EnterKey); keyErr != nil {
		return fmt.Errorf("click: %w; enter key: %w", clickErr, keyErr)
	}
	return nil
}

// ClickLink clicks el, falling back to the Enter key. wait first waits for el
// to be clickable.
func (r *RatDriver) ClickLink(el selenium.WebElement, wait bool) error {
	r.setElement(el)
	return r.run("click", "", clickFailed, func() error {
		return r.click(el, wait)
	})
}

// ClickLinkBy finds the element and clicks it like ClickLink.
func (r *RatDriver) ClickLinkBy(by By, wait bool) error {
	r.setLocator(by)
	return r.run("click", by.String(), clickFailed, func() error {
		el, err := findIn(r.wd, by)
		if err != nil {
			return err
		}
		r.setElement(el)
		return r.click(el, wait)
	})
}

// ClickLinkAndWait clicks el and waits for the next page to replace the
// current one.
func (r *RatDriver) ClickLinkAndWait(el selenium.WebElement, wait bool) error {
	r.setElement(el)
	return r.run("click_and_wait", "", "Failure during attempt to click a link which opens a page.", func() error {
		return r.clickAndWait(el, wait)
	})
}

// ClickLinkAndWaitBy finds the element and clicks it like ClickLinkAndWait.
func (r *RatDriver) ClickLinkAndWaitBy(by By, wait bool) error {
	r.setLocator(by)
	return r.run("click_and_wait", by.String(), "Failure during attempt to click a link which opens a page.", func() error {
		el, err := findIn(r.wd, by)
		if err != nil {
			return err
		}
		r.setElement(el)
		return r.clickAndWait(el, wait)
	})
}

func (r *RatDriver) clickAndWait(el selenium.WebElement, wait bool) error {
	lastPage, err := findIn(r.wd, ByTagName("html"))
	if err != nil {
		return err
	}
	if err := r.click(el, wait); err != nil {
		return err
	}
	return r.waitStale(lastPage, r.timeout)
}

// ClickLinkAndWaitForURL clicks el and waits for the URL to contain fragment.
func (r *RatDriver) ClickLinkAndWaitForURL(el selenium.WebElement, fragment string, wait bool) error {
	r.setElement(el)
	return r.run("click_and_wait", fragment, "Failure during attempt to click a link which opens a page.", func() error {
		if err := r.click(el, wait); err != nil {
			return err
		}
		return r.waitURL(fragment, r.timeout)
	})
}

// Hover waits up to the hover time for by to be visible and moves the mouse
// over it.
func (r *RatDriver) Hover(by By) error {
	r.setLocator(by)
	return r.run("hover", by.String(), "Could not hover over the element requested.", func() error {
		el, err := r.waitVisible(r.wd, by, r.hoverTime)
		if err != nil {
			return err
		}
		r.setElement(el)
		return el.MoveTo(0, 0)
	})
}

// HoverElement waits up to the hover time for el to be clickable and moves
// the mouse over it.
func (r *RatDriver) HoverElement(el selenium.WebElement) error {
	r.setElement(el)
	return r.run("hover", "", "Could not hover over the element requested.", func() error {
		if err := r.waitClickable(el, r.hoverTime); err != nil {
			return err
		}
		return el.MoveTo(0, 0)
	})
}

// EnterText types text into el, clearing it first when clear is set.
func (r *RatDriver) EnterText(el selenium.WebElement, text string, clear bool) error {
	r.setElement(el)
	return r.run("enter_text", "", "Could not enter text into the element requested.", func() error {
		if el == nil {
			return fmt.Errorf("%w: nil element", rerrors.ErrElementNotFound)
		}
		if clear {
			if err := el.Clear(); err != nil {
				return err
			}
		}
		return el.SendKeys(text)
	})
}

// elementText prefers innerText and falls back to the element text.
func elementText(el selenium.WebElement) (string, error) {
	if text, err := el.GetAttribute("innerText"); err == nil {
		return strings.TrimSpace(text), nil
	}
	return el.Text()
}

// GetElementText returns the visible text of el. wait first waits for el to
// be clickable.
func (r *RatDriver) GetElementText(el selenium.WebElement, wait bool) (string, error) {
	r.setElement(el)
	var text string
	err := r.run("get_text", "", "Could not get the text of the specified element.", func() error {
		if el == nil {
			return fmt.Errorf("%w: nil element", rerrors.ErrElementNotFound)
		}
		if wait {
			if err := r.waitClickable(el, r.timeout); err != nil {
				return err
			}
		}
		var err error
		text, err = elementText(el)
		return err
	})
	return text, err
}

// GetElementTextBy returns the visible text of the element found by by. wait
// first waits for it to be visible.
func (r *RatDriver) GetElementTextBy(by By, wait bool) (string, error) {
	r.setLocator(by)
	var text string
	err := r.run("get_text", by.String(), "Could not get the text of the specified element.", func() error {
		el, err := r.locate(r.wd, by, wait)
		if err != nil {
			return err
		}
		text, err = elementText(el)
		return err
	})
	return text, err
}

// GetElementAttribute returns the value of attribute on el.
func (r *RatDriver) GetElementAttribute(el selenium.WebElement, attribute string, wait bool) (string, error) {
	r.setElement(el)
	var value string
	err := r.run("get_attribute", attribute, "Could not get the attribute of the specified element.", func() error {
		if el == nil {
			return fmt.Errorf("%w: nil element", rerrors.ErrElementNotFound)
		}
		if wait {
			if err := r.waitClickable(el, r.timeout); err != nil {
				return err
			}
		}
		var err error
		value, err = el.GetAttribute(attribute)
		return err
	})
	return value, err
}

// GetElementAttributeBy returns the value of attribute on the element found by by.
func (r *RatDriver) GetElementAttributeBy(by By, attribute string, wait bool) (string, error) {
	r.setLocator(by)
	var value string
	err := r.run("get_attribute", by.String(), "Could not get the attribute of the specified element.", func() error {
		el, err := r.locate(r.wd, by, wait)
		if err != nil {
			return err
		}
		value, err = el.GetAttribute(attribute)
		return err
	})
	return value, err
}

// GetCSSValue returns the computed value of a CSS property of el.
func (r *RatDriver) GetCSSValue(el selenium.WebElement, property string) (string, error) {
	r.setElement(el)
	var value string
	err := r.run("get_css", property, "Unable to retrieve the css value required with defined parameters.", func() error {
		if el == nil {
			return fmt.Errorf("%w: nil element", rerrors.ErrElementNotFound)
		}
		var err error
		value, err = el.CSSProperty(property)
		return err
	})
	return value, err
}

func (r *RatDriver) GetCSSValueBy(by By, property string) (string, error) {
	r.setLocator(by)
	var value string
	err := r.run("get_css", by.String(), "Unable to retrieve the css value required with defined parameters.", func() error {
		el, err := findIn(r.wd, by)
		if err != nil {
			return err
		}
		r.setElement(el)
		value, err = el.CSSProperty(property)
		return err
	})
	return value, err
}

// ElementExists reports whether el is attached and displayed.
func (r *RatDriver) ElementExists(el selenium.WebElement) bool {
	r.setElement(el)
	if el == nil {
		return false
	}
	displayed, err := el.IsDisplayed()
	return err == nil && displayed
}

// ElementExistsBy reports whether by matches an element in the page,
// displayed or not.
func (r *RatDriver) ElementExistsBy(by By) bool {
	r.setLocator(by)
	el, err := findIn(r.wd, by)
	if err != nil {
		return false
	}
	r.setElement(el)
	return true
}
