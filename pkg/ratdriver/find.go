// pkg/ratdriver/find.go
package ratdriver

import (
	"fmt"
	"strings"

	"github.com/tebeka/selenium"

	rerrors "github.com/valpere/ratdriver/internal/errors"
)

// locate finds by in ctx, waiting for visibility first when wait is set.
func (r *RatDriver) locate(ctx finder, by By, wait bool) (selenium.WebElement, error) {
	var (
		el  selenium.WebElement
		err error
	)
	if wait {
		el, err = r.waitVisible(ctx, by, r.timeout)
	} else {
		el, err = findIn(ctx, by)
	}
	if err != nil {
		return nil, err
	}
	r.setElement(el)
	return el, nil
}

func (r *RatDriver) locateAll(ctx finder, by By, wait bool) ([]selenium.WebElement, error) {
	if wait {
		if _, err := r.waitVisible(ctx, by, r.timeout); err != nil {
			return nil, err
		}
	}
	els, err := findAllIn(ctx, by)
	if err != nil {
		return nil, err
	}
	r.setElements(els)
	return els, nil
}

func findFailed(by By) string {
	return fmt.Sprintf("Could not find an element using the %s: %s.", by.Type, by.Value)
}

// FindElement finds the first element matching by. wait first waits for it
// to be visible.
func (r *RatDriver) FindElement(by By, wait bool) (selenium.WebElement, error) {
	r.setLocator(by)
	var el selenium.WebElement
	err := r.run("find", by.String(), findFailed(by), func() error {
		var err error
		el, err = r.locate(r.wd, by, wait)
		return err
	})
	return el, err
}

// FindElements finds every element matching by. wait first waits for one of
// them to be visible.
func (r *RatDriver) FindElements(by By, wait bool) ([]selenium.WebElement, error) {
	r.setLocator(by)
	var els []selenium.WebElement
	err := r.run("find_all", by.String(), findFailed(by), func() error {
		var err error
		els, err = r.locateAll(r.wd, by, wait)
		return err
	})
	return els, err
}

// FindSubElements finds the elements matching by below parent.
func (r *RatDriver) FindSubElements(parent selenium.WebElement, by By, wait bool) ([]selenium.WebElement, error) {
	r.setElement(parent)
	var els []selenium.WebElement
	err := r.run("find_sub", by.String(), fmt.Sprintf("Could not find subelements using the %s: %s.", by.Type, by.Value), func() error {
		if parent == nil {
			return fmt.Errorf("%w: nil parent element", rerrors.ErrElementNotFound)
		}
		if wait {
			if err := r.waitClickable(parent, r.timeout); err != nil {
				return err
			}
		}
		var err error
		els, err = r.locateAll(parent, by, wait)
		return err
	})
	return els, err
}

// FindSubElementsFromLocator finds the elements matching by below the element
// found by parent.
func (r *RatDriver) FindSubElementsFromLocator(parent By, by By, wait bool) ([]selenium.WebElement, error) {
	r.setLocator(parent)
	var els []selenium.WebElement
	err := r.run("find_sub", parent.String()+" > "+by.String(), fmt.Sprintf("Could not find a subelement using the %s: %s.", by.Type, by.Value), func() error {
		p, err := r.locate(r.wd, parent, wait)
		if err != nil {
			return err
		}
		els, err = r.locateAll(p, by, wait)
		return err
	})
	return els, err
}

func (r *RatDriver) FindElementByCssSelector(css string, wait bool) (selenium.WebElement, error) {
	return r.FindElement(ByCssSelector(css), wait)
}

func (r *RatDriver) FindElementByClassName(className string, wait bool) (selenium.WebElement, error) {
	return r.FindElement(ByClassName(className), wait)
}

func (r *RatDriver) FindElementByID(id string, wait bool) (selenium.WebElement, error) {
	return r.FindElement(ByID(id), wait)
}

func (r *RatDriver) FindElementByLinkText(text string, wait bool) (selenium.WebElement, error) {
	return r.FindElement(ByLinkText(text), wait)
}

func (r *RatDriver) FindElementByPartialLinkText(text string, wait bool) (selenium.WebElement, error) {
	return r.FindElement(ByPartialLinkText(text), wait)
}

func (r *RatDriver) FindElementByName(name string, wait bool) (selenium.WebElement, error) {
	return r.FindElement(ByName(name), wait)
}

func (r *RatDriver) FindElementByTag(tag string, wait bool) (selenium.WebElement, error) {
	return r.FindElement(ByTagName(tag), wait)
}

func (r *RatDriver) FindElementByXPath(xpath string, wait bool) (selenium.WebElement, error) {
	return r.FindElement(ByXPath(xpath), wait)
}

func (r *RatDriver) FindElementsByCssSelector(css string, wait bool) ([]selenium.WebElement, error) {
	return r.FindElements(ByCssSelector(css), wait)
}

func (r *RatDriver) FindElementsByClassName(className string, wait bool) ([]selenium.WebElement, error) {
	return r.FindElements(ByClassName(className), wait)
}

func (r *RatDriver) FindElementsByLinkText(text string, wait bool) ([]selenium.WebElement, error) {
	return r.FindElements(ByLinkText(text), wait)
}

func (r *RatDriver) FindElementsByPartialLinkText(text string, wait bool) ([]selenium.WebElement, error) {
	return r.FindElements(ByPartialLinkText(text), wait)
}

func (r *RatDriver) FindElementsByName(name string, wait bool) ([]selenium.WebElement, error) {
	return r.FindElements(ByName(name), wait)
}

func (r *RatDriver) FindElementsByTag(tag string, wait bool) ([]selenium.WebElement, error) {
	return r.FindElements(ByTagName(tag), wait)
}

func (r *RatDriver) FindElementsByXPath(xpath string, wait bool) ([]selenium.WebElement, error) {
	return r.FindElements(ByXPath(xpath), wait)
}

func (r *RatDriver) FindSubElementsByCssSelector(parent selenium.WebElement, css string, wait bool) ([]selenium.WebElement, error) {
	return r.FindSubElements(parent, ByCssSelector(css), wait)
}

func (r *RatDriver) FindSubElementsByClassName(parent selenium.WebElement, className string, wait bool) ([]selenium.WebElement, error) {
	return r.FindSubElements(parent, ByClassName(className), wait)
}

func (r *RatDriver) FindSubElementsByLinkText(parent selenium.WebElement, text string, wait bool) ([]selenium.WebElement, error) {
	return r.FindSubElements(parent, ByLinkText(text), wait)
}

func (r *RatDriver) FindSubElementsByPartialLinkText(parent selenium.WebElement, text string, wait bool) ([]selenium.WebElement, error) {
	return r.FindSubElements(parent, ByPartialLinkText(text), wait)
}

func (r *RatDriver) FindSubElementsByName(parent selenium.WebElement, name string, wait bool) ([]selenium.WebElement, error) {
	return r.FindSubElements(parent, ByName(name), wait)
}

func (r *RatDriver) FindSubElementsByTag(parent selenium.WebElement, tag string, wait bool) ([]selenium.WebElement, error) {
	return r.FindSubElements(parent, ByTagName(tag), wait)
}

func (r *RatDriver) FindSubElementsByXPath(parent selenium.WebElement, xpath string, wait bool) ([]selenium.WebElement, error) {
	return r.FindSubElements(parent, ByXPath(xpath), wait)
}

func (r *RatDriver) FindSubElementsByCssSelectorFromLocator(parent By, css string, wait bool) ([]selenium.WebElement, error) {
	return r.FindSubElementsFromLocator(parent, ByCssSelector(css), wait)
}

func (r *RatDriver) FindSubElementsByClassNameFromLocator(parent By, className string, wait bool) ([]selenium.WebElement, error) {
	return r.FindSubElementsFromLocator(parent, ByClassName(className), wait)
}

func (r *RatDriver) FindSubElementsByLinkTextFromLocator(parent By, text string, wait bool) ([]selenium.WebElement, error) {
	return r.FindSubElementsFromLocator(parent, ByLinkText(text), wait)
}

func (r *RatDriver) FindSubElementsByPartialLinkTextFromLocator(parent By, text string, wait bool) ([]selenium.WebElement, error) {
	return r.FindSubElementsFromLocator(parent, ByPartialLinkText(text), wait)
}

func (r *RatDriver) FindSubElementsByNameFromLocator(parent By, name string, wait bool) ([]selenium.WebElement, error) {
	return r.FindSubElementsFromLocator(parent, ByName(name), wait)
}

func (r *RatDriver) FindSubElementsByTagFromLocator(parent By, tag string, wait bool) ([]selenium.WebElement, error) {
	return r.FindSubElementsFromLocator(parent, ByTagName(tag), wait)
}

func (r *RatDriver) FindSubElementsByXPathFromLocator(parent By, xpath string, wait bool) ([]selenium.WebElement, error) {
	return r.FindSubElementsFromLocator(parent, ByXPath(xpath), wait)
}

// ExtractElementFromCollectionByAttribute returns the first element below
// parent, found with typ and locator, whose attribute contains value.
func (r *RatDriver) ExtractElementFromCollectionByAttribute(parent selenium.WebElement, typ LocatorType, locator, attribute, value string, wait bool) (selenium.WebElement, error) {
	r.setElement(parent)
	var match selenium.WebElement
	err := r.run("extract", locator, "Unable to extract the element required with defined parameters.", func() error {
		if parent == nil {
			return fmt.Errorf("%w: nil parent element", rerrors.ErrElementNotFound)
		}
		if wait {
			if err := r.waitClickable(parent, r.timeout); err != nil {
				return err
			}
		}
		var err error
		match, err = r.extract(parent, By{Type: typ, Value: locator}, attribute, value)
		return err
	})
	return match, err
}

// ExtractElementFromCollectionByAttributeFromLocator is
// ExtractElementFromCollectionByAttribute with the parent found by parent.
func (r *RatDriver) ExtractElementFromCollectionByAttributeFromLocator(parent By, typ LocatorType, locator, attribute, value string, wait bool) (selenium.WebElement, error) {
	r.setLocator(parent)
	var match selenium.WebElement
	err := r.run("extract", parent.String(), "Unable to extract the element required with defined parameters.", func() error {
		p, err := r.locate(r.wd, parent, wait)
		if err != nil {
			return err
		}
		match, err = r.extract(p, By{Type: typ, Value: locator}, attribute, value)
		return err
	})
	return match, err
}

func (r *RatDriver) extract(parent selenium.WebElement, by By, attribute, value string) (selenium.WebElement, error) {
	els, err := findAllIn(parent, by)
	if err != nil {
		return nil, err
	}
	r.setElements(els)

	for _, el := range els {
		got, err := el.GetAttribute(attribute)
		if err != nil {
			// Missing attributes come back as errors.
			continue
		}
		if strings.Contains(got, value) {
			r.setElement(el)
			return el, nil
		}
	}
	return nil, fmt.Errorf("%w: no %s with %s containing %q", rerrors.ErrElementNotFound, by, attribute, value)
}
