// pkg/ratdriver/shadow.go
package ratdriver

import (
	"fmt"

	"github.com/tebeka/selenium"
	"github.com/tidwall/gjson"

	rerrors "github.com/valpere/ratdriver/internal/errors"
)

// Shadow roots are reached through scripts that return elements, since
// shadow root references cannot be decoded as elements.
const (
	ScriptHasShadowRoot  = "return arguments[0].shadowRoot != null;"
	ScriptShadowQuery    = "return arguments[0].shadowRoot.querySelector(arguments[1]);"
	ScriptShadowQueryAll = "return Array.from(arguments[0].shadowRoot.querySelectorAll(arguments[1]));"
)

// ShadowRoot is the open shadow root of a host element. Only locators that
// translate to CSS (css selector, id, name, class name, tag name) work inside it.
type ShadowRoot struct {
	wd   selenium.WebDriver
	host selenium.WebElement
}

// Host returns the element hosting the shadow root.
func (s *ShadowRoot) Host() selenium.WebElement { return s.host }

// FindElement returns the first element of the shadow tree matching by.
func (s *ShadowRoot) FindElement(by By) (selenium.WebElement, error) {
	css, err := by.CSS()
	if err != nil {
		return nil, err
	}
	raw, err := s.wd.ExecuteScriptRaw(ScriptShadowQuery, []interface{}{s.host, css})
	if err != nil {
		return nil, err
	}
	if v := gjson.GetBytes(raw, "value"); !v.Exists() || v.Type == gjson.Null {
		return nil, fmt.Errorf("%w: %s in shadow root", rerrors.ErrElementNotFound, by)
	}
	return s.wd.DecodeElement(raw)
}

// FindElements returns every element of the shadow tree matching by.
func (s *ShadowRoot) FindElements(by By) ([]selenium.WebElement, error) {
	css, err := by.CSS()
	if err != nil {
		return nil, err
	}
	raw, err := s.wd.ExecuteScriptRaw(ScriptShadowQueryAll, []interface{}{s.host, css})
	if err != nil {
		return nil, err
	}
	if len(gjson.GetBytes(raw, "value").Array()) == 0 {
		return nil, nil
	}
	return s.wd.DecodeElements(raw)
}

func (r *RatDriver) expand(host selenium.WebElement) (*ShadowRoot, error) {
	if host == nil {
		return nil, fmt.Errorf("%w: nil host element", rerrors.ErrElementNotFound)
	}
	raw, err := r.wd.ExecuteScriptRaw(ScriptHasShadowRoot, []interface{}{host})
	if err != nil {
		return nil, err
	}
	if !gjson.GetBytes(raw, "value").Bool() {
		return nil, rerrors.ErrNoShadowRoot
	}
	return &ShadowRoot{wd: r.wd, host: host}, nil
}

// ExpandShadowRoot opens the shadow root hosted by el.
func (r *RatDriver) ExpandShadowRoot(el selenium.WebElement) (*ShadowRoot, error) {
	r.setElement(el)
	var root *ShadowRoot
	err := r.run("expand_shadow", "", "Could not expand the element passed.", func() error {
		var err error
		root, err = r.expand(el)
		return err
	})
	return root, err
}

// ExpandShadowRootBy opens the shadow root hosted by the element found by by.
func (r *RatDriver) ExpandShadowRootBy(by By) (*ShadowRoot, error) {
	r.setLocator(by)
	var root *ShadowRoot
	err := r.run("expand_shadow", by.String(), fmt.Sprintf("Could not expand the element found using the %s : %s.", by.Type, by.Value), func() error {
		host, err := findIn(r.wd, by)
		if err != nil {
			return err
		}
		r.setElement(host)
		root, err = r.expand(host)
		return err
	})
	return root, err
}

// ExpandShadowRootTree finds locators[0] in the document and each following
// locator inside the shadow root of the previous match, returning the
// innermost shadow root.
func (r *RatDriver) ExpandShadowRootTree(locators []By) (*ShadowRoot, error) {
	var root *ShadowRoot
	err := r.run("expand_shadow_tree", chain(locators), "Could not expand the tree.", func() error {
		if len(locators) == 0 {
			return rerrors.ErrEmptyLocatorChain
		}
		r.setLocator(locators[0])
		host, err := findIn(r.wd, locators[0])
		if err != nil {
			return err
		}
		if root, err = r.expand(host); err != nil {
			return err
		}
		for _, by := range locators[1:] {
			r.setLocator(by)
			if host, err = root.FindElement(by); err != nil {
				return err
			}
			if root, err = r.expand(host); err != nil {
				return err
			}
		}
		r.setElement(root.Host())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return root, nil
}

// ExpandShadowRootTreeFrom opens the shadow root of rootEl, then finds each
// locator inside the shadow root of the previous match, and returns the last
// element found.
func (r *RatDriver) ExpandShadowRootTreeFrom(rootEl selenium.WebElement, locators []By) (selenium.WebElement, error) {
	r.setElement(rootEl)
	var el selenium.WebElement
	err := r.run("expand_shadow_tree", chain(locators), "Could not expand the tree.", func() error {
		var err error
		el, err = r.walk(rootEl, locators)
		return err
	})
	return el, err
}

// ExpandShadowRootTreeFromLocator is ExpandShadowRootTreeFrom with the root
// element found by root.
func (r *RatDriver) ExpandShadowRootTreeFromLocator(root By, locators []By) (selenium.WebElement, error) {
	r.setLocator(root)
	var el selenium.WebElement
	err := r.run("expand_shadow_tree", root.String()+" >> "+chain(locators), "Could not expand the tree.", func() error {
		rootEl, err := findIn(r.wd, root)
		if err != nil {
			return err
		}
		el, err = r.walk(rootEl, locators)
		return err
	})
	return el, err
}

func (r *RatDriver) walk(host selenium.WebElement, locators []By) (selenium.WebElement, error) {
	if len(locators) == 0 {
		return nil, rerrors.ErrEmptyLocatorChain
	}
	el := host
	for _, by := range locators {
		r.setLocator(by)
		root, err := r.expand(el)
		if err != nil {
			return nil, err
		}
		if el, err = root.FindElement(by); err != nil {
			return nil, err
		}
		r.setElement(el)
	}
	return el, nil
}

func chain(locators []By) string {
	out := ""
	for i, by := range locators {
		if i > 0 {
			out += " >> "
		}
		out += by.String()
	}
	return out
}
