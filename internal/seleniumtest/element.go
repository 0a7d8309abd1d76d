// internal/seleniumtest/element.go
package seleniumtest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tebeka/selenium"
	"golang.org/x/net/html"
)

// Errors mirror the chromedriver error texts.
var (
	ErrStale           = errors.New("stale element reference: element is not attached to the page document")
	ErrNotInteractable = errors.New("element not interactable")
	ErrNoSuchElement   = errors.New("no such element: Unable to locate element")
	ErrInvalidSession  = errors.New("invalid session id")
)

// Element is a fake selenium.WebElement backed by a parsed HTML node.
// Methods outside the ones overridden here panic.
type Element struct {
	selenium.WebElement

	d     *Driver
	id    string
	node  *html.Node
	stale bool

	clicks int
	keys   []string
}

// ID returns the WebDriver element reference.
func (e *Element) ID() string { return e.id }

// Node returns the underlying HTML node.
func (e *Element) Node() *html.Node { return e.node }

// Clicks returns how many clicks reached the element.
func (e *Element) Clicks() int {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	return e.clicks
}

// Keys returns the key sequences sent to the element.
func (e *Element) Keys() []string {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	return append([]string(nil), e.keys...)
}

// ShadowRoot returns the element's open shadow root as a searchable element.
func (e *Element) ShadowRoot() (*Element, bool) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	root := shadowRootOf(e.node)
	if root == nil || e.stale {
		return nil, false
	}
	return e.d.wrap(root), true
}

func (e *Element) check() error {
	if e.stale {
		return ErrStale
	}
	return nil
}

func (e *Element) Click() error {
	e.d.mu.Lock()
	if err := e.check(); err != nil {
		e.d.mu.Unlock()
		return err
	}
	if err, ok := e.d.clickErrs[e.node]; ok {
		e.d.mu.Unlock()
		return err
	}
	if hiddenNode(e.node) {
		e.d.mu.Unlock()
		return ErrNotInteractable
	}
	e.clicks++
	hook := e.d.clickHooks[attr(e.node, "id")]
	href := ""
	if e.node.Data == "a" {
		href = attr(e.node, "href")
	}
	e.d.mu.Unlock()

	if hook != nil {
		hook(e.d)
	}
	if href != "" {
		return e.d.Get(href)
	}
	return nil
}

func (e *Element) SendKeys(keys string) error {
	e.d.mu.Lock()
	if err := e.check(); err != nil {
		e.d.mu.Unlock()
		return err
	}
	if err, ok := e.d.keyErrs[e.node]; ok {
		e.d.mu.Unlock()
		return err
	}
	e.keys = append(e.keys, keys)

	if keys == selenium.EnterKey && e.node.Data == "a" {
		href := attr(e.node, "href")
		e.d.mu.Unlock()
		if href != "" {
			return e.d.Get(href)
		}
		return nil
	}

	setAttr(e.node, "value", attr(e.node, "value")+keys)
	e.d.mu.Unlock()
	return nil
}

func (e *Element) Clear() error {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return err
	}
	setAttr(e.node, "value", "")
	return nil
}

func (e *Element) Submit() error {
	return e.Click()
}

func (e *Element) MoveTo(xOffset, yOffset int) error {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return err
	}
	e.d.hovered = e
	return nil
}

func (e *Element) FindElement(by, value string) (selenium.WebElement, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return nil, err
	}
	return e.d.findOne(e.node, by, value)
}

func (e *Element) FindElements(by, value string) ([]selenium.WebElement, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return nil, err
	}
	return e.d.findAll(e.node, by, value)
}

func (e *Element) TagName() (string, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return "", err
	}
	return e.node.Data, nil
}

func (e *Element) Text() (string, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return "", err
	}
	if hiddenNode(e.node) {
		return "", nil
	}
	return nodeText(e.node), nil
}

func (e *Element) IsSelected() (bool, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return false, err
	}
	_, selected := lookupAttr(e.node, "selected")
	_, checked := lookupAttr(e.node, "checked")
	return selected || checked, nil
}

func (e *Element) IsEnabled() (bool, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return false, err
	}
	_, disabled := lookupAttr(e.node, "disabled")
	return !disabled, nil
}

func (e *Element) IsDisplayed() (bool, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return false, err
	}
	return !hiddenNode(e.node), nil
}

// GetAttribute also answers the innerText and textContent properties.
func (e *Element) GetAttribute(name string) (string, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return "", err
	}

	switch name {
	case "innerText":
		if hiddenNode(e.node) {
			return "", nil
		}
		return nodeText(e.node), nil
	case "textContent":
		return nodeText(e.node), nil
	}

	v, ok := lookupAttr(e.node, name)
	if !ok {
		return "", fmt.Errorf("nil return value")
	}
	return v, nil
}

func (e *Element) CSSProperty(name string) (string, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return "", err
	}
	return cssProperty(e.node, name), nil
}

func (e *Element) Location() (*selenium.Point, error) {
	return &selenium.Point{}, e.checkLocked()
}

func (e *Element) LocationInView() (*selenium.Point, error) {
	return &selenium.Point{}, e.checkLocked()
}

func (e *Element) Size() (*selenium.Size, error) {
	return &selenium.Size{Width: 100, Height: 20}, e.checkLocked()
}

func (e *Element) Screenshot(scroll bool) ([]byte, error) {
	if err := e.checkLocked(); err != nil {
		return nil, err
	}
	return []byte("\x89PNG element " + strings.ToLower(e.node.Data)), nil
}

func (e *Element) checkLocked() error {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	return e.check()
}

// MarshalJSON matches the W3C element reference used in script arguments.
func (e *Element) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`{%q:%q,"ELEMENT":%q}`, webElementKey, e.id, e.id)), nil
}
