// internal/seleniumtest/scripts.go
package seleniumtest

import (
	"fmt"

	"github.com/tebeka/selenium"
)

func hostArg(args []interface{}) (*Element, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("javascript error: missing element argument")
	}
	el, ok := args[0].(*Element)
	if !ok {
		return nil, fmt.Errorf("javascript error: argument is %T, not an element", args[0])
	}
	return el, nil
}

// HasShadowRoot answers `arguments[0].shadowRoot != null`.
func HasShadowRoot(d *Driver, args []interface{}) (interface{}, error) {
	host, err := hostArg(args)
	if err != nil {
		return nil, err
	}
	_, ok := host.ShadowRoot()
	return ok, nil
}

// ShadowQuery answers `arguments[0].shadowRoot.querySelector(arguments[1])`.
func ShadowQuery(d *Driver, args []interface{}) (interface{}, error) {
	matches, err := shadowQuery(args)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	return matches[0], nil
}

// ShadowQueryAll answers `arguments[0].shadowRoot.querySelectorAll(arguments[1])`.
func ShadowQueryAll(d *Driver, args []interface{}) (interface{}, error) {
	matches, err := shadowQuery(args)
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []selenium.WebElement{}
	}
	return matches, nil
}

func shadowQuery(args []interface{}) ([]selenium.WebElement, error) {
	host, err := hostArg(args)
	if err != nil {
		return nil, err
	}
	if len(args) < 2 {
		return nil, fmt.Errorf("javascript error: missing selector argument")
	}
	css, _ := args[1].(string)

	root, ok := host.ShadowRoot()
	if !ok {
		return nil, fmt.Errorf("javascript error: Cannot read properties of null (reading 'querySelector')")
	}
	return root.FindElements(selenium.ByCSSSelector, css)
}

// WindowSize answers a script returning the outer window size.
func WindowSize(d *Driver, args []interface{}) (interface{}, error) {
	handle, err := d.CurrentWindowHandle()
	if err != nil {
		return nil, err
	}
	size := d.WindowSize(handle)
	return map[string]int{"width": size.Width, "height": size.Height}, nil
}

// WindowPosition answers a script returning the window's screen position.
func WindowPosition(d *Driver, args []interface{}) (interface{}, error) {
	return map[string]int{"x": 0, "y": 0}, nil
}

// OpenWindow answers window.open by adding a window.
func OpenWindow(d *Driver, args []interface{}) (interface{}, error) {
	d.OpenWindow()
	return nil, nil
}
