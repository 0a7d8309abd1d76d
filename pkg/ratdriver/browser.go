// pkg/ratdriver/browser.go
package ratdriver

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/afero"
	"github.com/tebeka/selenium"
	slog "github.com/tebeka/selenium/log"
	"github.com/tidwall/gjson"

	rerrors "github.com/valpere/ratdriver/internal/errors"
)

const (
	ScriptWindowSize     = "return {width: window.outerWidth, height: window.outerHeight};"
	ScriptWindowPosition = "return {x: window.screenX, y: window.screenY};"
	ScriptOpenWindow     = "window.open('about:blank', '_blank');"
)

// knownLogTypes are tried when the session does not list its logging prefs.
var knownLogTypes = []slog.Type{
	slog.Browser, slog.Client, slog.Driver, slog.Performance, slog.Profiler, slog.Server,
}

// NavigateToPage loads url in the current window.
func (r *RatDriver) NavigateToPage(url string) error {
	return r.run("navigate", url, "Could not navigate to the page requested.", func() error {
		return r.wd.Get(url)
	})
}

func (r *RatDriver) GetBrowserWindowURL() (string, error) {
	var url string
	err := r.run("get_url", "", "Could not read the address of the current page.", func() error {
		var err error
		url, err = r.wd.CurrentURL()
		return err
	})
	return url, err
}

func (r *RatDriver) GetBrowserWindowTitle() (string, error) {
	var title string
	err := r.run("get_title", "", "Could not read the title of the current page.", func() error {
		var err error
		title, err = r.wd.Title()
		return err
	})
	return title, err
}

func (r *RatDriver) GetPageSource() (string, error) {
	var source string
	err := r.run("get_source", "", "Could not read the source of the current page.", func() error {
		var err error
		source, err = r.wd.PageSource()
		return err
	})
	return source, err
}

// PageDocument parses the current page source for offline querying.
func (r *RatDriver) PageDocument() (*goquery.Document, error) {
	var doc *goquery.Document
	err := r.run("get_source", "document", "Could not read the source of the current page.", func() error {
		source, err := r.wd.PageSource()
		if err != nil {
			return err
		}
		doc, err = goquery.NewDocumentFromReader(strings.NewReader(source))
		return err
	})
	return doc, err
}

// MaximiseView maximizes the current window.
func (r *RatDriver) MaximiseView() error {
	return r.run("maximise", "", "Could not maximise the browser window.", func() error {
		return r.wd.MaximizeWindow("")
	})
}

func (r *RatDriver) ResizeBrowserWindow(width, height int) error {
	return r.run("resize", fmt.Sprintf("%dx%d", width, height), "Could not resize the browser window.", func() error {
		if width <= 0 || height <= 0 {
			return fmt.Errorf("window size must be positive, got %dx%d", width, height)
		}
		return r.wd.ResizeWindow("", width, height)
	})
}

func (r *RatDriver) GetWindowSize() (selenium.Size, error) {
	var size selenium.Size
	err := r.run("window_size", "", "Could not read the size of the browser window.", func() error {
		raw, err := r.wd.ExecuteScriptRaw(ScriptWindowSize, nil)
		if err != nil {
			return err
		}
		v := gjson.GetBytes(raw, "value")
		size = selenium.Size{Width: int(v.Get("width").Int()), Height: int(v.Get("height").Int())}
		return nil
	})
	return size, err
}

func (r *RatDriver) GetWindowPosition() (selenium.Point, error) {
	var pos selenium.Point
	err := r.run("window_position", "", "Could not read the position of the browser window.", func() error {
		raw, err := r.wd.ExecuteScriptRaw(ScriptWindowPosition, nil)
		if err != nil {
			return err
		}
		v := gjson.GetBytes(raw, "value")
		pos = selenium.Point{X: int(v.Get("x").Int()), Y: int(v.Get("y").Int())}
		return nil
	})
	return pos, err
}

func (r *RatDriver) GetCurrentWindowHandle() (string, error) {
	var handle string
	err := r.run("window_handle", "", "Could not read the current window handle.", func() error {
		var err error
		handle, err = r.wd.CurrentWindowHandle()
		return err
	})
	return handle, err
}

func (r *RatDriver) GetAllWindowHandles() ([]string, error) {
	var handles []string
	err := r.run("window_handles", "", "Could not read the window handles.", func() error {
		var err error
		handles, err = r.wd.WindowHandles()
		return err
	})
	return handles, err
}

func (r *RatDriver) SwitchToWindow(handle string) error {
	return r.run("switch_window", handle, "Could not switch to the window requested.", func() error {
		return r.wd.SwitchWindow(handle)
	})
}

// OpenNewView opens a blank window, switches to it and returns its handle.
func (r *RatDriver) OpenNewView() (string, error) {
	var handle string
	err := r.run("open_window", "", "Could not open a new browser window.", func() error {
		before, err := r.wd.WindowHandles()
		if err != nil {
			return err
		}
		if _, err := r.wd.ExecuteScript(ScriptOpenWindow, nil); err != nil {
			return err
		}
		after, err := r.wd.WindowHandles()
		if err != nil {
			return err
		}

		known := make(map[string]bool, len(before))
		for _, h := range before {
			known[h] = true
		}
		for _, h := range after {
			if !known[h] {
				handle = h
				break
			}
		}
		if handle == "" {
			return fmt.Errorf("no new window appeared")
		}
		return r.wd.SwitchWindow(handle)
	})
	return handle, err
}

func (r *RatDriver) PressBackButton() error {
	return r.run("back", "", "Could not navigate back.", r.wd.Back)
}

func (r *RatDriver) PressForwardButton() error {
	return r.run("forward", "", "Could not navigate forward.", r.wd.Forward)
}

func (r *RatDriver) RefreshPage() error {
	return r.run("refresh", "", "Could not refresh the page.", r.wd.Refresh)
}

func (r *RatDriver) SetImplicitWait(d time.Duration) error {
	return r.run("set_implicit_wait", d.String(), "Could not set the implicit wait.", func() error {
		return r.wd.SetImplicitWaitTimeout(d)
	})
}

func (r *RatDriver) SetPageLoadTimeout(d time.Duration) error {
	return r.run("set_page_load_timeout", d.String(), "Could not set the page load timeout.", func() error {
		return r.wd.SetPageLoadTimeout(d)
	})
}

// GetAvailableLogEntries fetches and drains the entries of one log type.
func (r *RatDriver) GetAvailableLogEntries(typ slog.Type) ([]slog.Message, error) {
	var entries []slog.Message
	err := r.run("get_log", string(typ), "Could not read the browser logs.", func() error {
		var err error
		entries, err = r.wd.Log(typ)
		return err
	})
	return entries, err
}

// GetAvailableLogTypes lists the log types the session records. The session's
// logging preferences are used when present; otherwise each known type is
// tried, which drains its entries.
func (r *RatDriver) GetAvailableLogTypes() ([]slog.Type, error) {
	var types []slog.Type
	err := r.run("get_log_types", "", "Could not read the browser log types.", func() error {
		caps, err := r.wd.Capabilities()
		if err != nil {
			return err
		}
		for _, key := range []string{slog.CapabilitiesKey, "loggingPrefs"} {
			if prefs, ok := caps[key].(map[string]interface{}); ok && len(prefs) > 0 {
				for _, t := range knownLogTypes {
					if _, ok := prefs[string(t)]; ok {
						types = append(types, t)
					}
				}
				return nil
			}
		}

		for _, t := range knownLogTypes {
			if _, err := r.wd.Log(t); err == nil {
				types = append(types, t)
			}
		}
		return nil
	})
	return types, err
}

// TakeScreenshot returns a PNG of the current window.
func (r *RatDriver) TakeScreenshot() ([]byte, error) {
	var png []byte
	err := r.run("screenshot", "", "Could not take a screenshot.", func() error {
		var err error
		png, err = r.wd.Screenshot()
		return err
	})
	return png, err
}

// SaveScreenshot writes a PNG of the current window to path on fs.
func (r *RatDriver) SaveScreenshot(fs afero.Fs, path string) error {
	return r.run("screenshot", path, "Could not save the screenshot.", func() error {
		png, err := r.wd.Screenshot()
		if err != nil {
			return err
		}
		if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		return afero.WriteFile(fs, path, png, 0644)
	})
}

// ClosePagesAndQuitDriver closes every window but the current one, then
// quits, which closes the last window with the session.
func (r *RatDriver) ClosePagesAndQuitDriver() error {
	return r.run("quit", "", "Could not close the browser.", func() error {
		var errs []error
		handles, err := r.wd.WindowHandles()
		if err != nil {
			errs = append(errs, err)
		}

		if len(handles) > 1 {
			keep, err := r.wd.CurrentWindowHandle()
			if err != nil {
				keep = handles[0]
			}
			for _, h := range handles {
				if h == keep {
					continue
				}
				if err := r.wd.SwitchWindow(h); err != nil {
					errs = append(errs, err)
					continue
				}
				if err := r.wd.Close(); err != nil {
					errs = append(errs, err)
				}
			}
			if err := r.wd.SwitchWindow(keep); err != nil {
				errs = append(errs, err)
			}
		}

		if err := r.wd.Quit(); err != nil {
			errs = append(errs, err)
		}
		return rerrors.Join(errs...)
	})
}
