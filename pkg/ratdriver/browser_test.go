// pkg/ratdriver/browser_test.go
package ratdriver

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tebeka/selenium"
	slog "github.com/tebeka/selenium/log"

	rerrors "github.com/valpere/ratdriver/internal/errors"
	"github.com/valpere/ratdriver/internal/seleniumtest"
)

func TestPageReads(t *testing.T) {
	_, r, _ := newTestDriver(t)

	title, err := r.GetBrowserWindowTitle()
	require.NoError(t, err)
	assert.Equal(t, "Rat Test", title)

	url, err := r.GetBrowserWindowURL()
	require.NoError(t, err)
	assert.Equal(t, baseURL, url)

	source, err := r.GetPageSource()
	require.NoError(t, err)
	assert.Contains(t, source, `<button id="btn"`)

	doc, err := r.PageDocument()
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Find("li.item").Length())
	assert.Equal(t, "Next page", doc.Find("#next").Text())
}

func TestNavigation(t *testing.T) {
	_, r, _ := newTestDriver(t)

	require.NoError(t, r.NavigateToPage(baseURL+"next"))
	require.NoError(t, r.PressBackButton())
	url, _ := r.GetBrowserWindowURL()
	assert.Equal(t, baseURL, url)

	require.NoError(t, r.PressForwardButton())
	url, _ = r.GetBrowserWindowURL()
	assert.Equal(t, baseURL+"next", url)

	require.NoError(t, r.RefreshPage())
	title, _ := r.GetBrowserWindowTitle()
	assert.Equal(t, "Next", title)

	err := r.NavigateToPage("http://unknown.local/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "navigate http://unknown.local/")
}

func TestWindowGeometry(t *testing.T) {
	d, r, _ := newTestDriver(t)
	handle, err := r.GetCurrentWindowHandle()
	require.NoError(t, err)

	require.NoError(t, r.ResizeBrowserWindow(800, 600))
	size, err := r.GetWindowSize()
	require.NoError(t, err)
	assert.Equal(t, selenium.Size{Width: 800, Height: 600}, size)
	assert.False(t, d.Maximized(handle))

	require.NoError(t, r.MaximiseView())
	assert.True(t, d.Maximized(handle))
	assert.Equal(t, selenium.Size{Width: 1920, Height: 1080}, d.WindowSize(handle))

	pos, err := r.GetWindowPosition()
	require.NoError(t, err)
	assert.Equal(t, selenium.Point{}, pos)

	assert.Error(t, r.ResizeBrowserWindow(0, 600))
}

func TestOpenNewView(t *testing.T) {
	_, r, _ := newTestDriver(t)
	first, err := r.GetCurrentWindowHandle()
	require.NoError(t, err)

	second, err := r.OpenNewView()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	current, err := r.GetCurrentWindowHandle()
	require.NoError(t, err)
	assert.Equal(t, second, current)

	handles, err := r.GetAllWindowHandles()
	require.NoError(t, err)
	assert.Equal(t, []string{first, second}, handles)

	require.NoError(t, r.SwitchToWindow(first))
	current, _ = r.GetCurrentWindowHandle()
	assert.Equal(t, first, current)

	assert.Error(t, r.SwitchToWindow("CDwindow-99"))
}

func TestTimeouts(t *testing.T) {
	d, r, _ := newTestDriver(t)

	require.NoError(t, r.SetImplicitWait(2*time.Second))
	require.NoError(t, r.SetPageLoadTimeout(30*time.Second))

	implicit, pageLoad, _ := d.Timeouts()
	assert.Equal(t, 2*time.Second, implicit)
	assert.Equal(t, 30*time.Second, pageLoad)
}

func TestLogs(t *testing.T) {
	d, r, _ := newTestDriver(t)
	d.AddLog(slog.Browser, slog.Message{Level: slog.Severe, Message: "boom"})
	d.AddLog(slog.Driver)

	entries, err := r.GetAvailableLogEntries(slog.Browser)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0].Message)

	_, err = r.GetAvailableLogEntries(slog.Profiler)
	assert.Error(t, err)

	types, err := r.GetAvailableLogTypes()
	require.NoError(t, err)
	assert.Equal(t, []slog.Type{slog.Browser, slog.Driver}, types)
}

func TestLogTypesFromCapabilities(t *testing.T) {
	d, r, _ := newTestDriver(t)
	d.SetCapabilities(selenium.Capabilities{
		slog.CapabilitiesKey: map[string]interface{}{
			"performance": "ALL",
			"browser":     "INFO",
		},
	})

	types, err := r.GetAvailableLogTypes()
	require.NoError(t, err)
	assert.Equal(t, []slog.Type{slog.Browser, slog.Performance}, types)
}

func TestScreenshots(t *testing.T) {
	_, r, _ := newTestDriver(t)

	png, err := r.TakeScreenshot()
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG page"), png)

	fs := afero.NewMemMapFs()
	require.NoError(t, r.SaveScreenshot(fs, "shots/home.png"))
	saved, err := afero.ReadFile(fs, "shots/home.png")
	require.NoError(t, err)
	assert.Equal(t, png, saved)

	err = r.SaveScreenshot(afero.NewReadOnlyFs(afero.NewMemMapFs()), "shots/ro.png")
	assert.Error(t, err)
}

func TestClosePagesAndQuitDriver(t *testing.T) {
	d, r, _ := newTestDriver(t)
	_, err := r.OpenNewView()
	require.NoError(t, err)

	_, err = r.OpenNewView()
	require.NoError(t, err)
	current, err := d.CurrentWindowHandle()
	require.NoError(t, err)

	require.NoError(t, r.ClosePagesAndQuitDriver())
	assert.Equal(t, 1, d.QuitCount())

	handles, err := d.WindowHandles()
	require.NoError(t, err)
	assert.Equal(t, []string{current}, handles)
}

func TestClosePagesAndQuitDriver_SingleWindow(t *testing.T) {
	d, r, _ := newTestDriver(t)

	require.NoError(t, r.ClosePagesAndQuitDriver())
	assert.Equal(t, 1, d.QuitCount())
}

func TestQuit_AfterLastWindowClosed(t *testing.T) {
	d, _, _ := newTestDriver(t)

	require.NoError(t, d.Close())
	assert.ErrorIs(t, d.Quit(), seleniumtest.ErrInvalidSession)
	assert.Equal(t, 0, d.QuitCount())
}

type quitFailure struct {
	selenium.WebDriver
}

func (quitFailure) WindowHandles() ([]string, error) { return nil, errors.New("no such window") }
func (quitFailure) Quit() error                       { return errors.New("session deleted") }

func TestClosePagesAndQuitDriver_JoinsErrors(t *testing.T) {
	r := New(quitFailure{}, WithHandler(rerrors.NewHandler(rerrors.LevelNone, nil)))

	err := r.ClosePagesAndQuitDriver()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such window")
	assert.Contains(t, err.Error(), "session deleted")
}
