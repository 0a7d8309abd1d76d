// pkg/ratdriver/ratdriver_test.go
package ratdriver

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/ratdriver/internal/config"
	rerrors "github.com/valpere/ratdriver/internal/errors"
	"github.com/valpere/ratdriver/internal/monitoring"
	"github.com/valpere/ratdriver/internal/seleniumtest"
)

const baseURL = "http://test.local/"

const testPage = `<html><head><title>Rat Test</title></head><body>
<nav id="menu" class="nav">
  <a id="home" href="http://test.local/" name="home-link">Home</a>
  <a id="next" class="link" href="http://test.local/next">Next page</a>
  <a id="about" class="link" href="http://test.local/about">About us</a>
</nav>
<button id="btn" name="go" style="color: red">Go</button>
<input id="field" name="q" value="old">
<button id="disabled" disabled>Nope</button>
<div id="late" hidden>Late</div>
<span id="status">Loading</span>
<p id="hidden" style="display:none">secret</p>
<ul id="list">
  <li class="item" data-k="alpha">A</li>
  <li class="item" data-k="beta-1">B</li>
  <li class="item">C</li>
</ul>
<outer-el id="outer"><template shadowrootmode="open">
  <span class="label">Outer</span>
  <inner-el id="inner"><template shadowrootmode="open"><button id="deep">Deep</button></template></inner-el>
</template></outer-el>
<div id="plain">Plain</div>
</body></html>`

const nextPage = `<html><head><title>Next</title></head><body><h1 id="heading">Arrived</h1></body></html>`

// newTestDriver loads testPage into a fake driver wired with every script the
// helpers run. Errors are printed into the returned buffer.
func newTestDriver(t *testing.T, opts ...Option) (*seleniumtest.Driver, *RatDriver, *bytes.Buffer) {
	t.Helper()

	d := seleniumtest.NewDriver()
	d.AddPage(baseURL+"next", nextPage)
	d.AddPage(baseURL+"about", nextPage)
	require.NoError(t, d.LoadHTML(baseURL, testPage))

	d.HandleScript(ScriptHasShadowRoot, seleniumtest.HasShadowRoot)
	d.HandleScript(ScriptShadowQuery, seleniumtest.ShadowQuery)
	d.HandleScript(ScriptShadowQueryAll, seleniumtest.ShadowQueryAll)
	d.HandleScript(ScriptWindowSize, seleniumtest.WindowSize)
	d.HandleScript(ScriptWindowPosition, seleniumtest.WindowPosition)
	d.HandleScript(ScriptOpenWindow, seleniumtest.OpenWindow)

	out := &bytes.Buffer{}
	base := []Option{
		WithTimeout(300 * time.Millisecond),
		WithPollInterval(10 * time.Millisecond),
		WithHoverTime(200 * time.Millisecond),
		WithHandler(rerrors.NewHandler(rerrors.LevelMessage, nil).WithOutput(out)),
	}
	return d, New(d, append(base, opts...)...), out
}

func TestNew_Defaults(t *testing.T) {
	r := New(seleniumtest.NewDriver())
	assert.Equal(t, 10*time.Second, r.Timeout())
	assert.Equal(t, DefaultPollInterval, r.pollInterval)
	assert.Equal(t, DefaultHoverTime, r.hoverTime)
	assert.Nil(t, r.Element())
	assert.Equal(t, By{}, r.Locator())
}

func TestPreferenceOptions(t *testing.T) {
	prefs := config.Default()
	prefs.Timeout = config.Timespan(3 * time.Second)
	prefs.MenuHoverTime = config.Timespan(time.Second)
	prefs.Waits.PollInterval = config.Timespan(50 * time.Millisecond)
	prefs.DebugLevel = rerrors.LevelNone

	r := New(seleniumtest.NewDriver(), PreferenceOptions(prefs, nil)...)
	assert.Equal(t, 3*time.Second, r.Timeout())
	assert.Equal(t, time.Second, r.hoverTime)
	assert.Equal(t, 50*time.Millisecond, r.pollInterval)
	assert.Equal(t, rerrors.LevelNone, r.handler.Level())
	assert.Nil(t, r.limiter)
}

func TestHandler_LevelNoneIsSilent(t *testing.T) {
	out := &bytes.Buffer{}
	_, r, _ := newTestDriver(t, WithHandler(rerrors.NewHandler(rerrors.LevelNone, nil).WithOutput(out)))

	_, err := r.FindElementByID("missing", false)
	require.Error(t, err)
	assert.Empty(t, out.String())
}

func TestHandler_HumanLevel(t *testing.T) {
	out := &bytes.Buffer{}
	_, r, _ := newTestDriver(t, WithHandler(rerrors.NewHandler(rerrors.LevelHuman, nil).WithOutput(out)))

	_, err := r.FindElementByID("missing", false)
	require.Error(t, err)
	assert.Contains(t, out.String(), "Could not find an element using the id: missing.")
	assert.NotContains(t, out.String(), "no such element")
}

func TestRun_WrapsOperationAndTarget(t *testing.T) {
	_, r, out := newTestDriver(t)

	_, err := r.FindElementByCssSelector("#missing", false)
	require.Error(t, err)

	var opErr *rerrors.OpError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "find", opErr.Op)
	assert.Equal(t, "css_selector=#missing", opErr.Target)
	assert.ErrorIs(t, err, rerrors.ErrElementNotFound)
	assert.ErrorIs(t, err, seleniumtest.ErrNoSuchElement)
	assert.Contains(t, out.String(), "find css_selector=#missing")
}

func TestRun_RecordsMetrics(t *testing.T) {
	mm := monitoring.NewMetricsManager(monitoring.MetricsConfig{Namespace: "test"})
	_, r, _ := newTestDriver(t, WithMetrics(mm))

	require.NoError(t, r.NavigateToPage(baseURL+"next"))
	_, err := r.FindElementByID("missing", false)
	require.Error(t, err)

	count, err := testutil.GatherAndCount(mm.Registry(), "test_driver_actions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRun_RateLimitHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, r, _ := newTestDriver(t, WithRateLimit(1, 1), WithContext(ctx))

	err := r.NavigateToPage(baseURL + "next")
	assert.ErrorIs(t, err, context.Canceled)

	url, _ := r.Driver().CurrentURL()
	assert.Equal(t, baseURL, url)
}
