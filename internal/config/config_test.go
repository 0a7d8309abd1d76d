// internal/config/config_test.go
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/valpere/ratdriver/internal/errors"
)

const sampleYAML = `
name: grid
timeout: "0,0,0,30,0"
menu_hover_time: 750ms
debug_level: human
chrome:
  binary_location: /opt/google/chrome/chrome
  headless: true
  args: ["--no-sandbox"]
  capability_list: "acceptInsecureCerts=true|System.Boolean,pageLoadStrategy=eager"
  extensions_list: "/ext/a.crx, /ext/b.crx"
chromedriver:
  binary_location: /usr/local/bin/chromedriver
  port: 9515
mobile_emulation:
  width: 375
  height: 667
  pixel_ratio: 2
  enable_touch_events: true
`

func TestParseTimespan(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"10s", 10 * time.Second},
		{"45", 45 * time.Second},
		{"0,0,0,10,0", 10 * time.Second},
		{"1,2,3,4,5", 24*time.Hour + 2*time.Hour + 3*time.Minute + 4*time.Second + 5*time.Millisecond},
		{" 0, 0, 1, 0, 500 ", time.Minute + 500*time.Millisecond},
	}

	for _, tt := range tests {
		got, err := ParseTimespan(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got.Duration(), tt.in)
	}

	for _, bad := range []string{"0,0,10", "a,b,c,d,e", "0,0,-1,0,0", "soon"} {
		_, err := ParseTimespan(bad)
		assert.Error(t, err, bad)
	}
}

func TestLoadFromFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/ratdriver.yaml", []byte(sampleYAML), 0644))

	prefs, err := LoadFromFile(fs, "/etc/ratdriver.yaml")
	require.NoError(t, err)

	assert.Equal(t, "grid", prefs.Name)
	assert.Equal(t, 30*time.Second, prefs.Timeout.Duration())
	assert.Equal(t, 750*time.Millisecond, prefs.MenuHoverTime.Duration())
	assert.Equal(t, rerrors.LevelHuman, prefs.DebugLevel)
	assert.True(t, prefs.Chrome.Headless)
	assert.Equal(t, []string{"--no-sandbox"}, prefs.Chrome.Args)
	assert.Equal(t, 9515, prefs.ChromeDriver.Port)
	assert.Equal(t, 375, prefs.MobileEmulation.Width)
	assert.Equal(t, 2.0, prefs.MobileEmulation.PixelRatio)

	// defaults
	assert.Equal(t, 500*time.Millisecond, prefs.Waits.PollInterval.Duration())
	assert.Equal(t, "info", prefs.Logging.Level)
	assert.Equal(t, "ratdriver", prefs.Metrics.Namespace)
	assert.Equal(t, rerrors.DefaultRetryConfig(), prefs.Retry)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(afero.NewMemMapFs(), "/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = LoadFromFile(afero.NewMemMapFs(), "")
	assert.Error(t, err)
}

func TestLoadFromBytes_DefaultTimeout(t *testing.T) {
	prefs, err := LoadFromBytes([]byte("name: plain\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, prefs.Timeout.Duration())
	assert.Equal(t, rerrors.LevelNotSpecified, prefs.DebugLevel)
}

func TestLoadFromBytes_ExpandsEnvironment(t *testing.T) {
	t.Setenv("CHROME_BIN", "/snap/bin/chromium")

	prefs, err := LoadFromBytes([]byte("chrome:\n  binary_location: ${CHROME_BIN}\n"))
	require.NoError(t, err)
	assert.Equal(t, "/snap/bin/chromium", prefs.Chrome.BinaryLocation)
}

func TestLoadFromBytes_EnvironmentOverrides(t *testing.T) {
	t.Setenv("RATDRIVER_TIMEOUT", "0,0,1,0,0")
	t.Setenv("RATDRIVER_DEBUG_LEVEL", "stacktrace")
	t.Setenv("RATDRIVER_CHROME_HEADLESS", "false")
	t.Setenv("RATDRIVER_CHROMEDRIVER_REMOTE_URL", "http://grid:4444/wd/hub")
	t.Setenv("RATDRIVER_RETRY_MAX_RETRIES", "5")

	prefs, err := LoadFromBytes([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, time.Minute, prefs.Timeout.Duration())
	assert.Equal(t, rerrors.LevelStackTrace, prefs.DebugLevel)
	assert.False(t, prefs.Chrome.Headless)
	assert.Equal(t, "http://grid:4444/wd/hub", prefs.ChromeDriver.RemoteURL)
	assert.Equal(t, 5, prefs.Retry.MaxRetries)
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv("RATDRIVER_CHROME_BINARY_LOCATION", "/usr/bin/chromium")

	prefs, err := LoadOrDefault(afero.NewMemMapFs(), "")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/chromium", prefs.Chrome.BinaryLocation)
	assert.Equal(t, DefaultTimeout, prefs.Timeout.Duration())
}

func TestLoadFromBytes_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad timespan":    "timeout: forever\n",
		"bad capability":  "chrome:\n  capability_list: \"x=1|System.Decimal\"\n",
		"negative width":  "mobile_emulation:\n  width: -1\n",
		"bad port":        "chromedriver:\n  port: 70000\n",
		"bad remote":      "chromedriver:\n  remote_url: grid\n",
		"bad log format":  "logging:\n  format: xml\n",
		"bad debug level": "debug_level: loud\n",
		"bad debugger":    "chrome:\n  debugger_address: localhost\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	prefs := Default()
	prefs.MobileEmulation.Width = -1
	prefs.MobileEmulation.Height = -2
	prefs.ChromeDriver.Port = -3

	result := prefs.ValidateWithDetails()
	assert.False(t, result.Valid)
	assert.Len(t, result.Errors, 3)

	err := prefs.Validate()
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Configuration validation failed:"))
	assert.Contains(t, err.Error(), "(field: chromedriver.port)")
}

func TestTemplateRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	template := GenerateTemplate()
	require.NoError(t, template.Validate())

	require.NoError(t, SaveToFile(fs, template, "/work/config/ratdriver.yaml"))

	loaded, err := LoadFromFile(fs, "/work/config/ratdriver.yaml")
	require.NoError(t, err)
	assert.Equal(t, template, loaded)
}

func TestSaveToWriter_RejectsInvalid(t *testing.T) {
	prefs := Default()
	prefs.Logging.Format = "xml"

	var buf bytes.Buffer
	assert.Error(t, SaveToWriter(prefs, &buf))
	assert.Error(t, SaveToWriter(nil, &buf))
	assert.Empty(t, buf.String())
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ratdriver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: first\n"), 0644))

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	defer w.Close()

	reloaded := make(chan *Preferences, 4)
	w.OnChange(func(p *Preferences) { reloaded <- p })

	require.NoError(t, os.WriteFile(path, []byte("name: second\n"), 0644))

	select {
	case p := <-reloaded:
		assert.Equal(t, "second", p.Name)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}
}
