// internal/browser/chrome.go
package browser

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	slog "github.com/tebeka/selenium/log"

	"github.com/valpere/ratdriver/internal/capability"
	"github.com/valpere/ratdriver/internal/config"
	rerrors "github.com/valpere/ratdriver/internal/errors"
	"github.com/valpere/ratdriver/internal/monitoring"
	"github.com/valpere/ratdriver/internal/utils"
)

// DriverService is a running chromedriver process.
type DriverService interface {
	Stop() error
}

// ServiceStarter launches chromedriver listening on port.
type ServiceStarter func(path string, port int, opts ...selenium.ServiceOption) (DriverService, error)

// RemoteOpener opens a WebDriver session against url.
type RemoteOpener func(caps selenium.Capabilities, url string) (selenium.WebDriver, error)

func startChromeDriverService(path string, port int, opts ...selenium.ServiceOption) (DriverService, error) {
	return selenium.NewChromeDriverService(path, port, opts...)
}

// MobileMetrics describes an emulated screen. Zero numeric fields and an
// empty user agent fall back to the mobile_emulation preferences.
type MobileMetrics struct {
	Width      int
	Height     int
	PixelRatio float64
	Touch      bool
	UserAgent  string
}

// ChromeControl builds Chrome capabilities from preferences and starts sessions
type ChromeControl struct {
	prefs      *config.Preferences
	logger     utils.Logger
	retry      *rerrors.Service
	metrics    *monitoring.MetricsManager
	additional map[string]interface{}
	extensions []string

	startService ServiceStarter
	openRemote   RemoteOpener
	freePort     func() (int, error)
}

// Option configures a ChromeControl
type Option func(*ChromeControl)

// WithLogger sets the logger
func WithLogger(logger utils.Logger) Option {
	return func(c *ChromeControl) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records driver starts and open sessions
func WithMetrics(m *monitoring.MetricsManager) Option {
	return func(c *ChromeControl) { c.metrics = m }
}

// WithServiceStarter replaces the chromedriver launcher
func WithServiceStarter(s ServiceStarter) Option {
	return func(c *ChromeControl) { c.startService = s }
}

// WithRemoteOpener replaces selenium.NewRemote
func WithRemoteOpener(o RemoteOpener) Option {
	return func(c *ChromeControl) { c.openRemote = o }
}

// NewChromeControl creates a factory for the given preferences
func NewChromeControl(prefs *config.Preferences, opts ...Option) *ChromeControl {
	if prefs == nil {
		prefs = config.Default()
	}

	c := &ChromeControl{
		prefs:        prefs,
		logger:       utils.NewNopLogger(),
		retry:        rerrors.NewService(prefs.Retry),
		additional:   make(map[string]interface{}),
		startService: startChromeDriverService,
		openRemote:   selenium.NewRemote,
		freePort:     pickFreePort,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithField("component", "chrome_control")
	return c
}

// Preferences returns the preferences the control was built with
func (c *ChromeControl) Preferences() *config.Preferences {
	return c.prefs
}

// AddAdditionalCapability sets a top level capability on every new session
func (c *ChromeControl) AddAdditionalCapability(name string, value interface{}) {
	c.additional[name] = value
}

// AddExtension loads a packed .crx extension into every new session
func (c *ChromeControl) AddExtension(path string) {
	c.extensions = append(c.extensions, path)
}

// Options builds the goog:chromeOptions section
func (c *ChromeControl) Options() (chrome.Capabilities, error) {
	cp := c.prefs.Chrome

	opts := chrome.Capabilities{
		Path:         cp.BinaryLocation,
		Args:         append([]string(nil), cp.Args...),
		DebuggerAddr: cp.DebuggerAddress,
		MinidumpPath: cp.MinidumpPath,
		W3C:          cp.W3C,
	}

	// Add headless mode
	if cp.Headless && !hasArg(opts.Args, "--headless") {
		opts.Args = append(opts.Args, "--headless")
	}

	if cp.LeaveBrowserRunning {
		detach := true
		opts.Detach = &detach
	}

	extensions := append(capability.SplitList(cp.ExtensionsList), c.extensions...)
	for _, ext := range extensions {
		if err := opts.AddExtension(ext); err != nil {
			return opts, fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}

	localState, err := capability.ParseList(cp.LocalStatePreferences)
	if err != nil {
		return opts, fmt.Errorf("local state preferences: %w", err)
	}
	if len(localState) > 0 {
		opts.LocalState = capability.ToMap(localState)
	}

	userPrefs, err := capability.ParseList(cp.UserProfilePreferences)
	if err != nil {
		return opts, fmt.Errorf("user profile preferences: %w", err)
	}
	if len(userPrefs) > 0 {
		opts.Prefs = capability.ToMap(userPrefs)
	}

	if perf := c.prefs.Performance; perf.Enabled {
		network, page := perf.CollectNetwork, perf.CollectPage
		opts.PerfLoggingPrefs = &chrome.PerfLoggingPreferences{
			EnableNetwork:                      &network,
			EnablePage:                         &page,
			TraceCategories:                    perf.TracingCategories,
			BufferUsageReportingIntervalMillis: uint(perf.BufferUsageReportingInterval.Duration().Milliseconds()),
		}
	}

	return opts, nil
}

// Capabilities builds the desktop session capabilities
func (c *ChromeControl) Capabilities() (selenium.Capabilities, error) {
	return c.capabilities(nil)
}

func (c *ChromeControl) capabilities(mobile *chrome.MobileEmulation) (selenium.Capabilities, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}
	opts.MobileEmulation = mobile

	caps := selenium.Capabilities{"browserName": "chrome"}
	caps.AddChrome(opts)

	settings, err := capability.ParseList(c.prefs.Chrome.CapabilityList)
	if err != nil {
		return nil, fmt.Errorf("capability list: %w", err)
	}
	for _, s := range settings {
		caps[s.Name] = s.Value
	}
	for name, value := range c.additional {
		caps[name] = value
	}

	caps.SetLogLevel(slog.Browser, slog.All)
	if c.prefs.Performance.Enabled {
		caps.SetLogLevel(slog.Performance, slog.All)
	}

	return caps, nil
}

// DefaultMobileMetrics returns the mobile_emulation preferences as metrics
func (c *ChromeControl) DefaultMobileMetrics() MobileMetrics {
	m := c.prefs.MobileEmulation
	return MobileMetrics{
		Width:      m.Width,
		Height:     m.Height,
		PixelRatio: m.PixelRatio,
		Touch:      m.EnableTouchEvents,
		UserAgent:  m.UserAgent,
	}
}

// MobileEmulation describes phone for chromedriver. With use_device_name the
// chromedriver preset is requested by name, otherwise the catalogue metrics
// and user agent are sent.
func (c *ChromeControl) MobileEmulation(phone PhoneType, touch bool) (*chrome.MobileEmulation, error) {
	if !phone.Valid() {
		return nil, fmt.Errorf("unknown phone type %d", int(phone))
	}

	if c.prefs.MobileEmulation.UseDeviceName {
		return &chrome.MobileEmulation{DeviceName: phone.Name()}, nil
	}

	info := phone.Device()
	return &chrome.MobileEmulation{
		DeviceMetrics: &chrome.DeviceMetrics{
			Width:      uint(info.Width),
			Height:     uint(info.Height),
			PixelRatio: info.Scale,
			Touch:      &touch,
		},
		UserAgent: info.UserAgent,
	}, nil
}

// StartDriver starts a desktop Chrome session
func (c *ChromeControl) StartDriver(ctx context.Context) (*Session, error) {
	return c.start(ctx, "desktop", nil)
}

// StartMobileDriver starts a session emulating a catalogue device
func (c *ChromeControl) StartMobileDriver(ctx context.Context, phone PhoneType, touch bool) (*Session, error) {
	mobile, err := c.MobileEmulation(phone, touch)
	if err != nil {
		return nil, rerrors.Wrap("start mobile driver", phone.String(), err)
	}
	return c.start(ctx, "mobile", mobile)
}

// StartMobileDriverWithMetrics starts a session emulating explicit screen metrics
func (c *ChromeControl) StartMobileDriverWithMetrics(ctx context.Context, metrics MobileMetrics) (*Session, error) {
	defaults := c.DefaultMobileMetrics()
	if metrics.Width == 0 {
		metrics.Width = defaults.Width
	}
	if metrics.Height == 0 {
		metrics.Height = defaults.Height
	}
	if metrics.PixelRatio == 0 {
		metrics.PixelRatio = defaults.PixelRatio
	}
	if metrics.UserAgent == "" {
		metrics.UserAgent = defaults.UserAgent
	}
	if metrics.Width <= 0 || metrics.Height <= 0 {
		return nil, rerrors.Wrap("start mobile driver", "metrics", fmt.Errorf("width and height must be positive, got %dx%d", metrics.Width, metrics.Height))
	}

	touch := metrics.Touch
	mobile := &chrome.MobileEmulation{
		DeviceMetrics: &chrome.DeviceMetrics{
			Width:      uint(metrics.Width),
			Height:     uint(metrics.Height),
			PixelRatio: metrics.PixelRatio,
			Touch:      &touch,
		},
		UserAgent: metrics.UserAgent,
	}
	return c.start(ctx, "mobile_metrics", mobile)
}

func (c *ChromeControl) start(ctx context.Context, mode string, mobile *chrome.MobileEmulation) (*Session, error) {
	logger := c.logger.WithField("mode", mode)
	started := time.Now()

	caps, err := c.capabilities(mobile)
	if err != nil {
		c.metrics.RecordDriverStart(mode, time.Since(started), err)
		return nil, rerrors.Wrap("start driver", mode, err)
	}

	var session *Session
	err = c.retry.ExecuteWithRetry(ctx, func() error {
		s, openErr := c.open(caps, logger)
		if openErr != nil {
			logger.Warnf("session start failed: %v", openErr)
			return openErr
		}
		session = s
		return nil
	}, "start_"+mode)
	if err != nil {
		err = fmt.Errorf("%w: %w", rerrors.ErrDriverNotStarted, err)
		c.metrics.RecordDriverStart(mode, time.Since(started), err)
		return nil, rerrors.Wrap("start driver", mode, err)
	}

	if err := session.applyTimeouts(c.prefs.Timeout.Duration()); err != nil {
		session.metrics = nil
		session.Quit()
		c.metrics.RecordDriverStart(mode, time.Since(started), err)
		return nil, rerrors.Wrap("start driver", mode, err)
	}

	c.metrics.RecordDriverStart(mode, time.Since(started), nil)
	c.metrics.SessionOpened()
	logger.WithField("session", session.SessionID()).Infof("driver started in %s", time.Since(started).Round(time.Millisecond))

	return session, nil
}

// open starts the service when needed and creates the remote session
func (c *ChromeControl) open(caps selenium.Capabilities, logger utils.Logger) (*Session, error) {
	dp := c.prefs.ChromeDriver
	url := dp.RemoteURL

	var (
		service DriverService
		closers []io.Closer
	)

	if url == "" {
		port := dp.Port
		if port == 0 {
			p, err := c.freePort()
			if err != nil {
				return nil, fmt.Errorf("failed to pick a free port: %w", err)
			}
			port = p
		}

		opts, files, err := c.serviceOptions()
		if err != nil {
			return nil, err
		}
		closers = files

		path := dp.BinaryLocation
		if path == "" {
			path = "chromedriver"
		}

		logger.Debugf("starting chromedriver %s on port %d", path, port)
		service, err = c.startService(path, port, opts...)
		if err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("unable to start chromedriver: %w", err)
		}
		url = fmt.Sprintf("http://localhost:%d/wd/hub", port)
	}

	wd, err := c.openRemote(caps, url)
	if err != nil {
		if service != nil {
			service.Stop()
		}
		closeAll(closers)
		return nil, err
	}

	return &Session{
		WebDriver:    wd,
		service:      service,
		closers:      closers,
		leaveRunning: c.prefs.Chrome.LeaveBrowserRunning,
		logger:       logger,
		metrics:      c.metrics,
	}, nil
}

// serviceOptions routes chromedriver output to the log file or stderr
func (c *ChromeControl) serviceOptions() ([]selenium.ServiceOption, []io.Closer, error) {
	dp := c.prefs.ChromeDriver

	if dp.LogPath != "" {
		f, err := os.OpenFile(dp.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open chromedriver log: %w", err)
		}
		return []selenium.ServiceOption{selenium.Output(f)}, []io.Closer{f}, nil
	}

	if dp.VerboseLogging && !dp.SuppressInitialDiagnosticInformation {
		return []selenium.ServiceOption{selenium.Output(os.Stderr)}, nil, nil
	}

	return nil, nil, nil
}

func pickFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func hasArg(args []string, name string) bool {
	for _, a := range args {
		if a == name || strings.HasPrefix(a, name+"=") {
			return true
		}
	}
	return false
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		c.Close()
	}
}
