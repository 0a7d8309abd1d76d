// cmd/ratdriver/run.go
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tebeka/selenium"

	"github.com/valpere/ratdriver/internal/browser"
	"github.com/valpere/ratdriver/internal/config"
	"github.com/valpere/ratdriver/internal/monitoring"
	"github.com/valpere/ratdriver/internal/output"
	"github.com/valpere/ratdriver/internal/scenario"
	"github.com/valpere/ratdriver/internal/utils"
	"github.com/valpere/ratdriver/pkg/ratdriver"
)

type runOptions struct {
	phone          string
	touch          bool
	report         string
	metricsAddr    string
	parallel       int
	fullScreenshot string

	// multi is set when several scenarios share the output paths
	multi bool
}

func (a *app) runCommand() *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>...",
		Short: "Run scenarios in Chrome and report step timings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.run(ctx, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.phone, "phone", "", "emulate a catalogue phone, see 'ratdriver devices'")
	flags.BoolVar(&opts.touch, "touch", true, "enable touch events when emulating a phone")
	flags.StringVar(&opts.report, "report", "", "write step timings to this .json, .csv, .yaml or .xlsx file")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /metrics and /health on this address while running")
	flags.IntVar(&opts.parallel, "parallel", 1, "number of browser sessions running scenarios at once")
	flags.StringVar(&opts.fullScreenshot, "full-screenshot", "", "capture the whole last page through DevTools into this PNG")
	return cmd
}

// scenarioRun is the outcome of one scenario
type scenarioRun struct {
	scenario *scenario.Scenario
	result   scenario.Result
	clock    *ratdriver.Clock
	err      error
}

func (a *app) run(ctx context.Context, files []string, opts runOptions) error {
	prefs, err := a.preferences()
	if err != nil {
		return err
	}
	logger, err := a.logger(prefs)
	if err != nil {
		return err
	}

	scenarios := make([]*scenario.Scenario, 0, len(files))
	for _, file := range files {
		s, err := scenario.LoadFromFile(a.fs, file)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, s)
	}

	opts.multi = len(scenarios) > 1
	if opts.parallel < 1 {
		opts.parallel = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	metrics, health := a.startMonitoring(ctx, prefs, opts.metricsAddr, logger)

	control := browser.NewChromeControl(prefs, browser.WithLogger(logger), browser.WithMetrics(metrics))
	pool, err := browser.NewSessionPool(func(ctx context.Context) (selenium.WebDriver, error) {
		session, err := a.openSession(ctx, control, opts.phone, opts.touch)
		if err != nil {
			return nil, err
		}
		return session, nil
	}, opts.parallel)
	if err != nil {
		return err
	}
	defer func() {
		if err := pool.Close(); err != nil {
			logger.Warnf("failed to close sessions: %v", err)
		}
	}()

	runs := make([]scenarioRun, len(scenarios))
	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := opts.parallel
	if workers > len(scenarios) {
		workers = len(scenarios)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := range jobs {
				runs[i] = a.runOne(ctx, pool, health, worker, scenarios[i], prefs, metrics, logger, opts)
			}
		}(w)
	}
	for i := range scenarios {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var errs []error
	for _, r := range runs {
		a.printRun(r)
		if opts.report != "" && r.clock != nil {
			path := reportPath(opts.report, r.scenario.Name, opts.multi)
			report := output.NewReport(r.scenario.Name, r.clock)
			if err := output.NewManager(a.fs, logger).WriteFile(path, report); err != nil {
				errs = append(errs, err)
			}
		}
		if r.err != nil {
			errs = append(errs, fmt.Errorf("scenario %q: %w", r.scenario.Name, r.err))
		}
	}
	return stderrors.Join(errs...)
}

// runOne takes a session from the pool, runs s and hands the session back,
// or discards it when it died during the run
func (a *app) runOne(ctx context.Context, pool *browser.SessionPool, health *monitoring.HealthManager, worker int,
	s *scenario.Scenario, prefs *config.Preferences, metrics *monitoring.MetricsManager, logger utils.Logger, opts runOptions) scenarioRun {
	run := scenarioRun{scenario: s}

	wd, err := pool.Get(ctx)
	if err != nil {
		run.err = err
		return run
	}

	checkName := fmt.Sprintf("session-%d", worker)
	health.RegisterCheck(monitoring.SessionHealthCheck(checkName, func(ctx context.Context) error {
		_, err := wd.CurrentURL()
		return err
	}))
	defer health.RemoveCheck(checkName)

	driverOpts := append(ratdriver.PreferenceOptions(prefs, logger),
		ratdriver.WithMetrics(metrics),
		ratdriver.WithContext(ctx),
	)
	rd := ratdriver.New(wd, driverOpts...)

	runner := scenario.NewRunner(rd,
		scenario.WithFs(a.fs),
		scenario.WithMetrics(metrics),
		scenario.WithLogger(logger),
	)
	run.clock = runner.Clock()
	run.result, run.err = runner.Run(ctx, s)

	if opts.fullScreenshot != "" {
		if err := a.captureFullPage(ctx, wd, reportPath(opts.fullScreenshot, s.Name, opts.multi), logger); err != nil {
			logger.Warnf("full page screenshot failed: %v", err)
		}
	}

	// A session that no longer answers is not handed to the next scenario
	if run.err != nil {
		if _, err := wd.CurrentURL(); err != nil {
			logger.Warnf("discarding session after scenario %q: %v", s.Name, err)
			pool.Discard(wd)
			return run
		}
	}
	if err := pool.Put(wd); err != nil {
		logger.Warnf("failed to return session: %v", err)
	}
	return run
}

// startMonitoring creates the metrics registry and, when an address is
// configured, serves it until ctx is done.
func (a *app) startMonitoring(ctx context.Context, prefs *config.Preferences, addr string, logger utils.Logger) (*monitoring.MetricsManager, *monitoring.HealthManager) {
	health := monitoring.NewHealthManager(5 * time.Second)
	health.RegisterCheck(monitoring.GoroutineHealthCheck(10000))

	if addr == "" && prefs.Metrics.Enabled {
		addr = prefs.Metrics.ListenAddress
	}
	if addr == "" && !prefs.Metrics.Enabled {
		return nil, health
	}

	metrics := monitoring.NewMetricsManager(monitoring.MetricsConfig{
		Namespace:       prefs.Metrics.Namespace,
		EnableGoMetrics: true,
	})
	if addr != "" {
		server := monitoring.NewServer(addr, monitoring.NewRouter(health, metrics), logger)
		go func() {
			if err := server.Serve(ctx); err != nil {
				logger.Errorf("monitoring server stopped: %v", err)
			}
		}()
	}
	return metrics, health
}

// captureFullPage attaches DevTools to a local Chrome session
func (a *app) captureFullPage(ctx context.Context, wd selenium.WebDriver, path string, logger utils.Logger) error {
	session, ok := wd.(*browser.Session)
	if !ok {
		return fmt.Errorf("session does not expose DevTools")
	}
	devtools, err := session.DevTools(ctx)
	if err != nil {
		return err
	}
	defer devtools.Close()

	png, err := devtools.FullScreenshot(90)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := a.fs.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := afero.WriteFile(a.fs, path, png, 0644); err != nil {
		return err
	}
	logger.WithField("path", path).Info("full page screenshot saved")
	return nil
}

func (a *app) printRun(r scenarioRun) {
	passed := color.New(color.FgGreen)
	failed := color.New(color.FgRed)
	bold := color.New(color.Bold)

	bold.Fprintf(a.out, "%s\n", r.scenario.Name)
	if r.clock != nil {
		for _, t := range r.clock.Timings() {
			if t.Error == "" {
				passed.Fprint(a.out, "  ✓ ")
			} else {
				failed.Fprint(a.out, "  ✗ ")
			}
			fmt.Fprintf(a.out, "%s (%s)\n", t.Name, t.Duration.Round(time.Millisecond))
		}
	}

	summary := fmt.Sprintf("  %d run, %d failed, %d skipped\n", r.result.Run, r.result.Failed, r.result.Skipped)
	if r.err == nil {
		passed.Fprint(a.out, summary)
	} else {
		failed.Fprint(a.out, summary)
	}
}

// reportPath adds the scenario name before the extension when several
// scenarios share one --report path.
func reportPath(path, name string, multi bool) string {
	if !multi {
		return path
	}
	ext := filepath.Ext(path)
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '-'
	}, name)
	return strings.TrimSuffix(path, ext) + "-" + slug + ext
}
