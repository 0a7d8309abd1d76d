// internal/browser/devtools.go
package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/performance"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/valpere/ratdriver/internal/utils"
)

// DevTools drives the page of a WebDriver session over the Chrome DevTools
// protocol. It shares the browser with the session and never closes it.
type DevTools struct {
	ctx           context.Context
	cancel        context.CancelFunc
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	logger        utils.Logger
}

// AttachDevTools connects to the DevTools endpoint at debuggerAddress and
// attaches to its first page.
func AttachDevTools(ctx context.Context, debuggerAddress string, logger utils.Logger) (*DevTools, error) {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	if debuggerAddress == "" {
		return nil, fmt.Errorf("debugger address is empty")
	}

	url := debuggerAddress
	if !strings.Contains(url, "://") {
		url = "ws://" + url
	}

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, url)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	targets, err := chromedp.Targets(browserCtx)
	if err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to list targets at %s: %w", debuggerAddress, err)
	}

	var pageID target.ID
	for _, t := range targets {
		if t.Type == "page" {
			pageID = t.TargetID
			break
		}
	}
	if pageID == "" {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("no page target at %s", debuggerAddress)
	}

	tabCtx, cancel := chromedp.NewContext(browserCtx, chromedp.WithTargetID(pageID))
	if err := chromedp.Run(tabCtx); err != nil {
		if c := chromedp.FromContext(tabCtx); c != nil {
			c.Target = nil
		}
		cancel()
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to attach to page %s: %w", pageID, err)
	}

	logger.WithField("target", string(pageID)).Debug("devtools attached")

	return &DevTools{
		ctx:           tabCtx,
		cancel:        cancel,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		logger:        logger,
	}, nil
}

// DevTools attaches a DevTools client to the session's browser
func (s *Session) DevTools(ctx context.Context) (*DevTools, error) {
	addr, err := s.DebuggerAddress()
	if err != nil {
		return nil, err
	}
	return AttachDevTools(ctx, addr, s.logger)
}

// FullScreenshot captures the whole page beyond the viewport. quality 100
// yields PNG, anything lower JPEG.
func (d *DevTools) FullScreenshot(quality int) ([]byte, error) {
	var buf []byte
	if err := chromedp.Run(d.ctx, chromedp.FullScreenshot(&buf, quality)); err != nil {
		return nil, fmt.Errorf("full screenshot failed: %w", err)
	}
	return buf, nil
}

// Metrics returns the page performance counters (Nodes, JSHeapUsedSize, ...)
func (d *DevTools) Metrics() (map[string]float64, error) {
	out := make(map[string]float64)
	err := chromedp.Run(d.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := performance.Enable().Do(ctx); err != nil {
			return err
		}
		metrics, err := performance.GetMetrics().Do(ctx)
		if err != nil {
			return err
		}
		for _, m := range metrics {
			out[m.Name] = m.Value
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read performance metrics: %w", err)
	}
	return out, nil
}

// Emulate switches the running page to a catalogue device
func (d *DevTools) Emulate(phone PhoneType) error {
	if !phone.Valid() {
		return fmt.Errorf("unknown phone type %d", int(phone))
	}
	if err := chromedp.Run(d.ctx, chromedp.Emulate(phone)); err != nil {
		return fmt.Errorf("failed to emulate %s: %w", phone, err)
	}
	return nil
}

// ResetEmulation restores the desktop viewport
func (d *DevTools) ResetEmulation() error {
	return chromedp.Run(d.ctx, chromedp.EmulateReset())
}

// SetTouchEmulation toggles touch events on the running page
func (d *DevTools) SetTouchEmulation(enabled bool) error {
	return chromedp.Run(d.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return emulation.SetTouchEmulationEnabled(enabled).Do(ctx)
	}))
}

// Evaluate runs expression in the page and decodes the result into res
func (d *DevTools) Evaluate(expression string, res interface{}) error {
	return chromedp.Run(d.ctx, chromedp.Evaluate(expression, res))
}

// Close disconnects from the browser
func (d *DevTools) Close() {
	// The page belongs to the WebDriver session; detach without closing it
	if c := chromedp.FromContext(d.ctx); c != nil {
		c.Target = nil
	}
	d.cancel()
	d.browserCancel()
	d.allocCancel()
	d.logger.Debug("devtools detached")
}
