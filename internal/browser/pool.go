// internal/browser/pool.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tebeka/selenium"
)

// SessionFactory opens a new session for the pool
type SessionFactory func(ctx context.Context) (selenium.WebDriver, error)

// SessionPool keeps up to maxSize open sessions for reuse
type SessionPool struct {
	factory     SessionFactory
	sessions    chan selenium.WebDriver
	maxSize     int
	currentSize int
	waitTimeout time.Duration
	mu          sync.Mutex
	closed      bool
	// freed is closed and replaced whenever a slot is released
	freed chan struct{}
}

// NewSessionPool creates a new session pool
func NewSessionPool(factory SessionFactory, maxSize int) (*SessionPool, error) {
	if factory == nil {
		return nil, fmt.Errorf("session factory cannot be nil")
	}

	if maxSize <= 0 {
		maxSize = 2 // Default pool size
	}

	return &SessionPool{
		factory:     factory,
		sessions:    make(chan selenium.WebDriver, maxSize),
		maxSize:     maxSize,
		waitTimeout: 30 * time.Second,
		freed:       make(chan struct{}),
	}, nil
}

// NewChromePool creates a pool of desktop sessions started by control
func NewChromePool(control *ChromeControl, maxSize int) (*SessionPool, error) {
	return NewSessionPool(func(ctx context.Context) (selenium.WebDriver, error) {
		return control.StartDriver(ctx)
	}, maxSize)
}

// Get retrieves an idle session or opens a new one while under the limit.
// At the limit it waits for a session to be put back or a slot to be freed.
func (p *SessionPool) Get(ctx context.Context) (selenium.WebDriver, error) {
	timer := time.NewTimer(p.waitTimeout)
	defer timer.Stop()

	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, fmt.Errorf("pool is closed")
		}

		select {
		case wd := <-p.sessions:
			p.mu.Unlock()
			return wd, nil
		default:
		}

		// No idle session, open a new one if under limit
		if p.currentSize < p.maxSize {
			p.currentSize++
			p.mu.Unlock()

			wd, err := p.factory(ctx)
			if err != nil {
				p.mu.Lock()
				p.releaseLocked()
				p.mu.Unlock()
				return nil, fmt.Errorf("failed to open session: %w", err)
			}
			return wd, nil
		}
		freed := p.freed
		p.mu.Unlock()

		select {
		case wd, ok := <-p.sessions:
			if !ok {
				return nil, fmt.Errorf("pool is closed")
			}
			return wd, nil
		case <-freed:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, fmt.Errorf("timeout waiting for available session")
		}
	}
}

// releaseLocked gives up one slot and wakes every waiting Get. p.mu must be held.
func (p *SessionPool) releaseLocked() {
	p.currentSize--
	close(p.freed)
	p.freed = make(chan struct{})
}

// Put returns a session to the pool
func (p *SessionPool) Put(wd selenium.WebDriver) error {
	if wd == nil {
		return fmt.Errorf("cannot put nil session in pool")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		wd.Quit()
		p.releaseLocked()
		return fmt.Errorf("pool is closed")
	}

	select {
	case p.sessions <- wd:
		return nil
	default:
		// Pool is full, quit the session
		wd.Quit()
		p.releaseLocked()
		return nil
	}
}

// Discard quits a broken session and frees its slot for the next Get
func (p *SessionPool) Discard(wd selenium.WebDriver) {
	if wd != nil {
		wd.Quit()
	}
	p.mu.Lock()
	p.releaseLocked()
	p.mu.Unlock()
}

// Size returns the number of idle sessions
func (p *SessionPool) Size() int {
	return len(p.sessions)
}

// TotalSize returns the number of sessions opened and not yet released
func (p *SessionPool) TotalSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentSize
}

// Close quits all idle sessions. Sessions still checked out are quit when put back.
func (p *SessionPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	close(p.sessions)
	var errs []error
	for wd := range p.sessions {
		if err := wd.Quit(); err != nil {
			errs = append(errs, err)
		}
		p.currentSize--
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to quit %d sessions: %v", len(errs), errs[0])
	}
	return nil
}
