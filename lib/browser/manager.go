// Package browser owns the lifecycle of playwright-driven chromium
// processes: one manager per browser, stealth and resource blocking on the
// contexts and pages it hands out, and process-wide exclusivity for
// persistent profiles.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/browser")

// Manager owns at most one throwaway browser process. Contexts and pages
// opened through it get the configuration sequence applied on top of
// whatever the engine created.
//
// Explicit Close is final: a closed manager refuses to start again and a
// fresh one must be built. A crashed browser is different, the manager
// observes the disconnect, resets itself and may be started again.
type Manager struct {
	opts LaunchOptions

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
	closed  bool
}

func NewManager(opts LaunchOptions) *Manager {
	return &Manager{opts: opts.clone()}
}

// IsStarted reports whether a live browser process is attached. It turns
// false on its own when the browser dies out from under the manager.
func (m *Manager) IsStarted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startedLocked()
}

func (m *Manager) startedLocked() bool {
	return m.browser != nil && m.browser.IsConnected()
}

// Start launches the browser. It fails with AlreadyLaunched while a live
// browser is attached and with Closed after an explicit Close.
func (m *Manager) Start(ctx context.Context) error {
	_, span := tracer.Start(ctx, "browser:Start")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Closed
	}
	if m.startedLocked() {
		return AlreadyLaunched
	}

	pw, err := playwright.Run()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to start driver")
		return fmt.Errorf("start driver: %w", err)
	}
	b, err := pw.Chromium.Launch(m.opts.launchOptions())
	if err != nil {
		stopDriver(pw)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to launch browser")
		return fmt.Errorf("launch browser: %w", err)
	}

	m.pw = pw
	m.browser = b
	b.OnDisconnected(func(b playwright.Browser) {
		// handled off the event goroutine so driver teardown cannot
		// stall event dispatch
		go m.onDisconnected(b)
	})
	return nil
}

// onDisconnected observes the browser process going away, by crash or by
// regular shutdown. Whichever of Close and this callback runs first tears
// the driver down, the other finds cleared state and leaves.
func (m *Manager) onDisconnected(b playwright.Browser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.browser != b {
		return
	}
	slog.Warn("browser disconnected")
	m.browser = nil
	stopDriver(m.pw)
	m.pw = nil
}

// Close shuts the browser down for good. Closing a manager that never
// started, already closed or lost its browser is a no-op. Engine errors
// during teardown are logged and swallowed, the handles are dropped either
// way.
func (m *Manager) Close(ctx context.Context) {
	_, span := tracer.Start(ctx, "browser:Close")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.startedLocked() {
		return
	}
	if err := m.browser.Close(); err != nil {
		slog.WarnContext(ctx, "failed to close browser", "err", err)
	}
	m.browser = nil
	stopDriver(m.pw)
	m.pw = nil
	m.closed = true
}

// Browser returns the live browser handle.
func (m *Manager) Browser() (playwright.Browser, error) {
	return m.handle()
}

// NewContext opens a browser context and applies opts to it. The partially
// configured context is closed again when any setup step fails.
func (m *Manager) NewContext(ctx context.Context, opts ContextOptions) (playwright.BrowserContext, error) {
	_, span := tracer.Start(ctx, "browser:NewContext")
	defer span.End()

	b, err := m.handle()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	bctx, err := b.NewContext(opts.Raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create context")
		return nil, fmt.Errorf("new context: %w", err)
	}
	if err := applyExtras(bctx, opts.extras()); err != nil {
		if closeErr := bctx.Close(); closeErr != nil {
			slog.DebugContext(ctx, "failed to close context after setup failure", "err", closeErr)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to configure context")
		return nil, err
	}
	return bctx, nil
}

// NewPage opens a page in its own context and applies opts to it. The
// partially configured page is closed again when any setup step fails.
func (m *Manager) NewPage(ctx context.Context, opts PageOptions) (playwright.Page, error) {
	_, span := tracer.Start(ctx, "browser:NewPage")
	defer span.End()

	b, err := m.handle()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	page, err := b.NewPage(opts.Raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create page")
		return nil, fmt.Errorf("new page: %w", err)
	}
	if err := applyExtras(page, opts.extras()); err != nil {
		if closeErr := page.Close(); closeErr != nil {
			slog.DebugContext(ctx, "failed to close page after setup failure", "err", closeErr)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to configure page")
		return nil, err
	}
	return page, nil
}

// handle returns the live browser or the lifecycle error explaining why
// there is none.
func (m *Manager) handle() (playwright.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, Closed
	}
	if !m.startedLocked() {
		return nil, NotLaunched
	}
	return m.browser, nil
}

func stopDriver(pw *playwright.Playwright) {
	if pw == nil {
		return
	}
	if err := pw.Stop(); err != nil {
		slog.Warn("failed to stop playwright driver", "err", err)
	}
}

// Install fetches the playwright driver and a chromium build if they are
// missing. Running it again once everything is in place is a no-op.
func Install() error {
	return playwright.Install(&playwright.RunOptions{
		Browsers: []string{"chromium"},
	})
}
