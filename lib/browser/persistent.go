package browser

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel/codes"
)

// PersistentOptions describes a persistent context: the launch knobs, the
// profile directory and the configuration that is applied to the context
// right after launch, in the same order contexts from Manager get it.
type PersistentOptions struct {
	LaunchOptions

	// UserDataDir is the profile directory. It is resolved to an absolute
	// path before it is used as the exclusivity key, so two managers
	// pointing at the same profile through different relative paths still
	// collide.
	UserDataDir string

	DefaultTimeout           float64
	DefaultNavigationTimeout float64
	InitScript               string
	Stealth                  bool
	IgnoreStealthed          bool
	BlockedResources         []ResourceType

	// Registry overrides the process-wide profile registry. Nil keeps the
	// shared one, tests inject their own.
	Registry *ProfileRegistry

	Raw playwright.BrowserTypeLaunchPersistentContextOptions
}

func (o PersistentOptions) extras() extras {
	return extras{
		defaultTimeout:    o.DefaultTimeout,
		navigationTimeout: o.DefaultNavigationTimeout,
		initScript:        o.InitScript,
		stealth:           o.Stealth,
		ignoreStealthed:   o.IgnoreStealthed,
		blocked:           o.BlockedResources,
	}
}

func (o PersistentOptions) persistentOptions() playwright.BrowserTypeLaunchPersistentContextOptions {
	opts := o.Raw
	opts.Headless = playwright.Bool(o.Headless)
	opts.ChromiumSandbox = playwright.Bool(o.Sandbox)
	opts.Timeout = playwright.Float(orDefaultTimeout(o.LaunchTimeout))
	opts.IgnoreDefaultArgs = ignoreDefaults(o.IgnoreDefaultArgs)
	if len(o.Args) > 0 {
		opts.Args = o.Args
	}
	if o.ExecutablePath != "" {
		opts.ExecutablePath = playwright.String(o.ExecutablePath)
	}
	if o.Channel != "" && o.Channel != "chromium" {
		opts.Channel = playwright.String(o.Channel)
	}
	if o.Proxy != nil {
		opts.Proxy = o.Proxy
	}
	if o.SlowMo > 0 {
		opts.SlowMo = playwright.Float(o.SlowMo)
	}
	if o.DownloadsPath != "" {
		opts.DownloadsPath = playwright.String(o.DownloadsPath)
	}
	if o.TracesDir != "" {
		opts.TracesDir = playwright.String(o.TracesDir)
	}
	return opts
}

// PersistentManager owns at most one persistent context bound to a user
// data directory. Profiles are exclusive for the whole process: while one
// manager holds a directory, every other manager fails to start on it no
// matter how its path was spelled.
type PersistentManager struct {
	opts     PersistentOptions
	registry *ProfileRegistry

	mu     sync.Mutex
	dir    string
	pw     *playwright.Playwright
	pctx   playwright.BrowserContext
	closed bool
}

func NewPersistentManager(opts PersistentOptions) *PersistentManager {
	registry := opts.Registry
	if registry == nil {
		registry = sharedProfiles
	}
	opts.LaunchOptions = opts.LaunchOptions.clone()
	opts.BlockedResources = slices.Clone(opts.BlockedResources)
	return &PersistentManager{opts: opts, registry: registry}
}

// IsStarted reports whether a live persistent context is attached.
func (m *PersistentManager) IsStarted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pctx != nil
}

// Start launches the persistent context on the configured profile. The
// profile is reserved before launch and freed again on every failure path,
// so a failed start never wedges the directory.
func (m *PersistentManager) Start(ctx context.Context) error {
	_, span := tracer.Start(ctx, "browser:PersistentStart")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Closed
	}
	if m.pctx != nil {
		return AlreadyLaunched
	}

	if m.dir == "" {
		dir, err := filepath.Abs(m.opts.UserDataDir)
		if err != nil {
			return fmt.Errorf("resolve user data dir: %w", err)
		}
		m.dir = dir
	}

	// quick look before any launch work, then the atomic claim
	if m.registry.InUse(m.dir) {
		return fmt.Errorf("%w: user data dir %q in use", AlreadyLaunched, m.dir)
	}
	if !m.registry.Reserve(m.dir) {
		return fmt.Errorf("%w: user data dir %q in use", AlreadyLaunched, m.dir)
	}

	pw, err := playwright.Run()
	if err != nil {
		m.registry.Release(m.dir)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to start driver")
		return fmt.Errorf("start driver: %w", err)
	}
	pctx, err := pw.Chromium.LaunchPersistentContext(m.dir, m.opts.persistentOptions())
	if err != nil {
		stopDriver(pw)
		m.registry.Release(m.dir)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to launch persistent context")
		return fmt.Errorf("launch persistent context: %w", err)
	}

	pctx.OnClose(func(c playwright.BrowserContext) {
		// handled off the event goroutine so driver teardown cannot
		// stall event dispatch
		go m.onContextClose(c)
	})

	if err := applyExtras(pctx, m.opts.extras()); err != nil {
		if closeErr := pctx.Close(); closeErr != nil {
			slog.WarnContext(ctx, "failed to close context after setup failure", "err", closeErr)
		}
		stopDriver(pw)
		m.registry.Release(m.dir)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to configure persistent context")
		return err
	}

	m.pw = pw
	m.pctx = pctx
	return nil
}

// onContextClose observes the persistent context going away, by crash or
// by regular shutdown. Freeing the profile here keeps a crashed context
// from blocking relaunches for the rest of the process lifetime.
func (m *PersistentManager) onContextClose(c playwright.BrowserContext) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pctx != c {
		return
	}
	slog.Warn("persistent context closed from under its manager", "dir", m.dir)
	m.pctx = nil
	stopDriver(m.pw)
	m.pw = nil
	m.registry.Release(m.dir)
}

// Close shuts the persistent context down for good and frees its profile.
// Closing a manager that never started or already closed is a no-op.
// Engine errors during teardown are logged and swallowed.
func (m *PersistentManager) Close(ctx context.Context) {
	_, span := tracer.Start(ctx, "browser:PersistentClose")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pctx == nil {
		return
	}
	pctx := m.pctx
	m.pctx = nil
	if err := pctx.Close(); err != nil {
		slog.WarnContext(ctx, "failed to close persistent context", "err", err)
	}
	stopDriver(m.pw)
	m.pw = nil
	m.registry.Release(m.dir)
	m.closed = true
}

// Context returns the live persistent context.
func (m *PersistentManager) Context() (playwright.BrowserContext, error) {
	return m.handle()
}

// PageExtras is the per-page configuration a persistent context still
// allows. Timeouts are owned by the context and inherited from it.
type PageExtras struct {
	Stealth          bool
	IgnoreStealthed  bool
	BlockedResources []ResourceType
}

// NewPage opens a page in the persistent context and applies opts to it.
// The partially configured page is closed again when a setup step fails.
func (m *PersistentManager) NewPage(ctx context.Context, opts PageExtras) (playwright.Page, error) {
	_, span := tracer.Start(ctx, "browser:PersistentNewPage")
	defer span.End()

	pctx, err := m.handle()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	page, err := pctx.NewPage()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create page")
		return nil, fmt.Errorf("new page: %w", err)
	}
	if opts.Stealth {
		if err := applyStealth(page, opts.IgnoreStealthed); err != nil {
			if closeErr := page.Close(); closeErr != nil {
				slog.DebugContext(ctx, "failed to close page after setup failure", "err", closeErr)
			}
			span.RecordError(err)
			return nil, err
		}
	}
	if len(opts.BlockedResources) > 0 {
		if err := BlockResources(page, opts.BlockedResources...); err != nil {
			if closeErr := page.Close(); closeErr != nil {
				slog.DebugContext(ctx, "failed to close page after setup failure", "err", closeErr)
			}
			span.RecordError(err)
			return nil, fmt.Errorf("block resources: %w", err)
		}
	}
	return page, nil
}

// UserDataDir returns the absolute profile path once Start resolved it,
// before that the configured value as given.
func (m *PersistentManager) UserDataDir() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dir != "" {
		return m.dir
	}
	return m.opts.UserDataDir
}

func (m *PersistentManager) handle() (playwright.BrowserContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, Closed
	}
	if m.pctx == nil {
		return nil, NotLaunched
	}
	return m.pctx, nil
}
