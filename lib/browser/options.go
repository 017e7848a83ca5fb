package browser

import (
	"fmt"
	"slices"

	"github.com/playwright-community/playwright-go"
)

// DefaultTimeout is the fallback for every timeout knob in this package,
// in milliseconds.
const DefaultTimeout float64 = 30_000

// LaunchOptions describes how the browser process is started. A manager
// copies them at construction, mutating the originals afterwards has no
// effect on it.
type LaunchOptions struct {
	// ExecutablePath points at the browser binary to run. Empty uses the
	// bundled chromium.
	ExecutablePath string
	// Channel picks an installed distribution such as "chrome" or
	// "msedge". "chromium" and empty both mean the engine default.
	Channel  string
	Headless bool
	// Args are extra command line switches for the browser process.
	Args []string
	// IgnoreDefaultArgs strips switches the engine would add on its own.
	// Nil strips only --enable-automation, the loudest automation tell.
	IgnoreDefaultArgs []string
	Proxy             *playwright.Proxy
	// SlowMo delays every engine operation by this many milliseconds.
	SlowMo float64
	// LaunchTimeout bounds process startup, in milliseconds.
	LaunchTimeout float64
	// Sandbox enables the chromium sandbox, off unless asked for.
	Sandbox       bool
	DownloadsPath string
	TracesDir     string
}

func (o LaunchOptions) clone() LaunchOptions {
	o.Args = slices.Clone(o.Args)
	o.IgnoreDefaultArgs = slices.Clone(o.IgnoreDefaultArgs)
	return o
}

func (o LaunchOptions) launchOptions() playwright.BrowserTypeLaunchOptions {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless:          playwright.Bool(o.Headless),
		ChromiumSandbox:   playwright.Bool(o.Sandbox),
		Timeout:           playwright.Float(orDefaultTimeout(o.LaunchTimeout)),
		IgnoreDefaultArgs: ignoreDefaults(o.IgnoreDefaultArgs),
	}
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

// ContextOptions configures a context created from a running manager. Raw
// goes to the engine verbatim, the typed fields are applied by the manager
// afterwards: timeouts first, then the init script, then stealth, then
// resource blocking.
type ContextOptions struct {
	// DefaultTimeout and DefaultNavigationTimeout are milliseconds, zero
	// means 30s.
	DefaultTimeout           float64
	DefaultNavigationTimeout float64
	// InitScript runs in every page of the context before its own scripts.
	InitScript string
	// Stealth injects the bundled anti-detection script and marks the
	// context as carrying it.
	Stealth bool
	// IgnoreStealthed turns a repeated stealth application into a no-op
	// instead of an error.
	IgnoreStealthed  bool
	BlockedResources []ResourceType
	Raw              playwright.BrowserNewContextOptions
}

func (o ContextOptions) extras() extras {
	return extras{
		defaultTimeout:    o.DefaultTimeout,
		navigationTimeout: o.DefaultNavigationTimeout,
		initScript:        o.InitScript,
		stealth:           o.Stealth,
		ignoreStealthed:   o.IgnoreStealthed,
		blocked:           o.BlockedResources,
	}
}

// PageOptions is ContextOptions for pages opened straight off the browser;
// such pages live in their own single-page context.
type PageOptions struct {
	DefaultTimeout           float64
	DefaultNavigationTimeout float64
	InitScript               string
	Stealth                  bool
	IgnoreStealthed          bool
	BlockedResources         []ResourceType
	Raw                      playwright.BrowserNewPageOptions
}

func (o PageOptions) extras() extras {
	return extras{
		defaultTimeout:    o.DefaultTimeout,
		navigationTimeout: o.DefaultNavigationTimeout,
		initScript:        o.InitScript,
		stealth:           o.Stealth,
		ignoreStealthed:   o.IgnoreStealthed,
		blocked:           o.BlockedResources,
	}
}

type extras struct {
	defaultTimeout    float64
	navigationTimeout float64
	initScript        string
	stealth           bool
	ignoreStealthed   bool
	blocked           []ResourceType
}

// configurable is what pages, contexts and persistent contexts have in
// common for post-creation setup.
type configurable interface {
	StealthTarget
	Router
	SetDefaultTimeout(timeout float64)
	SetDefaultNavigationTimeout(timeout float64)
}

// applyExtras runs the shared configuration sequence on a fresh target.
// Order matters: stealth has to land before any navigation, and blocking
// rules go in last so they shadow nothing the caller set up.
func applyExtras(target configurable, x extras) error {
	target.SetDefaultTimeout(orDefaultTimeout(x.defaultTimeout))
	target.SetDefaultNavigationTimeout(orDefaultTimeout(x.navigationTimeout))
	if x.initScript != "" {
		err := target.AddInitScript(playwright.Script{
			Content: playwright.String(x.initScript),
		})
		if err != nil {
			return fmt.Errorf("add init script: %w", err)
		}
	}
	if x.stealth {
		if err := applyStealth(target, x.ignoreStealthed); err != nil {
			return err
		}
	}
	if len(x.blocked) > 0 {
		if err := BlockResources(target, x.blocked...); err != nil {
			return fmt.Errorf("block resources: %w", err)
		}
	}
	return nil
}

func orDefaultTimeout(ms float64) float64 {
	if ms <= 0 {
		return DefaultTimeout
	}
	return ms
}

func ignoreDefaults(args []string) []string {
	if args == nil {
		return []string{"--enable-automation"}
	}
	return args
}
