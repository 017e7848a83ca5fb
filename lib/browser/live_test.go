package browser

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"scrapekit/lib/telemetry"
)

// these tests drive a real chromium and only run when
// SCRAPEKIT_BROWSER_TESTS is set
func skipWithoutBrowser(t *testing.T) {
	if os.Getenv("SCRAPEKIT_BROWSER_TESTS") == "" {
		t.Skip("set SCRAPEKIT_BROWSER_TESTS to run browser tests")
	}
	cleanup := telemetry.SetupForTesting("test:lib/browser")
	t.Cleanup(cleanup)
}

func TestManagerLifecycle(t *testing.T) {
	skipWithoutBrowser(t)
	ctx := context.Background()

	m := NewManager(LaunchOptions{Headless: true})
	require.NoError(t, m.Start(ctx))
	require.True(t, m.IsStarted())
	require.ErrorIs(t, m.Start(ctx), AlreadyLaunched)

	page, err := m.NewPage(ctx, PageOptions{
		DefaultTimeout:   500,
		Stealth:          true,
		BlockedResources: []ResourceType{Image, Media},
	})
	require.NoError(t, err)
	require.True(t, IsStealthed(page))

	// the 500ms default timeout is what bounds this click on a selector
	// that matches nothing
	start := time.Now()
	err = page.Click("#does-not-exist")
	require.Error(t, err)
	require.Less(t, time.Since(start), 10*time.Second)

	m.Close(ctx)
	require.False(t, m.IsStarted())

	_, err = m.NewPage(ctx, PageOptions{})
	require.ErrorIs(t, err, NotLaunched)
	require.ErrorIs(t, m.Start(ctx), Closed)

	// closing again stays quiet
	m.Close(ctx)
}

func TestManagerStealthDuplicate(t *testing.T) {
	skipWithoutBrowser(t)
	ctx := context.Background()

	m := NewManager(LaunchOptions{Headless: true})
	require.NoError(t, m.Start(ctx))
	defer m.Close(ctx)

	bctx, err := m.NewContext(ctx, ContextOptions{Stealth: true})
	require.NoError(t, err)
	require.True(t, IsStealthed(bctx))

	// pages of a stealthed context run the script but carry no mark of
	// their own
	page, err := bctx.NewPage()
	require.NoError(t, err)
	require.False(t, IsStealthed(page))

	require.ErrorIs(t, ApplyStealth(bctx), AlreadyStealthed)
	require.NoError(t, EnsureStealth(bctx))
}

func TestPersistentProfileExclusive(t *testing.T) {
	skipWithoutBrowser(t)
	ctx := context.Background()

	registry := NewProfileRegistry()
	dir := t.TempDir()

	first := NewPersistentManager(PersistentOptions{
		LaunchOptions: LaunchOptions{Headless: true},
		UserDataDir:   dir,
		Registry:      registry,
	})
	require.NoError(t, first.Start(ctx))
	require.True(t, registry.InUse(first.UserDataDir()))

	second := NewPersistentManager(PersistentOptions{
		LaunchOptions: LaunchOptions{Headless: true},
		UserDataDir:   dir,
		Registry:      registry,
	})
	require.ErrorIs(t, second.Start(ctx), AlreadyLaunched)

	first.Close(ctx)
	require.False(t, registry.InUse(first.UserDataDir()))

	// a fresh manager may take over the freed profile
	third := NewPersistentManager(PersistentOptions{
		LaunchOptions: LaunchOptions{Headless: true},
		UserDataDir:   dir,
		Registry:      registry,
	})
	require.NoError(t, third.Start(ctx))
	third.Close(ctx)
}

func TestWaitForLocator(t *testing.T) {
	skipWithoutBrowser(t)
	ctx := context.Background()

	m := NewManager(LaunchOptions{Headless: true})
	require.NoError(t, m.Start(ctx))
	defer m.Close(ctx)

	page, err := m.NewPage(ctx, PageOptions{})
	require.NoError(t, err)
	require.NoError(t, page.SetContent(`<div id="present"></div>`))

	found, err := WaitForLocator(page, page.Locator("#present"), 2*time.Second, 100*time.Millisecond)
	require.NoError(t, err)
	require.True(t, found)

	found, err = WaitForLocator(page, page.Locator("#absent"), time.Second, 100*time.Millisecond)
	require.NoError(t, err)
	require.False(t, found)
}

func TestPersistentPages(t *testing.T) {
	skipWithoutBrowser(t)
	ctx := context.Background()

	m := NewPersistentManager(PersistentOptions{
		LaunchOptions:    LaunchOptions{Headless: true},
		UserDataDir:      t.TempDir(),
		Registry:         NewProfileRegistry(),
		Stealth:          true,
		BlockedResources: []ResourceType{Image},
	})
	require.NoError(t, m.Start(ctx))
	defer m.Close(ctx)

	page, err := m.NewPage(ctx, PageExtras{Stealth: true})
	require.NoError(t, err)
	require.True(t, IsStealthed(page))

	_, err = page.Goto("about:blank")
	require.NoError(t, err)
	require.NoError(t, page.Close())
}
