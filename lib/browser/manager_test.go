package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManagerRequiresStart(t *testing.T) {
	ctx := context.Background()
	m := NewManager(LaunchOptions{Headless: true})

	require.False(t, m.IsStarted())

	_, err := m.NewContext(ctx, ContextOptions{})
	require.ErrorIs(t, err, NotLaunched)
	_, err = m.NewPage(ctx, PageOptions{})
	require.ErrorIs(t, err, NotLaunched)
	_, err = m.Browser()
	require.ErrorIs(t, err, NotLaunched)
}

func TestManagerCloseBeforeStart(t *testing.T) {
	ctx := context.Background()
	m := NewManager(LaunchOptions{Headless: true})

	// closing a manager that never ran changes nothing
	m.Close(ctx)
	require.False(t, m.IsStarted())

	_, err := m.NewPage(ctx, PageOptions{})
	require.ErrorIs(t, err, NotLaunched)
	require.NotErrorIs(t, err, Closed)
}

func TestClosedMatchesNotLaunched(t *testing.T) {
	require.ErrorIs(t, Closed, NotLaunched)
	require.NotErrorIs(t, NotLaunched, Closed)
}

func TestPersistentManagerRequiresStart(t *testing.T) {
	ctx := context.Background()
	m := NewPersistentManager(PersistentOptions{
		UserDataDir: t.TempDir(),
		Registry:    NewProfileRegistry(),
	})

	require.False(t, m.IsStarted())
	_, err := m.NewPage(ctx, PageExtras{})
	require.ErrorIs(t, err, NotLaunched)
	_, err = m.Context()
	require.ErrorIs(t, err, NotLaunched)

	m.Close(ctx)
	_, err = m.Context()
	require.ErrorIs(t, err, NotLaunched)
}

func TestLaunchOptionsCopied(t *testing.T) {
	args := []string{"--disable-gpu"}
	m := NewManager(LaunchOptions{Args: args})

	args[0] = "--mutated"
	require.Equal(t, "--disable-gpu", m.opts.Args[0])
}

func TestIgnoreDefaults(t *testing.T) {
	require.Equal(t, []string{"--enable-automation"}, ignoreDefaults(nil))
	require.Empty(t, ignoreDefaults([]string{}))
	require.Equal(t, []string{"--mute-audio"}, ignoreDefaults([]string{"--mute-audio"}))
}

func TestOrDefaultTimeout(t *testing.T) {
	require.Equal(t, DefaultTimeout, orDefaultTimeout(0))
	require.Equal(t, DefaultTimeout, orDefaultTimeout(-1))
	require.Equal(t, float64(5000), orDefaultTimeout(5000))
}

func TestLaunchOptionsChannel(t *testing.T) {
	opts := LaunchOptions{Channel: "chromium"}.launchOptions()
	require.Nil(t, opts.Channel)

	opts = LaunchOptions{Channel: "msedge"}.launchOptions()
	require.NotNil(t, opts.Channel)
	require.Equal(t, "msedge", *opts.Channel)
}
