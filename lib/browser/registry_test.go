package browser

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProfileRegistry(t *testing.T) {
	reg := NewProfileRegistry()

	require.False(t, reg.InUse("/tmp/profile"))
	require.True(t, reg.Reserve("/tmp/profile"))
	require.True(t, reg.InUse("/tmp/profile"))
	require.False(t, reg.Reserve("/tmp/profile"))

	reg.Release("/tmp/profile")
	require.False(t, reg.InUse("/tmp/profile"))
	require.True(t, reg.Reserve("/tmp/profile"))
}

func TestProfileRegistryReleaseIdempotent(t *testing.T) {
	reg := NewProfileRegistry()

	require.True(t, reg.Reserve("/tmp/profile"))
	reg.Release("/tmp/profile")
	reg.Release("/tmp/profile")
	require.True(t, reg.Reserve("/tmp/profile"))
}

func TestProfileRegistryIndependentDirs(t *testing.T) {
	reg := NewProfileRegistry()
	for i := 0; i < 8; i++ {
		require.True(t, reg.Reserve(fmt.Sprintf("/tmp/profile-%d", i)))
	}
}

func TestProfileRegistryContention(t *testing.T) {
	reg := NewProfileRegistry()

	const attempts = 64
	var wg sync.WaitGroup
	wins := make(chan int, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if reg.Reserve("/tmp/contested") {
				wins <- 1
			}
		}()
	}
	wg.Wait()
	close(wins)

	total := 0
	for w := range wins {
		total += w
	}
	require.Equal(t, 1, total)
}
