package browser

import (
	"fmt"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
)

type scriptRecorder struct {
	scripts []string
	fail    error
}

func (r *scriptRecorder) AddInitScript(script playwright.Script) error {
	if r.fail != nil {
		return r.fail
	}
	if script.Content != nil {
		r.scripts = append(r.scripts, *script.Content)
	}
	return nil
}

func TestApplyStealth(t *testing.T) {
	target := &scriptRecorder{}

	require.False(t, IsStealthed(target))
	require.NoError(t, ApplyStealth(target))
	require.True(t, IsStealthed(target))
	require.Len(t, target.scripts, 1)
	require.Contains(t, target.scripts[0], "webdriver")

	err := ApplyStealth(target)
	require.ErrorIs(t, err, AlreadyStealthed)
	require.Len(t, target.scripts, 1)
}

func TestEnsureStealth(t *testing.T) {
	target := &scriptRecorder{}

	require.NoError(t, EnsureStealth(target))
	require.NoError(t, EnsureStealth(target))
	require.Len(t, target.scripts, 1)
	require.True(t, IsStealthed(target))
}

func TestStealthMarksAreNotShared(t *testing.T) {
	a := &scriptRecorder{}
	b := &scriptRecorder{}

	require.NoError(t, ApplyStealth(a))
	require.True(t, IsStealthed(a))
	require.False(t, IsStealthed(b))
	require.NoError(t, ApplyStealth(b))
	require.True(t, IsStealthed(b))
}

func TestApplyStealthInjectionFailure(t *testing.T) {
	boom := fmt.Errorf("target gone")
	target := &scriptRecorder{fail: boom}

	err := ApplyStealth(target)
	require.ErrorIs(t, err, boom)
	// a failed injection leaves no mark behind
	require.False(t, IsStealthed(target))
}
