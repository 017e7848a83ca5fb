package browser

import (
	_ "embed"
	"sync"

	"github.com/playwright-community/playwright-go"
)

//go:embed stealth.js
var stealthScript string

// StealthTarget is the part of pages and browser contexts that stealth
// scripts can be injected into.
type StealthTarget interface {
	AddInitScript(script playwright.Script) error
}

// stealthMarks remembers which live objects already carry the stealth
// script. The mark sits beside the engine objects rather than on them, and
// belongs to the exact object it was made for: marking a context does not
// mark pages later opened from it, even though the injected script reaches
// them.
var stealthMarks = struct {
	sync.Mutex
	set map[StealthTarget]struct{}
}{set: map[StealthTarget]struct{}{}}

// ApplyStealth injects the stealth script into target and marks it.
// Applying twice to the same object fails with AlreadyStealthed, the engine
// offers no way to take an init script back out.
func ApplyStealth(target StealthTarget) error {
	return applyStealth(target, false)
}

// EnsureStealth is ApplyStealth except that an already marked target is
// left alone instead of failing.
func EnsureStealth(target StealthTarget) error {
	return applyStealth(target, true)
}

// IsStealthed reports whether the stealth script was applied to this exact
// object.
func IsStealthed(target StealthTarget) bool {
	stealthMarks.Lock()
	defer stealthMarks.Unlock()
	_, ok := stealthMarks.set[target]
	return ok
}

func applyStealth(target StealthTarget, ignoreMarked bool) error {
	stealthMarks.Lock()
	_, marked := stealthMarks.set[target]
	stealthMarks.Unlock()
	if marked {
		if ignoreMarked {
			return nil
		}
		return AlreadyStealthed
	}

	err := target.AddInitScript(playwright.Script{
		Content: playwright.String(stealthScript),
	})
	if err != nil {
		return err
	}
	mark(target)
	return nil
}

func mark(target StealthTarget) {
	stealthMarks.Lock()
	stealthMarks.set[target] = struct{}{}
	stealthMarks.Unlock()

	// marks die with their object, long scrape runs open many pages
	switch t := target.(type) {
	case playwright.Page:
		t.OnClose(func(playwright.Page) { unmark(target) })
	case playwright.BrowserContext:
		t.OnClose(func(playwright.BrowserContext) { unmark(target) })
	}
}

func unmark(target StealthTarget) {
	stealthMarks.Lock()
	delete(stealthMarks.set, target)
	stealthMarks.Unlock()
}
