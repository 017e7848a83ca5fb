package browser

import (
	"time"

	"github.com/playwright-community/playwright-go"
)

// WaitForLocator polls until locator resolves to at least one element,
// checking every interval for at most timeout. Running out of time is an
// ordinary false, not an error; zero timeout or interval fall back to 30s
// and 1s. The wait rides the page's own clock so it dies with the page.
func WaitForLocator(page playwright.Page, locator playwright.Locator, timeout, interval time.Duration) (bool, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if interval <= 0 {
		interval = time.Second
	}
	deadline := time.Now().Add(timeout)
	for {
		if time.Now().After(deadline) {
			return false, nil
		}
		n, err := locator.Count()
		if err != nil {
			return false, err
		}
		if n > 0 {
			return true, nil
		}
		page.WaitForTimeout(float64(interval.Milliseconds()))
	}
}
