package browser

import "fmt"

var (
	// AlreadyLaunched is returned when starting a manager that already
	// holds a live browser.
	AlreadyLaunched = fmt.Errorf("browser already launched")
	// NotLaunched is returned when a context or page is requested from a
	// manager with no live browser behind it.
	NotLaunched = fmt.Errorf("browser not launched")
	// Closed is returned by managers that were shut down for good. It
	// matches NotLaunched under errors.Is so callers that only care about
	// "no browser here" keep working.
	Closed = fmt.Errorf("%w: manager closed", NotLaunched)
	// AlreadyStealthed is returned when stealth scripts are applied to a
	// target that already carries them.
	AlreadyStealthed = fmt.Errorf("stealth scripts already applied")
)
