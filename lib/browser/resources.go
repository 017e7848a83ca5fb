package browser

import (
	"log/slog"

	"github.com/playwright-community/playwright-go"
)

// ResourceType is a request category as chromium tags it.
type ResourceType string

const (
	Document    ResourceType = "document"
	Stylesheet  ResourceType = "stylesheet"
	Image       ResourceType = "image"
	Media       ResourceType = "media"
	Font        ResourceType = "font"
	Script      ResourceType = "script"
	TextTrack   ResourceType = "texttrack"
	XHR         ResourceType = "xhr"
	Fetch       ResourceType = "fetch"
	EventSource ResourceType = "eventsource"
	WebSocket   ResourceType = "websocket"
	Manifest    ResourceType = "manifest"
	Other       ResourceType = "other"
)

type blockRule map[ResourceType]struct{}

func newBlockRule(types []ResourceType) blockRule {
	rule := make(blockRule, len(types))
	for _, t := range types {
		rule[t] = struct{}{}
	}
	return rule
}

func (r blockRule) blocks(resourceType string) bool {
	_, ok := r[ResourceType(resourceType)]
	return ok
}

// Router is the part of pages and browser contexts that installs request
// interceptors.
type Router interface {
	Route(url interface{}, handler func(playwright.Route), times ...int) error
}

// BlockResources aborts every request on target whose resource type is in
// types and lets the rest through. Routes are consulted newest first, so
// installing a second rule on the same target shadows the previous one
// instead of stacking with it.
func BlockResources(target Router, types ...ResourceType) error {
	rule := newBlockRule(types)
	return target.Route("**/*", func(route playwright.Route) {
		if rule.blocks(route.Request().ResourceType()) {
			if err := route.Abort(); err != nil {
				slog.Debug("failed to abort request", "url", route.Request().URL(), "err", err)
			}
			return
		}
		if err := route.Continue(); err != nil {
			slog.Debug("failed to continue request", "url", route.Request().URL(), "err", err)
		}
	})
}
