package commands

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"scrapekit/lib/browser"
	"scrapekit/lib/htmlutil"
	"scrapekit/lib/util/pagedump"

	"github.com/playwright-community/playwright-go"
)

// fetchAnchors renders pageURL in a throwaway page and hands back every
// link on the document. waitFor is the selector that marks the listing as
// loaded; a page where it never shows up is still parsed, search pages
// render partial results long before the long tail of scripts settles.
func fetchAnchors(ctx context.Context, mgr *browser.Manager, cfg Config, sink *pagedump.Sink, dumpID, pageURL, waitFor string) ([]htmlutil.Anchor, error) {
	page, err := mgr.NewPage(ctx, browser.PageOptions{
		DefaultNavigationTimeout: 60_000,
		Stealth:                  true,
		BlockedResources:         blockedResources(cfg),
	})
	if err != nil {
		return nil, err
	}
	defer page.Close()

	_, err = page.Goto(pageURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return nil, err
	}

	found, err := browser.WaitForLocator(page, page.Locator(waitFor), time.Second*15, time.Millisecond*500)
	if err != nil {
		return nil, err
	}
	if !found {
		slog.Warn("listing selector never appeared", "url", pageURL, "selector", waitFor)
	}

	content, err := page.Content()
	if err != nil {
		return nil, err
	}
	if sink != nil {
		sink.Write(dumpID, content)
	}

	doc, err := htmlutil.Parse(content)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	return htmlutil.GetAnchors(ctx, doc.Find("a[href]"), base), nil
}

// openSink builds the page dump sink when config asks for one.
func openSink(cfg Config) (*pagedump.Sink, error) {
	if cfg.Output.SnapshotDir == "" {
		return nil, nil
	}
	s, err := pagedump.NewSink(cfg.Output.SnapshotDir)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
