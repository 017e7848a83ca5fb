// Command profile-browser opens a headful browser on the scrape profile so
// logins and consent banners can be dealt with by hand. Whatever state the
// session leaves behind is what the scrape commands launch with next time.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	"scrapekit/lib/browser"
	"scrapekit/lib/configutil"
	"scrapekit/lib/telemetry"
	"scrapekit/lib/util/serviceutil"

	"github.com/playwright-community/playwright-go"
)

type Config struct {
	ExecutablePath string `json:"executable_path"`
	Channel        string `json:"channel"`
	ProfileDir     string `json:"profile_dir"`
	StartURL       string `json:"start_url"`
}

func main() {
	telemetry.SetupFromEnv(context.Background(), "profile-browser")
	telemetry.InitSlog(true)

	cfg, err := configutil.ReadConfig[Config]("profile-browser.json5")
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		serviceutil.Fatal("failed to read config", err)
	}
	if cfg.ProfileDir == "" {
		cfg.ProfileDir = "browser-profile"
	}
	if cfg.StartURL == "" {
		cfg.StartURL = "https://www.emag.ro"
	}

	mgr := browser.NewPersistentManager(browser.PersistentOptions{
		LaunchOptions: browser.LaunchOptions{
			ExecutablePath: cfg.ExecutablePath,
			Channel:        cfg.Channel,
			Headless:       false,
		},
		UserDataDir: cfg.ProfileDir,
		Stealth:     true,
	})

	ctx := serviceutil.SignalContext()
	telemetry.InstrumentPerfStats(ctx)
	if err := mgr.Start(ctx); err != nil {
		serviceutil.Fatal("failed to start browser", err)
	}
	defer mgr.Close(context.Background())

	page, err := mgr.NewPage(ctx, browser.PageExtras{})
	if err != nil {
		serviceutil.Fatal("failed to open page", err)
	}
	_, err = page.Goto(cfg.StartURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		slog.Warn("failed to open start page", "url", cfg.StartURL, "err", err)
	}

	slog.Info("browser is up, press Ctrl+C to close", "profile", mgr.UserDataDir())
	<-ctx.Done()
}
