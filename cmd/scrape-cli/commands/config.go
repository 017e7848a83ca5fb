package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"scrapekit/lib/browser"
	"scrapekit/lib/configutil"
	"scrapekit/lib/imgfetch"
	"scrapekit/lib/timeutil"
	"scrapekit/lib/workbook"
)

// Config is read from config.json5 in the working directory, with
// config.local.json5 overrides merged on top.
type Config struct {
	Browser BrowserConfig `json:"browser"`
	Scrape  ScrapeConfig  `json:"scrape"`
	Output  OutputConfig  `json:"output"`
}

type BrowserConfig struct {
	// ExecutablePath points at the browser binary to run. Empty runs
	// the chromium the install command downloads.
	ExecutablePath string `json:"executable_path"`
	// Channel picks an installed distribution, like "chrome" or
	// "msedge".
	Channel    string `json:"channel"`
	Headless   bool   `json:"headless"`
	ProfileDir string `json:"profile_dir"`
}

type ScrapeConfig struct {
	Keywords []string `json:"keywords"`
	// KeywordsFile is an optional workbook whose first column feeds
	// extra keywords, one per row.
	KeywordsFile     string   `json:"keywords_file"`
	Pages            int      `json:"pages"`
	DelayMinMs       int      `json:"delay_min_ms"`
	DelayMaxMs       int      `json:"delay_max_ms"`
	BlockedResources []string `json:"blocked_resources"`
}

type OutputConfig struct {
	// ImageDir receives downloaded product images. Empty skips the
	// downloads.
	ImageDir    string `json:"image_dir"`
	Concurrency int    `json:"concurrency"`
	// SnapshotDir receives the raw html of every scraped page. Empty
	// skips the snapshots.
	SnapshotDir string `json:"snapshot_dir"`
}

func loadConfig() (Config, error) {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		return Config{}, err
	}
	if cfg.Browser.ProfileDir == "" {
		cfg.Browser.ProfileDir = "browser-profile"
	}
	if cfg.Scrape.Pages < 1 {
		cfg.Scrape.Pages = 1
	}
	if cfg.Scrape.DelayMinMs <= 0 {
		cfg.Scrape.DelayMinMs = 10_000
	}
	if cfg.Scrape.DelayMaxMs < cfg.Scrape.DelayMinMs {
		cfg.Scrape.DelayMaxMs = cfg.Scrape.DelayMinMs + 10_000
	}
	if cfg.Output.Concurrency <= 0 {
		cfg.Output.Concurrency = imgfetch.DefaultConcurrency
	}
	return cfg, nil
}

func loadKeywords(cfg Config) ([]string, error) {
	keywords := append([]string{}, cfg.Scrape.Keywords...)

	if cfg.Scrape.KeywordsFile != "" {
		book, err := workbook.Open(cfg.Scrape.KeywordsFile)
		if err != nil {
			return nil, err
		}
		defer book.Close()

		file := book.File()
		sheet := file.GetSheetName(file.GetActiveSheetIndex())
		rows, err := book.ReadRows(sheet)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if len(row) == 0 || row[0] == "" {
				continue
			}
			keywords = append(keywords, row[0])
		}
	}

	if len(keywords) == 0 {
		return nil, fmt.Errorf("no keywords configured")
	}
	return keywords, nil
}

func blockedResources(cfg Config) []browser.ResourceType {
	if len(cfg.Scrape.BlockedResources) == 0 {
		return []browser.ResourceType{browser.Image, browser.Media}
	}
	types := make([]browser.ResourceType, 0, len(cfg.Scrape.BlockedResources))
	for _, t := range cfg.Scrape.BlockedResources {
		types = append(types, browser.ResourceType(strings.ToLower(t)))
	}
	return types
}

func scrapeDelay(ctx context.Context, cfg Config) error {
	return timeutil.RandomDelay(ctx,
		time.Duration(cfg.Scrape.DelayMinMs)*time.Millisecond,
		time.Duration(cfg.Scrape.DelayMaxMs)*time.Millisecond)
}

// sheet names cap out at 31 characters, long keywords get elided
func sheetName(keyword string) string {
	if len(keyword) < 28 {
		return keyword
	}
	return keyword[:28] + "..."
}
