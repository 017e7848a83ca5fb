package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"scrapekit/lib/browser"
	"scrapekit/lib/htmlutil"
	"scrapekit/lib/imgfetch"
	"scrapekit/lib/resultstore"
	"scrapekit/lib/scrapers/emag"
	"scrapekit/lib/telemetry"
	"scrapekit/lib/util/pagedump"
	"scrapekit/lib/util/serviceutil"
	"scrapekit/lib/workbook"

	"github.com/playwright-community/playwright-go"
	"github.com/spf13/cobra"
)

var (
	emagDb  *string
	emagOut *string
)

func init() {
	emagDb = emagCmd.Flags().String("db", "results.db", "The database to write scrape results to.")
	emagOut = emagCmd.Flags().String("out", "results.xlsx", "The workbook to write the report to.")
	rootCmd.AddCommand(emagCmd)
}

var emagCmd = &cobra.Command{
	Use:   "emag [--db <path/to/results.db>] [--out <report.xlsx>]",
	Short: "Scrapes emag.ro keyword searches according to config.json5.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		keywords, err := loadKeywords(cfg)
		if err != nil {
			serviceutil.Fatal("failed to load keywords", err)
		}

		store, err := resultstore.Open(*emagDb)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer store.Close()

		sink, err := openSink(cfg)
		if err != nil {
			serviceutil.Fatal("failed to prepare snapshot dir", err)
		}

		images, err := imgfetch.NewClient(imgfetch.ClientOptions{})
		if err != nil {
			serviceutil.Fatal("failed to initialize image client", err)
		}

		mgr := browser.NewPersistentManager(browser.PersistentOptions{
			LaunchOptions: browser.LaunchOptions{
				ExecutablePath: cfg.Browser.ExecutablePath,
				Channel:        cfg.Browser.Channel,
				Headless:       cfg.Browser.Headless,
			},
			UserDataDir:              cfg.Browser.ProfileDir,
			DefaultNavigationTimeout: 60_000,
			Stealth:                  true,
			BlockedResources:         blockedResources(cfg),
		})

		ctx := serviceutil.SignalContext()
		telemetry.InstrumentPerfStats(ctx)
		if err := mgr.Start(ctx); err != nil {
			serviceutil.Fatal("failed to start browser", err)
		}
		defer mgr.Close(context.Background())

		book := workbook.Create(*emagOut)
		defer book.Close()

		t1 := time.Now()
		for _, keyword := range keywords {
			if ctx.Err() != nil {
				break
			}
			slog.Info("scraping keyword", "keyword", keyword)
			results := scrapeEmagKeyword(ctx, mgr, store, sink, cfg, keyword)

			if err := writeEmagSheet(book, results); err != nil {
				slog.Error("failed to write sheet", "keyword", keyword, "err", err)
			}
			downloadCardImages(ctx, images, cfg, results)
		}

		if err := book.Save(); err != nil {
			serviceutil.Fatal("failed to save report", err)
		}
		slog.Info("scraping time", "seconds", time.Since(t1).Seconds())
	},
}

func scrapeEmagKeyword(ctx context.Context, mgr *browser.PersistentManager, store resultstore.Store, sink *pagedump.Sink, cfg Config, keyword string) *emag.Results {
	results := emag.NewResults(keyword)

	urls, err := emag.SearchURLs(keyword, cfg.Scrape.Pages)
	if err != nil {
		slog.Error("failed to build search urls", "keyword", keyword, "err", err)
		return results
	}

	for i, searchURL := range urls {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			if err := scrapeDelay(ctx, cfg); err != nil {
				break
			}
		}

		cards, err := scrapeEmagPage(ctx, mgr, sink, keyword, i+1, searchURL)
		if err != nil {
			slog.Error("failed to scrape page", "url", searchURL, "err", err)
			continue
		}
		results.Add(cards...)
		slog.Info("scraped page", "url", searchURL, "cards", len(cards))

		// pushed with a fresh context so partial results still land
		// when the scrape context is already canceled
		err = store.Push(context.Background(), resultstore.PushRequest{
			Site:     "emag",
			Keyword:  keyword,
			Time:     time.Now(),
			Products: cardsToProducts(cards),
		})
		if err != nil {
			slog.Error("failed to push partial results", "keyword", keyword, "err", err)
		}
	}

	slog.Info("keyword done", "keyword", keyword, "products", results.Len())
	return results
}

func scrapeEmagPage(ctx context.Context, mgr *browser.PersistentManager, sink *pagedump.Sink, keyword string, pageNo int, searchURL string) ([]emag.Card, error) {
	page, err := mgr.NewPage(ctx, browser.PageExtras{})
	if err != nil {
		return nil, err
	}
	defer page.Close()

	_, err = page.Goto(searchURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return nil, err
	}

	found, err := browser.WaitForLocator(page, page.Locator(`a[href*="/pd/"]`), time.Second*15, time.Millisecond*500)
	if err != nil {
		return nil, err
	}
	if !found {
		slog.Warn("no product links appeared", "url", searchURL)
	}

	content, err := page.Content()
	if err != nil {
		return nil, err
	}
	if sink != nil {
		sink.Write(fmt.Sprintf("emag_%s_p%d", keyword, pageNo), content)
	}

	doc, err := htmlutil.Parse(content)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(searchURL)
	if err != nil {
		return nil, err
	}

	anchors := htmlutil.GetAnchors(ctx, doc.Find("a[href]"), base)
	imageURLs := htmlutil.GetImages(ctx, doc.Find("div.card-item img"), base)
	texts := htmlutil.GetTexts(ctx, doc.Find("div.card-item"))
	return emag.CollectCards(anchors, imageURLs, texts), nil
}

func cardsToProducts(cards []emag.Card) []resultstore.Product {
	products := make([]resultstore.Product, len(cards))
	for i, c := range cards {
		price := ""
		if c.Price > 0 {
			price = strconv.FormatFloat(c.Price, 'f', 2, 64)
		}
		products[i] = resultstore.Product{
			ID:       c.PNK,
			Title:    c.Title,
			URL:      c.URL,
			ImageURL: c.ImageURL,
			Price:    price,
		}
	}
	return products
}

func writeEmagSheet(book *workbook.Book, results *emag.Results) error {
	sheet := sheetName(results.Keyword)
	if _, err := book.EnsureSheet(sheet); err != nil {
		return err
	}

	err := book.WriteRow(sheet, 1, []any{"Keyword", results.Keyword})
	if err != nil {
		return err
	}
	err = book.WriteRow(sheet, 2, []any{"Product", "Image", "Top Favorite", "Reviews", "Price"})
	if err != nil {
		return err
	}

	for i, card := range results.Cards {
		row := i + 3
		err := book.WriteRow(sheet, row, []any{
			card.Title, card.ImageURL, card.TopFavorite, card.ReviewCount, card.Price,
		})
		if err != nil {
			return err
		}
		err = book.SetHyperlink(sheet, fmt.Sprintf("A%d", row), card.URL, card.Title)
		if err != nil {
			return err
		}
		if card.ImageURL != "" {
			err = book.SetHyperlink(sheet, fmt.Sprintf("B%d", row), card.ImageURL, card.ImageURL)
			if err != nil {
				return err
			}
		}
	}

	if err := book.SetColWidth(sheet, "A", "B", 40); err != nil {
		return err
	}
	return book.SetColWidth(sheet, "C", "E", 16)
}

func downloadCardImages(ctx context.Context, client *imgfetch.Client, cfg Config, results *emag.Results) {
	if cfg.Output.ImageDir == "" || ctx.Err() != nil {
		return
	}

	var items []imgfetch.Item
	for _, card := range results.Cards {
		if card.ImageURL == "" {
			continue
		}
		items = append(items, imgfetch.Item{ID: card.PNK, URL: card.ImageURL})
	}
	if len(items) == 0 {
		return
	}

	written, err := client.DownloadAll(ctx, cfg.Output.ImageDir, items, cfg.Output.Concurrency)
	if err != nil {
		slog.Warn("some image downloads failed", "keyword", results.Keyword, "err", err)
	}
	slog.Info("downloaded product images", "keyword", results.Keyword, "count", written)
}
