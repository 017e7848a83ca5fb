package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"scrapekit/lib/browser"
	"scrapekit/lib/resultstore"
	"scrapekit/lib/scrapers/amazon"
	"scrapekit/lib/telemetry"
	"scrapekit/lib/textutil"
	"scrapekit/lib/util/pagedump"
	"scrapekit/lib/util/serviceutil"
	"scrapekit/lib/workbook"

	"github.com/spf13/cobra"
)

// two listings on different sites count as the same product at or above
// this title score
const similarityThreshold = 0.90

var (
	amazonDb    *string
	amazonOut   *string
	amazonSites *string
)

func init() {
	amazonDb = amazonCmd.Flags().String("db", "results.db", "The database to write scrape results to.")
	amazonOut = amazonCmd.Flags().String("out", "amazon.xlsx", "The workbook to write the report to.")
	amazonSites = amazonCmd.Flags().String("site", "us", "Comma separated amazon sites to compare, e.g. \"us,uk,de\".")
	rootCmd.AddCommand(amazonCmd)
}

var amazonCmd = &cobra.Command{
	Use:   "amazon [--site us,uk,...] [--db <path/to/results.db>] [--out <report.xlsx>]",
	Short: "Scrapes amazon keyword searches and lines the sites up side by side.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		keywords, err := loadKeywords(cfg)
		if err != nil {
			serviceutil.Fatal("failed to load keywords", err)
		}

		var sites []amazon.Site
		for _, code := range strings.Split(*amazonSites, ",") {
			site, err := amazon.SiteFromCode(strings.TrimSpace(code))
			if err != nil {
				serviceutil.Fatal("failed to resolve site", err)
			}
			sites = append(sites, site)
		}

		store, err := resultstore.Open(*amazonDb)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer store.Close()

		sink, err := openSink(cfg)
		if err != nil {
			serviceutil.Fatal("failed to prepare snapshot dir", err)
		}

		mgr := browser.NewManager(browser.LaunchOptions{
			ExecutablePath: cfg.Browser.ExecutablePath,
			Channel:        cfg.Browser.Channel,
			Headless:       true,
		})

		ctx := serviceutil.SignalContext()
		telemetry.InstrumentPerfStats(ctx)
		if err := mgr.Start(ctx); err != nil {
			serviceutil.Fatal("failed to start browser", err)
		}
		defer mgr.Close(context.Background())

		book := workbook.Create(*amazonOut)
		defer book.Close()

		t1 := time.Now()
		for _, keyword := range keywords {
			if ctx.Err() != nil {
				break
			}
			slog.Info("scraping keyword", "keyword", keyword, "sites", *amazonSites)
			bySite := scrapeAmazonKeyword(ctx, mgr, store, sink, cfg, sites, keyword)

			if err := writeAmazonSheet(book, sites, keyword, bySite); err != nil {
				slog.Error("failed to write sheet", "keyword", keyword, "err", err)
			}
		}

		if err := book.Save(); err != nil {
			serviceutil.Fatal("failed to save report", err)
		}
		slog.Info("scraping time", "seconds", time.Since(t1).Seconds())
	},
}

type amazonListing struct {
	ASIN  string
	Title string
	URL   string
}

func scrapeAmazonKeyword(ctx context.Context, mgr *browser.Manager, store resultstore.Store, sink *pagedump.Sink, cfg Config, sites []amazon.Site, keyword string) map[string][]amazonListing {
	bySite := make(map[string][]amazonListing, len(sites))
	for _, site := range sites {
		if ctx.Err() != nil {
			break
		}
		listings := scrapeAmazonSite(ctx, mgr, sink, cfg, site, keyword)
		bySite[site.Code] = listings
		slog.Info("site done", "site", site.Code, "keyword", keyword, "products", len(listings))

		products := make([]resultstore.Product, len(listings))
		for i, l := range listings {
			products[i] = resultstore.Product{ID: l.ASIN, Title: l.Title, URL: l.URL}
		}
		// pushed with a fresh context so partial results still land
		// when the scrape context is already canceled
		err := store.Push(context.Background(), resultstore.PushRequest{
			Site:     "amazon." + site.Code,
			Keyword:  keyword,
			Time:     time.Now(),
			Products: products,
		})
		if err != nil {
			slog.Error("failed to push results", "site", site.Code, "keyword", keyword, "err", err)
		}
	}
	return bySite
}

func scrapeAmazonSite(ctx context.Context, mgr *browser.Manager, sink *pagedump.Sink, cfg Config, site amazon.Site, keyword string) []amazonListing {
	var listings []amazonListing
	seen := map[string]int{}

	urls, err := amazon.SearchURLs(site, keyword, cfg.Scrape.Pages)
	if err != nil {
		slog.Error("failed to build search urls", "site", site.Code, "keyword", keyword, "err", err)
		return nil
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

		dumpID := fmt.Sprintf("amazon_%s_%s_p%d", site.Code, keyword, i+1)
		anchors, err := fetchAnchors(ctx, mgr, cfg, sink, dumpID, searchURL, `a[href*="/dp/"]`)
		if err != nil {
			slog.Error("failed to scrape page", "url", searchURL, "err", err)
			continue
		}

		for _, a := range anchors {
			asin := amazon.ParseASIN(a.Href)
			if asin == "" {
				continue
			}
			if at, ok := seen[asin]; ok {
				if listings[at].Title == "" && a.Name != "" {
					listings[at].Title = a.Name
				}
				continue
			}
			productURL, err := amazon.ProductURL(site, asin)
			if err != nil {
				continue
			}
			seen[asin] = len(listings)
			listings = append(listings, amazonListing{ASIN: asin, Title: a.Name, URL: productURL})
		}
		slog.Info("scraped page", "url", searchURL, "products", len(listings))
	}
	return listings
}

func writeAmazonSheet(book *workbook.Book, sites []amazon.Site, keyword string, bySite map[string][]amazonListing) error {
	sheet := sheetName(keyword)
	if _, err := book.EnsureSheet(sheet); err != nil {
		return err
	}

	if err := book.WriteRow(sheet, 1, []any{"Keyword", keyword}); err != nil {
		return err
	}
	header := []any{"Product"}
	for _, site := range sites {
		header = append(header, fmt.Sprintf("ASIN (%s)", site.Code))
	}
	if err := book.WriteRow(sheet, 2, header); err != nil {
		return err
	}

	// the first site orders the sheet, the others are matched against it
	for i, base := range bySite[sites[0].Code] {
		row := i + 3

		matches := make([]amazonListing, len(sites))
		matches[0] = base
		for j, site := range sites[1:] {
			matches[j+1] = matchListing(base, bySite[site.Code])
		}

		values := []any{base.Title}
		for _, m := range matches {
			values = append(values, m.ASIN)
		}
		if err := book.WriteRow(sheet, row, values); err != nil {
			return err
		}

		for j, m := range matches {
			if m.ASIN == "" {
				continue
			}
			col, err := workbook.ColumnIndexToName(j + 2)
			if err != nil {
				return err
			}
			if err := book.SetHyperlink(sheet, fmt.Sprintf("%s%d", col, row), m.URL, m.ASIN); err != nil {
				return err
			}
		}
	}

	if err := book.SetColWidth(sheet, "A", "A", 60); err != nil {
		return err
	}
	last, err := workbook.ColumnIndexToName(len(sites) + 1)
	if err != nil {
		return err
	}
	return book.SetColWidth(sheet, "B", last, 16)
}

// matchListing finds the closest listing for the same product on another
// site. An asin hit wins outright, otherwise the best title score above
// the threshold takes it.
func matchListing(base amazonListing, candidates []amazonListing) amazonListing {
	var best amazonListing
	bestScore := 0.0
	for _, c := range candidates {
		if c.ASIN == base.ASIN {
			return c
		}
		score := textutil.Similarity(base.Title, c.Title)
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	if bestScore >= similarityThreshold {
		return best
	}
	return amazonListing{}
}
