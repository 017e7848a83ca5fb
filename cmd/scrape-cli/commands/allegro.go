package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"scrapekit/lib/browser"
	"scrapekit/lib/scrapers/allegro"
	"scrapekit/lib/telemetry"
	"scrapekit/lib/util/pagedump"
	"scrapekit/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(allegroCmd)
}

var allegroCmd = &cobra.Command{
	Use:   "allegro [keyword ...]",
	Short: "Walks allegro.pl listings and prints the offers it finds.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		keywords := args
		if len(keywords) == 0 {
			keywords, err = loadKeywords(cfg)
			if err != nil {
				serviceutil.Fatal("failed to load keywords", err)
			}
		}

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

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Keyword", "Offer", "Title", "Url"})

		for _, keyword := range keywords {
			if ctx.Err() != nil {
				break
			}
			slog.Info("scraping keyword", "keyword", keyword)
			for _, offer := range scrapeAllegroKeyword(ctx, mgr, sink, cfg, keyword) {
				t.AppendRow(table.Row{keyword, offer.ID, offer.Title, offer.URL})
			}
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}

type allegroOffer struct {
	ID    string
	Title string
	URL   string
}

func scrapeAllegroKeyword(ctx context.Context, mgr *browser.Manager, sink *pagedump.Sink, cfg Config, keyword string) []allegroOffer {
	var offers []allegroOffer
	seen := map[string]int{}

	for i, searchURL := range allegro.SearchURLs(keyword, cfg.Scrape.Pages) {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			if err := scrapeDelay(ctx, cfg); err != nil {
				break
			}
		}

		dumpID := fmt.Sprintf("allegro_%s_p%d", keyword, i+1)
		anchors, err := fetchAnchors(ctx, mgr, cfg, sink, dumpID, searchURL, `a[href*="/oferta/"]`)
		if err != nil {
			slog.Error("failed to scrape page", "url", searchURL, "err", err)
			continue
		}

		for _, a := range anchors {
			id := allegro.ParseOfferID(a.Href)
			if id == "" {
				continue
			}
			if at, ok := seen[id]; ok {
				if offers[at].Title == "" && a.Name != "" {
					offers[at].Title = a.Name
				}
				continue
			}
			seen[id] = len(offers)
			offers = append(offers, allegroOffer{ID: id, Title: a.Name, URL: allegro.ProductURL(id)})
		}
		slog.Info("scraped page", "url", searchURL, "offers", len(offers))
	}
	return offers
}
