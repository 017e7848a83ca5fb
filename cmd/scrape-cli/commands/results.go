package commands

import (
	"os"

	"scrapekit/lib/resultstore"
	"scrapekit/lib/timeutil"
	"scrapekit/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	resultsDb      *string
	resultsSite    *string
	resultsKeyword *string
)

func init() {
	resultsDb = resultsCmd.Flags().String("db", "results.db", "The database to read scrape results from.")
	resultsSite = resultsCmd.Flags().String("site", "emag", "The site whose results to show, e.g. \"emag\" or \"amazon.us\".")
	resultsKeyword = resultsCmd.Flags().String("keyword", "", "Show the stored products for one keyword instead of the run summary.")
	rootCmd.AddCommand(resultsCmd)
}

var resultsCmd = &cobra.Command{
	Use:   "results [--db <path/to/results.db>] [--site <site>] [--keyword <keyword>]",
	Short: "Shows what previous scrape runs left in the database.",
	Run: func(cmd *cobra.Command, args []string) {
		store, err := resultstore.Open(*resultsDb)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer store.Close()

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)

		if *resultsKeyword != "" {
			products, err := store.Pull(cmd.Context(), *resultsSite, *resultsKeyword)
			if err != nil {
				serviceutil.Fatal("failed to pull products", err)
			}
			t.AppendHeader(table.Row{"Product", "Title", "Price", "Last Seen", "Url"})
			for _, p := range products {
				t.AppendRow(table.Row{
					p.ID, p.Title, p.Price,
					p.LastSeen.Format(timeutil.DefaultLayout), p.URL,
				})
			}
		} else {
			runs, err := store.Keywords(cmd.Context())
			if err != nil {
				serviceutil.Fatal("failed to list keywords", err)
			}
			t.AppendHeader(table.Row{"Site", "Keyword", "Runs", "Products", "Last Run"})
			for _, r := range runs {
				t.AppendRow(table.Row{
					r.Site, r.Keyword, r.Runs, r.Products,
					r.LastRun.Format(timeutil.DefaultLayout),
				})
			}
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
