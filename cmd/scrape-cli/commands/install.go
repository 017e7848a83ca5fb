package commands

import (
	"log/slog"

	"scrapekit/lib/browser"
	"scrapekit/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(installCmd)
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Downloads the playwright driver and a chromium build.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := browser.Install(); err != nil {
			serviceutil.Fatal("failed to install browser dependencies", err)
		}
		slog.Info("browser dependencies installed")
	},
}
