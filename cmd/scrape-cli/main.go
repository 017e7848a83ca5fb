package main

import (
	"context"
	"scrapekit/cmd/scrape-cli/commands"
	"scrapekit/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "scrape-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
