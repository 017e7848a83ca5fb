// Package pagedump writes scraped page snapshots to a directory, one file
// per page, for picking apart failed runs offline.
package pagedump

import (
	"log/slog"
	"os"
	"path/filepath"

	"scrapekit/lib/fileutil"
)

type Sink struct {
	directory string
}

// NewSink wipes dir and recreates it empty. Snapshots only ever describe
// the current run.
func NewSink(dir string) (Sink, error) {
	if err := os.RemoveAll(dir); err != nil {
		return Sink{}, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Sink{}, err
	}
	return Sink{directory: dir}, nil
}

// Write stores contents under a filename derived from id. Dump failures
// are logged and dropped, a broken snapshot never kills a scrape.
func (o Sink) Write(id string, contents string) {
	name := fileutil.SafeName(id) + ".html"
	err := os.WriteFile(filepath.Join(o.directory, name), []byte(contents), 0644)
	if err != nil {
		slog.Warn("failed to write page snapshot", "id", id, "err", err)
	}
}
