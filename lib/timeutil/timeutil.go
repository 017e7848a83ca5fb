// Package timeutil formats run timestamps and paces scrape traffic.
package timeutil

import (
	"context"
	"time"

	"github.com/mazen160/go-random"
)

// DefaultLayout is how run timestamps read in logs and result sheets.
const DefaultLayout = "2006-01-02 15:04:05"

// FileLayout is DefaultLayout made filename safe.
const FileLayout = "2006-01-02_15-04-05"

// NowString formats the current local time. An empty layout means
// DefaultLayout.
func NowString(layout string) string {
	if layout == "" {
		layout = DefaultLayout
	}
	return time.Now().Format(layout)
}

// Stamp returns a timestamp usable as part of a filename.
func Stamp() string {
	return time.Now().Format(FileLayout)
}

// RandomDelay sleeps a uniform random duration between min and max, the
// way a person pausing between pages would. It returns early with ctx's
// error when the run is interrupted.
func RandomDelay(ctx context.Context, min, max time.Duration) error {
	if max < min {
		min, max = max, min
	}
	d := min
	if span := max - min; span > 0 {
		n, err := random.IntRange(0, int(span.Milliseconds())+1)
		if err != nil {
			return err
		}
		d = min + time.Duration(n)*time.Millisecond
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
