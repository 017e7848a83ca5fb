// Package imgfetch pulls product images over plain HTTP, outside the
// browser. Listing pages hand over image urls, this package turns them
// into files on disk.
package imgfetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"path/filepath"
	"sync"
	"time"

	"scrapekit/lib/fileutil"
	"scrapekit/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	browser "github.com/EDDYCJY/fake-useragent"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/imgfetch")

// DefaultConcurrency caps how many downloads run at once when the
// caller does not say otherwise.
const DefaultConcurrency = 8

type Client struct {
	Http *resty.Client
}

type ClientOptions struct {
	// Extra headers set on every request. Marketplaces that refuse
	// requests without a Referer get one through here.
	Headers map[string]string
	// Defaults to 30s.
	Timeout time.Duration
}

func NewClient(opts ClientOptions) (*Client, error) {
	client := resty.New()

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	explicitAgent := false
	for key, value := range opts.Headers {
		if http.CanonicalHeaderKey(key) == "User-Agent" {
			explicitAgent = true
		}
		client.SetHeader(key, value)
	}
	if !explicitAgent {
		client.SetHeader("user-agent", browser.Computer())
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}
	client.SetTimeout(timeout)

	telemetry.InstrumentResty(client, "imgfetch/http")

	return &Client{Http: client}, nil
}

// Fetch downloads a single url and returns its body. Any status other
// than 200 is an error.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(rawURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		err := fmt.Errorf("fetch %s: %s", rawURL, res.Status())
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected status")
		return nil, err
	}

	return res.Body(), nil
}

// Item is one image to download. ID becomes the file name, sanitized
// and suffixed with the extension found in the url (".jpg" when the
// url carries none).
type Item struct {
	ID  string
	URL string
}

// DownloadAll fetches every item into dir, at most concurrency at a
// time (DefaultConcurrency when <= 0). Failed items are logged and
// skipped so one dead image url cannot sink a finished scrape. Returns
// how many files were written and the joined failures.
func (c *Client) DownloadAll(ctx context.Context, dir string, items []Item, concurrency int) (int, error) {
	ctx, span := tracer.Start(ctx, "DownloadAll")
	defer span.End()

	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var written int
	var errs []error

	for _, item := range items {
		wg.Add(1)
		sem <- struct{}{}

		go func(item Item) {
			defer wg.Done()
			defer func() { <-sem }()

			err := c.download(ctx, dir, item)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.WarnContext(ctx, "image download failed",
					"id", item.ID, "url", item.URL, "err", err)
				errs = append(errs, fmt.Errorf("%s: %w", item.ID, err))
				return
			}
			written++
		}(item)
	}
	wg.Wait()

	span.SetAttributes(
		attribute.Int("written", written),
		attribute.Int("failed", len(errs)),
	)
	return written, errors.Join(errs...)
}

func (c *Client) download(ctx context.Context, dir string, item Item) error {
	data, err := c.Fetch(ctx, item.URL)
	if err != nil {
		return err
	}

	ext := fileutil.Ext(item.URL)
	if ext == "" {
		ext = ".jpg"
	}
	name := fileutil.SafeName(item.ID) + ext
	return fileutil.WriteBytes(filepath.Join(dir, name), data, true)
}
