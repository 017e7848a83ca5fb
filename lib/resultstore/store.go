// Package resultstore persists scraped listings between runs. The CLI
// pushes after every page, so an interrupted scrape still leaves its
// partial results behind.
package resultstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "embed"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Open connects to the database at path and makes sure the schema is in
// place. Remote urls (libsql://, wss://, https://, ...) go through the
// libsql driver, everything else is treated as a local sqlite file.
func Open(path string) (Store, error) {
	driver := "sqlite"
	for _, scheme := range []string{"libsql://", "wss://", "ws://", "https://", "http://"} {
		if strings.HasPrefix(path, scheme) {
			driver = "libsql"
			break
		}
	}

	database, err := sql.Open(driver, path)
	if err != nil {
		return Store{}, err
	}
	_, err = database.Exec(Schema)
	if err != nil {
		database.Close()
		return Store{}, err
	}
	return NewStore(database), nil
}

func (s Store) Close() error {
	return s.db.Close()
}

type Product struct {
	ID       string
	Title    string
	URL      string
	ImageURL string
	Price    string
}

type PushRequest struct {
	Site     string
	Keyword  string
	Time     time.Time
	Products []Product
}

// Push records one scraped page worth of products under the given
// site/keyword pair. Products seen before keep their first_seen time,
// everything else about them is overwritten.
func (s Store) Push(ctx context.Context, req PushRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO keywords (site, keyword) VALUES (?, ?)
ON CONFLICT (site, keyword) DO NOTHING
`, req.Site, req.Keyword)
	if err != nil {
		return err
	}

	var keywordId int64
	err = tx.QueryRowContext(ctx, `
SELECT id FROM keywords WHERE site = ? AND keyword = ?
`, req.Site, req.Keyword).Scan(&keywordId)
	if err != nil {
		return err
	}

	seen := req.Time.Unix()
	for _, p := range req.Products {
		_, err = tx.ExecContext(ctx, `
INSERT INTO products (keyword_id, product_id, title, url, image_url, price, first_seen, last_seen)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (keyword_id, product_id) DO UPDATE SET
    title = excluded.title,
    url = excluded.url,
    image_url = excluded.image_url,
    price = excluded.price,
    last_seen = excluded.last_seen
`, keywordId, p.ID, p.Title, p.URL, p.ImageURL, p.Price, seen, seen)
		if err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO snapshots (keyword_id, time, product_count) VALUES (?, ?, ?)
`, keywordId, seen, len(req.Products))
	if err != nil {
		return err
	}

	return tx.Commit()
}

type StoredProduct struct {
	Product
	FirstSeen time.Time
	LastSeen  time.Time
}

// Pull returns everything recorded for a site/keyword pair, most
// recently seen first.
func (s Store) Pull(ctx context.Context, site, keyword string) ([]StoredProduct, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT p.product_id, p.title, p.url, p.image_url, p.price, p.first_seen, p.last_seen
FROM products p
JOIN keywords k ON k.id = p.keyword_id
WHERE k.site = ? AND k.keyword = ?
ORDER BY p.last_seen DESC, p.id ASC
`, site, keyword)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []StoredProduct
	for rows.Next() {
		var p StoredProduct
		var firstSeen, lastSeen int64
		err := rows.Scan(&p.ID, &p.Title, &p.URL, &p.ImageURL, &p.Price, &firstSeen, &lastSeen)
		if err != nil {
			return nil, err
		}
		p.FirstSeen = time.Unix(firstSeen, 0)
		p.LastSeen = time.Unix(lastSeen, 0)
		products = append(products, p)
	}
	return products, rows.Err()
}

type KeywordRuns struct {
	Site     string
	Keyword  string
	Runs     int64
	Products int64
	LastRun  time.Time
}

// Keywords summarizes what the store has seen so far, one row per
// site/keyword pair.
func (s Store) Keywords(ctx context.Context) ([]KeywordRuns, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT k.site, k.keyword,
    COUNT(DISTINCT s.id),
    COUNT(DISTINCT p.id),
    COALESCE(MAX(s.time), 0)
FROM keywords k
LEFT JOIN snapshots s ON s.keyword_id = k.id
LEFT JOIN products p ON p.keyword_id = k.id
GROUP BY k.id
ORDER BY k.site, k.keyword
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keywords []KeywordRuns
	for rows.Next() {
		var kr KeywordRuns
		var lastRun int64
		err := rows.Scan(&kr.Site, &kr.Keyword, &kr.Runs, &kr.Products, &lastRun)
		if err != nil {
			return nil, err
		}
		kr.LastRun = time.Unix(lastRun, 0)
		keywords = append(keywords, kr)
	}
	return keywords, rows.Err()
}
