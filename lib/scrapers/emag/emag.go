// Package emag builds and parses emag.ro urls. It stays out of the
// page DOM on purpose: layouts churn, so card extraction runs over
// generic anchor/image lists instead of site selectors.
package emag

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"scrapekit/lib/htmlutil"
)

const BaseURL = "https://www.emag.ro"

// SearchURL builds the keyword search url, "/p<n>" suffixed for pages
// past the first.
func SearchURL(keyword string, page int) (string, error) {
	if page < 1 {
		return "", fmt.Errorf("page must be greater than 0, got %d", page)
	}
	if keyword == "" {
		return "", fmt.Errorf("keyword must not be empty")
	}

	quoted := url.QueryEscape(keyword)
	if page == 1 {
		return fmt.Sprintf("%s/search/%s", BaseURL, quoted), nil
	}
	return fmt.Sprintf("%s/search/%s/p%d", BaseURL, quoted, page), nil
}

// SearchURLs builds the search urls for pages 1 through maxPage.
func SearchURLs(keyword string, maxPage int) ([]string, error) {
	var urls []string
	for page := 1; page <= maxPage; page++ {
		u, err := SearchURL(keyword, page)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

var pnkRegexp = regexp.MustCompile(`^[0-9A-Z]{9}$`)

// ValidatePNK reports whether pnk looks like a product number key:
// exactly 9 characters of 0-9A-Z.
func ValidatePNK(pnk string) bool {
	return pnkRegexp.MatchString(pnk)
}

func ProductURL(pnk string) (string, error) {
	if !ValidatePNK(pnk) {
		return "", fmt.Errorf("invalid pnk %q", pnk)
	}
	return fmt.Sprintf("%s/-/pd/%s", BaseURL, pnk), nil
}

var parsePNKRegexp = regexp.MustCompile(`/pd/([0-9A-Z]{9})($|/|\?)`)

// ParsePNK pulls the product number key out of a product url, or ""
// when there is none.
func ParsePNK(rawURL string) string {
	groups := parsePNKRegexp.FindStringSubmatch(rawURL)
	if groups == nil {
		return ""
	}
	return groups[1]
}

var imageResizeRegexp = regexp.MustCompile(`\?width=\d+&height=\d+&hash=[0-9A-F]+`)

// CleanImageURL strips the resize suffix off a product image url,
// leaving the original image.
func CleanImageURL(rawURL string) string {
	return imageResizeRegexp.ReplaceAllString(rawURL, "")
}

var (
	reviewCountRegexp = regexp.MustCompile(`\((\d+)\)`)
	priceJunkRegexp   = regexp.MustCompile(`[^\d,]`)
)

// ParsePrice reads a price out of display text like "49,99 Lei".
func ParsePrice(text string) (float64, bool) {
	cleaned := priceJunkRegexp.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

// Card is one product as it appears on a search page. Cards with the
// same PNK describe the same product.
type Card struct {
	PNK         string
	Title       string
	URL         string
	ImageURL    string
	TopFavorite bool
	ReviewCount int
	Price       float64
}

// Results accumulates the cards collected for one keyword across
// pages. Duplicate PNKs are dropped, the first sighting wins.
type Results struct {
	Keyword string
	Cards   []Card

	seen map[string]struct{}
}

func NewResults(keyword string) *Results {
	return &Results{
		Keyword: keyword,
		seen:    map[string]struct{}{},
	}
}

func (r *Results) Add(cards ...Card) {
	if r.seen == nil {
		r.seen = map[string]struct{}{}
		for _, c := range r.Cards {
			r.seen[c.PNK] = struct{}{}
		}
	}
	for _, c := range cards {
		if _, ok := r.seen[c.PNK]; ok {
			continue
		}
		r.seen[c.PNK] = struct{}{}
		r.Cards = append(r.Cards, c)
	}
}

func (r *Results) Merge(other *Results) error {
	if r.Keyword != other.Keyword {
		return fmt.Errorf("cannot merge results for %q into results for %q", other.Keyword, r.Keyword)
	}
	r.Add(other.Cards...)
	return nil
}

func (r *Results) Len() int {
	return len(r.Cards)
}

// CollectCards turns flat anchor, image and card text lists from a
// rendered search page into cards. The first anchor carrying a given pnk
// opens the card, later anchors for the same pnk fill in a missing title
// or a "(123)" style review count. Image urls and texts pair with cards
// in document order, so the caller should pick selectors that yield one
// entry per card.
func CollectCards(anchors []htmlutil.Anchor, images []string, texts []string) []Card {
	var cards []Card
	index := map[string]int{}

	for _, a := range anchors {
		pnk := ParsePNK(a.Href)
		if pnk == "" {
			continue
		}

		i, ok := index[pnk]
		if !ok {
			u, err := ProductURL(pnk)
			if err != nil {
				continue
			}
			index[pnk] = len(cards)
			cards = append(cards, Card{
				PNK:   pnk,
				Title: a.Name,
				URL:   u,
			})
			continue
		}

		if cards[i].Title == "" {
			cards[i].Title = a.Name
		}
		if groups := reviewCountRegexp.FindStringSubmatch(a.Name); groups != nil {
			count, err := strconv.Atoi(groups[1])
			if err == nil {
				cards[i].ReviewCount = count
			}
		}
	}

	for i := range cards {
		if i < len(images) {
			cards[i].ImageURL = CleanImageURL(images[i])
		}
		if i < len(texts) {
			enrichFromText(&cards[i], texts[i])
		}
	}
	return cards
}

var priceTextRegexp = regexp.MustCompile(`\d[\d.]*,\d{2}\s*Lei`)

// enrichFromText fills in the card fields that only show up in the card
// body text: the Top Favorite badge, a review count, the displayed price.
func enrichFromText(card *Card, text string) {
	if strings.Contains(text, "Top Favorite") {
		card.TopFavorite = true
	}
	if card.ReviewCount == 0 {
		if groups := reviewCountRegexp.FindStringSubmatch(text); groups != nil {
			count, err := strconv.Atoi(groups[1])
			if err == nil {
				card.ReviewCount = count
			}
		}
	}
	if card.Price == 0 {
		if match := priceTextRegexp.FindString(text); match != "" {
			if price, ok := ParsePrice(match); ok {
				card.Price = price
			}
		}
	}
}
