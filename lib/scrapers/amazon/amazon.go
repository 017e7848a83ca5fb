// Package amazon builds and parses amazon product/search urls across
// the marketplace sites the scrapers cover.
package amazon

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"scrapekit/lib/textutil"
)

// Site is one amazon marketplace.
type Site struct {
	Code string
	URL  string
}

var sites = []Site{
	{Code: "us", URL: "https://www.amazon.com"},
	{Code: "uk", URL: "https://www.amazon.co.uk"},
	{Code: "de", URL: "https://www.amazon.de"},
	{Code: "fr", URL: "https://www.amazon.fr"},
	{Code: "it", URL: "https://www.amazon.it"},
	{Code: "es", URL: "https://www.amazon.es"},
}

// Sites lists the supported marketplaces in stable order.
func Sites() []Site {
	out := make([]Site, len(sites))
	copy(out, sites)
	return out
}

func SiteFromCode(code string) (Site, error) {
	lowered := strings.ToLower(code)
	for _, s := range sites {
		if s.Code == lowered {
			return s, nil
		}
	}
	return Site{}, fmt.Errorf("site %q not supported", code)
}

// SearchURL builds the keyword search url, "&page=<n>" suffixed for
// pages past the first.
func SearchURL(site Site, keyword string, page int) (string, error) {
	if page < 1 {
		return "", fmt.Errorf("page must be greater than 0, got %d", page)
	}
	if keyword == "" {
		return "", fmt.Errorf("keyword must not be empty")
	}

	quoted := url.QueryEscape(keyword)
	if page == 1 {
		return fmt.Sprintf("%s/s?k=%s", site.URL, quoted), nil
	}
	return fmt.Sprintf("%s/s?k=%s&page=%d", site.URL, quoted, page), nil
}

func SearchURLs(site Site, keyword string, maxPage int) ([]string, error) {
	var urls []string
	for page := 1; page <= maxPage; page++ {
		u, err := SearchURL(site, keyword, page)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// IsASIN reports whether asin is 10 characters of 0-9A-Z.
func IsASIN(asin string) bool {
	if len(asin) != 10 {
		return false
	}
	for _, c := range asin {
		if (c < '0' || c > '9') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}

func ProductURL(site Site, asin string) (string, error) {
	if !IsASIN(asin) {
		return "", fmt.Errorf("invalid asin %q", asin)
	}
	return fmt.Sprintf("%s/dp/%s", site.URL, asin), nil
}

// BSRURL builds the best sellers rank url for a category node.
func BSRURL(site Site, node string) (string, error) {
	if !textutil.IsNumber(node) {
		return "", fmt.Errorf("invalid category node %q", node)
	}
	return fmt.Sprintf("%s/bestsellers/-/%s", site.URL, node), nil
}

// NewReleasesURL builds the new releases url for a category node.
func NewReleasesURL(site Site, node string) (string, error) {
	if !textutil.IsNumber(node) {
		return "", fmt.Errorf("invalid category node %q", node)
	}
	return fmt.Sprintf("%s/new-releases/-/%s", site.URL, node), nil
}

var parseASINRegexp = regexp.MustCompile(`/dp/([0-9A-Z]{10})($|/|\?)`)

// ParseASIN pulls the ASIN out of a product url, or "" when there is
// none.
func ParseASIN(rawURL string) string {
	groups := parseASINRegexp.FindStringSubmatch(rawURL)
	if groups == nil {
		return ""
	}
	return groups[1]
}

var imageVariantRegexp = regexp.MustCompile(`\._.*?_\.`)

// CleanImageURL collapses the "._AC_SX300_." style variant infix so the
// url points at the original image.
func CleanImageURL(rawURL string) string {
	return imageVariantRegexp.ReplaceAllString(rawURL, ".")
}
