// Package allegro builds and parses allegro.pl urls.
package allegro

import (
	"fmt"
	"net/url"
	"regexp"
)

const BaseURL = "https://allegro.pl"

// SearchURL builds the listing search url, "&p=<n>" suffixed for pages
// past the first.
func SearchURL(keyword string, page int) string {
	quoted := url.QueryEscape(keyword)
	if page == 1 {
		return fmt.Sprintf("%s/listing?string=%s", BaseURL, quoted)
	}
	return fmt.Sprintf("%s/listing?string=%s&p=%d", BaseURL, quoted, page)
}

func SearchURLs(keyword string, maxPage int) []string {
	var urls []string
	for page := 1; page <= maxPage; page++ {
		urls = append(urls, SearchURL(keyword, page))
	}
	return urls
}

func ShopURL(name string) string {
	return fmt.Sprintf("%s/uzytkownik/%s/sklep", BaseURL, name)
}

func ProductURL(id string) string {
	return fmt.Sprintf("%s/oferta/%s", BaseURL, id)
}

var offerIDRegexp = regexp.MustCompile(`oferta/[a-zA-Z0-9-]*?(\d{11})`)

// ParseOfferID pulls the 11 digit offer id out of a product url, or ""
// when there is none. Offer urls usually carry a slug, like
// "/oferta/pendrive-64gb-12345678901".
func ParseOfferID(rawURL string) string {
	groups := offerIDRegexp.FindStringSubmatch(rawURL)
	if groups == nil {
		return ""
	}
	return groups[1]
}
