package amazon

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestSiteFromCode(t *testing.T) {
	cases := []struct {
		code     string
		expected string
	}{
		{code: "us", expected: "https://www.amazon.com"},
		{code: "UK", expected: "https://www.amazon.co.uk"},
		{code: "De", expected: "https://www.amazon.de"},
		{code: "fr", expected: "https://www.amazon.fr"},
		{code: "it", expected: "https://www.amazon.it"},
		{code: "es", expected: "https://www.amazon.es"},
	}
	for _, c := range cases {
		site, err := SiteFromCode(c.code)
		require.NoError(t, err)
		require.Equal(t, c.expected, site.URL)
	}

	_, err := SiteFromCode("jp")
	require.Error(t, err)
	_, err = SiteFromCode("")
	require.Error(t, err)
}

func TestSitesOrder(t *testing.T) {
	codes := make([]string, 0, len(Sites()))
	for _, s := range Sites() {
		codes = append(codes, s.Code)
	}
	if diff := cmp.Diff([]string{"us", "uk", "de", "fr", "it", "es"}, codes); diff != "" {
		t.Fatal(diff)
	}
}

func TestSearchURL(t *testing.T) {
	us, err := SiteFromCode("us")
	require.NoError(t, err)
	de, err := SiteFromCode("de")
	require.NoError(t, err)

	cases := []struct {
		site     Site
		keyword  string
		page     int
		expected string
	}{
		{site: us, keyword: "usb stick", page: 1, expected: "https://www.amazon.com/s?k=usb+stick"},
		{site: us, keyword: "usb stick", page: 3, expected: "https://www.amazon.com/s?k=usb+stick&page=3"},
		{site: de, keyword: "laptop", page: 1, expected: "https://www.amazon.de/s?k=laptop"},
	}
	for _, c := range cases {
		got, err := SearchURL(c.site, c.keyword, c.page)
		require.NoError(t, err)
		require.Equal(t, c.expected, got)
	}

	_, err = SearchURL(us, "", 1)
	require.Error(t, err)
	_, err = SearchURL(us, "laptop", 0)
	require.Error(t, err)
}

func TestSearchURLs(t *testing.T) {
	uk, err := SiteFromCode("uk")
	require.NoError(t, err)

	urls, err := SearchURLs(uk, "laptop", 2)
	require.NoError(t, err)

	expected := []string{
		"https://www.amazon.co.uk/s?k=laptop",
		"https://www.amazon.co.uk/s?k=laptop&page=2",
	}
	if diff := cmp.Diff(expected, urls); diff != "" {
		t.Fatal(diff)
	}
}

func TestIsASIN(t *testing.T) {
	cases := []struct {
		asin  string
		valid bool
	}{
		{asin: "B0C2FG3HLC", valid: true},
		{asin: "0123456789", valid: true},
		{asin: "B0C2FG3HL", valid: false},
		{asin: "B0C2FG3HLC1", valid: false},
		{asin: "b0c2fg3hlc", valid: false},
		{asin: "B0C2FG3HL-", valid: false},
		{asin: "", valid: false},
	}
	for _, c := range cases {
		require.Equal(t, c.valid, IsASIN(c.asin), "asin %q", c.asin)
	}
}

func TestProductURL(t *testing.T) {
	it, err := SiteFromCode("it")
	require.NoError(t, err)

	got, err := ProductURL(it, "B0C2FG3HLC")
	require.NoError(t, err)
	require.Equal(t, "https://www.amazon.it/dp/B0C2FG3HLC", got)

	_, err = ProductURL(it, "nope")
	require.Error(t, err)
}

func TestCategoryURLs(t *testing.T) {
	us, err := SiteFromCode("us")
	require.NoError(t, err)

	bsr, err := BSRURL(us, "172282")
	require.NoError(t, err)
	require.Equal(t, "https://www.amazon.com/bestsellers/-/172282", bsr)

	releases, err := NewReleasesURL(us, "172282")
	require.NoError(t, err)
	require.Equal(t, "https://www.amazon.com/new-releases/-/172282", releases)

	_, err = BSRURL(us, "electronics")
	require.Error(t, err)
	_, err = NewReleasesURL(us, "")
	require.Error(t, err)
}

func TestParseASIN(t *testing.T) {
	cases := []struct {
		url      string
		expected string
	}{
		{url: "https://www.amazon.com/dp/B0C2FG3HLC", expected: "B0C2FG3HLC"},
		{url: "https://www.amazon.com/SanDisk-Ultra/dp/B0C2FG3HLC/ref=sr_1_3", expected: "B0C2FG3HLC"},
		{url: "/dp/B0C2FG3HLC?th=1", expected: "B0C2FG3HLC"},
		{url: "https://www.amazon.com/dp/B0C2FG3HLCX", expected: ""},
		{url: "https://www.amazon.com/s?k=usb", expected: ""},
	}
	for _, c := range cases {
		require.Equal(t, c.expected, ParseASIN(c.url), "url %q", c.url)
	}
}

func TestCleanImageURL(t *testing.T) {
	dirty := "https://m.media-amazon.com/images/I/71abcDEF._AC_SX300_SY300_QL70_.jpg"
	clean := "https://m.media-amazon.com/images/I/71abcDEF.jpg"
	require.Equal(t, clean, CleanImageURL(dirty))

	require.Equal(t, clean, CleanImageURL(clean))
}
