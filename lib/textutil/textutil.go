// Package textutil carries the string predicates and matching helpers the
// scrape pipelines share.
package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	numberRegex     = regexp.MustCompile(`^\d+(\.\d+)?$`)
	letterRegex     = regexp.MustCompile(`^[a-zA-Z]+$`)
	lowerRegex      = regexp.MustCompile(`^[a-z]+$`)
	upperRegex      = regexp.MustCompile(`^[A-Z]+$`)
)

// IsNumber reports whether s is a plain decimal number like "12" or
// "12.5". The empty string is not a number.
func IsNumber(s string) bool {
	return numberRegex.MatchString(s)
}

// IsLetter reports whether s is ascii letters only.
func IsLetter(s string) bool {
	return letterRegex.MatchString(s)
}

func IsLowerLetter(s string) bool {
	return lowerRegex.MatchString(s)
}

func IsUpperLetter(s string) bool {
	return upperRegex.MatchString(s)
}

// NormalizeName flattens a scraped title for comparisons: lowercased with
// all whitespace removed.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// MatchName reports whether the normalized name contains any of the
// matchers. Matchers are expected to be normalized already.
func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// Similarity scores how close two listing titles are, 0 to 1. Case and
// whitespace runs do not count against the score.
func Similarity(a, b string) float64 {
	a = collapse(a)
	b = collapse(b)
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	return matchr.JaroWinkler(a, b, true)
}

func collapse(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return whitespaceRegex.ReplaceAllString(s, " ")
}
