package ingest

import (
	"html"
	"strings"

	strip "github.com/grokify/html-strip-tags-go"
)

// CleanName strips markup and entities from a display name scraped out of a
// results page and collapses its whitespace.
func CleanName(s string) string {
	s = html.UnescapeString(strip.StripTags(s))
	return strings.Join(strings.Fields(s), " ")
}

var regionAliases = map[string]string{
	"us":                       "United States",
	"usa":                      "United States",
	"united states of america": "United States",
	"uk":                       "United Kingdom",
	"great britain":            "United Kingdom",
	"virgin islands":           "U.S. Virgin Islands",
	"us virgin islands":        "U.S. Virgin Islands",
	"washington dc":            "District of Columbia",
	"washington, d.c.":         "District of Columbia",
	"dc":                       "District of Columbia",
	"korea, south":             "South Korea",
	"republic of korea":        "South Korea",
	"czechia":                  "Czech Republic",
	"mainland china":           "China",
}

// NormalizeRegion maps the many spellings of a country or state found in
// case-count datasets onto one name.
func NormalizeRegion(name string) string {
	name = CleanName(name)
	if alias, ok := regionAliases[strings.ToLower(name)]; ok {
		return alias
	}
	return name
}
