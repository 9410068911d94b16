package scrape

import (
	"net/url"
	"strings"
)

// Board describes where listing fields live in a job board's search page.
// Each selector list is a cascade: the first selector that matches wins.
type Board struct {
	Name                 string
	CardSelectors        []string
	TitleSelectors       []string
	CompanySelectors     []string
	DescriptionSelectors []string
	LocationSelectors    []string
	SalarySelectors      []string
	// NoResultsMarkers are lower-case phrases shown when a search has no hits.
	NoResultsMarkers []string
}

// Known boards.
var (
	BoardWuzzuf = Board{
		Name: "wuzzuf",
		CardSelectors: []string{
			`div[data-testid="job-card"]`,
			"div.css-1gatmva",
			"div.css-pkv5jc",
			"article",
		},
		TitleSelectors:       []string{`a[data-testid="job-title"]`, "h2 a", "h3 a", ".css-o171kl"},
		CompanySelectors:     []string{`[data-testid="job-company"]`, "a.css-17s97q8", ".css-d7j1kk a"},
		DescriptionSelectors: []string{`[data-testid="job-description"]`, ".css-y4udm8", ".css-1ubo9m8", "p"},
		LocationSelectors:    []string{`[data-testid="job-location"]`, ".css-5wys0k"},
		SalarySelectors:      []string{`[data-testid="job-salary"]`},
		NoResultsMarkers:     []string{"no jobs found", "0 jobs found", "didn't match any jobs"},
	}

	BoardGeneric = Board{
		Name:                 "generic",
		CardSelectors:        []string{`[data-testid="job-card"]`, ".job-card", ".job-listing", "li.job", "article", "div:has(h2 a)"},
		TitleSelectors:       []string{`[data-testid="job-title"]`, ".job-title a", "h2 a", "h3 a", ".job-title"},
		CompanySelectors:     []string{`[data-testid="job-company"]`, ".company", ".company-name"},
		DescriptionSelectors: []string{`[data-testid="job-description"]`, ".job-description", ".description", "p"},
		LocationSelectors:    []string{`[data-testid="job-location"]`, ".location", ".job-location"},
		SalarySelectors:      []string{`[data-testid="job-salary"]`, ".salary"},
		NoResultsMarkers:     []string{"no jobs found", "no results", "no matching jobs"},
	}
)

// DetectBoard picks the board layout from the search URL's host.
func DetectBoard(searchURL string) Board {
	parsed, err := url.Parse(searchURL)
	if err != nil {
		return BoardGeneric
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "wuzzuf.net" || strings.HasSuffix(host, ".wuzzuf.net") {
		return BoardWuzzuf
	}
	return BoardGeneric
}
