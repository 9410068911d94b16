// Package scrape reads job listings from job board search pages and JSON feeds.
package scrape

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPageSize is the number of listings a board shows per search page.
const DefaultPageSize = 15

// RawJob is a listing as found on a page, before validation and enrichment.
type RawJob struct {
	Title       string
	Company     string
	Description string
	Location    string
	URL         string
	Salary      string
	Skills      []string
}

// Source yields listings one page at a time. Page numbers start at 0.
// An empty slice with a nil error means there are no more results.
type Source interface {
	Name() string
	FetchPage(ctx context.Context, page int) ([]RawJob, error)
}

// MarkupError reports a page that loaded but could not be parsed into listings.
type MarkupError struct {
	URL     string
	Message string
	Cause   error
}

func (e *MarkupError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unexpected markup at %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("unexpected markup at %s: %s", e.URL, e.Message)
}

func (e *MarkupError) Unwrap() error {
	return e.Cause
}

// PageURL returns searchURL with the result offset for page set in the
// "start" query parameter.
func PageURL(searchURL string, page, pageSize int) (string, error) {
	u, err := url.Parse(searchURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse search URL: %w", err)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	q := u.Query()
	q.Set("start", strconv.Itoa(page*pageSize))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// SearchURL returns baseURL with the query term set in the "q" parameter.
func SearchURL(baseURL, query string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// QuerySources builds one source per search query against baseURL, in order.
// Each source paginates independently starting at page 0.
func QuerySources(baseURL string, queries []string, build func(name, searchURL string) Source) ([]Source, error) {
	if len(queries) == 0 {
		return []Source{build(baseURL, baseURL)}, nil
	}

	sources := make([]Source, 0, len(queries))
	for _, query := range queries {
		query = strings.TrimSpace(query)
		if query == "" {
			continue
		}
		searchURL, err := SearchURL(baseURL, query)
		if err != nil {
			return nil, err
		}
		sources = append(sources, build(query, searchURL))
	}
	return sources, nil
}

// resolve turns href into an absolute URL against base. Unparseable hrefs are returned as-is.
func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
