package scrape

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/schemas"
)

var _ Source = (*JSONSource)(nil)

type feedPage struct {
	Jobs []feedJob `json:"jobs"`
}

type feedJob struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Company     string   `json:"company"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Salary      string   `json:"salary"`
	Skills      []string `json:"skills"`
}

// JSONSource pages through a JSON listing feed. Every page is validated
// against the job feed schema before it is decoded.
type JSONSource struct {
	name      string
	searchURL string
	pageSize  int
	fetcher   Fetcher
	schema    *schemas.Schema
}

// NewJSONSource creates a feed source.
func NewJSONSource(fetcher Fetcher, name, searchURL string, pageSize int) (*JSONSource, error) {
	schema, err := schemas.JobFeed()
	if err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if name == "" {
		name = searchURL
	}

	return &JSONSource{
		name:      name,
		searchURL: searchURL,
		pageSize:  pageSize,
		fetcher:   fetcher,
		schema:    schema,
	}, nil
}

// Name returns the source name.
func (s *JSONSource) Name() string {
	return s.name
}

// FetchPage fetches, validates and decodes one feed page.
func (s *JSONSource) FetchPage(ctx context.Context, page int) ([]RawJob, error) {
	pageURL, err := PageURL(s.searchURL, page, s.pageSize)
	if err != nil {
		return nil, err
	}

	result, err := s.fetcher.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	body := []byte(result.Body)
	if err := s.schema.Validate(body); err != nil {
		return nil, &MarkupError{URL: pageURL, Message: "invalid feed page", Cause: err}
	}

	var fp feedPage
	if err := json.Unmarshal(body, &fp); err != nil {
		return nil, &MarkupError{URL: pageURL, Message: "failed to decode feed page", Cause: err}
	}

	base, _ := url.Parse(pageURL)
	jobs := make([]RawJob, 0, len(fp.Jobs))
	for _, j := range fp.Jobs {
		jobs = append(jobs, RawJob{
			Title:       squash(j.Title),
			Company:     squash(j.Company),
			Description: strings.TrimSpace(j.Description),
			Location:    squash(j.Location),
			URL:         resolve(base, j.URL),
			Salary:      squash(j.Salary),
			Skills:      j.Skills,
		})
	}
	return jobs, nil
}
