package scrape

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/fetch"
	"go.uber.org/zap"
)

// maxCompanyLen rejects company matches that grabbed a whole paragraph.
const maxCompanyLen = 100

// Fetcher retrieves a page body.
type Fetcher interface {
	Get(ctx context.Context, url string) (*fetch.Result, error)
}

var _ Source = (*HTMLSource)(nil)

// HTMLSource scrapes a job board's HTML search results.
type HTMLSource struct {
	name      string
	searchURL string
	pageSize  int
	board     Board
	fetcher   Fetcher
	// renderer re-renders pages whose static HTML has no cards; nil disables it.
	renderer fetch.Renderer
	logger   *zap.Logger
}

// HTMLSourceOptions configures an HTMLSource.
type HTMLSourceOptions struct {
	Name      string
	SearchURL string
	PageSize  int
	// Board overrides layout detection from the search URL.
	Board    *Board
	Renderer fetch.Renderer
}

// NewHTMLSource creates a source paging through opts.SearchURL.
func NewHTMLSource(fetcher Fetcher, opts HTMLSourceOptions, logger *zap.Logger) *HTMLSource {
	board := DetectBoard(opts.SearchURL)
	if opts.Board != nil {
		board = *opts.Board
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Name == "" {
		opts.Name = opts.SearchURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTMLSource{
		name:      opts.Name,
		searchURL: opts.SearchURL,
		pageSize:  opts.PageSize,
		board:     board,
		fetcher:   fetcher,
		renderer:  opts.Renderer,
		logger:    logger,
	}
}

// Name returns the source name, usually the search query.
func (s *HTMLSource) Name() string {
	return s.name
}

// FetchPage fetches and parses one search results page.
func (s *HTMLSource) FetchPage(ctx context.Context, page int) ([]RawJob, error) {
	pageURL, err := PageURL(s.searchURL, page, s.pageSize)
	if err != nil {
		return nil, err
	}

	result, err := s.fetcher.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.Body) == "" {
		return nil, &MarkupError{URL: pageURL, Message: "empty response body"}
	}

	jobs, noResults, err := ParseListings(result.Body, pageURL, s.board)
	if err != nil {
		return nil, err
	}
	if len(jobs) > 0 || noResults {
		return jobs, nil
	}

	if s.renderer != nil {
		s.logger.Debug("no job cards in static HTML, rendering with browser",
			zap.String("source", s.name), zap.Int("page", page))

		html, err := s.renderer.Render(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		jobs, noResults, err = ParseListings(html, pageURL, s.board)
		if err != nil {
			return nil, err
		}
		if len(jobs) > 0 || noResults {
			return jobs, nil
		}
	}

	return nil, &MarkupError{URL: pageURL, Message: "no job cards found and no empty-results marker"}
}

// ParseListings extracts the job cards of a search page. noResults reports
// that the page explicitly says the search has no hits.
func ParseListings(html, pageURL string, board Board) (jobs []RawJob, noResults bool, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false, &MarkupError{URL: pageURL, Message: "failed to parse HTML", Cause: err}
	}
	doc.Find("script, style, noscript").Remove()

	base, _ := url.Parse(pageURL)

	cards := firstMatch(doc.Selection, board.CardSelectors)
	if cards == nil {
		return nil, hasMarker(doc.Find("body").Text(), board.NoResultsMarkers), nil
	}

	cards.Each(func(_ int, card *goquery.Selection) {
		if job, ok := parseCard(card, board, base); ok {
			jobs = append(jobs, job)
		}
	})

	if len(jobs) == 0 {
		return nil, hasMarker(doc.Find("body").Text(), board.NoResultsMarkers), nil
	}
	return jobs, false, nil
}

func parseCard(card *goquery.Selection, board Board, base *url.URL) (RawJob, bool) {
	titleSel := firstMatch(card, board.TitleSelectors)
	if titleSel == nil {
		// Any link in the card
		titleSel = card.Find("a[href]")
	}
	if titleSel == nil || titleSel.Length() == 0 {
		return RawJob{}, false
	}
	titleSel = titleSel.First()

	title := squash(titleSel.Text())
	if title == "" {
		return RawJob{}, false
	}

	href, ok := titleSel.Attr("href")
	if !ok {
		href, _ = titleSel.Find("a[href]").First().Attr("href")
	}

	job := RawJob{
		Title:       title,
		URL:         resolve(base, href),
		Description: firstText(card, board.DescriptionSelectors, 0),
		Location:    firstText(card, board.LocationSelectors, 0),
		Salary:      firstText(card, board.SalarySelectors, 0),
		Company:     firstText(card, board.CompanySelectors, maxCompanyLen),
	}
	job.Company = strings.TrimSuffix(strings.TrimSpace(job.Company), " -")
	return job, true
}

// firstMatch returns the matches of the first selector that finds anything.
func firstMatch(s *goquery.Selection, selectors []string) *goquery.Selection {
	for _, selector := range selectors {
		if found := s.Find(selector); found.Length() > 0 {
			return found
		}
	}
	return nil
}

// firstText returns the text of the first selector yielding non-empty text no
// longer than maxLen runes (0 means unlimited).
func firstText(s *goquery.Selection, selectors []string, maxLen int) string {
	for _, selector := range selectors {
		text := squash(s.Find(selector).First().Text())
		if text == "" {
			continue
		}
		if maxLen > 0 && len([]rune(text)) > maxLen {
			continue
		}
		return text
	}
	return ""
}

func hasMarker(text string, markers []string) bool {
	text = strings.ToLower(squash(text))
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
