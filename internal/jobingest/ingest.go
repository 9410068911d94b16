// Package jobingest runs scrape cycles: it pages through job sources, embeds
// the listings it finds and stores them in the job-index.
package jobingest

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/embedding"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/fetch"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/logging"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/ratelimit"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/retry"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/scrape"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/textnorm"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Defaults for Options.
const (
	DefaultMaxPages               = 3
	DefaultMaxConsecutiveFailures = 3
	DefaultEmbedConcurrency       = 4
	DefaultLocation               = "Egypt"
	DefaultPageInterval           = 2 * time.Second

	unknownCompany = "Unknown Company"
	unknownSalary  = "Not specified"
)

// JobWriter persists job listings.
type JobWriter interface {
	UpsertJob(ctx context.Context, job *types.JobListing) error
}

// Options tunes a scrape cycle.
type Options struct {
	// MaxPages is the page limit per source.
	MaxPages               int
	MaxConsecutiveFailures int
	EmbedConcurrency       int
	// DefaultLocation fills listings that carry no location.
	DefaultLocation string
	// StoreRetry bounds retries of transient store failures. Zero means retry.DefaultPolicy.
	StoreRetry retry.Policy
}

// DefaultOptions returns the stock cycle policy.
func DefaultOptions() Options {
	return Options{
		MaxPages:               DefaultMaxPages,
		MaxConsecutiveFailures: DefaultMaxConsecutiveFailures,
		EmbedConcurrency:       DefaultEmbedConcurrency,
		DefaultLocation:        DefaultLocation,
		StoreRetry:             retry.DefaultPolicy(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxPages <= 0 {
		o.MaxPages = d.MaxPages
	}
	if o.MaxConsecutiveFailures <= 0 {
		o.MaxConsecutiveFailures = d.MaxConsecutiveFailures
	}
	if o.EmbedConcurrency <= 0 {
		o.EmbedConcurrency = d.EmbedConcurrency
	}
	if o.DefaultLocation == "" {
		o.DefaultLocation = d.DefaultLocation
	}
	o.StoreRetry = o.StoreRetry.OrDefault()
	return o
}

// Deps are the collaborators of an Ingestor. Seen is optional.
type Deps struct {
	Sources  []scrape.Source
	Embedder embedding.Embedder
	Store    JobWriter
	Pacer    *ratelimit.Pacer
	Seen     SeenCache
}

// CycleResult summarizes one scrape cycle.
type CycleResult struct {
	CycleID       string      `json:"cycle_id"`
	IngestedCount int         `json:"ingested_count"`
	SkippedCount  int         `json:"skipped_count"`
	Pages         int         `json:"pages"`
	Errors        []ItemError `json:"errors"`
	StartedAt     time.Time   `json:"started_at"`
	FinishedAt    time.Time   `json:"finished_at"`
}

// Ingestor runs scrape cycles over a fixed set of sources.
type Ingestor struct {
	deps   Deps
	opts   Options
	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

// New creates an Ingestor. A nil pacer means pages are fetched back to back.
func New(deps Deps, opts Options, logger *zap.Logger) (*Ingestor, error) {
	if len(deps.Sources) == 0 {
		return nil, &types.ValidationError{Field: "sources", Message: "at least one job source is required"}
	}
	if deps.Embedder == nil || deps.Store == nil {
		return nil, &types.ValidationError{Message: "embedder and store are required"}
	}
	if deps.Pacer == nil {
		deps.Pacer = ratelimit.NewPacer(0)
	}

	return &Ingestor{
		deps:   deps,
		opts:   opts.withDefaults(),
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logging.OrNop(logger),
	}, nil
}

// Options returns the effective cycle policy.
func (in *Ingestor) Options() Options {
	return in.opts
}

// cycle is the mutable state of one RunCycle call.
type cycle struct {
	maxJobs     int
	result      *CycleResult
	seenInCycle map[string]bool
	consecutive int
	state       *stateMachine
	logger      *zap.Logger
}

func (c *cycle) budgetLeft() bool {
	return c.result.IngestedCount < c.maxJobs
}

// pendingJob is a validated listing waiting for its embedding.
type pendingJob struct {
	listing *types.JobListing
	text    string
	hash    string
}

// RunCycle scrapes every source in order and ingests at most maxJobs new
// listings. Page and item failures are collected in the result; the error is
// non-nil only when the cycle itself could not complete, in which case the
// partial result is still returned.
func (in *Ingestor) RunCycle(ctx context.Context, maxJobs int) (*CycleResult, error) {
	if maxJobs < 1 {
		return nil, &types.ValidationError{Field: "max_jobs", Message: "must be at least 1"}
	}

	result := &CycleResult{CycleID: in.newID(), StartedAt: in.now().UTC(), Errors: []ItemError{}}
	logger := in.logger.With(zap.String("cycle_id", result.CycleID))
	c := &cycle{
		maxJobs:     maxJobs,
		result:      result,
		seenInCycle: make(map[string]bool),
		state:       newStateMachine(logger),
		logger:      logger,
	}

	logger.Info("scrape cycle started",
		zap.Int("max_jobs", maxJobs),
		zap.Int("sources", len(in.deps.Sources)))

	err := in.run(ctx, c)
	return in.finish(c, err)
}

func (in *Ingestor) run(ctx context.Context, c *cycle) error {
	for _, src := range in.deps.Sources {
		for page := 0; page < in.opts.MaxPages; page++ {
			if !c.budgetLeft() {
				return nil
			}
			if err := in.deps.Pacer.Wait(ctx); err != nil {
				return err
			}

			c.state.to(StateFetchingPage, zap.String("source", src.Name()), zap.Int("page", page))
			raw, err := in.fetchPage(ctx, c, src, page)
			c.result.Pages++
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if abort := in.pageFailed(c, src.Name(), page, err); abort != nil {
					return abort
				}
				continue
			}
			c.consecutive = 0

			c.state.to(StateParsing, zap.Int("records", len(raw)))
			if len(raw) == 0 {
				c.logger.Debug("no more results", zap.String("source", src.Name()), zap.Int("page", page))
				break
			}

			if err := in.ingestPage(ctx, c, src.Name(), page, raw); err != nil {
				return err
			}
		}
	}
	return nil
}

// fetchPage fetches one page, retrying once after a paced wait when the
// source answered 429, 5xx or timed out.
func (in *Ingestor) fetchPage(ctx context.Context, c *cycle, src scrape.Source, page int) ([]scrape.RawJob, error) {
	raw, err := src.FetchPage(ctx, page)
	var fetchErr *fetch.Error
	if err == nil || ctx.Err() != nil || !errors.As(err, &fetchErr) || !fetchErr.Transient() {
		return raw, err
	}

	c.logger.Info("transient page failure, retrying",
		zap.String("source", src.Name()),
		zap.Int("page", page),
		zap.Error(err))
	if werr := in.deps.Pacer.Wait(ctx); werr != nil {
		return nil, werr
	}
	return src.FetchPage(ctx, page)
}

// pageFailed records a page error and returns a *ScrapeAbortedError when the cycle must stop.
func (in *Ingestor) pageFailed(c *cycle, source string, page int, err error) error {
	c.state.to(StateFailedPage)
	c.consecutive++
	c.result.Errors = append(c.result.Errors, newItemError(source, page, "", KindPage, err))
	c.logger.Warn("page failed",
		zap.String("source", source),
		zap.Int("page", page),
		zap.Int("consecutive_failures", c.consecutive),
		zap.Error(err))

	var fetchErr *fetch.Error
	if c.result.Pages == 1 && errors.As(err, &fetchErr) && fetchErr.Unreachable() {
		return &ScrapeAbortedError{ConsecutiveFailures: c.consecutive, Reason: "source unreachable", LastErr: err}
	}
	if c.consecutive >= in.opts.MaxConsecutiveFailures {
		return &ScrapeAbortedError{ConsecutiveFailures: c.consecutive, Reason: "too many page failures", LastErr: err}
	}
	return nil
}

// ingestPage validates and dedups the records of one page, embeds the
// survivors concurrently and then stores them one by one.
func (in *Ingestor) ingestPage(ctx context.Context, c *cycle, source string, page int, raw []scrape.RawJob) error {
	var pending []pendingJob

	for _, rj := range raw {
		// Budget is reserved before dispatch; failed items give it back on the next page.
		if c.result.IngestedCount+len(pending) >= c.maxJobs {
			break
		}

		job, ok := in.prepare(ctx, c, rj)
		if !ok {
			c.result.SkippedCount++
			continue
		}
		pending = append(pending, job)
	}
	if len(pending) == 0 {
		return nil
	}

	c.state.to(StateEmbedding, zap.Int("jobs", len(pending)))
	vectors := make([]types.Vector, len(pending))
	embedErrs := make([]error, len(pending))

	var g errgroup.Group
	g.SetLimit(in.opts.EmbedConcurrency)
	for i := range pending {
		g.Go(func() error {
			vectors[i], embedErrs[i] = in.deps.Embedder.Embed(ctx, pending[i].text)
			return nil
		})
	}
	_ = g.Wait()

	c.state.to(StateStoring)
	for i, job := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		listing := job.listing

		if embedErrs[i] != nil {
			c.result.Errors = append(c.result.Errors, newItemError(source, page, listing.JobID, KindEmbed, embedErrs[i]))
			c.logger.Warn("job embedding failed",
				zap.String("job_id", listing.JobID),
				zap.Error(embedErrs[i]))
			continue
		}

		listing.Embedding = vectors[i]
		err := retry.Do(ctx, in.opts.StoreRetry, c.logger, "upsert job", func(ctx context.Context) error {
			return in.deps.Store.UpsertJob(ctx, listing)
		})
		if err != nil {
			c.result.Errors = append(c.result.Errors, newItemError(source, page, listing.JobID, KindStore, err))
			c.logger.Warn("job store failed",
				zap.String("job_id", listing.JobID),
				zap.Error(err))
			continue
		}
		c.result.IngestedCount++

		if in.deps.Seen != nil {
			if err := in.deps.Seen.Mark(ctx, listing.JobID, job.hash); err != nil {
				c.logger.Warn("failed to update seen cache", zap.String("job_id", listing.JobID), zap.Error(err))
			}
		}
	}
	return nil
}

// prepare validates a raw record and assembles its listing without the embedding.
func (in *Ingestor) prepare(ctx context.Context, c *cycle, rj scrape.RawJob) (pendingJob, bool) {
	title := textnorm.Collapse(rj.Title)
	sourceURL := strings.TrimSpace(rj.URL)
	if title == "" || !isAbsoluteHTTP(sourceURL) {
		c.logger.Debug("skipping invalid record", zap.String("title", title), zap.String("url", sourceURL))
		return pendingJob{}, false
	}

	jobID, err := JobID(sourceURL, title)
	if err != nil {
		c.logger.Debug("skipping record without usable URL", zap.String("url", sourceURL), zap.Error(err))
		return pendingJob{}, false
	}
	if c.seenInCycle[jobID] {
		return pendingJob{}, false
	}
	c.seenInCycle[jobID] = true

	listing, text := in.assemble(jobID, title, sourceURL, rj)
	hash := contentHash(listing.Title, listing.Company, listing.Description, listing.Location, listing.SalaryRange)

	if in.deps.Seen != nil {
		unchanged, err := in.deps.Seen.Unchanged(ctx, jobID, hash)
		if err != nil {
			c.logger.Warn("seen cache lookup failed, treating as miss", zap.String("job_id", jobID), zap.Error(err))
		} else if unchanged {
			c.logger.Debug("listing unchanged since last cycle", zap.String("job_id", jobID))
			return pendingJob{}, false
		}
	}

	return pendingJob{listing: listing, text: text, hash: hash}, true
}

// assemble builds the listing and the text to embed.
func (in *Ingestor) assemble(jobID, title, sourceURL string, rj scrape.RawJob) (*types.JobListing, string) {
	description := textnorm.CleanText(textnorm.StripMarkup(rj.Description))
	norm := textnorm.Normalize(title + "\n\n" + description)

	company := textnorm.Collapse(rj.Company)
	if company == "" {
		company = unknownCompany
	}
	location := textnorm.Collapse(rj.Location)
	if location == "" {
		location = in.opts.DefaultLocation
	}
	salary := textnorm.Collapse(rj.Salary)
	if salary == "" {
		salary = unknownSalary
	}

	listing := &types.JobListing{
		JobID:           jobID,
		Title:           title,
		Company:         company,
		Description:     description,
		RequiredSkills:  mergeSkills(norm.Signals.Skills, rj.Skills),
		ExperienceLevel: textnorm.ClassifyExperienceLevel(title + " " + description),
		Location:        location,
		SourceURL:       sourceURL,
		SalaryRange:     salary,
		ScrapedAt:       in.now().UTC(),
	}
	return listing, norm.Clean
}

func (in *Ingestor) finish(c *cycle, err error) (*CycleResult, error) {
	if c.state.current != StateIdle {
		c.state.to(StateIdle)
	}
	c.result.FinishedAt = in.now().UTC()

	fields := []zap.Field{
		zap.Int("ingested", c.result.IngestedCount),
		zap.Int("skipped", c.result.SkippedCount),
		zap.Int("pages", c.result.Pages),
		zap.Int("errors", len(c.result.Errors)),
		zap.Duration("duration", c.result.FinishedAt.Sub(c.result.StartedAt)),
	}
	if err != nil {
		c.logger.Error("scrape cycle ended early", append(fields, zap.Error(err))...)
		return c.result, err
	}
	c.logger.Info("scrape cycle finished", fields...)
	return c.result, nil
}

// mergeSkills combines extracted skills with skills the source listed,
// canonicalized, deduplicated and sorted.
func mergeSkills(extracted, listed []string) []string {
	set := make(map[string]struct{}, len(extracted)+len(listed))
	for _, s := range extracted {
		set[s] = struct{}{}
	}
	for _, s := range listed {
		if canonical := textnorm.CanonicalSkill(s); canonical != "" {
			set[canonical] = struct{}{}
		}
	}

	skills := make([]string, 0, len(set))
	for s := range set {
		skills = append(skills, s)
	}
	sort.Strings(skills)
	if len(skills) > textnorm.MaxSkills {
		skills = skills[:textnorm.MaxSkills]
	}
	return skills
}

func isAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
