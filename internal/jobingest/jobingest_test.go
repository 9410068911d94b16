package jobingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/fetch"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/retry"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/scrape"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/types"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeSource serves scripted pages; pages beyond the script are empty.
// Errors in errOnce are returned on the first fetch of their page only.
type fakeSource struct {
	name    string
	pages   map[int][]scrape.RawJob
	errs    map[int]error
	errOnce map[int]error
	fetched []int
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) FetchPage(_ context.Context, page int) ([]scrape.RawJob, error) {
	s.fetched = append(s.fetched, page)
	if err := s.errOnce[page]; err != nil {
		delete(s.errOnce, page)
		return nil, err
	}
	if err := s.errs[page]; err != nil {
		return nil, err
	}
	return s.pages[page], nil
}

// fakeEmbedder fails for texts containing "explode" and counts calls.
type fakeEmbedder struct {
	mu     sync.Mutex
	calls  int
	onCall func()
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) (types.Vector, error) {
	e.mu.Lock()
	e.calls++
	onCall := e.onCall
	e.mu.Unlock()

	if onCall != nil {
		onCall()
	}
	if err := ctx.Err(); err != nil {
		return types.Vector{}, err
	}
	if strings.Contains(strings.ToLower(text), "explode") {
		return types.Vector{}, errors.New("embedding backend exploded")
	}
	return types.Vector{Values: []float32{1, 0, 0, 0}, Model: "test-model"}, nil
}

func (e *fakeEmbedder) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// flakyStore always rejects listings whose title contains "broken" and
// rejects the first write of listings whose title contains "flaky".
type flakyStore struct {
	*vectorstore.MemoryStore
	attempts map[string]int
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: vectorstore.NewMemoryStore(), attempts: make(map[string]int)}
}

func (s *flakyStore) UpsertJob(ctx context.Context, job *types.JobListing) error {
	s.attempts[job.Title]++
	title := strings.ToLower(job.Title)
	if strings.Contains(title, "broken") || (strings.Contains(title, "flaky") && s.attempts[job.Title] == 1) {
		return &types.TransientError{Op: "upsert_job", Cause: errors.New("connection reset")}
	}
	return s.MemoryStore.UpsertJob(ctx, job)
}

// memorySeenCache is an in-process SeenCache without expiry.
type memorySeenCache struct {
	mu     sync.Mutex
	hashes map[string]string
}

func newMemorySeenCache() *memorySeenCache {
	return &memorySeenCache{hashes: make(map[string]string)}
}

func (c *memorySeenCache) Unchanged(_ context.Context, jobID, hash string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored, ok := c.hashes[jobID]
	return ok && stored == hash, nil
}

func (c *memorySeenCache) Mark(_ context.Context, jobID, hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hashes[jobID] = hash
	return nil
}

func fastRetry() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

type brokenSeenCache struct{}

func (brokenSeenCache) Unchanged(context.Context, string, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func (brokenSeenCache) Mark(context.Context, string, string) error {
	return errors.New("redis: connection refused")
}

func rawJobs(prefix string, n int) []scrape.RawJob {
	jobs := make([]scrape.RawJob, n)
	for i := range jobs {
		jobs[i] = scrape.RawJob{
			Title:       fmt.Sprintf("%s Engineer %d", prefix, i),
			Company:     "Acme",
			Description: "Build services in Python and Docker.",
			URL:         fmt.Sprintf("https://jobs.example.com/%s/%d", strings.ToLower(prefix), i),
		}
	}
	return jobs
}

func newTestIngestor(t *testing.T, deps Deps, opts Options, logger *zap.Logger) *Ingestor {
	t.Helper()
	in, err := New(deps, opts, logger)
	require.NoError(t, err)
	in.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }
	counter := 0
	in.newID = func() string {
		counter++
		return fmt.Sprintf("cycle-%d", counter)
	}
	return in
}

func TestRunCycle_IngestsListings(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	src := &fakeSource{name: "test", pages: map[int][]scrape.RawJob{
		0: {
			{
				Title:       "Senior Backend Engineer",
				Company:     "Acme",
				Description: "<p>We use <b>Python</b> and AWS.</p>",
				Location:    "Cairo, Egypt",
				URL:         "https://jobs.example.com/1",
				Salary:      "30k EGP",
				Skills:      []string{"k8s"},
			},
			{Title: "Data Analyst", URL: "https://jobs.example.com/2"},
		},
	}}
	embedder := &fakeEmbedder{}

	in := newTestIngestor(t, Deps{Sources: []scrape.Source{src}, Embedder: embedder, Store: store}, Options{}, nil)

	result, err := in.RunCycle(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "cycle-1", result.CycleID)
	assert.Equal(t, 2, result.IngestedCount)
	assert.Equal(t, 0, result.SkippedCount)
	assert.Equal(t, 2, result.Pages, "the empty second page ends pagination")
	assert.Empty(t, result.Errors)
	assert.Equal(t, []int{0, 1}, src.fetched)
	assert.Equal(t, 2, store.JobCount())

	id, err := JobID("https://jobs.example.com/1", "Senior Backend Engineer")
	require.NoError(t, err)
	job := store.GetJob(id)
	require.NotNil(t, job)
	assert.Equal(t, "We use Python and AWS.", job.Description)
	assert.Equal(t, types.LevelSenior, job.ExperienceLevel)
	assert.Equal(t, "Cairo, Egypt", job.Location)
	assert.Equal(t, "30k EGP", job.SalaryRange)
	assert.Subset(t, job.RequiredSkills, []string{"python", "aws", "kubernetes"})
	assert.Equal(t, "test-model", job.Embedding.Model)

	id, err = JobID("https://jobs.example.com/2", "Data Analyst")
	require.NoError(t, err)
	job = store.GetJob(id)
	require.NotNil(t, job)
	assert.Equal(t, "Unknown Company", job.Company)
	assert.Equal(t, "Egypt", job.Location)
	assert.Equal(t, "Not specified", job.SalaryRange)
	assert.Equal(t, types.LevelUnspecified, job.ExperienceLevel)
}

func TestRunCycle_PageFailureIsIsolated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := r.URL.Query().Get("start")
		if start == "30" {
			http.Error(w, "upstream exploded", http.StatusInternalServerError)
			return
		}
		_, _ = fmt.Fprintf(w, `<html><body>
<div class="job-card"><h2><a href="/jobs/%[1]s-a">Backend Engineer %[1]s</a></h2><span class="company">Acme</span></div>
<div class="job-card"><h2><a href="/jobs/%[1]s-b">Frontend Engineer %[1]s</a></h2><span class="company">Globex</span></div>
</body></html>`, start)
	}))
	defer server.Close()

	src := scrape.NewHTMLSource(fetch.NewClient(fetch.DefaultOptions()), scrape.HTMLSourceOptions{
		Name:      "board",
		SearchURL: server.URL + "/search?q=engineer",
	}, nil)
	store := vectorstore.NewMemoryStore()

	in := newTestIngestor(t, Deps{
		Sources:  []scrape.Source{src},
		Embedder: &fakeEmbedder{},
		Store:    store,
	}, Options{MaxPages: 4}, nil)

	result, err := in.RunCycle(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 6, result.IngestedCount)
	assert.Equal(t, 4, result.Pages)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, KindPage, result.Errors[0].Kind)
	assert.Equal(t, 2, result.Errors[0].Page)
	assert.Contains(t, result.Errors[0].Message, "500")

	var fetchErr *fetch.Error
	assert.ErrorAs(t, result.Errors[0], &fetchErr)
	assert.Equal(t, 6, store.JobCount())
}

func TestRunCycle_AbortsAfterConsecutiveFailures(t *testing.T) {
	boom := errors.New("bad gateway")
	src := &fakeSource{
		name:  "test",
		pages: map[int][]scrape.RawJob{0: rawJobs("Go", 2)},
		errs:  map[int]error{1: boom, 2: boom, 3: boom},
	}
	store := vectorstore.NewMemoryStore()

	in := newTestIngestor(t, Deps{Sources: []scrape.Source{src}, Embedder: &fakeEmbedder{}, Store: store},
		Options{MaxPages: 10}, nil)

	result, err := in.RunCycle(context.Background(), 100)
	require.Error(t, err)

	var aborted *ScrapeAbortedError
	require.ErrorAs(t, err, &aborted)
	assert.Equal(t, 3, aborted.ConsecutiveFailures)
	assert.ErrorIs(t, err, boom)

	require.NotNil(t, result)
	assert.Equal(t, 2, result.IngestedCount, "listings stored before the abort stay")
	assert.Len(t, result.Errors, 3)
	assert.Equal(t, []int{0, 1, 2, 3}, src.fetched)
	assert.Equal(t, 2, store.JobCount())
}

func TestRunCycle_FailureStreakResetsOnSuccess(t *testing.T) {
	boom := errors.New("timeout")
	src := &fakeSource{
		name: "test",
		pages: map[int][]scrape.RawJob{
			2: rawJobs("Rust", 1),
		},
		errs: map[int]error{0: boom, 1: boom, 3: boom, 4: boom},
	}

	in := newTestIngestor(t, Deps{Sources: []scrape.Source{src}, Embedder: &fakeEmbedder{}, Store: vectorstore.NewMemoryStore()},
		Options{MaxPages: 5}, nil)

	result, err := in.RunCycle(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, result.IngestedCount)
	assert.Len(t, result.Errors, 4)
}

func TestRunCycle_UnreachableFirstPageAborts(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	searchURL := server.URL + "/search"
	server.Close()

	src := scrape.NewHTMLSource(fetch.NewClient(fetch.DefaultOptions()), scrape.HTMLSourceOptions{
		Name:      "gone",
		SearchURL: searchURL,
	}, nil)

	in := newTestIngestor(t, Deps{Sources: []scrape.Source{src}, Embedder: &fakeEmbedder{}, Store: vectorstore.NewMemoryStore()},
		Options{}, nil)

	result, err := in.RunCycle(context.Background(), 10)
	var aborted *ScrapeAbortedError
	require.ErrorAs(t, err, &aborted)
	assert.Equal(t, 1, aborted.ConsecutiveFailures)
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, 0, result.IngestedCount)
}

func TestRunCycle_RespectsMaxJobs(t *testing.T) {
	src := &fakeSource{name: "test", pages: map[int][]scrape.RawJob{
		0: rawJobs("Java", 5),
		1: rawJobs("Kotlin", 5),
		2: rawJobs("Scala", 5),
	}}
	embedder := &fakeEmbedder{}
	store := vectorstore.NewMemoryStore()

	in := newTestIngestor(t, Deps{Sources: []scrape.Source{src}, Embedder: embedder, Store: store}, Options{}, nil)

	result, err := in.RunCycle(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, result.IngestedCount)
	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, 7, embedder.count(), "jobs past the budget are never embedded")
	assert.Equal(t, 7, store.JobCount())
}

func TestRunCycle_FailedItemsReleaseBudget(t *testing.T) {
	page0 := rawJobs("Ops", 3)
	page0[1].Description = "This role will explode your skills."
	src := &fakeSource{name: "test", pages: map[int][]scrape.RawJob{
		0: page0,
		1: rawJobs("Sec", 3),
	}}

	in := newTestIngestor(t, Deps{Sources: []scrape.Source{src}, Embedder: &fakeEmbedder{}, Store: vectorstore.NewMemoryStore()},
		Options{}, nil)

	result, err := in.RunCycle(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, result.IngestedCount)
	assert.Equal(t, 2, result.Pages)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, KindEmbed, result.Errors[0].Kind)
	assert.NotEmpty(t, result.Errors[0].JobID)
}

func TestRunCycle_StoreFailureIsRecorded(t *testing.T) {
	jobs := rawJobs("QA", 3)
	jobs[0].Title = "Broken Pipeline Engineer"
	src := &fakeSource{name: "test", pages: map[int][]scrape.RawJob{0: jobs}}
	store := newFlakyStore()

	in := newTestIngestor(t, Deps{Sources: []scrape.Source{src}, Embedder: &fakeEmbedder{}, Store: store},
		Options{StoreRetry: fastRetry()}, nil)

	result, err := in.RunCycle(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, result.IngestedCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, KindStore, result.Errors[0].Kind)
	assert.True(t, types.IsTransient(result.Errors[0]))
	assert.Equal(t, 3, store.attempts["Broken Pipeline Engineer"], "every attempt of the policy is used")
	assert.Equal(t, 2, store.JobCount())
}

func TestRunCycle_TransientStoreErrorIsRetried(t *testing.T) {
	jobs := rawJobs("QA", 2)
	jobs[0].Title = "Flaky Pipeline Engineer"
	src := &fakeSource{name: "test", pages: map[int][]scrape.RawJob{0: jobs}}
	store := newFlakyStore()

	in := newTestIngestor(t, Deps{Sources: []scrape.Source{src}, Embedder: &fakeEmbedder{}, Store: store},
		Options{StoreRetry: fastRetry()}, nil)

	result, err := in.RunCycle(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, result.IngestedCount)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 2, store.attempts["Flaky Pipeline Engineer"])
	assert.Equal(t, 2, store.JobCount())
}

func TestRunCycle_TransientPageFailureIsRetriedOnce(t *testing.T) {
	unavailable := &fetch.Error{URL: "https://jobs.example.com/search", StatusCode: http.StatusServiceUnavailable, Message: "HTTP status 503"}
	notFound := &fetch.Error{URL: "https://jobs.example.com/search", StatusCode: http.StatusNotFound, Message: "HTTP status 404"}

	tests := []struct {
		name     string
		src      *fakeSource
		ingested int
		failures int
		fetched  []int
	}{
		{
			name: "503 once then success",
			src: &fakeSource{
				pages:   map[int][]scrape.RawJob{0: rawJobs("Go", 1), 1: rawJobs("Rust", 2)},
				errOnce: map[int]error{1: unavailable},
			},
			ingested: 3,
			fetched:  []int{0, 1, 1, 2},
		},
		{
			name: "persistent 503 is retried once",
			src: &fakeSource{
				pages: map[int][]scrape.RawJob{0: rawJobs("Go", 1)},
				errs:  map[int]error{1: unavailable},
			},
			ingested: 1,
			failures: 1,
			fetched:  []int{0, 1, 1, 2},
		},
		{
			name: "404 is not retried",
			src: &fakeSource{
				pages: map[int][]scrape.RawJob{0: rawJobs("Go", 1)},
				errs:  map[int]error{1: notFound},
			},
			ingested: 1,
			failures: 1,
			fetched:  []int{0, 1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.src.name = "test"
			in := newTestIngestor(t, Deps{Sources: []scrape.Source{tt.src}, Embedder: &fakeEmbedder{}, Store: vectorstore.NewMemoryStore()},
				Options{MaxPages: 3}, nil)

			result, err := in.RunCycle(context.Background(), 100)
			require.NoError(t, err)
			assert.Equal(t, tt.ingested, result.IngestedCount)
			assert.Len(t, result.Errors, tt.failures)
			assert.Equal(t, 3, result.Pages)
			assert.Equal(t, tt.fetched, tt.src.fetched)
		})
	}
}

func TestRunCycle_SkipsInvalidAndDuplicateRecords(t *testing.T) {
	valid := scrape.RawJob{Title: "Platform Engineer", URL: "https://jobs.example.com/p/1"}
	src := &fakeSource{name: "test", pages: map[int][]scrape.RawJob{0: {
		valid,
		{Title: "", URL: "https://jobs.example.com/p/2"},
		{Title: "Relative Link", URL: "/p/3"},
		{Title: "FTP Link", URL: "ftp://jobs.example.com/p/4"},
		valid,
		{Title: "platform   engineer", URL: "https://JOBS.example.com/p/1/?utm_source=feed#apply"},
	}}}
	embedder := &fakeEmbedder{}

	in := newTestIngestor(t, Deps{Sources: []scrape.Source{src}, Embedder: embedder, Store: vectorstore.NewMemoryStore()},
		Options{}, nil)

	result, err := in.RunCycle(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.IngestedCount)
	assert.Equal(t, 5, result.SkippedCount)
	assert.Equal(t, 1, embedder.count())
}

func TestRunCycle_SeenCacheSkipsUnchangedListings(t *testing.T) {
	seen := newMemorySeenCache()
	embedder := &fakeEmbedder{}
	store := vectorstore.NewMemoryStore()
	newSource := func() *fakeSource {
		return &fakeSource{name: "test", pages: map[int][]scrape.RawJob{0: rawJobs("Cloud", 3)}}
	}

	in := newTestIngestor(t, Deps{Sources: []scrape.Source{newSource()}, Embedder: embedder, Store: store, Seen: seen},
		Options{}, nil)
	first, err := in.RunCycle(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 3, first.IngestedCount)

	changed := newSource()
	changed.pages[0][0].Description = "Now with Terraform."
	in.deps.Sources = []scrape.Source{changed}

	second, err := in.RunCycle(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "cycle-2", second.CycleID)
	assert.Equal(t, 1, second.IngestedCount, "only the changed listing is re-ingested")
	assert.Equal(t, 2, second.SkippedCount)
	assert.Equal(t, 4, embedder.count())
}

func TestRunCycle_SeenCacheErrorsAreMisses(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	src := &fakeSource{name: "test", pages: map[int][]scrape.RawJob{0: rawJobs("Mobile", 2)}}

	in := newTestIngestor(t, Deps{
		Sources:  []scrape.Source{src},
		Embedder: &fakeEmbedder{},
		Store:    vectorstore.NewMemoryStore(),
		Seen:     brokenSeenCache{},
	}, Options{}, zap.New(core))

	result, err := in.RunCycle(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, result.IngestedCount)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 2, logs.FilterMessage("seen cache lookup failed, treating as miss").Len())
}

func TestRunCycle_WalksSourcesInOrder(t *testing.T) {
	first := &fakeSource{name: "first", pages: map[int][]scrape.RawJob{0: rawJobs("Alpha", 1)}}
	second := &fakeSource{name: "second", pages: map[int][]scrape.RawJob{0: rawJobs("Beta", 1), 1: rawJobs("Gamma", 1)}}

	in := newTestIngestor(t, Deps{Sources: []scrape.Source{first, second}, Embedder: &fakeEmbedder{}, Store: vectorstore.NewMemoryStore()},
		Options{MaxPages: 2}, nil)

	result, err := in.RunCycle(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 3, result.IngestedCount)
	assert.Equal(t, []int{0, 1}, first.fetched)
	assert.Equal(t, []int{0, 1}, second.fetched, "page numbering restarts per source")
}

func TestRunCycle_CancellationReturnsPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &fakeSource{name: "test", pages: map[int][]scrape.RawJob{0: rawJobs("Embedded", 4)}}
	embedder := &fakeEmbedder{onCall: cancel}
	store := vectorstore.NewMemoryStore()

	in := newTestIngestor(t, Deps{Sources: []scrape.Source{src}, Embedder: embedder, Store: store}, Options{}, nil)

	result, err := in.RunCycle(ctx, 10)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.IngestedCount)
	assert.Equal(t, 0, store.JobCount(), "nothing is written after cancellation")
}

func TestRunCycle_InvalidMaxJobs(t *testing.T) {
	in := newTestIngestor(t, Deps{
		Sources:  []scrape.Source{&fakeSource{name: "test"}},
		Embedder: &fakeEmbedder{},
		Store:    vectorstore.NewMemoryStore(),
	}, Options{}, nil)

	for _, n := range []int{0, -1} {
		_, err := in.RunCycle(context.Background(), n)
		var validationErr *types.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	}
}

func TestRunCycle_LogsStateTransitions(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	src := &fakeSource{name: "test", pages: map[int][]scrape.RawJob{0: rawJobs("Log", 1)}}

	in := newTestIngestor(t, Deps{Sources: []scrape.Source{src}, Embedder: &fakeEmbedder{}, Store: vectorstore.NewMemoryStore()},
		Options{}, zap.New(core))

	_, err := in.RunCycle(context.Background(), 10)
	require.NoError(t, err)

	var path []string
	for _, entry := range logs.FilterMessage("scrape state").All() {
		ctx := entry.ContextMap()
		assert.Equal(t, "cycle-1", ctx["cycle_id"])
		path = append(path, ctx["to"].(string))
	}
	assert.Equal(t, []string{
		"FETCHING_PAGE", "PARSING", "EMBEDDING", "STORING",
		"FETCHING_PAGE", "PARSING", "IDLE",
	}, path)
	assert.Zero(t, logs.FilterMessage("unexpected scrape state transition").Len())
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Deps{Embedder: &fakeEmbedder{}, Store: vectorstore.NewMemoryStore()}, Options{}, nil)
	assert.Error(t, err)

	_, err = New(Deps{Sources: []scrape.Source{&fakeSource{}}}, Options{}, nil)
	assert.Error(t, err)

	in, err := New(Deps{Sources: []scrape.Source{&fakeSource{}}, Embedder: &fakeEmbedder{}, Store: vectorstore.NewMemoryStore()},
		Options{MaxPages: 5}, nil)
	require.NoError(t, err)
	opts := in.Options()
	assert.Equal(t, 5, opts.MaxPages)
	assert.Equal(t, DefaultMaxConsecutiveFailures, opts.MaxConsecutiveFailures)
	assert.Equal(t, DefaultEmbedConcurrency, opts.EmbedConcurrency)
	assert.Equal(t, "Egypt", opts.DefaultLocation)
}

func TestJobID(t *testing.T) {
	a, err := JobID("https://jobs.example.com/jobs/42", "Go Developer")
	require.NoError(t, err)
	assert.Len(t, a, 16)

	b, err := JobID("HTTPS://Jobs.Example.com/jobs/42/?utm_campaign=x#top", "  go developer ")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := JobID("https://jobs.example.com/jobs/43", "Go Developer")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	_, err = JobID("/jobs/42", "Go Developer")
	assert.Error(t, err)
}

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://Example.com/a/", "https://example.com/a"},
		{"https://example.com/a?b=2&a=1", "https://example.com/a?a=1&b=2"},
		{"https://example.com/a?utm_source=x&id=7#frag", "https://example.com/a?id=7"},
		{"http://user:pw@example.com/a", "http://example.com/a"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := CanonicalURL(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := CanonicalURL("mailto:hr@example.com")
	assert.Error(t, err)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StateIdle, StateFetchingPage))
	assert.True(t, CanTransition(StateFailedPage, StateFetchingPage))
	assert.True(t, CanTransition(StateStoring, StateIdle))
	assert.False(t, CanTransition(StateIdle, StateStoring))
	assert.False(t, CanTransition(StateEmbedding, StateParsing))
}

func TestMemorySeenCache(t *testing.T) {
	ctx := context.Background()
	c := newMemorySeenCache()

	unchanged, err := c.Unchanged(ctx, "job", "h1")
	require.NoError(t, err)
	assert.False(t, unchanged)

	require.NoError(t, c.Mark(ctx, "job", "h1"))
	unchanged, _ = c.Unchanged(ctx, "job", "h1")
	assert.True(t, unchanged)

	unchanged, _ = c.Unchanged(ctx, "job", "h2")
	assert.False(t, unchanged)
}
